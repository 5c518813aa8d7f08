package bootstrap

import (
	"context"
	"log/slog"

	"smart-parking-engine/internal/gateway"
	"smart-parking-engine/internal/pkg/config"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/iotdataplane"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"go.uber.org/fx"
)

var AWSModule = fx.Module("aws",
	fx.Provide(
		NewGateway,
		NewSQSClient,
	),
)

// NewGateway picks the IoT data plane when an endpoint is configured and falls
// back to log-only actuation otherwise.
func NewGateway(cfg config.Config, logger *slog.Logger) (gateway.Gateway, error) {
	if cfg.AWS.IoTEndpoint == "" {
		return gateway.NewLogGateway(logger), nil
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(cfg.AWS.Region),
	)
	if err != nil {
		return nil, err
	}

	client := iotdataplane.NewFromConfig(awsCfg, func(o *iotdataplane.Options) {
		o.BaseEndpoint = &cfg.AWS.IoTEndpoint
	})
	return gateway.NewIoTGateway(client, cfg.Gate.CommandTopic, logger), nil
}

// NewSQSClient returns nil when no sensor queue is configured; the HTTP
// presence ingest still works without it.
func NewSQSClient(cfg config.Config) (*sqs.Client, error) {
	if cfg.AWS.SQSEventQueueURL == "" {
		return nil, nil
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(cfg.AWS.Region),
	)
	if err != nil {
		return nil, err
	}

	return sqs.NewFromConfig(awsCfg), nil
}
