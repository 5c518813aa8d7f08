// Package gateway emits the physical gate-open signal for a confirmed
// arrival. It owns no state: one fire-and-forget publish per trigger, failures
// logged and never retried (re-firing a gate without human awareness is a
// safety hazard, not resiliency).
package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/iotdataplane"
	"github.com/google/uuid"
)

type Gateway interface {
	// Trigger requests a single gate-open for the slot. No acknowledgment is
	// awaited; engine state is consistent regardless of the outcome.
	Trigger(ctx context.Context, slotNumber string)
}

type gateCommand struct {
	Command    string `json:"command"`
	SlotNumber string `json:"slot_number"`
	RequestID  string `json:"request_id"`
}

// IoTPublisher is the slice of the AWS IoT data-plane client the gateway uses.
type IoTPublisher interface {
	Publish(ctx context.Context, params *iotdataplane.PublishInput, optFns ...func(*iotdataplane.Options)) (*iotdataplane.PublishOutput, error)
}

// IoTGateway publishes gate-open commands to the device MQTT topic via the
// AWS IoT data plane.
type IoTGateway struct {
	client       IoTPublisher
	topicPattern string
	logger       *slog.Logger
}

func NewIoTGateway(client IoTPublisher, topicPattern string, logger *slog.Logger) *IoTGateway {
	return &IoTGateway{
		client:       client,
		topicPattern: topicPattern,
		logger:       logger,
	}
}

func (g *IoTGateway) Trigger(ctx context.Context, slotNumber string) {
	cmd := gateCommand{
		Command:    "open",
		SlotNumber: slotNumber,
		RequestID:  uuid.NewString(),
	}
	payload, err := json.Marshal(cmd)
	if err != nil {
		g.logger.Error("failed to marshal gate command",
			slog.String("slot", slotNumber),
			slog.String("error", err.Error()),
		)
		return
	}

	topic := fmt.Sprintf(g.topicPattern, slotNumber)
	_, err = g.client.Publish(ctx, &iotdataplane.PublishInput{
		Topic:   aws.String(topic),
		Payload: payload,
		Qos:     1,
	})
	if err != nil {
		g.logger.Error("gate-open publish failed",
			slog.String("slot", slotNumber),
			slog.String("topic", topic),
			slog.String("request_id", cmd.RequestID),
			slog.String("error", err.Error()),
		)
		return
	}

	g.logger.Info("gate-open published",
		slog.String("slot", slotNumber),
		slog.String("request_id", cmd.RequestID),
	)
}

// LogGateway stands in when no IoT endpoint is configured (local development,
// tests). It only records the trigger.
type LogGateway struct {
	logger *slog.Logger
}

func NewLogGateway(logger *slog.Logger) *LogGateway {
	return &LogGateway{logger: logger}
}

func (g *LogGateway) Trigger(_ context.Context, slotNumber string) {
	g.logger.Info("gate-open signal (no actuation endpoint configured)",
		slog.String("slot", slotNumber),
	)
}
