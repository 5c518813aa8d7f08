// Package sensor feeds hardware presence events into the reconciler. The
// production path is an SQS queue filled by the IoT rule engine; delivery is
// at-least-once and unordered, which the reconciler already tolerates.
package sensor

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"smart-parking-engine/internal/reconciler"
	"smart-parking-engine/internal/registry"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"
)

// presenceMessage is the queue payload shape emitted by the slot sensors.
type presenceMessage struct {
	SlotNumber string    `json:"slot_number"`
	Detected   *bool     `json:"detected"`
	ObservedAt time.Time `json:"observed_at"`
	DeviceID   string    `json:"device_id"`
}

// SQSReceiver is the slice of the SQS client the consumer uses.
type SQSReceiver interface {
	ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error)
}

type SQSConsumer struct {
	client     SQSReceiver
	queueURL   string
	reconciler *reconciler.Reconciler
	logger     *slog.Logger
}

func NewSQSConsumer(client SQSReceiver, queueURL string, rec *reconciler.Reconciler, logger *slog.Logger) *SQSConsumer {
	return &SQSConsumer{
		client:     client,
		queueURL:   queueURL,
		reconciler: rec,
		logger:     logger,
	}
}

// Start long-polls the queue until ctx is cancelled. Messages are deleted once
// handled; handler failures leave the message for redelivery after the
// visibility timeout.
func (c *SQSConsumer) Start(ctx context.Context) {
	c.logger.Info("sensor consumer started", slog.String("queue", c.queueURL))

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("sensor consumer stopped")
			return
		default:
		}

		out, err := c.client.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
			QueueUrl:            aws.String(c.queueURL),
			MaxNumberOfMessages: 10,
			WaitTimeSeconds:     20,
			VisibilityTimeout:   60,
		})
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			c.logger.Error("sensor queue receive failed", slog.String("error", err.Error()))
			select {
			case <-time.After(5 * time.Second):
			case <-ctx.Done():
				return
			}
			continue
		}

		for _, msg := range out.Messages {
			c.handleMessage(ctx, msg)
		}
	}
}

func (c *SQSConsumer) handleMessage(ctx context.Context, msg sqstypes.Message) {
	if msg.Body == nil {
		c.deleteMessage(ctx, msg.ReceiptHandle)
		return
	}

	ev, err := parsePresenceMessage([]byte(*msg.Body))
	if err != nil {
		// Malformed payloads never become valid; drop instead of redelivering.
		c.logger.Warn("dropping malformed presence message", slog.String("error", err.Error()))
		c.deleteMessage(ctx, msg.ReceiptHandle)
		return
	}

	if err := c.reconciler.Handle(ctx, ev); err != nil {
		if errors.Is(err, registry.ErrSlotNotFound) {
			c.logger.Warn("presence event for unknown slot",
				slog.String("slot", ev.SlotNumber),
			)
			c.deleteMessage(ctx, msg.ReceiptHandle)
			return
		}
		// Leave the message for redelivery after the visibility timeout.
		c.logger.Error("presence event handling failed",
			slog.String("slot", ev.SlotNumber),
			slog.String("error", err.Error()),
		)
		return
	}

	c.deleteMessage(ctx, msg.ReceiptHandle)
}

func (c *SQSConsumer) deleteMessage(ctx context.Context, receiptHandle *string) {
	if receiptHandle == nil {
		return
	}
	_, err := c.client.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      aws.String(c.queueURL),
		ReceiptHandle: receiptHandle,
	})
	if err != nil {
		c.logger.Error("failed to delete presence message", slog.String("error", err.Error()))
	}
}

func parsePresenceMessage(body []byte) (reconciler.Event, error) {
	var m presenceMessage
	if err := json.Unmarshal(body, &m); err != nil {
		return reconciler.Event{}, err
	}
	if m.SlotNumber == "" {
		return reconciler.Event{}, errors.New("missing slot_number")
	}
	if m.Detected == nil {
		return reconciler.Event{}, errors.New("missing detected flag")
	}
	return reconciler.Event{
		SlotNumber: m.SlotNumber,
		Detected:   *m.Detected,
		ObservedAt: m.ObservedAt,
	}, nil
}
