package events

import (
	"context"
	"strings"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/sparklean/service-booking/internal/pkg/kafka"
)

// PaymentEventHandler reacts to payment outcomes. The booking application
// service implements it to confirm or reopen bookings.
type PaymentEventHandler interface {
	HandlePaymentVerified(ctx context.Context, event PaymentVerifiedEvent) error
	HandlePaymentFailed(ctx context.Context, event PaymentFailedEvent) error
}

// PaymentEventConsumer listens to payment events and drives booking state.
type PaymentEventConsumer struct {
	consumer *kafka.Consumer
	handler  PaymentEventHandler
	logger   *zap.Logger
}

// NewPaymentEventConsumer creates a consumer for payment events.
func NewPaymentEventConsumer(brokers []string, groupID string, handler PaymentEventHandler, logger *zap.Logger) *PaymentEventConsumer {
	consumer := kafka.NewConsumer(brokers, groupID, TopicPaymentEvents, logger)
	return &PaymentEventConsumer{
		consumer: consumer,
		handler:  handler,
		logger:   logger,
	}
}

// Start begins consuming payment events. It blocks until ctx is cancelled.
func (c *PaymentEventConsumer) Start(ctx context.Context) error {
	return c.consumer.Consume(ctx, c.handleMessage)
}

func (c *PaymentEventConsumer) handleMessage(ctx context.Context, msg kafkago.Message) error {
	cloudEvent, err := kafka.ParseCloudEvent(msg.Value)
	if err != nil {
		c.logger.Error("failed to parse cloud event from payment topic",
			zap.Error(err),
			zap.String("raw", string(msg.Value)),
		)
		return err
	}

	c.logger.Info("received payment event",
		zap.String("type", cloudEvent.Type),
		zap.String("id", cloudEvent.ID),
	)

	switch {
	case strings.EqualFold(cloudEvent.Type, PaymentVerified):
		var event PaymentVerifiedEvent
		if err := cloudEvent.ParseData(&event); err != nil {
			c.logger.Error("failed to parse PaymentVerifiedEvent data", zap.Error(err))
			return err
		}
		return c.handler.HandlePaymentVerified(ctx, event)

	case strings.EqualFold(cloudEvent.Type, PaymentFailed):
		var event PaymentFailedEvent
		if err := cloudEvent.ParseData(&event); err != nil {
			c.logger.Error("failed to parse PaymentFailedEvent data", zap.Error(err))
			return err
		}
		return c.handler.HandlePaymentFailed(ctx, event)

	default:
		c.logger.Debug("ignoring unhandled payment event type",
			zap.String("type", cloudEvent.Type),
		)
		return nil
	}
}

// Close closes the underlying Kafka consumer.
func (c *PaymentEventConsumer) Close() error {
	return c.consumer.Close()
}
