package events

import (
	"context"
	"strings"
	"time"

	"github.com/cetler74/dbcars-sub000/internal/domain"
	"github.com/cetler74/dbcars-sub000/internal/domain/booking"
	"github.com/cetler74/dbcars-sub000/internal/platform/kafka"
	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// PaymentOutcomeApplier moves a booking to the status a payment implies.
type PaymentOutcomeApplier interface {
	ApplyPaymentOutcome(ctx context.Context, bookingID uuid.UUID, to booking.Status) error
}

// outcomes maps payment event types to the booking status they imply.
var outcomes = map[string]booking.Status{
	PaymentSucceeded: booking.StatusConfirmed,
	PaymentAwaiting:  booking.StatusWaitingPayment,
	PaymentFailed:    booking.StatusCancelled,
}

const (
	defaultApplyAttempts = 5
	defaultApplyBackoff  = 200 * time.Millisecond
	maxApplyBackoff      = 5 * time.Second
)

// PaymentEventConsumer listens to payment events and advances bookings.
// Retryable failures are retried with doubling backoff before the offset is
// committed.
type PaymentEventConsumer struct {
	consumer *kafka.Consumer
	bookings PaymentOutcomeApplier
	logger   *zap.Logger

	maxAttempts int
	backoff     time.Duration
}

// NewPaymentEventConsumer creates a new consumer for payment events.
func NewPaymentEventConsumer(
	brokers []string,
	groupID string,
	bookings PaymentOutcomeApplier,
	logger *zap.Logger,
) *PaymentEventConsumer {
	return &PaymentEventConsumer{
		consumer: kafka.NewConsumer(brokers, groupID, TopicPaymentEvents, logger),
		bookings:    bookings,
		logger:      logger,
		maxAttempts: defaultApplyAttempts,
		backoff:     defaultApplyBackoff,
	}
}

// Start begins consuming payment events. It blocks until the context is cancelled.
func (c *PaymentEventConsumer) Start(ctx context.Context) error {
	return c.consumer.Consume(ctx, c.handleMessage)
}

// handleMessage routes incoming Kafka messages to the booking service.
func (c *PaymentEventConsumer) handleMessage(ctx context.Context, msg kafkago.Message) error {
	ce, err := kafka.ParseCloudEvent(msg.Value)
	if err != nil {
		c.logger.Error("failed to parse cloud event from payment topic",
			zap.Error(err),
			zap.String("raw", string(msg.Value)),
		)
		return err
	}

	to, ok := outcomes[strings.ToLower(ce.Type)]
	if !ok {
		c.logger.Debug("ignoring unhandled payment event type", zap.String("type", ce.Type))
		return nil
	}

	var event PaymentEvent
	if err := ce.ParseData(&event); err != nil {
		c.logger.Error("failed to parse payment event data", zap.String("type", ce.Type), zap.Error(err))
		return err
	}

	c.logger.Info("received payment event",
		zap.String("type", ce.Type),
		zap.String("id", ce.ID),
		zap.String("booking_id", event.BookingID.String()),
	)
	return c.apply(ctx, event.BookingID, to)
}

// apply retries retryable errors until the attempts run out or ctx is done.
// Any other error is returned at once.
func (c *PaymentEventConsumer) apply(ctx context.Context, bookingID uuid.UUID, to booking.Status) error {
	attempts := c.maxAttempts
	if attempts <= 0 {
		attempts = defaultApplyAttempts
	}
	wait := c.backoff
	if wait <= 0 {
		wait = defaultApplyBackoff
	}

	var err error
	for attempt := 1; ; attempt++ {
		err = c.bookings.ApplyPaymentOutcome(ctx, bookingID, to)
		if err == nil || !domain.IsRetryable(err) || attempt == attempts {
			return err
		}
		c.logger.Warn("retrying payment outcome",
			zap.String("booking_id", bookingID.String()),
			zap.Int("attempt", attempt),
			zap.Duration("backoff", wait),
			zap.Error(err),
		)

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		wait *= 2
		if wait > maxApplyBackoff {
			wait = maxApplyBackoff
		}
	}
}

// Close closes the underlying Kafka consumer.
func (c *PaymentEventConsumer) Close() error {
	return c.consumer.Close()
}
