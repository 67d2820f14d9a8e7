package application

import (
	"context"
	"errors"
	"time"

	"github.com/cetler74/dbcars-sub000/internal/domain"
	"github.com/cetler74/dbcars-sub000/internal/domain/booking"
)

// DefaultStoreTimeout bounds store work when no timeout is configured.
const DefaultStoreTimeout = 5 * time.Second

// EventPublisher announces booking changes after they are committed.
// Implementations must not block for long; errors are only logged.
type EventPublisher interface {
	BookingCreated(ctx context.Context, b *booking.Booking) error
	BookingStatusChanged(ctx context.Context, b *booking.Booking, from booking.Status) error
}

// NopPublisher discards events. Used when Kafka is disabled.
type NopPublisher struct{}

func (NopPublisher) BookingCreated(context.Context, *booking.Booking) error { return nil }

func (NopPublisher) BookingStatusChanged(context.Context, *booking.Booking, booking.Status) error {
	return nil
}

func withStoreTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		d = DefaultStoreTimeout
	}
	return context.WithTimeout(ctx, d)
}

// storeError turns an expired store deadline into a retryable error and
// passes everything else through.
func storeError(err error) error {
	if err == nil {
		return nil
	}
	var de *domain.DomainError
	if errors.As(err, &de) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return domain.NewStoreUnavailableError(err)
	}
	return err
}
