package events

import (
	"context"
	"fmt"
	"time"

	"github.com/cetler74/dbcars-sub000/internal/domain/booking"
	"github.com/cetler74/dbcars-sub000/internal/platform/kafka"
)

// EventWriter is the part of kafka.Producer the publisher needs.
type EventWriter interface {
	PublishEvent(ctx context.Context, topic, key string, ce kafka.CloudEvent) error
}

// BookingPublisher publishes booking events keyed by booking id, so every
// event of one booking lands on the same partition in order.
type BookingPublisher struct {
	writer EventWriter
}

// NewBookingPublisher creates a new BookingPublisher.
func NewBookingPublisher(writer EventWriter) *BookingPublisher {
	return &BookingPublisher{writer: writer}
}

// BookingCreated publishes a booking.created event.
func (p *BookingPublisher) BookingCreated(ctx context.Context, b *booking.Booking) error {
	return p.publish(ctx, BookingCreated, b, BookingCreatedEvent{
		BookingID:     b.ID(),
		BookingNumber: b.BookingNumber(),
		VehicleID:     b.VehicleID(),
		SubunitID:     b.SubunitID(),
		CustomerID:    b.CustomerID(),
		PickupAt:      b.Period().Start,
		DropoffAt:     b.Period().End,
		TotalCents:    b.Price().TotalCents,
		CouponCode:    b.CouponCode(),
		Timestamp:     time.Now().UTC(),
	})
}

// BookingStatusChanged publishes a booking.status_changed event.
func (p *BookingPublisher) BookingStatusChanged(ctx context.Context, b *booking.Booking, from booking.Status) error {
	return p.publish(ctx, BookingStatusChanged, b, BookingStatusChangedEvent{
		BookingID:     b.ID(),
		BookingNumber: b.BookingNumber(),
		SubunitID:     b.SubunitID(),
		FromStatus:    string(from),
		ToStatus:      string(b.Status()),
		Version:       b.Version(),
		Timestamp:     time.Now().UTC(),
	})
}

func (p *BookingPublisher) publish(ctx context.Context, eventType string, b *booking.Booking, data any) error {
	ce, err := kafka.NewCloudEvent(Source, eventType, b.BookingNumber(), data)
	if err != nil {
		return err
	}
	if err := p.writer.PublishEvent(ctx, TopicBookingEvents, b.ID().String(), ce); err != nil {
		return fmt.Errorf("publish %s: %w", eventType, err)
	}
	return nil
}
