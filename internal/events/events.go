// Package events defines the booking and payment event contracts and their
// Kafka publisher and consumer.
package events

import (
	"time"

	"github.com/google/uuid"
)

// Topics.
const (
	TopicBookingEvents = "booking.events"
	TopicPaymentEvents = "payment.events"
)

// Event types published on TopicBookingEvents.
const (
	BookingCreated       = "booking.created"
	BookingStatusChanged = "booking.status_changed"
)

// Event types consumed from TopicPaymentEvents.
const (
	PaymentSucceeded = "payment.succeeded"
	PaymentAwaiting  = "payment.awaiting"
	PaymentFailed    = "payment.failed"
)

// Source identifies this service in CloudEvent envelopes.
const Source = "booking-engine"

// BookingCreatedEvent is emitted once a booking has been committed.
type BookingCreatedEvent struct {
	BookingID     uuid.UUID `json:"booking_id"`
	BookingNumber string    `json:"booking_number"`
	VehicleID     uuid.UUID `json:"vehicle_id"`
	SubunitID     uuid.UUID `json:"subunit_id"`
	CustomerID    uuid.UUID `json:"customer_id"`
	PickupAt      time.Time `json:"pickup_at"`
	DropoffAt     time.Time `json:"dropoff_at"`
	TotalCents    int64     `json:"total_cents"`
	CouponCode    string    `json:"coupon_code,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}

// BookingStatusChangedEvent is emitted after every committed transition.
type BookingStatusChangedEvent struct {
	BookingID     uuid.UUID `json:"booking_id"`
	BookingNumber string    `json:"booking_number"`
	SubunitID     uuid.UUID `json:"subunit_id"`
	FromStatus    string    `json:"from_status"`
	ToStatus      string    `json:"to_status"`
	Version       int64     `json:"version"`
	Timestamp     time.Time `json:"timestamp"`
}

// PaymentEvent is the payload of every payment event type.
type PaymentEvent struct {
	BookingID   uuid.UUID `json:"booking_id"`
	PaymentID   string    `json:"payment_id,omitempty"`
	AmountCents int64     `json:"amount_cents,omitempty"`
	Reason      string    `json:"reason,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}
