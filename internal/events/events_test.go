package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/cetler74/dbcars-sub000/internal/domain"
	"github.com/cetler74/dbcars-sub000/internal/domain/booking"
	"github.com/cetler74/dbcars-sub000/internal/platform/kafka"
	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type capturedEvent struct {
	topic string
	key   string
	ce    kafka.CloudEvent
}

type fakeWriter struct {
	events []capturedEvent
}

func (w *fakeWriter) PublishEvent(_ context.Context, topic, key string, ce kafka.CloudEvent) error {
	w.events = append(w.events, capturedEvent{topic: topic, key: key, ce: ce})
	return nil
}

type appliedOutcome struct {
	bookingID uuid.UUID
	to        booking.Status
}

// fakeApplier returns errs in order, one per call, then succeeds.
type fakeApplier struct {
	errs    []error
	calls   int
	applied []appliedOutcome
}

func (a *fakeApplier) ApplyPaymentOutcome(_ context.Context, id uuid.UUID, to booking.Status) error {
	a.calls++
	if len(a.errs) > 0 {
		err := a.errs[0]
		a.errs = a.errs[1:]
		return err
	}
	a.applied = append(a.applied, appliedOutcome{bookingID: id, to: to})
	return nil
}

func testBooking(t *testing.T) *booking.Booking {
	t.Helper()
	start := time.Date(2030, time.June, 1, 10, 0, 0, 0, time.UTC)
	iv, err := domain.NewInterval(start, start.AddDate(0, 0, 2))
	require.NoError(t, err)
	b, err := booking.NewBooking(booking.NewParams{
		VehicleID:  uuid.New(),
		SubunitID:  uuid.New(),
		CustomerID: uuid.New(),
		Period:     iv,
		Price:      booking.NewPrice(20000, 0, 0),
	})
	require.NoError(t, err)
	return b
}

func TestBookingPublisher(t *testing.T) {
	ctx := context.Background()
	w := &fakeWriter{}
	p := NewBookingPublisher(w)
	b := testBooking(t)

	require.NoError(t, p.BookingCreated(ctx, b))
	_, err := b.TransitionTo(booking.StatusConfirmed)
	require.NoError(t, err)
	require.NoError(t, p.BookingStatusChanged(ctx, b, booking.StatusPending))

	require.Len(t, w.events, 2)
	for _, e := range w.events {
		assert.Equal(t, TopicBookingEvents, e.topic)
		assert.Equal(t, b.ID().String(), e.key)
		assert.Equal(t, Source, e.ce.Source)
		assert.Equal(t, b.BookingNumber(), e.ce.Subject)
	}

	assert.Equal(t, BookingCreated, w.events[0].ce.Type)
	var created BookingCreatedEvent
	require.NoError(t, w.events[0].ce.ParseData(&created))
	assert.Equal(t, int64(20000), created.TotalCents)
	assert.Equal(t, b.SubunitID(), created.SubunitID)

	assert.Equal(t, BookingStatusChanged, w.events[1].ce.Type)
	var changed BookingStatusChangedEvent
	require.NoError(t, w.events[1].ce.ParseData(&changed))
	assert.Equal(t, "pending", changed.FromStatus)
	assert.Equal(t, "confirmed", changed.ToStatus)
	assert.Equal(t, int64(2), changed.Version)
}

func paymentMessage(t *testing.T, eventType string, bookingID uuid.UUID) kafkago.Message {
	t.Helper()
	ce, err := kafka.NewCloudEvent("payment-service", eventType, bookingID.String(), PaymentEvent{BookingID: bookingID, Timestamp: time.Now().UTC()})
	require.NoError(t, err)
	raw, err := json.Marshal(ce)
	require.NoError(t, err)
	return kafkago.Message{Topic: TopicPaymentEvents, Value: raw}
}

func TestPaymentEventConsumer_Routing(t *testing.T) {
	ctx := context.Background()
	applier := &fakeApplier{}
	c := &PaymentEventConsumer{bookings: applier, logger: zap.NewNop()}
	id := uuid.New()

	require.NoError(t, c.handleMessage(ctx, paymentMessage(t, PaymentAwaiting, id)))
	require.NoError(t, c.handleMessage(ctx, paymentMessage(t, "Payment.Succeeded", id)))
	require.NoError(t, c.handleMessage(ctx, paymentMessage(t, PaymentFailed, id)))
	require.NoError(t, c.handleMessage(ctx, paymentMessage(t, "payment.refunded", id)))

	assert.Equal(t, []appliedOutcome{
		{bookingID: id, to: booking.StatusWaitingPayment},
		{bookingID: id, to: booking.StatusConfirmed},
		{bookingID: id, to: booking.StatusCancelled},
	}, applier.applied)
}

func TestPaymentEventConsumer_BadPayloads(t *testing.T) {
	ctx := context.Background()
	applier := &fakeApplier{}
	c := &PaymentEventConsumer{bookings: applier, logger: zap.NewNop()}

	assert.Error(t, c.handleMessage(ctx, kafkago.Message{Value: []byte("not json")}))

	ce := kafka.CloudEvent{SpecVersion: "1.0", ID: "1", Type: PaymentSucceeded, Data: json.RawMessage(`"oops"`)}
	raw, err := json.Marshal(ce)
	require.NoError(t, err)
	assert.Error(t, c.handleMessage(ctx, kafkago.Message{Value: raw}))
	assert.Empty(t, applier.applied)
}

func TestPaymentEventConsumer_RetriesConflict(t *testing.T) {
	ctx := context.Background()
	applier := &fakeApplier{errs: []error{domain.NewConflictError("booking was modified by another transaction")}}
	c := &PaymentEventConsumer{bookings: applier, logger: zap.NewNop(), maxAttempts: 3, backoff: time.Millisecond}
	id := uuid.New()

	require.NoError(t, c.handleMessage(ctx, paymentMessage(t, PaymentSucceeded, id)))
	assert.Equal(t, 2, applier.calls)
	assert.Equal(t, []appliedOutcome{{bookingID: id, to: booking.StatusConfirmed}}, applier.applied)
}

func TestPaymentEventConsumer_GivesUpAfterMaxAttempts(t *testing.T) {
	ctx := context.Background()
	outage := domain.NewStoreUnavailableError(context.DeadlineExceeded)
	applier := &fakeApplier{errs: []error{outage, outage, outage, outage}}
	c := &PaymentEventConsumer{bookings: applier, logger: zap.NewNop(), maxAttempts: 3, backoff: time.Millisecond}

	err := c.handleMessage(ctx, paymentMessage(t, PaymentSucceeded, uuid.New()))
	require.Error(t, err)
	assert.True(t, domain.IsRetryable(err))
	assert.Equal(t, 3, applier.calls)
	assert.Empty(t, applier.applied)
}

func TestPaymentEventConsumer_DoesNotRetryPermanentErrors(t *testing.T) {
	ctx := context.Background()
	applier := &fakeApplier{errs: []error{domain.NewInvalidStateError("completed", "confirmed")}}
	c := &PaymentEventConsumer{bookings: applier, logger: zap.NewNop(), maxAttempts: 3, backoff: time.Millisecond}

	err := c.handleMessage(ctx, paymentMessage(t, PaymentSucceeded, uuid.New()))
	assert.ErrorIs(t, err, domain.ErrInvalidState)
	assert.Equal(t, 1, applier.calls)
}

func TestPaymentEventConsumer_RetryStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	applier := &fakeApplier{errs: []error{domain.NewConflictError("busy")}}
	c := &PaymentEventConsumer{bookings: applier, logger: zap.NewNop(), maxAttempts: 3, backoff: time.Hour}

	err := c.handleMessage(ctx, paymentMessage(t, PaymentSucceeded, uuid.New()))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, applier.calls)
}
