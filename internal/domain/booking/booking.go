package booking

import (
	"strings"
	"time"

	"github.com/cetler74/dbcars-sub000/internal/domain"
	"github.com/cetler74/dbcars-sub000/internal/domain/extra"
	"github.com/google/uuid"
)

// Price is the snapshot of a booking's price breakdown, in cents.
type Price struct {
	BaseCents     int64
	ExtrasCents   int64
	DiscountCents int64
	TotalCents    int64
}

// NewPrice derives the total from its components. The discount is clamped to
// the subtotal so the total never goes negative.
func NewPrice(baseCents, extrasCents, discountCents int64) Price {
	subtotal := baseCents + extrasCents
	if discountCents > subtotal {
		discountCents = subtotal
	}
	return Price{
		BaseCents:     baseCents,
		ExtrasCents:   extrasCents,
		DiscountCents: discountCents,
		TotalCents:    subtotal - discountCents,
	}
}

// Subtotal is base plus extras, before discount.
func (p Price) Subtotal() int64 { return p.BaseCents + p.ExtrasCents }

// Extra is an add-on line captured at booking time. It is never recomputed.
type Extra struct {
	ExtraID        uuid.UUID
	Name           string
	Quantity       int
	UnitPriceCents int64
	PriceType      extra.PriceType
	LineTotalCents int64
}

// SnapshotExtra captures the catalogue item e for a rental of days days.
func SnapshotExtra(e *extra.Extra, quantity, days int) Extra {
	return Extra{
		ExtraID:        e.ID,
		Name:           e.Name,
		Quantity:       quantity,
		UnitPriceCents: e.PriceCents,
		PriceType:      e.PriceType,
		LineTotalCents: e.LineTotal(quantity, days),
	}
}

// Booking is the aggregate root for a reservation of one subunit.
type Booking struct {
	id             uuid.UUID
	bookingNumber  string
	vehicleID      uuid.UUID
	subunitID      uuid.UUID
	customerID     uuid.UUID
	locationID     *uuid.UUID
	period         domain.Interval
	status         Status
	price          Price
	extras         []Extra
	couponCode     string
	couponID       *uuid.UUID
	couponConsumed bool
	idempotencyKey string
	version        int64
	confirmedAt    *time.Time
	cancelledAt    *time.Time
	createdAt      time.Time
	updatedAt      time.Time
}

// NewParams holds the inputs for NewBooking.
type NewParams struct {
	VehicleID      uuid.UUID
	SubunitID      uuid.UUID
	CustomerID     uuid.UUID
	LocationID     *uuid.UUID
	Period         domain.Interval
	Price          Price
	Extras         []Extra
	CouponCode     string
	CouponID       *uuid.UUID
	IdempotencyKey string
}

// NewBooking creates a pending booking.
func NewBooking(p NewParams) (*Booking, error) {
	if p.VehicleID == uuid.Nil || p.SubunitID == uuid.Nil {
		return nil, domain.NewValidationError("vehicle and subunit are required")
	}
	if p.CustomerID == uuid.Nil {
		return nil, domain.NewValidationError("customer_id is required")
	}
	if p.Period.IsEmpty() {
		return nil, domain.NewValidationError("booking period must not be empty")
	}

	now := time.Now().UTC()
	return &Booking{
		id:             uuid.New(),
		bookingNumber:  NewBookingNumber(),
		vehicleID:      p.VehicleID,
		subunitID:      p.SubunitID,
		customerID:     p.CustomerID,
		locationID:     p.LocationID,
		period:         p.Period,
		status:         StatusPending,
		price:          p.Price,
		extras:         p.Extras,
		couponCode:     p.CouponCode,
		couponID:       p.CouponID,
		idempotencyKey: strings.TrimSpace(p.IdempotencyKey),
		version:        1,
		createdAt:      now,
		updatedAt:      now,
	}, nil
}

// NewBookingNumber returns "BK-" followed by 8 upper-case hex characters.
func NewBookingNumber() string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "BK-" + strings.ToUpper(raw[:8])
}

// --- Getters ---

func (b *Booking) ID() uuid.UUID           { return b.id }
func (b *Booking) BookingNumber() string   { return b.bookingNumber }
func (b *Booking) VehicleID() uuid.UUID    { return b.vehicleID }
func (b *Booking) SubunitID() uuid.UUID    { return b.subunitID }
func (b *Booking) CustomerID() uuid.UUID   { return b.customerID }
func (b *Booking) LocationID() *uuid.UUID  { return b.locationID }
func (b *Booking) Period() domain.Interval { return b.period }
func (b *Booking) Status() Status          { return b.status }
func (b *Booking) Price() Price            { return b.price }
func (b *Booking) Extras() []Extra         { return b.extras }
func (b *Booking) CouponCode() string      { return b.couponCode }
func (b *Booking) CouponID() *uuid.UUID    { return b.couponID }
func (b *Booking) CouponConsumed() bool    { return b.couponConsumed }
func (b *Booking) IdempotencyKey() string  { return b.idempotencyKey }
func (b *Booking) Version() int64          { return b.version }
func (b *Booking) ConfirmedAt() *time.Time { return b.confirmedAt }
func (b *Booking) CancelledAt() *time.Time { return b.cancelledAt }
func (b *Booking) CreatedAt() time.Time    { return b.createdAt }
func (b *Booking) UpdatedAt() time.Time    { return b.updatedAt }

// --- Behavior / State Transitions ---

// TransitionTo moves the booking to status to. It reports whether the
// attached coupon must be consumed as part of persisting this change, which
// happens only on the first entry into confirmed. The version is bumped for
// optimistic locking.
func (b *Booking) TransitionTo(to Status) (consumeCoupon bool, err error) {
	if !b.status.CanTransitionTo(to) {
		return false, domain.NewInvalidStateError(string(b.status), string(to))
	}

	now := time.Now().UTC()
	switch to {
	case StatusConfirmed:
		if b.confirmedAt == nil {
			b.confirmedAt = &now
		}
		if b.couponID != nil && !b.couponConsumed {
			b.couponConsumed = true
			consumeCoupon = true
		}
	case StatusCancelled:
		b.cancelledAt = &now
	}
	b.status = to
	b.version++
	b.updatedAt = now
	return consumeCoupon, nil
}

// --- Reconstitution (used by repository to rebuild from persistence) ---

// Snapshot carries every persisted field of a Booking.
type Snapshot struct {
	ID             uuid.UUID
	BookingNumber  string
	VehicleID      uuid.UUID
	SubunitID      uuid.UUID
	CustomerID     uuid.UUID
	LocationID     *uuid.UUID
	Period         domain.Interval
	Status         Status
	Price          Price
	Extras         []Extra
	CouponCode     string
	CouponID       *uuid.UUID
	CouponConsumed bool
	IdempotencyKey string
	Version        int64
	ConfirmedAt    *time.Time
	CancelledAt    *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Reconstitute rebuilds a Booking from persisted data.
func Reconstitute(s Snapshot) *Booking {
	return &Booking{
		id:             s.ID,
		bookingNumber:  s.BookingNumber,
		vehicleID:      s.VehicleID,
		subunitID:      s.SubunitID,
		customerID:     s.CustomerID,
		locationID:     s.LocationID,
		period:         s.Period,
		status:         s.Status,
		price:          s.Price,
		extras:         s.Extras,
		couponCode:     s.CouponCode,
		couponID:       s.CouponID,
		couponConsumed: s.CouponConsumed,
		idempotencyKey: s.IdempotencyKey,
		version:        s.Version,
		confirmedAt:    s.ConfirmedAt,
		cancelledAt:    s.CancelledAt,
		createdAt:      s.CreatedAt,
		updatedAt:      s.UpdatedAt,
	}
}
