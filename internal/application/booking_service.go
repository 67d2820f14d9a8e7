package application

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/cetler74/dbcars-sub000/internal/domain"
	"github.com/cetler74/dbcars-sub000/internal/domain/booking"
	"github.com/cetler74/dbcars-sub000/internal/domain/fleet"
	"github.com/cetler74/dbcars-sub000/internal/domain/pricing"
	"github.com/cetler74/dbcars-sub000/internal/platform/lock"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MinimumRental is the shortest interval that can be booked.
const MinimumRental = 24 * time.Hour

// CreateBookingRequest is the DTO for reserving a vehicle.
type CreateBookingRequest struct {
	VehicleID      uuid.UUID      `json:"vehicle_id" binding:"required"`
	CustomerID     uuid.UUID      `json:"customer_id" binding:"required"`
	SubunitID      *uuid.UUID     `json:"subunit_id,omitempty"`
	LocationID     *uuid.UUID     `json:"location_id,omitempty"`
	PickupAt       time.Time      `json:"pickup_at" binding:"required"`
	DropoffAt      time.Time      `json:"dropoff_at" binding:"required"`
	Extras         []ExtraRequest `json:"extras,omitempty"`
	CouponCode     string         `json:"coupon_code,omitempty"`
	IdempotencyKey string         `json:"idempotency_key,omitempty"`
}

// UpdateStatusRequest is the DTO for a booking status change.
type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// ListBookingsRequest narrows an admin listing.
type ListBookingsRequest struct {
	Status     string
	VehicleID  *uuid.UUID
	CustomerID *uuid.UUID
	Page       int
	Limit      int
}

// BookingDTO is the API response DTO for booking data.
type BookingDTO struct {
	ID             uuid.UUID      `json:"id"`
	BookingNumber  string         `json:"booking_number"`
	VehicleID      uuid.UUID      `json:"vehicle_id"`
	SubunitID      uuid.UUID      `json:"subunit_id"`
	CustomerID     uuid.UUID      `json:"customer_id"`
	LocationID     *uuid.UUID     `json:"location_id,omitempty"`
	PickupAt       time.Time      `json:"pickup_at"`
	DropoffAt      time.Time      `json:"dropoff_at"`
	Status         string         `json:"status"`
	BaseCents      int64          `json:"base_cents"`
	ExtrasCents    int64          `json:"extras_cents"`
	DiscountCents  int64          `json:"discount_cents"`
	TotalCents     int64          `json:"total_cents"`
	Total          string         `json:"total"`
	CouponCode     string         `json:"coupon_code,omitempty"`
	CouponConsumed bool           `json:"coupon_consumed"`
	Extras         []ExtraLineDTO `json:"extras"`
	Version        int64          `json:"version"`
	ConfirmedAt    *time.Time     `json:"confirmed_at,omitempty"`
	CancelledAt    *time.Time     `json:"cancelled_at,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// BookingService allocates subunits and drives the booking lifecycle.
type BookingService struct {
	fleet        fleet.Repository
	bookings     booking.Repository
	availability *AvailabilityService
	pricing      *PricingService
	locker       lock.Locker
	publisher    EventPublisher
	timeout      time.Duration
	logger       *zap.Logger
}

// NewBookingService creates a new BookingService.
func NewBookingService(
	fleetRepo fleet.Repository,
	bookings booking.Repository,
	availability *AvailabilityService,
	pricingSvc *PricingService,
	locker lock.Locker,
	publisher EventPublisher,
	timeout time.Duration,
	logger *zap.Logger,
) *BookingService {
	if locker == nil {
		locker = lock.NopLocker{}
	}
	if publisher == nil {
		publisher = NopPublisher{}
	}
	return &BookingService{
		fleet:        fleetRepo,
		bookings:     bookings,
		availability: availability,
		pricing:      pricingSvc,
		locker:       locker,
		publisher:    publisher,
		timeout:      timeout,
		logger:       logger,
	}
}

// CreateBooking reserves a free subunit for the requested interval. The
// returned flag is false when an earlier booking with the same idempotency
// key was returned instead of allocating again.
func (s *BookingService) CreateBooking(ctx context.Context, req CreateBookingRequest) (*BookingDTO, bool, error) {
	req.IdempotencyKey = strings.TrimSpace(req.IdempotencyKey)
	iv, err := domain.NewInterval(req.PickupAt, req.DropoffAt)
	if err != nil {
		return nil, false, err
	}
	if iv.Duration() < MinimumRental {
		return nil, false, domain.NewValidationError("minimum rental is 24 hours, got %s", iv.Duration())
	}

	ctx, cancel := withStoreTimeout(ctx, s.timeout)
	defer cancel()

	if existing, err := s.findByIdempotencyKey(ctx, req.CustomerID, req.IdempotencyKey); err != nil {
		return nil, false, storeError(err)
	} else if existing != nil {
		s.logger.Info("idempotent booking replay",
			zap.String("booking_id", existing.ID().String()),
			zap.String("idempotency_key", req.IdempotencyKey),
		)
		return toBookingDTO(existing), false, nil
	}

	release, err := s.acquire(ctx, req.VehicleID)
	if err != nil {
		return nil, false, err
	}
	defer release()

	b, err := s.allocate(ctx, req, iv)
	if err != nil {
		if req.IdempotencyKey != "" {
			// A concurrent request with the same key may have won the insert.
			if existing, ferr := s.findByIdempotencyKey(ctx, req.CustomerID, req.IdempotencyKey); ferr == nil && existing != nil {
				return toBookingDTO(existing), false, nil
			}
		}
		s.logger.Warn("booking allocation failed",
			zap.String("vehicle_id", req.VehicleID.String()),
			zap.Time("pickup_at", iv.Start),
			zap.Time("dropoff_at", iv.End),
			zap.Error(err),
		)
		return nil, false, storeError(err)
	}

	s.logger.Info("booking created",
		zap.String("booking_id", b.ID().String()),
		zap.String("booking_number", b.BookingNumber()),
		zap.String("subunit_id", b.SubunitID().String()),
		zap.Int64("total_cents", b.Price().TotalCents),
	)

	if err := s.publisher.BookingCreated(ctx, b); err != nil {
		s.logger.Error("failed to publish booking created event",
			zap.String("booking_id", b.ID().String()),
			zap.Error(err),
		)
	}
	return toBookingDTO(b), true, nil
}

func (s *BookingService) allocate(ctx context.Context, req CreateBookingRequest, iv domain.Interval) (*booking.Booking, error) {
	vehicle, err := s.fleet.FindVehicleByID(ctx, req.VehicleID)
	if err != nil {
		return nil, err
	}

	candidates, err := s.availability.freeForVehicle(ctx, vehicle, iv)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, domain.NewUnavailableError("no unit of this vehicle is free for the requested interval")
	}
	unit := candidates[0]
	if req.SubunitID != nil {
		unit = nil
		for _, c := range candidates {
			if c.ID == *req.SubunitID {
				unit = c
				break
			}
		}
		if unit == nil {
			return nil, domain.NewUnavailableError("requested subunit is not free for the requested interval")
		}
	}

	q, err := s.pricing.quote(ctx, vehicle, iv, req.LocationID, req.Extras, req.CouponCode)
	if err != nil {
		return nil, err
	}

	params := booking.NewParams{
		VehicleID:      vehicle.ID,
		SubunitID:      unit.ID,
		CustomerID:     req.CustomerID,
		LocationID:     req.LocationID,
		Period:         iv,
		Price:          q.price,
		Extras:         q.extras,
		IdempotencyKey: req.IdempotencyKey,
	}
	if q.coupon != nil {
		id := q.coupon.ID()
		params.CouponID = &id
		params.CouponCode = q.coupon.Code()
	}
	b, err := booking.NewBooking(params)
	if err != nil {
		return nil, err
	}

	if err := s.bookings.InsertIfFree(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

// acquire takes the per-vehicle advisory lock. A lock backend failure is
// logged and the request proceeds on the database guarantees alone.
func (s *BookingService) acquire(ctx context.Context, vehicleID uuid.UUID) (func(), error) {
	release, err := s.locker.Acquire(ctx, "vehicle:"+vehicleID.String())
	switch {
	case err == nil:
		return release, nil
	case errors.Is(err, lock.ErrNotAcquired):
		return nil, domain.NewConflictError("another booking for this vehicle is in progress")
	case errors.Is(err, context.DeadlineExceeded):
		return nil, domain.NewStoreUnavailableError(err)
	case errors.Is(err, context.Canceled):
		return nil, err
	default:
		s.logger.Warn("advisory lock unavailable, relying on row locks",
			zap.String("vehicle_id", vehicleID.String()),
			zap.Error(err),
		)
		return func() {}, nil
	}
}

func (s *BookingService) findByIdempotencyKey(ctx context.Context, customerID uuid.UUID, key string) (*booking.Booking, error) {
	if key == "" {
		return nil, nil
	}
	b, err := s.bookings.FindByIdempotencyKey(ctx, customerID, key)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return b, nil
}

// TransitionStatus moves a booking through the lifecycle. The first entry
// into confirmed consumes the attached coupon in the same transaction.
func (s *BookingService) TransitionStatus(ctx context.Context, bookingID uuid.UUID, status string) (*BookingDTO, error) {
	to, err := booking.ParseStatus(status)
	if err != nil {
		return nil, err
	}

	ctx, cancel := withStoreTimeout(ctx, s.timeout)
	defer cancel()

	b, err := s.transition(ctx, bookingID, to)
	if err != nil {
		return nil, storeError(err)
	}
	return toBookingDTO(b), nil
}

func (s *BookingService) transition(ctx context.Context, bookingID uuid.UUID, to booking.Status) (*booking.Booking, error) {
	b, err := s.bookings.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	from := b.Status()
	consume, err := b.TransitionTo(to)
	if err != nil {
		return nil, err
	}
	if err := s.bookings.UpdateStatus(ctx, b, consume); err != nil {
		return nil, err
	}

	s.logger.Info("booking status changed",
		zap.String("booking_id", b.ID().String()),
		zap.String("from", string(from)),
		zap.String("to", string(to)),
		zap.Bool("coupon_consumed", consume),
	)

	if err := s.publisher.BookingStatusChanged(ctx, b, from); err != nil {
		s.logger.Error("failed to publish booking status event",
			zap.String("booking_id", b.ID().String()),
			zap.Error(err),
		)
	}
	return b, nil
}

// ApplyPaymentOutcome moves a booking to the status a payment event implies.
// Transitions that are already applied or no longer possible are skipped.
func (s *BookingService) ApplyPaymentOutcome(ctx context.Context, bookingID uuid.UUID, to booking.Status) error {
	ctx, cancel := withStoreTimeout(ctx, s.timeout)
	defer cancel()

	b, err := s.bookings.FindByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.logger.Warn("payment event for unknown booking, skipping",
				zap.String("booking_id", bookingID.String()),
			)
			return nil
		}
		return storeError(err)
	}

	if b.Status() == to || !b.Status().CanTransitionTo(to) {
		s.logger.Info("payment outcome already applied or not applicable, skipping",
			zap.String("booking_id", bookingID.String()),
			zap.String("status", string(b.Status())),
			zap.String("target", string(to)),
		)
		return nil
	}

	_, err = s.transition(ctx, bookingID, to)
	return storeError(err)
}

// GetBooking retrieves a booking by its ID.
func (s *BookingService) GetBooking(ctx context.Context, bookingID uuid.UUID) (*BookingDTO, error) {
	ctx, cancel := withStoreTimeout(ctx, s.timeout)
	defer cancel()

	b, err := s.bookings.FindByID(ctx, bookingID)
	if err != nil {
		return nil, storeError(err)
	}
	return toBookingDTO(b), nil
}

// ListBookings returns bookings newest first with the total match count.
func (s *BookingService) ListBookings(ctx context.Context, req ListBookingsRequest) ([]*BookingDTO, int64, error) {
	filter := booking.ListFilter{
		VehicleID:  req.VehicleID,
		CustomerID: req.CustomerID,
		Page:       req.Page,
		Limit:      req.Limit,
	}
	if req.Status != "" {
		status, err := booking.ParseStatus(req.Status)
		if err != nil {
			return nil, 0, err
		}
		filter.Status = status
	}

	ctx, cancel := withStoreTimeout(ctx, s.timeout)
	defer cancel()

	bookings, total, err := s.bookings.List(ctx, filter)
	if err != nil {
		return nil, 0, storeError(err)
	}

	dtos := make([]*BookingDTO, len(bookings))
	for i, b := range bookings {
		dtos[i] = toBookingDTO(b)
	}
	return dtos, total, nil
}

func toBookingDTO(b *booking.Booking) *BookingDTO {
	p := b.Price()
	return &BookingDTO{
		ID:             b.ID(),
		BookingNumber:  b.BookingNumber(),
		VehicleID:      b.VehicleID(),
		SubunitID:      b.SubunitID(),
		CustomerID:     b.CustomerID(),
		LocationID:     b.LocationID(),
		PickupAt:       b.Period().Start,
		DropoffAt:      b.Period().End,
		Status:         string(b.Status()),
		BaseCents:      p.BaseCents,
		ExtrasCents:    p.ExtrasCents,
		DiscountCents:  p.DiscountCents,
		TotalCents:     p.TotalCents,
		Total:          pricing.FormatCents(p.TotalCents),
		CouponCode:     b.CouponCode(),
		CouponConsumed: b.CouponConsumed(),
		Extras:         toExtraLineDTOs(b.Extras()),
		Version:        b.Version(),
		ConfirmedAt:    b.ConfirmedAt(),
		CancelledAt:    b.CancelledAt(),
		CreatedAt:      b.CreatedAt(),
		UpdatedAt:      b.UpdatedAt(),
	}
}
