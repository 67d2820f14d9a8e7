package application

import (
	"context"
	"errors"
	"time"

	"github.com/cetler74/dbcars-sub000/internal/domain"
	"github.com/cetler74/dbcars-sub000/internal/domain/booking"
	"github.com/cetler74/dbcars-sub000/internal/domain/coupon"
	"github.com/cetler74/dbcars-sub000/internal/domain/extra"
	"github.com/cetler74/dbcars-sub000/internal/domain/fleet"
	"github.com/cetler74/dbcars-sub000/internal/domain/pricing"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ExtraRequest selects a catalogue extra for a quote or booking.
type ExtraRequest struct {
	ExtraID  uuid.UUID `json:"extra_id" binding:"required"`
	Quantity int       `json:"quantity" binding:"required,gt=0"`
}

// QuoteRequest holds the inputs of a price quote.
type QuoteRequest struct {
	VehicleID  uuid.UUID      `json:"vehicle_id" binding:"required"`
	PickupAt   time.Time      `json:"pickup_at" binding:"required"`
	DropoffAt  time.Time      `json:"dropoff_at" binding:"required"`
	LocationID *uuid.UUID     `json:"location_id,omitempty"`
	Extras     []ExtraRequest `json:"extras,omitempty"`
	CouponCode string         `json:"coupon_code,omitempty"`
}

// ExtraLineDTO is one priced extra.
type ExtraLineDTO struct {
	ExtraID        uuid.UUID `json:"extra_id"`
	Name           string    `json:"name"`
	Quantity       int       `json:"quantity"`
	UnitPriceCents int64     `json:"unit_price_cents"`
	PriceType      string    `json:"price_type"`
	LineTotalCents int64     `json:"line_total_cents"`
}

// QuoteDTO is the price breakdown of a rental.
type QuoteDTO struct {
	VehicleID     uuid.UUID      `json:"vehicle_id"`
	Days          int            `json:"days"`
	Hours         int            `json:"hours"`
	BaseCents     int64          `json:"base_cents"`
	ExtrasCents   int64          `json:"extras_cents"`
	DiscountCents int64          `json:"discount_cents"`
	TotalCents    int64          `json:"total_cents"`
	BasePrice     string         `json:"base_price"`
	ExtrasPrice   string         `json:"extras_price"`
	Discount      string         `json:"discount"`
	Total         string         `json:"total"`
	CouponCode    string         `json:"coupon_code,omitempty"`
	PricingRuleID *uuid.UUID     `json:"pricing_rule_id,omitempty"`
	Extras        []ExtraLineDTO `json:"extras"`
}

// quote is the internal breakdown shared by Quote and CreateBooking.
type quote struct {
	price  booking.Price
	rule   *pricing.Rule
	extras []booking.Extra
	coupon *coupon.Coupon
	days   int
	hours  int
}

// PricingService computes base prices and full quotes.
type PricingService struct {
	fleet   fleet.Repository
	rules   pricing.Repository
	extras  extra.Repository
	coupons coupon.Repository
	timeout time.Duration
	now     func() time.Time
	logger  *zap.Logger
}

// NewPricingService creates a new PricingService.
func NewPricingService(
	fleetRepo fleet.Repository,
	rules pricing.Repository,
	extras extra.Repository,
	coupons coupon.Repository,
	timeout time.Duration,
	logger *zap.Logger,
) *PricingService {
	return &PricingService{
		fleet:   fleetRepo,
		rules:   rules,
		extras:  extras,
		coupons: coupons,
		timeout: timeout,
		now:     func() time.Time { return time.Now().UTC() },
		logger:  logger,
	}
}

// ComputeBasePrice prices iv for the vehicle under its tariff and the best
// matching pricing rule, in cents.
func (s *PricingService) ComputeBasePrice(ctx context.Context, vehicleID uuid.UUID, iv domain.Interval, locationID *uuid.UUID) (int64, error) {
	ctx, cancel := withStoreTimeout(ctx, s.timeout)
	defer cancel()

	vehicle, err := s.fleet.FindVehicleByID(ctx, vehicleID)
	if err != nil {
		return 0, storeError(err)
	}
	base, _, err := s.basePrice(ctx, vehicle, iv, locationID)
	return base, storeError(err)
}

// Quote prices a rental including extras and an optional coupon, without
// reserving anything.
func (s *PricingService) Quote(ctx context.Context, req QuoteRequest) (*QuoteDTO, error) {
	iv, err := domain.NewInterval(req.PickupAt, req.DropoffAt)
	if err != nil {
		return nil, err
	}

	ctx, cancel := withStoreTimeout(ctx, s.timeout)
	defer cancel()

	vehicle, err := s.fleet.FindVehicleByID(ctx, req.VehicleID)
	if err != nil {
		return nil, storeError(err)
	}
	q, err := s.quote(ctx, vehicle, iv, req.LocationID, req.Extras, req.CouponCode)
	if err != nil {
		return nil, storeError(err)
	}
	return toQuoteDTO(vehicle.ID, q), nil
}

func (s *PricingService) basePrice(ctx context.Context, vehicle *fleet.Vehicle, iv domain.Interval, locationID *uuid.UUID) (int64, *pricing.Rule, error) {
	if iv.IsEmpty() {
		return 0, nil, nil
	}
	rules, err := s.rules.ListForVehicle(ctx, vehicle.ID, iv.Start, iv.End)
	if err != nil {
		return 0, nil, err
	}
	rule := pricing.SelectRule(rules, iv, locationID)
	rates := pricing.Rates{
		DailyCents:   vehicle.DailyRateCents,
		WeeklyCents:  vehicle.WeeklyRateCents,
		MonthlyCents: vehicle.MonthlyRateCents,
		HourlyCents:  vehicle.HourlyRateCents,
	}
	return pricing.BasePrice(rates, rule, iv), rule, nil
}

// quote expects ctx to already carry the store deadline.
func (s *PricingService) quote(ctx context.Context, vehicle *fleet.Vehicle, iv domain.Interval, locationID *uuid.UUID, extrasReq []ExtraRequest, couponCode string) (*quote, error) {
	base, rule, err := s.basePrice(ctx, vehicle, iv, locationID)
	if err != nil {
		return nil, err
	}

	days := iv.Days()
	lines, err := s.extraLines(ctx, extrasReq, days)
	if err != nil {
		return nil, err
	}
	var extrasTotal int64
	for _, l := range lines {
		extrasTotal += l.LineTotalCents
	}

	q := &quote{rule: rule, extras: lines, days: days, hours: iv.Hours()}
	subtotal := base + extrasTotal

	var discount int64
	if coupon.NormalizeCode(couponCode) != "" {
		c, err := s.validCoupon(ctx, couponCode, subtotal, days)
		if err != nil {
			return nil, err
		}
		q.coupon = c
		discount = c.ComputeDiscount(subtotal)
	}

	q.price = booking.NewPrice(base, extrasTotal, discount)
	return q, nil
}

func (s *PricingService) extraLines(ctx context.Context, reqs []ExtraRequest, days int) ([]booking.Extra, error) {
	if len(reqs) == 0 {
		return nil, nil
	}
	ids := make([]uuid.UUID, 0, len(reqs))
	for _, r := range reqs {
		if r.Quantity <= 0 {
			return nil, domain.NewValidationError("quantity for extra %s must be positive", r.ExtraID)
		}
		ids = append(ids, r.ExtraID)
	}

	found, err := s.extras.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]*extra.Extra, len(found))
	for _, e := range found {
		byID[e.ID] = e
	}

	lines := make([]booking.Extra, 0, len(reqs))
	for _, r := range reqs {
		e, ok := byID[r.ExtraID]
		if !ok || !e.IsActive {
			return nil, domain.NewValidationError("extra %s is not available", r.ExtraID)
		}
		lines = append(lines, booking.SnapshotExtra(e, r.Quantity, days))
	}
	return lines, nil
}

func (s *PricingService) validCoupon(ctx context.Context, code string, subtotal int64, days int) (*coupon.Coupon, error) {
	c, err := s.coupons.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.NewValidationError("coupon %s does not exist", coupon.NormalizeCode(code))
		}
		return nil, err
	}
	if err := c.Validate(s.now(), subtotal, days); err != nil {
		return nil, err
	}
	return c, nil
}

func toQuoteDTO(vehicleID uuid.UUID, q *quote) *QuoteDTO {
	dto := &QuoteDTO{
		VehicleID:     vehicleID,
		Days:          q.days,
		Hours:         q.hours,
		BaseCents:     q.price.BaseCents,
		ExtrasCents:   q.price.ExtrasCents,
		DiscountCents: q.price.DiscountCents,
		TotalCents:    q.price.TotalCents,
		BasePrice:     pricing.FormatCents(q.price.BaseCents),
		ExtrasPrice:   pricing.FormatCents(q.price.ExtrasCents),
		Discount:      pricing.FormatCents(q.price.DiscountCents),
		Total:         pricing.FormatCents(q.price.TotalCents),
		Extras:        toExtraLineDTOs(q.extras),
	}
	if q.coupon != nil {
		dto.CouponCode = q.coupon.Code()
	}
	if q.rule != nil {
		id := q.rule.ID
		dto.PricingRuleID = &id
	}
	return dto
}

func toExtraLineDTOs(lines []booking.Extra) []ExtraLineDTO {
	out := make([]ExtraLineDTO, len(lines))
	for i, l := range lines {
		out[i] = ExtraLineDTO{
			ExtraID:        l.ExtraID,
			Name:           l.Name,
			Quantity:       l.Quantity,
			UnitPriceCents: l.UnitPriceCents,
			PriceType:      string(l.PriceType),
			LineTotalCents: l.LineTotalCents,
		}
	}
	return out
}
