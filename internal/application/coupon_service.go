package application

import (
	"context"
	"errors"
	"time"

	"github.com/cetler74/dbcars-sub000/internal/domain"
	"github.com/cetler74/dbcars-sub000/internal/domain/coupon"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CreateCouponRequest holds data to create a coupon.
type CreateCouponRequest struct {
	Code               string `json:"code" binding:"required"`
	DiscountType       string `json:"discount_type" binding:"required"`
	DiscountValue      int64  `json:"discount_value" binding:"required"`
	ValidFrom          string `json:"valid_from" binding:"required"`
	ValidUntil         string `json:"valid_until" binding:"required"`
	MinimumRentalDays  *int   `json:"minimum_rental_days,omitempty"`
	MinimumAmountCents *int64 `json:"minimum_amount_cents,omitempty"`
	UsageLimit         *int   `json:"usage_limit,omitempty"`
}

// ValidateCouponRequest holds data to validate a coupon against a rental.
type ValidateCouponRequest struct {
	Code          string `json:"code" binding:"required"`
	SubtotalCents int64  `json:"subtotal_cents" binding:"gte=0"`
	RentalDays    int    `json:"rental_days" binding:"gte=0"`
}

// CouponDTO is the API response representation of a coupon.
type CouponDTO struct {
	ID                 uuid.UUID `json:"id"`
	Code               string    `json:"code"`
	DiscountType       string    `json:"discount_type"`
	DiscountValue      int64     `json:"discount_value"`
	ValidFrom          string    `json:"valid_from"`
	ValidUntil         string    `json:"valid_until"`
	MinimumRentalDays  *int      `json:"minimum_rental_days,omitempty"`
	MinimumAmountCents *int64    `json:"minimum_amount_cents,omitempty"`
	UsageLimit         *int      `json:"usage_limit,omitempty"`
	UsageCount         int       `json:"usage_count"`
	IsActive           bool      `json:"is_active"`
	CreatedAt          time.Time `json:"created_at"`
}

// CouponValidationDTO is the result of validating a coupon.
type CouponValidationDTO struct {
	Valid         bool   `json:"valid"`
	Code          string `json:"code"`
	DiscountCents int64  `json:"discount_cents"`
	Message       string `json:"message,omitempty"`
}

// CouponService handles coupon use cases.
type CouponService struct {
	repo    coupon.Repository
	timeout time.Duration
	now     func() time.Time
	logger  *zap.Logger
}

// NewCouponService creates a new CouponService.
func NewCouponService(repo coupon.Repository, timeout time.Duration, logger *zap.Logger) *CouponService {
	return &CouponService{
		repo:    repo,
		timeout: timeout,
		now:     func() time.Time { return time.Now().UTC() },
		logger:  logger,
	}
}

// CreateCoupon creates a new coupon (admin only). Dates are YYYY-MM-DD or RFC3339.
func (s *CouponService) CreateCoupon(ctx context.Context, req CreateCouponRequest) (*CouponDTO, error) {
	validFrom, err := parseDate(req.ValidFrom)
	if err != nil {
		return nil, domain.NewValidationError("invalid valid_from: %s", req.ValidFrom)
	}
	validUntil, err := parseDate(req.ValidUntil)
	if err != nil {
		return nil, domain.NewValidationError("invalid valid_until: %s", req.ValidUntil)
	}

	c, err := coupon.NewCoupon(coupon.Params{
		Code:               req.Code,
		DiscountType:       coupon.DiscountType(req.DiscountType),
		DiscountValue:      req.DiscountValue,
		ValidFrom:          validFrom,
		ValidUntil:         validUntil,
		MinimumRentalDays:  req.MinimumRentalDays,
		MinimumAmountCents: req.MinimumAmountCents,
		UsageLimit:         req.UsageLimit,
	})
	if err != nil {
		return nil, err
	}

	ctx, cancel := withStoreTimeout(ctx, s.timeout)
	defer cancel()
	if err := s.repo.Save(ctx, c); err != nil {
		return nil, storeError(err)
	}

	s.logger.Info("coupon created", zap.String("code", c.Code()))
	return toCouponDTO(c), nil
}

// ValidateCoupon checks whether a coupon applies and computes its discount.
// Business rejections are reported in the DTO, not as errors.
func (s *CouponService) ValidateCoupon(ctx context.Context, req ValidateCouponRequest) (*CouponValidationDTO, error) {
	ctx, cancel := withStoreTimeout(ctx, s.timeout)
	defer cancel()

	code := coupon.NormalizeCode(req.Code)
	c, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return &CouponValidationDTO{Valid: false, Code: code, Message: "coupon not found"}, nil
		}
		return nil, storeError(err)
	}

	if err := c.Validate(s.now(), req.SubtotalCents, req.RentalDays); err != nil {
		var de *domain.DomainError
		if errors.As(err, &de) {
			return &CouponValidationDTO{Valid: false, Code: c.Code(), Message: de.Message}, nil
		}
		return nil, err
	}

	return &CouponValidationDTO{
		Valid:         true,
		Code:          c.Code(),
		DiscountCents: c.ComputeDiscount(req.SubtotalCents),
	}, nil
}

// ListCoupons returns coupons, optionally only the active ones.
func (s *CouponService) ListCoupons(ctx context.Context, activeOnly bool) ([]*CouponDTO, error) {
	ctx, cancel := withStoreTimeout(ctx, s.timeout)
	defer cancel()

	coupons, err := s.repo.List(ctx, activeOnly)
	if err != nil {
		return nil, storeError(err)
	}

	dtos := make([]*CouponDTO, len(coupons))
	for i, c := range coupons {
		dtos[i] = toCouponDTO(c)
	}
	return dtos, nil
}

// DeactivateCoupon stops a coupon from being applied to new bookings.
// Bookings that already carry it keep their discount.
func (s *CouponService) DeactivateCoupon(ctx context.Context, id uuid.UUID) (*CouponDTO, error) {
	ctx, cancel := withStoreTimeout(ctx, s.timeout)
	defer cancel()

	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, storeError(err)
	}
	c.Deactivate()
	if err := s.repo.Update(ctx, c); err != nil {
		return nil, storeError(err)
	}

	s.logger.Info("coupon deactivated", zap.String("code", c.Code()))
	return toCouponDTO(c), nil
}

func parseDate(raw string) (time.Time, error) {
	if t, err := time.Parse(time.DateOnly, raw); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, raw)
}

func toCouponDTO(c *coupon.Coupon) *CouponDTO {
	return &CouponDTO{
		ID:                 c.ID(),
		Code:               c.Code(),
		DiscountType:       string(c.DiscountType()),
		DiscountValue:      c.DiscountValue(),
		ValidFrom:          c.ValidFrom().Format(time.DateOnly),
		ValidUntil:         c.ValidUntil().Format(time.DateOnly),
		MinimumRentalDays:  c.MinimumRentalDays(),
		MinimumAmountCents: c.MinimumAmountCents(),
		UsageLimit:         c.UsageLimit(),
		UsageCount:         c.UsageCount(),
		IsActive:           c.IsActive(),
		CreatedAt:          c.CreatedAt(),
	}
}
