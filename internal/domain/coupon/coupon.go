package coupon

import (
	"context"
	"strings"
	"time"

	"github.com/cetler74/dbcars-sub000/internal/domain"
	"github.com/google/uuid"
)

// DiscountType represents the type of discount.
type DiscountType string

const (
	DiscountTypePercentage DiscountType = "percentage"
	DiscountTypeFixed      DiscountType = "fixed_amount"
)

// Coupon is the aggregate root for discount codes.
type Coupon struct {
	id                 uuid.UUID
	code               string
	discountType       DiscountType
	discountValue      int64 // percentage (1-100) or fixed amount in cents
	validFrom          time.Time
	validUntil         time.Time
	minimumRentalDays  *int
	minimumAmountCents *int64
	usageLimit         *int
	usageCount         int
	isActive           bool
	createdAt          time.Time
	updatedAt          time.Time
}

// Params holds the inputs for NewCoupon.
type Params struct {
	Code               string
	DiscountType       DiscountType
	DiscountValue      int64
	ValidFrom          time.Time
	ValidUntil         time.Time
	MinimumRentalDays  *int
	MinimumAmountCents *int64
	UsageLimit         *int
}

// NormalizeCode trims and upper-cases a code for lookup and storage.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// NewCoupon creates a new active coupon.
func NewCoupon(p Params) (*Coupon, error) {
	code := NormalizeCode(p.Code)
	if code == "" {
		return nil, domain.NewValidationError("coupon code is required")
	}
	if p.DiscountType != DiscountTypePercentage && p.DiscountType != DiscountTypeFixed {
		return nil, domain.NewValidationError("invalid discount type: %s", p.DiscountType)
	}
	if p.DiscountValue <= 0 {
		return nil, domain.NewValidationError("discount value must be positive")
	}
	if p.DiscountType == DiscountTypePercentage && p.DiscountValue > 100 {
		return nil, domain.NewValidationError("percentage discount cannot exceed 100")
	}
	validFrom, validUntil := domain.DateOf(p.ValidFrom), domain.DateOf(p.ValidUntil)
	if validUntil.Before(validFrom) {
		return nil, domain.NewValidationError("valid_until must not be before valid_from")
	}
	if p.UsageLimit != nil && *p.UsageLimit <= 0 {
		return nil, domain.NewValidationError("usage limit must be positive when set")
	}

	now := time.Now().UTC()
	return &Coupon{
		id:                 uuid.New(),
		code:               code,
		discountType:       p.DiscountType,
		discountValue:      p.DiscountValue,
		validFrom:          validFrom,
		validUntil:         validUntil,
		minimumRentalDays:  p.MinimumRentalDays,
		minimumAmountCents: p.MinimumAmountCents,
		usageLimit:         p.UsageLimit,
		isActive:           true,
		createdAt:          now,
		updatedAt:          now,
	}, nil
}

// Reconstruct rebuilds a Coupon from persistence.
func Reconstruct(id uuid.UUID, code string, discountType DiscountType, discountValue int64, validFrom, validUntil time.Time, minimumRentalDays *int, minimumAmountCents *int64, usageLimit *int, usageCount int, isActive bool, createdAt, updatedAt time.Time) *Coupon {
	return &Coupon{
		id: id, code: code, discountType: discountType, discountValue: discountValue,
		validFrom: validFrom, validUntil: validUntil,
		minimumRentalDays: minimumRentalDays, minimumAmountCents: minimumAmountCents,
		usageLimit: usageLimit, usageCount: usageCount, isActive: isActive,
		createdAt: createdAt, updatedAt: updatedAt,
	}
}

// Validate checks that the coupon can be applied to a rental of rentalDays
// days costing subtotalCents, as of now. Dates compare by calendar day.
func (c *Coupon) Validate(now time.Time, subtotalCents int64, rentalDays int) error {
	if !c.isActive {
		return domain.NewValidationError("coupon %s is not active", c.code)
	}
	today := domain.DateOf(now)
	if today.Before(c.validFrom) {
		return domain.NewValidationError("coupon %s is not valid until %s", c.code, c.validFrom.Format(time.DateOnly))
	}
	if today.After(c.validUntil) {
		return domain.NewValidationError("coupon %s expired on %s", c.code, c.validUntil.Format(time.DateOnly))
	}
	if c.Exhausted() {
		return domain.NewValidationError("coupon %s has reached its usage limit", c.code)
	}
	if c.minimumRentalDays != nil && rentalDays < *c.minimumRentalDays {
		return domain.NewValidationError("coupon %s requires a minimum rental of %d days", c.code, *c.minimumRentalDays)
	}
	if c.minimumAmountCents != nil && subtotalCents < *c.minimumAmountCents {
		return domain.NewValidationError("coupon %s requires a minimum amount of %d cents", c.code, *c.minimumAmountCents)
	}
	return nil
}

// Exhausted reports whether the usage limit has been reached.
func (c *Coupon) Exhausted() bool {
	return c.usageLimit != nil && c.usageCount >= *c.usageLimit
}

// ComputeDiscount returns the discount in cents for subtotalCents. The result
// is never negative and never exceeds the subtotal.
func (c *Coupon) ComputeDiscount(subtotalCents int64) int64 {
	if subtotalCents <= 0 {
		return 0
	}

	var discount int64
	switch c.discountType {
	case DiscountTypePercentage:
		discount = (subtotalCents*c.discountValue + 50) / 100
	case DiscountTypeFixed:
		discount = c.discountValue
	}

	if discount > subtotalCents {
		discount = subtotalCents
	}
	if discount < 0 {
		discount = 0
	}
	return discount
}

// Deactivate disables the coupon.
func (c *Coupon) Deactivate() {
	c.isActive = false
	c.updatedAt = time.Now().UTC()
}

// Getters.
func (c *Coupon) ID() uuid.UUID              { return c.id }
func (c *Coupon) Code() string               { return c.code }
func (c *Coupon) DiscountType() DiscountType { return c.discountType }
func (c *Coupon) DiscountValue() int64       { return c.discountValue }
func (c *Coupon) ValidFrom() time.Time       { return c.validFrom }
func (c *Coupon) ValidUntil() time.Time      { return c.validUntil }
func (c *Coupon) MinimumRentalDays() *int    { return c.minimumRentalDays }
func (c *Coupon) MinimumAmountCents() *int64 { return c.minimumAmountCents }
func (c *Coupon) UsageLimit() *int           { return c.usageLimit }
func (c *Coupon) UsageCount() int            { return c.usageCount }
func (c *Coupon) IsActive() bool             { return c.isActive }
func (c *Coupon) CreatedAt() time.Time       { return c.createdAt }
func (c *Coupon) UpdatedAt() time.Time       { return c.updatedAt }

// Repository defines persistence operations for coupons. Usage counting
// happens inside the booking status transaction, not here.
type Repository interface {
	Save(ctx context.Context, c *Coupon) error
	Update(ctx context.Context, c *Coupon) error
	FindByCode(ctx context.Context, code string) (*Coupon, error)
	FindByID(ctx context.Context, id uuid.UUID) (*Coupon, error)
	List(ctx context.Context, activeOnly bool) ([]*Coupon, error)
}
