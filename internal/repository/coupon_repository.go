package repository

import (
	"context"

	"github.com/cetler74/dbcars-sub000/internal/domain"
	couponDomain "github.com/cetler74/dbcars-sub000/internal/domain/coupon"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormCouponRepository implements coupon.Repository using GORM.
type GormCouponRepository struct {
	db *gorm.DB
}

// NewGormCouponRepository creates a new GormCouponRepository.
func NewGormCouponRepository(db *gorm.DB) *GormCouponRepository {
	return &GormCouponRepository{db: db}
}

// Save persists a new coupon.
func (r *GormCouponRepository) Save(ctx context.Context, c *couponDomain.Coupon) error {
	model := toCouponModel(c)
	return translateError(r.db.WithContext(ctx).Create(&model).Error, "Coupon", c.Code())
}

// Update writes every mutable field of a coupon except the usage count,
// which only the booking confirmation transaction may change.
func (r *GormCouponRepository) Update(ctx context.Context, c *couponDomain.Coupon) error {
	model := toCouponModel(c)
	result := r.db.WithContext(ctx).Model(&CouponModel{}).
		Where("id = ?", model.ID).
		Select("discount_type", "discount_value", "valid_from", "valid_until",
			"minimum_rental_days", "minimum_amount_cents", "usage_limit", "is_active", "updated_at").
		Updates(&model)
	if result.Error != nil {
		return translateError(result.Error, "Coupon", c.Code())
	}
	if result.RowsAffected == 0 {
		return domain.NewNotFoundError("Coupon", c.Code())
	}
	return nil
}

// FindByCode returns a coupon by its code. Lookup is case-insensitive.
func (r *GormCouponRepository) FindByCode(ctx context.Context, code string) (*couponDomain.Coupon, error) {
	code = couponDomain.NormalizeCode(code)
	var model CouponModel
	if err := r.db.WithContext(ctx).Where("code = ?", code).First(&model).Error; err != nil {
		return nil, translateError(err, "Coupon", code)
	}
	return toCouponDomain(&model), nil
}

// FindByID returns a coupon by ID.
func (r *GormCouponRepository) FindByID(ctx context.Context, id uuid.UUID) (*couponDomain.Coupon, error) {
	var model CouponModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		return nil, translateError(err, "Coupon", id.String())
	}
	return toCouponDomain(&model), nil
}

// List returns coupons ordered by code.
func (r *GormCouponRepository) List(ctx context.Context, activeOnly bool) ([]*couponDomain.Coupon, error) {
	q := r.db.WithContext(ctx).Order("code ASC")
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	var models []CouponModel
	if err := q.Find(&models).Error; err != nil {
		return nil, translateError(err, "Coupon", "")
	}

	coupons := make([]*couponDomain.Coupon, len(models))
	for i := range models {
		coupons[i] = toCouponDomain(&models[i])
	}
	return coupons, nil
}

// consumeCoupon is the coupon Consume operation: it increments usage_count
// inside tx and reports false when the coupon is inactive or already at its
// limit.
func consumeCoupon(tx *gorm.DB, couponID uuid.UUID) (bool, error) {
	result := tx.Exec(
		"UPDATE coupons SET usage_count = usage_count + 1 WHERE id = ? AND is_active = ? AND (usage_limit IS NULL OR usage_count < usage_limit)",
		couponID, true,
	)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func toCouponModel(c *couponDomain.Coupon) CouponModel {
	return CouponModel{
		ID:                 c.ID(),
		Code:               c.Code(),
		DiscountType:       string(c.DiscountType()),
		DiscountValue:      c.DiscountValue(),
		ValidFrom:          c.ValidFrom(),
		ValidUntil:         c.ValidUntil(),
		MinimumRentalDays:  c.MinimumRentalDays(),
		MinimumAmountCents: c.MinimumAmountCents(),
		UsageLimit:         c.UsageLimit(),
		UsageCount:         c.UsageCount(),
		IsActive:           c.IsActive(),
		CreatedAt:          c.CreatedAt(),
		UpdatedAt:          c.UpdatedAt(),
	}
}

func toCouponDomain(m *CouponModel) *couponDomain.Coupon {
	return couponDomain.Reconstruct(
		m.ID, m.Code, couponDomain.DiscountType(m.DiscountType), m.DiscountValue,
		domain.DateOf(m.ValidFrom), domain.DateOf(m.ValidUntil),
		m.MinimumRentalDays, m.MinimumAmountCents, m.UsageLimit,
		m.UsageCount, m.IsActive,
		m.CreatedAt, m.UpdatedAt,
	)
}
