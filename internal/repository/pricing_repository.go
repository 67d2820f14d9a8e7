package repository

import (
	"context"
	"time"

	"github.com/cetler74/dbcars-sub000/internal/domain"
	"github.com/cetler74/dbcars-sub000/internal/domain/pricing"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PricingRepositoryImpl is the GORM-based implementation of pricing.Repository.
type PricingRepositoryImpl struct {
	db *gorm.DB
}

// NewPricingRepository creates a new GORM-based pricing rule repository.
func NewPricingRepository(db *gorm.DB) *PricingRepositoryImpl {
	return &PricingRepositoryImpl{db: db}
}

// Save persists a new pricing rule.
func (r *PricingRepositoryImpl) Save(ctx context.Context, rule *pricing.Rule) error {
	model := PricingRuleModel{
		ID:          rule.ID,
		VehicleID:   rule.VehicleID,
		LocationID:  rule.LocationID,
		StartDate:   rule.StartDate,
		EndDate:     rule.EndDate,
		DailyCents:  rule.DailyCents,
		WeeklyCents: rule.WeeklyCents,
		Multiplier:  rule.Multiplier,
		CreatedAt:   rule.CreatedAt,
	}
	return translateError(r.db.WithContext(ctx).Create(&model).Error, "PricingRule", rule.ID.String())
}

// ListForVehicle returns rules whose date range contains both from and to.
func (r *PricingRepositoryImpl) ListForVehicle(ctx context.Context, vehicleID uuid.UUID, from, to time.Time) ([]*pricing.Rule, error) {
	var models []PricingRuleModel
	if err := r.db.WithContext(ctx).
		Where("vehicle_id = ? AND start_date <= ? AND end_date >= ?", vehicleID, domain.DateOf(from), domain.DateOf(to)).
		Find(&models).Error; err != nil {
		return nil, translateError(err, "Vehicle", vehicleID.String())
	}

	rules := make([]*pricing.Rule, len(models))
	for i, m := range models {
		rules[i] = &pricing.Rule{
			ID:          m.ID,
			VehicleID:   m.VehicleID,
			LocationID:  m.LocationID,
			StartDate:   domain.DateOf(m.StartDate),
			EndDate:     domain.DateOf(m.EndDate),
			DailyCents:  m.DailyCents,
			WeeklyCents: m.WeeklyCents,
			Multiplier:  m.Multiplier,
			CreatedAt:   m.CreatedAt,
		}
	}
	return rules, nil
}
