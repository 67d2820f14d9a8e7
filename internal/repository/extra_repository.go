package repository

import (
	"context"

	"github.com/cetler74/dbcars-sub000/internal/domain/extra"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ExtraRepositoryImpl is the GORM-based implementation of extra.Repository.
type ExtraRepositoryImpl struct {
	db *gorm.DB
}

// NewExtraRepository creates a new GORM-based extras repository.
func NewExtraRepository(db *gorm.DB) *ExtraRepositoryImpl {
	return &ExtraRepositoryImpl{db: db}
}

// Save persists a new catalogue item.
func (r *ExtraRepositoryImpl) Save(ctx context.Context, e *extra.Extra) error {
	model := ExtraModel{
		ID:         e.ID,
		Name:       e.Name,
		PriceCents: e.PriceCents,
		PriceType:  string(e.PriceType),
		IsActive:   e.IsActive,
		CreatedAt:  e.CreatedAt,
	}
	return translateError(r.db.WithContext(ctx).Create(&model).Error, "Extra", e.ID.String())
}

// FindByIDs returns the extras with the given ids. Missing ids are skipped.
func (r *ExtraRepositoryImpl) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*extra.Extra, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var models []ExtraModel
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&models).Error; err != nil {
		return nil, translateError(err, "Extra", "")
	}
	return toExtras(models), nil
}

// ListActive returns the active catalogue ordered by name.
func (r *ExtraRepositoryImpl) ListActive(ctx context.Context) ([]*extra.Extra, error) {
	var models []ExtraModel
	if err := r.db.WithContext(ctx).Where("is_active = ?", true).Order("name ASC").Find(&models).Error; err != nil {
		return nil, translateError(err, "Extra", "")
	}
	return toExtras(models), nil
}

func toExtras(models []ExtraModel) []*extra.Extra {
	out := make([]*extra.Extra, len(models))
	for i, m := range models {
		out[i] = &extra.Extra{
			ID:         m.ID,
			Name:       m.Name,
			PriceCents: m.PriceCents,
			PriceType:  extra.PriceType(m.PriceType),
			IsActive:   m.IsActive,
			CreatedAt:  m.CreatedAt,
		}
	}
	return out
}
