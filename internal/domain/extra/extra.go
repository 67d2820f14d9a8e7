package extra

import (
	"context"
	"strings"
	"time"

	"github.com/cetler74/dbcars-sub000/internal/domain"
	"github.com/google/uuid"
)

// PriceType says how an extra is charged.
type PriceType string

const (
	PerDay    PriceType = "per_day"
	PerRental PriceType = "per_rental"
)

// Extra is an add-on from the catalogue (child seat, GPS, extra driver).
type Extra struct {
	ID         uuid.UUID
	Name       string
	PriceCents int64
	PriceType  PriceType
	IsActive   bool
	CreatedAt  time.Time
}

// NewExtra creates an active catalogue item.
func NewExtra(name string, priceCents int64, priceType PriceType) (*Extra, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.NewValidationError("extra name is required")
	}
	if priceCents < 0 {
		return nil, domain.NewValidationError("extra price must not be negative")
	}
	if priceType != PerDay && priceType != PerRental {
		return nil, domain.NewValidationError("invalid price type: %s", priceType)
	}
	return &Extra{
		ID:         uuid.New(),
		Name:       name,
		PriceCents: priceCents,
		PriceType:  priceType,
		IsActive:   true,
		CreatedAt:  time.Now().UTC(),
	}, nil
}

// LineTotal is unit price × quantity, and × rental days for per-day items.
func (e Extra) LineTotal(quantity, days int) int64 {
	total := e.PriceCents * int64(quantity)
	if e.PriceType == PerDay {
		total *= int64(days)
	}
	return total
}

// Repository defines persistence operations for the extras catalogue.
type Repository interface {
	Save(ctx context.Context, e *Extra) error
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*Extra, error)
	ListActive(ctx context.Context) ([]*Extra, error)
}
