package booking

import (
	"context"

	"github.com/cetler74/dbcars-sub000/internal/domain"
	"github.com/google/uuid"
)

// ListFilter narrows an admin listing. Zero values mean no filter.
type ListFilter struct {
	Status     Status
	VehicleID  *uuid.UUID
	CustomerID *uuid.UUID
	Page       int
	Limit      int
}

// Repository defines persistence operations for bookings.
type Repository interface {
	// InsertIfFree stores b and its extras in one transaction after locking
	// the subunit row and re-checking bookings and blocks for overlap.
	// Losing the race yields a ConflictError and writes nothing.
	InsertIfFree(ctx context.Context, b *Booking) error
	// UpdateStatus persists a transition with an optimistic version check.
	// With consumeCoupon set, the coupon usage count is incremented in the
	// same transaction; an exhausted coupon rolls the transition back.
	UpdateStatus(ctx context.Context, b *Booking, consumeCoupon bool) error
	FindByID(ctx context.Context, id uuid.UUID) (*Booking, error)
	FindByIdempotencyKey(ctx context.Context, customerID uuid.UUID, key string) (*Booking, error)
	List(ctx context.Context, filter ListFilter) ([]*Booking, int64, error)
	// OccupiedSubunits returns the vehicle's subunits held by an
	// active-holding booking overlapping iv.
	OccupiedSubunits(ctx context.Context, vehicleID uuid.UUID, iv domain.Interval) (map[uuid.UUID]bool, error)
}
