package fleet

import (
	"context"

	"github.com/cetler74/dbcars-sub000/internal/domain"
	"github.com/google/uuid"
)

// Repository defines persistence operations for vehicles, subunits and blocks.
type Repository interface {
	SaveVehicle(ctx context.Context, v *Vehicle) error
	FindVehicleByID(ctx context.Context, id uuid.UUID) (*Vehicle, error)
	SetVehicleActive(ctx context.Context, id uuid.UUID, active bool) error

	SaveSubunit(ctx context.Context, s *Subunit) error
	FindSubunitByID(ctx context.Context, id uuid.UUID) (*Subunit, error)
	ListSubunits(ctx context.Context, vehicleID uuid.UUID) ([]*Subunit, error)
	UpdateSubunitStatus(ctx context.Context, id uuid.UUID, status SubunitStatus) error

	SaveBlock(ctx context.Context, b *Block) error
	DeleteBlock(ctx context.Context, id uuid.UUID) error
	// ListBlocks returns the vehicle's blocks (vehicle-wide and per subunit)
	// that overlap iv.
	ListBlocks(ctx context.Context, vehicleID uuid.UUID, iv domain.Interval) ([]*Block, error)
}
