package application

import (
	"context"
	"time"

	"github.com/cetler74/dbcars-sub000/internal/domain"
	"github.com/cetler74/dbcars-sub000/internal/domain/booking"
	"github.com/cetler74/dbcars-sub000/internal/domain/fleet"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AvailabilityDTO is the result of an availability check.
type AvailabilityDTO struct {
	VehicleID  uuid.UUID    `json:"vehicle_id"`
	PickupAt   time.Time    `json:"pickup_at"`
	DropoffAt  time.Time    `json:"dropoff_at"`
	Available  bool         `json:"available"`
	Candidates []SubunitDTO `json:"candidates"`
}

// SubunitDTO is the API representation of a physical unit.
type SubunitDTO struct {
	ID           uuid.UUID `json:"id"`
	VehicleID    uuid.UUID `json:"vehicle_id"`
	LicensePlate string    `json:"license_plate"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
}

// AvailabilityService answers which subunits of a vehicle are free.
type AvailabilityService struct {
	fleet    fleet.Repository
	bookings booking.Repository
	timeout  time.Duration
	logger   *zap.Logger
}

// NewAvailabilityService creates a new AvailabilityService.
func NewAvailabilityService(fleetRepo fleet.Repository, bookings booking.Repository, timeout time.Duration, logger *zap.Logger) *AvailabilityService {
	return &AvailabilityService{
		fleet:    fleetRepo,
		bookings: bookings,
		timeout:  timeout,
		logger:   logger,
	}
}

// FindAvailableSubunits returns the free subunits of the vehicle over iv,
// ordered by creation time then id. An inactive vehicle has none.
func (s *AvailabilityService) FindAvailableSubunits(ctx context.Context, vehicleID uuid.UUID, iv domain.Interval) ([]*fleet.Subunit, error) {
	ctx, cancel := withStoreTimeout(ctx, s.timeout)
	defer cancel()

	free, err := s.freeSubunits(ctx, vehicleID, iv)
	return free, storeError(err)
}

// IsAvailable reports whether at least one subunit is free over iv.
func (s *AvailabilityService) IsAvailable(ctx context.Context, vehicleID uuid.UUID, iv domain.Interval) (bool, error) {
	free, err := s.FindAvailableSubunits(ctx, vehicleID, iv)
	if err != nil {
		return false, err
	}
	return len(free) > 0, nil
}

// CheckAvailability is the API form of FindAvailableSubunits.
func (s *AvailabilityService) CheckAvailability(ctx context.Context, vehicleID uuid.UUID, iv domain.Interval) (*AvailabilityDTO, error) {
	free, err := s.FindAvailableSubunits(ctx, vehicleID, iv)
	if err != nil {
		return nil, err
	}

	candidates := make([]SubunitDTO, len(free))
	for i, u := range free {
		candidates[i] = toSubunitDTO(u)
	}
	return &AvailabilityDTO{
		VehicleID:  vehicleID,
		PickupAt:   iv.Start,
		DropoffAt:  iv.End,
		Available:  len(free) > 0,
		Candidates: candidates,
	}, nil
}

// freeSubunits expects ctx to already carry the store deadline.
func (s *AvailabilityService) freeSubunits(ctx context.Context, vehicleID uuid.UUID, iv domain.Interval) ([]*fleet.Subunit, error) {
	vehicle, err := s.fleet.FindVehicleByID(ctx, vehicleID)
	if err != nil {
		return nil, err
	}
	return s.freeForVehicle(ctx, vehicle, iv)
}

func (s *AvailabilityService) freeForVehicle(ctx context.Context, vehicle *fleet.Vehicle, iv domain.Interval) ([]*fleet.Subunit, error) {
	if !vehicle.IsActive {
		return []*fleet.Subunit{}, nil
	}
	vehicleID := vehicle.ID

	units, err := s.fleet.ListSubunits(ctx, vehicleID)
	if err != nil {
		return nil, err
	}
	if len(units) == 0 {
		return []*fleet.Subunit{}, nil
	}

	blocks, err := s.fleet.ListBlocks(ctx, vehicleID, iv)
	if err != nil {
		return nil, err
	}
	occupied, err := s.bookings.OccupiedSubunits(ctx, vehicleID, iv)
	if err != nil {
		return nil, err
	}

	free := fleet.FreeSubunits(units, occupied, blocks, iv)
	s.logger.Debug("availability computed",
		zap.String("vehicle_id", vehicleID.String()),
		zap.Int("subunits", len(units)),
		zap.Int("free", len(free)),
	)
	return free, nil
}

func toSubunitDTO(u *fleet.Subunit) SubunitDTO {
	return SubunitDTO{
		ID:           u.ID,
		VehicleID:    u.VehicleID,
		LicensePlate: u.LicensePlate,
		Status:       string(u.Status),
		CreatedAt:    u.CreatedAt,
	}
}
