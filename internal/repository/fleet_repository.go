package repository

import (
	"context"
	"time"

	"github.com/cetler74/dbcars-sub000/internal/domain"
	"github.com/cetler74/dbcars-sub000/internal/domain/fleet"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// FleetRepositoryImpl is the GORM-based implementation of fleet.Repository.
type FleetRepositoryImpl struct {
	db *gorm.DB
}

// NewFleetRepository creates a new GORM-based fleet repository.
func NewFleetRepository(db *gorm.DB) *FleetRepositoryImpl {
	return &FleetRepositoryImpl{db: db}
}

// SaveVehicle persists a new vehicle.
func (r *FleetRepositoryImpl) SaveVehicle(ctx context.Context, v *fleet.Vehicle) error {
	model := toVehicleModel(v)
	return translateError(r.db.WithContext(ctx).Create(&model).Error, "Vehicle", v.ID.String())
}

// FindVehicleByID retrieves a vehicle by id.
func (r *FleetRepositoryImpl) FindVehicleByID(ctx context.Context, id uuid.UUID) (*fleet.Vehicle, error) {
	var model VehicleModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		return nil, translateError(err, "Vehicle", id.String())
	}
	return toVehicleDomain(&model), nil
}

// SetVehicleActive toggles the active flag.
func (r *FleetRepositoryImpl) SetVehicleActive(ctx context.Context, id uuid.UUID, active bool) error {
	result := r.db.WithContext(ctx).Model(&VehicleModel{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"is_active": active, "updated_at": time.Now().UTC()})
	if result.Error != nil {
		return translateError(result.Error, "Vehicle", id.String())
	}
	if result.RowsAffected == 0 {
		return domain.NewNotFoundError("Vehicle", id.String())
	}
	return nil
}

// SaveSubunit persists a new subunit.
func (r *FleetRepositoryImpl) SaveSubunit(ctx context.Context, s *fleet.Subunit) error {
	model := toSubunitModel(s)
	return translateError(r.db.WithContext(ctx).Create(&model).Error, "Subunit", s.ID.String())
}

// FindSubunitByID retrieves a subunit by id.
func (r *FleetRepositoryImpl) FindSubunitByID(ctx context.Context, id uuid.UUID) (*fleet.Subunit, error) {
	var model SubunitModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		return nil, translateError(err, "Subunit", id.String())
	}
	return toSubunitDomain(&model), nil
}

// ListSubunits returns every subunit of the vehicle ordered by creation.
func (r *FleetRepositoryImpl) ListSubunits(ctx context.Context, vehicleID uuid.UUID) ([]*fleet.Subunit, error) {
	var models []SubunitModel
	if err := r.db.WithContext(ctx).
		Where("vehicle_id = ?", vehicleID).
		Order("created_at ASC, id ASC").
		Find(&models).Error; err != nil {
		return nil, translateError(err, "Vehicle", vehicleID.String())
	}

	units := make([]*fleet.Subunit, len(models))
	for i := range models {
		units[i] = toSubunitDomain(&models[i])
	}
	fleet.SortSubunits(units)
	return units, nil
}

// UpdateSubunitStatus sets the manual status of a subunit.
func (r *FleetRepositoryImpl) UpdateSubunitStatus(ctx context.Context, id uuid.UUID, status fleet.SubunitStatus) error {
	result := r.db.WithContext(ctx).Model(&SubunitModel{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"status": string(status), "updated_at": time.Now().UTC()})
	if result.Error != nil {
		return translateError(result.Error, "Subunit", id.String())
	}
	if result.RowsAffected == 0 {
		return domain.NewNotFoundError("Subunit", id.String())
	}
	return nil
}

// SaveBlock persists a new availability block.
func (r *FleetRepositoryImpl) SaveBlock(ctx context.Context, b *fleet.Block) error {
	model := BlockModel{
		ID:        b.ID,
		VehicleID: b.VehicleID,
		SubunitID: b.SubunitID,
		StartAt:   b.Period.Start,
		EndAt:     b.Period.End,
		Reason:    b.Reason,
		CreatedAt: b.CreatedAt,
	}
	return translateError(r.db.WithContext(ctx).Create(&model).Error, "Block", b.ID.String())
}

// DeleteBlock removes a block.
func (r *FleetRepositoryImpl) DeleteBlock(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&BlockModel{})
	if result.Error != nil {
		return translateError(result.Error, "Block", id.String())
	}
	if result.RowsAffected == 0 {
		return domain.NewNotFoundError("Block", id.String())
	}
	return nil
}

// ListBlocks returns the vehicle's blocks overlapping iv.
func (r *FleetRepositoryImpl) ListBlocks(ctx context.Context, vehicleID uuid.UUID, iv domain.Interval) ([]*fleet.Block, error) {
	var models []BlockModel
	if err := r.db.WithContext(ctx).
		Where("vehicle_id = ? AND start_at < ? AND end_at > ?", vehicleID, iv.End, iv.Start).
		Find(&models).Error; err != nil {
		return nil, translateError(err, "Vehicle", vehicleID.String())
	}

	blocks := make([]*fleet.Block, len(models))
	for i, m := range models {
		blocks[i] = &fleet.Block{
			ID:        m.ID,
			VehicleID: m.VehicleID,
			SubunitID: m.SubunitID,
			Period:    domain.Interval{Start: m.StartAt.UTC(), End: m.EndAt.UTC()},
			Reason:    m.Reason,
			CreatedAt: m.CreatedAt,
		}
	}
	return blocks, nil
}

func toVehicleModel(v *fleet.Vehicle) VehicleModel {
	return VehicleModel{
		ID:               v.ID,
		Make:             v.Make,
		Model:            v.Model,
		Name:             v.Name,
		Category:         string(v.Category),
		Seats:            v.Seats,
		Doors:            v.Doors,
		Transmission:     v.Transmission,
		FuelType:         v.FuelType,
		DailyRateCents:   v.DailyRateCents,
		WeeklyRateCents:  v.WeeklyRateCents,
		MonthlyRateCents: v.MonthlyRateCents,
		HourlyRateCents:  v.HourlyRateCents,
		IsActive:         v.IsActive,
		CreatedAt:        v.CreatedAt,
		UpdatedAt:        v.UpdatedAt,
	}
}

func toVehicleDomain(m *VehicleModel) *fleet.Vehicle {
	return &fleet.Vehicle{
		ID:               m.ID,
		Make:             m.Make,
		Model:            m.Model,
		Name:             m.Name,
		Category:         fleet.Category(m.Category),
		Seats:            m.Seats,
		Doors:            m.Doors,
		Transmission:     m.Transmission,
		FuelType:         m.FuelType,
		DailyRateCents:   m.DailyRateCents,
		WeeklyRateCents:  m.WeeklyRateCents,
		MonthlyRateCents: m.MonthlyRateCents,
		HourlyRateCents:  m.HourlyRateCents,
		IsActive:         m.IsActive,
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
	}
}

func toSubunitModel(s *fleet.Subunit) SubunitModel {
	return SubunitModel{
		ID:           s.ID,
		VehicleID:    s.VehicleID,
		LicensePlate: s.LicensePlate,
		Status:       string(s.Status),
		CreatedAt:    s.CreatedAt,
		UpdatedAt:    s.UpdatedAt,
	}
}

func toSubunitDomain(m *SubunitModel) *fleet.Subunit {
	return &fleet.Subunit{
		ID:           m.ID,
		VehicleID:    m.VehicleID,
		LicensePlate: m.LicensePlate,
		Status:       fleet.SubunitStatus(m.Status),
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}
