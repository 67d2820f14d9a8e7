package application

import (
	"context"
	"time"

	"github.com/cetler74/dbcars-sub000/internal/domain"
	"github.com/cetler74/dbcars-sub000/internal/domain/extra"
	"github.com/cetler74/dbcars-sub000/internal/domain/fleet"
	"github.com/cetler74/dbcars-sub000/internal/domain/pricing"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CreateVehicleRequest holds data to add a vehicle model to the fleet.
type CreateVehicleRequest struct {
	Make             string `json:"make" binding:"required"`
	Model            string `json:"model" binding:"required"`
	Name             string `json:"name"`
	Category         string `json:"category" binding:"required"`
	Seats            int    `json:"seats"`
	Doors            int    `json:"doors"`
	Transmission     string `json:"transmission"`
	FuelType         string `json:"fuel_type"`
	DailyRateCents   int64  `json:"daily_rate_cents" binding:"required,gt=0"`
	WeeklyRateCents  *int64 `json:"weekly_rate_cents,omitempty"`
	MonthlyRateCents *int64 `json:"monthly_rate_cents,omitempty"`
	HourlyRateCents  *int64 `json:"hourly_rate_cents,omitempty"`
}

// CreateSubunitRequest holds data to register a physical unit.
type CreateSubunitRequest struct {
	LicensePlate string `json:"license_plate" binding:"required"`
}

// UpdateSubunitStatusRequest sets the manual status of a unit.
type UpdateSubunitStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// CreateBlockRequest holds data for a maintenance or blocked period.
type CreateBlockRequest struct {
	SubunitID *uuid.UUID `json:"subunit_id,omitempty"`
	StartAt   time.Time  `json:"start_at" binding:"required"`
	EndAt     time.Time  `json:"end_at" binding:"required"`
	Reason    string     `json:"reason"`
}

// CreatePricingRuleRequest holds data for a seasonal pricing rule.
type CreatePricingRuleRequest struct {
	VehicleID   uuid.UUID  `json:"vehicle_id" binding:"required"`
	LocationID  *uuid.UUID `json:"location_id,omitempty"`
	StartDate   string     `json:"start_date" binding:"required"`
	EndDate     string     `json:"end_date" binding:"required"`
	DailyCents  *int64     `json:"daily_rate_cents,omitempty"`
	WeeklyCents *int64     `json:"weekly_rate_cents,omitempty"`
	Multiplier  *float64   `json:"multiplier,omitempty"`
}

// CreateExtraRequest holds data for a catalogue extra.
type CreateExtraRequest struct {
	Name       string `json:"name" binding:"required"`
	PriceCents int64  `json:"price_cents" binding:"gte=0"`
	PriceType  string `json:"price_type" binding:"required"`
}

// VehicleDTO is the API representation of a vehicle with its units.
type VehicleDTO struct {
	ID               uuid.UUID    `json:"id"`
	Make             string       `json:"make"`
	Model            string       `json:"model"`
	Name             string       `json:"name"`
	Category         string       `json:"category"`
	Seats            int          `json:"seats"`
	Doors            int          `json:"doors"`
	Transmission     string       `json:"transmission,omitempty"`
	FuelType         string       `json:"fuel_type,omitempty"`
	DailyRateCents   int64        `json:"daily_rate_cents"`
	WeeklyRateCents  *int64       `json:"weekly_rate_cents,omitempty"`
	MonthlyRateCents *int64       `json:"monthly_rate_cents,omitempty"`
	HourlyRateCents  *int64       `json:"hourly_rate_cents,omitempty"`
	IsActive         bool         `json:"is_active"`
	Subunits         []SubunitDTO `json:"subunits"`
	CreatedAt        time.Time    `json:"created_at"`
}

// BlockDTO is the API representation of an availability block.
type BlockDTO struct {
	ID        uuid.UUID  `json:"id"`
	VehicleID uuid.UUID  `json:"vehicle_id"`
	SubunitID *uuid.UUID `json:"subunit_id,omitempty"`
	StartAt   time.Time  `json:"start_at"`
	EndAt     time.Time  `json:"end_at"`
	Reason    string     `json:"reason,omitempty"`
}

// PricingRuleDTO is the API representation of a pricing rule.
type PricingRuleDTO struct {
	ID          uuid.UUID  `json:"id"`
	VehicleID   uuid.UUID  `json:"vehicle_id"`
	LocationID  *uuid.UUID `json:"location_id,omitempty"`
	StartDate   string     `json:"start_date"`
	EndDate     string     `json:"end_date"`
	DailyCents  *int64     `json:"daily_rate_cents,omitempty"`
	WeeklyCents *int64     `json:"weekly_rate_cents,omitempty"`
	Multiplier  *float64   `json:"multiplier,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// ExtraDTO is the API representation of a catalogue extra.
type ExtraDTO struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	PriceCents int64     `json:"price_cents"`
	PriceType  string    `json:"price_type"`
	IsActive   bool      `json:"is_active"`
}

// FleetService handles inventory administration: vehicles, units, blocks,
// pricing rules and extras.
type FleetService struct {
	fleet   fleet.Repository
	rules   pricing.Repository
	extras  extra.Repository
	timeout time.Duration
	logger  *zap.Logger
}

// NewFleetService creates a new FleetService.
func NewFleetService(fleetRepo fleet.Repository, rules pricing.Repository, extras extra.Repository, timeout time.Duration, logger *zap.Logger) *FleetService {
	return &FleetService{
		fleet:   fleetRepo,
		rules:   rules,
		extras:  extras,
		timeout: timeout,
		logger:  logger,
	}
}

// CreateVehicle adds a vehicle model.
func (s *FleetService) CreateVehicle(ctx context.Context, req CreateVehicleRequest) (*VehicleDTO, error) {
	v, err := fleet.NewVehicle(fleet.VehicleParams{
		Make:             req.Make,
		Model:            req.Model,
		Name:             req.Name,
		Category:         fleet.Category(req.Category),
		Seats:            req.Seats,
		Doors:            req.Doors,
		Transmission:     req.Transmission,
		FuelType:         req.FuelType,
		DailyRateCents:   req.DailyRateCents,
		WeeklyRateCents:  req.WeeklyRateCents,
		MonthlyRateCents: req.MonthlyRateCents,
		HourlyRateCents:  req.HourlyRateCents,
	})
	if err != nil {
		return nil, err
	}

	ctx, cancel := withStoreTimeout(ctx, s.timeout)
	defer cancel()
	if err := s.fleet.SaveVehicle(ctx, v); err != nil {
		return nil, storeError(err)
	}

	s.logger.Info("vehicle created", zap.String("vehicle_id", v.ID.String()), zap.String("name", v.Name))
	return toVehicleDTO(v, nil), nil
}

// GetVehicle returns a vehicle and its subunits.
func (s *FleetService) GetVehicle(ctx context.Context, id uuid.UUID) (*VehicleDTO, error) {
	ctx, cancel := withStoreTimeout(ctx, s.timeout)
	defer cancel()

	v, err := s.fleet.FindVehicleByID(ctx, id)
	if err != nil {
		return nil, storeError(err)
	}
	units, err := s.fleet.ListSubunits(ctx, id)
	if err != nil {
		return nil, storeError(err)
	}
	return toVehicleDTO(v, units), nil
}

// SetVehicleActive enables or retires a vehicle model.
func (s *FleetService) SetVehicleActive(ctx context.Context, id uuid.UUID, active bool) error {
	ctx, cancel := withStoreTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.fleet.SetVehicleActive(ctx, id, active); err != nil {
		return storeError(err)
	}
	s.logger.Info("vehicle active flag changed", zap.String("vehicle_id", id.String()), zap.Bool("active", active))
	return nil
}

// AddSubunit registers a physical unit of a vehicle.
func (s *FleetService) AddSubunit(ctx context.Context, vehicleID uuid.UUID, req CreateSubunitRequest) (*SubunitDTO, error) {
	ctx, cancel := withStoreTimeout(ctx, s.timeout)
	defer cancel()

	if _, err := s.fleet.FindVehicleByID(ctx, vehicleID); err != nil {
		return nil, storeError(err)
	}
	u, err := fleet.NewSubunit(vehicleID, req.LicensePlate)
	if err != nil {
		return nil, err
	}
	if err := s.fleet.SaveSubunit(ctx, u); err != nil {
		return nil, storeError(err)
	}

	s.logger.Info("subunit added", zap.String("vehicle_id", vehicleID.String()), zap.String("license_plate", u.LicensePlate))
	dto := toSubunitDTO(u)
	return &dto, nil
}

// SetSubunitStatus changes the manual status of a unit. Only maintenance
// affects availability.
func (s *FleetService) SetSubunitStatus(ctx context.Context, id uuid.UUID, req UpdateSubunitStatusRequest) (*SubunitDTO, error) {
	ctx, cancel := withStoreTimeout(ctx, s.timeout)
	defer cancel()

	u, err := s.fleet.FindSubunitByID(ctx, id)
	if err != nil {
		return nil, storeError(err)
	}
	if err := u.SetStatus(fleet.SubunitStatus(req.Status)); err != nil {
		return nil, err
	}
	if err := s.fleet.UpdateSubunitStatus(ctx, id, u.Status); err != nil {
		return nil, storeError(err)
	}

	dto := toSubunitDTO(u)
	return &dto, nil
}

// AddBlock records a period during which the vehicle, or one of its units,
// cannot be rented.
func (s *FleetService) AddBlock(ctx context.Context, vehicleID uuid.UUID, req CreateBlockRequest) (*BlockDTO, error) {
	iv, err := domain.NewInterval(req.StartAt, req.EndAt)
	if err != nil {
		return nil, err
	}

	ctx, cancel := withStoreTimeout(ctx, s.timeout)
	defer cancel()

	if _, err := s.fleet.FindVehicleByID(ctx, vehicleID); err != nil {
		return nil, storeError(err)
	}
	if req.SubunitID != nil {
		u, err := s.fleet.FindSubunitByID(ctx, *req.SubunitID)
		if err != nil {
			return nil, storeError(err)
		}
		if u.VehicleID != vehicleID {
			return nil, domain.NewValidationError("subunit %s does not belong to vehicle %s", u.ID, vehicleID)
		}
	}

	b, err := fleet.NewBlock(vehicleID, req.SubunitID, iv, req.Reason)
	if err != nil {
		return nil, err
	}
	if err := s.fleet.SaveBlock(ctx, b); err != nil {
		return nil, storeError(err)
	}

	s.logger.Info("availability block added",
		zap.String("vehicle_id", vehicleID.String()),
		zap.Time("start_at", iv.Start),
		zap.Time("end_at", iv.End),
	)
	return toBlockDTO(b), nil
}

// RemoveBlock deletes a block.
func (s *FleetService) RemoveBlock(ctx context.Context, id uuid.UUID) error {
	ctx, cancel := withStoreTimeout(ctx, s.timeout)
	defer cancel()
	return storeError(s.fleet.DeleteBlock(ctx, id))
}

// CreatePricingRule adds a seasonal rule. Dates are YYYY-MM-DD or RFC3339.
func (s *FleetService) CreatePricingRule(ctx context.Context, req CreatePricingRuleRequest) (*PricingRuleDTO, error) {
	start, err := parseDate(req.StartDate)
	if err != nil {
		return nil, domain.NewValidationError("invalid start_date: %s", req.StartDate)
	}
	end, err := parseDate(req.EndDate)
	if err != nil {
		return nil, domain.NewValidationError("invalid end_date: %s", req.EndDate)
	}
	rule, err := pricing.NewRule(pricing.RuleParams{
		VehicleID:   req.VehicleID,
		LocationID:  req.LocationID,
		StartDate:   start,
		EndDate:     end,
		DailyCents:  req.DailyCents,
		WeeklyCents: req.WeeklyCents,
		Multiplier:  req.Multiplier,
	})
	if err != nil {
		return nil, err
	}

	ctx, cancel := withStoreTimeout(ctx, s.timeout)
	defer cancel()

	if _, err := s.fleet.FindVehicleByID(ctx, req.VehicleID); err != nil {
		return nil, storeError(err)
	}
	if err := s.rules.Save(ctx, rule); err != nil {
		return nil, storeError(err)
	}

	s.logger.Info("pricing rule created", zap.String("rule_id", rule.ID.String()), zap.String("vehicle_id", rule.VehicleID.String()))
	return toPricingRuleDTO(rule), nil
}

// CreateExtra adds a catalogue extra.
func (s *FleetService) CreateExtra(ctx context.Context, req CreateExtraRequest) (*ExtraDTO, error) {
	e, err := extra.NewExtra(req.Name, req.PriceCents, extra.PriceType(req.PriceType))
	if err != nil {
		return nil, err
	}

	ctx, cancel := withStoreTimeout(ctx, s.timeout)
	defer cancel()
	if err := s.extras.Save(ctx, e); err != nil {
		return nil, storeError(err)
	}
	return toExtraDTO(e), nil
}

// ListExtras returns the active catalogue.
func (s *FleetService) ListExtras(ctx context.Context) ([]*ExtraDTO, error) {
	ctx, cancel := withStoreTimeout(ctx, s.timeout)
	defer cancel()

	extras, err := s.extras.ListActive(ctx)
	if err != nil {
		return nil, storeError(err)
	}
	dtos := make([]*ExtraDTO, len(extras))
	for i, e := range extras {
		dtos[i] = toExtraDTO(e)
	}
	return dtos, nil
}

func toVehicleDTO(v *fleet.Vehicle, units []*fleet.Subunit) *VehicleDTO {
	subunits := make([]SubunitDTO, len(units))
	for i, u := range units {
		subunits[i] = toSubunitDTO(u)
	}
	return &VehicleDTO{
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
		Subunits:         subunits,
		CreatedAt:        v.CreatedAt,
	}
}

func toBlockDTO(b *fleet.Block) *BlockDTO {
	return &BlockDTO{
		ID:        b.ID,
		VehicleID: b.VehicleID,
		SubunitID: b.SubunitID,
		StartAt:   b.Period.Start,
		EndAt:     b.Period.End,
		Reason:    b.Reason,
	}
}

func toPricingRuleDTO(r *pricing.Rule) *PricingRuleDTO {
	return &PricingRuleDTO{
		ID:          r.ID,
		VehicleID:   r.VehicleID,
		LocationID:  r.LocationID,
		StartDate:   r.StartDate.Format(time.DateOnly),
		EndDate:     r.EndDate.Format(time.DateOnly),
		DailyCents:  r.DailyCents,
		WeeklyCents: r.WeeklyCents,
		Multiplier:  r.Multiplier,
		CreatedAt:   r.CreatedAt,
	}
}

func toExtraDTO(e *extra.Extra) *ExtraDTO {
	return &ExtraDTO{
		ID:         e.ID,
		Name:       e.Name,
		PriceCents: e.PriceCents,
		PriceType:  string(e.PriceType),
		IsActive:   e.IsActive,
	}
}
