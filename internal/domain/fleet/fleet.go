package fleet

import (
	"sort"
	"strings"
	"time"

	"github.com/cetler74/dbcars-sub000/internal/domain"
	"github.com/google/uuid"
)

// Category classifies a vehicle model.
type Category string

const (
	CategoryEconomy Category = "economy"
	CategoryCompact Category = "compact"
	CategorySUV     Category = "suv"
	CategoryLuxury  Category = "luxury"
	CategoryVan     Category = "van"
)

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	switch c {
	case CategoryEconomy, CategoryCompact, CategorySUV, CategoryLuxury, CategoryVan:
		return true
	}
	return false
}

// SubunitStatus is the manual, informational status of a physical unit.
type SubunitStatus string

const (
	SubunitAvailable   SubunitStatus = "available"
	SubunitReserved    SubunitStatus = "reserved"
	SubunitOutOnRent   SubunitStatus = "out_on_rent"
	SubunitReturned    SubunitStatus = "returned"
	SubunitMaintenance SubunitStatus = "maintenance"
)

// Valid reports whether s is a known subunit status.
func (s SubunitStatus) Valid() bool {
	switch s {
	case SubunitAvailable, SubunitReserved, SubunitOutOnRent, SubunitReturned, SubunitMaintenance:
		return true
	}
	return false
}

// Vehicle is a rentable model. Physical units are Subunits.
type Vehicle struct {
	ID               uuid.UUID
	Make             string
	Model            string
	Name             string
	Category         Category
	Seats            int
	Doors            int
	Transmission     string
	FuelType         string
	DailyRateCents   int64
	WeeklyRateCents  *int64
	MonthlyRateCents *int64
	HourlyRateCents  *int64
	IsActive         bool
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// VehicleParams holds the inputs for NewVehicle.
type VehicleParams struct {
	Make             string
	Model            string
	Name             string
	Category         Category
	Seats            int
	Doors            int
	Transmission     string
	FuelType         string
	DailyRateCents   int64
	WeeklyRateCents  *int64
	MonthlyRateCents *int64
	HourlyRateCents  *int64
}

// NewVehicle validates params and returns an active vehicle.
func NewVehicle(p VehicleParams) (*Vehicle, error) {
	if strings.TrimSpace(p.Make) == "" || strings.TrimSpace(p.Model) == "" {
		return nil, domain.NewValidationError("make and model are required")
	}
	if !p.Category.Valid() {
		return nil, domain.NewValidationError("invalid category: %s", p.Category)
	}
	if p.DailyRateCents <= 0 {
		return nil, domain.NewValidationError("daily rate must be positive")
	}
	for name, rate := range map[string]*int64{"weekly": p.WeeklyRateCents, "monthly": p.MonthlyRateCents, "hourly": p.HourlyRateCents} {
		if rate != nil && *rate <= 0 {
			return nil, domain.NewValidationError("%s rate must be positive when set", name)
		}
	}
	name := p.Name
	if name == "" {
		name = p.Make + " " + p.Model
	}

	now := time.Now().UTC()
	return &Vehicle{
		ID:               uuid.New(),
		Make:             p.Make,
		Model:            p.Model,
		Name:             name,
		Category:         p.Category,
		Seats:            p.Seats,
		Doors:            p.Doors,
		Transmission:     p.Transmission,
		FuelType:         p.FuelType,
		DailyRateCents:   p.DailyRateCents,
		WeeklyRateCents:  p.WeeklyRateCents,
		MonthlyRateCents: p.MonthlyRateCents,
		HourlyRateCents:  p.HourlyRateCents,
		IsActive:         true,
		CreatedAt:        now,
		UpdatedAt:        now,
	}, nil
}

// Subunit is one physical car of a Vehicle model.
type Subunit struct {
	ID           uuid.UUID
	VehicleID    uuid.UUID
	LicensePlate string
	Status       SubunitStatus
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewSubunit creates an available subunit. Plates are stored upper-case.
func NewSubunit(vehicleID uuid.UUID, licensePlate string) (*Subunit, error) {
	plate := strings.ToUpper(strings.TrimSpace(licensePlate))
	if plate == "" {
		return nil, domain.NewValidationError("license plate is required")
	}
	now := time.Now().UTC()
	return &Subunit{
		ID:           uuid.New(),
		VehicleID:    vehicleID,
		LicensePlate: plate,
		Status:       SubunitAvailable,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// SetStatus changes the manual status. It never affects existing bookings.
func (s *Subunit) SetStatus(status SubunitStatus) error {
	if !status.Valid() {
		return domain.NewValidationError("invalid subunit status: %s", status)
	}
	s.Status = status
	s.UpdatedAt = time.Now().UTC()
	return nil
}

// Block is a manually entered period during which units cannot be rented.
type Block struct {
	ID        uuid.UUID
	VehicleID uuid.UUID
	SubunitID *uuid.UUID // nil blocks every unit of the vehicle
	Period    domain.Interval
	Reason    string
	CreatedAt time.Time
}

// NewBlock creates a block. Empty periods are rejected.
func NewBlock(vehicleID uuid.UUID, subunitID *uuid.UUID, period domain.Interval, reason string) (*Block, error) {
	if period.IsEmpty() {
		return nil, domain.NewValidationError("block period must not be empty")
	}
	return &Block{
		ID:        uuid.New(),
		VehicleID: vehicleID,
		SubunitID: subunitID,
		Period:    period,
		Reason:    reason,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// Covers reports whether the block applies to the given subunit.
func (b Block) Covers(subunitID uuid.UUID) bool {
	return b.SubunitID == nil || *b.SubunitID == subunitID
}

// FreeSubunits filters units down to the ones that can take a booking over iv.
// occupied holds subunits with an overlapping active-holding booking. The
// result is ordered by creation time, then id.
func FreeSubunits(units []*Subunit, occupied map[uuid.UUID]bool, blocks []*Block, iv domain.Interval) []*Subunit {
	free := make([]*Subunit, 0, len(units))
	for _, u := range units {
		if u.Status == SubunitMaintenance || occupied[u.ID] {
			continue
		}
		if blocked(u.ID, blocks, iv) {
			continue
		}
		free = append(free, u)
	}
	SortSubunits(free)
	return free
}

func blocked(subunitID uuid.UUID, blocks []*Block, iv domain.Interval) bool {
	for _, b := range blocks {
		if b.Covers(subunitID) && b.Period.Overlaps(iv) {
			return true
		}
	}
	return false
}

// SortSubunits orders units by CreatedAt, breaking ties by id.
func SortSubunits(units []*Subunit) {
	sort.SliceStable(units, func(i, j int) bool {
		if !units[i].CreatedAt.Equal(units[j].CreatedAt) {
			return units[i].CreatedAt.Before(units[j].CreatedAt)
		}
		return units[i].ID.String() < units[j].ID.String()
	})
}
