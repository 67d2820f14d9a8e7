package repository

import (
	"time"

	"github.com/google/uuid"
)

// VehicleModel is the GORM model for the vehicles table.
type VehicleModel struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey"`
	Make             string    `gorm:"type:varchar(100);not null"`
	Model            string    `gorm:"type:varchar(100);not null"`
	Name             string    `gorm:"type:varchar(200);not null"`
	Category         string    `gorm:"type:varchar(20);not null;index"`
	Seats            int       `gorm:"not null"`
	Doors            int       `gorm:"not null"`
	Transmission     string    `gorm:"type:varchar(20)"`
	FuelType         string    `gorm:"type:varchar(20)"`
	DailyRateCents   int64     `gorm:"not null"`
	WeeklyRateCents  *int64
	MonthlyRateCents *int64
	HourlyRateCents  *int64
	IsActive         bool      `gorm:"not null"`
	CreatedAt        time.Time `gorm:"not null"`
	UpdatedAt        time.Time `gorm:"not null"`
}

// TableName sets the table name.
func (VehicleModel) TableName() string { return "vehicles" }

// SubunitModel is the GORM model for the vehicle_subunits table.
type SubunitModel struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	VehicleID    uuid.UUID `gorm:"type:uuid;not null;index"`
	LicensePlate string    `gorm:"type:varchar(20);uniqueIndex;not null"`
	Status       string    `gorm:"type:varchar(20);not null"`
	CreatedAt    time.Time `gorm:"not null"`
	UpdatedAt    time.Time `gorm:"not null"`
}

// TableName sets the table name.
func (SubunitModel) TableName() string { return "vehicle_subunits" }

// BlockModel is the GORM model for the availability_blocks table.
type BlockModel struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey"`
	VehicleID uuid.UUID  `gorm:"type:uuid;not null;index"`
	SubunitID *uuid.UUID `gorm:"type:uuid;index"`
	StartAt   time.Time  `gorm:"not null"`
	EndAt     time.Time  `gorm:"not null"`
	Reason    string     `gorm:"type:text"`
	CreatedAt time.Time  `gorm:"not null"`
}

// TableName sets the table name.
func (BlockModel) TableName() string { return "availability_blocks" }

// PricingRuleModel is the GORM model for the pricing_rules table.
type PricingRuleModel struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey"`
	VehicleID   uuid.UUID  `gorm:"type:uuid;not null;index"`
	LocationID  *uuid.UUID `gorm:"type:uuid"`
	StartDate   time.Time  `gorm:"type:date;not null"`
	EndDate     time.Time  `gorm:"type:date;not null"`
	DailyCents  *int64
	WeeklyCents *int64
	Multiplier  *float64
	CreatedAt   time.Time `gorm:"not null"`
}

// TableName sets the table name.
func (PricingRuleModel) TableName() string { return "pricing_rules" }

// CouponModel is the GORM model for the coupons table.
type CouponModel struct {
	ID                 uuid.UUID `gorm:"type:uuid;primaryKey"`
	Code               string    `gorm:"type:varchar(50);uniqueIndex;not null"`
	DiscountType       string    `gorm:"type:varchar(20);not null"`
	DiscountValue      int64     `gorm:"not null"`
	ValidFrom          time.Time `gorm:"type:date;not null"`
	ValidUntil         time.Time `gorm:"type:date;not null"`
	MinimumRentalDays  *int
	MinimumAmountCents *int64
	UsageLimit         *int
	UsageCount         int       `gorm:"not null"`
	IsActive           bool      `gorm:"not null"`
	CreatedAt          time.Time `gorm:"not null"`
	UpdatedAt          time.Time `gorm:"not null"`
}

// TableName sets the table name.
func (CouponModel) TableName() string { return "coupons" }

// ExtraModel is the GORM model for the extras table.
type ExtraModel struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name       string    `gorm:"type:varchar(100);not null"`
	PriceCents int64     `gorm:"not null"`
	PriceType  string    `gorm:"type:varchar(20);not null"`
	IsActive   bool      `gorm:"not null"`
	CreatedAt  time.Time `gorm:"not null"`
}

// TableName sets the table name.
func (ExtraModel) TableName() string { return "extras" }

// BookingModel is the GORM model for the bookings table.
type BookingModel struct {
	ID             uuid.UUID  `gorm:"type:uuid;primaryKey"`
	BookingNumber  string     `gorm:"type:varchar(20);uniqueIndex;not null"`
	VehicleID      uuid.UUID  `gorm:"type:uuid;not null;index"`
	SubunitID      uuid.UUID  `gorm:"type:uuid;not null;index"`
	CustomerID     uuid.UUID  `gorm:"type:uuid;not null;index;uniqueIndex:idx_bookings_customer_idempotency"`
	LocationID     *uuid.UUID `gorm:"type:uuid"`
	PickupAt       time.Time  `gorm:"not null"`
	DropoffAt      time.Time  `gorm:"not null"`
	Status         string     `gorm:"type:varchar(20);not null;index"`
	BaseCents      int64      `gorm:"not null"`
	ExtrasCents    int64      `gorm:"not null"`
	DiscountCents  int64      `gorm:"not null"`
	TotalCents     int64      `gorm:"not null"`
	CouponCode     string     `gorm:"type:varchar(50)"`
	CouponID       *uuid.UUID `gorm:"type:uuid"`
	CouponConsumed bool       `gorm:"not null"`
	IdempotencyKey *string    `gorm:"type:varchar(100);uniqueIndex:idx_bookings_customer_idempotency"`
	Version        int64      `gorm:"not null"`
	ConfirmedAt    *time.Time
	CancelledAt    *time.Time
	CreatedAt      time.Time `gorm:"not null"`
	UpdatedAt      time.Time `gorm:"not null"`
}

// TableName sets the table name.
func (BookingModel) TableName() string { return "bookings" }

// BookingExtraModel is the GORM model for the booking_extras table.
type BookingExtraModel struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey"`
	BookingID      uuid.UUID `gorm:"type:uuid;not null;index"`
	ExtraID        uuid.UUID `gorm:"type:uuid;not null"`
	Name           string    `gorm:"type:varchar(100);not null"`
	Quantity       int       `gorm:"not null"`
	UnitPriceCents int64     `gorm:"not null"`
	PriceType      string    `gorm:"type:varchar(20);not null"`
	LineTotalCents int64     `gorm:"not null"`
}

// TableName sets the table name.
func (BookingExtraModel) TableName() string { return "booking_extras" }

// Models lists every persisted model, for AutoMigrate in development and tests.
func Models() []interface{} {
	return []interface{}{
		&VehicleModel{},
		&SubunitModel{},
		&BlockModel{},
		&PricingRuleModel{},
		&CouponModel{},
		&ExtraModel{},
		&BookingModel{},
		&BookingExtraModel{},
	}
}
