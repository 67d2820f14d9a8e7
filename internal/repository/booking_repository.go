package repository

import (
	"context"
	"time"

	"github.com/cetler74/dbcars-sub000/internal/domain"
	bookingDomain "github.com/cetler74/dbcars-sub000/internal/domain/booking"
	"github.com/cetler74/dbcars-sub000/internal/domain/extra"
	"github.com/cetler74/dbcars-sub000/internal/domain/fleet"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// BookingRepositoryImpl is the GORM-based implementation of booking.Repository.
type BookingRepositoryImpl struct {
	db *gorm.DB
}

// NewBookingRepository creates a new GORM-based booking repository.
func NewBookingRepository(db *gorm.DB) *BookingRepositoryImpl {
	return &BookingRepositoryImpl{db: db}
}

func activeHoldingStatuses() []string {
	out := make([]string, len(bookingDomain.ActiveHoldingStatuses))
	for i, s := range bookingDomain.ActiveHoldingStatuses {
		out[i] = string(s)
	}
	return out
}

// InsertIfFree locks the subunit row, re-checks overlapping bookings and
// blocks, then inserts the booking and its extras. Every statement runs on
// tx; on PostgreSQL the exclusion constraint backs up the re-check.
func (r *BookingRepositoryImpl) InsertIfFree(ctx context.Context, b *bookingDomain.Booking) error {
	model := toBookingModel(b)
	extras := toBookingExtraModels(b)

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var unit SubunitModel
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ? AND vehicle_id = ?", model.SubunitID, model.VehicleID).
			First(&unit).Error; err != nil {
			return translateError(err, "Subunit", model.SubunitID.String())
		}
		if fleet.SubunitStatus(unit.Status) == fleet.SubunitMaintenance {
			return domain.NewConflictError("subunit went into maintenance")
		}

		var overlapping int64
		if err := tx.Model(&BookingModel{}).
			Where("subunit_id = ? AND status IN ? AND pickup_at < ? AND dropoff_at > ?",
				model.SubunitID, activeHoldingStatuses(), model.DropoffAt, model.PickupAt).
			Count(&overlapping).Error; err != nil {
			return err
		}
		if overlapping > 0 {
			return domain.NewConflictError("subunit was booked by a concurrent request")
		}

		var blocked int64
		if err := tx.Model(&BlockModel{}).
			Where("vehicle_id = ? AND (subunit_id IS NULL OR subunit_id = ?) AND start_at < ? AND end_at > ?",
				model.VehicleID, model.SubunitID, model.DropoffAt, model.PickupAt).
			Count(&blocked).Error; err != nil {
			return err
		}
		if blocked > 0 {
			return domain.NewConflictError("subunit was blocked for the requested interval")
		}

		if err := tx.Create(&model).Error; err != nil {
			return err
		}
		if len(extras) > 0 {
			if err := tx.Create(&extras).Error; err != nil {
				return err
			}
		}
		return nil
	})
	return translateError(err, "Booking", model.ID.String())
}

// UpdateStatus persists a transition with optimistic locking. When consume
// is set the coupon is consumed in the same transaction, and an exhausted
// coupon aborts the transition.
func (r *BookingRepositoryImpl) UpdateStatus(ctx context.Context, b *bookingDomain.Booking, consume bool) error {
	previousVersion := b.Version() - 1

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&BookingModel{}).
			Where("id = ? AND version = ?", b.ID(), previousVersion).
			Updates(map[string]interface{}{
				"status":          string(b.Status()),
				"version":         b.Version(),
				"coupon_consumed": b.CouponConsumed(),
				"confirmed_at":    b.ConfirmedAt(),
				"cancelled_at":    b.CancelledAt(),
				"updated_at":      b.UpdatedAt(),
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return domain.NewConflictError("booking was modified by another transaction")
		}

		if consume && b.CouponID() != nil {
			ok, err := consumeCoupon(tx, *b.CouponID())
			if err != nil {
				return err
			}
			if !ok {
				return domain.NewConflictError("coupon " + b.CouponCode() + " is no longer redeemable")
			}
		}
		return nil
	})
	return translateError(err, "Booking", b.ID().String())
}

// FindByID retrieves a booking and its extras.
func (r *BookingRepositoryImpl) FindByID(ctx context.Context, id uuid.UUID) (*bookingDomain.Booking, error) {
	var model BookingModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		return nil, translateError(err, "Booking", id.String())
	}
	return r.withExtras(ctx, &model)
}

// FindByIdempotencyKey retrieves the booking a customer created with key.
func (r *BookingRepositoryImpl) FindByIdempotencyKey(ctx context.Context, customerID uuid.UUID, key string) (*bookingDomain.Booking, error) {
	var model BookingModel
	if err := r.db.WithContext(ctx).
		Where("customer_id = ? AND idempotency_key = ?", customerID, key).
		First(&model).Error; err != nil {
		return nil, translateError(err, "Booking", key)
	}
	return r.withExtras(ctx, &model)
}

// List retrieves bookings newest first with pagination.
func (r *BookingRepositoryImpl) List(ctx context.Context, filter bookingDomain.ListFilter) ([]*bookingDomain.Booking, int64, error) {
	page, limit := filter.Page, filter.Limit
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}

	q := r.db.WithContext(ctx).Model(&BookingModel{})
	if filter.Status != "" {
		q = q.Where("status = ?", string(filter.Status))
	}
	if filter.VehicleID != nil {
		q = q.Where("vehicle_id = ?", *filter.VehicleID)
	}
	if filter.CustomerID != nil {
		q = q.Where("customer_id = ?", *filter.CustomerID)
	}

	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, translateError(err, "Booking", "")
	}

	var models []BookingModel
	if err := q.Order("created_at DESC").Offset((page - 1) * limit).Limit(limit).Find(&models).Error; err != nil {
		return nil, 0, translateError(err, "Booking", "")
	}

	bookings := make([]*bookingDomain.Booking, len(models))
	for i := range models {
		bookings[i] = toBookingDomain(&models[i], nil)
	}
	return bookings, total, nil
}

// OccupiedSubunits returns subunits of the vehicle held over iv.
func (r *BookingRepositoryImpl) OccupiedSubunits(ctx context.Context, vehicleID uuid.UUID, iv domain.Interval) (map[uuid.UUID]bool, error) {
	var ids []uuid.UUID
	if err := r.db.WithContext(ctx).Model(&BookingModel{}).
		Where("vehicle_id = ? AND status IN ? AND pickup_at < ? AND dropoff_at > ?",
			vehicleID, activeHoldingStatuses(), iv.End, iv.Start).
		Distinct("subunit_id").
		Pluck("subunit_id", &ids).Error; err != nil {
		return nil, translateError(err, "Vehicle", vehicleID.String())
	}

	occupied := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		occupied[id] = true
	}
	return occupied, nil
}

func (r *BookingRepositoryImpl) withExtras(ctx context.Context, model *BookingModel) (*bookingDomain.Booking, error) {
	var extras []BookingExtraModel
	if err := r.db.WithContext(ctx).Where("booking_id = ?", model.ID).Order("name").Find(&extras).Error; err != nil {
		return nil, translateError(err, "Booking", model.ID.String())
	}
	return toBookingDomain(model, extras), nil
}

func toBookingModel(b *bookingDomain.Booking) BookingModel {
	var key *string
	if k := b.IdempotencyKey(); k != "" {
		key = &k
	}
	p := b.Price()
	return BookingModel{
		ID:             b.ID(),
		BookingNumber:  b.BookingNumber(),
		VehicleID:      b.VehicleID(),
		SubunitID:      b.SubunitID(),
		CustomerID:     b.CustomerID(),
		LocationID:     b.LocationID(),
		PickupAt:       b.Period().Start,
		DropoffAt:      b.Period().End,
		Status:         string(b.Status()),
		BaseCents:      p.BaseCents,
		ExtrasCents:    p.ExtrasCents,
		DiscountCents:  p.DiscountCents,
		TotalCents:     p.TotalCents,
		CouponCode:     b.CouponCode(),
		CouponID:       b.CouponID(),
		CouponConsumed: b.CouponConsumed(),
		IdempotencyKey: key,
		Version:        b.Version(),
		ConfirmedAt:    b.ConfirmedAt(),
		CancelledAt:    b.CancelledAt(),
		CreatedAt:      b.CreatedAt(),
		UpdatedAt:      b.UpdatedAt(),
	}
}

func toBookingExtraModels(b *bookingDomain.Booking) []BookingExtraModel {
	lines := b.Extras()
	out := make([]BookingExtraModel, len(lines))
	for i, l := range lines {
		out[i] = BookingExtraModel{
			ID:             uuid.New(),
			BookingID:      b.ID(),
			ExtraID:        l.ExtraID,
			Name:           l.Name,
			Quantity:       l.Quantity,
			UnitPriceCents: l.UnitPriceCents,
			PriceType:      string(l.PriceType),
			LineTotalCents: l.LineTotalCents,
		}
	}
	return out
}

func toBookingDomain(m *BookingModel, extras []BookingExtraModel) *bookingDomain.Booking {
	lines := make([]bookingDomain.Extra, len(extras))
	for i, e := range extras {
		lines[i] = bookingDomain.Extra{
			ExtraID:        e.ExtraID,
			Name:           e.Name,
			Quantity:       e.Quantity,
			UnitPriceCents: e.UnitPriceCents,
			PriceType:      extra.PriceType(e.PriceType),
			LineTotalCents: e.LineTotalCents,
		}
	}
	key := ""
	if m.IdempotencyKey != nil {
		key = *m.IdempotencyKey
	}
	return bookingDomain.Reconstitute(bookingDomain.Snapshot{
		ID:             m.ID,
		BookingNumber:  m.BookingNumber,
		VehicleID:      m.VehicleID,
		SubunitID:      m.SubunitID,
		CustomerID:     m.CustomerID,
		LocationID:     m.LocationID,
		Period:         domain.Interval{Start: m.PickupAt.UTC(), End: m.DropoffAt.UTC()},
		Status:         bookingDomain.Status(m.Status),
		Price:          bookingDomain.Price{BaseCents: m.BaseCents, ExtrasCents: m.ExtrasCents, DiscountCents: m.DiscountCents, TotalCents: m.TotalCents},
		Extras:         lines,
		CouponCode:     m.CouponCode,
		CouponID:       m.CouponID,
		CouponConsumed: m.CouponConsumed,
		IdempotencyKey: key,
		Version:        m.Version,
		ConfirmedAt:    utcPtr(m.ConfirmedAt),
		CancelledAt:    utcPtr(m.CancelledAt),
		CreatedAt:      m.CreatedAt.UTC(),
		UpdatedAt:      m.UpdatedAt.UTC(),
	})
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
