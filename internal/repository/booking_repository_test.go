package repository_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cetler74/dbcars-sub000/internal/domain"
	"github.com/cetler74/dbcars-sub000/internal/domain/booking"
	"github.com/cetler74/dbcars-sub000/internal/domain/coupon"
	"github.com/cetler74/dbcars-sub000/internal/domain/extra"
	"github.com/cetler74/dbcars-sub000/internal/domain/fleet"
	"github.com/cetler74/dbcars-sub000/internal/repository"
	"github.com/cetler74/dbcars-sub000/internal/repository/sqlitetest"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var base = time.Date(2025, time.November, 3, 10, 0, 0, 0, time.UTC)

type fixture struct {
	db       *gorm.DB
	fleet    *repository.FleetRepositoryImpl
	bookings *repository.BookingRepositoryImpl
	coupons  *repository.GormCouponRepository
	vehicle  *fleet.Vehicle
	unit     *fleet.Subunit
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := sqlitetest.Open(t)
	f := &fixture{
		db:       db,
		fleet:    repository.NewFleetRepository(db),
		bookings: repository.NewBookingRepository(db),
		coupons:  repository.NewGormCouponRepository(db),
	}

	ctx := context.Background()
	v, err := fleet.NewVehicle(fleet.VehicleParams{Make: "Fiat", Model: "500", Category: fleet.CategoryEconomy, DailyRateCents: 10000})
	require.NoError(t, err)
	require.NoError(t, f.fleet.SaveVehicle(ctx, v))
	u, err := fleet.NewSubunit(v.ID, "AA-00-AA")
	require.NoError(t, err)
	require.NoError(t, f.fleet.SaveSubunit(ctx, u))

	f.vehicle, f.unit = v, u
	return f
}

func days(t *testing.T, from, to int) domain.Interval {
	t.Helper()
	iv, err := domain.NewInterval(base.AddDate(0, 0, from), base.AddDate(0, 0, to))
	require.NoError(t, err)
	return iv
}

func (f *fixture) newBooking(t *testing.T, iv domain.Interval, mutate func(p *booking.NewParams)) *booking.Booking {
	t.Helper()
	p := booking.NewParams{
		VehicleID:  f.vehicle.ID,
		SubunitID:  f.unit.ID,
		CustomerID: uuid.New(),
		Period:     iv,
		Price:      booking.NewPrice(30000, 0, 0),
	}
	if mutate != nil {
		mutate(&p)
	}
	b, err := booking.NewBooking(p)
	require.NoError(t, err)
	return b
}

func (f *fixture) countBookings(t *testing.T) (bookings, extras int64) {
	t.Helper()
	require.NoError(t, f.db.Model(&repository.BookingModel{}).Count(&bookings).Error)
	require.NoError(t, f.db.Model(&repository.BookingExtraModel{}).Count(&extras).Error)
	return bookings, extras
}

func TestInsertIfFree(t *testing.T) {
	ctx := context.Background()

	t.Run("overlap is rejected and writes nothing", func(t *testing.T) {
		f := newFixture(t)
		require.NoError(t, f.bookings.InsertIfFree(ctx, f.newBooking(t, days(t, 0, 3), nil)))

		seat, err := extra.NewExtra("Child seat", 500, extra.PerDay)
		require.NoError(t, err)
		clash := f.newBooking(t, days(t, 2, 5), func(p *booking.NewParams) {
			p.Extras = []booking.Extra{booking.SnapshotExtra(seat, 1, 3)}
		})

		err = f.bookings.InsertIfFree(ctx, clash)
		require.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrConflict))

		b, e := f.countBookings(t)
		assert.Equal(t, int64(1), b)
		assert.Zero(t, e)
	})

	t.Run("touching intervals both succeed", func(t *testing.T) {
		f := newFixture(t)
		require.NoError(t, f.bookings.InsertIfFree(ctx, f.newBooking(t, days(t, 0, 3), nil)))
		require.NoError(t, f.bookings.InsertIfFree(ctx, f.newBooking(t, days(t, 3, 6), nil)))
		require.NoError(t, f.bookings.InsertIfFree(ctx, f.newBooking(t, days(t, -2, 0), nil)))
	})

	t.Run("cancelled booking frees the interval", func(t *testing.T) {
		f := newFixture(t)
		first := f.newBooking(t, days(t, 0, 3), nil)
		require.NoError(t, f.bookings.InsertIfFree(ctx, first))

		_, err := first.TransitionTo(booking.StatusCancelled)
		require.NoError(t, err)
		require.NoError(t, f.bookings.UpdateStatus(ctx, first, false))

		require.NoError(t, f.bookings.InsertIfFree(ctx, f.newBooking(t, days(t, 1, 2), nil)))
	})

	t.Run("completed booking frees the interval", func(t *testing.T) {
		f := newFixture(t)
		first := f.newBooking(t, days(t, 0, 3), nil)
		require.NoError(t, f.bookings.InsertIfFree(ctx, first))
		for _, s := range []booking.Status{booking.StatusConfirmed, booking.StatusActive, booking.StatusCompleted} {
			_, err := first.TransitionTo(s)
			require.NoError(t, err)
			require.NoError(t, f.bookings.UpdateStatus(ctx, first, false))
		}
		require.NoError(t, f.bookings.InsertIfFree(ctx, f.newBooking(t, days(t, 0, 3), nil)))
	})

	t.Run("block on the subunit is rejected", func(t *testing.T) {
		f := newFixture(t)
		block, err := fleet.NewBlock(f.vehicle.ID, &f.unit.ID, days(t, 1, 2), "service")
		require.NoError(t, err)
		require.NoError(t, f.fleet.SaveBlock(ctx, block))

		err = f.bookings.InsertIfFree(ctx, f.newBooking(t, days(t, 0, 3), nil))
		assert.True(t, errors.Is(err, domain.ErrConflict))
	})

	t.Run("vehicle-wide block is rejected", func(t *testing.T) {
		f := newFixture(t)
		block, err := fleet.NewBlock(f.vehicle.ID, nil, days(t, 2, 4), "recall")
		require.NoError(t, err)
		require.NoError(t, f.fleet.SaveBlock(ctx, block))

		err = f.bookings.InsertIfFree(ctx, f.newBooking(t, days(t, 0, 3), nil))
		assert.True(t, errors.Is(err, domain.ErrConflict))
	})

	t.Run("unknown subunit is not found", func(t *testing.T) {
		f := newFixture(t)
		err := f.bookings.InsertIfFree(ctx, f.newBooking(t, days(t, 0, 3), func(p *booking.NewParams) {
			p.SubunitID = uuid.New()
		}))
		assert.True(t, errors.Is(err, domain.ErrNotFound))
	})

	t.Run("extras round trip", func(t *testing.T) {
		f := newFixture(t)
		gps, err := extra.NewExtra("GPS", 1500, extra.PerRental)
		require.NoError(t, err)
		b := f.newBooking(t, days(t, 0, 3), func(p *booking.NewParams) {
			p.Extras = []booking.Extra{booking.SnapshotExtra(gps, 2, 3)}
			p.Price = booking.NewPrice(30000, 3000, 0)
		})
		require.NoError(t, f.bookings.InsertIfFree(ctx, b))

		got, err := f.bookings.FindByID(ctx, b.ID())
		require.NoError(t, err)
		require.Len(t, got.Extras(), 1)
		assert.Equal(t, int64(3000), got.Extras()[0].LineTotalCents)
		assert.Equal(t, int64(33000), got.Price().TotalCents)
		assert.Equal(t, b.BookingNumber(), got.BookingNumber())
		assert.True(t, b.Period().Start.Equal(got.Period().Start))
	})
}

func TestOccupiedSubunits(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	require.NoError(t, f.bookings.InsertIfFree(ctx, f.newBooking(t, days(t, 0, 3), nil)))

	occupied, err := f.bookings.OccupiedSubunits(ctx, f.vehicle.ID, days(t, 2, 4))
	require.NoError(t, err)
	assert.True(t, occupied[f.unit.ID])

	occupied, err = f.bookings.OccupiedSubunits(ctx, f.vehicle.ID, days(t, 3, 4))
	require.NoError(t, err)
	assert.Empty(t, occupied)
}

func TestUpdateStatus_StaleVersion(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	b := f.newBooking(t, days(t, 0, 3), nil)
	require.NoError(t, f.bookings.InsertIfFree(ctx, b))

	first, err := f.bookings.FindByID(ctx, b.ID())
	require.NoError(t, err)
	second, err := f.bookings.FindByID(ctx, b.ID())
	require.NoError(t, err)

	_, err = first.TransitionTo(booking.StatusConfirmed)
	require.NoError(t, err)
	require.NoError(t, f.bookings.UpdateStatus(ctx, first, false))

	_, err = second.TransitionTo(booking.StatusCancelled)
	require.NoError(t, err)
	err = f.bookings.UpdateStatus(ctx, second, false)
	assert.True(t, errors.Is(err, domain.ErrConflict))

	stored, err := f.bookings.FindByID(ctx, b.ID())
	require.NoError(t, err)
	assert.Equal(t, booking.StatusConfirmed, stored.Status())
}

func TestUpdateStatus_ConsumesCouponOnce(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	limit := 1
	c, err := coupon.NewCoupon(coupon.Params{
		Code: "ONCE", DiscountType: coupon.DiscountTypePercentage, DiscountValue: 10,
		ValidFrom: base.AddDate(0, -1, 0), ValidUntil: base.AddDate(0, 1, 0), UsageLimit: &limit,
	})
	require.NoError(t, err)
	require.NoError(t, f.coupons.Save(ctx, c))

	withCoupon := func(p *booking.NewParams) {
		id := c.ID()
		p.CouponID = &id
		p.CouponCode = c.Code()
	}
	first := f.newBooking(t, days(t, 0, 3), withCoupon)
	second := f.newBooking(t, days(t, 5, 8), withCoupon)
	require.NoError(t, f.bookings.InsertIfFree(ctx, first))
	require.NoError(t, f.bookings.InsertIfFree(ctx, second))

	consume, err := first.TransitionTo(booking.StatusConfirmed)
	require.NoError(t, err)
	require.True(t, consume)
	require.NoError(t, f.bookings.UpdateStatus(ctx, first, consume))

	stored, err := f.coupons.FindByID(ctx, c.ID())
	require.NoError(t, err)
	assert.Equal(t, 1, stored.UsageCount())

	consume, err = second.TransitionTo(booking.StatusConfirmed)
	require.NoError(t, err)
	err = f.bookings.UpdateStatus(ctx, second, consume)
	assert.True(t, errors.Is(err, domain.ErrConflict))

	reloaded, err := f.bookings.FindByID(ctx, second.ID())
	require.NoError(t, err)
	assert.Equal(t, booking.StatusPending, reloaded.Status())
	assert.False(t, reloaded.CouponConsumed())

	stored, err = f.coupons.FindByID(ctx, c.ID())
	require.NoError(t, err)
	assert.Equal(t, 1, stored.UsageCount())
}

func TestFindByIdempotencyKey(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	customer := uuid.New()
	b := f.newBooking(t, days(t, 0, 3), func(p *booking.NewParams) {
		p.CustomerID = customer
		p.IdempotencyKey = "req-42"
	})
	require.NoError(t, f.bookings.InsertIfFree(ctx, b))

	got, err := f.bookings.FindByIdempotencyKey(ctx, customer, "req-42")
	require.NoError(t, err)
	assert.Equal(t, b.ID(), got.ID())

	_, err = f.bookings.FindByIdempotencyKey(ctx, uuid.New(), "req-42")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestListBookings(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	for i := 0; i < 3; i++ {
		require.NoError(t, f.bookings.InsertIfFree(ctx, f.newBooking(t, days(t, i*3, i*3+3), nil)))
	}
	cancelled := f.newBooking(t, days(t, 20, 22), nil)
	require.NoError(t, f.bookings.InsertIfFree(ctx, cancelled))
	_, err := cancelled.TransitionTo(booking.StatusCancelled)
	require.NoError(t, err)
	require.NoError(t, f.bookings.UpdateStatus(ctx, cancelled, false))

	all, total, err := f.bookings.List(ctx, booking.ListFilter{Page: 1, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(4), total)
	assert.Len(t, all, 2)

	onlyCancelled, total, err := f.bookings.List(ctx, booking.ListFilter{Status: booking.StatusCancelled})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, onlyCancelled, 1)
	assert.Equal(t, cancelled.ID(), onlyCancelled[0].ID())
}
