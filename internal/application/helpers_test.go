package application_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/cetler74/dbcars-sub000/internal/application"
	"github.com/cetler74/dbcars-sub000/internal/domain/booking"
	"github.com/cetler74/dbcars-sub000/internal/domain/coupon"
	"github.com/cetler74/dbcars-sub000/internal/domain/extra"
	"github.com/cetler74/dbcars-sub000/internal/domain/fleet"
	"github.com/cetler74/dbcars-sub000/internal/platform/lock"
	"github.com/cetler74/dbcars-sub000/internal/repository"
	"github.com/cetler74/dbcars-sub000/internal/repository/sqlitetest"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	pickup   = time.Date(2030, time.March, 4, 9, 0, 0, 0, time.UTC)
	customer = uuid.MustParse("5f0c8a40-2b7e-4d8e-9a3c-0d6c1e4b7a11")
)

type recordingPublisher struct {
	mu      sync.Mutex
	created []string
	changes []string
}

func (p *recordingPublisher) BookingCreated(_ context.Context, b *booking.Booking) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.created = append(p.created, b.ID().String())
	return nil
}

func (p *recordingPublisher) BookingStatusChanged(_ context.Context, b *booking.Booking, from booking.Status) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.changes = append(p.changes, string(from)+"->"+string(b.Status()))
	return nil
}

type env struct {
	db           *gorm.DB
	fleetRepo    *repository.FleetRepositoryImpl
	couponRepo   *repository.GormCouponRepository
	extraRepo    *repository.ExtraRepositoryImpl
	ruleRepo     *repository.PricingRepositoryImpl
	bookingRepo  *repository.BookingRepositoryImpl
	availability *application.AvailabilityService
	pricing      *application.PricingService
	coupons      *application.CouponService
	fleet        *application.FleetService
	bookings     *application.BookingService
	publisher    *recordingPublisher
}

func newEnv(t *testing.T, locker lock.Locker) *env {
	t.Helper()
	db := sqlitetest.Open(t)
	logger := zap.NewNop()
	timeout := 5 * time.Second

	e := &env{
		db:          db,
		fleetRepo:   repository.NewFleetRepository(db),
		couponRepo:  repository.NewGormCouponRepository(db),
		extraRepo:   repository.NewExtraRepository(db),
		ruleRepo:    repository.NewPricingRepository(db),
		bookingRepo: repository.NewBookingRepository(db),
		publisher:   &recordingPublisher{},
	}
	e.availability = application.NewAvailabilityService(e.fleetRepo, e.bookingRepo, timeout, logger)
	e.pricing = application.NewPricingService(e.fleetRepo, e.ruleRepo, e.extraRepo, e.couponRepo, timeout, logger)
	e.coupons = application.NewCouponService(e.couponRepo, timeout, logger)
	e.fleet = application.NewFleetService(e.fleetRepo, e.ruleRepo, e.extraRepo, timeout, logger)
	e.bookings = application.NewBookingService(e.fleetRepo, e.bookingRepo, e.availability, e.pricing, locker, e.publisher, timeout, logger)
	return e
}

func (e *env) seedVehicle(t *testing.T, dailyCents int64, plates ...string) (*fleet.Vehicle, []*fleet.Subunit) {
	t.Helper()
	ctx := context.Background()
	v, err := fleet.NewVehicle(fleet.VehicleParams{Make: "Renault", Model: "Clio", Category: fleet.CategoryEconomy, DailyRateCents: dailyCents})
	require.NoError(t, err)
	require.NoError(t, e.fleetRepo.SaveVehicle(ctx, v))

	units := make([]*fleet.Subunit, 0, len(plates))
	for i, plate := range plates {
		u, err := fleet.NewSubunit(v.ID, plate)
		require.NoError(t, err)
		u.CreatedAt = u.CreatedAt.Add(time.Duration(i) * time.Second)
		require.NoError(t, e.fleetRepo.SaveSubunit(ctx, u))
		units = append(units, u)
	}
	return v, units
}

func (e *env) seedCoupon(t *testing.T, code string, discountType coupon.DiscountType, value int64, limit *int) *coupon.Coupon {
	t.Helper()
	now := time.Now().UTC()
	c, err := coupon.NewCoupon(coupon.Params{
		Code:          code,
		DiscountType:  discountType,
		DiscountValue: value,
		ValidFrom:     now.AddDate(0, 0, -1),
		ValidUntil:    now.AddDate(0, 1, 0),
		UsageLimit:    limit,
	})
	require.NoError(t, err)
	require.NoError(t, e.couponRepo.Save(context.Background(), c))
	return c
}

func (e *env) seedExtra(t *testing.T, name string, cents int64, pt extra.PriceType) *extra.Extra {
	t.Helper()
	x, err := extra.NewExtra(name, cents, pt)
	require.NoError(t, err)
	require.NoError(t, e.extraRepo.Save(context.Background(), x))
	return x
}

func request(v *fleet.Vehicle, fromDay, toDay int) application.CreateBookingRequest {
	return application.CreateBookingRequest{
		VehicleID:  v.ID,
		CustomerID: customer,
		PickupAt:   pickup.AddDate(0, 0, fromDay),
		DropoffAt:  pickup.AddDate(0, 0, toDay),
	}
}

func intPtr(v int) *int { return &v }

func int64Ptr(v int64) *int64 { return &v }
