package application_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cetler74/dbcars-sub000/internal/application"
	"github.com/cetler74/dbcars-sub000/internal/domain"
	"github.com/cetler74/dbcars-sub000/internal/domain/coupon"
	"github.com/cetler74/dbcars-sub000/internal/domain/extra"
	"github.com/cetler74/dbcars-sub000/internal/domain/fleet"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuote(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t, nil)

	weekly := int64(60000)
	vehicle, err := e.fleet.CreateVehicle(ctx, application.CreateVehicleRequest{
		Make: "Peugeot", Model: "208", Category: string(fleet.CategoryCompact),
		DailyRateCents: 10000, WeeklyRateCents: &weekly,
	})
	require.NoError(t, err)

	t.Run("three days at the daily rate", func(t *testing.T) {
		q, err := e.pricing.Quote(ctx, application.QuoteRequest{
			VehicleID: vehicle.ID, PickupAt: pickup, DropoffAt: pickup.AddDate(0, 0, 3),
		})
		require.NoError(t, err)
		assert.Equal(t, 3, q.Days)
		assert.Equal(t, "300.00", q.BasePrice)
		assert.Equal(t, "300.00", q.Total)
		assert.Nil(t, q.PricingRuleID)
	})

	t.Run("nine days use the weekly tier", func(t *testing.T) {
		q, err := e.pricing.Quote(ctx, application.QuoteRequest{
			VehicleID: vehicle.ID, PickupAt: pickup, DropoffAt: pickup.AddDate(0, 0, 9),
		})
		require.NoError(t, err)
		assert.Equal(t, "800.00", q.BasePrice)
	})

	t.Run("extras and fixed coupon capped at subtotal", func(t *testing.T) {
		gps := e.seedExtra(t, "GPS", 2000, extra.PerRental)
		e.seedCoupon(t, "BIGFIX", coupon.DiscountTypeFixed, 50000, nil)

		q, err := e.pricing.Quote(ctx, application.QuoteRequest{
			VehicleID: vehicle.ID, PickupAt: pickup, DropoffAt: pickup.AddDate(0, 0, 2),
			Extras:     []application.ExtraRequest{{ExtraID: gps.ID, Quantity: 1}},
			CouponCode: "bigfix",
		})
		require.NoError(t, err)
		assert.Equal(t, int64(20000), q.BaseCents)
		assert.Equal(t, int64(2000), q.ExtrasCents)
		assert.Equal(t, int64(22000), q.DiscountCents)
		assert.Equal(t, int64(0), q.TotalCents)
		assert.Equal(t, "BIGFIX", q.CouponCode)
	})

	t.Run("seasonal rule overrides the tariff", func(t *testing.T) {
		mult := 1.5
		rule, err := e.fleet.CreatePricingRule(ctx, application.CreatePricingRuleRequest{
			VehicleID:  vehicle.ID,
			StartDate:  pickup.AddDate(0, 1, 0).Format(time.DateOnly),
			EndDate:    pickup.AddDate(0, 2, 0).Format(time.DateOnly),
			Multiplier: &mult,
		})
		require.NoError(t, err)

		start := pickup.AddDate(0, 1, 1)
		q, err := e.pricing.Quote(ctx, application.QuoteRequest{
			VehicleID: vehicle.ID, PickupAt: start, DropoffAt: start.AddDate(0, 0, 2),
		})
		require.NoError(t, err)
		assert.Equal(t, "300.00", q.BasePrice)
		require.NotNil(t, q.PricingRuleID)
		assert.Equal(t, rule.ID, *q.PricingRuleID)

		base, err := e.pricing.ComputeBasePrice(ctx, vehicle.ID, mustInterval(t, start, start.AddDate(0, 0, 2)), nil)
		require.NoError(t, err)
		assert.Equal(t, int64(30000), base)
	})

	t.Run("zero length interval prices to zero", func(t *testing.T) {
		base, err := e.pricing.ComputeBasePrice(ctx, vehicle.ID, mustInterval(t, pickup, pickup), nil)
		require.NoError(t, err)
		assert.Zero(t, base)
	})

	t.Run("errors", func(t *testing.T) {
		_, err := e.pricing.ComputeBasePrice(ctx, uuid.New(), mustInterval(t, pickup, pickup.AddDate(0, 0, 1)), nil)
		assert.True(t, errors.Is(err, domain.ErrNotFound))

		_, err = e.pricing.Quote(ctx, application.QuoteRequest{
			VehicleID: vehicle.ID, PickupAt: pickup, DropoffAt: pickup.AddDate(0, 0, 2),
			Extras: []application.ExtraRequest{{ExtraID: uuid.New(), Quantity: 1}},
		})
		assert.True(t, errors.Is(err, domain.ErrValidation))

		_, err = e.pricing.Quote(ctx, application.QuoteRequest{
			VehicleID: vehicle.ID, PickupAt: pickup, DropoffAt: pickup.AddDate(0, 0, 2),
			CouponCode: "missing",
		})
		assert.True(t, errors.Is(err, domain.ErrValidation))
	})
}

func TestCouponService(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t, nil)
	today := time.Now().UTC()

	created, err := e.coupons.CreateCoupon(ctx, application.CreateCouponRequest{
		Code:              "summer10",
		DiscountType:      string(coupon.DiscountTypePercentage),
		DiscountValue:     10,
		ValidFrom:         today.AddDate(0, 0, -1).Format(time.DateOnly),
		ValidUntil:        today.AddDate(0, 0, 30).Format(time.DateOnly),
		MinimumRentalDays: intPtr(3),
	})
	require.NoError(t, err)
	assert.Equal(t, "SUMMER10", created.Code)

	t.Run("valid", func(t *testing.T) {
		res, err := e.coupons.ValidateCoupon(ctx, application.ValidateCouponRequest{Code: "Summer10", SubtotalCents: 25000, RentalDays: 3})
		require.NoError(t, err)
		assert.True(t, res.Valid)
		assert.Equal(t, int64(2500), res.DiscountCents)
	})

	t.Run("minimum days reported as reason", func(t *testing.T) {
		res, err := e.coupons.ValidateCoupon(ctx, application.ValidateCouponRequest{Code: "SUMMER10", SubtotalCents: 25000, RentalDays: 2})
		require.NoError(t, err)
		assert.False(t, res.Valid)
		assert.Contains(t, res.Message, "minimum rental")
	})

	t.Run("unknown code", func(t *testing.T) {
		res, err := e.coupons.ValidateCoupon(ctx, application.ValidateCouponRequest{Code: "ghost"})
		require.NoError(t, err)
		assert.False(t, res.Valid)
		assert.Equal(t, "GHOST", res.Code)
	})

	t.Run("bad input", func(t *testing.T) {
		_, err := e.coupons.CreateCoupon(ctx, application.CreateCouponRequest{
			Code: "X", DiscountType: "bogus", DiscountValue: 1, ValidFrom: "2030-01-01", ValidUntil: "2030-01-02",
		})
		assert.True(t, errors.Is(err, domain.ErrValidation))

		_, err = e.coupons.CreateCoupon(ctx, application.CreateCouponRequest{
			Code: "X", DiscountType: "fixed_amount", DiscountValue: 1, ValidFrom: "tomorrow", ValidUntil: "2030-01-02",
		})
		assert.True(t, errors.Is(err, domain.ErrValidation))
	})

	t.Run("deactivate", func(t *testing.T) {
		dto, err := e.coupons.DeactivateCoupon(ctx, created.ID)
		require.NoError(t, err)
		assert.False(t, dto.IsActive)

		active, err := e.coupons.ListCoupons(ctx, true)
		require.NoError(t, err)
		assert.Empty(t, active)

		res, err := e.coupons.ValidateCoupon(ctx, application.ValidateCouponRequest{Code: "SUMMER10", SubtotalCents: 25000, RentalDays: 3})
		require.NoError(t, err)
		assert.False(t, res.Valid)
	})
}

func mustInterval(t *testing.T, start, end time.Time) domain.Interval {
	t.Helper()
	iv, err := domain.NewInterval(start, end)
	require.NoError(t, err)
	return iv
}
