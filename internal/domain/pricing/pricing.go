package pricing

import (
	"context"
	"fmt"
	"math/big"
	"sort"
	"strconv"
	"time"

	"github.com/cetler74/dbcars-sub000/internal/domain"
	"github.com/google/uuid"
)

// Rates are the base tariffs of a vehicle. Only the daily rate is mandatory.
type Rates struct {
	DailyCents   int64
	WeeklyCents  *int64
	MonthlyCents *int64
	HourlyCents  *int64
}

// Rule is a seasonal override of a vehicle's tariff, optionally per location.
// StartDate and EndDate are calendar days, both inclusive.
type Rule struct {
	ID          uuid.UUID
	VehicleID   uuid.UUID
	LocationID  *uuid.UUID
	StartDate   time.Time
	EndDate     time.Time
	DailyCents  *int64
	WeeklyCents *int64
	Multiplier  *float64
	CreatedAt   time.Time
}

// RuleParams holds the inputs for NewRule.
type RuleParams struct {
	VehicleID   uuid.UUID
	LocationID  *uuid.UUID
	StartDate   time.Time
	EndDate     time.Time
	DailyCents  *int64
	WeeklyCents *int64
	Multiplier  *float64
}

// NewRule validates p and truncates the dates to UTC midnight.
func NewRule(p RuleParams) (*Rule, error) {
	start, end := domain.DateOf(p.StartDate), domain.DateOf(p.EndDate)
	if end.Before(start) {
		return nil, domain.NewValidationError("end_date must not be before start_date")
	}
	if p.DailyCents == nil && p.WeeklyCents == nil && p.Multiplier == nil {
		return nil, domain.NewValidationError("rule needs a daily rate, a weekly rate or a multiplier")
	}
	if p.DailyCents != nil && *p.DailyCents <= 0 {
		return nil, domain.NewValidationError("daily rate must be positive")
	}
	if p.WeeklyCents != nil && *p.WeeklyCents <= 0 {
		return nil, domain.NewValidationError("weekly rate must be positive")
	}
	if p.Multiplier != nil && *p.Multiplier <= 0 {
		return nil, domain.NewValidationError("multiplier must be positive")
	}
	return &Rule{
		ID:          uuid.New(),
		VehicleID:   p.VehicleID,
		LocationID:  p.LocationID,
		StartDate:   start,
		EndDate:     end,
		DailyCents:  p.DailyCents,
		WeeklyCents: p.WeeklyCents,
		Multiplier:  p.Multiplier,
		CreatedAt:   time.Now().UTC(),
	}, nil
}

// Applies reports whether the rule covers both the pickup and dropoff dates
// of iv and matches the location.
func (r *Rule) Applies(iv domain.Interval, locationID *uuid.UUID) bool {
	if r.LocationID != nil && (locationID == nil || *r.LocationID != *locationID) {
		return false
	}
	pickup, dropoff := domain.DateOf(iv.Start), domain.DateOf(iv.End)
	return !pickup.Before(r.StartDate) && !dropoff.After(r.EndDate)
}

// SelectRule picks the rule to apply, or nil. Location-specific rules beat
// location-agnostic ones, then the most recently created wins, then the
// greatest id.
func SelectRule(rules []*Rule, iv domain.Interval, locationID *uuid.UUID) *Rule {
	candidates := make([]*Rule, 0, len(rules))
	for _, r := range rules {
		if r.Applies(iv, locationID) {
			candidates = append(candidates, r)
		}
	}
	if len(candidates) == 0 {
		return nil
	}
	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if (a.LocationID != nil) != (b.LocationID != nil) {
			return a.LocationID != nil
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID.String() > b.ID.String()
	})
	return candidates[0]
}

// BasePrice computes the rental price of iv in cents. rule may be nil.
func BasePrice(rates Rates, rule *Rule, iv domain.Interval) int64 {
	if iv.IsEmpty() {
		return 0
	}
	days := iv.Days()

	if rule != nil {
		daily := new(big.Rat).SetInt64(rates.DailyCents)
		switch {
		case rule.DailyCents != nil:
			daily.SetInt64(*rule.DailyCents)
		case rule.Multiplier != nil:
			daily.Mul(daily, MultiplierRat(*rule.Multiplier))
		}
		total := new(big.Rat)
		if rule.WeeklyCents != nil && days >= 7 {
			weekly := *rule.WeeklyCents
			total.SetInt64(int64(days/7) * weekly)
			days %= 7
		}
		total.Add(total, new(big.Rat).Mul(big.NewRat(int64(days), 1), daily))
		return RoundCents(total)
	}

	switch {
	case rates.MonthlyCents != nil && days >= 30:
		monthly := *rates.MonthlyCents
		return int64(days/30)*monthly + int64(days%30)*rates.DailyCents
	case rates.WeeklyCents != nil && days >= 7:
		weekly := *rates.WeeklyCents
		return int64(days/7)*weekly + int64(days%7)*rates.DailyCents
	case rates.HourlyCents != nil && iv.Duration() < 24*time.Hour:
		hourly := *rates.HourlyCents
		return int64(iv.Hours()) * hourly
	default:
		return int64(days) * rates.DailyCents
	}
}

// MultiplierRat converts a multiplier to the exact decimal it was written
// as, so 1.13 is 113/100 rather than its nearest binary float.
func MultiplierRat(m float64) *big.Rat {
	r, ok := new(big.Rat).SetString(strconv.FormatFloat(m, 'f', -1, 64))
	if !ok {
		return new(big.Rat).SetFloat64(m)
	}
	return r
}

// RoundCents rounds a non-negative fractional cent amount half-up.
func RoundCents(amount *big.Rat) int64 {
	num := new(big.Int).Mul(amount.Num(), big.NewInt(2))
	num.Add(num, amount.Denom())
	den := new(big.Int).Mul(amount.Denom(), big.NewInt(2))
	return new(big.Int).Quo(num, den).Int64()
}

// FormatCents renders cents as a decimal string with two places, e.g. "300.00".
func FormatCents(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}

// Repository defines persistence operations for pricing rules.
type Repository interface {
	Save(ctx context.Context, r *Rule) error
	// ListForVehicle returns the vehicle's rules whose date range contains
	// both calendar days from and to.
	ListForVehicle(ctx context.Context, vehicleID uuid.UUID, from, to time.Time) ([]*Rule, error)
}
