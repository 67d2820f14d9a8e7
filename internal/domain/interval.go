package domain

import "time"

// Interval is a half-open time range [Start, End).
type Interval struct {
	Start time.Time
	End   time.Time
}

// NewInterval normalizes both ends to UTC at second precision and rejects an
// end before the start. An empty interval (Start == End) is allowed.
func NewInterval(start, end time.Time) (Interval, error) {
	if start.IsZero() || end.IsZero() {
		return Interval{}, NewValidationError("pickup and dropoff are required")
	}
	iv := Interval{
		Start: start.UTC().Truncate(time.Second),
		End:   end.UTC().Truncate(time.Second),
	}
	if iv.End.Before(iv.Start) {
		return Interval{}, NewValidationError("dropoff must not be before pickup")
	}
	return iv, nil
}

// Overlaps reports whether two half-open intervals share any instant.
// A dropoff exactly at the next pickup is not an overlap.
func (iv Interval) Overlaps(other Interval) bool {
	return iv.Start.Before(other.End) && other.Start.Before(iv.End)
}

// Duration returns End - Start.
func (iv Interval) Duration() time.Duration {
	return iv.End.Sub(iv.Start)
}

// IsEmpty reports a zero-length interval.
func (iv Interval) IsEmpty() bool {
	return !iv.End.After(iv.Start)
}

// Days is the number of started 24h periods.
func (iv Interval) Days() int {
	return ceilDiv(iv.Duration(), 24*time.Hour)
}

// Hours is the number of started hours.
func (iv Interval) Hours() int {
	return ceilDiv(iv.Duration(), time.Hour)
}

func ceilDiv(d, unit time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int((d + unit - 1) / unit)
}

// DateOf truncates t to midnight UTC of its calendar day.
func DateOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
