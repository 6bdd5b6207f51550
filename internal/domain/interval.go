package domain

import "time"

// Interval is a half-open time range [Start, End).
type Interval struct {
	Start time.Time
	End   time.Time
}

// Valid reports whether the interval has positive duration.
func (iv Interval) Valid() bool {
	return iv.Start.Before(iv.End)
}

// Overlaps reports whether two half-open intervals share any instant.
// Abutting intervals ([a,b) and [b,c)) do not overlap.
func (iv Interval) Overlaps(other Interval) bool {
	return iv.Start.Before(other.End) && other.Start.Before(iv.End)
}
