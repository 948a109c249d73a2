package booking

import "time"

// Interval is a half-open time window [Start, End) in UTC. End is
// exclusive, so two windows that merely touch at a boundary do not
// overlap and a resource can be handed over back-to-back.
type Interval struct {
	Start time.Time
	End   time.Time
}

// NewInterval normalizes both instants to UTC at second precision,
// matching the DATETIME resolution of the backing store.
func NewInterval(start, end time.Time) Interval {
	return Interval{
		Start: start.UTC().Truncate(time.Second),
		End:   end.UTC().Truncate(time.Second),
	}
}

// Validate reports whether the interval is well formed. A zero-length
// or inverted window is rejected with ErrInvalidInterval.
func (iv Interval) Validate() error {
	if !iv.Start.Before(iv.End) {
		return ErrInvalidInterval
	}
	return nil
}

// Overlaps reports whether two half-open intervals share at least one
// instant: a.Start < b.End && a.End > b.Start. The predicate is
// symmetric and an interval always overlaps itself.
func (iv Interval) Overlaps(other Interval) bool {
	return iv.Start.Before(other.End) && iv.End.After(other.Start)
}

// Contains reports whether t falls inside the window (Start inclusive,
// End exclusive).
func (iv Interval) Contains(t time.Time) bool {
	return !t.Before(iv.Start) && t.Before(iv.End)
}

// Duration returns the window length.
func (iv Interval) Duration() time.Duration {
	return iv.End.Sub(iv.Start)
}
