package booking

import (
	"errors"
	"testing"
	"time"
)

func mustTime(t *testing.T, s string) time.Time {
	t.Helper()
	ts, err := time.Parse(time.RFC3339, s)
	if err != nil {
		t.Fatalf("parse %q: %v", s, err)
	}
	return ts
}

func TestIntervalValidate(t *testing.T) {
	start := mustTime(t, "2026-03-01T10:00:00Z")

	cases := []struct {
		name    string
		iv      Interval
		wantErr bool
	}{
		{"valid", Interval{Start: start, End: start.Add(time.Hour)}, false},
		{"zero length", Interval{Start: start, End: start}, true},
		{"inverted", Interval{Start: start.Add(time.Hour), End: start}, true},
	}
	for _, tc := range cases {
		err := tc.iv.Validate()
		if tc.wantErr && !errors.Is(err, ErrInvalidInterval) {
			t.Fatalf("%s: want ErrInvalidInterval, got %v", tc.name, err)
		}
		if !tc.wantErr && err != nil {
			t.Fatalf("%s: unexpected error %v", tc.name, err)
		}
	}
}

func TestIntervalOverlaps(t *testing.T) {
	base := mustTime(t, "2026-03-01T10:00:00Z")
	iv := func(startOffset, endOffset time.Duration) Interval {
		return Interval{Start: base.Add(startOffset), End: base.Add(endOffset)}
	}

	a := iv(0, 2*time.Hour)

	cases := []struct {
		name string
		b    Interval
		want bool
	}{
		{"identical", iv(0, 2*time.Hour), true},
		{"contained", iv(30*time.Minute, time.Hour), true},
		{"partial left", iv(-time.Hour, time.Hour), true},
		{"partial right", iv(time.Hour, 3*time.Hour), true},
		{"touching before", iv(-time.Hour, 0), false},
		{"touching after", iv(2*time.Hour, 3*time.Hour), false},
		{"disjoint", iv(5*time.Hour, 6*time.Hour), false},
	}
	for _, tc := range cases {
		if got := a.Overlaps(tc.b); got != tc.want {
			t.Fatalf("%s: Overlaps = %v, want %v", tc.name, got, tc.want)
		}
		// The predicate must be symmetric.
		if got := tc.b.Overlaps(a); got != tc.want {
			t.Fatalf("%s: reversed Overlaps = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestIntervalContains(t *testing.T) {
	start := mustTime(t, "2026-03-01T10:00:00Z")
	iv := Interval{Start: start, End: start.Add(time.Hour)}

	if !iv.Contains(start) {
		t.Fatalf("start must be inclusive")
	}
	if iv.Contains(start.Add(time.Hour)) {
		t.Fatalf("end must be exclusive")
	}
	if !iv.Contains(start.Add(30 * time.Minute)) {
		t.Fatalf("interior instant must be contained")
	}
	if iv.Contains(start.Add(-time.Second)) {
		t.Fatalf("instant before start must not be contained")
	}
}

func TestNewIntervalNormalizes(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*60*60)
	start := time.Date(2026, 3, 1, 13, 0, 0, 123456789, loc)
	end := time.Date(2026, 3, 1, 15, 0, 0, 999999999, loc)

	iv := NewInterval(start, end)
	if iv.Start.Location() != time.UTC || iv.End.Location() != time.UTC {
		t.Fatalf("interval must be normalized to UTC")
	}
	if iv.Start.Nanosecond() != 0 || iv.End.Nanosecond() != 0 {
		t.Fatalf("interval must be truncated to second precision")
	}
	if want := mustTime(t, "2026-03-01T10:00:00Z"); !iv.Start.Equal(want) {
		t.Fatalf("start = %v, want %v", iv.Start, want)
	}
	if got, want := iv.Duration(), 2*time.Hour; got != want {
		t.Fatalf("duration = %v, want %v", got, want)
	}
}
