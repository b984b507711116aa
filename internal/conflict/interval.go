// Package conflict decides whether a requested reservation interval collides
// with reservations already holding the same room.
//
// Intervals are half-open, [Start, End). A booking that ends exactly when
// another starts does not conflict with it.
package conflict

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidInterval is returned when an interval does not start strictly before it ends.
var ErrInvalidInterval = errors.New("invalid interval")

// Interval is a half-open time range [Start, End).
type Interval struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// NewInterval builds a validated interval.
func NewInterval(start, end time.Time) (Interval, error) {
	iv := Interval{Start: start, End: end}
	if err := iv.Validate(); err != nil {
		return Interval{}, err
	}
	return iv, nil
}

// Validate returns ErrInvalidInterval unless Start < End.
func (iv Interval) Validate() error {
	if !iv.Start.Before(iv.End) {
		return fmt.Errorf("%w: start %s is not before end %s",
			ErrInvalidInterval, iv.Start.Format(time.RFC3339), iv.End.Format(time.RFC3339))
	}
	return nil
}

// Duration returns End - Start.
func (iv Interval) Duration() time.Duration {
	return iv.End.Sub(iv.Start)
}

// Overlaps reports whether a and b share any instant.
func Overlaps(a, b Interval) bool {
	return a.Start.Before(b.End) && a.End.After(b.Start)
}

// HasConflict reports whether candidate overlaps any of existing.
func HasConflict(candidate Interval, existing []Interval) (bool, error) {
	conflicts, err := FindConflicts(candidate, existing)
	if err != nil {
		return false, err
	}
	return len(conflicts) > 0, nil
}

// FindConflicts returns every interval in existing that overlaps candidate, in input order.
// All intervals are validated before any comparison is made.
func FindConflicts(candidate Interval, existing []Interval) ([]Interval, error) {
	if err := candidate.Validate(); err != nil {
		return nil, err
	}
	for i, iv := range existing {
		if err := iv.Validate(); err != nil {
			return nil, fmt.Errorf("existing interval %d: %w", i, err)
		}
	}

	var out []Interval
	for _, iv := range existing {
		if Overlaps(candidate, iv) {
			out = append(out, iv)
		}
	}
	return out, nil
}
