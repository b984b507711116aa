package conflict

import (
	"fmt"
	"time"

	"roombooking-backend/internal/model"
)

// DefaultBlocking lists the statuses that hold a room.
var DefaultBlocking = []model.ReservationStatus{model.StatusActive, model.StatusApproved}

// Query describes a candidate booking.
type Query struct {
	RoomID   int64
	Interval Interval
	// ExcludeID skips the reservation being edited. Zero means none.
	ExcludeID int64
}

// Summary identifies a reservation that blocks a request.
type Summary struct {
	ID     int64                   `json:"id"`
	RoomID int64                   `json:"roomId"`
	Start  time.Time               `json:"start"`
	End    time.Time               `json:"end"`
	Status model.ReservationStatus `json:"status"`
}

// Result is the outcome of a conflict check.
type Result struct {
	HasConflict   bool      `json:"hasConflict"`
	Conflicts     []Summary `json:"conflicts"`
	ConflictCount int       `json:"conflictCount"`
}

// Checker filters a reservation snapshot down to the ones that can block and
// runs the overlap predicate against them. The zero value uses DefaultBlocking.
type Checker struct {
	blocking map[model.ReservationStatus]bool
}

// NewChecker returns a checker that treats the given statuses as blocking.
func NewChecker(blocking ...model.ReservationStatus) Checker {
	if len(blocking) == 0 {
		blocking = DefaultBlocking
	}
	set := make(map[model.ReservationStatus]bool, len(blocking))
	for _, s := range blocking {
		set[s] = true
	}
	return Checker{blocking: set}
}

// Blocking returns the statuses this checker considers.
func (c Checker) Blocking() []model.ReservationStatus {
	if c.blocking == nil {
		return DefaultBlocking
	}
	out := make([]model.ReservationStatus, 0, len(c.blocking))
	// Keep a stable order for query building.
	for _, s := range []model.ReservationStatus{
		model.StatusPending, model.StatusActive, model.StatusApproved,
		model.StatusRejected, model.StatusCancelled,
	} {
		if c.blocking[s] {
			out = append(out, s)
		}
	}
	return out
}

func (c Checker) blocks(s model.ReservationStatus) bool {
	if c.blocking == nil {
		return s == model.StatusActive || s == model.StatusApproved
	}
	return c.blocking[s]
}

// Check evaluates q against existing. Reservations for other rooms, with a
// non-blocking status, or matching q.ExcludeID are ignored.
func (c Checker) Check(q Query, existing []model.Reservation) (Result, error) {
	if err := q.Interval.Validate(); err != nil {
		return Result{}, err
	}

	result := Result{Conflicts: []Summary{}}
	for _, r := range existing {
		if r.RoomID != q.RoomID || !c.blocks(r.Status) {
			continue
		}
		if q.ExcludeID != 0 && r.ID == q.ExcludeID {
			continue
		}
		iv := Interval{Start: r.StartAt, End: r.EndAt}
		if err := iv.Validate(); err != nil {
			return Result{}, fmt.Errorf("reservation %d: %w", r.ID, err)
		}
		if Overlaps(q.Interval, iv) {
			result.Conflicts = append(result.Conflicts, Summary{
				ID:     r.ID,
				RoomID: r.RoomID,
				Start:  r.StartAt,
				End:    r.EndAt,
				Status: r.Status,
			})
		}
	}
	result.ConflictCount = len(result.Conflicts)
	result.HasConflict = result.ConflictCount > 0
	return result, nil
}
