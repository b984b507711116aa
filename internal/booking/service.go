package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"roombooking-backend/internal/clock"
	"roombooking-backend/internal/conflict"
	"roombooking-backend/internal/i18n"
	"roombooking-backend/internal/model"
	"roombooking-backend/internal/store"
)

// Notifier hands a stored notification to the delivery pipeline.
type Notifier interface {
	Dispatch(notificationID int64)
}

type Service struct {
	store       store.Store
	clock       clock.Clock
	checker     conflict.Checker
	notifier    Notifier
	translator  *i18n.Translator
	maxDuration time.Duration
	log         *zap.Logger
}

const defaultMaxDuration = 24 * time.Hour

type Option func(*Service)

// WithPendingBlocks makes PENDING requests hold their slot.
func WithPendingBlocks(on bool) Option {
	return func(s *Service) {
		if on {
			s.checker = conflict.NewChecker(model.StatusPending, model.StatusActive, model.StatusApproved)
		}
	}
}

// WithMaxDuration caps how long a single reservation may be.
func WithMaxDuration(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.maxDuration = d
		}
	}
}

// WithNotifier sets where new notifications are dispatched.
func WithNotifier(n Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

func WithLogger(l *zap.Logger) Option {
	return func(s *Service) { s.log = l }
}

func NewService(st store.Store, clk clock.Clock, opts ...Option) *Service {
	s := &Service{
		store:       st,
		clock:       clk,
		checker:     conflict.NewChecker(),
		translator:  i18n.New(),
		maxDuration: defaultMaxDuration,
		log:         zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CheckInput is a standalone conflict query.
type CheckInput struct {
	RoomID    int64
	Start     time.Time
	End       time.Time
	ExcludeID int64
}

// Check reports which blocking reservations of the room overlap the interval.
// It reads a snapshot and does not reserve anything.
func (s *Service) Check(ctx context.Context, in CheckInput) (conflict.Result, error) {
	iv, err := conflict.NewInterval(in.Start.UTC(), in.End.UTC())
	if err != nil {
		return conflict.Result{}, err
	}
	if _, err := s.store.GetRoom(ctx, in.RoomID); err != nil {
		return conflict.Result{}, err
	}
	return s.check(ctx, s.store, in.RoomID, iv, in.ExcludeID)
}

func (s *Service) check(ctx context.Context, st store.Store, roomID int64, iv conflict.Interval, excludeID int64) (conflict.Result, error) {
	existing, err := st.BlockingReservations(ctx, roomID, s.checker.Blocking(), excludeID)
	if err != nil {
		return conflict.Result{}, err
	}
	return s.checker.Check(conflict.Query{RoomID: roomID, Interval: iv, ExcludeID: excludeID}, existing)
}

// ensureFree fails with a ConflictError when iv collides in the room.
func (s *Service) ensureFree(ctx context.Context, tx store.Store, roomID int64, iv conflict.Interval, excludeID int64) error {
	res, err := s.check(ctx, tx, roomID, iv, excludeID)
	if err != nil {
		return err
	}
	if res.HasConflict {
		return &ConflictError{Result: res}
	}
	return nil
}

func (s *Service) blocks(status model.ReservationStatus) bool {
	for _, b := range s.checker.Blocking() {
		if b == status {
			return true
		}
	}
	return false
}

// validateInterval enforces Start < End and the maximum duration. The start
// is only compared with the clock when newStart is set, so a reservation
// already under way can still be shortened or extended.
func (s *Service) validateInterval(start, end time.Time, newStart bool) (conflict.Interval, error) {
	iv, err := conflict.NewInterval(start.UTC(), end.UTC())
	if err != nil {
		return conflict.Interval{}, err
	}
	if iv.Duration() > s.maxDuration {
		return conflict.Interval{}, fmt.Errorf("%w: %s > %s", ErrTooLong, iv.Duration(), s.maxDuration)
	}
	if newStart && iv.Start.Before(s.clock.Now()) {
		return conflict.Interval{}, ErrInPast
	}
	return iv, nil
}

// CreateInput describes a new reservation.
type CreateInput struct {
	RoomID  int64
	Title   string
	Notes   string
	Start   time.Time
	End     time.Time
	ItemIDs []int64
}

// Create books a room. Rooms that require approval get a PENDING request
// unless a manager books them; everything else is ACTIVE immediately.
func (s *Service) Create(ctx context.Context, actor *model.User, in CreateInput) (*model.Reservation, error) {
	iv, err := s.validateInterval(in.Start, in.End, true)
	if err != nil {
		return nil, err
	}

	var (
		created  *model.Reservation
		toNotify []int64
	)
	err = s.store.WithTx(ctx, func(tx store.Store) error {
		room, err := tx.LockRoom(ctx, in.RoomID)
		if err != nil {
			return err
		}
		if !room.Active {
			return ErrRoomInactive
		}

		items, err := tx.FindItems(ctx, in.ItemIDs)
		if err != nil {
			return err
		}

		status := model.StatusActive
		if room.RequiresApproval && !actor.IsManager() {
			status = model.StatusPending
		}
		if s.blocks(status) {
			if err := s.ensureFree(ctx, tx, room.ID, iv, 0); err != nil {
				return err
			}
		}

		r := &model.Reservation{
			RoomID:  room.ID,
			UserID:  actor.ID,
			Title:   in.Title,
			Notes:   in.Notes,
			StartAt: iv.Start,
			EndAt:   iv.End,
			Status:  status,
			Items:   items,
		}
		if err := tx.CreateReservation(ctx, r); err != nil {
			return err
		}
		r.Room = room

		if status == model.StatusPending {
			toNotify, err = s.notifyManagers(ctx, tx, actor, r)
		} else {
			var id int64
			id, err = s.notifyOwner(ctx, tx, r, actor.Locale, model.KindReservationCreated)
			toNotify = []int64{id}
		}
		if err != nil {
			return err
		}
		created = r
		return nil
	})
	if err != nil {
		return nil, mapOverlap(err)
	}

	s.dispatch(toNotify)
	s.log.Info("reservation created",
		zap.Int64("reservation_id", created.ID),
		zap.Int64("room_id", created.RoomID),
		zap.String("status", string(created.Status)))
	return created, nil
}

// UpdateInput carries the fields to change; nil fields are left alone.
type UpdateInput struct {
	Title   *string
	Notes   *string
	Start   *time.Time
	End     *time.Time
	ItemIDs *[]int64
}

// Update edits a live reservation. Its own interval never conflicts with itself.
func (s *Service) Update(ctx context.Context, actor *model.User, id int64, in UpdateInput) (*model.Reservation, error) {
	var updated *model.Reservation
	err := s.store.WithTx(ctx, func(tx store.Store) error {
		r, err := tx.GetReservation(ctx, id)
		if err != nil {
			return err
		}
		if r.UserID != actor.ID && !actor.IsManager() {
			return ErrForbidden
		}
		if !isLive(r.Status) {
			return fmt.Errorf("%w: cannot edit a %s reservation", ErrInvalidTransition, r.Status)
		}

		if in.Title != nil {
			r.Title = *in.Title
		}
		if in.Notes != nil {
			r.Notes = *in.Notes
		}

		timesChanged := in.Start != nil || in.End != nil
		if in.Start != nil {
			r.StartAt = in.Start.UTC()
		}
		if in.End != nil {
			r.EndAt = in.End.UTC()
		}
		if timesChanged {
			iv, err := s.validateInterval(r.StartAt, r.EndAt, in.Start != nil)
			if err != nil {
				return err
			}
			if s.blocks(r.Status) {
				if _, err := tx.LockRoom(ctx, r.RoomID); err != nil {
					return err
				}
				if err := s.ensureFree(ctx, tx, r.RoomID, iv, r.ID); err != nil {
					return err
				}
			}
		}

		if in.ItemIDs != nil {
			items, err := tx.FindItems(ctx, *in.ItemIDs)
			if err != nil {
				return err
			}
			r.Items = items
		}

		if err := tx.SaveReservation(ctx, r, in.ItemIDs != nil); err != nil {
			return err
		}
		updated = r
		return nil
	})
	if err != nil {
		return nil, mapOverlap(err)
	}
	return updated, nil
}

// Approve moves a PENDING request to APPROVED after re-checking the room.
func (s *Service) Approve(ctx context.Context, actor *model.User, id int64) (*model.Reservation, error) {
	return s.decide(ctx, actor, id, model.StatusApproved)
}

// Reject moves a PENDING request to REJECTED.
func (s *Service) Reject(ctx context.Context, actor *model.User, id int64) (*model.Reservation, error) {
	return s.decide(ctx, actor, id, model.StatusRejected)
}

func (s *Service) decide(ctx context.Context, actor *model.User, id int64, to model.ReservationStatus) (*model.Reservation, error) {
	if !actor.IsManager() {
		return nil, ErrForbidden
	}

	var (
		decided  *model.Reservation
		notifyID int64
	)
	err := s.store.WithTx(ctx, func(tx store.Store) error {
		r, err := tx.GetReservation(ctx, id)
		if err != nil {
			return err
		}
		if r.Status != model.StatusPending {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, r.Status, to)
		}

		if to == model.StatusApproved {
			if _, err := tx.LockRoom(ctx, r.RoomID); err != nil {
				return err
			}
			if err := s.ensureFree(ctx, tx, r.RoomID, conflict.Interval{Start: r.StartAt, End: r.EndAt}, r.ID); err != nil {
				return err
			}
		}

		now := s.clock.Now()
		r.Status = to
		r.DecidedBy = &actor.ID
		r.DecidedAt = &now
		if err := tx.SaveReservation(ctx, r, false); err != nil {
			return err
		}

		kind := model.KindReservationApproved
		if to == model.StatusRejected {
			kind = model.KindReservationRejected
		}
		owner, err := tx.GetUser(ctx, r.UserID)
		if err != nil {
			return err
		}
		if notifyID, err = s.notifyOwner(ctx, tx, r, owner.Locale, kind); err != nil {
			return err
		}
		decided = r
		return nil
	})
	if err != nil {
		return nil, mapOverlap(err)
	}

	s.dispatch([]int64{notifyID})
	s.log.Info("reservation decided",
		zap.Int64("reservation_id", decided.ID),
		zap.Int64("manager_id", actor.ID),
		zap.String("status", string(to)))
	return decided, nil
}

// Cancel withdraws a live reservation. Owners and managers may cancel.
func (s *Service) Cancel(ctx context.Context, actor *model.User, id int64) (*model.Reservation, error) {
	var (
		cancelled *model.Reservation
		toNotify  []int64
	)
	err := s.store.WithTx(ctx, func(tx store.Store) error {
		r, err := tx.GetReservation(ctx, id)
		if err != nil {
			return err
		}
		if r.UserID != actor.ID && !actor.IsManager() {
			return ErrForbidden
		}
		if !isLive(r.Status) {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, r.Status, model.StatusCancelled)
		}

		r.Status = model.StatusCancelled
		if err := tx.SaveReservation(ctx, r, false); err != nil {
			return err
		}

		// The owner hears about it only when someone else cancelled.
		if r.UserID != actor.ID {
			owner, err := tx.GetUser(ctx, r.UserID)
			if err != nil {
				return err
			}
			nid, err := s.notifyOwner(ctx, tx, r, owner.Locale, model.KindReservationCancelled)
			if err != nil {
				return err
			}
			toNotify = append(toNotify, nid)
		}
		cancelled = r
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.dispatch(toNotify)
	return cancelled, nil
}

// Get returns a reservation visible to actor.
func (s *Service) Get(ctx context.Context, actor *model.User, id int64) (*model.Reservation, error) {
	r, err := s.store.GetReservation(ctx, id)
	if err != nil {
		return nil, err
	}
	if r.UserID != actor.ID && !actor.IsManager() {
		return nil, ErrForbidden
	}
	return r, nil
}

// List returns reservations matching f. Non-managers only see their own.
func (s *Service) List(ctx context.Context, actor *model.User, f store.ReservationFilter) ([]model.Reservation, error) {
	if !actor.IsManager() {
		f.UserID = actor.ID
	}
	return s.store.ListReservations(ctx, f)
}

// Schedule returns the reservations currently holding a room within [from, to).
func (s *Service) Schedule(ctx context.Context, roomID int64, from, to time.Time) ([]model.Reservation, error) {
	if _, err := s.store.GetRoom(ctx, roomID); err != nil {
		return nil, err
	}
	return s.store.ListReservations(ctx, store.ReservationFilter{
		RoomID:   roomID,
		Statuses: s.checker.Blocking(),
		From:     from,
		To:       to,
	})
}

func isLive(status model.ReservationStatus) bool {
	switch status {
	case model.StatusPending, model.StatusActive, model.StatusApproved:
		return true
	}
	return false
}

// mapOverlap turns a database exclusion violation into a ConflictError so
// callers see one error regardless of which layer caught the overlap.
func mapOverlap(err error) error {
	if errors.Is(err, store.ErrOverlap) {
		return &ConflictError{Result: conflict.Result{HasConflict: true, Conflicts: []conflict.Summary{}}}
	}
	return err
}

func (s *Service) dispatch(ids []int64) {
	if s.notifier == nil {
		return
	}
	for _, id := range ids {
		s.notifier.Dispatch(id)
	}
}
