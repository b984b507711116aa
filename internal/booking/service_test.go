package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"roombooking-backend/config"
	"roombooking-backend/internal/clock"
	"roombooking-backend/internal/conflict"
	"roombooking-backend/internal/db"
	"roombooking-backend/internal/model"
	"roombooking-backend/internal/store"
)

type recordingNotifier struct {
	mu  sync.Mutex
	ids []int64
}

func (n *recordingNotifier) Dispatch(id int64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.ids = append(n.ids, id)
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.ids)
}

type fixture struct {
	svc      *Service
	store    store.Store
	clock    *clock.Manual
	notifier *recordingNotifier
	user     *model.User
	other    *model.User
	manager  *model.User
	open     *model.Room
	guarded  *model.Room
}

var day = time.Date(2025, 9, 18, 0, 0, 0, 0, time.UTC)

func at(h, m int) time.Time {
	return day.Add(time.Duration(h)*time.Hour + time.Duration(m)*time.Minute)
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	gormDB, err := db.Init(&config.DatabaseConfig{
		Driver:       "sqlite",
		DSN:          "file:" + name + "?mode=memory&cache=shared",
		MaxOpenConns: 1,
	}, zap.NewNop())
	require.NoError(t, err)
	sqlDB, err := gormDB.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	st := store.NewGormStore(gormDB)
	ctx := context.Background()
	f := &fixture{
		store:    st,
		clock:    clock.NewManual(day.Add(-12 * time.Hour)),
		notifier: &recordingNotifier{},
		user:     &model.User{Email: "ana@example.com", Name: "Ana", PasswordHash: []byte("x"), Role: model.RoleUser, Active: true},
		other:    &model.User{Email: "bo@example.com", Name: "Bo", PasswordHash: []byte("x"), Role: model.RoleUser, Active: true, Locale: "es"},
		manager:  &model.User{Email: "mia@example.com", Name: "Mia", PasswordHash: []byte("x"), Role: model.RoleManager, Active: true},
		open:     &model.Room{Name: "Lab 1", Active: true},
		guarded:  &model.Room{Name: "Auditorium", Active: true, RequiresApproval: true},
	}
	for _, u := range []*model.User{f.user, f.other, f.manager} {
		require.NoError(t, st.CreateUser(ctx, u))
	}
	require.NoError(t, st.CreateRoom(ctx, f.open))
	require.NoError(t, st.CreateRoom(ctx, f.guarded))

	opts = append([]Option{WithNotifier(f.notifier)}, opts...)
	f.svc = NewService(st, f.clock, opts...)
	return f
}

func (f *fixture) book(t *testing.T, actor *model.User, room *model.Room, start, end time.Time) *model.Reservation {
	t.Helper()
	r, err := f.svc.Create(context.Background(), actor, CreateInput{RoomID: room.ID, Title: "Meeting", Start: start, End: end})
	require.NoError(t, err)
	return r
}

func TestService_CreateActiveAndConflict(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first := f.book(t, f.user, f.open, at(0, 0), at(1, 0))
	assert.Equal(t, model.StatusActive, first.Status)
	assert.Equal(t, 1, f.notifier.count())

	notes, err := f.store.ListNotifications(ctx, f.user.ID, true)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, model.KindReservationCreated, notes[0].Kind)
	assert.Equal(t, "Reservation confirmed", notes[0].Title)
	assert.Contains(t, notes[0].Body, "Lab 1")

	_, err = f.svc.Create(ctx, f.other, CreateInput{RoomID: f.open.ID, Start: at(0, 30), End: at(1, 30)})
	require.ErrorIs(t, err, ErrConflict)
	var ce *ConflictError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, 1, ce.Result.ConflictCount)
	assert.Equal(t, first.ID, ce.Result.Conflicts[0].ID)

	// Back-to-back on both sides is fine.
	f.book(t, f.other, f.open, at(1, 0), at(2, 0))
	f.book(t, f.other, f.open, day.Add(-time.Hour), at(0, 0))

	// The same slot in another room is fine.
	f.book(t, f.manager, f.guarded, at(0, 0), at(1, 0))
}

func TestService_CreateValidation(t *testing.T) {
	f := newFixture(t, WithMaxDuration(4*time.Hour))
	ctx := context.Background()

	_, err := f.svc.Create(ctx, f.user, CreateInput{RoomID: f.open.ID, Start: at(2, 0), End: at(1, 0)})
	assert.ErrorIs(t, err, conflict.ErrInvalidInterval)

	_, err = f.svc.Create(ctx, f.user, CreateInput{RoomID: f.open.ID, Start: at(1, 0), End: at(1, 0)})
	assert.ErrorIs(t, err, conflict.ErrInvalidInterval)

	_, err = f.svc.Create(ctx, f.user, CreateInput{RoomID: f.open.ID, Start: at(0, 0), End: at(5, 0)})
	assert.ErrorIs(t, err, ErrTooLong)

	_, err = f.svc.Create(ctx, f.user, CreateInput{RoomID: f.open.ID, Start: day.Add(-24 * time.Hour), End: day.Add(-23 * time.Hour)})
	assert.ErrorIs(t, err, ErrInPast)

	_, err = f.svc.Create(ctx, f.user, CreateInput{RoomID: 999, Start: at(0, 0), End: at(1, 0)})
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = f.svc.Create(ctx, f.user, CreateInput{RoomID: f.open.ID, Start: at(0, 0), End: at(1, 0), ItemIDs: []int64{404}})
	assert.ErrorIs(t, err, store.ErrNotFound)

	f.open.Active = false
	require.NoError(t, f.store.UpdateRoom(ctx, f.open))
	_, err = f.svc.Create(ctx, f.user, CreateInput{RoomID: f.open.ID, Start: at(0, 0), End: at(1, 0)})
	assert.ErrorIs(t, err, ErrRoomInactive)

	assert.Zero(t, f.notifier.count())
}

func TestService_CreateWithItems(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	projector := &model.Item{RoomID: &f.open.ID, Name: "Projector", Quantity: 1}
	require.NoError(t, f.store.CreateItem(ctx, projector))

	r, err := f.svc.Create(ctx, f.user, CreateInput{RoomID: f.open.ID, Start: at(9, 0), End: at(10, 0), ItemIDs: []int64{projector.ID}})
	require.NoError(t, err)

	got, err := f.svc.Get(ctx, f.user, r.ID)
	require.NoError(t, err)
	require.Len(t, got.Items, 1)
	assert.Equal(t, "Projector", got.Items[0].Name)
}

func TestService_ApprovalFlow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a := f.book(t, f.user, f.guarded, at(9, 0), at(10, 0))
	assert.Equal(t, model.StatusPending, a.Status)

	// Pending requests do not hold the slot by default.
	b := f.book(t, f.other, f.guarded, at(9, 30), at(10, 30))
	assert.Equal(t, model.StatusPending, b.Status)

	requests, err := f.store.ListNotifications(ctx, f.manager.ID, true)
	require.NoError(t, err)
	require.Len(t, requests, 2)
	// Newest first.
	assert.Equal(t, model.KindReservationRequested, requests[1].Kind)
	assert.Contains(t, requests[1].Body, "Ana")
	assert.Contains(t, requests[0].Body, "Bo")

	_, err = f.svc.Approve(ctx, f.user, a.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	approved, err := f.svc.Approve(ctx, f.manager, a.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusApproved, approved.Status)
	require.NotNil(t, approved.DecidedBy)
	assert.Equal(t, f.manager.ID, *approved.DecidedBy)
	require.NotNil(t, approved.DecidedAt)
	assert.True(t, approved.DecidedAt.Equal(f.clock.Now()))

	_, err = f.svc.Approve(ctx, f.manager, b.ID)
	assert.ErrorIs(t, err, ErrConflict)

	_, err = f.svc.Approve(ctx, f.manager, a.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	rejected, err := f.svc.Reject(ctx, f.manager, b.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusRejected, rejected.Status)

	// Bo reads Spanish.
	mine, err := f.store.ListNotifications(ctx, f.other.ID, true)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, model.KindReservationRejected, mine[0].Kind)
	assert.Equal(t, "Reserva rechazada", mine[0].Title)
}

func TestService_PendingBlocksWhenConfigured(t *testing.T) {
	f := newFixture(t, WithPendingBlocks(true))
	ctx := context.Background()

	f.book(t, f.user, f.guarded, at(9, 0), at(10, 0))
	_, err := f.svc.Create(ctx, f.other, CreateInput{RoomID: f.guarded.ID, Start: at(9, 30), End: at(10, 30)})
	assert.ErrorIs(t, err, ErrConflict)
}

func TestService_Update(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	r := f.book(t, f.user, f.open, at(9, 0), at(10, 0))
	f.book(t, f.other, f.open, at(11, 0), at(12, 0))

	// Shifting onto its own old slot never conflicts with itself.
	start, end := at(9, 30), at(10, 30)
	title := "Planning"
	updated, err := f.svc.Update(ctx, f.user, r.ID, UpdateInput{Title: &title, Start: &start, End: &end})
	require.NoError(t, err)
	assert.Equal(t, "Planning", updated.Title)
	assert.True(t, updated.StartAt.Equal(start))

	end = at(11, 30)
	_, err = f.svc.Update(ctx, f.user, r.ID, UpdateInput{End: &end})
	assert.ErrorIs(t, err, ErrConflict)

	_, err = f.svc.Update(ctx, f.other, r.ID, UpdateInput{Title: &title})
	assert.ErrorIs(t, err, ErrForbidden)

	// Managers may edit anyone's reservation.
	notes := "moved by facilities"
	_, err = f.svc.Update(ctx, f.manager, r.ID, UpdateInput{Notes: &notes})
	require.NoError(t, err)

	_, err = f.svc.Cancel(ctx, f.user, r.ID)
	require.NoError(t, err)
	_, err = f.svc.Update(ctx, f.user, r.ID, UpdateInput{Title: &title})
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestService_UpdateOngoingReservation(t *testing.T) {
	f := newFixture(t, WithMaxDuration(4*time.Hour))
	ctx := context.Background()

	r := f.book(t, f.user, f.open, at(9, 0), at(10, 0))
	f.clock.Set(at(9, 30))

	// Only the end moves, so the start already being past is fine.
	end := at(10, 30)
	updated, err := f.svc.Update(ctx, f.user, r.ID, UpdateInput{End: &end})
	require.NoError(t, err)
	assert.True(t, updated.StartAt.Equal(at(9, 0)))
	assert.True(t, updated.EndAt.Equal(end))

	// Finishing early frees the rest of the slot.
	end = at(9, 45)
	_, err = f.svc.Update(ctx, f.user, r.ID, UpdateInput{End: &end})
	require.NoError(t, err)
	f.book(t, f.other, f.open, at(9, 45), at(10, 30))

	title := "Stand-up"
	_, err = f.svc.Update(ctx, f.user, r.ID, UpdateInput{Title: &title})
	require.NoError(t, err)

	// A new start is still checked against the clock.
	start := at(9, 15)
	_, err = f.svc.Update(ctx, f.user, r.ID, UpdateInput{Start: &start})
	assert.ErrorIs(t, err, ErrInPast)

	end = at(14, 0)
	_, err = f.svc.Update(ctx, f.user, r.ID, UpdateInput{End: &end})
	assert.ErrorIs(t, err, ErrTooLong)

	end = at(8, 30)
	_, err = f.svc.Update(ctx, f.user, r.ID, UpdateInput{End: &end})
	assert.ErrorIs(t, err, conflict.ErrInvalidInterval)
}

// overlapStore behaves like a database whose exclusion constraint fires
// after the in-transaction check has passed.
type overlapStore struct {
	store.Store
}

func (s overlapStore) WithTx(ctx context.Context, fn func(tx store.Store) error) error {
	return s.Store.WithTx(ctx, func(tx store.Store) error {
		return fn(overlapStore{Store: tx})
	})
}

func (overlapStore) CreateReservation(context.Context, *model.Reservation) error {
	return fmt.Errorf("failed to create reservation: %w", store.ErrOverlap)
}

func (overlapStore) SaveReservation(context.Context, *model.Reservation, bool) error {
	return fmt.Errorf("failed to save reservation: %w", store.ErrOverlap)
}

func TestService_DatabaseOverlapBecomesConflict(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	r := f.book(t, f.user, f.open, at(9, 0), at(10, 0))
	sent := f.notifier.count()

	svc := NewService(overlapStore{Store: f.store}, f.clock, WithNotifier(f.notifier))

	_, err := svc.Create(ctx, f.other, CreateInput{RoomID: f.open.ID, Start: at(11, 0), End: at(12, 0)})
	require.ErrorIs(t, err, ErrConflict)
	var ce *ConflictError
	require.True(t, errors.As(err, &ce))
	assert.True(t, ce.Result.HasConflict)
	assert.NotNil(t, ce.Result.Conflicts)
	assert.Empty(t, ce.Result.Conflicts)
	assert.Zero(t, ce.Result.ConflictCount)

	end := at(10, 30)
	_, err = svc.Update(ctx, f.user, r.ID, UpdateInput{End: &end})
	assert.ErrorIs(t, err, ErrConflict)

	// Nothing was written and nobody was told.
	assert.Equal(t, sent, f.notifier.count())
	list, err := f.svc.List(ctx, f.manager, store.ReservationFilter{RoomID: f.open.ID})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.True(t, list[0].EndAt.Equal(at(10, 0)))
}

func TestService_Cancel(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	r := f.book(t, f.user, f.open, at(9, 0), at(10, 0))
	sent := f.notifier.count()

	_, err := f.svc.Cancel(ctx, f.other, r.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	cancelled, err := f.svc.Cancel(ctx, f.manager, r.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCancelled, cancelled.Status)
	assert.Equal(t, sent+1, f.notifier.count())

	_, err = f.svc.Cancel(ctx, f.user, r.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	// The slot is free again.
	f.book(t, f.other, f.open, at(9, 0), at(10, 0))
}

func TestService_CheckAndSchedule(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	r := f.book(t, f.user, f.open, at(0, 0), at(1, 0))

	res, err := f.svc.Check(ctx, CheckInput{RoomID: f.open.ID, Start: at(0, 15), End: at(0, 45)})
	require.NoError(t, err)
	assert.True(t, res.HasConflict)
	assert.Equal(t, 1, res.ConflictCount)

	res, err = f.svc.Check(ctx, CheckInput{RoomID: f.open.ID, Start: at(0, 15), End: at(0, 45), ExcludeID: r.ID})
	require.NoError(t, err)
	assert.False(t, res.HasConflict)
	assert.NotNil(t, res.Conflicts)

	_, err = f.svc.Check(ctx, CheckInput{RoomID: f.open.ID, Start: at(1, 0), End: at(0, 0)})
	assert.ErrorIs(t, err, conflict.ErrInvalidInterval)

	_, err = f.svc.Check(ctx, CheckInput{RoomID: 999, Start: at(0, 0), End: at(1, 0)})
	assert.ErrorIs(t, err, store.ErrNotFound)

	sched, err := f.svc.Schedule(ctx, f.open.ID, day, day.Add(24*time.Hour))
	require.NoError(t, err)
	require.Len(t, sched, 1)
	assert.Equal(t, r.ID, sched[0].ID)
}

func TestService_ListAndGetVisibility(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	mine := f.book(t, f.user, f.open, at(9, 0), at(10, 0))
	f.book(t, f.other, f.open, at(11, 0), at(12, 0))

	// Users only see their own, whatever they ask for.
	list, err := f.svc.List(ctx, f.user, store.ReservationFilter{UserID: f.other.ID})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, mine.ID, list[0].ID)

	list, err = f.svc.List(ctx, f.manager, store.ReservationFilter{RoomID: f.open.ID})
	require.NoError(t, err)
	assert.Len(t, list, 2)

	_, err = f.svc.Get(ctx, f.other, mine.ID)
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = f.svc.Get(ctx, f.manager, mine.ID)
	assert.NoError(t, err)
}
