package store

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"roombooking-backend/internal/model"
)

var (
	// ErrNotFound is returned when a lookup matches no row.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a unique column already holds the value.
	ErrDuplicate = errors.New("duplicate record")
	// ErrOverlap is returned when the database rejects a write because it
	// would overlap a blocking reservation.
	ErrOverlap = errors.New("reservation overlaps an existing reservation")
)

// ReservationFilter narrows ListReservations. Zero fields are ignored.
type ReservationFilter struct {
	RoomID   int64
	UserID   int64
	Statuses []model.ReservationStatus
	// From and To select reservations overlapping [From, To).
	From time.Time
	To   time.Time
}

// Store defines the interface for all database operations.
type Store interface {
	DB() *gorm.DB
	// WithTx runs fn inside a transaction, handing it a Store bound to it.
	WithTx(ctx context.Context, fn func(tx Store) error) error

	CreateUser(ctx context.Context, u *model.User) error
	GetUser(ctx context.Context, id int64) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	ListUsers(ctx context.Context) ([]model.User, error)
	ListUsersWithRoles(ctx context.Context, roles ...model.Role) ([]model.User, error)
	UpdateUser(ctx context.Context, u *model.User) error
	DeleteUser(ctx context.Context, id int64) error

	CreateRoom(ctx context.Context, r *model.Room) error
	GetRoom(ctx context.Context, id int64) (*model.Room, error)
	LockRoom(ctx context.Context, id int64) (*model.Room, error)
	ListRooms(ctx context.Context, includeInactive bool) ([]model.Room, error)
	UpdateRoom(ctx context.Context, r *model.Room) error
	DeleteRoom(ctx context.Context, id int64) error

	CreateItem(ctx context.Context, it *model.Item) error
	GetItem(ctx context.Context, id int64) (*model.Item, error)
	FindItems(ctx context.Context, ids []int64) ([]*model.Item, error)
	ListItems(ctx context.Context, roomID *int64) ([]model.Item, error)
	UpdateItem(ctx context.Context, it *model.Item) error
	DeleteItem(ctx context.Context, id int64) error

	CreateReservation(ctx context.Context, r *model.Reservation) error
	GetReservation(ctx context.Context, id int64) (*model.Reservation, error)
	ListReservations(ctx context.Context, f ReservationFilter) ([]model.Reservation, error)
	SaveReservation(ctx context.Context, r *model.Reservation, replaceItems bool) error
	BlockingReservations(ctx context.Context, roomID int64, statuses []model.ReservationStatus, excludeID int64) ([]model.Reservation, error)

	CreateNotification(ctx context.Context, n *model.Notification) error
	GetNotification(ctx context.Context, id int64) (*model.Notification, error)
	ListNotifications(ctx context.Context, userID int64, unreadOnly bool) ([]model.Notification, error)
	MarkNotificationRead(ctx context.Context, userID, id int64, at time.Time) error
	MarkAllNotificationsRead(ctx context.Context, userID int64, at time.Time) (int64, error)
	DeleteNotification(ctx context.Context, userID, id int64) error

	UpsertPushSubscription(ctx context.Context, sub *model.PushSubscription) error
	ListPushSubscriptions(ctx context.Context, userID int64) ([]model.PushSubscription, error)
	DeletePushSubscription(ctx context.Context, userID int64, endpoint string) error
	UpsertPushToken(ctx context.Context, tok *model.PushToken) error
	ListPushTokens(ctx context.Context, userID int64) ([]model.PushToken, error)
	DeletePushToken(ctx context.Context, userID int64, token string) error
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) DB() *gorm.DB {
	return s.db
}

func (s *gormStore) WithTx(ctx context.Context, fn func(tx Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormStore{db: tx})
	})
}

func (s *gormStore) conn(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx)
}

func (s *gormStore) isPostgres() bool {
	return s.db.Dialector != nil && s.db.Dialector.Name() == "postgres"
}

// translateError maps driver errors onto the store's sentinel errors.
func translateError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicate
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			return ErrDuplicate
		case "23P01": // exclusion_violation
			return ErrOverlap
		}
		return err
	}

	if strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return ErrDuplicate
	}
	return err
}
