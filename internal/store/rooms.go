package store

import (
	"context"
	"fmt"

	"gorm.io/gorm/clause"

	"roombooking-backend/internal/model"
)

func (s *gormStore) CreateRoom(ctx context.Context, r *model.Room) error {
	if err := s.conn(ctx).Omit("Items").Create(r).Error; err != nil {
		return fmt.Errorf("failed to create room %q: %w", r.Name, translateError(err))
	}
	return nil
}

func (s *gormStore) GetRoom(ctx context.Context, id int64) (*model.Room, error) {
	var r model.Room
	if err := s.conn(ctx).Preload("Items").First(&r, id).Error; err != nil {
		return nil, fmt.Errorf("failed to get room %d: %w", id, translateError(err))
	}
	return &r, nil
}

// LockRoom reads the room row and, on Postgres, holds a row lock until the
// surrounding transaction ends. Reservation writes for one room serialize on it.
func (s *gormStore) LockRoom(ctx context.Context, id int64) (*model.Room, error) {
	q := s.conn(ctx)
	if s.isPostgres() {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var r model.Room
	if err := q.First(&r, id).Error; err != nil {
		return nil, fmt.Errorf("failed to lock room %d: %w", id, translateError(err))
	}
	return &r, nil
}

func (s *gormStore) ListRooms(ctx context.Context, includeInactive bool) ([]model.Room, error) {
	q := s.conn(ctx).Order("name")
	if !includeInactive {
		q = q.Where("active = ?", true)
	}
	var rooms []model.Room
	if err := q.Find(&rooms).Error; err != nil {
		return nil, fmt.Errorf("failed to list rooms: %w", err)
	}
	return rooms, nil
}

func (s *gormStore) UpdateRoom(ctx context.Context, r *model.Room) error {
	if err := s.conn(ctx).Omit("Items").Save(r).Error; err != nil {
		return fmt.Errorf("failed to update room %d: %w", r.ID, translateError(err))
	}
	return nil
}

func (s *gormStore) DeleteRoom(ctx context.Context, id int64) error {
	res := s.conn(ctx).Delete(&model.Room{}, id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete room %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("failed to delete room %d: %w", id, ErrNotFound)
	}
	return nil
}
