package store

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"roombooking-backend/internal/model"
)

func (s *gormStore) CreateReservation(ctx context.Context, r *model.Reservation) error {
	// Items.* links the requested items without re-upserting them.
	if err := s.conn(ctx).Omit("Room", "User", "Items.*").Create(r).Error; err != nil {
		return fmt.Errorf("failed to create reservation for room %d: %w", r.RoomID, translateError(err))
	}
	return nil
}

func (s *gormStore) GetReservation(ctx context.Context, id int64) (*model.Reservation, error) {
	var r model.Reservation
	if err := s.conn(ctx).Preload("Room").Preload("Items").First(&r, id).Error; err != nil {
		return nil, fmt.Errorf("failed to get reservation %d: %w", id, translateError(err))
	}
	return &r, nil
}

func (s *gormStore) ListReservations(ctx context.Context, f ReservationFilter) ([]model.Reservation, error) {
	q := s.conn(ctx).Preload("Room").Preload("Items").Order("start_at, id")
	if f.RoomID != 0 {
		q = q.Where("room_id = ?", f.RoomID)
	}
	if f.UserID != 0 {
		q = q.Where("user_id = ?", f.UserID)
	}
	if len(f.Statuses) > 0 {
		q = q.Where("status IN ?", f.Statuses)
	}
	if !f.From.IsZero() {
		q = q.Where("end_at > ?", f.From.UTC())
	}
	if !f.To.IsZero() {
		q = q.Where("start_at < ?", f.To.UTC())
	}

	var out []model.Reservation
	if err := q.Find(&out).Error; err != nil {
		return nil, fmt.Errorf("failed to list reservations: %w", err)
	}
	return out, nil
}

// SaveReservation writes r's columns. When replaceItems is set the item links
// are replaced with r.Items.
func (s *gormStore) SaveReservation(ctx context.Context, r *model.Reservation, replaceItems bool) error {
	save := func(tx *gorm.DB) error {
		if err := tx.Omit("Room", "User", "Items").Save(r).Error; err != nil {
			return translateError(err)
		}
		if !replaceItems {
			return nil
		}
		if len(r.Items) == 0 {
			return tx.Model(r).Association("Items").Clear()
		}
		return tx.Model(r).Association("Items").Replace(r.Items)
	}

	var err error
	if replaceItems {
		err = s.conn(ctx).Transaction(save)
	} else {
		err = save(s.conn(ctx))
	}
	if err != nil {
		return fmt.Errorf("failed to save reservation %d: %w", r.ID, err)
	}
	return nil
}

// BlockingReservations returns the reservations of a room in any of statuses,
// leaving out excludeID when it is non-zero. The overlap itself is decided in
// Go by the conflict checker.
func (s *gormStore) BlockingReservations(ctx context.Context, roomID int64, statuses []model.ReservationStatus, excludeID int64) ([]model.Reservation, error) {
	q := s.conn(ctx).Where("room_id = ? AND status IN ?", roomID, statuses)
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}

	var out []model.Reservation
	if err := q.Order("start_at").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch blocking reservations for room %d: %w", roomID, err)
	}
	return out, nil
}
