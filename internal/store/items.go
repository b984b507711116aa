package store

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"roombooking-backend/internal/model"
)

func (s *gormStore) CreateItem(ctx context.Context, it *model.Item) error {
	if err := s.conn(ctx).Omit("Room").Create(it).Error; err != nil {
		return fmt.Errorf("failed to create item %q: %w", it.Name, translateError(err))
	}
	return nil
}

func (s *gormStore) GetItem(ctx context.Context, id int64) (*model.Item, error) {
	var it model.Item
	if err := s.conn(ctx).First(&it, id).Error; err != nil {
		return nil, fmt.Errorf("failed to get item %d: %w", id, translateError(err))
	}
	return &it, nil
}

// FindItems loads the given items and fails with ErrNotFound if any is missing.
func (s *gormStore) FindItems(ctx context.Context, ids []int64) ([]*model.Item, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var items []*model.Item
	if err := s.conn(ctx).Where("id IN ?", ids).Find(&items).Error; err != nil {
		return nil, fmt.Errorf("failed to find items: %w", err)
	}

	found := make(map[int64]bool, len(items))
	for _, it := range items {
		found[it.ID] = true
	}
	for _, id := range ids {
		if !found[id] {
			return nil, fmt.Errorf("item %d: %w", id, ErrNotFound)
		}
	}
	return items, nil
}

func (s *gormStore) ListItems(ctx context.Context, roomID *int64) ([]model.Item, error) {
	q := s.conn(ctx).Order("name")
	if roomID != nil {
		q = q.Where("room_id = ?", *roomID)
	}
	var items []model.Item
	if err := q.Find(&items).Error; err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	return items, nil
}

func (s *gormStore) UpdateItem(ctx context.Context, it *model.Item) error {
	if err := s.conn(ctx).Omit("Room").Save(it).Error; err != nil {
		return fmt.Errorf("failed to update item %d: %w", it.ID, translateError(err))
	}
	return nil
}

// DeleteItem removes an item and unlinks it from any reservation.
func (s *gormStore) DeleteItem(ctx context.Context, id int64) error {
	err := s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM reservation_items WHERE item_id = ?", id).Error; err != nil {
			return err
		}
		res := tx.Delete(&model.Item{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete item %d: %w", id, err)
	}
	return nil
}
