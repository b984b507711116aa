package store

import (
	"context"
	"fmt"
	"time"

	"roombooking-backend/internal/model"
)

func (s *gormStore) CreateNotification(ctx context.Context, n *model.Notification) error {
	if err := s.conn(ctx).Create(n).Error; err != nil {
		return fmt.Errorf("failed to create notification for user %d: %w", n.UserID, err)
	}
	return nil
}

func (s *gormStore) GetNotification(ctx context.Context, id int64) (*model.Notification, error) {
	var n model.Notification
	if err := s.conn(ctx).First(&n, id).Error; err != nil {
		return nil, fmt.Errorf("failed to get notification %d: %w", id, translateError(err))
	}
	return &n, nil
}

func (s *gormStore) ListNotifications(ctx context.Context, userID int64, unreadOnly bool) ([]model.Notification, error) {
	q := s.conn(ctx).Where("user_id = ?", userID)
	if unreadOnly {
		q = q.Where("read_at IS NULL")
	}
	var out []model.Notification
	if err := q.Order("created_at DESC, id DESC").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("failed to list notifications for user %d: %w", userID, err)
	}
	return out, nil
}

func (s *gormStore) MarkNotificationRead(ctx context.Context, userID, id int64, at time.Time) error {
	res := s.conn(ctx).Model(&model.Notification{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("read_at", at)
	if res.Error != nil {
		return fmt.Errorf("failed to mark notification %d read: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("notification %d: %w", id, ErrNotFound)
	}
	return nil
}

func (s *gormStore) MarkAllNotificationsRead(ctx context.Context, userID int64, at time.Time) (int64, error) {
	res := s.conn(ctx).Model(&model.Notification{}).
		Where("user_id = ? AND read_at IS NULL", userID).
		Update("read_at", at)
	if res.Error != nil {
		return 0, fmt.Errorf("failed to mark notifications read for user %d: %w", userID, res.Error)
	}
	return res.RowsAffected, nil
}

func (s *gormStore) DeleteNotification(ctx context.Context, userID, id int64) error {
	res := s.conn(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(&model.Notification{})
	if res.Error != nil {
		return fmt.Errorf("failed to delete notification %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("notification %d: %w", id, ErrNotFound)
	}
	return nil
}
