package store

import (
	"context"
	"fmt"

	"gorm.io/gorm/clause"

	"roombooking-backend/internal/model"
)

// UpsertPushSubscription stores a browser subscription. Re-registering an
// endpoint moves it to the new user and refreshes its keys.
func (s *gormStore) UpsertPushSubscription(ctx context.Context, sub *model.PushSubscription) error {
	if err := s.conn(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "endpoint"}},
		DoUpdates: clause.AssignmentColumns([]string{"user_id", "p256dh", "auth"}),
	}).Create(sub).Error; err != nil {
		return fmt.Errorf("failed to upsert push subscription: %w", err)
	}
	return nil
}

func (s *gormStore) ListPushSubscriptions(ctx context.Context, userID int64) ([]model.PushSubscription, error) {
	var subs []model.PushSubscription
	if err := s.conn(ctx).Where("user_id = ?", userID).Find(&subs).Error; err != nil {
		return nil, fmt.Errorf("failed to list push subscriptions for user %d: %w", userID, err)
	}
	return subs, nil
}

// DeletePushSubscription removes a subscription. A non-zero userID restricts
// the delete to that user's subscription.
func (s *gormStore) DeletePushSubscription(ctx context.Context, userID int64, endpoint string) error {
	q := s.conn(ctx).Where("endpoint = ?", endpoint)
	if userID != 0 {
		q = q.Where("user_id = ?", userID)
	}
	if err := q.Delete(&model.PushSubscription{}).Error; err != nil {
		return fmt.Errorf("failed to delete push subscription: %w", err)
	}
	return nil
}

// UpsertPushToken stores a mobile registration token for a user.
func (s *gormStore) UpsertPushToken(ctx context.Context, tok *model.PushToken) error {
	if err := s.conn(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "token"}},
		DoUpdates: clause.AssignmentColumns([]string{"user_id", "platform"}),
	}).Create(tok).Error; err != nil {
		return fmt.Errorf("failed to upsert push token: %w", err)
	}
	return nil
}

func (s *gormStore) ListPushTokens(ctx context.Context, userID int64) ([]model.PushToken, error) {
	var toks []model.PushToken
	if err := s.conn(ctx).Where("user_id = ?", userID).Find(&toks).Error; err != nil {
		return nil, fmt.Errorf("failed to list push tokens for user %d: %w", userID, err)
	}
	return toks, nil
}

// DeletePushToken removes a token. A non-zero userID restricts the delete to
// that user's token.
func (s *gormStore) DeletePushToken(ctx context.Context, userID int64, token string) error {
	q := s.conn(ctx).Where("token = ?", token)
	if userID != 0 {
		q = q.Where("user_id = ?", userID)
	}
	if err := q.Delete(&model.PushToken{}).Error; err != nil {
		return fmt.Errorf("failed to delete push token: %w", err)
	}
	return nil
}
