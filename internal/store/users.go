package store

import (
	"context"
	"fmt"

	"roombooking-backend/internal/model"
)

func (s *gormStore) CreateUser(ctx context.Context, u *model.User) error {
	if err := s.conn(ctx).Create(u).Error; err != nil {
		return fmt.Errorf("failed to create user %q: %w", u.Email, translateError(err))
	}
	return nil
}

func (s *gormStore) GetUser(ctx context.Context, id int64) (*model.User, error) {
	var u model.User
	if err := s.conn(ctx).First(&u, id).Error; err != nil {
		return nil, fmt.Errorf("failed to get user %d: %w", id, translateError(err))
	}
	return &u, nil
}

func (s *gormStore) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	var u model.User
	if err := s.conn(ctx).Where("email = ?", email).First(&u).Error; err != nil {
		return nil, fmt.Errorf("failed to get user by email: %w", translateError(err))
	}
	return &u, nil
}

func (s *gormStore) ListUsers(ctx context.Context) ([]model.User, error) {
	var users []model.User
	if err := s.conn(ctx).Order("id").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

func (s *gormStore) ListUsersWithRoles(ctx context.Context, roles ...model.Role) ([]model.User, error) {
	var users []model.User
	if err := s.conn(ctx).
		Where("role IN ? AND active = ?", roles, true).
		Order("id").
		Find(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to list users by role: %w", err)
	}
	return users, nil
}

func (s *gormStore) UpdateUser(ctx context.Context, u *model.User) error {
	if err := s.conn(ctx).Save(u).Error; err != nil {
		return fmt.Errorf("failed to update user %d: %w", u.ID, translateError(err))
	}
	return nil
}

func (s *gormStore) DeleteUser(ctx context.Context, id int64) error {
	res := s.conn(ctx).Delete(&model.User{}, id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete user %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("failed to delete user %d: %w", id, ErrNotFound)
	}
	return nil
}
