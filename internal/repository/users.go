package repository

import (
	"context"
	"fmt"

	"github.com/Dan9191/bnpl-service/internal/models"
	"github.com/google/uuid"
)

// CreateUser creates a new user in the database
func (r *Repository) CreateUser(ctx context.Context, user *models.User) error {
	if err := r.conn(ctx).Create(user).Error; err != nil {
		return fmt.Errorf("failed to create user: %w", classify(err))
	}
	return nil
}

// FindUserByLogin retrieves a user by username or email
func (r *Repository) FindUserByLogin(ctx context.Context, login string) (*models.User, error) {
	var user models.User
	err := r.conn(ctx).
		Where("username = ? OR email = ?", login, login).
		First(&user).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", classify(err))
	}
	return &user, nil
}

// FindUserByID retrieves a user by id
func (r *Repository) FindUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := r.conn(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, fmt.Errorf("failed to find user: %w", classify(err))
	}
	return &user, nil
}
