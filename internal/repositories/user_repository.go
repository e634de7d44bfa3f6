package repositories

import (
	"context"

	"storefront/internal/models"
)

// UserRepository defines the interface for user data access.
type UserRepository interface {
	// Create fails with models.ErrUsernameTaken when the username exists.
	Create(ctx context.Context, user *models.User) error
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByID(ctx context.Context, id uint) (*models.User, error)
	AdminExists(ctx context.Context) (bool, error)
}
