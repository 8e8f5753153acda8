package repositories

import (
	"context"

	"taskapi/internal/models"
)

// UserRepository defines the interface for user data access.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id uint) (*models.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
}
