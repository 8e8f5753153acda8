package repositories

import (
	"context"

	"taskapi/internal/models"
)

// TaskRepository defines the interface for task data access.
type TaskRepository interface {
	// List returns up to limit tasks starting at offset, in insertion order.
	List(ctx context.Context, offset, limit int) ([]models.Task, error)
	Count(ctx context.Context) (int64, error)
	GetByID(ctx context.Context, id uint) (*models.Task, error)
	Create(ctx context.Context, task *models.Task) error
	// Update persists the mutable columns of task. The owner is never rewritten.
	Update(ctx context.Context, task *models.Task) error
	Delete(ctx context.Context, id uint) error
}
