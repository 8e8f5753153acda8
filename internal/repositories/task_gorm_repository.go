package repositories

import (
	"context"
	"errors"
	"fmt"

	"taskapi/internal/models"

	"gorm.io/gorm"
)

// mutableTaskColumns are the columns an update may touch.
var mutableTaskColumns = []string{"title", "description", "due_date", "date_completed", "status"}

// GORMTaskRepository is a GORM implementation of TaskRepository.
type GORMTaskRepository struct {
	db *gorm.DB
}

// NewGORMTaskRepository creates a new instance of GORMTaskRepository.
func NewGORMTaskRepository(db *gorm.DB) *GORMTaskRepository {
	return &GORMTaskRepository{
		db: db,
	}
}

// List retrieves one page of tasks ordered by ID.
func (r *GORMTaskRepository) List(ctx context.Context, offset, limit int) ([]models.Task, error) {
	var tasks []models.Task
	err := r.db.WithContext(ctx).
		Order("id ASC").
		Offset(offset).
		Limit(limit).
		Find(&tasks).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return tasks, nil
}

// Count returns the number of stored tasks.
func (r *GORMTaskRepository) Count(ctx context.Context) (int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&models.Task{}).Count(&total).Error; err != nil {
		return 0, fmt.Errorf("failed to count tasks: %w", err)
	}
	return total, nil
}

// GetByID retrieves a single task by its ID from the database.
func (r *GORMTaskRepository) GetByID(ctx context.Context, id uint) (*models.Task, error) {
	var task models.Task
	if err := r.db.WithContext(ctx).First(&task, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("task with ID %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get task by ID %d: %w", id, err)
	}
	return &task, nil
}

// Create creates a new task in the database.
func (r *GORMTaskRepository) Create(ctx context.Context, task *models.Task) error {
	if err := r.db.WithContext(ctx).Create(task).Error; err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}
	return nil
}

// Update writes the mutable columns, including zero values such as a
// cleared date_completed.
func (r *GORMTaskRepository) Update(ctx context.Context, task *models.Task) error {
	res := r.db.WithContext(ctx).
		Model(task).
		Select(mutableTaskColumns).
		Updates(task)
	if res.Error != nil {
		return fmt.Errorf("failed to update task %d: %w", task.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("task with ID %d for update: %w", task.ID, ErrNotFound)
	}
	return nil
}

// Delete deletes a task by its ID from the database.
func (r *GORMTaskRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.Task{}, id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete task %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("task with ID %d for deletion: %w", id, ErrNotFound)
	}
	return nil
}
