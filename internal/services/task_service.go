package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"taskapi/internal/models"
	"taskapi/internal/policy"
	"taskapi/internal/repositories"
	"taskapi/internal/validation"
)

const (
	// DefaultPerPage is used when the caller does not ask for a page size.
	DefaultPerPage = 10
	// MaxPerPage caps the page size a caller can request.
	MaxPerPage = 100
)

// TaskPage is one page of the global task listing.
type TaskPage struct {
	Tasks   []models.Task
	Page    int
	PerPage int
	Total   int64
}

// Offset is the zero-based index of the first task on the page. It
// saturates at math.MaxInt for pages too large to address.
func (p *TaskPage) Offset() int {
	if p.PerPage > 0 && p.Page-1 > math.MaxInt/p.PerPage {
		return math.MaxInt
	}
	return (p.Page - 1) * p.PerPage
}

// HasMore reports whether a later page exists.
func (p *TaskPage) HasMore() bool {
	return int64(p.Offset()+len(p.Tasks)) < p.Total
}

// TaskService handles business logic related to tasks.
type TaskService struct {
	repo           repositories.TaskRepository
	validator      *validation.Validator
	events         EventPublisher
	defaultPerPage int
	now            func() time.Time
}

// NewTaskService creates a new TaskService. events may be nil.
func NewTaskService(repo repositories.TaskRepository, validator *validation.Validator, events EventPublisher) *TaskService {
	return &TaskService{
		repo:           repo,
		validator:      validator,
		events:         events,
		defaultPerPage: DefaultPerPage,
		now:            time.Now,
	}
}

// WithDefaultPerPage overrides the page size used when none is requested.
func (s *TaskService) WithDefaultPerPage(n int) *TaskService {
	if n > 0 {
		s.defaultPerPage = n
	}
	return s
}

// WithClock replaces the clock used to stamp completion dates.
func (s *TaskService) WithClock(now func() time.Time) *TaskService {
	s.now = now
	return s
}

// List returns a page of all tasks in creation order. Out of range inputs
// are clamped rather than rejected.
func (s *TaskService) List(ctx context.Context, page, perPage int) (*TaskPage, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = s.defaultPerPage
	}
	if perPage > MaxPerPage {
		perPage = MaxPerPage
	}

	result := &TaskPage{Page: page, PerPage: perPage}

	total, err := s.repo.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	result.Total = total
	result.Tasks = []models.Task{}

	// Pages past the end are empty; the store is not asked for them.
	if int64(result.Offset()) >= total {
		return result, nil
	}

	tasks, err := s.repo.List(ctx, result.Offset(), perPage)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	if tasks != nil {
		result.Tasks = tasks
	}

	return result, nil
}

// Get retrieves a single task by its ID.
func (s *TaskService) Get(ctx context.Context, id uint) (*models.Task, error) {
	task, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get task %d: %w", id, err)
	}
	return task, nil
}

// Create validates req and stores a new Pending task owned by userID.
func (s *TaskService) Create(ctx context.Context, userID uint, req validation.CreateTaskRequest) (*models.Task, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	dueDate, err := models.ParseDate(req.DueDate)
	if err != nil {
		return nil, fmt.Errorf("validated due date did not parse: %w", err)
	}

	task := &models.Task{
		Title:       req.Title,
		Description: req.Description,
		DueDate:     dueDate,
		Status:      models.TaskStatusPending,
		OwnerID:     userID,
	}
	if err := s.repo.Create(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	publishTaskEvent(s.events, EventTaskCreated, userID, *task, s.now())
	return task, nil
}

// Update applies the submitted fields of req to the task if userID owns it.
// A missing task is reported before invalid input, and invalid input before
// a foreign owner. date_completed is recomputed from the resulting status on
// every update.
func (s *TaskService) Update(ctx context.Context, userID, id uint, req validation.UpdateTaskRequest) (*models.Task, error) {
	task, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	if !policy.CanMutateTask(userID, task.OwnerID) {
		return nil, ErrForbidden
	}

	if req.Title != nil {
		task.Title = *req.Title
	}
	if req.Description != nil {
		task.Description = *req.Description
	}
	if req.DueDate != nil {
		dueDate, err := models.ParseDate(*req.DueDate)
		if err != nil {
			return nil, fmt.Errorf("validated due date did not parse: %w", err)
		}
		task.DueDate = dueDate
	}
	if req.Status != nil {
		task.Status = models.TaskStatus(*req.Status)
	}

	now := s.now()
	task.MarkCompletion(models.NewDate(now))

	if err := s.repo.Update(ctx, task); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to update task %d: %w", id, err)
	}

	publishTaskEvent(s.events, EventTaskUpdated, userID, *task, now)
	return task, nil
}

// Delete removes the task if userID owns it and returns its last state.
func (s *TaskService) Delete(ctx context.Context, userID, id uint) (*models.Task, error) {
	task, err := s.authorizedTask(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to delete task %d: %w", id, err)
	}

	publishTaskEvent(s.events, EventTaskDeleted, userID, *task, s.now())
	return task, nil
}

// authorizedTask loads the task once and checks ownership against that read.
func (s *TaskService) authorizedTask(ctx context.Context, userID, id uint) (*models.Task, error) {
	task, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !policy.CanMutateTask(userID, task.OwnerID) {
		return nil, ErrForbidden
	}
	return task, nil
}
