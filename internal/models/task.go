package models

import "time"

// TaskStatus is the lifecycle state of a Task.
type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "Pending"
	TaskStatusInProgress TaskStatus = "In Progress"
	TaskStatusCompleted  TaskStatus = "Completed"
)

var taskStatuses = map[TaskStatus]struct{}{
	TaskStatusPending:    {},
	TaskStatusInProgress: {},
	TaskStatusCompleted:  {},
}

// Valid reports whether s is one of the known statuses.
func (s TaskStatus) Valid() bool {
	_, ok := taskStatuses[s]
	return ok
}

// ParseTaskStatus converts a raw string into a TaskStatus.
func ParseTaskStatus(raw string) (TaskStatus, bool) {
	s := TaskStatus(raw)
	return s, s.Valid()
}

// Task is a unit of work owned by the user who created it.
type Task struct {
	ID            uint       `json:"id" gorm:"primaryKey"`
	Title         string     `json:"title" gorm:"type:varchar(255);not null"`
	Description   string     `json:"description" gorm:"type:text"`
	DueDate       Date       `json:"due_date" gorm:"not null"`
	DateCompleted *Date      `json:"date_completed"`
	Status        TaskStatus `json:"status" gorm:"type:varchar(20);not null;default:'Pending'"`
	OwnerID       uint       `json:"owner_id" gorm:"not null;index"`
	Owner         *User      `json:"-" gorm:"foreignKey:OwnerID;constraint:OnDelete:CASCADE"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// MarkCompletion recomputes DateCompleted from Status: today when the task
// is Completed, nil otherwise.
func (t *Task) MarkCompletion(today Date) {
	if t.Status == TaskStatusCompleted {
		t.DateCompleted = &today
		return
	}
	t.DateCompleted = nil
}
