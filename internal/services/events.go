package services

import (
	"encoding/json"
	"log"
	"time"

	"taskapi/internal/models"
)

// Routing keys for task lifecycle events.
const (
	EventTaskCreated = "task.created"
	EventTaskUpdated = "task.updated"
	EventTaskDeleted = "task.deleted"
)

// EventPublisher delivers an encoded event under a routing key.
type EventPublisher interface {
	Publish(routingKey string, body []byte) error
}

// TaskEvent is the payload published for every task mutation.
type TaskEvent struct {
	Type       string      `json:"type"`
	TaskID     uint        `json:"task_id"`
	ActorID    uint        `json:"actor_id"`
	Task       models.Task `json:"task"`
	OccurredAt time.Time   `json:"occurred_at"`
}

// publishTaskEvent is best effort: a broken broker must not fail the request.
func publishTaskEvent(publisher EventPublisher, eventType string, actorID uint, task models.Task, at time.Time) {
	if publisher == nil {
		return
	}

	body, err := json.Marshal(TaskEvent{
		Type:       eventType,
		TaskID:     task.ID,
		ActorID:    actorID,
		Task:       task,
		OccurredAt: at,
	})
	if err != nil {
		log.Printf("Failed to marshal %s event for task %d: %v", eventType, task.ID, err)
		return
	}

	if err := publisher.Publish(eventType, body); err != nil {
		log.Printf("Warning: Failed to publish %s event for task %d: %v", eventType, task.ID, err)
	}
}
