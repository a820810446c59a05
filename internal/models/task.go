package models

import (
	"time"

	"github.com/gofrs/uuid"
)

const (
	StatusPending    = "pending"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
)

const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

func ValidStatus(status string) bool {
	switch status {
	case StatusPending, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

func ValidPriority(priority string) bool {
	switch priority {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

type Task struct {
	ID          uuid.UUID  `json:"id" gorm:"primaryKey;type:uuid"`
	Title       string     `json:"title" gorm:"not null"`
	Description string     `json:"description"`
	Status      string     `json:"status" gorm:"not null;default:'pending'"`
	Priority    string     `json:"priority" gorm:"not null;default:'medium'"`
	CreatedBy   uuid.UUID  `json:"created_by" gorm:"type:uuid;not null;index"`
	AssignedTo  *uuid.UUID `json:"assigned_to" gorm:"type:uuid;index"`
	DueDate     *time.Time `json:"due_date"`

	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	CompletedAt *time.Time `json:"completed_at"`
}

// TaskWithUsers is the read model returned by the API: a task joined with
// the display names of its creator and assignee.
type TaskWithUsers struct {
	Task
	CreatorName  string  `json:"creator_name"`
	AssigneeName *string `json:"assignee_name"`
}
