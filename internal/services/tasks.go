package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"tasktrack/backend/internal/models"
	"tasktrack/backend/internal/worker"

	"github.com/gofrs/uuid"
	"gorm.io/gorm"
)

type TaskCreateInput struct {
	Title       string     `json:"title" binding:"required"`
	Description string     `json:"description"`
	Priority    string     `json:"priority"`
	AssignedTo  *uuid.UUID `json:"assigned_to"`
	DueDate     string     `json:"due_date"`
}

// TaskPatch carries a partial update: nil slots are left untouched, present
// slots are applied. This replaces the upstream string-built UPDATE.
type TaskPatch struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	Status      *string    `json:"status"`
	Priority    *string    `json:"priority"`
	AssignedTo  *uuid.UUID `json:"assigned_to"`
	DueDate     *string    `json:"due_date"`
}

type TaskFilter struct {
	AssignedTo *uuid.UUID
}

type TaskService interface {
	CreateTask(db *gorm.DB, actor models.Identity, input TaskCreateInput) (models.TaskWithUsers, error)
	UpdateTask(db *gorm.DB, actor models.Identity, id uuid.UUID, patch TaskPatch) (models.TaskWithUsers, error)
	CompleteTask(db *gorm.DB, actor models.Identity, id uuid.UUID) (models.TaskWithUsers, error)
	DeleteTask(db *gorm.DB, actor models.Identity, id uuid.UUID) error
	GetTaskByID(db *gorm.DB, id uuid.UUID) (models.TaskWithUsers, error)
	ListTasks(db *gorm.DB, filter TaskFilter) ([]models.TaskWithUsers, error)
}

type TaskServiceImpl struct {
	reminders *worker.JobQueue
}

// NewTaskService builds the lifecycle service. The job queue is optional;
// when nil, due-date reminders are simply not scheduled.
func NewTaskService(reminders *worker.JobQueue) *TaskServiceImpl {
	return &TaskServiceImpl{reminders: reminders}
}

func (s *TaskServiceImpl) CreateTask(db *gorm.DB, actor models.Identity, input TaskCreateInput) (models.TaskWithUsers, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return models.TaskWithUsers{}, fmt.Errorf("%w: title is required", ErrValidation)
	}

	priority := input.Priority
	if priority == "" {
		priority = models.PriorityMedium
	}
	if !models.ValidPriority(priority) {
		return models.TaskWithUsers{}, fmt.Errorf("%w: invalid priority %q", ErrValidation, input.Priority)
	}

	assignedTo := input.AssignedTo
	if assignedTo == nil {
		actorID := actor.ID
		assignedTo = &actorID
	}

	now := time.Now()
	task := models.Task{
		ID:          uuid.Must(uuid.NewV4()),
		Title:       title,
		Description: input.Description,
		Status:      models.StatusPending,
		Priority:    priority,
		CreatedBy:   actor.ID,
		AssignedTo:  assignedTo,
		DueDate:     parseDueDate(input.DueDate),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := db.Create(&task).Error; err != nil {
		return models.TaskWithUsers{}, err
	}

	s.scheduleReminder(task)

	return s.GetTaskByID(db, task.ID)
}

func (s *TaskServiceImpl) UpdateTask(db *gorm.DB, actor models.Identity, id uuid.UUID, patch TaskPatch) (models.TaskWithUsers, error) {
	// Load, permission check and write share one transaction so the
	// decision and the write see the same row.
	err := db.Transaction(func(tx *gorm.DB) error {
		task, err := loadTask(tx, id)
		if err != nil {
			return err
		}

		if !Allowed(actor, task, ActionEdit) {
			return fmt.Errorf("%w: you can only edit tasks you created", ErrForbidden)
		}

		if patch.Title != nil {
			title := strings.TrimSpace(*patch.Title)
			if title == "" {
				return fmt.Errorf("%w: title cannot be empty", ErrValidation)
			}
			task.Title = title
		}
		if patch.Description != nil {
			task.Description = *patch.Description
		}
		if patch.Status != nil {
			if !models.ValidStatus(*patch.Status) {
				return fmt.Errorf("%w: invalid status %q", ErrValidation, *patch.Status)
			}
			task.Status = *patch.Status
			// completed_at is non-null exactly when status is completed.
			if task.Status == models.StatusCompleted {
				if task.CompletedAt == nil {
					now := time.Now()
					task.CompletedAt = &now
				}
			} else {
				task.CompletedAt = nil
			}
		}
		if patch.Priority != nil {
			if !models.ValidPriority(*patch.Priority) {
				return fmt.Errorf("%w: invalid priority %q", ErrValidation, *patch.Priority)
			}
			task.Priority = *patch.Priority
		}
		if patch.AssignedTo != nil {
			assignee := *patch.AssignedTo
			task.AssignedTo = &assignee
		}
		if patch.DueDate != nil {
			task.DueDate = parseDueDate(*patch.DueDate)
		}

		task.UpdatedAt = time.Now()

		if err := tx.Save(&task).Error; err != nil {
			return err
		}

		if patch.DueDate != nil {
			s.scheduleReminder(task)
		}

		return nil
	})
	if err != nil {
		return models.TaskWithUsers{}, err
	}

	return s.GetTaskByID(db, id)
}

// CompleteTask is idempotent: completing an already completed task succeeds
// and re-stamps completed_at and updated_at.
func (s *TaskServiceImpl) CompleteTask(db *gorm.DB, actor models.Identity, id uuid.UUID) (models.TaskWithUsers, error) {
	err := db.Transaction(func(tx *gorm.DB) error {
		task, err := loadTask(tx, id)
		if err != nil {
			return err
		}

		if !Allowed(actor, task, ActionComplete) {
			return fmt.Errorf("%w: you can only complete tasks you created or are assigned to", ErrForbidden)
		}

		now := time.Now()
		task.Status = models.StatusCompleted
		task.CompletedAt = &now
		task.UpdatedAt = now

		return tx.Save(&task).Error
	})
	if err != nil {
		return models.TaskWithUsers{}, err
	}

	return s.GetTaskByID(db, id)
}

func (s *TaskServiceImpl) DeleteTask(db *gorm.DB, actor models.Identity, id uuid.UUID) error {
	return db.Transaction(func(tx *gorm.DB) error {
		task, err := loadTask(tx, id)
		if err != nil {
			return err
		}

		if !Allowed(actor, task, ActionDelete) {
			return fmt.Errorf("%w: you can only delete tasks you created", ErrForbidden)
		}

		return tx.Where("id = ?", id).Delete(&models.Task{}).Error
	})
}

func (s *TaskServiceImpl) GetTaskByID(db *gorm.DB, id uuid.UUID) (models.TaskWithUsers, error) {
	var row models.TaskWithUsers
	err := taskReadQuery(db).
		Where("tasks.id = ?", id).
		Take(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.TaskWithUsers{}, fmt.Errorf("task %w", ErrNotFound)
		}
		return models.TaskWithUsers{}, err
	}
	return row, nil
}

func (s *TaskServiceImpl) ListTasks(db *gorm.DB, filter TaskFilter) ([]models.TaskWithUsers, error) {
	query := taskReadQuery(db).Order("tasks.created_at DESC")

	if filter.AssignedTo != nil {
		query = query.Where("tasks.assigned_to = ?", *filter.AssignedTo)
	}

	var rows []models.TaskWithUsers
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func loadTask(tx *gorm.DB, id uuid.UUID) (models.Task, error) {
	var task models.Task
	if err := tx.Where("id = ?", id).First(&task).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Task{}, fmt.Errorf("task %w", ErrNotFound)
		}
		return models.Task{}, err
	}
	return task, nil
}

func taskReadQuery(db *gorm.DB) *gorm.DB {
	return db.Table("tasks").
		Select("tasks.*, creator.username AS creator_name, assignee.username AS assignee_name").
		Joins("LEFT JOIN users creator ON creator.id = tasks.created_by").
		Joins("LEFT JOIN users assignee ON assignee.id = tasks.assigned_to")
}

// parseDueDate normalizes a client-supplied due date to a bare calendar
// date. Absent or unparseable input yields no due date rather than an
// error, matching the forgiving contract of the API.
func parseDueDate(raw string) *time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	parsed, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		parsed, err = time.Parse("2006-01-02", raw)
	}
	if err != nil {
		return nil
	}

	date := time.Date(parsed.Year(), parsed.Month(), parsed.Day(), 0, 0, 0, 0, time.UTC)
	return &date
}

func (s *TaskServiceImpl) scheduleReminder(task models.Task) {
	if s.reminders == nil || task.DueDate == nil {
		return
	}

	// Reminder delivery is best effort; a queue failure never fails the
	// request that scheduled it.
	_ = s.reminders.EnqueueAt("reminders", worker.JobTypeTaskReminder, map[string]interface{}{
		"task_id":  task.ID.String(),
		"title":    task.Title,
		"due_date": task.DueDate.Format("2006-01-02"),
	}, *task.DueDate)
}
