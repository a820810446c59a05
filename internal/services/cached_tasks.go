package services

import (
	"fmt"
	"sync/atomic"
	"time"

	"tasktrack/backend/internal/cache"
	"tasktrack/backend/internal/models"

	"github.com/gofrs/uuid"
	"gorm.io/gorm"
)

const (
	taskCacheTTL = 30 * time.Minute
	listCacheTTL = 5 * time.Minute
)

// CachedTaskService is a read-through cache over a TaskService. Reads are
// served from redis when possible; every mutation invalidates the keys it
// could have touched. Cache failures fall back to the database, never to
// an error.
type CachedTaskService struct {
	inner TaskService
	cache *cache.RedisCache

	hits   atomic.Int64
	misses atomic.Int64
	errors atomic.Int64
}

func NewCachedTaskService(inner TaskService, cacheInstance *cache.RedisCache) *CachedTaskService {
	return &CachedTaskService{
		inner: inner,
		cache: cacheInstance,
	}
}

func (s *CachedTaskService) CreateTask(db *gorm.DB, actor models.Identity, input TaskCreateInput) (models.TaskWithUsers, error) {
	created, err := s.inner.CreateTask(db, actor, input)
	if err != nil {
		return created, err
	}

	s.invalidateLists()
	_ = s.cache.Set(taskKey(created.ID), created, taskCacheTTL)

	return created, nil
}

func (s *CachedTaskService) UpdateTask(db *gorm.DB, actor models.Identity, id uuid.UUID, patch TaskPatch) (models.TaskWithUsers, error) {
	updated, err := s.inner.UpdateTask(db, actor, id, patch)
	if err != nil {
		return updated, err
	}

	s.invalidateTask(id)
	return updated, nil
}

func (s *CachedTaskService) CompleteTask(db *gorm.DB, actor models.Identity, id uuid.UUID) (models.TaskWithUsers, error) {
	completed, err := s.inner.CompleteTask(db, actor, id)
	if err != nil {
		return completed, err
	}

	s.invalidateTask(id)
	return completed, nil
}

func (s *CachedTaskService) DeleteTask(db *gorm.DB, actor models.Identity, id uuid.UUID) error {
	if err := s.inner.DeleteTask(db, actor, id); err != nil {
		return err
	}

	s.invalidateTask(id)
	return nil
}

func (s *CachedTaskService) GetTaskByID(db *gorm.DB, id uuid.UUID) (models.TaskWithUsers, error) {
	var cached models.TaskWithUsers
	switch err := s.cache.Get(taskKey(id), &cached); err {
	case nil:
		s.hits.Add(1)
		return cached, nil
	case cache.ErrCacheMiss:
		s.misses.Add(1)
	default:
		s.errors.Add(1)
	}

	task, err := s.inner.GetTaskByID(db, id)
	if err != nil {
		return task, err
	}

	_ = s.cache.Set(taskKey(id), task, taskCacheTTL)

	return task, nil
}

func (s *CachedTaskService) ListTasks(db *gorm.DB, filter TaskFilter) ([]models.TaskWithUsers, error) {
	key := listKey(filter)

	var cached []models.TaskWithUsers
	switch err := s.cache.Get(key, &cached); err {
	case nil:
		s.hits.Add(1)
		return cached, nil
	case cache.ErrCacheMiss:
		s.misses.Add(1)
	default:
		s.errors.Add(1)
	}

	tasks, err := s.inner.ListTasks(db, filter)
	if err != nil {
		return tasks, err
	}

	_ = s.cache.Set(key, tasks, listCacheTTL)

	return tasks, nil
}

func (s *CachedTaskService) Stats() map[string]interface{} {
	return map[string]interface{}{
		"hits":   s.hits.Load(),
		"misses": s.misses.Load(),
		"errors": s.errors.Load(),
	}
}

func (s *CachedTaskService) invalidateTask(id uuid.UUID) {
	_ = s.cache.Delete(taskKey(id))
	s.invalidateLists()
}

func (s *CachedTaskService) invalidateLists() {
	_ = s.cache.Delete("tasks:all")
	_ = s.cache.DeletePattern("tasks:assigned:*")
}

func taskKey(id uuid.UUID) string {
	return fmt.Sprintf("task:%s", id.String())
}

func listKey(filter TaskFilter) string {
	if filter.AssignedTo != nil {
		return fmt.Sprintf("tasks:assigned:%s", filter.AssignedTo.String())
	}
	return "tasks:all"
}
