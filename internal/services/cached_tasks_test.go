package services_test

import (
	"testing"
	"time"

	"tasktrack/backend/internal/cache"
	"tasktrack/backend/internal/models"
	"tasktrack/backend/internal/services"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// countingTaskService records how many times each read reached the
// backing store.
type countingTaskService struct {
	getCalls  int
	listCalls int
	task      models.TaskWithUsers
}

func (c *countingTaskService) CreateTask(db *gorm.DB, actor models.Identity, input services.TaskCreateInput) (models.TaskWithUsers, error) {
	return c.task, nil
}

func (c *countingTaskService) UpdateTask(db *gorm.DB, actor models.Identity, id uuid.UUID, patch services.TaskPatch) (models.TaskWithUsers, error) {
	return c.task, nil
}

func (c *countingTaskService) CompleteTask(db *gorm.DB, actor models.Identity, id uuid.UUID) (models.TaskWithUsers, error) {
	return c.task, nil
}

func (c *countingTaskService) DeleteTask(db *gorm.DB, actor models.Identity, id uuid.UUID) error {
	return nil
}

func (c *countingTaskService) GetTaskByID(db *gorm.DB, id uuid.UUID) (models.TaskWithUsers, error) {
	c.getCalls++
	return c.task, nil
}

func (c *countingTaskService) ListTasks(db *gorm.DB, filter services.TaskFilter) ([]models.TaskWithUsers, error) {
	c.listCalls++
	return []models.TaskWithUsers{c.task}, nil
}

func newCachedFixture(t *testing.T) (*services.CachedTaskService, *countingTaskService, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	redisCache := cache.NewRedisCache(&cache.CacheConfig{
		Addr:         mr.Addr(),
		PoolSize:     2,
		DialTimeout:  time.Second,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
	})
	t.Cleanup(func() { redisCache.Close() })

	inner := &countingTaskService{
		task: models.TaskWithUsers{
			Task: models.Task{
				ID:        uuid.Must(uuid.NewV4()),
				Title:     "Cached task",
				Status:    models.StatusPending,
				Priority:  models.PriorityMedium,
				CreatedBy: uuid.Must(uuid.NewV4()),
			},
			CreatorName: "alice",
		},
	}

	return services.NewCachedTaskService(inner, redisCache), inner, mr
}

func TestCachedGetServesSecondReadFromCache(t *testing.T) {
	cached, inner, _ := newCachedFixture(t)

	first, err := cached.GetTaskByID(nil, inner.task.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, inner.getCalls)

	second, err := cached.GetTaskByID(nil, inner.task.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, inner.getCalls, "second read should be a cache hit")
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.Title, second.Title)

	stats := cached.Stats()
	assert.Equal(t, int64(1), stats["hits"])
	assert.Equal(t, int64(1), stats["misses"])
}

func TestCachedListServesSecondReadFromCache(t *testing.T) {
	cached, inner, _ := newCachedFixture(t)

	_, err := cached.ListTasks(nil, services.TaskFilter{})
	require.NoError(t, err)
	_, err = cached.ListTasks(nil, services.TaskFilter{})
	require.NoError(t, err)

	assert.Equal(t, 1, inner.listCalls)
}

func TestCachedListKeysDifferByFilter(t *testing.T) {
	cached, inner, _ := newCachedFixture(t)
	assignee := uuid.Must(uuid.NewV4())

	_, err := cached.ListTasks(nil, services.TaskFilter{})
	require.NoError(t, err)
	_, err = cached.ListTasks(nil, services.TaskFilter{AssignedTo: &assignee})
	require.NoError(t, err)

	assert.Equal(t, 2, inner.listCalls, "distinct filters must not share a cache entry")
}

func TestCachedMutationInvalidates(t *testing.T) {
	cached, inner, _ := newCachedFixture(t)
	actor := models.Identity{ID: inner.task.CreatedBy}

	_, err := cached.GetTaskByID(nil, inner.task.ID)
	require.NoError(t, err)
	_, err = cached.ListTasks(nil, services.TaskFilter{})
	require.NoError(t, err)

	_, err = cached.CompleteTask(nil, actor, inner.task.ID)
	require.NoError(t, err)

	_, err = cached.GetTaskByID(nil, inner.task.ID)
	require.NoError(t, err)
	_, err = cached.ListTasks(nil, services.TaskFilter{})
	require.NoError(t, err)

	assert.Equal(t, 2, inner.getCalls, "completion should evict the task entry")
	assert.Equal(t, 2, inner.listCalls, "completion should evict list entries")
}

func TestCachedDeleteInvalidates(t *testing.T) {
	cached, inner, _ := newCachedFixture(t)
	actor := models.Identity{ID: inner.task.CreatedBy}

	_, err := cached.GetTaskByID(nil, inner.task.ID)
	require.NoError(t, err)

	require.NoError(t, cached.DeleteTask(nil, actor, inner.task.ID))

	_, err = cached.GetTaskByID(nil, inner.task.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, inner.getCalls)
}

func TestCachedFallsBackWhenRedisDown(t *testing.T) {
	cached, inner, mr := newCachedFixture(t)
	mr.Close()

	task, err := cached.GetTaskByID(nil, inner.task.ID)
	require.NoError(t, err, "cache outage must not fail reads")
	assert.Equal(t, inner.task.ID, task.ID)
	assert.Equal(t, 1, inner.getCalls)
}
