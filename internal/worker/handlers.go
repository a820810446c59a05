package worker

import (
	"context"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// TaskReminderHandler announces a due task. Delivery beyond the log is an
// external collaborator's concern; the handler exists to drain the
// reminders queue the lifecycle service fills.
func TaskReminderHandler(ctx context.Context, job *Job) error {
	taskID, _ := job.Payload["task_id"].(string)
	title, _ := job.Payload["title"].(string)
	dueDate, _ := job.Payload["due_date"].(string)

	log.Printf("Reminder: task %s (%q) is due %s", taskID, title, dueDate)
	return nil
}

// NewCleanupHandler trims the dead queue so permanently failed jobs do not
// accumulate without bound.
func NewCleanupHandler(client *redis.Client, keep int64) JobHandler {
	return func(ctx context.Context, job *Job) error {
		cleanupCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()

		return client.LTrim(cleanupCtx, deadQueue, -keep, -1).Err()
	}
}
