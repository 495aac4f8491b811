package driven

import (
	"context"

	"github.com/custodia-labs/rankpulse/internal/core/domain"
)

// SchedulerStore keeps scheduled task state and the run log across restarts.
type SchedulerStore interface {
	// GetTask returns nil and no error if the task does not exist.
	GetTask(ctx context.Context, taskID string) (*domain.ScheduledTask, error)

	// ListTasks returns all tasks ordered by ID.
	ListTasks(ctx context.Context) ([]domain.ScheduledTask, error)

	// SaveTask creates or replaces the task with the same ID.
	SaveTask(ctx context.Context, task *domain.ScheduledTask) error

	DeleteTask(ctx context.Context, taskID string) error

	// RecordRun appends a run to the log.
	RecordRun(ctx context.Context, run *domain.TaskRun) error

	// RecentRuns returns up to limit runs of a task, newest first.
	// An empty taskID returns runs of every task.
	RecentRuns(ctx context.Context, taskID string, limit int) ([]domain.TaskRun, error)

	// PruneRuns keeps the newest keep runs per task and drops the rest.
	PruneRuns(ctx context.Context, keep int) error
}
