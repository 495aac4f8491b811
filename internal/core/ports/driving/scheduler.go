package driving

import (
	"context"

	"github.com/custodia-labs/rankpulse/internal/core/domain"
)

// Scheduler runs background tasks such as the daily report.
type Scheduler interface {
	// Start blocks until ctx is cancelled or Stop is called.
	Start(ctx context.Context) error

	// Stop waits for in-flight runs to finish.
	Stop() error

	// RunDue runs every task that is due once and waits for it.
	RunDue(ctx context.Context) error

	// Tasks returns the stored task state.
	Tasks(ctx context.Context) ([]domain.ScheduledTask, error)

	// Runs returns the newest runs across all tasks.
	Runs(ctx context.Context, limit int) ([]domain.TaskRun, error)
}
