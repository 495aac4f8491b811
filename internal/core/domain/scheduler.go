package domain

import "time"

// ScheduledTask represents a recurring background task.
type ScheduledTask struct {
	// ID is the unique identifier for the task.
	ID string

	// Name is a human-readable name for the task.
	Name string

	// Interval defines how often the task should run.
	Interval time.Duration

	// LastRun is when the task last ran.
	LastRun time.Time

	// NextRun is when the task should run next.
	NextRun time.Time

	// LastError contains the last error message, if any.
	LastError string

	// LastSuccess is when the task last completed successfully.
	LastSuccess time.Time

	// Enabled indicates whether the task is active.
	Enabled bool
}

// TaskRun records one execution of a scheduled task.
type TaskRun struct {
	TaskID    string
	StartedAt time.Time
	EndedAt   time.Time

	// Error is empty when the run succeeded.
	Error string

	// Report fields stay empty when the run failed before saving.
	DocID      string
	ReportDate string
	ChunkCount int
}

// Succeeded reports whether the run finished without error.
func (r TaskRun) Succeeded() bool { return r.Error == "" }

// Duration is the wall time the run took.
func (r TaskRun) Duration() time.Duration { return r.EndedAt.Sub(r.StartedAt) }

// SchedulerConfig holds scheduler configuration.
type SchedulerConfig struct {
	// Enabled is the master switch for the scheduler.
	Enabled bool

	// TaskConfigs holds per-task configuration.
	TaskConfigs map[string]TaskConfig
}

// TaskConfig holds configuration for a single task.
type TaskConfig struct {
	// Enabled indicates whether this task should run.
	Enabled bool

	// Interval defines how often the task should run.
	Interval time.Duration

	// DailyAt aligns runs to this offset from local midnight.
	// When set, Interval is ignored.
	DailyAt *time.Duration
}

// NextRun returns the first run time strictly after t.
// Daily tasks are aligned in t's location.
func (c TaskConfig) NextRun(t time.Time) time.Time {
	if c.DailyAt == nil {
		return t.Add(c.Interval)
	}
	next := DateOnly(t).Add(*c.DailyAt)
	for !next.After(t) {
		next = DateOnly(next.AddDate(0, 0, 1)).Add(*c.DailyAt)
	}
	return next
}

// GetTaskConfig returns the configuration for a specific task.
// Returns a zero TaskConfig if the task is not configured.
func (c *SchedulerConfig) GetTaskConfig(taskID string) TaskConfig {
	if c.TaskConfigs == nil {
		return TaskConfig{}
	}
	return c.TaskConfigs[taskID]
}

// DefaultSchedulerConfig runs the daily report shortly after the target hour.
func DefaultSchedulerConfig(targetHour int) SchedulerConfig {
	at := time.Duration(targetHour)*time.Hour + 10*time.Minute
	return SchedulerConfig{
		Enabled: true,
		TaskConfigs: map[string]TaskConfig{
			TaskIDDailyReport: {
				Enabled:  true,
				Interval: 24 * time.Hour,
				DailyAt:  &at,
			},
		},
	}
}

// Task IDs for built-in tasks.
const (
	TaskIDDailyReport = "daily-report"
)
