package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/custodia-labs/rankpulse/internal/core/domain"
	"github.com/custodia-labs/rankpulse/internal/core/ports/driven"
	"github.com/custodia-labs/rankpulse/internal/core/ports/driving"
	"github.com/custodia-labs/rankpulse/internal/logger"
)

// Ensure Scheduler implements the interface.
var _ driving.Scheduler = (*Scheduler)(nil)

// runsKept is the number of runs retained per task.
const runsKept = 100

// Scheduler runs background tasks such as the daily report.
// A task never overlaps with itself, so two daily runs for the same date
// cannot race through the upsert and reingest.
type Scheduler struct {
	config  domain.SchedulerConfig
	store   driven.SchedulerStore
	reports driving.ReportService
	loc     *time.Location

	tick time.Duration
	now  func() time.Time

	mu       sync.Mutex
	running  bool
	inFlight map[string]bool
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

// NewScheduler creates a scheduler. Daily tasks are aligned in loc.
func NewScheduler(
	config domain.SchedulerConfig,
	store driven.SchedulerStore,
	reports driving.ReportService,
	loc *time.Location,
) *Scheduler {
	if loc == nil {
		loc = time.UTC
	}
	return &Scheduler{
		config:   config,
		store:    store,
		reports:  reports,
		loc:      loc,
		tick:     time.Minute,
		now:      time.Now,
		inFlight: make(map[string]bool),
	}
}

// Start begins the scheduler loop. This method blocks until Stop is called
// or the context is cancelled.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.mu.Unlock()

	if !s.config.Enabled {
		logger.Info("Scheduler disabled by configuration")
	}
	if err := s.initialiseTasks(ctx); err != nil {
		logger.Warn("scheduler: failed to initialise tasks: %v", err)
	}

	return s.run(ctx)
}

// Stop gracefully shuts down the scheduler and waits for running tasks.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	close(s.stopCh)
	s.mu.Unlock()

	s.wg.Wait()
	return nil
}

// RunDue runs every task that is due and waits for them to finish.
func (s *Scheduler) RunDue(ctx context.Context) error {
	if err := s.initialiseTasks(ctx); err != nil {
		return err
	}
	s.checkAndRunDueTasks(ctx)
	s.wg.Wait()
	return nil
}

// initialiseTasks ensures all configured tasks exist in the store.
func (s *Scheduler) initialiseTasks(ctx context.Context) error {
	if !s.config.Enabled {
		return nil
	}
	if taskCfg := s.config.GetTaskConfig(domain.TaskIDDailyReport); taskCfg.Enabled {
		if err := s.ensureTask(ctx, domain.TaskIDDailyReport, "Daily Report", taskCfg); err != nil {
			return err
		}
	}
	return nil
}

// ensureTask creates or updates a task in the store.
func (s *Scheduler) ensureTask(ctx context.Context, id, name string, cfg domain.TaskConfig) error {
	task, err := s.store.GetTask(ctx, id)
	if err != nil {
		return err
	}

	now := s.now().In(s.loc)
	if task == nil {
		task = &domain.ScheduledTask{
			ID:       id,
			Name:     name,
			Interval: cfg.Interval,
			Enabled:  cfg.Enabled,
			NextRun:  cfg.NextRun(now),
		}
	} else {
		if task.Interval != cfg.Interval {
			task.Interval = cfg.Interval
			task.NextRun = cfg.NextRun(now)
		}
		task.Enabled = cfg.Enabled
	}

	return s.store.SaveTask(ctx, task)
}

// run is the main scheduler loop.
func (s *Scheduler) run(ctx context.Context) error {
	s.checkAndRunDueTasks(ctx)

	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.stopCh:
			return nil
		case <-ticker.C:
			s.checkAndRunDueTasks(ctx)
		}
	}
}

// checkAndRunDueTasks starts tasks whose next run has passed.
func (s *Scheduler) checkAndRunDueTasks(ctx context.Context) {
	if !s.config.Enabled {
		return
	}
	tasks, err := s.store.ListTasks(ctx)
	if err != nil {
		logger.Warn("scheduler: failed to list tasks: %v", err)
		return
	}

	now := s.now()
	for i := range tasks {
		task := tasks[i]
		if !task.Enabled {
			continue
		}
		if task.NextRun.IsZero() || !task.NextRun.After(now) {
			s.runTask(ctx, &task)
		}
	}
}

// runTask executes a single task in the background unless it is already running.
func (s *Scheduler) runTask(ctx context.Context, task *domain.ScheduledTask) {
	s.mu.Lock()
	if s.inFlight[task.ID] {
		s.mu.Unlock()
		logger.Debug("scheduler: %s still running, skipping", task.ID)
		return
	}
	s.inFlight[task.ID] = true
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer func() {
			s.mu.Lock()
			delete(s.inFlight, task.ID)
			s.mu.Unlock()
		}()

		run := &domain.TaskRun{TaskID: task.ID, StartedAt: s.now()}

		var err error
		switch task.ID {
		case domain.TaskIDDailyReport:
			err = s.runDailyReport(ctx, run)
		default:
			logger.Warn("scheduler: unknown task ID: %s", task.ID)
			return
		}

		run.EndedAt = s.now()
		task.LastRun = run.StartedAt
		if err != nil {
			logger.Error("scheduler: %s failed: %v", task.ID, err)
			run.Error = err.Error()
			task.LastError = run.Error
		} else {
			task.LastError = ""
			task.LastSuccess = run.EndedAt
		}

		cfg := s.config.GetTaskConfig(task.ID)
		if cfg.Interval == 0 && cfg.DailyAt == nil {
			cfg.Interval = task.Interval
		}
		task.NextRun = cfg.NextRun(run.EndedAt.In(s.loc))

		if err := s.store.SaveTask(ctx, task); err != nil {
			logger.Warn("scheduler: failed to save task %s: %v", task.ID, err)
		}
		if err := s.store.RecordRun(ctx, run); err != nil {
			logger.Warn("scheduler: failed to record run of %s: %v", task.ID, err)
		}
		if err := s.store.PruneRuns(ctx, runsKept); err != nil {
			logger.Warn("scheduler: failed to prune runs: %v", err)
		}
	}()
}

// runDailyReport generates and saves today's report, noting what it saved on run.
func (s *Scheduler) runDailyReport(ctx context.Context, run *domain.TaskRun) error {
	if s.reports == nil {
		return errors.New("report service not configured")
	}
	res := s.reports.GenerateDaily(ctx, domain.DailyReportInput{TargetHour: -1, Save: true})
	run.ReportDate = res.ReportDate
	if !res.OK {
		return errors.New(res.Error)
	}
	run.DocID = res.DocID
	run.ChunkCount = res.ChunkCount
	logger.Info("scheduler: daily report %s saved (%d chunks)", res.DocID, res.ChunkCount)
	return nil
}

// Tasks returns the stored task state.
func (s *Scheduler) Tasks(ctx context.Context) ([]domain.ScheduledTask, error) {
	return s.store.ListTasks(ctx)
}

// Runs returns the newest runs across all tasks.
func (s *Scheduler) Runs(ctx context.Context, limit int) ([]domain.TaskRun, error) {
	return s.store.RecentRuns(ctx, "", limit)
}
