package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/rankpulse/internal/core/domain"
	"github.com/custodia-labs/rankpulse/internal/core/ports/driven"
	"github.com/custodia-labs/rankpulse/internal/core/ports/driving"
)

// --- Mock implementations for scheduler testing ---

// mockSchedulerStore implements driven.SchedulerStore for testing.
type mockSchedulerStore struct {
	mu       sync.RWMutex
	tasks    map[string]*domain.ScheduledTask
	runs     []domain.TaskRun
	saveErr  error
	listErr  error
	getErr   error
	pruneErr error
}

func newMockSchedulerStore() *mockSchedulerStore {
	return &mockSchedulerStore{
		tasks: make(map[string]*domain.ScheduledTask),
	}
}

func (m *mockSchedulerStore) GetTask(_ context.Context, taskID string) (*domain.ScheduledTask, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	task, exists := m.tasks[taskID]
	if !exists {
		return nil, nil
	}
	taskCopy := *task
	return &taskCopy, nil
}

func (m *mockSchedulerStore) ListTasks(_ context.Context) ([]domain.ScheduledTask, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	tasks := make([]domain.ScheduledTask, 0, len(m.tasks))
	for _, t := range m.tasks {
		tasks = append(tasks, *t)
	}
	return tasks, nil
}

func (m *mockSchedulerStore) SaveTask(_ context.Context, task *domain.ScheduledTask) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	if task == nil {
		return domain.ErrInvalidInput
	}
	taskCopy := *task
	m.tasks[task.ID] = &taskCopy
	return nil
}

func (m *mockSchedulerStore) DeleteTask(_ context.Context, taskID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tasks, taskID)
	return nil
}

func (m *mockSchedulerStore) RecordRun(_ context.Context, run *domain.TaskRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if run == nil {
		return domain.ErrInvalidInput
	}
	m.runs = append(m.runs, *run)
	return nil
}

// RecentRuns walks the log backwards so the newest run comes first.
func (m *mockSchedulerStore) RecentRuns(_ context.Context, taskID string, limit int) ([]domain.TaskRun, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []domain.TaskRun
	for i := len(m.runs) - 1; i >= 0 && len(out) < limit; i-- {
		if taskID == "" || m.runs[i].TaskID == taskID {
			out = append(out, m.runs[i])
		}
	}
	return out, nil
}

func (m *mockSchedulerStore) PruneRuns(_ context.Context, _ int) error {
	return m.pruneErr
}

// mockReportService implements driving.ReportService for testing.
type mockReportService struct {
	mu     sync.Mutex
	calls  int
	inputs []domain.DailyReportInput
	result domain.DailyReportResult
	block  chan struct{}
}

func (m *mockReportService) GenerateDaily(_ context.Context, in domain.DailyReportInput) domain.DailyReportResult {
	if m.block != nil {
		<-m.block
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.inputs = append(m.inputs, in)
	return m.result
}

func (m *mockReportService) BuildEvidence(_ context.Context, _ domain.DailyReportInput) (*domain.Evidence, error) {
	return &domain.Evidence{}, nil
}

func (m *mockReportService) GenerateCustom(_ context.Context, _ domain.CustomReportInput) (*domain.CustomReportResult, error) {
	return nil, domain.ErrNotImplemented
}

func (m *mockReportService) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Ensure mocks implement interfaces
var _ driven.SchedulerStore = (*mockSchedulerStore)(nil)
var _ driving.ReportService = (*mockReportService)(nil)

// schedulerNow is 09:00 in Seoul on 2025-03-15.
var schedulerNow = time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)

func newTestScheduler(reports driving.ReportService) (*Scheduler, *mockSchedulerStore) {
	seoul, _ := time.LoadLocation("Asia/Seoul")
	store := newMockSchedulerStore()
	s := NewScheduler(domain.DefaultSchedulerConfig(11), store, reports, seoul)
	s.now = func() time.Time { return schedulerNow }
	return s, store
}

// ==================== Scheduler Tests ====================

func TestNewScheduler(t *testing.T) {
	s := NewScheduler(domain.DefaultSchedulerConfig(11), newMockSchedulerStore(), nil, nil)

	require.NotNil(t, s)
	assert.True(t, s.config.Enabled)
	assert.Equal(t, time.UTC, s.loc)
}

func TestScheduler_StartStop(t *testing.T) {
	s, _ := newTestScheduler(&mockReportService{})

	ctx, cancel := context.WithCancel(context.Background())

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = s.Start(ctx)
	}()

	time.Sleep(50 * time.Millisecond)

	cancel()
	require.NoError(t, s.Stop())
	wg.Wait()
}

func TestScheduler_StopWithoutStart(t *testing.T) {
	s, _ := newTestScheduler(nil)
	require.NoError(t, s.Stop())
}

func TestScheduler_DoubleStart(t *testing.T) {
	s, _ := newTestScheduler(&mockReportService{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = s.Start(ctx)
	}()

	time.Sleep(50 * time.Millisecond)

	// Second start returns immediately.
	assert.NoError(t, s.Start(context.Background()))

	cancel()
	s.Stop() //nolint:errcheck
	wg.Wait()
}

func TestScheduler_InitialiseTasks(t *testing.T) {
	s, store := newTestScheduler(nil)
	ctx := context.Background()

	require.NoError(t, s.initialiseTasks(ctx))

	task, err := store.GetTask(ctx, domain.TaskIDDailyReport)
	require.NoError(t, err)
	require.NotNil(t, task)
	assert.Equal(t, "Daily Report", task.Name)
	assert.True(t, task.Enabled)
	// 11:10 Seoul time on the same day.
	assert.True(t, task.NextRun.Equal(time.Date(2025, 3, 15, 2, 10, 0, 0, time.UTC)), task.NextRun)
}

func TestScheduler_InitialiseTasks_Disabled(t *testing.T) {
	s, store := newTestScheduler(nil)
	s.config.Enabled = false

	require.NoError(t, s.initialiseTasks(context.Background()))
	assert.Empty(t, store.tasks)
}

func TestScheduler_EnsureTask_UpdateInterval(t *testing.T) {
	s, store := newTestScheduler(nil)
	ctx := context.Background()

	taskCfg := domain.TaskConfig{Enabled: true, Interval: time.Hour}
	require.NoError(t, s.ensureTask(ctx, "test-task", "Test Task", taskCfg))

	taskCfg.Interval = 2 * time.Hour
	require.NoError(t, s.ensureTask(ctx, "test-task", "Test Task", taskCfg))

	task, err := store.GetTask(ctx, "test-task")
	require.NoError(t, err)
	assert.Equal(t, 2*time.Hour, task.Interval)
	assert.True(t, task.NextRun.Equal(schedulerNow.Add(2*time.Hour)))
}

func TestScheduler_RunDue(t *testing.T) {
	reports := &mockReportService{result: domain.DailyReportResult{
		OK: true, DocID: "daily_2025-03-15", ReportDate: "2025-03-15", ChunkCount: 4,
	}}
	s, store := newTestScheduler(reports)
	ctx := context.Background()

	require.NoError(t, store.SaveTask(ctx, &domain.ScheduledTask{
		ID:       domain.TaskIDDailyReport,
		Name:     "Daily Report",
		Interval: 24 * time.Hour,
		NextRun:  schedulerNow.Add(-time.Minute),
		Enabled:  true,
	}))

	require.NoError(t, s.RunDue(ctx))

	require.Equal(t, 1, reports.callCount())
	assert.Equal(t, domain.DailyReportInput{TargetHour: -1, Save: true}, reports.inputs[0])

	task, err := store.GetTask(ctx, domain.TaskIDDailyReport)
	require.NoError(t, err)
	assert.Empty(t, task.LastError)
	assert.True(t, task.LastSuccess.Equal(schedulerNow))
	assert.True(t, task.NextRun.Equal(time.Date(2025, 3, 15, 2, 10, 0, 0, time.UTC)))

	runs, err := s.Runs(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.True(t, runs[0].Succeeded())
	assert.Equal(t, "daily_2025-03-15", runs[0].DocID)
	assert.Equal(t, "2025-03-15", runs[0].ReportDate)
	assert.Equal(t, 4, runs[0].ChunkCount)
}

func TestScheduler_RunDue_RecordsFailure(t *testing.T) {
	reports := &mockReportService{result: domain.DailyReportResult{
		ReportDate: "2025-03-15", Error: "rule document missing or empty",
	}}
	s, store := newTestScheduler(reports)
	ctx := context.Background()

	require.NoError(t, store.SaveTask(ctx, &domain.ScheduledTask{
		ID: domain.TaskIDDailyReport, Enabled: true, Interval: 24 * time.Hour,
	}))

	require.NoError(t, s.RunDue(ctx))

	task, err := store.GetTask(ctx, domain.TaskIDDailyReport)
	require.NoError(t, err)
	assert.Equal(t, "rule document missing or empty", task.LastError)
	assert.True(t, task.LastSuccess.IsZero())
	runs, err := store.RecentRuns(ctx, domain.TaskIDDailyReport, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "rule document missing or empty", runs[0].Error)
	assert.Equal(t, "2025-03-15", runs[0].ReportDate)
	assert.Empty(t, runs[0].DocID)
}

func TestScheduler_RunDue_NotDue(t *testing.T) {
	reports := &mockReportService{result: domain.DailyReportResult{OK: true}}
	s, _ := newTestScheduler(reports)

	// Initialisation schedules the first run for 11:10, after now.
	require.NoError(t, s.RunDue(context.Background()))
	assert.Equal(t, 0, reports.callCount())
}

func TestScheduler_RunTask_SkipsWhileRunning(t *testing.T) {
	reports := &mockReportService{result: domain.DailyReportResult{OK: true}, block: make(chan struct{})}
	s, _ := newTestScheduler(reports)
	ctx := context.Background()
	task := &domain.ScheduledTask{ID: domain.TaskIDDailyReport, Enabled: true}

	s.runTask(ctx, task)
	s.runTask(ctx, task)
	close(reports.block)
	s.wg.Wait()

	assert.Equal(t, 1, reports.callCount())
}

func TestScheduler_RunTask_UnknownTaskID(t *testing.T) {
	s, _ := newTestScheduler(nil)

	s.runTask(context.Background(), &domain.ScheduledTask{ID: "unknown-task", Enabled: true})
	s.wg.Wait()
}

func TestScheduler_RunTask_NoReportService(t *testing.T) {
	s, store := newTestScheduler(nil)
	ctx := context.Background()

	s.runTask(ctx, &domain.ScheduledTask{ID: domain.TaskIDDailyReport, Enabled: true, Interval: 24 * time.Hour})
	s.wg.Wait()

	runs, err := store.RecentRuns(ctx, "", 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.False(t, runs[0].Succeeded())
}

func TestScheduler_Tasks(t *testing.T) {
	s, _ := newTestScheduler(nil)
	ctx := context.Background()
	require.NoError(t, s.initialiseTasks(ctx))

	tasks, err := s.Tasks(ctx)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, domain.TaskIDDailyReport, tasks[0].ID)
}

func TestScheduler_Runs_NewestFirst(t *testing.T) {
	s, store := newTestScheduler(nil)
	ctx := context.Background()
	for _, date := range []string{"2025-03-13", "2025-03-14", "2025-03-15"} {
		require.NoError(t, store.RecordRun(ctx, &domain.TaskRun{TaskID: domain.TaskIDDailyReport, ReportDate: date}))
	}

	runs, err := s.Runs(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "2025-03-15", runs[0].ReportDate)
	assert.Equal(t, "2025-03-14", runs[1].ReportDate)
}
