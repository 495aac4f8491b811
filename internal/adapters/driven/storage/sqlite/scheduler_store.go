package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/rankpulse/internal/core/domain"
	"github.com/custodia-labs/rankpulse/internal/core/ports/driven"
)

// schedulerStore implements driven.SchedulerStore over scheduled_tasks and
// task_runs.
type schedulerStore struct {
	store *Store
}

var _ driven.SchedulerStore = (*schedulerStore)(nil)

const taskColumns = `id, name, interval_seconds, last_run, next_run, last_error, last_success, enabled`

const runColumns = `task_id, started_at, ended_at, error, doc_id, report_date, chunk_count`

func (s *schedulerStore) GetTask(ctx context.Context, taskID string) (*domain.ScheduledTask, error) {
	row := s.store.db.QueryRowContext(ctx,
		`SELECT `+taskColumns+` FROM scheduled_tasks WHERE id = ?`, taskID)
	task, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return task, err
}

func (s *schedulerStore) ListTasks(ctx context.Context) ([]domain.ScheduledTask, error) {
	rows, err := s.store.db.QueryContext(ctx,
		`SELECT `+taskColumns+` FROM scheduled_tasks ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("listing tasks: %w", err)
	}
	defer rows.Close()

	var tasks []domain.ScheduledTask
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *task)
	}
	return tasks, rows.Err()
}

func (s *schedulerStore) SaveTask(ctx context.Context, task *domain.ScheduledTask) error {
	if task == nil || task.ID == "" {
		return domain.ErrInvalidInput
	}
	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO scheduled_tasks (`+taskColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			interval_seconds = excluded.interval_seconds,
			last_run = excluded.last_run,
			next_run = excluded.next_run,
			last_error = excluded.last_error,
			last_success = excluded.last_success,
			enabled = excluded.enabled`,
		task.ID, task.Name, int64(task.Interval/time.Second),
		optionalTime(task.LastRun), optionalTime(task.NextRun),
		optionalText(task.LastError), optionalTime(task.LastSuccess),
		boolToInt(task.Enabled))
	if err != nil {
		return fmt.Errorf("saving task %s: %w", task.ID, err)
	}
	return nil
}

func (s *schedulerStore) DeleteTask(ctx context.Context, taskID string) error {
	if _, err := s.store.db.ExecContext(ctx, `DELETE FROM scheduled_tasks WHERE id = ?`, taskID); err != nil {
		return fmt.Errorf("deleting task %s: %w", taskID, err)
	}
	return nil
}

func (s *schedulerStore) RecordRun(ctx context.Context, run *domain.TaskRun) error {
	if run == nil || run.TaskID == "" {
		return domain.ErrInvalidInput
	}
	_, err := s.store.db.ExecContext(ctx,
		`INSERT INTO task_runs (`+runColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.TaskID, formatTime(run.StartedAt), formatTime(run.EndedAt),
		optionalText(run.Error), optionalText(run.DocID), optionalText(run.ReportDate),
		run.ChunkCount)
	if err != nil {
		return fmt.Errorf("recording run of %s: %w", run.TaskID, err)
	}
	return nil
}

func (s *schedulerStore) RecentRuns(ctx context.Context, taskID string, limit int) ([]domain.TaskRun, error) {
	if limit <= 0 {
		return nil, nil
	}
	query := `SELECT ` + runColumns + ` FROM task_runs`
	args := []any{}
	if taskID != "" {
		query += ` WHERE task_id = ?`
		args = append(args, taskID)
	}
	query += ` ORDER BY started_at DESC, id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	runs := make([]domain.TaskRun, 0, limit)
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

func (s *schedulerStore) PruneRuns(ctx context.Context, keep int) error {
	_, err := s.store.db.ExecContext(ctx, `
		DELETE FROM task_runs WHERE id IN (
			SELECT id FROM (
				SELECT id, ROW_NUMBER() OVER (
					PARTITION BY task_id ORDER BY started_at DESC, id DESC
				) AS n FROM task_runs
			) WHERE n > ?
		)`, keep)
	if err != nil {
		return fmt.Errorf("pruning runs: %w", err)
	}
	return nil
}

func scanTask(row rowScanner) (*domain.ScheduledTask, error) {
	var (
		task                                 domain.ScheduledTask
		seconds                              int64
		lastRun, nextRun, lastError, lastSucc sql.NullString
		enabled                              int
	)
	if err := row.Scan(&task.ID, &task.Name, &seconds,
		&lastRun, &nextRun, &lastError, &lastSucc, &enabled); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning task: %w", err)
	}
	task.Interval = time.Duration(seconds) * time.Second
	task.LastError = lastError.String
	task.Enabled = enabled != 0

	var err error
	if task.LastRun, err = parseOptionalTime(lastRun); err != nil {
		return nil, err
	}
	if task.NextRun, err = parseOptionalTime(nextRun); err != nil {
		return nil, err
	}
	if task.LastSuccess, err = parseOptionalTime(lastSucc); err != nil {
		return nil, err
	}
	return &task, nil
}

func scanRun(row rowScanner) (*domain.TaskRun, error) {
	var (
		run                       domain.TaskRun
		started, ended            string
		errMsg, docID, reportDate sql.NullString
	)
	if err := row.Scan(&run.TaskID, &started, &ended,
		&errMsg, &docID, &reportDate, &run.ChunkCount); err != nil {
		return nil, fmt.Errorf("scanning run: %w", err)
	}
	run.Error = errMsg.String
	run.DocID = docID.String
	run.ReportDate = reportDate.String

	var err error
	if run.StartedAt, err = parseTime(started); err != nil {
		return nil, err
	}
	if run.EndedAt, err = parseTime(ended); err != nil {
		return nil, err
	}
	return &run, nil
}

// optionalTime stores the zero time as NULL.
func optionalTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return formatTime(t)
}

func parseOptionalTime(s sql.NullString) (time.Time, error) {
	if !s.Valid || s.String == "" {
		return time.Time{}, nil
	}
	return parseTime(s.String)
}

// optionalText stores the empty string as NULL.
func optionalText(s string) any {
	if s == "" {
		return nil
	}
	return s
}
