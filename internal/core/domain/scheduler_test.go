package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDefaultSchedulerConfig(t *testing.T) {
	config := DefaultSchedulerConfig(11)

	assert.True(t, config.Enabled)
	cfg := config.GetTaskConfig(TaskIDDailyReport)
	assert.True(t, cfg.Enabled)
	if assert.NotNil(t, cfg.DailyAt) {
		assert.Equal(t, 11*time.Hour+10*time.Minute, *cfg.DailyAt)
	}
}

func TestSchedulerConfig_GetTaskConfig_NilMap(t *testing.T) {
	config := SchedulerConfig{Enabled: true}

	cfg := config.GetTaskConfig("any-task")
	assert.False(t, cfg.Enabled)
	assert.Equal(t, time.Duration(0), cfg.Interval)
}

func TestTaskConfig_NextRun_Interval(t *testing.T) {
	now := time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC)
	cfg := TaskConfig{Interval: time.Hour}
	assert.Equal(t, now.Add(time.Hour), cfg.NextRun(now))
}

func TestTaskConfig_NextRun_Daily(t *testing.T) {
	loc := time.FixedZone("KST", 9*3600)
	at := 11 * time.Hour
	cfg := TaskConfig{DailyAt: &at}

	before := time.Date(2025, 1, 1, 9, 0, 0, 0, loc)
	assert.Equal(t, time.Date(2025, 1, 1, 11, 0, 0, 0, loc), cfg.NextRun(before))

	exact := time.Date(2025, 1, 1, 11, 0, 0, 0, loc)
	assert.Equal(t, time.Date(2025, 1, 2, 11, 0, 0, 0, loc), cfg.NextRun(exact))

	after := time.Date(2025, 12, 31, 15, 0, 0, 0, loc)
	assert.Equal(t, time.Date(2026, 1, 1, 11, 0, 0, 0, loc), cfg.NextRun(after))
}

func TestTaskRun(t *testing.T) {
	start := time.Date(2025, 1, 31, 11, 10, 0, 0, time.UTC)
	run := TaskRun{StartedAt: start, EndedAt: start.Add(42 * time.Second)}

	assert.True(t, run.Succeeded())
	assert.Equal(t, 42*time.Second, run.Duration())

	run.Error = "llm unavailable"
	assert.False(t, run.Succeeded())
}
