package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/rankpulse/internal/core/domain"
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run scheduled tasks",
}

var scheduleRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the scheduler",
	Long: `Runs the daily report task shortly after the configured target hour,
saving and ingesting each report. Runs until interrupted unless --once is
given, in which case only tasks that are already due run.`,
	Args: cobra.NoArgs,
	RunE: runScheduleRun,
}

var scheduleStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show scheduled tasks and recent runs",
	Args:  cobra.NoArgs,
	RunE:  runScheduleStatus,
}

var (
	scheduleOnce bool
	statusRuns   int
)

func init() {
	scheduleRunCmd.Flags().BoolVar(&scheduleOnce, "once", false, "run due tasks once and exit")
	scheduleStatusCmd.Flags().IntVarP(&statusRuns, "runs", "n", 10, "number of recent runs to show")
	scheduleCmd.AddCommand(scheduleRunCmd, scheduleStatusCmd)
	rootCmd.AddCommand(scheduleCmd)
}

func runScheduleRun(cmd *cobra.Command, _ []string) error {
	if scheduler == nil {
		return errors.New("scheduler not configured")
	}
	ctx := cmd.Context()

	if scheduleOnce {
		if err := scheduler.RunDue(ctx); err != nil {
			return fmt.Errorf("scheduled run failed: %w", err)
		}
		cmd.Println("Due tasks complete.")
		return nil
	}

	cmd.Println("Scheduler running. Press Ctrl+C to stop.")
	defer func() {
		if err := scheduler.Stop(); err != nil {
			cmd.PrintErrf("scheduler stop error: %v\n", err)
		}
	}()
	if err := scheduler.Start(ctx); err != nil && !errors.Is(err, ctx.Err()) {
		return fmt.Errorf("scheduler stopped: %w", err)
	}
	return nil
}

func runScheduleStatus(cmd *cobra.Command, _ []string) error {
	if scheduler == nil {
		return errors.New("scheduler not configured")
	}
	ctx := cmd.Context()
	loc := reportLocation()

	tasks, err := scheduler.Tasks(ctx)
	if err != nil {
		return fmt.Errorf("listing tasks: %w", err)
	}
	if len(tasks) == 0 {
		cmd.Println("No scheduled tasks yet. Run 'rankpulse schedule run' to create them.")
	}
	for _, t := range tasks {
		state := "enabled"
		if !t.Enabled {
			state = "disabled"
		}
		cmd.Printf("%s (%s, %s)\n", t.Name, t.ID, state)
		cmd.Printf("  Next run:     %s\n", formatStamp(t.NextRun, loc))
		cmd.Printf("  Last run:     %s\n", formatStamp(t.LastRun, loc))
		cmd.Printf("  Last success: %s\n", formatStamp(t.LastSuccess, loc))
		if t.LastError != "" {
			cmd.Printf("  Last error:   %s\n", t.LastError)
		}
	}

	runs, err := scheduler.Runs(ctx, statusRuns)
	if err != nil {
		return fmt.Errorf("listing runs: %w", err)
	}
	if len(runs) == 0 {
		return nil
	}
	cmd.Println()
	cmd.Println("Recent runs:")
	for _, r := range runs {
		cmd.Printf("  %s  %s\n", formatStamp(r.StartedAt, loc), describeRun(r))
	}
	return nil
}

func describeRun(r domain.TaskRun) string {
	took := r.Duration().Round(time.Second)
	if !r.Succeeded() {
		return fmt.Sprintf("FAILED %s (%s)", r.Error, took)
	}
	if r.DocID == "" {
		return fmt.Sprintf("ok %s (%s)", r.TaskID, took)
	}
	return fmt.Sprintf("ok %s, %d chunks (%s)", r.DocID, r.ChunkCount, took)
}

func formatStamp(t time.Time, loc *time.Location) string {
	if t.IsZero() {
		return "never"
	}
	return t.In(loc).Format("2006-01-02 15:04 MST")
}

// reportLocation is the configured report timezone, or UTC.
func reportLocation() *time.Location {
	if settingsService != nil {
		if s, err := settingsService.Get(); err == nil {
			return s.Report.Location()
		}
	}
	return time.UTC
}
