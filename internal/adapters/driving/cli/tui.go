package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"runtime/debug"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/rankpulse/internal/adapters/driving/tui"
	"github.com/custodia-labs/rankpulse/internal/logger"
)

var tuiWithScheduler bool

// tuiCmd represents the tui command.
var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch the interactive terminal UI",
	Long: `Launch the interactive terminal user interface for rankpulse.

The TUI lets you search stored reports, browse them by type, read them in
full and preview today's evidence before the daily report is written.

Controls:
  ↑/k, ↓/j - Navigate
  Enter    - Search / Open
  Tab      - Cycle report type filter
  r        - Reload
  Esc      - Back / Cancel
  ?        - Toggle help
  q        - Quit`,
	RunE: runTUI,
}

func init() {
	tuiCmd.Flags().BoolVar(&tuiWithScheduler, "scheduler", false, "run the scheduler in the background")
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, _ []string) error {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Panic in TUI: %v\n", r)
			fmt.Fprintf(os.Stderr, "Stack trace:\n%s\n", debug.Stack())
		}
	}()

	ports := tui.NewPorts(retrievalService, documentService, reportService)
	ports.Clipboard = clipboard
	ports.MinSimilarity = ragSettings().MinSimilarity
	app, err := tui.NewApp(ports)
	if err != nil {
		return fmt.Errorf("failed to create TUI: %w", err)
	}

	ctx := cmd.Context()
	if tuiWithScheduler && scheduler != nil {
		schedulerCtx, schedulerCancel := context.WithCancel(ctx)
		defer schedulerCancel()

		go func() {
			if err := scheduler.Start(schedulerCtx); err != nil && schedulerCtx.Err() == nil {
				logger.Warn("scheduler stopped: %v", err)
			}
		}()
		defer func() {
			if err := scheduler.Stop(); err != nil {
				logger.Warn("scheduler stop error: %v", err)
			}
		}()
	}

	// The TUI owns the terminal, so log lines would corrupt the screen.
	logger.SetOutput(io.Discard)
	defer logger.SetOutput(os.Stderr)

	if err := app.WithContext(ctx).Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
