// Package cli provides the rankpulse command line interface.
package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/rankpulse/internal/core/ports/driven"
	"github.com/custodia-labs/rankpulse/internal/core/ports/driving"
	"github.com/custodia-labs/rankpulse/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

var (
	verbose bool
	logJSON bool
)

// Services injected by main.
var (
	retrievalService driving.RetrievalService
	documentService  driving.DocumentService
	reportService    driving.ReportService
	chatService      driving.ChatService
	settingsService  driving.SettingsService
	scheduler        driving.Scheduler
	snapshotWriter   driven.SnapshotWriter
	clipboard        driving.ClipboardService
)

// Services holds the driving ports the commands call into.
type Services struct {
	Retrieval driving.RetrievalService
	Documents driving.DocumentService
	Reports   driving.ReportService
	Chat      driving.ChatService
	Settings  driving.SettingsService
	Scheduler driving.Scheduler
	Snapshots driven.SnapshotWriter
	Clipboard driving.ClipboardService
}

// SetServices wires the services used by every command.
func SetServices(s Services) {
	retrievalService = s.Retrieval
	documentService = s.Documents
	reportService = s.Reports
	chatService = s.Chat
	settingsService = s.Settings
	scheduler = s.Scheduler
	snapshotWriter = s.Snapshots
	clipboard = s.Clipboard
}

// SetVersion overrides the reported version.
func SetVersion(v string) {
	version = v
}

var rootCmd = &cobra.Command{
	Use:   "rankpulse",
	Short: "Daily ranking reports with retrieval-augmented context",
	Long: `rankpulse compares marketplace ranking snapshots day over day, selects
products whose reviews need attention and asks an LLM to write the daily
report. Past reports are chunked, embedded and searchable.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
		logger.SetJSON(logJSON)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&logJSON, "log-json", false, "write log records as JSON lines")
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

var (
	errNoRetrieval = errors.New("retrieval service not configured")
	errNoDocuments = errors.New("document service not configured")
	errNoReports   = errors.New("report service not configured")
	errNoSettings  = errors.New("settings service not configured")
)
