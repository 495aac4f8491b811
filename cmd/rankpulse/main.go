// Command rankpulse writes daily ranking reports and serves retrieval over
// past reports.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	_ "time/tzdata"

	"github.com/joho/godotenv"

	"github.com/custodia-labs/rankpulse/internal/adapters/driven/ai"
	"github.com/custodia-labs/rankpulse/internal/adapters/driven/config/file"
	"github.com/custodia-labs/rankpulse/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/rankpulse/internal/adapters/driving/cli"
	"github.com/custodia-labs/rankpulse/internal/core/services"
	"github.com/custodia-labs/rankpulse/internal/logger"
	"github.com/custodia-labs/rankpulse/internal/postprocessors"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	loadEnv()

	configStore, err := file.NewConfigStore("")
	if err != nil {
		return report(fmt.Errorf("opening config: %w", err))
	}
	settingsService := services.NewSettingsService(configStore, ai.NewConfigValidator())
	settings, err := settingsService.Get()
	if err != nil {
		logger.Warn("settings: %v, using defaults", err)
		d := settingsService.GetDefaults()
		settings = &d
	}

	store, err := sqlite.NewStore("")
	if err != nil {
		return report(fmt.Errorf("opening store: %w", err))
	}
	defer store.Close()

	// Unconfigured providers leave the services nil; commands that need them
	// fail with ErrEmbeddingUnavailable or ErrLLMUnavailable.
	aiServices, err := ai.Build(*settings)
	if err != nil {
		logger.Warn("AI providers unavailable: %v", err)
		aiServices = &ai.Services{}
	}
	defer aiServices.Close()

	prompts, err := file.NewPromptStore("")
	if err != nil {
		return report(fmt.Errorf("opening prompts: %w", err))
	}

	reports := store.ReportStore()
	snapshots := store.SnapshotStore()

	retrieval := services.NewRetrievalService(reports, aiServices.Embedding, settings.RAG)
	documents := services.NewDocumentService(reports, aiServices.Embedding, postprocessors.NewFactory(settings.Pipeline))
	analyzer := services.NewAnalyzerService(snapshots, settings.Analytics)
	risk := services.NewRiskSelectorService(snapshots, settings.Analytics)
	reportService := services.NewReportService(
		documents, retrieval, analyzer, risk, aiServices.LLM, prompts, *settings,
	)
	chat := services.NewChatService(retrieval, aiServices.LLM, prompts, *settings)
	scheduler := services.NewScheduler(
		settingsService.GetSchedulerConfig(), store.SchedulerStore(), reportService, settings.Report.Location(),
	)

	cli.SetVersion(version)
	cli.SetServices(cli.Services{
		Retrieval: retrieval,
		Documents: documents,
		Reports:   reportService,
		Chat:      chat,
		Settings:  settingsService,
		Scheduler: scheduler,
		Snapshots: store.SnapshotWriter(),
		Clipboard: services.NewClipboardService(),
	})

	return cli.Execute(ctx)
}

// loadEnv reads .env from the working directory, then ~/.rankpulse/.env.
// Variables already set in the environment win.
func loadEnv() {
	paths := []string{".env"}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".rankpulse", ".env"))
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			logger.Warn("loading %s: %v", p, err)
		}
	}
}

// report prints a startup error the way cobra prints command errors.
func report(err error) error {
	fmt.Fprintln(os.Stderr, "Error:", err)
	return err
}
