package cli

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/rankpulse/internal/core/domain"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and configure AI providers, retrieval policy and report options.

Settings live in ~/.rankpulse/config.toml. API keys are never stored there;
they are read from the environment variable named by api_key_env.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runSettingsShow,
}

var settingsWizardCmd = &cobra.Command{
	Use:   "wizard",
	Short: "Interactive setup wizard",
	Long:  `Configure the embedding and LLM providers step by step.`,
	RunE:  runSettingsWizard,
}

var settingsEmbeddingCmd = &cobra.Command{
	Use:   "embedding",
	Short: "Configure embedding provider",
	Long:  `Configure the embedding provider used to index and search reports.`,
	RunE:  runSettingsEmbedding,
}

var settingsLLMCmd = &cobra.Command{
	Use:   "llm",
	Short: "Configure LLM provider",
	Long:  `Configure the LLM provider that writes daily and custom reports.`,
	RunE:  runSettingsLLM,
}

var settingsCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Check provider connectivity",
	RunE:  runSettingsCheck,
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsWizardCmd)
	settingsCmd.AddCommand(settingsEmbeddingCmd)
	settingsCmd.AddCommand(settingsLLMCmd)
	settingsCmd.AddCommand(settingsCheckCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errNoSettings
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Println("Current Settings")
	cmd.Println("================")
	cmd.Println()

	cmd.Println("[Embedding]")
	cmd.Printf("  Provider: %s\n", settings.Embedding.Provider.Description())
	cmd.Printf("  Model: %s\n", settings.Embedding.Model)
	if settings.Embedding.BaseURL != "" {
		cmd.Printf("  Base URL: %s\n", settings.Embedding.BaseURL)
	}
	printAPIKey(cmd, settings.Embedding.Provider, settings.Embedding.APIKey)
	if settings.Embedding.RequestsPerSecond > 0 {
		cmd.Printf("  Rate limit: %.1f/s (burst %d)\n", settings.Embedding.RequestsPerSecond, settings.Embedding.Burst)
	}
	if settings.Embedding.CachePath != "" {
		cmd.Printf("  Cache: %s\n", settings.Embedding.CachePath)
	}
	cmd.Printf("  Status: %s\n", configuredStatus(settings.Embedding.IsConfigured()))
	cmd.Println()

	cmd.Println("[LLM]")
	cmd.Printf("  Provider: %s\n", settings.LLM.Provider.Description())
	cmd.Printf("  Model: %s\n", settings.LLM.Model)
	if settings.LLM.BaseURL != "" {
		cmd.Printf("  Base URL: %s\n", settings.LLM.BaseURL)
	}
	printAPIKey(cmd, settings.LLM.Provider, settings.LLM.APIKey)
	cmd.Printf("  Temperature: %.2f\n", settings.LLM.Temperature)
	cmd.Printf("  Status: %s\n", configuredStatus(settings.LLM.IsConfigured()))
	cmd.Println()

	rag := settings.RAG
	cmd.Println("[RAG]")
	cmd.Printf("  Chunk size: %d chars (overlap %d)\n", rag.ChunkMaxChars, rag.ChunkOverlap)
	cmd.Printf("  Min similarity: %.2f\n", rag.MinSimilarity)
	cmd.Printf("  Recent window: %d days\n", rag.RecentDays)
	cmd.Printf("  Max context chunks: %d\n", rag.MaxContextChunks)
	cmd.Println()

	cmd.Println("[Report]")
	cmd.Printf("  Timezone: %s\n", settings.Report.Location())
	cmd.Printf("  Target hour: %02d:00\n", settings.Report.TargetHour)
	cmd.Println()

	a := settings.Analytics
	cmd.Println("[Analytics]")
	cmd.Printf("  Big rank move: %d\n", a.BigRankMove)
	cmd.Printf("  Review count spike: %d\n", a.ReviewCountSpike)
	cmd.Printf("  Aspect negative ratio: %.2f (min %d mentions)\n", a.AspectNegRatio, a.AspectMinMentions)
	cmd.Printf("  Review products: %d (aspects each: %d)\n", a.MaxReviewProducts, a.MaxAspectsPerProduct)
	cmd.Println()

	sched := settingsService.GetSchedulerConfig()
	cmd.Println("[Scheduler]")
	cmd.Printf("  Enabled: %s\n", yesNo(sched.Enabled))
	if task, ok := sched.TaskConfigs[domain.TaskIDDailyReport]; ok {
		switch {
		case !task.Enabled:
			cmd.Println("  Daily report: disabled")
		case task.DailyAt != nil:
			cmd.Printf("  Daily report: every day at %s\n", formatClock(*task.DailyAt))
		default:
			cmd.Printf("  Daily report: every %s\n", task.Interval)
		}
	}

	return nil
}

func printAPIKey(cmd *cobra.Command, provider domain.AIProvider, key string) {
	if !provider.RequiresAPIKey() {
		return
	}
	if key == "" {
		cmd.Printf("  API Key: (not set)\n")
		return
	}
	cmd.Printf("  API Key: %s\n", maskAPIKey(key))
}

func configuredStatus(ok bool) string {
	if ok {
		return "configured"
	}
	return "not configured"
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func runSettingsWizard(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errNoSettings
	}

	cmd.Println("rankpulse Settings Wizard")
	cmd.Println("=========================")
	cmd.Println()

	reader := bufio.NewReader(cmd.InOrStdin())

	cmd.Println("Step 1: Embedding Provider")
	cmd.Println("--------------------------")
	if err := configureEmbeddingProvider(cmd, reader); err != nil {
		return err
	}

	cmd.Println("Step 2: LLM Provider")
	cmd.Println("--------------------")
	if err := configureLLMProvider(cmd, reader); err != nil {
		return err
	}

	cmd.Println("Configuration Complete!")
	return nil
}

func runSettingsEmbedding(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errNoSettings
	}
	return configureEmbeddingProvider(cmd, bufio.NewReader(cmd.InOrStdin()))
}

func runSettingsLLM(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errNoSettings
	}
	return configureLLMProvider(cmd, bufio.NewReader(cmd.InOrStdin()))
}

func runSettingsCheck(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errNoSettings
	}

	var failed bool
	cmd.Print("Embedding provider... ")
	if err := settingsService.ValidateEmbeddingConfig(); err != nil {
		cmd.Printf("FAILED: %v\n", err)
		failed = true
	} else {
		cmd.Println("OK")
	}
	cmd.Print("LLM provider... ")
	if err := settingsService.ValidateLLMConfig(); err != nil {
		cmd.Printf("FAILED: %v\n", err)
		failed = true
	} else {
		cmd.Println("OK")
	}

	if failed {
		return fmt.Errorf("provider check failed")
	}
	return nil
}

// providerChoice is the user's answer to one provider prompt.
type providerChoice struct {
	provider domain.AIProvider
	model    string
	baseURL  string
}

func promptProvider(
	cmd *cobra.Command, reader *bufio.Reader, providers []domain.AIProvider, defaults map[domain.AIProvider]string,
) providerChoice {
	for i, p := range providers {
		cmd.Printf("  %d. %s\n", i+1, p.Description())
	}
	cmd.Print("\nEnter choice [1]: ")
	idx := parseChoice(readLine(reader), len(providers), 1)
	choice := providerChoice{provider: providers[idx-1]}

	defaultModel := defaults[choice.provider]
	cmd.Printf("Enter model name [%s]: ", defaultModel)
	choice.model = readLine(reader)
	if choice.model == "" {
		choice.model = defaultModel
	}

	if choice.provider.IsLocal() {
		cmd.Print("Enter base URL [http://localhost:11434]: ")
		choice.baseURL = readLine(reader)
	}
	return choice
}

//nolint:dupl // mirrors configureLLMProvider for the embedding side
func configureEmbeddingProvider(cmd *cobra.Command, reader *bufio.Reader) error {
	cmd.Println("Select Embedding Provider")
	c := promptProvider(cmd, reader, domain.AllEmbeddingProviders(), domain.DefaultEmbeddingModels())

	if err := settingsService.SetEmbeddingProvider(c.provider, c.model, c.baseURL); err != nil {
		return fmt.Errorf("failed to configure embedding provider: %w", err)
	}
	warnMissingKey(cmd, c.provider)

	cmd.Print("Validating configuration... ")
	if err := settingsService.ValidateEmbeddingConfig(); err != nil {
		cmd.Printf("FAILED: %v\n", err)
		return fmt.Errorf("embedding configuration validation failed: %w", err)
	}
	cmd.Println("OK")

	cmd.Printf("Embedding provider configured: %s (%s)\n\n", c.provider.Description(), c.model)
	return nil
}

//nolint:dupl // mirrors configureEmbeddingProvider for the LLM side
func configureLLMProvider(cmd *cobra.Command, reader *bufio.Reader) error {
	cmd.Println("Select LLM Provider")
	c := promptProvider(cmd, reader, domain.AllLLMProviders(), domain.DefaultLLMModels())

	if err := settingsService.SetLLMProvider(c.provider, c.model, c.baseURL); err != nil {
		return fmt.Errorf("failed to configure LLM provider: %w", err)
	}
	warnMissingKey(cmd, c.provider)

	cmd.Print("Validating configuration... ")
	if err := settingsService.ValidateLLMConfig(); err != nil {
		cmd.Printf("FAILED: %v\n", err)
		return fmt.Errorf("LLM configuration validation failed: %w", err)
	}
	cmd.Println("OK")

	cmd.Printf("LLM provider configured: %s (%s)\n\n", c.provider.Description(), c.model)
	return nil
}

func warnMissingKey(cmd *cobra.Command, provider domain.AIProvider) {
	if !provider.RequiresAPIKey() {
		return
	}
	env := map[domain.AIProvider]string{
		domain.AIProviderOpenAI:    "OPENAI_API_KEY",
		domain.AIProviderAnthropic: "ANTHROPIC_API_KEY",
	}[provider]
	cmd.Printf("API key is read from $%s (or a .env file).\n", env)
}

// Helper functions.

//nolint:errcheck // CLI helper, error ignored for UX
func readLine(reader *bufio.Reader) string {
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

func parseChoice(input string, maxVal, defaultVal int) int {
	if input == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(input)
	if err != nil || val < 1 || val > maxVal {
		return defaultVal
	}
	return val
}

func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}

// formatClock renders a time-of-day offset as HH:MM.
func formatClock(d time.Duration) string {
	h := int(d / time.Hour)
	m := int((d % time.Hour) / time.Minute)
	return fmt.Sprintf("%02d:%02d", h, m)
}
