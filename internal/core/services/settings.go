package services

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/custodia-labs/rankpulse/internal/core/domain"
	"github.com/custodia-labs/rankpulse/internal/core/ports/driven"
	"github.com/custodia-labs/rankpulse/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyEmbedProvider  = "embedding.provider"
	keyEmbedModel     = "embedding.model"
	keyEmbedBaseURL   = "embedding.base_url"
	keyEmbedAPIKeyEnv = "embedding.api_key_env"
	keyEmbedRPS       = "embedding.rate.requests_per_second"
	keyEmbedBurst     = "embedding.rate.burst"
	keyEmbedCacheOn   = "embedding.cache.enabled"
	keyEmbedCachePath = "embedding.cache.path"

	keyLLMProvider    = "llm.provider"
	keyLLMModel       = "llm.model"
	keyLLMBaseURL     = "llm.base_url"
	keyLLMAPIKeyEnv   = "llm.api_key_env"
	keyLLMTemperature = "llm.temperature"

	keyRAGMaxChars      = "rag.chunk_max_chars"
	keyRAGOverlap       = "rag.chunk_overlap"
	keyRAGMinSimilarity = "rag.min_similarity"
	keyRAGRecentDays    = "rag.recent_days"
	keyRAGRecentTopK    = "rag.recent_top_k"
	keyRAGCustomTopK    = "rag.custom_top_k"
	keyRAGMaxContext    = "rag.max_context_chunks"

	keyReportTimezone   = "report.timezone"
	keyReportTargetHour = "report.target_hour"

	keyPipelineProcessors = "pipeline.processors"
)

// Analytics threshold keys, in field order of domain.AnalyticsSettings.
const (
	keyBigRankMove          = "analytics.big_rank_move"
	keyReviewCountSpike     = "analytics.review_count_spike"
	keyAspectNegRatio       = "analytics.aspect_neg_ratio"
	keyAspectMinMentions    = "analytics.aspect_min_mentions"
	keyMaxAspectsPerProduct = "analytics.max_aspects_per_product"
	keyMaxReviewProducts    = "analytics.max_review_products"
	keyMaxMovers            = "analytics.max_movers"
	keyMaxChangeLines       = "analytics.max_change_lines"
)

// defaultAPIKeyEnv names the environment variable holding each cloud key.
var defaultAPIKeyEnv = map[domain.AIProvider]string{
	domain.AIProviderOpenAI:    "OPENAI_API_KEY",
	domain.AIProviderAnthropic: "ANTHROPIC_API_KEY",
}

// defaultOllamaURL is used when a local provider has no base URL.
const defaultOllamaURL = "http://localhost:11434"

// SettingsService manages application settings.
// API keys are never stored in the config file; they are read from the
// environment variable named by *.api_key_env.
type SettingsService struct {
	configStore driven.ConfigStore
	aiValidator driven.AIConfigValidator
	getenv      func(string) string
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore, aiValidator driven.AIConfigValidator) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		aiValidator: aiValidator,
		getenv:      os.Getenv,
	}
}

// Get retrieves current application settings.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	d := domain.DefaultAppSettings()

	embedProvider := s.getProvider(keyEmbedProvider, d.Embedding.Provider)
	llmProvider := s.getProvider(keyLLMProvider, d.LLM.Provider)

	settings := &domain.AppSettings{
		Embedding: domain.EmbeddingSettings{
			Provider:          embedProvider,
			Model:             s.getString(keyEmbedModel, defaultModel(domain.DefaultEmbeddingModels(), embedProvider)),
			BaseURL:           s.baseURL(keyEmbedBaseURL, embedProvider),
			APIKey:            s.apiKey(keyEmbedAPIKeyEnv, embedProvider),
			RequestsPerSecond: s.configStore.GetFloat(keyEmbedRPS),
			Burst:             s.getInt(keyEmbedBurst, 1),
			CachePath:         s.cachePath(),
		},
		LLM: domain.LLMSettings{
			Provider:    llmProvider,
			Model:       s.getString(keyLLMModel, defaultModel(domain.DefaultLLMModels(), llmProvider)),
			BaseURL:     s.baseURL(keyLLMBaseURL, llmProvider),
			APIKey:      s.apiKey(keyLLMAPIKeyEnv, llmProvider),
			Temperature: s.getFloat(keyLLMTemperature, d.LLM.Temperature),
		},
		RAG: domain.RAGSettings{
			ChunkMaxChars:    s.getInt(keyRAGMaxChars, d.RAG.ChunkMaxChars),
			ChunkOverlap:     s.getInt(keyRAGOverlap, d.RAG.ChunkOverlap),
			MinSimilarity:    s.getFloat(keyRAGMinSimilarity, d.RAG.MinSimilarity),
			RecentDays:       s.getInt(keyRAGRecentDays, d.RAG.RecentDays),
			RecentTopK:       s.getInt(keyRAGRecentTopK, d.RAG.RecentTopK),
			CustomTopK:       s.getInt(keyRAGCustomTopK, d.RAG.CustomTopK),
			MaxContextChunks: s.getInt(keyRAGMaxContext, d.RAG.MaxContextChunks),
		},
		Report: domain.ReportSettings{
			Timezone:   s.getString(keyReportTimezone, d.Report.Timezone),
			TargetHour: s.getIntAllowZero(keyReportTargetHour, d.Report.TargetHour),
		},
		Analytics: domain.AnalyticsSettings{
			BigRankMove:          s.getInt(keyBigRankMove, d.Analytics.BigRankMove),
			ReviewCountSpike:     s.getInt(keyReviewCountSpike, d.Analytics.ReviewCountSpike),
			AspectNegRatio:       s.getFloat(keyAspectNegRatio, d.Analytics.AspectNegRatio),
			AspectMinMentions:    s.getInt(keyAspectMinMentions, d.Analytics.AspectMinMentions),
			MaxAspectsPerProduct: s.getInt(keyMaxAspectsPerProduct, d.Analytics.MaxAspectsPerProduct),
			MaxReviewProducts:    s.getInt(keyMaxReviewProducts, d.Analytics.MaxReviewProducts),
			MaxMovers:            s.getInt(keyMaxMovers, d.Analytics.MaxMovers),
			MaxChangeLines:       s.getInt(keyMaxChangeLines, d.Analytics.MaxChangeLines),
		},
		Pipeline: s.GetPipelineConfig(),
	}

	if settings.Report.TargetHour < 0 || settings.Report.TargetHour > 23 {
		return nil, fmt.Errorf("%w: report.target_hour %d out of range", domain.ErrInvalidInput, settings.Report.TargetHour)
	}
	if _, err := time.LoadLocation(settings.Report.Timezone); err != nil {
		return nil, fmt.Errorf("%w: report.timezone %q", domain.ErrInvalidInput, settings.Report.Timezone)
	}

	return settings, nil
}

// Save persists application settings. API keys are never written.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	values := []struct {
		key string
		val any
	}{
		{keyEmbedProvider, settings.Embedding.Provider.String()},
		{keyEmbedModel, settings.Embedding.Model},
		{keyEmbedBaseURL, settings.Embedding.BaseURL},
		{keyLLMProvider, settings.LLM.Provider.String()},
		{keyLLMModel, settings.LLM.Model},
		{keyLLMBaseURL, settings.LLM.BaseURL},
		{keyLLMTemperature, settings.LLM.Temperature},
		{keyRAGMaxChars, settings.RAG.ChunkMaxChars},
		{keyRAGOverlap, settings.RAG.ChunkOverlap},
		{keyRAGMinSimilarity, settings.RAG.MinSimilarity},
		{keyRAGRecentDays, settings.RAG.RecentDays},
		{keyRAGMaxContext, settings.RAG.MaxContextChunks},
		{keyReportTimezone, settings.Report.Timezone},
		{keyReportTargetHour, settings.Report.TargetHour},
	}
	for _, v := range values {
		if err := s.configStore.Set(v.key, v.val); err != nil {
			return fmt.Errorf("save %s: %w", v.key, err)
		}
	}
	return s.configStore.Save()
}

// SetEmbeddingProvider configures the embedding provider.
func (s *SettingsService) SetEmbeddingProvider(provider domain.AIProvider, model, baseURL string) error {
	if !provider.IsValid() {
		return fmt.Errorf("%w: embedding provider %s", domain.ErrInvalidInput, provider)
	}
	if !slices.Contains(domain.AllEmbeddingProviders(), provider) {
		return fmt.Errorf("%w: provider %s does not support embeddings", domain.ErrUnsupportedType, provider)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	settings.Embedding.Provider = provider
	settings.Embedding.Model = model
	if model == "" {
		settings.Embedding.Model = defaultModel(domain.DefaultEmbeddingModels(), provider)
	}
	settings.Embedding.BaseURL = providerBaseURL(provider, baseURL)

	return s.Save(settings)
}

// SetLLMProvider configures the LLM provider.
func (s *SettingsService) SetLLMProvider(provider domain.AIProvider, model, baseURL string) error {
	if !provider.IsValid() {
		return fmt.Errorf("%w: LLM provider %s", domain.ErrInvalidInput, provider)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	settings.LLM.Provider = provider
	settings.LLM.Model = model
	if model == "" {
		settings.LLM.Model = defaultModel(domain.DefaultLLMModels(), provider)
	}
	settings.LLM.BaseURL = providerBaseURL(provider, baseURL)

	return s.Save(settings)
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// ValidateEmbeddingConfig validates the current embedding configuration by pinging the provider.
func (s *SettingsService) ValidateEmbeddingConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateEmbedding(&settings.Embedding)
}

// ValidateLLMConfig validates the current LLM configuration by pinging the provider.
func (s *SettingsService) ValidateLLMConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateLLM(&settings.LLM)
}

// GetPipelineConfig returns the post-processor pipeline configuration.
func (s *SettingsService) GetPipelineConfig() domain.PipelineConfig {
	cfg := domain.DefaultPipelineConfig()
	if processors := s.configStore.GetStringSlice(keyPipelineProcessors); len(processors) > 0 {
		cfg.Processors = processors
	}
	return cfg
}

// GetSchedulerConfig returns the scheduler configuration.
// The daily report runs shortly after the configured target hour unless
// scheduler.daily_report.interval overrides it.
func (s *SettingsService) GetSchedulerConfig() domain.SchedulerConfig {
	targetHour := s.getIntAllowZero(keyReportTargetHour, domain.DefaultAppSettings().Report.TargetHour)
	cfg := domain.DefaultSchedulerConfig(targetHour)

	if _, exists := s.configStore.Get("scheduler.enabled"); exists {
		cfg.Enabled = s.configStore.GetBool("scheduler.enabled")
	}

	const prefix = "scheduler.daily_report."
	taskCfg := cfg.TaskConfigs[domain.TaskIDDailyReport]
	if _, exists := s.configStore.Get(prefix + "enabled"); exists {
		taskCfg.Enabled = s.configStore.GetBool(prefix + "enabled")
	}
	if interval := s.configStore.GetString(prefix + "interval"); interval != "" {
		if d, err := time.ParseDuration(interval); err == nil {
			taskCfg.Interval = d
			taskCfg.DailyAt = nil
		}
	}
	cfg.TaskConfigs[domain.TaskIDDailyReport] = taskCfg

	return cfg
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	val := s.configStore.GetInt(key)
	if val == 0 {
		return defaultVal
	}
	return val
}

// getIntAllowZero treats an explicit 0 as a value, not as unset.
func (s *SettingsService) getIntAllowZero(key string, defaultVal int) int {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetInt(key)
}

func (s *SettingsService) getFloat(key string, defaultVal float64) float64 {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetFloat(key)
}

func (s *SettingsService) getProvider(key string, defaultVal domain.AIProvider) domain.AIProvider {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	provider := domain.AIProvider(val)
	if !provider.IsValid() {
		return defaultVal
	}
	return provider
}

func (s *SettingsService) baseURL(key string, provider domain.AIProvider) string {
	return providerBaseURL(provider, s.configStore.GetString(key))
}

func (s *SettingsService) apiKey(key string, provider domain.AIProvider) string {
	env := s.getString(key, defaultAPIKeyEnv[provider])
	if env == "" {
		return ""
	}
	return s.getenv(env)
}

// cachePath resolves the embedding cache file, relative to the config directory.
func (s *SettingsService) cachePath() string {
	if !s.configStore.GetBool(keyEmbedCacheOn) {
		return ""
	}
	path := s.configStore.GetString(keyEmbedCachePath)
	if path == "" {
		path = "embeddings.db"
	}
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(filepath.Dir(s.configStore.Path()), path)
}

func defaultModel(models map[domain.AIProvider]string, provider domain.AIProvider) string {
	return models[provider]
}

// providerBaseURL keeps explicit URLs and fills in the local Ollama default.
func providerBaseURL(provider domain.AIProvider, baseURL string) string {
	if baseURL != "" {
		return baseURL
	}
	if provider.IsLocal() {
		return defaultOllamaURL
	}
	return ""
}
