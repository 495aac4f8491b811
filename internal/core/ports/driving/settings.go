package driving

import "github.com/custodia-labs/rankpulse/internal/core/domain"

// SettingsService manages application settings.
type SettingsService interface {
	// Get assembles settings from the config file, defaults and environment.
	Get() (*domain.AppSettings, error)

	// Save persists application settings. API keys are never written.
	Save(settings *domain.AppSettings) error

	// SetEmbeddingProvider configures the embedding provider.
	SetEmbeddingProvider(provider domain.AIProvider, model, baseURL string) error

	// SetLLMProvider configures the LLM provider.
	SetLLMProvider(provider domain.AIProvider, model, baseURL string) error

	// GetDefaults returns default settings.
	GetDefaults() domain.AppSettings

	// GetSchedulerConfig returns the scheduler configuration.
	GetSchedulerConfig() domain.SchedulerConfig

	// ValidateEmbeddingConfig pings the configured embedding provider.
	ValidateEmbeddingConfig() error

	// ValidateLLMConfig pings the configured LLM provider.
	ValidateLLMConfig() error
}
