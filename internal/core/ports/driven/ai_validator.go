package driven

import "github.com/custodia-labs/rankpulse/internal/core/domain"

// AIConfigValidator validates AI provider configurations.
// Implementations verify that configurations are valid by testing connectivity
// to the underlying AI services.
type AIConfigValidator interface {
	// ValidateEmbedding validates an embedding configuration by pinging the provider.
	// Returns an error when the provider is unconfigured or unreachable.
	ValidateEmbedding(config *domain.EmbeddingSettings) error

	// ValidateLLM validates an LLM configuration by pinging the provider.
	// Returns an error when the provider is unconfigured or unreachable.
	ValidateLLM(config *domain.LLMSettings) error
}
