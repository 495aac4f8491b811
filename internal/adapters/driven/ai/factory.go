// Package ai builds the embedding and LLM services from settings, applying
// the throttling, caching and circuit-breaking decorators.
package ai

import (
	"context"
	"fmt"
	"time"

	"github.com/custodia-labs/rankpulse/internal/adapters/driven/embedding/cache"
	ollamaembed "github.com/custodia-labs/rankpulse/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/custodia-labs/rankpulse/internal/adapters/driven/embedding/openai"
	"github.com/custodia-labs/rankpulse/internal/adapters/driven/embedding/ratelimit"
	anthropicllm "github.com/custodia-labs/rankpulse/internal/adapters/driven/llm/anthropic"
	"github.com/custodia-labs/rankpulse/internal/adapters/driven/llm/breaker"
	ollamallm "github.com/custodia-labs/rankpulse/internal/adapters/driven/llm/ollama"
	openaillm "github.com/custodia-labs/rankpulse/internal/adapters/driven/llm/openai"
	"github.com/custodia-labs/rankpulse/internal/core/domain"
	"github.com/custodia-labs/rankpulse/internal/core/ports/driven"
)

// pingTimeout bounds connectivity validation.
const pingTimeout = 5 * time.Second

// Services holds the constructed AI services. Either may be nil when its
// provider is not configured.
type Services struct {
	Embedding driven.EmbeddingService
	LLM       driven.LLMService
}

// Close releases all resources.
func (s *Services) Close() {
	if s.Embedding != nil {
		s.Embedding.Close()
	}
	if s.LLM != nil {
		s.LLM.Close()
	}
}

// Build constructs both services with their decorators.
func Build(settings domain.AppSettings) (*Services, error) {
	emb, err := BuildEmbeddingService(&settings.Embedding)
	if err != nil {
		return nil, err
	}
	llm, err := BuildLLMService(&settings.LLM)
	if err != nil {
		if emb != nil {
			emb.Close()
		}
		return nil, err
	}
	return &Services{Embedding: emb, LLM: llm}, nil
}

// BuildEmbeddingService creates the provider service, then wraps it in the
// rate limiter and, outermost, the cache so hits are never throttled.
func BuildEmbeddingService(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	svc, err := CreateEmbeddingService(settings)
	if err != nil || svc == nil {
		return nil, err
	}

	if settings.RequestsPerSecond > 0 {
		svc = ratelimit.New(svc, settings.RequestsPerSecond, settings.Burst)
	}
	if settings.CachePath != "" {
		store, err := cache.Open(settings.CachePath)
		if err != nil {
			svc.Close()
			return nil, err
		}
		svc = cache.New(svc, store)
	}
	return svc, nil
}

// BuildLLMService creates the provider service wrapped in a circuit breaker.
func BuildLLMService(settings *domain.LLMSettings) (driven.LLMService, error) {
	svc, err := CreateLLMService(settings)
	if err != nil || svc == nil {
		return nil, err
	}
	return breaker.New(svc, breaker.DefaultSettings()), nil
}

// CreateEmbeddingService creates the bare provider service.
// Returns nil if the provider is not configured.
func CreateEmbeddingService(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	if settings == nil || !settings.IsConfigured() {
		if settings != nil && settings.Provider == domain.AIProviderAnthropic {
			return nil, fmt.Errorf("%w: anthropic does not support embeddings, use ollama or openai",
				domain.ErrUnsupportedType)
		}
		return nil, nil
	}

	switch settings.Provider {
	case domain.AIProviderOllama:
		return ollamaembed.NewEmbeddingService(ollamaembed.Config{
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		}), nil

	case domain.AIProviderOpenAI:
		return openaiembed.NewEmbeddingService(openaiembed.Config{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})

	default:
		return nil, fmt.Errorf("%w: embedding provider %s", domain.ErrUnsupportedType, settings.Provider)
	}
}

// CreateLLMService creates the bare provider service.
// Returns nil if the provider is not configured.
func CreateLLMService(settings *domain.LLMSettings) (driven.LLMService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	switch settings.Provider {
	case domain.AIProviderOllama:
		return ollamallm.NewLLMService(ollamallm.LLMConfig{
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		}), nil

	case domain.AIProviderOpenAI:
		return openaillm.NewLLMService(openaillm.LLMConfig{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})

	case domain.AIProviderAnthropic:
		return anthropicllm.NewLLMService(anthropicllm.Config{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})

	default:
		return nil, fmt.Errorf("%w: LLM provider %s", domain.ErrUnsupportedType, settings.Provider)
	}
}

// ValidateEmbeddingConfig creates a bare service and pings it.
func ValidateEmbeddingConfig(settings *domain.EmbeddingSettings) error {
	svc, err := CreateEmbeddingService(settings)
	if err != nil {
		return err
	}
	if svc == nil {
		return fmt.Errorf("%w: embedding provider not configured", domain.ErrEmbeddingUnavailable)
	}
	defer svc.Close()

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := svc.Ping(ctx); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrEmbeddingUnavailable, err)
	}
	return nil
}

// ValidateLLMConfig creates a bare service and pings it.
func ValidateLLMConfig(settings *domain.LLMSettings) error {
	svc, err := CreateLLMService(settings)
	if err != nil {
		return err
	}
	if svc == nil {
		return fmt.Errorf("%w: LLM provider not configured", domain.ErrLLMUnavailable)
	}
	defer svc.Close()

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := svc.Ping(ctx); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrLLMUnavailable, err)
	}
	return nil
}
