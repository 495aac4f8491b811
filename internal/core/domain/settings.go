package domain

import (
	"slices"
	"time"
	_ "time/tzdata" // report time zones must resolve without a system zoneinfo
)

// AIProvider names a backend for embeddings, chat completion or both.
type AIProvider string

const (
	AIProviderOllama    AIProvider = "ollama"
	AIProviderOpenAI    AIProvider = "openai"
	AIProviderAnthropic AIProvider = "anthropic"
)

// providerTraits is everything rankpulse knows about a provider. An empty
// embedModel means the provider cannot embed.
type providerTraits struct {
	label      string
	local      bool
	embedModel string
	chatModel  string
}

// providerOrder fixes the order used in menus.
var providerOrder = []AIProvider{AIProviderOllama, AIProviderOpenAI, AIProviderAnthropic}

var providers = map[AIProvider]providerTraits{
	AIProviderOllama:    {label: "Ollama (local)", local: true, embedModel: "nomic-embed-text", chatModel: "llama3.2"},
	AIProviderOpenAI:    {label: "OpenAI (cloud)", embedModel: "text-embedding-3-small", chatModel: "gpt-4o-mini"},
	AIProviderAnthropic: {label: "Anthropic (cloud)", chatModel: "claude-3-5-sonnet-latest"},
}

func (p AIProvider) IsValid() bool {
	_, ok := providers[p]
	return ok
}

// RequiresAPIKey is true for every hosted provider.
func (p AIProvider) RequiresAPIKey() bool { return p.IsValid() && !p.IsLocal() }

func (p AIProvider) IsLocal() bool { return providers[p].local }

func (p AIProvider) String() string { return string(p) }

// Description is the menu label, or "Unknown".
func (p AIProvider) Description() string {
	if t, ok := providers[p]; ok {
		return t.label
	}
	return "Unknown"
}

func (p AIProvider) canEmbed() bool { return providers[p].embedModel != "" }

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	// Provider is the embedding service provider.
	Provider AIProvider

	// Model is the embedding model name.
	Model string

	// BaseURL is the API endpoint (for Ollama or compatible gateways).
	BaseURL string

	// APIKey is the API key (for OpenAI).
	APIKey string

	// RequestsPerSecond throttles provider calls. Zero disables throttling.
	RequestsPerSecond float64

	// Burst is the token bucket size for throttling.
	Burst int

	// CachePath enables the on-disk embedding cache when non-empty.
	CachePath string
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	if !e.Provider.canEmbed() {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	return true
}

// LLMSettings holds LLM provider configuration.
type LLMSettings struct {
	// Provider is the LLM service provider.
	Provider AIProvider

	// Model is the LLM model name.
	Model string

	// BaseURL is the API endpoint (for Ollama).
	BaseURL string

	// APIKey is the API key (for OpenAI/Anthropic).
	APIKey string

	// Temperature is the sampling temperature for report synthesis.
	Temperature float64
}

// IsConfigured returns true if the LLM provider is set up.
func (l LLMSettings) IsConfigured() bool {
	if !l.Provider.IsValid() {
		return false
	}
	if l.Provider.RequiresAPIKey() && l.APIKey == "" {
		return false
	}
	return true
}

// RAGSettings holds chunking and retrieval policy.
type RAGSettings struct {
	ChunkMaxChars    int
	ChunkOverlap     int
	MinSimilarity    float64
	RecentDays       int
	RecentTopK       int
	CustomTopK       int
	MaxContextChunks int
}

// ReportSettings holds daily report scheduling parameters.
type ReportSettings struct {
	// Timezone is the IANA zone used to resolve "today" and the target hour.
	Timezone string

	// TargetHour is the snapshot hour compared day over day.
	TargetHour int
}

// Location resolves Timezone, falling back to UTC.
func (r ReportSettings) Location() *time.Location {
	if r.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(r.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// PipelineConfig holds post-processor pipeline configuration.
type PipelineConfig struct {
	// Processors is the ordered list of processor names to run.
	Processors []string
}

// DefaultPipelineConfig returns the default pipeline configuration.
func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		Processors: []string{"chunker"},
	}
}

// AppSettings holds all application settings.
type AppSettings struct {
	Embedding EmbeddingSettings
	LLM       LLMSettings
	RAG       RAGSettings
	Report    ReportSettings
	Analytics AnalyticsSettings
	Pipeline  PipelineConfig
}

// DefaultAppSettings returns settings with sensible defaults.
// Providers default to OpenAI; keys must come from the environment.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Embedding: EmbeddingSettings{
			Provider: AIProviderOpenAI,
			Model:    DefaultEmbeddingModels()[AIProviderOpenAI],
		},
		LLM: LLMSettings{
			Provider:    AIProviderOpenAI,
			Model:       DefaultLLMModels()[AIProviderOpenAI],
			Temperature: 0.2,
		},
		RAG: RAGSettings{
			ChunkMaxChars:    1200,
			ChunkOverlap:     120,
			MinSimilarity:    0.7,
			RecentDays:       14,
			RecentTopK:       5,
			CustomTopK:       3,
			MaxContextChunks: 3,
		},
		Report: ReportSettings{
			Timezone:   "Asia/Seoul",
			TargetHour: 11,
		},
		Analytics: DefaultAnalyticsSettings(),
		Pipeline:  DefaultPipelineConfig(),
	}
}

// AllEmbeddingProviders lists providers that can embed, in menu order.
func AllEmbeddingProviders() []AIProvider {
	var out []AIProvider
	for _, p := range providerOrder {
		if p.canEmbed() {
			out = append(out, p)
		}
	}
	return out
}

// AllLLMProviders lists chat providers in menu order.
func AllLLMProviders() []AIProvider {
	return slices.Clone(providerOrder)
}

// DefaultEmbeddingModels maps each embedding provider to its default model.
func DefaultEmbeddingModels() map[AIProvider]string {
	out := make(map[AIProvider]string)
	for p, t := range providers {
		if t.embedModel != "" {
			out[p] = t.embedModel
		}
	}
	return out
}

// DefaultLLMModels maps each chat provider to its default model.
func DefaultLLMModels() map[AIProvider]string {
	out := make(map[AIProvider]string, len(providers))
	for p, t := range providers {
		out[p] = t.chatModel
	}
	return out
}

// EmbeddingDimensions returns the vector dimensions for known models.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		// Ollama models
		"nomic-embed-text":  768,
		"mxbai-embed-large": 1024,
		"all-minilm":        384,
		// OpenAI models
		"text-embedding-3-small": 1536,
		"text-embedding-3-large": 3072,
		"text-embedding-ada-002": 1536,
	}
}
