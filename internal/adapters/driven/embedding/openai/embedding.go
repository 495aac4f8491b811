// Package openai embeds text with the OpenAI embeddings API or any gateway
// that speaks it.
package openai

import (
	"cmp"
	"context"
	"fmt"
	"time"

	"github.com/custodia-labs/rankpulse/internal/adapters/driven/httpapi"
	"github.com/custodia-labs/rankpulse/internal/core/domain"
	"github.com/custodia-labs/rankpulse/internal/core/ports/driven"
)

var _ driven.EmbeddingService = (*EmbeddingService)(nil)

const (
	DefaultBaseURL = "https://api.openai.com/v1"
	DefaultModel   = "text-embedding-3-small"
	DefaultTimeout = 60 * time.Second

	fallbackDimensions = 1536
)

// Config configures NewEmbeddingService. Only APIKey is required.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// EmbeddingService is immutable after construction.
type EmbeddingService struct {
	api        *httpapi.Client
	model      string
	dimensions int
}

type embeddingRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embeddingResponse struct {
	Data []struct {
		Index     int       `json:"index"`
		Embedding []float64 `json:"embedding"`
	} `json:"data"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func NewEmbeddingService(cfg Config) (*EmbeddingService, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai: no API key: %w", domain.ErrInvalidInput)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	model := cmp.Or(cfg.Model, DefaultModel)
	dims, ok := domain.EmbeddingDimensions()[model]
	if !ok {
		dims = fallbackDimensions
	}
	return &EmbeddingService{
		api:        httpapi.New("openai", cmp.Or(cfg.BaseURL, DefaultBaseURL), cfg.Timeout, domain.ErrEmbeddingUnavailable, httpapi.BearerHeader(cfg.APIKey)),
		model:      model,
		dimensions: dims,
	}, nil
}

func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := s.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedBatch sends one request. The API may answer out of order, so
// vectors are placed by their index field.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	var resp embeddingResponse
	if err := s.api.Post(ctx, "/embeddings", embeddingRequest{Model: s.model, Input: texts}, &resp); err != nil {
		return nil, err
	}
	if resp.Error != nil {
		return nil, s.api.Fail("%s", resp.Error.Message)
	}
	if len(resp.Data) != len(texts) {
		return nil, s.api.Fail("%d vectors for %d inputs", len(resp.Data), len(texts))
	}

	out := make([][]float32, len(texts))
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= len(out) || out[d.Index] != nil {
			return nil, s.api.Fail("vector index %d out of place", d.Index)
		}
		out[d.Index] = narrow(d.Embedding)
	}
	return out, nil
}

func (s *EmbeddingService) Dimensions() int   { return s.dimensions }
func (s *EmbeddingService) ModelName() string { return s.model }

// Ping lists models, which checks the key without spending tokens.
func (s *EmbeddingService) Ping(ctx context.Context) error {
	return s.api.Ping(ctx, "/models")
}

func (s *EmbeddingService) Close() error { return nil }

func narrow(v []float64) []float32 {
	out := make([]float32, len(v))
	for i, f := range v {
		out[i] = float32(f)
	}
	return out
}
