// Package ollama embeds text with a local Ollama server.
package ollama

import (
	"cmp"
	"context"
	"time"

	"github.com/custodia-labs/rankpulse/internal/adapters/driven/httpapi"
	"github.com/custodia-labs/rankpulse/internal/core/domain"
	"github.com/custodia-labs/rankpulse/internal/core/ports/driven"
)

var _ driven.EmbeddingService = (*EmbeddingService)(nil)

const (
	DefaultBaseURL = "http://localhost:11434"
	DefaultModel   = "nomic-embed-text"
	DefaultTimeout = 30 * time.Second

	fallbackDimensions = 768
)

// Config configures NewEmbeddingService. All fields are optional.
type Config struct {
	BaseURL string
	Model   string
	Timeout time.Duration
}

// EmbeddingService uses /api/embed, which takes a list of inputs per call.
type EmbeddingService struct {
	api        *httpapi.Client
	model      string
	dimensions int
}

type embedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
	Error      string      `json:"error,omitempty"`
}

func NewEmbeddingService(cfg Config) *EmbeddingService {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	model := cmp.Or(cfg.Model, DefaultModel)
	dims, ok := domain.EmbeddingDimensions()[model]
	if !ok {
		dims = fallbackDimensions
	}
	return &EmbeddingService{
		api:        httpapi.New("ollama", cmp.Or(cfg.BaseURL, DefaultBaseURL), cfg.Timeout, domain.ErrEmbeddingUnavailable, nil),
		model:      model,
		dimensions: dims,
	}
}

func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := s.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedBatch returns vectors in input order.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	var resp embedResponse
	if err := s.api.Post(ctx, "/api/embed", embedRequest{Model: s.model, Input: texts}, &resp); err != nil {
		return nil, err
	}
	if resp.Error != "" {
		return nil, s.api.Fail("%s", resp.Error)
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, s.api.Fail("%d vectors for %d inputs", len(resp.Embeddings), len(texts))
	}
	return resp.Embeddings, nil
}

func (s *EmbeddingService) Dimensions() int   { return s.dimensions }
func (s *EmbeddingService) ModelName() string { return s.model }

// Ping lists local models via /api/tags.
func (s *EmbeddingService) Ping(ctx context.Context) error {
	return s.api.Ping(ctx, "/api/tags")
}

func (s *EmbeddingService) Close() error { return nil }
