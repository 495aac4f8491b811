// Package ratelimit throttles calls to an embedding provider with a token bucket.
package ratelimit

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/rankpulse/internal/core/domain"
	"github.com/custodia-labs/rankpulse/internal/core/ports/driven"
)

// Ensure Service implements the interface.
var _ driven.EmbeddingService = (*Service)(nil)

// Service wraps an EmbeddingService and waits on a shared limiter before
// each provider request. A batch counts as one request.
type Service struct {
	next    driven.EmbeddingService
	limiter *rate.Limiter
}

// New wraps next with a limiter allowing rps requests per second.
// A non-positive rps disables throttling.
func New(next driven.EmbeddingService, rps float64, burst int) *Service {
	limit := rate.Inf
	if rps > 0 {
		limit = rate.Limit(rps)
	}
	if burst < 1 {
		burst = 1
	}
	return &Service{next: next, limiter: rate.NewLimiter(limit, burst)}
}

// Embed waits for a token and delegates.
func (s *Service) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	return s.next.Embed(ctx, text)
}

// EmbedBatch waits for a token and delegates.
func (s *Service) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	return s.next.EmbedBatch(ctx, texts)
}

func (s *Service) wait(ctx context.Context) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("embedding throttle: %w: %w", domain.ErrRateLimited, err)
	}
	return nil
}

// Dimensions delegates.
func (s *Service) Dimensions() int { return s.next.Dimensions() }

// ModelName delegates.
func (s *Service) ModelName() string { return s.next.ModelName() }

// Ping delegates without consuming a token.
func (s *Service) Ping(ctx context.Context) error { return s.next.Ping(ctx) }

// Close delegates.
func (s *Service) Close() error { return s.next.Close() }
