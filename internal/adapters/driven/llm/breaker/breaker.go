// Package breaker wraps an LLMService in a circuit breaker so repeated
// provider failures fail fast instead of stalling each report run.
package breaker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker"

	"github.com/custodia-labs/rankpulse/internal/core/domain"
	"github.com/custodia-labs/rankpulse/internal/core/ports/driven"
	"github.com/custodia-labs/rankpulse/internal/logger"
)

// Ensure Service implements the interface.
var _ driven.LLMService = (*Service)(nil)

// Settings configures the breaker.
type Settings struct {
	// MinRequests is the number of calls in a window before the ratio is checked.
	MinRequests uint32

	// FailureRatio trips the breaker once reached.
	FailureRatio float64

	// OpenTimeout is how long the breaker stays open before a trial call.
	OpenTimeout time.Duration
}

// DefaultSettings returns conservative defaults for a scheduled batch job.
func DefaultSettings() Settings {
	return Settings{MinRequests: 3, FailureRatio: 0.6, OpenTimeout: 60 * time.Second}
}

// Service guards Chat with a gobreaker.CircuitBreaker. It never retries.
type Service struct {
	next driven.LLMService
	cb   *gobreaker.CircuitBreaker
}

// New wraps next.
func New(next driven.LLMService, s Settings) *Service {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "llm:" + next.ModelName(),
		MaxRequests: 1,
		Interval:    10 * time.Minute,
		Timeout:     s.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < s.MinRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= s.FailureRatio
		},
		IsSuccessful: func(err error) bool {
			// Caller cancellation says nothing about provider health.
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker %s: %s -> %s", name, from, to)
		},
	})
	return &Service{next: next, cb: cb}
}

// Chat runs the call through the breaker.
func (s *Service) Chat(ctx context.Context, messages []driven.ChatMessage, opts driven.ChatOptions) (string, error) {
	out, err := s.cb.Execute(func() (interface{}, error) {
		return s.next.Chat(ctx, messages, opts)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return "", fmt.Errorf("%s: %w: %w", s.cb.Name(), domain.ErrCircuitOpen, domain.ErrLLMUnavailable)
	}
	if err != nil {
		return "", err
	}
	return out.(string), nil
}

// State reports the breaker state.
func (s *Service) State() gobreaker.State {
	return s.cb.State()
}

// ModelName delegates.
func (s *Service) ModelName() string { return s.next.ModelName() }

// Ping delegates outside the breaker.
func (s *Service) Ping(ctx context.Context) error { return s.next.Ping(ctx) }

// Close delegates.
func (s *Service) Close() error { return s.next.Close() }
