// Package openai completes chats with the OpenAI chat completions API or
// any gateway that speaks it.
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

var _ driven.LLMService = (*LLMService)(nil)

const (
	DefaultBaseURL    = "https://api.openai.com/v1"
	DefaultLLMModel   = "gpt-4o-mini"
	DefaultLLMTimeout = 120 * time.Second
)

// LLMConfig configures NewLLMService. Only APIKey is required.
type LLMConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

type LLMService struct {
	api   *httpapi.Client
	model string
}

type chatCompletionRequest struct {
	Model       string          `json:"model"`
	Messages    []openaiMessage `json:"messages"`
	MaxTokens   int             `json:"max_tokens,omitempty"`
	Temperature float64         `json:"temperature,omitempty"`
}

type openaiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message      openaiMessage `json:"message"`
		FinishReason string        `json:"finish_reason"`
	} `json:"choices"`
	Error *apiError `json:"error,omitempty"`
}

type apiError struct {
	Message string `json:"message"`
}

func NewLLMService(cfg LLMConfig) (*LLMService, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai: no API key: %w", domain.ErrInvalidInput)
	}
	cfg.BaseURL = cmp.Or(cfg.BaseURL, DefaultBaseURL)
	cfg.Model = cmp.Or(cfg.Model, DefaultLLMModel)
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultLLMTimeout
	}
	return &LLMService{
		api:   httpapi.New("openai", cfg.BaseURL, cfg.Timeout, domain.ErrLLMUnavailable, httpapi.BearerHeader(cfg.APIKey)),
		model: cfg.Model,
	}, nil
}

// Chat returns the first choice. A reply cut off by the token limit is
// returned as is.
func (s *LLMService) Chat(ctx context.Context, messages []driven.ChatMessage, opts driven.ChatOptions) (string, error) {
	req := chatCompletionRequest{
		Model:       s.model,
		Messages:    make([]openaiMessage, 0, len(messages)),
		MaxTokens:   opts.MaxTokens,
		Temperature: opts.Temperature,
	}
	for _, m := range messages {
		req.Messages = append(req.Messages, openaiMessage(m))
	}

	var resp chatCompletionResponse
	if err := s.api.Post(ctx, "/chat/completions", req, &resp); err != nil {
		return "", err
	}
	switch {
	case resp.Error != nil:
		return "", s.api.Fail("%s", resp.Error.Message)
	case len(resp.Choices) == 0:
		return "", s.api.Fail("empty choices")
	}
	return resp.Choices[0].Message.Content, nil
}

func (s *LLMService) ModelName() string { return s.model }

// Ping lists models, which checks the key without spending tokens.
func (s *LLMService) Ping(ctx context.Context) error {
	return s.api.Ping(ctx, "/models")
}

func (s *LLMService) Close() error { return nil }
