// Package anthropic completes chats with the Anthropic Messages API.
package anthropic

import (
	"cmp"
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/custodia-labs/rankpulse/internal/adapters/driven/httpapi"
	"github.com/custodia-labs/rankpulse/internal/core/domain"
	"github.com/custodia-labs/rankpulse/internal/core/ports/driven"
)

var _ driven.LLMService = (*LLMService)(nil)

const (
	DefaultBaseURL = "https://api.anthropic.com"
	DefaultModel   = "claude-3-5-sonnet-latest"
	DefaultTimeout = 120 * time.Second
	// DefaultMaxTokens applies when ChatOptions leaves MaxTokens unset; the
	// API requires one.
	DefaultMaxTokens = 4096

	apiVersion = "2023-06-01"
)

// Config configures NewLLMService. Only APIKey is required.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

type LLMService struct {
	api   *httpapi.Client
	model string
}

type messagesRequest struct {
	Model       string            `json:"model"`
	Messages    []messagesMessage `json:"messages"`
	MaxTokens   int               `json:"max_tokens"`
	System      string            `json:"system,omitempty"`
	Temperature float64           `json:"temperature,omitempty"`
}

type messagesMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type contentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type messagesResponse struct {
	Content []contentBlock `json:"content"`
	Error   *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func NewLLMService(cfg Config) (*LLMService, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("anthropic: no API key: %w", domain.ErrInvalidInput)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	header := make(http.Header)
	header.Set("x-api-key", cfg.APIKey)
	header.Set("anthropic-version", apiVersion)

	return &LLMService{
		api:   httpapi.New("anthropic", cmp.Or(cfg.BaseURL, DefaultBaseURL), cfg.Timeout, domain.ErrLLMUnavailable, header),
		model: cmp.Or(cfg.Model, DefaultModel),
	}, nil
}

// Chat posts to /v1/messages. The API takes no inline system turns, so
// system messages are joined into the top-level system field.
func (s *LLMService) Chat(ctx context.Context, messages []driven.ChatMessage, opts driven.ChatOptions) (string, error) {
	req := messagesRequest{
		Model:       s.model,
		MaxTokens:   cmp.Or(opts.MaxTokens, DefaultMaxTokens),
		Temperature: opts.Temperature,
	}
	var system []string
	for _, m := range messages {
		if m.Role == driven.RoleSystem {
			system = append(system, m.Content)
			continue
		}
		req.Messages = append(req.Messages, messagesMessage(m))
	}
	req.System = strings.Join(system, "\n\n")

	var resp messagesResponse
	if err := s.api.Post(ctx, "/v1/messages", req, &resp); err != nil {
		return "", err
	}
	if resp.Error != nil {
		return "", s.api.Fail("%s: %s", resp.Error.Type, resp.Error.Message)
	}

	var text strings.Builder
	for _, b := range resp.Content {
		if b.Type == "text" {
			text.WriteString(b.Text)
		}
	}
	if text.Len() == 0 {
		return "", s.api.Fail("no text content")
	}
	return text.String(), nil
}

func (s *LLMService) ModelName() string { return s.model }

// Ping lists models via /v1/models.
func (s *LLMService) Ping(ctx context.Context) error {
	return s.api.Ping(ctx, "/v1/models")
}

func (s *LLMService) Close() error { return nil }
