// Package ollama completes chats against a local Ollama server.
package ollama

import (
	"cmp"
	"context"
	"time"

	"github.com/custodia-labs/rankpulse/internal/adapters/driven/httpapi"
	"github.com/custodia-labs/rankpulse/internal/core/domain"
	"github.com/custodia-labs/rankpulse/internal/core/ports/driven"
)

var _ driven.LLMService = (*LLMService)(nil)

const (
	DefaultBaseURL  = "http://localhost:11434"
	DefaultLLMModel = "llama3.2"
	// DefaultLLMTimeout is generous because local models generate slowly.
	DefaultLLMTimeout = 300 * time.Second
)

// LLMConfig configures NewLLMService. All fields are optional.
type LLMConfig struct {
	BaseURL string
	Model   string
	Timeout time.Duration
}

type LLMService struct {
	api   *httpapi.Client
	model string
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
	Options  *options      `json:"options,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// options holds the sampling knobs; num_predict is Ollama's token cap.
type options struct {
	NumPredict  int     `json:"num_predict,omitempty"`
	Temperature float64 `json:"temperature,omitempty"`
}

type chatResponse struct {
	Message chatMessage `json:"message"`
	Error   string      `json:"error,omitempty"`
}

func NewLLMService(cfg LLMConfig) *LLMService {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultLLMTimeout
	}
	return &LLMService{
		api:   httpapi.New("ollama", cmp.Or(cfg.BaseURL, DefaultBaseURL), cfg.Timeout, domain.ErrLLMUnavailable, nil),
		model: cmp.Or(cfg.Model, DefaultLLMModel),
	}
}

// Chat posts to /api/chat with streaming off.
func (s *LLMService) Chat(ctx context.Context, messages []driven.ChatMessage, opts driven.ChatOptions) (string, error) {
	req := chatRequest{Model: s.model}
	for _, m := range messages {
		req.Messages = append(req.Messages, chatMessage(m))
	}
	if opts != (driven.ChatOptions{}) {
		req.Options = &options{NumPredict: opts.MaxTokens, Temperature: opts.Temperature}
	}

	var resp chatResponse
	if err := s.api.Post(ctx, "/api/chat", req, &resp); err != nil {
		return "", err
	}
	if resp.Error != "" {
		return "", s.api.Fail("%s", resp.Error)
	}
	return resp.Message.Content, nil
}

func (s *LLMService) ModelName() string { return s.model }

// Ping lists local models via /api/tags.
func (s *LLMService) Ping(ctx context.Context) error {
	return s.api.Ping(ctx, "/api/tags")
}

func (s *LLMService) Close() error { return nil }
