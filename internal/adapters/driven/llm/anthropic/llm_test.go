package anthropic

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/rankpulse/internal/core/domain"
	"github.com/custodia-labs/rankpulse/internal/core/ports/driven"
)

func TestChat_LiftsSystemMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "k", r.Header.Get("x-api-key"))

		var req messagesRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "rules", req.System)
		assert.Equal(t, DefaultMaxTokens, req.MaxTokens)
		require.Len(t, req.Messages, 1)
		assert.Equal(t, "user", req.Messages[0].Role)

		_, _ = w.Write([]byte(`{"content":[{"type":"text","text":"one "},{"type":"text","text":"two"}]}`))
	}))
	defer srv.Close()

	svc, err := NewLLMService(Config{APIKey: "k", BaseURL: srv.URL})
	require.NoError(t, err)

	out, err := svc.Chat(t.Context(), []driven.ChatMessage{
		{Role: driven.RoleSystem, Content: "rules"},
		{Role: driven.RoleUser, Content: "hi"},
	}, driven.ChatOptions{})
	require.NoError(t, err)
	assert.Equal(t, "one two", out)
}

func TestChat_Failures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   error
		text   string
	}{
		{"api error", http.StatusOK, `{"error":{"type":"overloaded_error","message":"busy"}}`, domain.ErrLLMUnavailable, "overloaded_error: busy"},
		{"no text", http.StatusOK, `{"content":[{"type":"tool_use"}]}`, domain.ErrLLMUnavailable, "no text content"},
		{"rate limited", http.StatusTooManyRequests, `{}`, domain.ErrRateLimited, "rate limited"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			svc, err := NewLLMService(Config{APIKey: "k", BaseURL: srv.URL})
			require.NoError(t, err)

			_, err = svc.Chat(t.Context(), []driven.ChatMessage{{Role: driven.RoleUser, Content: "hi"}}, driven.ChatOptions{MaxTokens: 10})
			assert.ErrorIs(t, err, tt.want)
			assert.ErrorContains(t, err, tt.text)
		})
	}
}

func TestPing_SendsVersionHeader(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/models", r.URL.Path)
		assert.Equal(t, apiVersion, r.Header.Get("anthropic-version"))
		_, _ = w.Write([]byte(`{"data":[]}`))
	}))
	defer srv.Close()

	svc, err := NewLLMService(Config{APIKey: "k", BaseURL: srv.URL})
	require.NoError(t, err)
	assert.NoError(t, svc.Ping(t.Context()))
	assert.Equal(t, DefaultModel, svc.ModelName())
}

func TestNewLLMService_RequiresKey(t *testing.T) {
	_, err := NewLLMService(Config{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
