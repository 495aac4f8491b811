package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/rankpulse/internal/core/domain"
)

func newClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New("acme", srv.URL+"/", time.Second, domain.ErrLLMUnavailable, BearerHeader("k"))
}

func TestClient_Post(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/echo", r.URL.Path)
		assert.Equal(t, "Bearer k", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var in map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		_ = json.NewEncoder(w).Encode(map[string]string{"echo": in["say"]})
	})

	var out struct{ Echo string }
	require.NoError(t, c.Post(context.Background(), "/v1/echo", map[string]string{"say": "hi"}, &out))
	assert.Equal(t, "hi", out.Echo)
}

func TestClient_StatusMapping(t *testing.T) {
	tests := []struct {
		name   string
		status int
		header string
		want   error
		text   string
	}{
		{"rate limited", http.StatusTooManyRequests, "30", domain.ErrRateLimited, "retry after 30"},
		{"server error", http.StatusBadGateway, "", domain.ErrLLMUnavailable, "status 502"},
		{"unauthorised", http.StatusUnauthorized, "", domain.ErrLLMUnavailable, "status 401"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newClient(t, func(w http.ResponseWriter, _ *http.Request) {
				if tt.header != "" {
					w.Header().Set("Retry-After", tt.header)
				}
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte("nope"))
			})

			err := c.Ping(context.Background(), "/models")

			assert.ErrorIs(t, err, tt.want)
			assert.ErrorContains(t, err, tt.text)
			assert.ErrorContains(t, err, "acme: ")
		})
	}
}

func TestClient_TruncatesErrorBody(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(strings.Repeat("x", 4*maxErrorBody)))
	})

	err := c.Ping(context.Background(), "/")
	require.Error(t, err)
	assert.Less(t, len(err.Error()), 2*maxErrorBody)
}

func TestClient_BadJSONIsUnavailable(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("{"))
	})

	var out struct{}
	err := c.Post(context.Background(), "/", struct{}{}, &out)
	assert.ErrorIs(t, err, domain.ErrLLMUnavailable)
}

func TestClient_TransportError(t *testing.T) {
	c := New("acme", "http://127.0.0.1:1", time.Second, domain.ErrEmbeddingUnavailable, nil)
	assert.ErrorIs(t, c.Ping(context.Background(), "/"), domain.ErrEmbeddingUnavailable)
}

func TestClient_Fail(t *testing.T) {
	c := New("acme", "http://x", time.Second, domain.ErrEmbeddingUnavailable, nil)
	err := c.Fail("got %d vectors", 2)
	assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
	assert.EqualError(t, err, "acme: embedding service unavailable: got 2 vectors")
}
