// Package httpapi is the JSON-over-HTTP plumbing shared by the provider
// adapters. It maps transport failures and non-200 answers to the domain
// sentinels so callers can use errors.Is without knowing the provider.
package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/custodia-labs/rankpulse/internal/core/domain"
)

// maxErrorBody caps how much of an error response ends up in messages.
const maxErrorBody = 512

// Client talks to one provider. Header is sent on every request.
type Client struct {
	provider    string
	baseURL     string
	http        *http.Client
	header      http.Header
	unavailable error
}

// New returns a client whose failures wrap unavailable, typically
// domain.ErrLLMUnavailable or domain.ErrEmbeddingUnavailable.
func New(provider, baseURL string, timeout time.Duration, unavailable error, header http.Header) *Client {
	if header == nil {
		header = make(http.Header)
	}
	return &Client{
		provider:    provider,
		baseURL:     strings.TrimRight(baseURL, "/"),
		http:        &http.Client{Timeout: timeout},
		header:      header,
		unavailable: unavailable,
	}
}

// BearerHeader is the Authorization header OpenAI-style APIs expect.
func BearerHeader(token string) http.Header {
	h := make(http.Header)
	h.Set("Authorization", "Bearer "+token)
	return h
}

// Post sends in as JSON to path and decodes the 200 answer into out.
func (c *Client) Post(ctx context.Context, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("%s: encoding request: %w", c.provider, err)
	}
	raw, err := c.do(ctx, http.MethodPost, path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%s: %w: decoding response: %w", c.provider, c.unavailable, err)
	}
	return nil
}

// Ping issues a GET to path and only checks the status.
func (c *Client) Ping(ctx context.Context, path string) error {
	_, err := c.do(ctx, http.MethodGet, path, http.NoBody)
	return err
}

// Fail wraps a provider-reported failure that arrived with status 200.
func (c *Client) Fail(format string, args ...any) error {
	return fmt.Errorf("%s: %w: %s", c.provider, c.unavailable, fmt.Sprintf(format, args...))
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("%s: building request: %w", c.provider, err)
	}
	for k, v := range c.header {
		req.Header[k] = v
	}
	if method == http.MethodPost {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", c.provider, c.unavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: reading response: %w", c.provider, c.unavailable, err)
	}
	if err := c.status(resp, raw); err != nil {
		return nil, err
	}
	return raw, nil
}

func (c *Client) status(resp *http.Response, raw []byte) error {
	if resp.StatusCode == http.StatusOK {
		return nil
	}
	msg := strings.TrimSpace(string(raw))
	if len(msg) > maxErrorBody {
		msg = msg[:maxErrorBody] + "..."
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		if after := resp.Header.Get("Retry-After"); after != "" {
			msg += " (retry after " + after + ")"
		}
		return fmt.Errorf("%s: %w: %s", c.provider, domain.ErrRateLimited, msg)
	}
	return fmt.Errorf("%s: %w (status %d): %s", c.provider, c.unavailable, resp.StatusCode, msg)
}
