// Package mcp provides an MCP (Model Context Protocol) server adapter for rankpulse.
// It lets AI assistants search past reports, build prompt context and
// trigger the daily report.
package mcp

import (
	"errors"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/rankpulse/internal/core/domain"
)

// ErrMissingRetrievalService is returned when the retrieval service is not provided.
var ErrMissingRetrievalService = errors.New("mcp: retrieval service is required")

// errToolUnavailable is reported when an optional port was not wired.
var errToolUnavailable = errors.New("tool unavailable: service not configured")

// toolError converts caller-facing domain errors into an MCP tool error result
// so the assistant sees the message. Other errors are returned unchanged and
// surface as protocol errors.
func toolError(err error) (*mcp.CallToolResult, error) {
	switch {
	case errors.Is(err, domain.ErrNotFound),
		errors.Is(err, domain.ErrInvalidInput),
		errors.Is(err, domain.ErrRuleDocMissing),
		errors.Is(err, domain.ErrLLMUnavailable),
		errors.Is(err, domain.ErrEmbeddingUnavailable),
		errors.Is(err, domain.ErrCircuitOpen),
		errors.Is(err, domain.ErrRateLimited),
		errors.Is(err, errToolUnavailable):
		return &mcp.CallToolResult{
			IsError: true,
			Content: []mcp.Content{&mcp.TextContent{Text: err.Error()}},
		}, nil
	default:
		return nil, err
	}
}

func isNotFound(err error) bool {
	return errors.Is(err, domain.ErrNotFound)
}
