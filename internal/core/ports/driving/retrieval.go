package driving

import (
	"context"
	"time"

	"github.com/custodia-labs/rankpulse/internal/core/domain"
)

// RetrievalService ranks stored report chunks by similarity to a query.
type RetrievalService interface {
	// Search embeds the query and returns the top matches, best first.
	// No matches yields an empty slice, never an error.
	Search(ctx context.Context, q domain.SearchQuery) ([]domain.RetrievedChunk, error)

	// RecentDailyReports searches DAILY reports dated within days of today.
	RecentDailyReports(ctx context.Context, query string, today time.Time, days, topK int) ([]domain.RetrievedChunk, error)

	// SimilarCustomReports searches CUSTOM reports with no date filter.
	SimilarCustomReports(ctx context.Context, query string, topK int) ([]domain.RetrievedChunk, error)

	// BuildChatContext assembles attached data and past insights for a chat turn.
	// Returns "" when nothing is produced.
	BuildChatContext(ctx context.Context, in ChatContextInput) (string, error)

	// BuildCustomReportContext assembles current data and reference reports.
	// Returns "" when nothing is produced.
	BuildCustomReportContext(ctx context.Context, in CustomContextInput) (string, error)
}

// ChatContextInput configures BuildChatContext.
type ChatContextInput struct {
	UserQuery string
	Cards     []domain.DataCard

	// IncludePastReports enables retrieval of recent daily reports.
	IncludePastReports bool

	// MaxContextChunks bounds the past report blocks. Zero means the default.
	MaxContextChunks int

	// Today anchors the recent-report window. Zero means now.
	Today time.Time
}

// CustomContextInput configures BuildCustomReportContext.
type CustomContextInput struct {
	UserQuery string
	Cards     []domain.DataCard

	// IncludeSimilarReports enables retrieval of past custom reports.
	IncludeSimilarReports bool
}
