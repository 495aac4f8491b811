package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/custodia-labs/rankpulse/internal/core/domain"
	"github.com/custodia-labs/rankpulse/internal/core/ports/driven"
	"github.com/custodia-labs/rankpulse/internal/core/ports/driving"
	"github.com/custodia-labs/rankpulse/internal/logger"
	"github.com/custodia-labs/rankpulse/internal/telemetry"
)

// Ensure RetrievalService implements the interface.
var _ driving.RetrievalService = (*RetrievalService)(nil)

// Context block limits.
const (
	chatPreviewChars   = 500
	customPreviewChars = 600
	maxReferenceDocs   = 2
	defaultSearchTopK  = 5
	truncationMarker   = "..."
	contextSeparator   = "\n\n---\n\n"
)

// RetrievalService ranks stored report chunks by similarity to a query
// and assembles prompt context from the hits.
type RetrievalService struct {
	store    driven.ReportStore
	embedder driven.EmbeddingService
	rag      domain.RAGSettings

	tracer  trace.Tracer
	metrics *telemetry.Metrics
	now     func() time.Time
}

// NewRetrievalService creates a retrieval service.
// The embedder may be nil, in which case searches fail with ErrEmbeddingUnavailable.
func NewRetrievalService(
	store driven.ReportStore,
	embedder driven.EmbeddingService,
	rag domain.RAGSettings,
) *RetrievalService {
	return &RetrievalService{
		store:    store,
		embedder: embedder,
		rag:      rag,
		tracer:   telemetry.Tracer(),
		metrics:  telemetry.Default(),
		now:      time.Now,
	}
}

// SetMetrics replaces the telemetry counters.
func (s *RetrievalService) SetMetrics(m *telemetry.Metrics) {
	s.metrics = m
}

// Search embeds the query and returns the top matches, best first.
// It applies no similarity threshold.
func (s *RetrievalService) Search(ctx context.Context, q domain.SearchQuery) (_ []domain.RetrievedChunk, err error) {
	ctx, span := s.tracer.Start(ctx, "retrieval.search", trace.WithAttributes(
		attribute.Int("rag.top_k", q.TopK),
		attribute.Bool("rag.date_filter", q.HasDateFilter()),
	))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	query := strings.TrimSpace(q.Query)
	if query == "" {
		logger.Debug("Empty query, returning no results")
		return []domain.RetrievedChunk{}, nil
	}
	if s.embedder == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}

	topK := q.TopK
	if topK <= 0 {
		topK = defaultSearchTopK
	}

	vec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	results, err := s.store.SearchChunks(ctx, vec, q.Filter(), topK)
	if err != nil {
		return nil, fmt.Errorf("search chunks: %w", err)
	}
	if results == nil {
		results = []domain.RetrievedChunk{}
	}

	span.SetAttributes(attribute.Int("rag.results", len(results)))
	logger.Debug("Search %q: %d results (types=%v)", truncateRunes(query, 50), len(results), q.DocTypes)
	return results, nil
}

// FilterBySimilarity drops results below threshold. The dropped count is logged
// and recorded on the rag.results.dropped counter.
func (s *RetrievalService) FilterBySimilarity(
	ctx context.Context, results []domain.RetrievedChunk, threshold float64,
) []domain.RetrievedChunk {
	kept := make([]domain.RetrievedChunk, 0, len(results))
	for _, r := range results {
		if r.Similarity >= threshold {
			kept = append(kept, r)
		}
	}

	if dropped := len(results) - len(kept); dropped > 0 {
		s.metrics.ResultsDropped.Add(ctx, int64(dropped))
		logger.Debug("Found %d, after filter (>=%.2f): %d", len(results), threshold, len(kept))
	}
	return kept
}

// search runs Search and applies the configured similarity threshold.
func (s *RetrievalService) search(ctx context.Context, q domain.SearchQuery) ([]domain.RetrievedChunk, error) {
	results, err := s.Search(ctx, q)
	if err != nil {
		return nil, err
	}
	return s.FilterBySimilarity(ctx, results, s.rag.MinSimilarity), nil
}

// RecentDailyReports searches DAILY reports dated in [today-days, today].
func (s *RetrievalService) RecentDailyReports(
	ctx context.Context, query string, today time.Time, days, topK int,
) ([]domain.RetrievedChunk, error) {
	if days <= 0 {
		days = s.rag.RecentDays
	}
	if topK <= 0 {
		topK = s.rag.RecentTopK
	}
	if today.IsZero() {
		today = s.now()
	}

	to := domain.DateOnly(today)
	from := to.AddDate(0, 0, -days)
	return s.search(ctx, domain.SearchQuery{
		Query:    query,
		TopK:     topK,
		DocTypes: []domain.DocType{domain.DocTypeDaily},
		DateFrom: &from,
		DateTo:   &to,
	})
}

// SimilarCustomReports searches CUSTOM reports with no date filter.
func (s *RetrievalService) SimilarCustomReports(
	ctx context.Context, query string, topK int,
) ([]domain.RetrievedChunk, error) {
	if topK <= 0 {
		topK = s.rag.CustomTopK
	}
	return s.search(ctx, domain.SearchQuery{
		Query:    query,
		TopK:     topK,
		DocTypes: []domain.DocType{domain.DocTypeCustom},
	})
}

// BuildChatContext assembles attached cards then recent daily report
// excerpts. Returns "" when neither produces a block.
func (s *RetrievalService) BuildChatContext(ctx context.Context, in driving.ChatContextInput) (string, error) {
	var parts []string

	if cards := renderCards(in.Cards, "[CARD]"); cards != "" {
		parts = append(parts, "[USER_ATTACHED_DATA]\n"+cards)
	}

	if in.IncludePastReports {
		limit := in.MaxContextChunks
		if limit <= 0 {
			limit = s.rag.MaxContextChunks
		}
		docs, err := s.RecentDailyReports(ctx, in.UserQuery, in.Today, s.rag.RecentDays, limit)
		if err != nil {
			return "", err
		}
		if len(docs) > 0 {
			blocks := make([]string, len(docs))
			for i, d := range docs {
				blocks[i] = fmt.Sprintf("[PAST_REPORT] %s (%s)\n%s",
					d.Title, d.ReportDateString(), preview(d.Content, chatPreviewChars))
			}
			parts = append(parts, "[RELEVANT_PAST_INSIGHTS]\n"+strings.Join(blocks, "\n\n"))
		}
	}

	return strings.Join(parts, contextSeparator), nil
}

// BuildCustomReportContext assembles current data cards then up to two
// similar past custom reports. Returns "" when neither produces a block.
func (s *RetrievalService) BuildCustomReportContext(ctx context.Context, in driving.CustomContextInput) (string, error) {
	var parts []string

	if cards := renderCards(in.Cards, "[DATA]"); cards != "" {
		parts = append(parts, "[CURRENT_DATA]\n"+cards)
	}

	if in.IncludeSimilarReports {
		docs, err := s.SimilarCustomReports(ctx, in.UserQuery, maxReferenceDocs)
		if err != nil {
			return "", err
		}
		if len(docs) > 0 {
			blocks := make([]string, len(docs))
			for i, d := range docs {
				blocks[i] = fmt.Sprintf("[REFERENCE_REPORT] %s\n%s", d.Title, preview(d.Content, customPreviewChars))
			}
			parts = append(parts, "[SIMILAR_PAST_REPORTS_FOR_REFERENCE]\n"+strings.Join(blocks, "\n\n"))
		}
	}

	return strings.Join(parts, contextSeparator), nil
}

// renderCards formats cards as "<tag> title" followed by "  - line" rows.
func renderCards(cards []domain.DataCard, tag string) string {
	blocks := make([]string, 0, len(cards))
	for _, c := range cards {
		var b strings.Builder
		b.WriteString(tag + " " + c.Title)
		for _, ln := range c.Lines {
			b.WriteString("\n  - " + ln)
		}
		blocks = append(blocks, b.String())
	}
	return strings.Join(blocks, "\n\n")
}

// preview truncates s to n runes, appending the truncation marker when cut.
func preview(s string, n int) string {
	if len([]rune(s)) <= n {
		return s
	}
	return truncateRunes(s, n) + truncationMarker
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
