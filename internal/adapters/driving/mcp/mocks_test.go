package mcp

import (
	"context"
	"time"

	"github.com/custodia-labs/rankpulse/internal/core/domain"
	"github.com/custodia-labs/rankpulse/internal/core/ports/driving"
)

// mockRetrievalService is a test double for driving.RetrievalService.
type mockRetrievalService struct {
	hits      []domain.RetrievedChunk
	context   string
	err       error
	lastQuery domain.SearchQuery
	lastChat  driving.ChatContextInput
	lastCust  driving.CustomContextInput
}

func (m *mockRetrievalService) Search(_ context.Context, q domain.SearchQuery) ([]domain.RetrievedChunk, error) {
	m.lastQuery = q
	return m.hits, m.err
}

func (m *mockRetrievalService) RecentDailyReports(
	_ context.Context, _ string, _ time.Time, _, _ int,
) ([]domain.RetrievedChunk, error) {
	return m.hits, m.err
}

func (m *mockRetrievalService) SimilarCustomReports(_ context.Context, _ string, _ int) ([]domain.RetrievedChunk, error) {
	return m.hits, m.err
}

func (m *mockRetrievalService) BuildChatContext(_ context.Context, in driving.ChatContextInput) (string, error) {
	m.lastChat = in
	return m.context, m.err
}

func (m *mockRetrievalService) BuildCustomReportContext(_ context.Context, in driving.CustomContextInput) (string, error) {
	m.lastCust = in
	return m.context, m.err
}

// mockReportService is a test double for driving.ReportService.
type mockReportService struct {
	result domain.DailyReportResult
	lastIn domain.DailyReportInput
	calls  int
}

func (m *mockReportService) GenerateDaily(_ context.Context, in domain.DailyReportInput) domain.DailyReportResult {
	m.calls++
	m.lastIn = in
	return m.result
}

func (m *mockReportService) BuildEvidence(_ context.Context, _ domain.DailyReportInput) (*domain.Evidence, error) {
	return &domain.Evidence{}, nil
}

func (m *mockReportService) GenerateCustom(
	_ context.Context, _ domain.CustomReportInput,
) (*domain.CustomReportResult, error) {
	return nil, domain.ErrNotImplemented
}

// mockDocumentService is a test double for driving.DocumentService.
type mockDocumentService struct {
	docs map[string]*domain.Document
	err  error
}

func (m *mockDocumentService) Upsert(
	_ context.Context, in driving.UpsertDocumentInput,
) (*driving.UpsertResult, error) {
	return &driving.UpsertResult{DocID: in.ID, Title: in.Title}, nil
}

func (m *mockDocumentService) Get(_ context.Context, id string) (*domain.Document, error) {
	if m.err != nil {
		return nil, m.err
	}
	doc, ok := m.docs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return doc, nil
}

func (m *mockDocumentService) LatestByType(_ context.Context, t domain.DocType) (*domain.Document, error) {
	if m.err != nil {
		return nil, m.err
	}
	var latest *domain.Document
	for _, d := range m.docs {
		if d.Type == t && (latest == nil || d.CreatedAt.After(latest.CreatedAt)) {
			latest = d
		}
	}
	if latest == nil {
		return nil, domain.ErrNotFound
	}
	return latest, nil
}

func (m *mockDocumentService) List(_ context.Context, _ []domain.DocType, _ int) ([]domain.Document, error) {
	if m.err != nil {
		return nil, m.err
	}
	out := make([]domain.Document, 0, len(m.docs))
	for _, id := range []string{"daily_2025-03-15", "rule"} {
		if d, ok := m.docs[id]; ok {
			out = append(out, *d)
		}
	}
	return out, nil
}

func (m *mockDocumentService) Delete(_ context.Context, _ string) error { return nil }

func (m *mockDocumentService) Ingest(_ context.Context, _, _ string, _, _ int) (int, error) {
	return 0, nil
}

func (m *mockDocumentService) Save(
	_ context.Context, in driving.UpsertDocumentInput, _, _ int,
) (*driving.UpsertResult, error) {
	return &driving.UpsertResult{DocID: in.ID, Title: in.Title}, nil
}

func (m *mockDocumentService) Chunks(_ context.Context, _ string) ([]domain.ReportChunk, error) {
	return nil, nil
}

func sampleDocs() map[string]*domain.Document {
	date := time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)
	return map[string]*domain.Document{
		"daily_2025-03-15": {
			ID:         "daily_2025-03-15",
			Type:       domain.DocTypeDaily,
			Title:      domain.DailyTitle(date),
			Body:       "# Daily\nrank moves",
			ReportDate: &date,
			CreatedAt:  time.Date(2025, 3, 15, 2, 0, 0, 0, time.UTC),
		},
		"rule": {
			ID:        "rule",
			Type:      domain.DocTypeRule,
			Title:     "Rules",
			Body:      "Be concise.",
			CreatedAt: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		},
	}
}
