package tui

import (
	"context"
	"time"

	"github.com/custodia-labs/rankpulse/internal/core/domain"
	"github.com/custodia-labs/rankpulse/internal/core/ports/driving"
)

type mockRetrieval struct {
	hits []domain.RetrievedChunk
	err  error
}

func (m *mockRetrieval) Search(_ context.Context, _ domain.SearchQuery) ([]domain.RetrievedChunk, error) {
	return m.hits, m.err
}

func (m *mockRetrieval) RecentDailyReports(
	_ context.Context, _ string, _ time.Time, _, _ int,
) ([]domain.RetrievedChunk, error) {
	return nil, nil
}

func (m *mockRetrieval) SimilarCustomReports(_ context.Context, _ string, _ int) ([]domain.RetrievedChunk, error) {
	return nil, nil
}

func (m *mockRetrieval) BuildChatContext(_ context.Context, _ driving.ChatContextInput) (string, error) {
	return "", nil
}

func (m *mockRetrieval) BuildCustomReportContext(_ context.Context, _ driving.CustomContextInput) (string, error) {
	return "", nil
}

type mockDocuments struct {
	docs []domain.Document
	err  error
}

func (m *mockDocuments) Upsert(_ context.Context, in driving.UpsertDocumentInput) (*driving.UpsertResult, error) {
	return &driving.UpsertResult{DocID: in.ID}, nil
}

func (m *mockDocuments) Get(_ context.Context, id string) (*domain.Document, error) {
	if m.err != nil {
		return nil, m.err
	}
	for i := range m.docs {
		if m.docs[i].ID == id {
			return &m.docs[i], nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockDocuments) LatestByType(_ context.Context, _ domain.DocType) (*domain.Document, error) {
	return nil, domain.ErrNotFound
}

func (m *mockDocuments) List(_ context.Context, _ []domain.DocType, _ int) ([]domain.Document, error) {
	return m.docs, m.err
}

func (m *mockDocuments) Delete(_ context.Context, _ string) error { return nil }

func (m *mockDocuments) Ingest(_ context.Context, _, _ string, _, _ int) (int, error) { return 0, nil }

func (m *mockDocuments) Save(_ context.Context, in driving.UpsertDocumentInput, _, _ int) (*driving.UpsertResult, error) {
	return &driving.UpsertResult{DocID: in.ID, Title: in.Title}, nil
}

func (m *mockDocuments) Chunks(_ context.Context, _ string) ([]domain.ReportChunk, error) {
	return nil, nil
}

type mockReports struct {
	evidence *domain.Evidence
	err      error
}

func (m *mockReports) GenerateDaily(_ context.Context, _ domain.DailyReportInput) domain.DailyReportResult {
	return domain.DailyReportResult{}
}

func (m *mockReports) BuildEvidence(_ context.Context, _ domain.DailyReportInput) (*domain.Evidence, error) {
	return m.evidence, m.err
}

func (m *mockReports) GenerateCustom(_ context.Context, _ domain.CustomReportInput) (*domain.CustomReportResult, error) {
	return nil, domain.ErrNotImplemented
}
