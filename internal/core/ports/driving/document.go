package driving

import (
	"context"
	"time"

	"github.com/custodia-labs/rankpulse/internal/core/domain"
)

// DocumentService manages stored reports and their chunk index.
type DocumentService interface {
	// Upsert inserts or fully replaces a document and refreshes CreatedAt.
	Upsert(ctx context.Context, in UpsertDocumentInput) (*UpsertResult, error)

	// Get retrieves a document by ID.
	// Returns domain.ErrNotFound if absent.
	Get(ctx context.Context, id string) (*domain.Document, error)

	// LatestByType returns the most recently created document of a type.
	// Returns domain.ErrNotFound if none exists.
	LatestByType(ctx context.Context, docType domain.DocType) (*domain.Document, error)

	// List returns documents newest first, optionally restricted by type.
	List(ctx context.Context, types []domain.DocType, limit int) ([]domain.Document, error)

	// Delete removes a document and its chunks.
	Delete(ctx context.Context, id string) error

	// Ingest chunks and embeds body, then atomically replaces the
	// document's chunk set. Returns the new chunk count.
	Ingest(ctx context.Context, docID, body string, maxChars, overlap int) (int, error)

	// Save chunks and embeds in.Body, then stores the document and its
	// chunks together. Nothing is written when any step fails.
	Save(ctx context.Context, in UpsertDocumentInput, maxChars, overlap int) (*UpsertResult, error)

	// Chunks returns the stored chunks of a document in index order.
	Chunks(ctx context.Context, docID string) ([]domain.ReportChunk, error)
}

// UpsertDocumentInput carries the fields of a document upsert.
type UpsertDocumentInput struct {
	ID         string
	Type       domain.DocType
	Title      string
	Body       string
	ReportDate *time.Time
}

// UpsertResult identifies the stored document.
type UpsertResult struct {
	DocID string `json:"doc_id"`
	Title string `json:"title"`

	// ChunkCount is set by Save.
	ChunkCount int `json:"chunk_count,omitempty"`
}
