package driven

import (
	"context"

	"github.com/custodia-labs/rankpulse/internal/core/domain"
)

// ReportStore persists report documents and their embedded chunks.
type ReportStore interface {
	// UpsertDocument inserts the document or fully replaces the stored one.
	// CreatedAt is refreshed on every call.
	UpsertDocument(ctx context.Context, doc *domain.Document) error

	// GetDocument retrieves a document by ID.
	// Returns domain.ErrNotFound if it does not exist.
	GetDocument(ctx context.Context, id string) (*domain.Document, error)

	// LatestDocumentByType returns the most recently upserted document of a type.
	// Returns domain.ErrNotFound if none exists.
	LatestDocumentByType(ctx context.Context, docType domain.DocType) (*domain.Document, error)

	// ListDocuments returns documents of the given types, newest first.
	// An empty type list matches every document.
	ListDocuments(ctx context.Context, types []domain.DocType, limit int) ([]domain.Document, error)

	// DeleteDocument removes a document and its chunks.
	DeleteDocument(ctx context.Context, id string) error

	// ReplaceChunks swaps the document's chunk set for the given chunks.
	// Deletion and insertion are atomic: on error the previous set is kept.
	ReplaceChunks(ctx context.Context, docID string, chunks []domain.ReportChunk) error

	// SaveDocumentWithChunks upserts the document and swaps its chunk set
	// in one transaction. On error neither change is visible.
	SaveDocumentWithChunks(ctx context.Context, doc *domain.Document, chunks []domain.ReportChunk) error

	// GetChunks retrieves all chunks for a document ordered by index.
	GetChunks(ctx context.Context, docID string) ([]domain.ReportChunk, error)

	// SearchChunks ranks chunks matching the filter by cosine similarity
	// to the query vector and returns at most topK, most similar first.
	SearchChunks(ctx context.Context, query []float32, filter domain.ChunkFilter, topK int) ([]domain.RetrievedChunk, error)
}
