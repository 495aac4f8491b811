package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/custodia-labs/rankpulse/internal/core/domain"
	"github.com/custodia-labs/rankpulse/internal/core/ports/driven"
	"github.com/custodia-labs/rankpulse/internal/core/ports/driving"
	"github.com/custodia-labs/rankpulse/internal/logger"
	"github.com/custodia-labs/rankpulse/internal/telemetry"
)

// Ensure DocumentService implements the interface.
var _ driving.DocumentService = (*DocumentService)(nil)

// DocumentService manages stored reports and their chunk index.
type DocumentService struct {
	store     driven.ReportStore
	embedder  driven.EmbeddingService
	pipelines driven.PipelineFactory

	tracer  trace.Tracer
	metrics *telemetry.Metrics
	now     func() time.Time
}

// NewDocumentService creates a new document service.
// The embedder may be nil, in which case Ingest fails with ErrEmbeddingUnavailable.
func NewDocumentService(
	store driven.ReportStore,
	embedder driven.EmbeddingService,
	pipelines driven.PipelineFactory,
) *DocumentService {
	return &DocumentService{
		store:     store,
		embedder:  embedder,
		pipelines: pipelines,
		tracer:    telemetry.Tracer(),
		metrics:   telemetry.Default(),
		now:       time.Now,
	}
}

// SetMetrics replaces the telemetry counters.
func (s *DocumentService) SetMetrics(m *telemetry.Metrics) {
	s.metrics = m
}

// Upsert inserts or fully replaces a document and refreshes CreatedAt.
func (s *DocumentService) Upsert(ctx context.Context, in driving.UpsertDocumentInput) (*driving.UpsertResult, error) {
	doc, err := s.newDocument(in)
	if err != nil {
		return nil, err
	}
	if err := s.store.UpsertDocument(ctx, doc); err != nil {
		return nil, fmt.Errorf("upsert document %s: %w", in.ID, err)
	}

	logger.Debug("Upserted %s document %s", in.Type, in.ID)
	return &driving.UpsertResult{DocID: doc.ID, Title: doc.Title}, nil
}

func (s *DocumentService) newDocument(in driving.UpsertDocumentInput) (*domain.Document, error) {
	if strings.TrimSpace(in.ID) == "" {
		return nil, fmt.Errorf("%w: document id is required", domain.ErrInvalidInput)
	}
	if !in.Type.IsValid() {
		return nil, fmt.Errorf("%w: doc type %d", domain.ErrInvalidInput, in.Type)
	}
	return &domain.Document{
		ID:         in.ID,
		Type:       in.Type,
		Title:      in.Title,
		Body:       in.Body,
		ReportDate: in.ReportDate,
		CreatedAt:  s.now(),
	}, nil
}

// Get retrieves a document by ID.
func (s *DocumentService) Get(ctx context.Context, id string) (*domain.Document, error) {
	return s.store.GetDocument(ctx, id)
}

// LatestByType returns the most recently created document of a type.
func (s *DocumentService) LatestByType(ctx context.Context, docType domain.DocType) (*domain.Document, error) {
	return s.store.LatestDocumentByType(ctx, docType)
}

// List returns documents newest first.
func (s *DocumentService) List(ctx context.Context, types []domain.DocType, limit int) ([]domain.Document, error) {
	return s.store.ListDocuments(ctx, types, limit)
}

// Delete removes a document and its chunks.
func (s *DocumentService) Delete(ctx context.Context, id string) error {
	return s.store.DeleteDocument(ctx, id)
}

// Chunks returns the stored chunks of a document in index order.
func (s *DocumentService) Chunks(ctx context.Context, docID string) ([]domain.ReportChunk, error) {
	return s.store.GetChunks(ctx, docID)
}

// Ingest chunks and embeds body, then swaps the chunk set in one transaction.
// Embedding happens before storage is touched, so any failure leaves the
// previous chunks in place.
func (s *DocumentService) Ingest(ctx context.Context, docID, body string, maxChars, overlap int) (n int, err error) {
	ctx, span := s.tracer.Start(ctx, "document.ingest",
		trace.WithAttributes(attribute.String("doc.id", docID)))
	defer func() { endSpan(span, err) }()

	if s.embedder == nil {
		return 0, domain.ErrEmbeddingUnavailable
	}

	// Resolve the document first so unknown ids fail before any provider call.
	doc, err := s.store.GetDocument(ctx, docID)
	if err != nil {
		return 0, fmt.Errorf("ingest %s: %w", docID, err)
	}
	doc.Body = body

	chunks, err := s.embedChunks(ctx, doc, maxChars, overlap)
	if err != nil {
		return 0, err
	}
	if err := s.store.ReplaceChunks(ctx, docID, chunks); err != nil {
		return 0, fmt.Errorf("replace chunks %s: %w", docID, err)
	}

	s.recordIngest(ctx, span, doc, len(chunks))
	return len(chunks), nil
}

// Save stores a new or replacement document only once its chunks are
// embedded, so a provider failure never leaves a body without matching
// chunks.
func (s *DocumentService) Save(
	ctx context.Context, in driving.UpsertDocumentInput, maxChars, overlap int,
) (_ *driving.UpsertResult, err error) {
	ctx, span := s.tracer.Start(ctx, "document.save",
		trace.WithAttributes(attribute.String("doc.id", in.ID)))
	defer func() { endSpan(span, err) }()

	doc, err := s.newDocument(in)
	if err != nil {
		return nil, err
	}
	if s.embedder == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}

	chunks, err := s.embedChunks(ctx, doc, maxChars, overlap)
	if err != nil {
		return nil, err
	}
	if err := s.store.SaveDocumentWithChunks(ctx, doc, chunks); err != nil {
		return nil, fmt.Errorf("save document %s: %w", doc.ID, err)
	}

	s.recordIngest(ctx, span, doc, len(chunks))
	return &driving.UpsertResult{DocID: doc.ID, Title: doc.Title, ChunkCount: len(chunks)}, nil
}

// embedChunks runs the pipeline over doc and attaches one vector per chunk.
func (s *DocumentService) embedChunks(ctx context.Context, doc *domain.Document, maxChars, overlap int) ([]domain.ReportChunk, error) {
	pipeline, err := s.pipelines.Build(maxChars, overlap)
	if err != nil {
		return nil, err
	}
	chunks, err := pipeline.Process(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("chunk %s: %w", doc.ID, err)
	}
	if len(chunks) == 0 {
		return chunks, nil
	}

	texts := make([]string, len(chunks))
	for i := range chunks {
		texts[i] = chunks[i].Content
	}
	vectors, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed %s: %w", doc.ID, err)
	}
	if len(vectors) != len(chunks) {
		return nil, fmt.Errorf("%w: got %d embeddings for %d chunks",
			domain.ErrEmbeddingUnavailable, len(vectors), len(chunks))
	}
	now := s.now()
	for i := range chunks {
		chunks[i].Embedding = vectors[i]
		chunks[i].CreatedAt = now
	}
	return chunks, nil
}

func (s *DocumentService) recordIngest(ctx context.Context, span trace.Span, doc *domain.Document, n int) {
	span.SetAttributes(attribute.Int("doc.chunks", n))
	s.metrics.ChunksIngested.Add(ctx, int64(n),
		metric.WithAttributes(attribute.String("doc.type", doc.Type.String())))
	logger.Debug("Ingested %s: %d chunks", doc.ID, n)
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
