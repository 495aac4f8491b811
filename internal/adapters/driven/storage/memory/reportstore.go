package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/custodia-labs/rankpulse/internal/core/domain"
	"github.com/custodia-labs/rankpulse/internal/core/ports/driven"
)

// Ensure ReportStore implements the interface.
var _ driven.ReportStore = (*ReportStore)(nil)

// ReportStore is an in-memory implementation of driven.ReportStore.
type ReportStore struct {
	mu        sync.RWMutex
	documents map[string]domain.Document
	chunks    map[string][]domain.ReportChunk
	seq       map[string]int
	next      int
}

// NewReportStore creates a new in-memory report store.
func NewReportStore() *ReportStore {
	return &ReportStore{
		documents: make(map[string]domain.Document),
		chunks:    make(map[string][]domain.ReportChunk),
		seq:       make(map[string]int),
	}
}

// UpsertDocument stores or replaces a document.
func (s *ReportStore) UpsertDocument(_ context.Context, doc *domain.Document) error {
	if doc == nil || doc.ID == "" {
		return domain.ErrInvalidInput
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.documents[doc.ID] = *doc
	s.next++
	s.seq[doc.ID] = s.next
	return nil
}

// GetDocument retrieves a document by ID.
func (s *ReportStore) GetDocument(_ context.Context, id string) (*domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.documents[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &doc, nil
}

// LatestDocumentByType returns the newest document of a type.
func (s *ReportStore) LatestDocumentByType(ctx context.Context, docType domain.DocType) (*domain.Document, error) {
	docs, err := s.ListDocuments(ctx, []domain.DocType{docType}, 1)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, domain.ErrNotFound
	}
	return &docs[0], nil
}

// ListDocuments returns documents of the given types, newest first.
func (s *ReportStore) ListDocuments(_ context.Context, types []domain.DocType, limit int) ([]domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var docs []domain.Document
	for _, d := range s.documents {
		if matchesType(d.Type, types) {
			docs = append(docs, d)
		}
	}
	sort.Slice(docs, func(i, j int) bool {
		if !docs[i].CreatedAt.Equal(docs[j].CreatedAt) {
			return docs[i].CreatedAt.After(docs[j].CreatedAt)
		}
		return s.seq[docs[i].ID] > s.seq[docs[j].ID]
	})
	if limit > 0 && len(docs) > limit {
		docs = docs[:limit]
	}
	return docs, nil
}

// DeleteDocument removes a document and its chunks.
func (s *ReportStore) DeleteDocument(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.documents, id)
	delete(s.chunks, id)
	delete(s.seq, id)
	return nil
}

// ReplaceChunks swaps the chunk set of a document.
func (s *ReportStore) ReplaceChunks(_ context.Context, docID string, chunks []domain.ReportChunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.documents[docID]; !ok {
		return domain.ErrNotFound
	}
	staged, err := stageChunks(docID, chunks)
	if err != nil {
		return err
	}
	s.chunks[docID] = staged
	return nil
}

// SaveDocumentWithChunks stores the document and its chunk set together.
func (s *ReportStore) SaveDocumentWithChunks(_ context.Context, doc *domain.Document, chunks []domain.ReportChunk) error {
	if doc == nil || doc.ID == "" {
		return domain.ErrInvalidInput
	}
	staged, err := stageChunks(doc.ID, chunks)
	if err != nil {
		return err
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.documents[doc.ID] = *doc
	s.next++
	s.seq[doc.ID] = s.next
	s.chunks[doc.ID] = staged
	return nil
}

// stageChunks binds chunks to docID in index order, rejecting repeated indexes.
func stageChunks(docID string, chunks []domain.ReportChunk) ([]domain.ReportChunk, error) {
	seen := make(map[int]bool, len(chunks))
	staged := make([]domain.ReportChunk, len(chunks))
	for i, c := range chunks {
		if seen[c.Index] {
			return nil, domain.ErrAlreadyExists
		}
		seen[c.Index] = true
		c.DocID = docID
		staged[i] = c
	}
	sort.Slice(staged, func(i, j int) bool { return staged[i].Index < staged[j].Index })
	return staged, nil
}

// GetChunks retrieves all chunks for a document.
func (s *ReportStore) GetChunks(_ context.Context, docID string) ([]domain.ReportChunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.ReportChunk(nil), s.chunks[docID]...), nil
}

// SearchChunks ranks filtered chunks by cosine similarity.
func (s *ReportStore) SearchChunks(
	_ context.Context, query []float32, filter domain.ChunkFilter, topK int,
) ([]domain.RetrievedChunk, error) {
	results := []domain.RetrievedChunk{}
	if topK <= 0 {
		return results, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	for docID, chunks := range s.chunks {
		doc := s.documents[docID]
		if !matchesType(doc.Type, filter.DocTypes) || !matchesDate(doc.ReportDate, filter) {
			continue
		}
		for _, c := range chunks {
			if len(c.Embedding) == 0 {
				continue
			}
			results = append(results, domain.RetrievedChunk{
				Content:    c.Content,
				DocID:      doc.ID,
				Title:      doc.Title,
				DocType:    doc.Type,
				ReportDate: doc.ReportDate,
				Similarity: domain.CosineSimilarity(query, c.Embedding),
			})
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Similarity != results[j].Similarity {
			return results[i].Similarity > results[j].Similarity
		}
		return results[i].DocID < results[j].DocID
	})
	if len(results) > topK {
		results = results[:topK]
	}
	return results, nil
}

func matchesType(t domain.DocType, types []domain.DocType) bool {
	if len(types) == 0 {
		return true
	}
	for _, want := range types {
		if t == want {
			return true
		}
	}
	return false
}

func matchesDate(reportDate *time.Time, f domain.ChunkFilter) bool {
	if f.DateFrom == nil && f.DateTo == nil {
		return true
	}
	if reportDate == nil {
		return false
	}
	d := reportDate.Format(domain.DateLayout)
	if f.DateFrom != nil && d < f.DateFrom.Format(domain.DateLayout) {
		return false
	}
	if f.DateTo != nil && d > f.DateTo.Format(domain.DateLayout) {
		return false
	}
	return true
}
