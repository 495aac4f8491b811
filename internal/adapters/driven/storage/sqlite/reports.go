package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/custodia-labs/rankpulse/internal/core/domain"
	"github.com/custodia-labs/rankpulse/internal/core/ports/driven"
)

// reportStore implements driven.ReportStore.
type reportStore struct {
	store *Store
}

var _ driven.ReportStore = (*reportStore)(nil)

// execer is satisfied by *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// UpsertDocument stores or fully replaces a document.
func (s *reportStore) UpsertDocument(ctx context.Context, doc *domain.Document) error {
	if doc == nil || doc.ID == "" {
		return domain.ErrInvalidInput
	}
	return upsertDocument(ctx, s.store.db, doc)
}

func upsertDocument(ctx context.Context, db execer, doc *domain.Document) error {
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now()
	}

	_, err := db.ExecContext(ctx, `
		INSERT INTO rag_docs (id, doc_type, title, body, report_date, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			doc_type = excluded.doc_type,
			title = excluded.title,
			body = excluded.body,
			report_date = excluded.report_date,
			created_at = excluded.created_at
	`, doc.ID, int(doc.Type), doc.Title, doc.Body,
		nullableDate(doc.ReportDate, domain.DateLayout), formatTime(doc.CreatedAt))

	if err != nil {
		return fmt.Errorf("saving document: %w", err)
	}
	return nil
}

// GetDocument retrieves a document by ID.
func (s *reportStore) GetDocument(ctx context.Context, id string) (*domain.Document, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, doc_type, title, body, report_date, created_at
		FROM rag_docs WHERE id = ?
	`, id)

	return scanDocument(row)
}

// LatestDocumentByType returns the newest document of a type.
func (s *reportStore) LatestDocumentByType(ctx context.Context, docType domain.DocType) (*domain.Document, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, doc_type, title, body, report_date, created_at
		FROM rag_docs WHERE doc_type = ?
		ORDER BY created_at DESC, rowid DESC
		LIMIT 1
	`, int(docType))

	return scanDocument(row)
}

// ListDocuments returns documents of the given types, newest first.
func (s *reportStore) ListDocuments(ctx context.Context, types []domain.DocType, limit int) ([]domain.Document, error) {
	query := `SELECT id, doc_type, title, body, report_date, created_at FROM rag_docs`
	var args []any
	if len(types) > 0 {
		query += " WHERE doc_type IN (" + placeholders(len(types)) + ")"
		for _, t := range types {
			args = append(args, int(t))
		}
	}
	query += " ORDER BY created_at DESC, rowid DESC"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}
	defer rows.Close()

	var docs []domain.Document //nolint:prealloc // size unknown from query
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating documents: %w", err)
	}
	return docs, nil
}

// DeleteDocument removes a document and its chunks.
func (s *reportStore) DeleteDocument(ctx context.Context, id string) error {
	_, err := s.store.db.ExecContext(ctx, "DELETE FROM rag_docs WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting document: %w", err)
	}
	return nil
}

// ReplaceChunks deletes the document's chunks and inserts the new set
// in a single transaction.
func (s *reportStore) ReplaceChunks(ctx context.Context, docID string, chunks []domain.ReportChunk) error {
	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	var exists int
	err = tx.QueryRowContext(ctx, "SELECT 1 FROM rag_docs WHERE id = ?", docID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("checking document: %w", err)
	}

	if err := writeChunks(ctx, tx, docID, chunks); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// SaveDocumentWithChunks upserts the document row and swaps its chunks in
// one transaction.
func (s *reportStore) SaveDocumentWithChunks(ctx context.Context, doc *domain.Document, chunks []domain.ReportChunk) error {
	if doc == nil || doc.ID == "" {
		return domain.ErrInvalidInput
	}

	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if err := upsertDocument(ctx, tx, doc); err != nil {
		return err
	}
	if err := writeChunks(ctx, tx, doc.ID, chunks); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// writeChunks replaces every chunk row of docID inside tx.
func writeChunks(ctx context.Context, tx *sql.Tx, docID string, chunks []domain.ReportChunk) error {
	if _, err := tx.ExecContext(ctx, "DELETE FROM rag_doc_chunks WHERE doc_id = ?", docID); err != nil {
		return fmt.Errorf("deleting chunks: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO rag_doc_chunks (id, doc_id, chunk_index, content, embedding, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	now := time.Now()
	for _, chunk := range chunks {
		created := chunk.CreatedAt
		if created.IsZero() {
			created = now
		}
		if _, err := stmt.ExecContext(ctx, chunk.ID, docID, chunk.Index, chunk.Content,
			encodeVector(chunk.Embedding), formatTime(created)); err != nil {
			return fmt.Errorf("saving chunk %d: %w", chunk.Index, err)
		}
	}
	return nil
}

// GetChunks retrieves all chunks for a document.
func (s *reportStore) GetChunks(ctx context.Context, docID string) ([]domain.ReportChunk, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, doc_id, chunk_index, content, embedding, created_at
		FROM rag_doc_chunks WHERE doc_id = ?
		ORDER BY chunk_index
	`, docID)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	var chunks []domain.ReportChunk //nolint:prealloc // size unknown from query
	for rows.Next() {
		var c domain.ReportChunk
		var blob []byte
		var created string
		if err := rows.Scan(&c.ID, &c.DocID, &c.Index, &c.Content, &blob, &created); err != nil {
			return nil, fmt.Errorf("scanning chunk: %w", err)
		}
		c.Embedding = decodeVector(blob)
		if c.CreatedAt, err = parseTime(created); err != nil {
			return nil, err
		}
		chunks = append(chunks, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunks: %w", err)
	}
	return chunks, nil
}

// SearchChunks applies type and date filters in SQL and ranks the
// remaining chunks by cosine similarity. Equal scores keep doc id and
// chunk index order.
func (s *reportStore) SearchChunks(
	ctx context.Context, query []float32, filter domain.ChunkFilter, topK int,
) ([]domain.RetrievedChunk, error) {
	if topK <= 0 {
		return []domain.RetrievedChunk{}, nil
	}

	var where []string
	var args []any
	if len(filter.DocTypes) > 0 {
		where = append(where, "d.doc_type IN ("+placeholders(len(filter.DocTypes))+")")
		for _, t := range filter.DocTypes {
			args = append(args, int(t))
		}
	}
	if filter.DateFrom != nil || filter.DateTo != nil {
		where = append(where, "d.report_date IS NOT NULL")
	}
	if filter.DateFrom != nil {
		where = append(where, "d.report_date >= ?")
		args = append(args, filter.DateFrom.Format(domain.DateLayout))
	}
	if filter.DateTo != nil {
		where = append(where, "d.report_date <= ?")
		args = append(args, filter.DateTo.Format(domain.DateLayout))
	}

	q := `
		SELECT c.content, c.embedding, d.id, d.title, d.doc_type, d.report_date
		FROM rag_doc_chunks c
		JOIN rag_docs d ON d.id = c.doc_id
		WHERE c.embedding IS NOT NULL`
	if len(where) > 0 {
		q += " AND " + strings.Join(where, " AND ")
	}
	// Fixed row order so the stable sort breaks similarity ties by document.
	q += " ORDER BY c.doc_id, c.chunk_index"

	rows, err := s.store.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	results := []domain.RetrievedChunk{}
	for rows.Next() {
		var r domain.RetrievedChunk
		var blob []byte
		var docType int
		var reportDate sql.NullString
		if err := rows.Scan(&r.Content, &blob, &r.DocID, &r.Title, &docType, &reportDate); err != nil {
			return nil, fmt.Errorf("scanning chunk: %w", err)
		}
		r.DocType = domain.DocType(docType)
		if r.ReportDate, err = parseNullableDate(reportDate); err != nil {
			return nil, err
		}
		r.Similarity = domain.CosineSimilarity(query, decodeVector(blob))
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunks: %w", err)
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Similarity > results[j].Similarity
	})
	if len(results) > topK {
		results = results[:topK]
	}
	return results, nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanDocument scans a single document row.
func scanDocument(row rowScanner) (*domain.Document, error) {
	var doc domain.Document
	var docType int
	var reportDate sql.NullString
	var created string

	if err := row.Scan(&doc.ID, &docType, &doc.Title, &doc.Body, &reportDate, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning document: %w", err)
	}

	doc.Type = domain.DocType(docType)
	var err error
	if doc.ReportDate, err = parseNullableDate(reportDate); err != nil {
		return nil, err
	}
	if doc.CreatedAt, err = parseTime(created); err != nil {
		return nil, err
	}
	return &doc, nil
}

// parseNullableDate parses a nullable YYYY-MM-DD column.
func parseNullableDate(s sql.NullString) (*time.Time, error) {
	if !s.Valid || s.String == "" {
		return nil, nil
	}
	t, err := time.Parse(domain.DateLayout, s.String)
	if err != nil {
		return nil, fmt.Errorf("parsing report date %q: %w", s.String, err)
	}
	return &t, nil
}

// placeholders returns "?, ?, ..." with n markers.
func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
