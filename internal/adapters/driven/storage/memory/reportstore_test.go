package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/rankpulse/internal/core/domain"
)

func day(s string) *time.Time {
	d, _ := domain.ParseDate(s)
	return &d
}

func TestReportStore_UpsertGetLatest(t *testing.T) {
	store := NewReportStore()
	ctx := context.Background()
	ts := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, store.UpsertDocument(ctx, &domain.Document{ID: "r1", Type: domain.DocTypeRule, CreatedAt: ts}))
	require.NoError(t, store.UpsertDocument(ctx, &domain.Document{ID: "r2", Type: domain.DocTypeRule, CreatedAt: ts}))

	latest, err := store.LatestDocumentByType(ctx, domain.DocTypeRule)
	require.NoError(t, err)
	assert.Equal(t, "r2", latest.ID, "ties break by upsert order")

	_, err = store.LatestDocumentByType(ctx, domain.DocTypeDaily)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = store.GetDocument(ctx, "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	assert.ErrorIs(t, store.UpsertDocument(ctx, &domain.Document{}), domain.ErrInvalidInput)
}

func TestReportStore_ReplaceChunks(t *testing.T) {
	store := NewReportStore()
	ctx := context.Background()
	require.NoError(t, store.UpsertDocument(ctx, &domain.Document{ID: "d"}))

	require.NoError(t, store.ReplaceChunks(ctx, "d", []domain.ReportChunk{
		{ID: "a", Index: 1, Content: "second"},
		{ID: "b", Index: 0, Content: "first"},
	}))
	chunks, err := store.GetChunks(ctx, "d")
	require.NoError(t, err)
	require.Len(t, chunks, 2)
	assert.Equal(t, "first", chunks[0].Content)
	assert.Equal(t, "d", chunks[0].DocID)

	err = store.ReplaceChunks(ctx, "d", []domain.ReportChunk{{Index: 0}, {Index: 0}})
	assert.ErrorIs(t, err, domain.ErrAlreadyExists)
	chunks, _ = store.GetChunks(ctx, "d")
	assert.Len(t, chunks, 2, "failed swap keeps previous set")

	assert.ErrorIs(t, store.ReplaceChunks(ctx, "missing", nil), domain.ErrNotFound)

	require.NoError(t, store.DeleteDocument(ctx, "d"))
	chunks, _ = store.GetChunks(ctx, "d")
	assert.Empty(t, chunks)
}

func TestReportStore_SaveDocumentWithChunks(t *testing.T) {
	store := NewReportStore()
	ctx := context.Background()

	require.NoError(t, store.SaveDocumentWithChunks(ctx, &domain.Document{ID: "d", Type: domain.DocTypeDaily, Body: "v1"},
		[]domain.ReportChunk{{Index: 1, Content: "b"}, {Index: 0, Content: "a"}}))
	chunks, err := store.GetChunks(ctx, "d")
	require.NoError(t, err)
	require.Len(t, chunks, 2)
	assert.Equal(t, "a", chunks[0].Content)
	assert.Equal(t, "d", chunks[1].DocID)

	err = store.SaveDocumentWithChunks(ctx, &domain.Document{ID: "d", Type: domain.DocTypeDaily, Body: "v2"},
		[]domain.ReportChunk{{Index: 0}, {Index: 0}})
	assert.ErrorIs(t, err, domain.ErrAlreadyExists)

	doc, err := store.GetDocument(ctx, "d")
	require.NoError(t, err)
	assert.Equal(t, "v1", doc.Body)
	chunks, err = store.GetChunks(ctx, "d")
	require.NoError(t, err)
	assert.Len(t, chunks, 2)

	assert.ErrorIs(t, store.SaveDocumentWithChunks(ctx, nil, nil), domain.ErrInvalidInput)
}

func TestReportStore_SearchChunks(t *testing.T) {
	store := NewReportStore()
	ctx := context.Background()

	docs := []domain.Document{
		{ID: "rule", Type: domain.DocTypeRule, Title: "Rule"},
		{ID: "d1", Type: domain.DocTypeDaily, Title: "Jan 5", ReportDate: day("2025-01-05")},
		{ID: "d2", Type: domain.DocTypeDaily, Title: "Jan 20", ReportDate: day("2025-01-20")},
	}
	vecs := map[string][]float32{"rule": {1, 0}, "d1": {0.8, 0.2}, "d2": {0, 1}}
	for i := range docs {
		require.NoError(t, store.UpsertDocument(ctx, &docs[i]))
		require.NoError(t, store.ReplaceChunks(ctx, docs[i].ID, []domain.ReportChunk{
			{ID: docs[i].ID + "-0", Content: docs[i].Title, Embedding: vecs[docs[i].ID]},
		}))
	}

	all, err := store.SearchChunks(ctx, []float32{1, 0}, domain.ChunkFilter{}, 10)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "rule", all[0].DocID)
	assert.Equal(t, "d2", all[2].DocID)

	dated, err := store.SearchChunks(ctx, []float32{1, 0}, domain.ChunkFilter{DateTo: day("2025-01-10")}, 10)
	require.NoError(t, err)
	require.Len(t, dated, 1)
	assert.Equal(t, "d1", dated[0].DocID)

	typed, err := store.SearchChunks(ctx, []float32{1, 0}, domain.ChunkFilter{DocTypes: []domain.DocType{domain.DocTypeDaily}}, 1)
	require.NoError(t, err)
	require.Len(t, typed, 1)
	assert.Equal(t, "d1", typed[0].DocID)

	none, err := store.SearchChunks(ctx, []float32{1, 0}, domain.ChunkFilter{DateFrom: day("2030-01-01")}, 10)
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}
