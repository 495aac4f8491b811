package domain

import (
	"math"
	"time"
)

// SearchQuery configures a similarity search over report chunks.
// All filters are conjunctive.
type SearchQuery struct {
	// Query is the free-text query to embed.
	Query string

	// TopK bounds the result count.
	TopK int

	// DocTypes restricts results to documents of these types. Empty means any.
	DocTypes []DocType

	// DateFrom is an inclusive lower bound on the document report date.
	DateFrom *time.Time

	// DateTo is an inclusive upper bound on the document report date.
	DateTo *time.Time
}

// HasDateFilter reports whether either date bound is set.
// Documents with no report date never match a date filter.
func (q SearchQuery) HasDateFilter() bool {
	return q.DateFrom != nil || q.DateTo != nil
}

// ChunkFilter is the storage-level part of a SearchQuery.
type ChunkFilter struct {
	DocTypes []DocType
	DateFrom *time.Time
	DateTo   *time.Time
}

// Filter extracts the storage filter from the query.
func (q SearchQuery) Filter() ChunkFilter {
	return ChunkFilter{DocTypes: q.DocTypes, DateFrom: q.DateFrom, DateTo: q.DateTo}
}

// RetrievedChunk is a single ranked retrieval hit.
type RetrievedChunk struct {
	// Content is the chunk text.
	Content string

	// DocID is the parent document ID.
	DocID string

	// Title is the parent document title.
	Title string

	// DocType is the parent document type.
	DocType DocType

	// ReportDate is the parent report date, nil when undated.
	ReportDate *time.Time

	// Similarity is 1 - cosine distance.
	Similarity float64
}

// ReportDateString formats ReportDate, or returns "" when unset.
func (r RetrievedChunk) ReportDateString() string {
	if r.ReportDate == nil {
		return ""
	}
	return r.ReportDate.Format(DateLayout)
}

// DataCard is a block of user-attached data rendered into prompts.
type DataCard struct {
	// Title names the card.
	Title string `json:"title" yaml:"title"`

	// Lines are the card's bullet lines.
	Lines []string `json:"lines" yaml:"lines"`
}

// CosineSimilarity returns 1 - cosine distance between a and b.
// Mismatched lengths or zero vectors yield 0.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
