package domain

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the canonical calendar date format used for report dates.
const DateLayout = "2006-01-02"

// DocType classifies a stored document.
type DocType int

// Known document types. The numeric values are persisted.
const (
	// DocTypeRule is the report-writing rule document fed to the LLM.
	DocTypeRule DocType = iota

	// DocTypeDaily is a generated daily report, keyed by date.
	DocTypeDaily

	// DocTypeCustom is a user-requested ad hoc report.
	DocTypeCustom
)

// String returns the upper-case name of the type.
func (t DocType) String() string {
	switch t {
	case DocTypeRule:
		return "RULE"
	case DocTypeDaily:
		return "DAILY"
	case DocTypeCustom:
		return "CUSTOM"
	default:
		return fmt.Sprintf("DocType(%d)", int(t))
	}
}

// IsValid returns true if the type is recognised.
func (t DocType) IsValid() bool {
	return t >= DocTypeRule && t <= DocTypeCustom
}

// ParseDocType parses a type name case-insensitively.
func ParseDocType(s string) (DocType, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "RULE":
		return DocTypeRule, nil
	case "DAILY":
		return DocTypeDaily, nil
	case "CUSTOM":
		return DocTypeCustom, nil
	default:
		return 0, fmt.Errorf("%w: doc type %q", ErrInvalidInput, s)
	}
}

// Document is one logical report, upserted by ID.
type Document struct {
	// ID is the unique identifier, e.g. daily_2025-01-31.
	ID string

	// Type classifies the document.
	Type DocType

	// Title is the human-readable title.
	Title string

	// Body is the full Markdown text before chunking.
	Body string

	// ReportDate is the calendar date the report covers.
	// Nil for undated types such as rule documents.
	ReportDate *time.Time

	// CreatedAt is refreshed on every upsert.
	CreatedAt time.Time
}

// ReportDateString formats ReportDate, or returns "" when unset.
func (d *Document) ReportDateString() string {
	if d.ReportDate == nil {
		return ""
	}
	return d.ReportDate.Format(DateLayout)
}

// ReportChunk is an embedded slice of a document body.
// Chunks for a document always carry contiguous indexes from 0.
type ReportChunk struct {
	// ID is the unique identifier for the chunk.
	ID string

	// DocID links to the parent Document.
	DocID string

	// Index is the 0-based ordinal within the document.
	Index int

	// Content is the chunk text.
	Content string

	// Embedding is the vector representation for similarity search.
	Embedding []float32

	// CreatedAt is when the chunk was written.
	CreatedAt time.Time
}

// DateOnly truncates t to midnight in its own location.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// ParseDate parses a YYYY-MM-DD date in UTC.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date %q", ErrInvalidInput, s)
	}
	return t, nil
}

// DailyDocID returns the deterministic ID for the daily report of a date.
func DailyDocID(date time.Time) string {
	return "daily_" + date.Format(DateLayout)
}

// DailyTitle returns the title of the daily report of a date.
func DailyTitle(date time.Time) string {
	return fmt.Sprintf("Daily Report %s", date.Format("January 2, 2006"))
}
