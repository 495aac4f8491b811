package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocType_String(t *testing.T) {
	assert.Equal(t, "RULE", DocTypeRule.String())
	assert.Equal(t, "DAILY", DocTypeDaily.String())
	assert.Equal(t, "CUSTOM", DocTypeCustom.String())
	assert.Equal(t, "DocType(9)", DocType(9).String())
}

func TestDocType_PersistedValues(t *testing.T) {
	assert.Equal(t, 0, int(DocTypeRule))
	assert.Equal(t, 1, int(DocTypeDaily))
	assert.Equal(t, 2, int(DocTypeCustom))
	assert.False(t, DocType(-1).IsValid())
	assert.False(t, DocType(3).IsValid())
}

func TestParseDocType(t *testing.T) {
	dt, err := ParseDocType(" daily ")
	require.NoError(t, err)
	assert.Equal(t, DocTypeDaily, dt)

	_, err = ParseDocType("weekly")
	assert.True(t, errors.Is(err, ErrInvalidInput))
}

func TestDailyDocID(t *testing.T) {
	d := time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "daily_2025-01-31", DailyDocID(d))
	assert.Equal(t, "Daily Report January 31, 2025", DailyTitle(d))
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2025-02-03")
	require.NoError(t, err)
	assert.Equal(t, 2025, d.Year())
	assert.Equal(t, time.February, d.Month())

	_, err = ParseDate("03/02/2025")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestDocument_ReportDateString(t *testing.T) {
	doc := Document{ID: "rule"}
	assert.Equal(t, "", doc.ReportDateString())

	d := time.Date(2025, 3, 4, 0, 0, 0, 0, time.UTC)
	doc.ReportDate = &d
	assert.Equal(t, "2025-03-04", doc.ReportDateString())
}

func TestDateOnly(t *testing.T) {
	loc := time.FixedZone("KST", 9*3600)
	in := time.Date(2025, 5, 6, 23, 59, 1, 5, loc)
	out := DateOnly(in)
	assert.Equal(t, time.Date(2025, 5, 6, 0, 0, 0, 0, loc), out)
}

func TestSearchQuery_HasDateFilter(t *testing.T) {
	assert.False(t, SearchQuery{Query: "q"}.HasDateFilter())
	d := time.Now()
	assert.True(t, SearchQuery{DateTo: &d}.HasDateFilter())

	f := SearchQuery{DocTypes: []DocType{DocTypeDaily}, DateFrom: &d}.Filter()
	assert.Equal(t, []DocType{DocTypeDaily}, f.DocTypes)
	assert.Same(t, &d, f.DateFrom)
}
