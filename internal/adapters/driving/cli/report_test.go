package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/custodia-labs/rankpulse/internal/core/domain"
	"github.com/custodia-labs/rankpulse/internal/export/xlsx"
)

func TestReportCmd_Subcommands(t *testing.T) {
	names := make([]string, 0, 3)
	for _, c := range reportCmd.Commands() {
		names = append(names, c.Name())
	}
	assert.ElementsMatch(t, []string{"daily", "custom", "evidence"}, names)
}

func TestReportDaily_Preview(t *testing.T) {
	ts := setupTestServices(t)
	ts.reports.daily = domain.DailyReportResult{
		OK:             true,
		ReportDate:     "2025-01-31",
		TargetHour:     11,
		OneLineInsight: "Serum A entered the Face Care top 10.",
		FinalText:      "## Summary\nSerum A entered the Face Care top 10.",
	}

	out, err := execute(t, nil, "report", "daily", "--date", "2025-01-31", "--hour", "11")
	require.NoError(t, err)

	assert.Contains(t, out, "## Summary")
	assert.NotContains(t, out, "=== Daily report", "banner is only printed to a terminal")

	in := ts.reports.lastDaily
	assert.Equal(t, "2025-01-31", in.Date.Format(domain.DateLayout))
	assert.Equal(t, 11, in.TargetHour)
	assert.False(t, in.Save)
}

func TestReportDaily_DefaultsAndSave(t *testing.T) {
	ts := setupTestServices(t)
	ts.reports.daily = domain.DailyReportResult{OK: true, DocID: "daily_2025-01-31", ChunkCount: 2}

	_, err := execute(t, nil, "report", "daily", "--save")
	require.NoError(t, err)

	in := ts.reports.lastDaily
	assert.True(t, in.Date.IsZero(), "service picks today")
	assert.Equal(t, -1, in.TargetHour, "service picks configured hour")
	assert.True(t, in.Save)
}

func TestReportDaily_JSON(t *testing.T) {
	ts := setupTestServices(t)
	ts.reports.daily = domain.DailyReportResult{
		OK:             true,
		ReportDate:     "2025-01-31",
		TargetHour:     11,
		ReviewIncluded: true,
		ReviewReasons:  []string{"review spike on Serum A"},
	}

	out, err := execute(t, nil, "report", "daily", "--json")
	require.NoError(t, err)

	var got domain.DailyReportResult
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(out)), &got))
	assert.True(t, got.OK)
	assert.True(t, got.ReviewIncluded)
	assert.Equal(t, []string{"review spike on Serum A"}, got.ReviewReasons)
}

func TestReportDaily_Failure(t *testing.T) {
	ts := setupTestServices(t)
	ts.reports.daily = domain.DailyReportResult{OK: false, ReportDate: "2025-01-31", Error: "no RULE document"}

	out, err := execute(t, nil, "report", "daily")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no RULE document")
	assert.Contains(t, out, "Daily report 2025-01-31 failed")
}

func TestReportDaily_InvalidInput(t *testing.T) {
	setupTestServices(t)

	_, err := execute(t, nil, "report", "daily", "--hour", "24")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = execute(t, nil, "report", "daily", "--date", "2025/01/31")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestReportCustom(t *testing.T) {
	ts := setupTestServices(t)
	ts.reports.custom = &domain.CustomReportResult{
		DocID: "custom_20250131_120000", Title: "Price check", Content: "Prices held steady.", ChunkCount: 1,
	}
	cards := writeCards(t, `[{"title":"Prices","lines":["Cream B 9.5"]}]`)

	out, err := execute(t, nil, "report", "custom", "Compare prices", "--cards", cards)
	require.NoError(t, err)

	assert.Contains(t, out, "Saved custom_20250131_120000 (1 chunks)")
	assert.Contains(t, out, "Prices held steady.")

	msgs := ts.reports.lastCust.Messages
	require.Len(t, msgs, 1)
	assert.Equal(t, "user", msgs[0].Role)
	assert.Equal(t, "Compare prices", msgs[0].Content)
	require.Len(t, msgs[0].Cards, 1)
	assert.False(t, ts.reports.lastCust.Today.IsZero())
}

func TestReportCustom_JSON(t *testing.T) {
	ts := setupTestServices(t)
	ts.reports.custom = &domain.CustomReportResult{DocID: "custom_1", Content: "c"}

	out, err := execute(t, nil, "report", "custom", "anything", "--json")
	require.NoError(t, err)

	var got domain.CustomReportResult
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(out)), &got))
	assert.Equal(t, "custom_1", got.DocID)
}

func sampleEvidence() *domain.Evidence {
	date := time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC)
	return &domain.Evidence{
		ReportDate:     date,
		TargetTime:     date.Add(11 * time.Hour),
		CategoryText:   "[Face Care]\n1. Serum A",
		ChangeText:     "- Serum A: new at 3",
		ReviewIncluded: true,
		ReviewReasons:  []string{"aspect Scent negative"},
		ReviewText:     "- Serum A: Scent 9/12 negative",
		Headline:       "Serum A entered at rank 3",
	}
}

func TestReportEvidence_Markdown(t *testing.T) {
	ts := setupTestServices(t)
	ts.reports.evidence = sampleEvidence()

	out, err := execute(t, nil, "report", "evidence", "--date", "2025-01-31")
	require.NoError(t, err)

	assert.Contains(t, out, "# Evidence 2025-01-31 (snapshot 2025-01-31 11:00 UTC)")
	assert.Contains(t, out, "Headline: Serum A entered at rank 3")
	assert.Contains(t, out, "## Category top lists")
	assert.Contains(t, out, "- Serum A: new at 3")
	assert.Contains(t, out, "## Review signals")
	assert.False(t, ts.reports.lastDaily.Save)
}

func TestReportEvidence_NoReviewSection(t *testing.T) {
	ev := sampleEvidence()
	ev.ReviewIncluded = false

	assert.NotContains(t, renderEvidence(ev), "## Review signals")
}

func TestReportEvidence_XLSX(t *testing.T) {
	ts := setupTestServices(t)
	ts.reports.evidence = sampleEvidence()
	path := filepath.Join(t.TempDir(), "evidence.xlsx")

	out, err := execute(t, nil, "report", "evidence", "--xlsx", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote evidence for 2025-01-31 to "+path)

	_, err = os.Stat(path)
	require.NoError(t, err)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{xlsx.SheetSummary, xlsx.SheetCategories, xlsx.SheetChanges, xlsx.SheetReview}, f.GetSheetList())
}

func TestReportCmd_NotConfigured(t *testing.T) {
	SetServices(Services{})

	for _, args := range [][]string{
		{"report", "daily"},
		{"report", "custom", "x"},
		{"report", "evidence"},
	} {
		_, err := execute(t, nil, args...)
		assert.ErrorIs(t, err, errNoReports, args)
	}
}
