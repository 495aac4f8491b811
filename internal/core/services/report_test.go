package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/rankpulse/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/rankpulse/internal/core/domain"
	"github.com/custodia-labs/rankpulse/internal/core/ports/driven"
	"github.com/custodia-labs/rankpulse/internal/core/ports/driving"
	"github.com/custodia-labs/rankpulse/internal/postprocessors"
)

type reportFixture struct {
	svc       *ReportService
	docs      *DocumentService
	store     *memory.ReportStore
	snapshots *memory.SnapshotStore
	embedder  *fakeEmbedder
	llm       *fakeLLM
}

func newReportFixture(t *testing.T) *reportFixture {
	t.Helper()
	settings := domain.DefaultAppSettings()
	settings.Report.Timezone = "UTC"

	store := memory.NewReportStore()
	snapshots := memory.NewSnapshotStore()
	embedder := &fakeEmbedder{}
	llm := &fakeLLM{reply: "  **Today's insight:** steady.\n\nProposals\n"}

	docs := NewDocumentService(store, embedder, postprocessors.NewFactory(settings.Pipeline))
	retrieval := NewRetrievalService(store, embedder, settings.RAG)
	prompts := fakePrompts{
		driven.PromptDailyReportSystem:  "RULES:\n%s\nEND",
		driven.PromptCustomReportSystem: "CUSTOM RULES:\n%s",
	}
	svc := NewReportService(docs, retrieval,
		NewAnalyzerService(snapshots, settings.Analytics),
		NewRiskSelectorService(snapshots, settings.Analytics),
		llm, prompts, settings)
	svc.now = func() time.Time { return runToday.Add(2 * time.Hour) }

	return &reportFixture{svc: svc, docs: docs, store: store, snapshots: snapshots, embedder: embedder, llm: llm}
}

func (f *reportFixture) seedRule(t *testing.T, body string) {
	t.Helper()
	_, err := f.docs.Upsert(context.Background(), driving.UpsertDocumentInput{
		ID: "rule_daily", Type: domain.DocTypeRule, Title: "Rules", Body: body,
	})
	require.NoError(t, err)
}

// seedEntry stores a category the brand entered today and a product that
// climbed three places with a risky aspect.
func (f *reportFixture) seedEntry(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	cat := &domain.Category{Code: "LIP", Name: "Lip Care"}
	_, err := f.snapshots.SaveCategory(ctx, cat)
	require.NoError(t, err)
	for _, s := range []*domain.CategorySnapshot{
		{CategoryID: cat.ID, SnapshotTime: runYesterday, Items: []domain.RankingItem{item(1, "Other", false)}},
		{CategoryID: cat.ID, SnapshotTime: runToday, Items: []domain.RankingItem{item(1, "Other", false), item(2, "Mask", true)}},
	} {
		_, err := f.snapshots.SaveCategorySnapshot(ctx, s)
		require.NoError(t, err)
	}

	_, err = f.snapshots.SaveBrandProductSnapshot(ctx, product("p1", runYesterday, intPtr(5), nil, intPtr(40)))
	require.NoError(t, err)
	today := product("p1", runToday, intPtr(2), nil, intPtr(40))
	_, err = f.snapshots.SaveBrandProductSnapshot(ctx, today)
	require.NoError(t, err)
	require.NoError(t, f.snapshots.SaveAspectDetails(ctx, today.ID, []domain.AspectDetail{aspect("Stickiness", 60, 30)}))
}

func dailyInput(save bool) domain.DailyReportInput {
	return domain.DailyReportInput{Date: reportDay, TargetHour: -1, Save: save}
}

func TestReportService_BuildEvidence(t *testing.T) {
	f := newReportFixture(t)
	f.seedEntry(t)

	ev, err := f.svc.BuildEvidence(context.Background(), dailyInput(false))
	require.NoError(t, err)

	assert.True(t, ev.TargetTime.Equal(runToday))
	require.Len(t, ev.Sections, 1)
	assert.True(t, ev.Sections[0].Entered)
	assert.True(t, ev.ReviewIncluded)
	assert.Equal(t, []string{ReasonTopEntryExit}, ev.ReviewReasons)
	require.Len(t, ev.ReviewProducts, 1)
	require.Len(t, ev.ReviewProducts[0].Aspects, 1)
	assert.Contains(t, ev.ReviewText, "Stickiness: 60 mentions")
	assert.Contains(t, ev.ChangeText, "Δrank_1=+3 Δreviews=+0")
	assert.Equal(t, "Target-brand items in the LIP top list went from 0 yesterday to 1 today, entering the ranking.", ev.Headline)
}

func TestReportService_GenerateDaily_SavesOnePerDate(t *testing.T) {
	f := newReportFixture(t)
	f.seedRule(t, "Write three sections.")
	f.seedEntry(t)
	ctx := context.Background()

	res := f.svc.GenerateDaily(ctx, dailyInput(true))
	require.True(t, res.OK, res.Error)
	assert.Equal(t, "daily_2025-03-15", res.DocID)
	assert.Equal(t, "2025-03-15", res.ReportDate)
	assert.Equal(t, 11, res.TargetHour)
	assert.Equal(t, "rule_daily", res.RuleDocID)
	assert.Equal(t, 1, res.ChunkCount)
	assert.Equal(t, "**Today's insight:** steady.\n\nProposals", res.FinalText)
	assert.True(t, res.ReviewIncluded)

	require.Len(t, f.llm.messages, 2)
	assert.Equal(t, "RULES:\nWrite three sections.\nEND", f.llm.messages[0].Content)
	user := f.llm.messages[1].Content
	assert.True(t, strings.HasPrefix(user, "[REPORT_CONTEXT]\n- report_date: 2025-03-15\n- snapshot hour: 11:00\n"))
	assert.Contains(t, user, "- headline candidate (already computed): "+res.OneLineInsight)
	assert.Contains(t, user, TableStartMarker)
	assert.Contains(t, user, "[SECTION_4_INPUT: REVIEW SIGNALS (CONDITIONAL)]\n- review section triggered by")
	assert.InDelta(t, 0.2, f.llm.opts.Temperature, 1e-9)

	doc, err := f.docs.Get(ctx, res.DocID)
	require.NoError(t, err)
	assert.Equal(t, domain.DocTypeDaily, doc.Type)
	assert.Equal(t, "Daily Report March 15, 2025", doc.Title)
	assert.Equal(t, "2025-03-15", doc.ReportDateString())

	// Running again for the same date replaces the document.
	f.llm.reply = "second"
	res = f.svc.GenerateDaily(ctx, dailyInput(true))
	require.True(t, res.OK, res.Error)
	daily, err := f.docs.List(ctx, []domain.DocType{domain.DocTypeDaily}, 10)
	require.NoError(t, err)
	require.Len(t, daily, 1)
	assert.Equal(t, "second", daily[0].Body)
	chunks, err := f.docs.Chunks(ctx, res.DocID)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "second", chunks[0].Content)
}

func TestReportService_GenerateDaily_ReviewOmitted(t *testing.T) {
	f := newReportFixture(t)
	f.seedRule(t, "rules")

	res := f.svc.GenerateDaily(context.Background(), dailyInput(false))
	require.True(t, res.OK, res.Error)
	assert.False(t, res.ReviewIncluded)
	assert.Equal(t, []string{}, res.ReviewReasons)
	assert.Empty(t, res.DocID)
	assert.Equal(t, HeadlineFallback, res.OneLineInsight)
	assert.Contains(t, f.llm.messages[1].Content, ReviewOmittedText)
	assert.Contains(t, f.llm.messages[1].Content, "_No brand run data to compare (NO_BRAND_RUN)._")
}

func TestReportService_GenerateDaily_Failures(t *testing.T) {
	t.Run("missing rule", func(t *testing.T) {
		f := newReportFixture(t)
		res := f.svc.GenerateDaily(context.Background(), dailyInput(true))
		assert.False(t, res.OK)
		assert.Contains(t, res.Error, domain.ErrRuleDocMissing.Error())
		assert.Equal(t, 0, f.llm.calls)
	})

	t.Run("blank rule", func(t *testing.T) {
		f := newReportFixture(t)
		f.seedRule(t, "  \n")
		res := f.svc.GenerateDaily(context.Background(), dailyInput(true))
		assert.False(t, res.OK)
		assert.Contains(t, res.Error, domain.ErrRuleDocMissing.Error())
	})

	t.Run("llm error persists nothing", func(t *testing.T) {
		f := newReportFixture(t)
		f.seedRule(t, "rules")
		f.llm.err = errors.New("upstream timeout")

		res := f.svc.GenerateDaily(context.Background(), dailyInput(true))
		assert.False(t, res.OK)
		assert.Contains(t, res.Error, "upstream timeout")
		assert.Empty(t, res.DocID)
		assert.Empty(t, res.FinalText)
		_, err := f.docs.Get(context.Background(), "daily_2025-03-15")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("embedding error persists nothing", func(t *testing.T) {
		f := newReportFixture(t)
		f.seedRule(t, "rules")
		f.embedder.err = errors.New("embed down")

		res := f.svc.GenerateDaily(context.Background(), dailyInput(true))
		assert.False(t, res.OK)
		assert.Contains(t, res.Error, "embed down")
		assert.Empty(t, res.DocID)
		assert.Zero(t, res.ChunkCount)
		_, err := f.docs.Get(context.Background(), "daily_2025-03-15")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("embedding error keeps the previous report", func(t *testing.T) {
		f := newReportFixture(t)
		f.seedRule(t, "rules")
		ctx := context.Background()
		f.llm.reply = "first body"
		require.True(t, f.svc.GenerateDaily(ctx, dailyInput(true)).OK)

		f.llm.reply = "second body"
		f.embedder.err = errors.New("embed down")
		res := f.svc.GenerateDaily(ctx, dailyInput(true))
		assert.False(t, res.OK)

		doc, err := f.docs.Get(ctx, "daily_2025-03-15")
		require.NoError(t, err)
		assert.Equal(t, "first body", doc.Body)
		chunks, err := f.docs.Chunks(ctx, doc.ID)
		require.NoError(t, err)
		require.Len(t, chunks, 1)
		assert.Equal(t, "first body", chunks[0].Content)
	})

	t.Run("no llm", func(t *testing.T) {
		f := newReportFixture(t)
		f.seedRule(t, "rules")
		f.svc.llm = nil
		res := f.svc.GenerateDaily(context.Background(), dailyInput(true))
		assert.False(t, res.OK)
		assert.Equal(t, domain.ErrLLMUnavailable.Error(), res.Error)
	})
}

func TestReportService_GenerateDaily_ResolvesDateInReportZone(t *testing.T) {
	f := newReportFixture(t)
	f.seedRule(t, "rules")
	f.svc.settings.Report.Timezone = "Asia/Seoul"
	// 20:00 UTC on the 14th is already the 15th in Seoul.
	f.svc.now = func() time.Time { return time.Date(2025, 3, 14, 20, 0, 0, 0, time.UTC) }

	res := f.svc.GenerateDaily(context.Background(), domain.DailyReportInput{TargetHour: 9})
	require.True(t, res.OK, res.Error)
	assert.Equal(t, "2025-03-15", res.ReportDate)
	assert.Equal(t, 9, res.TargetHour)
}

func TestReportService_GenerateCustom(t *testing.T) {
	f := newReportFixture(t)
	f.llm.reply = "# Brand Outlook\n\nThe body."
	ctx := context.Background()

	res, err := f.svc.GenerateCustom(ctx, domain.CustomReportInput{
		Today: reportDay,
		Messages: []domain.ConversationMessage{
			{Role: "user", Content: "old request"},
			{Role: "assistant", Content: "old answer"},
			{Role: "user", Content: "Summarize lip care", Cards: []domain.DataCard{
				{Title: "Sales", Lines: []string{"up 5%"}},
				{Title: "Empty"},
			}},
		},
	})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(res.DocID, "report_custom_"))
	assert.Len(t, strings.TrimPrefix(res.DocID, "report_custom_"), 32)
	assert.Equal(t, "Brand Outlook", res.Title)
	assert.Equal(t, 1, res.ChunkCount)

	require.Len(t, f.llm.messages, 2)
	assert.Equal(t, "CUSTOM RULES:\n(the rule document is empty)", f.llm.messages[0].Content)
	assert.Equal(t, "Summarize lip care\n\n[CARD] Sales\n- up 5%\n\n[CARD] Empty\n- (no lines)", f.llm.messages[1].Content)

	doc, err := f.docs.Get(ctx, res.DocID)
	require.NoError(t, err)
	assert.Equal(t, domain.DocTypeCustom, doc.Type)
	assert.Equal(t, "2025-03-15", doc.ReportDateString())
}

func TestReportService_GenerateCustom_UsesRecentDailyReports(t *testing.T) {
	f := newReportFixture(t)
	f.seedRule(t, "house style")
	seedDoc(t, f.store, domain.Document{ID: "daily_2025-03-14", Type: domain.DocTypeDaily, Title: "Daily Report March 14, 2025", ReportDate: day(-1)},
		"lip care ranking summary")
	f.llm.reply = "no heading here"

	res, err := f.svc.GenerateCustom(context.Background(), domain.CustomReportInput{
		Today:    reportDay,
		Messages: []domain.ConversationMessage{{Role: "user", Content: "lip care ranking summary"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "Custom Report", res.Title)

	system := f.llm.messages[0].Content
	assert.True(t, strings.HasPrefix(system, "CUSTOM RULES:\nhouse style"))
	assert.Contains(t, system, "## Daily Report March 14, 2025 (2025-03-14)\nlip care ranking summary")
}

func TestReportService_GenerateCustom_Errors(t *testing.T) {
	f := newReportFixture(t)

	_, err := f.svc.GenerateCustom(context.Background(), domain.CustomReportInput{
		Messages: []domain.ConversationMessage{{Role: "assistant", Content: "hi"}},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	f.llm.err = errors.New("boom")
	_, err = f.svc.GenerateCustom(context.Background(), domain.CustomReportInput{
		Messages: []domain.ConversationMessage{{Role: "user", Content: "x"}},
	})
	assert.ErrorContains(t, err, "boom")
	docs, err := f.docs.List(context.Background(), []domain.DocType{domain.DocTypeCustom}, 10)
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestReportService_GenerateCustom_EmbeddingErrorPersistsNothing(t *testing.T) {
	f := newReportFixture(t)
	f.llm.reply = "# Outlook\n\nBody."
	f.embedder.err = errors.New("embed down")

	_, err := f.svc.GenerateCustom(context.Background(), domain.CustomReportInput{
		Today:    reportDay,
		Messages: []domain.ConversationMessage{{Role: "user", Content: "outlook"}},
	})
	assert.ErrorContains(t, err, "embed down")

	docs, err := f.docs.List(context.Background(), []domain.DocType{domain.DocTypeCustom}, 10)
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestInferTitle(t *testing.T) {
	assert.Equal(t, "Title", InferTitle("intro\n#  Title  \nbody"))
	assert.Equal(t, "Custom Report", InferTitle("## Only H2\nbody"))
	assert.Equal(t, "Custom Report", InferTitle(""))
	assert.Len(t, []rune(InferTitle("# "+strings.Repeat("가", 200))), 120)
}
