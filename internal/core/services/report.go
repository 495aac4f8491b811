package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
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

// Ensure ReportService implements the interface.
var _ driving.ReportService = (*ReportService)(nil)

const (
	customTitleFallback = "Custom Report"
	customTitleMaxRunes = 120
	customIDPrefix      = "report_custom_"
	customRecentTopK    = 3
	emptyRuleText       = "(the rule document is empty)"
)

var markdownTitle = regexp.MustCompile(`(?m)^\s*#\s+(.+)\s*$`)

// ReportService synthesizes daily and custom reports with the LLM.
type ReportService struct {
	docs      driving.DocumentService
	retrieval driving.RetrievalService
	analytics driving.AnalyticsService
	risk      driving.RiskSelector
	llm       driven.LLMService
	prompts   driven.PromptStore
	settings  domain.AppSettings

	tracer  trace.Tracer
	metrics *telemetry.Metrics
	now     func() time.Time
}

// NewReportService creates a report service.
// The LLM may be nil, in which case generation fails with ErrLLMUnavailable.
func NewReportService(
	docs driving.DocumentService,
	retrieval driving.RetrievalService,
	analytics driving.AnalyticsService,
	risk driving.RiskSelector,
	llm driven.LLMService,
	prompts driven.PromptStore,
	settings domain.AppSettings,
) *ReportService {
	return &ReportService{
		docs:      docs,
		retrieval: retrieval,
		analytics: analytics,
		risk:      risk,
		llm:       llm,
		prompts:   prompts,
		settings:  settings,
		tracer:    telemetry.Tracer(),
		metrics:   telemetry.Default(),
		now:       time.Now,
	}
}

// SetMetrics replaces the telemetry counters.
func (s *ReportService) SetMetrics(m *telemetry.Metrics) {
	s.metrics = m
}

// resolve returns the report date and the snapshot target time.
func (s *ReportService) resolve(in domain.DailyReportInput) (time.Time, time.Time, int) {
	loc := s.settings.Report.Location()
	hour := in.TargetHour
	if hour < 0 {
		hour = s.settings.Report.TargetHour
	}

	var y int
	var m time.Month
	var d int
	if in.Date.IsZero() {
		y, m, d = s.now().In(loc).Date()
	} else {
		y, m, d = in.Date.Date()
	}
	date := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	target := time.Date(y, m, d, hour, 0, 0, 0, loc)
	return date, target, hour
}

// BuildEvidence computes and renders everything the daily report needs
// except the rule document and the LLM call.
func (s *ReportService) BuildEvidence(ctx context.Context, in domain.DailyReportInput) (*domain.Evidence, error) {
	date, target, _ := s.resolve(in)

	sections, err := s.analytics.CategorySections(ctx, target)
	if err != nil {
		return nil, fmt.Errorf("compare categories: %w", err)
	}
	brand, err := s.analytics.BrandChanges(ctx)
	if err != nil {
		return nil, fmt.Errorf("diff brand runs: %w", err)
	}

	ev := &domain.Evidence{
		ReportDate:   date,
		TargetTime:   target,
		Sections:     sections,
		Brand:        brand,
		CategoryText: RenderCategoryTables(sections),
		ChangeText:   RenderChangeList(brand, s.settings.Analytics.MaxChangeLines),
		Headline:     ChooseHeadline(sections, brand),
	}

	ev.ReviewIncluded, ev.ReviewReasons = s.analytics.ReviewTriggers(sections, brand)
	if ev.ReviewIncluded {
		ev.ReviewProducts, err = s.risk.Select(ctx, brand.Changes)
		if err != nil {
			return nil, fmt.Errorf("select review products: %w", err)
		}
		ev.ReviewText = RenderReviewBlock(ev.ReviewProducts, ev.ReviewReasons)
	}
	return ev, nil
}

// GenerateDaily builds the evidence, asks the LLM for the final report and
// optionally saves it under the date's deterministic ID. Failures are
// reported in the result; nothing is persisted unless the LLM call and the
// embedding of the new body both succeed.
func (s *ReportService) GenerateDaily(ctx context.Context, in domain.DailyReportInput) domain.DailyReportResult {
	ctx, span := s.tracer.Start(ctx, "report.daily")
	defer span.End()

	date, _, hour := s.resolve(in)
	res := domain.DailyReportResult{
		ReportDate:    date.Format(domain.DateLayout),
		TargetHour:    hour,
		ReviewReasons: []string{},
	}
	span.SetAttributes(attribute.String("report.date", res.ReportDate))

	if err := s.generateDaily(ctx, in, &res); err != nil {
		logger.Error("Daily report for %s failed: %v", res.ReportDate, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		res.OK = false
		res.Error = err.Error()
		res.DocID = ""
		res.ChunkCount = 0
		res.FinalText = ""
		s.metrics.ReportsGenerated.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", "error")))
		return res
	}

	res.OK = true
	s.metrics.ReportsGenerated.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", "ok")))
	return res
}

func (s *ReportService) generateDaily(ctx context.Context, in domain.DailyReportInput, res *domain.DailyReportResult) error {
	if s.llm == nil {
		return domain.ErrLLMUnavailable
	}

	rule, err := s.docs.LatestByType(ctx, domain.DocTypeRule)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.ErrRuleDocMissing
	}
	if err != nil {
		return fmt.Errorf("load rule document: %w", err)
	}
	if strings.TrimSpace(rule.Body) == "" {
		return fmt.Errorf("%w: %s has no body", domain.ErrRuleDocMissing, rule.ID)
	}
	res.RuleDocID = rule.ID

	ev, err := s.BuildEvidence(ctx, in)
	if err != nil {
		return err
	}
	res.OneLineInsight = ev.Headline
	res.ReviewIncluded = ev.ReviewIncluded
	res.ReviewReasons = ev.ReviewReasons

	tpl, err := s.prompts.Load(driven.PromptDailyReportSystem)
	if err != nil {
		return fmt.Errorf("load daily report prompt: %w", err)
	}

	messages := []driven.ChatMessage{
		{Role: driven.RoleSystem, Content: fillRule(tpl, rule.Body)},
		{Role: driven.RoleUser, Content: dailyUserMessage(ev, res.TargetHour)},
	}
	text, err := s.llm.Chat(ctx, messages, driven.ChatOptions{Temperature: s.settings.LLM.Temperature})
	if err != nil {
		return fmt.Errorf("generate daily report: %w", err)
	}
	res.FinalText = strings.TrimSpace(text)

	if !in.Save {
		return nil
	}

	date := ev.ReportDate
	saved, err := s.docs.Save(ctx, driving.UpsertDocumentInput{
		ID:         domain.DailyDocID(date),
		Type:       domain.DocTypeDaily,
		Title:      domain.DailyTitle(date),
		Body:       res.FinalText,
		ReportDate: &date,
	}, s.settings.RAG.ChunkMaxChars, s.settings.RAG.ChunkOverlap)
	if err != nil {
		return fmt.Errorf("save daily report: %w", err)
	}
	res.DocID = saved.DocID
	res.ChunkCount = saved.ChunkCount
	logger.Info("Saved daily report %s (%d chunks)", saved.DocID, saved.ChunkCount)
	return nil
}

func dailyUserMessage(ev *domain.Evidence, hour int) string {
	review := ev.ReviewText
	if !ev.ReviewIncluded {
		review = ReviewOmittedText
	}

	var b strings.Builder
	b.WriteString("[REPORT_CONTEXT]\n")
	fmt.Fprintf(&b, "- report_date: %s\n", ev.ReportDate.Format(domain.DateLayout))
	fmt.Fprintf(&b, "- snapshot hour: %d:00\n", hour)
	fmt.Fprintf(&b, "- headline candidate (already computed): %s\n\n", ev.Headline)
	b.WriteString("[SECTION_2_INPUT: MARKET & CATEGORY TOP LIST TABLES]\n")
	b.WriteString(ev.CategoryText + "\n\n")
	b.WriteString("[SECTION_3_INPUT: TARGET-BRAND PRODUCT RANK CHANGES]\n")
	b.WriteString(ev.ChangeText + "\n\n")
	b.WriteString("[SECTION_4_INPUT: REVIEW SIGNALS (CONDITIONAL)]\n")
	b.WriteString(review + "\n\n")
	b.WriteString(`[YOUR TASK]
Using ONLY the inputs above, write the final DAILY report in Markdown.
Follow RULE_DOC's required section order.
- Keep the top list tables unchanged.
- Section 2 explains target-brand exposure changes by category without deep dives into single products.
- Section 3 summarizes target-brand product ranking changes (only changed products are given).
- Section 4 only if provided; link review signals to ranking movement and risks.
- Use the headline candidate as the top insight line.
- End with the Proposals section: action items grounded in the evidence.`)
	return b.String()
}

// fillRule substitutes the rule document into a prompt template's %s
// placeholder, appending it when the template has none.
func fillRule(tpl, rule string) string {
	if strings.Contains(tpl, "%s") {
		return strings.Replace(tpl, "%s", rule, 1)
	}
	return tpl + "\n\n" + rule
}

// GenerateCustom writes an ad hoc report for the last user message,
// saves it as a CUSTOM document together with its chunks.
func (s *ReportService) GenerateCustom(ctx context.Context, in domain.CustomReportInput) (*domain.CustomReportResult, error) {
	ctx, span := s.tracer.Start(ctx, "report.custom")
	defer span.End()

	if s.llm == nil {
		return nil, domain.ErrLLMUnavailable
	}
	last, ok := lastUserMessage(in.Messages)
	if !ok {
		return nil, fmt.Errorf("%w: no user message", domain.ErrInvalidInput)
	}
	request := withCards(last.Content, last.Cards)

	ruleText := ""
	rule, err := s.docs.LatestByType(ctx, domain.DocTypeRule)
	switch {
	case err == nil:
		ruleText = strings.TrimSpace(rule.Body)
	case errors.Is(err, domain.ErrNotFound):
		logger.Warn("No rule document stored, writing custom report without one")
	default:
		return nil, fmt.Errorf("load rule document: %w", err)
	}
	if ruleText == "" {
		ruleText = emptyRuleText
	}

	tpl, err := s.prompts.Load(driven.PromptCustomReportSystem)
	if err != nil {
		return nil, fmt.Errorf("load custom report prompt: %w", err)
	}
	system := fillRule(tpl, ruleText)

	today := s.today(in.Today)
	if recent := s.recentDailyContext(ctx, request, today); recent != "" {
		system += "\n\n--- Reference: recent daily reports ---\n" + recent +
			"\n\nReflect the market trends, ranking movement and review sentiment in the daily reports above."
	}

	text, err := s.llm.Chat(ctx, []driven.ChatMessage{
		{Role: driven.RoleSystem, Content: system},
		{Role: driven.RoleUser, Content: request},
	}, driven.ChatOptions{Temperature: s.settings.LLM.Temperature})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("generate custom report: %w", err)
	}
	body := strings.TrimSpace(text)

	res := &domain.CustomReportResult{
		DocID:   customIDPrefix + strings.ReplaceAll(uuid.NewString(), "-", ""),
		Title:   InferTitle(body),
		Content: body,
	}
	saved, err := s.docs.Save(ctx, driving.UpsertDocumentInput{
		ID:         res.DocID,
		Type:       domain.DocTypeCustom,
		Title:      res.Title,
		Body:       body,
		ReportDate: &today,
	}, s.settings.RAG.ChunkMaxChars, s.settings.RAG.ChunkOverlap)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("save custom report: %w", err)
	}
	res.ChunkCount = saved.ChunkCount

	span.SetAttributes(attribute.String("doc.id", res.DocID))
	logger.Info("Generated custom report %s: %s", res.DocID, res.Title)
	return res, nil
}

// recentDailyContext returns preview blocks of the best matching recent
// daily reports, or "" when retrieval fails or finds nothing.
func (s *ReportService) recentDailyContext(ctx context.Context, query string, today time.Time) string {
	if s.retrieval == nil {
		return ""
	}
	hits, err := s.retrieval.RecentDailyReports(ctx, query, today, s.settings.RAG.RecentDays, customRecentTopK)
	if err != nil {
		logger.Warn("Recent daily report lookup failed: %v", err)
		return ""
	}
	blocks := make([]string, 0, len(hits))
	for _, h := range hits {
		blocks = append(blocks, fmt.Sprintf("## %s (%s)\n%s", h.Title, h.ReportDateString(), preview(h.Content, customPreviewChars)))
	}
	return strings.Join(blocks, "\n\n")
}

func (s *ReportService) today(t time.Time) time.Time {
	if t.IsZero() {
		t = s.now().In(s.settings.Report.Location())
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// InferTitle returns the first Markdown H1 heading, capped in length,
// or a generic title when there is none.
func InferTitle(body string) string {
	m := markdownTitle.FindStringSubmatch(body)
	if m == nil {
		return customTitleFallback
	}
	title := strings.TrimSpace(m[1])
	if title == "" {
		return customTitleFallback
	}
	return truncateRunes(title, customTitleMaxRunes)
}

func lastUserMessage(msgs []domain.ConversationMessage) (domain.ConversationMessage, bool) {
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == driven.RoleUser {
			return msgs[i], true
		}
	}
	return domain.ConversationMessage{}, false
}

// withCards appends rendered cards to a message body.
func withCards(content string, cards []domain.DataCard) string {
	if len(cards) == 0 {
		return content
	}
	return content + "\n\n" + RenderMessageCards(cards)
}

// RenderMessageCards renders cards attached to a conversation turn.
func RenderMessageCards(cards []domain.DataCard) string {
	blocks := make([]string, 0, len(cards))
	for _, c := range cards {
		lines := "- (no lines)"
		if len(c.Lines) > 0 {
			ls := make([]string, len(c.Lines))
			for i, l := range c.Lines {
				ls[i] = "- " + l
			}
			lines = strings.Join(ls, "\n")
		}
		blocks = append(blocks, "[CARD] "+c.Title+"\n"+lines)
	}
	return strings.Join(blocks, "\n\n")
}
