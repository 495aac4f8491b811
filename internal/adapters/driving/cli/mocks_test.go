package cli

import (
	"bytes"
	"context"
	"io"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/custodia-labs/rankpulse/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/rankpulse/internal/core/domain"
	"github.com/custodia-labs/rankpulse/internal/core/ports/driving"
)

type mockRetrieval struct {
	results   []domain.RetrievedChunk
	err       error
	lastQuery domain.SearchQuery
	lastChat  driving.ChatContextInput
	lastCust  driving.CustomContextInput
}

func (m *mockRetrieval) Search(_ context.Context, q domain.SearchQuery) ([]domain.RetrievedChunk, error) {
	m.lastQuery = q
	return m.results, m.err
}

func (m *mockRetrieval) RecentDailyReports(
	context.Context, string, time.Time, int, int,
) ([]domain.RetrievedChunk, error) {
	return m.results, m.err
}

func (m *mockRetrieval) SimilarCustomReports(context.Context, string, int) ([]domain.RetrievedChunk, error) {
	return m.results, m.err
}

func (m *mockRetrieval) BuildChatContext(_ context.Context, in driving.ChatContextInput) (string, error) {
	m.lastChat = in
	if m.err != nil {
		return "", m.err
	}
	return "[CHAT_CONTEXT] " + in.UserQuery, nil
}

func (m *mockRetrieval) BuildCustomReportContext(_ context.Context, in driving.CustomContextInput) (string, error) {
	m.lastCust = in
	if m.err != nil {
		return "", m.err
	}
	return "[CUSTOM_CONTEXT] " + in.UserQuery, nil
}

type mockDocuments struct {
	mu         sync.Mutex
	docs       map[string]*domain.Document
	chunks     map[string][]domain.ReportChunk
	ingestErr  error
	lastIngest struct {
		docID, body       string
		maxChars, overlap int
	}
	ingestCalls int
}

func newMockDocuments() *mockDocuments {
	return &mockDocuments{docs: map[string]*domain.Document{}, chunks: map[string][]domain.ReportChunk{}}
}

func (m *mockDocuments) Upsert(_ context.Context, in driving.UpsertDocumentInput) (*driving.UpsertResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.upsert(in)
}

func (m *mockDocuments) upsert(in driving.UpsertDocumentInput) (*driving.UpsertResult, error) {
	if in.ID == "" {
		return nil, domain.ErrInvalidInput
	}
	m.docs[in.ID] = &domain.Document{
		ID: in.ID, Type: in.Type, Title: in.Title, Body: in.Body, ReportDate: in.ReportDate,
		CreatedAt: time.Date(2025, 1, 31, 12, 0, 0, 0, time.UTC).Add(time.Duration(len(m.docs)) * time.Minute),
	}
	return &driving.UpsertResult{DocID: in.ID, Title: in.Title}, nil
}

func (m *mockDocuments) Get(_ context.Context, id string) (*domain.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.docs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *d
	return &cp, nil
}

func (m *mockDocuments) LatestByType(_ context.Context, t domain.DocType) (*domain.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var best *domain.Document
	for _, d := range m.docs {
		if d.Type == t && (best == nil || d.CreatedAt.After(best.CreatedAt)) {
			best = d
		}
	}
	if best == nil {
		return nil, domain.ErrNotFound
	}
	cp := *best
	return &cp, nil
}

func (m *mockDocuments) List(_ context.Context, types []domain.DocType, limit int) ([]domain.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Document
	for _, d := range m.docs {
		if len(types) > 0 {
			match := false
			for _, t := range types {
				match = match || d.Type == t
			}
			if !match {
				continue
			}
		}
		out = append(out, *d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *mockDocuments) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.docs[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.docs, id)
	delete(m.chunks, id)
	return nil
}

func (m *mockDocuments) Ingest(_ context.Context, docID, body string, maxChars, overlap int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.recordIngest(docID, body, maxChars, overlap); err != nil {
		return 0, err
	}
	if _, ok := m.docs[docID]; !ok {
		return 0, domain.ErrNotFound
	}
	return m.chunk(docID, body), nil
}

func (m *mockDocuments) Save(
	_ context.Context, in driving.UpsertDocumentInput, maxChars, overlap int,
) (*driving.UpsertResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.recordIngest(in.ID, in.Body, maxChars, overlap); err != nil {
		return nil, err
	}
	res, err := m.upsert(in)
	if err != nil {
		return nil, err
	}
	res.ChunkCount = m.chunk(in.ID, in.Body)
	return res, nil
}

func (m *mockDocuments) recordIngest(docID, body string, maxChars, overlap int) error {
	m.ingestCalls++
	m.lastIngest.docID, m.lastIngest.body = docID, body
	m.lastIngest.maxChars, m.lastIngest.overlap = maxChars, overlap
	return m.ingestErr
}

func (m *mockDocuments) chunk(docID, body string) int {
	n := len(strings.Fields(body))/5 + 1
	chunks := make([]domain.ReportChunk, n)
	for i := range chunks {
		chunks[i] = domain.ReportChunk{DocID: docID, Index: i, Content: body}
	}
	m.chunks[docID] = chunks
	return n
}

func (m *mockDocuments) Chunks(_ context.Context, docID string) ([]domain.ReportChunk, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.chunks[docID], nil
}

func (m *mockDocuments) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ingestCalls
}

type mockReports struct {
	daily     domain.DailyReportResult
	evidence  *domain.Evidence
	custom    *domain.CustomReportResult
	err       error
	lastDaily domain.DailyReportInput
	lastCust  domain.CustomReportInput
}

func (m *mockReports) GenerateDaily(_ context.Context, in domain.DailyReportInput) domain.DailyReportResult {
	m.lastDaily = in
	return m.daily
}

func (m *mockReports) BuildEvidence(_ context.Context, in domain.DailyReportInput) (*domain.Evidence, error) {
	m.lastDaily = in
	return m.evidence, m.err
}

func (m *mockReports) GenerateCustom(_ context.Context, in domain.CustomReportInput) (*domain.CustomReportResult, error) {
	m.lastCust = in
	return m.custom, m.err
}

type mockChat struct {
	last  domain.ChatInput
	reply string
}

func (m *mockChat) Reply(_ context.Context, in domain.ChatInput) (string, error) {
	m.last = in
	return m.reply, nil
}

type mockSettings struct {
	settings       domain.AppSettings
	embedErr       error
	llmErr         error
	embedProvider  domain.AIProvider
	embedModel     string
	embedBaseURL   string
	llmProvider    domain.AIProvider
	llmModel       string
	schedulerCalls int
}

func (m *mockSettings) Get() (*domain.AppSettings, error) {
	s := m.settings
	return &s, nil
}

func (m *mockSettings) Save(s *domain.AppSettings) error {
	m.settings = *s
	return nil
}

func (m *mockSettings) SetEmbeddingProvider(p domain.AIProvider, model, baseURL string) error {
	m.embedProvider, m.embedModel, m.embedBaseURL = p, model, baseURL
	return nil
}

func (m *mockSettings) SetLLMProvider(p domain.AIProvider, model, _ string) error {
	m.llmProvider, m.llmModel = p, model
	return nil
}

func (m *mockSettings) GetDefaults() domain.AppSettings { return domain.DefaultAppSettings() }

func (m *mockSettings) GetSchedulerConfig() domain.SchedulerConfig {
	m.schedulerCalls++
	return domain.DefaultSchedulerConfig(m.settings.Report.TargetHour)
}

func (m *mockSettings) ValidateEmbeddingConfig() error { return m.embedErr }

func (m *mockSettings) ValidateLLMConfig() error { return m.llmErr }

type mockScheduler struct {
	runDue  int
	started bool
	stopped bool
	tasks   []domain.ScheduledTask
	runs    []domain.TaskRun
	listErr error
}

func (m *mockScheduler) Start(ctx context.Context) error {
	m.started = true
	<-ctx.Done()
	return ctx.Err()
}

func (m *mockScheduler) Stop() error {
	m.stopped = true
	return nil
}

func (m *mockScheduler) RunDue(context.Context) error {
	m.runDue++
	return nil
}

func (m *mockScheduler) Tasks(context.Context) ([]domain.ScheduledTask, error) {
	return m.tasks, m.listErr
}

func (m *mockScheduler) Runs(_ context.Context, limit int) ([]domain.TaskRun, error) {
	if len(m.runs) > limit {
		return m.runs[:limit], nil
	}
	return m.runs, nil
}

// testServices are the mocks wired by setupTestServices.
type testServices struct {
	retrieval *mockRetrieval
	documents *mockDocuments
	reports   *mockReports
	chat      *mockChat
	settings  *mockSettings
	scheduler *mockScheduler
	snapshots *memory.SnapshotStore
}

func setupTestServices(t *testing.T) *testServices {
	t.Helper()
	ts := &testServices{
		retrieval: &mockRetrieval{},
		documents: newMockDocuments(),
		reports:   &mockReports{},
		chat:      &mockChat{reply: "Rankings look stable."},
		settings:  &mockSettings{settings: domain.DefaultAppSettings()},
		scheduler: &mockScheduler{},
		snapshots: memory.NewSnapshotStore(),
	}
	SetServices(Services{
		Retrieval: ts.retrieval,
		Documents: ts.documents,
		Reports:   ts.reports,
		Chat:      ts.chat,
		Settings:  ts.settings,
		Scheduler: ts.scheduler,
		Snapshots: ts.snapshots,
	})
	t.Cleanup(func() { SetServices(Services{}) })
	return ts
}

// resetFlags restores every flag to its default so state does not leak
// between executions of the shared command tree.
func resetFlags(c *cobra.Command) {
	c.Flags().VisitAll(func(f *pflag.Flag) {
		if !f.Changed {
			return
		}
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	})
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

// execute runs rootCmd with args and returns its combined output.
func execute(t *testing.T, stdin io.Reader, args ...string) (string, error) {
	t.Helper()
	return executeContext(t, context.Background(), stdin, args...)
}

func executeContext(t *testing.T, ctx context.Context, stdin io.Reader, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	if stdin == nil {
		stdin = strings.NewReader("")
	}
	rootCmd.SetIn(stdin)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
		resetFlags(rootCmd)
	})

	err := rootCmd.ExecuteContext(ctx)
	return buf.String(), err
}
