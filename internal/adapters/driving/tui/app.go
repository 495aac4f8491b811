package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/rankpulse/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/rankpulse/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/rankpulse/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/rankpulse/internal/adapters/driving/tui/views/doccontent"
	"github.com/custodia-labs/rankpulse/internal/adapters/driving/tui/views/menu"
	"github.com/custodia-labs/rankpulse/internal/adapters/driving/tui/views/reports"
	"github.com/custodia-labs/rankpulse/internal/adapters/driving/tui/views/search"
	"github.com/custodia-labs/rankpulse/internal/core/domain"
)

// evidenceTitle heads the evidence view.
const evidenceTitle = "Today's evidence"

// App is the main TUI application following the Elm architecture.
// It implements tea.Model for use with Bubbletea.
type App struct {
	ports  *Ports
	ctx    context.Context
	styles *styles.Styles
	keys   *keymap.KeyMap

	menuView       *menu.View
	searchView     *search.View
	reportsView    *reports.View
	docContentView *doccontent.View

	currentView messages.ViewType
	err         error

	width  int
	height int
	ready  bool
}

// Ensure App implements tea.Model.
var _ tea.Model = (*App)(nil)

// NewApp creates a new TUI application with the given ports.
func NewApp(ports *Ports) (*App, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}

	s := styles.DefaultStyles()
	km := keymap.DefaultKeyMap()
	searchView := search.NewView(s, km, ports.Retrieval)
	if ports.MinSimilarity > 0 {
		searchView.WithThreshold(ports.MinSimilarity)
	}
	return &App{
		ports:          ports,
		ctx:            context.Background(),
		styles:         s,
		keys:           km,
		menuView:       menu.NewView(s),
		searchView:     searchView,
		reportsView:    reports.NewView(s, ports.Documents),
		docContentView: doccontent.NewView(s, ports.Documents).WithClipboard(ports.Clipboard),
		currentView:    messages.ViewMenu,
	}, nil
}

// WithContext sets the context for the app and its views.
func (a *App) WithContext(ctx context.Context) *App {
	a.ctx = ctx
	a.searchView.WithContext(ctx)
	a.reportsView.WithContext(ctx)
	a.docContentView.WithContext(ctx)
	return a
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	return tea.Batch(
		tea.EnterAltScreen,
		tea.SetWindowTitle("rankpulse"),
	)
}

// Update implements tea.Model.
//
//nolint:gocyclo // central message router
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.SetDimensions(msg.Width, msg.Height)
		return a, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}
		if a.currentView == messages.ViewHelp {
			if key.Matches(msg, a.keys.Back) {
				a.currentView = messages.ViewMenu
			}
			return a, nil
		}
		return a, a.forward(msg)

	case messages.ViewChanged:
		a.currentView = msg.View
		switch msg.View {
		case messages.ViewSearch:
			if a.searchView.LastQuery() == "" {
				a.searchView.Reset()
			}
			return a, a.searchView.Init()
		case messages.ViewReports:
			return a, a.reportsView.Init()
		case messages.ViewMenu, messages.ViewDocContent, messages.ViewHelp:
		}
		return a, nil

	case messages.SearchCompleted:
		a.searchView, cmd = a.searchView.Update(msg)
		a.err = msg.Err
		return a, cmd

	case messages.DocumentsLoaded:
		a.reportsView, cmd = a.reportsView.Update(msg)
		a.err = msg.Err
		return a, cmd

	case messages.DocumentSelected:
		a.currentView = messages.ViewDocContent
		return a, a.docContentView.Open(msg.DocID, msg.Back)

	case messages.DocumentLoaded:
		a.docContentView, cmd = a.docContentView.Update(msg)
		a.err = msg.Err
		return a, cmd

	case messages.EvidenceRequested:
		a.currentView = messages.ViewDocContent
		a.docContentView.StartLoading(evidenceTitle, messages.ViewMenu)
		return a, a.loadEvidence()

	case messages.EvidenceLoaded:
		a.err = msg.Err
		if msg.Err != nil {
			a.docContentView.ShowError(evidenceTitle, msg.Err, messages.ViewMenu)
			return a, nil
		}
		ev := msg.Evidence
		a.docContentView.ShowText(evidenceTitle, evidenceMeta(ev), RenderEvidence(ev), messages.ViewMenu)
		return a, nil

	case messages.Copied:
		a.docContentView, cmd = a.docContentView.Update(msg)
		return a, cmd

	case messages.ErrorOccurred:
		a.err = msg.Err
		return a, a.forward(msg)

	case messages.Quit:
		return a, tea.Quit
	}

	return a, a.forward(msg)
}

// forward passes msg to the active view.
func (a *App) forward(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch a.currentView {
	case messages.ViewMenu:
		a.menuView, cmd = a.menuView.Update(msg)
	case messages.ViewSearch:
		a.searchView, cmd = a.searchView.Update(msg)
	case messages.ViewReports:
		a.reportsView, cmd = a.reportsView.Update(msg)
	case messages.ViewDocContent:
		a.docContentView, cmd = a.docContentView.Update(msg)
	case messages.ViewHelp:
	}
	return cmd
}

// loadEvidence builds today's evidence without calling the LLM.
func (a *App) loadEvidence() tea.Cmd {
	ctx, svc := a.ctx, a.ports.Reports
	return func() tea.Msg {
		if svc == nil {
			return messages.EvidenceLoaded{Err: ErrNoReportService}
		}
		ev, err := svc.BuildEvidence(ctx, domain.DailyReportInput{TargetHour: -1})
		return messages.EvidenceLoaded{Evidence: ev, Err: err}
	}
}

func evidenceMeta(ev *domain.Evidence) string {
	return fmt.Sprintf("report date %s · snapshot %s",
		ev.ReportDate.Format(domain.DateLayout), ev.TargetTime.Format("15:04 MST"))
}

// RenderEvidence lays out an evidence bundle for reading.
func RenderEvidence(ev *domain.Evidence) string {
	var b strings.Builder
	b.WriteString("Headline: " + ev.Headline + "\n\n")
	b.WriteString("## Category top lists\n\n")
	b.WriteString(ev.CategoryText)
	b.WriteString("\n\n## Target-brand rank changes\n\n")
	b.WriteString(ev.ChangeText)
	b.WriteString("\n\n## Review signals\n\n")
	b.WriteString(ev.ReviewText)
	b.WriteString("\n")
	return b.String()
}

// View implements tea.Model.
func (a *App) View() string {
	if !a.ready {
		return "Initialising..."
	}

	switch a.currentView {
	case messages.ViewSearch:
		return a.searchView.View()
	case messages.ViewReports:
		return a.reportsView.View()
	case messages.ViewDocContent:
		return a.docContentView.View()
	case messages.ViewHelp:
		return a.viewHelp()
	case messages.ViewMenu:
		return a.menuView.View()
	default:
		return a.menuView.View()
	}
}

func (a *App) viewHelp() string {
	sections := []struct {
		name     string
		bindings []key.Binding
	}{
		{"Menu", a.keys.MenuHelp()},
		{"Search reports", a.keys.SearchHelp()},
		{"Search results", a.keys.ResultsHelp()},
		{"Browse reports (ALL / DAILY / CUSTOM / RULE)", a.keys.ReportsHelp()},
		{"Report view", a.keys.DocumentHelp(a.ports.Clipboard != nil)},
	}

	var b strings.Builder
	b.WriteString(a.styles.Title.Render("Help"))
	b.WriteString("\n\n")
	for _, sec := range sections {
		b.WriteString(a.styles.Subtitle.Render(sec.name))
		b.WriteString("\n  ")
		b.WriteString(keymap.Line(sec.bindings))
		b.WriteString("\n\n")
	}
	b.WriteString(a.styles.Help.Render("[ctrl+c] quit anywhere  [esc] back to menu"))
	return b.String()
}

// Run starts the TUI application.
func (a *App) Run() error {
	p := tea.NewProgram(a, tea.WithAltScreen(), tea.WithContext(a.ctx))
	_, err := p.Run()
	return err
}

// CurrentView returns the current view type.
func (a *App) CurrentView() messages.ViewType {
	return a.currentView
}

// SearchView exposes the search view.
func (a *App) SearchView() *search.View {
	return a.searchView
}

// ReportsView exposes the report list view.
func (a *App) ReportsView() *reports.View {
	return a.reportsView
}

// ContentView exposes the document content view.
func (a *App) ContentView() *doccontent.View {
	return a.docContentView
}

// Err returns the last error that occurred.
func (a *App) Err() error {
	return a.err
}

// Ready returns whether the app has been initialised.
func (a *App) Ready() bool {
	return a.ready
}

// SetDimensions sets the terminal dimensions on every view.
func (a *App) SetDimensions(width, height int) {
	a.width = width
	a.height = height
	a.ready = true
	a.menuView.SetDimensions(width, height)
	a.searchView.SetDimensions(width, height)
	a.reportsView.SetDimensions(width, height)
	a.docContentView.SetDimensions(width, height)
}
