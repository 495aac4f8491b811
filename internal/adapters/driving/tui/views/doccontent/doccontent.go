// Package doccontent provides the scrollable report body view for the TUI.
package doccontent

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/rankpulse/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/rankpulse/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/rankpulse/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/rankpulse/internal/core/domain"
	"github.com/custodia-labs/rankpulse/internal/core/ports/driving"
)

// chromeLines is the height used by the title, separator and help lines.
const chromeLines = 6

// View shows a stored report or an evidence bundle in a viewport.
type View struct {
	styles    *styles.Styles
	keys      *keymap.KeyMap
	documents driving.DocumentService
	clipboard driving.ClipboardService
	ctx       context.Context
	viewport  viewport.Model

	title   string
	meta    string
	content string
	back    messages.ViewType
	width   int
	height  int
	loading bool
	err     error
	status  string
}

// NewView creates a new document content view.
func NewView(s *styles.Styles, documents driving.DocumentService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &View{
		styles:    s,
		keys:      keymap.DefaultKeyMap(),
		documents: documents,
		ctx:       context.Background(),
		viewport:  viewport.New(80, 24-chromeLines),
		back:      messages.ViewMenu,
		width:     80,
		height:    24,
	}
}

// WithContext sets the context for the view.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// WithClipboard enables the copy key. A nil service leaves it disabled.
func (v *View) WithClipboard(c driving.ClipboardService) *View {
	v.clipboard = c
	return v
}

// Init initialises the view.
func (v *View) Init() tea.Cmd {
	return nil
}

// Open starts loading a stored report.
func (v *View) Open(docID string, back messages.ViewType) tea.Cmd {
	v.reset(docID, back)
	v.loading = true
	ctx, docs := v.ctx, v.documents
	return func() tea.Msg {
		if docs == nil {
			return messages.DocumentLoaded{Err: fmt.Errorf("document service not available")}
		}
		doc, err := docs.Get(ctx, docID)
		return messages.DocumentLoaded{Document: doc, Err: err}
	}
}

// ShowText displays text that is not a stored document.
func (v *View) ShowText(title, meta, body string, back messages.ViewType) {
	v.reset(title, back)
	v.meta = meta
	v.setContent(body)
}

// StartLoading shows the loading state until text or an error arrives.
func (v *View) StartLoading(title string, back messages.ViewType) {
	v.reset(title, back)
	v.loading = true
}

// ShowError displays a load failure.
func (v *View) ShowError(title string, err error, back messages.ViewType) {
	v.reset(title, back)
	v.err = err
}

func (v *View) reset(title string, back messages.ViewType) {
	v.title = title
	v.meta = ""
	v.back = back
	v.err = nil
	v.status = ""
	v.loading = false
	v.setContent("")
}

func (v *View) setContent(body string) {
	v.content = body
	v.viewport.SetContent(body)
	v.viewport.GotoTop()
}

// Update handles messages for the document content view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case messages.DocumentLoaded:
		v.loading = false
		if msg.Err != nil {
			v.err = msg.Err
			return v, nil
		}
		doc := msg.Document
		if doc.Title != "" {
			v.title = doc.Title
		}
		v.meta = documentMeta(doc)
		v.setContent(doc.Body)
		return v, nil

	case messages.ErrorOccurred:
		v.err = msg.Err
		return v, nil

	case messages.Copied:
		if msg.Err != nil {
			v.status = "Copy failed: " + msg.Err.Error()
		} else {
			v.status = "Copied to clipboard"
		}
		return v, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, v.keys.Back):
			back := v.back
			return v, func() tea.Msg {
				return messages.ViewChanged{View: back}
			}
		case key.Matches(msg, v.keys.Top):
			v.viewport.GotoTop()
			return v, nil
		case key.Matches(msg, v.keys.Bottom):
			v.viewport.GotoBottom()
			return v, nil
		case key.Matches(msg, v.keys.Copy):
			return v, v.copyContent()
		}
	}

	var cmd tea.Cmd
	v.viewport, cmd = v.viewport.Update(msg)
	return v, cmd
}

// copyContent copies the displayed body. Returns nil when there is nothing
// to copy or no clipboard is configured.
func (v *View) copyContent() tea.Cmd {
	if v.clipboard == nil || v.loading || strings.TrimSpace(v.content) == "" {
		return nil
	}
	ctx, clip, text := v.ctx, v.clipboard, v.content
	return func() tea.Msg {
		return messages.Copied{Err: clip.Copy(ctx, text)}
	}
}

func documentMeta(doc *domain.Document) string {
	parts := []string{doc.Type.String(), doc.ID}
	if date := doc.ReportDateString(); date != "" {
		parts = append(parts, "report date "+date)
	}
	if !doc.CreatedAt.IsZero() {
		parts = append(parts, "saved "+doc.CreatedAt.Format("2006-01-02 15:04"))
	}
	return strings.Join(parts, " · ")
}

// View renders the document content view.
func (v *View) View() string {
	var b strings.Builder

	title := v.title
	if title == "" {
		title = "Report"
	}
	b.WriteString(v.styles.Title.Render(title))
	b.WriteString("\n")
	if v.meta != "" {
		b.WriteString(v.styles.Muted.Render(v.meta))
		b.WriteString("\n")
	}
	b.WriteString(strings.Repeat("─", max(min(v.width-4, 60), 0)))
	b.WriteString("\n\n")

	switch {
	case v.loading:
		b.WriteString(v.styles.Muted.Render("Loading report..."))
	case v.err != nil:
		b.WriteString(v.styles.Error.Render("Error: " + v.err.Error()))
	case strings.TrimSpace(v.content) == "":
		b.WriteString(v.styles.Muted.Render("(No content)"))
	default:
		b.WriteString(v.viewport.View())
		b.WriteString("\n")
		b.WriteString(v.styles.Muted.Render(fmt.Sprintf("  [%3.f%%]", v.viewport.ScrollPercent()*100)))
	}

	b.WriteString("\n\n")
	if v.status != "" {
		b.WriteString(v.styles.Muted.Render(v.status))
		b.WriteString("\n")
	}
	b.WriteString(v.styles.Help.Render(keymap.Line(v.keys.DocumentHelp(v.clipboard != nil))))
	return b.String()
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.viewport.Width = max(width-2, 20)
	v.viewport.Height = max(height-chromeLines, 1)
}

// Title returns the displayed title.
func (v *View) Title() string {
	return v.title
}

// Content returns the displayed body.
func (v *View) Content() string {
	return v.content
}

// Back returns the view esc returns to.
func (v *View) Back() messages.ViewType {
	return v.back
}

// Loading reports whether a load is in flight.
func (v *View) Loading() bool {
	return v.loading
}

// Status returns the last copy outcome, if any.
func (v *View) Status() string {
	return v.status
}

// Err returns the last error.
func (v *View) Err() error {
	return v.err
}
