// Package reports provides the stored report list view for the TUI.
package reports

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/rankpulse/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/rankpulse/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/rankpulse/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/rankpulse/internal/core/domain"
	"github.com/custodia-labs/rankpulse/internal/core/ports/driving"
)

// ListLimit bounds the number of reports loaded.
const ListLimit = 200

// filters cycles through the type filters offered by the view.
var filters = [][]domain.DocType{
	nil,
	{domain.DocTypeDaily},
	{domain.DocTypeCustom},
	{domain.DocTypeRule},
}

// View is the stored report list view.
type View struct {
	styles    *styles.Styles
	keys      *keymap.KeyMap
	documents driving.DocumentService
	ctx       context.Context

	items        []domain.Document
	filter       int
	selected     int
	scrollOffset int
	width        int
	height       int
	loading      bool
	err          error
}

// NewView creates a new report list view.
func NewView(s *styles.Styles, documents driving.DocumentService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &View{
		styles:    s,
		keys:      keymap.DefaultKeyMap(),
		documents: documents,
		ctx:       context.Background(),
		width:     80,
		height:    24,
	}
}

// WithContext sets the context for the view.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init loads the report list.
func (v *View) Init() tea.Cmd {
	v.loading = true
	v.err = nil
	return v.load()
}

func (v *View) load() tea.Cmd {
	ctx, docs, types := v.ctx, v.documents, filters[v.filter]
	return func() tea.Msg {
		if docs == nil {
			return messages.DocumentsLoaded{Err: fmt.Errorf("document service not available")}
		}
		items, err := docs.List(ctx, types, ListLimit)
		return messages.DocumentsLoaded{Documents: items, Err: err}
	}
}

// Update handles messages for the report list view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.DocumentsLoaded:
		v.loading = false
		if msg.Err != nil {
			v.err = msg.Err
			return v, nil
		}
		v.err = nil
		v.items = msg.Documents
		v.selected = 0
		v.scrollOffset = 0
		return v, nil

	case messages.ErrorOccurred:
		v.err = msg.Err
		return v, nil
	}
	return v, nil
}

func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	switch {
	case key.Matches(msg, v.keys.Up):
		if v.selected > 0 {
			v.selected--
			v.adjustScroll()
		}
	case key.Matches(msg, v.keys.Down):
		if v.selected < len(v.items)-1 {
			v.selected++
			v.adjustScroll()
		}
	case key.Matches(msg, v.keys.Filter):
		v.filter = (v.filter + 1) % len(filters)
		return v, v.Init()
	case key.Matches(msg, v.keys.Reload):
		return v, v.Init()
	case key.Matches(msg, v.keys.Open):
		if doc := v.SelectedDocument(); doc != nil {
			id := doc.ID
			return v, func() tea.Msg {
				return messages.DocumentSelected{DocID: id, Back: messages.ViewReports}
			}
		}
	case key.Matches(msg, v.keys.Back):
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewMenu}
		}
	}
	return v, nil
}

func (v *View) adjustScroll() {
	visible := v.visibleItemCount()
	if v.selected < v.scrollOffset {
		v.scrollOffset = v.selected
	} else if v.selected >= v.scrollOffset+visible {
		v.scrollOffset = v.selected - visible + 1
	}
}

func (v *View) visibleItemCount() int {
	return max(v.height-8, 1)
}

// FilterLabel names the active type filter.
func (v *View) FilterLabel() string {
	types := filters[v.filter]
	if len(types) == 0 {
		return "ALL"
	}
	return types[0].String()
}

// View renders the report list.
func (v *View) View() string {
	var b strings.Builder

	b.WriteString(v.styles.Title.Render(fmt.Sprintf("Reports [%s] (%d)", v.FilterLabel(), len(v.items))))
	b.WriteString("\n\n")

	switch {
	case v.loading:
		b.WriteString(v.styles.Muted.Render("Loading reports..."))
	case v.err != nil:
		b.WriteString(v.styles.Error.Render("Error: " + v.err.Error()))
	case len(v.items) == 0:
		b.WriteString(v.styles.Muted.Render("No reports stored yet."))
	default:
		visible := v.visibleItemCount()
		end := min(v.scrollOffset+visible, len(v.items))
		for i := v.scrollOffset; i < end; i++ {
			b.WriteString(v.renderItem(i, &v.items[i]))
			b.WriteString("\n")
		}
		if len(v.items) > visible {
			b.WriteString("\n")
			b.WriteString(v.styles.Muted.Render(fmt.Sprintf("  [%d-%d of %d]", v.scrollOffset+1, end, len(v.items))))
		}
	}

	b.WriteString("\n\n")
	b.WriteString(v.styles.Help.Render(keymap.Line(v.keys.ReportsHelp())))
	return b.String()
}

func (v *View) renderItem(index int, doc *domain.Document) string {
	indicator := "  "
	if index == v.selected {
		indicator = "> "
	}

	title := doc.Title
	if title == "" {
		title = doc.ID
	}
	date := doc.ReportDateString()
	if date == "" {
		date = "----------"
	}
	line := fmt.Sprintf("%s%s  %-7s %s", indicator, date, doc.Type.String(), title)

	if index == v.selected {
		return v.styles.Selected.Render(line)
	}
	return v.styles.Normal.Render(line)
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
}

// Documents returns the loaded reports.
func (v *View) Documents() []domain.Document {
	return v.items
}

// SelectedIndex returns the selected report index.
func (v *View) SelectedIndex() int {
	return v.selected
}

// SelectedDocument returns the selected report, or nil.
func (v *View) SelectedDocument() *domain.Document {
	if v.selected < len(v.items) {
		return &v.items[v.selected]
	}
	return nil
}

// Err returns the last error.
func (v *View) Err() error {
	return v.err
}
