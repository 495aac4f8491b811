// Package search provides the report search view for the TUI.
package search

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/rankpulse/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/rankpulse/internal/adapters/driving/tui/components/list"
	"github.com/custodia-labs/rankpulse/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/rankpulse/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/rankpulse/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/rankpulse/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/rankpulse/internal/core/domain"
	"github.com/custodia-labs/rankpulse/internal/core/ports/driving"
)

// DefaultTopK is the number of chunks requested per search.
const DefaultTopK = 10

// View represents the search view with input, results list, and status bar.
type View struct {
	styles    *styles.Styles
	keymap    *keymap.KeyMap
	input     *input.SearchInput
	list      *list.ResultList
	statusbar *status.Bar

	retrieval driving.RetrievalService
	ctx       context.Context
	topK      int

	width      int
	height     int
	ready      bool
	err        error
	lastQuery  string
	focusInput bool // typing when true, navigating results when false
}

// NewView creates a new search view.
func NewView(s *styles.Styles, km *keymap.KeyMap, retrieval driving.RetrievalService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	return &View{
		styles:     s,
		keymap:     km,
		input:      input.NewSearchInput(s),
		list:       list.NewResultList(s),
		statusbar:  status.NewBar(s, km),
		retrieval:  retrieval,
		ctx:        context.Background(),
		topK:       DefaultTopK,
		width:      80,
		height:     24,
		focusInput: true,
	}
}

// WithThreshold dims hit scores below the report-context similarity.
func (v *View) WithThreshold(minSimilarity float64) *View {
	v.list.SetThreshold(minSimilarity)
	return v
}

// WithContext sets the context for the view.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init initialises the view.
func (v *View) Init() tea.Cmd {
	return v.input.Init()
}

// Update handles messages for the search view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.SearchCompleted:
		v.handleSearchCompleted(msg)
		return v, nil

	case messages.ErrorOccurred:
		v.err = msg.Err
		v.statusbar.Fail(msg.Err)
		return v, nil
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	if key.Matches(msg, v.keymap.Back) {
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewMenu}
		}
	}

	if v.focusInput {
		if msg.Type == tea.KeyEnter {
			query := strings.TrimSpace(v.input.Value())
			if query == "" {
				return v, nil
			}
			v.input.Remember(query)
			v.statusbar.Searching(query)
			v.focusInput = false
			v.input.Blur()
			return v, v.performSearch(query)
		}
		var cmd tea.Cmd
		v.input, cmd = v.input.Update(msg)
		return v, cmd
	}

	if key.Matches(msg, v.keymap.Open) {
		hit := v.list.SelectedResult()
		if hit == nil {
			return v, nil
		}
		docID := hit.DocID
		return v, func() tea.Msg {
			return messages.DocumentSelected{DocID: docID, Back: messages.ViewSearch}
		}
	}

	switch {
	case key.Matches(msg, v.keymap.Up):
		v.list.MoveUp()
	case key.Matches(msg, v.keymap.Down):
		v.list.MoveDown()
	case key.Matches(msg, v.keymap.NewSearch):
		v.focusInput = true
		v.input.SetValue("")
		return v, v.input.Focus()
	}
	return v, nil
}

// performSearch runs the query against stored reports.
func (v *View) performSearch(query string) tea.Cmd {
	ctx, retrieval, topK := v.ctx, v.retrieval, v.topK
	return func() tea.Msg {
		if retrieval == nil {
			return messages.ErrorOccurred{Err: ErrNoRetrievalService}
		}
		hits, err := retrieval.Search(ctx, domain.SearchQuery{Query: query, TopK: topK})
		return messages.SearchCompleted{Query: query, Results: hits, Err: err}
	}
}

func (v *View) handleSearchCompleted(msg messages.SearchCompleted) {
	v.lastQuery = msg.Query
	if msg.Err != nil {
		v.err = msg.Err
		v.statusbar.Fail(msg.Err)
		v.focusInput = true
		v.input.Focus()
		return
	}

	v.err = nil
	v.list.SetResults(msg.Results)
	v.statusbar.Show(msg.Results)
	v.focusInput = false
	v.input.Blur()
}

// View renders the search view.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	sections := make([]string, 0, 10)
	sections = append(sections, v.styles.Title.Render("rankpulse · report search"), "")
	sections = append(sections, v.input.View(), "")

	if v.err != nil {
		sections = append(sections, v.styles.Error.Render("Error: "+v.err.Error()), "")
	}

	sections = append(sections, v.list.View(), "", v.statusbar.View())

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
	v.input.SetWidth(width)
	v.list.SetDimensions(width, height-8)
	v.statusbar.SetWidth(width)
}

// Reset clears the query and results.
func (v *View) Reset() {
	v.input.Reset()
	v.input.Focus()
	v.list.SetResults(nil)
	v.statusbar.Reset()
	v.err = nil
	v.lastQuery = ""
	v.focusInput = true
}

// Query returns the current input value.
func (v *View) Query() string {
	return v.input.Value()
}

// LastQuery returns the last submitted query.
func (v *View) LastQuery() string {
	return v.lastQuery
}

// Results returns the current hits.
func (v *View) Results() []domain.RetrievedChunk {
	return v.list.Results()
}

// SelectedIndex returns the selected hit index.
func (v *View) SelectedIndex() int {
	return v.list.Selected()
}

// InputFocused reports whether keystrokes go to the query input.
func (v *View) InputFocused() bool {
	return v.focusInput
}

// Err returns the last error.
func (v *View) Err() error {
	return v.err
}
