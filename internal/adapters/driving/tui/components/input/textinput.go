// Package input holds the query box of the search view.
package input

import (
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/rankpulse/internal/adapters/driving/tui/styles"
)

const (
	// labelWidth covers the "Ask: " label plus the field border and padding.
	labelWidth = 9
	minField   = 20

	// HistoryLimit caps the queries kept for ↑/↓ recall.
	HistoryLimit = 50
)

// SearchInput is a single-line query box. ↑ and ↓ step through queries
// submitted earlier in the session; the text being typed is kept as a draft
// and restored after the newest entry.
type SearchInput struct {
	field  textinput.Model
	styles *styles.Styles
	width  int

	history []string
	// cursor indexes history; len(history) means the draft is shown.
	cursor int
	draft  string
}

// NewSearchInput returns a focused, empty query box.
func NewSearchInput(s *styles.Styles) *SearchInput {
	if s == nil {
		s = styles.DefaultStyles()
	}
	field := textinput.New()
	field.Placeholder = "e.g. why did the serum drop out of the beauty top list?"
	field.CharLimit = 256
	field.Focus()

	in := &SearchInput{field: field, styles: s}
	in.SetWidth(59)
	return in
}

// Init starts the cursor blinking.
func (s *SearchInput) Init() tea.Cmd {
	return textinput.Blink
}

// Update edits the query, or recalls history on ↑/↓.
func (s *SearchInput) Update(msg tea.Msg) (*SearchInput, tea.Cmd) {
	if k, ok := msg.(tea.KeyMsg); ok && s.field.Focused() {
		switch k.Type {
		case tea.KeyUp:
			s.recall(-1)
			return s, nil
		case tea.KeyDown:
			s.recall(1)
			return s, nil
		}
	}
	var cmd tea.Cmd
	s.field, cmd = s.field.Update(msg)
	return s, cmd
}

func (s *SearchInput) recall(step int) {
	next := s.cursor + step
	if next < 0 || next > len(s.history) {
		return
	}
	if s.cursor == len(s.history) {
		s.draft = s.field.Value()
	}
	s.cursor = next
	if next == len(s.history) {
		s.field.SetValue(s.draft)
	} else {
		s.field.SetValue(s.history[next])
	}
	s.field.CursorEnd()
}

// Remember appends a submitted query to the history. Repeating the newest
// entry is a no-op.
func (s *SearchInput) Remember(query string) {
	if query == "" {
		return
	}
	if n := len(s.history); n == 0 || s.history[n-1] != query {
		s.history = append(s.history, query)
		if len(s.history) > HistoryLimit {
			s.history = s.history[len(s.history)-HistoryLimit:]
		}
	}
	s.cursor = len(s.history)
	s.draft = ""
}

// History returns submitted queries, oldest first.
func (s *SearchInput) History() []string {
	return s.history
}

// View renders the label and the bordered field.
func (s *SearchInput) View() string {
	return lipgloss.JoinHorizontal(lipgloss.Center,
		s.styles.Title.Render("Ask: "),
		s.styles.InputField.Render(s.field.View()),
	)
}

// Value returns the query text.
func (s *SearchInput) Value() string { return s.field.Value() }

// SetValue replaces the query text.
func (s *SearchInput) SetValue(v string) { s.field.SetValue(v) }

// Focus routes keystrokes to the field.
func (s *SearchInput) Focus() tea.Cmd { return s.field.Focus() }

// Blur stops routing keystrokes to the field.
func (s *SearchInput) Blur() { s.field.Blur() }

// Focused reports whether the field receives keystrokes.
func (s *SearchInput) Focused() bool { return s.field.Focused() }

// SetWidth sizes the field to fill width next to its label.
func (s *SearchInput) SetWidth(width int) {
	s.width = width
	s.field.Width = max(width-labelWidth, minField)
}

// Width returns the width last passed to SetWidth.
func (s *SearchInput) Width() int { return s.width }

// Reset clears the text and returns recall to the draft. History is kept.
func (s *SearchInput) Reset() {
	s.field.Reset()
	s.cursor = len(s.history)
	s.draft = ""
}
