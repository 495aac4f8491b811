// Package menu is the TUI start screen.
package menu

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/rankpulse/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/rankpulse/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/rankpulse/internal/adapters/driving/tui/styles"
)

// Item is one menu entry. Activating it runs Cmd.
type Item struct {
	Label string
	Hint  string
	Cmd   tea.Cmd
}

func goTo(view messages.ViewType) tea.Cmd {
	return func() tea.Msg { return messages.ViewChanged{View: view} }
}

// DefaultItems is the menu shown at start-up.
func DefaultItems() []Item {
	return []Item{
		{Label: "Search reports", Hint: "ask about past rankings, brands or reviews", Cmd: goTo(messages.ViewSearch)},
		{Label: "Browse reports", Hint: "stored DAILY, CUSTOM and RULE documents", Cmd: goTo(messages.ViewReports)},
		{Label: "Today's evidence", Hint: "category lists, brand moves and review signals",
			Cmd: func() tea.Msg { return messages.EvidenceRequested{} }},
		{Label: "Help", Hint: "key bindings", Cmd: goTo(messages.ViewHelp)},
		{Label: "Quit", Cmd: tea.Quit},
	}
}

// View is the start screen. Entries are picked with the cursor or their
// number.
type View struct {
	styles *styles.Styles
	keys   *keymap.KeyMap
	items  []Item
	cursor int
	width  int
	height int
	ready  bool
}

// NewView builds the menu with DefaultItems.
func NewView(s *styles.Styles) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &View{
		styles: s,
		keys:   keymap.DefaultKeyMap(),
		items:  DefaultItems(),
		width:  80,
		height: 24,
	}
}

// Init implements tea.Model.
func (v *View) Init() tea.Cmd {
	return nil
}

// Update moves the cursor or activates an entry.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, v.keys.Up):
			v.cursor = max(v.cursor-1, 0)
		case key.Matches(msg, v.keys.Down):
			v.cursor = min(v.cursor+1, len(v.items)-1)
		case key.Matches(msg, v.keys.Open):
			return v, v.items[v.cursor].Cmd
		case key.Matches(msg, v.keys.Quit):
			return v, tea.Quit
		default:
			if n, err := strconv.Atoi(msg.String()); err == nil && n >= 1 && n <= len(v.items) {
				v.cursor = n - 1
				return v, v.items[v.cursor].Cmd
			}
		}
	}
	return v, nil
}

// View renders the menu.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	var b strings.Builder
	b.WriteString(v.styles.Title.Render("rankpulse"))
	b.WriteString("\n")
	b.WriteString(v.styles.Muted.Render("Daily ranking reports"))
	b.WriteString("\n\n")

	for i, it := range v.items {
		label := strconv.Itoa(i+1) + ". " + it.Label
		if i == v.cursor {
			b.WriteString("> " + v.styles.Selected.Render(label))
		} else {
			b.WriteString("  " + v.styles.Normal.Render(label))
		}
		if it.Hint != "" && v.width >= 60 {
			b.WriteString("  " + v.styles.Muted.Render(it.Hint))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(v.styles.Help.Render(keymap.Line(v.keys.MenuHelp()) + "  [1-" + strconv.Itoa(len(v.items)) + "] jump"))
	return b.String()
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
}

// Items returns the menu entries.
func (v *View) Items() []Item {
	return v.items
}

// Selected returns the cursor index.
func (v *View) Selected() int {
	return v.cursor
}
