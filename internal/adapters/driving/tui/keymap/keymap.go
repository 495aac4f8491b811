// Package keymap holds the key bindings shared by the TUI views.
package keymap

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
)

// KeyMap groups bindings by what they act on. Several share a key
// ("enter", "esc") because only one view handles input at a time.
type KeyMap struct {
	Quit key.Binding
	Back key.Binding

	Up     key.Binding
	Down   key.Binding
	Top    key.Binding
	Bottom key.Binding

	// Open shows the report behind a selected hit or list row.
	Open key.Binding

	// NewSearch refocuses the query box from the result list.
	NewSearch key.Binding

	// Filter cycles the report list through DAILY, CUSTOM and RULE.
	Filter key.Binding
	Reload key.Binding

	// Copy puts the open report on the clipboard.
	Copy key.Binding
}

// DefaultKeyMap returns the bindings used when a view is built without one.
func DefaultKeyMap() *KeyMap {
	return &KeyMap{
		Quit:      key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		Back:      key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		Up:        key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:      key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Top:       key.NewBinding(key.WithKeys("g", "home"), key.WithHelp("g", "top")),
		Bottom:    key.NewBinding(key.WithKeys("G", "end"), key.WithHelp("G", "bottom")),
		Open:      key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "open report")),
		NewSearch: key.NewBinding(key.WithKeys("n", "/"), key.WithHelp("n", "new search")),
		Filter:    key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "filter")),
		Reload:    key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
		Copy:      key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "copy")),
	}
}

// MenuHelp lists the bindings active on the main menu.
func (k *KeyMap) MenuHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.selectBinding(), k.Quit}
}

// SearchHelp lists the bindings active while typing a query.
func (k *KeyMap) SearchHelp() []key.Binding {
	return []key.Binding{
		key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "search")),
		k.Back,
	}
}

// ResultsHelp lists the bindings active on a result list.
func (k *KeyMap) ResultsHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Open, k.NewSearch, k.Back}
}

// ReportsHelp lists the bindings active on the stored report list.
func (k *KeyMap) ReportsHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Open, k.Filter, k.Reload, k.Back}
}

// DocumentHelp lists the bindings active in the report viewer.
func (k *KeyMap) DocumentHelp(canCopy bool) []key.Binding {
	b := []key.Binding{k.Up, k.Down, k.Top, k.Bottom}
	if canCopy {
		b = append(b, k.Copy)
	}
	return append(b, k.Back)
}

func (k *KeyMap) selectBinding() key.Binding {
	return key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "select"))
}

// Line renders bindings as a one-line hint such as "[↑/k] up  [q] quit".
func Line(bindings []key.Binding) string {
	parts := make([]string, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		if h.Key == "" {
			continue
		}
		parts = append(parts, "["+h.Key+"] "+h.Desc)
	}
	return strings.Join(parts, "  ")
}
