// Package styles holds the palette and lipgloss styles for the TUI.
package styles

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/rankpulse/internal/core/domain"
)

// Theme names colours by role rather than hue.
type Theme struct {
	Accent lipgloss.Color
	Info   lipgloss.Color
	Text   lipgloss.Color
	Dim    lipgloss.Color

	Good    lipgloss.Color
	Caution lipgloss.Color
	Bad     lipgloss.Color

	// Surface backs the status bar; Edge draws borders.
	Surface lipgloss.Color
	Edge    lipgloss.Color
}

// DefaultTheme is a dark palette.
func DefaultTheme() *Theme {
	return &Theme{
		Accent:  "#E4572E",
		Info:    "#29B6F6",
		Text:    "#CDD6F4",
		Dim:     "#6C7086",
		Good:    "#A6E3A1",
		Caution: "#F9E2AF",
		Bad:     "#F38BA8",
		Surface: "#181825",
		Edge:    "#45475A",
	}
}

// Styles are built once from a Theme and shared by every view.
type Styles struct {
	theme *Theme

	Title    lipgloss.Style
	Subtitle lipgloss.Style
	Normal   lipgloss.Style
	Muted    lipgloss.Style
	Help     lipgloss.Style
	Error    lipgloss.Style

	// Selected marks the cursor row in lists and menus.
	Selected lipgloss.Style

	InputField lipgloss.Style
	StatusBar  lipgloss.Style

	badges map[domain.DocType]lipgloss.Style
	strong lipgloss.Style
	weak   lipgloss.Style
}

// NewStyles builds styles from theme, or from DefaultTheme when nil.
func NewStyles(theme *Theme) *Styles {
	if theme == nil {
		theme = DefaultTheme()
	}
	fg := func(c lipgloss.Color) lipgloss.Style { return lipgloss.NewStyle().Foreground(c) }
	badge := func(bg lipgloss.Color) lipgloss.Style {
		return lipgloss.NewStyle().Bold(true).Foreground(theme.Surface).Background(bg).Padding(0, 1)
	}

	return &Styles{
		theme:    theme,
		Title:    fg(theme.Accent).Bold(true),
		Subtitle: fg(theme.Info).Bold(true),
		Normal:   fg(theme.Text),
		Muted:    fg(theme.Dim),
		Help:     fg(theme.Dim),
		Error:    fg(theme.Bad),
		Selected: fg(theme.Text).Background(theme.Accent).Bold(true),
		InputField: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(theme.Edge).
			Padding(0, 1),
		StatusBar: fg(theme.Dim).Background(theme.Surface).Padding(0, 1),
		badges: map[domain.DocType]lipgloss.Style{
			domain.DocTypeDaily:  badge(theme.Info),
			domain.DocTypeCustom: badge(theme.Good),
			domain.DocTypeRule:   badge(theme.Caution),
		},
		strong: fg(theme.Good),
		weak:   fg(theme.Caution),
	}
}

// DefaultStyles returns styles for DefaultTheme.
func DefaultStyles() *Styles {
	return NewStyles(DefaultTheme())
}

// Theme returns the palette the styles were built from.
func (s *Styles) Theme() *Theme {
	return s.theme
}

// DocTypeBadge renders a coloured tag such as " DAILY ".
func (s *Styles) DocTypeBadge(t domain.DocType) string {
	style, ok := s.badges[t]
	if !ok {
		style = s.Muted
	}
	return style.Render(t.String())
}

// Score renders a similarity, dimmed below the report-context threshold.
func (s *Styles) Score(similarity, threshold float64) string {
	text := fmt.Sprintf("%.3f", similarity)
	if similarity >= threshold {
		return s.strong.Render(text)
	}
	return s.weak.Render(text)
}
