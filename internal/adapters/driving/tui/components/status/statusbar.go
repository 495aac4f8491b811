// Package status renders the one-line footer of the search view.
package status

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/rankpulse/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/rankpulse/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/rankpulse/internal/core/domain"
)

// Mode is what the search view is doing.
type Mode int

// Modes the bar can show.
const (
	Idle Mode = iota
	Searching
	Showing
	Failed
)

// Summary describes a set of hits.
type Summary struct {
	Hits int
	Best float64

	// Oldest and Newest span the dated hits; zero when none are dated.
	Oldest time.Time
	Newest time.Time
}

// Summarize reduces hits to the figures the bar shows.
func Summarize(hits []domain.RetrievedChunk) Summary {
	sum := Summary{Hits: len(hits)}
	for _, h := range hits {
		sum.Best = max(sum.Best, h.Similarity)
		if h.ReportDate == nil {
			continue
		}
		d := *h.ReportDate
		if sum.Oldest.IsZero() || d.Before(sum.Oldest) {
			sum.Oldest = d
		}
		if d.After(sum.Newest) {
			sum.Newest = d
		}
	}
	return sum
}

// String renders the summary as "3 chunks · best 0.912 · 2025-01-29 → 2025-01-31".
func (s Summary) String() string {
	if s.Hits == 0 {
		return "no matching chunks"
	}
	noun := "chunks"
	if s.Hits == 1 {
		noun = "chunk"
	}
	out := fmt.Sprintf("%d %s · best %.3f", s.Hits, noun, s.Best)
	switch {
	case s.Oldest.IsZero():
	case s.Oldest.Equal(s.Newest):
		out += " · " + s.Oldest.Format(domain.DateLayout)
	default:
		out += " · " + s.Oldest.Format(domain.DateLayout) + " → " + s.Newest.Format(domain.DateLayout)
	}
	return out
}

// Bar shows the search state on the left and key hints on the right.
type Bar struct {
	styles *styles.Styles
	keymap *keymap.KeyMap
	width  int

	mode    Mode
	query   string
	summary Summary
	err     string
}

// NewBar builds a bar; nil arguments fall back to the defaults.
func NewBar(s *styles.Styles, km *keymap.KeyMap) *Bar {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}
	return &Bar{styles: s, keymap: km, width: 80}
}

// Searching marks a query as in flight.
func (b *Bar) Searching(query string) {
	b.mode, b.query, b.err = Searching, query, ""
}

// Show records the hits of the last query.
func (b *Bar) Show(hits []domain.RetrievedChunk) {
	b.mode, b.summary, b.err = Showing, Summarize(hits), ""
}

// Fail records a failed query.
func (b *Bar) Fail(err error) {
	b.mode = Failed
	b.err = ""
	if err != nil {
		b.err = err.Error()
	}
}

// Reset returns the bar to Idle.
func (b *Bar) Reset() {
	*b = Bar{styles: b.styles, keymap: b.keymap, width: b.width}
}

// SetWidth sets the rendered width.
func (b *Bar) SetWidth(w int) { b.width = w }

// Mode returns the current mode.
func (b *Bar) Mode() Mode { return b.mode }

// Summary returns the figures from the last Show.
func (b *Bar) Summary() Summary { return b.summary }

// View renders the bar padded to its width.
func (b *Bar) View() string {
	left, right := b.left(), b.styles.Muted.Render(keymap.Line(b.hints()))
	gap := max(b.width-lipgloss.Width(left)-lipgloss.Width(right)-2, 1)
	return b.styles.StatusBar.Width(b.width).Render(left + strings.Repeat(" ", gap) + right)
}

func (b *Bar) left() string {
	switch b.mode {
	case Searching:
		return b.styles.Muted.Render(fmt.Sprintf("Searching %q…", b.query))
	case Showing:
		return b.styles.Normal.Render(b.summary.String())
	case Failed:
		if b.err == "" {
			return b.styles.Error.Render("Search failed")
		}
		return b.styles.Error.Render("Search failed: " + b.err)
	default:
		return b.styles.Muted.Render("Type a question about past reports")
	}
}

func (b *Bar) hints() []key.Binding {
	if b.mode == Showing && b.summary.Hits > 0 {
		return b.keymap.ResultsHelp()
	}
	return b.keymap.SearchHelp()
}
