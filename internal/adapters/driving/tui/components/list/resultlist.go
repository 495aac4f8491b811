// Package list provides list display components for the TUI.
package list

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/rankpulse/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/rankpulse/internal/core/domain"
)

// ResultList displays retrieved report chunks in a navigable list.
type ResultList struct {
	results  []domain.RetrievedChunk
	selected int
	styles   *styles.Styles
	width    int
	height   int

	// threshold is the similarity below which a hit would not reach report
	// context; such scores render dimmed.
	threshold float64
}

// NewResultList creates a new result list component.
func NewResultList(s *styles.Styles) *ResultList {
	if s == nil {
		s = styles.DefaultStyles()
	}

	return &ResultList{
		styles:    s,
		width:     80,
		height:    10,
		threshold: domain.DefaultAppSettings().RAG.MinSimilarity,
	}
}

// Init initialises the result list.
func (r *ResultList) Init() tea.Cmd {
	return nil
}

// Update handles list navigation messages.
func (r *ResultList) Update(msg tea.Msg) (*ResultList, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "up", "k":
			r.MoveUp()
		case "down", "j":
			r.MoveDown()
		}
	}
	return r, nil
}

// View renders the result list.
func (r *ResultList) View() string {
	if len(r.results) == 0 {
		return r.styles.Muted.Render("No matching reports")
	}

	lines := make([]string, 0, len(r.results)+2)
	header := r.styles.Subtitle.Render(fmt.Sprintf("Matches (%d)", len(r.results)))
	lines = append(lines, header, "")

	// Each hit renders as a header line plus a preview line.
	visibleCount := (r.height - 4) / 3
	if visibleCount < 1 {
		visibleCount = 1
	}

	start := 0
	if r.selected >= visibleCount {
		start = r.selected - visibleCount + 1
	}
	end := min(start+visibleCount, len(r.results))

	for i := start; i < end; i++ {
		lines = append(lines, r.renderResult(i, &r.results[i]))
	}

	return strings.Join(lines, "\n")
}

func (r *ResultList) renderResult(index int, hit *domain.RetrievedChunk) string {
	indicator := "  "
	if index == r.selected {
		indicator = "> "
	}

	title := hit.Title
	if title == "" {
		title = hit.DocID
	}
	if date := hit.ReportDateString(); date != "" && !strings.Contains(title, date) {
		title += " · " + date
	}
	title = truncate(title, max(r.width-30, 10))

	rowStyle := r.styles.Normal
	if index == r.selected {
		rowStyle = r.styles.Selected
	}
	titleLine := rowStyle.Render(indicator+title) + " " +
		r.styles.DocTypeBadge(hit.DocType) + " " +
		r.styles.Score(hit.Similarity, r.threshold)

	preview := strings.Join(strings.Fields(hit.Content), " ")
	preview = truncate(preview, max(r.width-6, 20))

	return titleLine + "\n" + r.styles.Muted.Render("    "+preview)
}

// truncate cuts s to n runes, marking the cut with "...".
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-3]) + "..."
}

// SetThreshold sets the similarity below which scores are dimmed.
func (r *ResultList) SetThreshold(t float64) {
	r.threshold = t
}

// SetResults updates the result list.
func (r *ResultList) SetResults(results []domain.RetrievedChunk) {
	r.results = results
	r.selected = 0
}

// Results returns the current results.
func (r *ResultList) Results() []domain.RetrievedChunk {
	return r.results
}

// Selected returns the index of the selected result.
func (r *ResultList) Selected() int {
	return r.selected
}

// SetSelected sets the selected index.
func (r *ResultList) SetSelected(index int) {
	if index >= 0 && index < len(r.results) {
		r.selected = index
	}
}

// SelectedResult returns the currently selected result, or nil if none.
func (r *ResultList) SelectedResult() *domain.RetrievedChunk {
	if len(r.results) == 0 || r.selected < 0 || r.selected >= len(r.results) {
		return nil
	}
	return &r.results[r.selected]
}

// MoveUp moves selection up.
func (r *ResultList) MoveUp() {
	if r.selected > 0 {
		r.selected--
	}
}

// MoveDown moves selection down.
func (r *ResultList) MoveDown() {
	if r.selected < len(r.results)-1 {
		r.selected++
	}
}

// SetDimensions sets the component dimensions.
func (r *ResultList) SetDimensions(width, height int) {
	r.width = width
	r.height = height
}

// Count returns the number of results.
func (r *ResultList) Count() int {
	return len(r.results)
}

// IsEmpty returns whether the list is empty.
func (r *ResultList) IsEmpty() bool {
	return len(r.results) == 0
}
