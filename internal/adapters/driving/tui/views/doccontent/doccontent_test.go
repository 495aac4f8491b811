package doccontent

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/rankpulse/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/rankpulse/internal/core/domain"
	"github.com/custodia-labs/rankpulse/internal/core/ports/driving"
)

type stubDocuments struct {
	driving.DocumentService
	doc *domain.Document
}

func (s *stubDocuments) Get(_ context.Context, id string) (*domain.Document, error) {
	if s.doc == nil || s.doc.ID != id {
		return nil, domain.ErrNotFound
	}
	return s.doc, nil
}

func longBody(n int) string {
	lines := make([]string, n)
	for i := range lines {
		lines[i] = fmt.Sprintf("line %d", i+1)
	}
	return strings.Join(lines, "\n")
}

func TestView_OpenDocument(t *testing.T) {
	date := time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)
	doc := &domain.Document{
		ID:         "daily_2025-03-15",
		Type:       domain.DocTypeDaily,
		Title:      "Daily Report March 15, 2025",
		Body:       "# Daily\nSerum moved +3.",
		ReportDate: &date,
		CreatedAt:  time.Date(2025, 3, 15, 2, 5, 0, 0, time.UTC),
	}
	v := NewView(nil, &stubDocuments{doc: doc})
	v.SetDimensions(100, 30)

	cmd := v.Open(doc.ID, messages.ViewReports)
	assert.True(t, v.Loading())
	assert.Contains(t, v.View(), "Loading report...")

	v.Update(cmd())

	assert.False(t, v.Loading())
	assert.Equal(t, "Daily Report March 15, 2025", v.Title())
	assert.Equal(t, doc.Body, v.Content())
	out := v.View()
	assert.Contains(t, out, "DAILY · daily_2025-03-15 · report date 2025-03-15 · saved 2025-03-15 02:05")
	assert.Contains(t, out, "Serum moved +3.")
}

func TestView_OpenMissing(t *testing.T) {
	v := NewView(nil, &stubDocuments{})

	cmd := v.Open("nope", messages.ViewSearch)
	v.Update(cmd())

	assert.ErrorIs(t, v.Err(), domain.ErrNotFound)
	assert.Equal(t, "nope", v.Title())
	assert.Contains(t, v.View(), "Error: not found")
}

func TestView_ShowTextAndScroll(t *testing.T) {
	v := NewView(nil, nil)
	v.SetDimensions(80, 16)

	v.ShowText("Evidence", "report date 2025-03-15", longBody(100), messages.ViewMenu)
	assert.True(t, v.viewport.AtTop())
	assert.Contains(t, v.View(), "report date 2025-03-15")

	v.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'G'}})
	assert.True(t, v.viewport.AtBottom())
	assert.Contains(t, v.View(), "line 100")

	v.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'g'}})
	assert.True(t, v.viewport.AtTop())

	v.Update(tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, 1, v.viewport.YOffset)
}

func TestView_EmptyAndBack(t *testing.T) {
	v := NewView(nil, nil)
	v.ShowText("Evidence", "", "  ", messages.ViewSearch)

	assert.Contains(t, v.View(), "(No content)")

	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)
	assert.Equal(t, messages.ViewChanged{View: messages.ViewSearch}, cmd())
}

func TestView_StartLoadingThenError(t *testing.T) {
	v := NewView(nil, nil)

	v.StartLoading("Evidence", messages.ViewMenu)
	assert.True(t, v.Loading())

	v.ShowError("Evidence", domain.ErrRuleDocMissing, messages.ViewMenu)
	assert.False(t, v.Loading())
	assert.Contains(t, v.View(), "rule document missing")
}

type stubClipboard struct {
	copied []string
	err    error
}

func (c *stubClipboard) Copy(_ context.Context, text string) error {
	c.copied = append(c.copied, text)
	return c.err
}

func TestView_CopyContent(t *testing.T) {
	clip := &stubClipboard{}
	v := NewView(nil, nil).WithClipboard(clip)
	v.ShowText("Evidence", "", "# Evidence\nSerum A new at 3", messages.ViewMenu)
	assert.Contains(t, v.View(), "[c] copy")

	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'c'}})
	require.NotNil(t, cmd)
	v.Update(cmd())

	assert.Equal(t, []string{"# Evidence\nSerum A new at 3"}, clip.copied)
	assert.Equal(t, "Copied to clipboard", v.Status())
	assert.Contains(t, v.View(), "Copied to clipboard")

	v.ShowText("Other", "", "body", messages.ViewMenu)
	assert.Empty(t, v.Status(), "status clears when new content is shown")
}

func TestView_CopyFailure(t *testing.T) {
	clip := &stubClipboard{err: fmt.Errorf("no clipboard utility found")}
	v := NewView(nil, nil).WithClipboard(clip)
	v.ShowText("Report", "", "body", messages.ViewMenu)

	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'c'}})
	require.NotNil(t, cmd)
	v.Update(cmd())

	assert.Contains(t, v.Status(), "Copy failed: no clipboard utility found")
}

func TestView_CopyDisabled(t *testing.T) {
	v := NewView(nil, nil)
	v.ShowText("Report", "", "body", messages.ViewMenu)
	assert.NotContains(t, v.View(), "[c] copy")

	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'c'}})
	assert.Nil(t, cmd)

	clip := &stubClipboard{}
	v = NewView(nil, nil).WithClipboard(clip)
	v.ShowText("Report", "", "   ", messages.ViewMenu)
	_, cmd = v.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'c'}})
	assert.Nil(t, cmd, "nothing to copy")
}
