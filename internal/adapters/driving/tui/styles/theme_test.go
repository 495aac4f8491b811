package styles

import (
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/rankpulse/internal/core/domain"
)

func TestDefaultTheme_StatusColoursAreDistinct(t *testing.T) {
	theme := DefaultTheme()

	seen := make(map[lipgloss.Color]bool)
	for _, c := range []lipgloss.Color{theme.Accent, theme.Info, theme.Good, theme.Caution, theme.Bad} {
		assert.NotEmpty(t, c)
		assert.False(t, seen[c], "duplicate colour %s", c)
		seen[c] = true
	}
}

func TestNewStyles_NilThemeUsesDefault(t *testing.T) {
	s := NewStyles(nil)

	require.NotNil(t, s)
	assert.Equal(t, DefaultTheme(), s.Theme())
}

func TestDocTypeBadge(t *testing.T) {
	s := DefaultStyles()

	for _, dt := range []domain.DocType{domain.DocTypeDaily, domain.DocTypeCustom, domain.DocTypeRule} {
		assert.Contains(t, s.DocTypeBadge(dt), dt.String())
	}
	assert.NotEmpty(t, s.DocTypeBadge(domain.DocType(99)))
}

func TestScore(t *testing.T) {
	s := DefaultStyles()

	assert.Contains(t, s.Score(0.9123, 0.7), "0.912")
	assert.Contains(t, s.Score(0.5, 0.7), "0.500")
	assert.Equal(t, s.strong.Render("0.700"), s.Score(0.7, 0.7))
	assert.Equal(t, s.weak.Render("0.699"), s.Score(0.699, 0.7))
}
