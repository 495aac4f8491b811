package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/rankpulse/internal/core/domain"
)

func writeCards(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cards.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestContextCmd_ChatMode(t *testing.T) {
	ts := setupTestServices(t)
	cards := writeCards(t, `[{"title":"Sales","lines":["Serum A +12%"]}]`)

	out, err := execute(t, nil, "context", "how is serum doing", "--cards", cards, "--max-chunks", "2")
	require.NoError(t, err)

	assert.Contains(t, out, "[CHAT_CONTEXT] how is serum doing")
	in := ts.retrieval.lastChat
	assert.True(t, in.IncludePastReports)
	assert.Equal(t, 2, in.MaxContextChunks)
	require.Len(t, in.Cards, 1)
	assert.Equal(t, "Sales", in.Cards[0].Title)
	assert.Equal(t, []string{"Serum A +12%"}, in.Cards[0].Lines)
	assert.False(t, in.Today.IsZero())
}

func TestContextCmd_CustomMode(t *testing.T) {
	ts := setupTestServices(t)

	out, err := execute(t, nil, "context", "price war", "-m", "custom", "--no-history")
	require.NoError(t, err)

	assert.Contains(t, out, "[CUSTOM_CONTEXT] price war")
	assert.False(t, ts.retrieval.lastCust.IncludeSimilarReports)
	assert.Nil(t, ts.retrieval.lastCust.Cards)
}

func TestContextCmd_UnknownMode(t *testing.T) {
	setupTestServices(t)

	_, err := execute(t, nil, "context", "q", "--mode", "weekly")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestLoadCards(t *testing.T) {
	cards, err := loadCards("")
	require.NoError(t, err)
	assert.Nil(t, cards)

	_, err = loadCards(writeCards(t, `{"title":`))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = loadCards(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}
