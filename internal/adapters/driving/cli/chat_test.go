package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChatCmd(t *testing.T) {
	ts := setupTestServices(t)

	out, err := execute(t, nil, "chat", "How did Serum A do this week?")
	require.NoError(t, err)

	assert.Contains(t, out, "Rankings look stable.")
	require.Len(t, ts.chat.last.Messages, 1)
	assert.Equal(t, "How did Serum A do this week?", ts.chat.last.Messages[0].Content)
	assert.True(t, ts.chat.last.UseRetrieval)
	assert.False(t, ts.chat.last.Today.IsZero())
}

func TestChatCmd_NoRetrieval(t *testing.T) {
	ts := setupTestServices(t)

	_, err := execute(t, nil, "chat", "hello", "--no-retrieval")
	require.NoError(t, err)
	assert.False(t, ts.chat.last.UseRetrieval)
}

func TestChatCmd_RequiresMessage(t *testing.T) {
	setupTestServices(t)

	_, err := execute(t, nil, "chat")
	assert.Error(t, err)
}
