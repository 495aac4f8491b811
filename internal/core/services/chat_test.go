package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/rankpulse/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/rankpulse/internal/core/domain"
	"github.com/custodia-labs/rankpulse/internal/core/ports/driven"
)

func newTestChat(t *testing.T) (*ChatService, *memory.ReportStore, *fakeEmbedder, *fakeLLM) {
	t.Helper()
	settings := domain.DefaultAppSettings()
	store := memory.NewReportStore()
	embedder := &fakeEmbedder{}
	llm := &fakeLLM{reply: " Sounds good. "}
	retrieval := NewRetrievalService(store, embedder, settings.RAG)
	svc := NewChatService(retrieval, llm, fakePrompts{driven.PromptChatSystem: "be helpful"}, settings)
	return svc, store, embedder, llm
}

func TestChatService_Reply_WithRetrieval(t *testing.T) {
	svc, store, _, llm := newTestChat(t)
	seedDoc(t, store, domain.Document{ID: "daily_1", Type: domain.DocTypeDaily, Title: "Daily Report", ReportDate: day(-2)},
		"mask ranking jumped")

	answer, err := svc.Reply(context.Background(), domain.ChatInput{
		UseRetrieval: true,
		Today:        reportDay,
		Messages: []domain.ConversationMessage{
			{Role: "user", Content: "look at this", Cards: []domain.DataCard{{Title: "Sales", Lines: []string{"up 5%"}}}},
			{Role: "assistant", Content: "noted"},
			{Role: "user", Content: "mask ranking jumped"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "Sounds good.", answer)

	require.Len(t, llm.messages, 4)
	assert.Equal(t, driven.ChatMessage{Role: driven.RoleSystem, Content: "be helpful"}, llm.messages[0])
	assert.Equal(t, "look at this\n\n[CARD] Sales\n- up 5%", llm.messages[1].Content)
	assert.Equal(t, driven.RoleAssistant, llm.messages[2].Role)
	assert.Equal(t,
		"mask ranking jumped\n\n[USER_ATTACHED_DATA]\n[CARD] Sales\n  - up 5%"+
			"\n\n---\n\n[RELEVANT_PAST_INSIGHTS]\n[PAST_REPORT] Daily Report (2025-03-13)\nmask ranking jumped",
		llm.messages[3].Content)
}

func TestChatService_Reply_WithoutRetrieval(t *testing.T) {
	svc, _, embedder, llm := newTestChat(t)

	_, err := svc.Reply(context.Background(), domain.ChatInput{
		Messages: []domain.ConversationMessage{{Role: "user", Content: "hello"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "hello", llm.messages[1].Content)
	assert.Equal(t, 0, embedder.calls)
}

func TestChatService_Reply_ContextFailureIsTolerated(t *testing.T) {
	svc, _, embedder, llm := newTestChat(t)
	embedder.err = errors.New("embedding down")

	answer, err := svc.Reply(context.Background(), domain.ChatInput{
		UseRetrieval: true,
		Today:        reportDay,
		Messages:     []domain.ConversationMessage{{Role: "user", Content: "hello"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "Sounds good.", answer)
	assert.Equal(t, "hello", llm.messages[1].Content)
}

func TestChatService_Reply_Errors(t *testing.T) {
	svc, _, _, llm := newTestChat(t)
	llm.err = errors.New("rate limited")

	_, err := svc.Reply(context.Background(), domain.ChatInput{
		Messages: []domain.ConversationMessage{{Role: "user", Content: "hello"}},
	})
	assert.ErrorContains(t, err, "rate limited")

	svc.llm = nil
	_, err = svc.Reply(context.Background(), domain.ChatInput{})
	assert.ErrorIs(t, err, domain.ErrLLMUnavailable)
}
