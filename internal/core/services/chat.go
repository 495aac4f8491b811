package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/custodia-labs/rankpulse/internal/core/domain"
	"github.com/custodia-labs/rankpulse/internal/core/ports/driven"
	"github.com/custodia-labs/rankpulse/internal/core/ports/driving"
	"github.com/custodia-labs/rankpulse/internal/logger"
)

// Ensure ChatService implements the interface.
var _ driving.ChatService = (*ChatService)(nil)

// ChatService answers conversational turns, optionally grounded in
// attached data and past reports.
type ChatService struct {
	retrieval driving.RetrievalService
	llm       driven.LLMService
	prompts   driven.PromptStore
	settings  domain.AppSettings
}

// NewChatService creates a chat service. Retrieval may be nil.
func NewChatService(
	retrieval driving.RetrievalService,
	llm driven.LLMService,
	prompts driven.PromptStore,
	settings domain.AppSettings,
) *ChatService {
	return &ChatService{retrieval: retrieval, llm: llm, prompts: prompts, settings: settings}
}

// Reply returns the assistant's next turn.
// Retrieval failures are logged and the reply proceeds without context.
func (s *ChatService) Reply(ctx context.Context, in domain.ChatInput) (string, error) {
	if s.llm == nil {
		return "", domain.ErrLLMUnavailable
	}
	system, err := s.prompts.Load(driven.PromptChatSystem)
	if err != nil {
		return "", fmt.Errorf("load chat prompt: %w", err)
	}

	lastUser := -1
	for i, m := range in.Messages {
		if m.Role == driven.RoleUser {
			lastUser = i
		}
	}

	var extra string
	if in.UseRetrieval && s.retrieval != nil && lastUser >= 0 && in.Messages[lastUser].Content != "" {
		extra = s.retrievalContext(ctx, in, in.Messages[lastUser].Content)
	}

	messages := make([]driven.ChatMessage, 0, len(in.Messages)+1)
	messages = append(messages, driven.ChatMessage{Role: driven.RoleSystem, Content: system})
	for i, m := range in.Messages {
		text := withCards(m.Content, m.Cards)
		if i == lastUser && extra != "" {
			text += "\n\n" + extra
		}
		role := driven.RoleAssistant
		if m.Role == driven.RoleUser {
			role = driven.RoleUser
		}
		messages = append(messages, driven.ChatMessage{Role: role, Content: text})
	}

	logger.Debug("Chat turn: %d messages, last length %d", len(messages), len(messages[len(messages)-1].Content))
	answer, err := s.llm.Chat(ctx, messages, driven.ChatOptions{Temperature: s.settings.LLM.Temperature})
	if err != nil {
		return "", fmt.Errorf("chat: %w", err)
	}
	return strings.TrimSpace(answer), nil
}

func (s *ChatService) retrievalContext(ctx context.Context, in domain.ChatInput, query string) string {
	var cards []domain.DataCard
	for _, m := range in.Messages {
		cards = append(cards, m.Cards...)
	}
	today := in.Today
	if today.IsZero() {
		today = time.Now().In(s.settings.Report.Location())
	}

	text, err := s.retrieval.BuildChatContext(ctx, driving.ChatContextInput{
		UserQuery:          query,
		Cards:              cards,
		IncludePastReports: true,
		MaxContextChunks:   s.settings.RAG.MaxContextChunks,
		Today:              today,
	})
	if err != nil {
		logger.Warn("Chat context failed: %v", err)
		return ""
	}
	return text
}
