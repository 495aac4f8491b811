package driving

import (
	"context"

	"github.com/custodia-labs/rankpulse/internal/core/domain"
)

// ReportService synthesises reports from evidence with the LLM.
type ReportService interface {
	// GenerateDaily builds the daily report. Failures are folded into the
	// result with OK false; it never returns a Go error.
	GenerateDaily(ctx context.Context, in domain.DailyReportInput) domain.DailyReportResult

	// BuildEvidence assembles the rendered evidence bundle without calling the LLM.
	BuildEvidence(ctx context.Context, in domain.DailyReportInput) (*domain.Evidence, error)

	// GenerateCustom writes, saves and ingests an ad hoc report.
	GenerateCustom(ctx context.Context, in domain.CustomReportInput) (*domain.CustomReportResult, error)
}

// ChatService answers conversational turns.
type ChatService interface {
	// Reply returns the assistant's next message.
	Reply(ctx context.Context, in domain.ChatInput) (string, error)
}
