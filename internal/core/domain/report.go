package domain

import "time"

// DailyReportInput configures a daily report run.
type DailyReportInput struct {
	// Date is the report date. Zero means today in the report time zone.
	Date time.Time

	// TargetHour is the snapshot hour to compare. Negative means the default.
	TargetHour int

	// Save persists and ingests the final report.
	Save bool
}

// DailyReportResult is the structured outcome of a daily report run.
// Failures are reported with OK false and Error set, never as a Go error.
type DailyReportResult struct {
	OK             bool     `json:"ok"`
	DocID          string   `json:"doc_id,omitempty"`
	ChunkCount     int      `json:"chunk_count,omitempty"`
	ReportDate     string   `json:"report_date"`
	TargetHour     int      `json:"target_hour"`
	RuleDocID      string   `json:"rule_doc_id,omitempty"`
	OneLineInsight string   `json:"one_line_insight,omitempty"`
	FinalText      string   `json:"final_text,omitempty"`
	ReviewIncluded bool     `json:"review_included"`
	ReviewReasons  []string `json:"review_reasons"`
	Error          string   `json:"error,omitempty"`
}

// Evidence is the rendered input bundle for a daily report.
type Evidence struct {
	ReportDate time.Time
	TargetTime time.Time

	Sections []CategorySection
	Brand    BrandChanges

	ReviewIncluded bool
	ReviewReasons  []string
	ReviewProducts []ReviewProduct

	// Rendered Markdown blocks.
	CategoryText string
	ChangeText   string
	ReviewText   string

	Headline string
}

// ConversationMessage is one turn of a user conversation.
// Cards are data blocks the user attached to this turn.
type ConversationMessage struct {
	Role    string     `json:"role"`
	Content string     `json:"content"`
	Cards   []DataCard `json:"cards,omitempty"`
}

// CustomReportInput requests an ad hoc report from a conversation.
// Only the last user message is used.
type CustomReportInput struct {
	Messages []ConversationMessage

	// Today is the report date. Zero means today in the report time zone.
	Today time.Time
}

// CustomReportResult is the outcome of a custom report run.
type CustomReportResult struct {
	DocID      string `json:"doc_id"`
	Title      string `json:"title"`
	Content    string `json:"content"`
	ChunkCount int    `json:"chunk_count"`
}

// ChatInput is a conversation awaiting the assistant's next turn.
type ChatInput struct {
	Messages []ConversationMessage

	// UseRetrieval appends attached data and past report context
	// to the last user message.
	UseRetrieval bool

	// Today anchors the recent-report window. Zero means now.
	Today time.Time
}
