package driven

// PromptStore provides access to LLM prompt templates.
// Implementations may load prompts from files or embed them in the binary.
type PromptStore interface {
	// Load returns the prompt template for the given name.
	Load(name string) (string, error)

	// Reload clears any cached prompts, forcing fresh loads on next access.
	Reload()
}

// Well-known prompt names used throughout the application.
const (
	// PromptDailyReportSystem is the system prompt for daily reports.
	// It expects a %s placeholder for the rule document.
	PromptDailyReportSystem = "daily_report_system"

	// PromptCustomReportSystem is the system prompt for custom reports.
	// It expects a %s placeholder for the rule document.
	PromptCustomReportSystem = "custom_report_system"

	// PromptChatSystem is the system prompt for chat turns.
	PromptChatSystem = "chat_system"
)
