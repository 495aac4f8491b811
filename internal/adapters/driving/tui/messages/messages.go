// Package messages defines Bubbletea message types for the TUI.
// Messages represent events and commands that flow through the Elm architecture.
package messages

import (
	"github.com/custodia-labs/rankpulse/internal/core/domain"
)

// SearchCompleted carries retrieval hits back to the model.
type SearchCompleted struct {
	Query   string
	Results []domain.RetrievedChunk
	Err     error
}

// ViewChanged is sent when navigating between views.
type ViewChanged struct {
	View ViewType
}

// ViewType identifies which view is currently active.
type ViewType int

const (
	// ViewMenu is the main navigation menu.
	ViewMenu ViewType = iota
	// ViewSearch is the report search input and results view.
	ViewSearch
	// ViewReports lists stored reports.
	ViewReports
	// ViewDocContent shows a report body or today's evidence.
	ViewDocContent
	// ViewHelp is the help/keybindings view.
	ViewHelp
)

// String returns the string representation of the view type.
func (v ViewType) String() string {
	switch v {
	case ViewMenu:
		return "menu"
	case ViewSearch:
		return "search"
	case ViewReports:
		return "reports"
	case ViewDocContent:
		return "doc_content"
	case ViewHelp:
		return "help"
	default:
		return "unknown"
	}
}

// ErrorOccurred signals that an error happened.
type ErrorOccurred struct {
	Err error
}

// Quit signals the application should exit.
type Quit struct{}

// DocumentsLoaded carries the stored report list.
type DocumentsLoaded struct {
	Documents []domain.Document
	Err       error
}

// DocumentSelected asks to open a stored report.
// Back is the view to return to on esc.
type DocumentSelected struct {
	DocID string
	Back  ViewType
}

// DocumentLoaded carries a fetched report.
type DocumentLoaded struct {
	Document *domain.Document
	Err      error
}

// EvidenceRequested asks for today's evidence bundle.
type EvidenceRequested struct{}

// EvidenceLoaded carries a rendered evidence bundle.
type EvidenceLoaded struct {
	Evidence *domain.Evidence
	Err      error
}

// Copied reports the outcome of a clipboard copy.
type Copied struct {
	Err error
}
