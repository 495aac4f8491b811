// Package tui provides an interactive terminal user interface for rankpulse.
// It implements a driving adapter following hexagonal architecture principles.
package tui

import (
	"github.com/custodia-labs/rankpulse/internal/core/ports/driving"
)

// Ports aggregates the driving ports used by the TUI.
type Ports struct {
	// Retrieval provides similarity search over stored reports.
	Retrieval driving.RetrievalService

	// Documents lists and loads stored reports.
	Documents driving.DocumentService

	// Reports builds today's evidence. Optional.
	Reports driving.ReportService

	// Clipboard copies the open report. Optional.
	Clipboard driving.ClipboardService

	// MinSimilarity dims search scores that would not reach report context.
	// Zero keeps the default.
	MinSimilarity float64
}

// NewPorts creates a new Ports aggregate with the given services.
func NewPorts(
	retrieval driving.RetrievalService,
	documents driving.DocumentService,
	reports driving.ReportService,
) *Ports {
	return &Ports{
		Retrieval: retrieval,
		Documents: documents,
		Reports:   reports,
	}
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Retrieval == nil {
		return ErrMissingRetrievalService
	}
	if p.Documents == nil {
		return ErrMissingDocumentService
	}
	return nil
}
