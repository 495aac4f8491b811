package mcp

import (
	"github.com/custodia-labs/rankpulse/internal/core/ports/driving"
)

// Ports aggregates the driving ports exposed over MCP.
type Ports struct {
	// Retrieval provides similarity search and context building.
	Retrieval driving.RetrievalService

	// Reports generates daily reports.
	Reports driving.ReportService

	// Documents reads stored reports.
	Documents driving.DocumentService
}

// Validate ensures all required ports are set.
// Reports and Documents are optional; their tools answer with a tool error when absent.
func (p *Ports) Validate() error {
	if p.Retrieval == nil {
		return ErrMissingRetrievalService
	}
	return nil
}
