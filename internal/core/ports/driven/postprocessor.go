package driven

import (
	"context"

	"github.com/custodia-labs/rankpulse/internal/core/domain"
)

// PostProcessor processes document bodies to produce chunks.
type PostProcessor interface {
	// Name returns the processor name for logging and configuration.
	Name() string

	// Process takes a document and returns chunks.
	// If the processor creates chunks (e.g., chunker), it receives nil and returns new chunks.
	Process(ctx context.Context, doc *domain.Document, chunks []domain.ReportChunk) ([]domain.ReportChunk, error)
}

// PostProcessorPipeline chains multiple PostProcessors.
type PostProcessorPipeline interface {
	// Process runs the document through all processors in order.
	// Returns contiguously indexed chunks.
	Process(ctx context.Context, doc *domain.Document) ([]domain.ReportChunk, error)
}

// PipelineFactory builds a pipeline whose chunker uses the given bounds.
type PipelineFactory interface {
	Build(maxChars, overlap int) (PostProcessorPipeline, error)
}
