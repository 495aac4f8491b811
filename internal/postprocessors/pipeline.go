// Package postprocessors turns stored documents into indexable chunks.
package postprocessors

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/rankpulse/internal/core/domain"
	"github.com/custodia-labs/rankpulse/internal/core/ports/driven"
	"github.com/custodia-labs/rankpulse/internal/logger"
)

var _ driven.PostProcessorPipeline = (*Pipeline)(nil)

// Pipeline runs processors in order; the first one receives no chunks and
// produces them. Blank chunks are dropped at the end and the survivors are
// numbered from 0 and bound to the document.
type Pipeline struct {
	stages []driven.PostProcessor
}

func NewPipeline(stages ...driven.PostProcessor) *Pipeline {
	return &Pipeline{stages: stages}
}

func (p *Pipeline) Process(ctx context.Context, doc *domain.Document) ([]domain.ReportChunk, error) {
	if doc == nil {
		return nil, fmt.Errorf("pipeline: %w: nil document", domain.ErrInvalidInput)
	}

	var chunks []domain.ReportChunk
	for _, stage := range p.stages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		in := len(chunks)
		out, err := stage.Process(ctx, doc, chunks)
		if err != nil {
			return nil, fmt.Errorf("%s on %s: %w", stage.Name(), doc.ID, err)
		}
		logger.Debug("%s: %s %d -> %d chunks", doc.ID, stage.Name(), in, len(out))
		chunks = out
	}

	kept := chunks[:0]
	for _, c := range chunks {
		if strings.TrimSpace(c.Content) == "" {
			continue
		}
		c.Index = len(kept)
		c.DocID = doc.ID
		kept = append(kept, c)
	}
	if len(kept) == 0 {
		return nil, nil
	}
	return kept, nil
}

// Add appends a stage.
func (p *Pipeline) Add(stage driven.PostProcessor) {
	p.stages = append(p.stages, stage)
}

func (p *Pipeline) Len() int { return len(p.stages) }

// Names lists the stages in run order.
func (p *Pipeline) Names() []string {
	names := make([]string, len(p.stages))
	for i, s := range p.stages {
		names[i] = s.Name()
	}
	return names
}
