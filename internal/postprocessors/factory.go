package postprocessors

import (
	"fmt"

	"github.com/custodia-labs/rankpulse/internal/core/domain"
	"github.com/custodia-labs/rankpulse/internal/core/ports/driven"
	"github.com/custodia-labs/rankpulse/internal/postprocessors/chunker"
)

// BuilderFunc creates a PostProcessor for the given chunk bounds.
type BuilderFunc func(maxChars, overlap int) driven.PostProcessor

// Factory builds pipelines from the configured processor names.
// It implements the PipelineFactory interface.
type Factory struct {
	builders   map[string]BuilderFunc
	processors []string
}

// NewFactory creates a factory with the built-in processors registered.
func NewFactory(cfg domain.PipelineConfig) *Factory {
	f := &Factory{
		builders:   make(map[string]BuilderFunc),
		processors: cfg.Processors,
	}
	if len(f.processors) == 0 {
		f.processors = domain.DefaultPipelineConfig().Processors
	}
	f.Register("chunker", buildChunker)
	f.Register("dedupe", func(_, _ int) driven.PostProcessor { return Dedupe{} })
	return f
}

// Register adds a processor builder under a name.
func (f *Factory) Register(name string, builder BuilderFunc) {
	f.builders[name] = builder
}

// Build assembles the configured processors into a pipeline.
// Returns an error if a configured processor is not registered.
func (f *Factory) Build(maxChars, overlap int) (driven.PostProcessorPipeline, error) {
	p := NewPipeline()
	for _, name := range f.processors {
		builder, ok := f.builders[name]
		if !ok {
			return nil, fmt.Errorf("%w: processor %s", domain.ErrUnsupportedType, name)
		}
		p.Add(builder(maxChars, overlap))
	}
	return p, nil
}

func buildChunker(maxChars, overlap int) driven.PostProcessor {
	return chunker.New(chunker.WithChunkSize(maxChars), chunker.WithOverlap(overlap))
}
