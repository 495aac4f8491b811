// Package chunker provides a paragraph-aware Markdown chunking processor.
package chunker

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/rankpulse/internal/core/domain"
)

// DefaultChunkSize is the default maximum number of characters per chunk.
const DefaultChunkSize = 1200

// DefaultChunkOverlap is the default overlap between hard-split slices.
const DefaultChunkOverlap = 120

var paragraphBreak = regexp.MustCompile(`\n{2,}`)

// Processor splits document bodies into bounded, overlapping chunks.
// It implements the PostProcessor interface.
type Processor struct {
	chunkSize int
	overlap   int
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithChunkSize sets the maximum chunk size in characters.
func WithChunkSize(size int) Option {
	return func(p *Processor) {
		if size > 0 {
			p.chunkSize = size
		}
	}
}

// WithOverlap sets the overlap between hard-split slices in characters.
func WithOverlap(overlap int) Option {
	return func(p *Processor) {
		if overlap >= 0 {
			p.overlap = overlap
		}
	}
}

// New creates a new chunker processor with the given options.
func New(opts ...Option) *Processor {
	p := &Processor{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultChunkOverlap,
	}

	for _, opt := range opts {
		opt(p)
	}

	p.overlap = clampOverlap(p.chunkSize, p.overlap)

	return p
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "chunker"
}

// Process splits the document body into chunks.
// Input chunks are ignored; this processor creates new chunks from the body.
func (p *Processor) Process(_ context.Context, doc *domain.Document, _ []domain.ReportChunk) ([]domain.ReportChunk, error) {
	parts := Split(doc.Body, p.chunkSize, p.overlap)
	if len(parts) == 0 {
		return nil, nil
	}

	now := time.Now()
	chunks := make([]domain.ReportChunk, 0, len(parts))
	for i, content := range parts {
		chunks = append(chunks, domain.ReportChunk{
			ID:        uuid.New().String(),
			DocID:     doc.ID,
			Index:     i,
			Content:   content,
			CreatedAt: now,
		})
	}

	return chunks, nil
}

// Split chunks Markdown text on blank-line paragraph boundaries.
//
// Paragraphs are packed into chunks of at most maxChars characters, joined
// by a blank line. A paragraph longer than maxChars is hard-split into
// maxChars slices advancing by maxChars-overlap, and its remainder starts
// the next buffer. Lengths count runes, not bytes.
func Split(text string, maxChars, overlap int) []string {
	if maxChars <= 0 {
		maxChars = DefaultChunkSize
	}
	overlap = clampOverlap(maxChars, overlap)

	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	var chunks []string
	var buf []rune

	flush := func() {
		if s := strings.TrimSpace(string(buf)); s != "" {
			chunks = append(chunks, s)
		}
		buf = nil
	}

	for _, para := range paragraphBreak.Split(text, -1) {
		p := []rune(strings.TrimSpace(para))
		if len(p) == 0 {
			continue
		}

		if len(buf)+len(p)+2 > maxChars {
			flush()
			for len(p) > maxChars {
				chunks = append(chunks, strings.TrimSpace(string(p[:maxChars])))
				p = p[maxChars-overlap:]
			}
			buf = p
			continue
		}

		if len(buf) == 0 {
			buf = p
		} else {
			buf = append(append(buf, '\n', '\n'), p...)
		}
	}
	flush()

	return chunks
}

// clampOverlap keeps the hard-split step positive.
func clampOverlap(maxChars, overlap int) int {
	if overlap < 0 {
		return 0
	}
	if overlap >= maxChars {
		return maxChars / 10
	}
	return overlap
}
