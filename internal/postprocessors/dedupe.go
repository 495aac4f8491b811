package postprocessors

import (
	"context"
	"strings"

	"github.com/custodia-labs/rankpulse/internal/core/domain"
	"github.com/custodia-labs/rankpulse/internal/core/ports/driven"
)

var _ driven.PostProcessor = Dedupe{}

// Dedupe drops chunks whose text repeats an earlier chunk of the same
// document, ignoring case and whitespace runs. Daily reports restate the
// same headline block in several sections and the copies only crowd out
// other hits at retrieval time.
type Dedupe struct{}

func (Dedupe) Name() string { return "dedupe" }

func (Dedupe) Process(_ context.Context, _ *domain.Document, chunks []domain.ReportChunk) ([]domain.ReportChunk, error) {
	seen := make(map[string]struct{}, len(chunks))
	out := chunks[:0:0]
	for _, c := range chunks {
		key := strings.ToLower(strings.Join(strings.Fields(c.Content), " "))
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, c)
	}
	return out, nil
}
