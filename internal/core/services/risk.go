package services

import (
	"context"
	"fmt"
	"sort"

	"github.com/custodia-labs/rankpulse/internal/core/domain"
	"github.com/custodia-labs/rankpulse/internal/core/ports/driven"
	"github.com/custodia-labs/rankpulse/internal/core/ports/driving"
	"github.com/custodia-labs/rankpulse/internal/logger"
)

// Ensure RiskSelectorService implements the interface.
var _ driving.RiskSelector = (*RiskSelectorService)(nil)

// RiskSelectorService picks the changed products worth a review-risk look.
type RiskSelectorService struct {
	snapshots driven.SnapshotStore
	cfg       domain.AnalyticsSettings
}

// NewRiskSelectorService creates a risk selector with the given thresholds.
func NewRiskSelectorService(snapshots driven.SnapshotStore, cfg domain.AnalyticsSettings) *RiskSelectorService {
	return &RiskSelectorService{snapshots: snapshots, cfg: cfg}
}

// Select takes the most significant changes and attaches their risky aspects.
// A product with no qualifying aspect is still returned.
func (s *RiskSelectorService) Select(ctx context.Context, changes []domain.ChangeRecord) ([]domain.ReviewProduct, error) {
	picked := append([]domain.ChangeRecord(nil), changes...)
	SortBySignificance(picked)
	if s.cfg.MaxReviewProducts >= 0 && len(picked) > s.cfg.MaxReviewProducts {
		picked = picked[:s.cfg.MaxReviewProducts]
	}

	out := make([]domain.ReviewProduct, 0, len(picked))
	for _, ch := range picked {
		details, err := s.snapshots.AspectDetails(ctx, ch.Today.ID)
		if err != nil {
			return nil, fmt.Errorf("load aspects for %s: %w", ch.Today.ProductID, err)
		}
		out = append(out, domain.ReviewProduct{
			Change:  ch,
			Aspects: ScoreAspects(details, s.cfg),
		})
	}
	return out, nil
}

// ScoreAspects keeps aspects with enough mentions and a high negative share,
// ordered by risk score (negative ratio times mention volume).
func ScoreAspects(details []domain.AspectDetail, cfg domain.AnalyticsSettings) []domain.RiskAspect {
	var risky []domain.RiskAspect
	for _, a := range details {
		if !a.Consistent() {
			logger.Warn("Aspect %q mention counts do not add up: total=%d positive=%d negative=%d",
				a.Name, a.MentionTotal, a.MentionPositive, a.MentionNegative)
		}
		if a.MentionTotal <= 0 || a.MentionTotal < cfg.AspectMinMentions {
			continue
		}
		ratio := float64(a.MentionNegative) / float64(a.MentionTotal)
		if ratio < cfg.AspectNegRatio {
			continue
		}
		risky = append(risky, domain.RiskAspect{
			AspectDetail: a,
			NegRatio:     ratio,
			RiskScore:    ratio * float64(a.MentionTotal),
		})
	}

	sort.SliceStable(risky, func(i, j int) bool { return risky[i].RiskScore > risky[j].RiskScore })
	if cfg.MaxAspectsPerProduct >= 0 && len(risky) > cfg.MaxAspectsPerProduct {
		risky = risky[:cfg.MaxAspectsPerProduct]
	}
	return risky
}
