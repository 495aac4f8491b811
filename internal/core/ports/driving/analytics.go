package driving

import (
	"context"
	"time"

	"github.com/custodia-labs/rankpulse/internal/core/domain"
)

// AnalyticsService derives day-over-day signals from stored snapshots.
type AnalyticsService interface {
	// CategorySections compares each category's latest snapshot at or before
	// target with the one at or before target minus 24h. Categories missing
	// either side are skipped.
	CategorySections(ctx context.Context, target time.Time) ([]domain.CategorySection, error)

	// BrandChanges diffs the latest brand run with the preceding one.
	// Missing runs yield OK false with a reason, not an error.
	BrandChanges(ctx context.Context) (domain.BrandChanges, error)

	// ReviewTriggers decides whether the review-risk block is warranted.
	ReviewTriggers(sections []domain.CategorySection, changes domain.BrandChanges) (bool, []string)
}

// RiskSelector scores review aspects of the most significant changes.
type RiskSelector interface {
	// Select returns one entry per considered product, including products
	// with no qualifying aspect.
	Select(ctx context.Context, changes []domain.ChangeRecord) ([]domain.ReviewProduct, error)
}
