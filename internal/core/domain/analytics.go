package domain

import "time"

// NoteNewProductInRun tags a product with no counterpart in the previous run.
const NoteNewProductInRun = "NEW_PRODUCT_IN_RUN"

// No-data reasons for brand run diffing.
const (
	ReasonNoBrandRun     = "NO_BRAND_RUN"
	ReasonNoPrevBrandRun = "NO_PREV_BRAND_RUN"
)

// Mover is a target-brand item matched across two snapshots.
type Mover struct {
	Name          string
	TodayRank     int
	YesterdayRank int

	// DeltaRank is yesterday minus today; positive means the rank improved.
	DeltaRank int
}

// CategorySection is the day-over-day comparison of one category.
type CategorySection struct {
	Category Category

	Today     CategorySnapshot
	Yesterday CategorySnapshot

	TodayTarget     []RankingItem
	YesterdayTarget []RankingItem

	Entered bool
	Exited  bool

	// Movers holds matched items, largest |DeltaRank| first.
	Movers []Mover

	// Unmatched counts today's target items with no match yesterday.
	Unmatched int
}

// CountChange is the absolute change in target-brand item count.
func (s *CategorySection) CountChange() int {
	return abs(len(s.TodayTarget) - len(s.YesterdayTarget))
}

// ChangeDelta holds the signed differences between two runs.
// Rank deltas are previous minus today and nil unless both sides are known.
type ChangeDelta struct {
	Rank1       *int
	Rank2       *int
	ReviewCount int
}

// ChangeRecord pairs a product from the latest run with its previous state.
type ChangeRecord struct {
	Today     BrandProductSnapshot
	Yesterday *BrandProductSnapshot

	// Delta is nil when the product is new in the run.
	Delta *ChangeDelta

	// Note carries NoteNewProductInRun for new products.
	Note string
}

// Significance is max(|Δrank_1|, |Δrank_2|, |Δreview_count|), absent deltas as 0.
func (c *ChangeRecord) Significance() int {
	if c.Delta == nil {
		return 0
	}
	m := abs(c.Delta.ReviewCount)
	if c.Delta.Rank1 != nil && abs(*c.Delta.Rank1) > m {
		m = abs(*c.Delta.Rank1)
	}
	if c.Delta.Rank2 != nil && abs(*c.Delta.Rank2) > m {
		m = abs(*c.Delta.Rank2)
	}
	return m
}

// MaxRankMove is max(|Δrank_1|, |Δrank_2|), absent deltas as 0.
func (c *ChangeRecord) MaxRankMove() int {
	if c.Delta == nil {
		return 0
	}
	m := 0
	if c.Delta.Rank1 != nil {
		m = abs(*c.Delta.Rank1)
	}
	if c.Delta.Rank2 != nil && abs(*c.Delta.Rank2) > m {
		m = abs(*c.Delta.Rank2)
	}
	return m
}

// BrandChanges is the result of diffing the two latest brand runs.
type BrandChanges struct {
	// OK is false when a run is missing; NoDataReason says which.
	OK           bool
	NoDataReason string

	LatestTime *time.Time
	PrevTime   *time.Time

	// Changes are sorted by Significance, largest first.
	Changes []ChangeRecord
}

// RiskAspect is an aspect that passed the negative-ratio and volume floors.
type RiskAspect struct {
	AspectDetail
	NegRatio  float64
	RiskScore float64
}

// ReviewProduct is a changed product considered for the review-risk block.
// Aspects may be empty; the product is still reported.
type ReviewProduct struct {
	Change  ChangeRecord
	Aspects []RiskAspect
}

// AnalyticsSettings holds the change-detection thresholds.
type AnalyticsSettings struct {
	BigRankMove          int
	ReviewCountSpike     int
	AspectNegRatio       float64
	AspectMinMentions    int
	MaxAspectsPerProduct int
	MaxReviewProducts    int
	MaxMovers            int
	MaxChangeLines       int
}

// DefaultAnalyticsSettings returns the standard thresholds.
func DefaultAnalyticsSettings() AnalyticsSettings {
	return AnalyticsSettings{
		BigRankMove:          5,
		ReviewCountSpike:     50,
		AspectNegRatio:       0.35,
		AspectMinMentions:    30,
		MaxAspectsPerProduct: 3,
		MaxReviewProducts:    5,
		MaxMovers:            5,
		MaxChangeLines:       30,
	}
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
