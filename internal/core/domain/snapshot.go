package domain

import "time"

// Category is a ranked listing tracked over time.
type Category struct {
	ID        int64
	Code      string
	Name      string
	SortOrder int
}

// RankingItem is one ranked entry in a category snapshot.
type RankingItem struct {
	// Rank is 1-based and unique within a snapshot.
	Rank int

	ProductName string
	Price       float64

	// IsTargetBrand marks items belonging to the tracked brand.
	IsTargetBrand bool
}

// CategorySnapshot is an immutable capture of a category's top-N.
type CategorySnapshot struct {
	ID           int64
	CategoryID   int64
	SnapshotTime time.Time
	Items        []RankingItem
}

// TargetItems returns the target-brand items in rank order.
func (s *CategorySnapshot) TargetItems() []RankingItem {
	var out []RankingItem
	for _, it := range s.Items {
		if it.IsTargetBrand {
			out = append(out, it)
		}
	}
	return out
}

// BrandProductSnapshot captures one brand product's metrics at a run time.
type BrandProductSnapshot struct {
	ID             int64
	ProductID      string
	Name           string
	Price          *float64
	ReviewCount    *int
	Rating         *float64
	LastMonthSales string

	// Rank1 and Rank2 are ranks in two secondary listings.
	Rank1         *int
	Rank1Category string
	Rank2         *int
	Rank2Category string

	// CustomersSay is the review summary captured with the run.
	// CustomersSayCurrent is the live summary at capture time.
	CustomersSay        string
	CustomersSayCurrent string

	SnapshotTime time.Time
}

// ReviewSummary prefers the run summary over the live one.
func (p *BrandProductSnapshot) ReviewSummary() string {
	if p.CustomersSay != "" {
		return p.CustomersSay
	}
	return p.CustomersSayCurrent
}

// Run groups brand product snapshots sharing a timestamp.
type Run struct {
	SnapshotTime time.Time
	Products     []BrandProductSnapshot
}

// AspectDetail is a per-snapshot sentiment aggregate for one review aspect.
// MentionTotal is expected to equal positive plus negative but is not enforced.
type AspectDetail struct {
	Name            string
	MentionTotal    int
	MentionPositive int
	MentionNegative int
	Summary         string
}

// Consistent reports whether the mention counts add up.
func (a AspectDetail) Consistent() bool {
	return a.MentionTotal == a.MentionPositive+a.MentionNegative
}
