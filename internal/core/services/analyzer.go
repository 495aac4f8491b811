package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/custodia-labs/rankpulse/internal/core/domain"
	"github.com/custodia-labs/rankpulse/internal/core/ports/driven"
	"github.com/custodia-labs/rankpulse/internal/core/ports/driving"
	"github.com/custodia-labs/rankpulse/internal/logger"
)

// Ensure AnalyzerService implements the interface.
var _ driving.AnalyticsService = (*AnalyzerService)(nil)

// ReasonTopEntryExit is the review trigger reason for category entry or exit.
const ReasonTopEntryExit = "TOP30 entry/exit"

// AnalyzerService derives day-over-day ranking signals from snapshots.
type AnalyzerService struct {
	snapshots driven.SnapshotStore
	cfg       domain.AnalyticsSettings
}

// NewAnalyzerService creates an analyzer with the given thresholds.
func NewAnalyzerService(snapshots driven.SnapshotStore, cfg domain.AnalyticsSettings) *AnalyzerService {
	return &AnalyzerService{snapshots: snapshots, cfg: cfg}
}

// CategorySections compares every category at target against the same
// clock time on the previous calendar day.
func (s *AnalyzerService) CategorySections(ctx context.Context, target time.Time) ([]domain.CategorySection, error) {
	cats, err := s.snapshots.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}

	yesterday := target.AddDate(0, 0, -1)
	sections := make([]domain.CategorySection, 0, len(cats))
	for _, c := range cats {
		today, err := s.snapshotAtOrBefore(ctx, c, target)
		if err != nil {
			return nil, err
		}
		prev, err := s.snapshotAtOrBefore(ctx, c, yesterday)
		if err != nil {
			return nil, err
		}
		if today == nil || prev == nil {
			logger.Debug("Skipping category %s: missing snapshot (today=%t, yesterday=%t)",
				c.Code, today != nil, prev != nil)
			continue
		}
		sections = append(sections, CompareCategory(c, today, prev, s.cfg.MaxMovers))
	}
	return sections, nil
}

// snapshotAtOrBefore returns nil, nil when no snapshot exists.
func (s *AnalyzerService) snapshotAtOrBefore(
	ctx context.Context, c domain.Category, t time.Time,
) (*domain.CategorySnapshot, error) {
	snap, err := s.snapshots.LatestCategorySnapshot(ctx, c.ID, t)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load snapshot for %s: %w", c.Code, err)
	}
	return snap, nil
}

// CompareCategory computes entry, exit and movers between two snapshots.
// Movers are matched by NormalizeProductName and capped at maxMovers.
func CompareCategory(
	c domain.Category, today, yesterday *domain.CategorySnapshot, maxMovers int,
) domain.CategorySection {
	sec := domain.CategorySection{
		Category:        c,
		Today:           *today,
		Yesterday:       *yesterday,
		TodayTarget:     today.TargetItems(),
		YesterdayTarget: yesterday.TargetItems(),
	}
	sec.Entered = len(sec.YesterdayTarget) == 0 && len(sec.TodayTarget) > 0
	sec.Exited = len(sec.YesterdayTarget) > 0 && len(sec.TodayTarget) == 0

	prevByName := make(map[string]domain.RankingItem, len(sec.YesterdayTarget))
	for _, it := range sec.YesterdayTarget {
		key := NormalizeProductName(it.ProductName)
		if _, dup := prevByName[key]; !dup {
			prevByName[key] = it
		}
	}

	for _, it := range sec.TodayTarget {
		prev, ok := prevByName[NormalizeProductName(it.ProductName)]
		if !ok {
			sec.Unmatched++
			continue
		}
		sec.Movers = append(sec.Movers, domain.Mover{
			Name:          it.ProductName,
			TodayRank:     it.Rank,
			YesterdayRank: prev.Rank,
			DeltaRank:     prev.Rank - it.Rank,
		})
	}

	sort.SliceStable(sec.Movers, func(i, j int) bool {
		return absInt(sec.Movers[i].DeltaRank) > absInt(sec.Movers[j].DeltaRank)
	})
	if maxMovers > 0 && len(sec.Movers) > maxMovers {
		sec.Movers = sec.Movers[:maxMovers]
	}
	return sec
}

// BrandChanges diffs the latest brand run against the run before it.
func (s *AnalyzerService) BrandChanges(ctx context.Context) (domain.BrandChanges, error) {
	latest, err := s.snapshots.LatestRunTime(ctx, nil)
	if errors.Is(err, domain.ErrNotFound) {
		logger.Debug("No brand run found")
		return domain.BrandChanges{NoDataReason: domain.ReasonNoBrandRun}, nil
	}
	if err != nil {
		return domain.BrandChanges{}, fmt.Errorf("latest run: %w", err)
	}

	prev, err := s.snapshots.LatestRunTime(ctx, &latest)
	if errors.Is(err, domain.ErrNotFound) {
		logger.Debug("No brand run before %s", latest.Format(time.RFC3339))
		return domain.BrandChanges{NoDataReason: domain.ReasonNoPrevBrandRun, LatestTime: &latest}, nil
	}
	if err != nil {
		return domain.BrandChanges{}, fmt.Errorf("previous run: %w", err)
	}

	todayRows, err := s.snapshots.RunProducts(ctx, latest)
	if err != nil {
		return domain.BrandChanges{}, fmt.Errorf("load run %s: %w", latest.Format(time.RFC3339), err)
	}
	prevRows, err := s.snapshots.RunProducts(ctx, prev)
	if err != nil {
		return domain.BrandChanges{}, fmt.Errorf("load run %s: %w", prev.Format(time.RFC3339), err)
	}

	return domain.BrandChanges{
		OK:         true,
		LatestTime: &latest,
		PrevTime:   &prev,
		Changes:    DiffRuns(todayRows, prevRows),
	}, nil
}

// DiffRuns pairs today's products with the previous run by product ID.
// Products whose two secondary ranks are unchanged are skipped; products
// absent from the previous run are tagged NoteNewProductInRun. The result
// is sorted by significance, largest first.
func DiffRuns(today, prev []domain.BrandProductSnapshot) []domain.ChangeRecord {
	prevByID := make(map[string]*domain.BrandProductSnapshot, len(prev))
	for i := range prev {
		prevByID[prev[i].ProductID] = &prev[i]
	}

	var changes []domain.ChangeRecord
	for _, t := range today {
		p, ok := prevByID[t.ProductID]
		if !ok {
			changes = append(changes, domain.ChangeRecord{Today: t, Note: domain.NoteNewProductInRun})
			continue
		}
		if intPtrEqual(t.Rank1, p.Rank1) && intPtrEqual(t.Rank2, p.Rank2) {
			continue
		}
		yesterday := *p
		changes = append(changes, domain.ChangeRecord{
			Today:     t,
			Yesterday: &yesterday,
			Delta: &domain.ChangeDelta{
				Rank1:       SafeDeltaRank(p.Rank1, t.Rank1),
				Rank2:       SafeDeltaRank(p.Rank2, t.Rank2),
				ReviewCount: derefInt(t.ReviewCount) - derefInt(p.ReviewCount),
			},
		})
	}

	SortBySignificance(changes)
	return changes
}

// SortBySignificance orders change records largest significance first,
// keeping input order among ties.
func SortBySignificance(changes []domain.ChangeRecord) {
	sort.SliceStable(changes, func(i, j int) bool {
		return changes[i].Significance() > changes[j].Significance()
	})
}

// SafeDeltaRank returns yesterday minus today, or nil if either is unknown.
// A positive delta means the rank improved.
func SafeDeltaRank(yesterday, today *int) *int {
	if yesterday == nil || today == nil {
		return nil
	}
	d := *yesterday - *today
	return &d
}

// ReviewTriggers reports whether the review-risk block is warranted and why.
// Each reason appears at most once.
func (s *AnalyzerService) ReviewTriggers(
	sections []domain.CategorySection, changes domain.BrandChanges,
) (bool, []string) {
	return ReviewTriggers(sections, changes, s.cfg)
}

// ReviewTriggers evaluates entry/exit, big rank moves and review spikes.
func ReviewTriggers(
	sections []domain.CategorySection, changes domain.BrandChanges, cfg domain.AnalyticsSettings,
) (bool, []string) {
	reasons := []string{}

	for _, sec := range sections {
		if sec.Entered || sec.Exited {
			reasons = append(reasons, ReasonTopEntryExit)
			break
		}
	}

	for _, ch := range changes.Changes {
		if ch.Delta == nil {
			continue
		}
		if atLeast(ch.Delta.Rank1, cfg.BigRankMove) || atLeast(ch.Delta.Rank2, cfg.BigRankMove) {
			reasons = append(reasons, BigRankMoveReason(cfg.BigRankMove))
			break
		}
	}

	for _, ch := range changes.Changes {
		if ch.Delta != nil && ch.Delta.ReviewCount >= cfg.ReviewCountSpike {
			reasons = append(reasons, ReviewSpikeReason(cfg.ReviewCountSpike))
			break
		}
	}

	return len(reasons) > 0, reasons
}

// BigRankMoveReason formats the big-move trigger reason.
func BigRankMoveReason(threshold int) string {
	return fmt.Sprintf("big rank move (|Δrank|≥%d)", threshold)
}

// ReviewSpikeReason formats the review spike trigger reason.
func ReviewSpikeReason(threshold int) string {
	return fmt.Sprintf("review count spike (Δreviews≥%d)", threshold)
}

var (
	whitespaceRun = regexp.MustCompile(`\s+`)

	// Letters, digits, underscore, whitespace and a few separators survive.
	disallowedNameChars = regexp.MustCompile(`[^\p{L}\p{N}_\s\-()\[\].,&/+:]`)
)

// NormalizeProductName folds case, collapses whitespace and strips
// punctuation outside a small allow-list. It is the only place product
// names are matched across snapshots; replace it with an ID join once
// listings carry stable product keys.
func NormalizeProductName(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = whitespaceRun.ReplaceAllString(s, " ")
	return disallowedNameChars.ReplaceAllString(s, "")
}

func atLeast(d *int, threshold int) bool {
	return d != nil && absInt(*d) >= threshold
}

func intPtrEqual(a, b *int) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func derefInt(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}

func absInt(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
