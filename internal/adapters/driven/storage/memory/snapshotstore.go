package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/custodia-labs/rankpulse/internal/core/domain"
	"github.com/custodia-labs/rankpulse/internal/core/ports/driven"
)

var (
	_ driven.SnapshotStore  = (*SnapshotStore)(nil)
	_ driven.SnapshotWriter = (*SnapshotStore)(nil)
)

// SnapshotStore is an in-memory implementation of driven.SnapshotStore
// and driven.SnapshotWriter.
type SnapshotStore struct {
	mu         sync.RWMutex
	categories []domain.Category
	snapshots  []domain.CategorySnapshot
	products   []domain.BrandProductSnapshot
	aspects    map[int64][]domain.AspectDetail
	nextID     int64
}

// NewSnapshotStore creates a new in-memory snapshot store.
func NewSnapshotStore() *SnapshotStore {
	return &SnapshotStore{aspects: make(map[int64][]domain.AspectDetail)}
}

// ListCategories returns categories ordered by sort order.
func (s *SnapshotStore) ListCategories(_ context.Context) ([]domain.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := append([]domain.Category(nil), s.categories...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].SortOrder < out[j].SortOrder })
	return out, nil
}

// LatestCategorySnapshot returns the newest snapshot at or before t.
func (s *SnapshotStore) LatestCategorySnapshot(
	_ context.Context, categoryID int64, t time.Time,
) (*domain.CategorySnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var best *domain.CategorySnapshot
	for i := range s.snapshots {
		snap := &s.snapshots[i]
		if snap.CategoryID != categoryID || snap.SnapshotTime.After(t) {
			continue
		}
		if best == nil || !snap.SnapshotTime.Before(best.SnapshotTime) {
			best = snap
		}
	}
	if best == nil {
		return nil, domain.ErrNotFound
	}
	out := *best
	out.Items = append([]domain.RankingItem(nil), best.Items...)
	sort.Slice(out.Items, func(i, j int) bool { return out.Items[i].Rank < out.Items[j].Rank })
	return &out, nil
}

// LatestRunTime returns the newest run time strictly before the bound.
func (s *SnapshotStore) LatestRunTime(_ context.Context, before *time.Time) (time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var latest time.Time
	for _, p := range s.products {
		if before != nil && !p.SnapshotTime.Before(*before) {
			continue
		}
		if p.SnapshotTime.After(latest) {
			latest = p.SnapshotTime
		}
	}
	if latest.IsZero() {
		return time.Time{}, domain.ErrNotFound
	}
	return latest, nil
}

// RunProducts returns the product snapshots of one run.
func (s *SnapshotStore) RunProducts(_ context.Context, runTime time.Time) ([]domain.BrandProductSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.BrandProductSnapshot
	for _, p := range s.products {
		if p.SnapshotTime.Equal(runTime) {
			out = append(out, p)
		}
	}
	return out, nil
}

// AspectDetails returns the aspects of a product snapshot.
func (s *SnapshotStore) AspectDetails(_ context.Context, productSnapshotID int64) ([]domain.AspectDetail, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.AspectDetail(nil), s.aspects[productSnapshotID]...), nil
}

// SaveCategory creates or updates a category keyed by code.
func (s *SnapshotStore) SaveCategory(_ context.Context, c *domain.Category) (int64, error) {
	if c == nil || c.Code == "" {
		return 0, domain.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.categories {
		if s.categories[i].Code == c.Code {
			c.ID = s.categories[i].ID
			s.categories[i] = *c
			return c.ID, nil
		}
	}
	s.nextID++
	c.ID = s.nextID
	s.categories = append(s.categories, *c)
	return c.ID, nil
}

// SaveCategorySnapshot stores a category snapshot.
func (s *SnapshotStore) SaveCategorySnapshot(_ context.Context, snap *domain.CategorySnapshot) (int64, error) {
	if snap == nil {
		return 0, domain.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	snap.ID = s.nextID
	stored := *snap
	stored.Items = append([]domain.RankingItem(nil), snap.Items...)
	s.snapshots = append(s.snapshots, stored)
	return snap.ID, nil
}

// SaveBrandProductSnapshot stores a product snapshot.
func (s *SnapshotStore) SaveBrandProductSnapshot(_ context.Context, p *domain.BrandProductSnapshot) (int64, error) {
	if p == nil || p.ProductID == "" {
		return 0, domain.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	p.ID = s.nextID
	s.products = append(s.products, *p)
	return p.ID, nil
}

// SaveAspectDetails replaces the aspects of a product snapshot.
func (s *SnapshotStore) SaveAspectDetails(_ context.Context, productSnapshotID int64, aspects []domain.AspectDetail) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.aspects[productSnapshotID] = append([]domain.AspectDetail(nil), aspects...)
	return nil
}
