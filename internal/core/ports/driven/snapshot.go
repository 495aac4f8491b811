package driven

import (
	"context"
	"time"

	"github.com/custodia-labs/rankpulse/internal/core/domain"
)

// SnapshotStore reads raw ranking and review snapshots.
// Snapshots are written by an external collector or by SnapshotWriter.
type SnapshotStore interface {
	// ListCategories returns tracked categories ordered by sort order.
	ListCategories(ctx context.Context) ([]domain.Category, error)

	// LatestCategorySnapshot returns the newest snapshot of a category
	// taken at or before t, items in rank order.
	// Returns domain.ErrNotFound if there is none.
	LatestCategorySnapshot(ctx context.Context, categoryID int64, t time.Time) (*domain.CategorySnapshot, error)

	// LatestRunTime returns the newest brand run time strictly before the
	// given bound, or the newest overall when before is nil.
	// Returns domain.ErrNotFound if there is none.
	LatestRunTime(ctx context.Context, before *time.Time) (time.Time, error)

	// RunProducts returns the brand product snapshots of a run.
	RunProducts(ctx context.Context, runTime time.Time) ([]domain.BrandProductSnapshot, error)

	// AspectDetails returns the review aspects of a product snapshot.
	AspectDetails(ctx context.Context, productSnapshotID int64) ([]domain.AspectDetail, error)
}

// SnapshotWriter stores raw snapshots. Used by the seed importer.
type SnapshotWriter interface {
	// SaveCategory creates or updates a category by code and returns its ID.
	SaveCategory(ctx context.Context, c *domain.Category) (int64, error)

	// SaveCategorySnapshot stores a snapshot and its items and returns its ID.
	SaveCategorySnapshot(ctx context.Context, s *domain.CategorySnapshot) (int64, error)

	// SaveBrandProductSnapshot stores a product snapshot and returns its ID.
	SaveBrandProductSnapshot(ctx context.Context, p *domain.BrandProductSnapshot) (int64, error)

	// SaveAspectDetails replaces the aspects of a product snapshot.
	SaveAspectDetails(ctx context.Context, productSnapshotID int64, aspects []domain.AspectDetail) error
}
