package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/rankpulse/internal/core/domain"
	"github.com/custodia-labs/rankpulse/internal/core/ports/driven"
)

// snapshotStore implements driven.SnapshotStore and driven.SnapshotWriter.
type snapshotStore struct {
	store *Store
}

var (
	_ driven.SnapshotStore  = (*snapshotStore)(nil)
	_ driven.SnapshotWriter = (*snapshotStore)(nil)
)

// ListCategories returns categories ordered by sort order.
func (s *snapshotStore) ListCategories(ctx context.Context) ([]domain.Category, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, code, name, sort_order FROM categories ORDER BY sort_order, id
	`)
	if err != nil {
		return nil, fmt.Errorf("querying categories: %w", err)
	}
	defer rows.Close()

	var cats []domain.Category //nolint:prealloc // size unknown from query
	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(&c.ID, &c.Code, &c.Name, &c.SortOrder); err != nil {
			return nil, fmt.Errorf("scanning category: %w", err)
		}
		cats = append(cats, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating categories: %w", err)
	}
	return cats, nil
}

// LatestCategorySnapshot returns the newest snapshot at or before t.
func (s *snapshotStore) LatestCategorySnapshot(
	ctx context.Context, categoryID int64, t time.Time,
) (*domain.CategorySnapshot, error) {
	snap := domain.CategorySnapshot{CategoryID: categoryID}
	var taken string

	err := s.store.db.QueryRowContext(ctx, `
		SELECT id, snapshot_time FROM ranking_snapshots
		WHERE category_id = ? AND snapshot_time <= ?
		ORDER BY snapshot_time DESC, id DESC
		LIMIT 1
	`, categoryID, formatTime(t)).Scan(&snap.ID, &taken)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying category snapshot: %w", err)
	}
	if snap.SnapshotTime, err = parseTime(taken); err != nil {
		return nil, err
	}

	rows, err := s.store.db.QueryContext(ctx, `
		SELECT rank, product_name, price, is_target_brand
		FROM ranking_items WHERE snapshot_id = ?
		ORDER BY rank
	`, snap.ID)
	if err != nil {
		return nil, fmt.Errorf("querying ranking items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var it domain.RankingItem
		var target int
		if err := rows.Scan(&it.Rank, &it.ProductName, &it.Price, &target); err != nil {
			return nil, fmt.Errorf("scanning ranking item: %w", err)
		}
		it.IsTargetBrand = target == 1
		snap.Items = append(snap.Items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating ranking items: %w", err)
	}
	return &snap, nil
}

// LatestRunTime returns the newest run time strictly before the bound.
func (s *snapshotStore) LatestRunTime(ctx context.Context, before *time.Time) (time.Time, error) {
	var latest sql.NullString
	var err error
	if before == nil {
		err = s.store.db.QueryRowContext(ctx,
			"SELECT MAX(snapshot_time) FROM brand_product_snapshots").Scan(&latest)
	} else {
		err = s.store.db.QueryRowContext(ctx,
			"SELECT MAX(snapshot_time) FROM brand_product_snapshots WHERE snapshot_time < ?",
			formatTime(*before)).Scan(&latest)
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("querying run time: %w", err)
	}
	if !latest.Valid {
		return time.Time{}, domain.ErrNotFound
	}
	return parseTime(latest.String)
}

// RunProducts returns the product snapshots of one run.
func (s *snapshotStore) RunProducts(ctx context.Context, runTime time.Time) ([]domain.BrandProductSnapshot, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, product_id, name, price, review_count, rating, last_month_sales,
			rank_1, rank_1_category, rank_2, rank_2_category,
			customers_say, customers_say_current, snapshot_time
		FROM brand_product_snapshots
		WHERE snapshot_time = ?
		ORDER BY id
	`, formatTime(runTime))
	if err != nil {
		return nil, fmt.Errorf("querying run products: %w", err)
	}
	defer rows.Close()

	var products []domain.BrandProductSnapshot //nolint:prealloc // size unknown from query
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating run products: %w", err)
	}
	return products, nil
}

// AspectDetails returns the aspects of a product snapshot in insert order.
func (s *snapshotStore) AspectDetails(ctx context.Context, productSnapshotID int64) ([]domain.AspectDetail, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT aspect_name, mention_total, mention_positive, mention_negative, summary
		FROM aspect_details WHERE snapshot_id = ?
		ORDER BY rowid
	`, productSnapshotID)
	if err != nil {
		return nil, fmt.Errorf("querying aspects: %w", err)
	}
	defer rows.Close()

	var aspects []domain.AspectDetail //nolint:prealloc // size unknown from query
	for rows.Next() {
		var a domain.AspectDetail
		if err := rows.Scan(&a.Name, &a.MentionTotal, &a.MentionPositive, &a.MentionNegative, &a.Summary); err != nil {
			return nil, fmt.Errorf("scanning aspect: %w", err)
		}
		aspects = append(aspects, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating aspects: %w", err)
	}
	return aspects, nil
}

// SaveCategory creates or updates a category keyed by code.
func (s *snapshotStore) SaveCategory(ctx context.Context, c *domain.Category) (int64, error) {
	if c == nil || c.Code == "" {
		return 0, domain.ErrInvalidInput
	}
	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO categories (code, name, sort_order) VALUES (?, ?, ?)
		ON CONFLICT(code) DO UPDATE SET
			name = excluded.name,
			sort_order = excluded.sort_order
	`, c.Code, c.Name, c.SortOrder)
	if err != nil {
		return 0, fmt.Errorf("saving category: %w", err)
	}

	var id int64
	if err := s.store.db.QueryRowContext(ctx,
		"SELECT id FROM categories WHERE code = ?", c.Code).Scan(&id); err != nil {
		return 0, fmt.Errorf("reading category id: %w", err)
	}
	c.ID = id
	return id, nil
}

// SaveCategorySnapshot stores a snapshot with its items.
func (s *snapshotStore) SaveCategorySnapshot(ctx context.Context, snap *domain.CategorySnapshot) (int64, error) {
	if snap == nil {
		return 0, domain.ErrInvalidInput
	}
	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	res, err := tx.ExecContext(ctx,
		"INSERT INTO ranking_snapshots (category_id, snapshot_time) VALUES (?, ?)",
		snap.CategoryID, formatTime(snap.SnapshotTime))
	if err != nil {
		return 0, fmt.Errorf("saving category snapshot: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading snapshot id: %w", err)
	}

	for _, it := range snap.Items {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO ranking_items (snapshot_id, rank, product_name, price, is_target_brand)
			VALUES (?, ?, ?, ?, ?)
		`, id, it.Rank, it.ProductName, it.Price, boolToInt(it.IsTargetBrand)); err != nil {
			return 0, fmt.Errorf("saving ranking item %d: %w", it.Rank, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing transaction: %w", err)
	}
	snap.ID = id
	return id, nil
}

// SaveBrandProductSnapshot stores one product snapshot.
func (s *snapshotStore) SaveBrandProductSnapshot(ctx context.Context, p *domain.BrandProductSnapshot) (int64, error) {
	if p == nil || p.ProductID == "" {
		return 0, domain.ErrInvalidInput
	}
	res, err := s.store.db.ExecContext(ctx, `
		INSERT INTO brand_product_snapshots (
			product_id, name, price, review_count, rating, last_month_sales,
			rank_1, rank_1_category, rank_2, rank_2_category,
			customers_say, customers_say_current, snapshot_time)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, p.ProductID, p.Name, nullFloat(p.Price), nullInt(p.ReviewCount), nullFloat(p.Rating),
		p.LastMonthSales, nullInt(p.Rank1), p.Rank1Category, nullInt(p.Rank2), p.Rank2Category,
		p.CustomersSay, p.CustomersSayCurrent, formatTime(p.SnapshotTime))
	if err != nil {
		return 0, fmt.Errorf("saving product snapshot: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading product snapshot id: %w", err)
	}
	p.ID = id
	return id, nil
}

// SaveAspectDetails replaces the aspects of a product snapshot.
func (s *snapshotStore) SaveAspectDetails(ctx context.Context, productSnapshotID int64, aspects []domain.AspectDetail) error {
	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM aspect_details WHERE snapshot_id = ?", productSnapshotID); err != nil {
		return fmt.Errorf("deleting aspects: %w", err)
	}
	for _, a := range aspects {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO aspect_details (snapshot_id, aspect_name, mention_total, mention_positive, mention_negative, summary)
			VALUES (?, ?, ?, ?, ?, ?)
		`, productSnapshotID, a.Name, a.MentionTotal, a.MentionPositive, a.MentionNegative, a.Summary); err != nil {
			return fmt.Errorf("saving aspect %s: %w", a.Name, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// scanProduct scans a brand product snapshot row.
func scanProduct(row rowScanner) (*domain.BrandProductSnapshot, error) {
	var p domain.BrandProductSnapshot
	var price, rating sql.NullFloat64
	var reviews, rank1, rank2 sql.NullInt64
	var taken string

	if err := row.Scan(&p.ID, &p.ProductID, &p.Name, &price, &reviews, &rating, &p.LastMonthSales,
		&rank1, &p.Rank1Category, &rank2, &p.Rank2Category,
		&p.CustomersSay, &p.CustomersSayCurrent, &taken); err != nil {
		return nil, fmt.Errorf("scanning product snapshot: %w", err)
	}

	p.Price = floatPtr(price)
	p.Rating = floatPtr(rating)
	p.ReviewCount = intPtr(reviews)
	p.Rank1 = intPtr(rank1)
	p.Rank2 = intPtr(rank2)

	var err error
	if p.SnapshotTime, err = parseTime(taken); err != nil {
		return nil, err
	}
	return &p, nil
}

func nullInt(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullFloat(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

func intPtr(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	i := int(v.Int64)
	return &i
}

func floatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
