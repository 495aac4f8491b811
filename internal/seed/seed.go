// Package seed imports raw ranking snapshots from YAML files.
//
// A seed file lists categories with their timestamped top-N snapshots and
// brand runs with per-product metrics and review aspects:
//
//	categories:
//	  - code: face
//	    name: Face Care
//	    snapshots:
//	      - time: 2025-01-31T11:00:00+09:00
//	        items:
//	          - {rank: 1, product: Serum A, price: 19.9, target: true}
//	runs:
//	  - time: 2025-01-31T09:00:00+09:00
//	    products:
//	      - product_id: P1
//	        name: Serum A
//	        rank1: 3
//	        aspects:
//	          - {name: Texture, total: 40, positive: 30, negative: 10}
package seed

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/custodia-labs/rankpulse/internal/core/domain"
	"github.com/custodia-labs/rankpulse/internal/core/ports/driven"
	"github.com/custodia-labs/rankpulse/internal/logger"
)

// File is the root of a seed document.
type File struct {
	Categories []Category `yaml:"categories"`
	Runs       []Run      `yaml:"runs"`
}

// Category is a tracked listing and its snapshots.
type Category struct {
	Code      string     `yaml:"code"`
	Name      string     `yaml:"name"`
	SortOrder int        `yaml:"sort_order"`
	Snapshots []Snapshot `yaml:"snapshots"`
}

// Snapshot is one capture of a category's top-N.
type Snapshot struct {
	Time  time.Time `yaml:"time"`
	Items []Item    `yaml:"items"`
}

// Item is one ranked entry.
type Item struct {
	Rank    int     `yaml:"rank"`
	Product string  `yaml:"product"`
	Price   float64 `yaml:"price"`
	Target  bool    `yaml:"target"`
}

// Run is a set of brand product captures sharing a timestamp.
type Run struct {
	Time     time.Time `yaml:"time"`
	Products []Product `yaml:"products"`
}

// Product is one brand product capture. Absent metrics stay nil.
type Product struct {
	ProductID           string   `yaml:"product_id"`
	Name                string   `yaml:"name"`
	Price               *float64 `yaml:"price"`
	ReviewCount         *int     `yaml:"review_count"`
	Rating              *float64 `yaml:"rating"`
	LastMonthSales      string   `yaml:"last_month_sales"`
	Rank1               *int     `yaml:"rank1"`
	Rank1Category       string   `yaml:"rank1_category"`
	Rank2               *int     `yaml:"rank2"`
	Rank2Category       string   `yaml:"rank2_category"`
	CustomersSay        string   `yaml:"customers_say"`
	CustomersSayCurrent string   `yaml:"customers_say_current"`
	Aspects             []Aspect `yaml:"aspects"`
}

// Aspect is a review aspect aggregate.
type Aspect struct {
	Name     string `yaml:"name"`
	Total    int    `yaml:"total"`
	Positive int    `yaml:"positive"`
	Negative int    `yaml:"negative"`
	Summary  string `yaml:"summary"`
}

// Stats counts what an import wrote.
type Stats struct {
	Categories int
	Snapshots  int
	Runs       int
	Products   int
	Aspects    int
}

// Load decodes and validates a seed document.
func Load(r io.Reader) (*File, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var f File
	if err := dec.Decode(&f); err != nil {
		if err == io.EOF {
			return &f, nil
		}
		return nil, fmt.Errorf("%w: seed: %v", domain.ErrInvalidInput, err)
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

// LoadFile reads a seed document from path.
func LoadFile(path string) (*File, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open seed: %w", err)
	}
	defer fh.Close()
	return Load(fh)
}

// Validate checks the structural rules the stores rely on.
func (f *File) Validate() error {
	codes := make(map[string]bool, len(f.Categories))
	for _, c := range f.Categories {
		code := strings.TrimSpace(c.Code)
		if code == "" {
			return fmt.Errorf("%w: seed: category without code", domain.ErrInvalidInput)
		}
		if codes[code] {
			return fmt.Errorf("%w: seed: duplicate category %q", domain.ErrInvalidInput, code)
		}
		codes[code] = true

		for _, s := range c.Snapshots {
			if s.Time.IsZero() {
				return fmt.Errorf("%w: seed: snapshot of %q without time", domain.ErrInvalidInput, code)
			}
			ranks := make(map[int]bool, len(s.Items))
			for _, it := range s.Items {
				if it.Rank < 1 || ranks[it.Rank] {
					return fmt.Errorf("%w: seed: %q at %s has invalid or duplicate rank %d",
						domain.ErrInvalidInput, code, s.Time.Format(time.RFC3339), it.Rank)
				}
				ranks[it.Rank] = true
			}
		}
	}

	for _, r := range f.Runs {
		if r.Time.IsZero() {
			return fmt.Errorf("%w: seed: run without time", domain.ErrInvalidInput)
		}
		for _, p := range r.Products {
			if strings.TrimSpace(p.Name) == "" || strings.TrimSpace(p.ProductID) == "" {
				return fmt.Errorf("%w: seed: run %s has a product without name or product_id",
					domain.ErrInvalidInput, r.Time.Format(time.RFC3339))
			}
		}
	}
	return nil
}

// Import writes every category, snapshot, run and aspect through w.
// It stops at the first storage error; rows written before it remain.
func Import(ctx context.Context, w driven.SnapshotWriter, f *File) (Stats, error) {
	var st Stats

	for i, c := range f.Categories {
		sort := c.SortOrder
		if sort == 0 {
			sort = i + 1
		}
		cat := &domain.Category{Code: strings.TrimSpace(c.Code), Name: c.Name, SortOrder: sort}
		if cat.Name == "" {
			cat.Name = cat.Code
		}
		id, err := w.SaveCategory(ctx, cat)
		if err != nil {
			return st, fmt.Errorf("save category %s: %w", cat.Code, err)
		}
		st.Categories++

		for _, s := range c.Snapshots {
			snap := &domain.CategorySnapshot{CategoryID: id, SnapshotTime: s.Time, Items: make([]domain.RankingItem, 0, len(s.Items))}
			for _, it := range s.Items {
				snap.Items = append(snap.Items, domain.RankingItem{
					Rank:          it.Rank,
					ProductName:   it.Product,
					Price:         it.Price,
					IsTargetBrand: it.Target,
				})
			}
			if _, err := w.SaveCategorySnapshot(ctx, snap); err != nil {
				return st, fmt.Errorf("save snapshot %s@%s: %w", cat.Code, s.Time.Format(time.RFC3339), err)
			}
			st.Snapshots++
		}
	}

	for _, r := range f.Runs {
		for _, p := range r.Products {
			snap := &domain.BrandProductSnapshot{
				ProductID:           p.ProductID,
				Name:                p.Name,
				Price:               p.Price,
				ReviewCount:         p.ReviewCount,
				Rating:              p.Rating,
				LastMonthSales:      p.LastMonthSales,
				Rank1:               p.Rank1,
				Rank1Category:       p.Rank1Category,
				Rank2:               p.Rank2,
				Rank2Category:       p.Rank2Category,
				CustomersSay:        p.CustomersSay,
				CustomersSayCurrent: p.CustomersSayCurrent,
				SnapshotTime:        r.Time,
			}
			id, err := w.SaveBrandProductSnapshot(ctx, snap)
			if err != nil {
				return st, fmt.Errorf("save product %s@%s: %w", p.Name, r.Time.Format(time.RFC3339), err)
			}
			st.Products++

			if len(p.Aspects) == 0 {
				continue
			}
			aspects := make([]domain.AspectDetail, 0, len(p.Aspects))
			for _, a := range p.Aspects {
				d := domain.AspectDetail{
					Name:            a.Name,
					MentionTotal:    a.Total,
					MentionPositive: a.Positive,
					MentionNegative: a.Negative,
					Summary:         a.Summary,
				}
				if !d.Consistent() {
					logger.Warn("seed: %s aspect %q total %d != positive %d + negative %d",
						p.Name, a.Name, a.Total, a.Positive, a.Negative)
				}
				aspects = append(aspects, d)
			}
			if err := w.SaveAspectDetails(ctx, id, aspects); err != nil {
				return st, fmt.Errorf("save aspects of %s: %w", p.Name, err)
			}
			st.Aspects += len(aspects)
		}
		st.Runs++
	}

	logger.Debug("seed: imported %+v", st)
	return st, nil
}
