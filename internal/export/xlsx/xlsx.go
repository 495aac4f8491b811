// Package xlsx exports the daily evidence bundle to an Excel workbook.
package xlsx

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/custodia-labs/rankpulse/internal/core/domain"
)

// Sheet names, in workbook order.
const (
	SheetSummary    = "Summary"
	SheetCategories = "Categories"
	SheetChanges    = "Changes"
	SheetReview     = "Review Risks"
)

// Write renders ev as a workbook to w.
func Write(w io.Writer, ev *domain.Evidence) error {
	f, err := build(ev)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// Save renders ev as a workbook at path.
func Save(path string, ev *domain.Evidence) error {
	f, err := build(ev)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook %s: %w", path, err)
	}
	return nil
}

func build(ev *domain.Evidence) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", SheetSummary); err != nil {
		f.Close()
		return nil, fmt.Errorf("create summary sheet: %w", err)
	}

	steps := []struct {
		sheet string
		fill  func(*excelize.File, string, *domain.Evidence) error
	}{
		{SheetSummary, fillSummary},
		{SheetCategories, fillCategories},
		{SheetChanges, fillChanges},
		{SheetReview, fillReview},
	}
	for _, s := range steps {
		if s.sheet != SheetSummary {
			if _, err := f.NewSheet(s.sheet); err != nil {
				f.Close()
				return nil, fmt.Errorf("create sheet %s: %w", s.sheet, err)
			}
		}
		if err := s.fill(f, s.sheet, ev); err != nil {
			f.Close()
			return nil, fmt.Errorf("fill sheet %s: %w", s.sheet, err)
		}
	}
	f.SetActiveSheet(0)
	return f, nil
}

// setRow writes values starting at column A of a 1-based row.
func setRow(f *excelize.File, sheet string, row int, values ...any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &values)
}

func fillSummary(f *excelize.File, sheet string, ev *domain.Evidence) error {
	rows := [][]any{
		{"Report date", ev.ReportDate.Format(domain.DateLayout)},
		{"Snapshot time", ev.TargetTime.Format("2006-01-02 15:04 MST")},
		{"Headline", ev.Headline},
		{"Review block", ev.ReviewIncluded},
	}
	if ev.Brand.LatestTime != nil {
		rows = append(rows, []any{"Latest brand run", ev.Brand.LatestTime.Format("2006-01-02 15:04")})
	}
	if ev.Brand.PrevTime != nil {
		rows = append(rows, []any{"Previous brand run", ev.Brand.PrevTime.Format("2006-01-02 15:04")})
	}
	if !ev.Brand.OK {
		rows = append(rows, []any{"Brand diff", ev.Brand.NoDataReason})
	}
	for _, r := range ev.ReviewReasons {
		rows = append(rows, []any{"Review reason", r})
	}

	for i, r := range rows {
		if err := setRow(f, sheet, i+1, r...); err != nil {
			return err
		}
	}
	return f.SetColWidth(sheet, "A", "A", 20)
}

func fillCategories(f *excelize.File, sheet string, ev *domain.Evidence) error {
	if err := setRow(f, sheet, 1, "Category", "Snapshot", "Rank", "Product", "Price", "Target brand"); err != nil {
		return err
	}
	row := 2
	for i := range ev.Sections {
		sec := &ev.Sections[i]
		for _, side := range []struct {
			label string
			snap  *domain.CategorySnapshot
		}{
			{"today", &sec.Today},
			{"yesterday", &sec.Yesterday},
		} {
			for _, it := range side.snap.Items {
				if err := setRow(f, sheet, row,
					sec.Category.Name, side.label, it.Rank, it.ProductName, it.Price, it.IsTargetBrand); err != nil {
					return err
				}
				row++
			}
		}
	}
	return f.SetColWidth(sheet, "D", "D", 48)
}

func fillChanges(f *excelize.File, sheet string, ev *domain.Evidence) error {
	if err := setRow(f, sheet, 1,
		"Product", "Rank 1", "Rank 1 delta", "Rank 2", "Rank 2 delta", "Reviews", "Review delta", "Rating", "Note"); err != nil {
		return err
	}
	for i := range ev.Brand.Changes {
		c := &ev.Brand.Changes[i]
		var d1, d2, dr any
		if c.Delta != nil {
			d1, d2, dr = optInt(c.Delta.Rank1), optInt(c.Delta.Rank2), c.Delta.ReviewCount
		}
		if err := setRow(f, sheet, i+2,
			c.Today.Name, optInt(c.Today.Rank1), d1, optInt(c.Today.Rank2), d2,
			optInt(c.Today.ReviewCount), dr, optFloat(c.Today.Rating), c.Note); err != nil {
			return err
		}
	}
	return f.SetColWidth(sheet, "A", "A", 48)
}

func fillReview(f *excelize.File, sheet string, ev *domain.Evidence) error {
	if err := setRow(f, sheet, 1,
		"Product", "Aspect", "Mentions", "Negative", "Negative ratio", "Risk score", "Summary"); err != nil {
		return err
	}
	row := 2
	for _, p := range ev.ReviewProducts {
		if len(p.Aspects) == 0 {
			if err := setRow(f, sheet, row, p.Change.Today.Name); err != nil {
				return err
			}
			row++
			continue
		}
		for _, a := range p.Aspects {
			if err := setRow(f, sheet, row,
				p.Change.Today.Name, a.Name, a.MentionTotal, a.MentionNegative, a.NegRatio, a.RiskScore, a.Summary); err != nil {
				return err
			}
			row++
		}
	}
	return f.SetColWidth(sheet, "A", "A", 48)
}

func optInt(p *int) any {
	if p == nil {
		return nil
	}
	return *p
}

func optFloat(p *float64) any {
	if p == nil {
		return nil
	}
	return *p
}
