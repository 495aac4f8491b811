package services

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/custodia-labs/rankpulse/internal/core/domain"
)

// Sentinels wrapping each verbatim ranking table. The model is told not to
// touch anything between them.
const (
	TableStartMarker = "<!--TOP30_TABLE_START-->"
	TableEndMarker   = "<!--TOP30_TABLE_END-->"
)

// Fixed texts used when a block has nothing to show.
const (
	NoChangesText      = "_No target-brand product changed since the previous run._"
	NoReviewTargetText = "_No products qualified for the review section._"
	ReviewOmittedText  = "_Review section omitted: no trigger fired._"
	NoAspectText       = "- aspect risk signals: (no qualifying aspect)"
	HeadlineFallback   = "Today's data shows only limited signal in target-brand exposure or ranking."
)

const (
	snapshotTimeLayout = "2006-01-02 15:04"
	customersSayChars  = 500
	aspectSummaryChars = 240
	noneText           = "None"
)

// RenderCategoryTables renders one block per category section, each with its
// full ranking table between the table markers.
func RenderCategoryTables(sections []domain.CategorySection) string {
	var b strings.Builder
	for _, sec := range sections {
		fmt.Fprintf(&b, "### %s (%s)\n", sec.Category.Code, sec.Category.Name)
		fmt.Fprintf(&b, "- snapshots: today=%s / yesterday=%s\n",
			sec.Today.SnapshotTime.Format(snapshotTimeLayout),
			sec.Yesterday.SnapshotTime.Format(snapshotTimeLayout))
		fmt.Fprintf(&b, "- target-brand items in top list: today=%d / yesterday=%d\n",
			len(sec.TodayTarget), len(sec.YesterdayTarget))
		if sec.Entered {
			b.WriteString("- status: **target brand entered the top list (yesterday 0 → today ≥1)**\n")
		}
		if sec.Exited {
			b.WriteString("- status: **target brand exited the top list (yesterday ≥1 → today 0)**\n")
		}

		switch {
		case len(sec.Movers) > 0:
			b.WriteString("- target-brand movers (matched by name):\n")
			for _, m := range sec.Movers {
				fmt.Fprintf(&b, "  - %s %s: Δrank=%+d (today #%d, yesterday #%d)\n",
					moveArrow(m.DeltaRank), m.Name, m.DeltaRank, m.TodayRank, m.YesterdayRank)
			}
		case len(sec.TodayTarget) > 0:
			fmt.Fprintf(&b, "- target-brand movers: not enough matchable items (unmatched=%d)\n", sec.Unmatched)
		}

		b.WriteString(TableStartMarker + "\n")
		b.WriteString(rankingTable(sec.Today.Items))
		b.WriteString("\n" + TableEndMarker + "\n\n")
	}
	return strings.TrimSpace(b.String())
}

func rankingTable(items []domain.RankingItem) string {
	rows := make([][]string, 0, len(items))
	for _, it := range items {
		target := "N"
		if it.IsTargetBrand {
			target = "Y"
		}
		rows = append(rows, []string{
			strconv.Itoa(it.Rank),
			it.ProductName,
			strconv.FormatFloat(it.Price, 'f', -1, 64),
			target,
		})
	}
	return markdownTable([]string{"rank", "product_name", "price", "target(Y/N)"}, rows)
}

// markdownTable renders a pipe table. Pipes inside cells are escaped.
func markdownTable(headers []string, rows [][]string) string {
	var b strings.Builder
	b.WriteString("| " + strings.Join(headers, " | ") + " |\n")
	sep := make([]string, len(headers))
	for i := range sep {
		sep[i] = "---"
	}
	b.WriteString("| " + strings.Join(sep, " | ") + " |")
	for _, row := range rows {
		cells := make([]string, len(row))
		for i, c := range row {
			cells[i] = strings.ReplaceAll(c, "|", `\|`)
		}
		b.WriteString("\n| " + strings.Join(cells, " | ") + " |")
	}
	return b.String()
}

func moveArrow(delta int) string {
	switch {
	case delta > 0:
		return "▲"
	case delta < 0:
		return "▼"
	default:
		return "—"
	}
}

// RenderChangeList renders at most maxLines change records, one per line.
// Absent ranks and deltas are written as None.
func RenderChangeList(changes domain.BrandChanges, maxLines int) string {
	if !changes.OK {
		return fmt.Sprintf("_No brand run data to compare (%s)._", changes.NoDataReason)
	}
	if len(changes.Changes) == 0 {
		return NoChangesText
	}

	list := changes.Changes
	if maxLines > 0 && len(list) > maxLines {
		list = list[:maxLines]
	}

	lines := make([]string, 0, len(list))
	for _, ch := range list {
		t := ch.Today
		parts := []string{rankField("rank_1", t.Rank1, t.Rank1Category)}
		if t.Rank2Category != "" {
			parts = append(parts, rankField("rank_2", t.Rank2, t.Rank2Category))
		} else {
			parts = append(parts, "rank_2="+noneText)
		}

		line := fmt.Sprintf("- **%s** | %s | rating=%s | reviews=%s | %s",
			t.Name, strings.Join(parts, ", "), formatFloatPtr(t.Rating), formatIntPtr(t.ReviewCount), deltaField(ch.Delta))
		if ch.Note != "" {
			line += " | " + ch.Note
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func rankField(name string, rank *int, category string) string {
	r := noneText
	if rank != nil {
		r = "#" + strconv.Itoa(*rank)
	}
	if category == "" {
		return name + "=" + r
	}
	return fmt.Sprintf("%s=%s (%s)", name, r, category)
}

func deltaField(d *domain.ChangeDelta) string {
	if d == nil {
		return "Δ=" + noneText
	}
	var parts []string
	if d.Rank1 != nil {
		parts = append(parts, fmt.Sprintf("Δrank_1=%+d", *d.Rank1))
	}
	if d.Rank2 != nil {
		parts = append(parts, fmt.Sprintf("Δrank_2=%+d", *d.Rank2))
	}
	parts = append(parts, fmt.Sprintf("Δreviews=%+d", d.ReviewCount))
	return strings.Join(parts, " ")
}

func formatIntPtr(p *int) string {
	if p == nil {
		return noneText
	}
	return strconv.Itoa(*p)
}

func formatFloatPtr(p *float64) string {
	if p == nil {
		return noneText
	}
	return strconv.FormatFloat(*p, 'f', -1, 64)
}

// RenderReviewBlock renders the review-risk block for the selected products.
func RenderReviewBlock(products []domain.ReviewProduct, reasons []string) string {
	if len(products) == 0 {
		return NoReviewTargetText
	}

	var b strings.Builder
	fmt.Fprintf(&b, "- review section triggered by: %s\n", strings.Join(reasons, ", "))
	for _, p := range products {
		fmt.Fprintf(&b, "\n**%s**\n", p.Change.Today.Name)
		if cs := p.Change.Today.ReviewSummary(); cs != "" {
			fmt.Fprintf(&b, "- customers_say (summary evidence): %s\n", preview(cs, customersSayChars))
		} else {
			b.WriteString("- customers_say: " + noneText + "\n")
		}

		if len(p.Aspects) == 0 {
			b.WriteString(NoAspectText + "\n")
			continue
		}
		b.WriteString("- aspect risk signals:\n")
		for _, a := range p.Aspects {
			fmt.Fprintf(&b, "  - %s: %d mentions (%d+ / %d-), neg_ratio=%.2f — %s\n",
				a.Name, a.MentionTotal, a.MentionPositive, a.MentionNegative, a.NegRatio,
				preview(a.Summary, aspectSummaryChars))
		}
	}
	return strings.TrimSpace(b.String())
}

// ChooseHeadline picks the one-line insight by fixed priority: first entry,
// first exit, largest brand rank move, largest target count change, then a
// fallback sentence.
func ChooseHeadline(sections []domain.CategorySection, changes domain.BrandChanges) string {
	for _, sec := range sections {
		if sec.Entered {
			return fmt.Sprintf("Target-brand items in the %s top list went from 0 yesterday to %d today, entering the ranking.",
				sec.Category.Code, len(sec.TodayTarget))
		}
	}
	for _, sec := range sections {
		if sec.Exited {
			return fmt.Sprintf("Target-brand items in the %s top list went from %d yesterday to 0 today, dropping out of the ranking.",
				sec.Category.Code, len(sec.YesterdayTarget))
		}
	}

	var best *domain.ChangeRecord
	for i := range changes.Changes {
		ch := &changes.Changes[i]
		if best == nil || ch.MaxRankMove() > best.MaxRankMove() {
			best = ch
		}
	}
	if best != nil && best.MaxRankMove() > 0 {
		dr := largestRankDelta(best.Delta)
		direction := "up"
		if dr < 0 {
			direction = "down"
		}
		return fmt.Sprintf("%s moved %+d in category ranking since yesterday (%s), the largest move today.",
			best.Today.Name, dr, direction)
	}

	var bestSec *domain.CategorySection
	for i := range sections {
		sec := &sections[i]
		if sec.CountChange() > 0 && (bestSec == nil || sec.CountChange() > bestSec.CountChange()) {
			bestSec = sec
		}
	}
	if bestSec != nil {
		diff := len(bestSec.TodayTarget) - len(bestSec.YesterdayTarget)
		if diff > 0 {
			return fmt.Sprintf("Target-brand exposure in the %s top list rose by %d since yesterday.", bestSec.Category.Code, diff)
		}
		return fmt.Sprintf("Target-brand exposure in the %s top list fell by %d since yesterday.", bestSec.Category.Code, -diff)
	}

	return HeadlineFallback
}

// largestRankDelta returns the rank delta with the larger magnitude,
// preferring rank_1 on ties.
func largestRankDelta(d *domain.ChangeDelta) int {
	var out int
	if d.Rank1 != nil {
		out = *d.Rank1
	}
	if d.Rank2 != nil && absInt(*d.Rank2) > absInt(out) {
		out = *d.Rank2
	}
	return out
}
