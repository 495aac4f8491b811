package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/rankpulse/internal/core/domain"
	"github.com/custodia-labs/rankpulse/internal/export/xlsx"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Generate ranking reports",
	Long:  `Generate the daily report, ad hoc custom reports, or the raw evidence bundle.`,
}

var reportDailyCmd = &cobra.Command{
	Use:   "daily",
	Short: "Generate the daily report",
	Long: `Compares category snapshots at the target hour against the day before,
diffs the two latest brand runs, selects review risks and asks the LLM to
write the report under the stored RULE document.

Without --save the report is only printed.`,
	Args: cobra.NoArgs,
	RunE: runReportDaily,
}

var reportCustomCmd = &cobra.Command{
	Use:   "custom [request]",
	Short: "Write and store an ad hoc report",
	Args:  cobra.ExactArgs(1),
	RunE:  runReportCustom,
}

var reportEvidenceCmd = &cobra.Command{
	Use:   "evidence",
	Short: "Print the daily evidence without calling the LLM",
	Long: `Prints the category tables, brand change list and review block that the
daily report is built from. Use --xlsx to export them to a workbook.`,
	Args: cobra.NoArgs,
	RunE: runReportEvidence,
}

var (
	reportDate      string
	reportHour      int
	reportSave      bool
	reportJSON      bool
	reportCardsFile string
	reportXLSX      string
)

func init() {
	for _, c := range []*cobra.Command{reportDailyCmd, reportEvidenceCmd} {
		c.Flags().StringVar(&reportDate, "date", "", "report date (YYYY-MM-DD, default today)")
		c.Flags().IntVar(&reportHour, "hour", -1, "snapshot target hour (default from settings)")
	}
	reportDailyCmd.Flags().BoolVar(&reportSave, "save", false, "store and ingest the report")
	reportDailyCmd.Flags().BoolVar(&reportJSON, "json", false, "output the result as JSON")

	reportCustomCmd.Flags().StringVar(&reportCardsFile, "cards", "", "JSON file with data cards")
	reportCustomCmd.Flags().BoolVar(&reportJSON, "json", false, "output the result as JSON")

	reportEvidenceCmd.Flags().StringVar(&reportXLSX, "xlsx", "", "write the evidence to this workbook")

	reportCmd.AddCommand(reportDailyCmd)
	reportCmd.AddCommand(reportCustomCmd)
	reportCmd.AddCommand(reportEvidenceCmd)
	rootCmd.AddCommand(reportCmd)
}

func dailyInput() (domain.DailyReportInput, error) {
	in := domain.DailyReportInput{TargetHour: reportHour, Save: reportSave}
	if reportHour > 23 {
		return in, fmt.Errorf("%w: hour %d", domain.ErrInvalidInput, reportHour)
	}
	if reportDate != "" {
		d, err := domain.ParseDate(reportDate)
		if err != nil {
			return in, err
		}
		in.Date = d
	}
	return in, nil
}

func runReportDaily(cmd *cobra.Command, _ []string) error {
	if reportService == nil {
		return errNoReports
	}
	in, err := dailyInput()
	if err != nil {
		return err
	}

	res := reportService.GenerateDaily(cmd.Context(), in)

	if reportJSON {
		data, err := json.MarshalIndent(res, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal result: %w", err)
		}
		cmd.Println(string(data))
	} else {
		printDailyResult(cmd, res)
	}

	if !res.OK {
		return fmt.Errorf("daily report failed: %s", res.Error)
	}
	return nil
}

func printDailyResult(cmd *cobra.Command, res domain.DailyReportResult) {
	if !res.OK {
		cmd.Printf("Daily report %s failed: %s\n", res.ReportDate, res.Error)
		return
	}

	if isTerminal(cmd.OutOrStdout()) {
		state := "preview, not saved"
		if res.DocID != "" {
			state = fmt.Sprintf("saved as %s, %d chunks", res.DocID, res.ChunkCount)
		}
		cmd.Printf("=== Daily report %s @ %02d:00 (%s) ===\n", res.ReportDate, res.TargetHour, state)
		cmd.Printf("Insight: %s\n", res.OneLineInsight)
		if res.ReviewIncluded {
			cmd.Printf("Review block: %s\n", strings.Join(res.ReviewReasons, "; "))
		}
		cmd.Println()
	}
	cmd.Println(res.FinalText)
}

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func runReportCustom(cmd *cobra.Command, args []string) error {
	if reportService == nil {
		return errNoReports
	}
	cards, err := loadCards(reportCardsFile)
	if err != nil {
		return err
	}

	res, err := reportService.GenerateCustom(cmd.Context(), domain.CustomReportInput{
		Messages: []domain.ConversationMessage{{Role: "user", Content: args[0], Cards: cards}},
		Today:    time.Now(),
	})
	if err != nil {
		return fmt.Errorf("custom report failed: %w", err)
	}

	if reportJSON {
		data, err := json.MarshalIndent(res, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal result: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	cmd.Printf("Saved %s (%d chunks)\n\n", res.DocID, res.ChunkCount)
	cmd.Println(res.Content)
	return nil
}

func runReportEvidence(cmd *cobra.Command, _ []string) error {
	if reportService == nil {
		return errNoReports
	}
	in, err := dailyInput()
	if err != nil {
		return err
	}
	in.Save = false

	ev, err := reportService.BuildEvidence(cmd.Context(), in)
	if err != nil {
		return fmt.Errorf("failed to build evidence: %w", err)
	}

	if reportXLSX != "" {
		if err := xlsx.Save(reportXLSX, ev); err != nil {
			return err
		}
		cmd.Printf("Wrote evidence for %s to %s\n", ev.ReportDate.Format(domain.DateLayout), reportXLSX)
		return nil
	}

	cmd.Print(renderEvidence(ev))
	return nil
}

func renderEvidence(ev *domain.Evidence) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Evidence %s (snapshot %s)\n\n",
		ev.ReportDate.Format(domain.DateLayout), ev.TargetTime.Format("2006-01-02 15:04 MST"))
	fmt.Fprintf(&b, "Headline: %s\n\n", ev.Headline)
	b.WriteString("## Category top lists\n\n")
	b.WriteString(ev.CategoryText)
	b.WriteString("\n\n## Target-brand rank changes\n\n")
	b.WriteString(ev.ChangeText)
	b.WriteString("\n")
	if ev.ReviewIncluded {
		b.WriteString("\n## Review signals\n\n")
		b.WriteString(ev.ReviewText)
		b.WriteString("\n")
	}
	return b.String()
}
