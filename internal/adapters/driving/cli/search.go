package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/rankpulse/internal/core/domain"
)

var (
	searchTopK  int
	searchTypes []string
	searchFrom  string
	searchTo    string
	searchJSON  bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search stored reports",
	Long: `Embeds the query and ranks stored report chunks by cosine similarity.
Filters on document type and report date are applied before ranking.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchTopK, "top-k", "n", 5, "maximum number of chunks")
	searchCmd.Flags().StringSliceVarP(&searchTypes, "type", "t", nil, "restrict to document types (RULE, DAILY, CUSTOM)")
	searchCmd.Flags().StringVar(&searchFrom, "from", "", "earliest report date (YYYY-MM-DD)")
	searchCmd.Flags().StringVar(&searchTo, "to", "", "latest report date (YYYY-MM-DD)")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	if retrievalService == nil {
		return errNoRetrieval
	}

	q, err := buildSearchQuery(args[0], searchTopK, searchTypes, searchFrom, searchTo)
	if err != nil {
		return err
	}

	results, err := retrievalService.Search(cmd.Context(), q)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		return outputSearchJSON(cmd, results)
	}
	return outputSearchTable(cmd, results)
}

func buildSearchQuery(query string, topK int, types []string, from, to string) (domain.SearchQuery, error) {
	q := domain.SearchQuery{Query: query, TopK: topK}
	for _, t := range types {
		dt, err := domain.ParseDocType(t)
		if err != nil {
			return q, err
		}
		q.DocTypes = append(q.DocTypes, dt)
	}
	if from != "" {
		d, err := domain.ParseDate(from)
		if err != nil {
			return q, err
		}
		q.DateFrom = &d
	}
	if to != "" {
		d, err := domain.ParseDate(to)
		if err != nil {
			return q, err
		}
		q.DateTo = &d
	}
	return q, nil
}

type searchResultJSON struct {
	DocID      string  `json:"doc_id"`
	Title      string  `json:"title"`
	DocType    string  `json:"doc_type"`
	ReportDate string  `json:"report_date,omitempty"`
	Similarity float64 `json:"similarity"`
	Content    string  `json:"content"`
}

func outputSearchJSON(cmd *cobra.Command, results []domain.RetrievedChunk) error {
	out := make([]searchResultJSON, 0, len(results))
	for _, r := range results {
		out = append(out, searchResultJSON{
			DocID:      r.DocID,
			Title:      r.Title,
			DocType:    r.DocType.String(),
			ReportDate: r.ReportDateString(),
			Similarity: r.Similarity,
			Content:    r.Content,
		})
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputSearchTable(cmd *cobra.Command, results []domain.RetrievedChunk) error {
	if len(results) == 0 {
		cmd.Println("No matching reports.")
		return nil
	}

	cmd.Println("Results:")
	cmd.Println()
	for i := range results {
		r := &results[i]
		title := r.Title
		if title == "" {
			title = r.DocID
		}
		cmd.Printf("  [%d] %s (%.3f)\n", i+1, title, r.Similarity)
		meta := r.DocType.String()
		if d := r.ReportDateString(); d != "" {
			meta += " · " + d
		}
		cmd.Printf("      %s · %s\n", meta, r.DocID)
		cmd.Printf("      %s\n", snippet(r.Content, 160))
		cmd.Println()
	}
	return nil
}

// snippet collapses whitespace and cuts s to n runes.
func snippet(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
