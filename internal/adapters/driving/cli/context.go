package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/rankpulse/internal/core/domain"
	"github.com/custodia-labs/rankpulse/internal/core/ports/driving"
)

var (
	contextMode      string
	contextCardsFile string
	contextNoHistory bool
	contextMaxChunks int
)

var contextCmd = &cobra.Command{
	Use:   "context [query]",
	Short: "Print the retrieval context for a query",
	Long: `Builds the text block that is prepended to LLM prompts.

Modes:
  chat    - data cards plus recent daily reports (default)
  custom  - data cards plus similar custom reports`,
	Args: cobra.ExactArgs(1),
	RunE: runContext,
}

func init() {
	contextCmd.Flags().StringVarP(&contextMode, "mode", "m", "chat", "context mode (chat, custom)")
	contextCmd.Flags().StringVar(&contextCardsFile, "cards", "", "JSON file with data cards")
	contextCmd.Flags().BoolVar(&contextNoHistory, "no-history", false, "omit past reports")
	contextCmd.Flags().IntVar(&contextMaxChunks, "max-chunks", 0, "maximum past report chunks (0 = configured default)")
	rootCmd.AddCommand(contextCmd)
}

func runContext(cmd *cobra.Command, args []string) error {
	if retrievalService == nil {
		return errNoRetrieval
	}

	cards, err := loadCards(contextCardsFile)
	if err != nil {
		return err
	}

	var text string
	switch contextMode {
	case "chat":
		text, err = retrievalService.BuildChatContext(cmd.Context(), driving.ChatContextInput{
			UserQuery:          args[0],
			Cards:              cards,
			IncludePastReports: !contextNoHistory,
			MaxContextChunks:   contextMaxChunks,
			Today:              time.Now(),
		})
	case "custom":
		text, err = retrievalService.BuildCustomReportContext(cmd.Context(), driving.CustomContextInput{
			UserQuery:             args[0],
			Cards:                 cards,
			IncludeSimilarReports: !contextNoHistory,
		})
	default:
		return fmt.Errorf("%w: mode %q", domain.ErrInvalidInput, contextMode)
	}
	if err != nil {
		return fmt.Errorf("failed to build context: %w", err)
	}

	if text == "" {
		cmd.Println("(empty context)")
		return nil
	}
	cmd.Println(text)
	return nil
}

// loadCards reads a JSON array of data cards. An empty path yields none.
func loadCards(path string) ([]domain.DataCard, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read cards: %w", err)
	}
	var cards []domain.DataCard
	if err := json.Unmarshal(data, &cards); err != nil {
		return nil, fmt.Errorf("%w: cards file %s: %v", domain.ErrInvalidInput, path, err)
	}
	return cards, nil
}
