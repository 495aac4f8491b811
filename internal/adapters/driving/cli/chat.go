package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/rankpulse/internal/core/domain"
)

var chatCmd = &cobra.Command{
	Use:   "chat [message]",
	Short: "Ask a one-off question about recent reports",
	Long: `Sends a single message to the LLM. Recent daily reports relevant to the
message are added as context unless --no-retrieval is given.`,
	Args: cobra.ExactArgs(1),
	RunE: runChat,
}

var (
	chatNoRetrieval bool
	chatCardsFile   string
)

func init() {
	chatCmd.Flags().BoolVar(&chatNoRetrieval, "no-retrieval", false, "do not add past reports as context")
	chatCmd.Flags().StringVar(&chatCardsFile, "cards", "", "JSON file with data cards")
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, args []string) error {
	if chatService == nil {
		return errors.New("chat service not configured")
	}
	cards, err := loadCards(chatCardsFile)
	if err != nil {
		return err
	}

	reply, err := chatService.Reply(cmd.Context(), domain.ChatInput{
		Messages:     []domain.ConversationMessage{{Role: "user", Content: args[0], Cards: cards}},
		UseRetrieval: !chatNoRetrieval,
		Today:        time.Now(),
	})
	if err != nil {
		return fmt.Errorf("chat failed: %w", err)
	}
	cmd.Println(reply)
	return nil
}
