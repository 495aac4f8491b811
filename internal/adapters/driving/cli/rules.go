package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/rankpulse/internal/core/domain"
	"github.com/custodia-labs/rankpulse/internal/core/ports/driving"
	"github.com/custodia-labs/rankpulse/internal/logger"
)

// DefaultRuleDocID is the document id rule files are stored under.
const DefaultRuleDocID = "rule_daily_report"

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Manage the report-writing rule document",
	Long: `The daily report is written under the newest RULE document. These
commands store a Markdown rule file as that document and ingest it.`,
}

var rulesSetCmd = &cobra.Command{
	Use:   "set [file]",
	Short: "Store a rule file once",
	Args:  cobra.ExactArgs(1),
	RunE:  runRulesSet,
}

var rulesWatchCmd = &cobra.Command{
	Use:   "watch [file]",
	Short: "Store a rule file and re-store it on every change",
	Long: `Stores the file, then watches it and re-upserts and re-ingests the RULE
document whenever it is written. Runs until interrupted.`,
	Args: cobra.ExactArgs(1),
	RunE: runRulesWatch,
}

var (
	rulesDocID    string
	rulesTitle    string
	rulesDebounce time.Duration
)

func init() {
	for _, c := range []*cobra.Command{rulesSetCmd, rulesWatchCmd} {
		c.Flags().StringVar(&rulesDocID, "id", DefaultRuleDocID, "rule document id")
		c.Flags().StringVar(&rulesTitle, "title", "Report rules", "rule document title")
	}
	rulesWatchCmd.Flags().DurationVar(&rulesDebounce, "debounce", 500*time.Millisecond, "quiet period before a change is applied")

	rulesCmd.AddCommand(rulesSetCmd)
	rulesCmd.AddCommand(rulesWatchCmd)
	rootCmd.AddCommand(rulesCmd)
}

// ruleSync stores a rule file as the RULE document.
type ruleSync struct {
	docs  driving.DocumentService
	id    string
	title string
	rag   domain.RAGSettings
}

// apply stores the file's current content with its chunks.
func (r *ruleSync) apply(ctx context.Context, path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read rule file: %w", err)
	}
	body := string(data)
	if strings.TrimSpace(body) == "" {
		return 0, fmt.Errorf("%w: rule file %s is empty", domain.ErrInvalidInput, path)
	}

	res, err := r.docs.Save(ctx, driving.UpsertDocumentInput{
		ID:    r.id,
		Type:  domain.DocTypeRule,
		Title: r.title,
		Body:  body,
	}, r.rag.ChunkMaxChars, r.rag.ChunkOverlap)
	if err != nil {
		return 0, fmt.Errorf("store rule document: %w", err)
	}
	return res.ChunkCount, nil
}

func newRuleSync() (*ruleSync, error) {
	if documentService == nil {
		return nil, errNoDocuments
	}
	return &ruleSync{docs: documentService, id: rulesDocID, title: rulesTitle, rag: ragSettings()}, nil
}

func runRulesSet(cmd *cobra.Command, args []string) error {
	rs, err := newRuleSync()
	if err != nil {
		return err
	}
	n, err := rs.apply(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	cmd.Printf("Stored rule document %s (%d chunks)\n", rs.id, n)
	return nil
}

func runRulesWatch(cmd *cobra.Command, args []string) error {
	rs, err := newRuleSync()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	path := args[0]

	n, err := rs.apply(ctx, path)
	if err != nil {
		return err
	}
	cmd.Printf("Stored rule document %s (%d chunks), watching %s\n", rs.id, n, path)

	return watchFile(ctx, path, rulesDebounce, func() {
		n, err := rs.apply(ctx, path)
		if err != nil {
			logger.Error("rules: %v", err)
			cmd.PrintErrf("Rule update failed: %v\n", err)
			return
		}
		cmd.Printf("%s  Re-stored rule document %s (%d chunks)\n", time.Now().Format("15:04:05"), rs.id, n)
	})
}

// watchFile calls onChange after path is written or replaced and then left
// alone for the debounce period. The parent directory is watched so editors
// that save by renaming a temp file over path are still seen.
// Returns nil when ctx is cancelled.
func watchFile(ctx context.Context, path string, debounce time.Duration, onChange func()) error {
	target, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	target = filepath.Clean(target)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(target), err)
	}

	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			logger.Debug("rules: %s", ev)
			if timer == nil {
				timer = time.NewTimer(debounce)
			} else {
				timer.Reset(debounce)
			}
			fire = timer.C

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("rules: watcher error: %v", err)

		case <-fire:
			fire = nil
			onChange()
		}
	}
}
