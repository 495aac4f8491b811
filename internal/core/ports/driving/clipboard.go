package driving

import "context"

// ClipboardService copies text to the system clipboard.
type ClipboardService interface {
	// Copy places text on the clipboard. Returns an error when no
	// clipboard utility is available on this platform.
	Copy(ctx context.Context, text string) error
}
