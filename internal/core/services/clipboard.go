package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/atotto/clipboard"

	"github.com/custodia-labs/rankpulse/internal/core/ports/driving"
)

// ErrNoClipboard means the system has no clipboard rankpulse can reach,
// typically Linux without xclip, xsel or wl-copy.
var ErrNoClipboard = errors.New("no clipboard available (install xclip, xsel or wl-clipboard)")

var _ driving.ClipboardService = (*ClipboardService)(nil)

// ClipboardService copies report text to the system clipboard.
type ClipboardService struct {
	available func() bool
	write     func(string) error
}

func NewClipboardService() *ClipboardService {
	return &ClipboardService{
		available: func() bool { return !clipboard.Unsupported },
		write:     clipboard.WriteAll,
	}
}

// Copy replaces the clipboard contents with text. Empty text is rejected so
// a failed render never wipes what the user had copied.
func (s *ClipboardService) Copy(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if text == "" {
		return errors.New("nothing to copy")
	}
	if !s.available() {
		return ErrNoClipboard
	}
	if err := s.write(text); err != nil {
		return fmt.Errorf("writing clipboard: %w", err)
	}
	return nil
}
