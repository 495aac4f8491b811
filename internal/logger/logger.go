// Package logger is rankpulse's process-wide log/slog logger with printf
// helpers. Debug, Info and Section only appear with --verbose. Warnings and
// errors are always written. Console output reads "[WARN] message"; JSON
// output is one slog record per line.
package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

// LevelSection marks a verbose-only heading between Info and Warn.
const LevelSection = slog.LevelInfo + 1

var (
	mu      sync.RWMutex
	verbose bool
	jsonOut bool
	output  io.Writer = os.Stderr

	level = new(slog.LevelVar)
	log   = build()
)

func init() {
	level.Set(slog.LevelWarn)
}

// build must be called with mu held for writing, or before any logging.
func build() *slog.Logger {
	opts := &slog.HandlerOptions{Level: level, ReplaceAttr: renameSection}
	if jsonOut {
		return slog.New(slog.NewJSONHandler(output, opts))
	}
	return slog.New(&consoleHandler{w: output, level: level, mu: new(sync.Mutex)})
}

func renameSection(_ []string, a slog.Attr) slog.Attr {
	if a.Key == slog.LevelKey {
		if l, ok := a.Value.Any().(slog.Level); ok && l == LevelSection {
			a.Value = slog.StringValue("SECTION")
		}
	}
	return a
}

// SetVerbose lowers the threshold to Debug, or raises it back to Warn.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	verbose = v
	if v {
		level.Set(slog.LevelDebug)
	} else {
		level.Set(slog.LevelWarn)
	}
}

func IsVerbose() bool {
	mu.RLock()
	defer mu.RUnlock()
	return verbose
}

// SetOutput redirects logging. Defaults to os.Stderr.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
	log = build()
}

// SetJSON switches between console lines and JSON records.
func SetJSON(on bool) {
	mu.Lock()
	defer mu.Unlock()
	jsonOut = on
	log = build()
}

// Slog returns the current logger for callers that want attributes.
func Slog() *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return log
}

func emit(l slog.Level, format string, args ...any) {
	mu.RLock()
	lg := log
	mu.RUnlock()
	ctx := context.Background()
	if !lg.Enabled(ctx, l) {
		return
	}
	lg.Log(ctx, l, fmt.Sprintf(format, args...))
}

func Debug(format string, args ...any) { emit(slog.LevelDebug, format, args...) }
func Info(format string, args ...any)  { emit(slog.LevelInfo, format, args...) }
func Warn(format string, args ...any)  { emit(slog.LevelWarn, format, args...) }
func Error(format string, args ...any) { emit(slog.LevelError, format, args...) }

// Section starts a named block of verbose output.
func Section(name string) { emit(LevelSection, "%s", name) }

// consoleHandler writes "[LEVEL] msg key=value" lines, and sections as
// "\n=== name ===".
type consoleHandler struct {
	mu    *sync.Mutex
	w     io.Writer
	level slog.Leveler
	attrs []slog.Attr
}

func (h *consoleHandler) Enabled(_ context.Context, l slog.Level) bool {
	return l >= h.level.Level()
}

func (h *consoleHandler) Handle(_ context.Context, r slog.Record) error {
	var b strings.Builder
	if r.Level == LevelSection {
		fmt.Fprintf(&b, "\n=== %s ===", r.Message)
	} else {
		fmt.Fprintf(&b, "[%s] %s", r.Level, r.Message)
	}
	write := func(a slog.Attr) bool {
		fmt.Fprintf(&b, " %s=%v", a.Key, a.Value)
		return true
	}
	for _, a := range h.attrs {
		write(a)
	}
	r.Attrs(write)
	b.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.w, b.String())
	return err
}

func (h *consoleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &consoleHandler{mu: h.mu, w: h.w, level: h.level, attrs: append(h.attrs[:len(h.attrs):len(h.attrs)], attrs...)}
}

// WithGroup flattens groups; console lines carry few attributes.
func (h *consoleHandler) WithGroup(string) slog.Handler { return h }
