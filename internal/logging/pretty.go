// ABOUTME: Colored human-readable slog handler for terminal output
// ABOUTME: Prints "LEVEL: message {attrs}" with the level tinted by severity
package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/fatih/color"
)

// PrettyHandlerOptions configures a PrettyHandler
type PrettyHandlerOptions struct {
	SlogOpts slog.HandlerOptions
	// NoColor disables ANSI colors regardless of terminal detection
	NoColor bool
}

// PrettyHandler renders records as one colored line each.
// Attributes are collected through an inner JSON handler so groups and
// WithAttrs behave exactly like the standard handlers.
type PrettyHandler struct {
	slog.Handler
	l       io.Writer
	mu      *sync.Mutex
	buf     *bytes.Buffer
	noColor bool
}

// NewPrettyHandler creates a PrettyHandler writing to out
func NewPrettyHandler(out io.Writer, opts PrettyHandlerOptions) *PrettyHandler {
	buf := &bytes.Buffer{}
	inner := opts.SlogOpts
	// time, level and message are printed by Handle itself
	inner.ReplaceAttr = suppressDefaults(opts.SlogOpts.ReplaceAttr)
	return &PrettyHandler{
		Handler: slog.NewJSONHandler(buf, &inner),
		l:       out,
		mu:      &sync.Mutex{},
		buf:     buf,
		noColor: opts.NoColor,
	}
}

// Handle formats the record and writes it in a single write call
func (h *PrettyHandler) Handle(ctx context.Context, r slog.Record) error {
	level := r.Level.String() + ":"
	if !h.noColor {
		switch {
		case r.Level <= slog.LevelDebug:
			level = color.MagentaString(level)
		case r.Level <= slog.LevelInfo:
			level = color.BlueString(level)
		case r.Level <= slog.LevelWarn:
			level = color.YellowString(level)
		default:
			level = color.RedString(level)
		}
	}

	attrs, err := h.computeAttrs(ctx, r)
	if err != nil {
		return err
	}

	timeStr := r.Time.Format("15:04:05.000")
	msg := r.Message
	if !h.noColor {
		timeStr = color.HiBlackString(timeStr)
		msg = color.CyanString(msg)
	}

	line := fmt.Sprintf("%s %s %s %s\n", timeStr, level, msg, attrs)
	_, err = io.WriteString(h.l, line)
	return err
}

// WithAttrs returns a handler whose inner JSON handler carries attrs
func (h *PrettyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &PrettyHandler{Handler: h.Handler.WithAttrs(attrs), l: h.l, mu: h.mu, buf: h.buf, noColor: h.noColor}
}

// WithGroup returns a handler that nests later attrs under name
func (h *PrettyHandler) WithGroup(name string) slog.Handler {
	return &PrettyHandler{Handler: h.Handler.WithGroup(name), l: h.l, mu: h.mu, buf: h.buf, noColor: h.noColor}
}

// computeAttrs runs the record through the inner JSON handler and re-indents the result
func (h *PrettyHandler) computeAttrs(ctx context.Context, r slog.Record) (string, error) {
	h.mu.Lock()
	defer func() {
		h.buf.Reset()
		h.mu.Unlock()
	}()
	if err := h.Handler.Handle(ctx, r); err != nil {
		return "", fmt.Errorf("error when calling inner handler's Handle: %w", err)
	}

	var attrs map[string]any
	if err := json.Unmarshal(h.buf.Bytes(), &attrs); err != nil {
		return "", fmt.Errorf("error when unmarshaling inner handler's Handle result: %w", err)
	}
	out, err := json.Marshal(attrs)
	if err != nil {
		return "", fmt.Errorf("error when marshaling attrs: %w", err)
	}
	if len(attrs) == 0 {
		return "{}", nil
	}
	if !h.noColor {
		return color.WhiteString(string(out)), nil
	}
	return string(out), nil
}

func suppressDefaults(next func([]string, slog.Attr) slog.Attr) func([]string, slog.Attr) slog.Attr {
	return func(groups []string, a slog.Attr) slog.Attr {
		if len(groups) == 0 && (a.Key == slog.TimeKey || a.Key == slog.LevelKey || a.Key == slog.MessageKey) {
			return slog.Attr{}
		}
		if next == nil {
			return a
		}
		return next(groups, a)
	}
}

// New returns a logger at the given level writing pretty lines to w.
// A nil writer means stderr.
func New(w io.Writer, level slog.Level) *slog.Logger {
	if w == nil {
		w = os.Stderr
	}
	return slog.New(NewPrettyHandler(w, PrettyHandlerOptions{
		SlogOpts: slog.HandlerOptions{Level: level},
		NoColor:  color.NoColor,
	}))
}

// LevelFor maps the CLI verbosity flags to a log level
func LevelFor(verbose, quiet bool) slog.Level {
	switch {
	case verbose:
		return slog.LevelDebug
	case quiet:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}

// Discard returns a logger that drops everything, for tests and library defaults
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 4}))
}

// OrDefault returns l, or slog.Default() when l is nil
func OrDefault(l *slog.Logger) *slog.Logger {
	if l == nil {
		return slog.Default()
	}
	return l
}
