// Package log carries a request scoped *slog.Logger through a context.
package log

import (
	"context"
	"io"
	"log/slog"
	"strings"

	"github.com/samber/lo"
)

type contextKey struct{}

var discard = slog.New(slog.NewJSONHandler(io.Discard, nil))

// New returns a JSON logger writing to w at the given level.
// When omitTime is set the time attribute is dropped, for hosts that stamp lines themselves.
func New(w io.Writer, level slog.Level, omitTime bool) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			return lo.Ternary(omitTime && len(groups) == 0 && a.Key == slog.TimeKey, slog.Attr{}, a)
		},
	}))
}

// ParseLevel maps a level name to a slog.Level, defaulting to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func NewContext(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, contextKey{}, logger)
}

// FromContextOrDiscard returns the logger stored in ctx, or one that drops everything.
func FromContextOrDiscard(ctx context.Context) *slog.Logger {
	if v, ok := ctx.Value(contextKey{}).(*slog.Logger); ok {
		return v
	}
	return discard
}

// Prompt returns a log attribute holding at most 80 runes of the prompt.
func Prompt(p string) slog.Attr {
	const max = 80
	r := []rune(p)
	if len(r) > max {
		return slog.String("prompt", string(r[:max])+"...")
	}
	return slog.String("prompt", p)
}
