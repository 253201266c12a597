// Package logctx carries a request-scoped *slog.Logger through context.Context.
package logctx

import (
	"context"
	"io"
	"log/slog"

	"github.com/pageza/profiles/backend/config"
)

type ctxKey struct{}

// Into returns a copy of ctx holding l.
func Into(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// From returns the logger stored in ctx, or slog.Default().
func From(ctx context.Context) *slog.Logger {
	if v := ctx.Value(ctxKey{}); v != nil {
		if l, ok := v.(*slog.Logger); ok && l != nil {
			return l
		}
	}
	return slog.Default()
}

// New builds the process logger for env: text at debug level for local work,
// JSON at info level for production and CI.
func New(env config.Environment, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: env.LogLevel()}
	var h slog.Handler
	if env.JSONLogs() {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}
	return slog.New(h).With(slog.String("env", string(env)))
}
