package slogx

import (
	"context"
	"log/slog"
)

type ctxKey struct{}

func WithContext(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, logger)
}

func FromContext(ctx context.Context) *slog.Logger {
	l, ok := ctx.Value(ctxKey{}).(*slog.Logger)
	if !ok {
		return slog.Default()
	}
	return l
}

// WithCommand tags the contextual logger with the CLI command being run.
func WithCommand(ctx context.Context, command string) context.Context {
	l := FromContext(ctx)
	return WithContext(ctx, l.With("command", command))
}

// WithActor tags the contextual logger with the authenticated username.
func WithActor(ctx context.Context, username string) context.Context {
	l := FromContext(ctx)
	return WithContext(ctx, l.With("actor", username))
}
