package logger

import (
	"context"
	"log/slog"
	"os"
)

type contextKey struct{}

var loggerKey = contextKey{}

// Initialize installs the default logger. The worker wants plain text lines
// on stderr; the CLI commands swap in the pretty handler via InitializePretty.
func Initialize(debug, verbose bool) {
	opts := handlerOptions(debug, verbose)
	handler := slog.NewTextHandler(os.Stderr, opts)
	slog.SetDefault(slog.New(handler))
}

// InitializePretty installs the human-friendly colored handler.
func InitializePretty(debug, verbose bool) {
	opts := handlerOptions(debug, verbose)
	slog.SetDefault(slog.New(NewPrettyHandler(os.Stderr, opts)))
}

func handlerOptions(debug, verbose bool) *slog.HandlerOptions {
	level := slog.LevelWarn
	if debug {
		level = slog.LevelDebug
	} else if verbose {
		level = slog.LevelInfo
	}

	return &slog.HandlerOptions{
		Level:     level,
		AddSource: debug,
	}
}

func FromContext(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey).(*slog.Logger); ok {
		return l
	}
	return slog.Default()
}

func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// With attaches attributes to the context logger, e.g. the event id of the
// analysis currently running.
func With(ctx context.Context, args ...any) context.Context {
	l := FromContext(ctx).With(args...)
	return WithLogger(ctx, l)
}

func Debug(ctx context.Context, msg string, args ...any) {
	FromContext(ctx).Debug(msg, args...)
}

func Info(ctx context.Context, msg string, args ...any) {
	FromContext(ctx).Info(msg, args...)
}

func Warn(ctx context.Context, msg string, args ...any) {
	FromContext(ctx).Warn(msg, args...)
}

func Error(ctx context.Context, msg string, err error, args ...any) {
	if err != nil {
		args = append(args, slog.Any("error", err))
	}
	FromContext(ctx).Error(msg, args...)
}
