// Package logging defines the structured-logging interface used by the
// server components. The default implementation wraps log/slog.
package logging

import "context"

// Logger is a context-aware, structured logger.
//
// The variadic args are interpreted as key–value pairs, e.g.:
//
//	log.Info(ctx, "token issued", "username", u.Username, "expires", exp)
type Logger interface {
	// Debug logs diagnostics that are too noisy for production,
	// such as the reason a token was rejected.
	Debug(ctx context.Context, msg string, args ...any)

	// Info logs an informational message.
	Info(ctx context.Context, msg string, args ...any)

	// Warn logs a warning message for unusual but non-fatal conditions.
	Warn(ctx context.Context, msg string, args ...any)

	// Error logs an error message for failures.
	Error(ctx context.Context, msg string, args ...any)

	// With returns a child logger that always includes the given key–value pairs.
	With(args ...any) Logger
}

type nop struct{}

func (nop) Debug(context.Context, string, ...any) {}
func (nop) Info(context.Context, string, ...any)  {}
func (nop) Warn(context.Context, string, ...any)  {}
func (nop) Error(context.Context, string, ...any) {}
func (n nop) With(...any) Logger                  { return n }

// Nop returns a Logger that discards everything.
func Nop() Logger {
	return nop{}
}
