package logging

import (
	"log/slog"
	"sync/atomic"
)

// trace gates per-keypress diagnostics (edges, skipped entries). Init turns
// it on when the server level is TRACE.
var trace atomic.Bool

// SetTrace switches trace logging at runtime.
func SetTrace(on bool) { trace.Store(on) }

// TraceEnabled reports whether trace logging is on.
func TraceEnabled() bool { return trace.Load() }

// Trace logs at DEBUG through logger when tracing is on.
func Trace(logger *slog.Logger, msg string, args ...any) {
	if trace.Load() {
		logger.Debug(msg, args...)
	}
}

// TraceDefault is Trace on the default logger.
func TraceDefault(msg string, args ...any) {
	if trace.Load() {
		slog.Debug(msg, args...)
	}
}
