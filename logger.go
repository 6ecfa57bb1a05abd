package raytrace

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// nopHandler is a slog.Handler that silently discards all log records.
// Enabled returns false so callers skip message formatting entirely.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

// newNopLogger creates a logger that silently discards all output.
func newNopLogger() *slog.Logger { return slog.New(nopHandler{}) }

// loggerPtr stores the active logger. Accessed atomically so that
// SetLogger can be called concurrently with logging from any goroutine.
var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	loggerPtr.Store(newNopLogger())
}

// SetLogger configures the logger for raytrace and its sub-packages. By
// default nothing is logged.
//
// Pass nil to restore the silent default.
//
// Log levels used by raytrace:
//   - [slog.LevelDebug]: per-frame diagnostics (camera state, dispatch sizes)
//   - [slog.LevelInfo]: lifecycle events (GPU adapter selected, kernel compiled)
//   - [slog.LevelWarn]: non-fatal issues (resource release errors)
//
// Example:
//
//	raytrace.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})))
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = newNopLogger()
	}
	loggerPtr.Store(l)
}

// Logger returns the current logger. Sub-packages call this to share the
// same configuration. Safe for concurrent use.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}
