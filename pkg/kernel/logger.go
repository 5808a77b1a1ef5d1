package kernel

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// nopHandler discards every record. Enabled reports false so callers
// skip formatting entirely.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	loggerPtr.Store(slog.New(nopHandler{}))
}

// SetLogger configures the logger shared by the kernel and all of its
// sub-packages. The kernel is silent by default. Pass nil to silence it
// again.
//
// Levels used:
//   - [slog.LevelDebug]: per-item tessellation problems, BVH build stats,
//     operand descriptions
//   - [slog.LevelInfo]: fast-path fallbacks
//   - [slog.LevelWarn]: empty results, singular transforms, dump paths
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = slog.New(nopHandler{})
	}
	loggerPtr.Store(l)
}

// Logger returns the current kernel logger. Sub-packages call this rather
// than holding their own logger so one SetLogger call configures all of them.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}
