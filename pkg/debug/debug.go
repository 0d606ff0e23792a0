// Package debug provides global verbose-logging switches.
package debug

import "log/slog"

// Enabled forces debug-level logging with source locations. It must be set
// before the logger is built.
var Enabled bool

// Gestures controls per-frame gesture traces (score values, latch edges,
// timer starts). Use --debug-gestures to enable these very verbose logs.
var Gestures bool

// Trace logs at debug level only if gesture tracing is enabled.
func Trace(logger *slog.Logger, msg string, args ...any) {
	if Gestures && logger != nil {
		logger.Debug(msg, args...)
	}
}
