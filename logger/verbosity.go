package logger

import (
	"sync/atomic"

	"go.uber.org/zap/zapcore"
)

// CLI -v counts.
const (
	VerbosityUser  = 0 // results and errors only
	VerbosityInfo  = 1 // -v: progress, startup, store status
	VerbosityDebug = 2 // -vv: pipeline stages, timing, config details
	VerbosityTrace = 3 // -vvv: per-statement detail
)

var verbosity atomic.Int32

// VerbosityToLevel maps a -v count to a zap level: none is Warn, -v is
// Info, anything more is Debug. Trace output is Debug entries gated by
// TraceEnabled.
func VerbosityToLevel(v int) zapcore.Level {
	switch {
	case v <= VerbosityUser:
		return zapcore.WarnLevel
	case v == VerbosityInfo:
		return zapcore.InfoLevel
	default:
		return zapcore.DebugLevel
	}
}

// SetVerbosity records v and adjusts Level.
func SetVerbosity(v int) {
	verbosity.Store(int32(v))
	Level.SetLevel(VerbosityToLevel(v))
}

// Verbosity returns the last value passed to SetVerbosity.
func Verbosity() int {
	return int(verbosity.Load())
}

// TraceEnabled reports whether per-statement logging was requested.
func TraceEnabled() bool {
	return Verbosity() >= VerbosityTrace
}

// LevelName describes a -v count for banners and help output.
func LevelName(v int) string {
	switch {
	case v < VerbosityUser:
		return "Unknown"
	case v == VerbosityUser:
		return "User"
	case v == VerbosityInfo:
		return "Info (-v)"
	case v == VerbosityDebug:
		return "Debug (-vv)"
	case v == VerbosityTrace:
		return "Trace (-vvv)"
	default:
		return "Trace (-vvv+)"
	}
}
