package logger

import (
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// Logger is the process-wide logger. It is a no-op until Initialize runs.
	Logger = zap.NewNop().Sugar()

	// Level is shared by every core built here so -v can change it later.
	Level = zap.NewAtomicLevelAt(zap.InfoLevel)
)

// Initialize installs the global logger writing to stderr, as JSON lines
// or as colored console output.
func Initialize(jsonOutput bool) error {
	return InitializeTo(os.Stderr, jsonOutput)
}

// InitializeTo is Initialize with an explicit destination.
func InitializeTo(w io.Writer, jsonOutput bool) error {
	Logger = zap.New(newCore(zapcore.AddSync(w), jsonOutput)).Sugar()
	return nil
}

func newCore(out zapcore.WriteSyncer, jsonOutput bool) zapcore.Core {
	if jsonOutput {
		enc := zap.NewProductionEncoderConfig()
		enc.EncodeTime = zapcore.ISO8601TimeEncoder
		return zapcore.NewCore(zapcore.NewJSONEncoder(enc), out, Level)
	}
	enc := zap.NewDevelopmentEncoderConfig()
	enc.EncodeLevel = zapcore.CapitalColorLevelEncoder
	enc.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
	return zapcore.NewCore(zapcore.NewConsoleEncoder(enc), out, Level)
}

// Cleanup flushes buffered entries.
func Cleanup() {
	_ = Logger.Sync()
}

func Infow(msg string, keysAndValues ...interface{})  { Logger.Infow(msg, keysAndValues...) }
func Warnw(msg string, keysAndValues ...interface{})  { Logger.Warnw(msg, keysAndValues...) }
func Errorw(msg string, keysAndValues ...interface{}) { Logger.Errorw(msg, keysAndValues...) }
func Debugw(msg string, keysAndValues ...interface{}) { Logger.Debugw(msg, keysAndValues...) }
