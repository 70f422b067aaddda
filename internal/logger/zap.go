package logger

import (
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger wraps zap's SugaredLogger.
type Logger struct {
	*zap.SugaredLogger
}

// defaultZapLevel defines the fallback log level when an unknown level string is provided.
const defaultZapLevel = zapcore.InfoLevel

// toZapLevel converts a textual level to zapcore.Level using known level constants.
func toZapLevel(levelStr string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(levelStr)) {
	case DebugLevel:
		return zapcore.DebugLevel
	case InfoLevel:
		return zapcore.InfoLevel
	case WarnLevel:
		return zapcore.WarnLevel
	case ErrorLevel:
		return zapcore.ErrorLevel
	default:
		return defaultZapLevel
	}
}

// newConsoleCore builds a zapcore.Core with a console encoder targeting stdout.
func newConsoleCore(level zapcore.LevelEnabler) zapcore.Core {
	cfg := zap.NewProductionEncoderConfig()
	cfg.TimeKey = "ts"
	cfg.EncodeTime = zapcore.RFC3339TimeEncoder
	cfg.EncodeLevel = zapcore.CapitalLevelEncoder

	encoder := zapcore.NewConsoleEncoder(cfg)
	ws := zapcore.Lock(os.Stdout) // thread-safe writer
	return zapcore.NewCore(encoder, zapcore.AddSync(ws), level)
}

// newZapLogger constructs a sugared zap logger gated by level.
func newZapLogger(level zap.AtomicLevel) *Logger {
	core := newConsoleCore(level)
	return &Logger{
		SugaredLogger: zap.New(core, zap.AddCaller()).Sugar(),
	}
}

// Component returns a child logger whose entries carry the component name,
// e.g. "relay" or "archiver".
func (l *Logger) Component(name string) *Logger {
	return &Logger{SugaredLogger: l.SugaredLogger.Named(name)}
}

// NewNop returns a logger that discards every entry.
func NewNop() *Logger {
	return &Logger{SugaredLogger: zap.NewNop().Sugar()}
}
