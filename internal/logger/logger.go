package logger

import (
	"sync"

	"go.uber.org/zap"
)

// Log levels used across the application.
const (
	DebugLevel = "debug"
	InfoLevel  = "info"
	WarnLevel  = "warn"
	ErrorLevel = "error"
)

var (
	processLogger *Logger
	processLevel  zap.AtomicLevel
	once          sync.Once
)

// Get returns the process logger. The first call builds it; every call sets
// its level, so loggers handed out before the configuration was read (and
// their Component children) follow the configured level.
func Get(level string) *Logger {
	once.Do(func() {
		processLevel = zap.NewAtomicLevelAt(toZapLevel(level))
		processLogger = newZapLogger(processLevel)
	})
	processLevel.SetLevel(toZapLevel(level))
	return processLogger
}
