// Package logger wraps zap with the settings the service uses everywhere.
// The output format follows the gin mode: colored console lines in debug,
// JSON otherwise.
package logger

import (
	"os"
	"strings"
	"sync/atomic"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is a zap.Logger whose level can be changed while running.
type Logger struct {
	*zap.Logger
	level zap.AtomicLevel
}

// New creates a JSON logger writing to stdout at the given level.
func New(level string) (*Logger, error) {
	return FromConfig(gin.ReleaseMode, level)
}

// FromConfig builds the logger for a gin mode and level name, as read from
// GIN_MODE and LOG_LEVEL. Unknown levels fall back to info.
func FromConfig(ginMode, level string) (*Logger, error) {
	atom := zap.NewAtomicLevelAt(parseLevel(level))

	var cfg zap.Config
	if ginMode == gin.DebugMode {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		cfg = zap.NewProductionConfig()
		// request logs are already one line per call
		cfg.Sampling = nil
		cfg.EncoderConfig.TimeKey = "ts"
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		cfg.EncoderConfig.EncodeDuration = zapcore.MillisDurationEncoder
	}
	cfg.Level = atom

	l, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return &Logger{Logger: l, level: atom}, nil
}

// NewNop returns a logger that discards everything.
func NewNop() *Logger {
	return &Logger{Logger: zap.NewNop(), level: zap.NewAtomicLevel()}
}

// SetLevel changes the level of this logger and every child derived from it.
func (l *Logger) SetLevel(level string) {
	l.level.SetLevel(parseLevel(level))
}

// Level reports the current minimum level.
func (l *Logger) Level() zapcore.Level {
	return l.level.Level()
}

// With creates a child logger with additional fields. The child shares the
// parent's level.
func (l *Logger) With(fields ...zap.Field) *Logger {
	return &Logger{Logger: l.Logger.With(fields...), level: l.level}
}

// WithRequest creates a child logger carrying the request identifiers.
func (l *Logger) WithRequest(correlationID, userID string) *Logger {
	return l.With(
		zap.String("correlation_id", correlationID),
		zap.String("user_id", userID),
	)
}

func parseLevel(level string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

var global atomic.Pointer[Logger]

// Global returns the process-wide logger. Until SetGlobal runs it is built
// from GIN_MODE and LOG_LEVEL in the environment.
func Global() *Logger {
	if l := global.Load(); l != nil {
		return l
	}
	l, err := FromConfig(os.Getenv("GIN_MODE"), os.Getenv("LOG_LEVEL"))
	if err != nil {
		l = NewNop()
	}
	global.CompareAndSwap(nil, l)
	return global.Load()
}

// SetGlobal replaces the process-wide logger.
func SetGlobal(l *Logger) {
	global.Store(l)
}
