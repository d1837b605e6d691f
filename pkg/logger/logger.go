// Package logger provides structured logging utilities.
package logger

import (
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is a wrapper around zap's sugared logger, so call sites can pass
// loosely-typed key/value pairs (the style used throughout this module)
// without hand-building zap.Field values at every call.
type Logger struct {
	*zap.SugaredLogger
	base *zap.Logger
}

// New creates a new structured logger.
func New(level string) (*Logger, error) {
	config := zap.Config{
		Level:       zap.NewAtomicLevelAt(parseLevel(level)),
		Development: false,
		Encoding:    "json",
		EncoderConfig: zapcore.EncoderConfig{
			TimeKey:        "ts",
			LevelKey:       "level",
			NameKey:        "logger",
			CallerKey:      "caller",
			MessageKey:     "msg",
			StacktraceKey:  "stacktrace",
			LineEnding:     zapcore.DefaultLineEnding,
			EncodeLevel:    zapcore.LowercaseLevelEncoder,
			EncodeTime:     zapcore.ISO8601TimeEncoder,
			EncodeDuration: zapcore.SecondsDurationEncoder,
			EncodeCaller:   zapcore.ShortCallerEncoder,
		},
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
	}

	zl, err := config.Build()
	if err != nil {
		return nil, err
	}

	return wrap(zl), nil
}

// NewDevelopment creates a development logger with pretty output.
func NewDevelopment() (*Logger, error) {
	config := zap.NewDevelopmentConfig()
	config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder

	zl, err := config.Build()
	if err != nil {
		return nil, err
	}

	return wrap(zl), nil
}

func wrap(zl *zap.Logger) *Logger {
	return &Logger{SugaredLogger: zl.Sugar(), base: zl}
}

// Sync flushes any buffered log entries.
func (l *Logger) Sync() error {
	return l.base.Sync()
}

// With creates a child logger with additional key/value pairs.
func (l *Logger) With(kvs ...any) *Logger {
	return &Logger{SugaredLogger: l.SugaredLogger.With(kvs...), base: l.base}
}

// Debug logs msg at debug level with structured key/value pairs.
func (l *Logger) Debug(msg string, kvs ...any) { l.SugaredLogger.Debugw(msg, kvs...) }

// Info logs msg at info level with structured key/value pairs.
func (l *Logger) Info(msg string, kvs ...any) { l.SugaredLogger.Infow(msg, kvs...) }

// Warn logs msg at warn level with structured key/value pairs.
func (l *Logger) Warn(msg string, kvs ...any) { l.SugaredLogger.Warnw(msg, kvs...) }

// Error logs msg at error level with structured key/value pairs.
func (l *Logger) Error(msg string, kvs ...any) { l.SugaredLogger.Errorw(msg, kvs...) }

// WithContext creates a child logger with request context fields.
func (l *Logger) WithContext(correlationID, tenantID, userID string) *Logger {
	return l.With(
		"correlation_id", correlationID,
		"tenant_id", tenantID,
		"user_id", userID,
	)
}

func parseLevel(level string) zapcore.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zapcore.DebugLevel
	case "info":
		return zapcore.InfoLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	case "fatal":
		return zapcore.FatalLevel
	default:
		return zapcore.InfoLevel
	}
}

// Global logger instance for convenience.
var global *Logger

func init() {
	if os.Getenv("ENV") == "development" {
		global, _ = NewDevelopment()
	} else {
		global, _ = New("info")
	}
}

// Global returns the global logger instance.
func Global() *Logger {
	return global
}

// SetGlobal sets the global logger instance.
func SetGlobal(l *Logger) {
	global = l
}
