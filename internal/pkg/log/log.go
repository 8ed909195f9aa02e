// Package log is a thin process-wide wrapper around a zap SugaredLogger.
package log

import (
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var sugar atomic.Pointer[zap.SugaredLogger]

func init() {
	sugar.Store(zap.NewNop().Sugar())
}

// Init builds the process logger. format is "console" or "json".
func Init(level, format string) error {
	logLevel := zap.NewAtomicLevel()
	if err := logLevel.UnmarshalText([]byte(level)); err != nil {
		logLevel.SetLevel(zap.InfoLevel)
	}

	var cfg zap.Config
	if format == "console" {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		cfg = zap.NewProductionConfig()
		cfg.Encoding = "json"
	}
	cfg.Level = logLevel
	cfg.OutputPaths = []string{"stderr"}

	logger, err := cfg.Build()
	if err != nil {
		return err
	}
	sugar.Store(logger.Sugar())
	return nil
}

// Set replaces the process logger, mainly for tests
func Set(l *zap.Logger) {
	sugar.Store(l.Sugar())
}

// Named returns a child logger tagged with a component name
func Named(name string) *zap.SugaredLogger {
	return sugar.Load().Named(name)
}

// Debugw logs a debug message with key/value pairs
func Debugw(msg string, keysAndValues ...interface{}) {
	sugar.Load().Debugw(msg, keysAndValues...)
}

// Infow logs an info message with key/value pairs
func Infow(msg string, keysAndValues ...interface{}) {
	sugar.Load().Infow(msg, keysAndValues...)
}

// Warnw logs a warning with key/value pairs
func Warnw(msg string, keysAndValues ...interface{}) {
	sugar.Load().Warnw(msg, keysAndValues...)
}

// Errorw logs an error with key/value pairs
func Errorw(msg string, keysAndValues ...interface{}) {
	sugar.Load().Errorw(msg, keysAndValues...)
}

// Error logs an error value under the "error" key
func Error(msg string, err error) {
	sugar.Load().Errorw(msg, "error", err)
}

// Sync flushes buffered log entries
func Sync() {
	_ = sugar.Load().Sync()
}
