// Package logger provides a shared logging capability for the share engine.
package logger

import (
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	log  *zap.SugaredLogger
	once sync.Once
)

// Initialize sets up the global logger. Safe to call multiple times; only the
// first call takes effect. Output is JSON unless MBK_LOG_FORMAT=text.
func Initialize() {
	once.Do(func() {
		log = newSugaredLogger()
	})
}

func newSugaredLogger() *zap.SugaredLogger {
	level := zapcore.InfoLevel
	if v := os.Getenv("MBK_LOG_LEVEL"); v != "" {
		if parsed, err := zapcore.ParseLevel(strings.ToLower(v)); err == nil {
			level = parsed
		}
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "timestamp"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	var encoder zapcore.Encoder
	if strings.EqualFold(os.Getenv("MBK_LOG_FORMAT"), "text") {
		encoderCfg.EncodeLevel = zapcore.CapitalLevelEncoder
		encoder = zapcore.NewConsoleEncoder(encoderCfg)
	} else {
		encoder = zapcore.NewJSONEncoder(encoderCfg)
	}

	core := zapcore.NewCore(encoder, zapcore.Lock(os.Stderr), level)
	return zap.New(core, zap.AddCallerSkip(1)).Sugar()
}

func ensure() *zap.SugaredLogger {
	Initialize()
	return log
}

// Debug logs a message at debug level.
func Debug(args ...any) { ensure().Debug(args...) }

// Debugf logs a formatted message at debug level.
func Debugf(format string, args ...any) { ensure().Debugf(format, args...) }

// Info logs a message at info level.
func Info(args ...any) { ensure().Info(args...) }

// Infof logs a formatted message at info level.
func Infof(format string, args ...any) { ensure().Infof(format, args...) }

// Warn logs a message at warn level.
func Warn(args ...any) { ensure().Warn(args...) }

// Warnf logs a formatted message at warn level.
func Warnf(format string, args ...any) { ensure().Warnf(format, args...) }

// Error logs a message at error level.
func Error(args ...any) { ensure().Error(args...) }

// Errorf logs a formatted message at error level.
func Errorf(format string, args ...any) { ensure().Errorf(format, args...) }

// Fatalf logs a formatted message at fatal level and exits.
func Fatalf(format string, args ...any) { ensure().Fatalf(format, args...) }

// Infow logs a message at info level with structured key/value pairs.
func Infow(msg string, keysAndValues ...any) { ensure().Infow(msg, keysAndValues...) }

// Errorw logs a message at error level with structured key/value pairs.
func Errorw(msg string, keysAndValues ...any) { ensure().Errorw(msg, keysAndValues...) }

// Sync flushes any buffered log entries.
func Sync() error {
	if log == nil {
		return nil
	}
	return log.Sync()
}
