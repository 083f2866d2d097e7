// Package logger owns the process-wide zap logger used by mobile-qa.
package logger

import (
	"fmt"
	"io"
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	globalLogger = zap.NewNop()
	fileWriter   *lumberjack.Logger
	mu           sync.Mutex
)

// Options configures Init.
type Options struct {
	Level   string    // debug, info, warn, error
	File    string    // optional JSON log file, rotated by size
	NoColor bool      // plain level names on the console
	Console io.Writer // defaults to stderr
}

// Init replaces the global logger. Calling it again closes the previous log file.
func Init(opts Options) error {
	mu.Lock()
	defer mu.Unlock()

	level := zap.NewAtomicLevel()
	if err := level.UnmarshalText([]byte(opts.Level)); err != nil || opts.Level == "" {
		level.SetLevel(zap.InfoLevel)
	}

	console := opts.Console
	if console == nil {
		console = os.Stderr
	}

	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05.000")
	if opts.NoColor {
		encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
	} else {
		encCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.Lock(zapcore.AddSync(console)), level),
	}

	if fileWriter != nil {
		fileWriter.Close()
		fileWriter = nil
	}
	if opts.File != "" {
		fileWriter = &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    20, // megabytes
			MaxBackups: 5,
		}
		// Probe the path now so a bad --log-file fails at startup.
		if _, err := fileWriter.Write(nil); err != nil {
			fileWriter = nil
			return fmt.Errorf("failed to create log file: %w", err)
		}
		jsonCfg := zap.NewProductionEncoderConfig()
		jsonCfg.EncodeTime = zapcore.ISO8601TimeEncoder
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(jsonCfg), zapcore.AddSync(fileWriter), level))
	}

	globalLogger = zap.New(zapcore.NewTee(cores...), zap.AddStacktrace(zap.ErrorLevel))
	return nil
}

// L returns the global logger. It is a no-op logger until Init is called.
func L() *zap.Logger {
	mu.Lock()
	defer mu.Unlock()
	return globalLogger
}

// Named returns a child of the global logger, or l itself when it is non-nil.
// Constructors use it to honour an injected logger.
func Named(l *zap.Logger, name string) *zap.Logger {
	if l != nil {
		return l
	}
	return L().Named(name)
}

// Close flushes the logger and closes the log file.
func Close() {
	mu.Lock()
	defer mu.Unlock()

	_ = globalLogger.Sync()
	if fileWriter != nil {
		fileWriter.Close()
		fileWriter = nil
	}
}

// ResetForTest restores the no-op logger.
func ResetForTest() {
	Close()
	mu.Lock()
	globalLogger = zap.NewNop()
	mu.Unlock()
}

// Info logs an info message.
func Info(format string, v ...interface{}) {
	L().Sugar().Infof(format, v...)
}

// Debug logs a debug message.
func Debug(format string, v ...interface{}) {
	L().Sugar().Debugf(format, v...)
}

// Error logs an error message.
func Error(format string, v ...interface{}) {
	L().Sugar().Errorf(format, v...)
}

// Warn logs a warning message.
func Warn(format string, v ...interface{}) {
	L().Sugar().Warnf(format, v...)
}
