// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"
)

// Logger defines the interface for logging operations.
// It provides methods for different log levels and formatted output.
//
// This interface supports both CLI output and structured logging for
// long-running verification, allowing seamless switching between
// human-readable output and machine-readable records.
type Logger interface {
	// Printf formats and prints a log message.
	Printf(format string, v ...any)
	// Println prints a log message with a newline.
	Println(v ...any)
	// SetOutput sets the output destination for the logger.
	SetOutput(w io.Writer)
}

// CLILogger implements Logger using the standard log package.
// It's designed for command-line interface output with human-readable formatting.
type CLILogger struct{ logger *log.Logger }

// NewCLILogger creates a new CLI logger with timestamps disabled.
// This is suitable for user-facing CLI output.
func NewCLILogger() *CLILogger {
	l := log.New(os.Stdout, "", 0)
	return &CLILogger{logger: l}
}

// Printf formats and prints a log message using fmt.Printf semantics.
func (c *CLILogger) Printf(format string, v ...any) { c.logger.Printf(format, v...) }

// Println prints a log message with a newline.
func (c *CLILogger) Println(v ...any) { c.logger.Println(v...) }

// SetOutput sets the output destination for the CLI logger.
func (c *CLILogger) SetOutput(w io.Writer) { c.logger.SetOutput(w) }

// Config selects the level, format and destination of a [StructuredLogger].
type Config struct {
	// Level is a logrus level name. Empty means "info".
	Level string `json:"level" yaml:"level"`
	// Format is "json" (default) or "text".
	Format string `json:"format" yaml:"format"`
	// File, when set, receives the log through a rotating writer.
	File string `json:"file,omitempty" yaml:"file,omitempty"`
	// MaxSizeMB is the size at which File is rotated.
	MaxSizeMB int `json:"maxSizeMB,omitempty" yaml:"maxSizeMB,omitempty"`
	// MaxBackups is the number of rotated files kept.
	MaxBackups int `json:"maxBackups,omitempty" yaml:"maxBackups,omitempty"`
	// MaxAgeDays is the retention of rotated files.
	MaxAgeDays int `json:"maxAgeDays,omitempty" yaml:"maxAgeDays,omitempty"`
	// Compress gzips rotated files.
	Compress bool `json:"compress,omitempty" yaml:"compress,omitempty"`
}

// StructuredLogger implements Logger on top of [logrus].
// Every record carries the service name and version; verification code
// adds host and result fields through WithFields.
//
// StructuredLogger is safe for concurrent use by multiple goroutines.
//
// [logrus]: https://github.com/sirupsen/logrus
type StructuredLogger struct {
	*logrus.Logger

	mu   sync.Mutex
	sink io.WriteCloser
}

// NewStructuredLogger creates a logger writing to os.Stderr, or to a
// rotating file when cfg.File is set.
func NewStructuredLogger(cfg Config, service, version string) (*StructuredLogger, error) {
	l := &StructuredLogger{Logger: logrus.New()}

	level, err := logrus.ParseLevel(strings.ToLower(strings.TrimSpace(cfg.Level)))
	if err != nil {
		level = logrus.InfoLevel
	}
	l.SetLevel(level)

	switch strings.ToLower(strings.TrimSpace(cfg.Format)) {
	case "text":
		l.SetFormatter(&logrus.TextFormatter{
			TimestampFormat: time.RFC3339Nano,
			FullTimestamp:   true,
			DisableColors:   true,
		})
	default:
		l.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: time.RFC3339Nano,
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyTime:  "timestamp",
				logrus.FieldKeyLevel: "level",
				logrus.FieldKeyMsg:   "message",
			},
		})
	}

	l.Logger.SetOutput(os.Stderr)
	if cfg.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.File), 0o755); err != nil {
			return nil, fmt.Errorf("logger: create log directory: %w", err)
		}
		lj := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    max(1, cfg.MaxSizeMB),
			MaxBackups: max(0, cfg.MaxBackups),
			MaxAge:     max(0, cfg.MaxAgeDays),
			Compress:   cfg.Compress,
		}
		l.sink = lj
		l.Logger.SetOutput(lj)
	}

	l.AddHook(&ServiceHook{Service: service, Version: version})
	return l, nil
}

// Printf logs a formatted message at info level.
func (l *StructuredLogger) Printf(format string, v ...any) { l.Logger.Infof(format, v...) }

// Println logs a message at info level.
func (l *StructuredLogger) Println(v ...any) { l.Logger.Infoln(v...) }

// SetOutput replaces the destination. A nil writer discards output.
func (l *StructuredLogger) SetOutput(w io.Writer) {
	if w == nil {
		w = io.Discard
	}
	l.Logger.SetOutput(w)
}

// Rotate forces a rotation of the log file, if any.
func (l *StructuredLogger) Rotate() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if lj, ok := l.sink.(*lumberjack.Logger); ok {
		return lj.Rotate()
	}
	return nil
}

// Close closes the log file, if any.
func (l *StructuredLogger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.sink != nil {
		return l.sink.Close()
	}
	return nil
}

// ServiceHook stamps every record with the service identity.
type ServiceHook struct {
	Service string
	Version string
}

// Levels implements [logrus.Hook].
func (h *ServiceHook) Levels() []logrus.Level { return logrus.AllLevels }

// Fire implements [logrus.Hook].
func (h *ServiceHook) Fire(entry *logrus.Entry) error {
	entry.Data["service"] = h.Service
	entry.Data["version"] = h.Version
	return nil
}
