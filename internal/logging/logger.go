// Package logging provides categorized file-based logging for themetree.
// Logs are written to <dir>/logs/ with one file per category. When debug
// mode is off the package is a silent no-op, so library callers can log
// freely without forcing output on embedders.
package logging

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
)

// Category represents a log category/system.
type Category string

const (
	CategoryBoot    Category = "boot"    // Startup and configuration
	CategoryAPI     Category = "api"     // LLM provider calls
	CategoryMindmap Category = "mindmap" // Parsing, validation, generation
	CategoryBatch   Category = "batch"   // Concurrent batch runner
	CategoryStore   Category = "store"   // Result cache and archive
)

// Log levels.
const (
	LevelDebug = 0
	LevelInfo  = 1
	LevelWarn  = 2
	LevelError = 3
)

// Logger wraps a standard logger bound to one category file.
type Logger struct {
	category Category
	logger   *log.Logger
	file     *os.File
}

var (
	loggersMu sync.Mutex
	loggers   = make(map[Category]*Logger)
	logsDir   string
	enabled   bool
	logLevel  = LevelDebug
)

// Initialize sets up the logging directory. When debug is false the
// package stays disabled and every call becomes a no-op.
func Initialize(dir string, debug bool) error {
	loggersMu.Lock()
	defer loggersMu.Unlock()

	enabled = debug
	if !enabled {
		return nil
	}
	if dir == "" {
		return fmt.Errorf("logging directory required")
	}

	logsDir = filepath.Join(dir, "logs")
	if err := os.MkdirAll(logsDir, 0755); err != nil {
		return fmt.Errorf("failed to create logs directory: %w", err)
	}
	return nil
}

// SetLevel sets the minimum level that gets written.
func SetLevel(level int) {
	loggersMu.Lock()
	defer loggersMu.Unlock()
	logLevel = level
}

// Shutdown closes all open log files.
func Shutdown() {
	loggersMu.Lock()
	defer loggersMu.Unlock()
	for _, l := range loggers {
		if l.file != nil {
			_ = l.file.Close()
		}
	}
	loggers = make(map[Category]*Logger)
}

// Get returns the logger for a category, creating its file on first use.
func Get(category Category) *Logger {
	loggersMu.Lock()
	defer loggersMu.Unlock()

	if l, ok := loggers[category]; ok {
		return l
	}

	l := &Logger{category: category}
	if enabled && logsDir != "" {
		path := filepath.Join(logsDir, string(category)+".log")
		f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err == nil {
			l.file = f
			l.logger = log.New(f, "", log.LstdFlags|log.Lmicroseconds)
		}
	}
	loggers[category] = l
	return l
}

func (l *Logger) write(level int, tag, format string, args ...interface{}) {
	if l == nil || l.logger == nil || level < logLevel {
		return
	}
	l.logger.Printf("[%s] %s", tag, fmt.Sprintf(format, args...))
}

// Debug logs at debug level.
func (l *Logger) Debug(format string, args ...interface{}) {
	l.write(LevelDebug, "DEBUG", format, args...)
}

// Info logs at info level.
func (l *Logger) Info(format string, args ...interface{}) {
	l.write(LevelInfo, "INFO", format, args...)
}

// Warn logs at warn level.
func (l *Logger) Warn(format string, args ...interface{}) {
	l.write(LevelWarn, "WARN", format, args...)
}

// Error logs at error level.
func (l *Logger) Error(format string, args ...interface{}) {
	l.write(LevelError, "ERROR", format, args...)
}

// Category convenience helpers, mirroring the call sites' shape:
// logging.API("..."), logging.BatchWarn("...") and so on.

func Boot(format string, args ...interface{})    { Get(CategoryBoot).Info(format, args...) }
func API(format string, args ...interface{})     { Get(CategoryAPI).Info(format, args...) }
func APIWarn(format string, args ...interface{}) { Get(CategoryAPI).Warn(format, args...) }
func APIError(format string, args ...interface{}) {
	Get(CategoryAPI).Error(format, args...)
}
func Mindmap(format string, args ...interface{}) { Get(CategoryMindmap).Info(format, args...) }
func MindmapError(format string, args ...interface{}) {
	Get(CategoryMindmap).Error(format, args...)
}
func Batch(format string, args ...interface{})     { Get(CategoryBatch).Info(format, args...) }
func BatchWarn(format string, args ...interface{}) { Get(CategoryBatch).Warn(format, args...) }
func BatchError(format string, args ...interface{}) {
	Get(CategoryBatch).Error(format, args...)
}
func Store(format string, args ...interface{}) { Get(CategoryStore).Info(format, args...) }
func StoreError(format string, args ...interface{}) {
	Get(CategoryStore).Error(format, args...)
}
