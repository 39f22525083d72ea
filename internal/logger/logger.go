package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Level represents the logging level
type Level int

const (
	// DEBUG level for detailed debugging information
	DEBUG Level = iota
	// INFO level for informational messages
	INFO
	// WARN level for warning messages
	WARN
	// ERROR level for error messages
	ERROR
)

// FileName is the name of the active log file inside LogDir
const FileName = "ezs2t-recorder.log"

// String returns the string representation of the level
func (l Level) String() string {
	switch l {
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case WARN:
		return "WARN"
	case ERROR:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel parses a level name such as "info" or "DEBUG"
func ParseLevel(s string) (Level, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return DEBUG, nil
	case "INFO":
		return INFO, nil
	case "WARN", "WARNING":
		return WARN, nil
	case "ERROR":
		return ERROR, nil
	default:
		return INFO, fmt.Errorf("invalid log level: %q", s)
	}
}

// Logger writes leveled messages to a size-rotated log file
type Logger struct {
	mu       sync.RWMutex
	level    Level
	file     *lumberjack.Logger
	infoLog  *log.Logger
	warnLog  *log.Logger
	errorLog *log.Logger
	debugLog *log.Logger
}

// Config holds logger configuration
type Config struct {
	LogDir        string
	Level         Level
	RetentionDays int
	MaxSizeMB     int
	// Stderr mirrors every line to standard error
	Stderr bool
}

// DefaultConfig returns the default logger configuration
func DefaultConfig() Config {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = "."
	}

	return Config{
		LogDir:        filepath.Join(homeDir, ".local", "state", "ezs2t-recorder", "logs"),
		Level:         INFO,
		RetentionDays: 7,
		MaxSizeMB:     10,
	}
}

// New creates a new logger
func New(config Config) (*Logger, error) {
	if err := os.MkdirAll(config.LogDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	file := &lumberjack.Logger{
		Filename:  filepath.Join(config.LogDir, FileName),
		MaxSize:   config.MaxSizeMB,
		MaxAge:    config.RetentionDays,
		LocalTime: true,
	}

	var out io.Writer = file
	if config.Stderr {
		out = io.MultiWriter(file, os.Stderr)
	}

	l := newWithWriter(out, config.Level)
	l.file = file
	return l, nil
}

// NewWriter creates a logger writing to w without rotation
func NewWriter(w io.Writer, level Level) *Logger {
	return newWithWriter(w, level)
}

// Nop returns a logger that discards everything
func Nop() *Logger {
	return newWithWriter(io.Discard, ERROR)
}

func newWithWriter(w io.Writer, level Level) *Logger {
	return &Logger{
		level:    level,
		infoLog:  log.New(w, "[INFO] ", log.LstdFlags),
		warnLog:  log.New(w, "[WARN] ", log.LstdFlags),
		errorLog: log.New(w, "[ERROR] ", log.LstdFlags),
		debugLog: log.New(w, "[DEBUG] ", log.LstdFlags),
	}
}

func (l *Logger) logf(level Level, target func() *log.Logger, format string, v ...interface{}) {
	if l == nil {
		return
	}

	l.mu.RLock()
	enabled := l.level <= level
	out := target()
	l.mu.RUnlock()

	if enabled && out != nil {
		out.Printf(format, v...)
	}
}

// Debug logs a debug message
func (l *Logger) Debug(format string, v ...interface{}) {
	l.logf(DEBUG, func() *log.Logger { return l.debugLog }, format, v...)
}

// Info logs an informational message
func (l *Logger) Info(format string, v ...interface{}) {
	l.logf(INFO, func() *log.Logger { return l.infoLog }, format, v...)
}

// Warn logs a warning message
func (l *Logger) Warn(format string, v ...interface{}) {
	l.logf(WARN, func() *log.Logger { return l.warnLog }, format, v...)
}

// Error logs an error message
func (l *Logger) Error(format string, v ...interface{}) {
	l.logf(ERROR, func() *log.Logger { return l.errorLog }, format, v...)
}

// Rotate closes the current log file and starts a new one
func (l *Logger) Rotate() error {
	if l == nil || l.file == nil {
		return nil
	}
	return l.file.Rotate()
}

// Close closes the log file
func (l *Logger) Close() error {
	if l == nil {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file != nil {
		return l.file.Close()
	}
	return nil
}

// SetLevel sets the logging level
func (l *Logger) SetLevel(level Level) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.level = level
}

// GetLevel returns the current logging level
func (l *Logger) GetLevel() Level {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return l.level
}
