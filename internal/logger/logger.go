package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"
)

// Level represents log severity
type Level int

const (
	DEBUG Level = iota
	INFO
	WARN
	ERROR
)

// String returns the string representation of the log level
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

// ParseLevel converts a level name to a Level, defaulting to INFO
func ParseLevel(s string) Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return DEBUG
	case "WARN", "WARNING":
		return WARN
	case "ERROR":
		return ERROR
	default:
		return INFO
	}
}

// Field represents a key-value pair for structured logging
type Field struct {
	Key   string
	Value interface{}
}

// F is a shorthand for creating a Field
func F(key string, value interface{}) Field {
	return Field{Key: key, Value: value}
}

// Config holds logger configuration
type Config struct {
	Level      Level  // Minimum log level
	FilePath   string // Path to log file, empty disables file output
	MaxSize    int64  // Max size in bytes before rotation
	MaxAge     int    // Max age in days
	MaxBackups int    // Max number of backup files
	Console    bool   // Also write to stderr
}

// DefaultConfig returns default logger configuration
func DefaultConfig() Config {
	home, _ := os.UserHomeDir()
	logPath := ""
	if home != "" {
		logPath = filepath.Join(home, ".ironboard", "logs", "ironboard.log")
	}

	return Config{
		Level:      INFO,
		FilePath:   logPath,
		MaxSize:    10 * 1024 * 1024, // 10MB
		MaxAge:     7,
		MaxBackups: 5,
		Console:    false, // stderr would draw over the TUI
	}
}

// output is shared by a logger and every logger derived from it
type output struct {
	mu      sync.Mutex
	config  Config
	file    *os.File
	writers []io.Writer
}

// Logger writes leveled entries with preset fields
type Logger struct {
	out    *output
	fields []Field
}

var (
	globalMu     sync.RWMutex
	globalLogger *Logger
)

// Init initializes the global logger. Calling it again replaces the
// previous logger and closes its file.
func Init(config Config) error {
	l, err := New(config)
	if err != nil {
		return err
	}
	globalMu.Lock()
	prev := globalLogger
	globalLogger = l
	globalMu.Unlock()
	if prev != nil {
		_ = prev.Close()
	}
	return nil
}

// New creates a new logger instance
func New(config Config) (*Logger, error) {
	out := &output{config: config}

	if config.FilePath != "" {
		if err := os.MkdirAll(filepath.Dir(config.FilePath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		if err := out.open(); err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		if err := out.rotateIfNeeded(); err != nil {
			return nil, err
		}
	} else if config.Console {
		out.writers = []io.Writer{os.Stderr}
	}

	return &Logger{out: out}, nil
}

// NewWriter creates a logger that writes to w only
func NewWriter(w io.Writer, level Level) *Logger {
	return &Logger{out: &output{config: Config{Level: level}, writers: []io.Writer{w}}}
}

// Nop returns a logger that discards everything
func Nop() *Logger {
	return &Logger{out: &output{config: Config{Level: ERROR + 1}}}
}

func (o *output) open() error {
	file, err := os.OpenFile(o.config.FilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return err
	}
	o.file = file
	o.writers = []io.Writer{file}
	if o.config.Console {
		o.writers = append(o.writers, os.Stderr)
	}
	return nil
}

// rotateIfNeeded must be called with mu held or before the output is shared
func (o *output) rotateIfNeeded() error {
	if o.file == nil {
		return nil
	}

	info, err := o.file.Stat()
	if err != nil {
		return err
	}

	if o.config.MaxSize > 0 && info.Size() >= o.config.MaxSize {
		return o.rotate()
	}
	if o.config.MaxAge > 0 && info.Size() > 0 &&
		time.Since(info.ModTime()) > time.Duration(o.config.MaxAge)*24*time.Hour {
		return o.rotate()
	}
	return nil
}

func (o *output) rotate() error {
	_ = o.file.Close()

	for i := o.config.MaxBackups - 1; i >= 1; i-- {
		_ = os.Rename(fmt.Sprintf("%s.%d", o.config.FilePath, i), fmt.Sprintf("%s.%d", o.config.FilePath, i+1))
	}

	if _, err := os.Stat(o.config.FilePath); err == nil {
		if err := os.Rename(o.config.FilePath, o.config.FilePath+".1"); err != nil {
			return err
		}
	}

	return o.open()
}

func (l *Logger) log(level Level, msg string, fields []Field) {
	if l == nil || level < l.out.config.Level {
		return
	}

	_, file, line, ok := runtime.Caller(2)
	caller := "???"
	if ok {
		caller = fmt.Sprintf("%s:%d", filepath.Base(file), line)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %-5s %s: %s", time.Now().Format("2006-01-02 15:04:05.000"), level, caller, msg)
	if len(l.fields)+len(fields) > 0 {
		b.WriteString(" |")
		for _, group := range [][]Field{l.fields, fields} {
			for _, f := range group {
				fmt.Fprintf(&b, " %s=%v", f.Key, f.Value)
			}
		}
	}
	b.WriteByte('\n')
	entry := []byte(b.String())

	l.out.mu.Lock()
	defer l.out.mu.Unlock()
	_ = l.out.rotateIfNeeded()
	for _, w := range l.out.writers {
		_, _ = w.Write(entry)
	}
}

// WithFields creates a new logger with preset fields
func (l *Logger) WithFields(fields ...Field) *Logger {
	if l == nil {
		return nil
	}
	merged := make([]Field, 0, len(l.fields)+len(fields))
	merged = append(merged, l.fields...)
	merged = append(merged, fields...)
	return &Logger{out: l.out, fields: merged}
}

// Debug logs a debug message
func (l *Logger) Debug(msg string, fields ...Field) {
	l.log(DEBUG, msg, fields)
}

// Info logs an info message
func (l *Logger) Info(msg string, fields ...Field) {
	l.log(INFO, msg, fields)
}

// Warn logs a warning message
func (l *Logger) Warn(msg string, fields ...Field) {
	l.log(WARN, msg, fields)
}

// Error logs an error message
func (l *Logger) Error(msg string, fields ...Field) {
	l.log(ERROR, msg, fields)
}

// Close closes the log file, if any
func (l *Logger) Close() error {
	if l == nil {
		return nil
	}
	l.out.mu.Lock()
	defer l.out.mu.Unlock()

	if l.out.file != nil {
		err := l.out.file.Close()
		l.out.file = nil
		l.out.writers = nil
		return err
	}
	return nil
}

// Global logger functions

// Default returns the global logger, or a no-op logger before Init
func Default() *Logger {
	globalMu.RLock()
	defer globalMu.RUnlock()
	if globalLogger == nil {
		return Nop()
	}
	return globalLogger
}

// Debug logs a debug message using the global logger
func Debug(msg string, fields ...Field) {
	Default().log(DEBUG, msg, fields)
}

// Info logs an info message using the global logger
func Info(msg string, fields ...Field) {
	Default().log(INFO, msg, fields)
}

// Warn logs a warning message using the global logger
func Warn(msg string, fields ...Field) {
	Default().log(WARN, msg, fields)
}

// Error logs an error message using the global logger
func Error(msg string, fields ...Field) {
	Default().log(ERROR, msg, fields)
}

// WithFields creates a new logger with preset fields using the global logger
func WithFields(fields ...Field) *Logger {
	return Default().WithFields(fields...)
}

// Close closes the global logger
func Close() error {
	globalMu.Lock()
	l := globalLogger
	globalLogger = nil
	globalMu.Unlock()
	return l.Close()
}
