// Package logger provides the leveled logger used across the service.
package logger

import (
	"io"
	"log"
	"os"
	"strings"
)

type Level int

const (
	DebugLevel Level = iota
	InfoLevel
	ErrorLevel
)

// ParseLevel maps "debug", "info" or "error" to a Level, defaulting to info.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return DebugLevel
	case "error":
		return ErrorLevel
	default:
		return InfoLevel
	}
}

type Logger interface {
	Info(format string, v ...any)
	Error(format string, v ...any)
	Debug(format string, v ...any)
}

// DefaultLogger writes through the standard log package.
type DefaultLogger struct {
	level Level
	out   *log.Logger
}

func NewDefaultLogger(level Level) *DefaultLogger {
	return New(os.Stderr, level, "")
}

// New returns a logger writing to w. A non-empty prefix is printed as
// "[prefix] " before every message.
func New(w io.Writer, level Level, prefix string) *DefaultLogger {
	if prefix != "" {
		prefix = "[" + prefix + "] "
	}
	return &DefaultLogger{level: level, out: log.New(w, prefix, log.LstdFlags|log.Lmsgprefix)}
}

// With returns a logger sharing the level and output but with a new prefix.
func (l *DefaultLogger) With(prefix string) *DefaultLogger {
	return New(l.out.Writer(), l.level, prefix)
}

func (l *DefaultLogger) Info(format string, v ...any) {
	if l.level <= InfoLevel {
		l.out.Printf("INFO "+format, v...)
	}
}

func (l *DefaultLogger) Error(format string, v ...any) {
	if l.level <= ErrorLevel {
		l.out.Printf("ERROR "+format, v...)
	}
}

func (l *DefaultLogger) Debug(format string, v ...any) {
	if l.level <= DebugLevel {
		l.out.Printf("DEBUG "+format, v...)
	}
}

// Discard drops everything. Useful in tests.
type Discard struct{}

func (Discard) Info(string, ...any)  {}
func (Discard) Error(string, ...any) {}
func (Discard) Debug(string, ...any) {}
