// Package rlog provides the minimal leveled logger used throughout
// hprofredact. It mirrors the shape of a Logger/Helper pair so that
// packages depend on the rlog.Logger interface rather than a concrete
// backend, and construct a *rlog.Helper to get level-checked convenience
// methods.
package rlog

import (
	"fmt"
	"io"
	"log"
	"time"
)

// Level is a logging severity.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Logger is the logging interface the rest of hprofredact depends on.
// A custom backend (structured, JSON, no-op) need only implement Log.
type Logger interface {
	Log(level Level, keyvals ...any) error
}

// NewStdLogger returns a Logger that writes one line per call to w using
// the standard library's log package, formatting keyvals as alternating
// key/value pairs.
func NewStdLogger(w io.Writer) Logger {
	return &stdLogger{std: log.New(w, "", 0)}
}

type stdLogger struct {
	std *log.Logger
}

func (l *stdLogger) Log(level Level, keyvals ...any) error {
	line := fmt.Sprintf("%s ts=%s", level, time.Now().UTC().Format(time.RFC3339Nano))
	for i := 0; i+1 < len(keyvals); i += 2 {
		line += fmt.Sprintf(" %v=%v", keyvals[i], keyvals[i+1])
	}
	l.std.Print(line)
	return nil
}

// NopLogger discards everything; the zero value is ready to use.
type NopLogger struct{}

func (NopLogger) Log(Level, ...any) error { return nil }

// Helper wraps a Logger with level-named convenience methods and an
// optional minimum level filter, so call sites write log.Debugf(...)
// instead of building a keyvals slice by hand.
type Helper struct {
	logger Logger
	min    Level
}

// NewHelper returns a Helper over logger with no minimum level (every
// call passes through). Use WithLevel to raise the floor.
func NewHelper(logger Logger) *Helper {
	if logger == nil {
		logger = NopLogger{}
	}
	return &Helper{logger: logger}
}

// WithLevel returns a copy of h that filters out calls below min.
func (h *Helper) WithLevel(min Level) *Helper {
	return &Helper{logger: h.logger, min: min}
}

func (h *Helper) logf(level Level, format string, args ...any) {
	if level < h.min {
		return
	}
	_ = h.logger.Log(level, "msg", fmt.Sprintf(format, args...))
}

func (h *Helper) Debugf(format string, args ...any) { h.logf(LevelDebug, format, args...) }
func (h *Helper) Infof(format string, args ...any)  { h.logf(LevelInfo, format, args...) }
func (h *Helper) Warnf(format string, args ...any)  { h.logf(LevelWarn, format, args...) }
func (h *Helper) Errorf(format string, args ...any) { h.logf(LevelError, format, args...) }
