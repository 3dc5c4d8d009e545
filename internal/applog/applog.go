// Package applog provides the logs.Log implementations used by the server:
// a leveled writer for stderr and a prefixing wrapper for components.
//
// Stdout carries the MCP protocol, so nothing here ever writes to it.
package applog

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/cyclopcam/logs"
)

// Level is the minimum severity a Logger writes.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
	LevelCritical
	LevelSilent
)

var levelNames = map[Level]string{
	LevelDebug:    "Debug",
	LevelInfo:     "Info",
	LevelWarn:     "Warning",
	LevelError:    "Error",
	LevelCritical: "Critical",
	LevelSilent:   "Silent",
}

func (l Level) String() string {
	if n, ok := levelNames[l]; ok {
		return n
	}
	return fmt.Sprintf("Level(%d)", int(l))
}

// ParseLevel accepts debug, info, warn(ing), error, critical and silent in
// any case.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "info", "":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	case "critical":
		return LevelCritical, nil
	case "silent", "off", "none":
		return LevelSilent, nil
	}
	return LevelInfo, fmt.Errorf("unknown log level %q", s)
}

// Logger writes one line per message to Output:
//
//	1712345678.123 Warning [server] message
type Logger struct {
	mu     sync.Mutex
	output io.Writer
	level  Level
	now    func() time.Time
}

var _ logs.Log = (*Logger)(nil)

// New returns a Logger writing messages at or above level to w. A nil w
// writes to stderr.
func New(w io.Writer, level Level) *Logger {
	if w == nil {
		w = os.Stderr
	}
	return &Logger{output: w, level: level, now: time.Now}
}

func (l *Logger) Level() Level {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.level
}

func (l *Logger) SetLevel(level Level) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
}

func (l *Logger) write(level Level, format string, a ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if level < l.level {
		return
	}
	prefix := fmt.Sprintf("%.3f %v ", float64(l.now().UnixNano())/1e9, level)
	fmt.Fprintf(l.output, prefix+format+"\n", a...)
}

func (l *Logger) Close() {}

func (l *Logger) Debugf(format string, a ...interface{}) {
	l.write(LevelDebug, format, a...)
}

func (l *Logger) Infof(format string, a ...interface{}) {
	l.write(LevelInfo, format, a...)
}

func (l *Logger) Warnf(format string, a ...interface{}) {
	l.write(LevelWarn, format, a...)
}

func (l *Logger) Errorf(format string, a ...interface{}) {
	l.write(LevelError, format, a...)
}

func (l *Logger) Criticalf(format string, a ...interface{}) {
	l.write(LevelCritical, format, a...)
}

// Prefix writes to an underlying log with every message prefixed. A nil
// underlying log discards everything, so components can be built without
// one.
type Prefix struct {
	Log    logs.Log
	Prefix string
}

var _ logs.Log = (*Prefix)(nil)

// NewPrefix wraps log, adding prefix and a space to each message.
func NewPrefix(log logs.Log, prefix string) *Prefix {
	return &Prefix{Log: log, Prefix: prefix + " "}
}

func (p *Prefix) Close() {
	if p.Log != nil {
		p.Log.Close()
	}
}

func (p *Prefix) Debugf(format string, a ...interface{}) {
	if p.Log != nil {
		p.Log.Debugf(p.Prefix+format, a...)
	}
}

func (p *Prefix) Infof(format string, a ...interface{}) {
	if p.Log != nil {
		p.Log.Infof(p.Prefix+format, a...)
	}
}

func (p *Prefix) Warnf(format string, a ...interface{}) {
	if p.Log != nil {
		p.Log.Warnf(p.Prefix+format, a...)
	}
}

func (p *Prefix) Errorf(format string, a ...interface{}) {
	if p.Log != nil {
		p.Log.Errorf(p.Prefix+format, a...)
	}
}

func (p *Prefix) Criticalf(format string, a ...interface{}) {
	if p.Log != nil {
		p.Log.Criticalf(p.Prefix+format, a...)
	}
}
