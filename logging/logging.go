// Package logging is the session's structured logger, the replacement for
// the teacher's textcolor.go severity-level facade: same notion of a
// package-wide level gate and colored severity classes, built on
// github.com/charmbracelet/log (declared in the teacher's go.mod but never
// wired to an import) instead of hand-rolled ANSI codes, and timestamped
// with github.com/lestrrat-go/strftime the same way xmit.go and tq.go
// format transmit-log timestamps.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/lestrrat-go/strftime"
)

// Level mirrors the teacher's dw_color_e severity classes, renamed to what
// they actually mean rather than what color they printed in.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) charm() log.Level {
	switch l {
	case LevelDebug:
		return log.DebugLevel
	case LevelWarn:
		return log.WarnLevel
	case LevelError:
		return log.ErrorLevel
	default:
		return log.InfoLevel
	}
}

// Logger wraps *log.Logger with a fixed timestamp format pattern rendered
// through strftime, so log lines carry the same kind of operator-chosen
// timestamp format the teacher's audio_config timestamp_format setting
// produced.
type Logger struct {
	base    *log.Logger
	pattern *strftime.Strftime
}

// New returns a Logger writing to w at the given minimum level. pattern is
// an strftime format string (e.g. "%Y-%m-%d %H:%M:%S") rendered as a
// prefix in place of charmbracelet/log's own timestamp; an empty pattern
// adds no strftime prefix and leaves charmbracelet/log's timestamp on.
func New(w io.Writer, level Level, pattern string) (*Logger, error) {
	base := log.NewWithOptions(w, log.Options{
		Level:           level.charm(),
		ReportTimestamp: pattern == "",
	})

	var sf *strftime.Strftime
	if pattern != "" {
		var err error
		sf, err = strftime.New(pattern)
		if err != nil {
			return nil, err
		}
	}
	return &Logger{base: base, pattern: sf}, nil
}

// Default returns a Logger writing to stderr at LevelInfo with no custom
// timestamp pattern (charmbracelet/log's own RFC3339-ish default applies).
func Default() *Logger {
	l, _ := New(os.Stderr, LevelInfo, "")
	return l
}

func (l *Logger) prefix() string {
	if l.pattern == nil {
		return ""
	}
	return l.pattern.FormatString(time.Now()) + " "
}

func (l *Logger) Debug(msg string, kv ...any) { l.base.Debug(l.prefix()+msg, kv...) }
func (l *Logger) Info(msg string, kv ...any)   { l.base.Info(l.prefix()+msg, kv...) }
func (l *Logger) Warn(msg string, kv ...any)   { l.base.Warn(l.prefix()+msg, kv...) }
func (l *Logger) Error(msg string, kv ...any)  { l.base.Error(l.prefix()+msg, kv...) }

// With returns a child Logger carrying kv as permanent structured fields,
// the charmbracelet/log idiom for per-subsystem loggers (e.g. one per
// session, tagged with the device path).
func (l *Logger) With(kv ...any) *Logger {
	return &Logger{base: l.base.With(kv...), pattern: l.pattern}
}
