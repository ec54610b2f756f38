package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

type LogLevel int

const (
	LogLevelNone LogLevel = iota
	LogLevelError
	LogLevelWarning
	LogLevelInfo
	LogLevelDebug
)

type Logger struct {
	logger zerolog.Logger
	level  LogLevel
	tag    string
}

func NewLogger(w io.Writer, level LogLevel) *Logger {
	if w == nil {
		w = io.Discard
	}
	return &Logger{
		logger: zerolog.New(w).With().Timestamp().Logger(),
		level:  level,
		tag:    "",
	}
}

// NewConsoleWriter returns the writer used for interactive runs. Under systemd
// (INVOCATION_ID set) plain JSON lines go straight to stdout.
func NewConsoleWriter() io.Writer {
	if os.Getenv("INVOCATION_ID") != "" {
		return os.Stdout
	}
	return zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: "2006-01-02 15:04:05.000000"}
}

// WithTag creates a new logger with a tag field
func (l *Logger) WithTag(tag string) *Logger {
	return &Logger{
		logger: l.logger,
		level:  l.level,
		tag:    tag,
	}
}

// Level reports the configured verbosity.
func (l *Logger) Level() LogLevel {
	return l.level
}

func (l *Logger) tagged(e *zerolog.Event) *zerolog.Event {
	if l.tag != "" {
		return e.Str("tag", l.tag)
	}
	return e
}

func (l *Logger) Debugf(format string, v ...interface{}) {
	if l.level >= LogLevelDebug {
		l.tagged(l.logger.Debug()).Msgf(format, v...)
	}
}

func (l *Logger) Infof(format string, v ...interface{}) {
	if l.level >= LogLevelInfo {
		l.tagged(l.logger.Info()).Msgf(format, v...)
	}
}

// Printf is an alias for Infof for compatibility
func (l *Logger) Printf(format string, v ...interface{}) {
	l.Infof(format, v...)
}

func (l *Logger) Warnf(format string, v ...interface{}) {
	if l.level >= LogLevelWarning {
		l.tagged(l.logger.Warn()).Msgf(format, v...)
	}
}

func (l *Logger) Errorf(format string, v ...interface{}) {
	if l.level >= LogLevelError {
		l.tagged(l.logger.Error()).Msgf(format, v...)
	}
}

func (l *Logger) Fatalf(format string, v ...interface{}) {
	l.tagged(l.logger.Fatal()).Msgf(format, v...)
}

func init() {
	zerolog.TimeFieldFormat = time.RFC3339Nano
}
