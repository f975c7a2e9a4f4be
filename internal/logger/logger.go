// Package logger holds the structured logger shared by the library packages.
// It discards everything until Init is called, so embedding applications stay
// quiet unless they opt in.
package logger

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// L is the global logger instance. It's initialized to discard all output by default.
// Call Init() to enable logging.
var L = newDiscard()

// Options configures the logger initialization.
type Options struct {
	Enabled bool         // If false, all logging is discarded
	Output  io.Writer    // Destination. Default: os.Stderr
	Level   logrus.Level // Minimum log level. Default: InfoLevel when enabled
	JSON    bool         // JSON formatter instead of text
}

func newDiscard() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	l.SetLevel(logrus.PanicLevel)
	return l
}

// Init configures logging. Call from main() before any log calls.
func Init(opts Options) {
	if !opts.Enabled {
		L = newDiscard()
		return
	}

	l := logrus.New()
	out := opts.Output
	if out == nil {
		out = os.Stderr
	}
	l.SetOutput(out)

	level := opts.Level
	if level == logrus.PanicLevel {
		level = logrus.InfoLevel
	}
	l.SetLevel(level)

	if opts.JSON {
		l.SetFormatter(&logrus.JSONFormatter{})
	} else {
		l.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	}
	L = l
}

// WithFields returns an entry carrying fields on the shared logger.
func WithFields(fields logrus.Fields) *logrus.Entry { return L.WithFields(fields) }

// Debug logs a debug message with fields.
func Debug(msg string, fields logrus.Fields) { L.WithFields(fields).Debug(msg) }

// Info logs an info message with fields.
func Info(msg string, fields logrus.Fields) { L.WithFields(fields).Info(msg) }

// Warn logs a warning with fields.
func Warn(msg string, fields logrus.Fields) { L.WithFields(fields).Warn(msg) }
