// Package logging provides structured logging for the offline core.
package logging

import (
	"io"
	"os"
	"sync"

	"github.com/sirupsen/logrus"
)

// Logger wraps a logrus logger with map-based context fields.
type Logger struct {
	log *logrus.Logger
}

var (
	// global logger instance
	global *Logger
	once   sync.Once
)

// Init initializes the global logger. Subsequent calls are no-ops.
func Init(out io.Writer, level string) {
	once.Do(func() {
		global = NewLogger(out, level)
	})
}

// Get returns the global logger instance.
func Get() *Logger {
	if global == nil {
		Init(os.Stdout, "info")
	}
	return global
}

// NewLogger creates a Logger writing JSON entries to out at the given
// minimum level. Unknown level strings fall back to info.
func NewLogger(out io.Writer, level string) *Logger {
	l := logrus.New()
	l.SetOutput(out)
	l.SetFormatter(&logrus.JSONFormatter{})

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	l.SetLevel(lvl)

	return &Logger{log: l}
}

// entry builds a logrus entry carrying the merged context maps.
func (l *Logger) entry(context ...map[string]interface{}) *logrus.Entry {
	if len(context) == 0 {
		return logrus.NewEntry(l.log)
	}
	fields := logrus.Fields{}
	for _, c := range context {
		for k, v := range c {
			fields[k] = v
		}
	}
	return l.log.WithFields(fields)
}

// Debug logs a debug message.
func (l *Logger) Debug(message string, context ...map[string]interface{}) {
	l.entry(context...).Debug(message)
}

// Info logs an info message.
func (l *Logger) Info(message string, context ...map[string]interface{}) {
	l.entry(context...).Info(message)
}

// Warn logs a warning message.
func (l *Logger) Warn(message string, context ...map[string]interface{}) {
	l.entry(context...).Warn(message)
}

// Error logs an error message.
func (l *Logger) Error(message string, err error, context ...map[string]interface{}) {
	entry := l.entry(context...)
	if err != nil {
		entry = entry.WithError(err)
	}
	entry.Error(message)
}

// Convenience functions using the global logger

func Debug(message string, context ...map[string]interface{}) {
	Get().Debug(message, context...)
}

func Info(message string, context ...map[string]interface{}) {
	Get().Info(message, context...)
}

func Warn(message string, context ...map[string]interface{}) {
	Get().Warn(message, context...)
}

func Error(message string, err error, context ...map[string]interface{}) {
	Get().Error(message, err, context...)
}
