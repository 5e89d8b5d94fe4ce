package logging

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// Logger represents a logger instance
type Logger = *logrus.Logger

// Fields represents structured logging fields
type Fields = logrus.Fields

// NewLogger creates a logger configured from LOG_LEVEL and LOG_FORMAT
func NewLogger() *logrus.Logger {
	logger := logrus.New()
	if os.Getenv("LOG_FORMAT") == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	logger.SetLevel(LevelFromEnv())
	return logger
}

// LevelFromEnv gets the log level from environment
func LevelFromEnv() logrus.Level {
	switch os.Getenv("LOG_LEVEL") {
	case "debug":
		return logrus.DebugLevel
	case "warn":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}

// Discard returns a logger that drops everything. Used when a component is
// constructed without one, and in tests.
func Discard() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

// OrDiscard returns l, or a discarding logger when l is nil
func OrDiscard(l Logger) Logger {
	if l == nil {
		return Discard()
	}
	return l
}

// Entry is a logger with fields attached
type Entry = *logrus.Entry
