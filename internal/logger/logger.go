// Package logger builds the structured logrus loggers shared by the servers
// and the CLI.
package logger

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// LevelEnv names the environment variable holding the log level.
const LevelEnv = "XRAY_LOG_LEVEL"

// TimestampFormat is used by the JSON formatter.
const TimestampFormat = "2006-01-02T15:04:05.000Z07:00"

// New creates a JSON logger writing to out at the given level.
// Unknown levels fall back to info.
func New(level string, out io.Writer) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(out)
	l.SetLevel(ParseLevel(level))
	l.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: TimestampFormat,
	})
	return l
}

// FromEnv creates a logger writing to stderr, with the level from
// XRAY_LOG_LEVEL. Stdout is left free for protocol traffic.
func FromEnv() *logrus.Logger {
	return New(os.Getenv(LevelEnv), os.Stderr)
}

// ParseLevel maps debug, info, warn and error to logrus levels.
func ParseLevel(level string) logrus.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return logrus.DebugLevel
	case "warn", "warning":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}

// Component returns an entry tagged with the component name.
func Component(l *logrus.Logger, name string) *logrus.Entry {
	return l.WithField("component", name)
}
