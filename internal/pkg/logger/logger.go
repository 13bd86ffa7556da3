// Package logger builds the process logger. Components take a
// logrus.FieldLogger so tests can pass a null logger.
package logger

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// New returns a text logger in dev mode and a JSON logger in prod mode.
// An unparsable level falls back to info.
func New(mode, level string) *logrus.Logger {
	return NewWithOutput(mode, level, os.Stdout)
}

// NewWithOutput is New writing to out
func NewWithOutput(mode, level string, out io.Writer) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(out)

	if mode == "prod" {
		log.SetFormatter(&logrus.JSONFormatter{TimestampFormat: "2006-01-02T15:04:05.000Z07:00"})
	} else {
		log.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
		})
	}

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	log.SetLevel(lvl)

	return log
}

// Component returns a child logger tagged with the component name
func Component(log logrus.FieldLogger, name string) logrus.FieldLogger {
	return log.WithField("component", name)
}
