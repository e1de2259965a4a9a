// Package logging provides the shared structured logger used by every
// Teamarr component.
package logging

import (
	"os"

	"github.com/sirupsen/logrus"
)

// NewLogger creates a logrus logger pre-configured for a named component.
// Format is controlled by LOG_FORMAT (json|text, default json); level by
// LOG_LEVEL (default info). The component name is embedded in every line.
func NewLogger(component string) *logrus.Entry {
	log := logrus.New()
	log.SetOutput(os.Stdout)

	if os.Getenv("LOG_FORMAT") == "text" {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		log.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
		})
	}

	level, err := logrus.ParseLevel(os.Getenv("LOG_LEVEL"))
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)

	return log.WithField("component", component)
}
