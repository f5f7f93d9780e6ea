// Package logger builds the logrus logger shared by the api and the watcher.
package logger

import (
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Init builds a logger for the given level and format. An empty level falls
// back to debug in development and info otherwise. Production always logs
// JSON; development logs text unless format is "json".
func Init(logLevel, logFormat string, isDevelopment bool) *logrus.Logger {
	log := logrus.New()

	if logLevel == "" {
		if isDevelopment {
			logLevel = "debug"
		} else {
			logLevel = "info"
		}
	}

	if level, err := logrus.ParseLevel(strings.ToLower(logLevel)); err == nil {
		log.SetLevel(level)
	} else {
		log.SetLevel(logrus.InfoLevel)
		log.WithField("invalid_level", logLevel).Warn("Invalid LOG_LEVEL, using INFO")
	}

	if !isDevelopment || strings.EqualFold(logFormat, "json") {
		log.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
		})
	} else {
		log.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
		})
	}

	log.SetOutput(os.Stdout)
	return log
}

// WithService tags every entry with the binary that produced it.
func WithService(log *logrus.Logger, service string) *logrus.Entry {
	return log.WithField("service", service)
}

// WithLookup carries the context of a single runner lookup.
func WithLookup(log logrus.FieldLogger, source, query string) *logrus.Entry {
	return log.WithFields(logrus.Fields{
		"source": source,
		"query":  query,
	})
}
