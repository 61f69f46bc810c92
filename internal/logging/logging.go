// Package logging holds the process-wide logrus logger.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

var base = newBase()

func newBase() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stdout)
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	l.SetLevel(logrus.InfoLevel)
	return l
}

// Configure sets the level ("debug", "info", ...) and the format ("json" or
// "text"). An unknown level leaves the current one in place.
func Configure(level, format string) {
	if lvl, err := logrus.ParseLevel(strings.TrimSpace(level)); err == nil {
		base.SetLevel(lvl)
	}
	if strings.EqualFold(strings.TrimSpace(format), "json") {
		base.SetFormatter(&logrus.JSONFormatter{})
	} else {
		base.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
}

// SetOutput redirects all log output.
func SetOutput(w io.Writer) {
	base.SetOutput(w)
}

// Logger returns the shared logger.
func Logger() *logrus.Logger {
	return base
}

// For returns an entry tagged with the component name.
func For(component string) *logrus.Entry {
	return base.WithField("component", component)
}
