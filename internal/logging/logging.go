// Package logging builds the logrus logger used by bundlegen.
package logging

import (
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/sghaida/bundlegen/internal/logging/logfields"
)

const (
	// FormatText renders human readable lines.
	FormatText = "text"
	// FormatJSON renders one JSON object per line.
	FormatJSON = "json"
)

// New returns a logger writing to w at the given level and format.
// Empty level and format select info and text.
func New(level, format string, w io.Writer) (*logrus.Logger, error) {
	l := logrus.New()
	l.SetOutput(w)

	if level == "" {
		level = logrus.InfoLevel.String()
	}
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("logging: %w", err)
	}
	l.SetLevel(lvl)

	switch strings.ToLower(format) {
	case "", FormatText:
		l.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	case FormatJSON:
		l.SetFormatter(&logrus.JSONFormatter{DisableTimestamp: true})
	default:
		return nil, fmt.Errorf("logging: unknown format %q", format)
	}
	return l, nil
}

// Discard returns a logger that drops everything.
func Discard() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	l.SetLevel(logrus.PanicLevel)
	return l
}

// Subsys returns an entry tagged with the subsystem name.
func Subsys(l logrus.FieldLogger, name string) *logrus.Entry {
	return l.WithField(logfields.LogSubsys, name)
}
