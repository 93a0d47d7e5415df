package host

import (
	"github.com/sirupsen/logrus"

	"github.com/sghaida/bundlegen/internal/diag"
	"github.com/sghaida/bundlegen/internal/logging/logfields"
)

// Reporter logs diagnostics and counts them by severity.
type Reporter struct {
	log      logrus.FieldLogger
	errors   int
	warnings int
}

// NewReporter returns a reporter logging through log.
func NewReporter(log logrus.FieldLogger) *Reporter {
	return &Reporter{log: log}
}

// Report implements diag.Reporter.
func (r *Reporter) Report(d diag.Diagnostic) {
	entry := r.log.WithFields(logrus.Fields{})
	if pos := d.Position(); pos != "" {
		entry = entry.WithField(logfields.Position, pos)
	}
	if d.Decl != nil {
		entry = entry.WithField(logfields.Decl, d.Decl.QualifiedName())
	}
	switch d.Severity {
	case diag.Warning:
		r.warnings++
		entry.Warn(d.Message)
	default:
		r.errors++
		entry.Error(d.Message)
	}
}

// Errors returns the number of error diagnostics reported.
func (r *Reporter) Errors() int { return r.errors }

// Warnings returns the number of warnings reported.
func (r *Reporter) Warnings() int { return r.warnings }
