// Package diag defines the diagnostics the pipeline reports to its host.
package diag

import (
	"errors"
	"fmt"

	"github.com/hashicorp/go-multierror"

	"github.com/sghaida/bundlegen/internal/decl"
)

// Severity of a diagnostic.
type Severity uint8

const (
	Error Severity = iota + 1
	Warning
)

func (s Severity) String() string {
	switch s {
	case Error:
		return "error"
	case Warning:
		return "warning"
	default:
		return "unknown"
	}
}

// Diagnostic is one message attributed to an optional declaration.
type Diagnostic struct {
	Severity Severity
	Decl     *decl.Decl
	Message  string
	Err      error
}

// Position returns "file:line:col" of the declaration, or "" when unknown.
func (d Diagnostic) Position() string {
	if d.Decl == nil || !d.Decl.Pos.IsValid() {
		return ""
	}
	return d.Decl.Pos.String()
}

// String renders the diagnostic the way compilers do: pos: severity: message.
func (d Diagnostic) String() string {
	if pos := d.Position(); pos != "" {
		return fmt.Sprintf("%s: %s: %s", pos, d.Severity, d.Message)
	}
	return fmt.Sprintf("%s: %s", d.Severity, d.Message)
}

// Reporter receives diagnostics.
type Reporter interface {
	Report(d Diagnostic)
}

// declared is implemented by errors attributed to one declaration.
type declared interface {
	Declaration() *decl.Decl
}

// FromError builds an error diagnostic, attaching the declaration when err
// (or an error it wraps) carries one.
func FromError(err error) Diagnostic {
	d := Diagnostic{Severity: Error, Message: err.Error(), Err: err}
	var de declared
	if errors.As(err, &de) {
		d.Decl = de.Declaration()
	}
	return d
}

// ReportAll reports every error of err. Aggregated errors are split into
// one diagnostic each. It returns the number of diagnostics reported.
func ReportAll(r Reporter, err error) int {
	if err == nil {
		return 0
	}
	var merr *multierror.Error
	if errors.As(err, &merr) {
		n := 0
		for _, e := range merr.Errors {
			n += ReportAll(r, e)
		}
		return n
	}
	r.Report(FromError(err))
	return 1
}

// Collector is a Reporter that keeps every diagnostic in memory.
type Collector struct {
	Diagnostics []Diagnostic
}

// Report implements Reporter.
func (c *Collector) Report(d Diagnostic) {
	c.Diagnostics = append(c.Diagnostics, d)
}

// Errors returns the number of error diagnostics collected.
func (c *Collector) Errors() int {
	n := 0
	for _, d := range c.Diagnostics {
		if d.Severity == Error {
			n++
		}
	}
	return n
}

// Messages returns the collected messages in order.
func (c *Collector) Messages() []string {
	out := make([]string, 0, len(c.Diagnostics))
	for _, d := range c.Diagnostics {
		out = append(out, d.Message)
	}
	return out
}
