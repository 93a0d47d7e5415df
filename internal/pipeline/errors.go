package pipeline

import (
	"fmt"
	"strings"

	"github.com/sghaida/bundlegen/internal/decl"
	"github.com/sghaida/bundlegen/internal/tag"
)

// MisplacedTagError is returned for a contract or proxy tag on a declaration
// of the wrong kind, or without its name argument.
type MisplacedTagError struct {
	Decl   *decl.Decl
	Role   tag.Role
	Reason string
}

// Error implements the error interface.
func (e *MisplacedTagError) Error() string {
	return fmt.Sprintf("pipeline: %s tag on %s: %s", e.Role, e.Decl.QualifiedName(), e.Reason)
}

// Declaration returns the tagged declaration.
func (e *MisplacedTagError) Declaration() *decl.Decl { return e.Decl }

// IncompleteCycleError is reported on the final round when services are
// still waiting for their contracts or proxies.
type IncompleteCycleError struct {
	Namespace        string
	MissingContracts []string
	MissingProxies   []string
}

// Error implements the error interface.
func (e *IncompleteCycleError) Error() string {
	var parts []string
	if len(e.MissingContracts) > 0 {
		parts = append(parts, "contracts of "+strings.Join(e.MissingContracts, ", "))
	}
	if len(e.MissingProxies) > 0 {
		parts = append(parts, "proxies of "+strings.Join(e.MissingProxies, ", "))
	}
	if len(parts) == 0 {
		parts = append(parts, "the activator")
	}
	return fmt.Sprintf("pipeline: services of %s never completed: missing %s", e.Namespace, strings.Join(parts, "; "))
}
