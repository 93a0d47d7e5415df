package factory

import (
	"strconv"

	"github.com/sghaida/bundlegen/internal/decl"
)

// ValidationError is a structural violation of one factory-tagged declaration.
type ValidationError struct {
	Decl   *decl.Decl
	Reason string

	// Unresolved is set when the group type could not be found. Such members
	// may become valid once a later round makes the type visible.
	Unresolved bool
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return "factory: " + e.Reason
}

// Declaration returns the offending declaration.
func (e *ValidationError) Declaration() *decl.Decl { return e.Decl }

// ConflictError is returned when two members of a group claim the same id.
type ConflictError struct {
	Group    string
	ID       string
	Existing *decl.Decl
	Rejected *decl.Decl
}

// Error implements the error interface.
func (e *ConflictError) Error() string {
	// Example: factory: id "circle" of group example.com/app.Shape already used by example.com/app.Circle
	return "factory: id " + strconv.Quote(e.ID) + " of group " + e.Group +
		" already used by " + e.Existing.QualifiedName()
}

// Declaration returns the rejected declaration.
func (e *ConflictError) Declaration() *decl.Decl { return e.Rejected }
