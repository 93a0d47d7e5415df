package service

import (
	"fmt"

	"github.com/sghaida/bundlegen/internal/decl"
)

// NamespaceMismatchError is returned when a service is declared outside the
// package fixed by the first service of the cycle.
type NamespaceMismatchError struct {
	Decl     *decl.Decl
	Expected string
	Found    string
}

// Error implements the error interface.
func (e *NamespaceMismatchError) Error() string {
	return fmt.Sprintf("service: %s is declared in package %s but services of this cycle live in %s",
		e.Decl.QualifiedName(), e.Found, e.Expected)
}

// Declaration returns the offending service type.
func (e *NamespaceMismatchError) Declaration() *decl.Decl { return e.Decl }

// NoExportedOperationsError is returned for a service without any method
// tagged as an exported operation.
type NoExportedOperationsError struct {
	Decl *decl.Decl
	Name string
}

// Error implements the error interface.
func (e *NoExportedOperationsError) Error() string {
	return fmt.Sprintf("service: %s (service %s) has no exported operations", e.Decl.QualifiedName(), e.Name)
}

// Declaration returns the service type.
func (e *NoExportedOperationsError) Declaration() *decl.Decl { return e.Decl }

// InvalidExportError is returned for an export tag that cannot be honored.
type InvalidExportError struct {
	Decl   *decl.Decl
	Reason string
}

// Error implements the error interface.
func (e *InvalidExportError) Error() string {
	return "service: " + e.Reason
}

// Declaration returns the tagged declaration.
func (e *InvalidExportError) Declaration() *decl.Decl { return e.Decl }

// InvalidServiceError is returned for a service tag on an unusable declaration.
type InvalidServiceError struct {
	Decl   *decl.Decl
	Reason string
}

// Error implements the error interface.
func (e *InvalidServiceError) Error() string {
	return "service: " + e.Reason
}

// Declaration returns the tagged declaration.
func (e *InvalidServiceError) Declaration() *decl.Decl { return e.Decl }
