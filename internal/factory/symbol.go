// Package factory turns factory-tagged structs into per-group dispatchers.
//
// A member is tagged with its group type and identity:
//
//	//bundle:factory type=Shape id=circle
//	type Circle struct{}
//
// Members are validated (Validate), collected per group (Index) and, once a
// group is complete for the round, rendered into a <Group>Factory type whose
// Create(id) method instantiates the matching member.
package factory

import (
	"fmt"

	"github.com/sghaida/bundlegen/internal/decl"
	"github.com/sghaida/bundlegen/internal/tag"
)

// Symbol is one factory-tagged declaration together with its group key.
type Symbol struct {
	Decl     *decl.Decl
	GroupKey string
	ID       string

	// Filled by Validate.
	Target *decl.Decl
	Ctor   decl.Ctor
}

// NewSymbol builds a symbol from a declaration carrying a factory tag.
func NewSymbol(d *decl.Decl) (*Symbol, error) {
	t, ok := d.Tag(tag.FactoryMember)
	if !ok {
		return nil, &ValidationError{Decl: d, Reason: fmt.Sprintf("%s has no %s tag", d.QualifiedName(), tag.FactoryMember)}
	}
	if !d.Kind.IsType() {
		return nil, &ValidationError{Decl: d, Reason: fmt.Sprintf("only types can be tagged %s, %s is a %s", tag.FactoryMember, d.QualifiedName(), d.Kind)}
	}
	s := &Symbol{Decl: d, GroupKey: t.Arg("type"), ID: t.Arg("id")}
	if s.GroupKey == "" {
		return nil, &ValidationError{Decl: d, Reason: fmt.Sprintf("type argument of %s tag on %s is empty", tag.FactoryMember, d.QualifiedName())}
	}
	if s.ID == "" {
		return nil, &ValidationError{Decl: d, Reason: fmt.Sprintf("id argument of %s tag on %s is empty", tag.FactoryMember, d.QualifiedName())}
	}
	return s, nil
}

// QualifiedGroupName returns <import path>.<group key>.
func (s *Symbol) QualifiedGroupName() string {
	if s.Decl.Package == nil || s.Decl.Package.Path == "" {
		return s.GroupKey
	}
	return s.Decl.Package.Path + "." + s.GroupKey
}

func (s *Symbol) String() string {
	return s.Decl.QualifiedName() + "[" + s.ID + "]"
}
