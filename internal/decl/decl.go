// Package decl is the declaration model the generator pipeline inspects.
//
// Declarations are extracted syntactically from Go source (see ParseFile);
// types are kept as rendered expressions plus the package qualifiers they
// reference, which is all the synthesizers need to re-emit signatures.
package decl

import (
	"go/token"
	"strings"

	"github.com/sghaida/bundlegen/internal/tag"
)

// Kind classifies a declaration.
type Kind uint8

const (
	KindStruct Kind = iota + 1
	KindInterface
	KindNamed
	KindFunc
	KindMethod
)

func (k Kind) String() string {
	switch k {
	case KindStruct:
		return "struct"
	case KindInterface:
		return "interface"
	case KindNamed:
		return "type"
	case KindFunc:
		return "func"
	case KindMethod:
		return "method"
	default:
		return "unknown"
	}
}

// IsType reports whether the kind is a type declaration.
func (k Kind) IsType() bool {
	return k == KindStruct || k == KindInterface || k == KindNamed
}

// Package identifies the Go package a declaration belongs to.
type Package struct {
	Path string // import path
	Name string // package clause name
	Dir  string // directory on disk, empty for in-memory sources
}

// Import is one import spec of a source file.
type Import struct {
	Name string // explicit alias, empty when none
	Path string
}

// Param is a parameter or result of a signature.
type Param struct {
	Name  string
	Type  string
	Quals []string // package qualifiers referenced by Type
}

// Signature is a function signature.
type Signature struct {
	Params   []Param
	Results  []Param
	Variadic bool
}

// Key renders the signature without parameter names, for identity checks.
func (s Signature) Key() string {
	var sb strings.Builder
	sb.WriteByte('(')
	for i, p := range s.Params {
		if i > 0 {
			sb.WriteString(", ")
		}
		if s.Variadic && i == len(s.Params)-1 {
			sb.WriteString("...")
		}
		sb.WriteString(p.Type)
	}
	sb.WriteByte(')')
	switch len(s.Results) {
	case 0:
	case 1:
		sb.WriteByte(' ')
		sb.WriteString(s.Results[0].Type)
	default:
		sb.WriteString(" (")
		for i, r := range s.Results {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(r.Type)
		}
		sb.WriteByte(')')
	}
	return sb.String()
}

// Quals returns every package qualifier referenced by the signature.
func (s Signature) Quals() []string {
	var out []string
	for _, p := range s.Params {
		out = append(out, p.Quals...)
	}
	for _, r := range s.Results {
		out = append(out, r.Quals...)
	}
	return out
}

// Embed is an embedded field of a struct or an embedded element of an interface.
type Embed struct {
	Name    string // type name without package qualifier
	Qual    string // package qualifier, empty for local types
	Pointer bool
}

// String renders the embed as written in source.
func (e Embed) String() string {
	s := e.Name
	if e.Qual != "" {
		s = e.Qual + "." + s
	}
	if e.Pointer {
		s = "*" + s
	}
	return s
}

// Method is a method specification of an interface declaration.
type Method struct {
	Name      string
	Signature Signature
}

// Decl is one top-level declaration.
type Decl struct {
	Name    string
	Kind    Kind
	Package *Package
	Pos     token.Position
	Tags    []tag.Tag
	TagErrs []error
	Imports []Import // imports of the declaring file

	// Type declarations.
	Generic bool
	Embeds  []Embed
	Methods []Method // interface method specs

	// Funcs and methods.
	Receiver        string // base type name of the receiver
	PointerReceiver bool
	Signature       Signature
}

// QualifiedName returns <import path>.<name>, or <receiver>.<name> qualified for methods.
func (d *Decl) QualifiedName() string {
	name := d.Name
	if d.Kind == KindMethod {
		name = d.Receiver + "." + d.Name
	}
	if d.Package == nil || d.Package.Path == "" {
		return name
	}
	return d.Package.Path + "." + name
}

// Exported reports whether the declaration name is exported.
func (d *Decl) Exported() bool {
	return token.IsExported(d.Name)
}

// Tag returns the first tag of the given role.
func (d *Decl) Tag(role tag.Role) (tag.Tag, bool) {
	for _, t := range d.Tags {
		if t.Role == role {
			return t, true
		}
	}
	return tag.Tag{}, false
}

// HasTag reports whether the declaration carries a tag of the given role.
func (d *Decl) HasTag(role tag.Role) bool {
	_, ok := d.Tag(role)
	return ok
}

// String returns the qualified name.
func (d *Decl) String() string {
	return d.QualifiedName()
}
