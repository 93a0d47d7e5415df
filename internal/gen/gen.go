// Package gen holds the pieces shared by every synthesizer: the artifact
// type, template rendering, import resolution and identifier helpers.
package gen

import (
	"bytes"
	"errors"
	"fmt"
	"text/template"

	"golang.org/x/tools/imports"

	"github.com/sghaida/bundlegen/internal/decl"
)

// Header is the first line of every generated file.
const Header = "// Code generated by bundlegen; DO NOT EDIT."

// Artifact is one synthesized source file declaring one generated type.
type Artifact struct {
	Name     string        // generated type name
	Package  *decl.Package // namespace the file belongs to
	FileName string        // base file name inside Package.Dir
	Source   []byte
}

// Emitter writes artifacts through the host.
type Emitter interface {
	Emit(a *Artifact) error
}

// EmitterFunc adapts a function to Emitter.
type EmitterFunc func(a *Artifact) error

// Emit implements Emitter.
func (f EmitterFunc) Emit(a *Artifact) error { return f(a) }

// EmitError reports an artifact the host refused or failed to write.
type EmitError struct {
	Artifact string
	Err      error
}

// Error implements the error interface.
func (e *EmitError) Error() string {
	return fmt.Sprintf("emit %s: %v", e.Artifact, e.Err)
}

// Unwrap returns the underlying host error.
func (e *EmitError) Unwrap() error { return e.Err }

// ErrEmptyName is returned when an artifact is built without a type name.
var ErrEmptyName = errors.New("gen: artifact name is empty")

// Emit sends a through em and wraps failures in *EmitError.
func Emit(em Emitter, a *Artifact) error {
	if err := em.Emit(a); err != nil {
		return &EmitError{Artifact: a.FileName, Err: err}
	}
	return nil
}

// NewArtifact renders tpl with data and returns a formatted artifact.
func NewArtifact(pkg *decl.Package, name string, tpl *template.Template, data any) (*Artifact, error) {
	if name == "" {
		return nil, ErrEmptyName
	}
	fileName := FileName(name)
	src, err := Render(fileName, tpl, data)
	if err != nil {
		return nil, err
	}
	return &Artifact{Name: name, Package: pkg, FileName: fileName, Source: src}, nil
}

// Render executes tpl and formats the result, grouping and sorting imports
// the way goimports does. Imports are never added or removed here.
func Render(fileName string, tpl *template.Template, data any) ([]byte, error) {
	var buf bytes.Buffer
	if err := tpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("gen: execute %s: %w", tpl.Name(), err)
	}
	out, err := imports.Process(fileName, buf.Bytes(), &imports.Options{
		FormatOnly: true,
		Comments:   true,
		TabIndent:  true,
		TabWidth:   8,
	})
	if err != nil {
		return nil, fmt.Errorf("gen: format %s: %w\n%s", fileName, err, buf.Bytes())
	}
	return out, nil
}
