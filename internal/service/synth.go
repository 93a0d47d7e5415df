package service

import (
	"errors"
	"fmt"
	"go/token"
	"strconv"
	"text/template"

	"github.com/sghaida/bundlegen/internal/decl"
	"github.com/sghaida/bundlegen/internal/gen"
	"github.com/sghaida/bundlegen/internal/tag"
)

// Contract renders the interface of a service. The interface declares one
// method per operation with the implementation's parameters and results and
// is tagged back with the service name.
func Contract(e *Entry) (*gen.Artifact, error) {
	data := struct {
		Package   string
		Name      string
		Impl      string
		Directive string
		Imports   []decl.Import
		Methods   []method
	}{
		Package:   e.Impl.Package.Name,
		Name:      e.Name,
		Impl:      e.Impl.Name,
		Directive: tag.New(tag.ServiceContract, "name", e.Name).String(),
		Imports:   e.Imports(),
		Methods:   methodsOf(e),
	}
	return gen.NewArtifact(e.Impl.Package, e.Name, contractTpl, data)
}

// Proxy renders the proxy of a service: a struct holding the implementation
// and forwarding every contract method to it. contract is the visible
// contract declaration; the proxy asserts that it satisfies it.
func Proxy(e *Entry, contract *decl.Decl) (*gen.Artifact, error) {
	if contract == nil {
		return nil, fmt.Errorf("service: no contract visible for %s", e.Name)
	}
	field := "m" + e.Name
	param := gen.ParamName(e.Name)
	if param == field || param == e.Impl.Name {
		param = "impl"
	}
	data := struct {
		Package   string
		Name      string
		Contract  string
		Proxy     string
		Impl      string
		Field     string
		Param     string
		Directive string
		Imports   []decl.Import
		Methods   []method
	}{
		Package:   e.Impl.Package.Name,
		Name:      e.Name,
		Contract:  contract.Name,
		Proxy:     e.ProxyName(),
		Impl:      e.Impl.Name,
		Field:     field,
		Param:     param,
		Directive: tag.New(tag.Proxy, "name", e.Name).String(),
		Imports:   e.Imports(),
		Methods:   methodsOf(e),
	}
	return gen.NewArtifact(e.Impl.Package, e.ProxyName(), proxyTpl, data)
}

// ActivatorOptions configures the activator artifact.
type ActivatorOptions struct {
	Name         string      // type name, DefaultActivator when empty
	BundleImport decl.Import // runtime package providing Context and Registration
}

// ErrNoEntries is returned when an activator is requested for an empty cycle.
var ErrNoEntries = errors.New("service: activator needs at least one service")

// Activator renders the lifecycle type that instantiates every proxy and
// registers it under the implementation's qualified name. Start keeps only
// the last registration; Stop withdraws it.
func Activator(pkg *decl.Package, opts ActivatorOptions, entries []*Entry) (*gen.Artifact, error) {
	if len(entries) == 0 {
		return nil, ErrNoEntries
	}
	name := opts.Name
	if name == "" {
		name = DefaultActivator
	}
	if !token.IsIdentifier(name) || !token.IsExported(name) {
		return nil, fmt.Errorf("service: activator name %q is not an exported Go identifier", name)
	}
	if opts.BundleImport.Path == "" {
		return nil, errors.New("service: bundle import path is empty")
	}

	type binding struct {
		Field    string
		Proxy    string
		Impl     string
		Var      string
		Ctor     string
		HasCtor  bool
		Err      bool
		Pointer  bool
		Register string
	}
	data := struct {
		Package  string
		Name     string
		Bundle   string
		Import   decl.Import
		Bindings []binding
	}{
		Package: pkg.Name,
		Name:    name,
		Bundle:  gen.ImportIdent(opts.BundleImport),
		Import:  opts.BundleImport,
	}
	for i, e := range entries {
		data.Bindings = append(data.Bindings, binding{
			Field:    "m" + e.ProxyName(),
			Proxy:    e.ProxyName(),
			Impl:     e.Impl.Name,
			Var:      "impl" + strconv.Itoa(i),
			Ctor:     e.Ctor.Name,
			HasCtor:  e.HasCtor,
			Err:      e.Ctor.Err,
			Pointer:  e.Ctor.Pointer,
			Register: strconv.Quote(e.Impl.QualifiedName()),
		})
	}
	return gen.NewArtifact(pkg, name, activatorTpl, data)
}

var base = template.Must(template.New("service").Parse(`
{{- define "imports"}}{{if .}}
import (
{{- range .}}
	{{if .Name}}{{.Name}} {{end}}{{printf "%q" .Path}}
{{- end}}
)
{{end}}{{end}}`))

func derive(name, text string) *template.Template {
	return template.Must(template.Must(base.Clone()).New(name).Parse(text))
}

var contractTpl = derive("contract", gen.Header+`

package {{.Package}}
{{template "imports" .Imports}}
// {{.Name}} is the contract of the {{.Name}} service implemented by {{.Impl}}.
//
{{.Directive}}
type {{.Name}} interface {
{{- range .Methods}}
	{{.Name}}{{.Params}}{{.Results}}
{{- end}}
}
`)

var proxyTpl = derive("proxy", gen.Header+`

package {{.Package}}
{{template "imports" .Imports}}
// {{.Proxy}} forwards every {{.Contract}} operation to a {{.Impl}}.
//
{{.Directive}}
type {{.Proxy}} struct {
	{{.Field}} *{{.Impl}}
}

var _ {{.Contract}} = (*{{.Proxy}})(nil)

// New{{.Proxy}} returns a {{.Proxy}} delegating to {{.Param}}.
func New{{.Proxy}}({{.Param}} *{{.Impl}}) *{{.Proxy}} {
	return &{{.Proxy}}{ {{.Field}}: {{.Param}} }
}
{{range .Methods}}
func ({{.Recv}} *{{$.Proxy}}) {{.Name}}{{.Params}}{{.Results}} {
	{{if .Returns}}return {{end}}{{.Recv}}.{{$.Field}}.{{.Name}}({{.Args}})
}
{{end}}`)

var activatorTpl = derive("activator", gen.Header+`

package {{.Package}}

import {{if ne .Bundle "bundle"}}bundle {{end}}{{printf "%q" .Import.Path}}

// {{.Name}} registers the service proxies of package {{.Package}}.
type {{.Name}} struct {
	mServiceRegistration bundle.Registration
{{- range .Bindings}}
	{{.Field}} *{{.Proxy}}
{{- end}}
}

var _ bundle.Activator = (*{{.Name}})(nil)

// Start instantiates every proxy and registers it with ctx.
func (a *{{.Name}}) Start(ctx bundle.Context) error {
	var err error
{{- range .Bindings}}
{{if .HasCtor}}
{{- if .Err}}
	{{.Var}}, err := {{.Ctor}}()
	if err != nil {
		return err
	}
{{- else}}
	{{.Var}} := {{.Ctor}}()
{{- end}}
	a.{{.Field}} = New{{.Proxy}}({{if not .Pointer}}&{{end}}{{.Var}})
{{- else}}
	a.{{.Field}} = New{{.Proxy}}(&{{.Impl}}{})
{{- end}}
	a.mServiceRegistration, err = ctx.RegisterService({{.Register}}, a.{{.Field}}, nil)
	if err != nil {
		return err
	}
{{- end}}
	return nil
}

// Stop withdraws the registration made by Start.
func (a *{{.Name}}) Stop(ctx bundle.Context) error {
	if a.mServiceRegistration == nil {
		return nil
	}
	return a.mServiceRegistration.Unregister()
}
`)
