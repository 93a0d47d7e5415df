// Package service builds the service registry of a generation cycle and
// synthesizes, per service, a contract interface, a delegating proxy and
// finally one activator registering every proxy with a bundle.Context.
//
// A service is a struct tagged with its name; its exported operations are
// the methods tagged export:
//
//	//bundle:service name=Call
//	type Person struct{}
//
//	//bundle:export
//	func (p *Person) Add(a, b int) int { return a + b }
package service

import (
	"fmt"
	"go/token"

	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"

	"github.com/sghaida/bundlegen/internal/decl"
	"github.com/sghaida/bundlegen/internal/gen"
	"github.com/sghaida/bundlegen/internal/logging"
	"github.com/sghaida/bundlegen/internal/logging/logfields"
	"github.com/sghaida/bundlegen/internal/tag"
)

const (
	// ProxySuffix is appended to the service name to name its proxy.
	ProxySuffix = "Proxy"
	// DefaultActivator is the activator type name used when none is configured.
	DefaultActivator = "SimpleBundle"
)

// Operation is one exported operation of a service.
type Operation struct {
	Name      string
	Decl      *decl.Decl
	Signature decl.Signature
	Imports   []decl.Import // imports needed by the signature
}

// Entry is one service of the registry.
type Entry struct {
	Name       string
	Impl       *decl.Decl
	Ctor       decl.Ctor
	HasCtor    bool
	Operations []Operation
}

// ProxyName returns the proxy type name, e.g. CallProxy.
func (e *Entry) ProxyName() string { return e.Name + ProxySuffix }

// Imports returns the union of the imports of every operation.
func (e *Entry) Imports() []decl.Import {
	sets := make([][]decl.Import, 0, len(e.Operations))
	for _, op := range e.Operations {
		sets = append(sets, op.Imports)
	}
	return gen.MergeImports(sets...)
}

// Registry maps service names to entries. All entries of one cycle share a
// single package, fixed by the first service discovered.
type Registry struct {
	log     logrus.FieldLogger
	pkg     *decl.Package
	entries map[string]*Entry
	order   []string
}

// NewRegistry returns an empty registry.
func NewRegistry(log logrus.FieldLogger) *Registry {
	if log == nil {
		log = logging.Discard()
	}
	return &Registry{log: log, entries: map[string]*Entry{}}
}

// Namespace returns the package of the cycle, nil while the registry is empty.
func (r *Registry) Namespace() *decl.Package { return r.pkg }

// Len returns the number of entries.
func (r *Registry) Len() int { return len(r.order) }

// Entry returns the entry of a service name.
func (r *Registry) Entry(name string) (*Entry, bool) {
	e, ok := r.entries[name]
	return e, ok
}

// Entries returns the entries in discovery order.
func (r *Registry) Entries() []*Entry {
	out := make([]*Entry, 0, len(r.order))
	for _, n := range r.order {
		out = append(out, r.entries[n])
	}
	return out
}

// Reset drops every entry and releases the namespace.
func (r *Registry) Reset() {
	r.pkg = nil
	r.entries = map[string]*Entry{}
	r.order = nil
}

// Discover adds the services tagged among roots. Errors of single
// declarations are aggregated and do not stop discovery, except a
// *NamespaceMismatchError, which ends the pass; entries admitted before it
// are kept. A service name already present is ignored.
func (r *Registry) Discover(roots []*decl.Decl, u *decl.Universe) error {
	var errs *multierror.Error

	for _, d := range roots {
		if d.HasTag(tag.ExportedOperation) {
			if err := checkExport(d, u); err != nil {
				errs = multierror.Append(errs, err)
			}
		}
	}

	for _, d := range roots {
		t, ok := d.Tag(tag.ServiceProvider)
		if !ok {
			continue
		}
		name := t.Arg("name")
		if err := checkService(d, name, u); err != nil {
			errs = multierror.Append(errs, err)
			continue
		}

		if r.pkg != nil && r.pkg.Path != d.Package.Path {
			errs = multierror.Append(errs, &NamespaceMismatchError{Decl: d, Expected: r.pkg.Path, Found: d.Package.Path})
			break
		}

		if prev, ok := r.entries[name]; ok {
			r.log.WithFields(logrus.Fields{
				logfields.Service: name,
				logfields.Decl:    d.QualifiedName(),
			}).Warnf("service already registered by %s; ignoring", prev.Impl.QualifiedName())
			continue
		}

		e := &Entry{Name: name, Impl: d}
		for _, m := range u.Methods(d.Package.Path, d.Name) {
			if !m.HasTag(tag.ExportedOperation) || !m.Exported() {
				continue
			}
			e.Operations = append(e.Operations, Operation{
				Name:      m.Name,
				Decl:      m,
				Signature: m.Signature,
				Imports:   gen.ImportsFor(m.Signature.Quals(), m.Imports),
			})
		}
		if len(e.Operations) == 0 {
			errs = multierror.Append(errs, &NoExportedOperationsError{Decl: d, Name: name})
			continue
		}
		e.Ctor, e.HasCtor = u.Constructor(d)

		if r.pkg == nil {
			r.pkg = d.Package
		}
		r.entries[name] = e
		r.order = append(r.order, name)
		r.log.WithFields(logrus.Fields{
			logfields.Service: name,
			logfields.Decl:    d.QualifiedName(),
			logfields.Count:   len(e.Operations),
		}).Debug("service discovered")
	}

	return errs.ErrorOrNil()
}

func checkService(d *decl.Decl, name string, u *decl.Universe) error {
	bad := func(format string, args ...any) error {
		return &InvalidServiceError{Decl: d, Reason: fmt.Sprintf(format, args...)}
	}
	switch {
	case d.Kind != decl.KindStruct:
		return bad("only struct types can be tagged %s, %s is a %s", tag.ServiceProvider, d.QualifiedName(), d.Kind)
	case !d.Exported():
		return bad("the service type %s is not exported", d.QualifiedName())
	case d.Generic:
		return bad("the service type %s is generic", d.QualifiedName())
	case name == "":
		return bad("name argument of %s tag on %s is empty", tag.ServiceProvider, d.QualifiedName())
	case !token.IsIdentifier(name) || !token.IsExported(name):
		return bad("service name %q of %s is not an exported Go identifier", name, d.QualifiedName())
	}
	if other, ok := u.Type(d.Package.Path, name); ok && !isContractOf(other, name) {
		return bad("service name %s of %s collides with the type declared at %s", name, d.QualifiedName(), other.Pos)
	}
	return nil
}

// isContractOf reports whether d is the contract previously generated for name.
func isContractOf(d *decl.Decl, name string) bool {
	t, ok := d.Tag(tag.ServiceContract)
	return ok && d.Kind == decl.KindInterface && t.Arg("name") == name
}

func checkExport(d *decl.Decl, u *decl.Universe) error {
	bad := func(format string, args ...any) error {
		return &InvalidExportError{Decl: d, Reason: fmt.Sprintf(format, args...)}
	}
	if d.Kind != decl.KindMethod {
		return bad("only methods can be tagged %s, %s is a %s", tag.ExportedOperation, d.QualifiedName(), d.Kind)
	}
	if !d.Exported() {
		return bad("the method %s tagged %s is not exported", d.QualifiedName(), tag.ExportedOperation)
	}
	recv, ok := u.Type(d.Package.Path, d.Receiver)
	if !ok || !recv.HasTag(tag.ServiceProvider) {
		return bad("the method %s is tagged %s but %s is not tagged %s",
			d.QualifiedName(), tag.ExportedOperation, d.Receiver, tag.ServiceProvider)
	}
	return nil
}
