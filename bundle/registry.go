package bundle

import (
	"fmt"
	"sort"
	"sync"
)

// Registry is an in-memory Context. It is safe for concurrent use.
//
// Registering a name that is already present replaces the service; the
// older Registration then no longer withdraws anything.
type Registry struct {
	mu    sync.RWMutex
	items map[string]*entry
}

type entry struct {
	svc   any
	props Properties
}

var _ Context = (*Registry)(nil)

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{items: map[string]*entry{}}
}

// RegisterService implements Context.
func (r *Registry) RegisterService(name string, svc any, props Properties) (Registration, error) {
	if name == "" {
		return nil, ErrEmptyName
	}
	if svc == nil {
		return nil, fmt.Errorf("%w for %q", ErrNilService, name)
	}

	e := &entry{svc: svc, props: props}
	r.mu.Lock()
	r.items[name] = e
	r.mu.Unlock()
	return &registration{reg: r, name: name, entry: e}, nil
}

// Resolve returns the service registered under name and converts panics
// into errors.
func (r *Registry) Resolve(name string) (svc any, props Properties, ok bool, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			svc, props, ok = nil, nil, false
			err = fmt.Errorf("%w: %v", ErrRegistryPanic, rec)
		}
	}()

	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.items[name]
	if !ok {
		return nil, nil, false, nil
	}
	return e.svc, e.props, true, nil
}

// Get returns the service if present (no panic).
func (r *Registry) Get(name string) (any, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.items[name]
	if !ok {
		return nil, false
	}
	return e.svc, true
}

// MustGet returns the service or panics with a MissingServiceError.
func (r *Registry) MustGet(name string) any {
	svc, ok := r.Get(name)
	if !ok {
		panic(MissingServiceError{Name: name})
	}
	return svc
}

// Names returns the registered names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	names := make([]string, 0, len(r.items))
	for name := range r.items {
		names = append(names, name)
	}
	r.mu.RUnlock()
	sort.Strings(names)
	return names
}

type registration struct {
	reg   *Registry
	name  string
	entry *entry

	done bool
}

// Unregister withdraws the service unless it was replaced since.
func (g *registration) Unregister() error {
	g.reg.mu.Lock()
	defer g.reg.mu.Unlock()
	if g.done {
		return fmt.Errorf("%w: %q", ErrNotRegistered, g.name)
	}
	g.done = true
	if g.reg.items[g.name] == g.entry {
		delete(g.reg.items, g.name)
	}
	return nil
}
