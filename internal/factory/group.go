package factory

import (
	"sort"
	"text/template"

	"github.com/hashicorp/go-multierror"

	"github.com/sghaida/bundlegen/internal/decl"
	"github.com/sghaida/bundlegen/internal/gen"
)

// FactorySuffix is appended to the group type name to name its dispatcher.
const FactorySuffix = "Factory"

// Group holds the validated members sharing one group type.
type Group struct {
	Key     string // group type name
	Package *decl.Package
	Target  *decl.Decl

	members map[string]*Symbol
}

func newGroup(s *Symbol) *Group {
	return &Group{
		Key:     s.GroupKey,
		Package: s.Decl.Package,
		Target:  s.Target,
		members: map[string]*Symbol{},
	}
}

// QualifiedName returns <import path>.<group type>.
func (g *Group) QualifiedName() string {
	if g.Package == nil || g.Package.Path == "" {
		return g.Key
	}
	return g.Package.Path + "." + g.Key
}

// Add inserts a member; the first member claiming an id wins.
func (g *Group) Add(s *Symbol) error {
	if existing, ok := g.members[s.ID]; ok {
		return &ConflictError{Group: g.QualifiedName(), ID: s.ID, Existing: existing.Decl, Rejected: s.Decl}
	}
	g.members[s.ID] = s
	return nil
}

// Len returns the number of members.
func (g *Group) Len() int { return len(g.members) }

// Members returns the members sorted by id.
func (g *Group) Members() []*Symbol {
	out := make([]*Symbol, 0, len(g.members))
	for _, s := range g.members {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// FactoryName returns the dispatcher type name, e.g. ShapeFactory.
func (g *Group) FactoryName() string { return g.Key + FactorySuffix }

// Generate renders the dispatcher of the group. It returns nil for an empty group.
func (g *Group) Generate() (*gen.Artifact, error) {
	if len(g.members) == 0 {
		return nil, nil
	}

	ret := "any"
	if g.Target != nil && g.Target.Kind == decl.KindInterface {
		ret = g.Key
	}

	type member struct {
		ID   string
		Type string
		Ctor string
		Err  bool
	}
	data := struct {
		Package string
		Factory string
		Group   string
		Return  string
		Members []member
	}{
		Package: g.Package.Name,
		Factory: g.FactoryName(),
		Group:   g.Key,
		Return:  ret,
	}
	for _, s := range g.Members() {
		data.Members = append(data.Members, member{ID: s.ID, Type: s.Decl.Name, Ctor: s.Ctor.Name, Err: s.Ctor.Err})
	}
	return gen.NewArtifact(g.Package, g.FactoryName(), dispatcherTpl, data)
}

// Index is the keyed collection of groups of one generation pass.
type Index struct {
	groups map[string]*Group
	order  []string
}

// NewIndex returns an empty index.
func NewIndex() *Index {
	return &Index{groups: map[string]*Group{}}
}

// Add inserts a validated symbol, creating its group on first use.
func (ix *Index) Add(s *Symbol) error {
	key := s.QualifiedGroupName()
	g, ok := ix.groups[key]
	if !ok {
		g = newGroup(s)
		ix.groups[key] = g
		ix.order = append(ix.order, key)
	}
	return g.Add(s)
}

// Len returns the number of groups.
func (ix *Index) Len() int { return len(ix.groups) }

// Generate emits one dispatcher per non-empty group, in discovery order,
// then clears the index. Failures of one group do not stop the others; they
// are returned together.
func (ix *Index) Generate(em gen.Emitter) error {
	var errs *multierror.Error
	for _, key := range ix.order {
		a, err := ix.groups[key].Generate()
		if err != nil {
			errs = multierror.Append(errs, err)
			continue
		}
		if a == nil {
			continue
		}
		if err := gen.Emit(em, a); err != nil {
			errs = multierror.Append(errs, err)
		}
	}
	ix.Reset()
	return errs.ErrorOrNil()
}

// Reset drops every group.
func (ix *Index) Reset() {
	ix.groups = map[string]*Group{}
	ix.order = nil
}

var dispatcherTpl = template.Must(template.New("dispatcher").Parse(`` + gen.Header + `

package {{.Package}}

import "fmt"

// {{.Factory}} creates {{.Group}} values by identifier.
type {{.Factory}} struct{}

// IDs returns the identifiers known to {{.Factory}}, sorted.
func ({{.Factory}}) IDs() []string {
	return []string{
{{- range .Members}}
		{{printf "%q" .ID}},
{{- end}}
	}
}

// Create returns a new {{.Group}} for id.
func ({{.Factory}}) Create(id string) ({{.Return}}, error) {
	switch id {
{{- range .Members}}
	case {{printf "%q" .ID}}:
{{- if .Err}}
		v, err := {{.Ctor}}()
		if err != nil {
			return nil, err
		}
		return v, nil
{{- else}}
		return {{.Ctor}}(), nil
{{- end}}
{{- end}}
	}
	return nil, fmt.Errorf("{{.Factory}}: unknown id %q", id)
}
`))
