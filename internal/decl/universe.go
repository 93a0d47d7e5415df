package decl

// Universe indexes every declaration visible in one round.
type Universe struct {
	pkgs map[string]*pkgIndex
	n    int
}

type pkgIndex struct {
	pkg     *Package
	types   map[string]*Decl
	funcs   []*Decl
	methods map[string][]*Decl
}

// NewUniverse returns an empty universe.
func NewUniverse() *Universe {
	return &Universe{pkgs: map[string]*pkgIndex{}}
}

// Add indexes the given declarations in order.
func (u *Universe) Add(decls ...*Decl) {
	for _, d := range decls {
		idx := u.index(d.Package)
		switch d.Kind {
		case KindStruct, KindInterface, KindNamed:
			idx.types[d.Name] = d
		case KindFunc:
			idx.funcs = append(idx.funcs, d)
		case KindMethod:
			idx.methods[d.Receiver] = append(idx.methods[d.Receiver], d)
		}
		u.n++
	}
}

func (u *Universe) index(pkg *Package) *pkgIndex {
	path := ""
	if pkg != nil {
		path = pkg.Path
	}
	idx, ok := u.pkgs[path]
	if !ok {
		idx = &pkgIndex{pkg: pkg, types: map[string]*Decl{}, methods: map[string][]*Decl{}}
		u.pkgs[path] = idx
	}
	return idx
}

// Type looks up a type declaration by package path and name.
func (u *Universe) Type(pkgPath, name string) (*Decl, bool) {
	idx, ok := u.pkgs[pkgPath]
	if !ok {
		return nil, false
	}
	d, ok := idx.types[name]
	return d, ok
}

// Methods returns the methods declared on the named type, in source order.
func (u *Universe) Methods(pkgPath, typeName string) []*Decl {
	idx, ok := u.pkgs[pkgPath]
	if !ok {
		return nil
	}
	return idx.methods[typeName]
}

// Funcs returns the package-level functions of a package, in source order.
func (u *Universe) Funcs(pkgPath string) []*Decl {
	idx, ok := u.pkgs[pkgPath]
	if !ok {
		return nil
	}
	return idx.funcs
}

// Len returns the number of indexed declarations.
func (u *Universe) Len() int {
	return u.n
}
