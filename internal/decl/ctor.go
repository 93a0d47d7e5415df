package decl

// Ctor describes a zero-argument constructor of a type.
type Ctor struct {
	Name    string
	Pointer bool // returns *T
	Err     bool // returns a trailing error
}

// Constructor finds an exported zero-argument function of d's package
// returning T, *T, (T, error) or (*T, error). New<T> wins over any other
// match; otherwise the first match in source order is returned.
func (u *Universe) Constructor(d *Decl) (Ctor, bool) {
	path := ""
	if d.Package != nil {
		path = d.Package.Path
	}

	var (
		best  Ctor
		found bool
	)
	for _, f := range u.Funcs(path) {
		if !f.Exported() || f.Generic || len(f.Signature.Params) != 0 {
			continue
		}
		c, ok := ctorShape(f, d.Name)
		if !ok {
			continue
		}
		if f.Name == "New"+d.Name {
			return c, true
		}
		if !found {
			best, found = c, true
		}
	}
	return best, found
}

func ctorShape(f *Decl, typeName string) (Ctor, bool) {
	res := f.Signature.Results
	switch {
	case len(res) == 1:
	case len(res) == 2 && res[1].Type == "error":
	default:
		return Ctor{}, false
	}
	c := Ctor{Name: f.Name, Err: len(res) == 2}
	switch res[0].Type {
	case typeName:
	case "*" + typeName:
		c.Pointer = true
	default:
		return Ctor{}, false
	}
	return c, true
}
