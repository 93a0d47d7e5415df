package factory

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sghaida/bundlegen/internal/decl"
	"github.com/sghaida/bundlegen/internal/tag"
)

// Validate checks that a factory member can be instantiated by a dispatcher
// of its group. Checks run in order and stop at the first violation:
//
//  1. the type is exported;
//  2. the type is a concrete, non-generic struct;
//  3. the group type resolves in the member's package and the member either
//     implements it (interface group) or embeds it, possibly transitively
//     (struct group);
//  4. an exported zero-argument constructor returning the type exists.
//
// On success the symbol's Target and Ctor are filled in.
func Validate(s *Symbol, u *decl.Universe) error {
	d := s.Decl
	name := d.QualifiedName()

	if !d.Exported() {
		return violation(d, "the type %s is not exported", name)
	}

	switch {
	case d.Kind == decl.KindInterface:
		return violation(d, "the type %s is an interface; interfaces cannot be tagged %s", name, tag.FactoryMember)
	case d.Kind != decl.KindStruct:
		return violation(d, "the type %s is not a struct", name)
	case d.Generic:
		return violation(d, "the type %s is generic and cannot be instantiated by a factory", name)
	}

	pkgPath := pathOf(d)
	target, ok := u.Type(pkgPath, s.GroupKey)
	if !ok {
		return &ValidationError{
			Decl:       d,
			Reason:     fmt.Sprintf("group type %s of %s is not declared", s.QualifiedGroupName(), name),
			Unresolved: true,
		}
	}

	switch target.Kind {
	case decl.KindInterface:
		want, err := interfaceMethods(u, target)
		if err != nil {
			return violation(d, "cannot check %s against %s: %v", name, s.QualifiedGroupName(), err)
		}
		if missing := missingMethods(want, methodSet(u, d, true)); len(missing) > 0 {
			return violation(d, "the type %s tagged %s must implement the interface %s (missing %s)",
				name, tag.FactoryMember, s.QualifiedGroupName(), strings.Join(missing, ", "))
		}
	case decl.KindStruct:
		if !embeds(u, d, target.Name) {
			return violation(d, "the type %s tagged %s must embed %s",
				name, tag.FactoryMember, s.QualifiedGroupName())
		}
	default:
		return violation(d, "group type %s must be an interface or a struct", s.QualifiedGroupName())
	}

	ctor, ok := u.Constructor(d)
	if !ok {
		return violation(d, "the type %s must provide an exported zero-argument constructor New%s", name, d.Name)
	}
	if target.Kind == decl.KindInterface && !ctor.Pointer {
		want, _ := interfaceMethods(u, target)
		if missing := missingMethods(want, methodSet(u, d, false)); len(missing) > 0 {
			return violation(d, "constructor %s returns %s by value but only *%s implements %s (missing %s)",
				ctor.Name, d.Name, d.Name, s.QualifiedGroupName(), strings.Join(missing, ", "))
		}
	}

	s.Target = target
	s.Ctor = ctor
	return nil
}

func violation(d *decl.Decl, format string, args ...any) error {
	return &ValidationError{Decl: d, Reason: fmt.Sprintf(format, args...)}
}

func pathOf(d *decl.Decl) string {
	if d.Package == nil {
		return ""
	}
	return d.Package.Path
}

// interfaceMethods flattens the method set of an interface, following
// embedded interfaces of the same package.
func interfaceMethods(u *decl.Universe, iface *decl.Decl) (map[string]string, error) {
	out := map[string]string{}
	seen := map[string]bool{}

	var walk func(d *decl.Decl) error
	walk = func(d *decl.Decl) error {
		if seen[d.Name] {
			return nil
		}
		seen[d.Name] = true
		for _, m := range d.Methods {
			out[m.Name] = m.Signature.Key()
		}
		for _, e := range d.Embeds {
			if e.Qual != "" {
				return fmt.Errorf("embedded interface %s is declared in another package", e)
			}
			ed, ok := u.Type(pathOf(d), e.Name)
			if !ok || ed.Kind != decl.KindInterface {
				return fmt.Errorf("embedded interface %s is not declared", e)
			}
			if err := walk(ed); err != nil {
				return err
			}
		}
		return nil
	}
	return out, walk(iface)
}

// methodSet returns name -> signature key for the methods of d. With
// addressable set it is the method set of *d, otherwise of d. Promoted
// methods are resolved breadth first; shallower methods win.
func methodSet(u *decl.Universe, d *decl.Decl, addressable bool) map[string]string {
	type level struct {
		d           *decl.Decl
		addressable bool
	}

	set := map[string]string{}
	seen := map[string]bool{d.Name: true}
	pkgPath := pathOf(d)

	cur := []level{{d: d, addressable: addressable}}
	for len(cur) > 0 {
		var next []level
		found := map[string]string{}
		for _, l := range cur {
			if l.d.Kind == decl.KindInterface {
				ms, _ := interfaceMethods(u, l.d)
				for n, k := range ms {
					found[n] = k
				}
				continue
			}
			for _, m := range u.Methods(pkgPath, l.d.Name) {
				if l.addressable || !m.PointerReceiver {
					found[m.Name] = m.Signature.Key()
				}
			}
			if l.d.Kind != decl.KindStruct {
				continue
			}
			for _, e := range l.d.Embeds {
				if e.Qual != "" || seen[e.Name] {
					continue
				}
				ed, ok := u.Type(pkgPath, e.Name)
				if !ok {
					continue
				}
				seen[e.Name] = true
				next = append(next, level{d: ed, addressable: l.addressable || e.Pointer})
			}
		}
		for n, k := range found {
			if _, ok := set[n]; !ok {
				set[n] = k
			}
		}
		cur = next
	}
	return set
}

func missingMethods(want, have map[string]string) []string {
	var missing []string
	for n, k := range want {
		if have[n] != k {
			missing = append(missing, n+k)
		}
	}
	sort.Strings(missing)
	return missing
}

// embeds walks the embedded struct chain of d looking for target.
func embeds(u *decl.Universe, d *decl.Decl, target string) bool {
	pkgPath := pathOf(d)
	seen := map[string]bool{d.Name: true}
	queue := []*decl.Decl{d}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, e := range cur.Embeds {
			if e.Qual != "" {
				continue
			}
			if e.Name == target {
				return true
			}
			if seen[e.Name] {
				continue
			}
			seen[e.Name] = true
			if ed, ok := u.Type(pkgPath, e.Name); ok && ed.Kind == decl.KindStruct {
				queue = append(queue, ed)
			}
		}
	}
	return false
}
