package gen

import (
	"cmp"
	"path"
	"slices"
	"strings"

	"github.com/sghaida/bundlegen/internal/decl"
)

// ImportsFor resolves package qualifiers against the imports of the file that
// referenced them. Qualifiers with no matching import are skipped.
func ImportsFor(quals []string, fileImports []decl.Import) []decl.Import {
	implicit := func(gi decl.Import) string {
		if gi.Name != "" {
			return ""
		}
		return defaultIdent(gi.Path)
	}
	var out []decl.Import
	for _, q := range quals {
		if gi, ok := lookup(fileImports, q, implicit); ok {
			out = append(out, gi)
		}
	}
	return MergeImports(out)
}

// FindImport returns the import aliased name, else the first one whose last
// path element is name.
func FindImport(imps []decl.Import, name string) (decl.Import, bool) {
	return lookup(imps, name, func(gi decl.Import) string { return path.Base(gi.Path) })
}

// lookup prefers an explicit alias over the name implicit derives.
func lookup(imps []decl.Import, name string, implicit func(decl.Import) string) (decl.Import, bool) {
	if name == "" {
		return decl.Import{}, false
	}
	fallback := -1
	for i, gi := range imps {
		if gi.Name == name {
			return gi, true
		}
		if fallback < 0 && implicit(gi) == name {
			fallback = i
		}
	}
	if fallback < 0 {
		return decl.Import{}, false
	}
	return imps[fallback], true
}

// MergeImports unions import sets, deduplicated and sorted by path.
func MergeImports(sets ...[]decl.Import) []decl.Import {
	out := slices.Concat(sets...)
	slices.SortFunc(out, func(a, b decl.Import) int {
		return cmp.Or(strings.Compare(a.Path, b.Path), strings.Compare(a.Name, b.Name))
	})
	return slices.Compact(out)
}

// ImportIdent returns the identifier a file uses for gi: its alias, or the
// default package name derived from the path.
func ImportIdent(gi decl.Import) string {
	if gi.Name != "" {
		return gi.Name
	}
	return defaultIdent(gi.Path)
}

// defaultIdent approximates the package name of an import path: the last
// element without a major version suffix or a "go-" prefix.
func defaultIdent(importPath string) string {
	base := path.Base(strings.TrimSpace(importPath))
	if majorVersion(base) {
		base = path.Base(path.Dir(importPath))
	}
	if i := strings.LastIndexByte(base, '.'); i > 0 && majorVersion(base[i+1:]) {
		base = base[:i]
	}
	return strings.ReplaceAll(strings.TrimPrefix(base, "go-"), "-", "")
}

func majorVersion(s string) bool {
	return len(s) > 1 && s[0] == 'v' && strings.Trim(s[1:], "0123456789") == ""
}
