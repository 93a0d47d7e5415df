package host

import (
	"errors"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"golang.org/x/mod/modfile"

	"github.com/sghaida/bundlegen/internal/decl"
)

// Module is a Go module on disk.
type Module struct {
	Root string // directory holding go.mod
	Path string // module path
}

// ModuleError reports a directory that cannot be mapped to an import path.
type ModuleError struct {
	Dir    string
	Reason string
}

func (e *ModuleError) Error() string {
	return "host: " + filepath.ToSlash(e.Dir) + ": " + e.Reason
}

// FindModule returns the module owning dir: the nearest go.mod at or above it.
func FindModule(dir string) (*Module, error) {
	for d := dir; ; {
		gomod := filepath.Join(d, "go.mod")
		data, err := os.ReadFile(gomod)
		switch {
		case err == nil:
			mp := modfile.ModulePath(data)
			if mp == "" {
				return nil, &ModuleError{Dir: gomod, Reason: "no module directive"}
			}
			return &Module{Root: d, Path: mp}, nil
		case !errors.Is(err, fs.ErrNotExist):
			return nil, err
		}
		parent := filepath.Dir(d)
		if parent == d {
			return nil, &ModuleError{Dir: dir, Reason: "no go.mod found"}
		}
		d = parent
	}
}

// ImportPath returns the import path of a directory inside the module.
func (m *Module) ImportPath(dir string) (string, error) {
	rel, err := filepath.Rel(m.Root, dir)
	if err != nil {
		return "", err
	}
	if rel == "." {
		return m.Path, nil
	}
	if !filepath.IsLocal(rel) {
		return "", &ModuleError{Dir: dir, Reason: "outside module " + m.Path}
	}
	return path.Join(m.Path, filepath.ToSlash(rel)), nil
}

// ResolvePackage maps a package directory to its import path. The package
// name is filled in when the first source file is parsed.
func ResolvePackage(dir string) (*decl.Package, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	if fi, err := os.Stat(abs); err != nil || !fi.IsDir() {
		return nil, &ModuleError{Dir: dir, Reason: "not a package directory"}
	}
	m, err := FindModule(abs)
	if err != nil {
		return nil, err
	}
	ip, err := m.ImportPath(abs)
	if err != nil {
		return nil, err
	}
	return &decl.Package{Path: ip, Dir: abs}, nil
}

// sourceFiles lists the non-test Go files of dir, sorted.
func sourceFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || filepath.Ext(name) != ".go" || strings.HasSuffix(name, "_test.go") {
			continue
		}
		out = append(out, filepath.Join(dir, name))
	}
	return out, nil
}
