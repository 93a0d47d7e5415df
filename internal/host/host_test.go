package host

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sghaida/bundlegen/internal/decl"
	"github.com/sghaida/bundlegen/internal/diag"
	"github.com/sghaida/bundlegen/internal/gen"
	"github.com/sghaida/bundlegen/internal/pipeline"
)

const appSrc = `package app

import "context"

//bundle:service name=Call
type Person struct{ calls int }

// NewPerson returns a Person.
func NewPerson() *Person { return &Person{} }

//bundle:export
func (p *Person) Call() { p.calls++ }

//bundle:export
func (p *Person) Add(ctx context.Context, a, b int) (int, error) { return a + b, nil }

type Shape interface{ Area() float64 }

//bundle:factory type=Shape id=square
type Square struct{}

func NewSquare() *Square { return &Square{} }

func (*Square) Area() float64 { return 1 }
`

// ---- module helpers ---- //

// TestResolvePackage maps directories to import paths.
func TestResolvePackage(t *testing.T) {
	t.Parallel()

	m := newModule(t, "example.com/demo")
	m.write("internal/app/app.go", "package app\n")

	pkg, err := ResolvePackage(m.path("internal/app"))
	require.NoError(t, err)
	assert.Equal(t, "example.com/demo/internal/app", pkg.Path)
	assert.Equal(t, m.path("internal/app"), pkg.Dir)

	root, err := ResolvePackage(m.dir)
	require.NoError(t, err)
	assert.Equal(t, "example.com/demo", root.Path)

	_, err = ResolvePackage(m.path("missing"))
	var me *ModuleError
	require.ErrorAs(t, err, &me)
}

// TestFindModule_Errors covers malformed go.mod files and directories outside the module.
func TestFindModule_Errors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "go.mod"), []byte("go 1.22\n"), 0o644))
	_, err := FindModule(dir)
	require.ErrorContains(t, err, "no module directive")

	require.NoError(t, os.WriteFile(filepath.Join(dir, "go.mod"), []byte("module \n"), 0o644))
	_, err = FindModule(dir)
	var me *ModuleError
	require.ErrorAs(t, err, &me)
	assert.Equal(t, filepath.Join(dir, "go.mod"), me.Dir)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "go.mod"), []byte("module \"example.com/quoted\"\n"), 0o644))
	m, err := FindModule(filepath.Join(dir, "sub"))
	require.NoError(t, err)
	assert.Equal(t, &Module{Root: dir, Path: "example.com/quoted"}, m)

	_, err = (&Module{Root: filepath.Join(dir, "mod"), Path: "example.com/m"}).ImportPath(dir)
	require.ErrorContains(t, err, "outside module example.com/m")
}

// ---- writeAtomic ---- //

// TestWriteAtomic_AllErrorBranches covers every failure branch, including deferred cleanup.
func TestWriteAtomic_AllErrorBranches(t *testing.T) {
	// NOT parallel: mutates global seams.

	newTmp := func(opts ...func(*fakeTempFile)) func(dir, pattern string) (tempFile, error) {
		return func(dir, pattern string) (tempFile, error) {
			f := &fakeTempFile{fileName: filepath.Join(dir, "tmpfile")}
			for _, o := range opts {
				o(f)
			}
			return f, nil
		}
	}

	testCases := []struct {
		name        string
		create      func(dir, pattern string) (tempFile, error)
		chmod       func(path string, mode os.FileMode) error
		rename      func(oldpath, newpath string) error
		wantErr     string
		wantRemoves int
	}{
		{
			name:    "create temp error",
			create:  func(string, string) (tempFile, error) { return nil, errors.New("create temp failed") },
			wantErr: "create temp failed",
		},
		{
			name:        "write error",
			create:      newTmp(func(f *fakeTempFile) { f.writeErr = errors.New("write failed") }),
			wantErr:     "write failed",
			wantRemoves: 1,
		},
		{
			name:        "close error",
			create:      newTmp(func(f *fakeTempFile) { f.closeErr = errors.New("close failed") }),
			wantErr:     "close failed",
			wantRemoves: 1,
		},
		{
			name:        "chmod error",
			create:      newTmp(),
			chmod:       func(string, os.FileMode) error { return errors.New("chmod failed") },
			wantErr:     "chmod failed",
			wantRemoves: 1,
		},
		{
			name:        "rename error",
			create:      newTmp(),
			chmod:       func(string, os.FileMode) error { return nil },
			rename:      func(string, string) error { return errors.New("rename failed") },
			wantErr:     "rename failed",
			wantRemoves: 1,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			removes := 0
			setWriteSeams(t, tc.create, func(string) error { removes++; return nil }, tc.chmod, tc.rename)

			err := writeAtomic(filepath.Join(t.TempDir(), "out.gen.go"), []byte("x"))
			require.ErrorContains(t, err, tc.wantErr)
			assert.Equal(t, tc.wantRemoves, removes)
		})
	}
}

// ---- Filer ---- //

func artifact(dir, name string) *gen.Artifact {
	return &gen.Artifact{
		Name:     name,
		Package:  &decl.Package{Path: "example.com/demo", Name: "demo", Dir: dir},
		FileName: gen.FileName(name),
		Source:   []byte(gen.Header + "\n\npackage demo\n"),
	}
}

// TestFiler_EmitOnce writes artifacts and refuses a second emission of the same file.
func TestFiler_EmitOnce(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	f := NewFiler(logrus.New())

	require.NoError(t, f.Emit(artifact(dir, "CallProxy")))
	b, err := os.ReadFile(filepath.Join(dir, "call_proxy.gen.go"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(b), gen.Header))

	err = f.Emit(artifact(dir, "CallProxy"))
	require.ErrorIs(t, err, ErrAlreadyEmitted)

	require.NoError(t, f.Emit(artifact(dir, "Call")))
	assert.Equal(t, []string{filepath.Join(dir, "call_proxy.gen.go"), filepath.Join(dir, "call.gen.go")}, f.Drain())
	assert.Empty(t, f.Drain())
	assert.Equal(t, []string{filepath.Join(dir, "call.gen.go"), filepath.Join(dir, "call_proxy.gen.go")}, f.Emitted())

	a := artifact("", "Orphan")
	require.Error(t, f.Emit(a))
}

// TestClean removes only files starting with the generated header.
func TestClean(t *testing.T) {
	t.Parallel()

	m := newModule(t, "example.com/demo")
	keep := m.write("app/app.go", "package app\n")
	gone := m.write("app/call.gen.go", gen.Header+"\n\npackage app\n")
	mention := m.write("app/notes.go", "package app\n\n// "+gen.Header+"\n")
	m.write("app/x_test.go", gen.Header+"\n\npackage app\n")

	removed, err := Clean([]string{m.path("app")})
	require.NoError(t, err)
	assert.Equal(t, []string{gone}, removed)
	assert.FileExists(t, keep)
	assert.FileExists(t, mention)
	assert.NoFileExists(t, gone)
	assert.FileExists(t, m.path("app/x_test.go"))

	_, err = Clean([]string{m.path("nope")})
	require.Error(t, err)
}

// ---- Reporter ---- //

// TestReporter_LogsAndCounts logs diagnostics with position fields.
func TestReporter_LogsAndCounts(t *testing.T) {
	t.Parallel()

	log, hook := test.NewNullLogger()
	r := NewReporter(log)

	d := &decl.Decl{Name: "Person", Package: &decl.Package{Path: "example.com/app"}}
	d.Pos.Filename, d.Pos.Line, d.Pos.Column = "app.go", 3, 6
	r.Report(diag.Diagnostic{Severity: diag.Error, Decl: d, Message: "broken"})
	r.Report(diag.Diagnostic{Severity: diag.Warning, Message: "odd"})

	assert.Equal(t, 1, r.Errors())
	assert.Equal(t, 1, r.Warnings())
	require.Len(t, hook.AllEntries(), 2)

	first := hook.AllEntries()[0]
	assert.Equal(t, logrus.ErrorLevel, first.Level)
	assert.Equal(t, "broken", first.Message)
	assert.Equal(t, "app.go:3:6", first.Data["pos"])
	assert.Equal(t, "example.com/app.Person", first.Data["decl"])
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
}

// ---- Driver ---- //

func newDriver(t *testing.T, dirs []string, clean bool) *Driver {
	t.Helper()
	d, err := NewDriver(Options{Dirs: dirs, MaxRounds: 8, Clean: clean}, nil)
	require.NoError(t, err)
	return d
}

// TestDriver_GeneratesEverything runs the full pipeline over a temporary module.
func TestDriver_GeneratesEverything(t *testing.T) {
	t.Parallel()

	m := newModule(t, "example.com/demo")
	m.write("app/app.go", appSrc)

	res, err := newDriver(t, []string{m.path("app")}, true).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, res.Rounds)
	assert.Equal(t, 0, res.Errors)
	assert.Equal(t, []string{
		m.path("app/call.gen.go"),
		m.path("app/call_proxy.gen.go"),
		m.path("app/shape_factory.gen.go"),
		m.path("app/simple_bundle.gen.go"),
	}, res.Files)

	assert.Contains(t, m.read("app/call.gen.go"), "//bundle:contract name=Call\ntype Call interface {")
	assert.Contains(t, m.read("app/call_proxy.gen.go"), "var _ Call = (*CallProxy)(nil)")
	assert.Contains(t, m.read("app/simple_bundle.gen.go"), `ctx.RegisterService("example.com/demo/app.Person", a.mCallProxy, nil)`)
	assert.Contains(t, m.read("app/shape_factory.gen.go"), `case "square":`)

	// A second run cleans and regenerates the same files.
	res, err = newDriver(t, []string{m.path("app")}, true).Run(context.Background())
	require.NoError(t, err)
	assert.Len(t, res.Removed, 4)
	assert.Len(t, res.Files, 4)
}

// TestDriver_NoCleanRerun regenerates over existing outputs without errors.
func TestDriver_NoCleanRerun(t *testing.T) {
	t.Parallel()

	m := newModule(t, "example.com/demo")
	m.write("app/app.go", appSrc)

	_, err := newDriver(t, []string{m.path("app")}, true).Run(context.Background())
	require.NoError(t, err)

	res, err := newDriver(t, []string{m.path("app")}, false).Run(context.Background())
	require.NoError(t, err)
	assert.Empty(t, res.Removed)
	assert.Len(t, res.Files, 4)
}

// TestDriver_ParseErrorsReported skips unparsable files and fails the run.
func TestDriver_ParseErrorsReported(t *testing.T) {
	t.Parallel()

	m := newModule(t, "example.com/demo")
	m.write("app/app.go", appSrc)
	m.write("app/broken.go", "package app\n\nfunc {\n")

	res, err := newDriver(t, []string{m.path("app")}, true).Run(context.Background())
	require.ErrorIs(t, err, ErrDiagnostics)
	assert.Equal(t, 1, res.Errors)
	assert.Len(t, res.Files, 4)
}

// TestDriver_RetriesFailedWrite finishes the service cycle when the only write of a round failed.
func TestDriver_RetriesFailedWrite(t *testing.T) {
	// NOT parallel: mutates global seams.

	m := newModule(t, "example.com/demo")
	m.write("app/app.go", "package app\n\n//bundle:service name=Call\ntype Person struct{}\n\n//bundle:export\nfunc (p *Person) Call() {}\n")

	failed := false
	setWriteSeams(t, nil, nil, nil, func(oldpath, newpath string) error {
		if !failed && filepath.Base(newpath) == "call.gen.go" {
			failed = true
			return errors.New("disk full")
		}
		return os.Rename(oldpath, newpath)
	})

	res, err := newDriver(t, []string{m.path("app")}, true).Run(context.Background())
	require.ErrorIs(t, err, ErrDiagnostics)
	assert.True(t, failed)
	assert.Equal(t, 1, res.Errors)
	assert.Equal(t, 5, res.Rounds)
	assert.Equal(t, []string{
		m.path("app/call.gen.go"),
		m.path("app/call_proxy.gen.go"),
		m.path("app/simple_bundle.gen.go"),
	}, res.Files)
	assert.Contains(t, m.read("app/simple_bundle.gen.go"), "a.mCallProxy = NewCallProxy(&Person{})")
}

// TestDriver_TooManyRounds stops when MaxRounds is exhausted.
func TestDriver_TooManyRounds(t *testing.T) {
	t.Parallel()

	m := newModule(t, "example.com/demo")
	m.write("app/app.go", appSrc)

	d, err := NewDriver(Options{Dirs: []string{m.path("app")}, MaxRounds: 2, Clean: true}, nil)
	require.NoError(t, err)
	res, err := d.Run(context.Background())
	require.ErrorIs(t, err, ErrTooManyRounds)
	assert.Equal(t, 2, res.Rounds)
}

// TestDriver_Options validates construction and forwards pipeline options.
func TestDriver_Options(t *testing.T) {
	t.Parallel()

	m := newModule(t, "example.com/demo")
	m.write("app/app.go", appSrc)

	_, err := NewDriver(Options{Dirs: []string{m.path("app")}}, nil)
	require.Error(t, err)

	d, err := NewDriver(Options{
		Dirs:      []string{m.path("app"), m.path("app") + "/."},
		MaxRounds: 8,
		Clean:     true,
		Pipeline:  pipeline.Options{ActivatorName: "DemoBundle"},
	}, nil)
	require.NoError(t, err)
	require.Len(t, d.Packages(), 1)

	_, err = d.Run(context.Background())
	require.NoError(t, err)
	assert.FileExists(t, m.path("app/demo_bundle.gen.go"))
}

// TestDriver_Cancelled returns the context error.
func TestDriver_Cancelled(t *testing.T) {
	t.Parallel()

	m := newModule(t, "example.com/demo")
	m.write("app/app.go", appSrc)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := newDriver(t, []string{m.path("app")}, true).Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
}
