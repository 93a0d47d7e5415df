package host

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

type modHarness struct {
	t   *testing.T
	dir string
}

// newModule creates a temporary module rooted at dir with the given module path.
func newModule(t *testing.T, modPath string) *modHarness {
	t.Helper()
	m := &modHarness{t: t, dir: t.TempDir()}
	m.write("go.mod", "module "+modPath+"\n\ngo 1.22\n")
	return m
}

func (m *modHarness) write(rel, content string) string {
	m.t.Helper()
	path := filepath.Join(m.dir, rel)
	require.NoError(m.t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(m.t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func (m *modHarness) path(rel string) string {
	return filepath.Join(m.dir, rel)
}

func (m *modHarness) read(rel string) string {
	m.t.Helper()
	b, err := os.ReadFile(m.path(rel))
	require.NoError(m.t, err)
	return string(b)
}

// fakeTempFile is a controllable file-like object for writeAtomic tests.
type fakeTempFile struct {
	fileName string
	writeErr error
	closeErr error
}

func (f *fakeTempFile) Name() string { return f.fileName }

func (f *fakeTempFile) Write(p []byte) (int, error) {
	if f.writeErr != nil {
		return 0, f.writeErr
	}
	return len(p), nil
}

func (f *fakeTempFile) Close() error { return f.closeErr }

// setWriteSeams overrides the file seams for the duration of the test.
// Pass nil for any seam you don't want to override.
func setWriteSeams(
	t *testing.T,
	createFn func(string, string) (tempFile, error),
	removeFn func(path string) error,
	chmodFn func(path string, mode os.FileMode) error,
	renameFn func(oldpath, newpath string) error,
) {
	t.Helper()

	origCreate, origRemove, origChmod, origRename := createTempFile, removeFile, chmodFile, renameFile
	t.Cleanup(func() {
		createTempFile, removeFile, chmodFile, renameFile = origCreate, origRemove, origChmod, origRename
	})

	if createFn != nil {
		createTempFile = createFn
	}
	if removeFn != nil {
		removeFile = removeFn
	}
	if chmodFn != nil {
		chmodFile = chmodFn
	}
	if renameFn != nil {
		renameFile = renameFn
	}
}
