package host

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"

	"github.com/sghaida/bundlegen/internal/gen"
	"github.com/sghaida/bundlegen/internal/logging/logfields"
)

// ErrAlreadyEmitted is returned when a file is emitted twice in one run.
var ErrAlreadyEmitted = errors.New("host: file already emitted in this run")

// Filer writes artifacts into their package directories.
type Filer struct {
	log     logrus.FieldLogger
	emitted map[string]bool
	fresh   []string
}

// NewFiler returns a filer with no emitted files.
func NewFiler(log logrus.FieldLogger) *Filer {
	return &Filer{log: log, emitted: map[string]bool{}}
}

// Emit implements gen.Emitter.
func (f *Filer) Emit(a *gen.Artifact) error {
	if a.Package == nil || a.Package.Dir == "" {
		return fmt.Errorf("host: artifact %s has no package directory", a.Name)
	}
	path := filepath.Join(a.Package.Dir, a.FileName)
	if f.emitted[path] {
		return fmt.Errorf("%w: %s", ErrAlreadyEmitted, filepath.ToSlash(path))
	}
	if err := writeAtomic(path, a.Source); err != nil {
		return err
	}
	f.emitted[path] = true
	f.fresh = append(f.fresh, path)
	f.log.WithField(logfields.File, path).Debug("file written")
	return nil
}

// Drain returns the files emitted since the previous call.
func (f *Filer) Drain() []string {
	out := f.fresh
	f.fresh = nil
	return out
}

// Emitted returns every file emitted in this run, sorted.
func (f *Filer) Emitted() []string {
	out := make([]string, 0, len(f.emitted))
	for p := range f.emitted {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Clean removes the generated files of dirs, recognized by their first line
// being gen.Header. It returns the removed paths.
func Clean(dirs []string) ([]string, error) {
	var (
		removed []string
		errs    *multierror.Error
	)
	for _, dir := range dirs {
		files, err := sourceFiles(dir)
		if err != nil {
			errs = multierror.Append(errs, err)
			continue
		}
		for _, path := range files {
			ok, err := isGenerated(path)
			if err != nil {
				errs = multierror.Append(errs, err)
				continue
			}
			if !ok {
				continue
			}
			if err := removeFile(path); err != nil {
				errs = multierror.Append(errs, err)
				continue
			}
			removed = append(removed, path)
		}
	}
	return removed, errs.ErrorOrNil()
}

func isGenerated(path string) (bool, error) {
	fh, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer fh.Close()

	sc := bufio.NewScanner(fh)
	if !sc.Scan() {
		return false, sc.Err()
	}
	return bytes.Equal(bytes.TrimSpace(sc.Bytes()), []byte(gen.Header)), nil
}

// tempFile abstracts an os.File for testability.
type tempFile interface {
	Name() string
	Write([]byte) (int, error)
	Close() error
}

// File operation hooks, overridden in tests.
var (
	createTempFile = func(dir, pattern string) (tempFile, error) { return os.CreateTemp(dir, pattern) }
	chmodFile      = os.Chmod
	renameFile     = os.Rename
	removeFile     = os.Remove
)

// filePerm is the mode of generated files.
const filePerm os.FileMode = 0o644

// writeAtomic replaces path with data through a temporary sibling that is
// renamed into place. The temporary file never outlives a failure.
func writeAtomic(path string, data []byte) error {
	tmp, err := createTempFile(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("host: write %s: %w", filepath.ToSlash(path), err)
	}

	_, werr := tmp.Write(data)
	err = multierror.Append(werr, tmp.Close()).ErrorOrNil()
	if err == nil {
		err = chmodFile(tmp.Name(), filePerm)
	}
	if err == nil {
		err = renameFile(tmp.Name(), path)
	}
	if err != nil {
		_ = removeFile(tmp.Name())
		return fmt.Errorf("host: write %s: %w", filepath.ToSlash(path), err)
	}
	return nil
}
