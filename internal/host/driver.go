// Package host runs the generation pipeline over package directories on
// disk. It parses sources into a fresh universe every round, writes the
// artifacts the pipeline emits and feeds them back as the next round's roots
// until a round emits nothing.
package host

import (
	"context"
	"errors"
	"fmt"
	"go/token"

	"github.com/sirupsen/logrus"

	"github.com/sghaida/bundlegen/internal/decl"
	"github.com/sghaida/bundlegen/internal/diag"
	"github.com/sghaida/bundlegen/internal/logging"
	"github.com/sghaida/bundlegen/internal/logging/logfields"
	"github.com/sghaida/bundlegen/internal/pipeline"
)

var (
	// ErrTooManyRounds is returned when generation keeps emitting files past MaxRounds.
	ErrTooManyRounds = errors.New("host: generation did not settle")
	// ErrDiagnostics is returned when at least one error diagnostic was reported.
	ErrDiagnostics = errors.New("host: errors were reported")
)

// Options configures a Driver.
type Options struct {
	Dirs      []string // package directories, "." when empty
	MaxRounds int      // bound on non-final rounds
	Clean     bool     // remove previously generated files first
	Pipeline  pipeline.Options
}

// Result summarizes a run.
type Result struct {
	Rounds   int      // non-final rounds run
	Files    []string // files written, sorted
	Removed  []string // files removed by the clean step
	Errors   int
	Warnings int
}

// Driver runs the rounds of one generation.
type Driver struct {
	opts Options
	log  logrus.FieldLogger
	pkgs []*decl.Package
}

// NewDriver resolves the configured directories to packages.
func NewDriver(opts Options, log logrus.FieldLogger) (*Driver, error) {
	if log == nil {
		log = logging.Discard()
	}
	if len(opts.Dirs) == 0 {
		opts.Dirs = []string{"."}
	}
	if opts.MaxRounds <= 0 {
		return nil, fmt.Errorf("host: MaxRounds must be positive, got %d", opts.MaxRounds)
	}

	d := &Driver{opts: opts, log: logging.Subsys(log, "host")}
	seen := map[string]bool{}
	for _, dir := range opts.Dirs {
		pkg, err := ResolvePackage(dir)
		if err != nil {
			return nil, err
		}
		if seen[pkg.Dir] {
			continue
		}
		seen[pkg.Dir] = true
		d.pkgs = append(d.pkgs, pkg)
	}
	return d, nil
}

// Packages returns the resolved packages.
func (d *Driver) Packages() []*decl.Package { return d.pkgs }

// Run generates until a round emits nothing, then runs the final round.
func (d *Driver) Run(ctx context.Context) (*Result, error) {
	res := &Result{}

	if d.opts.Clean {
		dirs := make([]string, 0, len(d.pkgs))
		for _, p := range d.pkgs {
			dirs = append(dirs, p.Dir)
		}
		removed, err := Clean(dirs)
		if err != nil {
			return res, fmt.Errorf("host: clean: %w", err)
		}
		res.Removed = removed
		if len(removed) > 0 {
			d.log.WithField(logfields.Count, len(removed)).Info("removed generated files")
		}
	}

	filer := NewFiler(d.log)
	rep := NewReporter(d.log)
	st := pipeline.NewState(d.log)
	proc := pipeline.New(filer, rep, d.log, d.opts.Pipeline)

	defer func() {
		res.Files = filer.Emitted()
		res.Errors = rep.Errors()
		res.Warnings = rep.Warnings()
	}()

	var roots map[string]bool // nil selects every file
	for n := 1; ; n++ {
		if n > d.opts.MaxRounds {
			return res, fmt.Errorf("%w after %d rounds", ErrTooManyRounds, d.opts.MaxRounds)
		}
		if err := proc.Process(ctx, st, d.load(n, roots, false, rep)); err != nil {
			return res, err
		}
		res.Rounds = n

		fresh := filer.Drain()
		d.log.WithFields(logrus.Fields{
			logfields.Round: n,
			logfields.Count: len(fresh),
		}).Debug("round finished")
		if len(fresh) == 0 {
			if st.Outstanding() {
				// Nothing new to parse, but a failed emission can be retried.
				d.log.WithField(logfields.Round, n+1).Debug("retrying unemitted artifacts")
				roots = map[string]bool{}
				continue
			}
			if err := proc.Process(ctx, st, d.load(n+1, map[string]bool{}, true, rep)); err != nil {
				return res, err
			}
			break
		}
		roots = make(map[string]bool, len(fresh))
		for _, p := range fresh {
			roots[p] = true
		}
	}

	if rep.Errors() > 0 {
		return res, fmt.Errorf("%w: %d error(s)", ErrDiagnostics, rep.Errors())
	}
	return res, nil
}

// load parses every source file of every package into a new universe.
// Files that do not parse are reported and skipped.
func (d *Driver) load(n int, roots map[string]bool, final bool, rep diag.Reporter) pipeline.Round {
	fset := token.NewFileSet()
	r := pipeline.Round{Number: n, Universe: decl.NewUniverse(), Final: final}

	for _, pkg := range d.pkgs {
		files, err := sourceFiles(pkg.Dir)
		if err != nil {
			rep.Report(diag.FromError(err))
			continue
		}
		for _, path := range files {
			decls, err := decl.ParseFile(fset, pkg, path, nil)
			if err != nil {
				// Report parse errors once, in the round that first sees the file.
				if roots == nil || roots[path] {
					rep.Report(diag.FromError(err))
				}
				continue
			}
			r.Universe.Add(decls...)
			if roots == nil || roots[path] {
				r.Roots = append(r.Roots, decls...)
			}
		}
	}
	d.log.WithFields(logrus.Fields{
		logfields.Round: n,
		logfields.Count: r.Universe.Len(),
		logfields.Roots: len(r.Roots),
	}).Debug("sources loaded")
	return r
}
