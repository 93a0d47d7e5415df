// Package pipeline runs the generation phases of one round over an explicit
// State. The host calls Process once per round with the round's new
// declarations and the full universe; generated sources become visible to
// the pipeline in the following round.
package pipeline

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/sghaida/bundlegen/internal/decl"
	"github.com/sghaida/bundlegen/internal/diag"
	"github.com/sghaida/bundlegen/internal/factory"
	"github.com/sghaida/bundlegen/internal/gen"
	"github.com/sghaida/bundlegen/internal/logging"
	"github.com/sghaida/bundlegen/internal/logging/logfields"
	"github.com/sghaida/bundlegen/internal/service"
	"github.com/sghaida/bundlegen/internal/tag"
)

// DefaultBundleImport is the runtime package used by activators when neither
// the options nor the service sources name one.
const DefaultBundleImport = "github.com/sghaida/bundlegen/bundle"

// Options configures the processor.
type Options struct {
	ActivatorName string // service.DefaultActivator when empty
	BundleImport  string // runtime import path; inferred when empty
}

// Processor runs the phases of a round.
type Processor struct {
	em   gen.Emitter
	rep  diag.Reporter
	log  logrus.FieldLogger
	opts Options
}

// New returns a processor emitting through em and reporting to rep.
func New(em gen.Emitter, rep diag.Reporter, log logrus.FieldLogger, opts Options) *Processor {
	if log == nil {
		log = logging.Discard()
	}
	return &Processor{em: em, rep: rep, log: log, opts: opts}
}

// Process runs one round: discovery, validation, dispatcher emission,
// service registry update, contract, proxy and activator emission. Problems
// with single declarations or artifacts are reported and never abort the
// round; only a cancelled ctx does.
func (p *Processor) Process(ctx context.Context, st *State, r Round) error {
	log := p.log.WithFields(logrus.Fields{
		logfields.Round: r.Number,
		logfields.Roots: len(r.Roots),
		logfields.Final: r.Final,
	})
	log.Debug("round started")

	phases := []struct {
		name string
		run  func(*State, Round, logrus.FieldLogger)
	}{
		{"discover", p.discover},
		{"dispatchers", p.dispatchers},
		{"services", p.services},
		{"contracts", p.contracts},
		{"proxies", p.proxies},
		{"activator", p.activator},
		{"finish", p.finish},
	}
	for _, ph := range phases {
		if err := ctx.Err(); err != nil {
			return err
		}
		ph.run(st, r, log.WithField(logfields.Phase, ph.name))
	}
	return nil
}

func (p *Processor) report(err error) {
	diag.ReportAll(p.rep, err)
}

// discover reports malformed tags, records visible contracts and proxies and
// validates factory members, including those pending from earlier rounds.
func (p *Processor) discover(st *State, r Round, log logrus.FieldLogger) {
	candidates := st.Pending
	st.Pending = nil

	for _, d := range r.Roots {
		for _, err := range d.TagErrs {
			p.rep.Report(diag.Diagnostic{Severity: diag.Error, Decl: d, Message: err.Error(), Err: err})
		}
		if name, err := p.reference(d, tag.ServiceContract, decl.KindInterface); err != nil {
			p.report(err)
		} else if name != "" {
			p.record(st, log, d, name, st.Contracts, st.contractsEmitted)
		}
		if name, err := p.reference(d, tag.Proxy, decl.KindStruct); err != nil {
			p.report(err)
		} else if name != "" {
			p.record(st, log, d, name, st.Proxies, st.proxiesEmitted)
		}
		if d.HasTag(tag.FactoryMember) {
			s, err := factory.NewSymbol(d)
			if err != nil {
				p.report(err)
				continue
			}
			candidates = append(candidates, s)
		}
	}

	for _, s := range candidates {
		err := factory.Validate(s, r.Universe)
		var ve *factory.ValidationError
		if errors.As(err, &ve) && ve.Unresolved && !r.Final {
			st.Pending = append(st.Pending, s)
			log.WithField(logfields.Decl, s.String()).Debug("group type not visible yet")
			continue
		}
		if err != nil {
			p.report(err)
			continue
		}
		if err := st.Groups.Add(s); err != nil {
			p.report(err)
		}
	}
}

// reference returns the service name a contract or proxy tag on d refers
// to, or "" when d carries no such tag.
func (p *Processor) reference(d *decl.Decl, role tag.Role, kind decl.Kind) (string, error) {
	t, ok := d.Tag(role)
	if !ok {
		return "", nil
	}
	if d.Kind != kind {
		return "", &MisplacedTagError{Decl: d, Role: role, Reason: "only " + kind.String() + " types can be tagged " + role.String()}
	}
	name := t.Arg("name")
	if name == "" {
		return "", &MisplacedTagError{Decl: d, Role: role, Reason: "name argument is empty"}
	}
	return name, nil
}

// record makes d the visible reference of name when this cycle emitted it.
func (p *Processor) record(st *State, log logrus.FieldLogger, d *decl.Decl, name string, refs map[string]*decl.Decl, emitted map[string]bool) {
	if !st.produced(name, emitted) {
		log.WithFields(logrus.Fields{
			logfields.Decl:    d.QualifiedName(),
			logfields.Service: name,
		}).Debug("ignoring declaration not generated in this cycle")
		return
	}
	refs[name] = d
}

func (p *Processor) dispatchers(st *State, _ Round, log logrus.FieldLogger) {
	if st.Groups.Len() == 0 {
		return
	}
	log.WithField(logfields.Count, st.Groups.Len()).Debug("emitting dispatchers")
	p.report(st.Groups.Generate(p.em))
}

func (p *Processor) services(st *State, r Round, log logrus.FieldLogger) {
	before := st.Services.Len()
	p.report(st.Services.Discover(r.Roots, r.Universe))
	if n := st.Services.Len() - before; n > 0 {
		log.WithField(logfields.Count, n).Debug("services registered")
	}
}

func (p *Processor) contracts(st *State, r Round, log logrus.FieldLogger) {
	if r.Final {
		return
	}
	for _, e := range st.Services.Entries() {
		if st.contractsEmitted[e.Name] {
			continue
		}
		if err := p.emit(log, func() (*gen.Artifact, error) { return service.Contract(e) }); err != nil {
			p.report(err)
			continue
		}
		st.contractsEmitted[e.Name] = true
	}
}

func (p *Processor) proxies(st *State, r Round, log logrus.FieldLogger) {
	if r.Final || st.Services.Len() == 0 || len(st.missing(st.Contracts)) > 0 {
		return
	}
	for _, e := range st.Services.Entries() {
		if st.proxiesEmitted[e.Name] {
			continue
		}
		contract := st.Contracts[e.Name]
		if err := p.emit(log, func() (*gen.Artifact, error) { return service.Proxy(e, contract) }); err != nil {
			p.report(err)
			continue
		}
		st.proxiesEmitted[e.Name] = true
	}
}

func (p *Processor) activator(st *State, r Round, log logrus.FieldLogger) {
	if r.Final || st.Services.Len() == 0 || len(st.missing(st.Proxies)) > 0 {
		return
	}
	entries := st.Services.Entries()
	opts := service.ActivatorOptions{
		Name:         p.opts.ActivatorName,
		BundleImport: p.bundleImport(entries),
	}
	err := p.emit(log, func() (*gen.Artifact, error) {
		return service.Activator(st.Services.Namespace(), opts, entries)
	})
	if err != nil {
		p.report(err)
		return
	}
	st.ResetCycle()
}

// bundleImport picks the runtime package: the configured path, else an
// import ending in /bundle used by the service sources, else the default.
func (p *Processor) bundleImport(entries []*service.Entry) decl.Import {
	if p.opts.BundleImport != "" {
		return decl.Import{Path: p.opts.BundleImport}
	}
	var imps []decl.Import
	for _, e := range entries {
		imps = append(imps, e.Impl.Imports...)
	}
	if gi, ok := gen.FindImport(imps, "bundle"); ok {
		return gi
	}
	return decl.Import{Path: DefaultBundleImport}
}

func (p *Processor) emit(log logrus.FieldLogger, build func() (*gen.Artifact, error)) error {
	a, err := build()
	if err != nil {
		return err
	}
	if err := gen.Emit(p.em, a); err != nil {
		return err
	}
	log.WithFields(logrus.Fields{
		logfields.Artifact: a.Name,
		logfields.File:     a.FileName,
	}).Info("artifact generated")
	return nil
}

// finish reports a service cycle that can no longer complete and drops all
// state. Unresolved factory members were already reported by discover.
func (p *Processor) finish(st *State, r Round, _ logrus.FieldLogger) {
	if !r.Final {
		return
	}
	if st.Services.Len() > 0 {
		ns := ""
		if pkg := st.Services.Namespace(); pkg != nil {
			ns = pkg.Path
		}
		p.report(&IncompleteCycleError{
			Namespace:        ns,
			MissingContracts: st.missing(st.Contracts),
			MissingProxies:   st.missing(st.Proxies),
		})
	}
	st.Reset()
}
