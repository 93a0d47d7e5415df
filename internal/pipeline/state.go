package pipeline

import (
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/sghaida/bundlegen/internal/decl"
	"github.com/sghaida/bundlegen/internal/factory"
	"github.com/sghaida/bundlegen/internal/service"
)

// Round is the input of one invocation of the processor.
type Round struct {
	Number   int          // 1-based
	Roots    []*decl.Decl // declarations new in this round
	Universe *decl.Universe
	Final    bool // no further round follows
}

// State is the processor state carried across rounds. It is created by the
// host and only mutated by Processor.Process.
type State struct {
	// Pending holds factory members whose group type is not visible yet.
	Pending []*factory.Symbol
	Groups  *factory.Index

	Services  *service.Registry
	Contracts map[string]*decl.Decl // service name -> visible contract
	Proxies   map[string]*decl.Decl // service name -> visible proxy

	contractsEmitted map[string]bool
	proxiesEmitted   map[string]bool
}

// NewState returns an empty state.
func NewState(log logrus.FieldLogger) *State {
	return &State{
		Groups:           factory.NewIndex(),
		Services:         service.NewRegistry(log),
		Contracts:        map[string]*decl.Decl{},
		Proxies:          map[string]*decl.Decl{},
		contractsEmitted: map[string]bool{},
		proxiesEmitted:   map[string]bool{},
	}
}

// ResetCycle clears the service registry together with the contract and
// proxy tables, ending the current service cycle.
func (s *State) ResetCycle() {
	s.Services.Reset()
	s.Contracts = map[string]*decl.Decl{}
	s.Proxies = map[string]*decl.Decl{}
	s.contractsEmitted = map[string]bool{}
	s.proxiesEmitted = map[string]bool{}
}

// Reset clears everything. The final round ends with a reset.
func (s *State) Reset() {
	s.ResetCycle()
	s.Groups.Reset()
	s.Pending = nil
}

// Outstanding reports whether another round can make progress without new
// sources: an artifact whose inputs are all visible was not emitted, which
// happens when its emission failed.
func (s *State) Outstanding() bool {
	entries := s.Services.Entries()
	if len(entries) == 0 {
		return false
	}
	for _, e := range entries {
		if !s.contractsEmitted[e.Name] {
			return true
		}
	}
	if len(s.missing(s.Contracts)) > 0 {
		return false
	}
	for _, e := range entries {
		if !s.proxiesEmitted[e.Name] {
			return true
		}
	}
	// Every proxy visible means the activator is due; a successful
	// emission would have ended the cycle.
	return len(s.missing(s.Proxies)) == 0
}

// produced reports whether name is a service of the current cycle whose
// artifact was emitted by this cycle. Declarations left over from an earlier
// run do not count.
func (s *State) produced(name string, emitted map[string]bool) bool {
	_, ok := s.Services.Entry(name)
	return ok && emitted[name]
}

// missing returns the service names without a visible declaration in refs.
func (s *State) missing(refs map[string]*decl.Decl) []string {
	var out []string
	for _, e := range s.Services.Entries() {
		if _, ok := refs[e.Name]; !ok {
			out = append(out, e.Name)
		}
	}
	sort.Strings(out)
	return out
}
