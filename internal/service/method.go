package service

import (
	"strings"

	"github.com/sghaida/bundlegen/internal/decl"
	"github.com/sghaida/bundlegen/internal/gen"
)

// method is an operation prepared for rendering.
type method struct {
	Name    string
	Recv    string // receiver name, free of parameter and package names
	Params  string // "(a int, xs ...string)"
	Results string // "", " int", " (int, error)"
	Args    string // "a, xs..."
	Returns bool
}

func newMethod(op Operation) method {
	sig := op.Signature
	taken := map[string]bool{}
	for _, q := range sig.Quals() {
		taken[q] = true
	}
	for _, p := range sig.Params {
		if p.Name != "" && p.Name != "_" {
			taken[p.Name] = true
		}
	}
	for _, r := range sig.Results {
		if r.Name != "" && r.Name != "_" {
			taken[r.Name] = true
		}
	}

	names := make([]string, len(sig.Params))
	for i, p := range sig.Params {
		n := p.Name
		if n == "" || n == "_" {
			n = gen.FreeIdent(gen.ArgName(i), taken)
			taken[n] = true
		}
		names[i] = n
	}

	params := make([]string, len(sig.Params))
	args := make([]string, len(sig.Params))
	for i, p := range sig.Params {
		typ := p.Type
		arg := names[i]
		if sig.Variadic && i == len(sig.Params)-1 {
			typ = "..." + typ
			arg += "..."
		}
		params[i] = names[i] + " " + typ
		args[i] = arg
	}

	return method{
		Name:    op.Name,
		Recv:    gen.FreeIdent("p", taken),
		Params:  "(" + strings.Join(params, ", ") + ")",
		Results: results(sig.Results),
		Args:    strings.Join(args, ", "),
		Returns: len(sig.Results) > 0,
	}
}

func results(rs []decl.Param) string {
	if len(rs) == 0 {
		return ""
	}
	named := rs[0].Name != ""
	if len(rs) == 1 && !named {
		return " " + rs[0].Type
	}
	parts := make([]string, len(rs))
	for i, r := range rs {
		if named {
			parts[i] = r.Name + " " + r.Type
		} else {
			parts[i] = r.Type
		}
	}
	return " (" + strings.Join(parts, ", ") + ")"
}

func methodsOf(e *Entry) []method {
	out := make([]method, 0, len(e.Operations))
	for _, op := range e.Operations {
		out = append(out, newMethod(op))
	}
	return out
}
