// Package tag parses and renders bundlegen directive comments.
//
// A directive is a line comment attached to a declaration:
//
//	//bundle:factory type=Shape id=circle
//	//bundle:service name=Call
//	//bundle:export
//	//bundle:contract name=Call
//	//bundle:proxy name=Call
//
// The role after the prefix selects one of a closed set of variants (Role).
// Arguments are key=value pairs; values are bare words or Go-quoted strings.
package tag

import (
	"sort"
	"strconv"
	"strings"
)

// Prefix starts every bundlegen directive.
const Prefix = "//bundle:"

// Role is the closed set of tag variants understood by the pipeline.
type Role uint8

const (
	// FactoryMember marks a struct as a member of a factory group.
	FactoryMember Role = iota + 1
	// ServiceProvider marks a struct as a service implementation.
	ServiceProvider
	// ExportedOperation marks a method of a service as exported.
	ExportedOperation
	// ServiceContract marks a generated service interface.
	ServiceContract
	// Proxy marks a generated delegating proxy.
	Proxy
)

var roleNames = map[Role]string{
	FactoryMember:     "factory",
	ServiceProvider:   "service",
	ExportedOperation: "export",
	ServiceContract:   "contract",
	Proxy:             "proxy",
}

var rolesByName = func() map[string]Role {
	m := make(map[string]Role, len(roleNames))
	for r, n := range roleNames {
		m[n] = r
	}
	return m
}()

// String returns the directive keyword of the role.
func (r Role) String() string {
	if n, ok := roleNames[r]; ok {
		return n
	}
	return "role(" + strconv.Itoa(int(r)) + ")"
}

// Tag is one parsed directive.
type Tag struct {
	Role Role
	Args map[string]string
}

// Arg returns the named argument, or "" when absent.
func (t Tag) Arg(key string) string {
	return t.Args[key]
}

// String renders the tag back into directive form with sorted arguments.
func (t Tag) String() string {
	var sb strings.Builder
	sb.WriteString(Prefix)
	sb.WriteString(t.Role.String())

	keys := make([]string, 0, len(t.Args))
	for k := range t.Args {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		sb.WriteByte(' ')
		sb.WriteString(k)
		sb.WriteByte('=')
		sb.WriteString(renderValue(t.Args[k]))
	}
	return sb.String()
}

// New builds a tag from a role and alternating key/value pairs.
func New(role Role, kv ...string) Tag {
	t := Tag{Role: role, Args: map[string]string{}}
	for i := 0; i+1 < len(kv); i += 2 {
		t.Args[kv[i]] = kv[i+1]
	}
	return t
}

// SyntaxError reports a malformed directive.
type SyntaxError struct {
	Line   string
	Reason string
}

// Error implements the error interface.
func (e *SyntaxError) Error() string {
	return "tag: " + e.Reason + " in " + strconv.Quote(e.Line)
}

// IsDirective reports whether a raw comment line is a bundlegen directive.
func IsDirective(line string) bool {
	return strings.HasPrefix(line, Prefix)
}

// Parse parses one raw comment line (including the leading //).
func Parse(line string) (Tag, error) {
	if !IsDirective(line) {
		return Tag{}, &SyntaxError{Line: line, Reason: "missing " + strconv.Quote(Prefix) + " prefix"}
	}
	rest := strings.TrimSpace(strings.TrimPrefix(line, Prefix))

	name := rest
	if i := strings.IndexAny(rest, " \t"); i >= 0 {
		name, rest = rest[:i], rest[i+1:]
	} else {
		rest = ""
	}
	role, ok := rolesByName[name]
	if !ok {
		return Tag{}, &SyntaxError{Line: line, Reason: "unknown role " + strconv.Quote(name)}
	}

	args, err := parseArgs(strings.TrimSpace(rest))
	if err != nil {
		return Tag{}, &SyntaxError{Line: line, Reason: err.Error()}
	}
	return Tag{Role: role, Args: args}, nil
}

// ParseAll parses every directive line in lines, skipping ordinary comments.
// Syntax errors do not stop parsing of the remaining lines.
func ParseAll(lines []string) ([]Tag, []error) {
	var (
		tags []Tag
		errs []error
	)
	for _, ln := range lines {
		if !IsDirective(ln) {
			continue
		}
		t, err := Parse(ln)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		tags = append(tags, t)
	}
	return tags, errs
}

func parseArgs(s string) (map[string]string, error) {
	args := map[string]string{}
	for s != "" {
		key, rest, ok := strings.Cut(s, "=")
		if !ok || key == "" || strings.ContainsAny(key, " \t\"") {
			return nil, errString("expected key=value near " + strconv.Quote(s))
		}
		if _, dup := args[key]; dup {
			return nil, errString("duplicate argument " + strconv.Quote(key))
		}

		var val string
		if strings.HasPrefix(rest, `"`) {
			quoted, err := strconv.QuotedPrefix(rest)
			if err != nil {
				return nil, errString("unterminated value for " + strconv.Quote(key))
			}
			val, _ = strconv.Unquote(quoted)
			rest = rest[len(quoted):]
			if rest != "" && rest[0] != ' ' && rest[0] != '\t' {
				return nil, errString("missing space after value for " + strconv.Quote(key))
			}
		} else {
			end := strings.IndexAny(rest, " \t")
			if end < 0 {
				end = len(rest)
			}
			val, rest = rest[:end], rest[end:]
		}
		args[key] = val
		s = strings.TrimSpace(rest)
	}
	return args, nil
}

func renderValue(v string) string {
	if v == "" || strings.ContainsAny(v, " \t\"=\\") {
		return strconv.Quote(v)
	}
	return v
}

type errString string

func (e errString) Error() string { return string(e) }
