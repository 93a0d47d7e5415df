package gen

import (
	"go/token"
	"strconv"
	"strings"
	"unicode"
)

// FileName derives the generated file name for a type: CallProxy -> call_proxy.gen.go.
func FileName(typeName string) string {
	return SnakeCase(typeName) + ".gen.go"
}

// SnakeCase converts a Go identifier to snake_case, keeping acronyms together.
func SnakeCase(s string) string {
	runes := []rune(s)
	var sb strings.Builder
	for i, r := range runes {
		if unicode.IsUpper(r) {
			if i > 0 {
				prev := runes[i-1]
				nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
				if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
					sb.WriteByte('_')
				}
			}
			sb.WriteRune(unicode.ToLower(r))
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

// ParamName lowers a service name into a parameter name, avoiding keywords.
func ParamName(name string) string {
	p := strings.ToLower(name)
	if p == "" || token.IsKeyword(p) || !token.IsIdentifier(p) {
		return "impl"
	}
	return p
}

// FreeIdent returns base, or base with a numeric suffix, avoiding taken names.
func FreeIdent(base string, taken map[string]bool) string {
	if !taken[base] {
		return base
	}
	for i := 1; ; i++ {
		c := base + strconv.Itoa(i)
		if !taken[c] {
			return c
		}
	}
}

// ArgName names an unnamed or blank parameter by position.
func ArgName(i int) string {
	return "arg" + strconv.Itoa(i)
}
