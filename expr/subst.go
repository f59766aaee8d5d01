package expr

import (
	"strings"
)

const (
	openBraces  = "{{"
	closeBraces = "}}"
)

// HasTemplate reports whether s contains anything Expand would change.
func HasTemplate(s string) bool {
	return strings.Contains(s, "$") || strings.Contains(s, openBraces)
}

// Expand evaluates every {{ ... }} region of s, replacing it with the
// rendered result, and substitutes variables in the text around them.
func Expand(s string, env Env) (string, error) {
	if !HasTemplate(s) {
		return s, nil
	}
	var sb strings.Builder
	rest := s
	for {
		start := strings.Index(rest, openBraces)
		if start < 0 {
			sb.WriteString(SubstituteVars(rest, env))
			return sb.String(), nil
		}
		end := strings.Index(rest[start+len(openBraces):], closeBraces)
		if end < 0 {
			return "", &Error{Kind: ErrParse, Expr: s, Msg: "unterminated " + openBraces}
		}
		sb.WriteString(SubstituteVars(rest[:start], env))
		inner := rest[start+len(openBraces) : start+len(openBraces)+end]
		v, err := Eval(strings.TrimSpace(inner), env)
		if err != nil {
			return "", err
		}
		sb.WriteString(v.String())
		rest = rest[start+len(openBraces)+end+len(closeBraces):]
	}
}

// SubstituteVars replaces $name and ${name} references with the raw text of
// the variable. Unknown names are left as written.
func SubstituteVars(s string, env Env) string {
	if !strings.Contains(s, "$") {
		return s
	}
	var sb strings.Builder
	i := 0
	for i < len(s) {
		c := s[i]
		if c != '$' {
			sb.WriteByte(c)
			i++
			continue
		}
		name, next := varName(s, i)
		if name == "" {
			sb.WriteByte(c)
			i++
			continue
		}
		if v, ok := env.Var(name); ok {
			sb.WriteString(v)
		} else {
			sb.WriteString(s[i:next])
		}
		i = next
	}
	return sb.String()
}

// varName returns the variable name referenced at s[i] == '$' and the
// offset just past the reference.
func varName(s string, i int) (string, int) {
	j := i + 1
	if j < len(s) && s[j] == '{' {
		end := strings.IndexByte(s[j:], '}')
		if end <= 1 {
			return "", i + 1
		}
		return s[j+1 : j+end], j + end + 1
	}
	k := j
	for k < len(s) && isIdent(s[k]) {
		k++
	}
	if k == j || isDigit(s[j]) {
		return "", i + 1
	}
	return s[j:k], k
}

// VarRefs lists variable names referenced in s, in order of appearance.
func VarRefs(s string) []string {
	var out []string
	for i := 0; i < len(s); i++ {
		if s[i] != '$' {
			continue
		}
		if name, next := varName(s, i); name != "" {
			out = append(out, name)
			i = next - 1
		}
	}
	return out
}
