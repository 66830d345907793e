package runtime

import (
	"regexp"
	"strings"
)

// RegExp backs regex literals and `new RegExp(...)`. The pattern is
// handed to Go's RE2 unchanged (the i/s/m flags become inline flags);
// the subset's supported constructs (character classes, quantifiers,
// groups, anchors, alternation) are shared between the two syntaxes.
type RegExp struct {
	Source string
	Flags  string
	re     *regexp.Regexp
}

// NewRegExp compiles pattern/flags. Unsupported constructs surface as a
// JS SyntaxError at the point of evaluation, matching engine behavior
// for an invalid literal.
func NewRegExp(pattern, flags string) *RegExp {
	goPattern := pattern
	if strings.Contains(flags, "i") {
		goPattern = "(?i)" + goPattern
	}
	if strings.Contains(flags, "s") {
		goPattern = "(?s)" + goPattern
	}
	if strings.Contains(flags, "m") {
		goPattern = "(?m)" + goPattern
	}
	re, err := regexp.Compile(goPattern)
	if err != nil {
		panic(&Exception{Value: "SyntaxError: Invalid regular expression: /" + pattern + "/: " + err.Error()})
	}
	return &RegExp{Source: pattern, Flags: flags, re: re}
}

// Test implements RegExp.prototype.test.
func (r *RegExp) Test(s string) bool { return r.re.MatchString(s) }

// Exec implements RegExp.prototype.exec for the non-global case: the
// match plus its capture groups, or null.
func (r *RegExp) Exec(s string) interface{} {
	m := r.re.FindStringSubmatchIndex(s)
	if m == nil {
		return nil
	}
	groups := r.re.FindStringSubmatch(s)
	elems := make([]interface{}, len(groups))
	for i, g := range groups {
		elems[i] = g
	}
	arr := NewArray(elems...)
	return arr
}

// Global reports the `g` flag, consulted by String.prototype.replace.
func (r *RegExp) Global() bool { return strings.Contains(r.Flags, "g") }

// ReplaceIn implements the regex path of String.prototype.replace /
// replaceAll.
func (r *RegExp) ReplaceIn(s, replacement string, all bool) string {
	goRepl := convertReplacement(replacement)
	if all || r.Global() {
		return r.re.ReplaceAllString(s, goRepl)
	}
	replaced := false
	return r.re.ReplaceAllStringFunc(s, func(m string) string {
		if replaced {
			return m
		}
		replaced = true
		sub := r.re.FindStringSubmatchIndex(s)
		return string(r.re.ExpandString(nil, goRepl, s, sub))
	})
}

// convertReplacement maps JS `$1`-style references onto Go's `${1}`.
func convertReplacement(repl string) string {
	var out strings.Builder
	for i := 0; i < len(repl); i++ {
		if repl[i] == '$' && i+1 < len(repl) {
			next := repl[i+1]
			if next == '$' {
				out.WriteString("$$")
				i++
				continue
			}
			if next >= '0' && next <= '9' {
				out.WriteString("${")
				out.WriteByte(next)
				out.WriteString("}")
				i++
				continue
			}
		}
		out.WriteByte(repl[i])
	}
	return out.String()
}

func (r *RegExp) String() string { return "/" + r.Source + "/" + r.Flags }
