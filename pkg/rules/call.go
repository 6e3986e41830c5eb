package rules

import (
	"strings"
)

// Call is a call expression found in source text.
type Call struct {
	Name   string // callee identifier, without any receiver
	Method bool   // callee is an attribute access (preceded by '.')
	Args   []Arg  // top-level arguments as written
	Line   string // full source line on which the callee name appears
}

// Kwarg returns the first keyword argument named key.
func (c Call) Kwarg(key string) (Arg, bool) {
	for _, a := range c.Args {
		if a.Key == key {
			return a, true
		}
	}
	return Arg{}, false
}

// HasKwarg reports whether the call passes key as a keyword argument.
func (c Call) HasKwarg(key string) bool {
	_, ok := c.Kwarg(key)
	return ok
}

// Arg is one top-level argument of a call.
type Arg struct {
	Raw   string // text between separators, including surrounding whitespace
	Key   string // keyword name; empty for positional and starred arguments
	Value string // trimmed value expression
}

// NewKwarg builds a keyword argument suitable for appending after other arguments.
func NewKwarg(key, value string) Arg {
	return Arg{Raw: " " + key + "=" + value, Key: key, Value: value}
}

// WithKey returns a copy of a keyword argument renamed to key.
func (a Arg) WithKey(key string) Arg {
	if a.Key == "" {
		return a
	}
	i := strings.Index(a.Raw, a.Key)
	a.Raw = a.Raw[:i] + key + a.Raw[i+len(a.Key):]
	a.Key = key
	return a
}

// WithValue returns a copy of a keyword argument with its value replaced,
// keeping the whitespace around the original value.
func (a Arg) WithValue(value string) Arg {
	if a.Key == "" {
		return a
	}
	k := strings.Index(a.Raw, a.Key) + len(a.Key)
	eq := k + strings.IndexByte(a.Raw[k:], '=')
	rest := a.Raw[eq+1:]
	a.Raw = a.Raw[:eq+1] + leadingSpace(rest) + value + trailingSpace(rest)
	a.Value = value
	return a
}

// ParseArg classifies a raw argument as positional or keyword.
func ParseArg(raw string) Arg {
	a := Arg{Raw: raw, Value: strings.TrimSpace(raw)}
	t := a.Value
	if t == "" || !isIdentStart(t[0]) {
		return a
	}
	j := 0
	for j < len(t) && isIdentByte(t[j]) {
		j++
	}
	k := j
	for k < len(t) && (t[k] == ' ' || t[k] == '\t') {
		k++
	}
	if k < len(t) && t[k] == '=' && (k+1 == len(t) || t[k+1] != '=') {
		a.Key = t[:j]
		a.Value = strings.TrimSpace(t[k+1:])
	}
	return a
}

// SplitArgs splits an argument list at top-level commas. Brackets, string
// literals and comments are respected. An empty list yields no arguments.
func SplitArgs(list string) []Arg {
	if strings.TrimSpace(list) == "" {
		return nil
	}
	var args []Arg
	depth, start := 0, 0
	for i := 0; i < len(list); {
		switch c := list[i]; {
		case c == '#':
			i = skipComment(list, i)
		case c == '\'' || c == '"':
			i = skipString(list, i)
		case c == '(' || c == '[' || c == '{':
			depth++
			i++
		case c == ')' || c == ']' || c == '}':
			depth--
			i++
		case c == ',' && depth == 0:
			args = append(args, ParseArg(list[start:i]))
			i++
			start = i
		default:
			i++
		}
	}
	return append(args, ParseArg(list[start:]))
}

// JoinArgs renders args back into an argument list. orig is the list the
// arguments were split from; its leading and trailing whitespace is kept even
// when the first or last argument was removed.
func JoinArgs(orig string, args []Arg) string {
	if len(args) == 0 {
		return ""
	}
	raws := make([]string, len(args))
	for i, a := range args {
		raws[i] = a.Raw
	}
	out := strings.TrimSpace(strings.Join(raws, ","))
	return leadingSpace(orig) + out + trailingSpace(orig)
}

// AppendArg adds a to args, keeping a trailing comma (an empty last
// argument) at the end.
func AppendArg(args []Arg, a Arg) []Arg {
	out := make([]Arg, 0, len(args)+1)
	if n := len(args); n > 0 && strings.TrimSpace(args[n-1].Raw) == "" {
		out = append(out, args[:n-1]...)
		if n == 1 {
			a.Raw = strings.TrimLeft(a.Raw, " ")
		}
		return append(out, a, args[n-1])
	}
	if len(args) == 0 {
		a.Raw = strings.TrimLeft(a.Raw, " ")
	}
	return append(append(out, args...), a)
}

// RewriteCalls finds every call whose callee name is in names (all calls when
// names is empty) and replaces its argument list with the result of fn.
// Nested calls are rewritten before the call that contains them. fn reports
// whether it changed anything; unchanged calls are copied verbatim. Calls
// whose parentheses do not balance are left alone.
func RewriteCalls(src string, names []string, fn func(Call) ([]Arg, bool)) string {
	var set map[string]bool
	if len(names) > 0 {
		set = make(map[string]bool, len(names))
		for _, n := range names {
			set[n] = true
		}
	}
	return rewriteCalls(src, src, 0, set, fn)
}

// rewriteCalls rewrites src, which starts at offset off of full.
func rewriteCalls(full, src string, off int, names map[string]bool, fn func(Call) ([]Arg, bool)) string {
	var b strings.Builder
	last := 0
	for i := 0; i < len(src); {
		c := src[i]
		switch {
		case c == '#':
			i = skipComment(src, i)
		case c == '\'' || c == '"':
			i = skipString(src, i)
		case isIdentStart(c) && (i == 0 || !isIdentByte(src[i-1])):
			j := i
			for j < len(src) && isIdentByte(src[j]) {
				j++
			}
			k := j
			for k < len(src) && (src[k] == ' ' || src[k] == '\t') {
				k++
			}
			name := src[i:j]
			if k >= len(src) || src[k] != '(' || (names != nil && !names[name]) || pythonKeywords[name] {
				i = j
				continue
			}
			end := matchParen(src, k)
			if end < 0 {
				i = j
				continue
			}
			inner := rewriteCalls(full, src[k+1:end], off+k+1, names, fn)
			call := Call{
				Name:   name,
				Method: isMethod(src, i),
				Args:   SplitArgs(inner),
				Line:   lineAt(full, off+i),
			}
			b.WriteString(src[last : k+1])
			if args, changed := fn(call); changed {
				b.WriteString(JoinArgs(inner, args))
			} else {
				b.WriteString(inner)
			}
			b.WriteByte(')')
			i = end + 1
			last = i
		default:
			i++
		}
	}
	if last == 0 {
		return src
	}
	b.WriteString(src[last:])
	return b.String()
}

// FindClose returns the index of the parenthesis closing the one at open,
// or -1 when src[open] is not '(' or the parentheses do not balance.
func FindClose(src string, open int) int {
	if open < 0 || open >= len(src) || src[open] != '(' {
		return -1
	}
	return matchParen(src, open)
}

func matchParen(src string, open int) int {
	depth := 0
	for i := open; i < len(src); {
		switch c := src[i]; {
		case c == '#':
			i = skipComment(src, i)
		case c == '\'' || c == '"':
			i = skipString(src, i)
		case c == '(' || c == '[' || c == '{':
			depth++
			i++
		case c == ')' || c == ']' || c == '}':
			depth--
			if depth == 0 {
				if c != ')' {
					return -1
				}
				return i
			}
			i++
		default:
			i++
		}
	}
	return -1
}

// MaskLiterals returns src with every string literal and comment replaced by
// spaces, using the same scanning as [RewriteCalls]. Line breaks and byte
// offsets are preserved, so positions in the result map back to src.
func MaskLiterals(src string) string {
	var b []byte
	mask := func(from, to int) {
		if b == nil {
			b = []byte(src)
		}
		for k := from; k < to; k++ {
			if b[k] != '\n' {
				b[k] = ' '
			}
		}
	}
	for i := 0; i < len(src); {
		switch src[i] {
		case '#':
			j := skipComment(src, i)
			mask(i, j)
			i = j
		case '\'', '"':
			j := skipString(src, i)
			mask(i, j)
			i = j
		default:
			i++
		}
	}
	if b == nil {
		return src
	}
	return string(b)
}

// skipString returns the index just past the string literal starting at i.
// Unterminated single-quoted literals end at the line break.
func skipString(src string, i int) int {
	q := src[i]
	if strings.HasPrefix(src[i:], strings.Repeat(string(q), 3)) {
		delim := src[i : i+3]
		for j := i + 3; j < len(src); j++ {
			if src[j] == '\\' {
				j++
				continue
			}
			if strings.HasPrefix(src[j:], delim) {
				return j + 3
			}
		}
		return len(src)
	}
	for j := i + 1; j < len(src); j++ {
		switch src[j] {
		case '\\':
			j++
		case q:
			return j + 1
		case '\n':
			return j
		}
	}
	return len(src)
}

func skipComment(src string, i int) int {
	if j := strings.IndexByte(src[i:], '\n'); j >= 0 {
		return i + j
	}
	return len(src)
}

func lineAt(src string, i int) string {
	start := strings.LastIndexByte(src[:i], '\n') + 1
	end := strings.IndexByte(src[i:], '\n')
	if end < 0 {
		return src[start:]
	}
	return src[start : i+end]
}

func isMethod(src string, i int) bool {
	for j := i - 1; j >= 0; j-- {
		switch src[j] {
		case ' ', '\t':
			continue
		case '.':
			return true
		default:
			return false
		}
	}
	return false
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentByte(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}

func leadingSpace(s string) string {
	return s[:len(s)-len(strings.TrimLeft(s, " \t\r\n"))]
}

func trailingSpace(s string) string {
	return s[len(strings.TrimRight(s, " \t\r\n")):]
}

// pythonKeywords never name a callee even when followed by '('.
var pythonKeywords = map[string]bool{
	"and": true, "assert": true, "def": true, "del": true, "elif": true,
	"for": true, "if": true, "in": true, "is": true, "lambda": true,
	"not": true, "or": true, "return": true, "while": true,
	"with": true, "yield": true, "class": true, "except": true, "import": true,
}
