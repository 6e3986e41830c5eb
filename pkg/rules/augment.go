package rules

import (
	"regexp"
	"strings"
)

// IndentUnit is one indentation level in generated code.
const IndentUnit = "    "

// TabWidth is the column width of a tab when measuring indentation.
const TabWidth = 4

// LeadingWhitespace returns the indentation prefix of line.
func LeadingWhitespace(line string) string {
	return line[:len(line)-len(strings.TrimLeft(line, " \t"))]
}

// IndentWidth returns the column width of line's indentation.
func IndentWidth(line string) int {
	w := 0
	for _, c := range LeadingWhitespace(line) {
		if c == '\t' {
			w += TabWidth
		} else {
			w++
		}
	}
	return w
}

// Anchor describes where an [Augmentation] matched.
type Anchor struct {
	Line   int      // index of the matched line
	End    int      // index of the line the new lines are inserted after
	Indent string   // indentation of the matched line
	Groups []string // submatches of the anchor pattern, Groups[0] is the whole match
	Tail   string   // text after the anchored call's closing parenthesis (SpanCall only)
}

// Body returns the indentation one level below the anchor.
func (a Anchor) Body() string { return a.Indent + IndentUnit }

// Augmentation inserts lines below every line matching Anchor.
//
// Lines receives the anchor and the whole source and returns the complete
// lines to insert, indentation included; returning nil skips the anchor.
// When the returned lines already follow the anchor nothing is inserted, so
// the rule is idempotent.
type Augmentation struct {
	RuleName string
	Anchor   *regexp.Regexp
	Lines    func(a Anchor, src string) []string
	When     func(src string) bool

	// SpanCall inserts after the line on which the call opened by the anchor
	// line closes, instead of after the anchor line itself. Anchors whose call
	// never closes are skipped.
	SpanCall bool

	// Once stops after the first anchor.
	Once bool
}

// Augment builds an Augmentation from a pattern string matched per line.
func Augment(name, anchor string, lines func(Anchor, string) []string) *Augmentation {
	return &Augmentation{
		RuleName: name,
		Anchor:   regexp.MustCompile(anchor),
		Lines:    lines,
	}
}

// Name returns the rule name.
func (g *Augmentation) Name() string { return g.RuleName }

// Apply inserts lines after each anchor when the precondition holds.
func (g *Augmentation) Apply(src string) string {
	if g.When != nil && !g.When(src) {
		return src
	}

	lines := strings.Split(src, "\n")
	out := make([]string, 0, len(lines))
	changed, matched := false, false

	for i := 0; i < len(lines); i++ {
		loc := g.Anchor.FindStringSubmatchIndex(lines[i])
		if loc == nil || (g.Once && matched) {
			out = append(out, lines[i])
			continue
		}
		matched = true

		a := Anchor{
			Line:   i,
			End:    i,
			Indent: LeadingWhitespace(lines[i]),
			Groups: submatches(lines[i], loc),
		}
		if g.SpanCall {
			end, tail, ok := spanCall(lines, i, loc[1])
			if !ok {
				out = append(out, lines[i])
				continue
			}
			a.End, a.Tail = end, tail
		}

		out = append(out, lines[i:a.End+1]...)
		if ins := g.Lines(a, src); len(ins) > 0 && !follows(lines[a.End+1:], ins) {
			out = append(out, ins...)
			changed = true
		}
		i = a.End
	}

	if !changed {
		return src
	}
	return strings.Join(out, "\n")
}

// If returns g with the precondition set to when.
func (g *Augmentation) If(when func(src string) bool) *Augmentation {
	g.When = when
	return g
}

func submatches(line string, loc []int) []string {
	groups := make([]string, len(loc)/2)
	for i := range groups {
		if loc[2*i] >= 0 {
			groups[i] = line[loc[2*i]:loc[2*i+1]]
		}
	}
	return groups
}

// spanCall finds the line on which the call opened at or before column col
// of lines[i] closes, and the text following the closing parenthesis there.
func spanCall(lines []string, i, col int) (int, string, bool) {
	open := strings.LastIndexByte(lines[i][:col], '(')
	if open < 0 {
		j := strings.IndexByte(lines[i][col:], '(')
		if j < 0 {
			return 0, "", false
		}
		open = col + j
	}
	rest := strings.Join(lines[i:], "\n")
	end := FindClose(rest, open)
	if end < 0 {
		return 0, "", false
	}
	tail := rest[end+1:]
	if nl := strings.IndexByte(tail, '\n'); nl >= 0 {
		tail = tail[:nl]
	}
	return i + strings.Count(rest[:end], "\n"), tail, true
}

func follows(rest, ins []string) bool {
	if len(rest) < len(ins) {
		return false
	}
	for i, l := range ins {
		if strings.TrimSpace(rest[i]) != strings.TrimSpace(l) {
			return false
		}
	}
	return true
}
