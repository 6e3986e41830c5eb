package layout

import (
	"regexp"
	"strings"

	"github.com/cursor2d/cursor2d/pkg/rules"
)

var constructHeaderRe = regexp.MustCompile(`^\s*def\s+construct\s*\(\s*self\s*\)\s*:\s*(#.*)?$`)

// bodyState is the state of the re-indentation scanner.
type bodyState int

const (
	outside bodyState = iota
	insideBody
)

func (s bodyState) String() string {
	if s == insideBody {
		return "insideBody"
	}
	return "outside"
}

// reindenter flattens the body of every construct method to exactly one
// indentation unit below its header. Nested blocks inside the body lose
// their relative depth; generated scenes do not nest inside construct.
type reindenter struct {
	state       bodyState
	headerWidth int
	body        string
}

// step consumes one line and returns its replacement.
func (r *reindenter) step(line string) string {
	if r.state == insideBody {
		t := strings.TrimSpace(line)
		switch {
		case t == "":
			return ""
		case strings.HasPrefix(t, "#"), rules.IndentWidth(line) > r.headerWidth:
			return r.body + t
		default:
			r.state = outside
		}
	}
	if constructHeaderRe.MatchString(line) {
		r.state = insideBody
		r.headerWidth = rules.IndentWidth(line)
		r.body = rules.LeadingWhitespace(line) + rules.IndentUnit
	}
	return line
}

// Reindent rewrites every non-blank line inside a construct body to the
// header's indentation plus [rules.IndentUnit]. Blank lines become empty.
// Tabs count as [rules.TabWidth] columns. The first non-blank, non-comment
// line at or left of the header's column ends the body.
func Reindent(src string) string {
	var r reindenter
	lines := strings.Split(src, "\n")
	for i, line := range lines {
		lines[i] = r.step(line)
	}
	return strings.Join(lines, "\n")
}

func reindentRule() rules.Rule {
	return &rules.Func{
		RuleName: "reindent-construct",
		Fn:       Reindent,
	}
}
