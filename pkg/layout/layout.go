// Package layout normalizes the structure and on-screen layout of sanitized
// scene scripts.
//
// The scene normalizer first re-indents the construct method (see
// [Reindent]), then applies layout conventions: TeX strings render with
// MathTex, font sizes are clamped and defaulted, and axes, formulas and
// groups that were never placed get a position below their definition.
// Inserted lines reuse the indentation of the line they follow.
//
// Normalizing is idempotent. The sketch target has no layout rules.
package layout

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/cursor2d/cursor2d/pkg/errors"
	"github.com/cursor2d/cursor2d/pkg/rules"
	"github.com/cursor2d/cursor2d/pkg/target"
)

// MaxFontSize is the largest font size left in a normalized scene.
const MaxFontSize = 32

// Default font sizes for text that does not set one.
const (
	TitleFontSize   = 32
	CaptionFontSize = 20
	BodyFontSize    = 24
)

// Normalizer applies one target's layout rules.
type Normalizer struct {
	target target.Target
	chain  rules.Chain
}

// New returns the normalizer for t.
func New(t target.Target) (*Normalizer, error) {
	switch t {
	case target.Manim:
		return &Normalizer{target: t, chain: SceneRules()}, nil
	case target.P5:
		return &Normalizer{target: t}, nil
	}
	return nil, errors.New(errors.ErrCodeInvalidTarget, "no layout normalizer for target %q", t)
}

// Normalize returns text with the layout rules applied once, in order.
func (n *Normalizer) Normalize(text string) string {
	return n.chain.Apply(text)
}

// Explain is Normalize that also names the rules that changed the text.
func (n *Normalizer) Explain(text string) (string, []string) {
	return n.chain.Trace(text)
}

// Rules returns the rule names in application order.
func (n *Normalizer) Rules() []string {
	return n.chain.Names()
}

var sceneChain = rules.Chain{
	reindentRule(),
	rules.Replace("tex-text", `\bText(\s*\(\s*(?:[rRfFuU]{1,2})?['"][^'"\n]*\\[^'"\n]*['"]\s*[,)])`, "MathTex${1}"),
	placeholderText(),
	clampFontSize(),
	rules.DedupeKwargs("dedupe-kwargs"),
	rules.AppendKwarg("default-font-size", "font_size", defaultFontSize, "Text", "MathTex"),
	placeAxes(),
	placeFormula(),
	groupComprehension(),
	centerGroup(),
}

// SceneRules returns the ordered layout rules for scene scripts.
func SceneRules() rules.Chain { return sceneChain }

var (
	fontSizeRe = regexp.MustCompile(`\bfont_size(\s*=\s*)(\d+)`)
	titleRe    = regexp.MustCompile(`(?i)\.to_edge\s*\(\s*UP\s*\)|title`)
	captionRe  = regexp.MustCompile(`(?i)\.to_edge\s*\(\s*DOWN\s*\)|caption|label`)
	formulaRe  = regexp.MustCompile(`(?i)eq|formula`)

	// Methods that give a mobject its final position.
	placement = []string{"to_edge", "to_corner", "move_to", "next_to", "shift", "align_to", "center"}
	// Methods that size a mobject.
	sizing = []string{"scale", "scale_to_fit_height", "scale_to_fit_width", "set_font_size", "set_width", "set_height"}
)

// placeholderText replaces Text("MathTex"), a model artifact, with a small
// blank label.
func placeholderText() rules.Rule {
	return &rules.ParamRepair{
		RuleName: "placeholder-text",
		Funcs:    []string{"Text"},
		Repair: func(c rules.Call) ([]rules.Arg, bool) {
			if len(c.Args) == 0 || c.Args[0].Key != "" || unquote(c.Args[0].Value) != "MathTex" {
				return nil, false
			}
			out := []rules.Arg{rules.ParseArg("' '")}
			for _, a := range c.Args[1:] {
				if a.Key != "font_size" {
					out = append(out, a)
				}
			}
			return append(out, rules.NewKwarg("font_size", "14")), true
		},
	}
}

func unquote(v string) string {
	if len(v) >= 2 && (v[0] == '"' || v[0] == '\'') && v[len(v)-1] == v[0] {
		return strings.TrimSpace(v[1 : len(v)-1])
	}
	return ""
}

func clampFontSize() rules.Rule {
	return &rules.Func{
		RuleName: "clamp-font-size",
		Fn: func(src string) string {
			return fontSizeRe.ReplaceAllStringFunc(src, func(m string) string {
				sub := fontSizeRe.FindStringSubmatch(m)
				if n, err := strconv.Atoi(sub[2]); err == nil && n > MaxFontSize {
					return "font_size" + sub[1] + strconv.Itoa(MaxFontSize)
				}
				return m
			})
		},
	}
}

// defaultFontSize picks a size from the line the call appears on: titles,
// captions and labels, or body text.
func defaultFontSize(c rules.Call) string {
	if c.Method {
		return ""
	}
	for _, a := range c.Args {
		if strings.HasPrefix(a.Value, "**") {
			return ""
		}
	}
	switch {
	case c.Name == "Text" && titleRe.MatchString(c.Line):
		return strconv.Itoa(TitleFontSize)
	case captionRe.MatchString(c.Line):
		return strconv.Itoa(CaptionFontSize)
	default:
		return strconv.Itoa(BodyFontSize)
	}
}

// calls reports whether src calls one of methods on name.
func calls(src, name string, methods []string) bool {
	re := regexp.MustCompile(`\b` + regexp.QuoteMeta(name) + `\s*\.\s*(?:` + strings.Join(methods, "|") + `)\s*\(`)
	return re.MatchString(src)
}

// chained reports whether tail, the text after a constructor call, chains
// one of methods onto it.
func chained(tail string, methods []string) bool {
	re := regexp.MustCompile(`\.\s*(?:` + strings.Join(methods, "|") + `)\s*\(`)
	return re.MatchString(tail)
}

func placeAxes() rules.Rule {
	g := rules.Augment("place-axes", `^(\s*)([A-Za-z_]\w*)\s*=\s*Axes\s*\(`,
		func(a rules.Anchor, src string) []string {
			name := a.Groups[2]
			all := append(append([]string{}, placement...), sizing...)
			if chained(a.Tail, all) || calls(src, name, placement) {
				return nil
			}
			return []string{
				a.Indent + name + ".scale_to_fit_height(config.frame_height*0.6)",
				a.Indent + name + ".to_edge(DOWN, buff=1.5)",
			}
		})
	g.SpanCall = true
	return g
}

func placeFormula() rules.Rule {
	g := rules.Augment("place-formula", `^(\s*)([A-Za-z_]\w*)\s*=\s*MathTex\s*\(`,
		func(a rules.Anchor, src string) []string {
			name := a.Groups[2]
			if !formulaRe.MatchString(name) {
				return nil
			}
			all := append(append([]string{}, placement...), sizing...)
			if chained(a.Tail, all) || calls(src, name, all) {
				return nil
			}
			return []string{
				a.Indent + name + ".set_font_size(24)",
				a.Indent + name + ".to_edge(DOWN)",
			}
		})
	g.SpanCall = true
	return g
}

// groupComprehension removes .move_to(ORIGIN) from the members of
// VGroup(*[...]); moving every member to the origin stacks them.
func groupComprehension() rules.Rule {
	return &rules.ParamRepair{
		RuleName: "group-comprehension",
		Funcs:    []string{"VGroup"},
		Repair: func(c rules.Call) ([]rules.Arg, bool) {
			if len(c.Args) == 0 {
				return nil, false
			}
			first := c.Args[0]
			if !strings.HasPrefix(first.Value, "*[") || !strings.Contains(first.Raw, ".move_to(ORIGIN)") {
				return nil, false
			}
			out := append([]rules.Arg{}, c.Args...)
			out[0] = rules.ParseArg(strings.ReplaceAll(first.Raw, ".move_to(ORIGIN)", ""))
			return out, true
		},
	}
}

func centerGroup() rules.Rule {
	g := rules.Augment("center-group", `^(\s*)([A-Za-z_]\w*)\s*=\s*V?Group\s*\(`,
		func(a rules.Anchor, src string) []string {
			name := a.Groups[2]
			if chained(a.Tail, placement) || calls(src, name, placement) {
				return nil
			}
			return []string{a.Indent + name + ".move_to(ORIGIN)"}
		})
	g.SpanCall = true
	return g
}
