package sanitize

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/cursor2d/cursor2d/pkg/rules"
)

// Animation constructors that reject styling keyword arguments.
var animations = []string{
	"Create", "Uncreate", "FadeIn", "FadeOut", "Write",
	"DrawBorderThenFill", "Transform", "ReplacementTransform",
}

// Line-like mobjects whose constructors do not accept length=.
var lineMobjects = []string{"Line", "DashedLine", "Arrow", "DoubleArrow", "Vector"}

var sceneChain = rules.Chain{
	normalizeNewlines(),
	stripFences("python"),
	rules.Replace("get-graph", `\.get_graph\s*\(`, ".plot("),
	rules.StripKwarg("tangent-length", "length", "get_tangent_line"),
	rules.StripKwarg("alpha", "alpha"),
	rules.StripKwarg("animation-color", "color", animations...),
	rules.StripKwarg("line-length", "length", lineMobjects...),
	rules.RenameKwarg("axes-width", "width", "x_length", "Axes", "ThreeDAxes"),
	rules.RenameKwarg("stroke-x-length", "x_length", "width", "set_stroke"),
	rules.RenameKwarg("stroke-y-length", "y_length", "height", "set_stroke"),
	riemannDx(),
	rules.Replace("coordinate-labels", `\.add_coordinate_labels\s*\(`, ".add_coordinates("),
	rules.CommaCleanup(),
	rules.Replace("undefined-j", `\bj\s*\+\s*1\b`, "i+1").If(func(src string) bool {
		return !forJRe.MatchString(src)
	}),
	numpyImport(),
	unicodeToTeX(),
	rules.Replace("config-name", `\bCONFIG\b`, "config"),
	rules.Replace("moving-camera", `class\s+MainScene\s*\(\s*Scene\s*\)\s*:`, "class MainScene(MovingCameraScene):"),
	cameraFraming(),
}

var (
	forJRe     = regexp.MustCompile(`for\s+j\s+in\s`)
	npRefRe    = regexp.MustCompile(`\bnp\.`)
	npImportRe = regexp.MustCompile(`import\s+numpy\s+as\s+np\b`)
)

// SceneRules returns the ordered rule chain for scene scripts.
func SceneRules() rules.Chain { return sceneChain }

func normalizeNewlines() rules.Rule {
	return &rules.Func{
		RuleName: "newlines",
		Fn: func(src string) string {
			return strings.ReplaceAll(src, "\r\n", "\n")
		},
	}
}

// stripFences removes markdown fence lines and bare language-tag lines, then
// trims the text.
func stripFences(langs ...string) rules.Rule {
	return &rules.Func{
		RuleName: "strip-fences",
		Fn: func(src string) string {
			lines := strings.Split(src, "\n")
			out := make([]string, 0, len(lines))
		next:
			for _, l := range lines {
				t := strings.TrimSpace(l)
				if strings.HasPrefix(t, "```") {
					continue
				}
				for _, lang := range langs {
					if t == lang {
						continue next
					}
				}
				out = append(out, l)
			}
			return strings.TrimSpace(strings.Join(out, "\n"))
		},
	}
}

// riemannDx rewrites n= in get_riemann_rectangles to a dx= step. With an
// explicit x_range=[A, B] the step is (B-A)/(N); otherwise n is only renamed.
func riemannDx() rules.Rule {
	return &rules.ParamRepair{
		RuleName: "riemann-dx",
		Funcs:    []string{"get_riemann_rectangles"},
		Repair: func(c rules.Call) ([]rules.Arg, bool) {
			n, ok := c.Kwarg("n")
			if !ok {
				return nil, false
			}
			step := ""
			if xr, ok := c.Kwarg("x_range"); ok {
				if a, b, ok := rangeBounds(xr.Value); ok {
					step = fmt.Sprintf("(%s-%s)/(%s)", b, a, n.Value)
				}
			}
			hasDx := c.HasKwarg("dx")
			out := make([]rules.Arg, 0, len(c.Args))
			for _, a := range c.Args {
				if a.Key != "n" {
					out = append(out, a)
					continue
				}
				if hasDx {
					continue
				}
				a = a.WithKey("dx")
				if step != "" {
					a = a.WithValue(step)
				}
				out = append(out, a)
				hasDx = true
			}
			return out, true
		},
	}
}

// rangeBounds splits a two-element list literal "[A, B]".
func rangeBounds(v string) (string, string, bool) {
	if !strings.HasPrefix(v, "[") || !strings.HasSuffix(v, "]") {
		return "", "", false
	}
	parts := rules.SplitArgs(v[1 : len(v)-1])
	if len(parts) != 2 || parts[0].Value == "" || parts[1].Value == "" {
		return "", "", false
	}
	return parts[0].Value, parts[1].Value, true
}

func numpyImport() rules.Rule {
	return &rules.Func{
		RuleName: "numpy-import",
		Fn: func(src string) string {
			return "import numpy as np\n" + src
		},
		When: func(src string) bool {
			return npRefRe.MatchString(src) && !npImportRe.MatchString(src)
		},
	}
}

// texSymbols maps Unicode math symbols that break TeX compilation to TeX
// sequences. Hatted letters appear both precomposed and with a combining
// circumflex.
var texSymbols = strings.NewReplacer(
	"\u0177", `\hat{y}`, "y\u0302", `\hat{y}`,
	"\u1e91", `\hat{z}`, "z\u0302", `\hat{z}`,
	"x\u0302", `\hat{x}`,
	"÷", `\div `,
	"×", `\times `,
	"\u2212", "-",
	"°", `^{\circ}`,
	"π", `\pi `,
	"η", `\eta `,
	"σ", `\sigma `,
	"θ", `\theta `,
)

func unicodeToTeX() rules.Rule {
	return &rules.Func{
		RuleName: "unicode-tex",
		Fn:       texSymbols.Replace,
	}
}

// cameraFraming frames the camera with a 10% margin at the start of the
// scene's construct method.
func cameraFraming() rules.Rule {
	g := rules.Augment("camera-framing", `^\s*def\s+construct\s*\(\s*self\s*\)\s*:\s*(#.*)?$`,
		func(a rules.Anchor, _ string) []string {
			return []string{
				a.Body() + "# Frame the scene with a 10% margin",
				a.Body() + "self.camera.frame.set(width=config.frame_width*0.9, height=config.frame_height*0.9)",
				a.Body() + "self.camera.frame.move_to(ORIGIN)",
			}
		})
	g.Once = true
	return g
}
