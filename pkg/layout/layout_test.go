package layout

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/cursor2d/cursor2d/pkg/rules"
	"github.com/cursor2d/cursor2d/pkg/target"
)

func TestReindentRaggedBody(t *testing.T) {
	src := "class MainScene(MovingCameraScene):\n" +
		"    def construct(self):\n" +
		"      a = Circle()\n" +
		"            b = Square()\n" +
		"\t\tc = Dot()\n" +
		"   \n" +
		"# note\n" +
		"        self.add(a, b, c)\n" +
		"    def helper(self):\n" +
		"            pass"

	want := "class MainScene(MovingCameraScene):\n" +
		"    def construct(self):\n" +
		"        a = Circle()\n" +
		"        b = Square()\n" +
		"        c = Dot()\n" +
		"\n" +
		"        # note\n" +
		"        self.add(a, b, c)\n" +
		"    def helper(self):\n" +
		"            pass"

	got := Reindent(src)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Reindent() mismatch (-want +got):\n%s", diff)
	}
	if again := Reindent(got); again != got {
		t.Errorf("Reindent() not idempotent:\n%s", again)
	}
}

func TestReindentStructuralPreservation(t *testing.T) {
	bodies := [][]string{
		{"  x = 1", "          y = 2", "    z = 3"},
		{"\tx = 1", "\t\t\ty = 2"},
		{"     self.play(Create(c))", "", "       self.wait()"},
	}

	for _, header := range []string{"def construct(self):", "    def construct(self):", "\tdef construct(self):"} {
		for _, body := range bodies {
			hw := rules.IndentWidth(header)
			lines := []string{header}
			for _, l := range body {
				if l != "" && rules.IndentWidth(l) <= hw {
					l = strings.Repeat(" ", hw+1) + strings.TrimSpace(l)
				}
				lines = append(lines, l)
			}

			out := strings.Split(Reindent(strings.Join(lines, "\n")), "\n")
			want := rules.LeadingWhitespace(header) + rules.IndentUnit
			for _, l := range out[1:] {
				if strings.TrimSpace(l) == "" {
					if l != "" {
						t.Errorf("blank line %q not emptied", l)
					}
					continue
				}
				if got := rules.LeadingWhitespace(l); got != want {
					t.Errorf("header %q: line %q indent = %q, want %q", header, l, got, want)
				}
			}
		}
	}
}

func TestNormalizeScene(t *testing.T) {
	src := "class MainScene(MovingCameraScene):\n" +
		"    def construct(self):\n" +
		"        title = Text(\"Derivatives\", font_size=48).to_edge(UP)\n" +
		"        axes = Axes(x_range=[0, 5])\n" +
		"        eq = Text(r\"\\frac{d}{dx} x^2 = 2x\")\n" +
		"        dots = VGroup(*[Dot().move_to(ORIGIN) for _ in range(3)])\n" +
		"        caption = Text(\"slope\", font_size=20, font_size=30)\n" +
		"        self.play(Write(title))"

	want := "class MainScene(MovingCameraScene):\n" +
		"    def construct(self):\n" +
		"        title = Text(\"Derivatives\", font_size=32).to_edge(UP)\n" +
		"        axes = Axes(x_range=[0, 5])\n" +
		"        axes.scale_to_fit_height(config.frame_height*0.6)\n" +
		"        axes.to_edge(DOWN, buff=1.5)\n" +
		"        eq = MathTex(r\"\\frac{d}{dx} x^2 = 2x\", font_size=24)\n" +
		"        eq.set_font_size(24)\n" +
		"        eq.to_edge(DOWN)\n" +
		"        dots = VGroup(*[Dot() for _ in range(3)])\n" +
		"        dots.move_to(ORIGIN)\n" +
		"        caption = Text(\"slope\", font_size=20)\n" +
		"        self.play(Write(title))"

	n, err := New(target.Manim)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	got := n.Normalize(src)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Normalize() mismatch (-want +got):\n%s", diff)
	}
	if again := n.Normalize(got); again != got {
		t.Errorf("Normalize() not idempotent (-first +second):\n%s", cmp.Diff(got, again))
	}
}

func TestLayoutRules(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{
			name: "placeholder text",
			src:  `label = Text("MathTex")`,
			want: `label = Text(' ', font_size=14)`,
		},
		{
			name: "clamp keeps spacing",
			src:  `t = Text("a", font_size = 40)`,
			want: `t = Text("a", font_size = 32)`,
		},
		{
			name: "title default",
			src:  `heading = Text("Intro").to_edge(UP)`,
			want: `heading = Text("Intro", font_size=32).to_edge(UP)`,
		},
		{
			name: "label default",
			src:  `x_label = MathTex("x")`,
			want: `x_label = MathTex("x", font_size=20)`,
		},
		{
			name: "body default",
			src:  `body = Text("hello")`,
			want: `body = Text("hello", font_size=24)`,
		},
		{
			name: "math title is body text",
			src:  `title = MathTex("x")`,
			want: `title = MathTex("x", font_size=24)`,
		},
		{
			name: "style expansion untouched",
			src:  `t = Text("a", **style)`,
			want: `t = Text("a", **style)`,
		},
		{
			name: "positioned axes untouched",
			src:  "axes = Axes(x_range=[0, 5]).to_edge(LEFT)",
			want: "axes = Axes(x_range=[0, 5]).to_edge(LEFT)",
		},
		{
			name: "axes placed later untouched",
			src:  "axes = Axes()\naxes.next_to(ORIGIN, DOWN)",
			want: "axes = Axes()\naxes.next_to(ORIGIN, DOWN)",
		},
		{
			name: "placed group untouched",
			src:  "g = VGroup(a, b).arrange(DOWN).to_edge(LEFT)",
			want: "g = VGroup(a, b).arrange(DOWN).to_edge(LEFT)",
		},
		{
			name: "group centered",
			src:  "g = Group(a, b)",
			want: "g = Group(a, b)\ng.move_to(ORIGIN)",
		},
	}

	n, err := New(target.Manim)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, n.Normalize(tt.src)); diff != "" {
				t.Errorf("Normalize() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSketchIdentity(t *testing.T) {
	n, err := New(target.P5)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	src := "function setup() {\n\tcreateCanvas(400, 400);\n}"
	if got := n.Normalize(src); got != src {
		t.Errorf("Normalize() = %q, want unchanged", got)
	}
}
