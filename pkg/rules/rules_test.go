package rules

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestStripKwargPrecision(t *testing.T) {
	rule := StripKwarg("animation-color", "color", "FadeIn", "Create")

	tests := []struct {
		name string
		src  string
		want string
	}{
		{
			name: "strips from target only",
			src:  `self.play(FadeIn(dot, color=RED), Circle(radius=1, color=RED))`,
			want: `self.play(FadeIn(dot), Circle(radius=1, color=RED))`,
		},
		{
			name: "nested call in target argument untouched",
			src:  `self.play(FadeIn(Circle(color=BLUE), color=RED))`,
			want: `self.play(FadeIn(Circle(color=BLUE)))`,
		},
		{
			name: "method call with same name",
			src:  `anim.Create(sq, color=GREEN, run_time=2)`,
			want: `anim.Create(sq, run_time=2)`,
		},
		{
			name: "multi-line call",
			src:  "self.play(\n    Create(graph,\n           color=BLUE),\n)",
			want: "self.play(\n    Create(graph),\n)",
		},
		{
			name: "string literal ignored",
			src:  `t = Text("FadeIn(x, color=RED)")`,
			want: `t = Text("FadeIn(x, color=RED)")`,
		},
		{
			name: "comment ignored",
			src:  "c = Circle() # FadeIn(x, color=RED)",
			want: "c = Circle() # FadeIn(x, color=RED)",
		},
		{
			name: "comparison is not a keyword",
			src:  `FadeIn(x, color == RED)`,
			want: `FadeIn(x, color == RED)`,
		},
		{
			name: "only keyword removed",
			src:  `FadeIn(color=RED)`,
			want: `FadeIn()`,
		},
		{
			name: "unbalanced call left alone",
			src:  `FadeIn(dot, color=RED`,
			want: `FadeIn(dot, color=RED`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := rule.Apply(tt.src)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Apply() mismatch (-want +got):\n%s", diff)
			}
			if again := rule.Apply(got); again != got {
				t.Errorf("Apply() not idempotent: %q -> %q", got, again)
			}
		})
	}
}

func TestRenameKwarg(t *testing.T) {
	rule := RenameKwarg("axes-width", "width", "x_length", "Axes", "ThreeDAxes")

	tests := []struct {
		src  string
		want string
	}{
		{`Axes(x_range=[0, 5], width=6)`, `Axes(x_range=[0, 5], x_length=6)`},
		{`Axes(x_length=4, width=6)`, `Axes(x_length=4)`},
		{`ThreeDAxes(width = 6)`, `ThreeDAxes(x_length = 6)`},
		{`Rectangle(width=6)`, `Rectangle(width=6)`},
		{`Axes(stroke_width=2)`, `Axes(stroke_width=2)`},
	}

	for _, tt := range tests {
		if got := rule.Apply(tt.src); got != tt.want {
			t.Errorf("Apply(%q) = %q, want %q", tt.src, got, tt.want)
		}
	}
}

func TestDedupeKwargs(t *testing.T) {
	rule := DedupeKwargs("dedupe")

	got := rule.Apply(`Text("a", font_size=24, color=RED, font_size=30)`)
	want := `Text("a", font_size=24, color=RED)`
	if got != want {
		t.Errorf("Apply() = %q, want %q", got, want)
	}

	src := `f(a, b=1)`
	if got := rule.Apply(src); got != src {
		t.Errorf("Apply(%q) = %q, want unchanged", src, got)
	}
}

func TestAppendKwarg(t *testing.T) {
	rule := AppendKwarg("font-size", "font_size", func(c Call) string {
		if strings.Contains(c.Line, "title") {
			return "32"
		}
		return "24"
	}, "Text")

	tests := []struct {
		src  string
		want string
	}{
		{`t = Text("hi")`, `t = Text("hi", font_size=24)`},
		{`title = Text("hi")`, `title = Text("hi", font_size=32)`},
		{`t = Text()`, `t = Text(font_size=24)`},
		{`t = Text("a",)`, `t = Text("a", font_size=24,)`},
		{`t = Text("a", font_size=12)`, `t = Text("a", font_size=12)`},
	}

	for _, tt := range tests {
		if got := rule.Apply(tt.src); got != tt.want {
			t.Errorf("Apply(%q) = %q, want %q", tt.src, got, tt.want)
		}
	}
}

func TestSubstitutionPrecondition(t *testing.T) {
	rule := Replace("j-index", `\bj\s*\+\s*1`, "i+1").If(func(src string) bool {
		return !strings.Contains(src, "for j in")
	})

	if got := rule.Apply("label(j + 1)"); got != "label(i+1)" {
		t.Errorf("Apply() = %q, want %q", got, "label(i+1)")
	}

	src := "for j in range(3):\n    label(j+1)"
	if got := rule.Apply(src); got != src {
		t.Errorf("Apply() with precondition false changed text: %q", got)
	}
}

func TestChainTrace(t *testing.T) {
	chain := Chain{
		Replace("get-graph", `\.get_graph\s*\(`, ".plot("),
		Replace("coordinate-labels", `\.add_coordinate_labels\s*\(`, ".add_coordinates("),
		CommaCleanup(),
	}

	got, fired := chain.Trace("g = axes.get_graph(f)")
	if got != "g = axes.plot(f)" {
		t.Errorf("Trace() text = %q", got)
	}
	if diff := cmp.Diff([]string{"get-graph"}, fired); diff != "" {
		t.Errorf("Trace() fired mismatch (-want +got):\n%s", diff)
	}

	wantNames := []string{"get-graph", "coordinate-labels", "comma-cleanup"}
	if diff := cmp.Diff(wantNames, chain.Names()); diff != "" {
		t.Errorf("Names() mismatch (-want +got):\n%s", diff)
	}
}

func TestCommaCleanup(t *testing.T) {
	rule := CommaCleanup()

	tests := []struct {
		src  string
		want string
	}{
		{`f(a,)`, `f(a)`},
		{`f(a,,b)`, `f(a, b)`},
		{`f(,a)`, `f(a)`},
		{`f(a,,,b)`, `f(a, b)`},
		{`f(a, b)`, `f(a, b)`},
	}

	for _, tt := range tests {
		if got := rule.Apply(tt.src); got != tt.want {
			t.Errorf("Apply(%q) = %q, want %q", tt.src, got, tt.want)
		}
	}
}

func TestAugmentation(t *testing.T) {
	rule := Augment("camera", `^\s*def\s+construct\s*\(\s*self\s*\)\s*:`, func(a Anchor, _ string) []string {
		return []string{a.Body() + "self.camera.frame.move_to(ORIGIN)"}
	})
	rule.Once = true

	src := "class MainScene(Scene):\n    def construct(self):\n        self.wait()"
	want := "class MainScene(Scene):\n    def construct(self):\n        self.camera.frame.move_to(ORIGIN)\n        self.wait()"

	got := rule.Apply(src)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Apply() mismatch (-want +got):\n%s", diff)
	}
	if again := rule.Apply(got); again != got {
		t.Errorf("Apply() not idempotent:\n%s", again)
	}
}

func TestAugmentationSpanCall(t *testing.T) {
	var tail string
	rule := Augment("axes", `^(\s*)(\w+)\s*=\s*Axes\s*\(`, func(a Anchor, _ string) []string {
		tail = a.Tail
		return []string{a.Indent + a.Groups[2] + ".to_edge(DOWN)"}
	})
	rule.SpanCall = true

	src := "        axes = Axes(\n            x_range=[0, 5],\n        ).scale(0.5)\n        self.add(axes)"
	want := "        axes = Axes(\n            x_range=[0, 5],\n        ).scale(0.5)\n        axes.to_edge(DOWN)\n        self.add(axes)"

	if got := rule.Apply(src); got != want {
		t.Errorf("Apply() = %q, want %q", got, want)
	}
	if tail != ".scale(0.5)" {
		t.Errorf("Anchor.Tail = %q, want %q", tail, ".scale(0.5)")
	}

	unbalanced := "axes = Axes(\n    x_range=[0, 5],"
	if got := rule.Apply(unbalanced); got != unbalanced {
		t.Errorf("Apply() on unbalanced call = %q, want unchanged", got)
	}
}

func TestIndentWidth(t *testing.T) {
	tests := []struct {
		line string
		want int
	}{
		{"x", 0},
		{"    x", 4},
		{"\tx", TabWidth},
		{"\t  x", TabWidth + 2},
		{"   ", 3},
	}
	for _, tt := range tests {
		if got := IndentWidth(tt.line); got != tt.want {
			t.Errorf("IndentWidth(%q) = %d, want %d", tt.line, got, tt.want)
		}
	}
}
