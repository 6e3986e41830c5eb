// Package validate is the last gate before a script reaches an engine.
//
// It scans sanitized text for a short fixed list of constructs that always
// make the engine fail. String literals and comments in scene scripts are
// not code and never match. A script containing any of them is rejected with a
// BANNED_PATTERN error naming the pattern, and no subprocess is started.
package validate

import (
	"regexp"

	"github.com/cursor2d/cursor2d/pkg/errors"
	"github.com/cursor2d/cursor2d/pkg/rules"
	"github.com/cursor2d/cursor2d/pkg/target"
)

// Pattern is a construct an engine cannot run.
type Pattern struct {
	Name   string
	Reason string
	Re     *regexp.Regexp
}

// code returns the part of text an engine executes. Scene scripts are
// matched with string literals and comments blanked, the same way the
// sanitizer's call rewrites see them.
func code(t target.Target, text string) string {
	if t == target.Manim {
		return rules.MaskLiterals(text)
	}
	return text
}

var scenePatterns = []Pattern{
	{
		Name:   "get_graph",
		Reason: "deprecated graph call, use .plot(",
		Re:     regexp.MustCompile(`\.get_graph\s*\(`),
	},
	{
		Name:   "tangent_length",
		Reason: "get_tangent_line does not accept length=",
		Re:     regexp.MustCompile(`\.get_tangent_line\s*\([^)]*\blength\s*=`),
	},
	{
		Name:   "alpha_kwarg",
		Reason: "alpha= keyword argument is not supported",
		Re:     regexp.MustCompile(`[(,]\s*alpha\s*=[^=]`),
	},
	{
		Name:   "add_coordinate_labels",
		Reason: "renamed to .add_coordinates(",
		Re:     regexp.MustCompile(`\.add_coordinate_labels\s*\(`),
	},
}

var sketchPatterns = []Pattern{
	{
		Name:   "html_document",
		Reason: "sketch must be script code, not an HTML document",
		Re:     regexp.MustCompile(`(?i)<!DOCTYPE|<html[\s>]`),
	},
	{
		Name:   "script_tag",
		Reason: "sketch must not contain <script> tags",
		Re:     regexp.MustCompile(`(?i)<script[\s>]`),
	},
}

// Patterns returns the banned patterns for t.
func Patterns(t target.Target) []Pattern {
	switch t {
	case target.Manim:
		return scenePatterns
	case target.P5:
		return sketchPatterns
	}
	return nil
}

// Violations returns every banned pattern present in text, in list order.
func Violations(t target.Target, text string) []Pattern {
	var found []Pattern
	src := code(t, text)
	for _, p := range Patterns(t) {
		if p.Re.MatchString(src) {
			found = append(found, p)
		}
	}
	return found
}

// IsAcceptable reports whether text contains no banned pattern.
func IsAcceptable(t target.Target, text string) bool {
	return len(Violations(t, text)) == 0
}

// Check returns a BANNED_PATTERN error naming the first offending pattern,
// with the pattern name and the checked text as diagnostics.
func Check(t target.Target, text string) error {
	v := Violations(t, text)
	if len(v) == 0 {
		return nil
	}
	return errors.New(errors.ErrCodeBannedPattern, "script contains banned pattern %s: %s", v[0].Name, v[0].Reason).
		WithDiagnostics(errors.Diagnostics{Script: text, Pattern: v[0].Name, ExitCode: -1})
}
