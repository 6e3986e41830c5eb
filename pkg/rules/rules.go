// Package rules provides composable text-rewrite rules for generated scene code.
//
// A rule is a pure function over text with a name and an optional
// precondition. Rules are designed to be applied blindly: a rule whose trigger
// does not occur returns its input unchanged, and applying a rule to its own
// output changes nothing.
//
// # Rule Shapes
//
//   - [Substitution]: regular expression to literal replacement
//   - [ParamRepair]: keyword-argument repair scoped to calls of named functions
//   - [Augmentation]: insertion of lines below an anchor line, reusing the
//     anchor's indentation
//   - [Func]: any other pure text transform
//
// Rules are composed into a [Chain], which applies them once, left to right.
// The order of a chain is part of its contract: later rules may assume the
// normal forms produced by earlier ones.
//
// # Usage
//
//	chain := rules.Chain{
//	    rules.Replace("get-graph", `\.get_graph\s*\(`, ".plot("),
//	    rules.StripKwarg("animation-color", "color", "Create", "FadeIn"),
//	    rules.CommaCleanup(),
//	}
//	fixed := chain.Apply(src)
package rules

import (
	"regexp"
)

// Rule is a named, pure text transform.
type Rule interface {
	// Name identifies the rule in logs and traces.
	Name() string

	// Apply returns src rewritten by the rule. It never fails; a rule that
	// does not match returns src unchanged.
	Apply(src string) string
}

// Chain is an ordered list of rules applied as a single linear reduction.
type Chain []Rule

// Apply runs every rule once, in order, each on the previous rule's output.
func (c Chain) Apply(src string) string {
	for _, r := range c {
		src = r.Apply(src)
	}
	return src
}

// Trace is like Apply but also returns the names of the rules that changed
// the text, in application order.
func (c Chain) Trace(src string) (string, []string) {
	var fired []string
	for _, r := range c {
		out := r.Apply(src)
		if out != src {
			fired = append(fired, r.Name())
		}
		src = out
	}
	return src, fired
}

// Names returns the rule names of the chain in order.
func (c Chain) Names() []string {
	names := make([]string, len(c))
	for i, r := range c {
		names[i] = r.Name()
	}
	return names
}

// =============================================================================
// Substitution
// =============================================================================

// Substitution replaces every match of Pattern with Replacement.
// Replacement may reference submatches with ${n}, as in [regexp.Regexp.ReplaceAllString].
type Substitution struct {
	RuleName    string
	Pattern     *regexp.Regexp
	Replacement string
	When        func(src string) bool
}

// Replace builds a Substitution from a pattern string.
// It panics if pattern does not compile; rule sets are package-level values.
func Replace(name, pattern, replacement string) *Substitution {
	return &Substitution{
		RuleName:    name,
		Pattern:     regexp.MustCompile(pattern),
		Replacement: replacement,
	}
}

// Name returns the rule name.
func (s *Substitution) Name() string { return s.RuleName }

// Apply replaces all matches when the precondition holds.
func (s *Substitution) Apply(src string) string {
	if s.When != nil && !s.When(src) {
		return src
	}
	return s.Pattern.ReplaceAllString(src, s.Replacement)
}

// If returns s with the precondition set to when.
func (s *Substitution) If(when func(src string) bool) *Substitution {
	s.When = when
	return s
}

// =============================================================================
// Func
// =============================================================================

// Func adapts a plain function to the Rule interface.
type Func struct {
	RuleName string
	Fn       func(src string) string
	When     func(src string) bool
}

// Name returns the rule name.
func (f *Func) Name() string { return f.RuleName }

// Apply runs Fn when the precondition holds.
func (f *Func) Apply(src string) string {
	if f.When != nil && !f.When(src) {
		return src
	}
	return f.Fn(src)
}

// Fixpoint wraps fn so it is re-applied until the text stops changing,
// bounded by limit iterations. Use it for transforms whose single pass can
// leave a fresh match behind (for example collapsing runs of commas).
func Fixpoint(fn func(string) string, limit int) func(string) string {
	return func(src string) string {
		for range limit {
			out := fn(src)
			if out == src {
				return out
			}
			src = out
		}
		return src
	}
}

// =============================================================================
// Cleanup
// =============================================================================

var (
	doubleCommaRe = regexp.MustCompile(`,\s*,`)
	openCommaRe   = regexp.MustCompile(`\(\s*,`)
	closeCommaRe  = regexp.MustCompile(`,\s*\)`)
)

// CommaCleanup collapses argument-list artifacts left by content rules:
// "(," becomes "(", ", )" becomes ")" and doubled commas become one.
// It must run after every rule that removes arguments.
func CommaCleanup() Rule {
	return &Func{
		RuleName: "comma-cleanup",
		Fn: Fixpoint(func(src string) string {
			src = doubleCommaRe.ReplaceAllString(src, ", ")
			src = openCommaRe.ReplaceAllString(src, "(")
			return closeCommaRe.ReplaceAllString(src, ")")
		}, 16),
	}
}
