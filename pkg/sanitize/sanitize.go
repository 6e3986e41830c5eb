// Package sanitize repairs generated scripts so the current engine API
// accepts them.
//
// A [Sanitizer] applies its target's ordered rule chain exactly once. The
// scene chain rewrites deprecated calls, strips keyword arguments the engine
// rejects, adds missing imports and frames the camera; the sketch chain only
// unwraps markdown. Sanitizing is idempotent:
//
//	s, _ := sanitize.New(target.Manim)
//	fixed := s.Sanitize(raw)
//	fixed == s.Sanitize(fixed) // always true
package sanitize

import (
	"github.com/cursor2d/cursor2d/pkg/errors"
	"github.com/cursor2d/cursor2d/pkg/rules"
	"github.com/cursor2d/cursor2d/pkg/target"
)

// Sanitizer applies one target's rule chain.
type Sanitizer struct {
	target target.Target
	chain  rules.Chain
}

// New returns the sanitizer for t.
func New(t target.Target) (*Sanitizer, error) {
	var chain rules.Chain
	switch t {
	case target.Manim:
		chain = SceneRules()
	case target.P5:
		chain = SketchRules()
	default:
		return nil, errors.New(errors.ErrCodeInvalidTarget, "no sanitizer for target %q", t)
	}
	return &Sanitizer{target: t, chain: chain}, nil
}

// Target returns the target the sanitizer was built for.
func (s *Sanitizer) Target() target.Target { return s.target }

// Sanitize returns raw with every rule applied once, in order.
func (s *Sanitizer) Sanitize(raw string) string {
	return s.chain.Apply(raw)
}

// Explain is Sanitize that also names the rules that changed the text.
func (s *Sanitizer) Explain(raw string) (string, []string) {
	return s.chain.Trace(raw)
}

// Rules returns the rule names in application order.
func (s *Sanitizer) Rules() []string {
	return s.chain.Names()
}
