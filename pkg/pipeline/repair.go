package pipeline

import (
	"github.com/cursor2d/cursor2d/pkg/layout"
	"github.com/cursor2d/cursor2d/pkg/sanitize"
	"github.com/cursor2d/cursor2d/pkg/target"
	"github.com/cursor2d/cursor2d/pkg/validate"
)

// Repaired is the output of the repair stages.
type Repaired struct {
	Sanitized  string
	Normalized string
	Fired      []string
}

// Repair runs the sanitize and normalize stages for t. It never fails for a
// supported target; invalid scripts are rejected later by Check.
func Repair(t target.Target, script string) (*Repaired, error) {
	s, err := sanitize.New(t)
	if err != nil {
		return nil, err
	}
	n, err := layout.New(t)
	if err != nil {
		return nil, err
	}

	sanitized, fired := s.Explain(script)
	normalized, moved := n.Explain(sanitized)
	return &Repaired{
		Sanitized:  sanitized,
		Normalized: normalized,
		Fired:      append(fired, moved...),
	}, nil
}

// Check is the validator gate.
func Check(t target.Target, normalized string) error {
	return validate.Check(t, normalized)
}
