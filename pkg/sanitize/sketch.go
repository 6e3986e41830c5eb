package sanitize

import "github.com/cursor2d/cursor2d/pkg/rules"

var sketchChain = rules.Chain{
	normalizeNewlines(),
	stripFences("javascript", "js"),
}

// SketchRules returns the rule chain for sketch scripts.
func SketchRules() rules.Chain { return sketchChain }
