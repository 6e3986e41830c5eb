// Package target names the engines a generated script can be rendered with.
package target

import (
	"strings"

	"github.com/cursor2d/cursor2d/pkg/errors"
)

// Target identifies a rendering engine and the language it consumes.
type Target string

const (
	// Manim is the scene engine; scripts are Python defining MainScene.
	Manim Target = "manim"
	// P5 is the sketch engine; scripts are browser JavaScript.
	P5 Target = "p5"
)

// Default is used when a request names no target.
const Default = Manim

// All returns the supported targets.
func All() []Target {
	return []Target{Manim, P5}
}

// Names returns the supported target names.
func Names() []string {
	all := All()
	names := make([]string, len(all))
	for i, t := range all {
		names[i] = string(t)
	}
	return names
}

// Parse resolves a target name, case-insensitively. An empty name yields
// Default.
func Parse(name string) (Target, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return Default, nil
	}
	if err := errors.ValidateTarget(name, Names()...); err != nil {
		return "", err
	}
	return Target(name), nil
}

// Extension returns the script file extension for t.
func (t Target) Extension() string {
	if t == P5 {
		return ".js"
	}
	return ".py"
}

func (t Target) String() string { return string(t) }
