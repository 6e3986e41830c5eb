package pipeline

import (
	"context"
	"strings"

	"github.com/cursor2d/cursor2d/pkg/cache"
	"github.com/cursor2d/cursor2d/pkg/render"
	"github.com/cursor2d/cursor2d/pkg/sketch"
)

// Artifact is what an engine produced for a script.
type Artifact struct {
	URL      string
	Path     string
	Stderr   string
	ExitCode int
}

// Engine turns a normalized script into a served artifact.
type Engine interface {
	// Run renders script under job id. Failures are *errors.Error values
	// carrying Diagnostics.
	Run(ctx context.Context, id, script string) (*Artifact, error)

	// Fingerprint identifies the settings that change what Run produces.
	Fingerprint() string
}

// SceneEngine runs scripts through the scene engine subprocess.
type SceneEngine struct {
	Orchestrator *render.Orchestrator
}

func (e SceneEngine) Run(ctx context.Context, id, script string) (*Artifact, error) {
	out, err := e.Orchestrator.RenderWithID(ctx, id, script)
	if err != nil {
		return nil, err
	}
	return &Artifact{URL: out.URL, Path: out.ArtifactPath, Stderr: out.Stderr, ExitCode: out.ExitCode}, nil
}

func (e SceneEngine) Fingerprint() string {
	o := e.Orchestrator.Options()
	return cache.Fingerprint("manim", o.Binary, strings.Join(o.Args, " "), o.Scene, o.RootDir, o.BaseURL)
}

// SketchEngine publishes scripts as p5 pages.
type SketchEngine struct {
	Publisher *sketch.Publisher
}

func (e SketchEngine) Run(ctx context.Context, id, script string) (*Artifact, error) {
	out, err := e.Publisher.PublishWithID(ctx, id, script)
	if err != nil {
		return nil, err
	}
	return &Artifact{URL: out.URL, Path: out.PagePath}, nil
}

func (e SketchEngine) Fingerprint() string {
	o := e.Publisher.Options()
	return cache.Fingerprint("p5", o.Dir, o.BaseURL, o.RuntimeURL)
}
