// Package pipeline runs the repair-and-render pipeline for cursor2d.
//
// The CLI and the HTTP service both go through a [Runner], so a script is
// repaired, checked and rendered the same way whichever entry point received
// it.
//
// # Stages
//
//  1. Sanitize: target rule chain repairs deprecated API use (pkg/sanitize)
//  2. Normalize: layout rules fix indentation and placement (pkg/layout)
//  3. Validate: banned patterns veto the script; the engine is never started
//     for a vetoed script (pkg/validate)
//  4. Render: the target [Engine] turns the normalized script into a URL
//
// Renders are cached by normalized script and engine fingerprint, and every
// run that gets past option validation leaves a jobs.Record.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	runner.Engines[target.Manim] = pipeline.SceneEngine{Orchestrator: orch}
//	result, err := runner.Execute(ctx, pipeline.Options{
//	    Target: "manim",
//	    Script: generated,
//	})
//	if err != nil {
//	    d, _ := errors.GetDiagnostics(err) // normalized script, stderr, exit code
//	}
//	fmt.Println(result.URL)
package pipeline

import (
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/cursor2d/cursor2d/pkg/errors"
	"github.com/cursor2d/cursor2d/pkg/target"
)

// Options configures one pipeline run.
type Options struct {
	Target  string `json:"library,omitempty"`
	Script  string `json:"script"`
	JobID   string `json:"job_id,omitempty"` // Generated when empty
	Refresh bool   `json:"refresh,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	target    target.Target
	validated bool
}

// ValidateAndSetDefaults checks the script and resolves the target.
// It is idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	t, err := target.Parse(o.Target)
	if err != nil {
		return err
	}
	if err := errors.ValidateScript(o.Script); err != nil {
		return err
	}
	if o.JobID != "" {
		if strings.ContainsAny(o.JobID, `/\`) {
			return errors.New(errors.ErrCodeInvalidInput, "job id cannot contain a path separator")
		}
		if err := errors.ValidateRelativePath(o.JobID); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid job id")
		}
	}
	o.target = t
	o.Target = t.String()
	o.validated = true
	return nil
}

// Result is the outcome of a successful run.
type Result struct {
	JobID        string
	Target       target.Target
	URL          string
	ArtifactPath string

	// Normalized is the script the engine received.
	Normalized string

	// Fired names the repair rules that changed the script, in order.
	Fired []string

	Stats     Stats
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	RepairTime time.Duration
	RenderTime time.Duration
	TotalTime  time.Duration
}

// CacheInfo tracks cache use for the render stage.
type CacheInfo struct {
	RenderHit bool
	Key       string
}
