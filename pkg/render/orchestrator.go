package render

import (
	"bytes"
	"context"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/cursor2d/cursor2d/pkg/errors"
	"github.com/cursor2d/cursor2d/pkg/observability"
)

// Defaults for Options.
const (
	DefaultBinary  = "python"
	DefaultScene   = "MainScene"
	DefaultBaseURL = "http://localhost:3000"
)

// DefaultArgs are the engine arguments placed before the script path.
var DefaultArgs = []string{"-m", "manim", "-qh"}

// DefaultExtraPath is appended to PATH so the engine finds the TeX
// binaries of a MacTeX install. Missing directories are harmless.
var DefaultExtraPath = []string{"/Library/TeX/texbin"}

// stderrExcerptBytes bounds the stderr tail quoted in error messages.
const stderrExcerptBytes = 2048

// IDGenerator returns a new unique job id.
type IDGenerator func() string

// Options configures an Orchestrator.
type Options struct {
	Binary    string        // Engine executable (default: python)
	Args      []string      // Arguments before the script path (default: -m manim -qh)
	Scene     string        // Scene class to render (default: MainScene)
	RootDir   string        // Engine working directory; media/ is created here (default: .)
	WorkDir   string        // Directory for script files (default: <RootDir>/temp)
	ExtraPath []string      // Entries appended to PATH (default: DefaultExtraPath; empty disables)
	BaseURL   string        // Public address videos are served from
	Timeout   time.Duration // Bound on one engine run; 0 disables

	KeepScripts bool // Keep script files after the run
}

// SetDefaults fills zero-valued fields.
func (o *Options) SetDefaults() {
	if o.Binary == "" {
		o.Binary = DefaultBinary
	}
	if o.Args == nil {
		o.Args = append([]string(nil), DefaultArgs...)
	}
	if o.Scene == "" {
		o.Scene = DefaultScene
	}
	if o.ExtraPath == nil {
		o.ExtraPath = append([]string(nil), DefaultExtraPath...)
	}
	if o.RootDir == "" {
		o.RootDir = "."
	}
	if o.WorkDir == "" {
		o.WorkDir = filepath.Join(o.RootDir, "temp")
	}
	if o.BaseURL == "" {
		o.BaseURL = DefaultBaseURL
	}
}

// Validate checks the options after defaults are applied.
func (o Options) Validate() error {
	if err := errors.ValidateBaseURL(o.BaseURL); err != nil {
		return err
	}
	if o.Timeout < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "timeout cannot be negative")
	}
	return nil
}

// MediaDir returns the directory the engine writes videos under.
func (o Options) MediaDir() string {
	return filepath.Join(o.RootDir, "media", "videos")
}

// Orchestrator runs the scene engine. It holds no per-run state and is safe
// for concurrent use; every Render owns its own subprocess.
type Orchestrator struct {
	opts   Options
	NewID  IDGenerator
	Logger *log.Logger
}

// New returns an orchestrator for opts. A nil logger discards output.
func New(opts Options, logger *log.Logger) (*Orchestrator, error) {
	opts.SetDefaults()
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Orchestrator{opts: opts, NewID: uuid.NewString, Logger: logger}, nil
}

// Options returns the effective options.
func (o *Orchestrator) Options() Options { return o.opts }

// Check reports whether the engine binary can be found.
func (o *Orchestrator) Check() error {
	if _, err := exec.LookPath(o.opts.Binary); err != nil {
		return errors.Wrap(errors.ErrCodeSpawnFailure, err, "engine binary %q not found", o.opts.Binary)
	}
	return nil
}

// Outcome is the result of a successful render. It is built once, when the
// engine exits, and never modified.
type Outcome struct {
	JobID        string
	ArtifactPath string // Absolute path of the produced video
	URL          string // Public URL of the video
	ExitCode     int
	Stdout       string
	Stderr       string
	Duration     time.Duration
}

// Job is one engine run.
type Job struct {
	ID         string
	ScriptPath string
	WorkingDir string
	Args       []string // Full argument list after the binary
	Env        []string

	state  State
	cmd    *exec.Cmd
	logger *log.Logger
}

// State returns the job's current state.
func (j *Job) State() State { return j.state }

func (j *Job) transition(ctx context.Context, to State) {
	from := j.state
	j.state = to
	j.logger.Debug("render state", "job", j.ID, "from", from, "to", to)
	observability.Render().OnStateChange(ctx, j.ID, from.String(), to.String())
}

// newJob prepares a job without touching the filesystem.
func (o *Orchestrator) newJob(id string) *Job {
	if id == "" {
		id = o.NewID()
	}
	script := filepath.Join(o.opts.WorkDir, "animation_"+id+".py")
	if abs, err := filepath.Abs(script); err == nil {
		script = abs
	}
	args := append(append([]string(nil), o.opts.Args...), script, o.opts.Scene)
	return &Job{
		ID:         id,
		ScriptPath: script,
		WorkingDir: o.opts.RootDir,
		Args:       args,
		Env:        withPath(os.Environ(), o.opts.ExtraPath),
		logger:     o.Logger,
	}
}

// Render renders script under a generated job id.
func (o *Orchestrator) Render(ctx context.Context, script string) (*Outcome, error) {
	return o.RenderWithID(ctx, "", script)
}

// RenderWithID renders script under the given job id; an empty id is
// generated. It blocks until the engine exits.
func (o *Orchestrator) RenderWithID(ctx context.Context, id, script string) (*Outcome, error) {
	start := time.Now()
	diag := errors.Diagnostics{Script: script, ExitCode: -1}

	job := o.newJob(id)

	// A disconnecting caller must not kill a half-finished render.
	ctx = context.WithoutCancel(ctx)
	if o.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.opts.Timeout)
		defer cancel()
	}

	fail := func(err error) (*Outcome, error) {
		job.transition(ctx, Failed)
		o.Logger.Debug("render failed", "job", job.ID, "code", errors.GetCode(err), "exit", diag.ExitCode)
		return nil, errors.Attach(err, diag)
	}

	job.transition(ctx, Writing)
	if err := os.MkdirAll(filepath.Dir(job.ScriptPath), 0o755); err != nil {
		return fail(errors.Wrap(errors.ErrCodeWriteFailure, err, "create work directory"))
	}
	if err := os.WriteFile(job.ScriptPath, []byte(script), 0o644); err != nil {
		return fail(errors.Wrap(errors.ErrCodeWriteFailure, err, "write script"))
	}
	if !o.opts.KeepScripts {
		defer os.Remove(job.ScriptPath)
	}

	var stdout, stderr bytes.Buffer
	job.cmd = exec.CommandContext(ctx, o.opts.Binary, job.Args...)
	job.cmd.Dir = job.WorkingDir
	job.cmd.Env = job.Env
	job.cmd.Stdout = &stdout
	job.cmd.Stderr = &stderr
	if o.opts.Timeout > 0 {
		job.cmd.WaitDelay = time.Second
	}

	if err := job.cmd.Start(); err != nil {
		return fail(errors.Wrap(errors.ErrCodeSpawnFailure, err, "start %s", o.opts.Binary))
	}
	job.transition(ctx, Spawned)
	o.Logger.Debug("engine started", "job", job.ID, "pid", job.cmd.Process.Pid, "script", job.ScriptPath)

	job.transition(ctx, Collecting)
	waitErr := job.cmd.Wait()

	diag.Stdout = stdout.String()
	diag.Stderr = stderr.String()
	diag.ExitCode = job.cmd.ProcessState.ExitCode()

	if waitErr == exec.ErrWaitDelay && diag.ExitCode == 0 {
		waitErr = nil
	}
	if waitErr != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return fail(errors.Wrap(errors.ErrCodeEngineExit, waitErr, "engine timed out after %s: %s",
				o.opts.Timeout, errors.Excerpt(diag.Stderr, stderrExcerptBytes)))
		}
		return fail(errors.New(errors.ErrCodeEngineExit, "engine exited with code %d: %s",
			diag.ExitCode, errors.Excerpt(diag.Stderr, stderrExcerptBytes)))
	}

	artifact, ok := ParseArtifactPath(diag.Stdout)
	if !ok {
		artifact, ok = ParseArtifactPath(diag.Stderr)
	}
	if !ok {
		return fail(errors.New(errors.ErrCodeArtifactNotFound, "engine output has no %q record", ReadyMarker))
	}

	url, err := TranslatePath(o.opts.BaseURL, artifact)
	if err != nil {
		return fail(err)
	}
	if !filepath.IsAbs(artifact) {
		artifact = filepath.Join(job.WorkingDir, artifact)
	}

	job.transition(ctx, Succeeded)
	out := &Outcome{
		JobID:        job.ID,
		ArtifactPath: artifact,
		URL:          url,
		ExitCode:     diag.ExitCode,
		Stdout:       diag.Stdout,
		Stderr:       diag.Stderr,
		Duration:     time.Since(start),
	}
	o.Logger.Debug("engine finished", "job", job.ID, "artifact", artifact, "duration", out.Duration)
	return out, nil
}

// withPath returns env with extra appended to its PATH entry.
func withPath(env, extra []string) []string {
	if len(extra) == 0 {
		return env
	}
	add := strings.Join(extra, string(os.PathListSeparator))
	out := make([]string, 0, len(env)+1)
	found := false
	for _, kv := range env {
		if v, ok := strings.CutPrefix(kv, "PATH="); ok {
			found = true
			if v != "" {
				kv = "PATH=" + v + string(os.PathListSeparator) + add
			} else {
				kv = "PATH=" + add
			}
		}
		out = append(out, kv)
	}
	if !found {
		out = append(out, "PATH="+add)
	}
	return out
}
