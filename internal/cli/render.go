package cli

import (
	"context"
	"fmt"
	"io"
	"slices"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/cursor2d/cursor2d/pkg/errors"
	"github.com/cursor2d/cursor2d/pkg/pipeline"
)

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	target      string // target engine; inferred from the extension when empty
	noCache     bool   // bypass the render cache entirely
	refresh     bool   // render again but update the cache
	concurrency int    // engine runs in flight at once
	watch       bool   // render again whenever an input file changes
}

// renderOutcome is the result of rendering one input.
type renderOutcome struct {
	path   string
	jobID  string
	result *pipeline.Result
	err    error
}

// renderCommand creates the render command.
func (c *CLI) renderCommand() *cobra.Command {
	opts := renderOpts{concurrency: defaultConcurrency}

	cmd := &cobra.Command{
		Use:   "render [file...]",
		Short: "Repair and render scripts",
		Long: `Repair each script, validate it and render it with its engine.

Manim scripts render to a video below media/videos/; p5 sketches are
published as an HTML page. Scripts render concurrently, at most
--concurrency at a time. Reads a single script from stdin when no file
(or "-") is given.

With --watch the command keeps running and renders a file again each
time it is saved.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				args = []string{"-"}
			}
			if opts.concurrency < 1 {
				return fmt.Errorf("--concurrency must be at least 1")
			}
			if opts.watch && slices.Contains(args, "-") {
				return fmt.Errorf("--watch needs file arguments")
			}
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			runner, err := c.newRunner(cmd.Context(), cfg, opts.noCache)
			if err != nil {
				return err
			}
			defer runner.Close()

			err = runRender(cmd.Context(), runner, args, cmd.InOrStdin(), opts)
			if !opts.watch {
				return err
			}
			return watchRender(cmd.Context(), runner, args, opts, defaultDebounce)
		},
	}

	cmd.Flags().StringVarP(&opts.target, "target", "t", "", "target engine: manim, p5 (default: from file extension)")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the render cache")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "render even when a cached result exists")
	cmd.Flags().IntVarP(&opts.concurrency, "concurrency", "j", opts.concurrency, "maximum concurrent renders")
	cmd.Flags().BoolVarP(&opts.watch, "watch", "w", false, "render again when a file changes")
	_ = cmd.RegisterFlagCompletionFunc("target", completeTargets)
	cmd.ValidArgsFunction = completeScripts

	return cmd
}

// runRender renders every input and reports each outcome. It returns an
// error if any input failed.
func runRender(ctx context.Context, runner *pipeline.Runner, inputs []string, stdin io.Reader, opts renderOpts) error {
	logger := loggerFromContext(ctx)
	prog := newProgress(logger)

	label := fmt.Sprintf("Rendering %s...", inputs[0])
	if len(inputs) > 1 {
		label = fmt.Sprintf("Rendering %d scripts...", len(inputs))
	}
	spinner := newSpinnerWithContext(ctx, label)
	spinner.Start()

	outcomes := renderAll(ctx, runner, inputs, stdin, opts, func(done int) {
		if len(inputs) > 1 {
			spinner.SetMessage(fmt.Sprintf("Rendering %d scripts... (%d done)", len(inputs), done))
		}
	})

	failed := 0
	for _, o := range outcomes {
		if o.err != nil {
			failed++
		}
	}
	summary := fmt.Sprintf("Rendered %d of %d scripts", len(outcomes)-failed, len(outcomes))
	if failed > 0 {
		spinner.StopWithError(summary)
	} else {
		spinner.StopWithSuccess(summary)
	}

	for _, o := range outcomes {
		if o.err != nil {
			reportFailure(o)
			continue
		}
		printInfo("%s", o.path)
		printDetail("%s", StyleLink.Render(o.result.URL))
		printRenderStats(o.result.Target, len(o.result.Fired), o.result.Stats.TotalTime, o.result.CacheInfo.RenderHit)
	}

	prog.done(summary)
	if failed > 0 {
		return fmt.Errorf("%d of %d renders failed", failed, len(outcomes))
	}
	return nil
}

// renderAll runs the pipeline for each input with bounded concurrency and
// calls onDone after each one finishes. Outcomes are returned in input order.
func renderAll(ctx context.Context, runner *pipeline.Runner, inputs []string, stdin io.Reader, opts renderOpts, onDone func(done int)) []renderOutcome {
	outcomes := make([]renderOutcome, len(inputs))
	var finished atomic.Int32

	var g errgroup.Group
	g.SetLimit(opts.concurrency)
	for i, path := range inputs {
		g.Go(func() error {
			id := uuid.NewString()
			res, err := renderOne(ctx, runner, id, path, stdin, opts)
			outcomes[i] = renderOutcome{path: path, jobID: id, result: res, err: err}
			if onDone != nil {
				onDone(int(finished.Add(1)))
			}
			return nil
		})
	}
	_ = g.Wait()
	return outcomes
}

// watchRender renders each input again after it changes, until ctx is done.
func watchRender(ctx context.Context, runner *pipeline.Runner, inputs []string, opts renderOpts, debounce time.Duration) error {
	w, err := newScriptWatcher(inputs, debounce)
	if err != nil {
		return err
	}
	printNewline()
	printInfo("Watching %d file(s), press Ctrl+C to stop", len(inputs))
	return w.run(ctx, func(path string) {
		// Failures are reported and watching continues.
		_ = runRender(ctx, runner, []string{path}, nil, opts)
	})
}

func renderOne(ctx context.Context, runner *pipeline.Runner, id, path string, stdin io.Reader, opts renderOpts) (*pipeline.Result, error) {
	t, err := targetFor(opts.target, path)
	if err != nil {
		return nil, err
	}
	script, err := readScript(path, stdin)
	if err != nil {
		return nil, err
	}
	return runner.Execute(ctx, pipeline.Options{
		Target:  t.String(),
		Script:  script,
		JobID:   id,
		Refresh: opts.refresh,
		Logger:  loggerFromContext(ctx).With("input", path),
	})
}

func reportFailure(o renderOutcome) {
	code := errors.GetCode(o.err)
	printError("%s: %s", o.path, errors.UserMessage(o.err))
	if d, ok := errors.GetDiagnostics(o.err); ok {
		if d.Pattern != "" {
			printDetail("pattern: %s", d.Pattern)
		}
		if d.ExitCode > 0 {
			printDetail("engine exit code: %d", d.ExitCode)
		}
	}
	switch code {
	case "", errors.ErrCodeInvalidInput, errors.ErrCodeInvalidTarget, errors.ErrCodeUnsupported:
	default:
		printNewline()
		printNextStep("Inspect the job", appName+" jobs show "+o.jobID)
	}
}
