package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/cursor2d/cursor2d/pkg/errors"
	"github.com/cursor2d/cursor2d/pkg/pipeline"
)

// sanitizeOpts holds the flags shared by sanitize and check.
type sanitizeOpts struct {
	target  string
	output  string
	explain bool
}

// sanitizeCommand creates the command that prints the repaired script.
func (c *CLI) sanitizeCommand() *cobra.Command {
	var opts sanitizeOpts

	cmd := &cobra.Command{
		Use:   "sanitize [file]",
		Short: "Print the repaired form of a script",
		Long: `Sanitize and normalize a script without rendering it.

Reads from stdin when no file (or "-") is given. The target is taken from
--target, or from the file extension (.js for p5, anything else for manim).`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			return runSanitize(cmd.Context(), path, cmd.InOrStdin(), cmd.OutOrStdout(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.target, "target", "t", "", "target engine: manim, p5")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "write the repaired script to a file")
	cmd.Flags().BoolVar(&opts.explain, "explain", false, "log each rule that changed the script")
	_ = cmd.RegisterFlagCompletionFunc("target", completeTargets)
	cmd.ValidArgsFunction = completeScripts

	return cmd
}

func runSanitize(ctx context.Context, path string, stdin io.Reader, stdout io.Writer, opts sanitizeOpts) error {
	logger := loggerFromContext(ctx)

	t, err := targetFor(opts.target, path)
	if err != nil {
		return err
	}
	script, err := readScript(path, stdin)
	if err != nil {
		return err
	}
	repaired, err := pipeline.Repair(t, script)
	if err != nil {
		return err
	}

	if opts.explain {
		if len(repaired.Fired) == 0 {
			logger.Info("no rule changed the script", "target", t)
		}
		for _, name := range repaired.Fired {
			logger.Info("rule fired", "rule", name)
		}
	}

	if opts.output == "" {
		_, err := io.WriteString(stdout, repaired.Normalized)
		return err
	}
	if err := os.WriteFile(opts.output, []byte(repaired.Normalized), 0o644); err != nil {
		return errors.Wrap(errors.ErrCodeWriteFailure, err, "write %s", opts.output)
	}
	printSuccess("Repaired %s script (%d rules fired)", t, len(repaired.Fired))
	printFile(opts.output)
	return nil
}

// checkCommand creates the command that runs the validator gate.
func (c *CLI) checkCommand() *cobra.Command {
	var opts sanitizeOpts

	cmd := &cobra.Command{
		Use:   "check [file]",
		Short: "Check whether a script would be accepted for rendering",
		Long: `Repair a script and run the banned-pattern validator on the result.

Exits non-zero when the repaired script would be rejected.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			t, err := targetFor(opts.target, path)
			if err != nil {
				return err
			}
			script, err := readScript(path, cmd.InOrStdin())
			if err != nil {
				return err
			}

			runner := pipeline.NewRunner(nil, nil, c.Logger)
			res, err := runner.Repair(cmd.Context(), pipeline.Options{Target: t.String(), Script: script})
			if errors.Is(err, errors.ErrCodeBannedPattern) {
				pattern := ""
				if d, ok := errors.GetDiagnostics(err); ok {
					pattern = d.Pattern
				}
				printError("Rejected: %s", pattern)
				printDetail("%s", errors.UserMessage(err))
				return fmt.Errorf("script rejected")
			}
			if err != nil {
				return err
			}

			printSuccess("Accepted %s script", t)
			if opts.explain {
				for _, name := range res.Fired {
					printDetail("%s", name)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&opts.target, "target", "t", "", "target engine: manim, p5")
	cmd.Flags().BoolVar(&opts.explain, "explain", false, "list the rules that changed the script")
	_ = cmd.RegisterFlagCompletionFunc("target", completeTargets)
	cmd.ValidArgsFunction = completeScripts

	return cmd
}
