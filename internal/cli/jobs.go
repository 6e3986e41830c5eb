package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/cursor2d/cursor2d/pkg/errors"
	"github.com/cursor2d/cursor2d/pkg/jobs"
	"github.com/cursor2d/cursor2d/pkg/target"
)

// stderrTailBytes bounds the engine output shown by "jobs show".
const stderrTailBytes = 1200

// jobsCommand creates the job record command.
func (c *CLI) jobsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "Inspect job records",
	}

	cmd.AddCommand(c.jobsListCommand())
	cmd.AddCommand(c.jobsShowCommand())
	cmd.AddCommand(c.jobsBrowseCommand())

	return cmd
}

// openJobs opens the configured job store.
func (c *CLI) openJobs(ctx context.Context) (jobs.Store, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, err
	}
	return newJobStore(ctx, cfg)
}

func (c *CLI) jobsListCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent jobs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := c.openJobs(cmd.Context())
			if err != nil {
				return err
			}
			defer store.Close()

			recs, err := store.List(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(recs) == 0 {
				printInfo("No jobs recorded")
				return nil
			}
			fmt.Println(jobsTable(recs, -1))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum number of jobs to list")
	return cmd
}

func (c *CLI) jobsShowCommand() *cobra.Command {
	var (
		full   bool
		format string
	)

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a job record with its diagnostics",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := c.openJobs(cmd.Context())
			if err != nil {
				return err
			}
			defer store.Close()

			rec, err := store.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if format != "text" {
				return writeRecord(cmd.OutOrStdout(), rec, format)
			}
			printJob(rec, full)
			return nil
		},
	}

	cmd.Flags().BoolVar(&full, "full", false, "print the complete script and engine output")
	cmd.Flags().StringVarP(&format, "format", "o", "text", "output format: text, json, yaml")
	_ = cmd.RegisterFlagCompletionFunc("format", cobra.FixedCompletions([]string{"text", "json", "yaml"}, cobra.ShellCompDirectiveNoFileComp))
	return cmd
}

func (c *CLI) jobsBrowseCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "browse",
		Short: "Browse recent jobs interactively",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := c.openJobs(cmd.Context())
			if err != nil {
				return err
			}
			defer store.Close()

			recs, err := store.List(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(recs) == 0 {
				printInfo("No jobs recorded")
				return nil
			}

			_, err = tea.NewProgram(NewJobListModel(recs), tea.WithAltScreen(), tea.WithContext(cmd.Context())).Run()
			return err
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", jobs.DefaultListLimit, "maximum number of jobs to load")
	return cmd
}

// =============================================================================
// Job Output
// =============================================================================

var (
	styleStatusSucceeded = lipgloss.NewStyle().Foreground(colorGreen)
	styleStatusFailed    = lipgloss.NewStyle().Foreground(colorRed)
	styleStatusRunning   = lipgloss.NewStyle().Foreground(colorYellow)
)

func statusStyle(s jobs.Status) lipgloss.Style {
	switch s {
	case jobs.StatusSucceeded:
		return styleStatusSucceeded
	case jobs.StatusFailed:
		return styleStatusFailed
	default:
		return styleStatusRunning
	}
}

// jobsTable renders recs as a table. The row at cursor (if any) is marked.
func jobsTable(recs []*jobs.Record, cursor int) string {
	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)

	rows := make([][]string, len(recs))
	for i, r := range recs {
		mark := "  "
		if i == cursor {
			mark = "▸ "
		}
		detail := r.URL
		if r.Status == jobs.StatusFailed {
			detail = r.ErrorCode
			if r.Pattern != "" {
				detail += " (" + r.Pattern + ")"
			}
		}
		if r.Cached {
			detail += " " + iconCached
		}
		rows[i] = []string{mark, shortID(r.ID), r.Target, string(r.Status), formatRelativeTime(r.CreatedAt), formatDuration(r), detail}
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "Job", "Target", "Status", "Created", "Took", "Result").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			if row < 0 || row >= len(recs) {
				return lipgloss.NewStyle()
			}
			base := lipgloss.NewStyle()
			if row == cursor {
				base = base.Bold(true)
			}
			switch col {
			case 3:
				return base.Inherit(statusStyle(recs[row].Status))
			case 4, 5:
				return base.Foreground(colorDim)
			case 6:
				if recs[row].Status == jobs.StatusSucceeded {
					return base.Foreground(colorBlue)
				}
				return base.Foreground(colorGray)
			}
			if row == cursor {
				return base.Foreground(colorCyan)
			}
			return base.Foreground(colorWhite)
		})
	return t.Render()
}

// printJob prints one record. Long scripts and engine output are trimmed
// to their tail unless full is set.
func printJob(r *jobs.Record, full bool) {
	fmt.Println(jobDetail(r, full, 100))
}

// jobDetail renders one record for a terminal of the given width.
func jobDetail(r *jobs.Record, full bool, width int) string {
	var b strings.Builder
	line := func(s string) {
		b.WriteString(s)
		b.WriteByte('\n')
	}

	line(StyleTitle.Render("Job " + r.ID))
	line(formatKeyValue("Target", r.Target))
	line(formatKeyValue("Status", statusStyle(r.Status).Render(string(r.Status))))
	line(formatKeyValue("Created", r.CreatedAt.Local().Format(time.DateTime)))
	line(formatKeyValue("Took", formatDuration(r)))
	if r.URL != "" {
		line(formatKeyValue("URL", StyleLink.Render(r.URL)))
	}
	if r.ArtifactPath != "" {
		line(formatKeyValue("Artifact", r.ArtifactPath))
	}
	if r.Cached {
		line(formatKeyValue("Cache", iconCached))
	}
	if r.Status == jobs.StatusFailed {
		line(formatKeyValue("Error", r.ErrorCode))
		line(formatKeyValue("Message", r.ErrorMessage))
		if r.Pattern != "" {
			line(formatKeyValue("Pattern", r.Pattern))
		}
		line(formatKeyValue("Exit code", strconv.Itoa(r.ExitCode)))
	}

	if r.Stderr != "" {
		line("")
		line(StyleHighlight.Render("Engine output"))
		line(StyleDim.Render(tail(r.Stderr, full)))
	}
	script := r.NormalizedScript
	if script == "" {
		script = r.Script
	}
	if script != "" {
		line("")
		line(StyleHighlight.Render("Script"))
		b.WriteString(renderScript(r.Target, tail(script, full), width))
	}
	return strings.TrimRight(b.String(), "\n")
}

// renderScript renders a script as a highlighted markdown code block.
// Plain text is returned when the terminal renderer is unavailable.
func renderScript(targetName, script string, width int) string {
	lang := "python"
	if targetName == target.P5.String() {
		lang = "javascript"
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return script + "\n"
	}
	out, err := r.Render("```" + lang + "\n" + strings.TrimRight(script, "\n") + "\n```\n")
	if err != nil {
		return script + "\n"
	}
	return out
}

// writeRecord encodes r as json or yaml.
func writeRecord(w io.Writer, r *jobs.Record, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(r); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown format %q (must be one of: text, json, yaml)", format)
	}
}

func tail(s string, full bool) string {
	if full {
		return s
	}
	return errors.Excerpt(s, stderrTailBytes)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func formatDuration(r *jobs.Record) string {
	if r.Status == jobs.StatusRunning {
		return "—"
	}
	return r.Duration().Round(time.Millisecond).String()
}
