package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/cursor2d/cursor2d/pkg/jobs"
)

// List styles
var (
	listDimStyle = lipgloss.NewStyle().Foreground(colorDim)
)

// =============================================================================
// JobListModel - Interactive job selection
// =============================================================================

// JobListModel is the bubbletea model for browsing job records.
//
// Enter opens the selected record in a scrollable detail pane; esc goes
// back to the list.
type JobListModel struct {
	Jobs     []*jobs.Record
	Cursor   int
	Selected *jobs.Record // record shown in the detail pane, nil in the list
	Height   int
	Width    int
	Offset   int
	Filter   jobs.Status // empty shows every status

	detail viewport.Model
}

// NewJobListModel creates a new job list model.
func NewJobListModel(recs []*jobs.Record) JobListModel {
	return JobListModel{
		Jobs:   recs,
		Height: 15,
		Width:  100,
		detail: viewport.New(100, 20),
	}
}

func (m JobListModel) Init() tea.Cmd {
	return nil
}

// visible returns the jobs that pass the status filter.
func (m JobListModel) visible() []*jobs.Record {
	if m.Filter == "" {
		return m.Jobs
	}
	var out []*jobs.Record
	for _, r := range m.Jobs {
		if r.Status == m.Filter {
			out = append(out, r)
		}
	}
	return out
}

func (m JobListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if size, ok := msg.(tea.WindowSizeMsg); ok {
		m.Width = size.Width
		m.Height = max(size.Height-8, 5)
		m.detail.Width = size.Width
		m.detail.Height = max(size.Height-4, 5)
		return m, nil
	}
	if m.Selected != nil {
		return m.updateDetail(msg)
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		list := m.visible()
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
				if m.Cursor < m.Offset {
					m.Offset = m.Cursor
				}
			}
		case "down", "j":
			if m.Cursor < len(list)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case "f":
			m.Filter = nextFilter(m.Filter)
			m.Cursor, m.Offset = 0, 0
		case "enter":
			if len(list) == 0 {
				return m, nil
			}
			m.Selected = list[m.Cursor]
			m.detail.SetContent(jobDetail(m.Selected, true, m.Width))
			m.detail.GotoTop()
		}
	}
	return m, nil
}

func (m JobListModel) updateDetail(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "esc", "backspace", "h", "left":
			m.Selected = nil
			return m, nil
		}
	}
	var cmd tea.Cmd
	m.detail, cmd = m.detail.Update(msg)
	return m, cmd
}

func (m JobListModel) View() string {
	var b strings.Builder

	if m.Selected != nil {
		b.WriteString(listDimStyle.Render(fmt.Sprintf("↑/↓ scroll  esc back  q quit  %3.f%%", m.detail.ScrollPercent()*100)))
		b.WriteString("\n\n")
		b.WriteString(m.detail.View())
		return b.String()
	}

	b.WriteString(StyleTitle.Render("Jobs"))
	if m.Filter != "" {
		b.WriteString(" " + statusStyle(m.Filter).Render(string(m.Filter)))
	}
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ details  f filter  q quit"))
	b.WriteString("\n\n")

	list := m.visible()
	if len(list) == 0 {
		b.WriteString(listDimStyle.Render("  no jobs match"))
		b.WriteString("\n")
		return b.String()
	}

	end := m.Offset + m.Height
	if end > len(list) {
		end = len(list)
	}
	b.WriteString(jobsTable(list[m.Offset:end], m.Cursor-m.Offset))
	b.WriteString("\n\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(list))))

	return b.String()
}

// nextFilter cycles all → failed → succeeded → running → all.
func nextFilter(f jobs.Status) jobs.Status {
	switch f {
	case "":
		return jobs.StatusFailed
	case jobs.StatusFailed:
		return jobs.StatusSucceeded
	case jobs.StatusSucceeded:
		return jobs.StatusRunning
	default:
		return ""
	}
}

// =============================================================================
// Helpers
// =============================================================================

func formatRelativeTime(t time.Time) string {
	if t.IsZero() {
		return "—"
	}

	diff := time.Since(t)

	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		return fmt.Sprintf("%dm ago", int(diff.Minutes()))
	case diff < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(diff.Hours()))
	case diff < 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(diff.Hours()/24))
	default:
		return t.Format("Jan 2, 2006")
	}
}
