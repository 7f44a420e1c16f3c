package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/matzehuels/makegraph/pkg/errors"
	"github.com/matzehuels/makegraph/pkg/pipeline"
	"github.com/matzehuels/makegraph/pkg/target"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

func (c *CLI) browseCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "browse [trace-file]",
		Short: "Explore the target tree interactively",
		Args:  maxTraceArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			if traceSource(args, 0) == pipeline.StdinSource {
				return errors.Usage("browse needs a trace file; stdin is used for the keyboard")
			}
			res, err := c.parseTrace(cmd, args, 0)
			if err != nil {
				return err
			}

			p := tea.NewProgram(NewTargetBrowserModel(res.Registry.Root()),
				tea.WithContext(cmd.Context()),
				tea.WithAltScreen())
			_, err = p.Run()
			return err
		},
	}
}

// =============================================================================
// TargetBrowserModel - Interactive tree navigation
// =============================================================================

// TargetBrowserModel is the bubbletea model for walking the target tree one
// level at a time.
type TargetBrowserModel struct {
	// Trail holds the targets entered so far; the last one is listed.
	Trail  []*target.Target
	Cursor int
	Height int
	Offset int

	// cursors remembers the cursor position of each level on the trail.
	cursors []int
}

// NewTargetBrowserModel creates a browser positioned at root.
func NewTargetBrowserModel(root *target.Target) TargetBrowserModel {
	return TargetBrowserModel{
		Trail:  []*target.Target{root},
		Height: 15,
	}
}

// Current returns the target whose prerequisites are listed.
func (m TargetBrowserModel) Current() *target.Target {
	return m.Trail[len(m.Trail)-1]
}

func (m TargetBrowserModel) Init() tea.Cmd {
	return nil
}

func (m TargetBrowserModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		children := m.Current().Children()
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
			if m.Cursor < len(children)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case "enter", "right", "l":
			if len(children) == 0 {
				return m, nil
			}
			next := children[m.Cursor]
			if next.ChildCount() == 0 {
				return m, nil
			}
			m.cursors = append(m.cursors, m.Cursor)
			m.Trail = append(m.Trail, next)
			m.Cursor, m.Offset = 0, 0
		case "backspace", "left", "h":
			if len(m.Trail) == 1 {
				return m, nil
			}
			m.Trail = m.Trail[:len(m.Trail)-1]
			m.Cursor = m.cursors[len(m.cursors)-1]
			m.cursors = m.cursors[:len(m.cursors)-1]
			m.Offset = max(0, m.Cursor-m.Height+1)
		}
	case tea.WindowSizeMsg:
		m.Height = max(msg.Height-7, 5)
	}
	return m, nil
}

func (m TargetBrowserModel) View() string {
	var b strings.Builder

	names := make([]string, len(m.Trail))
	for i, t := range m.Trail {
		names[i] = t.Name()
	}
	b.WriteString(StyleTitle.Render(chain(names)))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ open  ⌫ back  q quit"))
	b.WriteString("\n\n")

	children := m.Current().Children()
	if len(children) == 0 {
		b.WriteString(listDimStyle.Render("  no prerequisites"))
		b.WriteString("\n")
		return b.String()
	}

	end := min(m.Offset+m.Height, len(children))
	for i := m.Offset; i < end; i++ {
		t := children[i]

		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		mark := " "
		if t.MustRemake() {
			mark = StyleWarning.Render("*")
		}
		count := ""
		if n := t.ChildCount(); n > 0 {
			count = listDimStyle.Render(fmt.Sprintf("  (%d)", n))
		}

		line := fmt.Sprintf("%s%s %s", cursor, mark, t.Name())
		if i == m.Cursor {
			b.WriteString(listSelectedStyle.Render(line))
		} else {
			b.WriteString(listNormalStyle.Render(line))
		}
		b.WriteString(count)
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]  %s must remake", m.Cursor+1, len(children), "*")))
	return b.String()
}
