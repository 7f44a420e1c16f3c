package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/charmbracelet/lipgloss/tree"
	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/matzehuels/makegraph/pkg/export"
	"github.com/matzehuels/makegraph/pkg/pipeline"
	"github.com/matzehuels/makegraph/pkg/target"
	"github.com/matzehuels/makegraph/pkg/trace"
)

// parseTrace reads the trace named by args[n] (or stdin) without rendering.
func (c *CLI) parseTrace(cmd *cobra.Command, args []string, n int) (*trace.Result, error) {
	ctx := cmd.Context()
	prog := newProgress(loggerFromContext(ctx))

	opts := pipeline.Options{
		Source: traceSource(args, n),
		Input:  cmd.InOrStdin(),
		Logger: loggerFromContext(ctx),
	}
	res, err := pipeline.NewRunner(nil, opts.Logger).Parse(ctx, opts)
	if err != nil {
		return nil, err
	}
	prog.done(fmt.Sprintf("Parsed %d targets from %s", res.Registry.Len(), opts.SourceName()))
	return res, nil
}

// =============================================================================
// tree
// =============================================================================

func (c *CLI) treeCommand() *cobra.Command {
	var depth int

	cmd := &cobra.Command{
		Use:   "tree [trace-file]",
		Short: "Print the target tree make explored",
		Long: `Print the target tree make explored, starting from <ROOT>.

A target reached a second time is shown once more, marked with ↑, but not
expanded again. Targets make decided to remake are highlighted.`,
		Args: maxTraceArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := c.parseTrace(cmd, args, 0)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTree(res.Registry, depth))
			reportTraceWarnings(len(res.Skipped), len(res.Unclosed))
			return nil
		},
	}

	cmd.Flags().IntVarP(&depth, "depth", "d", 0, "maximum depth to print (0 = unlimited)")
	return cmd
}

// renderTree draws the registry as a lipgloss tree. Each target is expanded
// at its first occurrence only.
func renderTree(reg *target.Registry, maxDepth int) string {
	expanded := map[*target.Target]bool{}

	var build func(t *target.Target, depth int) *tree.Tree
	build = func(t *target.Target, depth int) *tree.Tree {
		node := tree.Root(targetLabel(t))
		expanded[t] = true
		if maxDepth > 0 && depth >= maxDepth {
			if t.ChildCount() > 0 {
				node.Child(StyleDim.Render(fmt.Sprintf("… %d more", t.ChildCount())))
			}
			return node
		}
		for _, child := range t.Children() {
			if expanded[child] {
				node.Child(targetLabel(child) + StyleDim.Render(" ↑"))
				continue
			}
			if child.ChildCount() == 0 {
				expanded[child] = true
				node.Child(targetLabel(child))
				continue
			}
			node.Child(build(child, depth+1))
		}
		return node
	}

	return build(reg.Root(), 0).
		Enumerator(tree.RoundedEnumerator).
		EnumeratorStyle(StyleDim).
		String()
}

func targetLabel(t *target.Target) string {
	if t.IsRoot() {
		return StyleDim.Render(t.Name())
	}
	if t.MustRemake() {
		return StyleWarning.Render(t.Name() + " *")
	}
	return t.Name()
}

// =============================================================================
// stale
// =============================================================================

func (c *CLI) staleCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "stale [trace-file]",
		Short: "List targets make decided to remake",
		Args:  maxTraceArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := c.parseTrace(cmd, args, 0)
			if err != nil {
				return err
			}

			stale := res.Registry.Stale()
			if len(stale) == 0 {
				printSuccess("Everything is up to date")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), staleTable(res.Registry, stale))
			printInfo("%d of %d targets must be remade", len(stale), res.Registry.Len()-1)
			return nil
		},
	}
}

func staleTable(reg *target.Registry, stale []*target.Target) string {
	rows := make([][]string, 0, len(stale))
	for _, t := range stale {
		via := "(not reached)"
		if path, err := export.PathTo(reg, t.Name()); err == nil && len(path) > 1 {
			via = "(top level)"
			if between := path[1 : len(path)-1]; len(between) > 0 {
				via = chain(targetNames(between))
			}
		}
		rows = append(rows, []string{strconv.Itoa(t.ID()), t.Name(), via})
	}

	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(StyleDim).
		Headers("ID", "Target", "Needed by").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == -1:
				return styleHeader.Padding(0, 1)
			case col == 1:
				return StyleWarning.Padding(0, 1)
			default:
				return StyleDim.Padding(0, 1)
			}
		}).
		Render()
}

// =============================================================================
// why
// =============================================================================

func (c *CLI) whyCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "why <target> [trace-file]",
		Short: "Show the chain of targets that led make to a target",
		Args:  maxTraceArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := c.parseTrace(cmd, args, 1)
			if err != nil {
				return err
			}

			name := args[0]
			path, err := export.PathTo(res.Registry, name)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), chain(targetNames(path)))

			t := path[len(path)-1]
			verdict := "up to date"
			if t.MustRemake() {
				verdict = StyleWarning.Render("must remake")
			}
			printKeyValue("status", verdict)
			printKeyValue("depth", strconv.Itoa(len(path)-1))

			if parents := export.Parents(res.Registry, name); len(parents) > 0 {
				printDetail("needed by: %s", strings.Join(targetNames(parents), ", "))
			}
			return nil
		},
	}
}

func targetNames(ts []*target.Target) []string {
	return lo.Map(ts, func(t *target.Target, _ int) string { return t.Name() })
}
