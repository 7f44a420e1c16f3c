package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/makegraph/pkg/export"
	"github.com/matzehuels/makegraph/pkg/pipeline"
)

func (c *CLI) exportCommand() *cobra.Command {
	var (
		output   string
		omitRoot bool
	)

	cmd := &cobra.Command{
		Use:   "export [trace-file]",
		Short: "Write the target graph as JSON",
		Long: `Write the target graph as JSON: every target with its id and remake
verdict, and every parent → prerequisite edge in traversal order.

Output goes to stdout unless -o is given.`,
		Args: maxTraceArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("omit-root") {
				omitRoot = c.cfg().OmitRoot
			}
			res, err := c.parseTrace(cmd, args, 0)
			if err != nil {
				return err
			}

			g := export.FromRegistry(res.Registry, export.Options{OmitRoot: omitRoot})
			g.Meta = map[string]string{"source": sourceLabel(args)}

			if output == "" || output == "-" {
				return export.WriteJSON(g, cmd.OutOrStdout())
			}
			if err := export.ExportJSON(g, output); err != nil {
				return err
			}
			printSuccess("Exported %d targets", g.NodeCount())
			printFile(output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	cmd.Flags().BoolVar(&omitRoot, "omit-root", false, "omit the <ROOT> node and its edges")
	return cmd
}

func sourceLabel(args []string) string {
	opts := pipeline.Options{Source: traceSource(args, 0)}
	return opts.SourceName()
}
