package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/makegraph/pkg/config"
	"github.com/matzehuels/makegraph/pkg/errors"
	"github.com/matzehuels/makegraph/pkg/pipeline"
)

// renderOpts holds the command-line flags for rendering. Flags left unset
// fall back to the config file.
type renderOpts struct {
	output     string // base path; each format is written to <output>.<format>
	formats    string // comma-separated output formats
	rankDir    string // Graphviz rank direction
	staleColor string // fill color for must-remake targets
	omitRoot   bool   // drop the <ROOT> sentinel
	orphans    bool   // draw targets no edge reaches
	detailed   bool   // add ids and verdicts to labels
	noCache    bool   // bypass the artifact cache entirely
	refresh    bool   // re-render even when cached
}

// renderCommand creates the command that renders a trace to files.
func (c *CLI) renderCommand() *cobra.Command {
	var opts renderOpts

	cmd := &cobra.Command{
		Use:   "render [trace-file]",
		Short: "Render the target graph to DOT, SVG, PNG or JSON",
		Args:  maxTraceArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.merge(cmd, c.cfg())
			if err := errors.ValidateOutputBase(opts.output); err != nil {
				return err
			}
			popts := pipeline.Options{
				Source:      traceSource(args, 0),
				Input:       cmd.InOrStdin(),
				OmitRoot:    opts.omitRoot,
				Formats:     pipeline.ParseFormats(opts.formats),
				RankDir:     opts.rankDir,
				StaleColor:  opts.staleColor,
				Detailed:    opts.detailed,
				ShowOrphans: opts.orphans,
				Refresh:     opts.refresh,
			}
			if err := popts.ValidateAndSetDefaults(); err != nil {
				return err
			}
			return c.runRender(cmd.Context(), popts, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", pipeline.DefaultOutput, "output base path; writes <output>.<format>")
	cmd.Flags().StringVarP(&opts.formats, "format", "f", strings.Join(pipeline.DefaultFormats, ","), "output format(s): dot, svg, png, json (comma-separated)")
	cmd.Flags().StringVar(&opts.rankDir, "rankdir", "", "graph direction: TB (default), LR, BT, RL")
	cmd.Flags().StringVar(&opts.staleColor, "stale-color", "", "fill color for targets make must remake")
	cmd.Flags().BoolVar(&opts.omitRoot, "omit-root", false, "omit the <ROOT> node")
	cmd.Flags().BoolVar(&opts.orphans, "orphans", false, "draw targets that no edge reaches")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "show target ids and remake verdicts")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "re-render even if cached")

	return cmd
}

// merge fills flags the user did not set from the config file.
func (o *renderOpts) merge(cmd *cobra.Command, cfg *config.Config) {
	changed := cmd.Flags().Changed
	if !changed("output") {
		o.output = cfg.Output
	}
	if !changed("format") {
		o.formats = strings.Join(cfg.Formats, ",")
	}
	if !changed("rankdir") {
		o.rankDir = cfg.RankDir
	}
	if !changed("stale-color") {
		o.staleColor = cfg.StaleColor
	}
	if !changed("omit-root") {
		o.omitRoot = cfg.OmitRoot
	}
	if !changed("no-cache") {
		o.noCache = !cfg.Cache
	}
}

func (c *CLI) runRender(ctx context.Context, popts pipeline.Options, opts renderOpts) error {
	runner, err := c.newRunner(opts.noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	popts.Logger = loggerFromContext(ctx)

	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Rendering %s...", popts.SourceName()))
	spinner.Start()

	result, err := runner.Execute(ctx, popts)
	if err != nil {
		spinner.StopWithError("Rendering failed")
		return err
	}
	spinner.Stop()

	paths, err := pipeline.WriteArtifacts(result.Artifacts, popts.Formats, opts.output)
	if err != nil {
		return err
	}

	printSuccess("Rendered %s", popts.SourceName())
	for _, p := range paths {
		printFile(p)
	}
	printStats(result.Stats.Targets, result.Stats.Edges, result.Stats.Stale, result.CacheInfo.RenderHit)
	reportTraceWarnings(result.Stats.Skipped, len(result.Trace.Unclosed))

	if result.Stats.Stale > 0 && popts.Source != pipeline.StdinSource {
		printNextStep("See what make will rebuild", appName+" stale "+popts.Source)
	}
	return nil
}

// reportTraceWarnings summarizes lines the parser dropped and regions left
// open at end of input.
func reportTraceWarnings(skipped, unclosed int) {
	if skipped > 0 {
		printWarning("%d over-indented Considering line(s) ignored", skipped)
	}
	if unclosed > 0 {
		printWarning("trace ended inside %d open region(s); was it truncated?", unclosed)
	}
}
