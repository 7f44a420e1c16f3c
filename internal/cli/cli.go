package cli

import (
	"io"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/makegraph/pkg/buildinfo"
	"github.com/matzehuels/makegraph/pkg/cache"
	"github.com/matzehuels/makegraph/pkg/config"
	"github.com/matzehuels/makegraph/pkg/errors"
	"github.com/matzehuels/makegraph/pkg/pipeline"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = cache.AppName

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath string
	config     *config.Config
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
// The root command itself renders a trace.
func (c *CLI) RootCommand() *cobra.Command {
	root := c.renderCommand()
	root.Use = appName + " [trace-file]"
	root.Short = "makegraph draws the target graph hidden in make's debug output"
	root.Long = `makegraph reads the output of 'make -d' (or 'make --debug=verbose'),
rebuilds the tree of targets make considered, and renders it with Graphviz.

With no trace file, the trace is read from standard input:

  make -d all | makegraph

By default make.dot and make.png are written to the current directory.`
	root.Version = buildinfo.Version
	root.SilenceUsage = true
	root.SilenceErrors = true
	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		cmd.SetContext(withLogger(cmd.Context(), c.Logger))
		installHooks()
		c.Logger.Debug("starting", "version", buildinfo.Version, "commit", buildinfo.Commit)
		return c.loadConfig()
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return errors.Usage("%v", err)
	})
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default ./.makegraph.toml or ~/.config/makegraph/config.toml)")

	root.AddCommand(c.treeCommand())
	root.AddCommand(c.staleCommand())
	root.AddCommand(c.whyCommand())
	root.AddCommand(c.exportCommand())
	root.AddCommand(c.browseCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

func (c *CLI) loadConfig() error {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	if cfg.Path != "" {
		c.Logger.Debug("loaded config", "path", cfg.Path)
	}
	c.config = cfg
	return nil
}

// cfg returns the loaded config, or defaults before loading.
func (c *CLI) cfg() *config.Config {
	if c.config == nil {
		return config.Default()
	}
	return c.config
}

// =============================================================================
// Arguments
// =============================================================================

// maxTraceArgs accepts zero or one trace file after n leading arguments.
func maxTraceArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) < n {
			return errors.Usage("%s requires %d argument(s), received %d", cmd.CommandPath(), n, len(args))
		}
		if len(args) > n+1 {
			return errors.Usage("%s accepts at most one trace file, received %d arguments: %s",
				cmd.CommandPath(), len(args)-n, strings.Join(args[n:], " "))
		}
		return nil
	}
}

// usageArgs reports failures of a cobra validator as usage errors.
func usageArgs(validate cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := validate(cmd, args); err != nil {
			return errors.Usage("%v", err)
		}
		return nil
	}
}

// traceSource returns the trace file argument, or stdin when absent.
func traceSource(args []string, n int) string {
	if len(args) > n {
		return args[n]
	}
	return pipeline.StdinSource
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner for CLI use.
func (c *CLI) newRunner(noCache bool) (*pipeline.Runner, error) {
	ch, err := newCache(noCache)
	if err != nil {
		return nil, err
	}
	return pipeline.NewRunner(ch, c.Logger), nil
}

func newCache(noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	dir, err := cache.Dir()
	if err != nil {
		return cache.NewNullCache(), nil
	}
	return cache.NewFileCache(dir)
}
