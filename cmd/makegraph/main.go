package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/matzehuels/makegraph/internal/cli"
	"github.com/matzehuels/makegraph/pkg/errors"
)

// Exit statuses.
const (
	exitFailure     = 1
	exitUsage       = 2
	exitInterrupted = 130 // Standard shell convention for SIGINT
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		os.Exit(exitCode(err))
	}
}

func run(ctx context.Context) error {
	var verbose bool

	c := cli.New(os.Stderr, cli.LogInfo)
	root := c.RootCommand()

	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")

	originalPreRun := root.PersistentPreRunE
	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		level := cli.LogInfo
		if verbose {
			level = cli.LogDebug
		}
		c.SetLogLevel(level)

		if originalPreRun != nil {
			return originalPreRun(cmd, args)
		}
		return nil
	}

	err := root.ExecuteContext(ctx)
	if err != nil && !stderrors.Is(err, context.Canceled) {
		fmt.Fprintln(os.Stderr, "Error: "+errors.UserMessage(err))
		if errors.Is(err, errors.ErrCodeUsage) {
			fmt.Fprintf(os.Stderr, "Run '%s --help' for usage.\n", root.Name())
		}
	}
	return err
}

func exitCode(err error) int {
	switch {
	case stderrors.Is(err, context.Canceled):
		return exitInterrupted
	case errors.Is(err, errors.ErrCodeUsage):
		return exitUsage
	default:
		return exitFailure
	}
}
