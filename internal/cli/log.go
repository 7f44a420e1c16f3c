// Package cli implements the makegraph command-line interface.
//
// The root command reads a make debug trace (`make -d` or
// `make --debug=verbose` output), rebuilds the target tree and writes it as
// DOT, SVG, PNG or JSON. Subcommands inspect the same tree in the terminal.
// The CLI is built using cobra and logs through charmbracelet/log.
//
// # Commands
//
//   - makegraph [trace]: Render the target graph (default make.dot and make.png)
//   - tree: Print the nesting of Considering regions
//   - stale: List targets make decided to remake
//   - why: Show how make reached a target
//   - export: Write the edge set as JSON
//   - browse: Walk the tree interactively
//   - cache: Manage the artifact cache
//
// Every command reads standard input when no trace file is given.
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. Loggers are
// passed through context.Context to allow structured progress tracking.
package cli

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// newLogger creates a new logger with timestamp formatting.
// Timestamps are formatted as "HH:MM:SS.ms" (e.g., "14:32:01.45").
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// progress tracks the start time of an operation and logs completion with elapsed duration.
type progress struct {
	logger *log.Logger
	start  time.Time
}

func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs msg along with the elapsed time since progress was created.
// Example output: "Parsed 42 targets (1.234s)"
func (p *progress) done(msg string) {
	p.logger.Infof("%s (%s)", msg, time.Since(p.start).Round(time.Millisecond))
}

type ctxKey int

const loggerKey ctxKey = 0

// withLogger returns a new context with the given logger attached.
func withLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// loggerFromContext retrieves the logger from ctx.
// If no logger is attached, it returns log.Default().
func loggerFromContext(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(loggerKey).(*log.Logger); ok {
		return l
	}
	return log.Default()
}
