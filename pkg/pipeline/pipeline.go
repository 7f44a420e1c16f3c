// Package pipeline runs the trace → graph → artifact pipeline for makegraph.
//
// The pipeline consists of three stages:
//
//  1. Parse: Read a make debug trace and rebuild the target tree
//  2. Export: Flatten the tree into a name-keyed edge set
//  3. Render: Generate DOT source and the requested artifacts (DOT, SVG, PNG, JSON)
//
// Rendered SVG and PNG artifacts are cached by the hash of their DOT source,
// so re-running on an unchanged trace skips Graphviz entirely.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, logger)
//	result, err := runner.Execute(ctx, pipeline.Options{
//	    Source:  "make.trace",
//	    Formats: []string{"dot", "png"},
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	png := result.Artifacts["png"]
package pipeline

import (
	"io"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/makegraph/pkg/errors"
	"github.com/matzehuels/makegraph/pkg/export"
	"github.com/matzehuels/makegraph/pkg/render/dot"
	"github.com/matzehuels/makegraph/pkg/trace"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and Config
// =============================================================================

const (
	// DefaultOutput is the base name artifacts are written under.
	DefaultOutput = "make"

	// DefaultArtifactTTL bounds how long rendered artifacts stay cached.
	DefaultArtifactTTL = 7 * 24 * time.Hour

	// StdinSource names standard input as the trace source.
	StdinSource = "-"
)

// Format constants for output formats.
const (
	FormatDOT  = dot.FormatDOT
	FormatSVG  = dot.FormatSVG
	FormatPNG  = dot.FormatPNG
	FormatJSON = "json"
)

// DefaultFormats are written when no format is requested.
var DefaultFormats = []string{FormatDOT, FormatPNG}

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatDOT:  true,
	FormatSVG:  true,
	FormatPNG:  true,
	FormatJSON: true,
}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for one pipeline run.
type Options struct {
	// Source is the trace file path. Empty or "-" reads Input.
	Source string
	Input  io.Reader

	// MaxLineBytes caps a single trace line; see trace.DefaultMaxLineBytes.
	MaxLineBytes int

	// Export options
	OmitRoot bool

	// Render options
	Formats     []string
	RankDir     string
	StaleColor  string
	Detailed    bool
	ShowOrphans bool

	// Refresh bypasses cached artifacts and re-renders.
	Refresh bool

	// Logger overrides the runner's logger for this run.
	Logger *log.Logger

	validated bool
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// RunID identifies this run in logs and exported metadata.
	RunID string

	// Trace is the parse result, including the target registry.
	Trace *trace.Result

	// Graph is the exported edge set.
	Graph *export.Graph

	// DOT is the generated Graphviz source.
	DOT string

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	Stats     Stats
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	Lines      int
	Directives int
	Targets    int
	Edges      int
	Stale      int
	Skipped    int
	Unclosed   int
	ParseTime  time.Duration
	ExportTime time.Duration
	RenderTime time.Duration
}

// CacheInfo tracks artifact cache hits.
type CacheInfo struct {
	Hits      int  // Number of artifacts served from cache
	RenderHit bool // Whether every cacheable artifact came from cache
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errors.Usage("invalid format: %q (must be one of: dot, svg, png, json)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// ValidateRankDir checks that a Graphviz rank direction is valid. Empty
// selects the default.
func ValidateRankDir(rankDir string) error {
	if rankDir == "" || slices.Contains(dot.RankDirs, rankDir) {
		return nil
	}
	return errors.Usage("invalid rankdir: %q (must be one of: %s)", rankDir, strings.Join(dot.RankDirs, ", "))
}

// ParseFormats splits a comma-separated format list, trimming blanks.
func ParseFormats(s string) []string {
	var out []string
	for _, f := range strings.Split(s, ",") {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks options and applies defaults. It is
// idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if o.usesInput() && o.Input == nil {
		return errors.Usage("no trace source: pass a file or pipe a trace on stdin")
	}
	if len(o.Formats) == 0 {
		o.Formats = slices.Clone(DefaultFormats)
	}
	o.Formats = dedupe(o.Formats)
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	if err := ValidateRankDir(o.RankDir); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// SourceName returns a display name for the trace source.
func (o *Options) SourceName() string {
	if o.usesInput() {
		return "<stdin>"
	}
	return o.Source
}

func (o *Options) usesInput() bool {
	return o.Source == "" || o.Source == StdinSource
}

// TraceOptions returns the parser options for this run.
func (o *Options) TraceOptions() trace.Options {
	return trace.Options{Logger: o.Logger, MaxLineBytes: o.MaxLineBytes}
}

// ExportOptions returns the exporter options for this run.
func (o *Options) ExportOptions() export.Options {
	return export.Options{OmitRoot: o.OmitRoot}
}

// DOTOptions returns the renderer options for this run.
func (o *Options) DOTOptions() dot.Options {
	return dot.Options{
		RankDir:     o.RankDir,
		StaleColor:  o.StaleColor,
		Detailed:    o.Detailed,
		ShowOrphans: o.ShowOrphans,
	}
}

func dedupe(formats []string) []string {
	seen := make(map[string]bool, len(formats))
	out := formats[:0:0]
	for _, f := range formats {
		if !seen[f] {
			seen[f] = true
			out = append(out, f)
		}
	}
	return out
}
