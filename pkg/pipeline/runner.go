package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/makegraph/pkg/cache"
	"github.com/matzehuels/makegraph/pkg/export"
	"github.com/matzehuels/makegraph/pkg/observability"
	"github.com/matzehuels/makegraph/pkg/render/dot"
	"github.com/matzehuels/makegraph/pkg/trace"
)

// Runner encapsulates pipeline execution with caching.
//
// The Runner is stateless except for the cache and logger; it doesn't
// store pipeline results. Multiple goroutines can safely use the same
// Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and logger.
// If cache is nil, a NullCache is used (caching disabled).
// If logger is nil, log.Default() is used.
func NewRunner(c cache.Cache, logger *log.Logger) *Runner {
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{Cache: c, Logger: logger}
}

// Execute runs the complete parse → export → render pipeline.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	r.applyLogger(&opts)

	result := &Result{RunID: uuid.NewString()}
	opts.Logger = opts.Logger.With("run", result.RunID[:8])
	logger := opts.Logger

	// Stage 1: Parse
	parseStart := time.Now()
	observability.Pipeline().OnParseStart(ctx, opts.SourceName())
	tr, err := r.Parse(ctx, opts)
	if err != nil {
		observability.Pipeline().OnParseComplete(ctx, opts.SourceName(), 0, time.Since(parseStart), err)
		return nil, err
	}
	observability.Pipeline().OnParseComplete(ctx, opts.SourceName(), tr.Registry.Len(), time.Since(parseStart), nil)
	result.Trace = tr
	result.Stats.ParseTime = time.Since(parseStart)
	result.Stats.Lines = tr.Lines
	result.Stats.Directives = tr.Directives
	result.Stats.Targets = tr.Registry.Len()
	result.Stats.Skipped = len(tr.Skipped)
	result.Stats.Unclosed = len(tr.Unclosed)

	logger.Info("parsed trace",
		"source", opts.SourceName(),
		"lines", tr.Lines,
		"targets", tr.Registry.Len(),
		"duration", result.Stats.ParseTime)
	if len(tr.Unclosed) > 0 {
		logger.Warn("trace ended with open regions", "unclosed", tr.Unclosed)
	}

	// Stage 2: Export
	exportStart := time.Now()
	g := export.FromRegistry(tr.Registry, opts.ExportOptions())
	g.Meta = map[string]string{
		"source": opts.SourceName(),
		"run_id": result.RunID,
	}
	result.Graph = g
	result.Stats.ExportTime = time.Since(exportStart)
	result.Stats.Edges = g.EdgeCount()
	result.Stats.Stale = len(g.Stale())

	logger.Debug("exported graph",
		"nodes", g.NodeCount(),
		"edges", g.EdgeCount(),
		"stale", result.Stats.Stale)

	// Stage 3: Render
	renderStart := time.Now()
	observability.Pipeline().OnRenderStart(ctx, opts.Formats)
	result.DOT = dot.ToDOT(g, opts.DOTOptions())
	artifacts, info, err := r.RenderWithCacheInfo(ctx, result.DOT, g, opts)
	observability.Pipeline().OnRenderComplete(ctx, opts.Formats, time.Since(renderStart), err)
	if err != nil {
		return nil, err
	}
	result.Artifacts = artifacts
	result.CacheInfo = info
	result.Stats.RenderTime = time.Since(renderStart)

	logger.Info("rendered outputs",
		"formats", opts.Formats,
		"cached", info.Hits,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// Parse runs only the parse stage.
func (r *Runner) Parse(ctx context.Context, opts Options) (*trace.Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	r.applyLogger(&opts)

	if opts.usesInput() {
		return trace.Parse(ctx, opts.Input, opts.TraceOptions())
	}
	return trace.ParseFile(ctx, opts.Source, opts.TraceOptions())
}

// RenderWithCacheInfo produces every requested format from DOT source.
// Graphviz outputs are looked up in and stored to the cache; DOT and JSON
// are produced directly.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, src string, g *export.Graph, opts Options) (map[string][]byte, CacheInfo, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, CacheInfo{}, err
	}
	r.applyLogger(&opts)

	var info CacheInfo
	cacheable := 0
	artifacts := make(map[string][]byte, len(opts.Formats))

	for _, format := range opts.Formats {
		switch format {
		case FormatJSON:
			var buf bytes.Buffer
			if err := export.WriteJSON(g, &buf); err != nil {
				return nil, CacheInfo{}, err
			}
			artifacts[format] = buf.Bytes()
			continue
		case FormatDOT:
			artifacts[format] = []byte(src)
			continue
		}

		cacheable++
		key := cache.ArtifactKey(src, format)
		if !opts.Refresh {
			if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
				observability.Cache().OnCacheHit(ctx, format)
				artifacts[format] = data
				info.Hits++
				continue
			} else if err != nil {
				opts.Logger.Debug("cache read failed", "format", format, "err", err)
			}
			observability.Cache().OnCacheMiss(ctx, format)
		}

		data, err := dot.Render(ctx, src, format)
		if err != nil {
			return nil, CacheInfo{}, err
		}
		artifacts[format] = data
		if err := r.Cache.Set(ctx, key, data, DefaultArtifactTTL); err != nil {
			opts.Logger.Debug("cache write failed", "format", format, "err", err)
			continue
		}
		observability.Cache().OnCacheSet(ctx, format, len(data))
	}

	info.RenderHit = cacheable > 0 && info.Hits == cacheable
	return artifacts, info, nil
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}

// String summarizes the stats on one line.
func (s Stats) String() string {
	return fmt.Sprintf("%d targets, %d edges, %d stale, %d skipped", s.Targets, s.Edges, s.Stale, s.Skipped)
}
