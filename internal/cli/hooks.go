package cli

import (
	"context"
	"time"

	"github.com/matzehuels/makegraph/pkg/observability"
)

// logHooks reports pipeline and cache events at debug level through the
// logger attached to the event's context.
type logHooks struct{}

var (
	_ observability.PipelineHooks = logHooks{}
	_ observability.CacheHooks    = logHooks{}
)

// installHooks routes observability events to the command logger.
func installHooks() {
	observability.SetPipelineHooks(logHooks{})
	observability.SetCacheHooks(logHooks{})
}

func (logHooks) OnParseStart(ctx context.Context, source string) {
	loggerFromContext(ctx).Debug("parse started", "source", source)
}

func (logHooks) OnParseComplete(ctx context.Context, source string, targets int, d time.Duration, err error) {
	if err != nil {
		loggerFromContext(ctx).Debug("parse failed", "source", source, "err", err)
		return
	}
	loggerFromContext(ctx).Debug("parse finished", "source", source, "targets", targets, "took", d.Round(time.Microsecond))
}

func (logHooks) OnRenderStart(ctx context.Context, formats []string) {
	loggerFromContext(ctx).Debug("render started", "formats", formats)
}

func (logHooks) OnRenderComplete(ctx context.Context, formats []string, d time.Duration, err error) {
	if err != nil {
		loggerFromContext(ctx).Debug("render failed", "formats", formats, "err", err)
		return
	}
	loggerFromContext(ctx).Debug("render finished", "formats", formats, "took", d.Round(time.Microsecond))
}

func (logHooks) OnCacheHit(ctx context.Context, format string) {
	loggerFromContext(ctx).Debug("cache hit", "format", format)
}

func (logHooks) OnCacheMiss(ctx context.Context, format string) {
	loggerFromContext(ctx).Debug("cache miss", "format", format)
}

func (logHooks) OnCacheSet(ctx context.Context, format string, size int) {
	loggerFromContext(ctx).Debug("cache stored", "format", format, "bytes", size)
}
