package dot

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/makegraph/pkg/errors"
	"github.com/matzehuels/makegraph/pkg/export"
	"github.com/matzehuels/makegraph/pkg/target"
)

// Output formats understood by [Render].
const (
	FormatDOT = "dot"
	FormatSVG = "svg"
	FormatPNG = "png"
)

// Defaults applied by [Options.withDefaults].
const (
	DefaultRankDir    = "TB"
	DefaultStaleColor = "#f4a3a3"
)

// RankDirs lists the Graphviz rank directions accepted in [Options].
var RankDirs = []string{"TB", "LR", "BT", "RL"}

// Options configures DOT generation.
type Options struct {
	// RankDir is the Graphviz rankdir attribute. Defaults to TB.
	RankDir string

	// StaleColor fills targets flagged must-remake.
	StaleColor string

	// Detailed adds target IDs and the remake verdict to labels.
	Detailed bool

	// ShowOrphans draws targets the trace mentioned but no edge reaches.
	ShowOrphans bool
}

func (o Options) withDefaults() Options {
	if o.RankDir == "" {
		o.RankDir = DefaultRankDir
	}
	if o.StaleColor == "" {
		o.StaleColor = DefaultStaleColor
	}
	return o
}

// ToDOT converts an exported graph to Graphviz DOT source.
//
// Every node name is quoted, so target paths with spaces, quotes or
// backslashes survive. Stale targets are filled with opts.StaleColor and
// the <ROOT> sentinel is drawn dashed.
func ToDOT(g *export.Graph, opts Options) string {
	opts = opts.withDefaults()

	var buf bytes.Buffer
	buf.WriteString("digraph make {\n")
	fmt.Fprintf(&buf, "  rankdir=%s;\n", opts.RankDir)
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontname=\"Helvetica\", fontsize=12];\n")
	buf.WriteString("  edge [arrowsize=0.7];\n")
	buf.WriteString("  ranksep=0.4;\n")
	buf.WriteString("  nodesep=0.25;\n")
	buf.WriteString("\n")

	for _, n := range g.Nodes {
		if !n.Reachable && !opts.ShowOrphans {
			continue
		}
		fmt.Fprintf(&buf, "  %s [%s];\n", quote(n.Name), strings.Join(fmtAttrs(n, opts), ", "))
	}

	buf.WriteString("\n")
	for _, e := range g.Edges {
		fmt.Fprintf(&buf, "  %s -> %s;\n", quote(e.From), quote(e.To))
	}

	buf.WriteString("}\n")
	return buf.String()
}

func fmtLabel(n export.Node, detailed bool) string {
	if !detailed {
		return n.Name
	}
	verdict := "up to date"
	if n.MustRemake {
		verdict = "must remake"
	}
	return fmt.Sprintf("%s\n#%d %s", n.Name, n.ID, verdict)
}

func fmtAttrs(n export.Node, opts Options) []string {
	attrs := []string{"label=" + quote(fmtLabel(n, opts.Detailed))}
	switch {
	case n.Name == target.RootName:
		attrs = append(attrs, "style=\"rounded,dashed\"", "fontcolor=grey40")
	case n.MustRemake:
		attrs = append(attrs, "fillcolor="+quote(opts.StaleColor), "penwidth=1.5")
	}
	if !n.Reachable {
		attrs = append(attrs, "color=grey60")
	}
	return attrs
}

// quote renders s as a DOT double-quoted ID.
func quote(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}

// Render renders DOT source in the given format. FormatDOT returns the
// source unchanged.
func Render(ctx context.Context, dot, format string) ([]byte, error) {
	switch format {
	case FormatDOT:
		return []byte(dot), nil
	case FormatSVG:
		return RenderSVG(ctx, dot)
	case FormatPNG:
		return RenderPNG(ctx, dot)
	default:
		return nil, errors.New(errors.ErrCodeInvalidFormat, "unknown render format: %s", format)
	}
}

// RenderSVG lays out and renders DOT source to SVG using Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	out, err := render(ctx, dot, graphviz.SVG)
	if err != nil {
		return nil, err
	}
	return normalizeViewBox(out), nil
}

// RenderPNG lays out and rasterizes DOT source to PNG using Graphviz.
func RenderPNG(ctx context.Context, dot string) ([]byte, error) {
	return render(ctx, dot, graphviz.PNG)
}

func render(ctx context.Context, dot string, format graphviz.Format) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeRender, err, "init graphviz")
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeRender, err, "parse DOT")
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, format, &buf); err != nil {
		return nil, errors.Wrap(errors.ErrCodeRender, err, "render %s", format)
	}
	return buf.Bytes(), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}
