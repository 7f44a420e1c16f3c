// Package dot renders exported make target graphs with Graphviz.
//
// # Usage
//
// Convert a graph to DOT source, then rasterize it:
//
//	src := dot.ToDOT(g, dot.Options{RankDir: "LR"})
//	png, err := dot.RenderPNG(ctx, src)
//
// [Render] dispatches on a format name ("dot", "svg", "png"), which is what
// the pipeline uses.
//
// # Styling
//
// Targets flagged must-remake are filled with [Options].StaleColor so the
// rebuild frontier stands out. The <ROOT> sentinel is drawn dashed. Targets
// that no edge reaches are omitted unless [Options].ShowOrphans is set.
//
// # Dependencies
//
// Layout and rasterization run in-process through
// [github.com/goccy/go-graphviz]; no Graphviz installation is needed.
package dot
