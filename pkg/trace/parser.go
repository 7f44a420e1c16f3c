package trace

import (
	"bufio"
	"context"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/makegraph/pkg/errors"
	"github.com/matzehuels/makegraph/pkg/target"
)

const (
	// DefaultMaxLineBytes bounds a single trace line. make rarely prints
	// anything close to this, but generated targets can have long names.
	DefaultMaxLineBytes = 4 << 20

	// cancelCheckInterval is how many lines are read between context checks.
	cancelCheckInterval = 4096
)

// Options configures a parse.
type Options struct {
	// Logger receives warnings about lines the grammar drops. Defaults to
	// log.Default().
	Logger *log.Logger

	// MaxLineBytes overrides DefaultMaxLineBytes when positive.
	MaxLineBytes int
}

// SkippedLine describes a Considering line that was consumed without
// attaching its target, because it was indented deeper than the open region
// allows.
type SkippedLine struct {
	Line        int    // 1-based line number
	Target      string // name on the skipped line
	Level       int    // indentation of the skipped line
	Region      string // target whose region was open
	RegionLevel int    // indentation the open region was opened at
}

// Result is a successfully parsed trace.
type Result struct {
	// Registry holds every target the trace referenced.
	Registry *target.Registry

	// Lines is the number of lines read. Reading stops early if the root
	// region is explicitly closed.
	Lines int

	// Directives counts lines that matched a directive.
	Directives int

	// Skipped lists over-indented Considering lines in input order.
	Skipped []SkippedLine

	// Unclosed lists targets whose regions were still open at end of input,
	// outermost first. The root is never included.
	Unclosed []string
}

// frame is one open region: the target being explored and the indentation
// level of the line that opened it.
type frame struct {
	target *target.Target
	level  int
}

type parser struct {
	reg    *target.Registry
	stack  []frame
	res    *Result
	logger *log.Logger
}

// Parse reads a make debug trace from r and rebuilds the target tree.
//
// Regions are tracked with an explicit stack instead of recursion, so
// arbitrarily deep traces only cost heap memory. Any malformed name or
// mismatched region terminator aborts the parse; no partial result is
// returned. The context is checked periodically so a huge trace can be
// cancelled.
func Parse(ctx context.Context, r io.Reader, opts Options) (*Result, error) {
	p := newParser(opts)

	maxLine := opts.MaxLineBytes
	if maxLine <= 0 {
		maxLine = DefaultMaxLineBytes
	}
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, min(64*1024, maxLine)), maxLine)

	for sc.Scan() {
		p.res.Lines++
		if p.res.Lines%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		done, err := p.step(p.res.Lines, sc.Text())
		if err != nil {
			return nil, err
		}
		if done {
			return p.finish(), nil
		}
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidTrace, err, "read line %d", p.res.Lines+1)
	}
	return p.finish(), nil
}

// ParseFile opens path and parses it with [Parse].
func ParseFile(ctx context.Context, path string, opts Options) (*Result, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "open trace %s", path)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "open trace %s", path)
	}
	defer f.Close()
	return Parse(ctx, f, opts)
}

func newParser(opts Options) *parser {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	reg := target.New()
	return &parser{
		reg:    reg,
		stack:  []frame{{target: reg.Root(), level: 0}},
		res:    &Result{Registry: reg},
		logger: logger,
	}
}

// step interprets one line. It reports done once the root region closes.
func (p *parser) step(lineNo int, raw string) (bool, error) {
	text := strings.TrimSpace(raw)
	d := classify(text)
	if d == directiveNone {
		return false, nil
	}

	level := IndentLevel(raw)
	top := p.stack[len(p.stack)-1]
	inRegion := level <= top.level+1

	// Out-of-region terminators are not directives for this region.
	if d == directiveClose && !inRegion {
		return false, nil
	}

	name, err := TargetName(text)
	if err != nil {
		return false, errors.New(errors.ErrCodeInvalidTrace, "line %d: %s", lineNo, errors.UserMessage(err))
	}
	p.res.Directives++

	switch d {
	case directiveConsider:
		t := p.reg.GetOrCreate(name)
		if !inRegion {
			p.skip(lineNo, name, level, top)
			return false, nil
		}
		p.reg.AddChild(top.target, t)
		p.stack = append(p.stack, frame{target: t, level: level})

	case directiveRemake:
		p.reg.GetOrCreate(name).MarkRemake()

	case directivePrune:
		p.reg.AddChild(top.target, p.reg.GetOrCreate(name))

	case directiveClose:
		if name != top.target.Name() {
			return false, errors.New(errors.ErrCodeMismatchedRegion,
				"line %d: expected end of %q, got %q", lineNo, top.target.Name(), text)
		}
		p.stack = p.stack[:len(p.stack)-1]
		if len(p.stack) == 0 {
			return true, nil
		}
	}
	return false, nil
}

func (p *parser) skip(lineNo int, name string, level int, top frame) {
	p.res.Skipped = append(p.res.Skipped, SkippedLine{
		Line:        lineNo,
		Target:      name,
		Level:       level,
		Region:      top.target.Name(),
		RegionLevel: top.level,
	})
	p.logger.Warn("ignoring over-indented Considering line",
		"line", lineNo,
		"target", name,
		"level", level,
		"region", top.target.Name())
}

func (p *parser) finish() *Result {
	if len(p.stack) > 1 {
		for _, f := range p.stack[1:] {
			p.res.Unclosed = append(p.res.Unclosed, f.target.Name())
		}
		p.logger.Debug("trace ended with open regions", "count", len(p.res.Unclosed))
	}
	return p.res
}
