package trace

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/makegraph/pkg/errors"
	"github.com/matzehuels/makegraph/pkg/target"
)

func quietOpts() Options {
	return Options{Logger: log.New(io.Discard)}
}

func parseString(t *testing.T, s string) (*Result, error) {
	t.Helper()
	return Parse(context.Background(), strings.NewReader(s), quietOpts())
}

func mustParse(t *testing.T, s string) *Result {
	t.Helper()
	res, err := parseString(t, s)
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	return res
}

// childMap flattens the registry into parent -> sorted child names.
func childMap(reg *target.Registry) map[string][]string {
	m := map[string][]string{}
	for _, tg := range reg.Targets() {
		for _, c := range tg.Children() {
			m[tg.Name()] = append(m[tg.Name()], c.Name())
		}
	}
	return m
}

func staleNames(reg *target.Registry) []string {
	var out []string
	for _, tg := range reg.Stale() {
		out = append(out, tg.Name())
	}
	return out
}

func TestParseNestedTargets(t *testing.T) {
	res := mustParse(t, `Considering target file 'foo'.
 Considering target file 'bar'.
 Finished prerequisites of target file 'bar'.
Finished prerequisites of target file 'foo'.
`)

	want := map[string][]string{
		target.RootName: {"foo"},
		"foo":           {"bar"},
	}
	if diff := cmp.Diff(want, childMap(res.Registry)); diff != "" {
		t.Errorf("tree mismatch (-want +got):\n%s", diff)
	}
	if got := staleNames(res.Registry); len(got) != 0 {
		t.Errorf("stale = %v, want none", got)
	}
	if len(res.Unclosed) != 0 {
		t.Errorf("Unclosed = %v, want none", res.Unclosed)
	}
}

func TestParseBareMustRemake(t *testing.T) {
	res := mustParse(t, "Must remake target 'foo'.\n")

	foo, ok := res.Registry.Lookup("foo")
	if !ok {
		t.Fatal("foo not created")
	}
	if !foo.MustRemake() {
		t.Error("foo.MustRemake() = false")
	}
	if res.Registry.Root().ChildCount() != 0 {
		t.Error("bare Must remake should not attach foo to the root")
	}
}

func TestParsePruningAddsLeaf(t *testing.T) {
	res := mustParse(t, `Considering target file 'foo'.
 Pruning file 'x'.
 Finished prerequisites of target file 'foo'.
`)

	foo, _ := res.Registry.Lookup("foo")
	if !foo.HasChild("x") {
		t.Fatal("x is not a child of foo")
	}
	x, _ := res.Registry.Lookup("x")
	if x.MustRemake() {
		t.Error("x.MustRemake() = true")
	}
	if x.ChildCount() != 0 {
		t.Error("pruned file should be a leaf")
	}
}

func TestParseMismatchedTerminator(t *testing.T) {
	_, err := parseString(t, `Considering target file 'foo'.
 Considering target file 'bar'.
 Finished prerequisites of target file 'foo'.
`)
	if err == nil {
		t.Fatal("Parse() should fail on a mismatched terminator")
	}
	if !errors.Is(err, errors.ErrCodeMismatchedRegion) {
		t.Errorf("error code = %v, want %v", errors.GetCode(err), errors.ErrCodeMismatchedRegion)
	}
	if !strings.Contains(err.Error(), "line 3") {
		t.Errorf("error should name the line: %v", err)
	}
}

func TestParseTopLevelTerminatorWithoutRegion(t *testing.T) {
	_, err := parseString(t, "Finished prerequisites of target file 'x'.\n")
	if !errors.Is(err, errors.ErrCodeMismatchedRegion) {
		t.Errorf("Parse() error = %v, want MISMATCHED_REGION", err)
	}
}

func TestParseBadDelimiters(t *testing.T) {
	_, err := parseString(t, "noise\nPruning file foo.\n")
	if !errors.Is(err, errors.ErrCodeInvalidTrace) {
		t.Fatalf("Parse() error = %v, want INVALID_TRACE", err)
	}
	if !strings.Contains(err.Error(), "line 2") {
		t.Errorf("error should name the line: %v", err)
	}
}

func TestParseRealisticTrace(t *testing.T) {
	res := mustParse(t, `GNU Make 4.3
Reading makefiles...
Updating goal targets....
Considering target file 'all'.
 File 'all' does not exist.
 Considering target file 'app'.
  File 'app' does not exist.
  Considering target file 'main.o'.
   Pruning file 'main.c'.
   Considering target file 'common.h'.
    Looking for an implicit rule for 'common.h'.
    No implicit rule found for 'common.h'.
    Finished prerequisites of target file 'common.h'.
   No need to remake target 'common.h'.
  Finished prerequisites of target file 'main.o'.
  Must remake target 'main.o'.
  Considering target file 'util.o'.
   Considering target file 'common.h'.
    File 'common.h' was considered already.
  Finished prerequisites of target file 'util.o'.
  No need to remake target 'util.o'.
 Finished prerequisites of target file 'app'.
 Must remake target 'app'.
Finished prerequisites of target file 'all'.
Must remake target 'all'.
`)

	want := map[string][]string{
		target.RootName: {"all"},
		"all":           {"app"},
		"app":           {"main.o", "util.o"},
		"main.o":        {"common.h", "main.c"},
		"util.o":        {"common.h"},
	}
	if diff := cmp.Diff(want, childMap(res.Registry)); diff != "" {
		t.Errorf("tree mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"all", "app", "main.o"}, staleNames(res.Registry)); diff != "" {
		t.Errorf("stale mismatch (-want +got):\n%s", diff)
	}

	// root, all, app, main.o, main.c, common.h, util.o
	if res.Registry.Len() != 7 {
		t.Errorf("Len() = %d, want 7", res.Registry.Len())
	}
	if res.Directives != 16 {
		t.Errorf("Directives = %d, want 16", res.Directives)
	}
}

func TestParseSkipsOverIndentedConsidering(t *testing.T) {
	var logs bytes.Buffer
	res, err := Parse(context.Background(), strings.NewReader(`Considering target file 'foo'.
   Considering target file 'deep'.
Finished prerequisites of target file 'foo'.
`), Options{Logger: log.New(&logs)})
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}

	want := []SkippedLine{{Line: 2, Target: "deep", Level: 3, Region: "foo", RegionLevel: 0}}
	if diff := cmp.Diff(want, res.Skipped); diff != "" {
		t.Errorf("Skipped mismatch (-want +got):\n%s", diff)
	}

	foo, _ := res.Registry.Lookup("foo")
	if foo.ChildCount() != 0 {
		t.Error("over-indented target must not be attached")
	}
	if _, ok := res.Registry.Lookup("deep"); !ok {
		t.Error("over-indented target should still be registered")
	}
	if !strings.Contains(logs.String(), "over-indented") {
		t.Errorf("expected a warning, got %q", logs.String())
	}
}

func TestParseIgnoresDeepTerminator(t *testing.T) {
	res := mustParse(t, `Considering target file 'foo'.
    Finished prerequisites of target file 'other'.
    File 'other' was considered already.
Finished prerequisites of target file 'foo'.
`)
	if _, ok := res.Registry.Lookup("other"); ok {
		t.Error("ignored terminator must not create targets")
	}
}

func TestParseConsideredAlreadyClosesRegion(t *testing.T) {
	res := mustParse(t, `Considering target file 'a'.
 Considering target file 'x'.
  File 'x' was considered already.
 Considering target file 'b'.
 Finished prerequisites of target file 'b'.
Finished prerequisites of target file 'a'.
`)
	want := map[string][]string{
		target.RootName: {"a"},
		"a":             {"b", "x"},
	}
	if diff := cmp.Diff(want, childMap(res.Registry)); diff != "" {
		t.Errorf("tree mismatch (-want +got):\n%s", diff)
	}
}

func TestParseRootCloseStopsReading(t *testing.T) {
	res := mustParse(t, `Considering target file 'a'.
Finished prerequisites of target file 'a'.
Finished prerequisites of target file '<ROOT>'.
Considering target file 'b'.
`)
	if res.Lines != 3 {
		t.Errorf("Lines = %d, want 3", res.Lines)
	}
	if _, ok := res.Registry.Lookup("b"); ok {
		t.Error("lines after the root terminator must not be read")
	}
}

func TestParseUnclosedRegionsAtEOF(t *testing.T) {
	res := mustParse(t, "Considering target file 'a'.\n Considering target file 'b'.\n")

	if diff := cmp.Diff([]string{"a", "b"}, res.Unclosed); diff != "" {
		t.Errorf("Unclosed mismatch (-want +got):\n%s", diff)
	}
	a, _ := res.Registry.Lookup("a")
	if !a.HasChild("b") {
		t.Error("b should still be attached to a")
	}
}

func TestParseEmptyInput(t *testing.T) {
	res := mustParse(t, "")
	if res.Registry.Len() != 1 {
		t.Errorf("Len() = %d, want only the root", res.Registry.Len())
	}
	if res.Lines != 0 {
		t.Errorf("Lines = %d, want 0", res.Lines)
	}
}

func TestParseBacktickQuotes(t *testing.T) {
	res := mustParse(t, "Considering target file `foo'.\n Pruning file `bar'.\nFinished prerequisites of target file `foo'.\n")
	foo, ok := res.Registry.Lookup("foo")
	if !ok || !foo.HasChild("bar") {
		t.Errorf("backtick-quoted names not parsed: %v", childMap(res.Registry))
	}
}

func TestParseCRLF(t *testing.T) {
	res := mustParse(t, "Considering target file 'foo'.\r\n Pruning file 'bar'.\r\nFinished prerequisites of target file 'foo'.\r\n")
	foo, _ := res.Registry.Lookup("foo")
	if !foo.HasChild("bar") {
		t.Error("CRLF line endings should be tolerated")
	}
}

func TestParseDeepNesting(t *testing.T) {
	const depth = 2000
	var b strings.Builder
	for i := 0; i < depth; i++ {
		fmt.Fprintf(&b, "%sConsidering target file 't%d'.\n", strings.Repeat(" ", i), i)
	}
	for i := depth - 1; i >= 0; i-- {
		fmt.Fprintf(&b, "%sFinished prerequisites of target file 't%d'.\n", strings.Repeat(" ", i), i)
	}

	res := mustParse(t, b.String())
	cur := res.Registry.Root()
	for i := 0; i < depth; i++ {
		kids := cur.Children()
		if len(kids) != 1 {
			t.Fatalf("depth %d: %d children, want 1", i, len(kids))
		}
		cur = kids[0]
	}
	if len(res.Unclosed) != 0 {
		t.Errorf("Unclosed = %d regions, want 0", len(res.Unclosed))
	}
}

func TestParseCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	input := strings.Repeat("Reading makefiles...\n", cancelCheckInterval+10)
	_, err := Parse(ctx, strings.NewReader(input), quietOpts())
	if err != context.Canceled {
		t.Errorf("Parse() error = %v, want context.Canceled", err)
	}
}

func TestParseLineTooLong(t *testing.T) {
	opts := quietOpts()
	opts.MaxLineBytes = 32
	_, err := Parse(context.Background(), strings.NewReader(strings.Repeat("x", 100)+"\n"), opts)
	if !errors.Is(err, errors.ErrCodeInvalidTrace) {
		t.Errorf("Parse() error = %v, want INVALID_TRACE", err)
	}
}

func TestParseFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "make.trace")
	if err := os.WriteFile(path, []byte("Must remake target 'x'.\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	res, err := ParseFile(context.Background(), path, quietOpts())
	if err != nil {
		t.Fatalf("ParseFile() error: %v", err)
	}
	if _, ok := res.Registry.Lookup("x"); !ok {
		t.Error("x not parsed from file")
	}

	_, err = ParseFile(context.Background(), filepath.Join(dir, "missing"), quietOpts())
	if !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("ParseFile(missing) error = %v, want FILE_NOT_FOUND", err)
	}
}

// genNode is a randomly generated prerequisite tree used for round trips.
type genNode struct {
	name     string
	children []*genNode
	pruned   []string
}

func genTree(rng *rand.Rand, prefix string, depth int) *genNode {
	n := &genNode{name: prefix}
	if depth == 0 {
		return n
	}
	for i := 0; i < rng.Intn(4); i++ {
		n.children = append(n.children, genTree(rng, fmt.Sprintf("%s.%d", prefix, i), depth-1))
	}
	for i := 0; i < rng.Intn(3); i++ {
		n.pruned = append(n.pruned, fmt.Sprintf("%s.p%d", prefix, i))
	}
	return n
}

func (n *genNode) emit(b *strings.Builder, depth int) {
	pad := strings.Repeat(" ", depth)
	inner := strings.Repeat(" ", depth+1)
	fmt.Fprintf(b, "%sConsidering target file '%s'.\n", pad, n.name)
	fmt.Fprintf(b, "%sFile '%s' does not exist.\n", inner, n.name)
	for _, c := range n.children {
		c.emit(b, depth+1)
	}
	for _, p := range n.pruned {
		fmt.Fprintf(b, "%sPruning file '%s'.\n", inner, p)
	}
	fmt.Fprintf(b, "%sFinished prerequisites of target file '%s'.\n", inner, n.name)
}

func (n *genNode) expect(m map[string][]string) {
	for _, c := range n.children {
		m[n.name] = append(m[n.name], c.name)
		c.expect(m)
	}
	m[n.name] = append(m[n.name], n.pruned...)
	if len(m[n.name]) == 0 {
		delete(m, n.name)
	} else {
		sort.Strings(m[n.name])
	}
}

func TestParseRoundTripsNesting(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 25; i++ {
		roots := []*genNode{genTree(rng, fmt.Sprintf("r%d", i), 4), genTree(rng, fmt.Sprintf("s%d", i), 3)}

		var b strings.Builder
		want := map[string][]string{}
		for _, r := range roots {
			r.emit(&b, 0)
			want[target.RootName] = append(want[target.RootName], r.name)
			r.expect(want)
		}
		sort.Strings(want[target.RootName])

		res := mustParse(t, b.String())
		if diff := cmp.Diff(want, childMap(res.Registry)); diff != "" {
			t.Fatalf("round %d: tree mismatch (-want +got):\n%s", i, diff)
		}
	}
}
