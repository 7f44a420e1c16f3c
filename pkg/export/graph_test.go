package export

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/makegraph/pkg/errors"
	"github.com/matzehuels/makegraph/pkg/target"
)

// diamond builds <ROOT> -> a -> {b, c} -> d.
func diamond() *target.Registry {
	r := target.New()
	a, b, c, d := r.GetOrCreate("a"), r.GetOrCreate("b"), r.GetOrCreate("c"), r.GetOrCreate("d")
	r.AddChild(r.Root(), a)
	r.AddChild(a, b)
	r.AddChild(a, c)
	r.AddChild(b, d)
	r.AddChild(c, d)
	return r
}

func TestFromRegistryDiamond(t *testing.T) {
	g := FromRegistry(diamond(), Options{})

	want := []Edge{
		{target.RootName, "a"},
		{"a", "b"},
		{"a", "c"},
		{"b", "d"},
		{"c", "d"},
	}
	if diff := cmp.Diff(want, g.Edges); diff != "" {
		t.Errorf("edges mismatch (-want +got):\n%s", diff)
	}
	if g.NodeCount() != 5 {
		t.Errorf("NodeCount() = %d, want 5", g.NodeCount())
	}
}

func TestFromRegistryTerminatesOnCycles(t *testing.T) {
	r := target.New()
	a, b := r.GetOrCreate("a"), r.GetOrCreate("b")
	r.AddChild(r.Root(), a)
	r.AddChild(a, a)
	r.AddChild(a, b)
	r.AddChild(b, a)

	g := FromRegistry(r, Options{})

	want := []Edge{
		{target.RootName, "a"},
		{"a", "a"},
		{"a", "b"},
		{"b", "a"},
	}
	if diff := cmp.Diff(want, g.Edges); diff != "" {
		t.Errorf("edges mismatch (-want +got):\n%s", diff)
	}
}

func TestFromRegistryOmitRoot(t *testing.T) {
	g := FromRegistry(diamond(), Options{OmitRoot: true})

	for _, e := range g.Edges {
		if e.From == target.RootName || e.To == target.RootName {
			t.Errorf("root edge exported: %v", e)
		}
	}
	if _, ok := g.Node(target.RootName); ok {
		t.Error("root node exported with OmitRoot")
	}
	a, ok := g.Node("a")
	if !ok || !a.Reachable {
		t.Errorf("a should be reachable: %+v", a)
	}
	if g.EdgeCount() != 4 {
		t.Errorf("EdgeCount() = %d, want 4", g.EdgeCount())
	}
}

func TestFromRegistryFlags(t *testing.T) {
	r := diamond()
	d, _ := r.Lookup("d")
	d.MarkRemake()
	r.GetOrCreate("orphan").MarkRemake()

	g := FromRegistry(r, Options{})

	orphan, ok := g.Node("orphan")
	if !ok {
		t.Fatal("orphan target missing from nodes")
	}
	if orphan.Reachable {
		t.Error("orphan should not be reachable")
	}

	var stale []string
	for _, n := range g.Stale() {
		stale = append(stale, n.Name)
	}
	if diff := cmp.Diff([]string{"d", "orphan"}, stale); diff != "" {
		t.Errorf("stale mismatch (-want +got):\n%s", diff)
	}
}

func TestFromRegistryEmpty(t *testing.T) {
	g := FromRegistry(target.New(), Options{})
	if g.EdgeCount() != 0 {
		t.Errorf("EdgeCount() = %d, want 0", g.EdgeCount())
	}
	root, ok := g.Node(target.RootName)
	if !ok || root.Reachable {
		t.Errorf("lone root: %+v, ok=%v", root, ok)
	}
}

func TestPathTo(t *testing.T) {
	r := diamond()

	path, err := PathTo(r, "d")
	if err != nil {
		t.Fatalf("PathTo() error: %v", err)
	}
	var names []string
	for _, p := range path {
		names = append(names, p.Name())
	}
	if diff := cmp.Diff([]string{target.RootName, "a", "b", "d"}, names); diff != "" {
		t.Errorf("path mismatch (-want +got):\n%s", diff)
	}
}

func TestPathToErrors(t *testing.T) {
	r := diamond()
	r.GetOrCreate("loose")

	if _, err := PathTo(r, "missing"); !errors.Is(err, errors.ErrCodeTargetNotFound) {
		t.Errorf("PathTo(missing) error = %v", err)
	}
	if _, err := PathTo(r, "loose"); !errors.Is(err, errors.ErrCodeTargetNotFound) {
		t.Errorf("PathTo(loose) error = %v", err)
	}
}

func TestParents(t *testing.T) {
	var names []string
	for _, p := range Parents(diamond(), "d") {
		names = append(names, p.Name())
	}
	if diff := cmp.Diff([]string{"b", "c"}, names); diff != "" {
		t.Errorf("parents mismatch (-want +got):\n%s", diff)
	}
}

func TestJSONRoundTrip(t *testing.T) {
	r := diamond()
	b, _ := r.Lookup("b")
	b.MarkRemake()
	g := FromRegistry(r, Options{})
	g.Meta = map[string]string{"source": "make.trace"}

	var buf bytes.Buffer
	if err := WriteJSON(g, &buf); err != nil {
		t.Fatalf("WriteJSON() error: %v", err)
	}
	got, err := ReadJSON(&buf)
	if err != nil {
		t.Fatalf("ReadJSON() error: %v", err)
	}
	if diff := cmp.Diff(g, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestExportImportJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "graph.json")
	g := FromRegistry(diamond(), Options{OmitRoot: true})

	if err := ExportJSON(g, path); err != nil {
		t.Fatalf("ExportJSON() error: %v", err)
	}
	got, err := ImportJSON(path)
	if err != nil {
		t.Fatalf("ImportJSON() error: %v", err)
	}
	if got.EdgeCount() != g.EdgeCount() {
		t.Errorf("EdgeCount() = %d, want %d", got.EdgeCount(), g.EdgeCount())
	}

	if _, err := ImportJSON(filepath.Join(t.TempDir(), "nope.json")); !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("ImportJSON(missing) error = %v", err)
	}
}

func TestReadJSONValidation(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"malformed", `{"nodes": [`},
		{"empty name", `{"nodes": [{"id": 1, "name": ""}], "edges": []}`},
		{"duplicate", `{"nodes": [{"name": "a"}, {"name": "a"}], "edges": []}`},
		{"unknown source", `{"nodes": [{"name": "a"}], "edges": [{"from": "x", "to": "a"}]}`},
		{"unknown target", `{"nodes": [{"name": "a"}], "edges": [{"from": "a", "to": "x"}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadJSON(strings.NewReader(tt.input))
			if !errors.Is(err, errors.ErrCodeInvalidFormat) {
				t.Errorf("ReadJSON() error = %v, want INVALID_FORMAT", err)
			}
		})
	}
}

func TestWriteJSONEmptyGraph(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJSON(&Graph{}, &buf); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), `"edges": []`) {
		t.Errorf("empty edges should encode as []: %s", buf.String())
	}
}
