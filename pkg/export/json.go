package export

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/matzehuels/makegraph/pkg/errors"
)

// WriteJSON encodes g as indented JSON and writes it to w.
// The output can be re-imported with [ReadJSON].
func WriteJSON(g *Graph, w io.Writer) error {
	out := *g
	if out.Nodes == nil {
		out.Nodes = []Node{}
	}
	if out.Edges == nil {
		out.Edges = []Edge{}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// ExportJSON writes g to a JSON file at path.
// This is a convenience wrapper around [WriteJSON] for file-based output.
func ExportJSON(g *Graph, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return WriteJSON(g, f)
}

// ReadJSON decodes a graph written by [WriteJSON].
//
// ReadJSON returns an INVALID_FORMAT error if the JSON is malformed, a node
// name is empty or repeated, or an edge references an unknown node. Nodes
// are re-sorted by name so lookups work regardless of the producer.
// ReadJSON does not close r.
func ReadJSON(r io.Reader) (*Graph, error) {
	var g Graph
	if err := json.NewDecoder(r).Decode(&g); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode graph")
	}

	slices.SortFunc(g.Nodes, func(a, b Node) int { return strings.Compare(a.Name, b.Name) })
	known := make(map[string]bool, len(g.Nodes))
	for _, n := range g.Nodes {
		if n.Name == "" {
			return nil, errors.New(errors.ErrCodeInvalidFormat, "node %d: empty name", n.ID)
		}
		if known[n.Name] {
			return nil, errors.New(errors.ErrCodeInvalidFormat, "node %s: duplicate name", n.Name)
		}
		known[n.Name] = true
	}
	for _, e := range g.Edges {
		if !known[e.From] {
			return nil, errors.New(errors.ErrCodeInvalidFormat, "edge %s->%s: unknown source node", e.From, e.To)
		}
		if !known[e.To] {
			return nil, errors.New(errors.ErrCodeInvalidFormat, "edge %s->%s: unknown target node", e.From, e.To)
		}
	}
	return &g, nil
}

// ImportJSON reads a JSON graph file at path.
func ImportJSON(path string) (*Graph, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "open graph %s", path)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	g, err := ReadJSON(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return g, nil
}
