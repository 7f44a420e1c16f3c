package export

import (
	"slices"
	"strings"

	"github.com/samber/lo"

	"github.com/matzehuels/makegraph/pkg/target"
)

// Node is one target in an exported graph.
type Node struct {
	ID         int    `json:"id"`
	Name       string `json:"name"`
	MustRemake bool   `json:"must_remake,omitempty"`

	// Reachable is false for targets the trace mentioned (for example in a
	// bare Must remake line) that no edge leads to.
	Reachable bool `json:"reachable"`
}

// Edge is a directed parent -> prerequisite link, keyed by target name.
type Edge struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Graph is the name-keyed node and edge set handed to renderers.
type Graph struct {
	Nodes []Node `json:"nodes"` // sorted by name
	Edges []Edge `json:"edges"` // traversal order

	// Meta carries free-form provenance such as the trace source and run id.
	Meta map[string]string `json:"meta,omitempty"`
}

// Options controls how a registry is exported.
type Options struct {
	// OmitRoot drops the <ROOT> sentinel and its outgoing edges, so
	// top-level goals become sources of the graph.
	OmitRoot bool
}

// FromRegistry walks the target tree from the root and returns its edge
// set together with every target's must-remake flag.
//
// For each target with children it emits one edge per child, then descends
// into each child. A visited set ensures every target is expanded once, so
// diamond dependencies do not duplicate edges and a target reachable from
// itself does not recurse forever. The walk uses an explicit stack.
func FromRegistry(reg *target.Registry, opts Options) *Graph {
	root := reg.Root()
	g := &Graph{}
	reachable := map[string]bool{}

	visited := map[*target.Target]bool{root: true}
	stack := []*target.Target{root}
	for len(stack) > 0 {
		parent := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		kids := parent.Children()
		for _, c := range kids {
			if opts.OmitRoot && parent == root {
				reachable[c.Name()] = true
				continue
			}
			g.Edges = append(g.Edges, Edge{From: parent.Name(), To: c.Name()})
			reachable[parent.Name()] = true
			reachable[c.Name()] = true
		}
		// Push in reverse so children are expanded in name order.
		for i := len(kids) - 1; i >= 0; i-- {
			if c := kids[i]; !visited[c] {
				visited[c] = true
				stack = append(stack, c)
			}
		}
	}

	for _, t := range reg.Targets() {
		if opts.OmitRoot && t == root {
			continue
		}
		g.Nodes = append(g.Nodes, Node{
			ID:         t.ID(),
			Name:       t.Name(),
			MustRemake: t.MustRemake(),
			Reachable:  reachable[t.Name()],
		})
	}
	return g
}

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int { return len(g.Nodes) }

// EdgeCount returns the number of edges.
func (g *Graph) EdgeCount() int { return len(g.Edges) }

// Node returns the node with the given name.
func (g *Graph) Node(name string) (Node, bool) {
	i, ok := slices.BinarySearchFunc(g.Nodes, name, func(n Node, name string) int {
		return strings.Compare(n.Name, name)
	})
	if !ok {
		return Node{}, false
	}
	return g.Nodes[i], true
}

// Stale returns the nodes flagged must-remake.
func (g *Graph) Stale() []Node {
	return lo.Filter(g.Nodes, func(n Node, _ int) bool { return n.MustRemake })
}
