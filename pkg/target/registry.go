package target

import "slices"

// Registry owns every [Target] discovered during one parse.
//
// Targets are interned by name: [Registry.GetOrCreate] returns the same
// pointer for the same name for the registry's whole lifetime, and no
// removal operation exists. A Registry is not safe for concurrent use; the
// parser is its only writer.
type Registry struct {
	root    *Target
	byName  map[string]*Target
	ordered []*Target // sorted by name
	nextID  int
}

// New creates a registry holding only the [RootName] sentinel, which always
// receives ID 1.
func New() *Registry {
	r := &Registry{byName: make(map[string]*Target)}
	r.root = r.GetOrCreate(RootName)
	return r
}

// Root returns the sentinel target.
func (r *Registry) Root() *Target { return r.root }

// GetOrCreate returns the target with the given name, creating it with a
// fresh ID if it does not exist yet.
func (r *Registry) GetOrCreate(name string) *Target {
	if t, ok := r.byName[name]; ok {
		return t
	}
	r.nextID++
	t := &Target{id: r.nextID, name: name}
	r.byName[name] = t

	i, _ := slices.BinarySearchFunc(r.ordered, name, compareName)
	r.ordered = slices.Insert(r.ordered, i, t)
	return t
}

// Lookup returns the target with the given name without creating it.
func (r *Registry) Lookup(name string) (*Target, bool) {
	t, ok := r.byName[name]
	return t, ok
}

// AddChild records child as a prerequisite of parent. Adding the same child
// twice is a no-op. Only parent is mutated; it reports whether an edge was added.
func (r *Registry) AddChild(parent, child *Target) bool {
	return parent.insertChild(child)
}

// Targets returns every target, including the root, in name order.
// The returned slice is a copy; the targets themselves are shared.
func (r *Registry) Targets() []*Target { return slices.Clone(r.ordered) }

// Len returns the number of targets, including the root.
func (r *Registry) Len() int { return len(r.ordered) }

// EdgeCount returns the number of parent/child links across all targets.
func (r *Registry) EdgeCount() int {
	n := 0
	for _, t := range r.ordered {
		n += len(t.children)
	}
	return n
}

// Stale returns the targets flagged must-remake, in name order.
func (r *Registry) Stale() []*Target {
	var out []*Target
	for _, t := range r.ordered {
		if t.mustRemake {
			out = append(out, t)
		}
	}
	return out
}
