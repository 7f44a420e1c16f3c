package target

import (
	"slices"
	"strings"
)

// RootName is the name of the sentinel target every registry starts with.
// All top-level targets considered by the build tool become its children.
const RootName = "<ROOT>"

// Target is a build rule or file whose prerequisites were traced.
//
// Targets are created only by a [Registry] and live as long as it does.
// The zero value is not usable.
type Target struct {
	id         int
	name       string
	children   []*Target // sorted by name, no duplicates
	mustRemake bool
}

// ID returns the identifier assigned at creation. IDs increase monotonically
// within a registry and carry identity only; they do not imply ordering.
func (t *Target) ID() int { return t.id }

// Name returns the build-tool-visible target name.
func (t *Target) Name() string { return t.name }

// MustRemake reports whether the trace stated the target must be rebuilt.
func (t *Target) MustRemake() bool { return t.mustRemake }

// MarkRemake flags the target as stale. The flag never transitions back to
// false, so repeated calls are harmless.
func (t *Target) MarkRemake() { t.mustRemake = true }

// IsRoot reports whether t is the registry sentinel.
func (t *Target) IsRoot() bool { return t.name == RootName && t.id == 1 }

// Children returns a copy of the target's children in name order.
func (t *Target) Children() []*Target { return slices.Clone(t.children) }

// ChildCount returns the number of distinct children.
func (t *Target) ChildCount() int { return len(t.children) }

// HasChild reports whether a child with the given name is present.
func (t *Target) HasChild(name string) bool {
	_, found := t.childIndex(name)
	return found
}

func (t *Target) childIndex(name string) (int, bool) {
	return slices.BinarySearchFunc(t.children, name, compareName)
}

// insertChild places child at its sorted position unless a child with the
// same name is already present. It reports whether the slice changed.
func (t *Target) insertChild(child *Target) bool {
	i, found := t.childIndex(child.name)
	if found {
		return false
	}
	t.children = slices.Insert(t.children, i, child)
	return true
}

func (t *Target) String() string { return t.name }

func compareName(t *Target, name string) int {
	return strings.Compare(t.name, name)
}
