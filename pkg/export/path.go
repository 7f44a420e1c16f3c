package export

import (
	"slices"

	"github.com/matzehuels/makegraph/pkg/errors"
	"github.com/matzehuels/makegraph/pkg/target"
)

// PathTo returns the shortest chain of targets from the root to the named
// target, root first. Ties are broken by name order, so the result is
// deterministic.
//
// The chain answers "why was this target considered": each element is a
// prerequisite of the one before it.
func PathTo(reg *target.Registry, name string) ([]*target.Target, error) {
	dst, ok := reg.Lookup(name)
	if !ok {
		return nil, errors.New(errors.ErrCodeTargetNotFound, "no target named %q in trace", name)
	}

	root := reg.Root()
	prev := map[*target.Target]*target.Target{root: nil}
	queue := []*target.Target{root}
	for len(queue) > 0 && !seen(prev, dst) {
		cur := queue[0]
		queue = queue[1:]
		for _, c := range cur.Children() {
			if _, ok := prev[c]; ok {
				continue
			}
			prev[c] = cur
			queue = append(queue, c)
		}
	}
	if !seen(prev, dst) {
		return nil, errors.New(errors.ErrCodeTargetNotFound, "target %q is not reachable from %s", name, target.RootName)
	}

	var path []*target.Target
	for t := dst; t != nil; t = prev[t] {
		path = append(path, t)
	}
	slices.Reverse(path)
	return path, nil
}

func seen(prev map[*target.Target]*target.Target, t *target.Target) bool {
	_, ok := prev[t]
	return ok
}

// Parents returns the targets that list name as a direct prerequisite, in
// name order.
func Parents(reg *target.Registry, name string) []*target.Target {
	var out []*target.Target
	for _, t := range reg.Targets() {
		if t.HasChild(name) {
			out = append(out, t)
		}
	}
	return out
}
