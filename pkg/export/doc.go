// Package export turns a parsed target registry into a name-keyed graph.
//
// # Overview
//
// [FromRegistry] walks the target tree from the <ROOT> sentinel and emits
// one (parent, child) [Edge] per prerequisite link, plus a [Node] carrying the
// must-remake flag for every target the trace mentioned. The walk keeps a
// visited set, so diamond dependencies and self-reachable targets are safe.
//
// The resulting [Graph] is the contract with renderers: it only uses target
// names, never registry pointers.
//
// # JSON Format
//
//	{
//	  "nodes": [
//	    {"id": 2, "name": "app", "must_remake": true, "reachable": true},
//	    {"id": 3, "name": "main.o", "reachable": true}
//	  ],
//	  "edges": [
//	    {"from": "app", "to": "main.o"}
//	  ],
//	  "meta": {"source": "make.trace"}
//	}
//
// Use [WriteJSON]/[ExportJSON] to save a graph and [ReadJSON]/[ImportJSON]
// to load one back, for example to re-render without the original trace.
//
// # Queries
//
// [PathTo] returns the shortest chain from the root to a target, which is
// how the CLI explains why a target was considered. [Parents] lists a
// target's direct dependents.
package export
