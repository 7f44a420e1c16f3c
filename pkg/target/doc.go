// Package target holds the build targets reconstructed from a make trace.
//
// # Overview
//
// A [Registry] interns [Target] values by name and hands out monotonically
// increasing IDs. Every registry starts with a sentinel named [RootName];
// targets the build tool considered at the top level hang off it.
//
// # Invariants
//
//   - At most one Target exists per distinct name.
//   - A target's children are kept sorted by name and never contain duplicates.
//   - The must-remake flag only moves from false to true.
//   - Targets are never removed.
//
// Children are kept in an ordered slice searched with binary search, so
// insert-if-absent stays cheap on wide targets without re-sorting.
//
// # Usage
//
//	reg := target.New()
//	app := reg.GetOrCreate("app")
//	reg.AddChild(reg.Root(), app)
//	reg.AddChild(app, reg.GetOrCreate("main.o"))
//	app.MarkRemake()
package target
