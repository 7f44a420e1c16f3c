// Package trace parses the dependency-resolution trace printed by make's
// debug mode (make -d, make --debug=v) into a [target.Registry].
//
// # Grammar
//
// Each line has an indentation level: the number of leading whitespace
// characters. make indents one level per nested prerequisite, so levels
// encode the call stack of its dependency walk. A region is the span of
// lines exploring one target, opened by a Considering line and closed by
// its terminator. Directives, matched on the trimmed line in this order:
//
//	Considering target file 'foo'.            open a region for foo under the current target
//	Must remake target 'foo'.                 mark foo stale
//	Pruning file 'foo'.                       add foo as a leaf of the current target
//	Finished prerequisites of target file 'foo'.
//	File 'foo' was considered already.        close the current region (must name foo)
//
// A Considering line indented more than one level past the open region is
// consumed and reported in [Result.Skipped] instead of being attached.
// Terminators indented that deep are ignored. Every other line is ignored.
//
// Target names are quoted as `name' or 'name'; see [TargetName].
//
// # Errors
//
// A line with unusable quotes fails with INVALID_TRACE and a terminator that
// names a target other than the open region's fails with MISMATCHED_REGION.
// Both abort the parse without a partial result.
//
// [target.Registry]: github.com/matzehuels/makegraph/pkg/target.Registry
package trace
