package trace

import (
	"strings"
	"unicode"

	"github.com/matzehuels/makegraph/pkg/errors"
)

// Fixed markers printed by make's debug mode.
const (
	prefixConsidering = "Considering target file "
	prefixMustRemake  = "Must remake target "
	prefixPruning     = "Pruning file "
	prefixFinished    = "Finished prerequisites of target file "
	suffixConsidered  = "was considered already."
)

type directive int

const (
	directiveNone directive = iota
	directiveConsider
	directiveRemake
	directivePrune
	directiveClose
)

// classify returns the directive a trimmed line carries. The order of the
// checks is the precedence order of the grammar.
func classify(text string) directive {
	switch {
	case strings.HasPrefix(text, prefixConsidering):
		return directiveConsider
	case strings.HasPrefix(text, prefixMustRemake):
		return directiveRemake
	case strings.HasPrefix(text, prefixPruning):
		return directivePrune
	case strings.HasPrefix(text, prefixFinished), strings.HasSuffix(text, suffixConsidered):
		return directiveClose
	default:
		return directiveNone
	}
}

// IndentLevel returns the number of leading whitespace characters in line.
// Each whitespace rune counts once, tabs included.
func IndentLevel(line string) int {
	n := 0
	for _, r := range line {
		if !unicode.IsSpace(r) {
			return n
		}
		n++
	}
	return n
}

// TargetName extracts the target name quoted in a trace line.
//
// make quotes names either as `name' or as 'name'. The opening delimiter is
// the first backtick, or the first apostrophe when the line has no backtick;
// the name ends at the next apostrophe after it.
func TargetName(line string) (string, error) {
	b := strings.IndexByte(line, '`')
	if b < 0 {
		b = strings.IndexByte(line, '\'')
	}
	if b < 0 {
		return "", errors.New(errors.ErrCodeInvalidTrace, "no opening quote in %q", line)
	}
	e := strings.IndexByte(line[b+1:], '\'')
	if e < 0 {
		return "", errors.New(errors.ErrCodeInvalidTrace, "no closing quote in %q", line)
	}
	return line[b+1 : b+1+e], nil
}
