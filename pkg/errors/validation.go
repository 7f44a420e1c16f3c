package errors

import (
	"path/filepath"
	"strings"
	"unicode"
)

// ValidateOutputBase validates the base path that rendered artifacts are
// written to as <base>.<format>.
//
// The rules are:
//   - No empty base
//   - No null bytes or control characters
//   - Must name a file, not a directory (no trailing separator, ".", "..")
//   - Maximum length of 1024 characters
//
// Failures are usage errors since the base always comes from a flag or the
// config file.
func ValidateOutputBase(base string) error {
	if strings.TrimSpace(base) == "" {
		return Usage("output path cannot be empty")
	}

	const maxOutputLength = 1024
	if len(base) > maxOutputLength {
		return Usage("output path too long (max %d characters)", maxOutputLength)
	}

	for _, r := range base {
		if r == '\x00' || unicode.IsControl(r) {
			return Usage("output path contains invalid characters")
		}
	}

	if strings.HasSuffix(base, "/") || strings.HasSuffix(base, string(filepath.Separator)) {
		return Usage("output path %q names a directory; add a file name such as %q", base, filepath.Join(base, "make"))
	}
	switch filepath.Base(base) {
	case ".", "..":
		return Usage("output path %q names a directory; add a file name such as %q", base, filepath.Join(base, "make"))
	}

	return nil
}
