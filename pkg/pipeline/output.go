package pipeline

import (
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/makegraph/pkg/errors"
)

// WriteArtifacts writes each artifact in formats to base.<format> and
// returns the paths written, in format order. Files are written
// concurrently; nothing is written if an artifact is missing.
func WriteArtifacts(artifacts map[string][]byte, formats []string, base string) ([]string, error) {
	for _, format := range formats {
		if _, ok := artifacts[format]; !ok {
			return nil, errors.New(errors.ErrCodeInternal, "no %s artifact rendered", format)
		}
	}

	if dir := filepath.Dir(base); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInternal, err, "create output directory")
		}
	}

	paths := make([]string, len(formats))
	var eg errgroup.Group
	for i, format := range formats {
		path := base + "." + format
		paths[i] = path
		eg.Go(func() error {
			if err := os.WriteFile(path, artifacts[format], 0o644); err != nil {
				return errors.Wrap(errors.ErrCodeInternal, err, "write %s", path)
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return paths, nil
}
