// Package config loads makegraph defaults from a TOML file.
//
// The first file found wins:
//
//  1. the path given with --config
//  2. ./.makegraph.toml
//  3. $XDG_CONFIG_HOME/makegraph/config.toml (~/.config/makegraph/config.toml)
//
// A missing file is not an error; built-in defaults apply. Command-line
// flags override whatever the file sets.
//
// Example:
//
//	output      = "build/deps"
//	formats     = ["dot", "svg"]
//	rankdir     = "LR"
//	stale_color = "#ffcc00"
//	omit_root   = true
//	cache       = false
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/makegraph/pkg/errors"
	"github.com/matzehuels/makegraph/pkg/pipeline"
	"github.com/matzehuels/makegraph/pkg/render/dot"
)

// LocalFile is the per-project config file name.
const LocalFile = ".makegraph.toml"

// Config holds user defaults for rendering.
type Config struct {
	Output     string   `toml:"output"`
	Formats    []string `toml:"formats"`
	RankDir    string   `toml:"rankdir"`
	StaleColor string   `toml:"stale_color"`
	OmitRoot   bool     `toml:"omit_root"`
	Cache      bool     `toml:"cache"`

	// Path is the file the config was read from, empty for defaults.
	Path string `toml:"-"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Output:     pipeline.DefaultOutput,
		Formats:    append([]string(nil), pipeline.DefaultFormats...),
		RankDir:    dot.DefaultRankDir,
		StaleColor: dot.DefaultStaleColor,
		Cache:      true,
	}
}

// Load reads the configuration. An explicit path must exist; otherwise the
// standard locations are searched and defaults are returned if none exists.
func Load(explicit string) (*Config, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "config file %s", explicit)
		}
		return LoadFile(explicit)
	}
	for _, path := range SearchPaths() {
		if _, err := os.Stat(path); err == nil {
			return LoadFile(path)
		}
	}
	return Default(), nil
}

// LoadFile decodes path on top of the defaults and validates the result.
func LoadFile(path string) (*Config, error) {
	cfg := Default()
	meta, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "%s: failed to parse TOML", path)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, errors.New(errors.ErrCodeInvalidConfig, "%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	if meta.IsDefined("formats") && len(cfg.Formats) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "%s: formats must not be empty", path)
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "%s", path)
	}
	cfg.Path = path
	return cfg, nil
}

// Validate checks that every value is usable by the pipeline.
func (c *Config) Validate() error {
	if err := errors.ValidateOutputBase(c.Output); err != nil {
		return errors.New(errors.ErrCodeInvalidConfig, "output: %s", errors.UserMessage(err))
	}
	if err := pipeline.ValidateFormats(c.Formats); err != nil {
		return err
	}
	return pipeline.ValidateRankDir(c.RankDir)
}

// SearchPaths lists the implicit config locations in lookup order.
func SearchPaths() []string {
	paths := []string{LocalFile}
	if dir := configHome(); dir != "" {
		paths = append(paths, filepath.Join(dir, "makegraph", "config.toml"))
	}
	return paths
}

func configHome() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config")
}
