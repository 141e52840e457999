// Package projectconfig provides the ProjectConfig struct and loader for
// .slidestats.yaml project-level configuration files.
package projectconfig

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spboyer/slidestats/internal/validation"
	"gopkg.in/yaml.v3"
)

// FileName is the name of the project configuration file.
const FileName = ".slidestats.yaml"

// Default values for project configuration. New() references them and no
// other code should duplicate them.
const (
	DefaultWindow = 32

	DefaultStreamInitial = 0

	DefaultOutputFormat = "auto"
	DefaultOutputLimit  = 20

	DefaultVerifyTolerance = 1e-6
)

// DefaultStreamChunks is the chunk-size cycle used when none is configured.
// It exercises single samples, sub-window chunks and large chunks.
var DefaultStreamChunks = []int{1, 7, 64}

// InputConfig describes how series files are read.
type InputConfig struct {
	Format  string         `yaml:"format,omitempty"`
	Options map[string]any `yaml:"options,omitempty"`
}

// StreamConfig controls how a series is replayed.
type StreamConfig struct {
	Initial int   `yaml:"initial,omitempty"`
	Chunks  []int `yaml:"chunks,omitempty"`
}

// OutputConfig controls how results are printed.
type OutputConfig struct {
	Format string `yaml:"format,omitempty"`
	Std    *bool  `yaml:"std,omitempty"`
	Limit  *int   `yaml:"limit,omitempty"`
}

// VerifyConfig holds settings for the verify command.
type VerifyConfig struct {
	Tolerance float64 `yaml:"tolerance,omitempty"`
}

// ProjectConfig is the top-level configuration loaded from .slidestats.yaml.
type ProjectConfig struct {
	Window int          `yaml:"window,omitempty"`
	Input  InputConfig  `yaml:"input,omitempty"`
	Stream StreamConfig `yaml:"stream,omitempty"`
	Output OutputConfig `yaml:"output,omitempty"`
	Verify VerifyConfig `yaml:"verify,omitempty"`

	// Path is the file the configuration was read from, empty for defaults.
	Path string `yaml:"-"`
}

// New returns a ProjectConfig with all hard-coded defaults populated.
func New() *ProjectConfig {
	return &ProjectConfig{
		Window: DefaultWindow,
		Stream: StreamConfig{
			Initial: DefaultStreamInitial,
			Chunks:  append([]int(nil), DefaultStreamChunks...),
		},
		Output: OutputConfig{
			Format: DefaultOutputFormat,
			Std:    boolPtr(false),
			Limit:  intPtr(DefaultOutputLimit),
		},
		Verify: VerifyConfig{
			Tolerance: DefaultVerifyTolerance,
		},
	}
}

// Load finds .slidestats.yaml by walking up from startDir (max 10 levels),
// validates it against the config schema and fills in missing fields with
// defaults. If no config file is found, returns defaults with a nil error.
func Load(startDir string) (*ProjectConfig, error) {
	path, data, err := findConfigFile(startDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return New(), nil // no file found → return defaults
		}
		return nil, fmt.Errorf("loading %s: %w", FileName, err)
	}
	return parse(path, data)
}

// LoadFile reads the configuration at an explicit path. Unlike Load, a
// missing file is an error.
func LoadFile(path string) (*ProjectConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}
	return parse(path, data)
}

func parse(path string, data []byte) (*ProjectConfig, error) {
	if errs := validation.ValidateConfigBytes(data); len(errs) > 0 {
		return nil, fmt.Errorf("invalid %s:\n  %s", path, strings.Join(errs, "\n  "))
	}

	var fileCfg ProjectConfig
	if err := yaml.Unmarshal(data, &fileCfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	cfg := New()
	mergeConfig(cfg, &fileCfg)
	cfg.Path = path
	return cfg, nil
}

// findConfigFile walks up from dir looking for .slidestats.yaml (max 10
// levels). Returns os.ErrNotExist if no config file is found. Real I/O errors
// are propagated.
func findConfigFile(dir string) (string, []byte, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return "", nil, fmt.Errorf("resolving path %q: %w", dir, err)
	}
	dir = absDir

	for i := 0; i < 10; i++ {
		p := filepath.Join(dir, FileName)
		data, err := os.ReadFile(p)
		if err == nil {
			return p, data, nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return "", nil, fmt.Errorf("reading %q: %w", p, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break // reached filesystem root
		}
		dir = parent
	}
	return "", nil, os.ErrNotExist
}

// mergeConfig overlays non-zero values from src onto dst.
func mergeConfig(dst, src *ProjectConfig) {
	if src.Window != 0 {
		dst.Window = src.Window
	}

	// Input
	if src.Input.Format != "" {
		dst.Input.Format = src.Input.Format
	}
	if src.Input.Options != nil {
		dst.Input.Options = src.Input.Options
	}

	// Stream
	if src.Stream.Initial != 0 {
		dst.Stream.Initial = src.Stream.Initial
	}
	if len(src.Stream.Chunks) > 0 {
		dst.Stream.Chunks = src.Stream.Chunks
	}

	// Output
	if src.Output.Format != "" {
		dst.Output.Format = src.Output.Format
	}
	if src.Output.Std != nil {
		dst.Output.Std = src.Output.Std
	}
	if src.Output.Limit != nil {
		dst.Output.Limit = src.Output.Limit
	}

	// Verify
	if src.Verify.Tolerance != 0 {
		dst.Verify.Tolerance = src.Verify.Tolerance
	}
}

func boolPtr(b bool) *bool {
	return &b
}

func intPtr(i int) *int {
	return &i
}
