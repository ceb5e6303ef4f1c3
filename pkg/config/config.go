// Package config handles loading and saving chemoscope configuration.
//
// Configuration follows the XDG Base Directory specification:
//   - Config: ~/.config/chemoscope/config.yaml
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/vanderheijden86/chemoscope/pkg/analysis"
	"github.com/vanderheijden86/chemoscope/pkg/export"
)

// AnalysisSettings holds the numeric-core policy choices.
type AnalysisSettings struct {
	// Duplicates: "last" (default) or "error".
	Duplicates string `yaml:"duplicates,omitempty"`
	// ZeroVariance: "drop" (default) or "error".
	ZeroVariance string `yaml:"zero_variance,omitempty"`
}

// OutputSettings holds figure and table preferences.
type OutputSettings struct {
	Format     string  `yaml:"format,omitempty"`      // svg (default) or png
	TableStyle string  `yaml:"table_style,omitempty"` // json (default) or markdown
	TopN       int     `yaml:"top_n,omitempty"`       // compounds to emphasise/facet
	ArrowScale float64 `yaml:"arrow_scale,omitempty"` // biplot arrow multiplier
}

// InputSettings holds CSV parsing preferences.
type InputSettings struct {
	Delimiter        string `yaml:"delimiter,omitempty"`         // single char; empty auto-detects
	DecimalSeparator string `yaml:"decimal_separator,omitempty"` // "." or ","; empty auto-detects
}

// Config is the top-level configuration for chemoscope.
type Config struct {
	Analysis AnalysisSettings `yaml:"analysis,omitempty"`
	Output   OutputSettings   `yaml:"output,omitempty"`
	Input    InputSettings    `yaml:"input,omitempty"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Analysis: AnalysisSettings{
			Duplicates:   string(analysis.DuplicateLastWins),
			ZeroVariance: string(analysis.ZeroVarianceDrop),
		},
		Output: OutputSettings{
			Format:     "svg",
			TableStyle: "json",
			TopN:       5,
			ArrowScale: export.DefaultArrowScale,
		},
	}
}

// AnalysisConfig converts the settings into an analysis.Config, falling
// back to the defaults for empty or unknown values.
func (c Config) AnalysisConfig() analysis.Config {
	cfg := analysis.DefaultConfig()
	switch analysis.DuplicatePolicy(c.Analysis.Duplicates) {
	case analysis.DuplicateLastWins:
		cfg.Duplicates = analysis.DuplicateLastWins
	case analysis.DuplicateError:
		cfg.Duplicates = analysis.DuplicateError
	}
	switch analysis.ZeroVariancePolicy(c.Analysis.ZeroVariance) {
	case analysis.ZeroVarianceDrop:
		cfg.ZeroVariance = analysis.ZeroVarianceDrop
	case analysis.ZeroVarianceError:
		cfg.ZeroVariance = analysis.ZeroVarianceError
	}
	return cfg
}

// ConfigDir returns the XDG config directory for chemoscope.
func ConfigDir() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "chemoscope")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "chemoscope")
}

// DefaultPath returns the default config file path.
func DefaultPath() string {
	dir := ConfigDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "config.yaml")
}

// Load reads the config from the default path. A missing file yields the
// defaults without error.
func Load() (Config, error) {
	return LoadFrom(DefaultPath())
}

// LoadFrom reads the config from a specific path. A missing file yields
// the defaults without error.
func LoadFrom(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// Save writes the config to the default path, creating the directory if
// needed.
func Save(cfg Config) error {
	dir := ConfigDir()
	if dir == "" {
		return fmt.Errorf("cannot determine config directory")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return os.WriteFile(filepath.Join(dir, "config.yaml"), data, 0o644)
}
