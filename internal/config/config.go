package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/alnah/go-mdpress/internal/layout"
	"github.com/alnah/go-mdpress/internal/yamlutil"
)

// Sentinel errors for config operations.
var (
	ErrConfigNotFound  = errors.New("config file not found")
	ErrEmptyConfigName = errors.New("config name cannot be empty")
	ErrConfigParse     = errors.New("failed to parse config")
	ErrFieldTooLong    = errors.New("field exceeds maximum length")
	ErrInvalidValue    = errors.New("invalid config value")
)

// Field length limits.
const (
	MaxPathLength     = 4096
	MaxNameLength     = 100
	MaxTitleLength    = 200
	MaxLangLength     = 35 // BCP 47 upper bound in practice
	MaxViewportLength = 20
)

// Range limits.
const (
	MinTwoColumnWidth = 320
	MaxTwoColumnWidth = 10000
)

// Measurer names.
const (
	MeasurerEstimate = "estimate"
	MeasurerBrowser  = "browser"
)

// Defaults.
const (
	DefaultViewport       = "1280x800"
	DefaultDiagramTimeout = 10 * time.Second
	DefaultServePort      = 8000
	DefaultServeRoot      = "."
)

// Config holds all configuration for rendering and previewing documents.
type Config struct {
	Input    InputConfig    `yaml:"input"`
	Output   OutputConfig   `yaml:"output"`
	Theme    ThemeConfig    `yaml:"theme"`
	Layout   LayoutConfig   `yaml:"layout"`
	Assets   AssetsConfig   `yaml:"assets"`
	Diagram  DiagramConfig  `yaml:"diagram"`
	TOC      TOCConfig      `yaml:"toc"`
	Document DocumentConfig `yaml:"document"`
	Serve    ServeConfig    `yaml:"serve"`
}

// InputConfig defines input source options.
type InputConfig struct {
	DefaultDir string `yaml:"defaultDir"` // Default input directory (empty = must specify)
}

// OutputConfig defines output destination options.
type OutputConfig struct {
	DefaultDir string `yaml:"defaultDir"` // Default output directory (empty = same as source)
}

// ThemeConfig defines page styling.
type ThemeConfig struct {
	ForceLight bool   `yaml:"forceLight"` // Disable the dark color scheme
	Style      string `yaml:"style"`      // Style name under assets styles/ (empty = built-in)
}

// LayoutConfig defines two-column slide layout options.
type LayoutConfig struct {
	TwoColumnMinWidth float64 `yaml:"twoColumnMinWidth"` // px, 0 = default 1000
	Viewport          string  `yaml:"viewport"`          // "WIDTHxHEIGHT" the deck is laid out for
	Measurer          string  `yaml:"measurer"`          // "estimate" or "browser"
}

// AssetsConfig defines asset loading options.
type AssetsConfig struct {
	BasePath       string `yaml:"basePath"` // Empty = use embedded assets
	PreferMinified bool   `yaml:"preferMinified"`
}

// DiagramConfig defines in-process diagram rendering options.
type DiagramConfig struct {
	Enabled bool   `yaml:"enabled"`
	Timeout string `yaml:"timeout"` // Go duration, engine readiness budget
}

// TOCConfig defines sidebar table of contents options.
type TOCConfig struct {
	Enabled bool   `yaml:"enabled"`
	Title   string `yaml:"title"` // Empty = "Contents"
}

// DocumentConfig defines page metadata fallbacks. Front matter wins.
type DocumentConfig struct {
	Title string `yaml:"title"`
	Lang  string `yaml:"lang"`
}

// ServeConfig defines the preview server.
type ServeConfig struct {
	Port    int    `yaml:"port"`
	RootDir string `yaml:"rootDir"`
}

// Validate checks field lengths and ranges.
// Called automatically by LoadConfig, but available for consumers
// who construct Config manually.
func (c *Config) Validate() error {
	for _, f := range []struct {
		name  string
		value string
		max   int
	}{
		{"input.defaultDir", c.Input.DefaultDir, MaxPathLength},
		{"output.defaultDir", c.Output.DefaultDir, MaxPathLength},
		{"theme.style", c.Theme.Style, MaxNameLength},
		{"layout.viewport", c.Layout.Viewport, MaxViewportLength},
		{"assets.basePath", c.Assets.BasePath, MaxPathLength},
		{"toc.title", c.TOC.Title, MaxTitleLength},
		{"document.title", c.Document.Title, MaxTitleLength},
		{"document.lang", c.Document.Lang, MaxLangLength},
		{"serve.rootDir", c.Serve.RootDir, MaxPathLength},
	} {
		if err := validateFieldLength(f.name, f.value, f.max); err != nil {
			return err
		}
	}

	if w := c.Layout.TwoColumnMinWidth; w != 0 && (w < MinTwoColumnWidth || w > MaxTwoColumnWidth) {
		return fmt.Errorf("%w: layout.twoColumnMinWidth must be between %d and %d, got %.0f",
			ErrInvalidValue, MinTwoColumnWidth, MaxTwoColumnWidth, w)
	}
	if c.Layout.Viewport != "" {
		if _, err := layout.ParseViewport(c.Layout.Viewport); err != nil {
			return fmt.Errorf("%w: layout.viewport: %v", ErrInvalidValue, err)
		}
	}
	switch strings.ToLower(c.Layout.Measurer) {
	case "", MeasurerEstimate, MeasurerBrowser:
	default:
		return fmt.Errorf("%w: layout.measurer %q (must be estimate or browser)", ErrInvalidValue, c.Layout.Measurer)
	}
	if _, err := c.DiagramTimeout(); err != nil {
		return err
	}
	if c.Serve.Port < 0 || c.Serve.Port > 65535 {
		return fmt.Errorf("%w: serve.port must be between 0 and 65535, got %d", ErrInvalidValue, c.Serve.Port)
	}

	return nil
}

// DiagramTimeout parses diagram.timeout. Empty means DefaultDiagramTimeout.
func (c *Config) DiagramTimeout() (time.Duration, error) {
	if c.Diagram.Timeout == "" {
		return DefaultDiagramTimeout, nil
	}
	d, err := time.ParseDuration(c.Diagram.Timeout)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("%w: diagram.timeout %q", ErrInvalidValue, c.Diagram.Timeout)
	}
	return d, nil
}

// Viewport parses layout.viewport. Empty means DefaultViewport.
func (c *Config) Viewport() (layout.Viewport, error) {
	v := c.Layout.Viewport
	if v == "" {
		v = DefaultViewport
	}
	return layout.ParseViewport(v)
}

// validateFieldLength checks if a field exceeds its maximum allowed length.
func validateFieldLength(fieldName, value string, maxLength int) error {
	if len(value) > maxLength {
		return fmt.Errorf("%w: %s (%d chars, max %d)", ErrFieldTooLong, fieldName, len(value), maxLength)
	}
	return nil
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() *Config {
	return &Config{
		Layout: LayoutConfig{
			TwoColumnMinWidth: layout.DefaultParams().MinWidth,
			Viewport:          DefaultViewport,
			Measurer:          MeasurerEstimate,
		},
		Assets:  AssetsConfig{PreferMinified: true},
		Diagram: DiagramConfig{Enabled: true, Timeout: DefaultDiagramTimeout.String()},
		TOC:     TOCConfig{Enabled: true},
		Serve:   ServeConfig{Port: DefaultServePort, RootDir: DefaultServeRoot},
	}
}

// LoadConfig loads configuration from a file path or config name.
// If nameOrPath contains a path separator, it's treated as a file path.
// Otherwise, it's treated as a config name and searched in standard locations.
// Fields the file leaves out keep their DefaultConfig values.
// Returns error if the file is not found (no silent fallback).
func LoadConfig(nameOrPath string) (*Config, error) {
	if nameOrPath == "" {
		return nil, ErrEmptyConfigName
	}

	var configPath string
	var err error

	if isFilePath(nameOrPath) {
		configPath = nameOrPath
	} else {
		configPath, err = resolveConfigPath(nameOrPath)
		if err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(configPath) // #nosec G304 -- config path is user-provided
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, configPath)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yamlutil.UnmarshalStrict(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigParse, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// isFilePath returns true if the string looks like a file path.
func isFilePath(s string) bool {
	return strings.ContainsAny(s, "/\\")
}

// resolveConfigPath searches for a config file by name in standard locations.
// Tries extensions in order: .yaml, .yml
// Tries locations in order: current directory, ~/.config/go-mdpress/
func resolveConfigPath(name string) (string, error) {
	extensions := []string{".yaml", ".yml"}
	triedPaths := make([]string, 0, len(extensions)*2)

	for _, ext := range extensions {
		localPath := name + ext
		if fileExists(localPath) {
			return localPath, nil
		}
		triedPaths = append(triedPaths, localPath)
	}

	userConfigDir, err := os.UserConfigDir()
	if err == nil {
		for _, ext := range extensions {
			userPath := filepath.Join(userConfigDir, "go-mdpress", name+ext)
			if fileExists(userPath) {
				return userPath, nil
			}
			triedPaths = append(triedPaths, userPath)
		}
	}

	return "", fmt.Errorf("%w: tried %s", ErrConfigNotFound, strings.Join(triedPaths, ", "))
}

// fileExists returns true if the path exists and is a regular file.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}
