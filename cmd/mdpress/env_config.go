package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/alnah/go-mdpress/internal/config"
)

// envConfig holds configuration from environment variables.
// Provides CI/CD-friendly overrides without requiring YAML files.
type envConfig struct {
	// Rendering
	ConfigPath string        // MDPRESS_CONFIG: config file path
	Style      string        // MDPRESS_STYLE: CSS style name or path
	Timeout    time.Duration // MDPRESS_TIMEOUT: per-document render timeout
	AssetPath  string        // MDPRESS_ASSET_PATH: custom asset directory
	ForceLight bool          // MDPRESS_FORCE_LIGHT: disable dark scheme
	Workers    int           // MDPRESS_WORKERS: parallel workers

	// Layout
	Viewport string  // MDPRESS_VIEWPORT: WIDTHxHEIGHT
	Measurer string  // MDPRESS_MEASURER: estimate, browser
	MinWidth float64 // MDPRESS_MIN_WIDTH: two-column minimum width

	// I/O
	InputDir  string // MDPRESS_INPUT_DIR: default input directory
	OutputDir string // MDPRESS_OUTPUT_DIR: default output directory

	// Preview server, same names as the static preview script
	Port    int    // PORT: listen port
	RootDir string // ROOT_DIR: served directory
}

// envPrefix marks the variables owned by mdpress.
const envPrefix = "MDPRESS_"

// knownEnvVars lists valid MDPRESS_* environment variables.
// Used to detect typos and warn users about unknown variables.
var knownEnvVars = map[string]bool{
	"MDPRESS_CONFIG":      true,
	"MDPRESS_STYLE":       true,
	"MDPRESS_TIMEOUT":     true,
	"MDPRESS_ASSET_PATH":  true,
	"MDPRESS_FORCE_LIGHT": true,
	"MDPRESS_WORKERS":     true,
	"MDPRESS_VIEWPORT":    true,
	"MDPRESS_MEASURER":    true,
	"MDPRESS_MIN_WIDTH":   true,
	"MDPRESS_INPUT_DIR":   true,
	"MDPRESS_OUTPUT_DIR":  true,
}

// loadEnvConfig reads configuration from environment variables.
// Malformed numbers and durations are ignored, not errors.
func loadEnvConfig(getenv func(string) string) *envConfig {
	cfg := &envConfig{
		ConfigPath: getenv("MDPRESS_CONFIG"),
		Style:      getenv("MDPRESS_STYLE"),
		AssetPath:  getenv("MDPRESS_ASSET_PATH"),
		Viewport:   getenv("MDPRESS_VIEWPORT"),
		Measurer:   getenv("MDPRESS_MEASURER"),
		InputDir:   getenv("MDPRESS_INPUT_DIR"),
		OutputDir:  getenv("MDPRESS_OUTPUT_DIR"),
		RootDir:    getenv("ROOT_DIR"),
	}

	if timeout := getenv("MDPRESS_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil && d > 0 {
			cfg.Timeout = d
		}
	}
	if workers := getenv("MDPRESS_WORKERS"); workers != "" {
		if w, err := strconv.Atoi(workers); err == nil && w > 0 {
			cfg.Workers = w
		}
	}
	if light := getenv("MDPRESS_FORCE_LIGHT"); light != "" {
		if b, err := strconv.ParseBool(light); err == nil {
			cfg.ForceLight = b
		}
	}
	if width := getenv("MDPRESS_MIN_WIDTH"); width != "" {
		if w, err := strconv.ParseFloat(width, 64); err == nil && w > 0 {
			cfg.MinWidth = w
		}
	}
	if port := getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil && p > 0 {
			cfg.Port = p
		}
	}

	return cfg
}

// warnUnknownEnvVars logs warnings for unrecognized MDPRESS_* variables.
// Helps catch typos like MDPRESS_VIEWPROT.
func warnUnknownEnvVars(environ []string, log *zap.Logger) {
	for _, env := range environ {
		if !strings.HasPrefix(env, envPrefix) {
			continue
		}
		name, _, _ := strings.Cut(env, "=")
		if !knownEnvVars[name] {
			log.Warn("unknown environment variable (typo?)", zap.String("name", name))
		}
	}
}

// applyEnvConfig applies environment variable values to config.
// Set variables override the config file, and CLI flags are applied later
// via mergeRenderFlags/mergeServeFlags.
// This ensures: CLI flags > env vars > config file > defaults
func applyEnvConfig(env *envConfig, cfg *config.Config) {
	if env.Style != "" {
		cfg.Theme.Style = env.Style
	}
	if env.ForceLight {
		cfg.Theme.ForceLight = true
	}
	if env.AssetPath != "" {
		cfg.Assets.BasePath = env.AssetPath
	}

	if env.Viewport != "" {
		cfg.Layout.Viewport = env.Viewport
	}
	if env.Measurer != "" {
		cfg.Layout.Measurer = env.Measurer
	}
	if env.MinWidth > 0 {
		cfg.Layout.TwoColumnMinWidth = env.MinWidth
	}

	if env.InputDir != "" {
		cfg.Input.DefaultDir = env.InputDir
	}
	if env.OutputDir != "" {
		cfg.Output.DefaultDir = env.OutputDir
	}

	if env.Port > 0 {
		cfg.Serve.Port = env.Port
	}
	if env.RootDir != "" {
		cfg.Serve.RootDir = env.RootDir
	}
}

// loadConfig resolves the configuration for a command.
// Priority for the file: --config flag > MDPRESS_CONFIG > none (defaults).
func loadConfig(flagConfig string, env *envConfig) (*config.Config, error) {
	name := flagConfig
	if name == "" {
		name = env.ConfigPath
	}

	cfg := config.DefaultConfig()
	if name != "" {
		loaded, err := config.LoadConfig(name)
		if err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}
		cfg = loaded
	}

	applyEnvConfig(env, cfg)
	return cfg, nil
}
