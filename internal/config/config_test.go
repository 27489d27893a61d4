package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()

	if cfg.Layout.TwoColumnMinWidth != 1000 {
		t.Errorf("Layout.TwoColumnMinWidth = %v, want 1000", cfg.Layout.TwoColumnMinWidth)
	}
	if cfg.Layout.Measurer != MeasurerEstimate {
		t.Errorf("Layout.Measurer = %q, want %q", cfg.Layout.Measurer, MeasurerEstimate)
	}
	if cfg.Theme.ForceLight {
		t.Error("Theme.ForceLight = true, want false")
	}
	if !cfg.Assets.PreferMinified {
		t.Error("Assets.PreferMinified = false, want true")
	}
	if !cfg.TOC.Enabled || !cfg.Diagram.Enabled {
		t.Error("TOC and diagrams should be enabled by default")
	}
	if cfg.Serve.Port != 8000 || cfg.Serve.RootDir != "." {
		t.Errorf("Serve = %+v, want port 8000 root .", cfg.Serve)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("DefaultConfig().Validate() error = %v", err)
	}
}

func TestValidateFieldLength(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		value     string
		maxLength int
		wantErr   bool
	}{
		{name: "empty value is valid", value: "", maxLength: 10},
		{name: "value at limit is valid", value: "1234567890", maxLength: 10},
		{name: "value over limit", value: "12345678901", maxLength: 10, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := validateFieldLength("test", tt.value, tt.maxLength)
			if tt.wantErr != (err != nil) {
				t.Fatalf("validateFieldLength() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrFieldTooLong) {
				t.Errorf("error = %v, want ErrFieldTooLong", err)
			}
		})
	}
}

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{name: "zero config is valid", mutate: func(c *Config) { *c = Config{} }},
		{name: "min width at lower bound", mutate: func(c *Config) { c.Layout.TwoColumnMinWidth = 320 }},
		{name: "min width too small", mutate: func(c *Config) { c.Layout.TwoColumnMinWidth = 100 }, wantErr: ErrInvalidValue},
		{name: "min width too large", mutate: func(c *Config) { c.Layout.TwoColumnMinWidth = 20000 }, wantErr: ErrInvalidValue},
		{name: "bad viewport", mutate: func(c *Config) { c.Layout.Viewport = "wide" }, wantErr: ErrInvalidValue},
		{name: "browser measurer", mutate: func(c *Config) { c.Layout.Measurer = "Browser" }},
		{name: "unknown measurer", mutate: func(c *Config) { c.Layout.Measurer = "ruler" }, wantErr: ErrInvalidValue},
		{name: "bad diagram timeout", mutate: func(c *Config) { c.Diagram.Timeout = "soon" }, wantErr: ErrInvalidValue},
		{name: "negative diagram timeout", mutate: func(c *Config) { c.Diagram.Timeout = "-1s" }, wantErr: ErrInvalidValue},
		{name: "bad port", mutate: func(c *Config) { c.Serve.Port = 70000 }, wantErr: ErrInvalidValue},
		{name: "toc title too long", mutate: func(c *Config) { c.TOC.Title = strings.Repeat("x", MaxTitleLength+1) }, wantErr: ErrFieldTooLong},
		{name: "lang too long", mutate: func(c *Config) { c.Document.Lang = strings.Repeat("x", MaxLangLength+1) }, wantErr: ErrFieldTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("Validate() unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_Accessors(t *testing.T) {
	t.Parallel()

	cfg := &Config{}
	d, err := cfg.DiagramTimeout()
	if err != nil || d != DefaultDiagramTimeout {
		t.Errorf("DiagramTimeout() = %v, %v, want default", d, err)
	}
	vp, err := cfg.Viewport()
	if err != nil || vp.Width != 1280 || vp.Height != 800 {
		t.Errorf("Viewport() = %+v, %v, want 1280x800", vp, err)
	}

	cfg.Diagram.Timeout = "2s"
	cfg.Layout.Viewport = "1920x1080"
	if d, _ := cfg.DiagramTimeout(); d != 2*time.Second {
		t.Errorf("DiagramTimeout() = %v, want 2s", d)
	}
	if vp, _ := cfg.Viewport(); vp.Width != 1920 {
		t.Errorf("Viewport().Width = %v, want 1920", vp.Width)
	}
}

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("setup: %v", err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	t.Parallel()

	t.Run("empty name returns ErrEmptyConfigName", func(t *testing.T) {
		t.Parallel()

		if _, err := LoadConfig(""); !errors.Is(err, ErrEmptyConfigName) {
			t.Errorf("error = %v, want ErrEmptyConfigName", err)
		}
	})

	t.Run("file overrides keep defaults", func(t *testing.T) {
		t.Parallel()

		path := writeConfig(t, "mdpress.yaml", `theme:
  forceLight: true
layout:
  twoColumnMinWidth: 1200
toc:
  title: "Outline"
`)
		cfg, err := LoadConfig(path)
		if err != nil {
			t.Fatalf("LoadConfig() error = %v", err)
		}
		if !cfg.Theme.ForceLight {
			t.Error("Theme.ForceLight = false, want true")
		}
		if cfg.Layout.TwoColumnMinWidth != 1200 {
			t.Errorf("TwoColumnMinWidth = %v, want 1200", cfg.Layout.TwoColumnMinWidth)
		}
		if cfg.TOC.Title != "Outline" || !cfg.TOC.Enabled {
			t.Errorf("TOC = %+v, want enabled with title Outline", cfg.TOC)
		}
		if cfg.Layout.Viewport != DefaultViewport {
			t.Errorf("Layout.Viewport = %q, want default", cfg.Layout.Viewport)
		}
	})

	t.Run("nonexistent file path returns ErrConfigNotFound", func(t *testing.T) {
		t.Parallel()

		_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
		if !errors.Is(err, ErrConfigNotFound) {
			t.Errorf("error = %v, want ErrConfigNotFound", err)
		}
	})

	t.Run("unknown name returns ErrConfigNotFound", func(t *testing.T) {
		t.Parallel()

		_, err := LoadConfig("mdpress-test-nonexistent-config")
		if !errors.Is(err, ErrConfigNotFound) {
			t.Errorf("error = %v, want ErrConfigNotFound", err)
		}
	})

	t.Run("invalid YAML returns ErrConfigParse", func(t *testing.T) {
		t.Parallel()

		path := writeConfig(t, "bad.yaml", "theme: [unclosed")
		if _, err := LoadConfig(path); !errors.Is(err, ErrConfigParse) {
			t.Errorf("error = %v, want ErrConfigParse", err)
		}
	})

	t.Run("unknown field returns ErrConfigParse in strict mode", func(t *testing.T) {
		t.Parallel()

		path := writeConfig(t, "strict.yaml", "watermark:\n  enabled: true\n")
		if _, err := LoadConfig(path); !errors.Is(err, ErrConfigParse) {
			t.Errorf("error = %v, want ErrConfigParse", err)
		}
	})

	t.Run("invalid value fails validation", func(t *testing.T) {
		t.Parallel()

		path := writeConfig(t, "range.yaml", "layout:\n  measurer: ruler\n")
		if _, err := LoadConfig(path); !errors.Is(err, ErrInvalidValue) {
			t.Errorf("error = %v, want ErrInvalidValue", err)
		}
	})
}
