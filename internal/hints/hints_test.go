package hints

// Notes:
// - ForBrowserConnect tests cannot use t.Parallel() because they:
//   1. Use t.Setenv() which modifies process environment
//   2. Modify the package-level IsInContainer variable
// These are acceptable gaps: we test observable behavior through environment manipulation.

import (
	"path/filepath"
	"strings"
	"testing"
)

// ---------------------------------------------------------------------------
// TestForBrowserConnect - Environment-aware browser hints
// ---------------------------------------------------------------------------

func TestForBrowserConnect(t *testing.T) {
	tests := []struct {
		name        string
		inContainer bool
		env         map[string]string
		want        []string
		notWant     []string
	}{
		{
			name: "in CI",
			env:  map[string]string{"CI": "true", "ROD_NO_SANDBOX": "", "ROD_BROWSER_BIN": ""},
			want: []string{"hint:", "ROD_NO_SANDBOX", "ROD_BROWSER_BIN", "--measurer estimate"},
		},
		{
			name:        "in Docker",
			inContainer: true,
			env:         map[string]string{"CI": "", "ROD_NO_SANDBOX": "", "ROD_BROWSER_BIN": ""},
			want:        []string{"ROD_NO_SANDBOX"},
		},
		{
			name:        "sandbox already disabled",
			inContainer: true,
			env:         map[string]string{"CI": "", "ROD_NO_SANDBOX": "1", "ROD_BROWSER_BIN": ""},
			notWant:     []string{"ROD_NO_SANDBOX"},
		},
		{
			name:    "browser bin already set",
			env:     map[string]string{"CI": "", "ROD_NO_SANDBOX": "", "ROD_BROWSER_BIN": "/usr/bin/chrome"},
			want:    []string{"--measurer estimate"},
			notWant: []string{"ROD_BROWSER_BIN", "ROD_NO_SANDBOX"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Save and restore IsInContainer (not parallel-safe, see package notes)
			orig := IsInContainer
			defer func() { IsInContainer = orig }()
			inContainer := tt.inContainer
			IsInContainer = func() bool { return inContainer }

			t.Setenv("GITHUB_ACTIONS", "")
			t.Setenv("GITLAB_CI", "")
			t.Setenv("JENKINS_URL", "")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			hint := ForBrowserConnect()
			for _, w := range tt.want {
				if !strings.Contains(hint, w) {
					t.Errorf("hint %q missing %q", hint, w)
				}
			}
			for _, w := range tt.notWant {
				if strings.Contains(hint, w) {
					t.Errorf("hint %q should not contain %q", hint, w)
				}
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestSimpleHints - Fixed hint texts
// ---------------------------------------------------------------------------

func TestSimpleHints(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		hint     string
		contains string
	}{
		{"timeout", ForTimeout(), "--timeout"},
		{"output directory", ForOutputDirectory(), "parent directory"},
		{"document fetch", ForDocumentFetch(), "local copy"},
		{"port in use", ForPortInUse(), "--port"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if !strings.HasPrefix(tt.hint, "\n  hint: ") {
				t.Errorf("hint %q should start with the hint prefix", tt.hint)
			}
			if !strings.Contains(tt.hint, tt.contains) {
				t.Errorf("hint %q missing %q", tt.hint, tt.contains)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestForConfigNotFound - Config search hints
// ---------------------------------------------------------------------------

func TestForConfigNotFound(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		dir      string
		contains string
		excludes string
	}{
		{"unknown config dir", "", "--config", "create"},
		{"with config dir", "/home/u/.config", filepath.Join("/home/u/.config", "go-mdpress", "<name>.yaml"), ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			hint := ForConfigNotFound(tt.dir)
			if !strings.Contains(hint, tt.contains) {
				t.Errorf("hint %q missing %q", hint, tt.contains)
			}
			if tt.excludes != "" && strings.Contains(hint, tt.excludes) {
				t.Errorf("hint %q should not contain %q", hint, tt.excludes)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestForStyleNotFound - Available styles listing
// ---------------------------------------------------------------------------

func TestForStyleNotFound(t *testing.T) {
	t.Parallel()

	if got := ForStyleNotFound(nil); got != "" {
		t.Errorf("ForStyleNotFound(nil) = %q, want empty", got)
	}
	if got := ForStyleNotFound([]string{"mdpress", "serif"}); !strings.Contains(got, "available: mdpress, serif") {
		t.Errorf("ForStyleNotFound() = %q", got)
	}
}
