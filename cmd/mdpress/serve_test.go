package main

// Notes:
// - newServeHandler: exercised through httptest, no real listener.
// - runServe: we test the missing-root error and a clean shutdown on an
//   already-canceled context with port 0.

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap/zaptest"
)

// ---------------------------------------------------------------------------
// TestServeHandler - Static files without caching
// ---------------------------------------------------------------------------

func TestServeHandler(t *testing.T) {
	t.Parallel()

	root := setupTestDir(t, map[string]string{
		"index.html":     "<h1>home</h1>",
		"deck/talk.html": "<h1>talk</h1>",
	})
	srv := httptest.NewServer(newServeHandler(root, zaptest.NewLogger(t)))
	t.Cleanup(srv.Close)

	tests := []struct {
		name       string
		path       string
		wantStatus int
		wantBody   string
	}{
		{"index", "/", http.StatusOK, "<h1>home</h1>"},
		{"nested file", "/deck/talk.html", http.StatusOK, "<h1>talk</h1>"},
		{"missing file", "/nope.html", http.StatusNotFound, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			resp, err := http.Get(srv.URL + tt.path)
			if err != nil {
				t.Fatalf("GET %s: %v", tt.path, err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != tt.wantStatus {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.wantStatus)
			}
			body, _ := io.ReadAll(resp.Body)
			if tt.wantBody != "" && !strings.Contains(string(body), tt.wantBody) {
				t.Errorf("body = %q, want %q", body, tt.wantBody)
			}

			headers := map[string]string{
				"Cache-Control": "no-store, no-cache, must-revalidate, max-age=0",
				"Pragma":        "no-cache",
				"Expires":       "0",
			}
			for k, v := range headers {
				if got := resp.Header.Get(k); got != v {
					t.Errorf("%s = %q, want %q", k, got, v)
				}
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestMergeServeFlags - Flag precedence
// ---------------------------------------------------------------------------

func TestMergeServeFlags(t *testing.T) {
	t.Parallel()

	cfg, err := loadConfig("", loadEnvConfig(func(k string) string {
		return map[string]string{"PORT": "9000", "ROOT_DIR": "/srv"}[k]
	}))
	if err != nil {
		t.Fatal(err)
	}

	mergeServeFlags(&serveFlags{port: portUnset}, cfg)
	if cfg.Serve.Port != 9000 || cfg.Serve.RootDir != "/srv" {
		t.Errorf("env values lost: %+v", cfg.Serve)
	}

	mergeServeFlags(&serveFlags{port: 0, root: "public"}, cfg)
	if cfg.Serve.Port != 0 || cfg.Serve.RootDir != "public" {
		t.Errorf("flags should win: %+v", cfg.Serve)
	}
}

// ---------------------------------------------------------------------------
// TestRunServe - Lifecycle
// ---------------------------------------------------------------------------

func TestRunServe(t *testing.T) {
	t.Parallel()

	t.Run("missing root", func(t *testing.T) {
		t.Parallel()

		env, _, _ := testEnv()
		flags := &serveFlags{port: 0, root: filepath.Join(t.TempDir(), "missing")}
		err := runServe(context.Background(), flags, env, zaptest.NewLogger(t))
		if !errors.Is(err, ErrServeRoot) {
			t.Errorf("error = %v, want ErrServeRoot", err)
		}
		if exitCodeFor(err) != ExitIO {
			t.Errorf("exit code = %d, want %d", exitCodeFor(err), ExitIO)
		}
	})

	t.Run("shuts down on cancel", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		env, stdout, _ := testEnv()
		flags := &serveFlags{port: 0, root: t.TempDir()}
		if err := runServe(ctx, flags, env, zaptest.NewLogger(t)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(stdout.String(), "http://127.0.0.1:") {
			t.Errorf("stdout = %q, want listen address", stdout.String())
		}
	})
}
