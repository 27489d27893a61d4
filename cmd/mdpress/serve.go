package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/alnah/go-mdpress/internal/config"
	"github.com/alnah/go-mdpress/internal/fileutil"
)

// ErrServeRoot is returned when the served directory does not exist.
var ErrServeRoot = errors.New("serve root is not a directory")

// serveHost keeps the preview server off the network.
const serveHost = "127.0.0.1"

// Server timeouts.
const (
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 5 * time.Second
)

// runServe serves the root directory until ctx is canceled.
func runServe(ctx context.Context, flags *serveFlags, env *Environment, log *zap.Logger) error {
	cfg, err := loadConfig(flags.common.config, loadEnvConfig(env.Getenv))
	if err != nil {
		return err
	}
	mergeServeFlags(flags, cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	root := cfg.Serve.RootDir
	if !fileutil.DirExists(root) {
		return fmt.Errorf("%w: %s", ErrServeRoot, root)
	}

	ln, err := net.Listen("tcp", net.JoinHostPort(serveHost, strconv.Itoa(cfg.Serve.Port)))
	if err != nil {
		return fmt.Errorf("listening on port %d: %w", cfg.Serve.Port, err)
	}

	srv := &http.Server{
		Handler:           newServeHandler(root, log),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	if !flags.common.quiet {
		fmt.Fprintf(env.Stdout, "Serving %s at http://%s/\n", root, ln.Addr())
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serving %s: %w", root, err)
	case <-ctx.Done():
	}

	log.Debug("shutting down preview server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down server: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serving %s: %w", root, err)
	}
	return nil
}

// mergeServeFlags merges CLI flags into config. CLI values override config values.
func mergeServeFlags(flags *serveFlags, cfg *config.Config) {
	if flags.port != portUnset {
		cfg.Serve.Port = flags.port
	}
	if flags.root != "" {
		cfg.Serve.RootDir = flags.root
	}
	if cfg.Serve.RootDir == "" {
		cfg.Serve.RootDir = config.DefaultServeRoot
	}
}

// newServeHandler returns the static file handler with caching disabled.
func newServeHandler(root string, log *zap.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(requestLogger(log))
	r.Use(noCache)

	r.Handle("/*", http.FileServer(http.Dir(root)))
	return r
}

// noCache makes the browser refetch every file on reload.
func noCache(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Cache-Control", "no-store, no-cache, must-revalidate, max-age=0")
		h.Set("Pragma", "no-cache")
		h.Set("Expires", "0")
		next.ServeHTTP(w, r)
	})
}

// requestLogger logs each request at debug level.
func requestLogger(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			log.Debug("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.String("request_id", middleware.GetReqID(r.Context())),
				zap.Duration("duration", time.Since(start)),
			)
		})
	}
}
