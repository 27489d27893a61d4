package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gosimple/slug"
	"go.uber.org/zap"

	mdpress "github.com/alnah/go-mdpress"
	"github.com/alnah/go-mdpress/internal/config"
	"github.com/alnah/go-mdpress/internal/fileutil"
)

// Sentinel errors for render operations.
var (
	ErrNoInput            = errors.New("no input specified")
	ErrReadMarkdown       = errors.New("failed to read markdown file")
	ErrWriteHTML          = errors.New("failed to write HTML file")
	ErrInvalidExtension   = errors.New("file must have .md or .markdown extension")
	ErrInvalidWorkerCount = errors.New("invalid worker count")
	ErrInvalidTimeout     = errors.New("invalid timeout")
)

// File permission constants.
const (
	dirPermissions  = 0o750 // rwxr-x---: owner full, group read+execute
	filePermissions = 0o644 // rw-r--r--: owner read+write, others read
)

const htmlExt = ".html"

// Renderer is the part of mdpress.Converter a batch needs.
type Renderer interface {
	Convert(ctx context.Context, input mdpress.Input) (*mdpress.Result, error)
	RenderSource(ctx context.Context, input mdpress.Input) (*mdpress.Result, error)
}

// Compile-time interface implementation check.
var _ Renderer = (*mdpress.Converter)(nil)

// Pool abstracts converter pool operations for testability.
type Pool interface {
	Acquire() (Renderer, error)
	Release(Renderer)
	Size() int
}

// poolAdapter exposes an mdpress.ConverterPool as a Pool.
type poolAdapter struct {
	pool *mdpress.ConverterPool
}

var _ Pool = (*poolAdapter)(nil)

func (a *poolAdapter) Acquire() (Renderer, error) {
	conv, err := a.pool.Acquire()
	if err != nil {
		return nil, err
	}
	return conv, nil
}

// Release panics on a Renderer the pool did not hand out: that is a
// programmer error, not a runtime condition.
func (a *poolAdapter) Release(r Renderer) {
	conv, ok := r.(*mdpress.Converter)
	if !ok {
		panic(fmt.Sprintf("poolAdapter.Release: unexpected type %T", r))
	}
	a.pool.Release(conv)
}

func (a *poolAdapter) Size() int {
	return a.pool.Size()
}

// renderJob is a single document to render.
type renderJob struct {
	Source     string // file path or http(s) URL
	OutputPath string
}

// renderResult holds the outcome of a single render.
type renderResult struct {
	Source     string
	OutputPath string
	Slides     int
	Err        error
	Warnings   error
	Duration   time.Duration
}

// renderParams groups values shared by every job of a batch.
type renderParams struct {
	title string // page title fallback
}

// runRender orchestrates the render command.
func runRender(ctx context.Context, positional []string, flags *renderFlags, env *Environment, log *zap.Logger) error {
	envCfg := loadEnvConfig(env.Getenv)

	workers := flags.workers
	if workers == 0 {
		workers = envCfg.Workers
	}
	if err := validateWorkers(workers); err != nil {
		return err
	}

	cfg, err := loadConfig(flags.common.config, envCfg)
	if err != nil {
		return err
	}
	mergeRenderFlags(flags, cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	timeout, err := resolveTimeout(flags.timeout, envCfg.Timeout)
	if err != nil {
		return err
	}
	opts, err := buildOptions(cfg, timeout, flags.document.container, log)
	if err != nil {
		return err
	}

	inputs, err := resolveInputs(positional, cfg)
	if err != nil {
		return err
	}
	jobs, err := discoverJobs(inputs, resolveOutputDir(flags.output, cfg))
	if err != nil {
		return err
	}
	if len(jobs) == 0 {
		return fmt.Errorf("%w: no markdown files found in %s", ErrNoInput, strings.Join(inputs, ", "))
	}

	size := mdpress.ResolvePoolSize(workers)
	if size > len(jobs) {
		size = len(jobs)
	}
	pool := mdpress.NewConverterPool(size, opts...)
	defer func() {
		if err := pool.Close(); err != nil {
			log.Warn("closing converter pool", zap.Error(err))
		}
	}()
	log.Debug("rendering", zap.Int("documents", len(jobs)), zap.Int("workers", size))

	start := env.Now()
	results := renderBatch(ctx, &poolAdapter{pool: pool}, jobs, renderParams{title: cfg.Document.Title})
	return reportResults(results, flags.common, env.Now().Sub(start), env, log)
}

// mergeRenderFlags merges CLI flags into config. CLI values override config values.
func mergeRenderFlags(flags *renderFlags, cfg *config.Config) {
	// Layout
	if flags.layout.minWidth > 0 {
		cfg.Layout.TwoColumnMinWidth = flags.layout.minWidth
	}
	if flags.layout.viewport != "" {
		cfg.Layout.Viewport = flags.layout.viewport
	}
	if flags.layout.measurer != "" {
		cfg.Layout.Measurer = flags.layout.measurer
	}

	// Theme and assets
	if flags.theme.style != "" {
		cfg.Theme.Style = flags.theme.style
	}
	if flags.theme.assetPath != "" {
		cfg.Assets.BasePath = flags.theme.assetPath
	}
	if flags.theme.forceLight {
		cfg.Theme.ForceLight = true
	}
	if flags.theme.noMinify {
		cfg.Assets.PreferMinified = false
	}

	// Diagrams
	if flags.diagrams.timeout != "" {
		cfg.Diagram.Timeout = flags.diagrams.timeout
	}
	if flags.diagrams.disabled {
		cfg.Diagram.Enabled = false
	}

	// ToC
	if flags.toc.title != "" {
		cfg.TOC.Title = flags.toc.title
	}
	if flags.toc.disabled {
		cfg.TOC.Enabled = false
	}

	// Document
	if flags.document.title != "" {
		cfg.Document.Title = flags.document.title
	}
	if flags.document.lang != "" {
		cfg.Document.Lang = flags.document.lang
	}
}

// buildOptions maps the merged config onto converter options.
// Expects a validated config.
func buildOptions(cfg *config.Config, timeout time.Duration, container string, log *zap.Logger) ([]mdpress.Option, error) {
	viewport, err := cfg.Viewport()
	if err != nil {
		return nil, err
	}
	diagramTimeout, err := cfg.DiagramTimeout()
	if err != nil {
		return nil, err
	}

	opts := []mdpress.Option{
		mdpress.WithLogger(log),
		mdpress.WithForceLightTheme(cfg.Theme.ForceLight),
		mdpress.WithPreferMinified(cfg.Assets.PreferMinified),
		mdpress.WithViewport(viewport),
		mdpress.WithBrowserMeasure(strings.EqualFold(cfg.Layout.Measurer, config.MeasurerBrowser)),
		mdpress.WithDiagrams(cfg.Diagram.Enabled),
		mdpress.WithDiagramTimeout(diagramTimeout),
		mdpress.WithTOC(cfg.TOC.Enabled),
	}
	if cfg.Layout.TwoColumnMinWidth > 0 {
		opts = append(opts, mdpress.WithTwoColumnMinWidth(cfg.Layout.TwoColumnMinWidth))
	}
	if cfg.Assets.BasePath != "" {
		opts = append(opts, mdpress.WithAssetPath(cfg.Assets.BasePath))
	}
	if cfg.Theme.Style != "" {
		opts = append(opts, mdpress.WithStyle(cfg.Theme.Style))
	}
	if cfg.TOC.Title != "" {
		opts = append(opts, mdpress.WithTOCTitle(cfg.TOC.Title))
	}
	if cfg.Document.Lang != "" {
		opts = append(opts, mdpress.WithLang(cfg.Document.Lang))
	}
	if container != "" {
		opts = append(opts, mdpress.WithContainerID(container))
	}
	if timeout > 0 {
		opts = append(opts, mdpress.WithTimeout(timeout))
	}
	return opts, nil
}

// resolveTimeout picks the render timeout.
// Priority: --timeout flag > MDPRESS_TIMEOUT > converter default (returned as 0).
func resolveTimeout(flagValue string, envValue time.Duration) (time.Duration, error) {
	if flagValue != "" {
		d, err := time.ParseDuration(flagValue)
		if err != nil {
			return 0, fmt.Errorf("%w: %q: %v", ErrInvalidTimeout, flagValue, err)
		}
		if d <= 0 {
			return 0, fmt.Errorf("%w: %q (must be positive)", ErrInvalidTimeout, flagValue)
		}
		return d, nil
	}
	return envValue, nil
}

// resolveInputs returns the positional inputs, or the configured default
// directory when none are given.
func resolveInputs(args []string, cfg *config.Config) ([]string, error) {
	if len(args) > 0 {
		return args, nil
	}
	if cfg.Input.DefaultDir != "" {
		return []string{cfg.Input.DefaultDir}, nil
	}
	return nil, ErrNoInput
}

// resolveOutputDir returns the output location: flag > config > "" (next to source).
func resolveOutputDir(flagOutput string, cfg *config.Config) string {
	if flagOutput != "" {
		return flagOutput
	}
	return cfg.Output.DefaultDir
}

// discoverJobs expands inputs (files, directories, URLs) into render jobs.
func discoverJobs(inputs []string, outputDir string) ([]renderJob, error) {
	var jobs []renderJob
	for _, input := range inputs {
		if fileutil.IsURL(input) {
			jobs = append(jobs, renderJob{Source: input, OutputPath: urlOutputPath(input, outputDir)})
			continue
		}

		info, err := os.Stat(input)
		if err != nil {
			return nil, err
		}

		if !info.IsDir() {
			if err := validateMarkdownExtension(input); err != nil {
				return nil, err
			}
			jobs = append(jobs, renderJob{Source: input, OutputPath: resolveOutputPath(input, outputDir, "")})
			continue
		}

		err = filepath.WalkDir(input, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return fmt.Errorf("scanning %s: %w", p, err)
			}
			if d.IsDir() || !isMarkdownExt(filepath.Ext(p)) {
				return nil
			}
			jobs = append(jobs, renderJob{Source: p, OutputPath: resolveOutputPath(p, outputDir, input)})
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	if strings.HasSuffix(outputDir, htmlExt) && len(jobs) > 1 {
		return nil, fmt.Errorf("%w: --output %s names a file but %d documents were found",
			ErrInvalidFlags, outputDir, len(jobs))
	}
	return jobs, nil
}

// resolveOutputPath determines the HTML output path for a markdown file.
func resolveOutputPath(inputPath, outputDir, baseInputDir string) string {
	base := filepath.Base(fileutil.ReplaceExt(inputPath, htmlExt))

	if outputDir == "" {
		return filepath.Join(filepath.Dir(inputPath), base)
	}

	if strings.HasSuffix(outputDir, htmlExt) {
		return outputDir
	}

	if baseInputDir != "" {
		relPath, err := filepath.Rel(baseInputDir, inputPath)
		if err == nil {
			return filepath.Join(outputDir, filepath.Dir(relPath), base)
		}
	}

	return filepath.Join(outputDir, base)
}

// urlOutputPath names the page for a remote document after a slug of its
// URL path, falling back to the host.
func urlOutputPath(rawURL, outputDir string) string {
	if strings.HasSuffix(outputDir, htmlExt) {
		return outputDir
	}

	name := "document"
	if u, err := url.Parse(rawURL); err == nil {
		p := strings.Trim(u.Path, "/")
		p = strings.TrimSuffix(p, path.Ext(p))
		if s := slug.Make(p); s != "" {
			name = s
		} else if s := slug.Make(u.Hostname()); s != "" {
			name = s
		}
	}
	return filepath.Join(outputDir, name+htmlExt)
}

// isMarkdownExt reports whether ext is a markdown file extension.
func isMarkdownExt(ext string) bool {
	return ext == ".md" || ext == ".markdown"
}

// validateMarkdownExtension checks that the file has a .md or .markdown extension.
func validateMarkdownExtension(p string) error {
	if ext := filepath.Ext(p); !isMarkdownExt(ext) {
		return fmt.Errorf("%w: got %q", ErrInvalidExtension, ext)
	}
	return nil
}

// validateWorkers checks that the worker count is within valid bounds.
func validateWorkers(n int) error {
	if n < 0 {
		return fmt.Errorf("%w: %d (must be >= 0, 0 means auto)", ErrInvalidWorkerCount, n)
	}
	if n > mdpress.MaxPoolSize {
		return fmt.Errorf("%w: %d (maximum is %d)", ErrInvalidWorkerCount, n, mdpress.MaxPoolSize)
	}
	return nil
}

// renderBatch processes jobs concurrently using the converter pool.
// Results keep the order of jobs.
func renderBatch(ctx context.Context, pool Pool, jobs []renderJob, params renderParams) []renderResult {
	if len(jobs) == 0 {
		return nil
	}

	concurrency := pool.Size()
	if concurrency > len(jobs) {
		concurrency = len(jobs)
	}

	results := make([]renderResult, len(jobs))
	var wg sync.WaitGroup
	queue := make(chan int, len(jobs))

	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			r, err := pool.Acquire()
			if err != nil {
				// Converter creation failed, fail the jobs this worker takes
				for idx := range queue {
					results[idx] = renderResult{Source: jobs[idx].Source, Err: err}
				}
				return
			}
			defer pool.Release(r)

			for idx := range queue {
				if ctx.Err() != nil {
					results[idx] = renderResult{Source: jobs[idx].Source, Err: ctx.Err()}
					continue
				}
				results[idx] = renderOne(ctx, r, jobs[idx], params)
			}
		}()
	}

	for i := range jobs {
		queue <- i
	}
	close(queue)

	wg.Wait()
	return results
}

// renderOne renders a single job and writes the page.
// A remote document that cannot be fetched still gets its error page
// written, and the fetch error is reported.
func renderOne(ctx context.Context, r Renderer, job renderJob, params renderParams) renderResult {
	start := time.Now()
	result := renderResult{Source: job.Source, OutputPath: job.OutputPath}
	done := func(err error) renderResult {
		result.Err = err
		result.Duration = time.Since(start)
		return result
	}

	input := mdpress.Input{
		Source:    job.Source,
		OutputDir: filepath.Dir(job.OutputPath),
		Title:     pageTitle(job.Source, params.title),
	}

	var (
		page *mdpress.Result
		err  error
	)
	if fileutil.IsURL(job.Source) {
		page, err = r.RenderSource(ctx, input)
	} else {
		content, rerr := os.ReadFile(job.Source) // #nosec G304 -- discovered path
		if rerr != nil {
			return done(fmt.Errorf("%w: %v", ErrReadMarkdown, rerr))
		}
		input.Markdown = string(content)
		page, err = r.Convert(ctx, input)
	}
	if page == nil {
		return done(err)
	}

	if mkErr := os.MkdirAll(input.OutputDir, dirPermissions); mkErr != nil {
		return done(fmt.Errorf("%w: creating output directory: %v", ErrWriteHTML, mkErr))
	}
	// #nosec G306 -- HTML pages are meant to be readable
	if wErr := os.WriteFile(job.OutputPath, page.HTML, filePermissions); wErr != nil {
		return done(fmt.Errorf("%w: %v", ErrWriteHTML, wErr))
	}

	result.Slides = page.Slides
	result.Warnings = page.Warnings
	return done(err)
}

// pageTitle returns the configured title fallback, or the source's base
// name without extension.
func pageTitle(source, fallback string) string {
	if fallback != "" {
		return fallback
	}
	if fileutil.IsURL(source) {
		if u, err := url.Parse(source); err == nil {
			source = u.Path
		}
	}
	base := path.Base(filepath.ToSlash(source))
	base = strings.TrimSuffix(base, path.Ext(base))
	if base == "." || base == "/" {
		return ""
	}
	return base
}

// resultSummary holds the count of succeeded and failed renders.
type resultSummary struct {
	Succeeded int
	Failed    int
}

// countResults tallies succeeded and failed renders.
func countResults(results []renderResult) resultSummary {
	var summary resultSummary
	for _, r := range results {
		if r.Err != nil {
			summary.Failed++
		} else {
			summary.Succeeded++
		}
	}
	return summary
}

// reportResults prints the outcome of a batch and returns an error wrapping
// the first failure, so the exit code reflects its cause.
func reportResults(results []renderResult, f commonFlags, elapsed time.Duration, env *Environment, log *zap.Logger) error {
	summary := countResults(results)

	var first error
	for _, r := range results {
		if r.Warnings != nil {
			log.Warn("render completed with warnings", zap.String("url", r.Source), zap.Error(r.Warnings))
		}
		if r.Err != nil {
			fmt.Fprintf(env.Stderr, "FAILED %s: %v\n", r.Source, r.Err)
			if first == nil {
				first = r.Err
			}
			continue
		}

		if f.quiet {
			continue
		}

		if f.verbose {
			fmt.Fprintf(env.Stdout, "%s -> %s (%v)\n", r.Source, r.OutputPath, r.Duration.Round(time.Millisecond))
		} else {
			fmt.Fprintf(env.Stdout, "Created %s\n", r.OutputPath)
		}
	}

	if !f.quiet && len(results) > 1 {
		fmt.Fprintf(env.Stdout, "\n%d succeeded, %d failed (%v)\n",
			summary.Succeeded, summary.Failed, elapsed.Round(time.Millisecond))
	}

	if first != nil {
		return fmt.Errorf("%d render(s) failed: %w", summary.Failed, first)
	}
	return nil
}
