package mdpress

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/alnah/go-mdpress/internal/assets"
	"github.com/alnah/go-mdpress/internal/bib"
	"github.com/alnah/go-mdpress/internal/diagram"
	"github.com/alnah/go-mdpress/internal/fetch"
	"github.com/alnah/go-mdpress/internal/fileutil"
	"github.com/alnah/go-mdpress/internal/layout"
	"github.com/alnah/go-mdpress/internal/media"
	"github.com/alnah/go-mdpress/internal/pipeline"
)

// Compile-time interface implementation checks.
// These ensure implementations satisfy their interfaces at compile time,
// catching signature mismatches before runtime.
var (
	_ pipeline.MarkdownPreprocessor = (*pipeline.CommonMarkPreprocessor)(nil)
	_ pipeline.HTMLConverter        = (*pipeline.GoldmarkConverter)(nil)
	_ layout.Measurer               = (*layout.RodMeasurer)(nil)
	_ layout.Measurer               = layout.EstimateMeasurer{}
	_ diagram.Engine                = (*diagram.D2Engine)(nil)
	_ bib.Loader                    = (*fetch.Fetcher)(nil)
	_ media.Loader                  = (*fetch.Fetcher)(nil)
	_ assets.AssetLoader            = AssetLoader(nil)
)

// Converter renders Markdown documents and slide decks to standalone HTML
// pages. Create with NewConverter(), use Convert() or RenderSource(), and
// Close() when done. A Converter is safe for concurrent use; every render
// owns its registries.
type Converter struct {
	cfg           converterConfig
	loader        AssetLoader
	preprocessor  pipeline.MarkdownPreprocessor
	htmlConverter pipeline.HTMLConverter
	inline        *pipeline.InlineRenderer
	fetcher       *fetch.Fetcher
	bib           *bib.Resolver
	images        *media.Sizer
	diagrams      diagram.Engine // nil when disabled
	layout        *layout.Engine
	browser       *layout.RodMeasurer // nil when estimating

	template string
	styleCSS string
	codeCSS  string
	userCSS  string
	runtime  string
}

// NewConverter creates a Converter with default configuration.
// Use options to customize behavior (e.g., WithTwoColumnMinWidth, WithStyle).
// Returns error if an option is invalid or asset loading fails.
func NewConverter(opts ...Option) (*Converter, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	c := &Converter{
		cfg:           cfg,
		preprocessor:  &pipeline.CommonMarkPreprocessor{},
		htmlConverter: pipeline.NewGoldmarkConverter(),
		inline:        pipeline.NewInlineRenderer(),
	}

	if err := c.loadAssets(); err != nil {
		return nil, err
	}

	activity := fetch.NewActivity(fetch.DefaultSettleDelay,
		func() { cfg.log.Debug("fetch activity started") },
		func() { cfg.log.Debug("fetch activity settled") },
	)
	fetchOpts := []fetch.Option{fetch.WithActivity(activity), fetch.WithLogger(cfg.log)}
	if cfg.httpClient != nil {
		fetchOpts = append(fetchOpts, fetch.WithHTTPClient(cfg.httpClient))
	}
	c.fetcher = fetch.New(fetchOpts...)
	c.bib = bib.NewResolver(c.fetcher, cfg.log)
	c.images = media.NewSizer(c.fetcher, cfg.log)

	if cfg.diagrams {
		engine := diagram.NewD2Engine(cfg.log)
		engine.Start()
		c.diagrams = engine
	}

	var measurer layout.Measurer = layout.EstimateMeasurer{}
	if cfg.browserMeasure {
		c.browser = layout.NewRodMeasurer(c.styleCSS+"\n"+c.userCSS, cfg.timeout, cfg.log)
		measurer = c.browser
	}
	engine, err := layout.NewEngine(cfg.layout, measurer, cfg.log)
	if err != nil {
		return nil, err
	}
	c.layout = engine

	return c, nil
}

// loadAssets resolves the asset loader and loads every asset a page needs,
// so a broken asset directory fails at construction rather than per render.
func (c *Converter) loadAssets() error {
	switch {
	case c.cfg.assetLoader != nil:
		c.loader = c.cfg.assetLoader
	default:
		loader, err := NewAssetLoader(c.cfg.assetPath)
		if err != nil {
			return err
		}
		c.loader = loader
	}

	var err error
	if c.template, err = c.loader.LoadTemplate(DefaultTemplate); err != nil {
		return fmt.Errorf("loading page template: %w", err)
	}
	if c.styleCSS, err = c.loader.LoadStyle(DefaultStyle); err != nil {
		return fmt.Errorf("loading style %q: %w", DefaultStyle, err)
	}
	if c.runtime, err = c.loader.LoadScript(DefaultScript); err != nil {
		return fmt.Errorf("loading script %q: %w", DefaultScript, err)
	}
	if c.codeCSS, err = assets.CodeCSS(c.cfg.forceLight); err != nil {
		return err
	}
	return c.resolveStyle()
}

// resolveStyle resolves the style input (name, path, or CSS content) to CSS content.
func (c *Converter) resolveStyle() error {
	input := c.cfg.style
	if input == "" {
		return nil
	}

	// File path? (contains / or \)
	if fileutil.IsFilePath(input) {
		content, err := os.ReadFile(input) // #nosec G304 -- user-provided path
		if err != nil {
			return fmt.Errorf("loading style file %q: %w", input, err)
		}
		c.userCSS = string(content)
		return nil
	}

	// CSS content? (contains {)
	if strings.Contains(input, "{") {
		c.userCSS = input
		return nil
	}

	// Style name -> use asset loader
	css, err := c.loader.LoadStyle(input)
	if err != nil {
		return fmt.Errorf("loading style %q: %w", input, err)
	}
	c.userCSS = css
	return nil
}

// Convert renders input.Markdown and returns the page.
// The context is used for cancellation and timeout.
// Recovers from internal panics to prevent crashes from propagating to callers.
func (c *Converter) Convert(ctx context.Context, input Input) (result *Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("internal error: %v", r)
		}
	}()

	if err := c.validateInput(input); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.timeout)
	defer cancel()

	return c.render(ctx, input)
}

// RenderSource fetches the document at input.Source, a path or URL, and
// renders it. When the fetch fails the returned Result still holds a page
// with a short message inside the container, and the error wraps
// ErrDocumentFetch.
func (c *Converter) RenderSource(ctx context.Context, input Input) (*Result, error) {
	if strings.TrimSpace(input.Source) == "" {
		return nil, ErrMissingSource
	}
	if c.containerID(input) == "" {
		return nil, ErrMissingContainer
	}

	data, err := c.fetcher.Fetch(ctx, input.Source)
	if err != nil {
		c.cfg.log.Warn("document fetch failed", zap.String("url", input.Source), zap.Error(err))
		fetchErr := fmt.Errorf("%w: %s: %v", ErrDocumentFetch, input.Source, err)
		page, perr := c.errorPage(input, "Could not load "+input.Source+".")
		if perr != nil {
			return nil, errors.Join(fetchErr, perr)
		}
		return &Result{HTML: []byte(page), Title: input.Title}, fetchErr
	}

	input.Markdown = string(data)
	return c.Convert(ctx, input)
}

// Close releases resources (headless Chrome browser, if one was started).
func (c *Converter) Close() error {
	if c.browser != nil {
		return c.browser.Close()
	}
	return nil
}

// validateInput checks that required fields are present and valid.
//
// This is a TRUST BOUNDARY for direct library users who build Input manually.
// CLI users have their input validated earlier by Config.Validate() at config load time.
func (c *Converter) validateInput(input Input) error {
	if input.Markdown == "" {
		return ErrEmptyMarkdown
	}
	if c.containerID(input) == "" {
		return ErrMissingContainer
	}
	return nil
}

func (c *Converter) containerID(input Input) string {
	if id := strings.TrimSpace(input.Container); id != "" {
		return id
	}
	return strings.TrimSpace(c.cfg.containerID)
}
