package mdpress

import (
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/alnah/go-mdpress/internal/layout"
)

// Input contains rendering parameters for one document.
type Input struct {
	Markdown string // Markdown content (required by Convert)

	// Source is the location of the document, a file path or URL. It is
	// the base for the bibliography and relative media. RenderSource
	// fetches the document from it.
	Source string

	// OutputDir is the directory the page will be written to. Relative
	// media paths of a local source are rewritten against it.
	OutputDir string

	Container string // container id (optional, defaults to the converter's)
	Title     string // page title fallback (optional)
	CSS       string // extra CSS appended after every other style (optional)
}

// Result is the outcome of a render.
type Result struct {
	HTML      []byte
	Title     string
	SlideMode bool
	Slides    int // 0 in document mode
	Headings  int
	Layouts   []SlideLayout

	// Warnings combines the non-fatal problems met during the render, such
	// as measurement failures or a diagram engine that was not ready. Use
	// multierr.Errors to list them.
	Warnings error
}

// SlideLayout reports the layout chosen for one slide.
type SlideLayout struct {
	Slide     int
	TwoColumn bool
	Reason    string
}

// LayoutParams are the thresholds of the two-column heuristic.
type LayoutParams = layout.Params

// DefaultLayoutParams returns the stock two-column thresholds.
func DefaultLayoutParams() LayoutParams {
	return layout.DefaultParams()
}

// Viewport is the page area the layout is computed for, in CSS pixels.
type Viewport = layout.Viewport

// ParseViewport parses "WIDTHxHEIGHT", e.g. "1280x800".
func ParseViewport(s string) (Viewport, error) {
	return layout.ParseViewport(s)
}

// Default values of the converter configuration.
const (
	DefaultContainerID    = "mdpress"
	DefaultTOCTitle       = "Contents"
	DefaultDiagramTimeout = 10 * time.Second

	// defaultTimeout bounds one render, measurement included.
	defaultTimeout = 30 * time.Second
)

// DefaultViewport is the viewport layouts are computed for unless
// WithViewport says otherwise.
var DefaultViewport = Viewport{Width: 1280, Height: 800}

// converterConfig holds internal configuration for Converter.
type converterConfig struct {
	log            *zap.Logger
	timeout        time.Duration
	forceLight     bool
	preferMinified bool
	layout         LayoutParams
	viewport       Viewport
	browserMeasure bool
	assetPath      string
	assetLoader    AssetLoader
	style          string
	diagrams       bool
	diagramTimeout time.Duration
	toc            bool
	tocTitle       string
	httpClient     *http.Client
	containerID    string
	lang           string
}

func defaultConfig() converterConfig {
	return converterConfig{
		log:            zap.NewNop(),
		timeout:        defaultTimeout,
		preferMinified: true,
		layout:         DefaultLayoutParams(),
		viewport:       DefaultViewport,
		diagrams:       true,
		diagramTimeout: DefaultDiagramTimeout,
		toc:            true,
		tocTitle:       DefaultTOCTitle,
		containerID:    DefaultContainerID,
	}
}

// Option configures a Converter.
type Option func(*converterConfig)

// WithLogger sets the logger. A nil logger disables logging.
func WithLogger(l *zap.Logger) Option {
	return func(c *converterConfig) {
		if l == nil {
			l = zap.NewNop()
		}
		c.log = l
	}
}

// WithTimeout sets the deadline of one render.
// Panics if d is zero or negative.
func WithTimeout(d time.Duration) Option {
	if d <= 0 {
		panic("mdpress: WithTimeout duration must be positive")
	}
	return func(c *converterConfig) {
		c.timeout = d
	}
}

// WithForceLightTheme disables the dark color scheme.
func WithForceLightTheme(force bool) Option {
	return func(c *converterConfig) {
		c.forceLight = force
	}
}

// WithPreferMinified picks the minified mermaid build.
func WithPreferMinified(prefer bool) Option {
	return func(c *converterConfig) {
		c.preferMinified = prefer
	}
}

// WithTwoColumnMinWidth sets the narrowest viewport, in CSS pixels, that may
// use two columns. NewConverter returns ErrInvalidMinWidth when w is not
// positive.
func WithTwoColumnMinWidth(w float64) Option {
	return func(c *converterConfig) {
		c.layout.MinWidth = w
	}
}

// WithLayoutParams replaces every two-column threshold.
func WithLayoutParams(p LayoutParams) Option {
	return func(c *converterConfig) {
		c.layout = p
	}
}

// WithViewport sets the viewport layouts are computed for.
func WithViewport(v Viewport) Option {
	return func(c *converterConfig) {
		c.viewport = v
	}
}

// WithBrowserMeasure measures slide content in headless Chrome instead of
// estimating heights from the HTML.
func WithBrowserMeasure(enabled bool) Option {
	return func(c *converterConfig) {
		c.browserMeasure = enabled
	}
}

// WithAssetPath sets a directory of custom assets. Files found there take
// precedence over the embedded ones.
func WithAssetPath(path string) Option {
	return func(c *converterConfig) {
		c.assetPath = path
	}
}

// WithAssetLoader sets a custom asset loader. It takes precedence over
// WithAssetPath.
func WithAssetLoader(l AssetLoader) Option {
	return func(c *converterConfig) {
		c.assetLoader = l
	}
}

// WithStyle adds a stylesheet after the built-in one. The value may be a
// style name known to the asset loader, a path to a CSS file or CSS content.
func WithStyle(style string) Option {
	return func(c *converterConfig) {
		c.style = style
	}
}

// WithDiagrams enables in-process rendering of d2 diagrams.
func WithDiagrams(enabled bool) Option {
	return func(c *converterConfig) {
		c.diagrams = enabled
	}
}

// WithDiagramTimeout bounds the wait for the diagram engine.
// Panics if d is zero or negative.
func WithDiagramTimeout(d time.Duration) Option {
	if d <= 0 {
		panic("mdpress: WithDiagramTimeout duration must be positive")
	}
	return func(c *converterConfig) {
		c.diagramTimeout = d
	}
}

// WithTOC enables the sidebar table of contents.
func WithTOC(enabled bool) Option {
	return func(c *converterConfig) {
		c.toc = enabled
	}
}

// WithTOCTitle sets the sidebar title.
func WithTOCTitle(title string) Option {
	return func(c *converterConfig) {
		c.tocTitle = title
	}
}

// WithHTTPClient sets the client used for remote documents and
// bibliographies.
func WithHTTPClient(client *http.Client) Option {
	return func(c *converterConfig) {
		c.httpClient = client
	}
}

// WithContainerID sets the id of the element that holds the rendered
// document.
func WithContainerID(id string) Option {
	return func(c *converterConfig) {
		c.containerID = id
	}
}

// WithLang sets the page language used when the front matter has none.
func WithLang(lang string) Option {
	return func(c *converterConfig) {
		c.lang = lang
	}
}

func (c converterConfig) validate() error {
	if c.layout.MinWidth <= 0 {
		return fmt.Errorf("%w: %v", ErrInvalidMinWidth, c.layout.MinWidth)
	}
	if err := c.layout.Validate(); err != nil {
		return err
	}
	if !c.viewport.Known() {
		return fmt.Errorf("%w: %s", ErrInvalidViewport, c.viewport)
	}
	return nil
}
