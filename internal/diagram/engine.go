package diagram

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"oss.terrastruct.com/d2/d2graph"
	"oss.terrastruct.com/d2/d2layouts/d2dagrelayout"
	"oss.terrastruct.com/d2/d2lib"
	"oss.terrastruct.com/d2/d2renderers/d2svg"
	"oss.terrastruct.com/d2/d2themes/d2themescatalog"
	"oss.terrastruct.com/d2/lib/textmeasure"
)

// Sentinel errors.
var (
	ErrNotReady = errors.New("diagram engine not ready")
	ErrCompile  = errors.New("diagram compile failed")
)

// Engine renders diagram source to SVG. Ready blocks until the engine can
// render or ctx ends.
type Engine interface {
	Ready(ctx context.Context) error
	Render(ctx context.Context, source string) ([]byte, error)
}

// D2Engine compiles d2 source in process. Its bootstrap (loading the font
// ruler) runs once in the background; Ready is the future callers wait on.
type D2Engine struct {
	log     *zap.Logger
	themeID int64

	startOnce sync.Once
	ready     chan struct{}
	ruler     *textmeasure.Ruler
	startErr  error

	mu    sync.Mutex // guards ruler use and cache
	cache map[[sha256.Size]byte][]byte
}

// NewD2Engine creates an engine. Call Start to begin bootstrapping early;
// Ready starts it on demand otherwise.
func NewD2Engine(log *zap.Logger) *D2Engine {
	if log == nil {
		log = zap.NewNop()
	}
	return &D2Engine{
		log:     log,
		themeID: d2themescatalog.NeutralDefault.ID,
		ready:   make(chan struct{}),
		cache:   map[[sha256.Size]byte][]byte{},
	}
}

// Start begins the bootstrap in the background. It is safe to call more
// than once.
func (e *D2Engine) Start() {
	e.startOnce.Do(func() {
		go func() {
			defer close(e.ready)
			ruler, err := textmeasure.NewRuler()
			if err != nil {
				e.startErr = fmt.Errorf("loading text ruler: %w", err)
				return
			}
			e.ruler = ruler
			e.log.Debug("d2 engine ready")
		}()
	})
}

// Ready waits for the bootstrap to finish.
func (e *D2Engine) Ready(ctx context.Context) error {
	e.Start()
	select {
	case <-e.ready:
		return e.startErr
	case <-ctx.Done():
		return fmt.Errorf("%w: %w", ErrNotReady, ctx.Err())
	}
}

// Render compiles source and returns the SVG. Identical sources are
// compiled once.
func (e *D2Engine) Render(ctx context.Context, source string) ([]byte, error) {
	if err := e.Ready(ctx); err != nil {
		return nil, err
	}

	sum := sha256.Sum256([]byte(source))
	e.mu.Lock()
	defer e.mu.Unlock()
	if svg, ok := e.cache[sum]; ok {
		return svg, nil
	}

	layout := func(ctx context.Context, g *d2graph.Graph) error {
		return d2dagrelayout.Layout(ctx, g, nil)
	}
	diagram, _, err := d2lib.Compile(ctx, source, &d2lib.CompileOptions{
		Layout: layout,
		Ruler:  e.ruler,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCompile, err)
	}

	svg, err := d2svg.Render(diagram, &d2svg.RenderOpts{
		Pad:     d2svg.DEFAULT_PADDING,
		ThemeID: e.themeID,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: rendering svg: %v", ErrCompile, err)
	}
	e.cache[sum] = svg
	return svg, nil
}
