package layout

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Engine evaluates and applies the two-column layout of slides.
type Engine struct {
	params   Params
	measurer Measurer
	log      *zap.Logger
}

// NewEngine creates an Engine. A nil measurer uses EstimateMeasurer and a
// nil logger disables logging.
func NewEngine(params Params, measurer Measurer, log *zap.Logger) (*Engine, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if measurer == nil {
		measurer = EstimateMeasurer{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{params: params, measurer: measurer, log: log}, nil
}

// Params returns the engine thresholds.
func (e *Engine) Params() Params { return e.params }

// Evaluate measures the slide's flat snapshot at vp, decides and applies
// the result. Measurements always read the snapshot, never a two-column
// projection. On a measurement error the current state is kept and the
// error, wrapping ErrMeasure, is returned.
func (e *Engine) Evaluate(ctx context.Context, s *State, vp Viewport) (Decision, error) {
	if !vp.Known() || vp.Width < e.params.MinWidth {
		d := e.params.Decide(nil, vp)
		s.Apply(d)
		return d, nil
	}

	blocks := s.Blocks()
	heights, err := e.measurer.Measure(ctx, Request{Blocks: blocks, Viewport: vp, Base: s.Base})
	if err != nil {
		return s.Decision(), fmt.Errorf("%w: slide %d: %v", ErrMeasure, s.Slide, err)
	}
	if len(heights) != len(blocks) {
		return s.Decision(), fmt.Errorf("%w: slide %d: got %d heights for %d blocks", ErrMeasure, s.Slide, len(heights), len(blocks))
	}
	for i, b := range blocks {
		b.Height = heights[i]
	}

	d := e.params.Decide(blocks, vp)
	s.Apply(d)
	e.log.Debug("layout evaluated",
		zap.Int("slide", s.Slide),
		zap.Bool("two_column", d.TwoColumn),
		zap.String("reason", string(d.Reason)),
		zap.Float64("content_height", d.ContentHeight),
		zap.Float64("available", d.Available),
	)
	return d, nil
}
