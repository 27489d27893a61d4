// Package layout decides, per slide, whether content is repacked into two
// columns and applies that projection reversibly.
//
// A slide is modelled as a flat snapshot of content blocks. Decisions are
// computed from block heights alone, so the packing rules can be tested
// without a rendering surface; State projects an accepted decision onto the
// HTML tree and restores the snapshot on Revert.
package layout

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"github.com/alnah/go-mdpress/internal/dom"
)

// Sentinel errors.
var (
	ErrInvalidViewport = errors.New("invalid viewport")
	ErrInvalidParams   = errors.New("invalid layout parameters")
	ErrMeasure         = errors.New("measurement failed")
)

// Kind classifies a content block.
type Kind int

const (
	KindText Kind = iota
	KindHeading
	KindCode
	KindTable
	KindDiagram
	KindFigure
	KindImage
	KindVideo
	KindSVG
)

var kindNames = [...]string{"text", "heading", "code", "table", "diagram", "figure", "image", "video", "svg"}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// Unbreakable reports whether a block of this kind must stay whole in one
// column.
func (k Kind) Unbreakable() bool {
	return k >= KindCode
}

// Visual reports whether the kind is a graphic rather than text or code.
func (k Kind) Visual() bool {
	switch k {
	case KindDiagram, KindFigure, KindImage, KindVideo, KindSVG:
		return true
	}
	return false
}

// Block is one top-level content node of a slide with its measured height
// in CSS pixels.
type Block struct {
	Node   *html.Node
	Kind   Kind
	Height float64
}

// Classify returns the kind of a slide child element.
func Classify(n *html.Node) Kind {
	if n == nil || n.Type != html.ElementNode {
		return KindText
	}
	switch n.Data {
	case "h1", "h2", "h3", "h4", "h5", "h6":
		return KindHeading
	case "pre":
		return KindCode
	case "table":
		return KindTable
	case "figure":
		return KindFigure
	case "img", "picture":
		return KindImage
	case "video":
		return KindVideo
	case "svg":
		return KindSVG
	case "div":
		switch {
		case dom.HasClass(n, "table-wrapper"):
			return KindTable
		case dom.HasClass(n, "mermaid"), dom.HasClass(n, "diagram"), dom.HasClass(n, "diagram-error"):
			return KindDiagram
		case dom.HasClass(n, "highlight"):
			return KindCode
		}
	case "p":
		if k, ok := soleMedia(n); ok {
			return k
		}
	}
	return KindText
}

// soleMedia reports the kind of a paragraph holding nothing but one image
// or video, which is how Markdown images come out.
func soleMedia(p *html.Node) (Kind, bool) {
	var media *html.Node
	for c := p.FirstChild; c != nil; c = c.NextSibling {
		switch c.Type {
		case html.TextNode:
			if strings.TrimSpace(c.Data) != "" {
				return 0, false
			}
		case html.ElementNode:
			target := c
			if c.Data == "a" {
				kids := dom.Children(c)
				if len(kids) != 1 {
					return 0, false
				}
				target = kids[0]
			}
			if media != nil || (target.Data != "img" && target.Data != "video") {
				return 0, false
			}
			media = target
		}
	}
	if media == nil {
		return 0, false
	}
	if media.Data == "video" {
		return KindVideo, true
	}
	return KindImage, true
}

// Viewport is the visible page area in CSS pixels.
type Viewport struct {
	Width  float64
	Height float64
}

// Known reports whether both dimensions are positive.
func (v Viewport) Known() bool {
	return v.Width > 0 && v.Height > 0
}

func (v Viewport) String() string {
	return strconv.FormatFloat(v.Width, 'f', -1, 64) + "x" + strconv.FormatFloat(v.Height, 'f', -1, 64)
}

// ParseViewport parses "WIDTHxHEIGHT", e.g. "1280x800".
func ParseViewport(s string) (Viewport, error) {
	w, h, ok := strings.Cut(strings.ToLower(strings.TrimSpace(s)), "x")
	if !ok {
		return Viewport{}, fmt.Errorf("%w: %q (want WIDTHxHEIGHT)", ErrInvalidViewport, s)
	}
	width, err := strconv.ParseFloat(strings.TrimSpace(w), 64)
	if err != nil {
		return Viewport{}, fmt.Errorf("%w: width %q", ErrInvalidViewport, w)
	}
	height, err := strconv.ParseFloat(strings.TrimSpace(h), 64)
	if err != nil {
		return Viewport{}, fmt.Errorf("%w: height %q", ErrInvalidViewport, h)
	}
	v := Viewport{Width: width, Height: height}
	if !v.Known() {
		return Viewport{}, fmt.Errorf("%w: %q must be positive", ErrInvalidViewport, s)
	}
	return v, nil
}

// Params are the thresholds of the two-column heuristic. Pixel values are
// CSS pixels; ratios are fractions of the available height unless noted.
type Params struct {
	MinWidth    float64 // narrowest viewport that may use two columns
	Padding     float64 // slide chrome subtracted from the viewport height
	SmallMargin float64 // slack below twice the available height
	SmallOffset float64 // slack below the available height when filling left

	UnbreakableMaxRatio      float64
	FirstUnbreakableMaxRatio float64
	MinBalanceRatio          float64 // min(left,right)/max(left,right)
	MinLeftFill              float64
	MinLeftFillWithVisual    float64
	LargeVisualRatio         float64
}

// DefaultParams returns the stock thresholds.
func DefaultParams() Params {
	return Params{
		MinWidth:                 1000,
		Padding:                  140,
		SmallMargin:              40,
		SmallOffset:              20,
		UnbreakableMaxRatio:      0.6,
		FirstUnbreakableMaxRatio: 0.5,
		MinBalanceRatio:          0.7,
		MinLeftFill:              0.55,
		MinLeftFillWithVisual:    0.6,
		LargeVisualRatio:         0.35,
	}
}

// Validate checks that thresholds are usable.
func (p Params) Validate() error {
	if p.MinWidth <= 0 {
		return fmt.Errorf("%w: minimum width must be positive, got %v", ErrInvalidParams, p.MinWidth)
	}
	if p.Padding < 0 || p.SmallMargin < 0 || p.SmallOffset < 0 {
		return fmt.Errorf("%w: paddings must not be negative", ErrInvalidParams)
	}
	for name, r := range map[string]float64{
		"unbreakable max":       p.UnbreakableMaxRatio,
		"first unbreakable max": p.FirstUnbreakableMaxRatio,
		"balance":               p.MinBalanceRatio,
		"left fill":             p.MinLeftFill,
		"left fill with visual": p.MinLeftFillWithVisual,
		"large visual":          p.LargeVisualRatio,
	} {
		if r <= 0 || r > 1 {
			return fmt.Errorf("%w: %s ratio %v outside (0,1]", ErrInvalidParams, name, r)
		}
	}
	return nil
}
