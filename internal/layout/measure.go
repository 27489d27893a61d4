package layout

import (
	"context"
	"math"
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"github.com/alnah/go-mdpress/internal/dom"
)

// Request is one measurement: Blocks laid out in a single column at
// Viewport. Base is the URL relative media paths in the blocks resolve
// against; empty leaves them relative to the measuring page.
type Request struct {
	Blocks   []*Block
	Viewport Viewport
	Base     string
}

// Measurer returns the rendered height of each requested block, in order.
type Measurer interface {
	Measure(ctx context.Context, req Request) ([]float64, error)
}

// Estimate constants, in CSS pixels.
const (
	estimateMaxContentWidth = 1100
	estimateSidePadding     = 96
	estimateCharWidth       = 9
	estimateLineHeight      = 27
	estimateCodeLineHeight  = 21
	estimateBlockMargin     = 16
	estimateTableRowHeight  = 37
	estimateDefaultMedia    = 240
	estimateDefaultDiagram  = 220
)

var headingHeights = map[string]float64{
	"h1": 58, "h2": 48, "h3": 40, "h4": 34, "h5": 30, "h6": 28,
}

// EstimateMeasurer approximates heights from the HTML alone: wrapped text
// lines, code line counts, table rows and declared media sizes. It needs no
// browser.
type EstimateMeasurer struct{}

// Measure implements Measurer.
func (EstimateMeasurer) Measure(_ context.Context, req Request) ([]float64, error) {
	width := math.Min(req.Viewport.Width, estimateMaxContentWidth) - estimateSidePadding
	if width < 200 {
		width = 200
	}
	out := make([]float64, len(req.Blocks))
	for i, b := range req.Blocks {
		out[i] = estimate(b, width)
	}
	return out, nil
}

func estimate(b *Block, width float64) float64 {
	n := b.Node
	switch b.Kind {
	case KindHeading:
		h := headingHeights[n.Data]
		lines := textLines(dom.Text(n), width*0.6)
		return h*lines + estimateBlockMargin
	case KindCode:
		lines := strings.Count(strings.TrimRight(rawText(n), "\n"), "\n") + 1
		return float64(lines)*estimateCodeLineHeight + 2*estimateBlockMargin
	case KindTable:
		rows := len(dom.Find(n, func(c *html.Node) bool { return dom.IsElement(c, "tr") }))
		return float64(max(rows, 1))*estimateTableRowHeight + estimateBlockMargin
	case KindImage, KindVideo, KindSVG, KindFigure:
		return mediaHeight(n, width, estimateDefaultMedia) + estimateBlockMargin
	case KindDiagram:
		return mediaHeight(n, width, estimateDefaultDiagram) + estimateBlockMargin
	}

	items := dom.Find(n, func(c *html.Node) bool { return dom.IsElement(c, "li") })
	if len(items) > 0 {
		total := 0.0
		for _, li := range items {
			total += textLines(ownText(li), width-32) * estimateLineHeight
		}
		return total + estimateBlockMargin
	}
	return textLines(dom.Text(n), width)*estimateLineHeight + estimateBlockMargin
}

func textLines(text string, width float64) float64 {
	perLine := math.Max(1, math.Floor(width/estimateCharWidth))
	total := 0.0
	for _, line := range strings.Split(text, "\n") {
		total += math.Max(1, math.Ceil(float64(len([]rune(line)))/perLine))
	}
	return total
}

// mediaHeight finds the first sized graphic under n and scales it to width.
func mediaHeight(n *html.Node, width, fallback float64) float64 {
	for _, c := range dom.Find(n, func(c *html.Node) bool {
		return dom.IsElement(c, "img") || dom.IsElement(c, "svg") || dom.IsElement(c, "video")
	}) {
		w, h := declaredSize(c)
		if h <= 0 {
			continue
		}
		if w > width {
			h *= width / w
		}
		return h
	}
	return fallback
}

func declaredSize(n *html.Node) (w, h float64) {
	w = attrFloat(n, "width")
	h = attrFloat(n, "height")
	if h > 0 {
		return w, h
	}
	if vb, ok := dom.Attr(n, "viewBox"); ok {
		if f := strings.Fields(strings.ReplaceAll(vb, ",", " ")); len(f) == 4 {
			w, _ = strconv.ParseFloat(f[2], 64)
			h, _ = strconv.ParseFloat(f[3], 64)
		}
	}
	return w, h
}

func attrFloat(n *html.Node, key string) float64 {
	v, ok := dom.Attr(n, key)
	if !ok {
		return 0
	}
	f, err := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(v), "px"), 64)
	if err != nil {
		return 0
	}
	return f
}

func rawText(n *html.Node) string {
	var b strings.Builder
	dom.Walk(n, func(c *html.Node) bool {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
		}
		return true
	})
	return b.String()
}

// ownText is the text of li without nested lists.
func ownText(li *html.Node) string {
	var b strings.Builder
	dom.Walk(li, func(c *html.Node) bool {
		if c != li && (dom.IsElement(c, "ul") || dom.IsElement(c, "ol")) {
			return false
		}
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
		}
		return true
	})
	return strings.TrimSpace(b.String())
}
