package diagram

import (
	"bytes"
	"context"
	"errors"

	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/alnah/go-mdpress/internal/dom"
)

const renderedAttr = "data-rendered"

// Renderer draws the d2 containers of a parsed HTML tree.
type Renderer struct {
	engine Engine
	log    *zap.Logger
}

// NewRenderer creates a Renderer. A nil logger disables logging.
func NewRenderer(engine Engine, log *zap.Logger) *Renderer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Renderer{engine: engine, log: log}
}

// Pending returns the d2 containers under root that are not drawn yet.
func Pending(root *html.Node) []*html.Node {
	return dom.Find(root, func(n *html.Node) bool {
		if n.Type != html.ElementNode || n.Data != "div" {
			return false
		}
		lang, _ := dom.Attr(n, "data-diagram")
		_, done := dom.Attr(n, renderedAttr)
		return lang == D2 && !done
	})
}

// RenderAll draws every pending container under root and returns how many
// received an SVG. Compile failures become inline error blocks. The first
// engine error that is not a compile failure stops the walk and is returned.
func (r *Renderer) RenderAll(ctx context.Context, root *html.Node) (int, error) {
	drawn := 0
	for _, n := range Pending(root) {
		ok, err := r.RenderNode(ctx, n)
		if ok {
			drawn++
		}
		if err != nil && !errors.Is(err, ErrCompile) {
			return drawn, err
		}
	}
	return drawn, nil
}

// RenderNode replaces the source of one container with its SVG. On a
// compile error the container becomes a diagram-error block showing the
// message and the source.
func (r *Renderer) RenderNode(ctx context.Context, n *html.Node) (bool, error) {
	source := sourceOf(n)
	svg, err := r.engine.Render(ctx, source)
	if errors.Is(err, ErrCompile) {
		r.log.Debug("diagram compile failed", zap.Error(err))
		markError(n, err, source)
		return false, err
	}
	if err != nil {
		return false, err
	}

	frag, err := dom.ParseFragmentIn(string(stripXMLDecl(svg)), n)
	if err != nil {
		markError(n, err, source)
		return false, err
	}
	dom.RemoveChildren(n)
	for c := frag.FirstChild; c != nil; {
		next := c.NextSibling
		frag.RemoveChild(c)
		n.AppendChild(c)
		c = next
	}
	dom.SetAttr(n, renderedAttr, "true")
	return true, nil
}

func sourceOf(n *html.Node) string {
	for _, c := range dom.Children(n) {
		if dom.HasClass(c, "diagram-source") {
			// Text trims, but raw content is what the compiler needs.
			var buf bytes.Buffer
			for t := c.FirstChild; t != nil; t = t.NextSibling {
				if t.Type == html.TextNode {
					buf.WriteString(t.Data)
				}
			}
			return buf.String()
		}
	}
	return dom.Text(n)
}

func markError(n *html.Node, err error, source string) {
	dom.RemoveChildren(n)
	dom.SetAttr(n, "class", ClassError)
	dom.SetAttr(n, renderedAttr, "error")

	msg := dom.Element("p", "class", "diagram-error-message")
	msg.AppendChild(&html.Node{Type: html.TextNode, Data: err.Error()})
	n.AppendChild(msg)

	pre := dom.Element("pre", "class", "diagram-source")
	pre.AppendChild(&html.Node{Type: html.TextNode, Data: source})
	n.AppendChild(pre)
}

func stripXMLDecl(svg []byte) []byte {
	svg = bytes.TrimSpace(svg)
	if bytes.HasPrefix(svg, []byte("<?xml")) {
		if i := bytes.Index(svg, []byte("?>")); i >= 0 {
			return bytes.TrimSpace(svg[i+2:])
		}
	}
	return svg
}
