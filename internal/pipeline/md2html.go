package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	stdhtml "html"
	"regexp"
	"strconv"
	"strings"
	"sync"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"

	"github.com/alnah/go-mdpress/internal/toc"
)

// ErrHTMLConversion indicates HTML conversion failed.
var ErrHTMLConversion = errors.New("HTML conversion failed")

// placeholderRun matches the private-use placeholders the render stages
// leave in heading text: an opening rune, an index, a closing rune.
var placeholderRun = regexp.MustCompile(`[\x{E000}-\x{F8FF}]\d*[\x{E000}-\x{F8FF}]?`)

// HTMLConverter abstracts Markdown to HTML conversion.
type HTMLConverter interface {
	ToHTML(ctx context.Context, content string, ids *HeadingIDs) (string, error)
}

// HeadingIDs generates heading ids for one document. Slides of a deck are
// converted separately but share one HeadingIDs, so ids stay unique across
// the whole page. Safe for concurrent use.
type HeadingIDs struct {
	mu   sync.Mutex
	seen map[string]bool
}

// NewHeadingIDs returns an empty id set.
func NewHeadingIDs() *HeadingIDs {
	return &HeadingIDs{seen: map[string]bool{}}
}

// Generate implements parser.IDs. Ids are slugs of the heading text; a
// repeated slug gets a numeric suffix and an empty one a random id.
func (h *HeadingIDs) Generate(value []byte, _ ast.NodeKind) []byte {
	text := placeholderRun.ReplaceAllString(string(value), "")
	base := toc.Slugify(text)
	if base == "" {
		base = toc.FallbackID()
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	id := base
	for i := 1; h.seen[id]; i++ {
		id = base + "-" + strconv.Itoa(i)
	}
	h.seen[id] = true
	return []byte(id)
}

// Put implements parser.IDs. It reserves an explicitly set id.
func (h *HeadingIDs) Put(value []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.seen[string(value)] = true
}

// GoldmarkConverter converts Markdown to HTML fragments using goldmark (pure Go).
type GoldmarkConverter struct {
	md goldmark.Markdown
}

// NewGoldmarkConverter creates a GoldmarkConverter with GFM extensions and syntax highlighting.
func NewGoldmarkConverter() *GoldmarkConverter {
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM, // Tables, strikethrough, autolinks, task lists
			highlighting.NewHighlighting(
				highlighting.WithFormatOptions(
					chromahtml.WithClasses(true), // styled by the page's code stylesheet
				),
			),
		),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(), // ids come from HeadingIDs
		),
		goldmark.WithRendererOptions(
			html.WithHardWraps(), // Treat newlines as <br>
			// WithUnsafe() is not used: markers, diagrams and highlights
			// travel as placeholders expanded after conversion.
		),
	)
	return &GoldmarkConverter{md: md}
}

// ToHTML converts Markdown content to an HTML fragment. A nil ids uses a
// fresh id set. Supports context cancellation via goroutine + select pattern
// since Goldmark doesn't natively support context.
func (c *GoldmarkConverter) ToHTML(ctx context.Context, content string, ids *HeadingIDs) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if ids == nil {
		ids = NewHeadingIDs()
	}

	type result struct {
		html string
		err  error
	}

	done := make(chan result, 1)

	go func() {
		var buf bytes.Buffer
		pc := parser.NewContext(parser.WithIDs(ids))
		if err := c.md.Convert([]byte(content), &buf, parser.WithContext(pc)); err != nil {
			done <- result{err: fmt.Errorf("%w: %v", ErrHTMLConversion, err)}
			return
		}
		done <- result{html: buf.String()}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r := <-done:
		return r.html, r.err
	}
}

// InlineRenderer renders short Markdown snippets, such as footnote text,
// without a wrapping paragraph.
type InlineRenderer struct {
	md goldmark.Markdown
}

// NewInlineRenderer creates an InlineRenderer with GFM inline syntax.
func NewInlineRenderer() *InlineRenderer {
	return &InlineRenderer{md: goldmark.New(goldmark.WithExtensions(extension.GFM))}
}

// Render returns the inline HTML of markdown. On failure it returns the
// escaped text.
func (r *InlineRenderer) Render(markdown string) string {
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(convertHighlights(markdown)), &buf); err != nil {
		return stdhtml.EscapeString(markdown)
	}
	out := ConvertMarkPlaceholders(strings.TrimSpace(buf.String()))
	if strings.HasPrefix(out, "<p>") && strings.HasSuffix(out, "</p>") && strings.Count(out, "<p>") == 1 {
		out = strings.TrimSuffix(strings.TrimPrefix(out, "<p>"), "</p>")
	}
	return out
}
