// Package toc builds the sidebar table of contents from rendered HTML.
package toc

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/net/html"

	"github.com/alnah/go-mdpress/internal/dom"
	"github.com/alnah/go-mdpress/internal/slides"
)

// selfTitles are the headings that name the outline itself.
var selfTitles = map[string]bool{
	"table of contents": true,
	"目录":                true,
}

var (
	spacePattern   = regexp.MustCompile(`\s+`)
	nonWordPattern = regexp.MustCompile(`[^\p{L}\p{N}_-]+`)
)

// Heading is one heading found in rendered output.
type Heading struct {
	Level int
	Text  string
	ID    string
	Slide int // 0 outside slide mode
}

// Node is a heading in the outline forest.
type Node struct {
	Heading
	Children []*Node
}

// Slugify lowercases s, turns whitespace runs into hyphens and strips
// everything that is not a word character or a hyphen.
func Slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = spacePattern.ReplaceAllString(s, "-")
	return nonWordPattern.ReplaceAllString(s, "")
}

// IsSelfTitle reports whether text names the outline itself.
func IsSelfTitle(text string) bool {
	return selfTitles[strings.ToLower(strings.TrimSpace(text))]
}

// Extract walks root for h1-h6 headings in document order. Headings titled
// like the outline itself are skipped. Headings without an id receive one:
// the slug of their text, or a random "toc-" id when the slug is empty. Ids
// are written back to the tree so links resolve.
func Extract(root *html.Node) []Heading {
	var out []Heading
	var walk func(n *html.Node, slide int)
	walk = func(n *html.Node, slide int) {
		if n.Type == html.ElementNode {
			if n.Data == "section" && dom.HasClass(n, "slide") {
				if id, ok := dom.Attr(n, "id"); ok {
					if s, ok := slides.ParseAnchor(id); ok {
						slide = s
					}
				}
			}
			if level := headingLevel(n.Data); level > 0 {
				text := HeadingText(n)
				if text != "" && !IsSelfTitle(text) {
					out = append(out, Heading{Level: level, Text: text, ID: ensureID(n, text), Slide: slide})
				}
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c, slide)
		}
	}
	walk(root, 0)
	return out
}

// HeadingText returns the trimmed text of heading n without the footnote
// and citation markers rendered inside it.
func HeadingText(n *html.Node) string {
	var b strings.Builder
	dom.Walk(n, func(c *html.Node) bool {
		if dom.IsElement(c, "sup") && (dom.HasClass(c, "footnote-ref") || dom.HasClass(c, "citation")) {
			return false
		}
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
		}
		return true
	})
	return strings.TrimSpace(b.String())
}

func ensureID(n *html.Node, text string) string {
	if id, ok := dom.Attr(n, "id"); ok && id != "" {
		return id
	}
	id := Slugify(text)
	if id == "" {
		id = FallbackID()
	}
	dom.SetAttr(n, "id", id)
	return id
}

// FallbackID returns a random heading id for text that slugifies to nothing.
func FallbackID() string {
	return "toc-" + uuid.NewString()
}

func headingLevel(tag string) int {
	if len(tag) == 2 && tag[0] == 'h' && tag[1] >= '1' && tag[1] <= '6' {
		return int(tag[1] - '0')
	}
	return 0
}

// Build nests headings by level. A virtual level-0 root anchors the stack;
// each heading closes every open node of equal or deeper level and attaches
// to the node left on top. Skipped levels nest under the nearest shallower
// heading.
func Build(headings []Heading) []*Node {
	root := &Node{}
	stack := []*Node{root}
	for _, h := range headings {
		for len(stack) > 1 && stack[len(stack)-1].Level >= h.Level {
			stack = stack[:len(stack)-1]
		}
		n := &Node{Heading: h}
		parent := stack[len(stack)-1]
		parent.Children = append(parent.Children, n)
		stack = append(stack, n)
	}
	return root.Children
}

// RenderOptions controls the sidebar markup.
type RenderOptions struct {
	Title     string // defaults to "Contents"
	SlideMode bool
}

// Render produces the sidebar navigation for forest. The sidebar starts
// hidden; the runtime script restores the persisted visibility.
func Render(forest []*Node, opts RenderOptions) string {
	title := opts.Title
	if title == "" {
		title = "Contents"
	}

	hidden := ""
	if !DefaultVisibility {
		hidden = " hidden"
	}

	var b strings.Builder
	b.WriteString(`<nav class="toc-sidebar" id="toc-sidebar" data-default-hidden="` + (!DefaultVisibility).String() + `" aria-label="` + html.EscapeString(title) + `"` + hidden + ">\n")
	b.WriteString(`<div class="toc-title">` + html.EscapeString(title) + "</div>\n")
	renderList(&b, forest, opts)
	b.WriteString("</nav>\n")
	b.WriteString(`<button type="button" class="toc-toggle" id="toc-toggle" aria-controls="toc-sidebar" aria-expanded="` + DefaultVisibility.String() + `">` + html.EscapeString(title) + "</button>\n")
	return b.String()
}

func renderList(b *strings.Builder, nodes []*Node, opts RenderOptions) {
	if len(nodes) == 0 {
		return
	}
	b.WriteString("<ul>\n")
	for _, n := range nodes {
		b.WriteString(`<li class="toc-level-` + strconv.Itoa(n.Level) + `"><a href="#` + html.EscapeString(n.ID) + `" data-target="` + html.EscapeString(n.ID) + `"`)
		if opts.SlideMode && n.Slide > 0 {
			b.WriteString(` data-slide="` + strconv.Itoa(n.Slide) + `"`)
		}
		b.WriteString(">" + html.EscapeString(n.Text) + "</a>")
		if len(n.Children) > 0 {
			b.WriteString("\n")
			renderList(b, n.Children, opts)
		}
		b.WriteString("</li>\n")
	}
	b.WriteString("</ul>\n")
}
