// Package diagram lifts fenced diagram blocks out of Markdown and renders
// them. Mermaid blocks are left to the browser runtime; d2 blocks are
// compiled to inline SVG in process.
package diagram

import (
	"html"
	"regexp"
	"strconv"
	"strings"
)

// Diagram languages recognized on a fence info string.
const (
	Mermaid = "mermaid"
	D2      = "d2"
)

// Container classes. The mermaid runtime discovers its blocks by the
// mermaid class.
const (
	ClassMermaid = "mermaid"
	ClassD2      = "diagram d2"
	ClassError   = "diagram-error"
)

const (
	placeholderStart = "\uE300"
	placeholderEnd   = "\uE301"
)

var (
	fencePattern       = regexp.MustCompile("(?ms)^```[ \\t]*(mermaid|d2)[ \\t]*\\n(.*?)^```[ \\t]*$")
	placeholderPattern = regexp.MustCompile(`(?:<p>)?` + placeholderStart + `(\d+)` + placeholderEnd + `(?:</p>)?`)
)

// Block is one diagram lifted out of a Markdown source.
type Block struct {
	Index  int
	Lang   string
	Source string
}

// Extract replaces every fenced diagram block in markdown with a standalone
// placeholder paragraph and returns the blocks in document order.
func Extract(markdown string) (string, []Block) {
	var blocks []Block
	out := fencePattern.ReplaceAllStringFunc(markdown, func(m string) string {
		sub := fencePattern.FindStringSubmatch(m)
		i := len(blocks)
		blocks = append(blocks, Block{
			Index:  i,
			Lang:   sub[1],
			Source: strings.TrimRight(sub[2], "\n"),
		})
		return "\n" + placeholderStart + strconv.Itoa(i) + placeholderEnd + "\n"
	})
	return out, blocks
}

// Expand swaps placeholders in converted HTML for diagram containers. A
// placeholder with no matching block is left unchanged.
func Expand(s string, blocks []Block) string {
	if len(blocks) == 0 {
		return s
	}
	return placeholderPattern.ReplaceAllStringFunc(s, func(m string) string {
		i, err := strconv.Atoi(placeholderPattern.FindStringSubmatch(m)[1])
		if err != nil || i < 0 || i >= len(blocks) {
			return m
		}
		return Container(blocks[i])
	})
}

// Container renders the element that holds b until it is drawn.
func Container(b Block) string {
	src := html.EscapeString(b.Source)
	if b.Lang == Mermaid {
		return `<div class="` + ClassMermaid + `">` + src + `</div>`
	}
	return `<div class="` + ClassD2 + `" data-diagram="` + b.Lang + `"><pre class="diagram-source">` + src + `</pre></div>`
}
