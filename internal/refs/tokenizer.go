// Package refs numbers footnote and citation markers and renders the
// trailing footnote and reference sections.
//
// Tokenize runs on fence-shielded text, so markers inside fenced code and
// HTML comments are never rewritten. Markers are replaced with opaque
// placeholders that survive Markdown conversion; RenderMarkers expands them
// into superscript links once the HTML exists.
package refs

import (
	"html"
	"regexp"
	"strconv"
	"strings"

	"github.com/alnah/go-mdpress/internal/shield"
)

const (
	markerStart = "\uE200"
	markerEnd   = "\uE201"
)

var (
	// [^key]: text, optionally behind a list or quote prefix.
	definitionPattern = regexp.MustCompile(`^[ \t]*(?:(?:[-*+]|\d+[.)]|>)[ \t]*)*\[\^([^\]\s]+)\]:[ \t]*(.*)$`)

	// [@key] or [^key]
	referencePattern = regexp.MustCompile(`\[([@^])([^\]\s]+)\]`)

	markerPattern = regexp.MustCompile(markerStart + `(\d+)` + markerEnd)
)

// Result is the outcome of one tokenizer pass.
type Result struct {
	// Text is the rewritten Markdown: definitions removed, markers replaced
	// by placeholders, shielded regions restored.
	Text string

	// Registry holds the numbering of this pass.
	Registry *Registry

	// Definitions maps footnote keys to their raw definition text.
	Definitions map[string]string

	markers []Ref
}

// Tokenize extracts footnote definitions and numbers every reference marker
// in text. Numbering starts at 1 for each call.
func Tokenize(text string) Result {
	sh := shield.Shield(text)
	body, defs := extractDefinitions(sh.Text())

	reg := NewRegistry()
	var markers []Ref
	body = referencePattern.ReplaceAllStringFunc(body, func(m string) string {
		sub := referencePattern.FindStringSubmatch(m)
		kind := Footnote
		if sub[1] == "@" {
			kind = Citation
		}
		n := reg.Assign(kind, sub[2])
		markers = append(markers, Ref{Kind: kind, Key: sub[2], Number: n})
		return markerStart + strconv.Itoa(len(markers)-1) + markerEnd
	})

	for k, v := range defs {
		defs[k] = sh.Restore(v)
	}

	return Result{
		Text:        sh.Restore(body),
		Registry:    reg,
		Definitions: defs,
		markers:     markers,
	}
}

// RenderMarkers expands marker placeholders in converted HTML into
// superscript links. Placeholders it does not know are left as they are.
func (r Result) RenderMarkers(s string) string {
	if len(r.markers) == 0 {
		return s
	}
	return markerPattern.ReplaceAllStringFunc(s, func(m string) string {
		i, err := strconv.Atoi(markerPattern.FindStringSubmatch(m)[1])
		if err != nil || i < 0 || i >= len(r.markers) {
			return m
		}
		return MarkerHTML(r.markers[i])
	})
}

// Markers returns every reference occurrence in scan order.
func (r Result) Markers() []Ref {
	return append([]Ref(nil), r.markers...)
}

// MarkerHTML renders one inline reference marker.
func MarkerHTML(ref Ref) string {
	key := html.EscapeString(ref.Key)
	n := strconv.Itoa(ref.Number)
	if ref.Kind == Citation {
		return `<sup class="citation" id="cite-` + key + `"><a href="#ref-` + key + `">[` + n + `]</a></sup>`
	}
	return `<sup class="footnote-ref" id="fnref-` + key + `"><a href="#fn-` + key + `">` + n + `</a></sup>`
}

// extractDefinitions removes definition lines and their indented
// continuation lines from text. The first definition of a key wins.
func extractDefinitions(text string) (string, map[string]string) {
	defs := map[string]string{}
	lines := strings.Split(text, "\n")
	kept := make([]string, 0, len(lines))

	for i := 0; i < len(lines); i++ {
		m := definitionPattern.FindStringSubmatch(lines[i])
		if m == nil {
			kept = append(kept, lines[i])
			continue
		}

		parts := []string{strings.TrimSpace(m[2])}
		for i+1 < len(lines) && isContinuation(lines[i+1]) {
			i++
			parts = append(parts, strings.TrimSpace(lines[i]))
		}
		if _, seen := defs[m[1]]; !seen {
			defs[m[1]] = strings.TrimSpace(strings.Join(parts, " "))
		}
	}
	return strings.Join(kept, "\n"), defs
}

func isContinuation(line string) bool {
	if line == "" || (line[0] != ' ' && line[0] != '\t') {
		return false
	}
	return strings.TrimSpace(line) != "" && !definitionPattern.MatchString(line)
}

// ScanDefinitions finds every footnote definition in text without
// modifying it. Definitions inside fenced code and comments are ignored.
func ScanDefinitions(text string) map[string]string {
	sh := shield.Shield(text)
	_, defs := extractDefinitions(sh.Text())
	for k, v := range defs {
		defs[k] = sh.Restore(v)
	}
	return defs
}
