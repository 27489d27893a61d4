// Package slides cuts a document body into slides on bare separator lines.
package slides

import (
	"strconv"
	"strings"

	"github.com/alnah/go-mdpress/internal/shield"
)

// Separator is the line that divides two slides.
const Separator = "---"

// anchorPrefix prefixes the deep-link id of a slide.
const anchorPrefix = "slide-"

// Slide is one independently rendered segment of a deck.
type Slide struct {
	Index int // 1-based
	Text  string
}

// ID returns the deep-link id of the slide.
func (s Slide) ID() string {
	return Anchor(s.Index)
}

// Anchor returns the deep-link id of slide n.
func Anchor(n int) string {
	return anchorPrefix + strconv.Itoa(n)
}

// ParseAnchor parses a "slide-<n>" fragment, with or without a leading '#'.
func ParseAnchor(fragment string) (int, bool) {
	fragment = strings.TrimPrefix(strings.TrimSpace(fragment), "#")
	rest, ok := strings.CutPrefix(fragment, anchorPrefix)
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(rest)
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}

// Split divides body on lines that are exactly the separator once trimmed.
// Separators inside fenced code or HTML comments are ignored. Each slide is
// trimmed of surrounding blank lines and empty slides are dropped. A body
// with no content yields a single empty slide.
func Split(body string) []Slide {
	body = strings.ReplaceAll(body, "\r\n", "\n")
	sh := shield.Shield(body)

	var (
		out     []Slide
		current []string
	)
	flush := func() {
		text := trimBlankLines(sh.Restore(strings.Join(current, "\n")))
		current = current[:0]
		if strings.TrimSpace(text) == "" {
			return
		}
		out = append(out, Slide{Index: len(out) + 1, Text: text})
	}

	for _, line := range strings.Split(sh.Text(), "\n") {
		if strings.TrimSpace(line) == Separator {
			flush()
			continue
		}
		current = append(current, line)
	}
	flush()

	if len(out) == 0 {
		return []Slide{{Index: 1}}
	}
	return out
}

// Join reassembles slides with separator lines.
func Join(slides []Slide) string {
	texts := make([]string, len(slides))
	for i, s := range slides {
		texts[i] = s.Text
	}
	return strings.Join(texts, "\n"+Separator+"\n")
}

// trimBlankLines removes leading and trailing lines that hold only
// whitespace, keeping indentation of the first content line.
func trimBlankLines(s string) string {
	lines := strings.Split(s, "\n")
	start, end := 0, len(lines)
	for start < end && strings.TrimSpace(lines[start]) == "" {
		start++
	}
	for end > start && strings.TrimSpace(lines[end-1]) == "" {
		end--
	}
	return strings.Join(lines[start:end], "\n")
}
