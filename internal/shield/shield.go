// Package shield hides fenced code blocks and HTML comments from text
// scanning passes.
//
// Shielded regions are replaced by placeholders built from Unicode Private
// Use Area characters, so marker-like substrings inside code or comments are
// never seen by later regex passes. Restore puts the original bytes back
// verbatim, including placeholder characters the input already contained.
package shield

import (
	"regexp"
	"strconv"
	"strings"
)

// Placeholder delimiters. Private Use Area characters survive regex passes
// untouched. A start delimiter already present in the input is held as a
// region of its own so Restore cannot mistake it for a placeholder.
const (
	placeholderStart = "\uE100"
	placeholderEnd   = "\uE101"
)

var (
	// HTML comments, non-greedy, may span lines.
	commentPattern = regexp.MustCompile(`(?s)<!--.*?-->`)

	// Fenced code blocks delimited by triple backticks, non-greedy.
	fencePattern = regexp.MustCompile("(?s)```.*?```")

	placeholderPattern = regexp.MustCompile(placeholderStart + `(\d+)` + placeholderEnd)

	startPattern = regexp.MustCompile(placeholderStart)
)

// Shielded holds text with its protected regions swapped out.
type Shielded struct {
	text    string
	regions []string
}

// Shield replaces HTML comments, then fenced blocks, with placeholders.
// Comments go first so fence syntax inside a comment stays part of the comment.
func Shield(text string) *Shielded {
	s := &Shielded{}
	if strings.Contains(text, placeholderStart) {
		text = startPattern.ReplaceAllStringFunc(text, s.hold)
	}
	text = commentPattern.ReplaceAllStringFunc(text, s.hold)
	text = fencePattern.ReplaceAllStringFunc(text, s.hold)
	s.text = text
	return s
}

// hold stores a region and returns its placeholder.
func (s *Shielded) hold(region string) string {
	s.regions = append(s.regions, region)
	return Placeholder(len(s.regions) - 1)
}

// Text returns the shielded text.
func (s *Shielded) Text() string {
	return s.text
}

// Regions returns a copy of the protected regions in placeholder order.
func (s *Shielded) Regions() []string {
	out := make([]string, len(s.regions))
	copy(out, s.regions)
	return out
}

// Restore substitutes every placeholder in text with its original region.
// A fence captured after a comment may contain that comment's placeholder,
// so restored regions are expanded recursively. Placeholders with unknown
// indices are left as they are.
func (s *Shielded) Restore(text string) string {
	if len(s.regions) == 0 || !strings.Contains(text, placeholderStart) {
		return text
	}
	return placeholderPattern.ReplaceAllStringFunc(text, func(m string) string {
		idx, err := strconv.Atoi(m[len(placeholderStart) : len(m)-len(placeholderEnd)])
		if err != nil || idx < 0 || idx >= len(s.regions) {
			return m
		}
		// Regions only reference earlier regions, so recursion terminates.
		return s.Restore(s.regions[idx])
	})
}

// Placeholder returns the placeholder token for region index i.
func Placeholder(i int) string {
	return placeholderStart + strconv.Itoa(i) + placeholderEnd
}
