// Package frontmatter extracts the optional metadata block at the top of a
// document.
//
// Parsing is line-oriented and tolerant: lines that are not "key: value"
// pairs are skipped, and any failure yields empty flags with the original
// text as body. Extraction never blocks rendering.
package frontmatter

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/alnah/go-mdpress/internal/yamlutil"
)

// Recognized flag keys, lower-cased. Any of them set to a truthy value puts
// the document in slide mode.
const (
	KeyMarp      = "marp"
	KeySlides    = "slides"
	KeyMheSlides = "mheslides"
)

const delimiter = "---"

var recognizedFlags = map[string]bool{
	KeyMarp:      true,
	KeySlides:    true,
	KeyMheSlides: true,
}

var keyPattern = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)

// Flags maps recognized boolean keys to their value.
type Flags map[string]bool

// Get reports the value of a flag, case-insensitively.
func (f Flags) Get(key string) bool {
	return f[strings.ToLower(key)]
}

// SlideMode reports whether any slide flag is set.
func (f Flags) SlideMode() bool {
	for key := range recognizedFlags {
		if f[key] {
			return true
		}
	}
	return false
}

// Result is the outcome of Extract.
type Result struct {
	Flags Flags
	// Body is the document with the front-matter block removed.
	Body string
	// Raw is the text between the delimiters, empty when there is no block.
	Raw string
	// Fields holds every parsed pair with lower-cased keys and unquoted values.
	Fields map[string]string
}

// HasBlock reports whether the document started with a front-matter block.
func (r Result) HasBlock() bool {
	return r.Raw != "" || len(r.Fields) > 0
}

// Field returns the first non-empty field among keys.
func (r Result) Field(keys ...string) string {
	for _, k := range keys {
		if v := r.Fields[strings.ToLower(k)]; v != "" {
			return v
		}
	}
	return ""
}

// Meta decodes the raw block as YAML into v. Documents often carry front
// matter that is not valid YAML, so callers treat errors as "no metadata".
func (r Result) Meta(v any) error {
	if strings.TrimSpace(r.Raw) == "" {
		return fmt.Errorf("decoding front matter: %w", yamlutil.ErrNilData)
	}
	if err := yamlutil.Unmarshal([]byte(r.Raw), v); err != nil {
		return fmt.Errorf("decoding front matter: %w", err)
	}
	return nil
}

// Extract splits text into front-matter flags and body.
func Extract(text string) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			res = empty(text)
		}
	}()

	normalized := strings.ReplaceAll(text, "\r\n", "\n")
	lines := strings.Split(normalized, "\n")
	if len(lines) < 2 || !isDelimiter(lines[0]) {
		return empty(text)
	}

	closing := -1
	for i := 1; i < len(lines); i++ {
		if isDelimiter(lines[i]) {
			closing = i
			break
		}
	}
	if closing == -1 {
		return empty(text)
	}

	res = Result{
		Flags:  Flags{},
		Body:   strings.Join(lines[closing+1:], "\n"),
		Raw:    strings.Join(lines[1:closing], "\n"),
		Fields: map[string]string{},
	}

	for _, line := range lines[1:closing] {
		key, value, ok := parseLine(line)
		if !ok {
			continue
		}
		res.Fields[key] = value
		if recognizedFlags[key] {
			res.Flags[key] = IsTruthy(value)
		}
	}
	return res
}

func empty(text string) Result {
	return Result{Flags: Flags{}, Body: text, Fields: map[string]string{}}
}

func isDelimiter(line string) bool {
	return strings.TrimRight(line, " \t") == delimiter
}

// parseLine splits a "key: value" line. Keys are lower-cased.
func parseLine(line string) (key, value string, ok bool) {
	idx := strings.Index(line, ":")
	if idx <= 0 {
		return "", "", false
	}
	key = strings.TrimSpace(line[:idx])
	if !keyPattern.MatchString(key) {
		return "", "", false
	}
	value = Unquote(strings.TrimSpace(line[idx+1:]))
	return strings.ToLower(key), value, true
}

// Unquote strips one pair of matching surrounding quotes.
func Unquote(s string) string {
	if len(s) >= 2 {
		first, last := s[0], s[len(s)-1]
		if (first == '"' || first == '\'') && first == last {
			return s[1 : len(s)-1]
		}
	}
	return s
}

// IsTruthy accepts 1, true, yes and on, case-insensitively, after unquoting.
func IsTruthy(value string) bool {
	switch strings.ToLower(strings.TrimSpace(Unquote(strings.TrimSpace(value)))) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}
