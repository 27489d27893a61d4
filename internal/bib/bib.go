// Package bib parses a minimal BibTeX-like bibliography and resolves the
// file a document declares in its front matter.
//
// Parsing is regex-based and deliberately shallow: only field name/value
// pairs are extracted, braces and quotes are stripped, nested braces are
// tolerated one level deep and escapes are not interpreted.
package bib

import (
	"regexp"
	"strings"
)

// doiResolver prefixes a DOI when an entry has no explicit URL.
const doiResolver = "https://doi.org/"

var (
	// @type{key,
	entryPattern = regexp.MustCompile(`@(\w+)\s*\{\s*([^,\s{}]+)\s*,`)

	// name = {value} | "value" | bare
	fieldPattern = regexp.MustCompile(`(\w+)\s*=\s*(?:\{((?:[^{}]|\{[^{}]*\})*)\}|"([^"]*)"|([^,}\s][^,}]*))`)

	yearPattern  = regexp.MustCompile(`\d{4}`)
	spacePattern = regexp.MustCompile(`\s+`)

	braceStripper = strings.NewReplacer("{", "", "}", "")
)

// Entry is the display metadata of one bibliography item.
type Entry struct {
	Key    string
	Type   string
	Author string
	Year   string
	Title  string
	URL    string
	DOI    string
}

// Parse extracts entries keyed by citation key. Later duplicates are ignored.
func Parse(src string) map[string]Entry {
	entries := map[string]Entry{}
	locs := entryPattern.FindAllStringSubmatchIndex(src, -1)

	for i, loc := range locs {
		bodyEnd := len(src)
		if i+1 < len(locs) {
			bodyEnd = locs[i+1][0]
		}
		key := src[loc[4]:loc[5]]
		if _, seen := entries[key]; seen {
			continue
		}
		e := Entry{
			Key:  key,
			Type: strings.ToLower(src[loc[2]:loc[3]]),
		}
		fillFields(&e, src[loc[1]:bodyEnd])
		entries[key] = e
	}
	return entries
}

func fillFields(e *Entry, body string) {
	var date string
	for _, m := range fieldPattern.FindAllStringSubmatch(body, -1) {
		value := m[2]
		if value == "" {
			value = m[3]
		}
		if value == "" {
			value = m[4]
		}
		value = clean(value)

		switch strings.ToLower(m[1]) {
		case "author":
			e.Author = value
		case "year":
			e.Year = value
		case "date":
			date = value
		case "title":
			e.Title = value
		case "url":
			e.URL = value
		case "doi":
			e.DOI = value
		}
	}

	if e.Year == "" && date != "" {
		e.Year = yearPattern.FindString(date)
		if e.Year == "" {
			e.Year = date
		}
	}
	if e.URL == "" && e.DOI != "" {
		e.URL = doiResolver + strings.TrimPrefix(e.DOI, doiResolver)
	}
}

// clean strips braces and quotes and collapses whitespace.
func clean(value string) string {
	value = braceStripper.Replace(value)
	value = strings.Trim(strings.TrimSpace(value), `"`)
	return spacePattern.ReplaceAllString(strings.TrimSpace(value), " ")
}
