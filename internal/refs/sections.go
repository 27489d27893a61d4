package refs

import (
	"html"
	"strconv"
	"strings"

	"github.com/alnah/go-mdpress/internal/bib"
)

// InlineFunc renders a short Markdown snippet as inline HTML.
type InlineFunc func(markdown string) string

// SectionOptions controls the trailing footnote and reference sections.
type SectionOptions struct {
	// Inline renders footnote text. Defaults to HTML escaping.
	Inline InlineFunc

	// ReferencesTitle is the heading of the reference list.
	ReferencesTitle string

	// ReferencesID is the id of the reference list heading. Empty omits it.
	ReferencesID string
}

func (o SectionOptions) inline() InlineFunc {
	if o.Inline != nil {
		return o.Inline
	}
	return html.EscapeString
}

// RenderFootnotes renders the footnote list of reg. It returns an empty
// string when reg holds no footnotes. List items carry their shared number
// so a footnote numbered after citations keeps its value.
func RenderFootnotes(reg *Registry, res *Resolver, opts SectionOptions) string {
	keys := reg.Footnotes()
	if len(keys) == 0 {
		return ""
	}
	inline := opts.inline()

	var b strings.Builder
	b.WriteString(`<section class="footnotes" role="doc-endnotes">` + "\n<ol>\n")
	for _, key := range keys {
		n, _ := reg.Number(Footnote, key)
		k := html.EscapeString(key)
		b.WriteString(`<li id="fn-` + k + `" value="` + strconv.Itoa(n) + `">`)
		b.WriteString(inline(res.FootnoteText(key)))
		b.WriteString(` <a href="#fnref-` + k + `" class="footnote-backref" role="doc-backlink">&#8617;</a></li>` + "\n")
	}
	b.WriteString("</ol>\n</section>\n")
	return b.String()
}

// RenderReferences renders the citation list of reg using entries for
// display metadata. Keys without an entry render as the bare key.
func RenderReferences(reg *Registry, entries map[string]bib.Entry, opts SectionOptions) string {
	keys := reg.Citations()
	if len(keys) == 0 {
		return ""
	}
	title := opts.ReferencesTitle
	if title == "" {
		title = "References"
	}

	var b strings.Builder
	b.WriteString(`<section class="references" role="doc-bibliography">` + "\n")
	if opts.ReferencesID != "" {
		b.WriteString(`<h2 id="` + html.EscapeString(opts.ReferencesID) + `">`)
	} else {
		b.WriteString("<h2>")
	}
	b.WriteString(html.EscapeString(title) + "</h2>\n<ol>\n")
	for _, key := range keys {
		n, _ := reg.Number(Citation, key)
		k := html.EscapeString(key)
		b.WriteString(`<li id="ref-` + k + `" value="` + strconv.Itoa(n) + `">`)
		if e, ok := entries[key]; ok {
			b.WriteString(FormatEntry(e))
		} else {
			b.WriteString(k)
		}
		b.WriteString(` <a href="#cite-` + k + `" class="citation-backref" role="doc-backlink">&#8617;</a></li>` + "\n")
	}
	b.WriteString("</ol>\n</section>\n")
	return b.String()
}

// FormatEntry renders e as "Author (Year). Title." with the title linked
// when e has a URL.
func FormatEntry(e bib.Entry) string {
	var parts []string
	if e.Author != "" {
		head := html.EscapeString(e.Author)
		if e.Year != "" {
			head += " (" + html.EscapeString(e.Year) + ")"
		}
		parts = append(parts, head+".")
	} else if e.Year != "" {
		parts = append(parts, "("+html.EscapeString(e.Year)+").")
	}

	title := e.Title
	if title == "" {
		title = e.Key
	}
	t := "<em>" + html.EscapeString(title) + "</em>"
	if e.URL != "" {
		t = `<a href="` + html.EscapeString(e.URL) + `">` + t + `</a>`
	}
	parts = append(parts, t+".")
	return strings.Join(parts, " ")
}
