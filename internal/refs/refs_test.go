package refs

import (
	"strings"
	"testing"

	"github.com/alnah/go-mdpress/internal/bib"
)

func TestTokenize_SharedCounter(t *testing.T) {
	t.Parallel()

	res := Tokenize("[@smith2020] text [^a] more [@smith2020]\n[^a]: note")

	if n, _ := res.Registry.Number(Citation, "smith2020"); n != 1 {
		t.Errorf("citation smith2020 = %d, want 1", n)
	}
	if n, _ := res.Registry.Number(Footnote, "a"); n != 2 {
		t.Errorf("footnote a = %d, want 2", n)
	}
	if got := res.Definitions["a"]; got != "note" {
		t.Errorf("Definitions[a] = %q, want %q", got, "note")
	}
	if strings.Contains(res.Text, "[^a]:") || strings.Contains(res.Text, "note") {
		t.Errorf("definition left in body: %q", res.Text)
	}

	html := res.RenderMarkers(res.Text)
	if got := strings.Count(html, `<a href="#ref-smith2020">[1]</a>`); got != 2 {
		t.Errorf("citation marker count = %d, want 2 in %q", got, html)
	}
	if !strings.Contains(html, `<sup class="footnote-ref" id="fnref-a"><a href="#fn-a">2</a></sup>`) {
		t.Errorf("footnote marker missing in %q", html)
	}
}

func TestTokenize_StrictlyIncreasingByFirstAppearance(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		text string
		want []Ref
	}{
		{
			name: "interleaved with repeats",
			text: "[^x] [@b] [^x] [@a] [@b] [^y] [@a]",
			want: []Ref{
				{Kind: Footnote, Key: "x", Number: 1},
				{Kind: Citation, Key: "b", Number: 2},
				{Kind: Citation, Key: "a", Number: 3},
				{Kind: Footnote, Key: "y", Number: 4},
			},
		},
		{
			name: "same key different kinds",
			text: "[@k] [^k]",
			want: []Ref{
				{Kind: Citation, Key: "k", Number: 1},
				{Kind: Footnote, Key: "k", Number: 2},
			},
		},
		{
			name: "no markers",
			text: "plain text [link](x) [not a ref]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := Tokenize(tt.text).Registry.Ordered()
			if len(got) != len(tt.want) {
				t.Fatalf("Ordered() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("Ordered()[%d] = %+v, want %+v", i, got[i], tt.want[i])
				}
				if got[i].Number != i+1 {
					t.Errorf("Ordered()[%d].Number = %d, want %d", i, got[i].Number, i+1)
				}
			}
		})
	}
}

func TestTokenize_ShieldedRegionsUntouched(t *testing.T) {
	t.Parallel()

	text := "Before [^a]\n\n```\n[@code] [^a]: inside\n```\n\n<!-- [@hidden] -->\n[^a]: real"
	res := Tokenize(text)

	if _, ok := res.Registry.Number(Citation, "code"); ok {
		t.Error("citation inside fence was numbered")
	}
	if _, ok := res.Registry.Number(Citation, "hidden"); ok {
		t.Error("citation inside comment was numbered")
	}
	if got := res.Definitions["a"]; got != "real" {
		t.Errorf("Definitions[a] = %q, want %q", got, "real")
	}
	if !strings.Contains(res.Text, "```\n[@code] [^a]: inside\n```") {
		t.Errorf("fence not restored verbatim: %q", res.Text)
	}
	if !strings.Contains(res.Text, "<!-- [@hidden] -->") {
		t.Errorf("comment not restored verbatim: %q", res.Text)
	}
}

func TestTokenize_Definitions(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		text     string
		key      string
		want     string
		wantBody string
	}{
		{
			name:     "continuation lines joined",
			text:     "x[^n]\n[^n]: first line\n  second line\n\tthird\nafter",
			key:      "n",
			want:     "first line second line third",
			wantBody: "after",
		},
		{
			name: "list prefix",
			text: "- [^n]: listed",
			key:  "n",
			want: "listed",
		},
		{
			name: "quote prefix",
			text: "> [^n]: quoted",
			key:  "n",
			want: "quoted",
		},
		{
			name: "first definition wins",
			text: "[^n]: one\n[^n]: two",
			key:  "n",
			want: "one",
		},
		{
			name:     "blank line ends definition",
			text:     "[^n]: one\n\n  indented code",
			key:      "n",
			want:     "one",
			wantBody: "  indented code",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			res := Tokenize(tt.text)
			if got := res.Definitions[tt.key]; got != tt.want {
				t.Errorf("Definitions[%q] = %q, want %q", tt.key, got, tt.want)
			}
			if tt.wantBody != "" && !strings.Contains(res.Text, tt.wantBody) {
				t.Errorf("Text = %q, want it to contain %q", res.Text, tt.wantBody)
			}
		})
	}
}

func TestRenderMarkers_UnknownPlaceholder(t *testing.T) {
	t.Parallel()

	res := Tokenize("[@a]")
	in := markerStart + "7" + markerEnd
	if got := res.RenderMarkers(in); got != in {
		t.Errorf("RenderMarkers(%q) = %q, want unchanged", in, got)
	}
}

func TestResolver_FootnoteText(t *testing.T) {
	t.Parallel()

	global := &Definitions{}
	global.Add(map[string]string{"g": "global text", "l": "shadowed"})

	r := &Resolver{
		Local:    map[string]string{"l": "local text"},
		Global:   global,
		Original: "slide one\n---\n[^o]: original text\n",
	}

	tests := map[string]string{
		"l":       "local text",
		"g":       "global text",
		"o":       "original text",
		"missing": "missing",
	}
	for key, want := range tests {
		if got := r.FootnoteText(key); got != want {
			t.Errorf("FootnoteText(%q) = %q, want %q", key, got, want)
		}
	}
}

func TestDefinitions_FirstWins(t *testing.T) {
	t.Parallel()

	var d Definitions
	d.Add(map[string]string{"a": "1"})
	d.Add(map[string]string{"a": "2", "b": "3"})

	if v, _ := d.Lookup("a"); v != "1" {
		t.Errorf("Lookup(a) = %q, want %q", v, "1")
	}
	if d.Len() != 2 {
		t.Errorf("Len() = %d, want 2", d.Len())
	}
}

func TestRenderSections(t *testing.T) {
	t.Parallel()

	res := Tokenize("[@smith2020] text [^a] [@nobody]\n[^a]: a *note*")
	resolver := &Resolver{Local: res.Definitions}
	entries := map[string]bib.Entry{
		"smith2020": {Key: "smith2020", Author: "Smith, Jane", Year: "2020", Title: "Things", URL: "https://doi.org/10.1/x"},
	}

	fn := RenderFootnotes(res.Registry, resolver, SectionOptions{})
	if !strings.Contains(fn, `<li id="fn-a" value="2">a *note* <a href="#fnref-a"`) {
		t.Errorf("footnotes section = %q", fn)
	}

	refs := RenderReferences(res.Registry, entries, SectionOptions{ReferencesID: "references"})
	for _, want := range []string{
		`<h2 id="references">References</h2>`,
		`<li id="ref-smith2020" value="1">Smith, Jane (2020). <a href="https://doi.org/10.1/x"><em>Things</em></a>.`,
		`<li id="ref-nobody" value="3">nobody <a href="#cite-nobody"`,
	} {
		if !strings.Contains(refs, want) {
			t.Errorf("references section missing %q in %q", want, refs)
		}
	}
}

func TestRenderSections_Empty(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	if got := RenderFootnotes(reg, &Resolver{}, SectionOptions{}); got != "" {
		t.Errorf("RenderFootnotes() = %q, want empty", got)
	}
	if got := RenderReferences(reg, nil, SectionOptions{}); got != "" {
		t.Errorf("RenderReferences() = %q, want empty", got)
	}
}
