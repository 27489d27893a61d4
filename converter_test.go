package mdpress

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"

	"github.com/alnah/go-mdpress/internal/assets"
)

// newTestConverter builds a converter that never bootstraps the diagram
// engine or a browser.
func newTestConverter(t *testing.T, opts ...Option) *Converter {
	t.Helper()
	opts = append([]Option{WithDiagrams(false), WithLogger(zaptest.NewLogger(t))}, opts...)
	conv, err := NewConverter(opts...)
	if err != nil {
		t.Fatalf("NewConverter() error = %v", err)
	}
	t.Cleanup(func() { conv.Close() })
	return conv
}

func convert(t *testing.T, conv *Converter, input Input) (*Result, string) {
	t.Helper()
	res, err := conv.Convert(context.Background(), input)
	if err != nil {
		t.Fatalf("Convert() error = %v", err)
	}
	return res, string(res.HTML)
}

// ---------------------------------------------------------------------------
// Construction
// ---------------------------------------------------------------------------

func TestNewConverter_Options(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		opts    []Option
		wantErr error
	}{
		{
			name: "defaults",
		},
		{
			name:    "zero min width",
			opts:    []Option{WithTwoColumnMinWidth(0)},
			wantErr: ErrInvalidMinWidth,
		},
		{
			name:    "negative min width",
			opts:    []Option{WithTwoColumnMinWidth(-100)},
			wantErr: ErrInvalidMinWidth,
		},
		{
			name:    "unknown viewport",
			opts:    []Option{WithViewport(Viewport{})},
			wantErr: ErrInvalidViewport,
		},
		{
			name:    "unknown style name",
			opts:    []Option{WithStyle("does-not-exist")},
			wantErr: ErrStyleNotFound,
		},
		{
			name:    "missing asset directory",
			opts:    []Option{WithAssetPath("/nonexistent/mdpress/assets")},
			wantErr: ErrInvalidAssetPath,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			opts := append([]Option{WithDiagrams(false)}, tt.opts...)
			conv, err := NewConverter(opts...)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("NewConverter() error = %v", err)
				}
				conv.Close()
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("NewConverter() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestWithTimeout_PanicsOnNonPositive(t *testing.T) {
	t.Parallel()

	defer func() {
		if recover() == nil {
			t.Error("WithTimeout(0) did not panic")
		}
	}()
	WithTimeout(0)
}

func TestNewConverter_AssetPathOverridesStyle(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "styles"), 0o750); err != nil {
		t.Fatal(err)
	}
	custom := ".mdpress-root { color: rebeccapurple; }"
	if err := os.WriteFile(filepath.Join(dir, "styles", "mdpress.css"), []byte(custom), 0o600); err != nil {
		t.Fatal(err)
	}

	conv := newTestConverter(t, WithAssetPath(dir))
	_, got := convert(t, conv, Input{Markdown: "hello"})
	if !strings.Contains(got, "rebeccapurple") {
		t.Error("custom style not used")
	}
	// Scripts fall back to the embedded runtime.
	if !strings.Contains(got, `id="mdpress-runtime"`) {
		t.Error("embedded runtime missing")
	}
}

// ---------------------------------------------------------------------------
// Preconditions
// ---------------------------------------------------------------------------

func TestConvert_Preconditions(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		opts    []Option
		input   Input
		wantErr error
	}{
		{
			name:    "empty markdown",
			input:   Input{},
			wantErr: ErrEmptyMarkdown,
		},
		{
			name:    "no container id",
			opts:    []Option{WithContainerID("")},
			input:   Input{Markdown: "# A"},
			wantErr: ErrMissingContainer,
		},
		{
			name:    "blank container id",
			opts:    []Option{WithContainerID("  ")},
			input:   Input{Markdown: "# A"},
			wantErr: ErrMissingContainer,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			conv := newTestConverter(t, tt.opts...)
			_, err := conv.Convert(context.Background(), tt.input)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Convert() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestConvert_InputContainerOverridesDefault(t *testing.T) {
	t.Parallel()

	conv := newTestConverter(t, WithContainerID(""))
	_, got := convert(t, conv, Input{Markdown: "# A", Container: "deck"})
	if !strings.Contains(got, `<div id="deck" class="mdpress-root"`) {
		t.Error("container id from input not used")
	}
}

func TestConvert_CancelledContext(t *testing.T) {
	t.Parallel()

	conv := newTestConverter(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := conv.Convert(ctx, Input{Markdown: "# A"})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Convert() error = %v, want context.Canceled", err)
	}
}

// ---------------------------------------------------------------------------
// Footnotes and citations
// ---------------------------------------------------------------------------

func TestConvert_SharedCounter(t *testing.T) {
	t.Parallel()

	conv := newTestConverter(t)
	_, got := convert(t, conv, Input{
		Markdown: "[@smith2020] text [^a] more [@smith2020]\n[^a]: note",
	})

	wants := []string{
		`<sup class="citation" id="cite-smith2020"><a href="#ref-smith2020">[1]</a></sup>`,
		`<sup class="footnote-ref" id="fnref-a"><a href="#fn-a">2</a></sup>`,
		`<li id="fn-a" value="2">note`,
		`<li id="ref-smith2020" value="1">`,
		`<h2 id="references">References</h2>`,
	}
	for _, want := range wants {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q", want)
		}
	}
	if strings.Contains(got, "[^a]:") {
		t.Error("footnote definition left in the body")
	}
	if n := strings.Count(got, `href="#ref-smith2020">[1]</a>`); n != 2 {
		t.Errorf("repeated citation rendered %d times, want 2", n)
	}
}

func TestConvert_MarkersInCodeUntouched(t *testing.T) {
	t.Parallel()

	conv := newTestConverter(t)
	_, got := convert(t, conv, Input{Markdown: "```\n[@x] and [^y]\n```\n"})

	if strings.Contains(got, `class="citation"`) || strings.Contains(got, `class="footnote-ref"`) {
		t.Error("marker inside fenced code was rewritten")
	}
	if !strings.Contains(got, "[@x] and [^y]") {
		t.Error("fenced code content changed")
	}
}

func TestConvert_FootnoteDefinedOnAnotherSlide(t *testing.T) {
	t.Parallel()

	conv := newTestConverter(t)
	res, got := convert(t, conv, Input{
		Markdown: "---\nslides: true\n---\nSee [^n].\n---\nSecond\n\n[^n]: defined later\n",
	})

	if res.Slides != 2 {
		t.Fatalf("Slides = %d, want 2", res.Slides)
	}
	if !strings.Contains(got, `<li id="fn-n" value="1">defined later`) {
		t.Error("footnote text from another slide not resolved")
	}
}

func TestConvert_Bibliography(t *testing.T) {
	t.Parallel()

	// The bibliography path is relative to the document.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/docs/refs.bib" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte("@article{smith2020,\n  author = {Smith, J.},\n  year = {2020},\n  title = {A Study of Things},\n}\n"))
	}))
	defer srv.Close()

	conv := newTestConverter(t)
	_, got := convert(t, conv, Input{
		Markdown: "---\nbibliography: refs.bib\n---\nSee [@smith2020] and [@missing].\n",
		Source:   srv.URL + "/docs/deck.md",
	})

	for _, want := range []string{"Smith, J. (2020).", "<em>A Study of Things</em>", `<li id="ref-missing" value="2">`} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q", want)
		}
	}
}

func TestConvert_BibliographyFailureIsSilent(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	conv := newTestConverter(t)
	res, got := convert(t, conv, Input{
		Markdown: "---\nbib: refs.bib\n---\nSee [@k].\n",
		Source:   srv.URL + "/deck.md",
	})

	if res.Warnings != nil {
		t.Errorf("Warnings = %v, want none", res.Warnings)
	}
	if !strings.Contains(got, `<li id="ref-k" value="1">`) {
		t.Error("citation without bibliography not listed")
	}
}

// ---------------------------------------------------------------------------
// Modes
// ---------------------------------------------------------------------------

func TestConvert_SlideMode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		markdown   string
		wantSlides int
		wantMode   string
		wants      []string
		notWants   []string
	}{
		{
			name:       "flag splits slides",
			markdown:   "---\nslides: true\n---\n# A\n---\n# B",
			wantSlides: 2,
			wantMode:   `data-mode="slides"`,
			wants: []string{
				`<section class="slide active" id="slide-1">`,
				`<section class="slide" id="slide-2">`,
				`<div class="slide-content">`,
				`class="slide-nav-hint"`,
				`id="mdpress-layout"`,
			},
			notWants: []string{"<hr"},
		},
		{
			name:       "marp flag",
			markdown:   "---\nmarp: yes\n---\n# A\n---\n# B\n---\n# C",
			wantSlides: 3,
			wantMode:   `data-mode="slides"`,
			wants:      []string{`id="slide-3"`},
		},
		{
			name:       "no flag keeps a thematic break",
			markdown:   "# A\n---\n# B",
			wantSlides: 0,
			wantMode:   `data-mode="document"`,
			wants:      []string{`<article class="mdpress-document">`, "<hr"},
			notWants:   []string{`<section class="slide`, `id="mdpress-layout"`},
		},
		{
			name:       "false flag is document mode",
			markdown:   "---\nslides: false\n---\n# A\n---\n# B",
			wantSlides: 0,
			wantMode:   `data-mode="document"`,
			wants:      []string{"<hr"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			conv := newTestConverter(t)
			res, got := convert(t, conv, Input{Markdown: tt.markdown})

			if res.Slides != tt.wantSlides {
				t.Errorf("Slides = %d, want %d", res.Slides, tt.wantSlides)
			}
			if res.SlideMode != (tt.wantSlides > 0) {
				t.Errorf("SlideMode = %v", res.SlideMode)
			}
			if len(res.Layouts) != tt.wantSlides {
				t.Errorf("len(Layouts) = %d, want %d", len(res.Layouts), tt.wantSlides)
			}
			if !strings.Contains(got, tt.wantMode) {
				t.Errorf("output missing %s", tt.wantMode)
			}
			for _, want := range tt.wants {
				if !strings.Contains(got, want) {
					t.Errorf("output missing %q", want)
				}
			}
			for _, nw := range tt.notWants {
				if strings.Contains(got, nw) {
					t.Errorf("output should not contain %q", nw)
				}
			}
		})
	}
}

func TestConvert_HeadingIDsUniqueAcrossSlides(t *testing.T) {
	t.Parallel()

	conv := newTestConverter(t)
	_, got := convert(t, conv, Input{
		Markdown: "---\nslides: true\n---\n# Intro\n---\n# Intro\n---\n# Slide 1",
	})

	for _, want := range []string{`<h1 id="intro">`, `<h1 id="intro-1">`, `<h1 id="slide-1-1">`} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q", want)
		}
	}
}

func TestConvert_NarrowViewportStaysSingleColumn(t *testing.T) {
	t.Parallel()

	conv := newTestConverter(t, WithViewport(Viewport{Width: 800, Height: 600}))
	res, got := convert(t, conv, Input{
		Markdown: "---\nslides: true\n---\n# A\n\ntext\n---\n# B\n\nmore",
	})

	for _, l := range res.Layouts {
		if l.TwoColumn {
			t.Errorf("slide %d uses two columns below the minimum width", l.Slide)
		}
		if l.Reason != "viewport narrower than minimum" {
			t.Errorf("slide %d reason = %q", l.Slide, l.Reason)
		}
	}
	if strings.Contains(got, `class="two-col"`) {
		t.Error("two-column grid rendered")
	}
	if res.Warnings != nil {
		t.Errorf("Warnings = %v", multierr.Errors(res.Warnings))
	}
}

func TestConvert_LayoutCSSUsesMinWidth(t *testing.T) {
	t.Parallel()

	conv := newTestConverter(t, WithTwoColumnMinWidth(1200))
	_, got := convert(t, conv, Input{Markdown: "---\nslides: true\n---\n# A"})

	if !strings.Contains(got, assets.LayoutCSS(1200)) {
		t.Error("layout CSS does not follow the configured minimum width")
	}
}

// ---------------------------------------------------------------------------
// Sidebar
// ---------------------------------------------------------------------------

func TestConvert_TOC(t *testing.T) {
	t.Parallel()

	md := "# Intro\n\n## Details\n\n# Table of Contents\n\n# Next\n"

	t.Run("enabled", func(t *testing.T) {
		t.Parallel()

		conv := newTestConverter(t, WithTOCTitle("Outline"))
		res, got := convert(t, conv, Input{Markdown: md})

		if res.Headings != 3 {
			t.Errorf("Headings = %d, want 3", res.Headings)
		}
		for _, want := range []string{`<nav class="toc-sidebar"`, `href="#intro"`, `href="#details"`, `href="#next"`, `>Outline</div>`} {
			if !strings.Contains(got, want) {
				t.Errorf("output missing %q", want)
			}
		}
		if strings.Contains(got, `href="#table-of-contents"`) {
			t.Error("self-titled heading listed in the sidebar")
		}
	})

	t.Run("disabled", func(t *testing.T) {
		t.Parallel()

		conv := newTestConverter(t, WithTOC(false))
		res, got := convert(t, conv, Input{Markdown: md})

		if res.Headings != 0 {
			t.Errorf("Headings = %d, want 0", res.Headings)
		}
		if strings.Contains(got, `<nav class="toc-sidebar"`) {
			t.Error("sidebar rendered while disabled")
		}
	})

	t.Run("slide links", func(t *testing.T) {
		t.Parallel()

		conv := newTestConverter(t)
		_, got := convert(t, conv, Input{Markdown: "---\nslides: true\n---\n# A\n---\n# B"})

		if !strings.Contains(got, `href="#b" data-target="b" data-slide="2"`) {
			t.Error("sidebar link missing its slide")
		}
	})
}

// ---------------------------------------------------------------------------
// Page assembly
// ---------------------------------------------------------------------------

func TestConvert_Page(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		opts     []Option
		input    Input
		wantHTML []string
		notWant  []string
		title    string
	}{
		{
			name:     "title from front matter",
			input:    Input{Markdown: "---\ntitle: My Deck\nlang: fr\n---\n# Heading"},
			wantHTML: []string{"<title>My Deck</title>", `<html lang="fr">`},
			title:    "My Deck",
		},
		{
			name:     "title from first heading",
			input:    Input{Markdown: "text\n\n# Heading\n\n# Other", Title: "Fallback"},
			wantHTML: []string{"<title>Heading</title>"},
			title:    "Heading",
		},
		{
			name:     "title skips footnote marker",
			input:    Input{Markdown: "# Intro [^n]\n\nBody.\n\n[^n]: A note.\n"},
			wantHTML: []string{"<title>Intro</title>", `data-target="intro">Intro</a>`},
			title:    "Intro",
		},
		{
			name:     "title from input",
			input:    Input{Markdown: "just text", Title: "Fallback"},
			wantHTML: []string{"<title>Fallback</title>"},
			title:    "Fallback",
		},
		{
			name:     "lang option",
			opts:     []Option{WithLang("de")},
			input:    Input{Markdown: "text"},
			wantHTML: []string{`<html lang="de">`},
		},
		{
			name:     "auto theme",
			input:    Input{Markdown: "text"},
			wantHTML: []string{`data-theme="auto"`, "prefers-color-scheme: dark"},
		},
		{
			name:     "forced light theme",
			opts:     []Option{WithForceLightTheme(true)},
			input:    Input{Markdown: "text"},
			wantHTML: []string{`data-theme="light"`},
		},
		{
			name:     "highlight marks",
			input:    Input{Markdown: "some ==marked== text"},
			wantHTML: []string{"<mark>marked</mark>"},
		},
		{
			name:     "tables wrapped",
			input:    Input{Markdown: "| a | b |\n|---|---|\n| 1 | 2 |\n"},
			wantHTML: []string{`<div class="table-wrapper"><table>`},
		},
		{
			name:     "style content and input CSS",
			opts:     []Option{WithStyle("h1 { color: teal; }")},
			input:    Input{Markdown: "# A", CSS: "p { margin: 0; }"},
			wantHTML: []string{`<style id="mdpress-user">h1 { color: teal; }</style>`, `<style id="mdpress-input">p { margin: 0; }</style>`},
		},
		{
			name:     "runtime settings on root",
			input:    Input{Markdown: "text"},
			wantHTML: []string{`data-lookahead="80"`, `data-storage-key="mdpress.toc.visible"`},
		},
		{
			name:     "raw HTML omitted",
			input:    Input{Markdown: "<script>alert(1)</script>\n\ntext"},
			notWant:  []string{"alert(1)"},
			wantHTML: []string{"text"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			conv := newTestConverter(t, tt.opts...)
			res, got := convert(t, conv, tt.input)

			if tt.title != "" && res.Title != tt.title {
				t.Errorf("Title = %q, want %q", res.Title, tt.title)
			}
			for _, want := range tt.wantHTML {
				if !strings.Contains(got, want) {
					t.Errorf("output missing %q", want)
				}
			}
			for _, nw := range tt.notWant {
				if strings.Contains(got, nw) {
					t.Errorf("output should not contain %q", nw)
				}
			}
		})
	}
}

func TestConvert_Diagrams(t *testing.T) {
	t.Parallel()

	md := "```mermaid\ngraph TD\n  A --> B\n```\n\n```d2\nx -> y\n```\n"

	tests := []struct {
		name  string
		opts  []Option
		wants []string
	}{
		{
			name: "minified mermaid",
			wants: []string{
				`<div class="mermaid">`,
				`src="` + assets.MermaidMinifiedURL + `"`,
				`data-diagram="d2"`,
				`<pre class="diagram-source">x -&gt; y</pre>`,
			},
		},
		{
			name:  "full mermaid build",
			opts:  []Option{WithPreferMinified(false)},
			wants: []string{`src="` + assets.MermaidURL + `"`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			conv := newTestConverter(t, tt.opts...)
			_, got := convert(t, conv, Input{Markdown: md})
			for _, want := range tt.wants {
				if !strings.Contains(got, want) {
					t.Errorf("output missing %q", want)
				}
			}
		})
	}

	t.Run("no mermaid script without mermaid blocks", func(t *testing.T) {
		t.Parallel()

		conv := newTestConverter(t)
		_, got := convert(t, conv, Input{Markdown: "# Plain"})
		if strings.Contains(got, "cdn.jsdelivr.net/npm/mermaid") {
			t.Error("mermaid script added to a page without diagrams")
		}
	})
}

func TestConvert_RewritesRelativeMedia(t *testing.T) {
	t.Parallel()

	conv := newTestConverter(t)
	_, got := convert(t, conv, Input{
		Markdown: "![diagram](img/a.png)",
		Source:   "https://example.com/talks/deck.md",
	})

	if !strings.Contains(got, `src="https://example.com/talks/img/a.png"`) {
		t.Error("relative image not resolved against a remote source")
	}
}

func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o600); err != nil {
		t.Fatal(err)
	}
}

func TestConvert_SizesSlideImages(t *testing.T) {
	t.Parallel()

	deck := "---\nslides: true\n---\n# Chart\n\n![chart](img/chart.png)\n---\n# Plain\n"

	tests := []struct {
		name      string
		outputDir func(srcDir string) string
		wantSrc   string
	}{
		{"next to the source", func(string) string { return "" }, `src="img/chart.png"`},
		{"separate output directory", func(srcDir string) string { return filepath.Join(srcDir, "out") }, `src="../img/chart.png"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			dir := t.TempDir()
			writePNG(t, filepath.Join(dir, "img", "chart.png"), 600, 300)

			core, logs := observer.New(zap.DebugLevel)
			conv := newTestConverter(t, WithLogger(zap.New(core)))
			_, got := convert(t, conv, Input{
				Markdown:  deck,
				Source:    filepath.Join(dir, "deck.md"),
				OutputDir: tt.outputDir(dir),
			})

			if !strings.Contains(got, tt.wantSrc) {
				t.Errorf("output missing %s", tt.wantSrc)
			}
			if !strings.Contains(got, `width="600" height="300"`) {
				t.Error("image size not declared")
			}

			var reevaluated []int
			for _, e := range logs.FilterMessage("slide laid out").All() {
				if strings.Contains(fmt.Sprint(e.ContextMap()["trigger"]), "image-load") {
					reevaluated = append(reevaluated, int(e.ContextMap()["slide"].(int64)))
				}
			}
			if len(reevaluated) != 1 || reevaluated[0] != 1 {
				t.Errorf("slides re-laid out after image load = %v, want [1]", reevaluated)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// RenderSource
// ---------------------------------------------------------------------------

func TestRenderSource(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/deck.md" {
			w.Write([]byte("---\nslides: true\n---\n# Remote\n---\n# Second"))
			return
		}
		http.NotFound(w, r)
	}))
	t.Cleanup(srv.Close)

	t.Run("fetches and renders", func(t *testing.T) {
		t.Parallel()

		conv := newTestConverter(t)
		res, err := conv.RenderSource(context.Background(), Input{Source: srv.URL + "/deck.md"})
		if err != nil {
			t.Fatalf("RenderSource() error = %v", err)
		}
		if res.Slides != 2 || res.Title != "Remote" {
			t.Errorf("Slides = %d, Title = %q", res.Slides, res.Title)
		}
	})

	t.Run("fetch failure renders a message", func(t *testing.T) {
		t.Parallel()

		conv := newTestConverter(t)
		res, err := conv.RenderSource(context.Background(), Input{Source: srv.URL + "/missing.md"})
		if !errors.Is(err, ErrDocumentFetch) {
			t.Fatalf("RenderSource() error = %v, want ErrDocumentFetch", err)
		}
		if res == nil {
			t.Fatal("RenderSource() returned no result")
		}
		got := string(res.HTML)
		if !strings.Contains(got, `<div id="mdpress" class="mdpress-root"`) || !strings.Contains(got, `class="mdpress-error"`) {
			t.Error("error page missing the container message")
		}
	})

	t.Run("local file", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "doc.md")
		if err := os.WriteFile(path, []byte("# Local"), 0o600); err != nil {
			t.Fatal(err)
		}
		conv := newTestConverter(t)
		res, err := conv.RenderSource(context.Background(), Input{Source: path})
		if err != nil {
			t.Fatalf("RenderSource() error = %v", err)
		}
		if res.Title != "Local" {
			t.Errorf("Title = %q, want Local", res.Title)
		}
	})

	t.Run("preconditions", func(t *testing.T) {
		t.Parallel()

		conv := newTestConverter(t)
		if _, err := conv.RenderSource(context.Background(), Input{}); !errors.Is(err, ErrMissingSource) {
			t.Errorf("empty source error = %v, want ErrMissingSource", err)
		}

		noContainer := newTestConverter(t, WithContainerID(""))
		if _, err := noContainer.RenderSource(context.Background(), Input{Source: srv.URL + "/deck.md"}); !errors.Is(err, ErrMissingContainer) {
			t.Errorf("no container error = %v, want ErrMissingContainer", err)
		}
	})
}
