package assets

import (
	"fmt"
	"strings"

	"github.com/alecthomas/chroma/v2"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	chromastyles "github.com/alecthomas/chroma/v2/styles"
)

// Chroma styles used for code highlighting.
const (
	LightCodeStyle = "github"
	DarkCodeStyle  = "github-dark"
)

// Mermaid script locations.
const (
	MermaidURL         = "https://cdn.jsdelivr.net/npm/mermaid@10/dist/mermaid.js"
	MermaidMinifiedURL = "https://cdn.jsdelivr.net/npm/mermaid@10/dist/mermaid.min.js"
)

// MermaidScriptURL picks the mermaid build.
func MermaidScriptURL(preferMinified bool) string {
	if preferMinified {
		return MermaidMinifiedURL
	}
	return MermaidURL
}

// ThemeAttr is the data-theme value of the page root.
func ThemeAttr(forceLight bool) string {
	if forceLight {
		return "light"
	}
	return "auto"
}

// CodeCSS generates the stylesheet for chroma's highlighting classes. Unless
// forceLight is set, a dark variant applies under prefers-color-scheme: dark.
func CodeCSS(forceLight bool) (string, error) {
	formatter := chromahtml.New(chromahtml.WithClasses(true))

	var b strings.Builder
	if err := formatter.WriteCSS(&b, codeStyle(LightCodeStyle)); err != nil {
		return "", fmt.Errorf("writing code style: %w", err)
	}
	if forceLight {
		return b.String(), nil
	}

	b.WriteString("\n@media (prefers-color-scheme: dark) {\n")
	if err := formatter.WriteCSS(&b, codeStyle(DarkCodeStyle)); err != nil {
		return "", fmt.Errorf("writing code style: %w", err)
	}
	b.WriteString("}\n")
	return b.String(), nil
}

func codeStyle(name string) *chroma.Style {
	s := chromastyles.Get(name)
	if s == nil {
		return chromastyles.Fallback
	}
	return s
}

// LayoutCSS collapses two-column slides below minWidth pixels, so a page
// laid out for a wide viewport still reads as one column on a narrow one.
func LayoutCSS(minWidth float64) string {
	return fmt.Sprintf(`@media (max-width: %.2fpx) {
  .two-col { display: block; max-height: none !important; overflow: visible !important; }
}
`, minWidth-0.02)
}
