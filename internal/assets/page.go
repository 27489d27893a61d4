package assets

import (
	"fmt"
	"html/template"
	"strings"
)

// Page holds the values of one rendered page.
type Page struct {
	Lang  string
	Title string
	Body  string
}

type pageData struct {
	Lang    string
	Title   string
	Body    template.HTML
	Styles  []styleTag
	Scripts []scriptTag
}

type styleTag struct {
	ID  string
	CSS template.CSS
}

type scriptTag struct {
	ID  string
	Src string
	JS  template.JS
}

// RenderPage executes the page template tmpl with the registry's styles and
// scripts. The body is trusted HTML produced by the converter.
func RenderPage(tmpl string, reg *Registry, p Page) (string, error) {
	t, err := template.New("page").Parse(tmpl)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTemplateExecute, err)
	}

	data := pageData{
		Lang:  p.Lang,
		Title: p.Title,
		Body:  template.HTML(p.Body), // #nosec G203 -- converter output, goldmark runs in safe mode
	}
	if data.Lang == "" {
		data.Lang = "en"
	}
	if data.Title == "" {
		data.Title = "Document"
	}
	for _, s := range reg.Styles() {
		data.Styles = append(data.Styles, styleTag{ID: s.ID, CSS: template.CSS(s.CSS)}) // #nosec G203 -- embedded or configured asset
	}
	for _, s := range reg.Scripts() {
		data.Scripts = append(data.Scripts, scriptTag{ID: s.ID, Src: s.Src, JS: template.JS(s.JS)}) // #nosec G203 -- embedded or configured asset
	}

	var b strings.Builder
	if err := t.Execute(&b, data); err != nil {
		return "", fmt.Errorf("%w: %v", ErrTemplateExecute, err)
	}
	return b.String(), nil
}
