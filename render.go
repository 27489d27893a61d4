package mdpress

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/net/html"
	"golang.org/x/sync/errgroup"

	"github.com/alnah/go-mdpress/internal/assets"
	"github.com/alnah/go-mdpress/internal/bib"
	"github.com/alnah/go-mdpress/internal/diagram"
	"github.com/alnah/go-mdpress/internal/dom"
	"github.com/alnah/go-mdpress/internal/fileutil"
	"github.com/alnah/go-mdpress/internal/frontmatter"
	"github.com/alnah/go-mdpress/internal/layout"
	"github.com/alnah/go-mdpress/internal/pipeline"
	"github.com/alnah/go-mdpress/internal/refs"
	"github.com/alnah/go-mdpress/internal/slides"
	"github.com/alnah/go-mdpress/internal/toc"
)

// Root markup.
const (
	rootClass     = "mdpress-root"
	documentClass = "mdpress-document"
	deckClass     = "mdpress-deck"
	slideClass    = "slide"
	contentClass  = "slide-content"
	errorClass    = "mdpress-error"

	modeDocument = "document"
	modeSlides   = "slides"

	referencesAnchor = "references"
	referencesTitle  = "References"
	navHint          = "Use ← and → to change slides"
)

// Registry ids of the page assets.
const (
	styleID   = "mdpress-style"
	codeID    = "mdpress-code"
	layoutID  = "mdpress-layout"
	userID    = "mdpress-user"
	inputID   = "mdpress-input"
	mermaidID = "mermaid"
	runtimeID = "mdpress-runtime"
)

// documentMeta is the YAML view of the front matter.
type documentMeta struct {
	Title string `yaml:"title"`
	Lang  string `yaml:"lang"`
}

// unit is one independently converted part of a render: a slide, or the
// whole body in document mode.
type unit struct {
	slide    int // 1-based, 0 in document mode
	tokens   refs.Result
	markdown string
	diagrams []diagram.Block
	html     string
}

// referencesID is the id of the unit's reference heading.
func (u *unit) referencesID() string {
	if u.slide == 0 {
		return referencesAnchor
	}
	return slides.Anchor(u.slide) + "-" + referencesAnchor
}

// render runs the pipeline for one validated input.
func (c *Converter) render(ctx context.Context, input Input) (*Result, error) {
	start := time.Now()
	log := c.cfg.log

	text := pipeline.NormalizeLineEndings(input.Markdown)
	fm := frontmatter.Extract(text)
	var meta documentMeta
	if fm.HasBlock() {
		if err := fm.Meta(&meta); err != nil {
			log.Debug("front matter is not YAML", zap.Error(err))
		}
	}
	slideMode := fm.Flags.SlideMode()

	// The bibliography loads while the body is converted.
	var entries map[string]bib.Entry
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		entries = c.bib.Resolve(gctx, fm.Field(bib.FrontMatterKeys...), input.Source)
		return nil
	})

	units, defs := tokenize(fm.Body, slideMode)
	ids := pipeline.NewHeadingIDs()
	reserveIDs(ids, units, c.containerID(input))

	hasMermaid, hasD2 := false, false
	for _, u := range units {
		for _, b := range u.diagrams {
			hasMermaid = hasMermaid || b.Lang == diagram.Mermaid
			hasD2 = hasD2 || b.Lang == diagram.D2
		}
	}

	var diagramsReady bool
	var diagramErr error
	if hasD2 && c.diagrams != nil {
		g.Go(func() error {
			wait, cancel := context.WithTimeout(gctx, c.cfg.diagramTimeout)
			defer cancel()
			if err := c.diagrams.Ready(wait); err != nil {
				diagramErr = fmt.Errorf("%w: %v", ErrDiagramTimeout, err)
				return nil
			}
			diagramsReady = true
			return nil
		})
	}

	sectionOpts := refs.SectionOptions{Inline: c.inline.Render, ReferencesTitle: referencesTitle}
	for _, u := range units {
		if err := c.convertUnit(ctx, u, ids); err != nil {
			_ = g.Wait()
			return nil, err
		}
		res := &refs.Resolver{Local: u.tokens.Definitions, Global: defs, Original: text}
		u.html += refs.RenderFootnotes(u.tokens.Registry, res, sectionOpts)
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var warnings error
	if diagramErr != nil {
		log.Warn("rendering without server-side diagrams", zap.Error(diagramErr))
		warnings = multierr.Append(warnings, diagramErr)
	}
	for _, u := range units {
		opts := sectionOpts
		opts.ReferencesID = u.referencesID()
		u.html += refs.RenderReferences(u.tokens.Registry, entries, opts)
	}

	root, contents, err := c.assemble(input, units, slideMode)
	if err != nil {
		return nil, err
	}
	pipeline.WrapTables(root)
	rewriter := pipeline.PathRewriter{Source: input.Source, OutputDir: input.OutputDir}
	if err := rewriter.Rewrite(root); err != nil {
		return nil, fmt.Errorf("rewriting relative paths: %w", err)
	}

	result := &Result{SlideMode: slideMode}
	var renderer *diagram.Renderer
	if diagramsReady {
		renderer = diagram.NewRenderer(c.diagrams, log)
	}
	if slideMode {
		result.Slides = len(units)
		result.Layouts, err = c.layoutSlides(ctx, units, contents, renderer, mediaBase(input))
		warnings = multierr.Append(warnings, err)
	} else if renderer != nil {
		if _, err := renderer.RenderAll(ctx, root); err != nil {
			log.Warn("diagram rendering stopped", zap.Error(err))
			warnings = multierr.Append(warnings, err)
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if c.cfg.toc {
		headings := toc.Extract(root)
		result.Headings = len(headings)
		if len(headings) > 0 {
			sidebar := toc.Render(toc.Build(headings), toc.RenderOptions{Title: c.cfg.tocTitle, SlideMode: slideMode})
			if err := appendHTML(root, sidebar); err != nil {
				return nil, fmt.Errorf("rendering sidebar: %w", err)
			}
		}
	}

	result.Title = firstNonEmpty(fm.Field("title"), meta.Title, firstHeading(root), input.Title)
	lang := firstNonEmpty(fm.Field("lang"), meta.Lang, c.cfg.lang)

	body, err := dom.Render(root)
	if err != nil {
		return nil, fmt.Errorf("rendering body: %w", err)
	}
	page, err := assets.RenderPage(c.template, c.registry(input, slideMode, hasMermaid), assets.Page{
		Lang:  lang,
		Title: result.Title,
		Body:  body,
	})
	if err != nil {
		return nil, fmt.Errorf("rendering page: %w", err)
	}
	result.HTML = []byte(page)
	result.Warnings = warnings

	log.Debug("render complete",
		zap.String("mode", modeName(slideMode)),
		zap.Int("units", len(units)),
		zap.Int("headings", result.Headings),
		zap.Duration("duration", time.Since(start)),
	)
	return result, nil
}

// tokenize cuts body into units and numbers their markers. Every unit's
// footnote definitions join one document-wide registry so a slide can cite
// a note defined on another.
func tokenize(body string, slideMode bool) ([]*unit, *refs.Definitions) {
	segments := []slides.Slide{{Text: body}}
	if slideMode {
		segments = slides.Split(body)
	}

	defs := &refs.Definitions{}
	units := make([]*unit, 0, len(segments))
	for _, s := range segments {
		tok := refs.Tokenize(s.Text)
		defs.Add(tok.Definitions)
		md, blocks := diagram.Extract(tok.Text)
		units = append(units, &unit{slide: s.Index, tokens: tok, markdown: md, diagrams: blocks})
	}
	return units, defs
}

// reserveIDs keeps heading ids from taking the ids of generated elements.
func reserveIDs(ids *pipeline.HeadingIDs, units []*unit, container string) {
	for _, id := range []string{container, "toc-sidebar", "toc-toggle"} {
		ids.Put([]byte(id))
	}
	for _, u := range units {
		if u.slide > 0 {
			ids.Put([]byte(slides.Anchor(u.slide)))
		}
		if len(u.tokens.Registry.Citations()) > 0 {
			ids.Put([]byte(u.referencesID()))
		}
	}
}

// convertUnit turns the Markdown of u into HTML. Markers, marks and
// diagram containers are expanded after goldmark so it never needs to pass
// raw HTML through.
func (c *Converter) convertUnit(ctx context.Context, u *unit, ids *pipeline.HeadingIDs) error {
	md := c.preprocessor.PreprocessMarkdown(ctx, u.markdown)
	if err := ctx.Err(); err != nil {
		return err
	}
	out, err := c.htmlConverter.ToHTML(ctx, md, ids)
	if err != nil {
		if u.slide > 0 {
			return fmt.Errorf("converting slide %d to HTML: %w", u.slide, err)
		}
		return fmt.Errorf("converting to HTML: %w", err)
	}
	out = pipeline.ConvertMarkPlaceholders(out)
	out = u.tokens.RenderMarkers(out)
	u.html = diagram.Expand(out, u.diagrams)
	return nil
}

// assemble builds the container tree. In slide mode it also returns the
// content element of every slide, in order.
func (c *Converter) assemble(input Input, units []*unit, slideMode bool) (*html.Node, []*html.Node, error) {
	root := c.rootElement(input, slideMode)

	if !slideMode {
		article := dom.Element("article", "class", documentClass)
		if err := appendHTML(article, units[0].html); err != nil {
			return nil, nil, fmt.Errorf("parsing document: %w", err)
		}
		root.AppendChild(article)
		return root, nil, nil
	}

	deck := dom.Element("div", "class", deckClass)
	contents := make([]*html.Node, 0, len(units))
	for i, u := range units {
		class := slideClass
		if i == 0 {
			class += " active"
		}
		section := dom.Element("section", "class", class, "id", slides.Anchor(u.slide))
		content := dom.Element("div", "class", contentClass)
		if err := appendHTML(content, u.html); err != nil {
			return nil, nil, fmt.Errorf("parsing slide %d: %w", u.slide, err)
		}
		section.AppendChild(content)
		deck.AppendChild(section)
		contents = append(contents, content)
	}
	root.AppendChild(deck)

	hint := dom.Element("div", "class", "slide-nav-hint", "aria-hidden", "true")
	hint.AppendChild(&html.Node{Type: html.TextNode, Data: navHint})
	root.AppendChild(hint)
	return root, contents, nil
}

func (c *Converter) rootElement(input Input, slideMode bool) *html.Node {
	return dom.Element("div",
		"id", c.containerID(input),
		"class", rootClass,
		"data-mode", modeName(slideMode),
		"data-theme", assets.ThemeAttr(c.cfg.forceLight),
		"data-lookahead", strconv.Itoa(toc.DefaultLookahead),
		"data-storage-key", toc.StorageKey,
	)
}

// layoutSlides runs the initial layout pass of every slide, then sizes
// images and draws d2 diagrams, and re-evaluates the slides whose content
// changed. Measurement failures keep the slide as it was and are returned
// combined.
func (c *Converter) layoutSlides(ctx context.Context, units []*unit, contents []*html.Node, renderer *diagram.Renderer, base string) ([]SlideLayout, error) {
	states := make([]*layout.State, len(units))
	queue := layout.NewQueue()
	for i, u := range units {
		states[i] = layout.NewState(u.slide, contents[i])
		states[i].Base = base
		queue.Enqueue(u.slide, layout.TriggerInitial)
	}

	errs := c.drainLayout(ctx, queue, states)

	for _, s := range states {
		sized, err := c.images.SizeAll(ctx, s.Container(), base)
		if err != nil {
			return nil, err
		}
		if sized > 0 {
			c.cfg.log.Debug("images sized", zap.Int("slide", s.Slide), zap.Int("count", sized))
			s.Rebuild()
			queue.Enqueue(s.Slide, layout.TriggerImageLoad)
		}
	}

	if renderer != nil {
		for _, s := range states {
			drawn, err := renderer.RenderAll(ctx, s.Container())
			if err != nil {
				c.cfg.log.Warn("diagram rendering stopped", zap.Int("slide", s.Slide), zap.Error(err))
				errs = multierr.Append(errs, err)
			}
			if drawn > 0 {
				s.Rebuild()
				queue.Enqueue(s.Slide, layout.TriggerDiagramRendered)
			}
		}
	}
	errs = multierr.Append(errs, c.drainLayout(ctx, queue, states))

	out := make([]SlideLayout, len(states))
	for i, s := range states {
		d := s.Decision()
		out[i] = SlideLayout{Slide: s.Slide, TwoColumn: s.TwoColumn(), Reason: string(d.Reason)}
	}
	return out, errs
}

func (c *Converter) drainLayout(ctx context.Context, queue *layout.Queue, states []*layout.State) error {
	return queue.Drain(func(t layout.Task) error {
		s := states[t.Slide-1]
		triggers := make([]string, len(t.Triggers))
		for i, tr := range t.Triggers {
			triggers[i] = tr.String()
		}
		if _, err := c.layout.Evaluate(ctx, s, c.cfg.viewport); err != nil {
			c.cfg.log.Warn("layout measurement failed",
				zap.Int("slide", t.Slide),
				zap.Strings("trigger", triggers),
				zap.Error(err),
			)
			return err
		}
		c.cfg.log.Debug("slide laid out", zap.Int("slide", t.Slide), zap.Strings("trigger", triggers))
		return nil
	})
}

// mediaBase is the URL relative media of the page resolve against: the
// output directory once PathRewriter has moved local paths there, else the
// directory of the source.
func mediaBase(input Input) string {
	switch {
	case fileutil.IsURL(input.Source):
		return input.Source
	case input.OutputDir != "":
		return dirURL(input.OutputDir)
	case input.Source != "":
		return dirURL(filepath.Dir(input.Source))
	}
	return ""
}

func dirURL(dir string) string {
	u, err := fileutil.FileURL(dir)
	if err != nil {
		return ""
	}
	return strings.TrimSuffix(u, "/") + "/"
}

// registry collects the page styles and scripts. The runtime script goes
// last so mermaid is defined when it runs.
func (c *Converter) registry(input Input, slideMode, mermaid bool) *assets.Registry {
	reg := assets.NewRegistry(c.loader)
	reg.AddStyle(styleID, c.styleCSS)
	reg.AddStyle(codeID, c.codeCSS)
	if slideMode {
		reg.AddStyle(layoutID, assets.LayoutCSS(c.cfg.layout.MinWidth))
	}
	if c.userCSS != "" {
		reg.AddStyle(userID, c.userCSS)
	}
	if input.CSS != "" {
		reg.AddStyle(inputID, input.CSS)
	}
	if mermaid {
		reg.AddScriptSrc(mermaidID, assets.MermaidScriptURL(c.cfg.preferMinified))
	}
	reg.AddScript(runtimeID, c.runtime)
	return reg
}

// errorPage renders a page whose container holds only message.
func (c *Converter) errorPage(input Input, message string) (string, error) {
	root := c.rootElement(input, false)
	p := dom.Element("p", "class", errorClass, "role", "alert")
	p.AppendChild(&html.Node{Type: html.TextNode, Data: message})
	root.AppendChild(p)

	body, err := dom.Render(root)
	if err != nil {
		return "", err
	}
	reg := assets.NewRegistry(c.loader)
	reg.AddStyle(styleID, c.styleCSS)
	return assets.RenderPage(c.template, reg, assets.Page{Lang: c.cfg.lang, Title: input.Title, Body: body})
}

// appendHTML parses fragment in the context of parent and appends the
// resulting nodes.
func appendHTML(parent *html.Node, fragment string) error {
	frag, err := dom.ParseFragmentIn(fragment, parent)
	if err != nil {
		return err
	}
	for n := frag.FirstChild; n != nil; {
		next := n.NextSibling
		frag.RemoveChild(n)
		parent.AppendChild(n)
		n = next
	}
	return nil
}

func firstHeading(root *html.Node) string {
	for _, h := range dom.Find(root, func(n *html.Node) bool { return dom.IsElement(n, "h1") }) {
		if text := toc.HeadingText(h); text != "" {
			return text
		}
	}
	return ""
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func modeName(slideMode bool) string {
	if slideMode {
		return modeSlides
	}
	return modeDocument
}
