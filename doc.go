// Package mdpress renders Markdown documents and slide decks to standalone
// HTML pages.
//
// # Quick Start
//
// Create a converter, render markdown, and close when done:
//
//	conv, err := mdpress.NewConverter()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer conv.Close()
//
//	result, err := conv.Convert(ctx, mdpress.Input{
//	    Markdown: "# Hello\n\nWorld",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	os.WriteFile("index.html", result.HTML, 0644)
//
// RenderSource does the same for a document read from a path or URL.
//
// # Rendering Pipeline
//
// The rendering process follows these stages:
//
//  1. Front matter extraction (slides: true, marp: true or mheslides: true
//     switch to slide mode)
//  2. Slide segmentation on bare --- lines, outside fenced code
//  3. Footnote and citation numbering with one counter per slide; the
//     bibliography loads concurrently
//  4. Markdown to HTML via Goldmark (GFM, hard wraps, chroma highlighting)
//  5. Deck assembly, two-column layout of each slide, d2 diagrams
//  6. Sidebar table of contents and page template
//
// Citations ([@key]) and footnotes ([^key]) share one number sequence in
// order of first appearance. Citations resolve against the BibTeX file named
// by the bibliography, bib or references front-matter field.
//
// # Configuration
//
// Use functional options to customize the converter:
//
//	conv, err := mdpress.NewConverter(
//	    mdpress.WithTwoColumnMinWidth(1100),
//	    mdpress.WithForceLightTheme(true),
//	    mdpress.WithStyle("/path/to/extra.css"),
//	    mdpress.WithLogger(logger),
//	)
//
// # Parallel Processing
//
// For batch rendering, use ConverterPool:
//
//	pool := mdpress.NewConverterPool(4)
//	defer pool.Close()
//
//	conv, err := pool.Acquire()
//	if err != nil {
//	    return err
//	}
//	defer pool.Release(conv)
//	result, err := conv.Convert(ctx, input)
//
// # Custom Assets
//
// Override the built-in style, runtime script or page template using
// AssetLoader:
//
//	loader, err := mdpress.NewAssetLoader("/path/to/assets")
//	conv, err := mdpress.NewConverter(mdpress.WithAssetLoader(loader))
//
// Asset directory structure:
//
//	assets/
//	├── styles/
//	│   └── mdpress.css
//	├── scripts/
//	│   └── runtime.js
//	└── templates/
//	    └── page.html
//
// # Browser Measurement
//
// By default slide heights are estimated from the HTML. WithBrowserMeasure
// measures them in headless Chrome instead. The go-rod library automatically
// downloads a managed Chromium instance on first run (~/.cache/rod/browser/).
// Use ROD_BROWSER_BIN to specify a custom Chrome binary.
package mdpress
