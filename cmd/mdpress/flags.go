package main

import (
	"io"

	flag "github.com/spf13/pflag"
)

// portUnset detects if --port was explicitly set.
// Port 0 is valid (pick a free port), so we use an out-of-range sentinel.
const portUnset = -1

// commonFlags holds flags shared across commands.
type commonFlags struct {
	config  string
	quiet   bool
	verbose bool
}

// layoutFlags holds two-column layout flags.
type layoutFlags struct {
	minWidth float64
	viewport string
	measurer string
}

// themeFlags holds styling flags.
type themeFlags struct {
	style      string
	assetPath  string
	forceLight bool
	noMinify   bool
}

// diagramFlags holds diagram rendering flags.
type diagramFlags struct {
	timeout  string
	disabled bool
}

// tocFlags holds sidebar table of contents flags.
type tocFlags struct {
	title    string
	disabled bool
}

// documentFlags holds page metadata fallbacks.
type documentFlags struct {
	title     string
	lang      string
	container string
}

// renderFlags holds all flags for the render command.
type renderFlags struct {
	common   commonFlags
	output   string
	workers  int
	timeout  string
	layout   layoutFlags
	theme    themeFlags
	diagrams diagramFlags
	toc      tocFlags
	document documentFlags
}

// serveFlags holds all flags for the serve command.
type serveFlags struct {
	common commonFlags
	port   int
	root   string
}

// addCommonFlags adds common flags to a FlagSet.
func addCommonFlags(fs *flag.FlagSet, f *commonFlags) {
	fs.StringVarP(&f.config, "config", "c", "", "config file name or path")
	fs.BoolVarP(&f.quiet, "quiet", "q", false, "only show errors")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "show debug logs and timing")
}

// addLayoutFlags adds layout flags to a FlagSet.
func addLayoutFlags(fs *flag.FlagSet, f *layoutFlags) {
	fs.Float64Var(&f.minWidth, "min-width", 0, "minimum viewport width for two columns in px")
	fs.StringVar(&f.viewport, "viewport", "", "target viewport, WIDTHxHEIGHT (e.g. 1280x800)")
	fs.StringVar(&f.measurer, "measurer", "", "block measurer: estimate, browser")
}

// addThemeFlags adds styling flags to a FlagSet.
func addThemeFlags(fs *flag.FlagSet, f *themeFlags) {
	fs.StringVar(&f.style, "style", "", "CSS style name or file path")
	fs.StringVar(&f.assetPath, "asset-path", "", "custom asset directory")
	fs.BoolVar(&f.forceLight, "force-light", false, "disable the dark color scheme")
	fs.BoolVar(&f.noMinify, "no-minify", false, "load the unminified mermaid script")
}

// addDiagramFlags adds diagram flags to a FlagSet.
func addDiagramFlags(fs *flag.FlagSet, f *diagramFlags) {
	fs.StringVar(&f.timeout, "diagram-timeout", "", "diagram engine readiness budget (e.g., 10s)")
	fs.BoolVar(&f.disabled, "no-diagrams", false, "leave d2 blocks as source")
}

// addTOCFlags adds ToC flags to a FlagSet.
func addTOCFlags(fs *flag.FlagSet, f *tocFlags) {
	fs.StringVar(&f.title, "toc-title", "", "sidebar heading")
	fs.BoolVar(&f.disabled, "no-toc", false, "disable the sidebar table of contents")
}

// addDocumentFlags adds page metadata flags to a FlagSet.
func addDocumentFlags(fs *flag.FlagSet, f *documentFlags) {
	fs.StringVar(&f.title, "title", "", "page title when the document has none")
	fs.StringVar(&f.lang, "lang", "", "page language when the document has none")
	fs.StringVar(&f.container, "container", "", "id of the root container element")
}

// parseRenderFlags parses render command flags and returns positional args.
func parseRenderFlags(args []string, usage io.Writer) (*renderFlags, []string, error) {
	fs := flag.NewFlagSet("render", flag.ContinueOnError)
	fs.SetOutput(usage)
	f := &renderFlags{}

	// I/O flags
	fs.StringVarP(&f.output, "output", "o", "", "output file or directory")
	fs.IntVarP(&f.workers, "workers", "w", 0, "parallel workers (0 = auto)")
	fs.StringVarP(&f.timeout, "timeout", "t", "", "per-document render timeout (e.g., 30s, 2m)")

	// Flag groups
	addCommonFlags(fs, &f.common)
	addLayoutFlags(fs, &f.layout)
	addThemeFlags(fs, &f.theme)
	addDiagramFlags(fs, &f.diagrams)
	addTOCFlags(fs, &f.toc)
	addDocumentFlags(fs, &f.document)

	fs.Usage = func() { printRenderUsage(usage) }

	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}

	return f, fs.Args(), nil
}

// parseServeFlags parses serve command flags and returns positional args.
func parseServeFlags(args []string, usage io.Writer) (*serveFlags, []string, error) {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.SetOutput(usage)
	f := &serveFlags{}

	fs.IntVarP(&f.port, "port", "p", portUnset, "port to listen on (default: config, PORT, or 8000)")
	fs.StringVarP(&f.root, "root", "r", "", "directory to serve (default: config, ROOT_DIR, or .)")
	addCommonFlags(fs, &f.common)

	fs.Usage = func() { printServeUsage(usage) }

	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}

	return f, fs.Args(), nil
}
