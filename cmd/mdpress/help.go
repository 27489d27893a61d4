package main

import (
	"fmt"
	"io"
)

// printUsage prints the main usage message.
func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: mdpress <command> [flags] [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  render     Render markdown documents and slide decks to HTML (default)")
	fmt.Fprintln(w, "  serve      Serve a directory with caching disabled for preview")
	fmt.Fprintln(w, "  version    Show version information")
	fmt.Fprintln(w, "  help       Show help for a command")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run 'mdpress help <command>' for details on a specific command.")
}

// printRenderUsage prints usage for the render command.
func printRenderUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: mdpress render <input>... [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Render markdown files, directories, or URLs to standalone HTML pages.")
	fmt.Fprintln(w, "Front matter with slides: true (or marp, mheSlides) renders a slide deck.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Arguments:")
	fmt.Fprintln(w, "  input    Markdown file, directory, or http(s) URL")
	fmt.Fprintln(w, "           (optional if config has input.defaultDir)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Input/Output:")
	fmt.Fprintln(w, "  -o, --output <path>         Output .html file or directory")
	fmt.Fprintln(w, "  -c, --config <name>         Config file name or path")
	fmt.Fprintln(w, "  -w, --workers <n>           Parallel workers (0 = auto)")
	fmt.Fprintln(w, "  -t, --timeout <d>           Per-document timeout (e.g., 30s, 2m)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Layout:")
	fmt.Fprintln(w, "      --min-width <px>        Minimum viewport width for two columns")
	fmt.Fprintln(w, "      --viewport <WxH>        Target viewport (default 1280x800)")
	fmt.Fprintln(w, "      --measurer <s>          Block measurer: estimate, browser")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Styling:")
	fmt.Fprintln(w, "      --style <name|path>     CSS style name or file path")
	fmt.Fprintln(w, "      --asset-path <dir>      Custom asset directory")
	fmt.Fprintln(w, "      --force-light           Disable the dark color scheme")
	fmt.Fprintln(w, "      --no-minify             Load the unminified mermaid script")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Diagrams:")
	fmt.Fprintln(w, "      --diagram-timeout <d>   Engine readiness budget (default 10s)")
	fmt.Fprintln(w, "      --no-diagrams           Leave d2 blocks as source")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Table of Contents:")
	fmt.Fprintln(w, "      --toc-title <s>         Sidebar heading")
	fmt.Fprintln(w, "      --no-toc                Disable the sidebar")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Document:")
	fmt.Fprintln(w, "      --title <s>             Page title when the document has none")
	fmt.Fprintln(w, "      --lang <s>              Page language when the document has none")
	fmt.Fprintln(w, "      --container <id>        Root container id (default mdpress)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Output Control:")
	fmt.Fprintln(w, "  -q, --quiet                 Only show errors")
	fmt.Fprintln(w, "  -v, --verbose               Show debug logs and timing")
}

// printServeUsage prints usage for the serve command.
func printServeUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: mdpress serve [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Serve a directory on 127.0.0.1 with caching disabled, so edited")
	fmt.Fprintln(w, "documents show up on reload.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	fmt.Fprintln(w, "  -p, --port <n>              Port (default: PORT or 8000)")
	fmt.Fprintln(w, "  -r, --root <dir>            Directory to serve (default: ROOT_DIR or .)")
	fmt.Fprintln(w, "  -c, --config <name>         Config file name or path")
	fmt.Fprintln(w, "  -q, --quiet                 Only show errors")
	fmt.Fprintln(w, "  -v, --verbose               Log every request")
}

// runHelp prints help for a specific command.
func runHelp(args []string, env *Environment) error {
	if len(args) == 0 {
		printUsage(env.Stdout)
		return nil
	}

	switch args[0] {
	case cmdRender:
		printRenderUsage(env.Stdout)
	case cmdServe:
		printServeUsage(env.Stdout)
	case cmdVersion:
		fmt.Fprintln(env.Stdout, "Usage: mdpress version")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Show version information.")
	case cmdHelp:
		fmt.Fprintln(env.Stdout, "Usage: mdpress help [command]")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Show help for a command.")
	default:
		printUsage(env.Stderr)
		return fmt.Errorf("%w: %s", ErrUnknownCommand, args[0])
	}
	return nil
}
