package pipeline

import (
	"net/url"
	"path/filepath"
	"strings"

	"golang.org/x/net/html"

	"github.com/alnah/go-mdpress/internal/dom"
	"github.com/alnah/go-mdpress/internal/fileutil"
)

// rewritable lists the attributes holding document-relative paths.
var rewritable = map[string][]string{
	"img":    {"src"},
	"video":  {"src", "poster"},
	"audio":  {"src"},
	"source": {"src"},
	"a":      {"href"},
}

// PathRewriter points relative media and link paths of a rendered fragment
// back at the document they came from.
//
// For a remote source (http/https) paths become absolute URLs. For a local
// source they become relative to OutputDir, the directory the page is
// written to; with an empty OutputDir local paths are left alone. Paths
// that climb out of the source directory are never rewritten.
type PathRewriter struct {
	Source    string // document path or URL
	OutputDir string
}

// Rewrite updates root in place.
func (p PathRewriter) Rewrite(root *html.Node) error {
	if p.Source == "" {
		return nil
	}

	var resolve func(string) (string, bool)
	if fileutil.IsURL(p.Source) {
		base, err := url.Parse(p.Source)
		if err != nil {
			return err
		}
		resolve = func(v string) (string, bool) {
			ref, err := url.Parse(v)
			if err != nil {
				return "", false
			}
			return base.ResolveReference(ref).String(), true
		}
	} else {
		if p.OutputDir == "" {
			return nil
		}
		sourceDir, err := filepath.Abs(filepath.Dir(p.Source))
		if err != nil {
			return err
		}
		outDir, err := filepath.Abs(p.OutputDir)
		if err != nil {
			return err
		}
		if sourceDir == outDir {
			return nil
		}
		resolve = func(v string) (string, bool) {
			return relocate(v, sourceDir, outDir)
		}
	}

	dom.Walk(root, func(n *html.Node) bool {
		if n.Type != html.ElementNode {
			return true
		}
		for _, key := range rewritable[n.Data] {
			v, ok := dom.Attr(n, key)
			if !ok || !isRelativePath(v) {
				continue
			}
			if nv, ok := resolve(v); ok {
				dom.SetAttr(n, key, nv)
			}
		}
		return true
	})
	return nil
}

// relocate rewrites path v, relative to sourceDir, to be relative to outDir.
func relocate(v, sourceDir, outDir string) (string, bool) {
	path, suffix := v, ""
	if i := strings.IndexAny(v, "?#"); i >= 0 {
		path, suffix = v[:i], v[i:]
	}
	unescaped, err := url.PathUnescape(path)
	if err != nil {
		return "", false
	}

	absPath := filepath.Join(sourceDir, filepath.FromSlash(unescaped))
	if !isPathUnderDir(absPath, sourceDir) {
		return "", false
	}
	rel, err := filepath.Rel(outDir, absPath)
	if err != nil {
		return "", false
	}
	return (&url.URL{Path: filepath.ToSlash(rel)}).EscapedPath() + suffix, true
}

// isRelativePath returns true if the path should be rewritten.
func isRelativePath(path string) bool {
	if path == "" || strings.HasPrefix(path, "#") || strings.HasPrefix(path, "//") {
		return false
	}
	if u, err := url.Parse(path); err != nil || u.Scheme != "" {
		return false
	}
	return !filepath.IsAbs(path) && !strings.HasPrefix(path, "/")
}

// isPathUnderDir checks if absPath is under dir (prevents path traversal).
func isPathUnderDir(absPath, dir string) bool {
	cleanPath := filepath.Clean(absPath)
	cleanDir := filepath.Clean(dir)

	if !strings.HasSuffix(cleanDir, string(filepath.Separator)) {
		cleanDir += string(filepath.Separator)
	}

	return strings.HasPrefix(cleanPath+string(filepath.Separator), cleanDir)
}
