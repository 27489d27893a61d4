package pipeline

import (
	"golang.org/x/net/html"

	"github.com/alnah/go-mdpress/internal/dom"
)

// TableWrapperClass is the class of the scroll container around tables.
const TableWrapperClass = "table-wrapper"

// WrapTables puts every table under root in a div.table-wrapper, unless it
// already has one. It returns the number of tables wrapped.
func WrapTables(root *html.Node) int {
	tables := dom.Find(root, func(n *html.Node) bool { return dom.IsElement(n, "table") })
	wrapped := 0
	for _, t := range tables {
		parent := t.Parent
		if parent == nil || (dom.IsElement(parent, "div") && dom.HasClass(parent, TableWrapperClass)) {
			continue
		}
		wrapper := dom.Element("div", "class", TableWrapperClass)
		parent.InsertBefore(wrapper, t)
		parent.RemoveChild(t)
		wrapper.AppendChild(t)
		wrapped++
	}
	return wrapped
}
