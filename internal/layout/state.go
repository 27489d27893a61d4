package layout

import (
	"strconv"

	"golang.org/x/net/html"

	"github.com/alnah/go-mdpress/internal/dom"
)

// Class names of the two-column projection.
const (
	ClassTwoCol  = "two-col"
	ClassColumn  = "col"
	ClassLeft    = "col-left"
	ClassRight   = "col-right"
	ClassNoSplit = "no-split"
)

// State is the layout state of one slide. The snapshot of the container's
// original children is the single source of truth; the two-column view is a
// projection that Revert always undoes exactly.
type State struct {
	Slide int
	Base  string // resolves relative media while measuring

	container *html.Node
	nodes     []*html.Node // every original child, text nodes included
	blocks    []*Block     // element children only
	twoCol    bool
	decision  Decision
}

// NewState snapshots the children of container. Unbreakable blocks are
// marked so they never split across columns.
func NewState(slide int, container *html.Node) *State {
	s := &State{Slide: slide, container: container}
	s.snapshot()
	return s
}

func (s *State) snapshot() {
	s.nodes = s.nodes[:0]
	s.blocks = s.blocks[:0]
	for c := s.container.FirstChild; c != nil; c = c.NextSibling {
		s.nodes = append(s.nodes, c)
		if c.Type != html.ElementNode {
			continue
		}
		b := &Block{Node: c, Kind: Classify(c)}
		if b.Kind.Unbreakable() {
			dom.AddClass(c, ClassNoSplit)
		}
		s.blocks = append(s.blocks, b)
	}
}

// Container returns the slide content element.
func (s *State) Container() *html.Node { return s.container }

// Blocks returns the snapshot blocks in original order.
func (s *State) Blocks() []*Block { return s.blocks }

// TwoColumn reports whether the projection is applied.
func (s *State) TwoColumn() bool { return s.twoCol }

// Decision returns the decision last applied or evaluated.
func (s *State) Decision() Decision { return s.decision }

// Nodes returns the snapshot node sequence.
func (s *State) Nodes() []*html.Node {
	return append([]*html.Node(nil), s.nodes...)
}

// Apply projects d into a two-column grid inside the container. A decision
// that is not two-column reverts to the flat snapshot.
func (s *State) Apply(d Decision) {
	s.Revert()
	s.decision = d
	if !d.TwoColumn {
		return
	}

	dom.RemoveChildren(s.container)

	style := "max-height:" + strconv.FormatFloat(d.Available, 'f', 0, 64) + "px;overflow-y:auto;overflow-x:hidden"
	grid := dom.Element("div", "class", ClassTwoCol, "style", style)
	left := dom.Element("div", "class", ClassColumn+" "+ClassLeft)
	right := dom.Element("div", "class", ClassColumn+" "+ClassRight)
	for _, b := range d.Left {
		left.AppendChild(b.Node)
	}
	for _, b := range d.Right {
		right.AppendChild(b.Node)
	}
	grid.AppendChild(left)
	grid.AppendChild(right)
	s.container.AppendChild(grid)
	s.twoCol = true
}

// Revert restores the original children in their original order. Node
// identities are preserved; nothing is cloned.
func (s *State) Revert() {
	if !s.twoCol {
		return
	}
	for _, n := range s.nodes {
		dom.Detach(n)
	}
	dom.RemoveChildren(s.container)
	for _, n := range s.nodes {
		s.container.AppendChild(n)
	}
	s.twoCol = false
	s.decision = Decision{}
}

// Rebuild re-reads the snapshot from the flat container, for instance once
// diagrams have been drawn into it. Heights are cleared.
func (s *State) Rebuild() {
	s.Revert()
	s.snapshot()
}
