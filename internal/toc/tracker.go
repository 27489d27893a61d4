package toc

import (
	"strconv"

	"github.com/alnah/go-mdpress/internal/slides"
)

// DefaultLookahead is how far below the scroll position a heading may sit
// and still count as active.
const DefaultLookahead = 80

// Position is a heading's place on the page as the runtime sees it.
type Position struct {
	ID      string
	Offset  float64 // distance from the top of the document
	Slide   int     // 0 outside slide mode
	Visible bool    // false when hidden by styling
}

// Tracker models active-section tracking. The runtime script applies the
// same rule in the browser.
type Tracker struct {
	Lookahead   float64
	ActiveSlide int // 0 outside slide mode
}

// Active returns the id of the last visible heading whose offset is at or
// above scrollY plus the lookahead, or the first visible heading when none
// qualify. Headings in inactive slides count as hidden. It returns "" when
// nothing is visible.
func (t Tracker) Active(positions []Position, scrollY float64) string {
	lookahead := t.Lookahead
	if lookahead == 0 {
		lookahead = DefaultLookahead
	}

	first, active := "", ""
	for _, p := range positions {
		if !t.visible(p) {
			continue
		}
		if first == "" {
			first = p.ID
		}
		if p.Offset <= scrollY+lookahead {
			active = p.ID
		}
	}
	if active == "" {
		return first
	}
	return active
}

func (t Tracker) visible(p Position) bool {
	if !p.Visible {
		return false
	}
	return t.ActiveSlide == 0 || p.Slide == 0 || p.Slide == t.ActiveSlide
}

// StepKind names one step of a navigation plan.
type StepKind int

const (
	SwitchSlide StepKind = iota
	ScrollTo
)

// Step is one action the runtime performs after a sidebar click.
type Step struct {
	Kind   StepKind
	Target string // slide anchor or heading id
}

// Click plans navigation to heading id. When the heading lives in a slide
// other than the active one the slide is switched first, since a heading
// in an inactive slide cannot be scrolled to.
func (t Tracker) Click(id string, headings []Heading) []Step {
	for _, h := range headings {
		if h.ID != id {
			continue
		}
		if h.Slide > 0 && h.Slide != t.ActiveSlide {
			return []Step{
				{Kind: SwitchSlide, Target: slides.Anchor(h.Slide)},
				{Kind: ScrollTo, Target: id},
			}
		}
		break
	}
	return []Step{{Kind: ScrollTo, Target: id}}
}

// StorageKey is the browser storage key of the sidebar visibility.
const StorageKey = "mdpress.toc.visible"

// Visibility is the persisted sidebar state.
type Visibility bool

// DefaultVisibility applies until a state has been stored.
const DefaultVisibility Visibility = false

// ParseVisibility reads a stored value. Only the exact string "true", as
// the runtime script writes it, shows the sidebar.
func ParseVisibility(stored string) Visibility {
	return stored == "true"
}

// String returns the stored form.
func (v Visibility) String() string { return strconv.FormatBool(bool(v)) }
