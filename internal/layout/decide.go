package layout

import "math"

// Reason explains a decision.
type Reason string

const (
	ReasonAccepted              Reason = "accepted"
	ReasonUnknownViewport       Reason = "viewport unknown"
	ReasonNarrowViewport        Reason = "viewport narrower than minimum"
	ReasonEmpty                 Reason = "no content"
	ReasonFits                  Reason = "content fits one column"
	ReasonTooTall               Reason = "content exceeds two columns"
	ReasonUnbreakableTooTall    Reason = "unbreakable block too tall"
	ReasonFirstUnbreakableTall  Reason = "first unbreakable block too tall"
	ReasonImbalanced            Reason = "columns imbalanced"
	ReasonHeadingOnlyLeft       Reason = "heading alone beside large visual"
	ReasonDegenerate            Reason = "degenerate split"
	ReasonLeftUnderfilled       Reason = "left column underfilled"
	ReasonVisualLeftUnderfilled Reason = "left column underfilled beside large visual"
)

// Decision is the outcome of one evaluation.
type Decision struct {
	TwoColumn bool
	Reason    Reason

	Available     float64 // viewport height minus padding; the column ceiling
	ContentHeight float64
	LeftHeight    float64
	RightHeight   float64

	Left  []*Block
	Right []*Block
}

// Decide applies the heuristic to blocks as measured for vp. It does not
// touch the HTML tree.
func (p Params) Decide(blocks []*Block, vp Viewport) Decision {
	if !vp.Known() {
		return Decision{Reason: ReasonUnknownViewport}
	}
	if vp.Width < p.MinWidth {
		return Decision{Reason: ReasonNarrowViewport}
	}

	d := Decision{Available: vp.Height - p.Padding}
	for _, b := range blocks {
		d.ContentHeight += b.Height
	}
	switch {
	case len(blocks) == 0:
		d.Reason = ReasonEmpty
		return d
	case d.ContentHeight <= d.Available:
		d.Reason = ReasonFits
		return d
	case d.ContentHeight > 2*d.Available-p.SmallMargin:
		d.Reason = ReasonTooTall
		return d
	}

	if r, ok := p.unbreakableLimit(blocks, d.Available); !ok {
		d.Reason = r
		return d
	}

	d.Left, d.Right, d.LeftHeight, d.RightHeight = p.fill(blocks, d.Available)
	if r, ok := p.acceptSplit(d); !ok {
		d.Reason = r
		d.Left, d.Right = nil, nil
		return d
	}
	d.TwoColumn = true
	d.Reason = ReasonAccepted
	return d
}

func (p Params) unbreakableLimit(blocks []*Block, available float64) (Reason, bool) {
	first := true
	for _, b := range blocks {
		if !b.Kind.Unbreakable() {
			continue
		}
		if b.Height > p.UnbreakableMaxRatio*available {
			return ReasonUnbreakableTooTall, false
		}
		if first && b.Height > p.FirstUnbreakableMaxRatio*available {
			return ReasonFirstUnbreakableTall, false
		}
		first = false
	}
	return "", true
}

// fill packs left first. The first block that would push the left column
// past its ceiling and every block after it go right, keeping reading order.
func (p Params) fill(blocks []*Block, available float64) (left, right []*Block, lh, rh float64) {
	ceiling := available - p.SmallOffset
	spilled := false
	for _, b := range blocks {
		if !spilled && lh+b.Height <= ceiling {
			left = append(left, b)
			lh += b.Height
			continue
		}
		spilled = true
		right = append(right, b)
		rh += b.Height
	}
	return left, right, lh, rh
}

func (p Params) acceptSplit(d Decision) (Reason, bool) {
	if len(d.Right) == 0 {
		return ReasonFits, false
	}

	hi := math.Max(d.LeftHeight, d.RightHeight)
	if hi == 0 || math.Min(d.LeftHeight, d.RightHeight)/hi < p.MinBalanceRatio {
		return ReasonImbalanced, false
	}

	largeVisual := false
	for _, b := range d.Right {
		if b.Kind.Visual() && b.Height > p.LargeVisualRatio*d.Available {
			largeVisual = true
			break
		}
	}

	if largeVisual && onlyHeadings(d.Left) {
		return ReasonHeadingOnlyLeft, false
	}
	if len(d.Left) <= 1 {
		return ReasonDegenerate, false
	}
	if d.LeftHeight < p.MinLeftFill*d.Available {
		return ReasonLeftUnderfilled, false
	}
	if largeVisual && d.LeftHeight < p.MinLeftFillWithVisual*d.Available {
		return ReasonVisualLeftUnderfilled, false
	}
	return "", true
}

func onlyHeadings(blocks []*Block) bool {
	if len(blocks) == 0 {
		return false
	}
	for _, b := range blocks {
		if b.Kind != KindHeading {
			return false
		}
	}
	return true
}
