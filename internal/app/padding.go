package app

// Padder keeps the grid filled with empty rows and grows it as the user scrolls near the bottom.
// Threshold is in pixels; the row counts are rows.
type Padder struct {
	MinRows   int
	Threshold int
	LowWater  int
	Increment int
}

// DefaultPadder returns the stock padding policy.
func DefaultPadder() Padder {
	return Padder{MinRows: 50, Threshold: 50, LowWater: 15, Increment: 25}
}

// EmptyRows counts the padding rows shown after realRows records.
func (p Padder) EmptyRows(realRows int) int {
	return max(0, p.MinRows-realRows)
}

// AtBottom reports whether the viewport is within Threshold of the content end.
func (p Padder) AtBottom(scrollTop, clientHeight, scrollHeight int) bool {
	return scrollTop+clientHeight >= scrollHeight-p.Threshold
}

// OnScroll applies one scroll event and reports whether MinRows grew.
func (p Padder) OnScroll(scrollTop, clientHeight, scrollHeight, realRows int) (Padder, bool) {
	if !p.AtBottom(scrollTop, clientHeight, scrollHeight) {
		return p, false
	}
	if p.EmptyRows(realRows) > p.LowWater {
		return p, false
	}
	p.MinRows += p.Increment
	return p, true
}

// PaddingRows returns the 1-based display numbers of the padding rows.
func (p Padder) PaddingRows(realRows int) []int {
	n := p.EmptyRows(realRows)
	out := make([]int, n)
	for i := range out {
		out[i] = realRows + i + 1
	}
	return out
}

// TotalRows is the number of rendered body rows.
func (p Padder) TotalRows(realRows int) int {
	return realRows + p.EmptyRows(realRows)
}
