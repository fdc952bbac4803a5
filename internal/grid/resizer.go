package grid

// MinColumnWidth is the narrowest a drag may make a column.
const MinColumnWidth = 50

// Resizer tracks one column-boundary drag. It only exists between Start and End;
// the host wires pointer events to it for exactly that span.
type Resizer struct {
	column     int
	startX     int
	startWidth int
	active     bool

	onResize func(col, width int)
}

// NewResizer reports live widths through onResize.
func NewResizer(onResize func(col, width int)) *Resizer {
	return &Resizer{column: -1, onResize: onResize}
}

// Start captures the pointer X and the current width. The last column has no
// boundary handle; callers pass columnCount so it can be refused.
func (r *Resizer) Start(col, columnCount, x, width int) bool {
	if col < 0 || col >= columnCount-1 {
		return false
	}
	r.column = col
	r.startX = x
	r.startWidth = width
	r.active = true
	return true
}

// Move computes max(MinColumnWidth, startWidth + dx) and reports it.
func (r *Resizer) Move(x int) (int, bool) {
	if !r.active {
		return 0, false
	}
	width := max(MinColumnWidth, r.startWidth+(x-r.startX))
	if r.onResize != nil {
		r.onResize(r.column, width)
	}
	return width, true
}

// End finishes the gesture. It is safe to call when no drag is active.
func (r *Resizer) End() {
	r.active = false
	r.column = -1
}

func (r *Resizer) Active() bool {
	return r.active
}

func (r *Resizer) Column() int {
	return r.column
}
