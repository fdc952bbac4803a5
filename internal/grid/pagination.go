package grid

const DefaultPageSize = 10

// Pagination slices the visible row sequence. Page is zero based; Size 0 shows
// every row on one page.
type Pagination struct {
	Page int
	Size int
}

// PageCount is never below one so an empty grid still has a page to show.
func (p Pagination) PageCount(n int) int {
	if p.Size <= 0 || n == 0 {
		return 1
	}
	return (n + p.Size - 1) / p.Size
}

// Bounds returns the half-open range of visible positions on the current page.
func (p Pagination) Bounds(n int) (start, end int) {
	if p.Size <= 0 {
		return 0, n
	}
	start = min(p.Page*p.Size, n)
	end = min(start+p.Size, n)
	return start, end
}

// PageOf returns the page holding visible position pos.
func (p Pagination) PageOf(pos int) int {
	if p.Size <= 0 || pos < 0 {
		return 0
	}
	return pos / p.Size
}

func (p Pagination) clamp(n int) Pagination {
	last := p.PageCount(n) - 1
	p.Page = max(0, min(p.Page, last))
	return p
}

func (p Pagination) IsLast(n int) bool {
	return p.Page >= p.PageCount(n)-1
}
