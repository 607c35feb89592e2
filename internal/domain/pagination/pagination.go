// Package pagination models the result window of a search.
package pagination

import "strconv"

// DefaultSize is the page size a fresh session starts with.
const DefaultSize = 60

// Pagination is a page window. From is never negative.
type Pagination struct {
	Size int `json:"size"`
	From int `json:"from"`
}

// New returns a window at the first page. Non-positive sizes use DefaultSize.
func New(size int) Pagination {
	if size <= 0 {
		size = DefaultSize
	}
	return Pagination{Size: size}
}

// PagePos returns the 0-indexed current page.
func (p Pagination) PagePos() int {
	if p.Size <= 0 {
		return 0
	}
	return p.From / p.Size
}

// MaxPages returns ceil(hits / size).
func (p Pagination) MaxPages(hits int) int {
	if p.Size <= 0 || hits <= 0 {
		return 0
	}
	return (hits + p.Size - 1) / p.Size
}

// AtPagePos jumps to pos, floored at 0. From becomes a multiple of Size.
func (p Pagination) AtPagePos(pos int) Pagination {
	if pos < 0 {
		pos = 0
	}
	p.From = pos * p.Size
	return p
}

// WithFrom sets From, floored at 0.
func (p Pagination) WithFrom(from int) Pagination {
	if from < 0 {
		from = 0
	}
	p.From = from
	return p
}

// PageParam renders the 1-indexed URL value of the current page.
func (p Pagination) PageParam() string {
	return strconv.Itoa(p.PagePos() + 1)
}

// FromPageParam maps a 1-indexed URL page value to From. Unparsable or
// non-positive values map to the first page.
func (p Pagination) FromPageParam(page string) int {
	n, err := strconv.Atoi(page)
	if err != nil || n < 1 {
		return 0
	}
	return (n - 1) * p.Size
}
