package blog

import "math"

// Page size defaults. Public listings use DefaultPerPage, the admin panel
// uses AdminPerPage.
const (
	DefaultPerPage = 10
	AdminPerPage   = 20
	MaxPerPage     = 100

	DefaultFeaturedLimit = 5
	MaxFeaturedLimit     = 50
)

// PageRequest is a 1-indexed page number plus a page size.
type PageRequest struct {
	Page    int
	PerPage int
}

// normalize clamps the request: pages below 1 become 1, a non-positive
// size falls back to def, and sizes are capped at MaxPerPage. Pages past
// the end are left alone; they simply return no items. Pages so large
// that the offset would overflow are lowered to the largest
// representable one, which is still past the end.
func (p PageRequest) normalize(def int) PageRequest {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PerPage < 1 {
		p.PerPage = def
	}
	if p.PerPage > MaxPerPage {
		p.PerPage = MaxPerPage
	}
	if limit := math.MaxInt / p.PerPage; p.Page > limit {
		p.Page = limit
	}
	return p
}

// Offset returns the number of rows to skip.
func (p PageRequest) Offset() int {
	return (p.Page - 1) * p.PerPage
}

// Page is one slice of an ordered collection with the metadata needed to
// navigate to its neighbours.
type Page[T any] struct {
	Items   []T
	Page    int
	PerPage int
	Total   int
}

func newPage[T any](items []T, req PageRequest, total int) Page[T] {
	if items == nil {
		items = []T{}
	}
	return Page[T]{Items: items, Page: req.Page, PerPage: req.PerPage, Total: total}
}

// Pages returns the total number of pages (0 for an empty collection).
func (p Page[T]) Pages() int {
	if p.PerPage < 1 || p.Total == 0 {
		return 0
	}
	return (p.Total + p.PerPage - 1) / p.PerPage
}

// HasNext reports whether a page exists after this one.
func (p Page[T]) HasNext() bool {
	return p.Page < p.Pages()
}

// HasPrev reports whether a page exists before this one.
func (p Page[T]) HasPrev() bool {
	return p.Page > 1
}
