// Package paginate splits an ordered collection into fixed-size pages.
//
// Page numbers are 1-based. Anything that is not a positive integer means
// page 1, and numbers past the end clamp to the last page. An empty
// collection still has one (empty) page.
package paginate

import "strconv"

// Window is the offset/limit slice of one page.
type Window struct {
	Number     int // clamped page number
	TotalPages int
	Offset     int
	Limit      int
}

// Page is one page of items plus the metadata templates need for navigation.
type Page[T any] struct {
	Items      []T
	Number     int
	TotalPages int
	TotalItems int
}

// ParseNumber reads a ?page= value. Absent, non-numeric and non-positive
// values all mean page 1.
func ParseNumber(raw string) int {
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// NewWindow computes the window for page number over total items.
func NewWindow(total, size, number int) Window {
	if size < 1 {
		size = 1
	}
	if total < 0 {
		total = 0
	}

	pages := (total + size - 1) / size
	if pages < 1 {
		pages = 1
	}

	switch {
	case number < 1:
		number = 1
	case number > pages:
		number = pages
	}

	return Window{
		Number:     number,
		TotalPages: pages,
		Offset:     (number - 1) * size,
		Limit:      size,
	}
}

// FromWindow wraps items already fetched for w into a Page.
func FromWindow[T any](items []T, total int, w Window) Page[T] {
	if items == nil {
		items = []T{}
	}
	return Page[T]{
		Items:      items,
		Number:     w.Number,
		TotalPages: w.TotalPages,
		TotalItems: total,
	}
}

// Slice returns page number of items. The input slice is not modified; the
// returned Items share its backing array.
func Slice[T any](items []T, size, number int) Page[T] {
	w := NewWindow(len(items), size, number)

	end := w.Offset + w.Limit
	if end > len(items) {
		end = len(items)
	}
	start := w.Offset
	if start > end {
		start = end
	}

	return FromWindow(items[start:end:end], len(items), w)
}

func (p Page[T]) HasPrevious() bool { return p.Number > 1 }

func (p Page[T]) HasNext() bool { return p.Number < p.TotalPages }

func (p Page[T]) PreviousNumber() int {
	if p.Number > 1 {
		return p.Number - 1
	}
	return 1
}

func (p Page[T]) NextNumber() int {
	if p.Number < p.TotalPages {
		return p.Number + 1
	}
	return p.TotalPages
}
