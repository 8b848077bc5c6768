// Package paginate slices in-memory result sets into fixed-size pages.
package paginate

// DefaultPageSize is the number of items shown per results page.
const DefaultPageSize = 10

// Page is one slice of a result set.
type Page[T any] struct {
	Items      []T `json:"items"`
	Number     int `json:"page"`
	Size       int `json:"page_size"`
	TotalPages int `json:"total_pages"`
	Total      int `json:"total"`
}

// TotalPages returns max(1, ceil(count/pageSize)).
func TotalPages(count, pageSize int) int {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	pages := (count + pageSize - 1) / pageSize
	if pages < 1 {
		return 1
	}
	return pages
}

// Clamp limits page to [1, totalPages].
func Clamp(page, totalPages int) int {
	if totalPages < 1 {
		totalPages = 1
	}
	switch {
	case page < 1:
		return 1
	case page > totalPages:
		return totalPages
	default:
		return page
	}
}

// Paginate returns the requested page of items. An out-of-range page is
// clamped before slicing; the returned Items share storage with items.
func Paginate[T any](items []T, pageSize, page int) Page[T] {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	total := TotalPages(len(items), pageSize)
	page = Clamp(page, total)

	start := (page - 1) * pageSize
	end := min(start+pageSize, len(items))
	if start > end {
		start = end
	}

	return Page[T]{
		Items:      items[start:end],
		Number:     page,
		Size:       pageSize,
		TotalPages: total,
		Total:      len(items),
	}
}

// Links returns the page numbers rendered in the navigation control.
func Links(totalPages int) []int {
	if totalPages < 1 {
		totalPages = 1
	}
	links := make([]int, totalPages)
	for i := range links {
		links[i] = i + 1
	}
	return links
}

// State is the current page of one results view.
// The zero value is on page 1.
type State struct {
	current int
}

// Current returns the current 1-based page.
func (s *State) Current() int {
	if s.current < 1 {
		return 1
	}
	return s.current
}

// Go moves to page, clamped to the available pages.
func (s *State) Go(page, count, pageSize int) int {
	s.current = Clamp(page, TotalPages(count, pageSize))
	return s.current
}

// Reset returns to page 1. Called whenever the underlying results change.
func (s *State) Reset() {
	s.current = 1
}
