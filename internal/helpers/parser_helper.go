package helpers

import (
	"net/url"
	"strconv"
)

func StringToInt(s string) (int, error) {
	return strconv.Atoi(s)
}

// ParsePage reads a 1-based page number. Anything unparsable or below one is
// the first page.
func ParsePage(raw string) int {
	page, err := StringToInt(raw)
	if err != nil || page < 1 {
		return 1
	}
	return page
}

// Page is one slice of a paginated result.
type Page[T any] struct {
	Items      []T
	Number     int
	Size       int
	Total      int
	TotalPages int
}

func (p Page[T]) HasPrevious() bool {
	return p.Number > 1
}

func (p Page[T]) HasNext() bool {
	return p.Number < p.TotalPages
}

func (p Page[T]) Previous() int {
	return p.Number - 1
}

func (p Page[T]) Next() int {
	return p.Number + 1
}

// Paginate cuts items into pages of size and returns the requested page. A
// page past the end is clamped to the last page.
func Paginate[T any](items []T, page, size int) Page[T] {
	if size < 1 {
		size = len(items)
	}
	total := len(items)
	totalPages := 1
	if size > 0 && total > 0 {
		totalPages = (total + size - 1) / size
	}
	if page < 1 {
		page = 1
	}
	if page > totalPages {
		page = totalPages
	}

	start := (page - 1) * size
	end := start + size
	if start > total {
		start = total
	}
	if end > total {
		end = total
	}

	return Page[T]{
		Items:      items[start:end],
		Number:     page,
		Size:       size,
		Total:      total,
		TotalPages: totalPages,
	}
}

// QueryStringWithout re-encodes values minus the given keys, so that
// pagination links keep the active filters.
func QueryStringWithout(values url.Values, keys ...string) string {
	copied := url.Values{}
	for key, vs := range values {
		copied[key] = append([]string(nil), vs...)
	}
	for _, key := range keys {
		copied.Del(key)
	}
	return copied.Encode()
}
