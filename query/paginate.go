package query

import "slices"

// Paginate returns the 1-based page of items and the total page count.
// Pages past the end are empty; the page count is never below 1.
func Paginate[T any](items []T, page, size int) ([]T, int) {
	if size <= 0 {
		size = DefaultPageSize
	}
	if page <= 0 {
		page = 1
	}

	totalPages := PageCount(len(items), size)

	// Compared before multiplying so a huge page cannot overflow the offset.
	if len(items) == 0 || page-1 > (len(items)-1)/size {
		return []T{}, totalPages
	}
	start := (page - 1) * size
	end := min(start+size, len(items))
	return slices.Clone(items[start:end]), totalPages
}

// PageCount is the number of pages needed for total items, never below 1.
func PageCount(total, size int) int {
	if size <= 0 {
		size = DefaultPageSize
	}
	return max(1, (total+size-1)/size)
}
