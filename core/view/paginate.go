package view

import (
	"fmt"
	"slices"

	"github.com/asaidimu/go-tabula/core"
)

// PageResult is one page of records and the number of pages available.
type PageResult struct {
	Rows       []core.Record
	TotalPages int
}

// TotalPages returns max(1, ceil(count/size)). Size must be positive.
func TotalPages(count, size int) int {
	if size <= 0 || count <= 0 {
		return 1
	}
	return (count + size - 1) / size
}

// ClampIndex limits a 1-based page index to [1, totalPages].
func ClampIndex(index, totalPages int) int {
	return max(1, min(index, max(1, totalPages)))
}

// Paginate returns the rows of page. An index outside [1, TotalPages] yields
// no rows rather than an error, so callers can navigate freely and clamp for
// display. A non-positive page size fails with ErrInvalidArgument.
func Paginate(records []core.Record, page Page) (PageResult, error) {
	if page.Size <= 0 {
		return PageResult{}, fmt.Errorf("%w: page size must be positive, got %d", ErrInvalidArgument, page.Size)
	}

	result := PageResult{
		Rows:       []core.Record{},
		TotalPages: TotalPages(len(records), page.Size),
	}
	if page.Index < 1 || page.Index > result.TotalPages {
		return result, nil
	}

	start := (page.Index - 1) * page.Size
	end := min(start+page.Size, len(records))
	if start < end {
		result.Rows = slices.Clone(records[start:end])
	}
	return result, nil
}
