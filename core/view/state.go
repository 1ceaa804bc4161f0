// Package view implements the tabular data view behind the console's user and
// task tables: free-text filtering, single-column sorting, pagination and CSV
// export over a record set the caller already holds in memory.
//
// Every operation is a pure function of its inputs. The current search text,
// sort column and page belong to the caller, which passes them in as a State
// on each call.
package view

// SortDirection specifies the direction for sorting.
type SortDirection string

// Supported sort directions.
const (
	Ascending  SortDirection = "asc"
	Descending SortDirection = "desc"
)

// SortSpec names the field to sort by and the direction. An empty Field
// means the input order is kept.
type SortSpec struct {
	Field     string
	Direction SortDirection
}

// IsNone reports whether the spec leaves records in input order.
func (s SortSpec) IsNone() bool {
	return s.Field == ""
}

// Toggle returns the spec produced by selecting the column field: the same
// column flips from ascending to descending, anything else starts ascending.
func (s SortSpec) Toggle(field string) SortSpec {
	if s.Field == field && s.Direction == Ascending {
		return SortSpec{Field: field, Direction: Descending}
	}
	return SortSpec{Field: field, Direction: Ascending}
}

// DefaultPageSize is the number of rows the console shows per page.
const DefaultPageSize = 10

// Page is a window into an ordered sequence. Index is 1-based.
type Page struct {
	Index int
	Size  int
}

// State is the caller-owned view state: the search text, the active sort and
// the requested page.
type State struct {
	Search string
	Sort   SortSpec
	Page   Page
}

// NewState returns a state showing the first page with the given size and no
// search or sort.
func NewState(pageSize int) State {
	return State{Page: Page{Index: 1, Size: pageSize}}
}

// WithSearch replaces the search text and moves back to the first page.
func (s State) WithSearch(search string) State {
	s.Search = search
	s.Page.Index = 1
	return s
}

// WithSort toggles the sort on field.
func (s State) WithSort(field string) State {
	s.Sort = s.Sort.Toggle(field)
	return s
}

// Next moves one page forward without going past totalPages.
func (s State) Next(totalPages int) State {
	s.Page.Index = ClampIndex(s.Page.Index+1, totalPages)
	return s
}

// Prev moves one page back without going below the first page.
func (s State) Prev() State {
	s.Page.Index = max(1, s.Page.Index-1)
	return s
}
