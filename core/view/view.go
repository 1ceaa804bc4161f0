package view

import (
	"slices"

	"github.com/asaidimu/go-tabula/core"
)

// Column describes one column of a table: the record field it shows, its
// header, and whether it takes part in search and sorting.
type Column struct {
	Field      string
	Header     string
	Searchable bool
	Sortable   bool
}

// Scope selects which rows an export covers.
type Scope int

const (
	// ScopePage exports the rows of the current page.
	ScopePage Scope = iota
	// ScopeAll exports every row that passes the filter, in sorted order.
	ScopeAll
)

// Result is what a table shows for one State.
type Result struct {
	// Rows holds the records of the requested page.
	Rows []core.Record
	// Total is the number of records that passed the filter.
	Total int
	// TotalPages is max(1, ceil(Total/page size)).
	TotalPages int
	// Page is the requested page index clamped to [1, TotalPages]. Rows are
	// the rows of this page.
	Page int
}

// TabularView applies filter, sort and pagination for one column
// configuration. It keeps no per-call state and is safe for concurrent use.
type TabularView struct {
	columns    []Column
	searchable []string
	comparator Comparator
}

// Option configures a TabularView.
type Option func(*TabularView)

// WithComparator replaces core.Compare as the ordering used for sorting.
func WithComparator(cmp Comparator) Option {
	return func(v *TabularView) {
		v.comparator = cmp
	}
}

// New creates a view over columns.
func New(columns []Column, opts ...Option) *TabularView {
	v := &TabularView{
		columns:    slices.Clone(columns),
		comparator: core.Compare,
	}
	for _, col := range columns {
		if col.Searchable {
			v.searchable = append(v.searchable, col.Field)
		}
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Columns returns the configured columns.
func (v *TabularView) Columns() []Column {
	return slices.Clone(v.columns)
}

// SearchFields returns the fields the search text is matched against.
func (v *TabularView) SearchFields() []string {
	return slices.Clone(v.searchable)
}

// Sortable reports whether field is a sortable column.
func (v *TabularView) Sortable(field string) bool {
	for _, col := range v.columns {
		if col.Field == field {
			return col.Sortable
		}
	}
	return false
}

// Ordered filters and sorts records for state without paginating. A sort on
// a column that is not sortable is ignored.
func (v *TabularView) Ordered(records []core.Record, state State) []core.Record {
	filtered := Filter(records, state.Search, v.searchable)
	spec := state.Sort
	if !spec.IsNone() && !v.Sortable(spec.Field) {
		spec = SortSpec{}
	}
	return SortFunc(filtered, spec, v.comparator)
}

// Apply filters, sorts and paginates records for state and returns what a
// table should display.
//
// The pipeline runs in a fixed order:
//  1. Filter keeps records where any searchable column contains
//     state.Search, case-insensitively.
//  2. Sort orders the survivors by state.Sort when the column is sortable;
//     a sort on any other column is ignored.
//  3. The requested page index is clamped to [1, TotalPages] and that page
//     is sliced out, so Result.Page always names the rows in Result.Rows.
//
// Navigating past either end therefore shows the first or last page instead
// of an empty table. Callers that want the raw out-of-range behaviour use
// Paginate directly.
//
// Example:
//
//	state := NewQueryBuilder().Search("ann").OrderByDesc("username").Page(2, 10).Build()
//	result, err := v.Apply(records, state)
//	if err != nil {
//	    return err // ErrInvalidArgument for a non-positive page size
//	}
//	fmt.Printf("page %d of %d\n", result.Page, result.TotalPages)
func (v *TabularView) Apply(records []core.Record, state State) (Result, error) {
	ordered := v.Ordered(records, state)
	index := ClampIndex(state.Page.Index, TotalPages(len(ordered), state.Page.Size))
	page, err := Paginate(ordered, Page{Index: index, Size: state.Page.Size})
	if err != nil {
		return Result{}, err
	}
	return Result{
		Rows:       page.Rows,
		Total:      len(ordered),
		TotalPages: page.TotalPages,
		Page:       index,
	}, nil
}

// Export renders the rows selected by scope as CSV using columns for the
// header mapping.
func (v *TabularView) Export(records []core.Record, state State, scope Scope, columns []ExportColumn) (string, error) {
	var rows []core.Record
	if scope == ScopeAll {
		rows = v.Ordered(records, state)
	} else {
		result, err := v.Apply(records, state)
		if err != nil {
			return "", err
		}
		rows = result.Rows
	}
	return ToCSV(ExportRows(rows, columns))
}
