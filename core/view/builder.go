package view

// QueryBuilder provides a fluent API for building a State.
type QueryBuilder struct {
	state State
}

// NewQueryBuilder creates a builder for the first page of DefaultPageSize
// rows with no search and no sort.
func NewQueryBuilder() *QueryBuilder {
	return &QueryBuilder{
		state: NewState(DefaultPageSize),
	}
}

// Build returns the constructed State.
func (qb *QueryBuilder) Build() State {
	return qb.state
}

// Clone returns an independent copy of the builder.
func (qb *QueryBuilder) Clone() *QueryBuilder {
	return &QueryBuilder{state: qb.state}
}

// Reset returns the builder to its initial state.
func (qb *QueryBuilder) Reset() *QueryBuilder {
	qb.state = NewState(DefaultPageSize)
	return qb
}

// Search sets the free-text query and moves back to the first page.
func (qb *QueryBuilder) Search(query string) *QueryBuilder {
	qb.state = qb.state.WithSearch(query)
	return qb
}

// OrderBy sorts by field in direction.
func (qb *QueryBuilder) OrderBy(field string, direction SortDirection) *QueryBuilder {
	qb.state.Sort = SortSpec{Field: field, Direction: direction}
	return qb
}

// OrderByAsc sorts by field in ascending order.
func (qb *QueryBuilder) OrderByAsc(field string) *QueryBuilder {
	return qb.OrderBy(field, Ascending)
}

// OrderByDesc sorts by field in descending order.
func (qb *QueryBuilder) OrderByDesc(field string) *QueryBuilder {
	return qb.OrderBy(field, Descending)
}

// Unsorted clears the sort so records keep their input order.
func (qb *QueryBuilder) Unsorted() *QueryBuilder {
	qb.state.Sort = SortSpec{}
	return qb
}

// Page selects the page index and size.
func (qb *QueryBuilder) Page(index, size int) *QueryBuilder {
	qb.state.Page = Page{Index: index, Size: size}
	return qb
}

// Limit sets the page size and keeps the current index.
func (qb *QueryBuilder) Limit(size int) *QueryBuilder {
	qb.state.Page.Size = size
	return qb
}
