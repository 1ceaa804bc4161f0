package view

import (
	"slices"
	"strings"
	"testing"

	"github.com/asaidimu/go-tabula/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func field(records []core.Record, name string) []any {
	out := make([]any, len(records))
	for i, r := range records {
		out[i] = r[name]
	}
	return out
}

func TestSort_NoFieldIsIdentity(t *testing.T) {
	records := sampleUsers()
	out := Sort(records, SortSpec{Direction: Descending})
	require.Len(t, out, len(records))
	assert.Same(t, &records[0], &out[0])
}

func TestSort_Strings(t *testing.T) {
	records := []core.Record{{"name": "carl"}, {"name": "ann"}, {"name": "bob"}}

	asc := Sort(records, SortSpec{Field: "name", Direction: Ascending})
	assert.Equal(t, []any{"ann", "bob", "carl"}, field(asc, "name"))

	desc := Sort(records, SortSpec{Field: "name", Direction: Descending})
	assert.Equal(t, []any{"carl", "bob", "ann"}, field(desc, "name"))

	assert.Equal(t, []any{"carl", "ann", "bob"}, field(records, "name"), "input must not be reordered")
}

func TestSort_NumbersCompareNumerically(t *testing.T) {
	records := []core.Record{{"id": 10}, {"id": 9}, {"id": 100}, {"id": 1.5}}
	out := Sort(records, SortSpec{Field: "id", Direction: Ascending})
	assert.Equal(t, []any{1.5, 9, 10, 100}, field(out, "id"))
}

// Missing values sort last ascending and first descending. This is a chosen
// convention, not one inherited from the backend.
func TestSort_MissingValues(t *testing.T) {
	records := []core.Record{
		{"id": 1, "phone": "555"},
		{"id": 2},
		{"id": 3, "phone": "111"},
		{"id": 4, "phone": nil},
	}

	asc := Sort(records, SortSpec{Field: "phone", Direction: Ascending})
	assert.Equal(t, []any{3, 1, 2, 4}, field(asc, "id"))

	desc := Sort(records, SortSpec{Field: "phone", Direction: Descending})
	assert.Equal(t, []any{2, 4, 1, 3}, field(desc, "id"))
}

func TestSort_StableInBothDirections(t *testing.T) {
	records := []core.Record{
		{"id": 1, "role": "user"},
		{"id": 2, "role": "admin"},
		{"id": 3, "role": "user"},
		{"id": 4, "role": "admin"},
		{"id": 5, "role": "user"},
	}

	asc := Sort(records, SortSpec{Field: "role", Direction: Ascending})
	assert.Equal(t, []any{2, 4, 1, 3, 5}, field(asc, "id"))

	desc := Sort(records, SortSpec{Field: "role", Direction: Descending})
	assert.Equal(t, []any{1, 3, 5, 2, 4}, field(desc, "id"))
}

func TestSort_DescendingReversesAscendingForDistinctKeys(t *testing.T) {
	records := []core.Record{
		{"title": "b"}, {"title": "e"}, {"title": nil}, {"title": "a"}, {"title": 7}, {"title": "d"},
	}

	asc := Sort(records, SortSpec{Field: "title", Direction: Ascending})
	desc := Sort(records, SortSpec{Field: "title", Direction: Descending})

	reversed := slices.Clone(asc)
	slices.Reverse(reversed)
	assert.Equal(t, reversed, desc)
}

func TestSortFunc_CustomComparator(t *testing.T) {
	records := []core.Record{{"name": "Bob"}, {"name": "ann"}, {"name": "Carl"}}
	caseInsensitive := func(a, b any) int {
		return strings.Compare(strings.ToLower(core.Stringify(a)), strings.ToLower(core.Stringify(b)))
	}

	out := SortFunc(records, SortSpec{Field: "name", Direction: Ascending}, caseInsensitive)
	assert.Equal(t, []any{"ann", "Bob", "Carl"}, field(out, "name"))

	out = SortFunc(records, SortSpec{Field: "name", Direction: Ascending}, nil)
	assert.Equal(t, []any{"Bob", "Carl", "ann"}, field(out, "name"), "nil comparator falls back to core.Compare")
}

func TestSortSpec_Toggle(t *testing.T) {
	var s SortSpec
	assert.True(t, s.IsNone())

	s = s.Toggle("name")
	assert.Equal(t, SortSpec{Field: "name", Direction: Ascending}, s)

	s = s.Toggle("name")
	assert.Equal(t, SortSpec{Field: "name", Direction: Descending}, s)

	s = s.Toggle("name")
	assert.Equal(t, SortSpec{Field: "name", Direction: Ascending}, s)

	s = s.Toggle("email")
	assert.Equal(t, SortSpec{Field: "email", Direction: Ascending}, s)
}
