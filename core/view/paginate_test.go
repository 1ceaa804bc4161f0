package view

import (
	"fmt"
	"testing"

	"github.com/asaidimu/go-tabula/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func numbered(n int) []core.Record {
	records := make([]core.Record, n)
	for i := range records {
		records[i] = core.Record{"id": i + 1}
	}
	return records
}

func TestTotalPages(t *testing.T) {
	tests := []struct {
		count, size, expected int
	}{
		{0, 10, 1},
		{1, 10, 1},
		{10, 10, 1},
		{11, 10, 2},
		{25, 10, 3},
		{7, 1, 7},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d/%d", tt.count, tt.size), func(t *testing.T) {
			assert.Equal(t, tt.expected, TotalPages(tt.count, tt.size))
		})
	}
}

func TestPaginate(t *testing.T) {
	records := numbered(25)

	first, err := Paginate(records, Page{Index: 1, Size: 10})
	require.NoError(t, err)
	assert.Equal(t, 3, first.TotalPages)
	assert.Equal(t, []any{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, field(first.Rows, "id"))

	last, err := Paginate(records, Page{Index: 3, Size: 10})
	require.NoError(t, err)
	assert.Equal(t, []any{21, 22, 23, 24, 25}, field(last.Rows, "id"))
}

func TestPaginate_OutOfRangeIsEmpty(t *testing.T) {
	records := numbered(25)

	for _, index := range []int{4, 100, 0, -3} {
		t.Run(fmt.Sprintf("index %d", index), func(t *testing.T) {
			result, err := Paginate(records, Page{Index: index, Size: 10})
			require.NoError(t, err)
			assert.Empty(t, result.Rows)
			assert.NotNil(t, result.Rows)
			assert.Equal(t, 3, result.TotalPages)
		})
	}
}

func TestPaginate_EmptyInput(t *testing.T) {
	result, err := Paginate(nil, Page{Index: 1, Size: 10})
	require.NoError(t, err)
	assert.Empty(t, result.Rows)
	assert.Equal(t, 1, result.TotalPages)
}

func TestPaginate_InvalidSize(t *testing.T) {
	for _, size := range []int{0, -1} {
		_, err := Paginate(numbered(3), Page{Index: 1, Size: size})
		assert.ErrorIs(t, err, ErrInvalidArgument)
	}
}

func TestPaginate_PagesPartitionInput(t *testing.T) {
	for n := 0; n <= 23; n++ {
		records := numbered(n)
		for size := 1; size <= n+2; size++ {
			first, err := Paginate(records, Page{Index: 1, Size: size})
			require.NoError(t, err)

			var joined []core.Record
			for index := 1; index <= first.TotalPages; index++ {
				page, err := Paginate(records, Page{Index: index, Size: size})
				require.NoError(t, err)
				joined = append(joined, page.Rows...)
			}
			assert.Equal(t, field(records, "id"), field(joined, "id"), "n=%d size=%d", n, size)

			beyond, err := Paginate(records, Page{Index: first.TotalPages + 1, Size: size})
			require.NoError(t, err)
			assert.Empty(t, beyond.Rows)
		}
	}
}

func TestPaginate_RowsAreACopy(t *testing.T) {
	records := numbered(5)
	result, err := Paginate(records, Page{Index: 1, Size: 2})
	require.NoError(t, err)
	result.Rows[0] = core.Record{"id": 99}
	assert.Equal(t, 1, records[0]["id"])
}

func TestClampIndex(t *testing.T) {
	assert.Equal(t, 1, ClampIndex(0, 3))
	assert.Equal(t, 1, ClampIndex(-5, 3))
	assert.Equal(t, 2, ClampIndex(2, 3))
	assert.Equal(t, 3, ClampIndex(9, 3))
	assert.Equal(t, 1, ClampIndex(4, 0))
}

func TestState_Navigation(t *testing.T) {
	s := NewState(10)
	assert.Equal(t, Page{Index: 1, Size: 10}, s.Page)

	s = s.Next(3).Next(3).Next(3)
	assert.Equal(t, 3, s.Page.Index)

	s = s.Prev()
	assert.Equal(t, 2, s.Page.Index)

	s = s.WithSearch("ann")
	assert.Equal(t, "ann", s.Search)
	assert.Equal(t, 1, s.Page.Index)

	s = s.Prev()
	assert.Equal(t, 1, s.Page.Index)

	s = s.WithSort("name").WithSort("name")
	assert.Equal(t, SortSpec{Field: "name", Direction: Descending}, s.Sort)
}
