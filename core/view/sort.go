package view

import (
	"slices"

	"github.com/asaidimu/go-tabula/core"
)

// Comparator orders two field values. It returns a negative number when a
// sorts before b, zero when they are equal and a positive number otherwise.
type Comparator func(a, b any) int

// Sort orders records by spec using core.Compare. Missing values sort last
// ascending and first descending. Descending equals the reverse of ascending
// only when keys are distinct; equal keys keep their input order either way.
func Sort(records []core.Record, spec SortSpec) []core.Record {
	return SortFunc(records, spec, core.Compare)
}

// SortFunc orders records by spec using cmp. When spec names no field the
// input slice itself is returned. Otherwise a new slice is returned and the
// input is left untouched. The sort is stable in both directions: records
// with equal keys keep their input order.
func SortFunc(records []core.Record, spec SortSpec, cmp Comparator) []core.Record {
	if spec.IsNone() {
		return records
	}
	if cmp == nil {
		cmp = core.Compare
	}

	sign := 1
	if spec.Direction == Descending {
		sign = -1
	}

	sorted := slices.Clone(records)
	slices.SortStableFunc(sorted, func(a, b core.Record) int {
		return sign * cmp(a[spec.Field], b[spec.Field])
	})
	return sorted
}
