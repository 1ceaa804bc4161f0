// Package core holds the record type shared by the view, stats, client and
// snapshot packages, along with the value helpers used to filter, order and
// serialize record fields.
package core

import (
	"cmp"
	"maps"
	"strings"
)

// Record represents a single row of domain data (a user or a task) keyed by
// field name. The field set is decided by whoever configures the columns.
type Record map[string]any

// Get returns the value stored under field. The boolean is false when the
// field is absent or holds nil.
func (r Record) Get(field string) (any, bool) {
	v, ok := r[field]
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

// Clone returns a shallow copy of the record.
func (r Record) Clone() Record {
	if r == nil {
		return nil
	}
	return maps.Clone(r)
}

// Ordering ranks for values of different kinds. Missing values rank last.
const (
	rankNumber = iota
	rankString
	rankBool
	rankOther
	rankMissing
)

func rankOf(v any) int {
	switch v.(type) {
	case nil:
		return rankMissing
	case string:
		return rankString
	case bool:
		return rankBool
	}
	if IsNumber(v) {
		return rankNumber
	}
	return rankOther
}

// Compare orders two field values using the natural ordering of their
// runtime type: numbers numerically, strings lexicographically, false before
// true. A nil value compares greater than any present value, so it sorts
// last ascending. Present values of different kinds order by kind:
// number < string < bool < anything else.
func Compare(a, b any) int {
	ra, rb := rankOf(a), rankOf(b)
	if ra != rb {
		return cmp.Compare(ra, rb)
	}

	switch ra {
	case rankNumber:
		return compareNumbers(a, b)
	case rankString:
		return strings.Compare(a.(string), b.(string))
	case rankBool:
		ab, bb := a.(bool), b.(bool)
		switch {
		case ab == bb:
			return 0
		case !ab:
			return -1
		default:
			return 1
		}
	case rankMissing:
		return 0
	default:
		return strings.Compare(Stringify(a), Stringify(b))
	}
}

// compareNumbers compares integers exactly and falls back to float64 only
// when either side is fractional.
func compareNumbers(a, b any) int {
	ia, ka := integerOf(a)
	ib, kb := integerOf(b)
	switch {
	case ka == intSigned && kb == intSigned:
		return cmp.Compare(ia.signed, ib.signed)
	case ka == intUnsigned && kb == intUnsigned:
		return cmp.Compare(ia.unsigned, ib.unsigned)
	case ka == intSigned && kb == intUnsigned:
		if ia.signed < 0 {
			return -1
		}
		return cmp.Compare(uint64(ia.signed), ib.unsigned)
	case ka == intUnsigned && kb == intSigned:
		if ib.signed < 0 {
			return 1
		}
		return cmp.Compare(ia.unsigned, uint64(ib.signed))
	}
	fa, _ := ToFloat64(a)
	fb, _ := ToFloat64(b)
	return cmp.Compare(fa, fb)
}
