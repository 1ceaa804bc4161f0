package view

import (
	"strings"
	"testing"

	"github.com/asaidimu/go-tabula/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleUsers() []core.Record {
	return []core.Record{
		{"user_id": 1, "fullname": "Administrator", "username": "admin", "email": "admin@example.com", "role": "admin"},
		{"user_id": 2, "fullname": "Demo User", "username": "user", "email": "user@example.com", "role": "user"},
		{"user_id": 3, "fullname": "Ann Lee", "username": "ann", "email": nil, "role": "user"},
		{"user_id": 4, "username": "bob", "role": "user"},
	}
}

func TestFilter_EmptyQueryIsIdentity(t *testing.T) {
	records := sampleUsers()
	out := Filter(records, "", []string{"username"})
	require.Len(t, out, len(records))
	assert.Same(t, &records[0], &out[0])
	assert.Equal(t, records, out)
}

func TestFilter(t *testing.T) {
	fields := []string{"fullname", "username", "email"}

	tests := []struct {
		name     string
		query    string
		fields   []string
		expected []any
	}{
		{"case insensitive", "ADMIN", fields, []any{1}},
		{"matches any field", "example", fields, []any{1, 2}},
		{"substring", "us", fields, []any{2}},
		{"nil and absent fields skipped", "lee", fields, []any{3}},
		{"no match", "zzz", fields, []any{}},
		{"restricted field set", "admin", []string{"email"}, []any{1}},
		{"no fields never matches", "admin", nil, []any{}},
		{"numbers are coerced", "4", []string{"user_id"}, []any{4}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := Filter(sampleUsers(), tt.query, tt.fields)
			ids := make([]any, 0, len(out))
			for _, r := range out {
				ids = append(ids, r["user_id"])
			}
			assert.Equal(t, tt.expected, ids)
		})
	}
}

func TestFilter_EveryResultMatches(t *testing.T) {
	fields := []string{"fullname", "username", "email"}
	for _, q := range []string{"a", "E", "user", "@", "1"} {
		for _, r := range Filter(sampleUsers(), q, fields) {
			found := false
			for _, f := range fields {
				if v, ok := r.Get(f); ok && strings.Contains(strings.ToLower(core.Stringify(v)), strings.ToLower(q)) {
					found = true
				}
			}
			assert.True(t, found, "record %v returned for %q", r, q)
		}
	}
}

func TestFilter_DoesNotMutateInput(t *testing.T) {
	records := sampleUsers()
	before := sampleUsers()
	_ = Filter(records, "ann", []string{"username"})
	assert.Equal(t, before, records)
}
