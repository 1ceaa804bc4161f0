package view

import (
	"strings"

	"github.com/asaidimu/go-tabula/core"
)

// Filter returns the records for which at least one of fields contains query,
// compared case-insensitively against the field's string form. Absent and nil
// fields are skipped. An empty query returns records unchanged.
func Filter(records []core.Record, query string, fields []string) []core.Record {
	if query == "" {
		return records
	}

	needle := strings.ToLower(query)
	result := make([]core.Record, 0, len(records))
	for _, record := range records {
		if Matches(record, needle, fields) {
			result = append(result, record)
		}
	}
	return result
}

// Matches reports whether any of fields on record contains the already
// lower-cased needle.
func Matches(record core.Record, needle string, fields []string) bool {
	for _, field := range fields {
		value, ok := record.Get(field)
		if !ok {
			continue
		}
		if strings.Contains(strings.ToLower(core.Stringify(value)), needle) {
			return true
		}
	}
	return false
}
