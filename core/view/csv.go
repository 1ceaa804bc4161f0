package view

import (
	"fmt"
	"strings"

	"github.com/asaidimu/go-tabula/core"
)

// ExportField is one named cell of an export row.
type ExportField struct {
	Name  string
	Value any
}

// ExportRow is an ordered list of fields written as one CSV line. Its names
// and order are chosen by the caller and may differ from the display columns.
type ExportRow []ExportField

// ExportColumn maps a record field to a CSV header.
type ExportColumn struct {
	Header string
	Field  string
}

// ExportRows builds one export row per record using columns for header names
// and order. Absent fields export as nil.
func ExportRows(records []core.Record, columns []ExportColumn) []ExportRow {
	rows := make([]ExportRow, 0, len(records))
	for _, record := range records {
		row := make(ExportRow, len(columns))
		for i, col := range columns {
			row[i] = ExportField{Name: col.Header, Value: record[col.Field]}
		}
		rows = append(rows, row)
	}
	return rows
}

// ToCSV serializes rows to CSV text. The header line lists the field names of
// the first row; every row is expected to share them. A value is wrapped in
// double quotes only when it contains a comma. Embedded quotes and newlines
// are written as-is, so such values do not round-trip. Lines are joined with
// "\n" and there is no trailing newline.
//
// An empty rows slice fails with ErrEmptyInput so callers can tell the user
// there is nothing to export instead of writing an empty file.
//
// Example:
//
//	rows := []ExportRow{
//	    {{Name: "ID", Value: 1}, {Name: "Title", Value: "Plan, draft"}},
//	    {{Name: "ID", Value: 2}, {Name: "Title", Value: nil}},
//	}
//	out, _ := ToCSV(rows)
//	// ID,Title
//	// 1,"Plan, draft"
//	// 2,
func ToCSV(rows []ExportRow) (string, error) {
	if len(rows) == 0 {
		return "", fmt.Errorf("%w: export requested for zero rows", ErrEmptyInput)
	}

	var b strings.Builder
	for i, field := range rows[0] {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(field.Name)
	}

	for _, row := range rows {
		b.WriteByte('\n')
		for i, field := range row {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(csvCell(field.Value))
		}
	}
	return b.String(), nil
}

func csvCell(v any) string {
	s := core.Stringify(v)
	if strings.Contains(s, ",") {
		return `"` + s + `"`
	}
	return s
}
