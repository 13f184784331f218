package domain

import (
	"fmt"
	"strings"
)

// Row is one record, aligned with Table.Columns.
type Row []Value

// Table is an open-schema, column-named table of tagged values. Stages never
// mutate a Table in place; they return a new one.
type Table struct {
	Columns []string
	Rows    []Row
}

// NewTable builds a Table from a header and raw string records. Blank header
// cells are named "Unnamed: <index>", repeated names get ".1", ".2" suffixes,
// and records are padded or truncated to the header width.
func NewTable(header []string, records [][]string) Table {
	columns := normalizeHeader(header)
	rows := make([]Row, 0, len(records))
	for _, rec := range records {
		row := make(Row, len(columns))
		for i := range columns {
			if i < len(rec) {
				row[i] = ParseValue(rec[i])
			}
		}
		rows = append(rows, row)
	}
	return Table{Columns: columns, Rows: rows}
}

func normalizeHeader(header []string) []string {
	columns := make([]string, len(header))
	seen := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.TrimSpace(name)
		if name == "" {
			name = fmt.Sprintf("Unnamed: %d", i)
		}
		if n, ok := seen[name]; ok {
			seen[name] = n + 1
			name = fmt.Sprintf("%s.%d", name, n+1)
		}
		seen[name] = 0
		columns[i] = name
	}
	return columns
}

// ColumnIndex returns the position of the named column.
func (t Table) ColumnIndex(name string) (int, bool) {
	for i, c := range t.Columns {
		if c == name {
			return i, true
		}
	}
	return -1, false
}

// HasColumn reports whether the named column exists.
func (t Table) HasColumn(name string) bool {
	_, ok := t.ColumnIndex(name)
	return ok
}

// Len returns the number of rows.
func (t Table) Len() int { return len(t.Rows) }

// withRows returns a table sharing t's columns but holding rows.
func (t Table) withRows(rows []Row) Table {
	columns := make([]string, len(t.Columns))
	copy(columns, t.Columns)
	return Table{Columns: columns, Rows: rows}
}
