package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

// CleanedRow is one period of the cleaned table. Cells are aligned with
// CleanedTable.Columns and include the rendered period.
type CleanedRow struct {
	Period Period
	Cells  []string
}

// CleanedTable is the terminal, display-ready artifact: one row per period in
// ascending order, cells holding literal numbers, text, or the "-" and "NaN"
// sentinels. It is not meant for further numeric computation.
type CleanedTable struct {
	PeriodColumn string
	Columns      []string
	Rows         []CleanedRow
}

// Len returns the number of periods.
func (t CleanedTable) Len() int { return len(t.Rows) }

// Clone returns a deep copy sharing no slices with t.
func (t CleanedTable) Clone() CleanedTable {
	out := CleanedTable{
		PeriodColumn: t.PeriodColumn,
		Columns:      append([]string(nil), t.Columns...),
		Rows:         make([]CleanedRow, len(t.Rows)),
	}
	for i, r := range t.Rows {
		out.Rows[i] = CleanedRow{Period: r.Period, Cells: append([]string(nil), r.Cells...)}
	}
	return out
}

// ColumnIndex returns the position of the named column.
func (t CleanedTable) ColumnIndex(name string) (int, bool) {
	for i, c := range t.Columns {
		if c == name {
			return i, true
		}
	}
	return -1, false
}

// HasColumn reports whether the named column exists.
func (t CleanedTable) HasColumn(name string) bool {
	_, ok := t.ColumnIndex(name)
	return ok
}

// Column returns every cell of the named column in period order.
func (t CleanedTable) Column(name string) ([]string, bool) {
	idx, ok := t.ColumnIndex(name)
	if !ok {
		return nil, false
	}
	out := make([]string, len(t.Rows))
	for i, row := range t.Rows {
		out[i] = row.Cells[idx]
	}
	return out, true
}

// Records returns the header followed by every row, ready for a CSV writer.
func (t CleanedTable) Records() [][]string {
	records := make([][]string, 0, len(t.Rows)+1)
	header := make([]string, len(t.Columns))
	copy(header, t.Columns)
	records = append(records, header)
	for _, row := range t.Rows {
		cells := make([]string, len(row.Cells))
		copy(cells, row.Cells)
		records = append(records, cells)
	}
	return records
}

// Fingerprint is a stable SHA-256 of the table contents. Equal tables have
// equal fingerprints.
func (t CleanedTable) Fingerprint() string {
	h := sha256.New()
	for _, rec := range t.Records() {
		h.Write([]byte(strings.Join(rec, "\x1f")))
		h.Write([]byte{'\x1e'})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// ParseCleanedTable rebuilds a CleanedTable from artifact records (header
// first). Periods must be strict YYYY-MM, unique and ascending.
func ParseCleanedTable(records [][]string, periodColumn string) (CleanedTable, error) {
	if len(records) == 0 {
		return CleanedTable{}, errors.New("parse cleaned table: missing header")
	}
	header := make([]string, len(records[0]))
	copy(header, records[0])

	table := CleanedTable{PeriodColumn: periodColumn, Columns: header}
	idx, ok := table.ColumnIndex(periodColumn)
	if !ok {
		return CleanedTable{}, &ConfigurationError{Column: periodColumn, Reason: "not found in cleaned table"}
	}

	table.Rows = make([]CleanedRow, 0, len(records)-1)
	for i, rec := range records[1:] {
		if len(rec) != len(header) {
			return CleanedTable{}, fmt.Errorf("parse cleaned table: row %d has %d cells, want %d", i+1, len(rec), len(header))
		}
		period, ok := StrictYearMonth.Parse(rec[idx])
		if !ok {
			return CleanedTable{}, fmt.Errorf("parse cleaned table: row %d: invalid period %q", i+1, rec[idx])
		}
		if n := len(table.Rows); n > 0 && !table.Rows[n-1].Period.Before(period) {
			return CleanedTable{}, fmt.Errorf("parse cleaned table: row %d: period %s out of order", i+1, period)
		}
		cells := make([]string, len(rec))
		copy(cells, rec)
		table.Rows = append(table.Rows, CleanedRow{Period: period, Cells: cells})
	}
	return table, nil
}
