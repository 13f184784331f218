package domain

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// Sentinels written to the cleaned table in place of numeric outcomes.
const (
	SentinelZero    = "-"
	SentinelMissing = "NaN"
)

// nonMonthlyMarkers identify quarterly, annual and mid-year rows in the
// granularity label. Matching is a case-sensitive substring test.
var nonMonthlyMarkers = []string{"Qtr", "Ann", "Mid"}

// Options configures Normalize.
type Options struct {
	PeriodColumn      string
	GranularityColumn string
	IrrelevantColumns []string
	// PeriodParsers is the coercion chain; nil means DefaultPeriodParsers.
	PeriodParsers []PeriodParser
}

// Stats counts what happened to the rows of one normalization.
type Stats struct {
	RowsRead           int `json:"rows_read"`
	RowsExcluded       int `json:"rows_excluded"`
	RowsWithoutPeriod  int `json:"rows_without_period"`
	Periods            int `json:"periods"`
	SummedColumns      int `json:"summed_columns"`
	PassThroughColumns int `json:"pass_through_columns"`
}

// Result is the output of Normalize.
type Result struct {
	Table       CleanedTable
	Diagnostics []Diagnostic
	Stats       Stats
}

// Normalize turns a raw mixed-granularity table into the cleaned monthly
// table: prune, coerce periods, drop non-monthly rows, aggregate per period,
// substitute sentinels. The raw table is not modified. Only a missing period
// column is an error.
func Normalize(raw Table, opts Options) (Result, error) {
	if opts.PeriodColumn == "" {
		return Result{}, &ConfigurationError{Reason: "period column is not configured"}
	}
	if len(raw.Columns) == 0 && len(raw.Rows) == 0 {
		return Result{Table: CleanedTable{PeriodColumn: opts.PeriodColumn, Columns: []string{opts.PeriodColumn}}}, nil
	}

	var diags []Diagnostic
	stats := Stats{RowsRead: raw.Len()}

	t := PruneColumns(raw, opts.IrrelevantColumns)

	t, d, err := CoercePeriods(t, opts.PeriodColumn, opts.PeriodParsers)
	if err != nil {
		return Result{}, err
	}
	diags = append(diags, d...)

	t, excluded, d := FilterGranularity(t, opts.GranularityColumn)
	diags = append(diags, d...)
	stats.RowsExcluded = excluded

	roles, d := DiscoverColumns(t, opts.PeriodColumn)
	diags = append(diags, d...)
	for _, r := range roles {
		switch r {
		case RoleSum:
			stats.SummedColumns++
		case RolePassThrough:
			stats.PassThroughColumns++
		}
	}

	agg, dropped, err := Aggregate(t, opts.PeriodColumn, roles)
	if err != nil {
		return Result{}, err
	}
	stats.RowsWithoutPeriod = dropped
	if dropped > 0 {
		diags = append(diags, Diagnostic{
			Kind:    AssumptionApplied,
			Column:  opts.PeriodColumn,
			Count:   dropped,
			Message: "rows without a period were excluded from aggregation",
		})
	}

	cleaned, err := SubstituteSentinels(agg, opts.PeriodColumn)
	if err != nil {
		return Result{}, err
	}
	stats.Periods = cleaned.Len()

	return Result{Table: cleaned, Diagnostics: diags, Stats: stats}, nil
}

// PruneColumns drops the named columns. Names not present are ignored.
func PruneColumns(t Table, names []string) Table {
	drop := make(map[string]struct{}, len(names))
	for _, n := range names {
		drop[n] = struct{}{}
	}

	keep := make([]int, 0, len(t.Columns))
	columns := make([]string, 0, len(t.Columns))
	for i, c := range t.Columns {
		if _, ok := drop[c]; ok {
			continue
		}
		keep = append(keep, i)
		columns = append(columns, c)
	}

	rows := make([]Row, len(t.Rows))
	for r, row := range t.Rows {
		out := make(Row, len(keep))
		for j, i := range keep {
			out[j] = row[i]
		}
		rows[r] = out
	}
	return Table{Columns: columns, Rows: rows}
}

// CoercePeriods replaces every cell of the period column with a Period value,
// or Null when no parser in the chain accepts the label. It never fails on
// bad labels; the only error is a missing column.
func CoercePeriods(t Table, column string, parsers []PeriodParser) (Table, []Diagnostic, error) {
	idx, ok := t.ColumnIndex(column)
	if !ok {
		return Table{}, nil, &ConfigurationError{Column: column, Reason: "not found in input"}
	}
	if len(parsers) == 0 {
		parsers = DefaultPeriodParsers()
	}

	fallbacks := make([]int, len(parsers))
	unparseable := 0
	rows := make([]Row, len(t.Rows))
	for r, row := range t.Rows {
		out := cloneRow(row)
		v := row[idx]
		if v.IsNull() {
			out[idx] = Null()
			rows[r] = out
			continue
		}
		p, used := parsePeriod(parsers, v.Raw())
		if used < 0 {
			unparseable++
			out[idx] = Null()
		} else {
			fallbacks[used]++
			out[idx] = PeriodValue(p)
		}
		rows[r] = out
	}

	var diags []Diagnostic
	for i := 1; i < len(parsers); i++ {
		if fallbacks[i] == 0 {
			continue
		}
		diags = append(diags, Diagnostic{
			Kind:    AssumptionApplied,
			Column:  column,
			Count:   fallbacks[i],
			Message: fmt.Sprintf("strict year-month parse failed; labels parsed by %s", parsers[i].Name),
		})
	}
	if unparseable > 0 {
		diags = append(diags, Diagnostic{
			Kind:    AssumptionApplied,
			Column:  column,
			Count:   unparseable,
			Message: "labels could not be parsed as a period and were left null",
		})
	}
	return t.withRows(rows), diags, nil
}

// IsNonMonthly reports whether a granularity label marks a quarterly, annual
// or mid-year record.
func IsNonMonthly(label string) bool {
	for _, m := range nonMonthlyMarkers {
		if strings.Contains(label, m) {
			return true
		}
	}
	return false
}

// FilterGranularity keeps only monthly rows and returns how many were
// excluded. Rows with a null label are monthly. When the column is absent,
// every row is kept and a diagnostic is recorded.
func FilterGranularity(t Table, column string) (Table, int, []Diagnostic) {
	idx, ok := t.ColumnIndex(column)
	if column == "" || !ok {
		rows := make([]Row, len(t.Rows))
		copy(rows, t.Rows)
		return t.withRows(rows), 0, []Diagnostic{{
			Kind:    AssumptionApplied,
			Column:  column,
			Message: "granularity column not found; all rows treated as monthly",
		}}
	}

	rows := make([]Row, 0, len(t.Rows))
	excluded := 0
	for _, row := range t.Rows {
		v := row[idx]
		if !v.IsNull() && IsNonMonthly(v.Raw()) {
			excluded++
			continue
		}
		rows = append(rows, row)
	}
	return t.withRows(rows), excluded, nil
}

// ColumnRole says how Aggregate treats a column.
type ColumnRole uint8

const (
	// RoleKey is the period column.
	RoleKey ColumnRole = iota
	// RoleSum columns are summed per period.
	RoleSum
	// RolePassThrough columns keep the first non-null value per period.
	RolePassThrough
)

// DiscoverColumns assigns a role to every column. A column is summed when all
// of its non-null values are numeric; anything else passes through.
func DiscoverColumns(t Table, periodColumn string) ([]ColumnRole, []Diagnostic) {
	roles := make([]ColumnRole, len(t.Columns))
	var diags []Diagnostic
	for c, name := range t.Columns {
		if name == periodColumn {
			roles[c] = RoleKey
			continue
		}
		numeric, other, overflow := 0, 0, 0
		for _, row := range t.Rows {
			switch row[c].Kind() {
			case KindNull:
			case KindNumeric:
				numeric++
			default:
				other++
				if row[c].OutOfRange() {
					overflow++
				}
			}
		}
		if other == 0 {
			roles[c] = RoleSum
			continue
		}
		roles[c] = RolePassThrough
		if overflow > 0 {
			diags = append(diags, Diagnostic{
				Kind:    AssumptionApplied,
				Column:  name,
				Count:   overflow,
				Message: fmt.Sprintf("column has %d numbers beyond 1e%d in magnitude; kept as text and passed through unaggregated", overflow, maxMagnitude),
			})
		} else if numeric > 0 {
			diags = append(diags, Diagnostic{
				Kind:    AssumptionApplied,
				Column:  name,
				Count:   other,
				Message: fmt.Sprintf("column has %d numeric and %d non-numeric values; passed through unaggregated", numeric, other),
			})
		}
	}
	return roles, diags
}

type cell struct {
	sum         decimal.Decimal
	contributed bool
	first       Value
}

type group struct {
	period Period
	cells  []cell
}

// Aggregate groups rows by period, one output row per distinct period in
// ascending order, with the period column first. Summed cells that received
// no numeric contribution are Null, so an all-null group stays distinct from
// a zero sum. Rows without a period are dropped and counted.
func Aggregate(t Table, periodColumn string, roles []ColumnRole) (Table, int, error) {
	idx, ok := t.ColumnIndex(periodColumn)
	if !ok {
		return Table{}, 0, &ConfigurationError{Column: periodColumn, Reason: "not found in input"}
	}
	if len(roles) != len(t.Columns) {
		return Table{}, 0, fmt.Errorf("aggregate: %d roles for %d columns", len(roles), len(t.Columns))
	}

	groups := make(map[Period]*group)
	dropped := 0
	for _, row := range t.Rows {
		key := row[idx]
		if key.Kind() != KindPeriod {
			dropped++
			continue
		}
		g, ok := groups[key.Period()]
		if !ok {
			g = &group{period: key.Period(), cells: make([]cell, len(t.Columns))}
			groups[key.Period()] = g
		}
		for c, v := range row {
			switch roles[c] {
			case RoleSum:
				if d, ok := v.Decimal(); ok {
					g.cells[c].sum = g.cells[c].sum.Add(d)
					g.cells[c].contributed = true
				}
			case RolePassThrough:
				if g.cells[c].first.IsNull() && !v.IsNull() {
					g.cells[c].first = v
				}
			}
		}
	}

	ordered := make([]*group, 0, len(groups))
	for _, g := range groups {
		ordered = append(ordered, g)
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].period.Before(ordered[j].period) })

	order := columnOrder(len(t.Columns), idx)
	columns := make([]string, len(order))
	for j, c := range order {
		columns[j] = t.Columns[c]
	}

	rows := make([]Row, len(ordered))
	for r, g := range ordered {
		out := make(Row, len(order))
		for j, c := range order {
			switch roles[c] {
			case RoleKey:
				out[j] = PeriodValue(g.period)
			case RoleSum:
				if g.cells[c].contributed {
					out[j] = Numeric(g.cells[c].sum)
				}
			case RolePassThrough:
				out[j] = g.cells[c].first
			}
		}
		rows[r] = out
	}
	return Table{Columns: columns, Rows: rows}, dropped, nil
}

// columnOrder moves the key column to the front, keeping the rest in order.
func columnOrder(n, key int) []int {
	order := make([]int, 0, n)
	order = append(order, key)
	for i := 0; i < n; i++ {
		if i != key {
			order = append(order, i)
		}
	}
	return order
}

// SubstituteSentinels renders an aggregated table for display: numeric zero
// becomes "-", null becomes "NaN", everything else keeps its literal form.
func SubstituteSentinels(t Table, periodColumn string) (CleanedTable, error) {
	idx, ok := t.ColumnIndex(periodColumn)
	if !ok {
		return CleanedTable{}, &ConfigurationError{Column: periodColumn, Reason: "not found in input"}
	}

	columns := make([]string, len(t.Columns))
	copy(columns, t.Columns)
	rows := make([]CleanedRow, 0, len(t.Rows))
	for r, row := range t.Rows {
		key := row[idx]
		if key.Kind() != KindPeriod {
			return CleanedTable{}, fmt.Errorf("substitute sentinels: row %d has no period", r)
		}
		cells := make([]string, len(row))
		for c, v := range row {
			cells[c] = renderCell(v)
		}
		rows = append(rows, CleanedRow{Period: key.Period(), Cells: cells})
	}
	return CleanedTable{PeriodColumn: periodColumn, Columns: columns, Rows: rows}, nil
}

func renderCell(v Value) string {
	switch v.Kind() {
	case KindNull:
		return SentinelMissing
	case KindNumeric:
		d, _ := v.Decimal()
		if d.IsZero() {
			return SentinelZero
		}
		return d.String()
	case KindPeriod:
		return v.Period().String()
	default:
		return v.Raw()
	}
}

func cloneRow(row Row) Row {
	out := make(Row, len(row))
	copy(out, row)
	return out
}
