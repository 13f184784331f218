// Package domain models the water-utility performance report and the
// normalization that turns it into a monthly time series.
//
// # Data Source
//
// The utility publishes one workbook per financial-year pair (for example
// "FY2324-FY2425 (Aggregated)"). Each row is one reporting record for one
// scheme and one period, with a few hundred metric columns: volumes produced
// and billed, connections, complaints, response times, power usage, chemical
// consumption, breakdowns, cash collected, and so on. The column set changes
// between editions, so nothing here depends on a fixed schema.
//
// # Report Conventions
//
// Granularity ("Schemes" column):
//
//	Monthly records carry the scheme name or "Monthly". Roll-up records mark
//	themselves with "Qtr" (quarterly), "Ann" (annual) or "Mid" (mid-year)
//	somewhere in the label, e.g. "Qtr Total", "Ann Total", "Mid Year".
//	Matching is a case-sensitive substring test. A blank label is monthly.
//	Editions without the column are treated as all-monthly.
//
// Period ("Months" column):
//
//	Normally "YYYY-MM". Some exports carry full dates ("2023-01-31"),
//	month names ("Jan 2023", "Jan-23") or Excel serial numbers. Parsing runs
//	an ordered list of [PeriodParser] strategies and keeps the first match.
//	Roll-up rows use labels like "2023-Q1" that match no strategy.
//
// Stray columns:
//
//	Spreadsheet exports leave unlabeled trailing columns, which [NewTable]
//	names "Unnamed: <index>" (e.g. "Unnamed: 224"). They are dropped by name.
//
// Missing values:
//
//	Blank cells and the usual NA spellings ("NaN", "N/A", "#N/A", "null", ...)
//	are Null. See [ParseValue].
//
// # Cleaned Table
//
// One row per period, ascending. Numeric columns are summed exactly
// (decimal arithmetic). The cleaned table is display-oriented:
//
//	"-"    the aggregated value is exactly zero
//	"NaN"  no row contributed a value (all null, or absent)
//
// A period whose rows are all null for a column renders "NaN", not "-": the
// aggregation tracks whether any row contributed, independent of the sum.
package domain
