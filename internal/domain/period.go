package domain

import (
	"fmt"
	"strings"
	"time"
)

// Period is a calendar year-month, the aggregation key of the cleaned table.
type Period struct {
	Year  int
	Month time.Month
}

// PeriodOf truncates t to its year-month.
func PeriodOf(t time.Time) Period {
	return Period{Year: t.Year(), Month: t.Month()}
}

// String renders the period as YYYY-MM.
func (p Period) String() string {
	return fmt.Sprintf("%04d-%02d", p.Year, int(p.Month))
}

// Time returns the first instant of the period in UTC.
func (p Period) Time() time.Time {
	return time.Date(p.Year, p.Month, 1, 0, 0, 0, 0, time.UTC)
}

// Before orders periods chronologically.
func (p Period) Before(o Period) bool {
	if p.Year != o.Year {
		return p.Year < o.Year
	}
	return p.Month < o.Month
}

// PeriodParser is one strategy in the ordered period-coercion chain. Parse
// reports ok=false when the label is not in the strategy's format.
type PeriodParser struct {
	Name  string
	Parse func(label string) (Period, bool)
}

// StrictYearMonth accepts only "YYYY-MM" (single-digit months allowed).
var StrictYearMonth = PeriodParser{
	Name: "strict_year_month",
	Parse: func(label string) (Period, bool) {
		t, err := time.Parse("2006-1", strings.TrimSpace(label))
		if err != nil {
			return Period{}, false
		}
		return PeriodOf(t), true
	},
}

// looseLayouts are tried in order by LooseDate. A bare year is deliberately
// absent: it does not identify a month.
var looseLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006/01/02",
	"2006/1/2",
	"2006/1",
	"2006.1",
	"1/2/2006",
	"01/02/2006",
	"1-2-2006",
	"Jan 2006",
	"January 2006",
	"Jan-2006",
	"January-2006",
	"Jan-06",
	"Jan 06",
	"2006 Jan",
	"2006 January",
	"2006-Jan",
	"Jan 2, 2006",
	"January 2, 2006",
	"2 Jan 2006",
	"2 January 2006",
	"02-Jan-2006",
	"02-Jan-06",
}

// LooseDate accepts common date spellings found in spreadsheet exports.
var LooseDate = PeriodParser{
	Name: "loose_date",
	Parse: func(label string) (Period, bool) {
		label = strings.TrimSpace(label)
		if label == "" {
			return Period{}, false
		}
		for _, layout := range looseLayouts {
			if t, err := time.Parse(layout, label); err == nil {
				return PeriodOf(t), true
			}
		}
		return Period{}, false
	},
}

// DefaultPeriodParsers is the strict-then-loose chain.
func DefaultPeriodParsers() []PeriodParser {
	return []PeriodParser{StrictYearMonth, LooseDate}
}

// parsePeriod runs the chain and returns the index of the strategy that
// matched, or -1.
func parsePeriod(parsers []PeriodParser, label string) (Period, int) {
	for i, p := range parsers {
		if period, ok := p.Parse(label); ok {
			return period, i
		}
	}
	return Period{}, -1
}
