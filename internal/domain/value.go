package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Kind tags the variant held by a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindNumeric
	KindText
	KindPeriod
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindNumeric:
		return "numeric"
	case KindText:
		return "text"
	case KindPeriod:
		return "period"
	default:
		return "unknown"
	}
}

// naTokens are the cell spellings treated as missing, matching what
// spreadsheet exports of the source dataset use for empty cells.
var naTokens = map[string]struct{}{
	"#N/A": {}, "#N/A N/A": {}, "#NA": {}, "-1.#IND": {}, "-1.#QNAN": {},
	"-NaN": {}, "-nan": {}, "1.#IND": {}, "1.#QNAN": {}, "<NA>": {},
	"N/A": {}, "NA": {}, "NULL": {}, "NaN": {}, "None": {}, "n/a": {},
	"nan": {}, "null": {},
}

// maxMagnitude bounds the decimal exponent of a numeric cell, roughly the
// range of a float64. Larger exponents make sums and rendering blow up.
const maxMagnitude = 308

// Value is a single table cell. The zero Value is Null.
type Value struct {
	kind       Kind
	raw        string
	num        decimal.Decimal
	period     Period
	outOfRange bool
}

// Null returns the missing value.
func Null() Value { return Value{} }

// Numeric wraps an exact decimal.
func Numeric(d decimal.Decimal) Value {
	return Value{kind: KindNumeric, raw: d.String(), num: d}
}

// Text wraps a non-numeric string.
func Text(s string) Value { return Value{kind: KindText, raw: s} }

// PeriodValue wraps a coerced period.
func PeriodValue(p Period) Value {
	return Value{kind: KindPeriod, raw: p.String(), period: p}
}

// ParseValue classifies a raw cell as Null, Numeric or Text.
func ParseValue(raw string) Value {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Null()
	}
	if _, ok := naTokens[trimmed]; ok {
		return Null()
	}
	if d, err := decimal.NewFromString(trimmed); err == nil {
		if d.IsZero() {
			// 0e-400000000 would otherwise drag every sum to its scale.
			return Value{kind: KindNumeric, raw: raw, num: decimal.Zero}
		}
		if !inRange(d) {
			return Value{kind: KindText, raw: raw, outOfRange: true}
		}
		return Value{kind: KindNumeric, raw: raw, num: d}
	}
	return Value{kind: KindText, raw: raw}
}

// inRange reports whether the adjusted exponent of d, the power of ten of
// its leading digit, is within maxMagnitude.
func inRange(d decimal.Decimal) bool {
	adjusted := int64(d.Exponent()) + int64(d.NumDigits()) - 1
	return adjusted >= -maxMagnitude && adjusted <= maxMagnitude
}

// Kind returns the variant tag.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether the value is missing.
func (v Value) IsNull() bool { return v.kind == KindNull }

// Raw returns the source text of the cell.
func (v Value) Raw() string { return v.raw }

// OutOfRange reports whether the cell spelled a number too large or too
// small to aggregate and was kept as text.
func (v Value) OutOfRange() bool { return v.outOfRange }

// Period returns the coerced period of a KindPeriod value.
func (v Value) Period() Period { return v.period }

// Decimal returns the numeric payload; ok is false for non-numeric values.
func (v Value) Decimal() (decimal.Decimal, bool) {
	if v.kind != KindNumeric {
		return decimal.Zero, false
	}
	return v.num, true
}
