package dashboard

import (
	"fmt"
	"time"

	"github.com/couchcryptid/water-utility-etl/internal/domain"
)

// Point is one period on a tab's line. A nil Value is a gap.
type Point struct {
	Period string   `json:"period"`
	Value  *float64 `json:"value"`

	at time.Time
}

// Visual is what a tab shows: either a line chart or a placeholder message
// when the bound column is absent from the table.
type Visual struct {
	Tab         Binding             `json:"tab"`
	XColumn     string              `json:"x_column"`
	Points      []Point             `json:"points,omitempty"`
	Placeholder string              `json:"placeholder,omitempty"`
	Diagnostics []domain.Diagnostic `json:"diagnostics,omitempty"`
}

// IsPlaceholder reports whether the visual carries a message instead of a chart.
func (v Visual) IsPlaceholder() bool { return v.Placeholder != "" }

// Plottable reports how many points have a value.
func (v Visual) Plottable() int {
	n := 0
	for _, p := range v.Points {
		if p.Value != nil {
			n++
		}
	}
	return n
}

// Render builds the visual for a tab from a cleaned table. A missing bound
// column yields a placeholder, never an error; only an unknown tab fails.
func Render(id string, table domain.CleanedTable) (Visual, error) {
	b, err := Resolve(id)
	if err != nil {
		return Visual{}, err
	}

	v := Visual{Tab: b, XColumn: table.PeriodColumn}
	cells, ok := table.Column(b.YColumn)
	if !ok {
		v.Placeholder = fmt.Sprintf("Data for '%s' not found in this dataset.", b.YColumn)
		v.Diagnostics = []domain.Diagnostic{{
			Kind:    domain.UnresolvableField,
			Column:  b.YColumn,
			Message: "column required by tab " + b.ID + " is not in the cleaned table",
		}}
		return v, nil
	}

	v.Points = make([]Point, len(cells))
	for i, cell := range cells {
		period := table.Rows[i].Period
		v.Points[i] = Point{
			Period: period.String(),
			Value:  plotValue(cell),
			at:     period.Time(),
		}
	}
	return v, nil
}

// plotValue maps a cleaned cell to a y value: the zero sentinel plots as 0,
// the missing sentinel and non-numeric text are gaps.
func plotValue(cell string) *float64 {
	switch cell {
	case domain.SentinelZero:
		zero := 0.0
		return &zero
	case domain.SentinelMissing, "":
		return nil
	}
	// Out-of-range numbers come back as text and plot as gaps.
	d, ok := domain.ParseValue(cell).Decimal()
	if !ok {
		return nil
	}
	f := d.InexactFloat64()
	return &f
}
