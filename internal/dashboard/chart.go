package dashboard

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/couchcryptid/water-utility-etl/internal/observability"
	lru "github.com/hashicorp/golang-lru/v2"
	chart "github.com/wcharczuk/go-chart/v2"
)

// ErrNothingToPlot is returned for placeholder visuals and for lines without
// a single plottable value.
var ErrNothingToPlot = errors.New("nothing to plot")

// Renderer draws a Visual as an image.
type Renderer interface {
	Render(v Visual) ([]byte, error)
}

// SVGRenderer draws line charts with go-chart.
type SVGRenderer struct {
	Width  int
	Height int
}

// NewSVGRenderer returns an SVGRenderer with the dashboard's chart size.
func NewSVGRenderer() *SVGRenderer {
	return &SVGRenderer{Width: 960, Height: 480}
}

func (r *SVGRenderer) Render(v Visual) ([]byte, error) {
	if v.IsPlaceholder() {
		return nil, ErrNothingToPlot
	}

	series := lineSegments(v)
	if len(series) == 0 {
		return nil, ErrNothingToPlot
	}
	padSingleMonth(series)

	ch := chart.Chart{
		Title:  v.Tab.Title,
		Width:  r.Width,
		Height: r.Height,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16},
		},
		XAxis: chart.XAxis{
			Name:           v.XColumn,
			ValueFormatter: chart.TimeValueFormatterWithFormat("2006-01"),
		},
		YAxis: chart.YAxis{
			Name:  v.Tab.YColumn,
			Range: yRange(series),
		},
		Series: series,
	}

	var buf bytes.Buffer
	if err := ch.Render(chart.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render %s chart: %w", v.Tab.ID, err)
	}
	return buf.Bytes(), nil
}

// lineSegments splits the points into one series per run of values, so gaps
// break the line instead of being drawn through.
func lineSegments(v Visual) []chart.Series {
	style := chart.Style{
		StrokeColor: chart.ColorBlue,
		StrokeWidth: 2,
		DotColor:    chart.ColorBlue,
		DotWidth:    3,
	}

	var out []chart.Series
	var cur chart.TimeSeries
	flush := func() {
		if len(cur.XValues) > 0 {
			out = append(out, cur)
		}
		cur = chart.TimeSeries{}
	}
	for _, p := range v.Points {
		if p.Value == nil {
			flush()
			continue
		}
		if len(cur.XValues) == 0 {
			cur = chart.TimeSeries{Name: v.Tab.YColumn, Style: style}
		}
		cur.XValues = append(cur.XValues, p.at)
		cur.YValues = append(cur.YValues, *p.Value)
	}
	flush()
	return out
}

// padSingleMonth gives go-chart a non-empty x range when the whole chart is
// one month, by repeating the point a month later.
func padSingleMonth(series []chart.Series) {
	if len(series) != 1 {
		return
	}
	ts := series[0].(chart.TimeSeries)
	if len(ts.XValues) != 1 {
		return
	}
	ts.XValues = []time.Time{ts.XValues[0], ts.XValues[0].AddDate(0, 1, 0)}
	ts.YValues = []float64{ts.YValues[0], ts.YValues[0]}
	series[0] = ts
}

// yRange fixes the y axis when every value is equal, which go-chart rejects
// as a zero-width range.
func yRange(series []chart.Series) chart.Range {
	first := true
	var lo, hi float64
	for _, s := range series {
		for _, y := range s.(chart.TimeSeries).YValues {
			if first {
				lo, hi, first = y, y, false
				continue
			}
			lo = min(lo, y)
			hi = max(hi, y)
		}
	}
	if lo != hi {
		return nil
	}
	pad := 1.0
	if lo != 0 {
		pad = math.Abs(lo) / 10
	}
	return &chart.ContinuousRange{Min: lo - pad, Max: hi + pad}
}

// CachedRenderer wraps a Renderer with an LRU cache keyed by tab and table
// fingerprint.
type CachedRenderer struct {
	inner   Renderer
	cache   *lru.Cache[string, []byte]
	metrics *observability.Metrics
	logger  *slog.Logger
}

// NewCachedRenderer creates a cache decorator holding up to size charts.
func NewCachedRenderer(inner Renderer, size int, metrics *observability.Metrics, logger *slog.Logger) (*CachedRenderer, error) {
	cache, err := lru.New[string, []byte](size)
	if err != nil {
		return nil, fmt.Errorf("create chart cache: %w", err)
	}
	return &CachedRenderer{inner: inner, cache: cache, metrics: metrics, logger: logger}, nil
}

// Chart returns the SVG for v, rendered from the table with the given
// fingerprint. Placeholders are never cached.
func (c *CachedRenderer) Chart(v Visual, fingerprint string) ([]byte, error) {
	if v.IsPlaceholder() {
		c.metrics.ChartRenders.WithLabelValues("placeholder").Inc()
		return nil, ErrNothingToPlot
	}

	key := v.Tab.ID + "|" + fingerprint
	if svg, ok := c.cache.Get(key); ok {
		c.metrics.ChartCache.WithLabelValues("hit").Inc()
		return svg, nil
	}
	c.metrics.ChartCache.WithLabelValues("miss").Inc()

	svg, err := c.inner.Render(v)
	if err != nil {
		if errors.Is(err, ErrNothingToPlot) {
			c.metrics.ChartRenders.WithLabelValues("placeholder").Inc()
		} else {
			c.metrics.ChartRenders.WithLabelValues("error").Inc()
			c.logger.Error("chart render failed", "tab", v.Tab.ID, "error", err)
		}
		return nil, err
	}
	c.metrics.ChartRenders.WithLabelValues("success").Inc()
	c.cache.Add(key, svg)
	return svg, nil
}
