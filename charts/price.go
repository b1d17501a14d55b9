// Package charts renders price series as PNG images.
package charts

import (
	"bytes"
	"fmt"
	"math"
	"time"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"ai-market-coach/apperrors"
	"ai-market-coach/market"
)

// RenderPriceChart renders a PNG line chart of closing prices with the
// running peak dashed above it; the gap between them is the drawdown.
func RenderPriceChart(series *market.PriceSeries) ([]byte, error) {
	if series == nil || len(series.Bars) < 2 {
		return nil, apperrors.NewValidationError("series", "at least 2 price points are required to draw a chart")
	}

	xValues := make([]time.Time, len(series.Bars))
	closeY := make([]float64, len(series.Bars))
	peakY := make([]float64, len(series.Bars))

	peak := math.Inf(-1)
	lo, hi := math.Inf(1), math.Inf(-1)
	for i, b := range series.Bars {
		xValues[i] = b.Date
		closeY[i] = b.Close
		peak = math.Max(peak, b.Close)
		peakY[i] = peak
		lo = math.Min(lo, b.Close)
		hi = math.Max(hi, b.Close)
	}

	closeSeries := chart.TimeSeries{
		Name: "Close",
		Style: chart.Style{
			StrokeColor: drawing.ColorFromHex("2563eb"),
			StrokeWidth: 2,
		},
		XValues: xValues,
		YValues: closeY,
	}

	peakSeries := chart.TimeSeries{
		Name: "Running peak",
		Style: chart.Style{
			StrokeColor:     drawing.ColorFromHex("dc2626"),
			StrokeWidth:     1.2,
			StrokeDashArray: []float64{5.0, 3.0},
		},
		XValues: xValues,
		YValues: peakY,
	}

	yAxis := chart.YAxis{
		ValueFormatter: func(v interface{}) string {
			if f, ok := v.(float64); ok {
				return fmt.Sprintf("%.2f", f)
			}
			return ""
		},
	}
	if hi-lo < 1e-9 {
		// a flat series has no range to scale to
		yAxis.Range = &chart.ContinuousRange{Min: lo - 1, Max: hi + 1}
	}

	title := fmt.Sprintf("%s close (%s, %s)", series.Ticker, series.Period, series.Interval)
	if series.Currency != "" {
		title = fmt.Sprintf("%s close in %s (%s, %s)", series.Ticker, series.Currency, series.Period, series.Interval)
	}

	graph := chart.Chart{
		Title:  title,
		Width:  900,
		Height: 400,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 10, Right: 20, Bottom: 10},
		},
		XAxis: chart.XAxis{
			TickPosition: chart.TickPositionBetweenTicks,
			ValueFormatter: func(v interface{}) string {
				if t, ok := v.(float64); ok {
					return chart.TimeFromFloat64(t).Format("Jan 06")
				}
				return ""
			},
		},
		YAxis:  yAxis,
		Series: []chart.Series{closeSeries, peakSeries},
	}

	graph.Elements = []chart.Renderable{
		chart.LegendLeft(&graph),
	}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("chart render failed: %w", err)
	}
	return buf.Bytes(), nil
}
