package aggregate

import (
	"bytes"
	"fmt"
	"time"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/zerotwo/solar-watcher/services/watcher/internal/models"
)

const maxRenderedTicks = 12

// Render draws the series as an SVG line chart.
func Render(s models.NamedSeries, width, height int) ([]byte, error) {
	if len(s.Points) == 0 {
		return nil, ErrNoPoints
	}

	xs := make([]time.Time, len(s.Points))
	ys := make([]float64, len(s.Points))
	for i, p := range s.Points {
		xs[i] = p.Timestamp
		ys[i] = p.Value
	}

	from, to := renderXRange(s)
	xMin, xMax := chart.TimeToFloat64(from), chart.TimeToFloat64(to)
	yMin, yMax := renderYRange(s)

	xTicks := renderTicks(s, from, to)

	graph := chart.Chart{
		Title:  s.Title,
		Width:  width,
		Height: height,
		XAxis: chart.XAxis{
			ValueFormatter: chart.TimeValueFormatterWithFormat(s.LabelFormat),
			Range:          &chart.ContinuousRange{Min: xMin, Max: xMax},
			Ticks:          xTicks,
			Style:          chart.Style{FontSize: 14},
		},
		YAxis: chart.YAxis{
			Name:  "Watt",
			Range: &chart.ContinuousRange{Min: yMin, Max: yMax},
			Style: chart.Style{FontSize: 14},
		},
		Series: []chart.Series{
			chart.TimeSeries{
				Name:    s.Title,
				XValues: xs,
				YValues: ys,
				Style: chart.Style{
					StrokeColor: drawing.ColorBlue,
					StrokeWidth: 2,
					DotColor:    drawing.ColorBlue,
					DotWidth:    3,
				},
			},
		},
	}

	var buf bytes.Buffer
	if err := graph.Render(chart.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render %q: %w", s.Title, err)
	}
	return buf.Bytes(), nil
}

// renderTicks brackets the bucket ticks with ticks at both ends of the drawn
// range. go-chart derives the x range from explicit ticks, so the outer pair
// pins it to [xMin, xMax].
func renderTicks(s models.NamedSeries, from, to time.Time) []chart.Tick {
	ticks := []chart.Tick{{Value: chart.TimeToFloat64(from), Label: from.Format(s.LabelFormat)}}
	for _, t := range Ticks(s, maxRenderedTicks-2) {
		if !t.Time.After(from) || !t.Time.Before(to) {
			continue
		}
		ticks = append(ticks, chart.Tick{Value: chart.TimeToFloat64(t.Time), Label: t.Label})
	}
	return append(ticks, chart.Tick{Value: chart.TimeToFloat64(to), Label: to.Format(s.LabelFormat)})
}

// renderXRange widens a zero-width time range by one bucket on each side;
// the series bounds themselves stay untouched.
func renderXRange(s models.NamedSeries) (time.Time, time.Time) {
	if s.XMax.After(s.XMin) {
		return s.XMin, s.XMax
	}
	pad := time.Hour
	if s.Granularity == models.Day {
		pad = 24 * time.Hour
	}
	return s.XMin.Add(-pad), s.XMax.Add(pad)
}

func renderYRange(s models.NamedSeries) (float64, float64) {
	if s.YMax > s.YMin {
		return s.YMin, s.YMax
	}
	return s.YMin - 1, s.YMax + 1
}
