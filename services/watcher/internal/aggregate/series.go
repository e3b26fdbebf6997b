package aggregate

import (
	"errors"
	"strconv"
	"time"

	"github.com/zerotwo/solar-watcher/services/watcher/internal/models"
)

// ErrNoPoints is returned when a series would have to be built from nothing.
var ErrNoPoints = errors.New("aggregate: no points")

// Label formats used by the standard chart set.
const (
	HourLabelFormat = "15:04"
	DayLabelFormat  = "Mon 02.01."
)

// ChartSpec describes one chart of the standard set.
type ChartSpec struct {
	Title       string
	Window      time.Duration // <= 0 means full history
	DailyAvg    bool
	LabelFormat string
	Granularity models.Granularity
}

// StandardCharts returns the chart set rebuilt every cycle: trailing 24h,
// trailing N days, per-day average and full history.
func StandardCharts(days int) []ChartSpec {
	if days < 1 {
		days = 1
	}
	return []ChartSpec{
		{Title: "24h", Window: 24 * time.Hour, LabelFormat: HourLabelFormat, Granularity: models.Hour},
		{Title: daysTitle(days), Window: time.Duration(days) * 24 * time.Hour, LabelFormat: DayLabelFormat, Granularity: models.Day},
		{Title: "Average per day", DailyAvg: true, LabelFormat: DayLabelFormat, Granularity: models.Day},
		{Title: "All days", LabelFormat: DayLabelFormat, Granularity: models.Day},
	}
}

func daysTitle(days int) string {
	if days == 1 {
		return "1 day"
	}
	return strconv.Itoa(days) + " days"
}

// BuildSeries maps points to a chart series whose bounds are the min/max of
// the input. points must not be empty.
func BuildSeries(title string, points []models.Point, labelFormat string, g models.Granularity) (models.NamedSeries, error) {
	if len(points) == 0 {
		return models.NamedSeries{}, ErrNoPoints
	}

	out := models.NamedSeries{
		Title:       title,
		Points:      make([]models.Point, len(points)),
		XMin:        points[0].Timestamp,
		XMax:        points[0].Timestamp,
		YMin:        points[0].Value,
		YMax:        points[0].Value,
		LabelFormat: labelFormat,
		Granularity: g,
	}
	copy(out.Points, points)

	for _, p := range points[1:] {
		if p.Timestamp.Before(out.XMin) {
			out.XMin = p.Timestamp
		}
		if p.Timestamp.After(out.XMax) {
			out.XMax = p.Timestamp
		}
		if p.Value < out.YMin {
			out.YMin = p.Value
		}
		if p.Value > out.YMax {
			out.YMax = p.Value
		}
	}
	return out, nil
}

// ComputeProfit converts the cumulative energy counter into currency using a
// tariff given in cents per kWh. Absent energy yields zero.
func ComputeProfit(totalKWh *float64, pricePerKWhCents float64) float64 {
	if totalKWh == nil {
		return 0
	}
	return *totalKWh * pricePerKWhCents / 100
}
