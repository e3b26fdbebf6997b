package models

import "time"

// Sample is one stored power reading.
type Sample struct {
	Timestamp time.Time `json:"timestamp"`
	Watt      int       `json:"watt"`
}

// Point is a single (time, value) pair of a chart series.
type Point struct {
	Timestamp time.Time `json:"ts"`
	Value     float64   `json:"value"`
}

// Granularity selects the bucket used for x-axis ticks.
type Granularity int

const (
	Hour Granularity = iota
	Day
)

func (g Granularity) String() string {
	switch g {
	case Hour:
		return "hour"
	case Day:
		return "day"
	default:
		return "unknown"
	}
}

// NamedSeries is a chart-ready series together with its axis bounds.
type NamedSeries struct {
	Title       string      `json:"title"`
	Points      []Point     `json:"points"`
	XMin        time.Time   `json:"x_min"`
	XMax        time.Time   `json:"x_max"`
	YMin        float64     `json:"y_min"`
	YMax        float64     `json:"y_max"`
	LabelFormat string      `json:"label_format"`
	Granularity Granularity `json:"granularity"`
}

// Chart pairs a series with its rendered SVG image.
type Chart struct {
	Series NamedSeries `json:"series"`
	SVG    []byte      `json:"-"`
}

// Snapshot is the state published after every ingestion cycle. A published
// snapshot is never mutated; the next cycle replaces it as a whole.
type Snapshot struct {
	Latest    *Sample           `json:"latest,omitempty"`
	Maximum   *Sample           `json:"maximum,omitempty"`
	TotalKWh  *float64          `json:"total_kwh,omitempty"`
	Profit    float64           `json:"profit"`
	Charts    []Chart           `json:"charts"`
	Variables map[string]string `json:"variables,omitempty"`
	UpdatedAt time.Time         `json:"updated_at"`
}
