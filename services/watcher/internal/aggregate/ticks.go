package aggregate

import (
	"time"

	"github.com/zerotwo/solar-watcher/services/watcher/internal/models"
)

// Tick is one labelled x-axis position.
type Tick struct {
	Time  time.Time
	Label string
}

// Ticks places x-axis ticks on bucket boundaries (full hours or local
// midnights) between the series bounds, keeping at most maxTicks of them.
func Ticks(s models.NamedSeries, maxTicks int) []Tick {
	if maxTicks < 1 || s.XMax.Before(s.XMin) {
		return nil
	}

	first := ceilBucket(s.XMin, s.Granularity)
	count := 0
	for t := first; !t.After(s.XMax); t = nextBucket(t, s.Granularity, 1) {
		count++
	}
	if count == 0 {
		return []Tick{{Time: s.XMin, Label: s.XMin.Format(s.LabelFormat)}}
	}

	step := (count + maxTicks - 1) / maxTicks
	ticks := make([]Tick, 0, maxTicks)
	for t := first; !t.After(s.XMax); t = nextBucket(t, s.Granularity, step) {
		ticks = append(ticks, Tick{Time: t, Label: t.Format(s.LabelFormat)})
	}
	return ticks
}

func floorBucket(t time.Time, g models.Granularity) time.Time {
	y, m, d := t.Date()
	if g == models.Hour {
		return time.Date(y, m, d, t.Hour(), 0, 0, 0, t.Location())
	}
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func ceilBucket(t time.Time, g models.Granularity) time.Time {
	f := floorBucket(t, g)
	if f.Equal(t) {
		return f
	}
	return nextBucket(f, g, 1)
}

func nextBucket(t time.Time, g models.Granularity, n int) time.Time {
	if g == models.Hour {
		return t.Add(time.Duration(n) * time.Hour)
	}
	return t.AddDate(0, 0, n)
}
