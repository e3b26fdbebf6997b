package ingest

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/zerotwo/solar-watcher/services/watcher/internal/aggregate"
	"github.com/zerotwo/solar-watcher/services/watcher/internal/inverter"
	"github.com/zerotwo/solar-watcher/services/watcher/internal/models"
)

// Source delivers the raw inverter status page.
type Source interface {
	Fetch(ctx context.Context) (string, bool)
}

// Store is the subset of the time-series store the loop needs.
type Store interface {
	Insert(ctx context.Context, watt int) error
	SelectLast(ctx context.Context) (*models.Sample, error)
	SelectMax(ctx context.Context) (*models.Sample, error)
	SelectWindow(ctx context.Context, window time.Duration) ([]models.Point, error)
	SelectDailyAverage(ctx context.Context) ([]models.Point, error)
}

// Options are the fixed parameters of the loop.
type Options struct {
	Interval         time.Duration
	PricePerKWhCents float64
	ChartDays        int
	ChartWidth       int
	ChartHeight      int
}

// Loop polls the inverter, persists readings and publishes snapshots.
type Loop struct {
	source Source
	store  Store
	log    logrus.FieldLogger
	opts   Options
	charts []aggregate.ChartSpec
	render func(models.NamedSeries, int, int) ([]byte, error)
	now    func() time.Time

	snapshot atomic.Pointer[models.Snapshot]

	// cycleMu keeps RunCycle from overlapping itself.
	cycleMu sync.Mutex
	status  statusTracker
}

// New wires a loop. The initial snapshot is empty.
func New(source Source, store Store, log logrus.FieldLogger, opts Options) *Loop {
	l := &Loop{
		source: source,
		store:  store,
		log:    log,
		opts:   opts,
		charts: aggregate.StandardCharts(opts.ChartDays),
		render: aggregate.Render,
		now:    time.Now,
	}
	l.snapshot.Store(&models.Snapshot{Charts: []models.Chart{}})
	return l
}

// Snapshot returns the last published snapshot. It is never nil and must not
// be modified.
func (l *Loop) Snapshot() *models.Snapshot {
	return l.snapshot.Load()
}

// Run executes one cycle immediately and then one per interval until ctx is
// cancelled. Cancellation is only observed between cycles.
func (l *Loop) Run(ctx context.Context) error {
	if l.opts.Interval <= 0 {
		return fmt.Errorf("ingest: interval must be positive, got %s", l.opts.Interval)
	}
	l.log.WithField("interval", l.opts.Interval).Info("ingestion loop started")

	ticker := time.NewTicker(l.opts.Interval)
	defer ticker.Stop()

	for {
		l.RunCycle(context.WithoutCancel(ctx))

		select {
		case <-ctx.Done():
			l.log.Info("ingestion loop stopped")
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// RunCycle performs one fetch/parse/persist/aggregate pass and publishes the
// result. Any panic is recovered; the previous snapshot then stays visible.
// A cycle is bounded by the interval so a hung dial cannot stall the loop.
func (l *Loop) RunCycle(ctx context.Context) {
	l.cycleMu.Lock()
	defer l.cycleMu.Unlock()

	if l.opts.Interval > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.opts.Interval)
		defer cancel()
	}

	defer func() {
		if r := recover(); r != nil {
			l.log.WithField("panic", r).WithField("stack", string(debug.Stack())).Error("ingestion cycle aborted")
		}
		l.status.set(Idle)
	}()

	prev := l.Snapshot()
	next := &models.Snapshot{
		Latest:    prev.Latest,
		Maximum:   prev.Maximum,
		TotalKWh:  prev.TotalKWh,
		Variables: prev.Variables,
	}

	l.status.set(Fetching)
	page, fetched := l.source.Fetch(ctx)
	l.status.fetched(fetched)

	l.status.set(Parsing)
	watt, hasWatt := inverter.ParseWatt(page)
	if kwh, ok := inverter.ParseTotalKWh(page); ok {
		next.TotalKWh = &kwh
	}
	if fetched {
		if vars := inverter.Variables(page); len(vars) > 0 {
			next.Variables = vars
		}
		if !hasWatt {
			l.log.WithField("page_bytes", len(page)).Trace("status page carries no usable current power value")
		}
	}

	l.status.set(Persisting)
	if hasWatt {
		if err := l.store.Insert(ctx, watt); err != nil {
			l.log.WithError(err).WithField("watt", watt).Debug("reading not stored this cycle")
		}
	}

	l.status.set(Aggregating)
	if last, err := l.store.SelectLast(ctx); err == nil && last != nil {
		next.Latest = last
	}
	if peak, err := l.store.SelectMax(ctx); err == nil && peak != nil {
		next.Maximum = peak
	}
	next.Profit = aggregate.ComputeProfit(next.TotalKWh, l.opts.PricePerKWhCents)
	next.Charts = l.buildCharts(ctx, prev.Charts)
	next.UpdatedAt = l.now()

	l.snapshot.Store(next)
	l.status.completed(next.UpdatedAt)
}

// buildCharts rebuilds the standard chart set. A chart whose query fails keeps
// its previous rendition; a chart without data is left out.
func (l *Loop) buildCharts(ctx context.Context, prev []models.Chart) []models.Chart {
	previous := make(map[string]models.Chart, len(prev))
	for _, c := range prev {
		previous[c.Series.Title] = c
	}

	charts := make([]models.Chart, 0, len(l.charts))
	for _, spec := range l.charts {
		points, err := l.query(ctx, spec)
		if err != nil {
			if c, ok := previous[spec.Title]; ok {
				charts = append(charts, c)
			}
			continue
		}

		series, err := aggregate.BuildSeries(spec.Title, points, spec.LabelFormat, spec.Granularity)
		if errors.Is(err, aggregate.ErrNoPoints) {
			continue
		}
		if err != nil {
			l.log.WithError(err).WithField("chart", spec.Title).Warn("build series")
			continue
		}

		svg, err := l.render(series, l.opts.ChartWidth, l.opts.ChartHeight)
		if err != nil {
			l.log.WithError(err).WithField("chart", spec.Title).Error("render chart")
			if c, ok := previous[spec.Title]; ok {
				charts = append(charts, c)
			}
			continue
		}
		charts = append(charts, models.Chart{Series: series, SVG: svg})
	}
	return charts
}

func (l *Loop) query(ctx context.Context, spec aggregate.ChartSpec) ([]models.Point, error) {
	if spec.DailyAvg {
		return l.store.SelectDailyAverage(ctx)
	}
	return l.store.SelectWindow(ctx, spec.Window)
}
