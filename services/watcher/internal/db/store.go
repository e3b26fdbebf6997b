package db

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/zerotwo/solar-watcher/services/watcher/internal/models"
)

// querier is the part of *pgxpool.Pool the store uses.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// Store serializes all access to the solar schema. Every exported method holds
// mu for its whole duration, so statements never interleave even when the pool
// allows more than one connection.
type Store struct {
	mu       sync.Mutex
	dsn      string
	maxConns int32
	pool     querier
	log      logrus.FieldLogger
	loc      *time.Location
}

// Option tweaks a Store at construction time.
type Option func(*Store)

// WithMaxConns caps the underlying pool size.
func WithMaxConns(n int32) Option {
	return func(s *Store) {
		if n > 0 {
			s.maxConns = n
		}
	}
}

// WithLocation sets the location timestamps are converted to on read.
func WithLocation(loc *time.Location) Option {
	return func(s *Store) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// New creates a Store. No connection is opened until the first call.
func New(dsn string, log logrus.FieldLogger, opts ...Option) *Store {
	s := &Store{dsn: dsn, maxConns: 1, log: log, loc: time.Local}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Close releases the pool resources.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pool != nil {
		s.pool.Close()
		s.pool = nil
	}
}

// connectLocked opens the pool on first use; later calls are no-ops.
func (s *Store) connectLocked(ctx context.Context) error {
	if s.pool != nil {
		return nil
	}
	cfg, err := pgxpool.ParseConfig(s.dsn)
	if err != nil {
		return fmt.Errorf("parse database url: %w", err)
	}
	cfg.MaxConns = s.maxConns
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return fmt.Errorf("open pool: %w", err)
	}
	s.pool = pool
	return nil
}

func (s *Store) fail(err error, statement string) error {
	s.log.WithError(err).WithField("statement", statement).Error("database operation failed")
	return err
}

// EnsureSchema creates the schema, table and index when missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.connectLocked(ctx); err != nil {
		return s.fail(err, "connect")
	}
	for _, stmt := range schemaStatements {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return s.fail(fmt.Errorf("ensure schema: %w", err), stmt)
		}
	}
	return nil
}

// Insert appends one reading; the database assigns the timestamp.
func (s *Store) Insert(ctx context.Context, watt int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.connectLocked(ctx); err != nil {
		return s.fail(err, insertSQL)
	}
	if _, err := s.pool.Exec(ctx, insertSQL, watt); err != nil {
		return s.fail(fmt.Errorf("insert watt: %w", err), insertSQL)
	}
	return nil
}

// SelectLast returns the most recent reading, or nil when the table is empty.
func (s *Store) SelectLast(ctx context.Context) (*models.Sample, error) {
	return s.selectSample(ctx, selectLastSQL)
}

// SelectMax returns a reading carrying the table-wide maximum watt, or nil
// when the table is empty. Ties resolve to the earliest reading.
func (s *Store) SelectMax(ctx context.Context) (*models.Sample, error) {
	return s.selectSample(ctx, selectMaxSQL)
}

func (s *Store) selectSample(ctx context.Context, query string) (*models.Sample, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.connectLocked(ctx); err != nil {
		return nil, s.fail(err, query)
	}

	var sample models.Sample
	err := s.pool.QueryRow(ctx, query).Scan(&sample.Watt, &sample.Timestamp)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, s.fail(err, query)
	}
	sample.Timestamp = sample.Timestamp.In(s.loc)
	return &sample, nil
}

// SelectWindow returns readings within [now-window, now] in insertion order.
// A window <= 0 selects the full history.
func (s *Store) SelectWindow(ctx context.Context, window time.Duration) ([]models.Point, error) {
	query, args := windowQuery(window)
	return s.selectPoints(ctx, query, args...)
}

// SelectDailyAverage returns the average watt per UTC calendar day.
func (s *Store) SelectDailyAverage(ctx context.Context) ([]models.Point, error) {
	return s.selectPoints(ctx, dailyAverageSQL)
}

func (s *Store) selectPoints(ctx context.Context, query string, args ...any) ([]models.Point, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.connectLocked(ctx); err != nil {
		return nil, s.fail(err, query)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, s.fail(err, query)
	}
	defer rows.Close()

	points := make([]models.Point, 0)
	for rows.Next() {
		var p models.Point
		if err := rows.Scan(&p.Timestamp, &p.Value); err != nil {
			return nil, s.fail(err, query)
		}
		p.Timestamp = p.Timestamp.In(s.loc)
		points = append(points, p)
	}
	if err := rows.Err(); err != nil {
		return nil, s.fail(err, query)
	}
	return points, nil
}

// SelectMinTimestamp returns the earliest stored instant in UTC, or nil when
// the table is empty.
func (s *Store) SelectMinTimestamp(ctx context.Context) (*time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.connectLocked(ctx); err != nil {
		return nil, s.fail(err, selectMinTimestampSQL)
	}

	var ts *time.Time
	if err := s.pool.QueryRow(ctx, selectMinTimestampSQL).Scan(&ts); err != nil {
		return nil, s.fail(err, selectMinTimestampSQL)
	}
	if ts == nil {
		return nil, nil
	}
	utc := ts.UTC()
	return &utc, nil
}

// Count returns the number of stored readings.
func (s *Store) Count(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.connectLocked(ctx); err != nil {
		return 0, s.fail(err, countSQL)
	}

	var n int64
	if err := s.pool.QueryRow(ctx, countSQL).Scan(&n); err != nil {
		return 0, s.fail(err, countSQL)
	}
	return n, nil
}
