package telemetry

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/erp/consignment/internal/infrastructure/config"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Database metric names
const (
	MetricDBPoolConnections    = "db_pool_connections"
	MetricDBPoolConnectionsMax = "db_pool_connections_max"
	MetricDBPoolWaits          = "db_pool_wait_total"
	MetricDBQueries            = "db_query_total"
	MetricDBQueryDuration      = "db_query_duration_seconds"
	MetricDBSlowQueries        = "db_slow_query_total"
	MetricDBQueryErrors        = "db_query_error_total"
)

const dbMetricsStartKey contextKey = "db_metrics_start_time"

// DBMetricsConfig controls query timing and pool sampling.
type DBMetricsConfig struct {
	Enabled            bool
	SlowQueryThreshold time.Duration
	PoolStatsInterval  time.Duration
}

// DBMetricsConfigFrom derives the database metrics settings from telemetry config.
func DBMetricsConfigFrom(cfg config.TelemetryConfig) DBMetricsConfig {
	return DBMetricsConfig{
		Enabled:            cfg.MetricsEnabled,
		SlowQueryThreshold: cfg.DBSlowQueryThresh,
		PoolStatsInterval:  cfg.DBPoolStatsEvery,
	}
}

// DBMetrics records per-statement counters and samples sql.DB pool stats.
type DBMetrics struct {
	poolConnections    *Gauge
	poolConnectionsMax *Gauge
	poolWaits          *Gauge

	queries       *Counter
	queryDuration *Histogram
	slowQueries   *Counter
	queryErrors   *Counter

	cfg    DBMetricsConfig
	logger *zap.Logger

	mu       sync.RWMutex
	sqlDB    *sql.DB
	stopCh   chan struct{}
	wg       sync.WaitGroup
	stopOnce sync.Once
}

// NewDBMetrics creates the database instruments on meter.
func NewDBMetrics(meter metric.Meter, cfg DBMetricsConfig, logger *zap.Logger) (*DBMetrics, error) {
	if meter == nil {
		return nil, &MetricsError{Op: "NewDBMetrics", Err: "meter cannot be nil"}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.SlowQueryThreshold <= 0 {
		cfg.SlowQueryThreshold = defaultSlowQueryThresh
	}
	if cfg.PoolStatsInterval <= 0 {
		cfg.PoolStatsInterval = 15 * time.Second
	}

	m := &DBMetrics{cfg: cfg, logger: logger, stopCh: make(chan struct{})}

	var err error
	if m.poolConnections, err = NewGauge(meter, MetricDBPoolConnections, "Connections in the pool by state", "{connection}"); err != nil {
		return nil, err
	}
	if m.poolConnectionsMax, err = NewGauge(meter, MetricDBPoolConnectionsMax, "Maximum open connections allowed", "{connection}"); err != nil {
		return nil, err
	}
	if m.poolWaits, err = NewGauge(meter, MetricDBPoolWaits, "Connections waited for since the pool opened", "{wait}"); err != nil {
		return nil, err
	}
	if m.queries, err = NewCounter(meter, MetricDBQueries, "Statements executed by operation", "{query}"); err != nil {
		return nil, err
	}
	if m.queryDuration, err = NewHistogram(meter, HistogramOpts{
		Name:        MetricDBQueryDuration,
		Description: "Statement latency in seconds",
		Unit:        "s",
		Boundaries:  DBDurationBuckets,
	}); err != nil {
		return nil, err
	}
	if m.slowQueries, err = NewCounter(meter, MetricDBSlowQueries, "Statements slower than the slow query threshold", "{query}"); err != nil {
		return nil, err
	}
	if m.queryErrors, err = NewCounter(meter, MetricDBQueryErrors, "Statements that failed, not counting record-not-found", "{query}"); err != nil {
		return nil, err
	}
	return m, nil
}

// SetSQLDB sets the pool sampled by StartPoolStatsCollection.
func (m *DBMetrics) SetSQLDB(sqlDB *sql.DB) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sqlDB = sqlDB
}

// StartPoolStatsCollection samples pool stats immediately and then every
// PoolStatsInterval until Stop is called or ctx ends.
func (m *DBMetrics) StartPoolStatsCollection(ctx context.Context) {
	m.mu.RLock()
	sqlDB := m.sqlDB
	m.mu.RUnlock()
	if sqlDB == nil {
		m.logger.Warn("Cannot start pool stats collection: sql.DB not set")
		return
	}

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		ticker := time.NewTicker(m.cfg.PoolStatsInterval)
		defer ticker.Stop()

		m.collectPoolStats(ctx)
		for {
			select {
			case <-ticker.C:
				m.collectPoolStats(ctx)
			case <-m.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	m.logger.Info("Started database pool stats collection",
		zap.Duration("interval", m.cfg.PoolStatsInterval),
	)
}

func (m *DBMetrics) collectPoolStats(ctx context.Context) {
	m.mu.RLock()
	sqlDB := m.sqlDB
	m.mu.RUnlock()
	if sqlDB == nil {
		return
	}

	stats := sqlDB.Stats()
	m.poolConnectionsMax.Record(ctx, int64(stats.MaxOpenConnections))
	m.poolConnections.Record(ctx, int64(stats.Idle), AttrDBState.String("idle"))
	m.poolConnections.Record(ctx, int64(stats.InUse), AttrDBState.String("in_use"))
	m.poolConnections.Record(ctx, int64(stats.OpenConnections), AttrDBState.String("open"))
	m.poolWaits.Record(ctx, stats.WaitCount)
}

// Stop ends pool sampling. Safe to call more than once.
func (m *DBMetrics) Stop() {
	m.stopOnce.Do(func() {
		close(m.stopCh)
		m.wg.Wait()
	})
}

// RecordQuery counts one statement. table may be empty for raw SQL.
func (m *DBMetrics) RecordQuery(ctx context.Context, operation, table string, elapsed time.Duration, err error) {
	operation = strings.ToUpper(operation)
	if operation == "" {
		operation = "UNKNOWN"
	}
	if table == "" {
		table = "unknown"
	}

	m.queries.Inc(ctx, AttrDBOperation.String(operation))
	m.queryDuration.RecordDuration(ctx, elapsed, AttrDBOperation.String(operation))
	if elapsed > m.cfg.SlowQueryThreshold {
		m.slowQueries.Inc(ctx, AttrDBOperation.String(operation), AttrDBTable.String(table))
	}
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		m.queryErrors.Inc(ctx, AttrDBOperation.String(operation), AttrDBTable.String(table))
	}
}

// DBMetricsPlugin is a gorm.Plugin feeding DBMetrics from statement callbacks.
type DBMetricsPlugin struct {
	metrics *DBMetrics
}

// NewDBMetricsPlugin wraps metrics as a GORM plugin
func NewDBMetricsPlugin(metrics *DBMetrics) *DBMetricsPlugin {
	return &DBMetricsPlugin{metrics: metrics}
}

// Name implements gorm.Plugin
func (p *DBMetricsPlugin) Name() string {
	return "db_metrics"
}

// Initialize implements gorm.Plugin
func (p *DBMetricsPlugin) Initialize(db *gorm.DB) error {
	cb := db.Callback()
	steps := []struct {
		op     string
		before func() error
		after  func() error
	}{
		{"INSERT",
			func() error { return cb.Create().Before("gorm:create").Register("db_metrics:before_create", p.before) },
			func() error { return cb.Create().After("gorm:create").Register("db_metrics:after_create", p.after("INSERT")) }},
		{"SELECT",
			func() error { return cb.Query().Before("gorm:query").Register("db_metrics:before_query", p.before) },
			func() error { return cb.Query().After("gorm:query").Register("db_metrics:after_query", p.after("SELECT")) }},
		{"UPDATE",
			func() error { return cb.Update().Before("gorm:update").Register("db_metrics:before_update", p.before) },
			func() error { return cb.Update().After("gorm:update").Register("db_metrics:after_update", p.after("UPDATE")) }},
		{"DELETE",
			func() error { return cb.Delete().Before("gorm:delete").Register("db_metrics:before_delete", p.before) },
			func() error { return cb.Delete().After("gorm:delete").Register("db_metrics:after_delete", p.after("DELETE")) }},
		{"ROW",
			func() error { return cb.Row().Before("gorm:row").Register("db_metrics:before_row", p.before) },
			func() error { return cb.Row().After("gorm:row").Register("db_metrics:after_row", p.after("")) }},
		{"RAW",
			func() error { return cb.Raw().Before("gorm:raw").Register("db_metrics:before_raw", p.before) },
			func() error { return cb.Raw().After("gorm:raw").Register("db_metrics:after_raw", p.after("")) }},
	}
	for _, s := range steps {
		if err := s.before(); err != nil {
			return fmt.Errorf("register %s metrics callback: %w", s.op, err)
		}
		if err := s.after(); err != nil {
			return fmt.Errorf("register %s metrics callback: %w", s.op, err)
		}
	}
	return nil
}

func (p *DBMetricsPlugin) before(db *gorm.DB) {
	ctx := db.Statement.Context
	if ctx == nil {
		ctx = context.Background()
	}
	db.Statement.Context = context.WithValue(ctx, dbMetricsStartKey, time.Now())
}

// after records the statement; an empty operation is read from the SQL text
func (p *DBMetricsPlugin) after(operation string) func(*gorm.DB) {
	return func(db *gorm.DB) {
		ctx := db.Statement.Context
		if ctx == nil {
			ctx = context.Background()
		}
		var elapsed time.Duration
		if start, ok := ctx.Value(dbMetricsStartKey).(time.Time); ok {
			elapsed = time.Since(start)
		}
		op := operation
		if op == "" {
			op = detectOperation(db.Statement.SQL.String())
		}
		p.metrics.RecordQuery(ctx, op, db.Statement.Table, elapsed, db.Error)
	}
}

func detectOperation(sqlText string) string {
	sqlText = strings.ToUpper(strings.TrimSpace(sqlText))
	for _, op := range []string{"SELECT", "INSERT", "UPDATE", "DELETE"} {
		if strings.HasPrefix(sqlText, op) {
			return op
		}
	}
	return "OTHER"
}

// RegisterDBMetrics installs the query plugin on db and returns the metrics
// for pool sampling and shutdown. It returns nil, nil when metrics are off.
func RegisterDBMetrics(db *gorm.DB, mp *MeterProvider, cfg DBMetricsConfig, logger *zap.Logger) (*DBMetrics, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if !cfg.Enabled || !mp.IsEnabled() {
		logger.Debug("Database metrics disabled")
		return nil, nil
	}

	metrics, err := NewDBMetrics(mp.Meter("db.client"), cfg, logger)
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	metrics.SetSQLDB(sqlDB)
	if err := db.Use(NewDBMetricsPlugin(metrics)); err != nil {
		return nil, err
	}

	logger.Info("Database metrics registered",
		zap.Duration("slow_query_threshold", metrics.cfg.SlowQueryThreshold),
		zap.Duration("pool_stats_interval", metrics.cfg.PoolStatsInterval),
	)
	return metrics, nil
}
