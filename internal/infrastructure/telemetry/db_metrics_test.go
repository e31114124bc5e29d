package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/erp/consignment/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.uber.org/zap"
)

// sumWhere adds up int64 data points carrying attribute key=value
func sumWhere(agg metricdata.Aggregation, key attribute.Key, value string) int64 {
	var n int64
	match := func(set attribute.Set) bool {
		v, ok := set.Value(key)
		return ok && v.Emit() == value
	}
	switch a := agg.(type) {
	case metricdata.Sum[int64]:
		for _, dp := range a.DataPoints {
			if match(dp.Attributes) {
				n += dp.Value
			}
		}
	case metricdata.Gauge[int64]:
		for _, dp := range a.DataPoints {
			if match(dp.Attributes) {
				n += dp.Value
			}
		}
	}
	return n
}

func newTestMeterProvider(t *testing.T) (*MeterProvider, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := NewMeterProviderWithReader(reader)
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })
	return mp, reader
}

func TestDBMetricsConfigFrom(t *testing.T) {
	cfg := DBMetricsConfigFrom(config.TelemetryConfig{
		MetricsEnabled:    true,
		DBSlowQueryThresh: 50 * time.Millisecond,
		DBPoolStatsEvery:  5 * time.Second,
	})
	assert.True(t, cfg.Enabled)
	assert.Equal(t, 50*time.Millisecond, cfg.SlowQueryThreshold)
	assert.Equal(t, 5*time.Second, cfg.PoolStatsInterval)
}

func TestNewDBMetrics_Defaults(t *testing.T) {
	mp, _ := newTestMeterProvider(t)
	m, err := NewDBMetrics(mp.Meter("test"), DBMetricsConfig{Enabled: true}, nil)
	require.NoError(t, err)
	assert.Equal(t, defaultSlowQueryThresh, m.cfg.SlowQueryThreshold)
	assert.Equal(t, 15*time.Second, m.cfg.PoolStatsInterval)

	_, err = NewDBMetrics(nil, DBMetricsConfig{}, nil)
	require.Error(t, err)
}

func TestRegisterDBMetrics_Disabled(t *testing.T) {
	db := setupTestDB(t)

	m, err := RegisterDBMetrics(db, NewMeterProviderWithReader(sdkmetric.NewManualReader()), DBMetricsConfig{Enabled: false}, zap.NewNop())
	require.NoError(t, err)
	assert.Nil(t, m)

	noop := &MeterProvider{logger: zap.NewNop()}
	m, err = RegisterDBMetrics(db, noop, DBMetricsConfig{Enabled: true}, nil)
	require.NoError(t, err)
	assert.Nil(t, m)
}

func TestRegisterDBMetrics_CountsStatements(t *testing.T) {
	mp, reader := newTestMeterProvider(t)
	db := setupTestDB(t)

	m, err := RegisterDBMetrics(db, mp, DBMetricsConfig{Enabled: true, SlowQueryThreshold: time.Nanosecond}, zap.NewNop())
	require.NoError(t, err)
	require.NotNil(t, m)
	t.Cleanup(m.Stop)

	require.NoError(t, db.Create(&tracedItem{Name: "Vestido"}).Error)
	var items []tracedItem
	require.NoError(t, db.Find(&items).Error)
	require.Len(t, items, 1)
	require.Error(t, db.Exec("SELECT * FROM missing_table").Error)

	data := collect(t, reader)
	require.Contains(t, data, MetricDBQueries)
	assert.Equal(t, int64(1), sumWhere(data[MetricDBQueries], AttrDBOperation, "INSERT"))
	assert.Equal(t, int64(2), sumWhere(data[MetricDBQueries], AttrDBOperation, "SELECT"))

	require.Contains(t, data, MetricDBSlowQueries)
	assert.Equal(t, int64(3), total(data[MetricDBSlowQueries]), "every statement is slow against a 1ns threshold")
	assert.Equal(t, int64(2), sumWhere(data[MetricDBSlowQueries], AttrDBTable, "traced_items"))
	assert.Equal(t, int64(1), sumWhere(data[MetricDBSlowQueries], AttrDBTable, "unknown"))

	require.Contains(t, data, MetricDBQueryErrors)
	assert.Equal(t, int64(1), total(data[MetricDBQueryErrors]))

	hist, ok := data[MetricDBQueryDuration].(metricdata.Histogram[float64])
	require.True(t, ok)
	var count uint64
	for _, dp := range hist.DataPoints {
		count += dp.Count
	}
	assert.Equal(t, uint64(3), count)
}

func TestDBMetrics_PoolStats(t *testing.T) {
	mp, reader := newTestMeterProvider(t)
	db := setupTestDB(t)
	sqlDB, err := db.DB()
	require.NoError(t, err)

	m, err := NewDBMetrics(mp.Meter("test"), DBMetricsConfig{Enabled: true, PoolStatsInterval: time.Hour}, nil)
	require.NoError(t, err)

	t.Run("without a pool nothing starts", func(t *testing.T) {
		m.StartPoolStatsCollection(context.Background())
		m.collectPoolStats(context.Background())
		assert.NotContains(t, collect(t, reader), MetricDBPoolConnectionsMax)
	})

	t.Run("samples on start", func(t *testing.T) {
		m.SetSQLDB(sqlDB)
		m.StartPoolStatsCollection(context.Background())
		m.Stop()
		m.Stop()

		data := collect(t, reader)
		require.Contains(t, data, MetricDBPoolConnectionsMax)
		assert.Equal(t, int64(1), total(data[MetricDBPoolConnectionsMax]))
		require.Contains(t, data, MetricDBPoolConnections)
		assert.Equal(t, int64(1), sumWhere(data[MetricDBPoolConnections], AttrDBState, "open"))
	})
}

func TestDetectOperation(t *testing.T) {
	tests := map[string]string{
		"  select 1":                        "SELECT",
		"INSERT INTO t VALUES (1)":          "INSERT",
		"update consignments SET notes = 1": "UPDATE",
		"DELETE FROM t":                     "DELETE",
		"PRAGMA foreign_keys":               "OTHER",
	}
	for sqlText, want := range tests {
		assert.Equal(t, want, detectOperation(sqlText), sqlText)
	}
}
