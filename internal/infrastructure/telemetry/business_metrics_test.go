package telemetry

import (
	"context"
	"errors"
	"testing"

	"github.com/erp/consignment/internal/domain/consignment"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

type fakeSummary struct {
	summary *consignment.Summary
	err     error
}

func (f *fakeSummary) Summary(context.Context) (*consignment.Summary, error) {
	return f.summary, f.err
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Aggregation {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	out := make(map[string]metricdata.Aggregation)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m.Data
		}
	}
	return out
}

func total(agg metricdata.Aggregation) int64 {
	var n int64
	switch a := agg.(type) {
	case metricdata.Sum[int64]:
		for _, dp := range a.DataPoints {
			n += dp.Value
		}
	case metricdata.Gauge[int64]:
		for _, dp := range a.DataPoints {
			n += dp.Value
		}
	}
	return n
}

func TestNewConsignmentMetrics_NilMeter(t *testing.T) {
	m, err := NewConsignmentMetrics(nil, nil, nil)
	require.Error(t, err)
	assert.Nil(t, m)
	assert.Equal(t, "NewConsignmentMetrics: meter cannot be nil", err.Error())
}

func TestConsignmentMetrics_NoopMeter(t *testing.T) {
	m, err := NewConsignmentMetrics(noop.NewMeterProvider().Meter("test"), &fakeSummary{}, nil)
	require.NoError(t, err)

	ctx := context.Background()
	m.ConsignmentCreated(ctx, 2, 5)
	m.SettlementRegistered(ctx, false, 0)
	m.ConsignmentClosed(ctx)
	m.Stop()
}

func TestConsignmentMetrics_Counters(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := NewMeterProviderWithReader(reader)
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	m, err := NewConsignmentMetrics(mp.Meter("test"), nil, nil)
	require.NoError(t, err)

	ctx := context.Background()
	m.ConsignmentCreated(ctx, 2, 5)
	m.ConsignmentCreated(ctx, 1, 3)
	m.SettlementRegistered(ctx, false, 1)
	m.SettlementRegistered(ctx, true, 2)
	m.ConsignmentClosed(ctx)

	data := collect(t, reader)
	assert.Equal(t, int64(2), total(data[MetricConsignmentsCreated]))
	assert.Equal(t, int64(8), total(data[MetricUnitsSent]))
	assert.Equal(t, int64(2), total(data[MetricSettlements]))
	assert.Equal(t, int64(3), total(data[MetricUnitsReturned]))
	assert.Equal(t, int64(1), total(data[MetricConsignmentsClosed]))

	settlements, ok := data[MetricSettlements].(metricdata.Sum[int64])
	require.True(t, ok)
	assert.Len(t, settlements.DataPoints, 2)

	_, hasGauge := data[MetricConsignmentsOpen]
	assert.False(t, hasGauge)
}

func TestConsignmentMetrics_Gauges(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := NewMeterProviderWithReader(reader)
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	source := &fakeSummary{summary: &consignment.Summary{
		OpenCount:        3,
		ActiveCount:      5,
		OutstandingValue: decimal.RequireFromString("60.50"),
		TotalSoldValue:   decimal.NewFromInt(100),
	}}
	m, err := NewConsignmentMetrics(mp.Meter("test"), source, nil)
	require.NoError(t, err)

	data := collect(t, reader)
	assert.Equal(t, int64(3), total(data[MetricConsignmentsOpen]))
	assert.Equal(t, int64(5), total(data[MetricConsignmentsActive]))
	assert.Equal(t, int64(6050), total(data[MetricOutstandingValueCents]))

	source.err = errors.New("db down")
	data = collect(t, reader)
	assert.Zero(t, total(data[MetricConsignmentsOpen]))

	m.Stop()
}
