package telemetry

import (
	"context"

	"github.com/erp/consignment/internal/domain/consignment"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// Metric names
const (
	MetricConsignmentsCreated   = "consignment_created_total"
	MetricUnitsSent             = "consignment_units_sent_total"
	MetricSettlements           = "consignment_settlements_total"
	MetricUnitsReturned         = "consignment_units_returned_total"
	MetricConsignmentsClosed    = "consignment_closed_total"
	MetricConsignmentsOpen      = "consignment_open"
	MetricConsignmentsActive    = "consignment_active"
	MetricOutstandingValueCents = "consignment_outstanding_value_cents"
)

// AttrFinalize labels settlements by whether they closed the consignment
var AttrFinalize = attribute.Key("finalize")

// SummarySource reports the dashboard figures observed by the gauges
type SummarySource interface {
	Summary(ctx context.Context) (*consignment.Summary, error)
}

// ConsignmentMetrics records consignment workflow counters and observes
// open/active/outstanding gauges from a SummarySource.
type ConsignmentMetrics struct {
	logger *zap.Logger

	created   *Counter
	unitsSent *Counter
	settled   *Counter
	returned  *Counter
	closed    *Counter

	registration metric.Registration
}

// NewConsignmentMetrics creates the instruments. summary may be nil, in which
// case no gauges are registered.
func NewConsignmentMetrics(meter metric.Meter, summary SummarySource, logger *zap.Logger) (*ConsignmentMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &ConsignmentMetrics{logger: logger}

	var err error
	if m.created, err = NewCounter(meter, MetricConsignmentsCreated, "Consignments handed to resellers", "{consignments}"); err != nil {
		return nil, err
	}
	if m.unitsSent, err = NewCounter(meter, MetricUnitsSent, "Units sent out on consignment", "{units}"); err != nil {
		return nil, err
	}
	if m.settled, err = NewCounter(meter, MetricSettlements, "Settlement batches registered", "{settlements}"); err != nil {
		return nil, err
	}
	if m.returned, err = NewCounter(meter, MetricUnitsReturned, "Units returned to stock by settlements", "{units}"); err != nil {
		return nil, err
	}
	if m.closed, err = NewCounter(meter, MetricConsignmentsClosed, "Consignments closed", "{consignments}"); err != nil {
		return nil, err
	}

	if summary != nil {
		if err := m.registerGauges(meter, summary); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *ConsignmentMetrics) registerGauges(meter metric.Meter, summary SummarySource) error {
	open, err := meter.Int64ObservableGauge(MetricConsignmentsOpen,
		metric.WithDescription("Consignments with no settlement yet"), metric.WithUnit("{consignments}"))
	if err != nil {
		return err
	}
	active, err := meter.Int64ObservableGauge(MetricConsignmentsActive,
		metric.WithDescription("Consignments not yet closed"), metric.WithUnit("{consignments}"))
	if err != nil {
		return err
	}
	outstanding, err := meter.Int64ObservableGauge(MetricOutstandingValueCents,
		metric.WithDescription("Sale value of units still with resellers"), metric.WithUnit("{cents}"))
	if err != nil {
		return err
	}

	m.registration, err = meter.RegisterCallback(func(ctx context.Context, o metric.Observer) error {
		s, err := summary.Summary(ctx)
		if err != nil {
			m.logger.Warn("failed to collect consignment summary", zap.Error(err))
			return nil
		}
		o.ObserveInt64(open, s.OpenCount)
		o.ObserveInt64(active, s.ActiveCount)
		o.ObserveInt64(outstanding, s.OutstandingValue.Shift(2).Round(0).IntPart())
		return nil
	}, open, active, outstanding)
	return err
}

// ConsignmentCreated counts a new consignment and its units
func (m *ConsignmentMetrics) ConsignmentCreated(ctx context.Context, lines, units int) {
	m.created.Inc(ctx)
	m.unitsSent.Add(ctx, int64(units))
}

// SettlementRegistered counts a settlement batch and the units it returned
func (m *ConsignmentMetrics) SettlementRegistered(ctx context.Context, finalize bool, returnedUnits int) {
	m.settled.Inc(ctx, AttrFinalize.Bool(finalize))
	if returnedUnits > 0 {
		m.returned.Add(ctx, int64(returnedUnits))
	}
}

// ConsignmentClosed counts a closed consignment
func (m *ConsignmentMetrics) ConsignmentClosed(ctx context.Context) {
	m.closed.Inc(ctx)
}

// Stop unregisters the gauge callback.
func (m *ConsignmentMetrics) Stop() {
	if m.registration != nil {
		if err := m.registration.Unregister(); err != nil {
			m.logger.Warn("failed to unregister metrics callback", zap.Error(err))
		}
	}
}

// ErrMeterNil is returned when meter is nil.
var ErrMeterNil = &MetricsError{Op: "NewConsignmentMetrics", Err: "meter cannot be nil"}

// MetricsError represents a metrics-related error.
type MetricsError struct {
	Op  string
	Err string
}

func (e *MetricsError) Error() string {
	return e.Op + ": " + e.Err
}
