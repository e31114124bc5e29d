package consignment

import (
	"github.com/erp/consignment/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Aggregate type constant
const AggregateTypeConsignment = "Consignment"

// Event type constants
const (
	EventTypeConsignmentCreated    = "ConsignmentCreated"
	EventTypeConsignmentLinesAdded = "ConsignmentLinesAdded"
	EventTypeConsignmentSettled    = "ConsignmentSettled"
	EventTypeConsignmentClosed     = "ConsignmentClosed"
)

// AllEventTypes lists every event the consignment aggregate raises
func AllEventTypes() []string {
	return []string{
		EventTypeConsignmentCreated,
		EventTypeConsignmentLinesAdded,
		EventTypeConsignmentSettled,
		EventTypeConsignmentClosed,
	}
}

// LineInfo represents line information for events
type LineInfo struct {
	LineID            uuid.UUID       `json:"line_id"`
	ProductID         uuid.UUID       `json:"product_id"`
	ProductName       string          `json:"product_name"`
	Sent              int             `json:"sent"`
	Sold              int             `json:"sold"`
	Returned          int             `json:"returned"`
	UnitPrice         decimal.Decimal `json:"unit_price"`
	CommissionPercent decimal.Decimal `json:"commission_percent"`
}

func toLineInfos(lines []Line) []LineInfo {
	infos := make([]LineInfo, len(lines))
	for i, l := range lines {
		infos[i] = LineInfo{
			LineID:            l.ID,
			ProductID:         l.ProductID,
			ProductName:       l.ProductName,
			Sent:              l.Sent,
			Sold:              l.Sold,
			Returned:          l.Returned,
			UnitPrice:         l.UnitPrice,
			CommissionPercent: l.CommissionPercent,
		}
	}
	return infos
}

// ConsignmentCreatedEvent is raised when goods are handed to a reseller
type ConsignmentCreatedEvent struct {
	shared.BaseDomainEvent
	ConsignmentID uuid.UUID  `json:"consignment_id"`
	CustomerID    uuid.UUID  `json:"customer_id"`
	CustomerName  string     `json:"customer_name"`
	Lines         []LineInfo `json:"lines"`
}

// NewConsignmentCreatedEvent creates a new ConsignmentCreatedEvent
func NewConsignmentCreatedEvent(c *Consignment) *ConsignmentCreatedEvent {
	return &ConsignmentCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeConsignmentCreated, AggregateTypeConsignment, c.ID),
		ConsignmentID:   c.ID,
		CustomerID:      c.CustomerID,
		CustomerName:    c.CustomerName,
		Lines:           toLineInfos(c.Lines),
	}
}

// ConsignmentLinesAddedEvent is raised when lines are appended before the first settlement
type ConsignmentLinesAddedEvent struct {
	shared.BaseDomainEvent
	ConsignmentID uuid.UUID  `json:"consignment_id"`
	Lines         []LineInfo `json:"lines"`
}

// NewConsignmentLinesAddedEvent creates a new ConsignmentLinesAddedEvent
func NewConsignmentLinesAddedEvent(c *Consignment, added []Line) *ConsignmentLinesAddedEvent {
	return &ConsignmentLinesAddedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeConsignmentLinesAdded, AggregateTypeConsignment, c.ID),
		ConsignmentID:   c.ID,
		Lines:           toLineInfos(added),
	}
}

// AdjustmentInfo represents a stock adjustment for events
type AdjustmentInfo struct {
	LineID    uuid.UUID `json:"line_id"`
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int       `json:"quantity"`
	Reason    string    `json:"reason"`
}

// ConsignmentSettledEvent is raised after every settlement, finalizing or not
type ConsignmentSettledEvent struct {
	shared.BaseDomainEvent
	ConsignmentID   uuid.UUID        `json:"consignment_id"`
	Status          string           `json:"status"`
	Updates         []LineUpdate     `json:"updates"`
	Adjustments     []AdjustmentInfo `json:"adjustments"`
	TotalSoldValue  decimal.Decimal  `json:"total_sold_value"`
	TotalCommission decimal.Decimal  `json:"total_commission"`
	TotalNet        decimal.Decimal  `json:"total_net"`
}

// NewConsignmentSettledEvent creates a new ConsignmentSettledEvent
func NewConsignmentSettledEvent(c *Consignment, updates []LineUpdate, adjustments []StockAdjustment) *ConsignmentSettledEvent {
	infos := make([]AdjustmentInfo, len(adjustments))
	for i, a := range adjustments {
		infos[i] = AdjustmentInfo{
			LineID:    a.LineID,
			ProductID: a.ProductID,
			Quantity:  a.Signed(),
			Reason:    string(a.Reason),
		}
	}
	return &ConsignmentSettledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeConsignmentSettled, AggregateTypeConsignment, c.ID),
		ConsignmentID:   c.ID,
		Status:          c.Status.String(),
		Updates:         append([]LineUpdate(nil), updates...),
		Adjustments:     infos,
		TotalSoldValue:  c.TotalSoldValue,
		TotalCommission: c.TotalCommission,
		TotalNet:        c.TotalNet,
	}
}

// ConsignmentClosedEvent is raised when a finalizing settlement closes the consignment
type ConsignmentClosedEvent struct {
	shared.BaseDomainEvent
	ConsignmentID   uuid.UUID       `json:"consignment_id"`
	CustomerID      uuid.UUID       `json:"customer_id"`
	TotalSoldValue  decimal.Decimal `json:"total_sold_value"`
	TotalCommission decimal.Decimal `json:"total_commission"`
	TotalNet        decimal.Decimal `json:"total_net"`
}

// NewConsignmentClosedEvent creates a new ConsignmentClosedEvent
func NewConsignmentClosedEvent(c *Consignment) *ConsignmentClosedEvent {
	return &ConsignmentClosedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeConsignmentClosed, AggregateTypeConsignment, c.ID),
		ConsignmentID:   c.ID,
		CustomerID:      c.CustomerID,
		TotalSoldValue:  c.TotalSoldValue,
		TotalCommission: c.TotalCommission,
		TotalNet:        c.TotalNet,
	}
}
