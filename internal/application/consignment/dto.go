package consignment

import (
	"time"

	"github.com/erp/consignment/internal/domain/consignment"
	"github.com/erp/consignment/internal/domain/inventory"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ==================== Request DTOs ====================

// CreateConsignmentRequest represents a request to hand goods to a reseller
type CreateConsignmentRequest struct {
	CustomerID uuid.UUID         `json:"customer_id" binding:"required"`
	Lines      []CreateLineInput `json:"lines" binding:"required,min=1,dive"`
	Notes      string            `json:"notes" binding:"max=2000"`
}

// CreateLineInput represents one product in a create or add-lines request.
// UnitPrice defaults to the product's sale price and CommissionPercent to the
// customer's default commission.
type CreateLineInput struct {
	ProductID         uuid.UUID        `json:"product_id" binding:"required"`
	Quantity          int              `json:"quantity" binding:"required,min=1"`
	UnitPrice         *decimal.Decimal `json:"unit_price"`
	CommissionPercent *decimal.Decimal `json:"commission_percent"`
}

// AddLinesRequest represents a request to append lines before the first settlement
type AddLinesRequest struct {
	Lines []CreateLineInput `json:"lines" binding:"required,min=1,dive"`
}

// RegisterSettlementRequest represents a settlement ("acerto") batch
type RegisterSettlementRequest struct {
	Lines          []SettlementLineInput `json:"lines" binding:"dive"`
	Finalize       bool                  `json:"finalize"`
	IdempotencyKey string                `json:"-"`
}

// SettlementLineInput carries the absolute sold and returned counts for a line
type SettlementLineInput struct {
	LineID   uuid.UUID `json:"line_id" binding:"required"`
	Sold     int       `json:"sold" binding:"min=0"`
	Returned int       `json:"returned" binding:"min=0"`
}

// ListFilter represents filter options for the consignment list
type ListFilter struct {
	Status     *string    `form:"status" binding:"omitempty,oneof=OPEN PARTIAL CLOSED"`
	CustomerID *uuid.UUID `form:"customer_id"`
	Page       int        `form:"page" binding:"omitempty,min=1"`
	PageSize   int        `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy    string     `form:"order_by" binding:"omitempty,oneof=sent_at closed_at total_sold_value customer_name"`
	OrderDir   string     `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// MovementFilter represents paging for a product's movement log
type MovementFilter struct {
	Page     int `form:"page" binding:"omitempty,min=1"`
	PageSize int `form:"page_size" binding:"omitempty,min=1,max=200"`
}

// ==================== Response DTOs ====================

// ConsignmentResponse represents a consignment with its lines
type ConsignmentResponse struct {
	ID               uuid.UUID       `json:"id"`
	Reference        string          `json:"reference"`
	CustomerID       uuid.UUID       `json:"customer_id"`
	CustomerName     string          `json:"customer_name"`
	Status           string          `json:"status"`
	SentAt           time.Time       `json:"sent_at"`
	ClosedAt         *time.Time      `json:"closed_at,omitempty"`
	LastSettledAt    *time.Time      `json:"last_settled_at,omitempty"`
	Lines            []LineResponse  `json:"lines"`
	TotalSent        int             `json:"total_sent"`
	TotalSoldValue   decimal.Decimal `json:"total_sold_value"`
	TotalCommission  decimal.Decimal `json:"total_commission"`
	TotalNet         decimal.Decimal `json:"total_net"`
	OutstandingValue decimal.Decimal `json:"outstanding_value"`
	Notes            string          `json:"notes"`
	Version          int             `json:"version"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// LineResponse represents a consignment line in API responses
type LineResponse struct {
	ID                uuid.UUID       `json:"id"`
	Position          int             `json:"position"`
	ProductID         uuid.UUID       `json:"product_id"`
	ProductName       string          `json:"product_name"`
	Sent              int             `json:"sent"`
	Sold              int             `json:"sold"`
	Returned          int             `json:"returned"`
	Remaining         int             `json:"remaining"`
	UnitPrice         decimal.Decimal `json:"unit_price"`
	CommissionPercent decimal.Decimal `json:"commission_percent"`
	SoldValue         decimal.Decimal `json:"sold_value"`
	CommissionValue   decimal.Decimal `json:"commission_value"`
}

// ConsignmentListItemResponse represents a consignment in list responses
type ConsignmentListItemResponse struct {
	ID              uuid.UUID       `json:"id"`
	Reference       string          `json:"reference"`
	CustomerID      uuid.UUID       `json:"customer_id"`
	CustomerName    string          `json:"customer_name"`
	Status          string          `json:"status"`
	SentAt          time.Time       `json:"sent_at"`
	ClosedAt        *time.Time      `json:"closed_at,omitempty"`
	LineCount       int             `json:"line_count"`
	TotalSent       int             `json:"total_sent"`
	TotalSoldValue  decimal.Decimal `json:"total_sold_value"`
	TotalCommission decimal.Decimal `json:"total_commission"`
	TotalNet        decimal.Decimal `json:"total_net"`
}

// SummaryResponse represents the consignment dashboard figures
type SummaryResponse struct {
	OpenCount        int64           `json:"open_count"`
	ActiveCount      int64           `json:"active_count"`
	OutstandingValue decimal.Decimal `json:"outstanding_value"`
	TotalSoldValue   decimal.Decimal `json:"total_sold_value"`
}

// MovementResponse represents a stock movement in API responses
type MovementResponse struct {
	ID            uuid.UUID `json:"id"`
	ProductID     uuid.UUID `json:"product_id"`
	Direction     string    `json:"direction"`
	Quantity      int       `json:"quantity"`
	Reason        string    `json:"reason"`
	Note          string    `json:"note"`
	SourceType    string    `json:"source_type"`
	SourceID      string    `json:"source_id"`
	SourceLineID  string    `json:"source_line_id,omitempty"`
	BalanceBefore int       `json:"balance_before"`
	BalanceAfter  int       `json:"balance_after"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// ==================== Converters ====================

// ToConsignmentResponse converts a domain consignment to a response DTO
func ToConsignmentResponse(c *consignment.Consignment) ConsignmentResponse {
	lines := make([]LineResponse, len(c.Lines))
	for i := range c.Lines {
		lines[i] = ToLineResponse(&c.Lines[i])
	}

	return ConsignmentResponse{
		ID:               c.ID,
		Reference:        c.Reference(),
		CustomerID:       c.CustomerID,
		CustomerName:     c.CustomerName,
		Status:           c.Status.String(),
		SentAt:           c.SentAt,
		ClosedAt:         c.ClosedAt,
		LastSettledAt:    c.LastSettledAt,
		Lines:            lines,
		TotalSent:        c.TotalSent(),
		TotalSoldValue:   c.TotalSoldValue,
		TotalCommission:  c.TotalCommission,
		TotalNet:         c.TotalNet,
		OutstandingValue: c.OutstandingValue(),
		Notes:            c.Notes,
		Version:          c.Version,
		CreatedAt:        c.CreatedAt,
		UpdatedAt:        c.UpdatedAt,
	}
}

// ToLineResponse converts a domain line to a response DTO
func ToLineResponse(l *consignment.Line) LineResponse {
	return LineResponse{
		ID:                l.ID,
		Position:          l.Position,
		ProductID:         l.ProductID,
		ProductName:       l.ProductName,
		Sent:              l.Sent,
		Sold:              l.Sold,
		Returned:          l.Returned,
		Remaining:         l.Remaining(),
		UnitPrice:         l.UnitPrice,
		CommissionPercent: l.CommissionPercent,
		SoldValue:         l.SoldValue(),
		CommissionValue:   l.CommissionValue(),
	}
}

// ToConsignmentListItemResponse converts a domain consignment to a list item DTO
func ToConsignmentListItemResponse(c *consignment.Consignment) ConsignmentListItemResponse {
	return ConsignmentListItemResponse{
		ID:              c.ID,
		Reference:       c.Reference(),
		CustomerID:      c.CustomerID,
		CustomerName:    c.CustomerName,
		Status:          c.Status.String(),
		SentAt:          c.SentAt,
		ClosedAt:        c.ClosedAt,
		LineCount:       len(c.Lines),
		TotalSent:       c.TotalSent(),
		TotalSoldValue:  c.TotalSoldValue,
		TotalCommission: c.TotalCommission,
		TotalNet:        c.TotalNet,
	}
}

// ToMovementResponse converts a stock movement to a response DTO
func ToMovementResponse(m *inventory.StockMovement) MovementResponse {
	return MovementResponse{
		ID:            m.ID,
		ProductID:     m.ProductID,
		Direction:     m.Direction.String(),
		Quantity:      m.Quantity,
		Reason:        string(m.Reason),
		Note:          m.Note,
		SourceType:    string(m.SourceType),
		SourceID:      m.SourceID,
		SourceLineID:  m.SourceLineID,
		BalanceBefore: m.BalanceBefore,
		BalanceAfter:  m.BalanceAfter,
		OccurredAt:    m.OccurredAt,
	}
}
