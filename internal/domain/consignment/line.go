package consignment

import (
	"time"

	"github.com/erp/consignment/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	hundred              = decimal.NewFromInt(100)
	maxCommissionPercent = hundred
)

// Line is one product handed over in a consignment.
// Sent, UnitPrice and CommissionPercent are fixed at creation; Sold and
// Returned are overwritten by every settlement and always satisfy
// Sold + Returned <= Sent.
type Line struct {
	ID                uuid.UUID
	ConsignmentID     uuid.UUID
	Position          int // 0-based order within the consignment, never reused
	ProductID         uuid.UUID
	ProductName       string
	Sent              int
	Sold              int
	Returned          int
	UnitPrice         decimal.Decimal
	CommissionPercent decimal.Decimal
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// LineSpec describes a line to be created
type LineSpec struct {
	ProductID         uuid.UUID
	ProductName       string
	Quantity          int
	UnitPrice         decimal.Decimal
	CommissionPercent decimal.Decimal
}

// NewLine creates a new consignment line with nothing sold or returned
func NewLine(consignmentID uuid.UUID, spec LineSpec) (*Line, error) {
	if spec.ProductID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PRODUCT", "Product ID cannot be empty")
	}
	if spec.Quantity <= 0 {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}
	if spec.UnitPrice.IsNegative() {
		return nil, shared.NewDomainError("INVALID_PRICE", "Unit price cannot be negative")
	}
	if spec.CommissionPercent.IsNegative() || spec.CommissionPercent.GreaterThan(maxCommissionPercent) {
		return nil, shared.NewDomainError("INVALID_COMMISSION", "Commission must be between 0 and 100")
	}

	now := time.Now()
	return &Line{
		ID:                uuid.New(),
		ConsignmentID:     consignmentID,
		ProductID:         spec.ProductID,
		ProductName:       spec.ProductName,
		Sent:              spec.Quantity,
		UnitPrice:         spec.UnitPrice,
		CommissionPercent: spec.CommissionPercent,
		CreatedAt:         now,
		UpdatedAt:         now,
	}, nil
}

// Remaining returns the units still with the reseller
func (l *Line) Remaining() int {
	return l.Sent - l.Sold - l.Returned
}

// SoldValue returns sold * unit_price
func (l *Line) SoldValue() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Sold)))
}

// CommissionValue returns sold_value * commission_percent / 100
func (l *Line) CommissionValue() decimal.Decimal {
	return l.SoldValue().Mul(l.CommissionPercent).Div(hundred)
}

// OutstandingValue returns the sale value of the units not yet accounted for
func (l *Line) OutstandingValue() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Remaining())))
}

// IsSettled reports whether every sent unit is accounted for
func (l *Line) IsSettled() bool {
	return l.Sold+l.Returned == l.Sent
}
