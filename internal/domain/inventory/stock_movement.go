package inventory

import (
	"time"

	"github.com/erp/consignment/internal/domain/shared"
	"github.com/google/uuid"
)

// Direction tells whether a movement put stock on hand or took it out
type Direction string

const (
	DirectionIn  Direction = "IN"
	DirectionOut Direction = "OUT"
)

// String returns the string representation of Direction
func (d Direction) String() string {
	return string(d)
}

// IsValid returns true if the direction is valid
func (d Direction) IsValid() bool {
	return d == DirectionIn || d == DirectionOut
}

// Reason classifies why the stock moved
type Reason string

const (
	// ReasonConsignmentOut is stock handed to a reseller
	ReasonConsignmentOut Reason = "CONSIGNMENT_OUT"
	// ReasonConsignmentReturn is stock reported back by a settlement
	ReasonConsignmentReturn Reason = "CONSIGNMENT_RETURN"
	// ReasonReturnCorrection undoes part of a previously reported return
	ReasonReturnCorrection Reason = "RETURN_CORRECTION"
	// ReasonConsignmentClose is unsold stock returned when a consignment closes
	ReasonConsignmentClose Reason = "CONSIGNMENT_CLOSE"
	// ReasonManualAdjustment is any adjustment made outside a consignment
	ReasonManualAdjustment Reason = "MANUAL_ADJUSTMENT"
)

// IsValid returns true if the reason is valid
func (r Reason) IsValid() bool {
	switch r {
	case ReasonConsignmentOut,
		ReasonConsignmentReturn,
		ReasonReturnCorrection,
		ReasonConsignmentClose,
		ReasonManualAdjustment:
		return true
	}
	return false
}

// Direction returns the direction a movement with this reason normally has
func (r Reason) Direction() Direction {
	switch r {
	case ReasonConsignmentOut, ReasonReturnCorrection:
		return DirectionOut
	}
	return DirectionIn
}

// SourceType represents the source document type for a movement
type SourceType string

const (
	SourceTypeConsignment      SourceType = "CONSIGNMENT"
	SourceTypeManualAdjustment SourceType = "MANUAL_ADJUSTMENT"
)

// StockMovement is an immutable audit record of a change to a product's
// on-hand quantity. Corrections are new movements, never edits.
type StockMovement struct {
	shared.BaseEntity
	ProductID     uuid.UUID
	Direction     Direction
	Quantity      int // always positive, sign given by Direction
	Reason        Reason
	Note          string
	SourceType    SourceType
	SourceID      string
	SourceLineID  string
	BalanceBefore int
	BalanceAfter  int
	OccurredAt    time.Time
}

// NewStockMovement creates a new stock movement
func NewStockMovement(
	productID uuid.UUID,
	reason Reason,
	quantity int,
	balanceBefore int,
	sourceType SourceType,
	sourceID string,
	note string,
) (*StockMovement, error) {
	if productID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PRODUCT", "Product ID cannot be empty")
	}
	if !reason.IsValid() {
		return nil, shared.NewDomainError("INVALID_REASON", "Invalid movement reason")
	}
	if quantity <= 0 {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}
	if sourceID == "" {
		return nil, shared.NewDomainError("INVALID_SOURCE_ID", "Source ID cannot be empty")
	}

	direction := reason.Direction()
	balanceAfter := balanceBefore + quantity
	if direction == DirectionOut {
		balanceAfter = balanceBefore - quantity
	}

	return &StockMovement{
		BaseEntity:    shared.NewBaseEntity(),
		ProductID:     productID,
		Direction:     direction,
		Quantity:      quantity,
		Reason:        reason,
		Note:          note,
		SourceType:    sourceType,
		SourceID:      sourceID,
		BalanceBefore: balanceBefore,
		BalanceAfter:  balanceAfter,
		OccurredAt:    time.Now(),
	}, nil
}

// WithSourceLineID sets the source line ID for the movement
func (m *StockMovement) WithSourceLineID(lineID string) *StockMovement {
	m.SourceLineID = lineID
	return m
}

// WithOccurredAt sets when the movement happened
func (m *StockMovement) WithOccurredAt(at time.Time) *StockMovement {
	m.OccurredAt = at
	return m
}

// SignedQuantity returns the quantity with sign based on direction
func (m *StockMovement) SignedQuantity() int {
	if m.Direction == DirectionOut {
		return -m.Quantity
	}
	return m.Quantity
}
