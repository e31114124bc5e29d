package models

import (
	"time"

	"github.com/erp/consignment/internal/domain/inventory"
	"github.com/erp/consignment/internal/domain/shared"
	"github.com/google/uuid"
)

// StockMovementModel is the persistence model for the append-only movement log.
type StockMovementModel struct {
	ID            uuid.UUID            `gorm:"type:uuid;primary_key"`
	ProductID     uuid.UUID            `gorm:"type:uuid;not null;index:idx_stock_movements_product_time,priority:1"`
	Direction     inventory.Direction  `gorm:"type:varchar(3);not null"`
	Quantity      int                  `gorm:"not null"`
	Reason        inventory.Reason     `gorm:"type:varchar(30);not null"`
	Note          string               `gorm:"type:varchar(255)"`
	SourceType    inventory.SourceType `gorm:"type:varchar(30);not null;index:idx_stock_movements_source,priority:1"`
	SourceID      string               `gorm:"type:varchar(64);not null;index:idx_stock_movements_source,priority:2"`
	SourceLineID  string               `gorm:"type:varchar(64)"`
	BalanceBefore int                  `gorm:"not null"`
	BalanceAfter  int                  `gorm:"not null"`
	OccurredAt    time.Time            `gorm:"not null;index:idx_stock_movements_product_time,priority:2"`
	CreatedAt     time.Time            `gorm:"not null"`
}

// TableName returns the table name for GORM
func (StockMovementModel) TableName() string {
	return "stock_movements"
}

// ToDomain converts the persistence model to a domain StockMovement.
func (m *StockMovementModel) ToDomain() *inventory.StockMovement {
	return &inventory.StockMovement{
		BaseEntity: shared.BaseEntity{
			ID:        m.ID,
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.CreatedAt,
		},
		ProductID:     m.ProductID,
		Direction:     m.Direction,
		Quantity:      m.Quantity,
		Reason:        m.Reason,
		Note:          m.Note,
		SourceType:    m.SourceType,
		SourceID:      m.SourceID,
		SourceLineID:  m.SourceLineID,
		BalanceBefore: m.BalanceBefore,
		BalanceAfter:  m.BalanceAfter,
		OccurredAt:    m.OccurredAt,
	}
}

// StockMovementModelFromDomain creates a new persistence model from a domain StockMovement.
func StockMovementModelFromDomain(s *inventory.StockMovement) *StockMovementModel {
	return &StockMovementModel{
		ID:            s.ID,
		ProductID:     s.ProductID,
		Direction:     s.Direction,
		Quantity:      s.Quantity,
		Reason:        s.Reason,
		Note:          s.Note,
		SourceType:    s.SourceType,
		SourceID:      s.SourceID,
		SourceLineID:  s.SourceLineID,
		BalanceBefore: s.BalanceBefore,
		BalanceAfter:  s.BalanceAfter,
		OccurredAt:    s.OccurredAt,
		CreatedAt:     s.CreatedAt,
	}
}

// AllModels lists every model for AutoMigrate in tests and local sqlite runs.
func AllModels() []any {
	return []any{
		&ProductModel{},
		&CustomerModel{},
		&ConsignmentModel{},
		&ConsignmentLineModel{},
		&StockMovementModel{},
	}
}
