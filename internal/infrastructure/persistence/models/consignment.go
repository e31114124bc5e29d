package models

import (
	"time"

	"github.com/erp/consignment/internal/domain/consignment"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ConsignmentModel is the persistence model for the Consignment aggregate root.
type ConsignmentModel struct {
	AggregateModel
	CustomerID      uuid.UUID          `gorm:"type:uuid;not null;index"`
	CustomerName    string             `gorm:"type:varchar(200);not null"`
	Status          consignment.Status `gorm:"type:varchar(20);not null;default:'OPEN';index"`
	SentAt          time.Time          `gorm:"not null;index"`
	ClosedAt        *time.Time
	LastSettledAt   *time.Time
	TotalSoldValue  decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	TotalCommission decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	TotalNet        decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Notes           string          `gorm:"type:text"`
	// Associations
	Lines []ConsignmentLineModel `gorm:"foreignKey:ConsignmentID;references:ID"`
}

// TableName returns the table name for GORM
func (ConsignmentModel) TableName() string {
	return "consignments"
}

// ToDomain converts the persistence model to a domain Consignment aggregate.
func (m *ConsignmentModel) ToDomain() *consignment.Consignment {
	c := &consignment.Consignment{
		BaseAggregateRoot: m.ToAggregateRoot(),
		CustomerID:        m.CustomerID,
		CustomerName:      m.CustomerName,
		Status:            m.Status,
		SentAt:            m.SentAt,
		ClosedAt:          m.ClosedAt,
		LastSettledAt:     m.LastSettledAt,
		TotalSoldValue:    m.TotalSoldValue,
		TotalCommission:   m.TotalCommission,
		TotalNet:          m.TotalNet,
		Notes:             m.Notes,
		Lines:             make([]consignment.Line, len(m.Lines)),
	}
	for i := range m.Lines {
		c.Lines[i] = *m.Lines[i].ToDomain()
	}
	return c
}

// FromDomain populates the persistence model from a domain Consignment aggregate.
func (m *ConsignmentModel) FromDomain(c *consignment.Consignment) {
	m.AggregateModel = aggregateModelOf(c.BaseAggregateRoot)
	m.CustomerID = c.CustomerID
	m.CustomerName = c.CustomerName
	m.Status = c.Status
	m.SentAt = c.SentAt
	m.ClosedAt = c.ClosedAt
	m.LastSettledAt = c.LastSettledAt
	m.TotalSoldValue = c.TotalSoldValue
	m.TotalCommission = c.TotalCommission
	m.TotalNet = c.TotalNet
	m.Notes = c.Notes
	m.Lines = make([]ConsignmentLineModel, len(c.Lines))
	for i := range c.Lines {
		m.Lines[i] = *ConsignmentLineModelFromDomain(&c.Lines[i])
	}
}

// ConsignmentModelFromDomain creates a new persistence model from a domain Consignment aggregate.
func ConsignmentModelFromDomain(c *consignment.Consignment) *ConsignmentModel {
	m := &ConsignmentModel{}
	m.FromDomain(c)
	return m
}

// ConsignmentLineModel is the persistence model for a consignment line.
type ConsignmentLineModel struct {
	BaseModel
	ConsignmentID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	Position          int             `gorm:"not null"`
	ProductID         uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductName       string          `gorm:"type:varchar(200);not null"`
	Sent              int             `gorm:"not null;check:chk_consignment_lines_sent,sent > 0"`
	Sold              int             `gorm:"not null;default:0"`
	Returned          int             `gorm:"not null;default:0"`
	UnitPrice         decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	CommissionPercent decimal.Decimal `gorm:"type:decimal(7,4);not null;default:0"`
}

// TableName returns the table name for GORM
func (ConsignmentLineModel) TableName() string {
	return "consignment_lines"
}

// ToDomain converts the persistence model to a domain Line.
func (m *ConsignmentLineModel) ToDomain() *consignment.Line {
	return &consignment.Line{
		ID:                m.ID,
		ConsignmentID:     m.ConsignmentID,
		Position:          m.Position,
		ProductID:         m.ProductID,
		ProductName:       m.ProductName,
		Sent:              m.Sent,
		Sold:              m.Sold,
		Returned:          m.Returned,
		UnitPrice:         m.UnitPrice,
		CommissionPercent: m.CommissionPercent,
		CreatedAt:         m.CreatedAt,
		UpdatedAt:         m.UpdatedAt,
	}
}

// ConsignmentLineModelFromDomain creates a new persistence model from a domain Line.
func ConsignmentLineModelFromDomain(l *consignment.Line) *ConsignmentLineModel {
	return &ConsignmentLineModel{
		BaseModel: BaseModel{
			ID:        l.ID,
			CreatedAt: l.CreatedAt,
			UpdatedAt: l.UpdatedAt,
		},
		ConsignmentID:     l.ConsignmentID,
		Position:          l.Position,
		ProductID:         l.ProductID,
		ProductName:       l.ProductName,
		Sent:              l.Sent,
		Sold:              l.Sold,
		Returned:          l.Returned,
		UnitPrice:         l.UnitPrice,
		CommissionPercent: l.CommissionPercent,
	}
}
