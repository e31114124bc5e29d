package models

import (
	"github.com/erp/consignment/internal/domain/catalog"
	"github.com/shopspring/decimal"
)

// ProductModel is the persistence model for the Product aggregate root.
type ProductModel struct {
	AggregateModel
	Code      string                `gorm:"type:varchar(50);not null;uniqueIndex:idx_products_code"`
	Name      string                `gorm:"type:varchar(200);not null"`
	UnitPrice decimal.Decimal       `gorm:"type:decimal(18,4);not null;default:0"`
	OnHand    int                   `gorm:"not null;default:0;check:chk_products_on_hand,on_hand >= 0"`
	Status    catalog.ProductStatus `gorm:"type:varchar(20);not null;default:'active'"`
}

// TableName returns the table name for GORM
func (ProductModel) TableName() string {
	return "products"
}

// ToDomain converts the persistence model to a domain Product entity.
func (m *ProductModel) ToDomain() *catalog.Product {
	return &catalog.Product{
		BaseAggregateRoot: m.ToAggregateRoot(),
		Code:              m.Code,
		Name:              m.Name,
		UnitPrice:         m.UnitPrice,
		OnHand:            m.OnHand,
		Status:            m.Status,
	}
}

// FromDomain populates the persistence model from a domain Product entity.
func (m *ProductModel) FromDomain(p *catalog.Product) {
	m.AggregateModel = aggregateModelOf(p.BaseAggregateRoot)
	m.Code = p.Code
	m.Name = p.Name
	m.UnitPrice = p.UnitPrice
	m.OnHand = p.OnHand
	m.Status = p.Status
}

// ProductModelFromDomain creates a new persistence model from a domain Product entity.
func ProductModelFromDomain(p *catalog.Product) *ProductModel {
	m := &ProductModel{}
	m.FromDomain(p)
	return m
}
