package models

import (
	"github.com/erp/consignment/internal/domain/partner"
	"github.com/shopspring/decimal"
)

// CustomerModel is the persistence model for the Customer domain entity.
type CustomerModel struct {
	AggregateModel
	Name                     string                 `gorm:"type:varchar(200);not null"`
	Phone                    string                 `gorm:"type:varchar(50);index"`
	Type                     partner.CustomerType   `gorm:"type:varchar(20);not null;default:'walk_in'"`
	Status                   partner.CustomerStatus `gorm:"type:varchar(20);not null;default:'active'"`
	DefaultCommissionPercent decimal.Decimal        `gorm:"type:decimal(7,4);not null;default:0"`
}

// TableName returns the table name for GORM
func (CustomerModel) TableName() string {
	return "customers"
}

// ToDomain converts the persistence model to a domain Customer entity.
func (m *CustomerModel) ToDomain() *partner.Customer {
	return &partner.Customer{
		BaseAggregateRoot:        m.ToAggregateRoot(),
		Name:                     m.Name,
		Phone:                    m.Phone,
		Type:                     m.Type,
		Status:                   m.Status,
		DefaultCommissionPercent: m.DefaultCommissionPercent,
	}
}

// FromDomain populates the persistence model from a domain Customer entity.
func (m *CustomerModel) FromDomain(c *partner.Customer) {
	m.AggregateModel = aggregateModelOf(c.BaseAggregateRoot)
	m.Name = c.Name
	m.Phone = c.Phone
	m.Type = c.Type
	m.Status = c.Status
	m.DefaultCommissionPercent = c.DefaultCommissionPercent
}

// CustomerModelFromDomain creates a new persistence model from a domain Customer entity.
func CustomerModelFromDomain(c *partner.Customer) *CustomerModel {
	m := &CustomerModel{}
	m.FromDomain(c)
	return m
}
