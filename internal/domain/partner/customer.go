package partner

import (
	"context"
	"strings"
	"time"

	"github.com/erp/consignment/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CustomerStatus represents the status of a customer
type CustomerStatus string

const (
	CustomerStatusActive   CustomerStatus = "active"
	CustomerStatusInactive CustomerStatus = "inactive"
)

// CustomerType represents the type of customer
type CustomerType string

const (
	CustomerTypeWalkIn   CustomerType = "walk_in"  // Buys at the counter
	CustomerTypeReseller CustomerType = "reseller" // Takes goods on consignment
)

// IsValid checks if the customer type is valid
func (t CustomerType) IsValid() bool {
	switch t {
	case CustomerTypeWalkIn, CustomerTypeReseller:
		return true
	}
	return false
}

// String returns the string representation of CustomerType
func (t CustomerType) String() string {
	return string(t)
}

var maxCommissionPercent = decimal.NewFromInt(100)

// Customer represents a customer in the partner context
type Customer struct {
	shared.BaseAggregateRoot
	Name                     string
	Phone                    string
	Type                     CustomerType
	Status                   CustomerStatus
	DefaultCommissionPercent decimal.Decimal
}

// NewCustomer creates a new customer with required fields
func NewCustomer(name string, customerType CustomerType) (*Customer, error) {
	if strings.TrimSpace(name) == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Customer name cannot be empty")
	}
	if len(name) > 200 {
		return nil, shared.NewDomainError("INVALID_NAME", "Customer name cannot exceed 200 characters")
	}
	if !customerType.IsValid() {
		return nil, shared.NewDomainError("INVALID_TYPE", "Invalid customer type")
	}

	return &Customer{
		BaseAggregateRoot:        shared.NewBaseAggregateRoot(),
		Name:                     name,
		Type:                     customerType,
		Status:                   CustomerStatusActive,
		DefaultCommissionPercent: decimal.Zero,
	}, nil
}

// NewReseller creates a reseller with its default commission
func NewReseller(name string, commissionPercent decimal.Decimal) (*Customer, error) {
	c, err := NewCustomer(name, CustomerTypeReseller)
	if err != nil {
		return nil, err
	}
	if err := c.SetDefaultCommission(commissionPercent); err != nil {
		return nil, err
	}
	return c, nil
}

// SetDefaultCommission sets the commission suggested for new consignment lines
func (c *Customer) SetDefaultCommission(percent decimal.Decimal) error {
	if percent.IsNegative() || percent.GreaterThan(maxCommissionPercent) {
		return shared.NewDomainError("INVALID_COMMISSION", "Commission must be between 0 and 100")
	}
	c.DefaultCommissionPercent = percent
	c.UpdatedAt = time.Now()
	return nil
}

// IsReseller returns true if the customer may take goods on consignment
func (c *Customer) IsReseller() bool {
	return c.Type == CustomerTypeReseller
}

// IsActive returns true if the customer is active
func (c *Customer) IsActive() bool {
	return c.Status == CustomerStatusActive
}

// CustomerRepository loads and stores customers. Consignment workflows only
// read them.
type CustomerRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Customer, error)
	Save(ctx context.Context, customer *Customer) error
}
