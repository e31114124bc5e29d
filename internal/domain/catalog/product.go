package catalog

import (
	"fmt"
	"strings"
	"time"

	"github.com/erp/consignment/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// ProductStatus represents the status of a product
type ProductStatus string

const (
	ProductStatusActive   ProductStatus = "active"
	ProductStatusInactive ProductStatus = "inactive"
)

// Product is a sellable item with a sale price and a mutable on-hand counter.
// The counter is shared by consignment, point-of-sale and manual adjustments,
// so every change goes through DecreaseStock/IncreaseStock.
type Product struct {
	shared.BaseAggregateRoot
	Code      string
	Name      string
	UnitPrice decimal.Decimal
	OnHand    int
	Status    ProductStatus
}

// NewProduct creates a new product
func NewProduct(code, name string, unitPrice decimal.Decimal, onHand int) (*Product, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, shared.NewDomainError("INVALID_CODE", "Product code cannot be empty")
	}
	if len(code) > 50 {
		return nil, shared.NewDomainError("INVALID_CODE", "Product code cannot exceed 50 characters")
	}
	if strings.TrimSpace(name) == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Product name cannot be empty")
	}
	if unitPrice.IsNegative() {
		return nil, shared.NewDomainError("INVALID_PRICE", "Unit price cannot be negative")
	}
	if onHand < 0 {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "On-hand quantity cannot be negative")
	}

	return &Product{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Code:              strings.ToUpper(code),
		Name:              name,
		UnitPrice:         unitPrice,
		OnHand:            onHand,
		Status:            ProductStatusActive,
	}, nil
}

// HasStock reports whether quantity units can be taken out
func (p *Product) HasStock(quantity int) bool {
	return quantity <= p.OnHand
}

// DecreaseStock takes quantity units out of the on-hand counter
func (p *Product) DecreaseStock(quantity int) error {
	if quantity <= 0 {
		return shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}
	if !p.HasStock(quantity) {
		return shared.NewDomainError(shared.CodeInsufficientStock,
			fmt.Sprintf("Insufficient stock for product %s. Available: %d", p.Name, p.OnHand))
	}
	p.OnHand -= quantity
	p.UpdatedAt = time.Now()
	p.IncrementVersion()
	return nil
}

// IncreaseStock puts quantity units back on hand
func (p *Product) IncreaseStock(quantity int) error {
	if quantity <= 0 {
		return shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}
	p.OnHand += quantity
	p.UpdatedAt = time.Now()
	p.IncrementVersion()
	return nil
}

// SetUnitPrice changes the sale price. Consignment lines keep the price they
// were created with.
func (p *Product) SetUnitPrice(price decimal.Decimal) error {
	if price.IsNegative() {
		return shared.NewDomainError("INVALID_PRICE", "Unit price cannot be negative")
	}
	p.UnitPrice = price
	p.UpdatedAt = time.Now()
	p.IncrementVersion()
	return nil
}

// IsActive returns true if the product is active
func (p *Product) IsActive() bool {
	return p.Status == ProductStatusActive
}
