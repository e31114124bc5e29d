package catalog

import (
	"testing"

	"github.com/erp/consignment/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProduct(t *testing.T) {
	t.Run("creates product with valid inputs", func(t *testing.T) {
		product, err := NewProduct("sku-001", "Blusa Renda", decimal.NewFromInt(20), 10)
		require.NoError(t, err)

		assert.Equal(t, "SKU-001", product.Code)
		assert.Equal(t, "Blusa Renda", product.Name)
		assert.True(t, product.UnitPrice.Equal(decimal.NewFromInt(20)))
		assert.Equal(t, 10, product.OnHand)
		assert.True(t, product.IsActive())
		assert.Equal(t, 1, product.GetVersion())
	})

	t.Run("fails with empty code", func(t *testing.T) {
		_, err := NewProduct(" ", "Blusa", decimal.Zero, 0)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "code cannot be empty")
	})

	t.Run("fails with negative price", func(t *testing.T) {
		_, err := NewProduct("SKU", "Blusa", decimal.NewFromInt(-1), 0)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "cannot be negative")
	})

	t.Run("fails with negative stock", func(t *testing.T) {
		_, err := NewProduct("SKU", "Blusa", decimal.Zero, -1)
		require.Error(t, err)
	})
}

func TestProduct_Stock(t *testing.T) {
	newProduct := func(t *testing.T) *Product {
		p, err := NewProduct("SKU", "Saia", decimal.NewFromInt(35), 5)
		require.NoError(t, err)
		return p
	}

	t.Run("decrease within available stock", func(t *testing.T) {
		p := newProduct(t)
		require.NoError(t, p.DecreaseStock(5))
		assert.Equal(t, 0, p.OnHand)
		assert.Equal(t, 2, p.GetVersion())
	})

	t.Run("decrease beyond available stock names product and availability", func(t *testing.T) {
		p := newProduct(t)
		err := p.DecreaseStock(6)
		require.Error(t, err)
		assert.ErrorIs(t, err, shared.ErrInsufficientStock)
		assert.Contains(t, err.Error(), "Saia")
		assert.Contains(t, err.Error(), "Available: 5")
		assert.Equal(t, 5, p.OnHand)
	})

	t.Run("increase", func(t *testing.T) {
		p := newProduct(t)
		require.NoError(t, p.IncreaseStock(3))
		assert.Equal(t, 8, p.OnHand)
	})

	t.Run("rejects non-positive quantities", func(t *testing.T) {
		p := newProduct(t)
		assert.Error(t, p.IncreaseStock(0))
		assert.Error(t, p.DecreaseStock(-2))
	})
}
