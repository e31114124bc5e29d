package persistence

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/erp/consignment/internal/domain/partner"
	"github.com/erp/consignment/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestGormCustomerRepository_FindByID(t *testing.T) {
	t.Run("maps the stored row", func(t *testing.T) {
		gormDB, mock, mockDB := newMockGormDB(t)
		defer mockDB.Close()
		repo := NewGormCustomerRepository(gormDB)

		customerID := uuid.New()
		rows := sqlmock.NewRows([]string{"id", "name", "phone", "type", "status", "default_commission_percent", "version"}).
			AddRow(customerID.String(), "Maria Revenda", "+55 11 99999-0000", "reseller", "active", "15", 3)
		mock.ExpectQuery(`SELECT \* FROM "customers" WHERE id = \$1 LIMIT \$2`).
			WithArgs(customerID, 1).
			WillReturnRows(rows)

		customer, err := repo.FindByID(context.Background(), customerID)
		require.NoError(t, err)
		assert.Equal(t, customerID, customer.ID)
		assert.Equal(t, "Maria Revenda", customer.Name)
		assert.True(t, customer.IsReseller())
		assert.True(t, decimal.NewFromInt(15).Equal(customer.DefaultCommissionPercent))
		assert.Equal(t, 3, customer.Version)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing row is not found", func(t *testing.T) {
		gormDB, mock, mockDB := newMockGormDB(t)
		defer mockDB.Close()
		repo := NewGormCustomerRepository(gormDB)

		customerID := uuid.New()
		mock.ExpectQuery(`SELECT \* FROM "customers" WHERE id = \$1 LIMIT \$2`).
			WithArgs(customerID, 1).
			WillReturnError(gorm.ErrRecordNotFound)

		customer, err := repo.FindByID(context.Background(), customerID)
		assert.Nil(t, customer)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("driver errors pass through", func(t *testing.T) {
		gormDB, mock, mockDB := newMockGormDB(t)
		defer mockDB.Close()
		repo := NewGormCustomerRepository(gormDB)

		mock.ExpectQuery(`SELECT \* FROM "customers"`).
			WillReturnError(assert.AnError)

		_, err := repo.FindByID(context.Background(), uuid.New())
		assert.ErrorIs(t, err, assert.AnError)
	})
}

func TestGormCustomerRepository_Save(t *testing.T) {
	db := newSQLiteDB(t)
	repo := NewGormCustomerRepository(db)
	ctx := context.Background()

	customer, err := partner.NewCustomer("Balcao", partner.CustomerTypeWalkIn)
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, customer))

	require.NoError(t, customer.SetDefaultCommission(decimal.NewFromInt(10)))
	require.NoError(t, repo.Save(ctx, customer))

	loaded, err := repo.FindByID(ctx, customer.ID)
	require.NoError(t, err)
	assert.False(t, loaded.IsReseller())
	assert.True(t, decimal.NewFromInt(10).Equal(loaded.DefaultCommissionPercent))
}
