package persistence

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/erp/consignment/internal/domain/consignment"
	"github.com/erp/consignment/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newStoredConsignment(t *testing.T, db *gorm.DB, customerName string, quantities ...int) *consignment.Consignment {
	t.Helper()
	specs := make([]consignment.LineSpec, len(quantities))
	for i, q := range quantities {
		specs[i] = consignment.LineSpec{
			ProductID:         uuid.New(),
			ProductName:       "Item",
			Quantity:          q,
			UnitPrice:         decimal.NewFromInt(10),
			CommissionPercent: decimal.NewFromInt(20),
		}
	}
	c, err := consignment.NewConsignment(uuid.New(), customerName, "", specs)
	require.NoError(t, err)
	require.NoError(t, NewGormConsignmentRepository(db).Save(context.Background(), c))
	return c
}

func TestGormConsignmentRepository_SaveAndFind(t *testing.T) {
	db := newSQLiteDB(t)
	repo := NewGormConsignmentRepository(db)
	ctx := context.Background()

	c := newStoredConsignment(t, db, "Ana", 5, 3)

	loaded, err := repo.FindByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, consignment.StatusOpen, loaded.Status)
	assert.Equal(t, "Ana", loaded.CustomerName)
	assert.Equal(t, 1, loaded.Version)
	require.Len(t, loaded.Lines, 2)
	assert.Equal(t, c.Lines[0].ID, loaded.Lines[0].ID)
	assert.Equal(t, 5, loaded.Lines[0].Sent)
	assert.Equal(t, c.Lines[1].ID, loaded.Lines[1].ID)
	assert.Empty(t, loaded.GetDomainEvents())

	_, err = repo.FindByIDForUpdate(ctx, uuid.New())
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestGormConsignmentRepository_LineOrder(t *testing.T) {
	db := newSQLiteDB(t)
	repo := NewGormConsignmentRepository(db)
	ctx := context.Background()

	quantities := make([]int, 25)
	for i := range quantities {
		quantities[i] = i + 1
	}
	specs := make([]consignment.LineSpec, len(quantities))
	for i, q := range quantities {
		specs[i] = consignment.LineSpec{
			ProductID:   uuid.New(),
			ProductName: fmt.Sprintf("Item %02d", i),
			Quantity:    q,
			UnitPrice:   decimal.NewFromInt(10),
		}
	}
	c, err := consignment.NewConsignment(uuid.New(), "Ana", "", specs)
	require.NoError(t, err)
	// one insert statement stamps every row with the same instant
	stamp := time.Now().Truncate(time.Second)
	for i := range c.Lines {
		c.Lines[i].CreatedAt = stamp
		c.Lines[i].UpdatedAt = stamp
	}
	require.NoError(t, repo.Save(ctx, c))

	loaded, err := repo.FindByID(ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Lines, 25)
	for i, l := range loaded.Lines {
		assert.Equal(t, c.Lines[i].ID, l.ID, "line %d", i)
		assert.Equal(t, i, l.Position)
		assert.Equal(t, i+1, l.Sent)
	}

	added, err := loaded.AddLines([]consignment.LineSpec{
		{ProductID: uuid.New(), ProductName: "Cinto", Quantity: 2, UnitPrice: decimal.NewFromInt(7)},
		{ProductID: uuid.New(), ProductName: "Bolsa", Quantity: 1, UnitPrice: decimal.NewFromInt(40)},
	})
	require.NoError(t, err)
	for i := range loaded.Lines {
		loaded.Lines[i].CreatedAt = stamp
	}
	require.NoError(t, repo.SaveWithLock(ctx, loaded))

	all, err := repo.FindAll(ctx, consignment.Filter{})
	require.NoError(t, err)
	require.Len(t, all, 1)
	require.Len(t, all[0].Lines, 27)
	assert.Equal(t, added[0].ID, all[0].Lines[25].ID)
	assert.Equal(t, added[1].ID, all[0].Lines[26].ID)
	assert.Equal(t, 26, all[0].Lines[26].Position)
	assert.Equal(t, c.Lines[0].ID, all[0].Lines[0].ID)
}

func TestGormConsignmentRepository_SaveWithLock(t *testing.T) {
	ctx := context.Background()

	t.Run("persists settled counts and bumps the version", func(t *testing.T) {
		db := newSQLiteDB(t)
		repo := NewGormConsignmentRepository(db)
		c := newStoredConsignment(t, db, "Ana", 5)

		loaded, err := repo.FindByIDForUpdate(ctx, c.ID)
		require.NoError(t, err)
		_, err = loaded.Settle([]consignment.LineUpdate{{LineID: c.Lines[0].ID, Sold: 2, Returned: 1}}, false, time.Now())
		require.NoError(t, err)

		require.NoError(t, repo.SaveWithLock(ctx, loaded))
		assert.Equal(t, 2, loaded.Version)

		reloaded, err := repo.FindByID(ctx, c.ID)
		require.NoError(t, err)
		assert.Equal(t, consignment.StatusPartial, reloaded.Status)
		assert.Equal(t, 2, reloaded.Version)
		assert.Equal(t, 2, reloaded.Lines[0].Sold)
		assert.Equal(t, 1, reloaded.Lines[0].Returned)
		assert.True(t, decimal.NewFromInt(20).Equal(reloaded.TotalSoldValue))
		assert.True(t, decimal.NewFromInt(4).Equal(reloaded.TotalCommission))
		assert.True(t, decimal.NewFromInt(16).Equal(reloaded.TotalNet))
		require.NotNil(t, reloaded.LastSettledAt)
		assert.Nil(t, reloaded.ClosedAt)
	})

	t.Run("stale copy is rejected", func(t *testing.T) {
		db := newSQLiteDB(t)
		repo := NewGormConsignmentRepository(db)
		c := newStoredConsignment(t, db, "Ana", 5)

		first, err := repo.FindByID(ctx, c.ID)
		require.NoError(t, err)
		second, err := repo.FindByID(ctx, c.ID)
		require.NoError(t, err)

		_, err = first.Settle([]consignment.LineUpdate{{LineID: c.Lines[0].ID, Sold: 1}}, false, time.Now())
		require.NoError(t, err)
		require.NoError(t, repo.SaveWithLock(ctx, first))

		_, err = second.Settle([]consignment.LineUpdate{{LineID: c.Lines[0].ID, Sold: 4}}, false, time.Now())
		require.NoError(t, err)
		err = repo.SaveWithLock(ctx, second)
		require.Error(t, err)
		assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
		assert.Equal(t, 1, second.Version)

		reloaded, err := repo.FindByID(ctx, c.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, reloaded.Lines[0].Sold)
	})

	t.Run("stores appended lines", func(t *testing.T) {
		db := newSQLiteDB(t)
		repo := NewGormConsignmentRepository(db)
		c := newStoredConsignment(t, db, "Ana", 5)

		loaded, err := repo.FindByID(ctx, c.ID)
		require.NoError(t, err)
		_, err = loaded.AddLines([]consignment.LineSpec{{
			ProductID: uuid.New(), ProductName: "Cinto", Quantity: 2, UnitPrice: decimal.NewFromInt(7),
		}})
		require.NoError(t, err)
		require.NoError(t, repo.SaveWithLock(ctx, loaded))

		reloaded, err := repo.FindByID(ctx, c.ID)
		require.NoError(t, err)
		require.Len(t, reloaded.Lines, 2)
		assert.Equal(t, "Cinto", reloaded.Lines[1].ProductName)
	})
}

func TestGormConsignmentRepository_FindAllAndCount(t *testing.T) {
	db := newSQLiteDB(t)
	repo := NewGormConsignmentRepository(db)
	ctx := context.Background()

	open := newStoredConsignment(t, db, "Ana", 2)
	settled := newStoredConsignment(t, db, "Bia", 3)
	_, err := settled.Settle([]consignment.LineUpdate{{LineID: settled.Lines[0].ID, Sold: 1}}, false, time.Now())
	require.NoError(t, err)
	require.NoError(t, repo.SaveWithLock(ctx, settled))

	all, err := repo.FindAll(ctx, consignment.Filter{Filter: shared.Filter{OrderBy: "customer_name", OrderDir: "asc"}})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, open.ID, all[0].ID)
	assert.Len(t, all[1].Lines, 1)

	status := consignment.StatusPartial
	filter := consignment.Filter{Filter: shared.Filter{Page: 1, PageSize: 10}, Status: &status}
	partial, err := repo.FindAll(ctx, filter)
	require.NoError(t, err)
	require.Len(t, partial, 1)
	assert.Equal(t, settled.ID, partial[0].ID)

	count, err := repo.Count(ctx, filter)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	customerID := open.CustomerID
	count, err = repo.Count(ctx, consignment.Filter{CustomerID: &customerID})
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	paged, err := repo.FindAll(ctx, consignment.Filter{Filter: shared.Filter{Page: 2, PageSize: 1, OrderBy: "customer_name", OrderDir: "asc"}})
	require.NoError(t, err)
	require.Len(t, paged, 1)
	assert.Equal(t, settled.ID, paged[0].ID)
}

func TestGormConsignmentRepository_Summary(t *testing.T) {
	db := newSQLiteDB(t)
	repo := NewGormConsignmentRepository(db)
	ctx := context.Background()

	empty, err := repo.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), empty.OpenCount)
	assert.True(t, empty.OutstandingValue.IsZero())

	newStoredConsignment(t, db, "Ana", 4)

	partial := newStoredConsignment(t, db, "Bia", 5)
	_, err = partial.Settle([]consignment.LineUpdate{{LineID: partial.Lines[0].ID, Sold: 2, Returned: 1}}, false, time.Now())
	require.NoError(t, err)
	require.NoError(t, repo.SaveWithLock(ctx, partial))

	closed := newStoredConsignment(t, db, "Caio", 3)
	_, err = closed.Settle([]consignment.LineUpdate{{LineID: closed.Lines[0].ID, Sold: 3}}, true, time.Now())
	require.NoError(t, err)
	require.NoError(t, repo.SaveWithLock(ctx, closed))

	sum, err := repo.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), sum.OpenCount)
	assert.Equal(t, int64(2), sum.ActiveCount)
	// 4 units open plus 2 units left on the partial one, at 10 each
	assert.True(t, decimal.NewFromInt(60).Equal(sum.OutstandingValue), sum.OutstandingValue.String())
	assert.True(t, decimal.NewFromInt(50).Equal(sum.TotalSoldValue), sum.TotalSoldValue.String())
}
