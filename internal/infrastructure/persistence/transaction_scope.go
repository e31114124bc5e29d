package persistence

import (
	"context"

	appconsignment "github.com/erp/consignment/internal/application/consignment"
	"github.com/erp/consignment/internal/domain/catalog"
	"github.com/erp/consignment/internal/domain/consignment"
	"github.com/erp/consignment/internal/domain/inventory"
	"gorm.io/gorm"
)

// GormTransactionScope implements TransactionScope using GORM transactions.
type GormTransactionScope struct {
	db *gorm.DB
}

// NewGormTransactionScope creates a new GormTransactionScope.
func NewGormTransactionScope(db *gorm.DB) *GormTransactionScope {
	return &GormTransactionScope{db: db}
}

// Execute runs fn inside one database transaction. An error from fn, or a
// panic, rolls back every write made through the repositories it was given.
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos appconsignment.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTransactionalRepositories{tx: tx})
	})
}

type gormTransactionalRepositories struct {
	tx *gorm.DB
}

func (r *gormTransactionalRepositories) ProductRepo() catalog.ProductRepository {
	return NewGormProductRepository(r.tx)
}

func (r *gormTransactionalRepositories) ConsignmentRepo() consignment.ConsignmentRepository {
	return NewGormConsignmentRepository(r.tx)
}

func (r *gormTransactionalRepositories) MovementRepo() inventory.StockMovementRepository {
	return NewGormStockMovementRepository(r.tx)
}

var _ appconsignment.TransactionScope = (*GormTransactionScope)(nil)
var _ appconsignment.TransactionalRepositories = (*gormTransactionalRepositories)(nil)
