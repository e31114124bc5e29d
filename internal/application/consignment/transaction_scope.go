package consignment

import (
	"context"

	"github.com/erp/consignment/internal/domain/catalog"
	"github.com/erp/consignment/internal/domain/consignment"
	"github.com/erp/consignment/internal/domain/inventory"
)

// TransactionScope provides transactional access to the repositories a
// consignment workflow touches. Everything done through the repositories
// handed to fn commits or rolls back together.
type TransactionScope interface {
	// Execute runs the given function within a database transaction.
	// If the function returns an error, the transaction is rolled back.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides access to repositories sharing one transaction.
//
// The product counter and the movement log describe the same fact, so they are
// always written through the same TransactionalRepositories as the consignment.
type TransactionalRepositories interface {
	// ProductRepo returns the product repository scoped to the current transaction
	ProductRepo() catalog.ProductRepository
	// ConsignmentRepo returns the consignment repository scoped to the current transaction
	ConsignmentRepo() consignment.ConsignmentRepository
	// MovementRepo returns the append-only movement log scoped to the current transaction
	MovementRepo() inventory.StockMovementRepository
}

// NoOpTransactionScope is a transaction scope that doesn't actually use transactions.
// This is useful for testing or when transaction support is not required.
type NoOpTransactionScope struct {
	productRepo     catalog.ProductRepository
	consignmentRepo consignment.ConsignmentRepository
	movementRepo    inventory.StockMovementRepository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope with the given repositories.
func NewNoOpTransactionScope(
	productRepo catalog.ProductRepository,
	consignmentRepo consignment.ConsignmentRepository,
	movementRepo inventory.StockMovementRepository,
) *NoOpTransactionScope {
	return &NoOpTransactionScope{
		productRepo:     productRepo,
		consignmentRepo: consignmentRepo,
		movementRepo:    movementRepo,
	}
}

// Execute runs the function without a real transaction.
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

func (s *NoOpTransactionScope) ProductRepo() catalog.ProductRepository { return s.productRepo }

func (s *NoOpTransactionScope) ConsignmentRepo() consignment.ConsignmentRepository {
	return s.consignmentRepo
}

func (s *NoOpTransactionScope) MovementRepo() inventory.StockMovementRepository {
	return s.movementRepo
}

var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)
