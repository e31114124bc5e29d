package inventory

import (
	"context"

	"github.com/erp/consignment/internal/domain/shared"
	"github.com/google/uuid"
)

// StockMovementRepository is the append-only movement log.
// The log is an audit trail; on-hand quantities are never rebuilt from it.
type StockMovementRepository interface {
	// Create appends a single movement
	Create(ctx context.Context, movement *StockMovement) error

	// CreateBatch appends several movements
	CreateBatch(ctx context.Context, movements []*StockMovement) error

	// FindByProduct lists movements of a product, newest first
	FindByProduct(ctx context.Context, productID uuid.UUID, filter shared.Filter) ([]StockMovement, error)

	// CountByProduct counts movements of a product
	CountByProduct(ctx context.Context, productID uuid.UUID) (int64, error)

	// FindBySource lists movements caused by a source document, oldest first
	FindBySource(ctx context.Context, sourceType SourceType, sourceID string) ([]StockMovement, error)
}
