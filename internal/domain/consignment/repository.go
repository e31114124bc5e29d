package consignment

import (
	"context"

	"github.com/erp/consignment/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Filter narrows consignment listings
type Filter struct {
	shared.Filter
	Status     *Status
	CustomerID *uuid.UUID
}

// Summary is the dashboard view over all consignments
type Summary struct {
	OpenCount        int64           // consignments not yet settled
	ActiveCount      int64           // consignments not yet closed
	OutstandingValue decimal.Decimal // sale value of units still with resellers
	TotalSoldValue   decimal.Decimal // sold value across every consignment
}

// ConsignmentRepository defines the interface for consignment persistence
type ConsignmentRepository interface {
	// FindByID loads a consignment with its lines and customer name
	FindByID(ctx context.Context, id uuid.UUID) (*Consignment, error)

	// FindByIDForUpdate loads a consignment and locks its header row until
	// the surrounding transaction ends
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*Consignment, error)

	// FindAll lists consignments, newest first unless the filter says otherwise
	FindAll(ctx context.Context, filter Filter) ([]Consignment, error)

	// Count counts consignments matching the filter
	Count(ctx context.Context, filter Filter) (int64, error)

	// Save inserts a new consignment with its lines
	Save(ctx context.Context, c *Consignment) error

	// SaveWithLock updates an existing consignment and its lines if the
	// stored version still matches, then bumps the version
	SaveWithLock(ctx context.Context, c *Consignment) error

	// Summary aggregates dashboard figures
	Summary(ctx context.Context) (*Summary, error)
}
