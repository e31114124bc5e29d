package consignment

import (
	"context"
	"time"
)

// Locker hands out named locks that serialize work across processes
type Locker interface {
	// Obtain blocks until the lock for key is held or ctx is done.
	// The lock expires after ttl if never released.
	Obtain(ctx context.Context, key string, ttl time.Duration) (Lock, error)
}

// Lock is a held lock
type Lock interface {
	Release(ctx context.Context) error
}

// Metrics records business counters for consignment workflows
type Metrics interface {
	ConsignmentCreated(ctx context.Context, lines, units int)
	SettlementRegistered(ctx context.Context, finalize bool, returnedUnits int)
	ConsignmentClosed(ctx context.Context)
}

// StatementRenderer turns a consignment into a downloadable document
type StatementRenderer interface {
	Render(statement *ConsignmentResponse) ([]byte, error)
	ContentType() string
	Extension() string
}

// StatementArchive stores rendered statements
type StatementArchive interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
}

type noopMetrics struct{}

func (noopMetrics) ConsignmentCreated(context.Context, int, int)    {}
func (noopMetrics) SettlementRegistered(context.Context, bool, int) {}
func (noopMetrics) ConsignmentClosed(context.Context)               {}
