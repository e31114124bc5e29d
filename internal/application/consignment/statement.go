package consignment

import (
	"context"
	"fmt"

	"github.com/erp/consignment/internal/domain/consignment"
	"github.com/erp/consignment/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Statement is a rendered settlement statement
type Statement struct {
	Filename    string
	ContentType string
	Data        []byte
}

// StatementService renders settlement statements and archives them on close
type StatementService struct {
	consignments *ConsignmentService
	renderer     StatementRenderer
	archive      StatementArchive
	logger       *zap.Logger
}

// NewStatementService creates a new StatementService. archive may be nil when
// no object storage is configured.
func NewStatementService(consignments *ConsignmentService, renderer StatementRenderer, archive StatementArchive, logger *zap.Logger) *StatementService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StatementService{
		consignments: consignments,
		renderer:     renderer,
		archive:      archive,
		logger:       logger,
	}
}

// Export renders the current statement of a consignment
func (s *StatementService) Export(ctx context.Context, id uuid.UUID) (*Statement, error) {
	c, err := s.consignments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	data, err := s.renderer.Render(c)
	if err != nil {
		return nil, fmt.Errorf("render statement: %w", err)
	}
	return &Statement{
		Filename:    fmt.Sprintf("consignment-%s.%s", c.ID.String()[:8], s.renderer.Extension()),
		ContentType: s.renderer.ContentType(),
		Data:        data,
	}, nil
}

// ArchiveKey returns the object key a closed consignment's statement is stored under
func (s *StatementService) ArchiveKey(c *ConsignmentResponse) string {
	closed := c.UpdatedAt
	if c.ClosedAt != nil {
		closed = *c.ClosedAt
	}
	return fmt.Sprintf("statements/%04d/%02d/%s.%s", closed.Year(), closed.Month(), c.ID, s.renderer.Extension())
}

// EventTypes returns the event types this handler is interested in
func (s *StatementService) EventTypes() []string {
	return []string{consignment.EventTypeConsignmentClosed}
}

// Handle archives the final statement of a consignment that just closed
func (s *StatementService) Handle(ctx context.Context, event shared.DomainEvent) error {
	if s.archive == nil {
		return nil
	}
	closed, ok := event.(*consignment.ConsignmentClosedEvent)
	if !ok {
		return nil
	}

	c, err := s.consignments.GetByID(ctx, closed.ConsignmentID)
	if err != nil {
		return err
	}
	data, err := s.renderer.Render(c)
	if err != nil {
		return fmt.Errorf("render statement: %w", err)
	}

	key := s.ArchiveKey(c)
	if err := s.archive.Put(ctx, key, data, s.renderer.ContentType()); err != nil {
		s.logger.Error("failed to archive statement",
			zap.String("consignment_id", c.ID.String()),
			zap.String("key", key),
			zap.Error(err),
		)
		return err
	}

	s.logger.Info("statement archived",
		zap.String("consignment_id", c.ID.String()),
		zap.String("key", key),
		zap.Int("bytes", len(data)),
	)
	return nil
}

var _ shared.EventHandler = (*StatementService)(nil)
