package consignment

import (
	"fmt"
	"time"

	"github.com/erp/consignment/internal/domain/inventory"
	"github.com/erp/consignment/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Status represents the lifecycle status of a consignment
type Status string

const (
	StatusOpen    Status = "OPEN"
	StatusPartial Status = "PARTIAL"
	StatusClosed  Status = "CLOSED"
)

// IsValid checks if the status is a valid Status
func (s Status) IsValid() bool {
	switch s {
	case StatusOpen, StatusPartial, StatusClosed:
		return true
	}
	return false
}

// String returns the string representation of Status
func (s Status) String() string {
	return string(s)
}

// CanTransitionTo checks if the status can transition to the target status
func (s Status) CanTransitionTo(target Status) bool {
	switch s {
	case StatusOpen:
		return target == StatusPartial || target == StatusClosed
	case StatusPartial:
		return target == StatusPartial || target == StatusClosed
	case StatusClosed:
		return false // Terminal state
	}
	return false
}

// Consignment is the aggregate root for goods handed to a reseller.
// Totals are always derived from the complete set of lines.
type Consignment struct {
	shared.BaseAggregateRoot
	CustomerID      uuid.UUID
	CustomerName    string
	Status          Status
	SentAt          time.Time
	ClosedAt        *time.Time
	LastSettledAt   *time.Time
	Lines           []Line
	TotalSoldValue  decimal.Decimal
	TotalCommission decimal.Decimal
	TotalNet        decimal.Decimal
	Notes           string
}

// NewConsignment creates an open consignment with its initial lines
func NewConsignment(customerID uuid.UUID, customerName, notes string, specs []LineSpec) (*Consignment, error) {
	if customerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_CUSTOMER", "Customer ID cannot be empty")
	}
	if len(specs) == 0 {
		return nil, shared.NewDomainError("NO_LINES", "A consignment needs at least one line")
	}

	c := &Consignment{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		CustomerID:        customerID,
		CustomerName:      customerName,
		Status:            StatusOpen,
		Lines:             make([]Line, 0, len(specs)),
		TotalSoldValue:    decimal.Zero,
		TotalCommission:   decimal.Zero,
		TotalNet:          decimal.Zero,
		Notes:             notes,
	}
	c.SentAt = c.CreatedAt

	if _, err := c.appendLines(specs); err != nil {
		return nil, err
	}
	c.recalculateTotals()

	c.AddDomainEvent(NewConsignmentCreatedEvent(c))

	return c, nil
}

// AddLines appends lines to a consignment that has not been settled yet.
// It returns the new lines so the caller can move their stock out.
func (c *Consignment) AddLines(specs []LineSpec) ([]Line, error) {
	if c.Status != StatusOpen {
		return nil, shared.NewDomainError(shared.CodeInvalidState,
			fmt.Sprintf("Cannot add lines to a consignment in %s status", c.Status))
	}
	if len(specs) == 0 {
		return nil, shared.NewDomainError("NO_LINES", "At least one line is required")
	}

	added, err := c.appendLines(specs)
	if err != nil {
		return nil, err
	}
	c.recalculateTotals()
	c.UpdatedAt = time.Now()

	c.AddDomainEvent(NewConsignmentLinesAddedEvent(c, added))

	return added, nil
}

func (c *Consignment) appendLines(specs []LineSpec) ([]Line, error) {
	next := c.nextPosition()
	added := make([]Line, 0, len(specs))
	for i, spec := range specs {
		line, err := NewLine(c.ID, spec)
		if err != nil {
			return nil, shared.NewDomainError(shared.ErrorCode(err),
				fmt.Sprintf("Line %d (%s): %s", i+1, spec.ProductName, err.Error()))
		}
		line.Position = next + i
		added = append(added, *line)
	}
	c.Lines = append(c.Lines, added...)
	return added, nil
}

func (c *Consignment) nextPosition() int {
	next := 0
	for i := range c.Lines {
		if c.Lines[i].Position >= next {
			next = c.Lines[i].Position + 1
		}
	}
	return next
}

// LineUpdate is the caller's report for one line: the absolute sold and
// returned counts as of this settlement.
type LineUpdate struct {
	LineID   uuid.UUID
	Sold     int
	Returned int
}

// StockAdjustment is a product quantity change a settlement requires
type StockAdjustment struct {
	LineID    uuid.UUID
	ProductID uuid.UUID
	Quantity  int // always positive, direction given by Reason
	Reason    inventory.Reason
}

// Signed returns the adjustment as a signed on-hand delta
func (a StockAdjustment) Signed() int {
	if a.Reason.Direction() == inventory.DirectionOut {
		return -a.Quantity
	}
	return a.Quantity
}

// Settle applies a settlement ("acerto") batch.
//
// The whole batch is validated before any line changes. Stock corrections
// follow the change in returned units since the previous settlement, not the
// absolute count, so resubmitting the same payload yields no adjustments.
// With finalize the consignment closes and every unaccounted unit is treated
// as returned. The returned adjustments must be applied to the product
// ledger in order within the same transaction that persists the aggregate.
func (c *Consignment) Settle(updates []LineUpdate, finalize bool, now time.Time) ([]StockAdjustment, error) {
	if c.Status == StatusClosed {
		return nil, shared.NewDomainError(shared.CodeInvalidState, "Consignment is already closed")
	}
	if len(updates) == 0 && !finalize {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Settlement must report at least one line or finalize")
	}

	target := StatusPartial
	if finalize {
		target = StatusClosed
	}
	if !c.Status.CanTransitionTo(target) {
		return nil, shared.NewDomainError(shared.CodeInvalidState,
			fmt.Sprintf("Cannot move consignment from %s to %s", c.Status, target))
	}

	indexes, err := c.validateUpdates(updates)
	if err != nil {
		return nil, err
	}

	adjustments := make([]StockAdjustment, 0, len(updates))
	for i, u := range updates {
		line := &c.Lines[indexes[i]]
		previousReturned := line.Returned
		line.Sold = u.Sold
		line.Returned = u.Returned
		line.UpdatedAt = now

		delta := line.Returned - previousReturned
		switch {
		case delta > 0:
			adjustments = append(adjustments, StockAdjustment{
				LineID: line.ID, ProductID: line.ProductID, Quantity: delta, Reason: inventory.ReasonConsignmentReturn,
			})
		case delta < 0:
			adjustments = append(adjustments, StockAdjustment{
				LineID: line.ID, ProductID: line.ProductID, Quantity: -delta, Reason: inventory.ReasonReturnCorrection,
			})
		}
	}

	if finalize {
		for i := range c.Lines {
			line := &c.Lines[i]
			remaining := line.Remaining()
			if remaining <= 0 {
				continue
			}
			line.Returned += remaining
			line.UpdatedAt = now
			adjustments = append(adjustments, StockAdjustment{
				LineID: line.ID, ProductID: line.ProductID, Quantity: remaining, Reason: inventory.ReasonConsignmentClose,
			})
		}
		closedAt := now
		c.ClosedAt = &closedAt
	}

	c.Status = target
	settledAt := now
	c.LastSettledAt = &settledAt
	c.UpdatedAt = now
	c.recalculateTotals()

	c.AddDomainEvent(NewConsignmentSettledEvent(c, updates, adjustments))
	if finalize {
		c.AddDomainEvent(NewConsignmentClosedEvent(c))
	}

	return adjustments, nil
}

// validateUpdates checks every update against the stored lines and returns,
// for each update, the index of the line it targets.
func (c *Consignment) validateUpdates(updates []LineUpdate) ([]int, error) {
	byID := make(map[uuid.UUID]int, len(c.Lines))
	for i := range c.Lines {
		byID[c.Lines[i].ID] = i
	}

	indexes := make([]int, len(updates))
	seen := make(map[uuid.UUID]struct{}, len(updates))
	for i, u := range updates {
		idx, ok := byID[u.LineID]
		if !ok {
			return nil, shared.NewDomainError(shared.CodeNotFound,
				fmt.Sprintf("Line %s does not belong to consignment %s", u.LineID, c.ID))
		}
		if _, dup := seen[u.LineID]; dup {
			return nil, shared.NewDomainError(shared.CodeInvariantViolation,
				fmt.Sprintf("Line %s appears more than once in the settlement", u.LineID))
		}
		seen[u.LineID] = struct{}{}

		line := c.Lines[idx]
		if u.Sold < 0 || u.Returned < 0 {
			return nil, shared.NewDomainError(shared.CodeInvariantViolation,
				fmt.Sprintf("Line %s (%s): sold and returned cannot be negative", line.ID, line.ProductName))
		}
		if u.Sold+u.Returned > line.Sent {
			return nil, shared.NewDomainError(shared.CodeInvariantViolation,
				fmt.Sprintf("Line %s (%s): sold %d + returned %d exceeds sent %d",
					line.ID, line.ProductName, u.Sold, u.Returned, line.Sent))
		}
		indexes[i] = idx
	}
	return indexes, nil
}

// recalculateTotals re-sums every line
func (c *Consignment) recalculateTotals() {
	sold := decimal.Zero
	commission := decimal.Zero
	for i := range c.Lines {
		sold = sold.Add(c.Lines[i].SoldValue())
		commission = commission.Add(c.Lines[i].CommissionValue())
	}
	c.TotalSoldValue = sold
	c.TotalCommission = commission
	c.TotalNet = sold.Sub(commission)
}

// GetLine returns the line with the given ID
func (c *Consignment) GetLine(lineID uuid.UUID) *Line {
	for i := range c.Lines {
		if c.Lines[i].ID == lineID {
			return &c.Lines[i]
		}
	}
	return nil
}

// ProductIDs returns the distinct products referenced by the lines
func (c *Consignment) ProductIDs() []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(c.Lines))
	ids := make([]uuid.UUID, 0, len(c.Lines))
	for _, l := range c.Lines {
		if _, ok := seen[l.ProductID]; ok {
			continue
		}
		seen[l.ProductID] = struct{}{}
		ids = append(ids, l.ProductID)
	}
	return ids
}

// TotalSent returns the number of units handed over
func (c *Consignment) TotalSent() int {
	total := 0
	for _, l := range c.Lines {
		total += l.Sent
	}
	return total
}

// OutstandingValue returns the sale value of units still with the reseller
func (c *Consignment) OutstandingValue() decimal.Decimal {
	total := decimal.Zero
	for i := range c.Lines {
		total = total.Add(c.Lines[i].OutstandingValue())
	}
	return total
}

// IsClosed returns true if the consignment is closed
func (c *Consignment) IsClosed() bool {
	return c.Status == StatusClosed
}

// Reference returns the short human reference used in movement notes
func (c *Consignment) Reference() string {
	return "Consignment #" + c.ID.String()[:8]
}
