package consignment

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/erp/consignment/internal/domain/catalog"
	"github.com/erp/consignment/internal/domain/consignment"
	"github.com/erp/consignment/internal/domain/inventory"
	"github.com/erp/consignment/internal/domain/partner"
	"github.com/erp/consignment/internal/domain/shared"
	"github.com/erp/consignment/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ServiceConfig holds the business switches of the consignment workflows
type ServiceConfig struct {
	// RequireReseller rejects consignments for customers that are not resellers
	RequireReseller bool
	// LockTTL bounds how long a workflow may hold a consignment or product lock
	LockTTL time.Duration
	// IdempotencyTTL is how long a settlement Idempotency-Key is remembered
	IdempotencyTTL time.Duration
}

// DefaultServiceConfig returns the default service configuration
func DefaultServiceConfig() ServiceConfig {
	return ServiceConfig{
		RequireReseller: true,
		LockTTL:         30 * time.Second,
		IdempotencyTTL:  24 * time.Hour,
	}
}

// ConsignmentService runs the consignment creation and settlement workflows
type ConsignmentService struct {
	consignmentRepo consignment.ConsignmentRepository
	customerRepo    partner.CustomerRepository
	productRepo     catalog.ProductRepository
	movementRepo    inventory.StockMovementRepository
	txScope         TransactionScope
	locker          Locker
	idempotency     shared.IdempotencyStore
	eventPublisher  shared.EventPublisher
	metrics         Metrics
	logger          *zap.Logger
	cfg             ServiceConfig
}

// NewConsignmentService creates a new ConsignmentService
func NewConsignmentService(
	consignmentRepo consignment.ConsignmentRepository,
	customerRepo partner.CustomerRepository,
	productRepo catalog.ProductRepository,
	movementRepo inventory.StockMovementRepository,
	txScope TransactionScope,
	cfg ServiceConfig,
	logger *zap.Logger,
) *ConsignmentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = DefaultServiceConfig().LockTTL
	}
	if cfg.IdempotencyTTL <= 0 {
		cfg.IdempotencyTTL = DefaultServiceConfig().IdempotencyTTL
	}
	return &ConsignmentService{
		consignmentRepo: consignmentRepo,
		customerRepo:    customerRepo,
		productRepo:     productRepo,
		movementRepo:    movementRepo,
		txScope:         txScope,
		metrics:         noopMetrics{},
		logger:          logger,
		cfg:             cfg,
	}
}

// SetEventPublisher sets the event publisher for cross-context integration
func (s *ConsignmentService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetLocker sets the locker used to serialize work on consignments and products
func (s *ConsignmentService) SetLocker(locker Locker) {
	s.locker = locker
}

// SetIdempotencyStore sets the store that remembers settlement request keys
func (s *ConsignmentService) SetIdempotencyStore(store shared.IdempotencyStore) {
	s.idempotency = store
}

// SetMetrics sets the business metrics recorder
func (s *ConsignmentService) SetMetrics(metrics Metrics) {
	if metrics == nil {
		metrics = noopMetrics{}
	}
	s.metrics = metrics
}

// Create hands goods to a customer on consignment.
//
// Availability of every requested line is checked before anything changes;
// the consignment, the product counters and the movement log are then written
// in one transaction.
func (s *ConsignmentService) Create(ctx context.Context, req CreateConsignmentRequest) (_ *ConsignmentResponse, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "consignment", "create",
		telemetry.SpanAttrCustomerID, req.CustomerID,
		telemetry.SpanAttrLineCount, len(req.Lines),
	)
	defer func() {
		telemetry.RecordError(span, err)
		span.End()
	}()

	if len(req.Lines) == 0 {
		return nil, shared.NewDomainError("NO_LINES", "A consignment needs at least one line")
	}

	customer, err := s.customerRepo.FindByID(ctx, req.CustomerID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError(shared.CodeNotFound, fmt.Sprintf("Customer %s not found", req.CustomerID))
		}
		return nil, fmt.Errorf("load customer: %w", err)
	}
	if s.cfg.RequireReseller && !customer.IsReseller() {
		return nil, shared.NewDomainError(shared.CodeCustomerNotReseller,
			fmt.Sprintf("Customer %s is not a reseller and cannot receive consignments", customer.Name))
	}

	productIDs := lineProductIDs(req.Lines)
	release, err := s.obtainLocks(ctx, productLockKeys(productIDs)...)
	if err != nil {
		return nil, err
	}
	defer release()

	var created *consignment.Consignment
	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		products, err := loadProductsForUpdate(ctx, repos.ProductRepo(), productIDs)
		if err != nil {
			return err
		}
		if err := checkAvailability(req.Lines, products); err != nil {
			return err
		}

		c, err := consignment.NewConsignment(customer.ID, customer.Name, req.Notes, buildLineSpecs(req.Lines, products, customer))
		if err != nil {
			return err
		}
		if err := repos.ConsignmentRepo().Save(ctx, c); err != nil {
			return fmt.Errorf("save consignment: %w", err)
		}
		if err := stockOut(ctx, repos, c, c.Lines, products); err != nil {
			return err
		}
		created = c
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishEvents(ctx, created)
	s.metrics.ConsignmentCreated(ctx, len(created.Lines), created.TotalSent())
	s.logger.Info("consignment created",
		zap.String("consignment_id", created.ID.String()),
		zap.String("customer_id", created.CustomerID.String()),
		zap.Int("lines", len(created.Lines)),
		zap.Int("units", created.TotalSent()),
	)

	response := ToConsignmentResponse(created)
	return &response, nil
}

// AddLines appends lines to a consignment that has not been settled yet
func (s *ConsignmentService) AddLines(ctx context.Context, id uuid.UUID, req AddLinesRequest) (_ *ConsignmentResponse, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "consignment", "add_lines",
		telemetry.SpanAttrConsignmentID, id,
		telemetry.SpanAttrLineCount, len(req.Lines),
	)
	defer func() {
		telemetry.RecordError(span, err)
		span.End()
	}()

	if len(req.Lines) == 0 {
		return nil, shared.NewDomainError("NO_LINES", "At least one line is required")
	}

	current, err := s.consignmentRepo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundAs(err, fmt.Sprintf("Consignment %s not found", id))
	}
	customer, err := s.customerRepo.FindByID(ctx, current.CustomerID)
	if err != nil {
		return nil, notFoundAs(err, fmt.Sprintf("Customer %s not found", current.CustomerID))
	}

	productIDs := lineProductIDs(req.Lines)
	release, err := s.obtainLocks(ctx, append([]string{consignmentLockKey(id)}, productLockKeys(productIDs)...)...)
	if err != nil {
		return nil, err
	}
	defer release()

	var updated *consignment.Consignment
	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		c, err := findConsignmentForUpdate(ctx, repos.ConsignmentRepo(), id)
		if err != nil {
			return err
		}
		if c.Status != consignment.StatusOpen {
			return shared.NewDomainError(shared.CodeInvalidState,
				fmt.Sprintf("Cannot add lines to a consignment in %s status", c.Status))
		}

		products, err := loadProductsForUpdate(ctx, repos.ProductRepo(), productIDs)
		if err != nil {
			return err
		}
		if err := checkAvailability(req.Lines, products); err != nil {
			return err
		}

		added, err := c.AddLines(buildLineSpecs(req.Lines, products, customer))
		if err != nil {
			return err
		}
		if err := repos.ConsignmentRepo().SaveWithLock(ctx, c); err != nil {
			return err
		}
		if err := stockOut(ctx, repos, c, added, products); err != nil {
			return err
		}
		updated = c
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishEvents(ctx, updated)
	s.logger.Info("consignment lines added",
		zap.String("consignment_id", updated.ID.String()),
		zap.Int("added", len(req.Lines)),
	)

	response := ToConsignmentResponse(updated)
	return &response, nil
}

// RegisterSettlement applies a settlement ("acerto") batch.
//
// The batch is validated as a whole before any line changes. Product counters
// move by the change in returned units since the last settlement, and every
// change is written to the movement log within the same transaction as the
// consignment. A request carrying an idempotency key that was already applied
// returns the current consignment without touching anything.
func (s *ConsignmentService) RegisterSettlement(ctx context.Context, id uuid.UUID, req RegisterSettlementRequest) (_ *ConsignmentResponse, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "consignment", "settle",
		telemetry.SpanAttrConsignmentID, id,
		telemetry.SpanAttrLineCount, len(req.Lines),
		telemetry.SpanAttrFinalize, req.Finalize,
	)
	defer func() {
		telemetry.RecordError(span, err)
		span.End()
	}()

	idemKey := ""
	if req.IdempotencyKey != "" && s.idempotency != nil {
		idemKey = "settlement:" + id.String() + ":" + req.IdempotencyKey
		fresh, err := s.idempotency.MarkProcessed(ctx, idemKey, s.cfg.IdempotencyTTL)
		if err != nil {
			return nil, fmt.Errorf("check idempotency key: %w", err)
		}
		if !fresh {
			done, err := s.idempotency.IsCompleted(ctx, idemKey)
			if err != nil {
				return nil, fmt.Errorf("check idempotency key: %w", err)
			}
			if !done {
				return nil, shared.NewDomainError(shared.CodeDuplicateRequest,
					fmt.Sprintf("Settlement %s is still being processed", req.IdempotencyKey))
			}
			s.logger.Info("settlement replay ignored",
				zap.String("consignment_id", id.String()),
				zap.String("idempotency_key", req.IdempotencyKey),
			)
			return s.GetByID(ctx, id)
		}
	}

	var (
		settled     *consignment.Consignment
		adjustments []consignment.StockAdjustment
	)
	telemetry.WithProfilingLabels(ctx, telemetry.OperationLabels("register_settlement"), func(ctx context.Context) {
		settled, adjustments, err = s.settle(ctx, id, req)
	})
	if err != nil {
		if idemKey != "" {
			if ferr := s.idempotency.Forget(ctx, idemKey); ferr != nil {
				s.logger.Warn("failed to release idempotency key", zap.String("key", idemKey), zap.Error(ferr))
			}
		}
		return nil, err
	}
	if idemKey != "" {
		if cerr := s.idempotency.Complete(ctx, idemKey, s.cfg.IdempotencyTTL); cerr != nil {
			s.logger.Warn("failed to complete idempotency key", zap.String("key", idemKey), zap.Error(cerr))
		}
	}

	returned := 0
	for _, a := range adjustments {
		returned += a.Signed()
	}

	s.publishEvents(ctx, settled)
	s.metrics.SettlementRegistered(ctx, req.Finalize, returned)
	s.logger.Info("settlement registered",
		zap.String("consignment_id", settled.ID.String()),
		zap.String("status", settled.Status.String()),
		zap.Int("lines", len(req.Lines)),
		zap.Int("stock_delta", returned),
		zap.String("total_sold_value", settled.TotalSoldValue.String()),
	)
	if settled.IsClosed() {
		s.metrics.ConsignmentClosed(ctx)
		s.logger.Info("consignment closed", zap.String("consignment_id", settled.ID.String()))
	}

	response := ToConsignmentResponse(settled)
	return &response, nil
}

func (s *ConsignmentService) settle(ctx context.Context, id uuid.UUID, req RegisterSettlementRequest) (*consignment.Consignment, []consignment.StockAdjustment, error) {
	release, err := s.obtainLocks(ctx, consignmentLockKey(id))
	if err != nil {
		return nil, nil, err
	}
	defer release()

	// Lines only change under the consignment lock, so its product set is
	// stable from here on. Product keys sort after the consignment key, the
	// same order Create and AddLines use.
	if s.locker != nil {
		current, err := s.consignmentRepo.FindByID(ctx, id)
		if err != nil {
			return nil, nil, notFoundAs(err, fmt.Sprintf("Consignment %s not found", id))
		}
		releaseProducts, err := s.obtainLocks(ctx, productLockKeys(current.ProductIDs())...)
		if err != nil {
			return nil, nil, err
		}
		defer releaseProducts()
	}

	updates := make([]consignment.LineUpdate, len(req.Lines))
	for i, l := range req.Lines {
		updates[i] = consignment.LineUpdate{LineID: l.LineID, Sold: l.Sold, Returned: l.Returned}
	}

	var (
		settled     *consignment.Consignment
		adjustments []consignment.StockAdjustment
	)
	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		c, err := findConsignmentForUpdate(ctx, repos.ConsignmentRepo(), id)
		if err != nil {
			return err
		}

		adj, err := c.Settle(updates, req.Finalize, time.Now())
		if err != nil {
			return err
		}

		if len(adj) > 0 {
			products, err := loadProductsForUpdate(ctx, repos.ProductRepo(), adjustmentProductIDs(adj))
			if err != nil {
				return err
			}
			if err := applyAdjustments(ctx, repos, c, adj, products); err != nil {
				return err
			}
		}

		if err := repos.ConsignmentRepo().SaveWithLock(ctx, c); err != nil {
			return err
		}
		settled = c
		adjustments = adj
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return settled, adjustments, nil
}

// GetByID retrieves a consignment with its lines
func (s *ConsignmentService) GetByID(ctx context.Context, id uuid.UUID) (*ConsignmentResponse, error) {
	c, err := s.consignmentRepo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundAs(err, fmt.Sprintf("Consignment %s not found", id))
	}
	response := ToConsignmentResponse(c)
	return &response, nil
}

// List retrieves consignments, newest first by default
func (s *ConsignmentService) List(ctx context.Context, filter ListFilter) ([]ConsignmentListItemResponse, int64, error) {
	domainFilter := consignment.Filter{Filter: shared.DefaultFilter(), CustomerID: filter.CustomerID}
	if filter.Page > 0 {
		domainFilter.Page = filter.Page
	}
	if filter.PageSize > 0 {
		domainFilter.PageSize = filter.PageSize
	}
	if filter.OrderBy != "" {
		domainFilter.OrderBy = filter.OrderBy
	}
	if filter.OrderDir != "" {
		domainFilter.OrderDir = filter.OrderDir
	}
	if filter.Status != nil && *filter.Status != "" {
		status := consignment.Status(*filter.Status)
		if !status.IsValid() {
			return nil, 0, shared.NewDomainError(shared.CodeInvalidInput, "Invalid status: "+*filter.Status)
		}
		domainFilter.Status = &status
	}

	items, err := s.consignmentRepo.FindAll(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.consignmentRepo.Count(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	responses := make([]ConsignmentListItemResponse, len(items))
	for i := range items {
		responses[i] = ToConsignmentListItemResponse(&items[i])
	}
	return responses, total, nil
}

// Summary returns dashboard figures over all consignments
func (s *ConsignmentService) Summary(ctx context.Context) (*SummaryResponse, error) {
	sum, err := s.consignmentRepo.Summary(ctx)
	if err != nil {
		return nil, err
	}
	return &SummaryResponse{
		OpenCount:        sum.OpenCount,
		ActiveCount:      sum.ActiveCount,
		OutstandingValue: sum.OutstandingValue,
		TotalSoldValue:   sum.TotalSoldValue,
	}, nil
}

// ListMovements returns a product's movement log, newest first
func (s *ConsignmentService) ListMovements(ctx context.Context, productID uuid.UUID, filter MovementFilter) ([]MovementResponse, int64, error) {
	if _, err := s.productRepo.FindByID(ctx, productID); err != nil {
		return nil, 0, notFoundAs(err, fmt.Sprintf("Product %s not found", productID))
	}

	f := shared.DefaultFilter()
	f.OrderBy = "occurred_at"
	if filter.Page > 0 {
		f.Page = filter.Page
	}
	if filter.PageSize > 0 {
		f.PageSize = filter.PageSize
	}

	movements, err := s.movementRepo.FindByProduct(ctx, productID, f)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.movementRepo.CountByProduct(ctx, productID)
	if err != nil {
		return nil, 0, err
	}

	responses := make([]MovementResponse, len(movements))
	for i := range movements {
		responses[i] = ToMovementResponse(&movements[i])
	}
	return responses, total, nil
}

func (s *ConsignmentService) publishEvents(ctx context.Context, c *consignment.Consignment) {
	events := c.PullDomainEvents()
	if s.eventPublisher == nil || len(events) == 0 {
		return
	}
	if err := s.eventPublisher.Publish(ctx, events...); err != nil {
		// The workflow already committed; a failed publish is only logged.
		s.logger.Error("failed to publish consignment events",
			zap.String("consignment_id", c.ID.String()),
			zap.Error(err),
		)
	}
}

// obtainLocks takes the named locks in sorted order and returns a function
// that releases all of them.
func (s *ConsignmentService) obtainLocks(ctx context.Context, keys ...string) (func(), error) {
	if s.locker == nil || len(keys) == 0 {
		return func() {}, nil
	}

	sorted := append([]string(nil), keys...)
	sort.Strings(sorted)

	held := make([]Lock, 0, len(sorted))
	releaseAll := func() {
		for i := len(held) - 1; i >= 0; i-- {
			if err := held[i].Release(context.WithoutCancel(ctx)); err != nil {
				s.logger.Warn("failed to release lock", zap.Error(err))
			}
		}
	}

	for _, key := range sorted {
		lock, err := s.locker.Obtain(ctx, key, s.cfg.LockTTL)
		if err != nil {
			releaseAll()
			return nil, shared.NewDomainError(shared.CodeConcurrencyConflict,
				fmt.Sprintf("Resource %s is busy, try again: %v", key, err))
		}
		held = append(held, lock)
	}
	return releaseAll, nil
}

// ==================== workflow helpers ====================

func consignmentLockKey(id uuid.UUID) string {
	return "consignment:" + id.String()
}

func productLockKeys(ids []uuid.UUID) []string {
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = "product:" + id.String()
	}
	return keys
}

func lineProductIDs(lines []CreateLineInput) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(lines))
	ids := make([]uuid.UUID, 0, len(lines))
	for _, l := range lines {
		if _, ok := seen[l.ProductID]; ok {
			continue
		}
		seen[l.ProductID] = struct{}{}
		ids = append(ids, l.ProductID)
	}
	return ids
}

func adjustmentProductIDs(adjustments []consignment.StockAdjustment) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(adjustments))
	ids := make([]uuid.UUID, 0, len(adjustments))
	for _, a := range adjustments {
		if _, ok := seen[a.ProductID]; ok {
			continue
		}
		seen[a.ProductID] = struct{}{}
		ids = append(ids, a.ProductID)
	}
	return ids
}

// loadProductsForUpdate row-locks the products in ID order so that two
// workflows touching overlapping products cannot deadlock.
func loadProductsForUpdate(ctx context.Context, repo catalog.ProductRepository, ids []uuid.UUID) (map[uuid.UUID]*catalog.Product, error) {
	sorted := append([]uuid.UUID(nil), ids...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].String() < sorted[j].String() })

	products := make(map[uuid.UUID]*catalog.Product, len(sorted))
	for _, id := range sorted {
		p, err := repo.FindByIDForUpdate(ctx, id)
		if err != nil {
			return nil, notFoundAs(err, fmt.Sprintf("Product %s not found", id))
		}
		products[id] = p
	}
	return products, nil
}

func findConsignmentForUpdate(ctx context.Context, repo consignment.ConsignmentRepository, id uuid.UUID) (*consignment.Consignment, error) {
	c, err := repo.FindByIDForUpdate(ctx, id)
	if err != nil {
		return nil, notFoundAs(err, fmt.Sprintf("Consignment %s not found", id))
	}
	return c, nil
}

// checkAvailability sums the requested quantity per product and compares it
// with the on-hand counter.
func checkAvailability(lines []CreateLineInput, products map[uuid.UUID]*catalog.Product) error {
	requested := make(map[uuid.UUID]int, len(lines))
	for _, l := range lines {
		requested[l.ProductID] += l.Quantity
	}
	for _, l := range lines {
		p := products[l.ProductID]
		if !p.HasStock(requested[l.ProductID]) {
			return shared.NewDomainError(shared.CodeInsufficientStock,
				fmt.Sprintf("Insufficient stock for product %s. Available: %d, requested: %d",
					p.Name, p.OnHand, requested[l.ProductID]))
		}
	}
	return nil
}

func buildLineSpecs(lines []CreateLineInput, products map[uuid.UUID]*catalog.Product, customer *partner.Customer) []consignment.LineSpec {
	specs := make([]consignment.LineSpec, len(lines))
	for i, l := range lines {
		p := products[l.ProductID]
		spec := consignment.LineSpec{
			ProductID:         p.ID,
			ProductName:       p.Name,
			Quantity:          l.Quantity,
			UnitPrice:         p.UnitPrice,
			CommissionPercent: customer.DefaultCommissionPercent,
		}
		if l.UnitPrice != nil {
			spec.UnitPrice = *l.UnitPrice
		}
		if l.CommissionPercent != nil {
			spec.CommissionPercent = *l.CommissionPercent
		}
		specs[i] = spec
	}
	return specs
}

// stockOut takes the given lines' units out of stock and logs one movement per line
func stockOut(ctx context.Context, repos TransactionalRepositories, c *consignment.Consignment, lines []consignment.Line, products map[uuid.UUID]*catalog.Product) error {
	movements := make([]*inventory.StockMovement, 0, len(lines))
	for _, line := range lines {
		p := products[line.ProductID]
		before := p.OnHand
		if err := p.DecreaseStock(line.Sent); err != nil {
			return err
		}
		m, err := inventory.NewStockMovement(p.ID, inventory.ReasonConsignmentOut, line.Sent, before,
			inventory.SourceTypeConsignment, c.ID.String(), c.Reference())
		if err != nil {
			return err
		}
		movements = append(movements, m.WithSourceLineID(line.ID.String()))
	}
	return persistStock(ctx, repos, products, movements)
}

// applyAdjustments moves the product counters as a settlement requires and
// logs one movement per adjustment.
func applyAdjustments(ctx context.Context, repos TransactionalRepositories, c *consignment.Consignment, adjustments []consignment.StockAdjustment, products map[uuid.UUID]*catalog.Product) error {
	movements := make([]*inventory.StockMovement, 0, len(adjustments))
	for _, a := range adjustments {
		p := products[a.ProductID]
		before := p.OnHand

		if a.Reason.Direction() == inventory.DirectionOut {
			if !p.HasStock(a.Quantity) {
				return shared.NewDomainError(shared.CodeInvariantViolation,
					fmt.Sprintf("Return correction on line %s would drive stock of product %s below zero. Available: %d, correction: %d",
						a.LineID, p.Name, p.OnHand, a.Quantity))
			}
			if err := p.DecreaseStock(a.Quantity); err != nil {
				return err
			}
		} else if err := p.IncreaseStock(a.Quantity); err != nil {
			return err
		}

		m, err := inventory.NewStockMovement(p.ID, a.Reason, a.Quantity, before,
			inventory.SourceTypeConsignment, c.ID.String(), movementNote(a.Reason, c))
		if err != nil {
			return err
		}
		movements = append(movements, m.WithSourceLineID(a.LineID.String()))
	}
	return persistStock(ctx, repos, products, movements)
}

func persistStock(ctx context.Context, repos TransactionalRepositories, products map[uuid.UUID]*catalog.Product, movements []*inventory.StockMovement) error {
	ids := make([]uuid.UUID, 0, len(products))
	for id := range products {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })

	for _, id := range ids {
		if err := repos.ProductRepo().Save(ctx, products[id]); err != nil {
			return fmt.Errorf("save product %s: %w", id, err)
		}
	}
	if len(movements) == 0 {
		return nil
	}
	if err := repos.MovementRepo().CreateBatch(ctx, movements); err != nil {
		return fmt.Errorf("append stock movements: %w", err)
	}
	return nil
}

func movementNote(reason inventory.Reason, c *consignment.Consignment) string {
	switch reason {
	case inventory.ReasonConsignmentReturn:
		return "Return - " + c.Reference()
	case inventory.ReasonReturnCorrection:
		return "Return correction - " + c.Reference()
	case inventory.ReasonConsignmentClose:
		return "Close return - " + c.Reference()
	}
	return c.Reference()
}

func notFoundAs(err error, message string) error {
	if errors.Is(err, shared.ErrNotFound) {
		return shared.NewDomainError(shared.CodeNotFound, message)
	}
	return err
}
