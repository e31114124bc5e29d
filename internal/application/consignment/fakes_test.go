package consignment

import (
	"context"
	"sort"
	"time"

	"github.com/erp/consignment/internal/domain/catalog"
	"github.com/erp/consignment/internal/domain/consignment"
	"github.com/erp/consignment/internal/domain/inventory"
	"github.com/erp/consignment/internal/domain/partner"
	"github.com/erp/consignment/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// MockCustomerRepository is a mock implementation of CustomerRepository
type MockCustomerRepository struct {
	mock.Mock
}

func (m *MockCustomerRepository) FindByID(ctx context.Context, id uuid.UUID) (*partner.Customer, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*partner.Customer), args.Error(1)
}

func (m *MockCustomerRepository) Save(ctx context.Context, customer *partner.Customer) error {
	args := m.Called(ctx, customer)
	return args.Error(0)
}

// MockLocker is a mock implementation of Locker
type MockLocker struct {
	mock.Mock
}

func (m *MockLocker) Obtain(ctx context.Context, key string, ttl time.Duration) (Lock, error) {
	args := m.Called(ctx, key, ttl)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(Lock), args.Error(1)
}

// MockLock is a mock implementation of Lock
type MockLock struct {
	mock.Mock
}

func (m *MockLock) Release(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// memStore keeps products, consignments and movements in memory and
// restores a snapshot when a transaction fails.
type memStore struct {
	products     map[uuid.UUID]*catalog.Product
	consignments map[uuid.UUID]*consignment.Consignment
	movements    []inventory.StockMovement
}

func newMemStore() *memStore {
	return &memStore{
		products:     make(map[uuid.UUID]*catalog.Product),
		consignments: make(map[uuid.UUID]*consignment.Consignment),
	}
}

func cloneProduct(p *catalog.Product) *catalog.Product {
	cp := *p
	return &cp
}

func cloneConsignment(c *consignment.Consignment) *consignment.Consignment {
	cp := *c
	cp.Lines = append([]consignment.Line(nil), c.Lines...)
	cp.ClearDomainEvents()
	return &cp
}

func (s *memStore) addProduct(name string, price int64, onHand int) *catalog.Product {
	p, err := catalog.NewProduct("SKU-"+name, name, decimal.NewFromInt(price), onHand)
	if err != nil {
		panic(err)
	}
	s.products[p.ID] = cloneProduct(p)
	return p
}

func (s *memStore) onHand(id uuid.UUID) int {
	return s.products[id].OnHand
}

func (s *memStore) setOnHand(id uuid.UUID, qty int) {
	s.products[id].OnHand = qty
}

func (s *memStore) movementsFor(productID uuid.UUID) []inventory.StockMovement {
	var out []inventory.StockMovement
	for _, m := range s.movements {
		if m.ProductID == productID {
			out = append(out, m)
		}
	}
	return out
}

// --- TransactionScope ---

type memTxScope struct {
	store *memStore
}

func (t *memTxScope) Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error {
	s := t.store
	products := make(map[uuid.UUID]*catalog.Product, len(s.products))
	for id, p := range s.products {
		products[id] = cloneProduct(p)
	}
	consignments := make(map[uuid.UUID]*consignment.Consignment, len(s.consignments))
	for id, c := range s.consignments {
		consignments[id] = cloneConsignment(c)
	}
	movements := append([]inventory.StockMovement(nil), s.movements...)

	if err := fn(t); err != nil {
		s.products = products
		s.consignments = consignments
		s.movements = movements
		return err
	}
	return nil
}

func (t *memTxScope) ProductRepo() catalog.ProductRepository {
	return &memProductRepo{store: t.store}
}

func (t *memTxScope) ConsignmentRepo() consignment.ConsignmentRepository {
	return &memConsignmentRepo{store: t.store}
}

func (t *memTxScope) MovementRepo() inventory.StockMovementRepository {
	return &memMovementRepo{store: t.store}
}

// --- ProductRepository ---

type memProductRepo struct {
	store *memStore
}

func (r *memProductRepo) FindByID(_ context.Context, id uuid.UUID) (*catalog.Product, error) {
	p, ok := r.store.products[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return cloneProduct(p), nil
}

func (r *memProductRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	return r.FindByID(ctx, id)
}

func (r *memProductRepo) FindByIDs(_ context.Context, ids []uuid.UUID) ([]catalog.Product, error) {
	var out []catalog.Product
	for _, id := range ids {
		if p, ok := r.store.products[id]; ok {
			out = append(out, *cloneProduct(p))
		}
	}
	return out, nil
}

func (r *memProductRepo) Save(_ context.Context, p *catalog.Product) error {
	r.store.products[p.ID] = cloneProduct(p)
	return nil
}

// --- ConsignmentRepository ---

type memConsignmentRepo struct {
	store *memStore
}

func (r *memConsignmentRepo) FindByID(_ context.Context, id uuid.UUID) (*consignment.Consignment, error) {
	c, ok := r.store.consignments[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return cloneConsignment(c), nil
}

func (r *memConsignmentRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*consignment.Consignment, error) {
	return r.FindByID(ctx, id)
}

func (r *memConsignmentRepo) matching(filter consignment.Filter) []consignment.Consignment {
	var out []consignment.Consignment
	for _, c := range r.store.consignments {
		if filter.Status != nil && c.Status != *filter.Status {
			continue
		}
		if filter.CustomerID != nil && c.CustomerID != *filter.CustomerID {
			continue
		}
		out = append(out, *cloneConsignment(c))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SentAt.After(out[j].SentAt) })
	return out
}

func (r *memConsignmentRepo) FindAll(_ context.Context, filter consignment.Filter) ([]consignment.Consignment, error) {
	return r.matching(filter), nil
}

func (r *memConsignmentRepo) Count(_ context.Context, filter consignment.Filter) (int64, error) {
	return int64(len(r.matching(filter))), nil
}

func (r *memConsignmentRepo) Save(_ context.Context, c *consignment.Consignment) error {
	r.store.consignments[c.ID] = cloneConsignment(c)
	return nil
}

func (r *memConsignmentRepo) SaveWithLock(_ context.Context, c *consignment.Consignment) error {
	stored, ok := r.store.consignments[c.ID]
	if !ok {
		return shared.ErrNotFound
	}
	if stored.Version != c.Version {
		return shared.ErrConcurrencyConflict
	}
	c.Version++
	r.store.consignments[c.ID] = cloneConsignment(c)
	return nil
}

func (r *memConsignmentRepo) Summary(_ context.Context) (*consignment.Summary, error) {
	sum := &consignment.Summary{OutstandingValue: decimal.Zero, TotalSoldValue: decimal.Zero}
	for _, c := range r.store.consignments {
		if c.Status == consignment.StatusOpen {
			sum.OpenCount++
		}
		if !c.IsClosed() {
			sum.ActiveCount++
			sum.OutstandingValue = sum.OutstandingValue.Add(c.OutstandingValue())
		}
		sum.TotalSoldValue = sum.TotalSoldValue.Add(c.TotalSoldValue)
	}
	return sum, nil
}

// --- StockMovementRepository ---

type memMovementRepo struct {
	store *memStore
}

func (r *memMovementRepo) Create(_ context.Context, m *inventory.StockMovement) error {
	r.store.movements = append(r.store.movements, *m)
	return nil
}

func (r *memMovementRepo) CreateBatch(ctx context.Context, ms []*inventory.StockMovement) error {
	for _, m := range ms {
		if err := r.Create(ctx, m); err != nil {
			return err
		}
	}
	return nil
}

func (r *memMovementRepo) FindByProduct(_ context.Context, productID uuid.UUID, _ shared.Filter) ([]inventory.StockMovement, error) {
	out := r.store.movementsFor(productID)
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

func (r *memMovementRepo) CountByProduct(_ context.Context, productID uuid.UUID) (int64, error) {
	return int64(len(r.store.movementsFor(productID))), nil
}

func (r *memMovementRepo) FindBySource(_ context.Context, sourceType inventory.SourceType, sourceID string) ([]inventory.StockMovement, error) {
	var out []inventory.StockMovement
	for _, m := range r.store.movements {
		if m.SourceType == sourceType && m.SourceID == sourceID {
			out = append(out, m)
		}
	}
	return out, nil
}

// --- IdempotencyStore ---

type memIdempotencyStore struct {
	keys map[string]bool // key -> completed
}

func newMemIdempotencyStore() *memIdempotencyStore {
	return &memIdempotencyStore{keys: make(map[string]bool)}
}

func (s *memIdempotencyStore) MarkProcessed(_ context.Context, key string, _ time.Duration) (bool, error) {
	if _, ok := s.keys[key]; ok {
		return false, nil
	}
	s.keys[key] = false
	return true, nil
}

func (s *memIdempotencyStore) Complete(_ context.Context, key string, _ time.Duration) error {
	s.keys[key] = true
	return nil
}

func (s *memIdempotencyStore) IsProcessed(_ context.Context, key string) (bool, error) {
	_, ok := s.keys[key]
	return ok, nil
}

func (s *memIdempotencyStore) IsCompleted(_ context.Context, key string) (bool, error) {
	return s.keys[key], nil
}

func (s *memIdempotencyStore) Forget(_ context.Context, key string) error {
	delete(s.keys, key)
	return nil
}

func (s *memIdempotencyStore) Close() error { return nil }

// --- EventPublisher ---

type recordingPublisher struct {
	events []shared.DomainEvent
}

func (p *recordingPublisher) Publish(_ context.Context, events ...shared.DomainEvent) error {
	p.events = append(p.events, events...)
	return nil
}

func (p *recordingPublisher) types() []string {
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.EventType()
	}
	return out
}
