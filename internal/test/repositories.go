package test

import (
	"context"
	"sync"

	domainErrors "github.com/polkiloo/storefront/internal/domain/errors"
	"github.com/polkiloo/storefront/internal/domain/model"
	"github.com/polkiloo/storefront/internal/domain/repository"
)

// OrderStoreStub keeps orders in a map and lets tests override every operation.
type OrderStoreStub struct {
	TierName       string
	CreateFn       func(context.Context, model.Order) (*model.Order, error)
	GetByIDFn      func(context.Context, string) (*model.Order, error)
	ListFn         func(context.Context) ([]model.Order, error)
	UpdateStatusFn func(context.Context, string, model.StatusUpdate) (*model.Order, error)
	// Err, when set, is returned by every operation without overrides.
	Err error

	mu      sync.Mutex
	Orders  map[string]model.Order
	Created []model.Order
	Updates []OrderUpdateCall
	Calls   map[string]int
}

// OrderUpdateCall stores information about UpdateStatus invocations.
type OrderUpdateCall struct {
	ID     string
	Update model.StatusUpdate
}

// NewOrderStoreStub constructs a named stub with initialized storage.
func NewOrderStoreStub(name string) *OrderStoreStub {
	return &OrderStoreStub{TierName: name, Orders: make(map[string]model.Order), Calls: make(map[string]int)}
}

// Name returns configured tier name.
func (s *OrderStoreStub) Name() string {
	if s.TierName == "" {
		return "stub"
	}
	return s.TierName
}

// CallCount reports how many times op was invoked.
func (s *OrderStoreStub) CallCount(op string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Calls[op]
}

func (s *OrderStoreStub) track(op string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Calls == nil {
		s.Calls = make(map[string]int)
	}
	s.Calls[op]++
}

// Create records the order and stores it unless overridden.
func (s *OrderStoreStub) Create(ctx context.Context, order model.Order) (*model.Order, error) {
	s.track("create")
	if s.CreateFn != nil {
		return s.CreateFn(ctx, order)
	}
	if s.Err != nil {
		return nil, s.Err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Orders == nil {
		s.Orders = make(map[string]model.Order)
	}
	if _, exists := s.Orders[order.ID]; exists {
		return nil, domainErrors.Constraint(s.Name(), nil)
	}
	s.Orders[order.ID] = order.Clone()
	s.Created = append(s.Created, order.Clone())
	out := order.Clone()
	return &out, nil
}

// GetByID returns stored order or not found.
func (s *OrderStoreStub) GetByID(ctx context.Context, id string) (*model.Order, error) {
	s.track("get")
	if s.GetByIDFn != nil {
		return s.GetByIDFn(ctx, id)
	}
	if s.Err != nil {
		return nil, s.Err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	order, ok := s.Orders[id]
	if !ok {
		return nil, domainErrors.NotFound(s.Name())
	}
	out := order.Clone()
	return &out, nil
}

// List returns stored orders in creation order.
func (s *OrderStoreStub) List(ctx context.Context) ([]model.Order, error) {
	s.track("list")
	if s.ListFn != nil {
		return s.ListFn(ctx)
	}
	if s.Err != nil {
		return nil, s.Err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	result := make([]model.Order, 0, len(s.Created))
	for _, created := range s.Created {
		result = append(result, s.Orders[created.ID].Clone())
	}
	return result, nil
}

// UpdateStatus records the update and applies it to the stored order.
func (s *OrderStoreStub) UpdateStatus(ctx context.Context, id string, update model.StatusUpdate) (*model.Order, error) {
	s.track("update")
	if s.UpdateStatusFn != nil {
		return s.UpdateStatusFn(ctx, id, update)
	}
	if s.Err != nil {
		return nil, s.Err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	order, ok := s.Orders[id]
	if !ok {
		return nil, domainErrors.NotFound(s.Name())
	}
	update.Apply(&order)
	s.Orders[id] = order
	s.Updates = append(s.Updates, OrderUpdateCall{ID: id, Update: update})
	out := order.Clone()
	return &out, nil
}

// TieredStoreStub wraps an OrderStoreStub with listing metadata and tier status.
type TieredStoreStub struct {
	*OrderStoreStub
	ListAllFn func(context.Context) (repository.Listing, error)
	Tiers     []repository.TierStatus
}

// ListAll returns stub orders served by the stub tier unless overridden.
func (s *TieredStoreStub) ListAll(ctx context.Context) (repository.Listing, error) {
	if s.ListAllFn != nil {
		return s.ListAllFn(ctx)
	}
	orders, err := s.List(ctx)
	if err != nil {
		return repository.Listing{}, err
	}
	return repository.Listing{Orders: orders, Source: s.Name()}, nil
}

// Status returns configured tier statuses.
func (s *TieredStoreStub) Status() []repository.TierStatus {
	return s.Tiers
}

var (
	_ repository.OrderStore  = (*OrderStoreStub)(nil)
	_ repository.TieredStore = (*TieredStoreStub)(nil)
)
