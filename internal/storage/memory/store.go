package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"

	domainErrors "github.com/polkiloo/storefront/internal/domain/errors"
	"github.com/polkiloo/storefront/internal/domain/model"
)

// TierName identifies the in-process tier.
const TierName = "memory"

// ErrCapacityExhausted is returned when the store holds Capacity orders already.
var ErrCapacityExhausted = errors.New("memory capacity exhausted")

// Store keeps orders in process memory. It is the last resort of the fallback chain.
type Store struct {
	mu       sync.RWMutex
	orders   map[string]model.Order
	order    []string
	capacity int
}

// New creates an empty store. A non-positive capacity means unbounded.
func New(capacity int) *Store {
	return &Store{orders: make(map[string]model.Order), capacity: capacity}
}

func (s *Store) Name() string { return TierName }

// Create stores a copy of order unless it is malformed, duplicated or the store is full.
func (s *Store) Create(_ context.Context, order model.Order) (*model.Order, error) {
	if err := checkShape(order); err != nil {
		return nil, domainErrors.Constraint(TierName, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.orders[order.ID]; exists {
		return nil, domainErrors.Constraint(TierName, fmt.Errorf("order %s already exists", order.ID))
	}
	if s.capacity > 0 && len(s.orders) >= s.capacity {
		return nil, domainErrors.Constraint(TierName, ErrCapacityExhausted)
	}

	stored := order.Clone()
	s.orders[order.ID] = stored
	s.order = append(s.order, order.ID)
	out := stored.Clone()
	return &out, nil
}

func (s *Store) GetByID(_ context.Context, id string) (*model.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	order, ok := s.orders[id]
	if !ok {
		return nil, domainErrors.NotFound(TierName)
	}
	out := order.Clone()
	return &out, nil
}

// List returns orders in insertion order.
func (s *Store) List(_ context.Context) ([]model.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]model.Order, 0, len(s.order))
	for _, id := range s.order {
		result = append(result, s.orders[id].Clone())
	}
	return result, nil
}

func (s *Store) UpdateStatus(_ context.Context, id string, update model.StatusUpdate) (*model.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	order, ok := s.orders[id]
	if !ok {
		return nil, domainErrors.NotFound(TierName)
	}
	update.Apply(&order)
	s.orders[id] = order
	out := order.Clone()
	return &out, nil
}

// Len reports how many orders are held.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.orders)
}

func checkShape(order model.Order) error {
	if order.ID == "" {
		return errors.New("order id is empty")
	}
	if len(order.Items) == 0 {
		return errors.New("order has no items")
	}
	if order.CreatedAt.IsZero() {
		return errors.New("order has no creation time")
	}
	return nil
}

// IsShapeError reports whether err was produced by a malformed order rather than capacity.
func IsShapeError(err error) bool {
	return errors.Is(err, domainErrors.ErrConstraint) && !errors.Is(err, ErrCapacityExhausted)
}
