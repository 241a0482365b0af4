package test

import (
	"context"
	"sync"
	"time"

	domainErrors "github.com/polkiloo/storefront/internal/domain/errors"
	"github.com/polkiloo/storefront/internal/domain/model"
	"github.com/polkiloo/storefront/internal/domain/repository"
)

// CreateCall records input passed to CreateOrder.
type CreateCall struct {
	Input model.OrderInput
}

// StatusCall records arguments passed to UpdateOrderStatus.
type StatusCall struct {
	ID      string
	Status  model.OrderStatus
	Payment *model.PaymentStatus
}

// StorefrontFacadeStub provides controllable behaviour for HTTP endpoints.
type StorefrontFacadeStub struct {
	TokenParserStub

	CreateFn func(context.Context, model.OrderInput) (*model.Order, error)
	OrderFn  func(context.Context, string) (*model.Order, error)
	OrdersFn func(context.Context) (repository.Listing, error)
	UpdateFn func(context.Context, string, model.OrderStatus, *model.PaymentStatus) (*model.Order, error)
	Tiers    []repository.TierStatus
	Channels []string

	mu      sync.Mutex
	Creates []CreateCall
	Updates []StatusCall
}

// CreateOrder delegates to CreateFn or echoes a pending order built from input.
func (s *StorefrontFacadeStub) CreateOrder(ctx context.Context, input model.OrderInput) (*model.Order, error) {
	s.mu.Lock()
	s.Creates = append(s.Creates, CreateCall{Input: input})
	s.mu.Unlock()
	if s.CreateFn != nil {
		return s.CreateFn(ctx, input)
	}
	total, final := model.Totals(input.Items, input.DiscountAmount)
	id := input.ID
	if id == "" {
		id = "ORD-1"
	}
	order := &model.Order{
		ID:             id,
		Customer:       input.Customer,
		Items:          input.Items,
		TotalAmount:    total,
		DiscountAmount: input.DiscountAmount,
		FinalAmount:    final,
		Status:         model.OrderStatusPending,
		PaymentStatus:  model.PaymentStatusPending,
		CreatedAt:      time.Unix(0, 0).UTC(),
		UpdatedAt:      time.Unix(0, 0).UTC(),
	}
	if input.Identity != nil {
		order.UserID = input.Identity.UserID
	}
	return order, nil
}

// Order delegates to OrderFn or reports not found.
func (s *StorefrontFacadeStub) Order(ctx context.Context, id string) (*model.Order, error) {
	if s.OrderFn != nil {
		return s.OrderFn(ctx, id)
	}
	return nil, domainErrors.ErrNotFound
}

// Orders delegates to OrdersFn or returns an empty listing.
func (s *StorefrontFacadeStub) Orders(ctx context.Context) (repository.Listing, error) {
	if s.OrdersFn != nil {
		return s.OrdersFn(ctx)
	}
	return repository.Listing{Orders: []model.Order{}, Source: "stub"}, nil
}

// UpdateOrderStatus records the call and delegates to UpdateFn.
func (s *StorefrontFacadeStub) UpdateOrderStatus(ctx context.Context, id string, status model.OrderStatus, payment *model.PaymentStatus) (*model.Order, error) {
	s.mu.Lock()
	s.Updates = append(s.Updates, StatusCall{ID: id, Status: status, Payment: payment})
	s.mu.Unlock()
	if s.UpdateFn != nil {
		return s.UpdateFn(ctx, id, status, payment)
	}
	order := &model.Order{ID: id, Status: status, PaymentStatus: model.PaymentStatusPending}
	if payment != nil {
		order.PaymentStatus = *payment
	}
	return order, nil
}

// StorageStatus returns configured tiers.
func (s *StorefrontFacadeStub) StorageStatus() []repository.TierStatus {
	return s.Tiers
}

// NotificationChannels returns configured channel names.
func (s *StorefrontFacadeStub) NotificationChannels() []string {
	return s.Channels
}
