package handlers

import (
	"context"

	"github.com/polkiloo/storefront/internal/domain/model"
	"github.com/polkiloo/storefront/internal/domain/repository"
)

// IdentityFacade verifies identity tokens.
type IdentityFacade interface {
	ParseToken(token string) (*model.Identity, error)
}

// OrderFacade encapsulates order operations exposed via HTTP.
type OrderFacade interface {
	CreateOrder(ctx context.Context, input model.OrderInput) (*model.Order, error)
	Order(ctx context.Context, id string) (*model.Order, error)
	Orders(ctx context.Context) (repository.Listing, error)
	UpdateOrderStatus(ctx context.Context, id string, status model.OrderStatus, payment *model.PaymentStatus) (*model.Order, error)
}

// HealthFacade reports runtime state of storage and notifications.
type HealthFacade interface {
	StorageStatus() []repository.TierStatus
	NotificationChannels() []string
}

// StorefrontFacade aggregates the full set of operations used across handlers.
type StorefrontFacade interface {
	IdentityFacade
	OrderFacade
	HealthFacade
}
