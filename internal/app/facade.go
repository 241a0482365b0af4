package app

import (
	"context"

	"github.com/polkiloo/storefront/internal/domain/model"
	"github.com/polkiloo/storefront/internal/domain/repository"
	pkgAuth "github.com/polkiloo/storefront/internal/pkg/auth"
	"github.com/polkiloo/storefront/internal/usecase"
)

// ChannelLister reports configured notification channels.
type ChannelLister interface {
	Channels() []string
}

type StorefrontFacade struct {
	identity pkgAuth.Strategy
	orders   *usecase.OrderUseCase
	channels ChannelLister
}

func NewStorefrontFacade(identity pkgAuth.Strategy, orders *usecase.OrderUseCase, channels ChannelLister) *StorefrontFacade {
	return &StorefrontFacade{identity: identity, orders: orders, channels: channels}
}

func (f *StorefrontFacade) ParseToken(token string) (*model.Identity, error) {
	return f.identity.ParseToken(token)
}

func (f *StorefrontFacade) CreateOrder(ctx context.Context, input model.OrderInput) (*model.Order, error) {
	return f.orders.CreateOrder(ctx, input)
}

func (f *StorefrontFacade) Order(ctx context.Context, id string) (*model.Order, error) {
	return f.orders.GetOrder(ctx, id)
}

func (f *StorefrontFacade) Orders(ctx context.Context) (repository.Listing, error) {
	return f.orders.ListOrders(ctx)
}

func (f *StorefrontFacade) UpdateOrderStatus(ctx context.Context, id string, status model.OrderStatus, payment *model.PaymentStatus) (*model.Order, error) {
	return f.orders.UpdateStatus(ctx, id, status, payment)
}

func (f *StorefrontFacade) StorageStatus() []repository.TierStatus {
	return f.orders.StorageStatus()
}

func (f *StorefrontFacade) NotificationChannels() []string {
	return f.channels.Channels()
}
