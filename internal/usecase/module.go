package usecase

import (
	"log/slog"

	"go.uber.org/fx"

	"github.com/polkiloo/storefront/internal/config"
	"github.com/polkiloo/storefront/internal/domain/repository"
	"github.com/polkiloo/storefront/internal/notification"
)

// Module provides core business use cases to the fx container.
// The offer policy joins the notification channels so it runs off the request path.
var Module = fx.Provide(
	newOrderUseCase,
	fx.Annotate(
		NewOfferPolicy,
		fx.As(new(notification.Channel)),
		fx.ResultTags(`group:"notification_channels"`),
	),
	func(d *notification.Dispatcher) Notifier { return d },
)

type orderParams struct {
	fx.In

	Store    repository.TieredStore
	Notifier Notifier
	Config   *config.Config
	Logger   *slog.Logger
}

func newOrderUseCase(p orderParams) *OrderUseCase {
	return NewOrderUseCase(p.Store, p.Notifier, p.Config.OrderIDPrefix, p.Logger)
}
