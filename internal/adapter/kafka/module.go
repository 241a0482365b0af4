package kafka

import (
	"context"
	"log/slog"

	"go.uber.org/fx"

	"github.com/polkiloo/storefront/internal/config"
	"github.com/polkiloo/storefront/internal/notification"
)

// Module contributes the warehouse event channel when brokers are configured.
var Module = fx.Provide(newChannels)

type channelParams struct {
	fx.In

	Lifecycle fx.Lifecycle
	Config    *config.Config
	Logger    *slog.Logger
}

type channelResult struct {
	fx.Out

	Channels []notification.Channel `group:"notification_channels,flatten"`
}

func newChannels(p channelParams) channelResult {
	if len(p.Config.KafkaBrokers) == 0 {
		p.Logger.Info("warehouse events disabled")
		return channelResult{}
	}
	publisher := NewPublisher(p.Config.KafkaBrokers, p.Config.KafkaTopic)
	p.Lifecycle.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return publisher.Close()
		},
	})
	return channelResult{Channels: []notification.Channel{publisher}}
}
