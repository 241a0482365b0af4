package whatsapp

import (
	"log/slog"

	"go.uber.org/fx"

	"github.com/polkiloo/storefront/internal/config"
	"github.com/polkiloo/storefront/internal/notification"
)

// Module contributes the WhatsApp channel when a token and operations number are configured.
var Module = fx.Provide(newChannels)

type channelParams struct {
	fx.In

	Config *config.Config
	Logger *slog.Logger
}

type channelResult struct {
	fx.Out

	Channels []notification.Channel `group:"notification_channels,flatten"`
}

func newChannels(p channelParams) (channelResult, error) {
	cfg := p.Config
	if cfg.WhatsAppToken == "" || cfg.WhatsAppOpsNumber == "" {
		p.Logger.Info("whatsapp notifications disabled")
		return channelResult{}, nil
	}
	client, err := NewClient(cfg.WhatsAppAPIURL, cfg.WhatsAppPhoneID, cfg.WhatsAppToken, p.Logger)
	if err != nil {
		return channelResult{}, err
	}
	return channelResult{Channels: []notification.Channel{NewOpsChannel(client, cfg.WhatsAppOpsNumber)}}, nil
}
