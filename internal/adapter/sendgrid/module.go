package sendgrid

import (
	"log/slog"

	"go.uber.org/fx"

	"github.com/polkiloo/storefront/internal/config"
	"github.com/polkiloo/storefront/internal/notification"
)

// Module contributes email channels when a SendGrid key is configured.
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

func newChannels(p channelParams) channelResult {
	if p.Config.SendGridAPIKey == "" {
		p.Logger.Info("email notifications disabled")
		return channelResult{}
	}
	return channelResult{Channels: channels(NewMailer(p.Config.SendGridAPIKey, p.Config.EmailFrom, p.Logger), p.Config.OpsEmail)}
}

func channels(mailer *Mailer, opsEmail string) []notification.Channel {
	out := []notification.Channel{NewCustomerChannel(mailer)}
	if opsEmail != "" {
		out = append(out, NewWarehouseChannel(mailer, opsEmail))
	}
	return out
}
