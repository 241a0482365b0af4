package auth

import (
	"errors"
	"log/slog"

	"go.uber.org/fx"

	"github.com/polkiloo/storefront/internal/config"
)

// Module provides identity token verification via fx.
var Module = fx.Provide(newTokenStrategy)

var errDefaultSecret = errors.New("IDENTITY_SECRET must be set when persistent storage is configured")

type strategyParams struct {
	fx.In

	Config *config.Config
	Logger *slog.Logger
}

func newTokenStrategy(p strategyParams) (Strategy, error) {
	if p.Config.DefaultIdentitySecret() {
		if p.Config.PersistentStorage() {
			return nil, errDefaultSecret
		}
		p.Logger.Warn("identity tokens use the built-in secret, set IDENTITY_SECRET")
	}
	return NewJWTStrategy(p.Config.IdentitySecret, Options{}), nil
}
