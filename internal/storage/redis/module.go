package redis

import (
	"context"
	"log/slog"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/fx"

	"github.com/polkiloo/storefront/internal/config"
	"github.com/polkiloo/storefront/internal/domain/repository"
	"github.com/polkiloo/storefront/internal/storage/memory"
)

// Module wires the Redis client, the Redis order tier and the offer ledger.
// Without REDIS_ADDR the tier is absent and offers are tracked in memory.
var Module = fx.Options(
	fx.Provide(newClient, newStore, newOfferLedger),
	fx.Invoke(registerLifecycle),
)

type clientParams struct {
	fx.In

	Config *config.Config
	Logger *slog.Logger
}

func newClient(p clientParams) *goredis.Client {
	if p.Config.RedisAddr == "" {
		p.Logger.Info("redis disabled")
		return nil
	}
	return goredis.NewClient(&goredis.Options{
		Addr:        p.Config.RedisAddr,
		DialTimeout: p.Config.StoreTimeout,
		ReadTimeout: p.Config.StoreTimeout,
	})
}

type storeParams struct {
	fx.In

	Client *goredis.Client
	Config *config.Config
	Logger *slog.Logger
}

type storeResult struct {
	fx.Out

	Stores []repository.OrderStore `group:"order_stores,flatten"`
}

func newStore(p storeParams) storeResult {
	if p.Client == nil {
		return storeResult{}
	}
	return storeResult{Stores: []repository.OrderStore{New(p.Client, p.Config.RedisPrefix, p.Logger)}}
}

func newOfferLedger(p storeParams) repository.OfferLedger {
	if p.Client == nil {
		return memory.NewOfferLedger()
	}
	return NewOfferLedger(p.Client, p.Config.RedisPrefix, 0)
}

func registerLifecycle(lc fx.Lifecycle, client *goredis.Client) {
	if client == nil {
		return
	}
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return client.Close()
		},
	})
}
