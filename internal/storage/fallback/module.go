package fallback

import (
	"context"
	"errors"
	"log/slog"

	"go.uber.org/fx"

	"github.com/polkiloo/storefront/internal/config"
	"github.com/polkiloo/storefront/internal/domain/repository"
	"github.com/polkiloo/storefront/internal/storage/memory"
)

// Module builds the chain from every store contributed to the "order_stores" group.
var Module = fx.Options(
	fx.Provide(newChain),
	fx.Invoke(registerLifecycle),
)

type chainParams struct {
	fx.In

	Stores []repository.OrderStore `group:"order_stores"`
	Config *config.Config
	Logger *slog.Logger
}

type chainResult struct {
	fx.Out

	Chain  *Chain
	Tiered repository.TieredStore
}

func newChain(p chainParams) chainResult {
	tiers := Prioritize(p.Stores, p.Config.StorePriority, p.Logger)
	names := make([]string, 0, len(tiers))
	for _, t := range tiers {
		names = append(names, t.Name())
	}
	p.Logger.Info("order storage chain", slog.Any("tiers", names), slog.Int("memory_capacity", p.Config.MemoryCapacity))

	chain := New(tiers, memory.New(p.Config.MemoryCapacity), Options{
		TierTimeout: p.Config.StoreTimeout,
		Cooldown:    p.Config.StoreDegradedCooldown,
	}, p.Logger)
	return chainResult{Chain: chain, Tiered: chain}
}

// Prioritize orders stores by their position in priority. Stores not named there are left out.
func Prioritize(stores []repository.OrderStore, priority []string, logger *slog.Logger) []repository.OrderStore {
	byName := make(map[string]repository.OrderStore, len(stores))
	for _, s := range stores {
		byName[s.Name()] = s
	}

	result := make([]repository.OrderStore, 0, len(stores))
	for _, name := range priority {
		if s, ok := byName[name]; ok {
			result = append(result, s)
			delete(byName, name)
		}
	}
	for name := range byName {
		logger.Warn("store configured but not listed in priority", slog.String("tier", name))
	}
	return result
}

func registerLifecycle(lc fx.Lifecycle, p chainParams) {
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			var errs []error
			for _, s := range p.Stores {
				if c, ok := s.(repository.Closer); ok {
					if err := c.Close(ctx); err != nil {
						errs = append(errs, err)
					}
				}
			}
			return errors.Join(errs...)
		},
	})
}
