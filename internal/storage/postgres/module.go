package postgres

import (
	"context"
	"log/slog"

	"go.uber.org/fx"

	"github.com/polkiloo/storefront/internal/config"
	"github.com/polkiloo/storefront/internal/domain/repository"
)

// Module contributes the PostgreSQL tier to the order store group when DATABASE_URI is set.
var Module = fx.Provide(newStore)

type storageParams struct {
	fx.In

	Ctx    context.Context
	Config *config.Config
	Logger *slog.Logger
}

type storeResult struct {
	fx.Out

	Stores []repository.OrderStore `group:"order_stores,flatten"`
}

func newStore(p storageParams) (storeResult, error) {
	if p.Config.DatabaseURI == "" {
		p.Logger.Info("postgres tier disabled")
		return storeResult{}, nil
	}
	storage, err := New(p.Ctx, p.Config.DatabaseURI, p.Logger)
	if err != nil {
		return storeResult{}, err
	}
	return storeResult{Stores: []repository.OrderStore{storage}}, nil
}
