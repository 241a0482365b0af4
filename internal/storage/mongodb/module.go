package mongodb

import (
	"context"
	"log/slog"

	"go.uber.org/fx"

	"github.com/polkiloo/storefront/internal/config"
	"github.com/polkiloo/storefront/internal/domain/repository"
)

// Module contributes the MongoDB tier to the order store group when MONGO_URI is set.
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
	if p.Config.MongoURI == "" {
		p.Logger.Info("mongodb tier disabled")
		return storeResult{}, nil
	}
	storage, err := New(p.Ctx, p.Config.MongoURI, p.Config.MongoDatabase, p.Config.StoreTimeout, p.Logger)
	if err != nil {
		return storeResult{}, err
	}
	return storeResult{Stores: []repository.OrderStore{storage}}, nil
}
