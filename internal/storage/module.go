package storage

import (
	"go.uber.org/fx"

	"github.com/polkiloo/storefront/internal/storage/fallback"
	"github.com/polkiloo/storefront/internal/storage/mongodb"
	"github.com/polkiloo/storefront/internal/storage/postgres"
	"github.com/polkiloo/storefront/internal/storage/redis"
)

// Module wires every order storage tier and the fallback chain over them.
var Module = fx.Options(
	postgres.Module,
	mongodb.Module,
	redis.Module,
	fallback.Module,
)
