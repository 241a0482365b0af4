package di

import (
	"go.uber.org/fx"

	"github.com/polkiloo/storefront/internal/adapter/kafka"
	"github.com/polkiloo/storefront/internal/adapter/sendgrid"
	"github.com/polkiloo/storefront/internal/adapter/whatsapp"
	"github.com/polkiloo/storefront/internal/app"
	"github.com/polkiloo/storefront/internal/config"
	"github.com/polkiloo/storefront/internal/logger"
	"github.com/polkiloo/storefront/internal/notification"
	"github.com/polkiloo/storefront/internal/pkg/auth"
	"github.com/polkiloo/storefront/internal/server/http/router"
	"github.com/polkiloo/storefront/internal/storage"
	"github.com/polkiloo/storefront/internal/usecase"
)

func Module(opts ...fx.Option) fx.Option {
	modules := []fx.Option{
		config.Module,
		logger.Module,
		auth.Module,
		storage.Module,
		notification.Module,
		sendgrid.Module,
		whatsapp.Module,
		kafka.Module,
		usecase.Module,
		router.Module,
		app.Module,
	}
	modules = append(modules, opts...)
	return fx.Options(modules...)
}
