package di

import (
	"context"
	"io"
	"log/slog"
	"slices"
	"testing"
	"time"

	"go.uber.org/fx"

	"github.com/polkiloo/storefront/internal/app"
	"github.com/polkiloo/storefront/internal/config"
	"github.com/polkiloo/storefront/internal/domain/model"
	"github.com/polkiloo/storefront/internal/notification"
)

func TestModuleComposesMemoryOnlyGraph(t *testing.T) {
	cfg := &config.Config{
		RunAddress:      ":0",
		StorePriority:   []string{"postgres", "mongodb", "redis"},
		StoreTimeout:    time.Second,
		OrderIDPrefix:   "ORD-",
		IdentitySecret:  "secret",
		NotifyWorkers:   1,
		NotifyQueueSize: 4,
		NotifyTimeout:   time.Second,
		ShutdownTimeout: time.Millisecond,
	}
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))

	var (
		facade     *app.StorefrontFacade
		dispatcher *notification.Dispatcher
	)
	fxApp := fx.New(
		fx.NopLogger,
		fx.Provide(func() context.Context { return context.Background() }),
		Module(
			fx.Replace(cfg),
			fx.Replace(logger),
		),
		fx.Populate(&facade, &dispatcher),
	)

	if err := fxApp.Err(); err != nil {
		t.Fatalf("fx app returned error: %v", err)
	}
	t.Cleanup(func() { _ = fxApp.Stop(context.Background()) })
	if facade == nil || dispatcher == nil {
		t.Fatal("expected storefront facade and dispatcher instances")
	}

	if channels := dispatcher.Channels(); !slices.Equal(channels, []string{"offer-policy"}) {
		t.Fatalf("expected only the offer policy channel, got %v", channels)
	}
	tiers := facade.StorageStatus()
	if len(tiers) != 1 || tiers[0].Name != "memory" {
		t.Fatalf("expected memory tier only, got %+v", tiers)
	}

	order, err := facade.CreateOrder(context.Background(), model.OrderInput{
		Customer: model.Customer{Name: "Asha", Phone: "+91", Address: "12 Market Rd"},
		Items:    []model.Item{{Name: "Turmeric Powder", Quantity: 2, UnitPrice: 200}},
	})
	if err != nil {
		t.Fatalf("create returned error: %v", err)
	}
	if _, err := facade.Order(context.Background(), order.ID); err != nil {
		t.Fatalf("order not readable: %v", err)
	}
}
