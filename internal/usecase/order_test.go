package usecase

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"regexp"
	"testing"
	"time"

	domainErrors "github.com/polkiloo/storefront/internal/domain/errors"
	"github.com/polkiloo/storefront/internal/domain/model"
	"github.com/polkiloo/storefront/internal/domain/repository"
	"github.com/polkiloo/storefront/internal/notification"
	"github.com/polkiloo/storefront/internal/storage/fallback"
	"github.com/polkiloo/storefront/internal/storage/memory"
	testhelpers "github.com/polkiloo/storefront/internal/test"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func newTestUseCase(store repository.TieredStore, notifier Notifier, now time.Time) *OrderUseCase {
	uc := NewOrderUseCase(store, notifier, "ORD-", testLogger())
	uc.now = func() time.Time { return now }
	return uc
}

func newTieredStub() *testhelpers.TieredStoreStub {
	return &testhelpers.TieredStoreStub{OrderStoreStub: testhelpers.NewOrderStoreStub("primary")}
}

func turmericInput() model.OrderInput {
	return model.OrderInput{
		Customer: model.Customer{Name: "Asha", Phone: "+910000000000", Address: "12 Market Rd"},
		Items:    []model.Item{{Name: "Turmeric Powder", Quantity: 2, UnitPrice: 200}},
	}
}

func TestNewOrderID(t *testing.T) {
	now := time.UnixMilli(1714557600000)
	id := NewOrderID("ORD-", now)
	if !regexp.MustCompile(`^ORD-1714557600000-[0-9a-f]{8}$`).MatchString(id) {
		t.Fatalf("unexpected id format %q", id)
	}
	if NewOrderID("ORD-", now) == id {
		t.Fatal("expected random suffix to differ")
	}
}

func TestCreateOrderTurmericExample(t *testing.T) {
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	store := newTieredStub()
	notifier := &testhelpers.NotifierStub{}
	uc := newTestUseCase(store, notifier, now)

	order, err := uc.CreateOrder(context.Background(), turmericInput())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if order.TotalAmount != 400 || order.FinalAmount != 400 {
		t.Fatalf("unexpected totals %v/%v", order.TotalAmount, order.FinalAmount)
	}
	if order.Status != model.OrderStatusPending || order.PaymentStatus != model.PaymentStatusPending {
		t.Fatalf("unexpected statuses %s/%s", order.Status, order.PaymentStatus)
	}
	if !order.CreatedAt.Equal(now) || !order.UpdatedAt.Equal(now) {
		t.Fatalf("unexpected timestamps %v/%v", order.CreatedAt, order.UpdatedAt)
	}
	if order.UserID != "" || !order.IsGuest() {
		t.Fatalf("expected guest order, got user %q", order.UserID)
	}
	if len(store.Created) != 1 || store.Created[0].ID != order.ID {
		t.Fatalf("order not persisted: %+v", store.Created)
	}

	dispatched := notifier.Dispatched()
	if len(dispatched) != 1 || dispatched[0].ID != order.ID {
		t.Fatalf("expected one dispatched order, got %+v", dispatched)
	}
}

func TestCreateOrderClampsFinalAmount(t *testing.T) {
	input := turmericInput()
	input.DiscountAmount = 1000

	uc := newTestUseCase(newTieredStub(), &testhelpers.NotifierStub{}, time.Now())
	order, err := uc.CreateOrder(context.Background(), input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if order.TotalAmount != 400 || order.DiscountAmount != 1000 || order.FinalAmount != 0 {
		t.Fatalf("unexpected amounts %+v", order)
	}
}

func TestCreateOrderFinalAmountProperty(t *testing.T) {
	uc := newTestUseCase(newTieredStub(), &testhelpers.NotifierStub{}, time.Now())
	for i := 0; i < 200; i++ {
		input := testhelpers.RandomOrderInput()
		order, err := uc.CreateOrder(context.Background(), input)
		if err != nil {
			t.Fatalf("unexpected error for %+v: %v", input, err)
		}
		want := math.Round(math.Max(0, order.TotalAmount-input.DiscountAmount)*100) / 100
		if order.FinalAmount != want || order.FinalAmount < 0 {
			t.Fatalf("final amount %v, want %v (total %v, discount %v)", order.FinalAmount, want, order.TotalAmount, input.DiscountAmount)
		}
	}
}

func TestCreateOrderWithIdentity(t *testing.T) {
	input := model.OrderInput{
		Customer:      model.Customer{Address: "12 Market Rd"},
		Items:         []model.Item{{Name: "Sample", Quantity: 1}},
		PaymentStatus: model.PaymentStatusConfirmed,
		Identity:      &model.Identity{UserID: "u-1", Name: "Asha", Email: "asha@example.com"},
	}

	uc := newTestUseCase(newTieredStub(), &testhelpers.NotifierStub{}, time.Now())
	order, err := uc.CreateOrder(context.Background(), input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if order.UserID != "u-1" || order.Customer.Name != "Asha" || order.Customer.Email != "asha@example.com" {
		t.Fatalf("identity not applied: %+v", order)
	}
	if order.PaymentStatus != model.PaymentStatusConfirmed {
		t.Fatalf("unexpected payment status %s", order.PaymentStatus)
	}
}

func TestCreateOrderValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*model.OrderInput)
	}{
		{name: "no items", mutate: func(in *model.OrderInput) { in.Items = nil }},
		{name: "guest without phone", mutate: func(in *model.OrderInput) { in.Customer.Phone = "" }},
		{name: "negative discount", mutate: func(in *model.OrderInput) { in.DiscountAmount = -1 }},
		{name: "unknown payment status", mutate: func(in *model.OrderInput) { in.PaymentStatus = "refunded" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newTieredStub()
			notifier := &testhelpers.NotifierStub{}
			uc := newTestUseCase(store, notifier, time.Now())

			input := turmericInput()
			tt.mutate(&input)
			if _, err := uc.CreateOrder(context.Background(), input); !errors.Is(err, domainErrors.ErrValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
			if store.CallCount("create") != 0 || len(notifier.Dispatched()) != 0 {
				t.Fatal("invalid order must not be stored or dispatched")
			}
		})
	}
}

func TestCreateOrderKeepsCallerID(t *testing.T) {
	store := newTieredStub()
	uc := newTestUseCase(store, &testhelpers.NotifierStub{}, time.Now())

	input := turmericInput()
	input.ID = " ORD-custom "
	order, err := uc.CreateOrder(context.Background(), input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if order.ID != "ORD-custom" {
		t.Fatalf("expected caller id, got %q", order.ID)
	}

	_, err = uc.CreateOrder(context.Background(), input)
	var verr *domainErrors.ValidationError
	if !errors.As(err, &verr) || verr.Field != "order_id" {
		t.Fatalf("expected duplicate id validation error, got %v", err)
	}
}

func TestCreateOrderRejectsCallerIDWhileTierDegraded(t *testing.T) {
	primary := testhelpers.NewOrderStoreStub("postgres")
	secondary := testhelpers.NewOrderStoreStub("mongodb")
	chain := fallback.New(
		[]repository.OrderStore{primary, secondary},
		memory.New(0), fallback.Options{}, testLogger(),
	)
	uc := newTestUseCase(chain, &testhelpers.NotifierStub{}, time.Now())

	input := turmericInput()
	input.ID = "ORD-SHARED"
	if _, err := uc.CreateOrder(context.Background(), input); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	primary.Err = domainErrors.Connectivity("postgres", errors.New("connection refused"))
	_, err := uc.CreateOrder(context.Background(), input)
	var verr *domainErrors.ValidationError
	if !errors.As(err, &verr) || verr.Field != "order_id" {
		t.Fatalf("expected order_id validation error, got %v", err)
	}
	if len(secondary.Created) != 0 {
		t.Fatalf("id written to a second tier: %+v", secondary.Created)
	}

	// generated ids do not need the check
	input.ID = ""
	if _, err := uc.CreateOrder(context.Background(), input); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(secondary.Created) != 1 {
		t.Fatalf("expected fallback write to secondary, got %d", len(secondary.Created))
	}
}

func TestCreateOrderStampsMillisecondUTC(t *testing.T) {
	now := time.Date(2024, 5, 1, 15, 30, 0, 123456789, time.FixedZone("IST", 5*3600+1800))
	store := newTieredStub()
	uc := newTestUseCase(store, &testhelpers.NotifierStub{}, now)

	order, err := uc.CreateOrder(context.Background(), turmericInput())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := time.Date(2024, 5, 1, 10, 0, 0, 123000000, time.UTC)
	if !order.CreatedAt.Equal(want) || !order.UpdatedAt.Equal(want) || order.CreatedAt.Location() != time.UTC {
		t.Fatalf("expected %v, got %v/%v", want, order.CreatedAt, order.UpdatedAt)
	}

	uc.now = func() time.Time { return now.Add(time.Minute + 999*time.Microsecond) }
	updated, err := uc.UpdateStatus(context.Background(), order.ID, model.OrderStatusShipped, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !updated.UpdatedAt.Equal(want.Add(time.Minute)) {
		t.Fatalf("expected %v, got %v", want.Add(time.Minute), updated.UpdatedAt)
	}
}

func TestCreateOrderPropagatesStorageExhausted(t *testing.T) {
	store := newTieredStub()
	store.CreateFn = func(context.Context, model.Order) (*model.Order, error) {
		return nil, domainErrors.ErrStorageExhausted
	}
	notifier := &testhelpers.NotifierStub{}
	uc := newTestUseCase(store, notifier, time.Now())

	if _, err := uc.CreateOrder(context.Background(), turmericInput()); !errors.Is(err, domainErrors.ErrStorageExhausted) {
		t.Fatalf("expected storage exhausted, got %v", err)
	}
	if len(notifier.Dispatched()) != 0 {
		t.Fatal("failed order must not be dispatched")
	}
}

func TestCreateOrderSurvivesDownStores(t *testing.T) {
	down := func(name string) *testhelpers.OrderStoreStub {
		s := testhelpers.NewOrderStoreStub(name)
		s.Err = domainErrors.Connectivity(name, errors.New("connection refused"))
		return s
	}
	chain := fallback.New(
		[]repository.OrderStore{down("postgres"), down("mongodb")},
		memory.New(0), fallback.Options{}, testLogger(),
	)
	uc := newTestUseCase(chain, &testhelpers.NotifierStub{}, time.Now())

	created, err := uc.CreateOrder(context.Background(), turmericInput())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, err := uc.GetOrder(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("expected order in memory tier, got %v", err)
	}
	if got.ID != created.ID || got.FinalAmount != 400 {
		t.Fatalf("unexpected order %+v", got)
	}

	again, err := uc.GetOrder(context.Background(), created.ID)
	if err != nil || again.UpdatedAt != got.UpdatedAt || again.Status != got.Status {
		t.Fatalf("read mutated order: %+v vs %+v (%v)", again, got, err)
	}
}

func TestCreateOrderIgnoresFailingNotifications(t *testing.T) {
	panicking := &testhelpers.ChannelStub{NameVal: "email", SendFn: func(context.Context, model.Order) error {
		panic("smtp exploded")
	}}
	failing := &testhelpers.ChannelStub{NameVal: "whatsapp", SendFn: func(context.Context, model.Order) error {
		return errors.New("provider down")
	}}
	rec := &testhelpers.RecorderStub{Notify: make(chan notification.Result, 2)}
	dispatcher := notification.NewDispatcher([]notification.Channel{panicking, failing}, rec, notification.Options{}, testLogger())
	dispatcher.Start(context.Background())
	defer dispatcher.Stop(context.Background())

	uc := newTestUseCase(newTieredStub(), dispatcher, time.Now())
	order, err := uc.CreateOrder(context.Background(), turmericInput())
	if err != nil || order == nil {
		t.Fatalf("notification failures leaked into create: %v", err)
	}

	for i := 0; i < 2; i++ {
		select {
		case res := <-rec.Notify:
			if res.Outcome != notification.OutcomeFailed {
				t.Fatalf("expected failed outcome, got %s", res.Outcome)
			}
		case <-time.After(2 * time.Second):
			t.Fatal("timeout waiting for notification outcome")
		}
	}
}

func TestGetOrder(t *testing.T) {
	store := newTieredStub()
	store.Orders["ORD-1"] = model.Order{ID: "ORD-1"}
	uc := newTestUseCase(store, &testhelpers.NotifierStub{}, time.Now())

	if order, err := uc.GetOrder(context.Background(), "ORD-1"); err != nil || order.ID != "ORD-1" {
		t.Fatalf("unexpected result %v %v", order, err)
	}
	if _, err := uc.GetOrder(context.Background(), "ORD-2"); !errors.Is(err, domainErrors.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := uc.GetOrder(context.Background(), " "); !errors.Is(err, domainErrors.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestListOrdersNewestFirst(t *testing.T) {
	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	store := newTieredStub()
	store.ListAllFn = func(context.Context) (repository.Listing, error) {
		return repository.Listing{
			Orders: []model.Order{
				{ID: "old", CreatedAt: base},
				{ID: "new", CreatedAt: base.Add(2 * time.Hour)},
				{ID: "mid", CreatedAt: base.Add(time.Hour)},
			},
			Source:   "memory",
			Fallback: true,
		}, nil
	}
	uc := newTestUseCase(store, &testhelpers.NotifierStub{}, time.Now())

	listing, err := uc.ListOrders(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"new", "mid", "old"}
	for i, id := range want {
		if listing.Orders[i].ID != id {
			t.Fatalf("position %d: expected %s, got %s", i, id, listing.Orders[i].ID)
		}
	}
	if !listing.Fallback || listing.Source != "memory" {
		t.Fatalf("listing metadata lost: %+v", listing)
	}
}

func TestUpdateStatusRefreshesUpdatedAt(t *testing.T) {
	created := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	store := newTieredStub()
	store.Orders["ORD-1"] = model.Order{ID: "ORD-1", Status: model.OrderStatusPending, CreatedAt: created, UpdatedAt: created}

	later := created.Add(time.Minute)
	uc := newTestUseCase(store, &testhelpers.NotifierStub{}, later)
	order, err := uc.UpdateStatus(context.Background(), "ORD-1", model.OrderStatusShipped, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if order.Status != model.OrderStatusShipped || !order.UpdatedAt.Equal(later) {
		t.Fatalf("unexpected order %+v", order)
	}
	if !order.CreatedAt.Equal(created) {
		t.Fatalf("created_at changed to %v", order.CreatedAt)
	}

	// clock did not advance
	uc.now = func() time.Time { return created }
	paid := model.PaymentStatusConfirmed
	order, err = uc.UpdateStatus(context.Background(), "ORD-1", model.OrderStatusDelivered, &paid)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !order.UpdatedAt.After(later) {
		t.Fatalf("expected updated_at after %v, got %v", later, order.UpdatedAt)
	}
	if order.PaymentStatus != model.PaymentStatusConfirmed {
		t.Fatalf("payment status not applied: %s", order.PaymentStatus)
	}
}

func TestUpdateStatusErrors(t *testing.T) {
	store := newTieredStub()
	uc := newTestUseCase(store, &testhelpers.NotifierStub{}, time.Now())

	if _, err := uc.UpdateStatus(context.Background(), "ORD-1", "lost", nil); !errors.Is(err, domainErrors.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	bad := model.PaymentStatus("refunded")
	if _, err := uc.UpdateStatus(context.Background(), "ORD-1", model.OrderStatusShipped, &bad); !errors.Is(err, domainErrors.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := uc.UpdateStatus(context.Background(), "missing", model.OrderStatusShipped, nil); !errors.Is(err, domainErrors.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if store.CallCount("update") != 0 {
		t.Fatal("store must not be updated on errors")
	}
}

func TestStorageStatus(t *testing.T) {
	store := newTieredStub()
	store.Tiers = []repository.TierStatus{{Name: "postgres", Degraded: true}, {Name: "memory"}}
	uc := newTestUseCase(store, &testhelpers.NotifierStub{}, time.Now())

	status := uc.StorageStatus()
	if len(status) != 2 || !status[0].Degraded {
		t.Fatalf("unexpected status %+v", status)
	}
}
