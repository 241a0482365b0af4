package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainErrors "github.com/polkiloo/storefront/internal/domain/errors"
	"github.com/polkiloo/storefront/internal/domain/model"
)

func sampleOrder(id string) model.Order {
	now := time.Now()
	return model.Order{
		ID:            id,
		Customer:      model.Customer{Name: "Asha", Phone: "+910000000000", Address: "12 Market Rd"},
		Items:         []model.Item{{Name: "Turmeric Powder", Quantity: 2, UnitPrice: 200}},
		TotalAmount:   400,
		FinalAmount:   400,
		Status:        model.OrderStatusPending,
		PaymentStatus: model.PaymentStatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

func TestStoreCreateAndGet(t *testing.T) {
	store := New(0)
	ctx := context.Background()

	created, err := store.Create(ctx, sampleOrder("ORD-1"))
	require.NoError(t, err)
	assert.Equal(t, "ORD-1", created.ID)
	assert.Equal(t, TierName, store.Name())

	got, err := store.GetByID(ctx, "ORD-1")
	require.NoError(t, err)
	assert.Equal(t, created, got)

	got.Items[0].Name = "mutated"
	again, err := store.GetByID(ctx, "ORD-1")
	require.NoError(t, err)
	assert.Equal(t, "Turmeric Powder", again.Items[0].Name)

	_, err = store.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, domainErrors.ErrNotFound)
}

func TestStoreRejectsInvalidShapes(t *testing.T) {
	store := New(0)
	ctx := context.Background()

	noItems := sampleOrder("ORD-1")
	noItems.Items = nil
	_, err := store.Create(ctx, noItems)
	assert.ErrorIs(t, err, domainErrors.ErrConstraint)
	assert.True(t, IsShapeError(err))

	noID := sampleOrder("")
	_, err = store.Create(ctx, noID)
	assert.True(t, IsShapeError(err))

	noTime := sampleOrder("ORD-2")
	noTime.CreatedAt = time.Time{}
	_, err = store.Create(ctx, noTime)
	assert.True(t, IsShapeError(err))

	_, err = store.Create(ctx, sampleOrder("ORD-3"))
	require.NoError(t, err)
	_, err = store.Create(ctx, sampleOrder("ORD-3"))
	assert.ErrorIs(t, err, domainErrors.ErrConstraint)
	assert.Equal(t, 1, store.Len())
}

func TestStoreCapacity(t *testing.T) {
	store := New(1)
	ctx := context.Background()

	_, err := store.Create(ctx, sampleOrder("ORD-1"))
	require.NoError(t, err)

	_, err = store.Create(ctx, sampleOrder("ORD-2"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCapacityExhausted))
	assert.False(t, IsShapeError(err))
}

func TestStoreListAndUpdate(t *testing.T) {
	store := New(0)
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		_, err := store.Create(ctx, sampleOrder(fmt.Sprintf("ORD-%d", i)))
		require.NoError(t, err)
	}

	list, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "ORD-1", list[0].ID)
	assert.Equal(t, "ORD-3", list[2].ID)

	paid := model.PaymentStatusConfirmed
	later := list[1].UpdatedAt.Add(time.Second)
	updated, err := store.UpdateStatus(ctx, "ORD-2", model.StatusUpdate{Status: model.OrderStatusShipped, PaymentStatus: &paid, UpdatedAt: later})
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusShipped, updated.Status)
	assert.Equal(t, model.PaymentStatusConfirmed, updated.PaymentStatus)
	assert.True(t, updated.UpdatedAt.Equal(later))
	assert.True(t, updated.CreatedAt.Equal(list[1].CreatedAt))

	_, err = store.UpdateStatus(ctx, "missing", model.StatusUpdate{Status: model.OrderStatusShipped})
	assert.ErrorIs(t, err, domainErrors.ErrNotFound)
}

func TestStoreConcurrentWriters(t *testing.T) {
	store := New(0)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _ = store.Create(ctx, sampleOrder(fmt.Sprintf("ORD-%d", i)))
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 50, store.Len())
	list, err := store.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 50)
}

func TestOfferLedgerClaimsOnce(t *testing.T) {
	ledger := NewOfferLedger()
	ctx := context.Background()

	first, err := ledger.Claim(ctx, "free-sample", "+910000000000")
	require.NoError(t, err)
	assert.True(t, first)

	again, err := ledger.Claim(ctx, "free-sample", "+910000000000")
	require.NoError(t, err)
	assert.False(t, again)

	other, err := ledger.Claim(ctx, "free-sample", "asha@example.com")
	require.NoError(t, err)
	assert.True(t, other)
}
