package repository

import (
	"context"
	"time"

	"github.com/polkiloo/storefront/internal/domain/model"
)

// OrderStore describes persistence operations with orders on a single backing store.
// Failures are classified with the sentinels of the domain errors package.
type OrderStore interface {
	Name() string
	Create(ctx context.Context, order model.Order) (*model.Order, error)
	GetByID(ctx context.Context, id string) (*model.Order, error)
	List(ctx context.Context) ([]model.Order, error)
	UpdateStatus(ctx context.Context, id string, update model.StatusUpdate) (*model.Order, error)
}

// Closer is implemented by stores holding client resources.
type Closer interface {
	Close(ctx context.Context) error
}

// Listing is the result of listing orders across storage tiers.
type Listing struct {
	Orders   []model.Order
	Source   string
	Fallback bool
}

// TierStatus reports health of a single storage tier.
type TierStatus struct {
	Name          string
	Degraded      bool
	DegradedSince time.Time
	RetryAt       time.Time
	Reason        string
}

// TieredStore is an OrderStore spanning several tiers.
type TieredStore interface {
	OrderStore
	ListAll(ctx context.Context) (Listing, error)
	Status() []TierStatus
}

// OfferLedger records one-time promotional claims keyed by customer contact.
type OfferLedger interface {
	// Claim reports true only for the first claim of offer by key.
	Claim(ctx context.Context, offer, key string) (bool, error)
}
