package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	domainErrors "github.com/polkiloo/storefront/internal/domain/errors"
	"github.com/polkiloo/storefront/internal/domain/repository"
)

// OfferLedger records one-time offer claims with SETNX.
type OfferLedger struct {
	client *goredis.Client
	prefix string
	ttl    time.Duration
}

var _ repository.OfferLedger = (*OfferLedger)(nil)

// NewOfferLedger creates a ledger. A zero ttl keeps claims forever.
func NewOfferLedger(client *goredis.Client, prefix string, ttl time.Duration) *OfferLedger {
	return &OfferLedger{client: client, prefix: prefix, ttl: ttl}
}

// Claim records key and reports whether this call was the first to claim it.
func (l *OfferLedger) Claim(ctx context.Context, offer, key string) (bool, error) {
	ok, err := l.client.SetNX(ctx, fmt.Sprintf("%soffer:%s:%s", l.prefix, offer, key), "claimed", l.ttl).Result()
	if err != nil {
		return false, domainErrors.Connectivity(TierName, err)
	}
	return ok, nil
}
