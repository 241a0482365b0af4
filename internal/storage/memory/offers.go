package memory

import (
	"context"
	"sync"

	"github.com/polkiloo/storefront/internal/domain/repository"
)

// OfferLedger keeps offer claims for the lifetime of the process.
type OfferLedger struct {
	mu     sync.Mutex
	claims map[string]struct{}
}

var _ repository.OfferLedger = (*OfferLedger)(nil)

func NewOfferLedger() *OfferLedger {
	return &OfferLedger{claims: make(map[string]struct{})}
}

func (l *OfferLedger) Claim(_ context.Context, offer, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	k := offer + ":" + key
	if _, taken := l.claims[k]; taken {
		return false, nil
	}
	l.claims[k] = struct{}{}
	return true, nil
}
