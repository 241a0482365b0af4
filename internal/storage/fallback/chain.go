package fallback

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	domainErrors "github.com/polkiloo/storefront/internal/domain/errors"
	"github.com/polkiloo/storefront/internal/domain/model"
	"github.com/polkiloo/storefront/internal/domain/repository"
	"github.com/polkiloo/storefront/internal/storage/memory"
)

// Name identifies the chain itself when it is used as an OrderStore.
const Name = "fallback"

const defaultTierTimeout = 3 * time.Second

// Options tune tier timeouts and the degraded-tier policy.
type Options struct {
	// TierTimeout bounds every call to a single tier.
	TierTimeout time.Duration
	// Cooldown is how long a degraded tier is skipped. Zero skips it for the process lifetime.
	Cooldown time.Duration
	Now      func() time.Time
}

type health struct {
	since  time.Time
	until  time.Time
	reason string
}

// Chain tries priority-ordered stores and falls back to process memory.
type Chain struct {
	tiers    []repository.OrderStore
	memory   *memory.Store
	timeout  time.Duration
	cooldown time.Duration
	now      func() time.Time
	logger   *slog.Logger

	mu       sync.Mutex
	degraded map[string]health
	// locator remembers ids written to any tier other than the first one.
	locator map[string]repository.OrderStore
}

var _ repository.TieredStore = (*Chain)(nil)

// New builds a chain over tiers in priority order with mem as the last resort.
func New(tiers []repository.OrderStore, mem *memory.Store, opts Options, logger *slog.Logger) *Chain {
	if opts.TierTimeout <= 0 {
		opts.TierTimeout = defaultTierTimeout
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if mem == nil {
		mem = memory.New(0)
	}
	return &Chain{
		tiers:    tiers,
		memory:   mem,
		timeout:  opts.TierTimeout,
		cooldown: opts.Cooldown,
		now:      opts.Now,
		logger:   logger,
		degraded: make(map[string]health),
		locator:  make(map[string]repository.OrderStore),
	}
}

func (c *Chain) Name() string { return Name }

// Create writes order to the first tier that accepts it. Downstream unavailability never fails the call.
func (c *Chain) Create(ctx context.Context, order model.Order) (*model.Order, error) {
	if _, known := c.locate(order.ID); known {
		return nil, domainErrors.Invalid("order_id", "order already exists")
	}

	for i, tier := range c.tiers {
		if !c.available(tier) {
			continue
		}
		stored, err := attempt(ctx, c.timeout, func(ctx context.Context) (*model.Order, error) {
			return tier.Create(ctx, order)
		})
		if err == nil {
			if i > 0 {
				c.remember(order.ID, tier)
			}
			return stored, nil
		}
		if errors.Is(err, domainErrors.ErrConstraint) {
			return nil, fmt.Errorf("%w (%v)", domainErrors.Invalid("order", "order was rejected by storage"), err)
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		c.markDegraded(tier, err)
	}

	stored, err := c.memory.Create(ctx, order)
	if err != nil {
		if memory.IsShapeError(err) {
			return nil, fmt.Errorf("%w (%v)", domainErrors.Invalid("order", "order was rejected by every storage tier"), err)
		}
		return nil, fmt.Errorf("%w: %v", domainErrors.ErrStorageExhausted, err)
	}
	c.remember(order.ID, c.memory)
	if len(c.tiers) > 0 {
		c.logger.Warn("order stored in memory fallback", slog.String("order_id", order.ID))
	}
	return stored, nil
}

// GetByID searches the tier known to hold id first, then every available tier and memory.
func (c *Chain) GetByID(ctx context.Context, id string) (*model.Order, error) {
	return c.lookup(ctx, id, func(ctx context.Context, tier repository.OrderStore) (*model.Order, error) {
		return tier.GetByID(ctx, id)
	})
}

// UpdateStatus applies update on whichever tier holds id.
func (c *Chain) UpdateStatus(ctx context.Context, id string, update model.StatusUpdate) (*model.Order, error) {
	return c.lookup(ctx, id, func(ctx context.Context, tier repository.OrderStore) (*model.Order, error) {
		return tier.UpdateStatus(ctx, id, update)
	})
}

// List returns orders of the first answering tier merged with orders held only in memory.
func (c *Chain) List(ctx context.Context) ([]model.Order, error) {
	listing, err := c.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	return listing.Orders, nil
}

// ListAll is List that also reports which tier served the result and whether fallback was involved.
func (c *Chain) ListAll(ctx context.Context) (repository.Listing, error) {
	var (
		listing  repository.Listing
		served   bool
		fellBack bool
	)

	for _, tier := range c.tiers {
		if !c.available(tier) {
			fellBack = true
			continue
		}
		orders, err := attempt(ctx, c.timeout, func(ctx context.Context) ([]model.Order, error) {
			return tier.List(ctx)
		})
		if err == nil {
			listing.Orders = orders
			listing.Source = tier.Name()
			served = true
			break
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return repository.Listing{}, ctxErr
		}
		fellBack = true
		c.markDegraded(tier, err)
	}

	inMemory, err := c.memory.List(ctx)
	if err != nil {
		return repository.Listing{}, err
	}

	if !served {
		listing.Orders = inMemory
		listing.Source = memory.TierName
		listing.Fallback = len(c.tiers) > 0
		return listing, nil
	}

	merged := merge(listing.Orders, inMemory)
	listing.Fallback = fellBack || len(merged) > len(listing.Orders)
	listing.Orders = merged
	return listing, nil
}

// Status reports every tier in priority order, memory last.
func (c *Chain) Status() []repository.TierStatus {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	result := make([]repository.TierStatus, 0, len(c.tiers)+1)
	for _, tier := range c.tiers {
		st := repository.TierStatus{Name: tier.Name()}
		if h, ok := c.degraded[tier.Name()]; ok && (h.until.IsZero() || now.Before(h.until)) {
			st.Degraded = true
			st.DegradedSince = h.since
			st.RetryAt = h.until
			st.Reason = h.reason
		}
		result = append(result, st)
	}
	result = append(result, repository.TierStatus{Name: memory.TierName})
	return result
}

// lookup searches candidate tiers for id. When id is absent from every tier that answered
// but some tier was skipped or unreachable, the not found error also matches ErrConnectivity.
func (c *Chain) lookup(ctx context.Context, id string, op func(context.Context, repository.OrderStore) (*model.Order, error)) (*model.Order, error) {
	tiers, unreachable := c.candidates(id)
	for _, tier := range tiers {
		order, err := attempt(ctx, c.timeout, func(ctx context.Context) (*model.Order, error) {
			return op(ctx, tier)
		})
		switch {
		case err == nil:
			return order, nil
		case errors.Is(err, domainErrors.ErrNotFound):
			continue
		case errors.Is(err, domainErrors.ErrConstraint):
			return nil, fmt.Errorf("%w (%v)", domainErrors.Invalid("order", "update was rejected by storage"), err)
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		if tier != repository.OrderStore(c.memory) {
			c.markDegraded(tier, err)
		}
		unreachable = append(unreachable, tier.Name())
	}
	if len(unreachable) > 0 {
		return nil, &domainErrors.StoreError{
			Tier: Name,
			Kind: domainErrors.ErrNotFound,
			Err:  fmt.Errorf("order %s: %w: %s", id, domainErrors.ErrConnectivity, strings.Join(unreachable, ", ")),
		}
	}
	return nil, fmt.Errorf("order %s: %w", id, domainErrors.ErrNotFound)
}

// candidates lists tiers to search for id: the remembered tier first, then available tiers, memory last.
// Names of degraded tiers left out are returned separately.
func (c *Chain) candidates(id string) ([]repository.OrderStore, []string) {
	result := make([]repository.OrderStore, 0, len(c.tiers)+1)
	var skipped []string
	home, known := c.locate(id)
	if known {
		result = append(result, home)
	}
	for _, tier := range c.tiers {
		if known && tier == home {
			continue
		}
		if !c.available(tier) {
			skipped = append(skipped, tier.Name())
			continue
		}
		result = append(result, tier)
	}
	if !known || home != repository.OrderStore(c.memory) {
		result = append(result, c.memory)
	}
	return result, skipped
}

func (c *Chain) available(tier repository.OrderStore) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	h, ok := c.degraded[tier.Name()]
	if !ok {
		return true
	}
	if h.until.IsZero() || c.now().Before(h.until) {
		return false
	}
	delete(c.degraded, tier.Name())
	c.logger.Info("retrying degraded store", slog.String("tier", tier.Name()))
	return true
}

func (c *Chain) markDegraded(tier repository.OrderStore, cause error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, already := c.degraded[tier.Name()]; already {
		return
	}
	now := c.now()
	h := health{since: now, reason: cause.Error()}
	if c.cooldown > 0 {
		h.until = now.Add(c.cooldown)
	}
	c.degraded[tier.Name()] = h
	c.logger.Warn("store degraded",
		slog.String("tier", tier.Name()),
		slog.String("error", cause.Error()),
		slog.Duration("cooldown", c.cooldown),
	)
}

func (c *Chain) remember(id string, tier repository.OrderStore) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.locator[id] = tier
}

func (c *Chain) locate(id string) (repository.OrderStore, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	tier, ok := c.locator[id]
	return tier, ok
}

func attempt[T any](ctx context.Context, timeout time.Duration, fn func(context.Context) (T, error)) (T, error) {
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return fn(callCtx)
}

func merge(primary, extra []model.Order) []model.Order {
	if len(extra) == 0 {
		return primary
	}
	seen := make(map[string]struct{}, len(primary))
	for _, o := range primary {
		seen[o.ID] = struct{}{}
	}
	result := primary
	for _, o := range extra {
		if _, ok := seen[o.ID]; ok {
			continue
		}
		result = append(result, o)
	}
	return result
}
