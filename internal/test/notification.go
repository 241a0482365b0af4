package test

import (
	"context"
	"sync"

	"github.com/polkiloo/storefront/internal/domain/model"
	"github.com/polkiloo/storefront/internal/notification"
)

// ChannelStub records delivered orders and lets tests override Send.
type ChannelStub struct {
	NameVal string
	SendFn  func(context.Context, model.Order) error

	mu   sync.Mutex
	Sent []model.Order
}

// Name returns configured channel name.
func (c *ChannelStub) Name() string {
	if c.NameVal == "" {
		return "stub"
	}
	return c.NameVal
}

// Send records order and delegates to SendFn when set.
func (c *ChannelStub) Send(ctx context.Context, order model.Order) error {
	c.mu.Lock()
	c.Sent = append(c.Sent, order)
	c.mu.Unlock()
	if c.SendFn != nil {
		return c.SendFn(ctx, order)
	}
	return nil
}

// SentCount reports how many orders reached the channel.
func (c *ChannelStub) SentCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.Sent)
}

// RecorderStub collects dispatcher outcomes.
type RecorderStub struct {
	mu      sync.Mutex
	Results []notification.Result
	// Notify, when set, receives every result after it is stored.
	Notify chan notification.Result
}

// Record stores res.
func (r *RecorderStub) Record(res notification.Result) {
	r.mu.Lock()
	r.Results = append(r.Results, res)
	r.mu.Unlock()
	if r.Notify != nil {
		r.Notify <- res
	}
}

// Snapshot returns a copy of recorded results.
func (r *RecorderStub) Snapshot() []notification.Result {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]notification.Result, len(r.Results))
	copy(out, r.Results)
	return out
}

// ByOutcome counts results with outcome.
func (r *RecorderStub) ByOutcome(outcome notification.Outcome) int {
	count := 0
	for _, res := range r.Snapshot() {
		if res.Outcome == outcome {
			count++
		}
	}
	return count
}

// NotifierStub captures orders passed to Dispatch.
type NotifierStub struct {
	mu     sync.Mutex
	Orders []model.Order
}

// Dispatch records order.
func (n *NotifierStub) Dispatch(order model.Order) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Orders = append(n.Orders, order)
}

// Dispatched returns a copy of recorded orders.
func (n *NotifierStub) Dispatched() []model.Order {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]model.Order, len(n.Orders))
	copy(out, n.Orders)
	return out
}

var (
	_ notification.Channel  = (*ChannelStub)(nil)
	_ notification.Recorder = (*RecorderStub)(nil)
)
