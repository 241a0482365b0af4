package notification

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	domainErrors "github.com/polkiloo/storefront/internal/domain/errors"
	"github.com/polkiloo/storefront/internal/domain/model"
)

// Channel delivers a notification about a committed order.
// Send returns domain ErrNotApplicable when the order does not concern the channel.
type Channel interface {
	Name() string
	Send(ctx context.Context, order model.Order) error
}

// Outcome classifies a delivery attempt.
type Outcome string

const (
	OutcomeSent    Outcome = "sent"
	OutcomeSkipped Outcome = "skipped"
	OutcomeFailed  Outcome = "failed"
	OutcomeDropped Outcome = "dropped"
)

// Result is the recorded outcome of one channel for one order.
type Result struct {
	OrderID  string
	Channel  string
	Outcome  Outcome
	Err      error
	Duration time.Duration
}

// Recorder receives every delivery outcome. Implementations must be safe for concurrent use.
type Recorder interface {
	Record(Result)
}

// Options tune the worker pool.
type Options struct {
	Workers   int
	QueueSize int
	// Timeout bounds a single channel delivery.
	Timeout time.Duration
}

const (
	defaultWorkers   = 1
	defaultQueueSize = 64
	defaultTimeout   = 10 * time.Second
)

// Dispatcher fans committed orders out to channels on a background worker pool.
// Delivery is at most once: failures are recorded, never retried and never reported to the caller.
type Dispatcher struct {
	channels []Channel
	recorder Recorder
	opts     Options
	logger   *slog.Logger

	mu      sync.RWMutex
	running bool
	jobs    chan model.Order
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewDispatcher constructs a dispatcher over channels.
func NewDispatcher(channels []Channel, recorder Recorder, opts Options, logger *slog.Logger) *Dispatcher {
	if opts.Workers <= 0 {
		opts.Workers = defaultWorkers
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = defaultQueueSize
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if recorder == nil {
		recorder = NewLogRecorder(logger)
	}
	return &Dispatcher{
		channels: channels,
		recorder: recorder,
		opts:     opts,
		logger:   logger,
	}
}

// Channels returns names of configured channels.
func (d *Dispatcher) Channels() []string {
	names := make([]string, 0, len(d.channels))
	for _, ch := range d.channels {
		names = append(names, ch.Name())
	}
	return names
}

// Start launches the workers. Deliveries outlive the cancellation of ctx until Stop.
func (d *Dispatcher) Start(ctx context.Context) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.running {
		return
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	d.cancel = cancel
	d.jobs = make(chan model.Order, d.opts.QueueSize)
	d.running = true

	for i := 0; i < d.opts.Workers; i++ {
		d.wg.Add(1)
		go d.worker(runCtx, d.jobs)
	}
	d.logger.Info("notification dispatcher started",
		slog.Int("workers", d.opts.Workers),
		slog.Any("channels", d.Channels()),
	)
}

// Stop stops accepting orders and waits for queued deliveries until ctx is done,
// after which in-flight deliveries are cancelled.
func (d *Dispatcher) Stop(ctx context.Context) {
	d.mu.Lock()
	if !d.running {
		d.mu.Unlock()
		return
	}
	d.running = false
	close(d.jobs)
	cancel := d.cancel
	d.cancel = nil
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		d.logger.Warn("notification dispatcher stop timed out, cancelling deliveries")
	}
	cancel()
	<-done
	d.logger.Info("notification dispatcher stopped")
}

// Dispatch queues order for delivery and returns immediately.
// A full queue or a stopped dispatcher records the order as dropped.
func (d *Dispatcher) Dispatch(order model.Order) {
	if len(d.channels) == 0 {
		return
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	if !d.running {
		d.drop(order, errors.New("dispatcher is not running"))
		return
	}

	select {
	case d.jobs <- order.Clone():
	default:
		d.drop(order, errors.New("notification queue is full"))
	}
}

func (d *Dispatcher) drop(order model.Order, reason error) {
	for _, ch := range d.channels {
		d.recorder.Record(Result{OrderID: order.ID, Channel: ch.Name(), Outcome: OutcomeDropped, Err: reason})
	}
}

func (d *Dispatcher) worker(ctx context.Context, jobs <-chan model.Order) {
	defer d.wg.Done()
	for order := range jobs {
		d.deliver(ctx, order)
	}
}

func (d *Dispatcher) deliver(ctx context.Context, order model.Order) {
	var wg sync.WaitGroup
	for _, ch := range d.channels {
		wg.Add(1)
		go func(ch Channel) {
			defer wg.Done()
			d.recorder.Record(d.send(ctx, ch, order.Clone()))
		}(ch)
	}
	wg.Wait()
}

func (d *Dispatcher) send(ctx context.Context, ch Channel, order model.Order) Result {
	callCtx, cancel := context.WithTimeout(ctx, d.opts.Timeout)
	defer cancel()

	start := time.Now()
	err := safeSend(callCtx, ch, order)
	result := Result{OrderID: order.ID, Channel: ch.Name(), Duration: time.Since(start), Err: err}
	switch {
	case err == nil:
		result.Outcome = OutcomeSent
	case errors.Is(err, domainErrors.ErrNotApplicable):
		result.Outcome = OutcomeSkipped
	default:
		result.Outcome = OutcomeFailed
	}
	return result
}

func safeSend(ctx context.Context, ch Channel, order model.Order) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %s panicked: %v", domainErrors.ErrNotification, ch.Name(), r)
		}
	}()
	return ch.Send(ctx, order)
}
