package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	domainErrors "github.com/polkiloo/storefront/internal/domain/errors"
	"github.com/polkiloo/storefront/internal/domain/model"
	"github.com/polkiloo/storefront/internal/domain/repository"
)

// Notifier hands a committed order to the notification pipeline without waiting for it.
type Notifier interface {
	Dispatch(order model.Order)
}

// OrderUseCase encapsulates order lifecycle logic.
type OrderUseCase struct {
	store    repository.TieredStore
	notifier Notifier
	logger   *slog.Logger
	prefix   string
	now      func() time.Time
}

// NewOrderUseCase constructs OrderUseCase. Generated ids start with prefix.
func NewOrderUseCase(store repository.TieredStore, notifier Notifier, prefix string, logger *slog.Logger) *OrderUseCase {
	return &OrderUseCase{
		store:    store,
		notifier: notifier,
		logger:   logger,
		prefix:   prefix,
		now:      time.Now,
	}
}

// NewOrderID builds an id of the form <prefix><unix-millis>-<8 hex>.
func NewOrderID(prefix string, now time.Time) string {
	random := strings.ReplaceAll(uuid.NewString(), "-", "")
	return fmt.Sprintf("%s%d-%s", prefix, now.UnixMilli(), random[:8])
}

// CreateOrder validates input, applies defaults and persists the order through the storage chain.
// Notifications are scheduled after the write and never affect the result.
func (u *OrderUseCase) CreateOrder(ctx context.Context, input model.OrderInput) (*model.Order, error) {
	guest := input.Identity == nil || input.Identity.UserID == ""
	customer := MergeIdentity(input.Customer, input.Identity)
	if err := ValidateCustomer(customer, guest); err != nil {
		return nil, err
	}
	if err := ValidateItems(input.Items, input.DiscountAmount); err != nil {
		return nil, err
	}

	payment := model.PaymentStatusPending
	if input.PaymentStatus != "" {
		if !input.PaymentStatus.Valid() {
			return nil, domainErrors.Invalid("payment_status", fmt.Sprintf("unknown payment status %q", input.PaymentStatus))
		}
		payment = input.PaymentStatus
	}

	now := u.timestamp()
	id := strings.TrimSpace(input.ID)
	if id == "" {
		id = NewOrderID(u.prefix, now)
	} else if err := u.ensureUnused(ctx, id); err != nil {
		return nil, err
	}

	items := make([]model.Item, 0, len(input.Items))
	for _, item := range input.Items {
		item.Name = strings.TrimSpace(item.Name)
		items = append(items, item)
	}
	total, final := model.Totals(items, input.DiscountAmount)

	order := model.Order{
		ID:             id,
		Customer:       customer,
		Items:          items,
		TotalAmount:    total,
		DiscountAmount: input.DiscountAmount,
		FinalAmount:    final,
		Status:         model.OrderStatusPending,
		PaymentStatus:  payment,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if !guest {
		order.UserID = input.Identity.UserID
	}

	stored, err := u.store.Create(ctx, order)
	if err != nil {
		return nil, err
	}

	u.logger.Info("order created",
		slog.String("order_id", stored.ID),
		slog.Bool("guest", stored.IsGuest()),
		slog.Float64("final_amount", stored.FinalAmount),
	)
	u.notifier.Dispatch(stored.Clone())
	return stored, nil
}

// timestamp returns the current time in UTC at millisecond precision, the coarsest any tier keeps.
func (u *OrderUseCase) timestamp() time.Time {
	return u.now().UTC().Truncate(time.Millisecond)
}

func (u *OrderUseCase) ensureUnused(ctx context.Context, id string) error {
	_, err := u.store.GetByID(ctx, id)
	switch {
	case err == nil:
		return domainErrors.Invalid("order_id", "order already exists")
	case errors.Is(err, domainErrors.ErrConnectivity):
		return domainErrors.Invalid("order_id", "order id cannot be verified while storage is degraded")
	case errors.Is(err, domainErrors.ErrNotFound):
		return nil
	default:
		return err
	}
}

// GetOrder returns the order with id from whichever tier holds it.
func (u *OrderUseCase) GetOrder(ctx context.Context, id string) (*model.Order, error) {
	if strings.TrimSpace(id) == "" {
		return nil, domainErrors.Invalid("order_id", "order id is required")
	}
	return u.store.GetByID(ctx, id)
}

// ListOrders returns all orders, newest first, with the tier that served them.
func (u *OrderUseCase) ListOrders(ctx context.Context) (repository.Listing, error) {
	listing, err := u.store.ListAll(ctx)
	if err != nil {
		return repository.Listing{}, err
	}
	sort.SliceStable(listing.Orders, func(i, j int) bool {
		return listing.Orders[i].CreatedAt.After(listing.Orders[j].CreatedAt)
	})
	return listing, nil
}

// UpdateStatus changes fulfilment and optionally payment status. UpdatedAt always moves forward.
func (u *OrderUseCase) UpdateStatus(ctx context.Context, id string, status model.OrderStatus, payment *model.PaymentStatus) (*model.Order, error) {
	if !status.Valid() {
		return nil, domainErrors.Invalid("status", fmt.Sprintf("unknown status %q", status))
	}
	if payment != nil && !payment.Valid() {
		return nil, domainErrors.Invalid("payment_status", fmt.Sprintf("unknown payment status %q", *payment))
	}

	current, err := u.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}

	updatedAt := u.timestamp()
	if !updatedAt.After(current.UpdatedAt) {
		updatedAt = current.UpdatedAt.Add(time.Millisecond)
	}

	updated, err := u.store.UpdateStatus(ctx, id, model.StatusUpdate{
		Status:        status,
		PaymentStatus: payment,
		UpdatedAt:     updatedAt,
	})
	if err != nil {
		return nil, err
	}

	u.logger.Info("order status updated",
		slog.String("order_id", id),
		slog.String("status", string(updated.Status)),
		slog.String("payment_status", string(updated.PaymentStatus)),
	)
	return updated, nil
}

// StorageStatus reports every storage tier.
func (u *OrderUseCase) StorageStatus() []repository.TierStatus {
	return u.store.Status()
}
