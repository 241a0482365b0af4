package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	goredis "github.com/redis/go-redis/v9"

	domainErrors "github.com/polkiloo/storefront/internal/domain/errors"
	"github.com/polkiloo/storefront/internal/domain/model"
	"github.com/polkiloo/storefront/internal/domain/repository"
)

// TierName identifies the Redis tier.
const TierName = "redis"

// Storage keeps one JSON value per order plus a sorted-set index by creation time.
type Storage struct {
	client *goredis.Client
	prefix string
	logger *slog.Logger
}

var _ repository.OrderStore = (*Storage)(nil)

// New wraps client. Keys are namespaced with prefix.
func New(client *goredis.Client, prefix string, logger *slog.Logger) *Storage {
	return &Storage{client: client, prefix: prefix, logger: logger}
}

func (s *Storage) Name() string { return TierName }

func (s *Storage) orderKey(id string) string {
	return fmt.Sprintf("%sorder:%s", s.prefix, id)
}

func (s *Storage) indexKey() string {
	return s.prefix + "orders"
}

type orderRecord struct {
	ID             string       `json:"id"`
	UserID         string       `json:"user_id,omitempty"`
	Customer       customer     `json:"customer"`
	Items          []itemRecord `json:"items"`
	TotalAmount    float64      `json:"total_amount"`
	DiscountAmount float64      `json:"discount_amount"`
	FinalAmount    float64      `json:"final_amount"`
	Status         string       `json:"status"`
	PaymentStatus  string       `json:"payment_status"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
}

type customer struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
	Email   string `json:"email,omitempty"`
}

type itemRecord struct {
	Name      string  `json:"name"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
}

// Create stores order with SETNX so an existing id is never overwritten.
func (s *Storage) Create(ctx context.Context, order model.Order) (*model.Order, error) {
	payload, err := encode(order)
	if err != nil {
		return nil, domainErrors.Constraint(TierName, err)
	}

	ok, err := s.client.SetNX(ctx, s.orderKey(order.ID), payload, 0).Result()
	if err != nil {
		return nil, classify(err)
	}
	if !ok {
		return nil, domainErrors.Constraint(TierName, fmt.Errorf("order %s already exists", order.ID))
	}

	member := goredis.Z{Score: float64(order.CreatedAt.UnixMilli()), Member: order.ID}
	if err := s.client.ZAdd(ctx, s.indexKey(), member).Err(); err != nil {
		s.logger.Warn("redis index update failed", slog.String("order_id", order.ID), slog.String("error", err.Error()))
	}

	out := order.Clone()
	return &out, nil
}

func (s *Storage) GetByID(ctx context.Context, id string) (*model.Order, error) {
	raw, err := s.client.Get(ctx, s.orderKey(id)).Result()
	if err != nil {
		return nil, classify(err)
	}
	order, err := decode(raw)
	if err != nil {
		return nil, classify(err)
	}
	return &order, nil
}

// List returns indexed orders, newest first.
func (s *Storage) List(ctx context.Context) ([]model.Order, error) {
	ids, err := s.client.ZRevRange(ctx, s.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, classify(err)
	}

	result := make([]model.Order, 0, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, s.orderKey(id))
	}
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, classify(err)
	}
	for _, v := range values {
		raw, ok := v.(string)
		if !ok {
			continue
		}
		order, err := decode(raw)
		if err != nil {
			return nil, classify(err)
		}
		result = append(result, order)
	}
	return result, nil
}

func (s *Storage) UpdateStatus(ctx context.Context, id string, update model.StatusUpdate) (*model.Order, error) {
	current, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	update.Apply(current)

	payload, err := encode(*current)
	if err != nil {
		return nil, domainErrors.Constraint(TierName, err)
	}
	ok, err := s.client.SetXX(ctx, s.orderKey(id), payload, 0).Result()
	if err != nil {
		return nil, classify(err)
	}
	if !ok {
		return nil, domainErrors.NotFound(TierName)
	}
	return current, nil
}

func encode(order model.Order) (string, error) {
	items := make([]itemRecord, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, itemRecord(item))
	}
	data, err := json.Marshal(orderRecord{
		ID:             order.ID,
		UserID:         order.UserID,
		Customer:       customer(order.Customer),
		Items:          items,
		TotalAmount:    order.TotalAmount,
		DiscountAmount: order.DiscountAmount,
		FinalAmount:    order.FinalAmount,
		Status:         string(order.Status),
		PaymentStatus:  string(order.PaymentStatus),
		CreatedAt:      order.CreatedAt,
		UpdatedAt:      order.UpdatedAt,
	})
	if err != nil {
		return "", fmt.Errorf("encode order: %w", err)
	}
	return string(data), nil
}

func decode(raw string) (model.Order, error) {
	var rec orderRecord
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return model.Order{}, fmt.Errorf("decode order: %w", err)
	}
	items := make([]model.Item, 0, len(rec.Items))
	for _, item := range rec.Items {
		items = append(items, model.Item(item))
	}
	return model.Order{
		ID:             rec.ID,
		UserID:         rec.UserID,
		Customer:       model.Customer(rec.Customer),
		Items:          items,
		TotalAmount:    rec.TotalAmount,
		DiscountAmount: rec.DiscountAmount,
		FinalAmount:    rec.FinalAmount,
		Status:         model.OrderStatus(rec.Status),
		PaymentStatus:  model.PaymentStatus(rec.PaymentStatus),
		CreatedAt:      rec.CreatedAt,
		UpdatedAt:      rec.UpdatedAt,
	}, nil
}

func classify(err error) error {
	if errors.Is(err, goredis.Nil) {
		return domainErrors.NotFound(TierName)
	}
	return domainErrors.Connectivity(TierName, err)
}
