package kafka

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/polkiloo/storefront/internal/domain/model"
)

// EventOrderCreated is the event type published for new orders.
const EventOrderCreated = "order.created"

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher emits order events to the warehouse topic.
type Publisher struct {
	writer messageWriter
	now    func() time.Time
}

type itemEvent struct {
	Name      string  `json:"name"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
}

type orderEvent struct {
	Type          string      `json:"type"`
	OrderID       string      `json:"order_id"`
	UserID        string      `json:"user_id,omitempty"`
	CustomerName  string      `json:"customer_name"`
	CustomerPhone string      `json:"customer_phone"`
	Address       string      `json:"address"`
	Items         []itemEvent `json:"items"`
	FinalAmount   float64     `json:"final_amount"`
	PaymentStatus string      `json:"payment_status"`
	CreatedAt     time.Time   `json:"created_at"`
}

// NewPublisher creates a publisher writing to topic on brokers.
func NewPublisher(brokers []string, topic string) *Publisher {
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.LeastBytes{},
		BatchTimeout:           10 * time.Millisecond,
		AllowAutoTopicCreation: true,
	}
	return &Publisher{writer: writer, now: time.Now}
}

func (p *Publisher) Name() string { return "kafka" }

// Send publishes an order.created event keyed by order id.
func (p *Publisher) Send(ctx context.Context, order model.Order) error {
	data, err := json.Marshal(newOrderEvent(order))
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(order.ID),
		Value: data,
		Time:  p.now(),
	})
}

// Close flushes pending messages.
func (p *Publisher) Close() error {
	return p.writer.Close()
}

func newOrderEvent(order model.Order) orderEvent {
	items := make([]itemEvent, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, itemEvent{Name: item.Name, Quantity: item.Quantity, UnitPrice: item.UnitPrice})
	}
	return orderEvent{
		Type:          EventOrderCreated,
		OrderID:       order.ID,
		UserID:        order.UserID,
		CustomerName:  order.Customer.Name,
		CustomerPhone: order.Customer.Phone,
		Address:       order.Customer.Address,
		Items:         items,
		FinalAmount:   order.FinalAmount,
		PaymentStatus: string(order.PaymentStatus),
		CreatedAt:     order.CreatedAt,
	}
}
