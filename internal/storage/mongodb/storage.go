package mongodb

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainErrors "github.com/polkiloo/storefront/internal/domain/errors"
	"github.com/polkiloo/storefront/internal/domain/model"
	"github.com/polkiloo/storefront/internal/domain/repository"
)

// TierName identifies the MongoDB tier.
const TierName = "mongodb"

const collectionName = "orders"

type collection interface {
	InsertOne(ctx context.Context, document interface{}, opts ...*options.InsertOneOptions) (*mongo.InsertOneResult, error)
	FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) *mongo.SingleResult
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) (*mongo.Cursor, error)
	FindOneAndUpdate(ctx context.Context, filter interface{}, update interface{}, opts ...*options.FindOneAndUpdateOptions) *mongo.SingleResult
}

// Storage is the order store backed by a MongoDB collection keyed by order id.
type Storage struct {
	client     *mongo.Client
	collection collection
	logger     *slog.Logger
}

var (
	_ repository.OrderStore = (*Storage)(nil)
	_ repository.Closer     = (*Storage)(nil)
)

// New configures a client for uri. The driver selects servers lazily, so no round trip happens here.
func New(ctx context.Context, uri, database string, selectionTimeout time.Duration, logger *slog.Logger) (*Storage, error) {
	opts := options.Client().ApplyURI(uri)
	if selectionTimeout > 0 {
		opts.SetServerSelectionTimeout(selectionTimeout)
	}
	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	return &Storage{
		client:     client,
		collection: client.Database(database).Collection(collectionName),
		logger:     logger,
	}, nil
}

func (s *Storage) Name() string { return TierName }

// Close disconnects the client.
func (s *Storage) Close(ctx context.Context) error {
	if s.client == nil {
		return nil
	}
	if err := s.client.Disconnect(ctx); err != nil {
		return fmt.Errorf("disconnect mongo: %w", err)
	}
	return nil
}

type customerDocument struct {
	Name    string `bson:"name"`
	Phone   string `bson:"phone"`
	Address string `bson:"address"`
	Email   string `bson:"email,omitempty"`
}

type itemDocument struct {
	Name      string  `bson:"name"`
	Quantity  int     `bson:"quantity"`
	UnitPrice float64 `bson:"unit_price"`
}

type orderDocument struct {
	ID             string           `bson:"_id"`
	UserID         string           `bson:"user_id,omitempty"`
	Customer       customerDocument `bson:"customer"`
	Items          []itemDocument   `bson:"items"`
	TotalAmount    float64          `bson:"total_amount"`
	DiscountAmount float64          `bson:"discount_amount"`
	FinalAmount    float64          `bson:"final_amount"`
	Status         string           `bson:"status"`
	PaymentStatus  string           `bson:"payment_status"`
	CreatedAt      time.Time        `bson:"created_at"`
	UpdatedAt      time.Time        `bson:"updated_at"`
}

func (s *Storage) Create(ctx context.Context, order model.Order) (*model.Order, error) {
	doc := toDocument(order)
	if _, err := s.collection.InsertOne(ctx, doc); err != nil {
		return nil, classify(err)
	}
	out := doc.toModel()
	return &out, nil
}

func (s *Storage) GetByID(ctx context.Context, id string) (*model.Order, error) {
	var doc orderDocument
	if err := s.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		return nil, classify(err)
	}
	order := doc.toModel()
	return &order, nil
}

// List returns every order sorted by creation time, newest first.
func (s *Storage) List(ctx context.Context) ([]model.Order, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := s.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, classify(err)
	}
	defer cursor.Close(ctx)

	result := make([]model.Order, 0)
	for cursor.Next(ctx) {
		var doc orderDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, classify(err)
		}
		result = append(result, doc.toModel())
	}
	if err := cursor.Err(); err != nil {
		return nil, classify(err)
	}
	return result, nil
}

func (s *Storage) UpdateStatus(ctx context.Context, id string, update model.StatusUpdate) (*model.Order, error) {
	set := bson.M{
		"status":     string(update.Status),
		"updated_at": bsonTime(update.UpdatedAt),
	}
	if update.PaymentStatus != nil {
		set["payment_status"] = string(*update.PaymentStatus)
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc orderDocument
	err := s.collection.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&doc)
	if err != nil {
		return nil, classify(err)
	}
	order := doc.toModel()
	return &order, nil
}

func toDocument(order model.Order) orderDocument {
	items := make([]itemDocument, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, itemDocument(item))
	}
	return orderDocument{
		ID:             order.ID,
		UserID:         order.UserID,
		Customer:       customerDocument(order.Customer),
		Items:          items,
		TotalAmount:    order.TotalAmount,
		DiscountAmount: order.DiscountAmount,
		FinalAmount:    order.FinalAmount,
		Status:         string(order.Status),
		PaymentStatus:  string(order.PaymentStatus),
		CreatedAt:      bsonTime(order.CreatedAt),
		UpdatedAt:      bsonTime(order.UpdatedAt),
	}
}

// bsonTime drops what a BSON datetime cannot hold.
func bsonTime(t time.Time) time.Time {
	return t.UTC().Truncate(time.Millisecond)
}

func (d orderDocument) toModel() model.Order {
	items := make([]model.Item, 0, len(d.Items))
	for _, item := range d.Items {
		items = append(items, model.Item(item))
	}
	return model.Order{
		ID:             d.ID,
		UserID:         d.UserID,
		Customer:       model.Customer(d.Customer),
		Items:          items,
		TotalAmount:    d.TotalAmount,
		DiscountAmount: d.DiscountAmount,
		FinalAmount:    d.FinalAmount,
		Status:         model.OrderStatus(d.Status),
		PaymentStatus:  model.PaymentStatus(d.PaymentStatus),
		CreatedAt:      d.CreatedAt,
		UpdatedAt:      d.UpdatedAt,
	}
}

func classify(err error) error {
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		return domainErrors.NotFound(TierName)
	case mongo.IsDuplicateKeyError(err):
		return domainErrors.Constraint(TierName, err)
	default:
		return domainErrors.Connectivity(TierName, err)
	}
}
