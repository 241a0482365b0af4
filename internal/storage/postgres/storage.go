package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	domainErrors "github.com/polkiloo/storefront/internal/domain/errors"
	"github.com/polkiloo/storefront/internal/domain/model"
	"github.com/polkiloo/storefront/internal/domain/repository"
)

// TierName identifies the PostgreSQL tier.
const TierName = "postgres"

type pgxPool interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

var newPgxPool = func(ctx context.Context, cfg *pgxpool.Config) (pgxPool, error) {
	return pgxpool.NewWithConfig(ctx, cfg)
}

// Storage is the order store backed by PostgreSQL.
// The pool connects lazily and the schema is created on first use, so an unreachable
// database only degrades the tier instead of failing startup.
type Storage struct {
	pool   pgxPool
	logger *slog.Logger

	schemaMu    sync.Mutex
	schemaReady bool
}

var (
	_ repository.OrderStore = (*Storage)(nil)
	_ repository.Closer     = (*Storage)(nil)
)

// New creates storage over dsn.
func New(ctx context.Context, dsn string, logger *slog.Logger) (*Storage, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}

	pool, err := newPgxPool(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect db: %w", err)
	}

	return &Storage{pool: pool, logger: logger}, nil
}

func (s *Storage) Name() string { return TierName }

// Close releases database resources.
func (s *Storage) Close(context.Context) error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}

func (s *Storage) ensureSchema(ctx context.Context) error {
	s.schemaMu.Lock()
	defer s.schemaMu.Unlock()

	if s.schemaReady {
		return nil
	}

	statements := []string{
		`CREATE TABLE IF NOT EXISTS orders (
            id TEXT PRIMARY KEY,
            user_id TEXT,
            customer_name TEXT NOT NULL DEFAULT '',
            customer_phone TEXT NOT NULL DEFAULT '',
            customer_address TEXT NOT NULL DEFAULT '',
            customer_email TEXT NOT NULL DEFAULT '',
            items JSONB NOT NULL,
            total_amount DOUBLE PRECISION NOT NULL,
            discount_amount DOUBLE PRECISION NOT NULL DEFAULT 0,
            final_amount DOUBLE PRECISION NOT NULL,
            status TEXT NOT NULL,
            payment_status TEXT NOT NULL,
            created_at TIMESTAMPTZ NOT NULL,
            updated_at TIMESTAMPTZ NOT NULL
        )`,
		`CREATE INDEX IF NOT EXISTS idx_orders_created ON orders(created_at DESC)`,
	}

	for _, stmt := range statements {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}

	s.schemaReady = true
	s.logger.Info("postgres schema ready")
	return nil
}

const orderColumns = `id, user_id, customer_name, customer_phone, customer_address, customer_email,
       items, total_amount, discount_amount, final_amount, status, payment_status, created_at, updated_at`

type itemRecord struct {
	Name      string  `json:"name"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
}

func (s *Storage) Create(ctx context.Context, order model.Order) (*model.Order, error) {
	if err := s.ensureSchema(ctx); err != nil {
		return nil, classify(err)
	}

	items, err := encodeItems(order.Items)
	if err != nil {
		return nil, domainErrors.Constraint(TierName, err)
	}

	const query = `INSERT INTO orders (` + orderColumns + `)
                   VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`
	_, err = s.pool.Exec(ctx, query,
		order.ID, nullable(order.UserID),
		order.Customer.Name, order.Customer.Phone, order.Customer.Address, order.Customer.Email,
		items, order.TotalAmount, order.DiscountAmount, order.FinalAmount,
		string(order.Status), string(order.PaymentStatus), order.CreatedAt, order.UpdatedAt,
	)
	if err != nil {
		return nil, classify(err)
	}

	out := order.Clone()
	return &out, nil
}

func (s *Storage) GetByID(ctx context.Context, id string) (*model.Order, error) {
	if err := s.ensureSchema(ctx); err != nil {
		return nil, classify(err)
	}

	const query = `SELECT ` + orderColumns + ` FROM orders WHERE id=$1`
	order, err := scanOrder(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, classify(err)
	}
	return order, nil
}

// List returns every order, newest first.
func (s *Storage) List(ctx context.Context) ([]model.Order, error) {
	if err := s.ensureSchema(ctx); err != nil {
		return nil, classify(err)
	}

	const query = `SELECT ` + orderColumns + ` FROM orders ORDER BY created_at DESC`
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	result := make([]model.Order, 0)
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, classify(err)
		}
		result = append(result, *order)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err)
	}
	return result, nil
}

func (s *Storage) UpdateStatus(ctx context.Context, id string, update model.StatusUpdate) (*model.Order, error) {
	if err := s.ensureSchema(ctx); err != nil {
		return nil, classify(err)
	}

	var payment *string
	if update.PaymentStatus != nil {
		v := string(*update.PaymentStatus)
		payment = &v
	}

	const query = `UPDATE orders
                   SET status=$1, payment_status=COALESCE($2::text, payment_status), updated_at=$3
                   WHERE id=$4
                   RETURNING ` + orderColumns
	order, err := scanOrder(s.pool.QueryRow(ctx, query, string(update.Status), payment, update.UpdatedAt, id))
	if err != nil {
		return nil, classify(err)
	}
	return order, nil
}

func scanOrder(row pgx.Row) (*model.Order, error) {
	var (
		order         model.Order
		userID        *string
		items         []byte
		status        string
		paymentStatus string
	)
	err := row.Scan(
		&order.ID, &userID,
		&order.Customer.Name, &order.Customer.Phone, &order.Customer.Address, &order.Customer.Email,
		&items, &order.TotalAmount, &order.DiscountAmount, &order.FinalAmount,
		&status, &paymentStatus, &order.CreatedAt, &order.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if userID != nil {
		order.UserID = *userID
	}
	order.Status = model.OrderStatus(status)
	order.PaymentStatus = model.PaymentStatus(paymentStatus)
	if order.Items, err = decodeItems(items); err != nil {
		return nil, err
	}
	return &order, nil
}

func encodeItems(items []model.Item) ([]byte, error) {
	records := make([]itemRecord, 0, len(items))
	for _, item := range items {
		records = append(records, itemRecord(item))
	}
	return json.Marshal(records)
}

func decodeItems(raw []byte) ([]model.Item, error) {
	var records []itemRecord
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("decode items: %w", err)
	}
	items := make([]model.Item, 0, len(records))
	for _, r := range records {
		items = append(items, model.Item(r))
	}
	return items, nil
}

func nullable(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}

// classify maps pgx failures onto the store error classes.
// Integrity (23) and data (22) violations are permanent, anything else is treated as connectivity.
func classify(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return domainErrors.NotFound(TierName)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && (strings.HasPrefix(pgErr.Code, "23") || strings.HasPrefix(pgErr.Code, "22")) {
		return domainErrors.Constraint(TierName, err)
	}
	return domainErrors.Connectivity(TierName, err)
}
