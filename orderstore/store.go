package orderstore

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	sqlitemigrate "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "modernc.org/sqlite"

	"storefront-order-engine/models"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

var (
	ErrOrderNotFound  = errors.New("order not found")
	ErrDuplicateOrder = errors.New("order with this id already exists")
	ErrTerminalStatus = errors.New("order status is terminal")
)

// Store is the order history kept in SQLite.
type Store struct {
	db *sql.DB
}

// Open connects to the database file at path and applies migrations.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if e2 := db.Ping(); e2 != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", e2)
	}

	// SQLite allows a single writer.
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.RunMigrations(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) RunMigrations() error {
	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("could not open migrations: %w", err)
	}

	driver, err := sqlitemigrate.WithInstance(s.db, &sqlitemigrate.Config{
		MigrationsTable: "orders_schema_migrations",
	})
	if err != nil {
		return fmt.Errorf("could not create migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}

	if e2 := m.Up(); e2 != nil && !errors.Is(e2, migrate.ErrNoChange) {
		return fmt.Errorf("could not run migrations: %w", e2)
	}
	return nil
}

const selectColumns = `id, placed_at, subtotal, delivery_fee, total, distance_km, estimated_hours,
	payment_method, payment_detail, first_name, last_name, email, mobile,
	address, delivery_address_text, notes, session_id, status, items`

// Save inserts a newly assembled order.
func (s *Store) Save(ctx context.Context, order *models.Order) error {
	itemsJSON, err := json.Marshal(order.Items)
	if err != nil {
		return fmt.Errorf("failed to marshal order items: %w", err)
	}
	addressJSON, err := json.Marshal(order.Address)
	if err != nil {
		return fmt.Errorf("failed to marshal order address: %w", err)
	}

	query := `INSERT INTO orders (` + selectColumns + `, email_key, updated_at)
	          VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	          ON CONFLICT (id) DO NOTHING`

	res, err := s.db.ExecContext(ctx, query,
		order.ID,
		order.PlacedAt.UnixNano(),
		order.Subtotal,
		order.DeliveryFee,
		order.Total,
		order.DistanceKm,
		order.EstimatedHours,
		string(order.Payment.Method),
		order.Payment.Detail,
		order.Customer.FirstName,
		order.Customer.LastName,
		order.Customer.Email,
		order.Customer.Mobile,
		string(addressJSON),
		order.DeliveryAddressText,
		order.Notes,
		order.SessionID,
		string(order.Status),
		string(itemsJSON),
		emailKey(order.Customer.Email),
		time.Now().UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	if n == 0 {
		return ErrDuplicateOrder
	}
	return nil
}

func (s *Store) Get(ctx context.Context, id string) (*models.Order, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+selectColumns+` FROM orders WHERE id = ?`, id)

	order, err := scanOrder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query order by id: %w", err)
	}
	return order, nil
}

// ListByCustomer reconstructs a customer's order history, newest first.
func (s *Store) ListByCustomer(ctx context.Context, email string) ([]*models.Order, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+selectColumns+` FROM orders WHERE email_key = ? ORDER BY placed_at DESC`,
		emailKey(email))
	if err != nil {
		return nil, fmt.Errorf("query orders by email: %w", err)
	}
	defer rows.Close()

	var orders []*models.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order row: %w", err)
		}
		orders = append(orders, order)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return orders, nil
}

// UpdateStatus moves a non-terminal order to status. Financial fields are never touched.
func (s *Store) UpdateStatus(ctx context.Context, id string, status models.OrderStatus) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE orders SET status = ?, updated_at = ? WHERE id = ? AND status NOT IN (?, ?)`,
		string(status),
		time.Now().UnixNano(),
		id,
		string(models.OrderStatusCancelled),
		string(models.OrderStatusFinalized),
	)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	if n > 0 {
		return nil
	}

	current, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if current.Status == status {
		return nil
	}
	return fmt.Errorf("%w: %s is %s", ErrTerminalStatus, id, current.Status)
}

func (s *Store) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanOrder(row scanner) (*models.Order, error) {
	var (
		order       models.Order
		placedAt    int64
		method      string
		status      string
		addressJSON string
		itemsJSON   string
	)
	err := row.Scan(
		&order.ID,
		&placedAt,
		&order.Subtotal,
		&order.DeliveryFee,
		&order.Total,
		&order.DistanceKm,
		&order.EstimatedHours,
		&method,
		&order.Payment.Detail,
		&order.Customer.FirstName,
		&order.Customer.LastName,
		&order.Customer.Email,
		&order.Customer.Mobile,
		&addressJSON,
		&order.DeliveryAddressText,
		&order.Notes,
		&order.SessionID,
		&status,
		&itemsJSON,
	)
	if err != nil {
		return nil, err
	}

	order.PlacedAt = time.Unix(0, placedAt)
	order.Payment.Method = models.PaymentMethod(method)
	order.Status = models.OrderStatus(status)

	if err := json.Unmarshal([]byte(addressJSON), &order.Address); err != nil {
		return nil, fmt.Errorf("unmarshal order address: %w", err)
	}
	if err := json.Unmarshal([]byte(itemsJSON), &order.Items); err != nil {
		return nil, fmt.Errorf("unmarshal order items: %w", err)
	}
	return &order, nil
}

// emailKey is the case-insensitive lookup form of an email. The address
// itself is stored as entered.
func emailKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
