package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/flouci-labs/checkout-gateway/internal/models"
)

// OrderRepository reads orders and applies terminal status transitions
// against the shop's order storage. Transitions are compare-and-set UPDATEs
// guarded on the current status, so a duplicate callback can never apply the
// same transition twice or flip a terminal state.
type OrderRepository struct {
	db           *sql.DB
	storeBaseURL string
}

func NewOrderRepository(db *sql.DB, storeBaseURL string) *OrderRepository {
	return &OrderRepository{db: db, storeBaseURL: storeBaseURL}
}

func (r *OrderRepository) InitDB() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS orders (
			id BIGSERIAL PRIMARY KEY,
			total NUMERIC(14,3) NOT NULL,
			status VARCHAR(50) NOT NULL DEFAULT 'pending',
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS order_notes (
			id BIGSERIAL PRIMARY KEY,
			order_id BIGINT NOT NULL REFERENCES orders(id),
			note TEXT NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_orders_status ON orders(status)`,
		`CREATE INDEX IF NOT EXISTS idx_order_notes_order_id ON order_notes(order_id)`,
	}

	for _, query := range queries {
		if _, err := r.db.Exec(query); err != nil {
			return err
		}
	}
	return nil
}

func (r *OrderRepository) GetOrder(ctx context.Context, orderID int64) (*models.Order, error) {
	var (
		order models.Order
		total string
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT id, total, status, created_at, updated_at
		FROM orders WHERE id = $1
	`, orderID).Scan(&order.ID, &total, &order.Status, &order.CreatedAt, &order.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: order %d", models.ErrOrderNotFound, orderID)
	}
	if err != nil {
		return nil, err
	}

	order.Total, err = decimal.NewFromString(total)
	if err != nil {
		return nil, fmt.Errorf("order %d carries unreadable total %q: %w", orderID, total, err)
	}

	order.ReturnURL = fmt.Sprintf("%s/checkout/order-received/%d", r.storeBaseURL, orderID)
	order.CancelURL = fmt.Sprintf("%s/checkout/order-cancelled/%d", r.storeBaseURL, orderID)
	return &order, nil
}

func (r *OrderRepository) CompleteOrder(ctx context.Context, orderID int64, note string) (bool, error) {
	return r.transition(ctx, orderID, models.StatusCompleted, note)
}

func (r *OrderRepository) FailOrder(ctx context.Context, orderID int64, note string) (bool, error) {
	return r.transition(ctx, orderID, models.StatusFailed, note)
}

// transition applies pending -> to and appends the audit note in one
// transaction. When the guarded UPDATE hits zero rows the current status
// decides the result: already in the target state is a no-op, the opposite
// terminal state is a conflict.
func (r *OrderRepository) transition(ctx context.Context, orderID int64, to models.OrderStatus, note string) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		UPDATE orders SET status = $1, updated_at = NOW()
		WHERE id = $2 AND status = $3
	`, to, orderID, models.StatusPending)
	if err != nil {
		return false, err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	if rows == 0 {
		var current models.OrderStatus
		err := tx.QueryRowContext(ctx, `SELECT status FROM orders WHERE id = $1`, orderID).Scan(&current)
		if errors.Is(err, sql.ErrNoRows) {
			return false, fmt.Errorf("%w: order %d", models.ErrOrderNotFound, orderID)
		}
		if err != nil {
			return false, err
		}
		if current == to {
			return false, nil
		}
		return false, fmt.Errorf("%w: order %d is %s, refusing %s", models.ErrStateConflict, orderID, current, to)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO order_notes (order_id, note) VALUES ($1, $2)
	`, orderID, note); err != nil {
		return false, err
	}

	if err := tx.Commit(); err != nil {
		return false, err
	}
	return true, nil
}

// Notes returns an order's audit log, oldest first.
func (r *OrderRepository) Notes(ctx context.Context, orderID int64) ([]models.OrderNote, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, order_id, note, created_at
		FROM order_notes WHERE order_id = $1 ORDER BY id
	`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notes []models.OrderNote
	for rows.Next() {
		var n models.OrderNote
		if err := rows.Scan(&n.ID, &n.OrderID, &n.Note, &n.CreatedAt); err != nil {
			return nil, err
		}
		notes = append(notes, n)
	}
	return notes, rows.Err()
}
