package repository

import (
	"context"
	"database/sql"
	"time"

	"payment-router/internal/models"
)

type OrderRepository struct {
	db *sql.DB
}

func NewOrderRepository(db *sql.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// Create inserts the order, relying on the unique constraint on external_id.
// Returns false when a row with the same external id already existed.
func (r *OrderRepository) Create(ctx context.Context, order *models.OrderRecord) (bool, error) {
	query := `
		INSERT INTO orders (id, external_id, customer_email, amount, product_id, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (external_id) DO NOTHING
	`

	res, err := r.db.ExecContext(ctx, query,
		order.ID,
		order.ExternalID,
		order.CustomerEmail,
		order.Amount,
		order.ProductID,
		order.Status,
		order.CreatedAt,
	)
	if err != nil {
		return false, err
	}

	n, err := res.RowsAffected()
	return n > 0, err
}

// FindRecentDuplicate looks for an order with the same customer email and
// amount created since the cutoff. This is the guard against double-clicked
// submissions from clients that regenerate external ids.
func (r *OrderRepository) FindRecentDuplicate(ctx context.Context, email string, amount int64, since time.Time) (*models.OrderRecord, error) {
	query := `
		SELECT id, external_id, customer_email, amount, product_id, status, created_at
		FROM orders
		WHERE customer_email = $1 AND amount = $2 AND created_at >= $3
		ORDER BY created_at DESC
		LIMIT 1
	`
	return r.scanOne(r.db.QueryRowContext(ctx, query, email, amount, since))
}

func (r *OrderRepository) FindByExternalID(ctx context.Context, externalID string) (*models.OrderRecord, error) {
	query := `
		SELECT id, external_id, customer_email, amount, product_id, status, created_at
		FROM orders WHERE external_id = $1
	`
	return r.scanOne(r.db.QueryRowContext(ctx, query, externalID))
}

func (r *OrderRepository) scanOne(row *sql.Row) (*models.OrderRecord, error) {
	order := &models.OrderRecord{}
	var productID sql.NullString
	err := row.Scan(
		&order.ID,
		&order.ExternalID,
		&order.CustomerEmail,
		&order.Amount,
		&productID,
		&order.Status,
		&order.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	order.ProductID = productID.String

	return order, nil
}
