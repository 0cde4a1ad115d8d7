package checkout

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"quantumsport/internal/apperr"
	"quantumsport/internal/invoice"
)

var ErrNotFound = fmt.Errorf("checkout %w", apperr.ErrNotFound)

const checkoutColumns = `id, session_id, customer_id, customer_email, customer_name, venue_id, booking_id, invoice_id, invoice_number, court_subtotal, coach_subtotal, inventory_subtotal, subtotal, tax, grand_total, charged_total, status, due_date, created_at, updated_at`

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, c *Checkout) (*Checkout, error) {
	query := `
		INSERT INTO checkouts (session_id, customer_id, customer_email, customer_name, venue_id, booking_id, invoice_id, invoice_number, court_subtotal, coach_subtotal, inventory_subtotal, subtotal, tax, grand_total, charged_total, status, due_date)
		VALUES (:session_id, :customer_id, :customer_email, :customer_name, :venue_id, :booking_id, :invoice_id, :invoice_number, :court_subtotal, :coach_subtotal, :inventory_subtotal, :subtotal, :tax, :grand_total, :charged_total, :status, :due_date)
		RETURNING id, created_at, updated_at
	`

	rows, err := r.db.NamedQueryContext(ctx, query, c)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := *c
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, sql.ErrNoRows
	}
	if err := rows.Scan(&out.ID, &out.CreatedAt, &out.UpdatedAt); err != nil {
		return nil, err
	}

	return &out, nil
}

func (r *repository) GetByInvoiceID(ctx context.Context, invoiceID string) (*Checkout, error) {
	query := `
		SELECT ` + checkoutColumns + `
		FROM checkouts
		WHERE invoice_id = $1
	`

	var c Checkout
	err := r.db.GetContext(ctx, &c, query, invoiceID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return &c, nil
}

// UpdateStatus records the latest invoice status for invoiceID.
func (r *repository) UpdateStatus(ctx context.Context, invoiceID, status string) error {
	query := `
		UPDATE checkouts
		SET status = $1, updated_at = NOW()
		WHERE invoice_id = $2
	`

	result, err := r.db.ExecContext(ctx, query, status, invoiceID)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

func (r *repository) ListByCustomer(ctx context.Context, customerID string) ([]Checkout, error) {
	query := `
		SELECT ` + checkoutColumns + `
		FROM checkouts
		WHERE customer_id = $1
		ORDER BY created_at DESC
	`

	checkouts := []Checkout{}
	err := r.db.SelectContext(ctx, &checkouts, query, customerID)
	if err != nil {
		return nil, err
	}

	return checkouts, nil
}

func (r *repository) ListAll(ctx context.Context, limit, offset int) ([]Checkout, error) {
	query := `
		SELECT ` + checkoutColumns + `
		FROM checkouts
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`

	checkouts := []Checkout{}
	err := r.db.SelectContext(ctx, &checkouts, query, limit, offset)
	if err != nil {
		return nil, err
	}

	return checkouts, nil
}

// InvoiceOwner returns the customer who checked out invoiceID.
func (r *repository) InvoiceOwner(ctx context.Context, invoiceID string) (string, error) {
	query := `SELECT customer_id FROM checkouts WHERE invoice_id = $1`

	var customerID string
	err := r.db.GetContext(ctx, &customerID, query, invoiceID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", invoice.ErrNotFound
	}
	if err != nil {
		return "", err
	}

	return customerID, nil
}
