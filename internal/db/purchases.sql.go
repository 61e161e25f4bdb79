package db

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
)

const purchaseColumns = `id, lead_id, stripe_checkout_session, tier, amount_total, currency, status, error_message, delivered_at, created_at, updated_at`

func scanPurchase(row rowScanner) (Purchase, error) {
	var i Purchase
	err := row.Scan(
		&i.ID,
		&i.LeadID,
		&i.StripeCheckoutSession,
		&i.Tier,
		&i.AmountTotal,
		&i.Currency,
		&i.Status,
		&i.ErrorMessage,
		&i.DeliveredAt,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const createPurchase = `-- name: CreatePurchase :one
INSERT INTO purchases (lead_id, stripe_checkout_session, tier, amount_total, currency, status)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (stripe_checkout_session) DO NOTHING
RETURNING ` + purchaseColumns

type CreatePurchaseParams struct {
	LeadID                uuid.UUID `json:"lead_id"`
	StripeCheckoutSession string    `json:"stripe_checkout_session"`
	Tier                  string    `json:"tier"`
	AmountTotal           int64     `json:"amount_total"`
	Currency              string    `json:"currency"`
	Status                string    `json:"status"`
}

// CreatePurchase returns sql.ErrNoRows when the checkout session was already
// recorded.
func (q *Queries) CreatePurchase(ctx context.Context, arg CreatePurchaseParams) (Purchase, error) {
	row := q.queryRow(ctx, q.createPurchaseStmt, createPurchase,
		arg.LeadID,
		arg.StripeCheckoutSession,
		arg.Tier,
		arg.AmountTotal,
		arg.Currency,
		arg.Status,
	)
	return scanPurchase(row)
}

const getPurchaseByCheckoutSession = `-- name: GetPurchaseByCheckoutSession :one
SELECT ` + purchaseColumns + ` FROM purchases WHERE stripe_checkout_session = $1`

func (q *Queries) GetPurchaseByCheckoutSession(ctx context.Context, stripeCheckoutSession string) (Purchase, error) {
	row := q.queryRow(ctx, q.getPurchaseByCheckoutSessionStmt, getPurchaseByCheckoutSession, stripeCheckoutSession)
	return scanPurchase(row)
}

const getPurchaseByID = `-- name: GetPurchaseByID :one
SELECT ` + purchaseColumns + ` FROM purchases WHERE id = $1`

func (q *Queries) GetPurchaseByID(ctx context.Context, id uuid.UUID) (Purchase, error) {
	row := q.queryRow(ctx, q.getPurchaseByIDStmt, getPurchaseByID, id)
	return scanPurchase(row)
}

const listPendingPurchases = `-- name: ListPendingPurchases :many
SELECT ` + purchaseColumns + ` FROM purchases
WHERE status = 'paid'
ORDER BY created_at
LIMIT $1`

func (q *Queries) ListPendingPurchases(ctx context.Context, limit int32) ([]Purchase, error) {
	rows, err := q.query(ctx, q.listPendingPurchasesStmt, listPendingPurchases, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Purchase
	for rows.Next() {
		i, err := scanPurchase(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const markPurchaseDelivered = `-- name: MarkPurchaseDelivered :one
UPDATE purchases
SET status = 'delivered', delivered_at = now(), error_message = NULL, updated_at = now()
WHERE id = $1
RETURNING ` + purchaseColumns

func (q *Queries) MarkPurchaseDelivered(ctx context.Context, id uuid.UUID) (Purchase, error) {
	row := q.queryRow(ctx, q.markPurchaseDeliveredStmt, markPurchaseDelivered, id)
	return scanPurchase(row)
}

const markPurchaseFailed = `-- name: MarkPurchaseFailed :one
UPDATE purchases
SET status = 'error', error_message = $2, updated_at = now()
WHERE id = $1
RETURNING ` + purchaseColumns

type MarkPurchaseFailedParams struct {
	ID           uuid.UUID      `json:"id"`
	ErrorMessage sql.NullString `json:"error_message"`
}

func (q *Queries) MarkPurchaseFailed(ctx context.Context, arg MarkPurchaseFailedParams) (Purchase, error) {
	row := q.queryRow(ctx, q.markPurchaseFailedStmt, markPurchaseFailed, arg.ID, arg.ErrorMessage)
	return scanPurchase(row)
}
