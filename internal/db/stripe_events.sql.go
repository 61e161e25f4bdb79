package db

import (
	"context"
	"database/sql"
	"encoding/json"
)

const upsertStripeEvent = `-- name: UpsertStripeEvent :one
INSERT INTO stripe_events (stripe_event_id, type, payload)
VALUES ($1, $2, $3)
ON CONFLICT (stripe_event_id) DO UPDATE SET error = NULL
WHERE stripe_events.processed_at IS NULL
RETURNING stripe_event_id, type, payload, processed_at, error, created_at`

type UpsertStripeEventParams struct {
	StripeEventID string          `json:"stripe_event_id"`
	Type          string          `json:"type"`
	Payload       json.RawMessage `json:"payload"`
}

// UpsertStripeEvent returns sql.ErrNoRows when the event was already
// processed. Events that previously failed are returned again so the
// delivery can be retried.
func (q *Queries) UpsertStripeEvent(ctx context.Context, arg UpsertStripeEventParams) (StripeEvent, error) {
	row := q.queryRow(ctx, q.upsertStripeEventStmt, upsertStripeEvent, arg.StripeEventID, arg.Type, arg.Payload)
	var i StripeEvent
	err := row.Scan(
		&i.StripeEventID,
		&i.Type,
		&i.Payload,
		&i.ProcessedAt,
		&i.Error,
		&i.CreatedAt,
	)
	return i, err
}

const markStripeEventFailed = `-- name: MarkStripeEventFailed :exec
UPDATE stripe_events SET error = $2 WHERE stripe_event_id = $1`

type MarkStripeEventFailedParams struct {
	StripeEventID string         `json:"stripe_event_id"`
	Error         sql.NullString `json:"error"`
}

func (q *Queries) MarkStripeEventFailed(ctx context.Context, arg MarkStripeEventFailedParams) error {
	_, err := q.exec(ctx, q.markStripeEventFailedStmt, markStripeEventFailed, arg.StripeEventID, arg.Error)
	return err
}

const markStripeEventProcessed = `-- name: MarkStripeEventProcessed :exec
UPDATE stripe_events SET processed_at = now(), error = NULL WHERE stripe_event_id = $1`

func (q *Queries) MarkStripeEventProcessed(ctx context.Context, stripeEventID string) error {
	_, err := q.exec(ctx, q.markStripeEventProcessedStmt, markStripeEventProcessed, stripeEventID)
	return err
}
