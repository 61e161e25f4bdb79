// Package db is the query layer over the PostgreSQL schema in schema.sql.
// It follows the layout sqlc emits with prepared queries enabled: one
// Queries type, a Querier interface, and statements prepared up front.
package db

import (
	"context"
	"database/sql"
	"fmt"
)

type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	PrepareContext(context.Context, string) (*sql.Stmt, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

// Prepare validates every query against the live schema and returns a
// Queries that reuses the prepared statements.
func Prepare(ctx context.Context, db DBTX) (*Queries, error) {
	q := Queries{db: db}
	var err error
	if q.createLeadStmt, err = db.PrepareContext(ctx, createLead); err != nil {
		return nil, fmt.Errorf("error preparing query CreateLead: %w", err)
	}
	if q.ensureLeadStmt, err = db.PrepareContext(ctx, ensureLead); err != nil {
		return nil, fmt.Errorf("error preparing query EnsureLead: %w", err)
	}
	if q.getLeadByAccessTokenStmt, err = db.PrepareContext(ctx, getLeadByAccessToken); err != nil {
		return nil, fmt.Errorf("error preparing query GetLeadByAccessToken: %w", err)
	}
	if q.getLeadByEmailStmt, err = db.PrepareContext(ctx, getLeadByEmail); err != nil {
		return nil, fmt.Errorf("error preparing query GetLeadByEmail: %w", err)
	}
	if q.getLeadByIDStmt, err = db.PrepareContext(ctx, getLeadByID); err != nil {
		return nil, fmt.Errorf("error preparing query GetLeadByID: %w", err)
	}
	if q.setLeadNarrativeStmt, err = db.PrepareContext(ctx, setLeadNarrative); err != nil {
		return nil, fmt.Errorf("error preparing query SetLeadNarrative: %w", err)
	}
	if q.setLeadTierStmt, err = db.PrepareContext(ctx, setLeadTier); err != nil {
		return nil, fmt.Errorf("error preparing query SetLeadTier: %w", err)
	}
	if q.upsertLeadSnapshotStmt, err = db.PrepareContext(ctx, upsertLeadSnapshot); err != nil {
		return nil, fmt.Errorf("error preparing query UpsertLeadSnapshot: %w", err)
	}
	if q.createPurchaseStmt, err = db.PrepareContext(ctx, createPurchase); err != nil {
		return nil, fmt.Errorf("error preparing query CreatePurchase: %w", err)
	}
	if q.getPurchaseByCheckoutSessionStmt, err = db.PrepareContext(ctx, getPurchaseByCheckoutSession); err != nil {
		return nil, fmt.Errorf("error preparing query GetPurchaseByCheckoutSession: %w", err)
	}
	if q.getPurchaseByIDStmt, err = db.PrepareContext(ctx, getPurchaseByID); err != nil {
		return nil, fmt.Errorf("error preparing query GetPurchaseByID: %w", err)
	}
	if q.listPendingPurchasesStmt, err = db.PrepareContext(ctx, listPendingPurchases); err != nil {
		return nil, fmt.Errorf("error preparing query ListPendingPurchases: %w", err)
	}
	if q.markPurchaseDeliveredStmt, err = db.PrepareContext(ctx, markPurchaseDelivered); err != nil {
		return nil, fmt.Errorf("error preparing query MarkPurchaseDelivered: %w", err)
	}
	if q.markPurchaseFailedStmt, err = db.PrepareContext(ctx, markPurchaseFailed); err != nil {
		return nil, fmt.Errorf("error preparing query MarkPurchaseFailed: %w", err)
	}
	if q.markStripeEventFailedStmt, err = db.PrepareContext(ctx, markStripeEventFailed); err != nil {
		return nil, fmt.Errorf("error preparing query MarkStripeEventFailed: %w", err)
	}
	if q.markStripeEventProcessedStmt, err = db.PrepareContext(ctx, markStripeEventProcessed); err != nil {
		return nil, fmt.Errorf("error preparing query MarkStripeEventProcessed: %w", err)
	}
	if q.upsertStripeEventStmt, err = db.PrepareContext(ctx, upsertStripeEvent); err != nil {
		return nil, fmt.Errorf("error preparing query UpsertStripeEvent: %w", err)
	}
	return &q, nil
}

func (q *Queries) Close() error {
	var err error
	if q.createLeadStmt != nil {
		if cerr := q.createLeadStmt.Close(); cerr != nil {
			err = fmt.Errorf("error closing createLeadStmt: %w", cerr)
		}
	}
	if q.ensureLeadStmt != nil {
		if cerr := q.ensureLeadStmt.Close(); cerr != nil {
			err = fmt.Errorf("error closing ensureLeadStmt: %w", cerr)
		}
	}
	if q.getLeadByAccessTokenStmt != nil {
		if cerr := q.getLeadByAccessTokenStmt.Close(); cerr != nil {
			err = fmt.Errorf("error closing getLeadByAccessTokenStmt: %w", cerr)
		}
	}
	if q.getLeadByEmailStmt != nil {
		if cerr := q.getLeadByEmailStmt.Close(); cerr != nil {
			err = fmt.Errorf("error closing getLeadByEmailStmt: %w", cerr)
		}
	}
	if q.getLeadByIDStmt != nil {
		if cerr := q.getLeadByIDStmt.Close(); cerr != nil {
			err = fmt.Errorf("error closing getLeadByIDStmt: %w", cerr)
		}
	}
	if q.setLeadNarrativeStmt != nil {
		if cerr := q.setLeadNarrativeStmt.Close(); cerr != nil {
			err = fmt.Errorf("error closing setLeadNarrativeStmt: %w", cerr)
		}
	}
	if q.setLeadTierStmt != nil {
		if cerr := q.setLeadTierStmt.Close(); cerr != nil {
			err = fmt.Errorf("error closing setLeadTierStmt: %w", cerr)
		}
	}
	if q.upsertLeadSnapshotStmt != nil {
		if cerr := q.upsertLeadSnapshotStmt.Close(); cerr != nil {
			err = fmt.Errorf("error closing upsertLeadSnapshotStmt: %w", cerr)
		}
	}
	if q.createPurchaseStmt != nil {
		if cerr := q.createPurchaseStmt.Close(); cerr != nil {
			err = fmt.Errorf("error closing createPurchaseStmt: %w", cerr)
		}
	}
	if q.getPurchaseByCheckoutSessionStmt != nil {
		if cerr := q.getPurchaseByCheckoutSessionStmt.Close(); cerr != nil {
			err = fmt.Errorf("error closing getPurchaseByCheckoutSessionStmt: %w", cerr)
		}
	}
	if q.getPurchaseByIDStmt != nil {
		if cerr := q.getPurchaseByIDStmt.Close(); cerr != nil {
			err = fmt.Errorf("error closing getPurchaseByIDStmt: %w", cerr)
		}
	}
	if q.listPendingPurchasesStmt != nil {
		if cerr := q.listPendingPurchasesStmt.Close(); cerr != nil {
			err = fmt.Errorf("error closing listPendingPurchasesStmt: %w", cerr)
		}
	}
	if q.markPurchaseDeliveredStmt != nil {
		if cerr := q.markPurchaseDeliveredStmt.Close(); cerr != nil {
			err = fmt.Errorf("error closing markPurchaseDeliveredStmt: %w", cerr)
		}
	}
	if q.markPurchaseFailedStmt != nil {
		if cerr := q.markPurchaseFailedStmt.Close(); cerr != nil {
			err = fmt.Errorf("error closing markPurchaseFailedStmt: %w", cerr)
		}
	}
	if q.markStripeEventFailedStmt != nil {
		if cerr := q.markStripeEventFailedStmt.Close(); cerr != nil {
			err = fmt.Errorf("error closing markStripeEventFailedStmt: %w", cerr)
		}
	}
	if q.markStripeEventProcessedStmt != nil {
		if cerr := q.markStripeEventProcessedStmt.Close(); cerr != nil {
			err = fmt.Errorf("error closing markStripeEventProcessedStmt: %w", cerr)
		}
	}
	if q.upsertStripeEventStmt != nil {
		if cerr := q.upsertStripeEventStmt.Close(); cerr != nil {
			err = fmt.Errorf("error closing upsertStripeEventStmt: %w", cerr)
		}
	}
	return err
}

func (q *Queries) exec(ctx context.Context, stmt *sql.Stmt, query string, args ...interface{}) (sql.Result, error) {
	switch {
	case stmt != nil && q.tx != nil:
		return q.tx.StmtContext(ctx, stmt).ExecContext(ctx, args...)
	case stmt != nil:
		return stmt.ExecContext(ctx, args...)
	default:
		return q.db.ExecContext(ctx, query, args...)
	}
}

func (q *Queries) query(ctx context.Context, stmt *sql.Stmt, query string, args ...interface{}) (*sql.Rows, error) {
	switch {
	case stmt != nil && q.tx != nil:
		return q.tx.StmtContext(ctx, stmt).QueryContext(ctx, args...)
	case stmt != nil:
		return stmt.QueryContext(ctx, args...)
	default:
		return q.db.QueryContext(ctx, query, args...)
	}
}

func (q *Queries) queryRow(ctx context.Context, stmt *sql.Stmt, query string, args ...interface{}) *sql.Row {
	switch {
	case stmt != nil && q.tx != nil:
		return q.tx.StmtContext(ctx, stmt).QueryRowContext(ctx, args...)
	case stmt != nil:
		return stmt.QueryRowContext(ctx, args...)
	default:
		return q.db.QueryRowContext(ctx, query, args...)
	}
}

type Queries struct {
	db                               DBTX
	tx                               *sql.Tx
	createLeadStmt                   *sql.Stmt
	ensureLeadStmt                   *sql.Stmt
	getLeadByAccessTokenStmt         *sql.Stmt
	getLeadByEmailStmt               *sql.Stmt
	getLeadByIDStmt                  *sql.Stmt
	setLeadNarrativeStmt             *sql.Stmt
	setLeadTierStmt                  *sql.Stmt
	upsertLeadSnapshotStmt           *sql.Stmt
	createPurchaseStmt               *sql.Stmt
	getPurchaseByCheckoutSessionStmt *sql.Stmt
	getPurchaseByIDStmt              *sql.Stmt
	listPendingPurchasesStmt         *sql.Stmt
	markPurchaseDeliveredStmt        *sql.Stmt
	markPurchaseFailedStmt           *sql.Stmt
	markStripeEventFailedStmt        *sql.Stmt
	markStripeEventProcessedStmt     *sql.Stmt
	upsertStripeEventStmt            *sql.Stmt
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{
		db:                               tx,
		tx:                               tx,
		createLeadStmt:                   q.createLeadStmt,
		ensureLeadStmt:                   q.ensureLeadStmt,
		getLeadByAccessTokenStmt:         q.getLeadByAccessTokenStmt,
		getLeadByEmailStmt:               q.getLeadByEmailStmt,
		getLeadByIDStmt:                  q.getLeadByIDStmt,
		setLeadNarrativeStmt:             q.setLeadNarrativeStmt,
		setLeadTierStmt:                  q.setLeadTierStmt,
		upsertLeadSnapshotStmt:           q.upsertLeadSnapshotStmt,
		createPurchaseStmt:               q.createPurchaseStmt,
		getPurchaseByCheckoutSessionStmt: q.getPurchaseByCheckoutSessionStmt,
		getPurchaseByIDStmt:              q.getPurchaseByIDStmt,
		listPendingPurchasesStmt:         q.listPendingPurchasesStmt,
		markPurchaseDeliveredStmt:        q.markPurchaseDeliveredStmt,
		markPurchaseFailedStmt:           q.markPurchaseFailedStmt,
		markStripeEventFailedStmt:        q.markStripeEventFailedStmt,
		markStripeEventProcessedStmt:     q.markStripeEventProcessedStmt,
		upsertStripeEventStmt:            q.upsertStripeEventStmt,
	}
}
