package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/nyashahama/realyou-backend/internal/db"
	"github.com/nyashahama/realyou-backend/internal/narrative"
	"github.com/nyashahama/realyou-backend/internal/tier"
	"github.com/sqlc-dev/pqtype"
)

// ErrPurchaseAlreadyRecorded is returned by ApplyPurchase when the checkout
// session was already applied. The webhook handler treats it as idempotent
// success; the returned AppliedPurchase carries the existing rows.
var ErrPurchaseAlreadyRecorded = errors.New("store: purchase already recorded for checkout session")

// PurchaseInput is a completed checkout as reported by Stripe.
type PurchaseInput struct {
	CheckoutSession string
	Email           string
	Tier            tier.Tier
	AmountTotal     int64
	Currency        string
}

// AppliedPurchase is the outcome of ApplyPurchase.
type AppliedPurchase struct {
	Purchase db.Purchase
	Lead     db.Lead
	// Upgraded is true when the lead's tier changed.
	Upgraded bool
}

// ApplyPurchase is called by the Stripe webhook handler on a completed
// checkout. It atomically:
//
//  1. Finds the lead by e-mail, creating a bare one if the buyer skipped the
//     lead form.
//  2. Records the purchase in paid status, which queues it for delivery.
//  3. Raises the lead's tier to the purchased one. A tier is never lowered,
//     so buying standard after premium keeps premium.
//
// A replayed checkout session returns ErrPurchaseAlreadyRecorded with the
// existing purchase so the caller can re-enqueue delivery if it never
// finished.
func (s *Store) ApplyPurchase(ctx context.Context, in PurchaseInput) (AppliedPurchase, error) {
	email := NormalizeEmail(in.Email)
	if email == "" {
		return AppliedPurchase{}, ErrEmailRequired
	}
	if !in.Tier.Paid() {
		return AppliedPurchase{}, fmt.Errorf("store: tier %q cannot be purchased", in.Tier)
	}
	if strings.TrimSpace(in.CheckoutSession) == "" {
		return AppliedPurchase{}, errors.New("store: checkout session is required")
	}
	currency := strings.ToLower(in.Currency)
	if currency == "" {
		currency = "usd"
	}
	token, err := NewAccessToken()
	if err != nil {
		return AppliedPurchase{}, err
	}

	var out AppliedPurchase
	err = s.withTx(ctx, func(ctx context.Context, q db.Querier) error {
		lead, err := q.EnsureLead(ctx, db.EnsureLeadParams{Email: email, AccessToken: token})
		if err != nil {
			return fmt.Errorf("ApplyPurchase: ensure lead: %w", err)
		}
		out.Lead = lead

		purchase, err := q.CreatePurchase(ctx, db.CreatePurchaseParams{
			LeadID:                lead.ID,
			StripeCheckoutSession: in.CheckoutSession,
			Tier:                  string(in.Tier),
			AmountTotal:           in.AmountTotal,
			Currency:              currency,
			Status:                db.PurchaseStatusPaid,
		})
		if errors.Is(err, sql.ErrNoRows) {
			existing, getErr := q.GetPurchaseByCheckoutSession(ctx, in.CheckoutSession)
			if getErr != nil {
				return fmt.Errorf("ApplyPurchase: load existing purchase: %w", getErr)
			}
			out.Purchase = existing
			return ErrPurchaseAlreadyRecorded
		}
		if err != nil {
			return fmt.Errorf("ApplyPurchase: create purchase: %w", err)
		}
		out.Purchase = purchase

		current, err := tier.Parse(lead.Tier)
		if err != nil {
			current = tier.Free
		}
		next := tier.Max(current, in.Tier)
		if next == current {
			return nil
		}
		updated, err := q.SetLeadTier(ctx, db.SetLeadTierParams{ID: lead.ID, Tier: string(next)})
		if err != nil {
			return fmt.Errorf("ApplyPurchase: set tier: %w", err)
		}
		out.Lead = updated
		out.Upgraded = true
		return nil
	})

	if errors.Is(err, ErrPurchaseAlreadyRecorded) {
		return out, ErrPurchaseAlreadyRecorded
	}
	if err != nil {
		return AppliedPurchase{}, err
	}
	return out, nil
}

// CompleteDelivery persists the deep dive (when one was generated) and marks
// the purchase delivered in one transaction.
func (s *Store) CompleteDelivery(ctx context.Context, purchaseID, leadID uuid.UUID, n *narrative.Narrative) (db.Purchase, error) {
	var raw []byte
	if n != nil && !n.Empty() {
		b, err := json.Marshal(n)
		if err != nil {
			return db.Purchase{}, fmt.Errorf("CompleteDelivery: encode narrative: %w", err)
		}
		raw = b
	}

	var purchase db.Purchase
	err := s.withTx(ctx, func(ctx context.Context, q db.Querier) error {
		if raw != nil {
			if err := q.SetLeadNarrative(ctx, db.SetLeadNarrativeParams{
				ID:        leadID,
				Narrative: pqtype.NullRawMessage{RawMessage: raw, Valid: true},
			}); err != nil {
				return fmt.Errorf("CompleteDelivery: set narrative: %w", err)
			}
		}
		p, err := q.MarkPurchaseDelivered(ctx, purchaseID)
		if err != nil {
			return fmt.Errorf("CompleteDelivery: mark delivered: %w", err)
		}
		purchase = p
		return nil
	})
	if err != nil {
		return db.Purchase{}, err
	}
	return purchase, nil
}

// MarkDeliveryFailed moves a purchase to the error status so the poller stops
// picking it up. msg is stored for investigation.
func (s *Store) MarkDeliveryFailed(ctx context.Context, purchaseID uuid.UUID, msg string) (db.Purchase, error) {
	p, err := s.q.MarkPurchaseFailed(ctx, db.MarkPurchaseFailedParams{
		ID:           purchaseID,
		ErrorMessage: sql.NullString{String: msg, Valid: msg != ""},
	})
	if err != nil {
		return db.Purchase{}, fmt.Errorf("MarkDeliveryFailed: %w", err)
	}
	return p, nil
}
