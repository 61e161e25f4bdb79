package api

import (
	"database/sql"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/nyashahama/realyou-backend/internal/db"
	"github.com/nyashahama/realyou-backend/internal/email"
	"github.com/nyashahama/realyou-backend/internal/store"
	stripeinternal "github.com/nyashahama/realyou-backend/internal/stripe"
)

// ─── POST /api/webhooks/stripe ────────────────────────────────────────────────

// handleStripeWebhook is the entry point for all Stripe webhook deliveries.
//
// Stripe delivers events at-least-once and may retry on non-2xx responses.
// The handler must be idempotent: every operation it performs uses
// upsert/insert-or-ignore patterns so replays are safe.
//
// The events we act on are:
//   - checkout.session.completed               → grant tier + enqueue delivery
//   - checkout.session.async_payment_succeeded → same, for delayed methods
//   - checkout.session.async_payment_failed    → logged only
func (s *Server) handleStripeWebhook(w http.ResponseWriter, r *http.Request) {
	// ── 1. Read and size-limit the body ───────────────────────────────────────
	// The signature check must run against the exact bytes Stripe signed.
	r.Body = http.MaxBytesReader(w, r.Body, 65536)
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		respondErr(w, http.StatusBadRequest, "could not read request body")
		return
	}

	// ── 2. Verify the Stripe-Signature header ─────────────────────────────────
	sig := r.Header.Get("Stripe-Signature")
	event, err := s.stripe.VerifyWebhook(payload, sig, s.cfg.StripeWebhookSecret)
	if err != nil {
		s.logger.Warn("webhook: invalid signature", "error", err, logField(r))
		respondErr(w, http.StatusBadRequest, "invalid webhook signature")
		return
	}

	// ── 3. Idempotency: record the event, skip if already processed ───────────
	// UpsertStripeEvent returns no row for an event that was already processed
	// successfully. An event whose earlier attempt failed is returned again so
	// the retry runs the handler.
	_, err = s.q.UpsertStripeEvent(r.Context(), stripeinternal.ToUpsertParams(event, payload))
	if errors.Is(err, sql.ErrNoRows) {
		s.logger.Debug("webhook: duplicate event, skipping", "event_id", event.ID, logField(r))
		respond(w, http.StatusOK, map[string]bool{"received": true})
		return
	}
	if err != nil {
		s.respondInternalErr(w, r, fmt.Errorf("upsert stripe event: %w", err))
		return
	}

	// ── 4. Dispatch by event type ─────────────────────────────────────────────
	var handlerErr error

	switch event.Type {
	case stripeinternal.EventCheckoutCompleted, stripeinternal.EventCheckoutAsyncPaymentOK:
		handlerErr = s.onCheckoutPaid(r, event)

	case stripeinternal.EventCheckoutAsyncPaymentFailed:
		s.logger.Warn("webhook: async payment failed", "event_id", event.ID, logField(r))

	default:
		// Unknown event type. Ack so Stripe stops retrying.
		s.logger.Debug("webhook: unhandled event type", "type", event.Type, logField(r))
	}
	s.metrics.ObserveWebhook(event.Type, handlerErr)

	// ── 5. Mark event processed (or failed) ───────────────────────────────────
	if handlerErr != nil {
		s.logger.Error("webhook: handler error",
			"event_id", event.ID,
			"type", event.Type,
			"error", handlerErr,
			logField(r),
		)
		_ = s.q.MarkStripeEventFailed(r.Context(), stripeinternal.ToMarkFailedParams(event.ID, handlerErr))
		// Return 500 so Stripe retries delivery.
		respondErr(w, http.StatusInternalServerError, "webhook handler failed")
		return
	}

	if err := s.q.MarkStripeEventProcessed(r.Context(), event.ID); err != nil {
		s.logger.Warn("webhook: mark processed failed", "event_id", event.ID, "error", err, logField(r))
	}
	respond(w, http.StatusOK, map[string]bool{"received": true})
}

// ─── EVENT HANDLERS ───────────────────────────────────────────────────────────

func (s *Server) onCheckoutPaid(r *http.Request, event stripeinternal.Event) error {
	co, err := stripeinternal.ExtractCompletedCheckout(event)
	if err != nil {
		return fmt.Errorf("onCheckoutPaid: %w", err)
	}
	if !co.Paid() {
		// Delayed payment methods follow up with async_payment_succeeded.
		s.logger.Info("webhook: checkout completed, awaiting payment",
			"session_id", co.SessionID,
			"payment_status", co.PaymentStatus,
			logField(r),
		)
		return nil
	}

	applied, err := s.store.ApplyPurchase(r.Context(), store.PurchaseInput{
		CheckoutSession: co.SessionID,
		Email:           co.Email,
		Tier:            co.Tier,
		AmountTotal:     co.AmountTotal,
		Currency:        co.Currency,
	})
	if errors.Is(err, store.ErrPurchaseAlreadyRecorded) {
		// Re-enqueue if delivery never finished. Handles the case where the
		// worker crashed mid-delivery.
		if applied.Purchase.Status != db.PurchaseStatusDelivered {
			if err := s.worker.Enqueue(r.Context(), applied.Purchase.ID); err != nil {
				s.logger.Warn("webhook: re-enqueue failed, will be picked up by poller",
					"purchase_id", applied.Purchase.ID,
					"error", err,
					logField(r),
				)
			}
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("onCheckoutPaid: apply purchase: %w", err)
	}

	s.logger.Info("webhook: purchase applied",
		"purchase_id", applied.Purchase.ID,
		"tier", co.Tier,
		"upgraded", applied.Upgraded,
		logField(r),
	)

	// Receipt goes out now; delivery follows from the worker.
	receiptErr := s.mailer.SendReceipt(r.Context(), email.ReceiptParams{
		To:          applied.Lead.Email,
		Name:        applied.Lead.Name.String,
		PlanLabel:   co.Tier.Label(),
		AmountCents: co.AmountTotal,
		Currency:    co.Currency,
	})
	s.logAndIgnoreEmailErr(r, receiptErr, "send receipt")

	// Enqueue the delivery. The worker handles errors and retries.
	if err := s.worker.Enqueue(r.Context(), applied.Purchase.ID); err != nil {
		// Queue full. The poller will pick it up.
		s.logger.Warn("webhook: enqueue failed, will be picked up by poller",
			"purchase_id", applied.Purchase.ID,
			"error", err,
			logField(r),
		)
	}

	return nil
}
