// Package stripe defines the interface for Stripe API calls and webhook
// verification, and provides helpers used by the api package.
package stripe

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/nyashahama/realyou-backend/internal/db"
	"github.com/nyashahama/realyou-backend/internal/tier"
)

// ─── TYPES ────────────────────────────────────────────────────────────────────

// Event types the webhook handler acts on.
const (
	EventCheckoutCompleted          = "checkout.session.completed"
	EventCheckoutAsyncPaymentOK     = "checkout.session.async_payment_succeeded"
	EventCheckoutAsyncPaymentFailed = "checkout.session.async_payment_failed"
	EventCheckoutExpired            = "checkout.session.expired"
)

// Metadata keys written on every checkout session.
const (
	MetadataEmail = "email"
	MetadataTier  = "tier"
)

// CheckoutParams holds the inputs for a hosted Checkout session. When PriceID
// is empty the line item is built inline from AmountCents and ProductName.
type CheckoutParams struct {
	Tier        tier.Tier
	Email       string
	PriceID     string
	AmountCents int64
	Currency    string
	ProductName string
	SuccessURL  string
	CancelURL   string
}

// CheckoutSession is the subset of a Stripe Checkout Session callers need.
type CheckoutSession struct {
	ID  string
	URL string
}

// Event is a parsed Stripe webhook event. DataRaw contains the raw JSON of the
// event's data.object so handlers can unmarshal only what they need.
type Event struct {
	ID      string
	Type    string
	DataRaw json.RawMessage
}

// ─── CLIENT INTERFACE ─────────────────────────────────────────────────────────

// Client is the interface the api package uses for all Stripe calls.
// The concrete implementation wraps the official stripe-go SDK.
// Tests inject a stub.
type Client interface {
	// CreateCheckoutSession creates a hosted, one-off payment session and
	// returns the URL to redirect the buyer to.
	CreateCheckoutSession(ctx context.Context, p CheckoutParams) (CheckoutSession, error)

	// VerifyWebhook validates the Stripe-Signature header and returns the
	// parsed event. Returns an error if the signature is invalid or expired.
	VerifyWebhook(payload []byte, sigHeader string, secret string) (Event, error)
}

// SuccessURL is where Checkout sends the buyer after paying.
func SuccessURL(frontendURL string, t tier.Tier) string {
	return strings.TrimRight(frontendURL, "/") + "/?checkout=success&tier=" + string(t)
}

// CancelURL is where Checkout sends the buyer when they back out.
func CancelURL(frontendURL string) string {
	return strings.TrimRight(frontendURL, "/") + "/?checkout=cancel"
}

// ─── HELPERS USED BY api/ ────────────────────────────────────────────────────

// ToUpsertParams converts a parsed Event and its raw payload into the params
// needed by db.Querier.UpsertStripeEvent.
func ToUpsertParams(event Event, rawPayload []byte) db.UpsertStripeEventParams {
	return db.UpsertStripeEventParams{
		StripeEventID: event.ID,
		Type:          event.Type,
		Payload:       json.RawMessage(rawPayload),
	}
}

// ToMarkFailedParams builds the params for db.Querier.MarkStripeEventFailed.
func ToMarkFailedParams(eventID string, err error) db.MarkStripeEventFailedParams {
	return db.MarkStripeEventFailedParams{
		StripeEventID: eventID,
		Error:         sql.NullString{String: err.Error(), Valid: true},
	}
}

// CompletedCheckout is what the webhook needs from a checkout.session.*
// event to grant a tier.
type CompletedCheckout struct {
	SessionID     string
	Email         string
	Tier          tier.Tier
	AmountTotal   int64
	Currency      string
	PaymentStatus string
}

// Paid reports whether the funds are captured. Delayed payment methods
// complete the session with payment_status "unpaid" and follow up with an
// async_payment_succeeded event.
func (c CompletedCheckout) Paid() bool {
	return c.PaymentStatus == "paid" || c.PaymentStatus == "no_payment_required"
}

// ExtractCompletedCheckout reads a checkout session object. The e-mail comes
// from our metadata first, then the buyer's details; the tier must be in the
// metadata because only the server decides what a price unlocks.
func ExtractCompletedCheckout(event Event) (CompletedCheckout, error) {
	var obj struct {
		ID              string            `json:"id"`
		CustomerEmail   string            `json:"customer_email"`
		CustomerDetails *struct {
			Email string `json:"email"`
		} `json:"customer_details"`
		Metadata      map[string]string `json:"metadata"`
		AmountTotal   int64             `json:"amount_total"`
		Currency      string            `json:"currency"`
		PaymentStatus string            `json:"payment_status"`
	}
	if err := json.Unmarshal(event.DataRaw, &obj); err != nil {
		return CompletedCheckout{}, fmt.Errorf("stripe: unmarshal checkout session: %w", err)
	}
	if obj.ID == "" {
		return CompletedCheckout{}, fmt.Errorf("stripe: checkout session id is empty in event %s", event.ID)
	}

	email := obj.Metadata[MetadataEmail]
	if email == "" {
		email = obj.CustomerEmail
	}
	if email == "" && obj.CustomerDetails != nil {
		email = obj.CustomerDetails.Email
	}
	if email == "" {
		return CompletedCheckout{}, fmt.Errorf("stripe: no e-mail on checkout session %s", obj.ID)
	}

	t, err := tier.Parse(obj.Metadata[MetadataTier])
	if err != nil || !t.Paid() {
		return CompletedCheckout{}, fmt.Errorf("stripe: checkout session %s has no paid tier in metadata", obj.ID)
	}

	return CompletedCheckout{
		SessionID:     obj.ID,
		Email:         email,
		Tier:          t,
		AmountTotal:   obj.AmountTotal,
		Currency:      obj.Currency,
		PaymentStatus: obj.PaymentStatus,
	}, nil
}
