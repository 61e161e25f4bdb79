package api

import (
	"fmt"
	"net/http"

	"github.com/nyashahama/realyou-backend/internal/store"
	stripeinternal "github.com/nyashahama/realyou-backend/internal/stripe"
	"github.com/nyashahama/realyou-backend/internal/tier"
)

// ─── POST /api/create-checkout-session ────────────────────────────────────────

type createCheckoutRequest struct {
	Tier  string `json:"tier"`
	Email string `json:"email"`
}

type createCheckoutResponse struct {
	// URL is the hosted Checkout page. The browser redirects there.
	URL       string `json:"url"`
	SessionID string `json:"session_id"`
}

// handleCreateCheckout opens a Stripe Checkout session for a paid tier.
//
// The tier and e-mail are written into the session metadata. The webhook
// reads them back from Stripe rather than trusting anything the browser
// sends after payment.
func (s *Server) handleCreateCheckout(w http.ResponseWriter, r *http.Request) {
	var req createCheckoutRequest
	if !decode(w, r, &req) {
		return
	}

	t, err := tier.Parse(req.Tier)
	if err != nil || !t.Paid() {
		respondErr(w, http.StatusBadRequest, "tier must be standard or premium")
		return
	}
	email := store.NormalizeEmail(req.Email)
	if email == "" {
		respondErr(w, http.StatusBadRequest, "email is required")
		return
	}
	plan, ok := s.content.Plan(t)
	if !ok {
		s.respondInternalErr(w, r, fmt.Errorf("no plan configured for tier %s", t))
		return
	}

	session, err := s.stripe.CreateCheckoutSession(r.Context(), stripeinternal.CheckoutParams{
		Tier:        t,
		Email:       email,
		PriceID:     s.cfg.StripePrices[t],
		AmountCents: plan.PriceCents,
		Currency:    "usd",
		ProductName: "RealYou " + plan.Name,
		SuccessURL:  stripeinternal.SuccessURL(s.cfg.FrontendURL, t),
		CancelURL:   stripeinternal.CancelURL(s.cfg.FrontendURL),
	})
	if err != nil {
		s.respondInternalErr(w, r, fmt.Errorf("create checkout session: %w", err))
		return
	}

	s.logger.Info("checkout: session created",
		"session_id", session.ID,
		"tier", t,
		logField(r),
	)
	respond(w, http.StatusOK, createCheckoutResponse{URL: session.URL, SessionID: session.ID})
}
