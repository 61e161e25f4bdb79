// Package api implements the HTTP layer for RealYou.
// Handlers are methods on *Server. Each handler file is responsible for one
// resource group and only imports the dependencies it actually uses.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/nyashahama/realyou-backend/internal/content"
	"github.com/nyashahama/realyou-backend/internal/db"
	"github.com/nyashahama/realyou-backend/internal/email"
	"github.com/nyashahama/realyou-backend/internal/metrics"
	"github.com/nyashahama/realyou-backend/internal/scoring"
	"github.com/nyashahama/realyou-backend/internal/store"
	stripeinternal "github.com/nyashahama/realyou-backend/internal/stripe"
	"github.com/nyashahama/realyou-backend/internal/tier"
	"github.com/nyashahama/realyou-backend/internal/worker"
)

// Config holds values read from environment variables at startup.
type Config struct {
	// BaseURL is used to construct the results link in emails.
	// e.g. "https://api.realyou.app"
	BaseURL string

	// FrontendURL is where Checkout redirects after payment or cancellation.
	FrontendURL string

	// StripeWebhookSecret is the signing secret from the Stripe dashboard.
	StripeWebhookSecret string

	// StripePrices maps a paid tier to a Stripe price id. Tiers without an
	// entry are charged inline at the plan's price.
	StripePrices map[tier.Tier]string

	// AdminNotificationEmail receives an alert per captured lead. Empty
	// disables the alert.
	AdminNotificationEmail string

	// CORSOrigins are allowed in production in addition to FrontendURL.
	CORSOrigins []string

	// PDFCacheSize bounds the rendered-PDF cache. Zero means 256.
	PDFCacheSize int

	// RequestTimeout caps every request. Zero means 30s.
	RequestTimeout time.Duration

	// Env is "production", "staging", or "development".
	Env string
}

// Store is the persistence surface the handlers need. *store.Store is the
// production implementation.
type Store interface {
	CaptureLead(ctx context.Context, in store.LeadInput) (db.Lead, error)
	SaveSnapshot(ctx context.Context, email, name string, snapshot json.RawMessage) (db.Lead, error)
	RecoverSnapshot(ctx context.Context, email string) (store.Snapshot, error)
	LeadByToken(ctx context.Context, token string) (db.Lead, error)
	ApplyPurchase(ctx context.Context, in store.PurchaseInput) (store.AppliedPurchase, error)
	Ping(ctx context.Context) error
}

var _ Store = (*store.Store)(nil)

// Deps are the collaborators shared by every handler.
type Deps struct {
	// Querier handles the single-query webhook bookkeeping.
	Querier db.Querier

	// Store handles lead and purchase writes.
	Store Store

	// Stripe creates Checkout sessions and verifies webhook signatures.
	Stripe stripeinternal.Client

	// Worker enqueues deliveries after payment confirmation.
	Worker worker.Enqueuer

	// Mailer sends transactional emails (receipt + lead alerts).
	Mailer email.Sender

	Content  *content.Content
	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer // serves /metrics when non-nil
	Logger   *slog.Logger
}

// Server holds all shared dependencies. Each handler file attaches methods to
// this type and uses only the fields it needs.
type Server struct {
	q       db.Querier
	store   Store
	stripe  stripeinternal.Client
	worker  worker.Enqueuer
	mailer  email.Sender
	content *content.Content
	engine  *scoring.Engine
	metrics *metrics.Metrics

	// pdfs caches rendered PDFs by access token and lead version.
	pdfs *lru.Cache[string, []byte]

	gatherer prometheus.Gatherer
	cfg      Config
	logger   *slog.Logger
}

// NewServer constructs the Server and wires the chi router. The returned
// http.Handler is ready to pass to http.Server.
func NewServer(deps Deps, cfg Config) (http.Handler, error) {
	if deps.Store == nil || deps.Content == nil {
		return nil, errors.New("api: store and content are required")
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if cfg.PDFCacheSize <= 0 {
		cfg.PDFCacheSize = 256
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 30 * time.Second
	}

	pdfs, err := lru.New[string, []byte](cfg.PDFCacheSize)
	if err != nil {
		return nil, fmt.Errorf("api: pdf cache: %w", err)
	}

	s := &Server{
		q:        deps.Querier,
		store:    deps.Store,
		stripe:   deps.Stripe,
		worker:   deps.Worker,
		mailer:   deps.Mailer,
		content:  deps.Content,
		engine:   deps.Content.Engine(),
		metrics:  deps.Metrics,
		pdfs:     pdfs,
		gatherer: deps.Gatherer,
		cfg:      cfg,
		logger:   deps.Logger,
	}

	return s.routes(), nil
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	// ── Global middleware ─────────────────────────────────────────────────────
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.loggerMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(s.corsMiddleware)
	r.Use(middleware.Timeout(s.cfg.RequestTimeout))

	// ── Health ────────────────────────────────────────────────────────────────
	r.Get("/healthz", s.handleHealth)
	if s.gatherer != nil {
		r.Method(http.MethodGet, "/metrics", metrics.Handler(s.gatherer))
	}

	// ── API ───────────────────────────────────────────────────────────────────
	r.Route("/api", func(r chi.Router) {

		// Static content.
		r.Get("/questions", s.handleListQuestions)
		r.Get("/plans", s.handleListPlans)

		// Scoring. The e-mail in the body is optional.
		r.Post("/assessment", s.handleAssessment)

		// Leads and snapshots, keyed by e-mail.
		r.Post("/lead-capture", s.handleLeadCapture)
		r.Post("/save-snapshot", s.handleSaveSnapshot)
		r.Get("/recover-snapshot", s.handleRecoverSnapshot)

		// Results access. No auth (opaque access token in URL); the tier
		// is always read from storage.
		r.Route("/results/{accessToken}", func(r chi.Router) {
			r.Get("/", s.handleGetResults)
			r.Get("/pdf", s.handleGetPDF)
			r.Get("/compatibility", s.handleCompatibility)
		})

		r.Post("/create-checkout-session", s.handleCreateCheckout)

		// Stripe webhook. No auth (signature verification inside handler).
		r.Post("/webhooks/stripe", s.handleStripeWebhook)
	})

	return r
}

// handleHealth reports liveness and database reachability.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := s.store.Ping(ctx); err != nil {
		s.logger.Warn("healthz: database unreachable", "error", err, logField(r))
		respond(w, http.StatusServiceUnavailable, map[string]any{"ok": false, "error": "database unreachable"})
		return
	}
	respond(w, http.StatusOK, map[string]bool{"ok": true})
}
