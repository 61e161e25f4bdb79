package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/nyashahama/realyou-backend/internal/db"
	"github.com/nyashahama/realyou-backend/internal/email"
	"github.com/nyashahama/realyou-backend/internal/narrative"
	"github.com/nyashahama/realyou-backend/internal/pdf"
	"github.com/nyashahama/realyou-backend/internal/report"
	"github.com/nyashahama/realyou-backend/internal/scoring"
	"github.com/nyashahama/realyou-backend/internal/store"
	"github.com/nyashahama/realyou-backend/internal/tier"
)

var tracer = otel.Tracer("github.com/nyashahama/realyou-backend/internal/worker")

// Store is the subset of *store.Store the worker writes through.
type Store interface {
	CompleteDelivery(ctx context.Context, purchaseID, leadID uuid.UUID, n *narrative.Narrative) (db.Purchase, error)
	MarkDeliveryFailed(ctx context.Context, purchaseID uuid.UUID, msg string) (db.Purchase, error)
}

// Job holds the dependencies for the delivery pipeline. Each step is a
// separate method so the Run method reads top to bottom.
type Job struct {
	q        db.Querier
	store    Store
	engine   *scoring.Engine
	narrator narrative.Narrator
	mailer   email.Sender
	logger   *slog.Logger
	now      func() time.Time
}

// NewJob constructs a Job with all required dependencies.
func NewJob(
	q db.Querier,
	st Store,
	engine *scoring.Engine,
	narrator narrative.Narrator,
	mailer email.Sender,
	logger *slog.Logger,
) *Job {
	return &Job{
		q:        q,
		store:    st,
		engine:   engine,
		narrator: narrator,
		mailer:   mailer,
		logger:   logger,
		now:      time.Now,
	}
}

// Run delivers a single purchase:
//
//  1. Load the purchase and its lead. Already delivered purchases are done.
//  2. For premium leads with a saved result, write the deep dive (unless one
//     is stored already) and render the PDF.
//  3. Persist the narrative and mark the purchase delivered atomically.
//  4. Send the delivery email.
//
// Any error before step 4 is returned to the Runner, which retries up to
// MaxRetries times before calling MarkDeliveryFailed.
func (j *Job) Run(ctx context.Context, purchaseID uuid.UUID) (err error) {
	ctx, span := tracer.Start(ctx, "worker.Deliver", trace.WithSpanKind(trace.SpanKindConsumer))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()
	span.SetAttributes(attribute.String("realyou.purchase_id", purchaseID.String()))

	log := j.logger.With("purchase_id", purchaseID)
	log.Info("job: starting")

	// ── 1. Load purchase and lead ─────────────────────────────────────────────
	purchase, err := j.q.GetPurchaseByID(ctx, purchaseID)
	if err != nil {
		return fmt.Errorf("job: get purchase: %w", err)
	}
	if purchase.Status == db.PurchaseStatusDelivered {
		log.Debug("job: already delivered")
		return nil
	}

	lead, err := j.q.GetLeadByID(ctx, purchase.LeadID)
	if err != nil {
		return fmt.Errorf("job: get lead: %w", err)
	}
	log = log.With("lead_id", lead.ID)

	t, err := tier.Parse(lead.Tier)
	if err != nil {
		return fmt.Errorf("job: lead tier: %w", err)
	}
	span.SetAttributes(attribute.String("realyou.tier", string(t)))

	// ── 2. Narrative and PDF (premium only) ───────────────────────────────────
	var (
		rpt       *report.Report
		generated *narrative.Narrative
		pdfBytes  []byte
	)
	saved, err := store.SavedResultOf(lead)
	switch {
	case errors.Is(err, store.ErrSnapshotNotFound):
		// Paid before taking the test. The tier is granted; the results page
		// fills in once a snapshot is saved.
		log.Info("job: lead has no saved result, delivering access only")
	case err != nil:
		return fmt.Errorf("job: decode snapshot: %w", err)
	default:
		res := saved.Result(j.engine)
		var deepDive *narrative.Narrative
		if t.AtLeast(tier.Premium) {
			deepDive = store.NarrativeOf(lead)
			if deepDive == nil {
				generated = j.narrate(ctx, res, log)
				deepDive = generated
			}
		}
		r := report.Build(res, t, deepDive)
		rpt = &r

		if t.AtLeast(tier.Premium) {
			pdfBytes, err = pdf.Render(ctx, r, j.now())
			if err != nil {
				return fmt.Errorf("job: render pdf: %w", err)
			}
		}
	}

	// ── 3. Persist ────────────────────────────────────────────────────────────
	if _, err := j.store.CompleteDelivery(ctx, purchase.ID, lead.ID, generated); err != nil {
		return fmt.Errorf("job: complete delivery: %w", err)
	}
	log.Info("job: purchase delivered", "tier", t, "pdf_bytes", len(pdfBytes))

	// ── 4. Email ──────────────────────────────────────────────────────────────
	// Email failure does not fail the job: the tier is already granted and
	// the results page is reachable by token.
	params := email.ReportReadyParams{
		To:          lead.Email,
		Name:        lead.Name.String,
		PlanLabel:   t.Label(),
		AccessToken: lead.AccessToken,
	}
	if rpt != nil {
		params.TypeCode = rpt.TypeCode
		params.Label = rpt.Label
	}
	if len(pdfBytes) > 0 {
		params.PDF = pdfBytes
		params.PDFName = pdf.Filename(params.TypeCode)
	}
	if err := j.mailer.SendReportReady(ctx, params); err != nil {
		log.Error("job: failed to send delivery email", "to", lead.Email, "error", err)
	}

	return nil
}

// narrate never fails: a narrator error or empty result falls back to the
// template so premium buyers always get a deep dive.
func (j *Job) narrate(ctx context.Context, res scoring.Result, log *slog.Logger) *narrative.Narrative {
	if j.narrator != nil {
		n, err := j.narrator.Narrate(ctx, res)
		if err == nil && !n.Empty() {
			return &n
		}
		log.Warn("job: narrator failed, using template", "error", err)
	}
	n := narrative.Template(res)
	return &n
}
