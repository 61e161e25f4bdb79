package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/nyashahama/realyou-backend/internal/db"
	"github.com/nyashahama/realyou-backend/internal/pdf"
	"github.com/nyashahama/realyou-backend/internal/report"
	"github.com/nyashahama/realyou-backend/internal/scoring"
	"github.com/nyashahama/realyou-backend/internal/store"
	"github.com/nyashahama/realyou-backend/internal/tier"
)

// resultsFor loads the lead behind the URL token and rebuilds its report.
// It writes the error response itself and returns ok=false on failure.
func (s *Server) resultsFor(w http.ResponseWriter, r *http.Request) (db.Lead, report.Report, bool) {
	lead, err := s.store.LeadByToken(r.Context(), chi.URLParam(r, "accessToken"))
	if errors.Is(err, store.ErrLeadNotFound) {
		respondErr(w, http.StatusNotFound, "results not found")
		return db.Lead{}, report.Report{}, false
	}
	if err != nil {
		s.respondInternalErr(w, r, fmt.Errorf("lead by token: %w", err))
		return db.Lead{}, report.Report{}, false
	}

	saved, err := store.SavedResultOf(lead)
	if errors.Is(err, store.ErrSnapshotNotFound) {
		respondErr(w, http.StatusNotFound, "no saved result for this link, take the assessment first")
		return db.Lead{}, report.Report{}, false
	}
	if err != nil {
		s.respondInternalErr(w, r, fmt.Errorf("decode snapshot: %w", err))
		return db.Lead{}, report.Report{}, false
	}

	t, err := tier.Parse(lead.Tier)
	if err != nil {
		t = tier.Free
	}
	return lead, report.Build(saved.Result(s.engine), t, store.NarrativeOf(lead)), true
}

// ─── GET /api/results/:accessToken ───────────────────────────────────────────

type resultsResponse struct {
	Name            string        `json:"name,omitempty"`
	LastCompletedAt *time.Time    `json:"last_completed_at,omitempty"`
	Report          report.Report `json:"report"`
}

// handleGetResults serves the saved result at the tier recorded on the lead.
// The user receives this link in their delivery email.
func (s *Server) handleGetResults(w http.ResponseWriter, r *http.Request) {
	lead, rep, ok := s.resultsFor(w, r)
	if !ok {
		return
	}
	resp := resultsResponse{Name: lead.Name.String, Report: rep}
	if lead.LastCompletedAt.Valid {
		at := lead.LastCompletedAt.Time.UTC()
		resp.LastCompletedAt = &at
	}
	respond(w, http.StatusOK, resp)
}

// ─── GET /api/results/:accessToken/pdf ───────────────────────────────────────

// handleGetPDF streams the premium PDF. The tier comes from storage; a
// client cannot unlock the export by claiming a plan.
func (s *Server) handleGetPDF(w http.ResponseWriter, r *http.Request) {
	lead, rep, ok := s.resultsFor(w, r)
	if !ok {
		return
	}
	if !rep.Unlocked(report.SectionPDF) {
		respondErr(w, http.StatusForbidden, "PDF export requires the premium plan")
		return
	}

	body, err := s.renderPDF(r.Context(), lead, rep)
	if err != nil {
		s.respondInternalErr(w, r, fmt.Errorf("render pdf: %w", err))
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", pdf.Filename(rep.TypeCode)))
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.Header().Set("Cache-Control", "private, no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

// renderPDF memoizes by token and row version. Any write to the lead (new
// snapshot, tier change, narrative) bumps updated_at and misses the cache.
func (s *Server) renderPDF(ctx context.Context, lead db.Lead, rep report.Report) ([]byte, error) {
	key := lead.AccessToken + "@" + strconv.FormatInt(lead.UpdatedAt.UnixNano(), 10)
	if body, ok := s.pdfs.Get(key); ok {
		s.metrics.ObservePDFCache(true)
		return body, nil
	}
	s.metrics.ObservePDFCache(false)

	generated := lead.UpdatedAt
	if lead.LastCompletedAt.Valid {
		generated = lead.LastCompletedAt.Time
	}

	start := time.Now()
	body, err := pdf.Render(ctx, rep, generated)
	s.metrics.ObservePDF(time.Since(start), err)
	if err != nil {
		return nil, err
	}
	s.pdfs.Add(key, body)
	return body, nil
}

// ─── GET /api/results/:accessToken/compatibility ─────────────────────────────

type compatibilityResponse struct {
	scoring.Match
	YourLabel  string `json:"your_label"`
	TheirLabel string `json:"their_label"`
}

// handleCompatibility compares the saved type with ?with=. Premium only.
func (s *Server) handleCompatibility(w http.ResponseWriter, r *http.Request) {
	_, rep, ok := s.resultsFor(w, r)
	if !ok {
		return
	}
	if !rep.Unlocked(report.SectionCompatibilityTool) {
		respondErr(w, http.StatusForbidden, "the compatibility tool requires the premium plan")
		return
	}

	other := scoring.NormalizeType(r.URL.Query().Get("with"))
	if !scoring.ValidType(other) {
		respondErr(w, http.StatusBadRequest, "with must be a four-letter type such as INTJ")
		return
	}

	respond(w, http.StatusOK, compatibilityResponse{
		Match:      scoring.Compare(rep.TypeCode, other),
		YourLabel:  rep.Label,
		TheirLabel: s.engine.Profile(other, scoring.TraitVector{}).Label,
	})
}
