package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/nyashahama/realyou-backend/internal/email"
	"github.com/nyashahama/realyou-backend/internal/store"
)

// ─── POST /api/lead-capture ───────────────────────────────────────────────────

// leadCaptureRequest accepts both snake_case and the camelCase spellings older
// frontends send. Snake case wins when both are present.
type leadCaptureRequest struct {
	Email                       string     `json:"email"`
	Name                        string     `json:"name,omitempty"`
	AgreeToEmails               *bool      `json:"agree_to_emails,omitempty"`
	AgreeToEmailsCamel          *bool      `json:"agreeToEmails,omitempty"`
	PlanAtSignup                string     `json:"plan_at_signup,omitempty"`
	PlanAtSignupCamel           string     `json:"planAtSignup,omitempty"`
	HasCompletedAssessment      *bool      `json:"has_completed_assessment,omitempty"`
	HasCompletedAssessmentCamel *bool      `json:"hasCompletedAssessment,omitempty"`
	ReferralCode                string     `json:"referral_code,omitempty"`
	UtmSource                   string     `json:"utm_source,omitempty"`
	UtmMedium                   string     `json:"utm_medium,omitempty"`
	UtmCampaign                 string     `json:"utm_campaign,omitempty"`
	CapturedAt                  *time.Time `json:"captured_at,omitempty"`
}

func firstBool(vals ...*bool) bool {
	for _, v := range vals {
		if v != nil {
			return *v
		}
	}
	return false
}

func firstString(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func (req leadCaptureRequest) input() store.LeadInput {
	in := store.LeadInput{
		Email:                  req.Email,
		Name:                   req.Name,
		AgreeToEmails:          firstBool(req.AgreeToEmails, req.AgreeToEmailsCamel),
		PlanAtSignup:           firstString(req.PlanAtSignup, req.PlanAtSignupCamel),
		HasCompletedAssessment: firstBool(req.HasCompletedAssessment, req.HasCompletedAssessmentCamel),
		ReferralCode:           req.ReferralCode,
		UtmSource:              req.UtmSource,
		UtmMedium:              req.UtmMedium,
		UtmCampaign:            req.UtmCampaign,
	}
	if req.CapturedAt != nil {
		in.CapturedAt = *req.CapturedAt
	}
	return in
}

// handleLeadCapture stores a new lead. An e-mail already on file is not an
// error: the response is {ok:true, duplicate:true} and no alert is sent.
func (s *Server) handleLeadCapture(w http.ResponseWriter, r *http.Request) {
	var req leadCaptureRequest
	if !decode(w, r, &req) {
		return
	}

	in := req.input()
	lead, err := s.store.CaptureLead(r.Context(), in)
	switch {
	case errors.Is(err, store.ErrEmailRequired):
		respondErr(w, http.StatusBadRequest, "Missing email")
		return
	case errors.Is(err, store.ErrDuplicateLead):
		s.metrics.ObserveLead(true)
		s.logger.Info("lead-capture: duplicate email, treating as success", logField(r))
		respond(w, http.StatusOK, map[string]bool{"ok": true, "duplicate": true})
		return
	case err != nil:
		s.respondInternalErr(w, r, fmt.Errorf("capture lead: %w", err))
		return
	}
	s.metrics.ObserveLead(false)

	if s.cfg.AdminNotificationEmail != "" && s.mailer != nil {
		notifyErr := s.mailer.SendLeadNotification(r.Context(), email.LeadNotificationParams{
			To:                     s.cfg.AdminNotificationEmail,
			Name:                   in.Name,
			Email:                  lead.Email,
			PlanAtSignup:           in.PlanAtSignup,
			HasCompletedAssessment: in.HasCompletedAssessment,
			UtmSource:              in.UtmSource,
			UtmMedium:              in.UtmMedium,
			UtmCampaign:            in.UtmCampaign,
			ReferralCode:           in.ReferralCode,
			CapturedAt:             lead.CapturedAt.Time.UTC().Format(time.RFC3339),
		})
		s.logAndIgnoreEmailErr(r, notifyErr, "lead notification")
	}

	respond(w, http.StatusOK, map[string]bool{"ok": true})
}

// ─── POST /api/save-snapshot ──────────────────────────────────────────────────

type saveSnapshotRequest struct {
	Email   string          `json:"email"`
	Name    string          `json:"name,omitempty"`
	Results json.RawMessage `json:"results"`
}

type saveSnapshotResponse struct {
	OK          bool   `json:"ok"`
	AccessToken string `json:"access_token"`
}

// handleSaveSnapshot upserts the caller's result blob by e-mail.
func (s *Server) handleSaveSnapshot(w http.ResponseWriter, r *http.Request) {
	var req saveSnapshotRequest
	if !decode(w, r, &req) {
		return
	}
	if store.NormalizeEmail(req.Email) == "" {
		respondErr(w, http.StatusBadRequest, "Missing email")
		return
	}
	if len(req.Results) == 0 || string(req.Results) == "null" {
		respondErr(w, http.StatusBadRequest, "Missing results snapshot")
		return
	}

	lead, err := s.store.SaveSnapshot(r.Context(), req.Email, req.Name, req.Results)
	if err != nil {
		s.respondInternalErr(w, r, fmt.Errorf("save snapshot: %w", err))
		return
	}
	respond(w, http.StatusOK, saveSnapshotResponse{OK: true, AccessToken: lead.AccessToken})
}

// ─── GET /api/recover-snapshot ────────────────────────────────────────────────

type recoverSnapshotResponse struct {
	OK  bool           `json:"ok"`
	Row store.Snapshot `json:"row"`
}

// handleRecoverSnapshot returns the last saved result for ?email=.
func (s *Server) handleRecoverSnapshot(w http.ResponseWriter, r *http.Request) {
	snap, err := s.store.RecoverSnapshot(r.Context(), r.URL.Query().Get("email"))
	switch {
	case errors.Is(err, store.ErrEmailRequired):
		respondErr(w, http.StatusBadRequest, "Missing email")
	case errors.Is(err, store.ErrSnapshotNotFound):
		respond(w, http.StatusNotFound, map[string]any{"ok": false, "message": "No snapshot found."})
	case err != nil:
		s.respondInternalErr(w, r, fmt.Errorf("recover snapshot: %w", err))
	default:
		respond(w, http.StatusOK, recoverSnapshotResponse{OK: true, Row: snap})
	}
}
