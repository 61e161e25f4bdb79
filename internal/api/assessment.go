package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/nyashahama/realyou-backend/internal/content"
	"github.com/nyashahama/realyou-backend/internal/report"
	"github.com/nyashahama/realyou-backend/internal/scoring"
	"github.com/nyashahama/realyou-backend/internal/store"
	"github.com/nyashahama/realyou-backend/internal/tier"
)

// ─── POST /api/assessment ─────────────────────────────────────────────────────

type assessmentRequest struct {
	Answers scoring.Answers `json:"answers"`
	Mode    string          `json:"mode,omitempty"`
	Email   string          `json:"email,omitempty"`
	Name    string          `json:"name,omitempty"`
}

type assessmentResponse struct {
	// AccessToken is set when the result was saved against an e-mail.
	AccessToken string        `json:"access_token,omitempty"`
	Report      report.Report `json:"report"`
}

// handleAssessment scores a submission and returns the report at the
// caller's tier. Without an e-mail the result is not stored and the view is
// free. With an e-mail the result is saved as the lead's snapshot and the
// view reflects the tier that lead has paid for.
func (s *Server) handleAssessment(w http.ResponseWriter, r *http.Request) {
	var req assessmentRequest
	if !decode(w, r, &req) {
		return
	}
	if len(req.Answers) == 0 {
		respondErr(w, http.StatusBadRequest, "answers are required")
		return
	}
	if _, err := content.ParseMode(req.Mode); err != nil {
		respondErr(w, http.StatusBadRequest, err.Error())
		return
	}

	res := s.engine.Score(req.Answers)
	s.metrics.ObserveAssessment(res.TypeCode)

	resp := assessmentResponse{}
	t := tier.Free

	if strings.TrimSpace(req.Email) != "" {
		snapshot, err := json.Marshal(res)
		if err != nil {
			s.respondInternalErr(w, r, fmt.Errorf("marshal snapshot: %w", err))
			return
		}
		lead, err := s.store.SaveSnapshot(r.Context(), req.Email, req.Name, snapshot)
		if errors.Is(err, store.ErrEmailRequired) {
			respondErr(w, http.StatusBadRequest, "invalid email")
			return
		}
		if err != nil {
			s.respondInternalErr(w, r, fmt.Errorf("save snapshot: %w", err))
			return
		}
		if lt, err := tier.Parse(lead.Tier); err == nil {
			t = lt
		}
		resp.AccessToken = lead.AccessToken
	}

	// A fresh result never has a stored narrative; premium gets the template
	// until delivery writes the generated one.
	resp.Report = report.Build(res, t, nil)
	respond(w, http.StatusOK, resp)
}
