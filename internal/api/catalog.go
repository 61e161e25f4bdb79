package api

import (
	"net/http"

	"github.com/nyashahama/realyou-backend/internal/content"
)

// ─── GET /api/questions ───────────────────────────────────────────────────────

type questionsResponse struct {
	Mode      content.Mode     `json:"mode"`
	Count     int              `json:"count"`
	Questions []content.Prompt `json:"questions"`
}

// handleListQuestions serves the question bank in the requested phrasing.
// ?mode= takes classic (default) or modern.
func (s *Server) handleListQuestions(w http.ResponseWriter, r *http.Request) {
	mode, err := content.ParseMode(r.URL.Query().Get("mode"))
	if err != nil {
		respondErr(w, http.StatusBadRequest, err.Error())
		return
	}
	qs := s.content.Questions(mode)
	respond(w, http.StatusOK, questionsResponse{Mode: mode, Count: len(qs), Questions: qs})
}

// ─── GET /api/plans ───────────────────────────────────────────────────────────

func (s *Server) handleListPlans(w http.ResponseWriter, r *http.Request) {
	respond(w, http.StatusOK, map[string]any{"plans": s.content.Plans})
}
