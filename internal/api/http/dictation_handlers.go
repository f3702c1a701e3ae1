package http

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/bandprep/bandprep-api/internal/exam"
)

// POST /attempt-sections/{attemptSectionID}/questions/{questionID}/grade
// { "answer_text": "..." }
//
// Grades a free-text dictation transcription and returns the mistake
// diagnostics plus the reference script for display.
func GradeDictationHandler(svc *exam.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		attemptSectionID := strings.TrimSpace(chi.URLParam(r, "attemptSectionID"))
		questionID := strings.TrimSpace(chi.URLParam(r, "questionID"))
		if attemptSectionID == "" || questionID == "" {
			http.Error(w, "attemptSectionID and questionID required", 400)
			return
		}
		var req struct {
			AnswerText string `json:"answer_text"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", 400)
			return
		}
		res, err := svc.GradeDictationAnswer(r.Context(), attemptSectionID, questionID, req.AnswerText)
		if err != nil {
			http.Error(w, err.Error(), errStatus(err))
			return
		}
		_ = json.NewEncoder(w).Encode(res)
	}
}
