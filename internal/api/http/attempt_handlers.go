package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	auth "github.com/bandprep/bandprep-api/internal/auth/middleware"
	"github.com/bandprep/bandprep-api/internal/exam"
	"github.com/bandprep/bandprep-api/internal/rbac"
)

// POST /attempts { "test_id": "...", "section_ids": ["..."] }
// Section IDs are optional; omitting them covers the whole test. A subset
// makes a partial attempt, which can never earn a band.
func CreateAttemptHandler(store exam.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			TestID     string   `json:"test_id"`
			SectionIDs []string `json:"section_ids,omitempty"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", 400)
			return
		}
		if req.TestID == "" {
			http.Error(w, "test_id required", 400)
			return
		}
		userID := auth.SubjectFromContext(r.Context())
		a, err := store.NewAttempt(r.Context(), req.TestID, userID, req.SectionIDs)
		if err != nil {
			http.Error(w, err.Error(), errStatus(err))
			return
		}
		_ = json.NewEncoder(w).Encode(a)
	}
}

// GET /attempts/{attemptID}
func GetAttemptHandler(store exam.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "attemptID")
		a, err := store.GetAttempt(r.Context(), id)
		if err != nil {
			http.Error(w, err.Error(), errStatus(err))
			return
		}
		role := rbac.RoleFromContext(r.Context())
		if role != "admin" && role != "teacher" && a.UserID != auth.SubjectFromContext(r.Context()) {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		_ = json.NewEncoder(w).Encode(a)
	}
}

// POST /attempts/{attemptID}/submit
// { "answers": [ { "question_number": 1, "answer_content": "..." }, ... ] }
func SubmitAttemptHandler(svc *exam.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "attemptID")
		var req struct {
			Answers []exam.AnswerInput `json:"answers"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", 400)
			return
		}
		callerID := auth.SubjectFromContext(r.Context())
		res, err := svc.SubmitObjectiveAnswers(r.Context(), id, callerID, req.Answers)
		if err != nil {
			http.Error(w, err.Error(), errStatus(err))
			return
		}
		_ = json.NewEncoder(w).Encode(res)
	}
}

// GET /attempts/{attemptID}/answers
func ListAnswersHandler(store exam.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "attemptID")
		a, err := store.GetAttempt(r.Context(), id)
		if err != nil {
			http.Error(w, err.Error(), errStatus(err))
			return
		}
		role := rbac.RoleFromContext(r.Context())
		if role != "admin" && role != "teacher" && a.UserID != auth.SubjectFromContext(r.Context()) {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		answers, err := store.ListAnswers(r.Context(), id)
		if err != nil {
			http.Error(w, err.Error(), 500)
			return
		}
		_ = json.NewEncoder(w).Encode(answers)
	}
}
