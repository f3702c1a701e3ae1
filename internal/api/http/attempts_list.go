package http

import (
	"encoding/json"
	"net/http"
	"strings"

	auth "github.com/bandprep/bandprep-api/internal/auth/middleware"
	"github.com/bandprep/bandprep-api/internal/exam"
	"github.com/bandprep/bandprep-api/internal/rbac"
)

// GET /attempts?test_id=...&user_id=...&status=...&limit=50&offset=0
// Students only ever see their own attempts: unless the caller has the
// view-all role, user_id is forced to the authenticated subject.
func ListAttemptsHandler(store exam.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		role := rbac.RoleFromContext(r.Context())
		sub := auth.SubjectFromContext(r.Context())

		testID := strings.TrimSpace(r.URL.Query().Get("test_id"))
		userID := strings.TrimSpace(r.URL.Query().Get("user_id"))
		status := strings.TrimSpace(r.URL.Query().Get("status"))
		limit := parseIntDefault(r.URL.Query().Get("limit"), 50)
		offset := parseIntDefault(r.URL.Query().Get("offset"), 0)

		if role == "" {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		if role != "admin" && role != "teacher" {
			userID = sub
		}

		list, err := store.ListAttempts(r.Context(), exam.AttemptListOpts{
			TestID: testID,
			UserID: userID,
			Status: status,
			Limit:  limit,
			Offset: offset,
		})
		if err != nil {
			http.Error(w, err.Error(), 500)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(list)
	}
}
