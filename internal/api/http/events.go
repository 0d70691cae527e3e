package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/evaltrack/evaltrack/internal/audit"
)

// GET /evaluations/{evaluationID}/events (admin). The trail covers the
// evaluation itself plus the plan events recorded against it.
func ListEvaluationEventsHandler(rec *audit.Recorder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		out, err := rec.List(r.Context(), chi.URLParam(r, "evaluationID"), limit)
		if err != nil {
			http.Error(w, err.Error(), 500)
			return
		}
		if out == nil {
			out = []audit.Event{}
		}
		_ = json.NewEncoder(w).Encode(out)
	}
}
