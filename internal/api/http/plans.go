package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/evaltrack/evaltrack/internal/eval"
)

// GET /plans?person_id=&limit=&offset=
// Same role scoping as evaluations; bodies are omitted from listings.
func ListPlansHandler(store eval.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		viewerID, viewerRole, limit, offset := listOptsFromRequest(r)
		out, err := store.ListPlans(r.Context(), eval.PlanListOpts{
			ViewerID:   viewerID,
			ViewerRole: viewerRole,
			PersonID:   r.URL.Query().Get("person_id"),
			Limit:      limit,
			Offset:     offset,
		})
		if err != nil {
			http.Error(w, err.Error(), 500)
			return
		}
		_ = json.NewEncoder(w).Encode(out)
	}
}

// GET /plans/{planID}
func GetPlanHandler(store eval.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := store.GetPlan(r.Context(), chi.URLParam(r, "planID"))
		if err != nil {
			http.Error(w, "plan not found", 404)
			return
		}
		if !canViewPerson(r, store, p.PersonID) {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		_ = json.NewEncoder(w).Encode(p)
	}
}

// GET /plans/{planID}/document — the raw self-contained HTML, suitable
// for printing or embedding.
func PlanDocumentHandler(store eval.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := store.GetPlan(r.Context(), chi.URLParam(r, "planID"))
		if err != nil {
			http.Error(w, "plan not found", 404)
			return
		}
		if !canViewPerson(r, store, p.PersonID) {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(p.BodyHTML))
	}
}
