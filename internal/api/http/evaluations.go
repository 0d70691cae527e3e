package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	auth "github.com/evaltrack/evaltrack/internal/auth/middleware"
	"github.com/evaltrack/evaltrack/internal/eval"
	"github.com/evaltrack/evaltrack/internal/rbac"
)

// POST /evaluations (manager/admin). The evaluator identity comes from
// the token, never from the body; managers may only evaluate their own
// reports.
func SubmitEvaluationHandler(svc *eval.Service, store eval.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sub := auth.SubjectFromContext(r.Context())
		role := rbac.RoleFromContext(r.Context())

		var req eval.SubmitRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", 400)
			return
		}
		req.EvaluatorID = sub

		if role != eval.RoleAdmin {
			evaluated, err := store.GetProfile(r.Context(), req.EvaluatedID)
			if err != nil {
				http.Error(w, "evaluated person not found", 404)
				return
			}
			if evaluated.ManagerID != sub {
				http.Error(w, "not your report", http.StatusForbidden)
				return
			}
		}

		res, err := svc.Submit(r.Context(), req)
		if err != nil {
			var ve *eval.ValidationError
			if errors.As(err, &ve) {
				http.Error(w, ve.Reason, 400)
				return
			}
			http.Error(w, err.Error(), 500)
			return
		}
		// PlanGenerated=false here means the evaluation is saved but
		// the plan step failed; the body carries the detail.
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(res)
	}
}

func listOptsFromRequest(r *http.Request) (viewerID, viewerRole string, limit, offset int) {
	viewerID = auth.SubjectFromContext(r.Context())
	viewerRole = rbac.RoleFromContext(r.Context())
	limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ = strconv.Atoi(r.URL.Query().Get("offset"))
	return
}

// GET /evaluations?evaluated_id=&limit=&offset=
// Admin sees all, managers their team, collaborators themselves.
func ListEvaluationsHandler(store eval.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		viewerID, viewerRole, limit, offset := listOptsFromRequest(r)
		out, err := store.ListEvaluations(r.Context(), eval.EvalListOpts{
			ViewerID:    viewerID,
			ViewerRole:  viewerRole,
			EvaluatedID: r.URL.Query().Get("evaluated_id"),
			Limit:       limit,
			Offset:      offset,
		})
		if err != nil {
			http.Error(w, err.Error(), 500)
			return
		}
		_ = json.NewEncoder(w).Encode(out)
	}
}

// GET /evaluations/{evaluationID}
func GetEvaluationHandler(store eval.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		e, err := store.GetEvaluation(r.Context(), chi.URLParam(r, "evaluationID"))
		if err != nil {
			http.Error(w, "evaluation not found", 404)
			return
		}
		if !canViewPerson(r, store, e.EvaluatedID) && e.EvaluatorID != auth.SubjectFromContext(r.Context()) {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		_ = json.NewEncoder(w).Encode(e)
	}
}

// canViewPerson applies the shared visibility rule: admins see
// everyone, managers their reports, everyone themselves.
func canViewPerson(r *http.Request, store eval.Store, personID string) bool {
	sub := auth.SubjectFromContext(r.Context())
	switch rbac.RoleFromContext(r.Context()) {
	case eval.RoleAdmin:
		return true
	case eval.RoleManager:
		if sub == personID {
			return true
		}
		p, err := store.GetProfile(r.Context(), personID)
		return err == nil && p.ManagerID == sub
	default:
		return sub == personID
	}
}
