package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	api "github.com/evaltrack/evaltrack/internal/api/http"
	auth "github.com/evaltrack/evaltrack/internal/auth/middleware"
	"github.com/evaltrack/evaltrack/internal/eval"
	"github.com/evaltrack/evaltrack/internal/notify"
	"github.com/evaltrack/evaltrack/internal/rbac"
)

type nopMailer struct{}

func (nopMailer) SendPlanGenerated(context.Context, notify.PlanEmail) error { return nil }

// asUser stamps subject+role into the context the way JWTMiddleware
// does, without minting real tokens.
func asUser(sub, role string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := auth.WithSubject(r.Context(), sub)
		ctx = rbac.WithRole(ctx, role)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func newRouter(store eval.Store, svc *eval.Service, sub, role string) http.Handler {
	r := chi.NewRouter()
	r.Post("/evaluations", api.SubmitEvaluationHandler(svc, store))
	r.Get("/evaluations", api.ListEvaluationsHandler(store))
	r.Get("/plans", api.ListPlansHandler(store))
	r.Get("/plans/{planID}", api.GetPlanHandler(store))
	r.Get("/plans/{planID}/document", api.PlanDocumentHandler(store))
	return asUser(sub, role, r)
}

func seedStore(t *testing.T) *eval.MemoryStore {
	t.Helper()
	store := eval.NewMemoryStore()
	ctx := context.Background()
	must := func(err error) {
		t.Helper()
		if err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
	must(store.CreateProfile(ctx, eval.Profile{ID: "mgr", Name: "Rui", Email: "rui@x.com", Role: eval.RoleManager}))
	must(store.CreateProfile(ctx, eval.Profile{ID: "ana", Name: "Ana", Email: "ana@x.com", Role: eval.RoleCollaborator, ManagerID: "mgr"}))
	must(store.CreateProfile(ctx, eval.Profile{ID: "zoe", Name: "Zoe", Email: "zoe@x.com", Role: eval.RoleCollaborator, ManagerID: "other"}))
	must(store.CreateQuestionnaire(ctx, eval.Questionnaire{
		ID: "qn", Title: "Seniority", Status: eval.StatusActive, Version: 1,
		Questions: []eval.Question{
			{ID: "q1", Text: "t", Category: "technical", Order: 1, Weight: 1},
			{ID: "q2", Text: "p", Category: "process", Order: 2, Weight: 1},
		},
	}))
	return store
}

func submitBody(evaluated string, values map[string]int) *bytes.Buffer {
	b, _ := json.Marshal(map[string]any{
		"evaluated_id":     evaluated,
		"questionnaire_id": "qn",
		"responses":        values,
	})
	return bytes.NewBuffer(b)
}

func TestSubmitEvaluationEndToEnd(t *testing.T) {
	store := seedStore(t)
	svc := eval.NewService(store, nopMailer{}, eval.WithSyncNotify())
	h := newRouter(store, svc, "mgr", eval.RoleManager)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("POST", "/evaluations", submitBody("ana", map[string]int{"q1": 4, "q2": 2})))
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var res eval.SubmitResult
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if res.Evaluation.Score != 60 || !res.PlanGenerated {
		t.Fatalf("unexpected result: %+v", res)
	}
	if res.Evaluation.EvaluatorID != "mgr" {
		t.Fatalf("evaluator must come from the token, got %q", res.Evaluation.EvaluatorID)
	}

	// The collaborator can fetch their own plan document.
	ch := newRouter(store, svc, "ana", eval.RoleCollaborator)
	rec = httptest.NewRecorder()
	ch.ServeHTTP(rec, httptest.NewRequest("GET", "/plans/"+res.Plan.ID+"/document", nil))
	if rec.Code != 200 {
		t.Fatalf("document status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Fatalf("content type = %q", ct)
	}
	if !strings.Contains(rec.Body.String(), "Individual Development Plan") {
		t.Error("document body missing title")
	}
}

func TestSubmitEvaluationForeignReportForbidden(t *testing.T) {
	store := seedStore(t)
	svc := eval.NewService(store, nopMailer{}, eval.WithSyncNotify())
	h := newRouter(store, svc, "mgr", eval.RoleManager)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("POST", "/evaluations", submitBody("zoe", map[string]int{"q1": 4})))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
}

func TestSubmitEvaluationValidationSurfaces400(t *testing.T) {
	store := seedStore(t)
	svc := eval.NewService(store, nopMailer{}, eval.WithSyncNotify())
	h := newRouter(store, svc, "mgr", eval.RoleManager)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("POST", "/evaluations", submitBody("ana", map[string]int{"q1": 0, "q2": 0})))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "at least one question") {
		t.Fatalf("unexpected error body: %s", rec.Body.String())
	}
}

func TestPlanVisibilityScoping(t *testing.T) {
	store := seedStore(t)
	svc := eval.NewService(store, nopMailer{}, eval.WithSyncNotify())
	mgr := newRouter(store, svc, "mgr", eval.RoleManager)

	rec := httptest.NewRecorder()
	mgr.ServeHTTP(rec, httptest.NewRequest("POST", "/evaluations", submitBody("ana", map[string]int{"q1": 5})))
	if rec.Code != http.StatusCreated {
		t.Fatalf("submit failed: %d", rec.Code)
	}
	var res eval.SubmitResult
	_ = json.Unmarshal(rec.Body.Bytes(), &res)

	fetch := func(h http.Handler, path string) int {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest("GET", path, nil))
		return rec.Code
	}

	if got := fetch(newRouter(store, svc, "ana", eval.RoleCollaborator), "/plans/"+res.Plan.ID); got != 200 {
		t.Errorf("owner fetch = %d, want 200", got)
	}
	if got := fetch(newRouter(store, svc, "zoe", eval.RoleCollaborator), "/plans/"+res.Plan.ID); got != http.StatusForbidden {
		t.Errorf("stranger fetch = %d, want 403", got)
	}
	if got := fetch(mgr, "/plans/"+res.Plan.ID); got != 200 {
		t.Errorf("manager fetch = %d, want 200", got)
	}

	// Listings scope by viewer too.
	var forAna, forZoe []eval.PlanSummary
	rec = httptest.NewRecorder()
	newRouter(store, svc, "ana", eval.RoleCollaborator).ServeHTTP(rec, httptest.NewRequest("GET", "/plans", nil))
	_ = json.Unmarshal(rec.Body.Bytes(), &forAna)
	rec = httptest.NewRecorder()
	newRouter(store, svc, "zoe", eval.RoleCollaborator).ServeHTTP(rec, httptest.NewRequest("GET", "/plans", nil))
	_ = json.Unmarshal(rec.Body.Bytes(), &forZoe)
	if len(forAna) != 1 || len(forZoe) != 0 {
		t.Fatalf("plan listings leaked: ana=%d zoe=%d", len(forAna), len(forZoe))
	}
	if forAna[0].PersonName != "Ana" {
		t.Fatalf("summary join wrong: %+v", forAna[0])
	}
}

func TestEvaluationListScoping(t *testing.T) {
	store := seedStore(t)
	svc := eval.NewService(store, nopMailer{}, eval.WithSyncNotify())
	mgr := newRouter(store, svc, "mgr", eval.RoleManager)

	for i, v := range []int{2, 4} {
		rec := httptest.NewRecorder()
		mgr.ServeHTTP(rec, httptest.NewRequest("POST", "/evaluations", submitBody("ana", map[string]int{"q1": v})))
		if rec.Code != http.StatusCreated {
			t.Fatalf("submit %d failed: %d %s", i, rec.Code, rec.Body.String())
		}
	}

	list := func(h http.Handler) []eval.Evaluation {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest("GET", "/evaluations", nil))
		if rec.Code != 200 {
			t.Fatalf("list status = %d", rec.Code)
		}
		var out []eval.Evaluation
		if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
			t.Fatalf("decode list: %v", err)
		}
		return out
	}

	if got := len(list(mgr)); got != 2 {
		t.Errorf("manager sees %d evaluations, want 2", got)
	}
	if got := len(list(newRouter(store, svc, "ana", eval.RoleCollaborator))); got != 2 {
		t.Errorf("ana sees %d evaluations, want 2", got)
	}
	if got := len(list(newRouter(store, svc, "zoe", eval.RoleCollaborator))); got != 0 {
		t.Errorf("zoe sees %d evaluations, want 0", got)
	}
}

func TestReplaceQuestionsLockedAfterUse(t *testing.T) {
	store := seedStore(t)
	svc := eval.NewService(store, nopMailer{}, eval.WithSyncNotify())

	r := chi.NewRouter()
	r.Put("/questionnaires/{questionnaireID}/questions", api.ReplaceQuestionsHandler(store))
	admin := asUser("root", eval.RoleAdmin, r)

	body := func() *bytes.Buffer {
		b, _ := json.Marshal([]map[string]any{{"text": "new", "category": "technical", "weight": 1.0}})
		return bytes.NewBuffer(b)
	}

	rec := httptest.NewRecorder()
	admin.ServeHTTP(rec, httptest.NewRequest("PUT", "/questionnaires/qn/questions", body()))
	if rec.Code != 200 {
		t.Fatalf("replace before use = %d, body %s", rec.Code, rec.Body.String())
	}

	// Re-seed the question ids the submit references.
	q, _ := store.GetQuestionnaire(context.Background(), "qn")
	if _, err := svc.Submit(context.Background(), eval.SubmitRequest{
		EvaluatorID: "mgr", EvaluatedID: "ana", QuestionnaireID: "qn",
		Responses: map[string]int{q.Questions[0].ID: 3},
	}); err != nil {
		t.Fatalf("submit: %v", err)
	}

	rec = httptest.NewRecorder()
	admin.ServeHTTP(rec, httptest.NewRequest("PUT", "/questionnaires/qn/questions", body()))
	if rec.Code != http.StatusConflict {
		t.Fatalf("replace after use = %d, want 409", rec.Code)
	}
}

func TestActionCRUDHandlers(t *testing.T) {
	store := seedStore(t)
	r := chi.NewRouter()
	r.Post("/actions", api.CreateActionHandler(store))
	r.Get("/actions", api.ListActionsHandler(store))
	r.Patch("/actions/{actionID}", api.UpdateActionHandler(store))
	r.Delete("/actions/{actionID}", api.DeleteActionHandler(store))
	admin := asUser("root", eval.RoleAdmin, r)

	post := func(body map[string]any) *httptest.ResponseRecorder {
		b, _ := json.Marshal(body)
		rec := httptest.NewRecorder()
		admin.ServeHTTP(rec, httptest.NewRequest("POST", "/actions", bytes.NewBuffer(b)))
		return rec
	}

	rec := post(map[string]any{
		"title": "Mentor a junior", "description": "weekly sessions",
		"category": "behavior", "min_tier": "senior", "max_tier": "senior", "duration_days": 90,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create = %d, body %s", rec.Code, rec.Body.String())
	}

	if rec := post(map[string]any{
		"title": "x", "description": "y", "category": "c", "min_tier": "senior", "max_tier": "junior",
	}); rec.Code != 400 {
		t.Fatalf("inverted tier range accepted: %d", rec.Code)
	}
	if rec := post(map[string]any{
		"title": "x", "description": "y", "category": "c", "min_tier": "lead", "max_tier": "lead",
	}); rec.Code != 400 {
		t.Fatalf("unknown tier accepted: %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	admin.ServeHTTP(rec, httptest.NewRequest("GET", "/actions?tier=senior", nil))
	var actions []map[string]any
	_ = json.Unmarshal(rec.Body.Bytes(), &actions)
	if len(actions) != 1 {
		t.Fatalf("listed %d senior actions, want 1", len(actions))
	}
	id, _ := actions[0]["id"].(string)

	rec = httptest.NewRecorder()
	admin.ServeHTTP(rec, httptest.NewRequest("DELETE", fmt.Sprintf("/actions/%s", id), nil))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete = %d", rec.Code)
	}
	rec = httptest.NewRecorder()
	admin.ServeHTTP(rec, httptest.NewRequest("DELETE", fmt.Sprintf("/actions/%s", id), nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("second delete = %d, want 404", rec.Code)
	}
}
