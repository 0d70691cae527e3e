package http

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/evaltrack/evaltrack/internal/eval"
)

func validStatus(s string) bool {
	return s == eval.StatusDraft || s == eval.StatusActive || s == eval.StatusInactive
}

type questionInput struct {
	Text     string  `json:"text"`
	Category string  `json:"category"`
	Order    int     `json:"order"`
	Weight   float64 `json:"weight"`
}

func buildQuestions(questionnaireID string, in []questionInput) ([]eval.Question, string) {
	qs := make([]eval.Question, 0, len(in))
	for i, qi := range in {
		if strings.TrimSpace(qi.Text) == "" {
			return nil, "question text required"
		}
		if strings.TrimSpace(qi.Category) == "" {
			return nil, "question category required"
		}
		if qi.Weight <= 0 {
			return nil, "question weight must be > 0"
		}
		ord := qi.Order
		if ord == 0 {
			ord = i + 1
		}
		qs = append(qs, eval.Question{
			ID:              uuid.NewString(),
			QuestionnaireID: questionnaireID,
			Text:            qi.Text,
			Category:        qi.Category,
			Order:           ord,
			Weight:          qi.Weight,
		})
	}
	return qs, ""
}

// POST /questionnaires (admin)
func CreateQuestionnaireHandler(store eval.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Title       string          `json:"title"`
			Description string          `json:"description"`
			Status      string          `json:"status"`
			CreatedBy   string          `json:"created_by"`
			Questions   []questionInput `json:"questions"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", 400)
			return
		}
		if strings.TrimSpace(req.Title) == "" {
			http.Error(w, "title required", 400)
			return
		}
		if req.Status == "" {
			req.Status = eval.StatusDraft
		}
		if !validStatus(req.Status) {
			http.Error(w, "unknown status", 400)
			return
		}
		id := uuid.NewString()
		qs, msg := buildQuestions(id, req.Questions)
		if msg != "" {
			http.Error(w, msg, 400)
			return
		}
		q := eval.Questionnaire{
			ID:          id,
			Title:       req.Title,
			Description: req.Description,
			Status:      req.Status,
			Version:     1,
			CreatedBy:   req.CreatedBy,
			Questions:   qs,
		}
		if err := store.CreateQuestionnaire(r.Context(), q); err != nil {
			http.Error(w, err.Error(), 400)
			return
		}
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(q)
	}
}

// GET /questionnaires?status=
func ListQuestionnairesHandler(store eval.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := r.URL.Query().Get("status")
		if status != "" && !validStatus(status) {
			http.Error(w, "unknown status", 400)
			return
		}
		out, err := store.ListQuestionnaires(r.Context(), status)
		if err != nil {
			http.Error(w, err.Error(), 500)
			return
		}
		_ = json.NewEncoder(w).Encode(out)
	}
}

// GET /questionnaires/{questionnaireID} (includes questions)
func GetQuestionnaireHandler(store eval.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q, err := store.GetQuestionnaire(r.Context(), chi.URLParam(r, "questionnaireID"))
		if err != nil {
			http.Error(w, "questionnaire not found", 404)
			return
		}
		_ = json.NewEncoder(w).Encode(q)
	}
}

// PATCH /questionnaires/{questionnaireID} (admin; metadata only)
func UpdateQuestionnaireHandler(store eval.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "questionnaireID")
		q, err := store.GetQuestionnaire(r.Context(), id)
		if err != nil {
			http.Error(w, "questionnaire not found", 404)
			return
		}
		var req struct {
			Title       *string `json:"title"`
			Description *string `json:"description"`
			Status      *string `json:"status"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", 400)
			return
		}
		if req.Title != nil {
			if strings.TrimSpace(*req.Title) == "" {
				http.Error(w, "title required", 400)
				return
			}
			q.Title = *req.Title
		}
		if req.Description != nil {
			q.Description = *req.Description
		}
		if req.Status != nil {
			if !validStatus(*req.Status) {
				http.Error(w, "unknown status", 400)
				return
			}
			q.Status = *req.Status
		}
		if err := store.UpdateQuestionnaire(r.Context(), q); err != nil {
			http.Error(w, err.Error(), 500)
			return
		}
		q.Questions = nil
		_ = json.NewEncoder(w).Encode(q)
	}
}

// PUT /questionnaires/{questionnaireID}/questions (admin)
// The question set is frozen once the questionnaire has been used in
// an evaluation; edits would silently change historical scores.
func ReplaceQuestionsHandler(store eval.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "questionnaireID")
		if _, err := store.GetQuestionnaire(r.Context(), id); err != nil {
			http.Error(w, "questionnaire not found", 404)
			return
		}
		used, err := store.HasEvaluations(r.Context(), id)
		if err != nil {
			http.Error(w, err.Error(), 500)
			return
		}
		if used {
			http.Error(w, "questionnaire already evaluated against; create a new version instead", http.StatusConflict)
			return
		}
		var in []questionInput
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			http.Error(w, "bad json", 400)
			return
		}
		qs, msg := buildQuestions(id, in)
		if msg != "" {
			http.Error(w, msg, 400)
			return
		}
		if err := store.ReplaceQuestions(r.Context(), id, qs); err != nil {
			http.Error(w, err.Error(), 500)
			return
		}
		q, err := store.GetQuestionnaire(r.Context(), id)
		if err != nil {
			http.Error(w, err.Error(), 500)
			return
		}
		_ = json.NewEncoder(w).Encode(q)
	}
}
