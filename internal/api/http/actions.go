package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/evaltrack/evaltrack/internal/eval"
	"github.com/evaltrack/evaltrack/internal/pdi"
	"github.com/evaltrack/evaltrack/internal/scoring"
)

type actionInput struct {
	Title        string `json:"title"`
	Description  string `json:"description"`
	Category     string `json:"category"`
	MinTier      string `json:"min_tier"`
	MaxTier      string `json:"max_tier"`
	DurationDays int    `json:"duration_days"`
}

func (in actionInput) toAction(id string) (pdi.Action, string) {
	if strings.TrimSpace(in.Title) == "" || strings.TrimSpace(in.Description) == "" {
		return pdi.Action{}, "title and description required"
	}
	if strings.TrimSpace(in.Category) == "" {
		return pdi.Action{}, "category required"
	}
	minT, ok := scoring.ParseTier(in.MinTier)
	if !ok {
		return pdi.Action{}, "unknown min_tier"
	}
	maxT, ok := scoring.ParseTier(in.MaxTier)
	if !ok {
		return pdi.Action{}, "unknown max_tier"
	}
	if minT.Ordinal() > maxT.Ordinal() {
		return pdi.Action{}, "min_tier above max_tier"
	}
	if in.DurationDays < 0 {
		return pdi.Action{}, "duration_days must be >= 0"
	}
	return pdi.Action{
		ID:           id,
		Title:        in.Title,
		Description:  in.Description,
		Category:     in.Category,
		MinTier:      minT,
		MaxTier:      maxT,
		DurationDays: in.DurationDays,
	}, ""
}

// POST /actions (admin)
func CreateActionHandler(store eval.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in actionInput
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			http.Error(w, "bad json", 400)
			return
		}
		a, msg := in.toAction(uuid.NewString())
		if msg != "" {
			http.Error(w, msg, 400)
			return
		}
		if err := store.CreateAction(r.Context(), a); err != nil {
			http.Error(w, err.Error(), 500)
			return
		}
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(a)
	}
}

// GET /actions
func ListActionsHandler(store eval.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var (
			out []pdi.Action
			err error
		)
		if t := r.URL.Query().Get("tier"); t != "" {
			tier, ok := scoring.ParseTier(t)
			if !ok {
				http.Error(w, "unknown tier", 400)
				return
			}
			out, err = store.ListActionsForTier(r.Context(), tier)
		} else {
			out, err = store.ListActions(r.Context())
		}
		if err != nil {
			http.Error(w, err.Error(), 500)
			return
		}
		_ = json.NewEncoder(w).Encode(out)
	}
}

// PATCH /actions/{actionID} (admin; full field set, id preserved)
func UpdateActionHandler(store eval.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "actionID")
		var in actionInput
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			http.Error(w, "bad json", 400)
			return
		}
		a, msg := in.toAction(id)
		if msg != "" {
			http.Error(w, msg, 400)
			return
		}
		if err := store.UpdateAction(r.Context(), a); err != nil {
			status := 500
			if errors.Is(err, eval.ErrNotFound) {
				status = 404
			}
			http.Error(w, err.Error(), status)
			return
		}
		_ = json.NewEncoder(w).Encode(a)
	}
}

// DELETE /actions/{actionID} (admin)
func DeleteActionHandler(store eval.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := store.DeleteAction(r.Context(), chi.URLParam(r, "actionID")); err != nil {
			status := 500
			if errors.Is(err, eval.ErrNotFound) {
				status = 404
			}
			http.Error(w, err.Error(), status)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
