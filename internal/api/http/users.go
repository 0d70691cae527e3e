package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	auth "github.com/evaltrack/evaltrack/internal/auth/middleware"
	"github.com/evaltrack/evaltrack/internal/eval"
)

func validRole(r string) bool {
	return r == eval.RoleAdmin || r == eval.RoleManager || r == eval.RoleCollaborator
}

// POST /users (admin). Password falls back to the configured default
// so admins can onboard people and have them rotate on first login.
func CreateUserHandler(store eval.Store, defaultPassword string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Name      string `json:"name"`
			Email     string `json:"email"`
			Password  string `json:"password"`
			Role      string `json:"role"`
			ManagerID string `json:"manager_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", 400)
			return
		}
		req.Name = strings.TrimSpace(req.Name)
		req.Email = strings.ToLower(strings.TrimSpace(req.Email))
		if req.Name == "" || req.Email == "" || req.Role == "" {
			http.Error(w, "name, email and role required", 400)
			return
		}
		if !validRole(req.Role) {
			http.Error(w, "unknown role", 400)
			return
		}
		if req.ManagerID != "" {
			mgr, err := store.GetProfile(r.Context(), req.ManagerID)
			if err != nil || mgr.Role != eval.RoleManager {
				http.Error(w, "manager_id must reference a manager", 400)
				return
			}
		}
		pw := req.Password
		if pw == "" {
			pw = defaultPassword
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.DefaultCost)
		if err != nil {
			http.Error(w, err.Error(), 500)
			return
		}
		p := eval.Profile{
			ID:           uuid.NewString(),
			Name:         req.Name,
			Email:        req.Email,
			Role:         req.Role,
			ManagerID:    req.ManagerID,
			PasswordHash: string(hash),
		}
		if err := store.CreateProfile(r.Context(), p); err != nil {
			http.Error(w, err.Error(), 400)
			return
		}
		p.PasswordHash = ""
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(p)
	}
}

// GET /users?role=
func ListUsersHandler(store eval.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		role := r.URL.Query().Get("role")
		if role != "" && !validRole(role) {
			http.Error(w, "unknown role", 400)
			return
		}
		out, err := store.ListProfiles(r.Context(), role)
		if err != nil {
			http.Error(w, err.Error(), 500)
			return
		}
		_ = json.NewEncoder(w).Encode(out)
	}
}

// PATCH /users/{userID} (admin)
func UpdateUserHandler(store eval.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "userID")
		p, err := store.GetProfile(r.Context(), id)
		if err != nil {
			http.Error(w, "user not found", 404)
			return
		}
		var req struct {
			Name      *string `json:"name"`
			Email     *string `json:"email"`
			Role      *string `json:"role"`
			ManagerID *string `json:"manager_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", 400)
			return
		}
		if req.Name != nil {
			p.Name = strings.TrimSpace(*req.Name)
		}
		if req.Email != nil {
			p.Email = strings.ToLower(strings.TrimSpace(*req.Email))
		}
		if req.Role != nil {
			if !validRole(*req.Role) {
				http.Error(w, "unknown role", 400)
				return
			}
			p.Role = *req.Role
		}
		if req.ManagerID != nil {
			p.ManagerID = *req.ManagerID
		}
		if err := store.UpdateProfile(r.Context(), p); err != nil {
			status := 500
			if errors.Is(err, eval.ErrNotFound) {
				status = 404
			}
			http.Error(w, err.Error(), status)
			return
		}
		p.PasswordHash = ""
		_ = json.NewEncoder(w).Encode(p)
	}
}

// POST /users/change-password (self)
func ChangePasswordHandler(store eval.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sub := auth.SubjectFromContext(r.Context())
		var req struct {
			CurrentPassword string `json:"current_password"`
			NewPassword     string `json:"new_password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", 400)
			return
		}
		if len(req.NewPassword) < 8 {
			http.Error(w, "new password too short (min 8)", 400)
			return
		}
		p, err := store.GetProfile(r.Context(), sub)
		if err != nil {
			http.Error(w, "user not found", 404)
			return
		}
		if bcrypt.CompareHashAndPassword([]byte(p.PasswordHash), []byte(req.CurrentPassword)) != nil {
			http.Error(w, "current password incorrect", 403)
			return
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
		if err != nil {
			http.Error(w, err.Error(), 500)
			return
		}
		if err := store.SetPassword(r.Context(), sub, string(hash)); err != nil {
			http.Error(w, err.Error(), 500)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]bool{"ok": true})
	}
}
