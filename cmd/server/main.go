package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	api "github.com/evaltrack/evaltrack/internal/api/http"
	"github.com/evaltrack/evaltrack/internal/audit"
	auth "github.com/evaltrack/evaltrack/internal/auth/middleware"
	"github.com/evaltrack/evaltrack/internal/config"
	"github.com/evaltrack/evaltrack/internal/db"
	"github.com/evaltrack/evaltrack/internal/eval"
	"github.com/evaltrack/evaltrack/internal/notify"
	"github.com/evaltrack/evaltrack/internal/rbac"
)

func main() {
	cfg := config.FromEnv()

	// --- DB ---
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dbh, err := db.Open(ctx, db.Driver(cfg.DBDriver), cfg.DBDSN)
	if err != nil {
		log.Fatalf("db open failed: %v", err)
	}
	store := eval.NewSQLStore(dbh, cfg.DBDriver)

	if err := bootstrapAdmin(ctx, store, cfg); err != nil {
		log.Fatalf("admin bootstrap: %v", err)
	}

	// --- Mail ---
	var mailer notify.Mailer = notify.LogMailer{}
	if cfg.ResendAPIKey != "" {
		mailer = notify.NewResendMailer(cfg.ResendAPIKey, cfg.MailFrom, cfg.AppURL)
	}

	auditor := audit.NewRecorder(dbh)
	svc := eval.NewService(store, mailer, eval.WithAuditor(auditor))

	// --- Auth ---
	authSvc := auth.NewAuthService(cfg.AuthHMACSecret)

	// --- Router ---
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Post("/auth/login", auth.LoginHandler(authSvc, store))

	// Protected API (JWT → subject+role in context → RBAC)
	r.Group(func(pr chi.Router) {
		pr.Use(auth.JWTMiddleware(authSvc))

		// Users
		pr.With(rbac.Require("users:manage")).
			Post("/users", api.CreateUserHandler(store, cfg.AdminPassword))
		pr.With(rbac.RequireAny("users:list", "users:manage")).
			Get("/users", api.ListUsersHandler(store))
		pr.With(rbac.Require("users:manage")).
			Patch("/users/{userID}", api.UpdateUserHandler(store))
		pr.With(rbac.Require("user:change_password")).
			Post("/users/change-password", api.ChangePasswordHandler(store))

		// Questionnaires
		pr.With(rbac.Require("questionnaire:manage")).
			Post("/questionnaires", api.CreateQuestionnaireHandler(store))
		pr.With(rbac.RequireAny("questionnaire:view", "questionnaire:manage")).
			Get("/questionnaires", api.ListQuestionnairesHandler(store))
		pr.With(rbac.RequireAny("questionnaire:view", "questionnaire:manage")).
			Get("/questionnaires/{questionnaireID}", api.GetQuestionnaireHandler(store))
		pr.With(rbac.Require("questionnaire:manage")).
			Patch("/questionnaires/{questionnaireID}", api.UpdateQuestionnaireHandler(store))
		pr.With(rbac.Require("questionnaire:manage")).
			Put("/questionnaires/{questionnaireID}/questions", api.ReplaceQuestionsHandler(store))

		// Development action catalog
		pr.With(rbac.Require("actions:manage")).
			Post("/actions", api.CreateActionHandler(store))
		pr.With(rbac.RequireAny("questionnaire:view", "actions:manage")).
			Get("/actions", api.ListActionsHandler(store))
		pr.With(rbac.Require("actions:manage")).
			Patch("/actions/{actionID}", api.UpdateActionHandler(store))
		pr.With(rbac.Require("actions:manage")).
			Delete("/actions/{actionID}", api.DeleteActionHandler(store))

		// Evaluations
		pr.With(rbac.Require("evaluation:create")).
			Post("/evaluations", api.SubmitEvaluationHandler(svc, store))
		pr.With(rbac.RequireAny("evaluation:view-own", "evaluation:view-team")).
			Get("/evaluations", api.ListEvaluationsHandler(store))
		pr.With(rbac.RequireAny("evaluation:view-own", "evaluation:view-team")).
			Get("/evaluations/{evaluationID}", api.GetEvaluationHandler(store))
		pr.With(rbac.Require("events:view")).
			Get("/evaluations/{evaluationID}/events", api.ListEvaluationEventsHandler(auditor))

		// Plans
		pr.With(rbac.RequireAny("plan:view-own", "plan:view-team")).
			Get("/plans", api.ListPlansHandler(store))
		pr.With(rbac.RequireAny("plan:view-own", "plan:view-team")).
			Get("/plans/{planID}", api.GetPlanHandler(store))
		pr.With(rbac.RequireAny("plan:view-own", "plan:view-team")).
			Get("/plans/{planID}/document", api.PlanDocumentHandler(store))
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if err := dbh.PingContext(r.Context()); err != nil {
			http.Error(w, "db unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(200)
	})

	log.Printf("listening on %s (db=%s)", cfg.HTTPAddr, cfg.DBDriver)
	log.Fatal(http.ListenAndServe(cfg.HTTPAddr, r))
}

// bootstrapAdmin seeds the first admin account so a fresh deployment
// is reachable. No-op once any profile exists.
func bootstrapAdmin(ctx context.Context, store *eval.SQLStore, cfg config.Config) error {
	existing, err := store.ListProfiles(ctx, "")
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(cfg.AdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	log.Printf("seeding initial admin %s", cfg.AdminEmail)
	return store.CreateProfile(ctx, eval.Profile{
		ID:           uuid.NewString(),
		Name:         cfg.AdminName,
		Email:        cfg.AdminEmail,
		Role:         eval.RoleAdmin,
		PasswordHash: string(hash),
	})
}
