package eval

import (
	"context"
	"errors"

	"github.com/evaltrack/evaltrack/internal/pdi"
	"github.com/evaltrack/evaltrack/internal/scoring"
)

var ErrNotFound = errors.New("not found")

// EvalListOpts scopes evaluation listings by viewer role: admins see
// everything, managers their reports, collaborators themselves.
type EvalListOpts struct {
	ViewerID    string
	ViewerRole  string
	EvaluatedID string // optional extra filter
	Limit       int
	Offset      int
}

// PlanListOpts mirrors EvalListOpts for plan listings.
type PlanListOpts struct {
	ViewerID   string
	ViewerRole string
	PersonID   string
	Limit      int
	Offset     int
}

// PlanSummary is a plan row joined with the data the list screens
// show; BodyHTML is omitted to keep listings light.
type PlanSummary struct {
	Plan        pdi.Plan     `json:"plan"`
	PersonName  string       `json:"person_name"`
	PersonEmail string       `json:"person_email"`
	Score       float64      `json:"score"`
	Tier        scoring.Tier `json:"tier"`
}

// Store is the record-store boundary for every entity the evaluation
// pipeline and the CRUD surface touch.
type Store interface {
	// Profiles
	CreateProfile(ctx context.Context, p Profile) error
	GetProfile(ctx context.Context, id string) (Profile, error)
	GetProfileByEmail(ctx context.Context, email string) (Profile, error)
	ListProfiles(ctx context.Context, role string) ([]Profile, error)
	UpdateProfile(ctx context.Context, p Profile) error
	SetPassword(ctx context.Context, id, hash string) error

	// Questionnaires
	CreateQuestionnaire(ctx context.Context, q Questionnaire) error
	GetQuestionnaire(ctx context.Context, id string) (Questionnaire, error) // with questions
	ListQuestionnaires(ctx context.Context, status string) ([]Questionnaire, error)
	UpdateQuestionnaire(ctx context.Context, q Questionnaire) error
	ReplaceQuestions(ctx context.Context, questionnaireID string, qs []Question) error
	HasEvaluations(ctx context.Context, questionnaireID string) (bool, error)

	// Development actions
	CreateAction(ctx context.Context, a pdi.Action) error
	UpdateAction(ctx context.Context, a pdi.Action) error
	DeleteAction(ctx context.Context, id string) error
	ListActions(ctx context.Context) ([]pdi.Action, error)
	// ListActionsForTier selects actions whose minimum tier equals the
	// given tier, ordered by category then minimum tier.
	ListActionsForTier(ctx context.Context, tier scoring.Tier) ([]pdi.Action, error)

	// Evaluations
	InsertEvaluation(ctx context.Context, e Evaluation) error
	InsertResponses(ctx context.Context, rs []Response) error
	GetEvaluation(ctx context.Context, id string) (Evaluation, error)
	ListEvaluations(ctx context.Context, opts EvalListOpts) ([]Evaluation, error)

	// Plans (insert-only; one per evaluation)
	InsertPlan(ctx context.Context, p pdi.Plan) error
	GetPlan(ctx context.Context, id string) (pdi.Plan, error)
	ListPlans(ctx context.Context, opts PlanListOpts) ([]PlanSummary, error)
}
