package eval

import "github.com/evaltrack/evaltrack/internal/scoring"

// Roles. Admins configure, managers evaluate their reports,
// collaborators view their own history.
const (
	RoleAdmin        = "admin"
	RoleManager      = "manager"
	RoleCollaborator = "collaborator"
)

// Questionnaire lifecycle.
const (
	StatusDraft    = "draft"
	StatusActive   = "active"
	StatusInactive = "inactive"
)

// Profile is a person in the system. ManagerID links a collaborator to
// the manager allowed to evaluate them.
type Profile struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	Role         string `json:"role"`
	ManagerID    string `json:"manager_id,omitempty"`
	PasswordHash string `json:"-"`
	CreatedAt    int64  `json:"created_at,omitempty"`
	UpdatedAt    int64  `json:"updated_at,omitempty"`
}

type Questionnaire struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Status      string     `json:"status"` // draft|active|inactive
	Version     int        `json:"version"`
	CreatedBy   string     `json:"created_by,omitempty"`
	Questions   []Question `json:"questions,omitempty"`
	CreatedAt   int64      `json:"created_at,omitempty"`
	UpdatedAt   int64      `json:"updated_at,omitempty"`
}

// Question is one weighted item of a questionnaire. The question set
// is mutable until the questionnaire has been evaluated against.
type Question struct {
	ID              string  `json:"id"`
	QuestionnaireID string  `json:"questionnaire_id,omitempty"`
	Text            string  `json:"text"`
	Category        string  `json:"category"` // technical|process|behavior
	Order           int     `json:"order"`
	Weight          float64 `json:"weight"`
}

// Response is one answered question of an evaluation. Value is on the
// 1..5 ordinal scale; unanswered questions are not persisted.
type Response struct {
	ID           string `json:"id"`
	EvaluationID string `json:"evaluation_id"`
	QuestionID   string `json:"question_id"`
	Value        int    `json:"value"`
}

// Evaluation is one scored submission. Append-only: created atomically
// at submit time, never mutated afterwards.
type Evaluation struct {
	ID              string       `json:"id"`
	EvaluatorID     string       `json:"evaluator_id"`
	EvaluatedID     string       `json:"evaluated_id"`
	QuestionnaireID string       `json:"questionnaire_id"`
	Score           float64      `json:"score"`
	Tier            scoring.Tier `json:"tier"`
	Note            string       `json:"note,omitempty"`
	CreatedAt       int64        `json:"created_at"`
}
