package pdi

import "github.com/evaltrack/evaltrack/internal/scoring"

// Action is a catalog entry describing one recommended growth
// activity. Administrators manage the catalog; actions are independent
// of any particular evaluation.
type Action struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Category    string       `json:"category"`
	MinTier     scoring.Tier `json:"min_tier"`
	MaxTier     scoring.Tier `json:"max_tier"`
	// Suggested completion window in days; 0 means unspecified.
	DurationDays int   `json:"duration_days,omitempty"`
	CreatedAt    int64 `json:"created_at,omitempty"`
}

// Plan is one generated development plan. Insert-only: a new
// evaluation produces a new plan and old plans remain as history.
type Plan struct {
	ID           string `json:"id"`
	EvaluationID string `json:"evaluation_id"`
	PersonID     string `json:"person_id"`
	BodyHTML     string `json:"body_html,omitempty"`
	CreatedAt    int64  `json:"created_at"`
}
