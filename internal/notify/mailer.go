package notify

import (
	"context"
	"log"
	"time"
)

// PlanEmail is everything needed to notify both parties that a plan
// was generated.
type PlanEmail struct {
	PlanID         string
	PersonName     string
	PersonEmail    string
	EvaluatorName  string
	EvaluatorEmail string
	TierLabel      string
	Score          float64
	Note           string
	GeneratedAt    time.Time
}

// Mailer delivers plan notifications. Callers treat delivery as
// fire-and-forget: an error is logged, never surfaced to the
// submitting user.
type Mailer interface {
	SendPlanGenerated(ctx context.Context, m PlanEmail) error
}

// LogMailer is the fallback when no mail provider is configured
// (offline/dev). It only logs.
type LogMailer struct{}

func (LogMailer) SendPlanGenerated(_ context.Context, m PlanEmail) error {
	log.Printf("mail (dry-run): plan %s generated for %s <%s>, evaluator %s <%s>",
		m.PlanID, m.PersonName, m.PersonEmail, m.EvaluatorName, m.EvaluatorEmail)
	return nil
}
