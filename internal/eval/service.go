package eval

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/evaltrack/evaltrack/internal/audit"
	"github.com/evaltrack/evaltrack/internal/notify"
	"github.com/evaltrack/evaltrack/internal/pdi"
	"github.com/evaltrack/evaltrack/internal/scoring"
)

// ValidationError rejects a submission before any write.
type ValidationError struct{ Reason string }

func (e *ValidationError) Error() string { return e.Reason }

func validationErrf(format string, args ...any) error {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// Auditor records lifecycle events; nil disables the trail.
type Auditor interface {
	Record(ctx context.Context, typ, subject, actor string, data map[string]any) error
}

// SubmitRequest is one evaluation submission. The evaluator identity
// and the authorization decision come from the caller (auth layer);
// the service only checks referential consistency.
type SubmitRequest struct {
	EvaluatorID     string         `json:"evaluator_id"`
	EvaluatedID     string         `json:"evaluated_id"`
	QuestionnaireID string         `json:"questionnaire_id"`
	Note            string         `json:"note,omitempty"`
	Responses       map[string]int `json:"responses"` // questionID -> 0..5 (0/absent = unanswered)
}

// SubmitResult reports the outcome. PlanGenerated=false with a nil
// error is the "evaluation saved but plan not generated" case: the
// evaluation and its responses are committed and are not rolled back.
type SubmitResult struct {
	Evaluation    Evaluation `json:"evaluation"`
	Plan          pdi.Plan   `json:"plan,omitempty"`
	PlanGenerated bool       `json:"plan_generated"`
	PlanError     string     `json:"plan_error,omitempty"`
}

// Service runs the scoring and plan-generation pipeline.
type Service struct {
	store   Store
	mailer  notify.Mailer
	auditor Auditor

	notifyTimeout time.Duration
	syncNotify    bool // tests flip this to make dispatch synchronous
	now           func() time.Time
}

type ServiceOption func(*Service)

func WithAuditor(a Auditor) ServiceOption { return func(s *Service) { s.auditor = a } }
func WithSyncNotify() ServiceOption       { return func(s *Service) { s.syncNotify = true } }

func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) { s.now = now }
}

func NewService(store Store, mailer notify.Mailer, opts ...ServiceOption) *Service {
	s := &Service{
		store:         store,
		mailer:        mailer,
		notifyTimeout: 30 * time.Second,
		now:           time.Now,
	}
	if s.mailer == nil {
		s.mailer = notify.LogMailer{}
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Submit validates, scores and persists one evaluation, then builds
// its plan and dispatches notifications.
//
// Write sequence is deliberately non-atomic (evaluation, responses,
// plan are three independent inserts). Failures are classified per
// step: validation rejects up front, a failed action fetch degrades to
// a placeholder plan, a failed plan insert yields the saved-without-
// plan outcome, and notification failures are only logged.
func (s *Service) Submit(ctx context.Context, req SubmitRequest) (SubmitResult, error) {
	questionnaire, evaluated, evaluator, answers, err := s.validate(ctx, req)
	if err != nil {
		return SubmitResult{}, err
	}

	score := scoring.Score(answers)
	tier := scoring.ClassifyTier(score)
	now := s.now()

	ev := Evaluation{
		ID:              uuid.NewString(),
		EvaluatorID:     evaluator.ID,
		EvaluatedID:     evaluated.ID,
		QuestionnaireID: questionnaire.ID,
		Score:           score,
		Tier:            tier,
		Note:            req.Note,
		CreatedAt:       now.Unix(),
	}
	if err := s.store.InsertEvaluation(ctx, ev); err != nil {
		return SubmitResult{}, fmt.Errorf("insert evaluation: %w", err)
	}

	var responses []Response
	for _, q := range questionnaire.Questions {
		v := req.Responses[q.ID]
		if v <= 0 {
			continue
		}
		responses = append(responses, Response{
			ID:           uuid.NewString(),
			EvaluationID: ev.ID,
			QuestionID:   q.ID,
			Value:        v,
		})
	}
	if err := s.store.InsertResponses(ctx, responses); err != nil {
		// Evaluation row is already committed; report the saved-but-
		// incomplete outcome rather than pretending nothing happened.
		s.record(ctx, audit.EventPlanFailed, ev.ID, evaluator.ID, map[string]any{"step": "responses", "error": err.Error()})
		return SubmitResult{Evaluation: ev, PlanError: "responses not saved: " + err.Error()}, nil
	}
	s.record(ctx, audit.EventEvaluationSubmitted, ev.ID, evaluator.ID, map[string]any{
		"evaluated": evaluated.ID, "score": score, "tier": string(tier),
	})

	// Best-effort action fetch: a store failure degrades to the
	// empty-actions placeholder instead of blocking submission.
	actions, err := s.store.ListActionsForTier(ctx, tier)
	if err != nil {
		log.Printf("eval: action fetch failed for tier %s: %v", tier, err)
		actions = nil
	}

	body, err := pdi.Render(pdi.Document{
		PersonName:  evaluated.Name,
		TierLabel:   tier.Label(),
		Score:       score,
		Note:        req.Note,
		GeneratedAt: now,
		Groups:      pdi.GroupActions(actions),
	})
	if err != nil {
		s.record(ctx, audit.EventPlanFailed, ev.ID, evaluator.ID, map[string]any{"step": "render", "error": err.Error()})
		return SubmitResult{Evaluation: ev, PlanError: "plan not generated: " + err.Error()}, nil
	}

	plan := pdi.Plan{
		ID:           uuid.NewString(),
		EvaluationID: ev.ID,
		PersonID:     evaluated.ID,
		BodyHTML:     body,
		CreatedAt:    now.Unix(),
	}
	if err := s.store.InsertPlan(ctx, plan); err != nil {
		s.record(ctx, audit.EventPlanFailed, ev.ID, evaluator.ID, map[string]any{"step": "insert", "error": err.Error()})
		return SubmitResult{Evaluation: ev, PlanError: "plan not generated: " + err.Error()}, nil
	}
	s.record(ctx, audit.EventPlanGenerated, plan.ID, evaluator.ID, map[string]any{"evaluation": ev.ID})

	s.dispatchNotify(notify.PlanEmail{
		PlanID:         plan.ID,
		PersonName:     evaluated.Name,
		PersonEmail:    evaluated.Email,
		EvaluatorName:  evaluator.Name,
		EvaluatorEmail: evaluator.Email,
		TierLabel:      tier.Label(),
		Score:          score,
		Note:           req.Note,
		GeneratedAt:    now,
	})

	return SubmitResult{Evaluation: ev, Plan: plan, PlanGenerated: true}, nil
}

func (s *Service) validate(ctx context.Context, req SubmitRequest) (Questionnaire, Profile, Profile, []scoring.Answer, error) {
	var zq Questionnaire
	var zp Profile
	if req.EvaluatorID == "" || req.EvaluatedID == "" || req.QuestionnaireID == "" {
		return zq, zp, zp, nil, validationErrf("evaluator, evaluated person and questionnaire are required")
	}
	if req.EvaluatorID == req.EvaluatedID {
		return zq, zp, zp, nil, validationErrf("self-evaluation is not allowed")
	}

	questionnaire, err := s.store.GetQuestionnaire(ctx, req.QuestionnaireID)
	if err != nil {
		if err == ErrNotFound {
			return zq, zp, zp, nil, validationErrf("questionnaire %s not found", req.QuestionnaireID)
		}
		return zq, zp, zp, nil, err
	}
	if questionnaire.Status != StatusActive {
		return zq, zp, zp, nil, validationErrf("questionnaire %s is not active", req.QuestionnaireID)
	}
	if len(questionnaire.Questions) == 0 {
		return zq, zp, zp, nil, validationErrf("questionnaire %s has no questions", req.QuestionnaireID)
	}

	evaluated, err := s.store.GetProfile(ctx, req.EvaluatedID)
	if err != nil {
		if err == ErrNotFound {
			return zq, zp, zp, nil, validationErrf("evaluated person %s not found", req.EvaluatedID)
		}
		return zq, zp, zp, nil, err
	}
	evaluator, err := s.store.GetProfile(ctx, req.EvaluatorID)
	if err != nil {
		if err == ErrNotFound {
			return zq, zp, zp, nil, validationErrf("evaluator %s not found", req.EvaluatorID)
		}
		return zq, zp, zp, nil, err
	}

	known := map[string]bool{}
	answers := make([]scoring.Answer, 0, len(questionnaire.Questions))
	answered := 0
	for _, q := range questionnaire.Questions {
		known[q.ID] = true
		v := req.Responses[q.ID]
		if v < 0 || v > 5 {
			return zq, zp, zp, nil, validationErrf("response for question %s out of range (got %d, want 0..5)", q.ID, v)
		}
		if v > 0 {
			answered++
		}
		answers = append(answers, scoring.Answer{Weight: q.Weight, Value: v})
	}
	for qid := range req.Responses {
		if !known[qid] {
			return zq, zp, zp, nil, validationErrf("question %s does not belong to questionnaire %s", qid, questionnaire.ID)
		}
	}
	if answered == 0 {
		return zq, zp, zp, nil, validationErrf("at least one question must be answered")
	}
	return questionnaire, evaluated, evaluator, answers, nil
}

func (s *Service) dispatchNotify(m notify.PlanEmail) {
	send := func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.notifyTimeout)
		defer cancel()
		if err := s.mailer.SendPlanGenerated(ctx, m); err != nil {
			log.Printf("eval: plan notification failed for plan %s: %v", m.PlanID, err)
		}
	}
	if s.syncNotify {
		send()
		return
	}
	go send()
}

func (s *Service) record(ctx context.Context, typ, subject, actor string, data map[string]any) {
	if s.auditor == nil {
		return
	}
	if err := s.auditor.Record(ctx, typ, subject, actor, data); err != nil {
		log.Printf("eval: audit record %s failed: %v", typ, err)
	}
}
