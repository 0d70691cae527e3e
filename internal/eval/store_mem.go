package eval

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/evaltrack/evaltrack/internal/pdi"
	"github.com/evaltrack/evaltrack/internal/scoring"
)

// MemoryStore is an in-process Store used by tests and by the server
// when no database is wanted. Same visibility rules as SQLStore.
type MemoryStore struct {
	mu             sync.RWMutex
	profiles       map[string]Profile
	questionnaires map[string]Questionnaire
	actions        []pdi.Action
	evaluations    map[string]Evaluation
	responses      map[string][]Response // evaluationID -> rows
	plans          map[string]pdi.Plan
	planByEval     map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		profiles:       map[string]Profile{},
		questionnaires: map[string]Questionnaire{},
		evaluations:    map[string]Evaluation{},
		responses:      map[string][]Response{},
		plans:          map[string]pdi.Plan{},
		planByEval:     map[string]string{},
	}
}

func (m *MemoryStore) CreateProfile(_ context.Context, p Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.profiles[p.ID]; ok {
		return errors.New("profile exists")
	}
	for _, existing := range m.profiles {
		if existing.Email == p.Email {
			return errors.New("email taken")
		}
	}
	now := time.Now().Unix()
	p.CreatedAt, p.UpdatedAt = now, now
	m.profiles[p.ID] = p
	return nil
}

func (m *MemoryStore) GetProfile(_ context.Context, id string) (Profile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.profiles[id]
	if !ok {
		return Profile{}, ErrNotFound
	}
	return p, nil
}

func (m *MemoryStore) GetProfileByEmail(_ context.Context, email string) (Profile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, p := range m.profiles {
		if p.Email == email {
			return p, nil
		}
	}
	return Profile{}, ErrNotFound
}

func (m *MemoryStore) ListProfiles(_ context.Context, role string) ([]Profile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []Profile{}
	for _, p := range m.profiles {
		if role == "" || p.Role == role {
			p.PasswordHash = ""
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *MemoryStore) UpdateProfile(_ context.Context, p Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.profiles[p.ID]
	if !ok {
		return ErrNotFound
	}
	cur.Name, cur.Email, cur.Role, cur.ManagerID = p.Name, p.Email, p.Role, p.ManagerID
	cur.UpdatedAt = time.Now().Unix()
	m.profiles[p.ID] = cur
	return nil
}

func (m *MemoryStore) SetPassword(_ context.Context, id, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[id]
	if !ok {
		return ErrNotFound
	}
	p.PasswordHash = hash
	p.UpdatedAt = time.Now().Unix()
	m.profiles[id] = p
	return nil
}

func (m *MemoryStore) CreateQuestionnaire(_ context.Context, q Questionnaire) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.questionnaires[q.ID]; ok {
		return errors.New("questionnaire exists")
	}
	now := time.Now().Unix()
	q.CreatedAt, q.UpdatedAt = now, now
	m.questionnaires[q.ID] = q
	return nil
}

func (m *MemoryStore) GetQuestionnaire(_ context.Context, id string) (Questionnaire, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	q, ok := m.questionnaires[id]
	if !ok {
		return Questionnaire{}, ErrNotFound
	}
	return q, nil
}

func (m *MemoryStore) ListQuestionnaires(_ context.Context, status string) ([]Questionnaire, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []Questionnaire{}
	for _, q := range m.questionnaires {
		if status == "" || q.Status == status {
			q.Questions = nil
			out = append(out, q)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt > out[j].CreatedAt })
	return out, nil
}

func (m *MemoryStore) UpdateQuestionnaire(_ context.Context, q Questionnaire) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.questionnaires[q.ID]
	if !ok {
		return ErrNotFound
	}
	cur.Title, cur.Description, cur.Status, cur.Version = q.Title, q.Description, q.Status, q.Version
	cur.UpdatedAt = time.Now().Unix()
	m.questionnaires[q.ID] = cur
	return nil
}

func (m *MemoryStore) ReplaceQuestions(_ context.Context, questionnaireID string, qs []Question) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	q, ok := m.questionnaires[questionnaireID]
	if !ok {
		return ErrNotFound
	}
	q.Questions = append([]Question(nil), qs...)
	q.Version++
	q.UpdatedAt = time.Now().Unix()
	m.questionnaires[questionnaireID] = q
	return nil
}

func (m *MemoryStore) HasEvaluations(_ context.Context, questionnaireID string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, e := range m.evaluations {
		if e.QuestionnaireID == questionnaireID {
			return true, nil
		}
	}
	return false, nil
}

func (m *MemoryStore) CreateAction(_ context.Context, a pdi.Action) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a.CreatedAt = time.Now().Unix()
	m.actions = append(m.actions, a)
	return nil
}

func (m *MemoryStore) UpdateAction(_ context.Context, a pdi.Action) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.actions {
		if m.actions[i].ID == a.ID {
			a.CreatedAt = m.actions[i].CreatedAt
			m.actions[i] = a
			return nil
		}
	}
	return ErrNotFound
}

func (m *MemoryStore) DeleteAction(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.actions {
		if m.actions[i].ID == id {
			m.actions = append(m.actions[:i], m.actions[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

func (m *MemoryStore) ListActions(_ context.Context) ([]pdi.Action, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := append([]pdi.Action(nil), m.actions...)
	sortActions(out)
	return out, nil
}

func (m *MemoryStore) ListActionsForTier(_ context.Context, tier scoring.Tier) ([]pdi.Action, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []pdi.Action{}
	for _, a := range m.actions {
		if a.MinTier == tier {
			out = append(out, a)
		}
	}
	sortActions(out)
	return out, nil
}

// Matches the SQL ordering: category, then minimum tier, then age.
func sortActions(as []pdi.Action) {
	sort.SliceStable(as, func(i, j int) bool {
		if as[i].Category != as[j].Category {
			return as[i].Category < as[j].Category
		}
		if as[i].MinTier != as[j].MinTier {
			return string(as[i].MinTier) < string(as[j].MinTier)
		}
		return as[i].CreatedAt < as[j].CreatedAt
	})
}

func (m *MemoryStore) InsertEvaluation(_ context.Context, e Evaluation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.evaluations[e.ID]; ok {
		return errors.New("evaluation exists")
	}
	m.evaluations[e.ID] = e
	return nil
}

func (m *MemoryStore) InsertResponses(_ context.Context, rs []Response) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range rs {
		m.responses[r.EvaluationID] = append(m.responses[r.EvaluationID], r)
	}
	return nil
}

func (m *MemoryStore) GetEvaluation(_ context.Context, id string) (Evaluation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.evaluations[id]
	if !ok {
		return Evaluation{}, ErrNotFound
	}
	return e, nil
}

func (m *MemoryStore) ListEvaluations(_ context.Context, opts EvalListOpts) ([]Evaluation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []Evaluation{}
	for _, e := range m.evaluations {
		if !m.visibleEvaluation(e, opts.ViewerID, opts.ViewerRole) {
			continue
		}
		if opts.EvaluatedID != "" && e.EvaluatedID != opts.EvaluatedID {
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt > out[j].CreatedAt })
	return page(out, opts.Limit, opts.Offset), nil
}

func (m *MemoryStore) visibleEvaluation(e Evaluation, viewerID, viewerRole string) bool {
	switch viewerRole {
	case RoleAdmin:
		return true
	case RoleManager:
		if e.EvaluatorID == viewerID {
			return true
		}
		p, ok := m.profiles[e.EvaluatedID]
		return ok && p.ManagerID == viewerID
	default:
		return e.EvaluatedID == viewerID
	}
}

func (m *MemoryStore) InsertPlan(_ context.Context, p pdi.Plan) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.planByEval[p.EvaluationID]; ok {
		return errors.New("plan already exists for evaluation")
	}
	m.plans[p.ID] = p
	m.planByEval[p.EvaluationID] = p.ID
	return nil
}

func (m *MemoryStore) GetPlan(_ context.Context, id string) (pdi.Plan, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.plans[id]
	if !ok {
		return pdi.Plan{}, ErrNotFound
	}
	return p, nil
}

func (m *MemoryStore) ListPlans(_ context.Context, opts PlanListOpts) ([]PlanSummary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []PlanSummary{}
	for _, p := range m.plans {
		e, ok := m.evaluations[p.EvaluationID]
		if !ok {
			continue
		}
		if !m.visibleEvaluation(e, opts.ViewerID, opts.ViewerRole) {
			continue
		}
		if opts.PersonID != "" && p.PersonID != opts.PersonID {
			continue
		}
		pr := m.profiles[p.PersonID]
		summary := p
		summary.BodyHTML = ""
		out = append(out, PlanSummary{
			Plan:        summary,
			PersonName:  pr.Name,
			PersonEmail: pr.Email,
			Score:       e.Score,
			Tier:        e.Tier,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Plan.CreatedAt > out[j].Plan.CreatedAt })
	return page(out, opts.Limit, opts.Offset), nil
}

func page[T any](in []T, limit, offset int) []T {
	limit, offset = pageBounds(limit, offset)
	if offset >= len(in) {
		return []T{}
	}
	in = in[offset:]
	if len(in) > limit {
		in = in[:limit]
	}
	return in
}

// ResponsesFor is a test helper exposing stored responses.
func (m *MemoryStore) ResponsesFor(evaluationID string) []Response {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]Response(nil), m.responses[evaluationID]...)
}
