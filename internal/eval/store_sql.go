package eval

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/evaltrack/evaltrack/internal/pdi"
	"github.com/evaltrack/evaltrack/internal/scoring"
)

// SQLStore implements Store over database/sql. Placeholders use the $N
// form, which both the pgx stdlib driver and modernc sqlite accept.
type SQLStore struct {
	db     *sql.DB
	driver string // "sqlite" or "postgres"
}

func NewSQLStore(db *sql.DB, driver string) *SQLStore {
	return &SQLStore{db: db, driver: driver}
}

// ---- profiles ----

func (s *SQLStore) CreateProfile(ctx context.Context, p Profile) error {
	now := time.Now().Unix()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO profiles (id,name,email,role,manager_id,password_hash,created_at,updated_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		p.ID, p.Name, p.Email, p.Role, p.ManagerID, p.PasswordHash, now, now)
	return err
}

func (s *SQLStore) GetProfile(ctx context.Context, id string) (Profile, error) {
	return s.scanProfile(s.db.QueryRowContext(ctx,
		`SELECT id,name,email,role,manager_id,password_hash,created_at,updated_at
		 FROM profiles WHERE id=$1`, id))
}

func (s *SQLStore) GetProfileByEmail(ctx context.Context, email string) (Profile, error) {
	return s.scanProfile(s.db.QueryRowContext(ctx,
		`SELECT id,name,email,role,manager_id,password_hash,created_at,updated_at
		 FROM profiles WHERE email=$1`, email))
}

func (s *SQLStore) scanProfile(row *sql.Row) (Profile, error) {
	var p Profile
	err := row.Scan(&p.ID, &p.Name, &p.Email, &p.Role, &p.ManagerID, &p.PasswordHash, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Profile{}, ErrNotFound
	}
	return p, err
}

func (s *SQLStore) ListProfiles(ctx context.Context, role string) ([]Profile, error) {
	q := `SELECT id,name,email,role,manager_id,created_at,updated_at FROM profiles ORDER BY name`
	args := []any{}
	if role != "" {
		q = `SELECT id,name,email,role,manager_id,created_at,updated_at FROM profiles WHERE role=$1 ORDER BY name`
		args = append(args, role)
	}
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Profile{}
	for rows.Next() {
		var p Profile
		if err := rows.Scan(&p.ID, &p.Name, &p.Email, &p.Role, &p.ManagerID, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *SQLStore) UpdateProfile(ctx context.Context, p Profile) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE profiles SET name=$1, email=$2, role=$3, manager_id=$4, updated_at=$5 WHERE id=$6`,
		p.Name, p.Email, p.Role, p.ManagerID, time.Now().Unix(), p.ID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (s *SQLStore) SetPassword(ctx context.Context, id, hash string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE profiles SET password_hash=$1, updated_at=$2 WHERE id=$3`,
		hash, time.Now().Unix(), id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// ---- questionnaires ----

func (s *SQLStore) CreateQuestionnaire(ctx context.Context, q Questionnaire) error {
	now := time.Now().Unix()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	_, err = tx.ExecContext(ctx,
		`INSERT INTO questionnaires (id,title,description,status,version,created_by,created_at,updated_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		q.ID, q.Title, q.Description, q.Status, q.Version, q.CreatedBy, now, now)
	if err != nil {
		return err
	}
	if err := insertQuestions(ctx, tx, q.ID, q.Questions); err != nil {
		return err
	}
	return tx.Commit()
}

func insertQuestions(ctx context.Context, tx *sql.Tx, questionnaireID string, qs []Question) error {
	for _, qu := range qs {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO questions (id,questionnaire_id,text,category,ord,weight)
			 VALUES ($1,$2,$3,$4,$5,$6)`,
			qu.ID, questionnaireID, qu.Text, qu.Category, qu.Order, qu.Weight); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLStore) GetQuestionnaire(ctx context.Context, id string) (Questionnaire, error) {
	var q Questionnaire
	err := s.db.QueryRowContext(ctx,
		`SELECT id,title,description,status,version,created_by,created_at,updated_at
		 FROM questionnaires WHERE id=$1`, id).
		Scan(&q.ID, &q.Title, &q.Description, &q.Status, &q.Version, &q.CreatedBy, &q.CreatedAt, &q.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Questionnaire{}, ErrNotFound
	}
	if err != nil {
		return Questionnaire{}, err
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id,questionnaire_id,text,category,ord,weight
		 FROM questions WHERE questionnaire_id=$1 ORDER BY ord`, id)
	if err != nil {
		return Questionnaire{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var qu Question
		if err := rows.Scan(&qu.ID, &qu.QuestionnaireID, &qu.Text, &qu.Category, &qu.Order, &qu.Weight); err != nil {
			return Questionnaire{}, err
		}
		q.Questions = append(q.Questions, qu)
	}
	return q, rows.Err()
}

func (s *SQLStore) ListQuestionnaires(ctx context.Context, status string) ([]Questionnaire, error) {
	q := `SELECT id,title,description,status,version,created_by,created_at,updated_at
	      FROM questionnaires ORDER BY created_at DESC`
	args := []any{}
	if status != "" {
		q = `SELECT id,title,description,status,version,created_by,created_at,updated_at
		     FROM questionnaires WHERE status=$1 ORDER BY created_at DESC`
		args = append(args, status)
	}
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Questionnaire{}
	for rows.Next() {
		var qn Questionnaire
		if err := rows.Scan(&qn.ID, &qn.Title, &qn.Description, &qn.Status, &qn.Version, &qn.CreatedBy, &qn.CreatedAt, &qn.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, qn)
	}
	return out, rows.Err()
}

func (s *SQLStore) UpdateQuestionnaire(ctx context.Context, q Questionnaire) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE questionnaires SET title=$1, description=$2, status=$3, version=$4, updated_at=$5 WHERE id=$6`,
		q.Title, q.Description, q.Status, q.Version, time.Now().Unix(), q.ID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (s *SQLStore) ReplaceQuestions(ctx context.Context, questionnaireID string, qs []Question) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if _, err := tx.ExecContext(ctx, `DELETE FROM questions WHERE questionnaire_id=$1`, questionnaireID); err != nil {
		return err
	}
	if err := insertQuestions(ctx, tx, questionnaireID, qs); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE questionnaires SET version=version+1, updated_at=$1 WHERE id=$2`,
		time.Now().Unix(), questionnaireID); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *SQLStore) HasEvaluations(ctx context.Context, questionnaireID string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM evaluations WHERE questionnaire_id=$1 LIMIT 1`, questionnaireID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

// ---- development actions ----

func (s *SQLStore) CreateAction(ctx context.Context, a pdi.Action) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO dev_actions (id,title,description,category,min_tier,max_tier,duration_days,created_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		a.ID, a.Title, a.Description, a.Category, string(a.MinTier), string(a.MaxTier), a.DurationDays, time.Now().Unix())
	return err
}

func (s *SQLStore) UpdateAction(ctx context.Context, a pdi.Action) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE dev_actions SET title=$1, description=$2, category=$3, min_tier=$4, max_tier=$5, duration_days=$6
		 WHERE id=$7`,
		a.Title, a.Description, a.Category, string(a.MinTier), string(a.MaxTier), a.DurationDays, a.ID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (s *SQLStore) DeleteAction(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM dev_actions WHERE id=$1`, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (s *SQLStore) ListActions(ctx context.Context) ([]pdi.Action, error) {
	return s.queryActions(ctx,
		`SELECT id,title,description,category,min_tier,max_tier,duration_days,created_at
		 FROM dev_actions ORDER BY category, min_tier, created_at`)
}

func (s *SQLStore) ListActionsForTier(ctx context.Context, tier scoring.Tier) ([]pdi.Action, error) {
	return s.queryActions(ctx,
		`SELECT id,title,description,category,min_tier,max_tier,duration_days,created_at
		 FROM dev_actions WHERE min_tier=$1 ORDER BY category, min_tier, created_at`, string(tier))
}

func (s *SQLStore) queryActions(ctx context.Context, q string, args ...any) ([]pdi.Action, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []pdi.Action{}
	for rows.Next() {
		var a pdi.Action
		var minT, maxT string
		if err := rows.Scan(&a.ID, &a.Title, &a.Description, &a.Category, &minT, &maxT, &a.DurationDays, &a.CreatedAt); err != nil {
			return nil, err
		}
		a.MinTier, a.MaxTier = scoring.Tier(minT), scoring.Tier(maxT)
		out = append(out, a)
	}
	return out, rows.Err()
}

// ---- evaluations ----

func (s *SQLStore) InsertEvaluation(ctx context.Context, e Evaluation) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO evaluations (id,evaluator_id,evaluated_id,questionnaire_id,score,tier,note,created_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		e.ID, e.EvaluatorID, e.EvaluatedID, e.QuestionnaireID, e.Score, string(e.Tier), e.Note, e.CreatedAt)
	return err
}

func (s *SQLStore) InsertResponses(ctx context.Context, rs []Response) error {
	if len(rs) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	for _, r := range rs {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO responses (id,evaluation_id,question_id,value) VALUES ($1,$2,$3,$4)`,
			r.ID, r.EvaluationID, r.QuestionID, r.Value); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *SQLStore) GetEvaluation(ctx context.Context, id string) (Evaluation, error) {
	var e Evaluation
	var tier string
	err := s.db.QueryRowContext(ctx,
		`SELECT id,evaluator_id,evaluated_id,questionnaire_id,score,tier,note,created_at
		 FROM evaluations WHERE id=$1`, id).
		Scan(&e.ID, &e.EvaluatorID, &e.EvaluatedID, &e.QuestionnaireID, &e.Score, &tier, &e.Note, &e.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Evaluation{}, ErrNotFound
	}
	e.Tier = scoring.Tier(tier)
	return e, err
}

func (s *SQLStore) ListEvaluations(ctx context.Context, opts EvalListOpts) ([]Evaluation, error) {
	limit, offset := pageBounds(opts.Limit, opts.Offset)
	q := `SELECT e.id,e.evaluator_id,e.evaluated_id,e.questionnaire_id,e.score,e.tier,e.note,e.created_at
	      FROM evaluations e`
	var where []string
	var args []any
	switch opts.ViewerRole {
	case RoleAdmin:
		// no scoping
	case RoleManager:
		q += ` JOIN profiles p ON p.id = e.evaluated_id`
		args = append(args, opts.ViewerID)
		where = append(where, fmt.Sprintf(`(p.manager_id=$%d OR e.evaluator_id=$%d)`, len(args), len(args)))
	default:
		args = append(args, opts.ViewerID)
		where = append(where, fmt.Sprintf(`e.evaluated_id=$%d`, len(args)))
	}
	if opts.EvaluatedID != "" {
		args = append(args, opts.EvaluatedID)
		where = append(where, fmt.Sprintf(`e.evaluated_id=$%d`, len(args)))
	}
	for i, w := range where {
		if i == 0 {
			q += ` WHERE ` + w
		} else {
			q += ` AND ` + w
		}
	}
	args = append(args, limit, offset)
	q += fmt.Sprintf(` ORDER BY e.created_at DESC LIMIT $%d OFFSET $%d`, len(args)-1, len(args))

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Evaluation{}
	for rows.Next() {
		var e Evaluation
		var tier string
		if err := rows.Scan(&e.ID, &e.EvaluatorID, &e.EvaluatedID, &e.QuestionnaireID, &e.Score, &tier, &e.Note, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.Tier = scoring.Tier(tier)
		out = append(out, e)
	}
	return out, rows.Err()
}

// ---- plans ----

func (s *SQLStore) InsertPlan(ctx context.Context, p pdi.Plan) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO plans (id,evaluation_id,person_id,body_html,created_at)
		 VALUES ($1,$2,$3,$4,$5)`,
		p.ID, p.EvaluationID, p.PersonID, p.BodyHTML, p.CreatedAt)
	return err
}

func (s *SQLStore) GetPlan(ctx context.Context, id string) (pdi.Plan, error) {
	var p pdi.Plan
	err := s.db.QueryRowContext(ctx,
		`SELECT id,evaluation_id,person_id,body_html,created_at FROM plans WHERE id=$1`, id).
		Scan(&p.ID, &p.EvaluationID, &p.PersonID, &p.BodyHTML, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return pdi.Plan{}, ErrNotFound
	}
	return p, err
}

func (s *SQLStore) ListPlans(ctx context.Context, opts PlanListOpts) ([]PlanSummary, error) {
	limit, offset := pageBounds(opts.Limit, opts.Offset)
	q := `SELECT pl.id, pl.evaluation_id, pl.person_id, pl.created_at,
	             pr.name, pr.email, e.score, e.tier
	      FROM plans pl
	      JOIN profiles pr ON pr.id = pl.person_id
	      JOIN evaluations e ON e.id = pl.evaluation_id`
	var where []string
	var args []any
	switch opts.ViewerRole {
	case RoleAdmin:
	case RoleManager:
		args = append(args, opts.ViewerID)
		where = append(where, fmt.Sprintf(`(pr.manager_id=$%d OR e.evaluator_id=$%d)`, len(args), len(args)))
	default:
		args = append(args, opts.ViewerID)
		where = append(where, fmt.Sprintf(`pl.person_id=$%d`, len(args)))
	}
	if opts.PersonID != "" {
		args = append(args, opts.PersonID)
		where = append(where, fmt.Sprintf(`pl.person_id=$%d`, len(args)))
	}
	for i, w := range where {
		if i == 0 {
			q += ` WHERE ` + w
		} else {
			q += ` AND ` + w
		}
	}
	args = append(args, limit, offset)
	q += fmt.Sprintf(` ORDER BY pl.created_at DESC LIMIT $%d OFFSET $%d`, len(args)-1, len(args))

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []PlanSummary{}
	for rows.Next() {
		var ps PlanSummary
		var tier string
		if err := rows.Scan(&ps.Plan.ID, &ps.Plan.EvaluationID, &ps.Plan.PersonID, &ps.Plan.CreatedAt,
			&ps.PersonName, &ps.PersonEmail, &ps.Score, &tier); err != nil {
			return nil, err
		}
		ps.Tier = scoring.Tier(tier)
		out = append(out, ps)
	}
	return out, rows.Err()
}

func pageBounds(limit, offset int) (int, int) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
