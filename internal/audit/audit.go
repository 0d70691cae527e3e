// Package audit appends submission lifecycle events to the events
// table. Write failures are the caller's problem to log; the trail is
// best-effort and never blocks the pipeline that produced the event.
package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"
)

const (
	EventEvaluationSubmitted = "evaluation.submitted"
	EventPlanGenerated       = "plan.generated"
	EventPlanFailed          = "plan.failed"
)

type Event struct {
	ID        int64
	Type      string
	Subject   string // id of the evaluation/plan the event is about
	Actor     string // profile id that triggered it
	DataJSON  string
	CreatedAt int64
}

type Recorder struct{ db *sql.DB }

func NewRecorder(db *sql.DB) *Recorder { return &Recorder{db: db} }

func (r *Recorder) Record(ctx context.Context, typ, subject, actor string, data map[string]any) error {
	payload := "{}"
	if len(data) > 0 {
		b, err := json.Marshal(data)
		if err != nil {
			return err
		}
		payload = string(b)
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO events (typ, subject_id, actor_id, data, created_at)
		 VALUES ($1,$2,$3,$4,$5)`,
		typ, subject, actor, payload, time.Now().Unix())
	return err
}

func (r *Recorder) List(ctx context.Context, subject string, limit int) ([]Event, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, typ, subject_id, actor_id, data, created_at
		 FROM events WHERE subject_id=$1 ORDER BY created_at DESC LIMIT $2`,
		subject, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Event
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.ID, &e.Type, &e.Subject, &e.Actor, &e.DataJSON, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
