package db

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib" // driver: pgx
	_ "modernc.org/sqlite"             // driver: sqlite
)

type Driver string

const (
	DriverSQLite   Driver = "sqlite"
	DriverPostgres Driver = "postgres"
)

// Open opens a DB and ensures schema exists.
func Open(ctx context.Context, driver Driver, dsn string) (*sql.DB, error) {
	var drvName string
	switch driver {
	case DriverSQLite:
		drvName = "sqlite" // modernc driver
		if dsn == "" {
			dsn = "file:evaltrack.db?cache=shared&mode=rwc&_pragma=busy_timeout(5000)"
		}
	case DriverPostgres:
		drvName = "pgx" // pgx stdlib driver
		if dsn == "" {
			dsn = "postgres://localhost:5432/evaltrack?sslmode=disable"
		}
	default:
		return nil, fmt.Errorf("unsupported driver: %s", driver)
	}

	db, err := sql.Open(drvName, dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}

	if err := ensureSchema(ctx, db, driver); err != nil {
		return nil, err
	}
	return db, nil
}

func ensureSchema(ctx context.Context, db *sql.DB, driver Driver) error {
	var schema string
	switch driver {
	case DriverSQLite:
		schema = schemaSQLite
	case DriverPostgres:
		schema = schemaPostgres
	}
	_, err := db.ExecContext(ctx, schema)
	return err
}

const schemaSQLite = `
PRAGMA foreign_keys=ON;

CREATE TABLE IF NOT EXISTS profiles (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  email TEXT NOT NULL UNIQUE,
  role TEXT NOT NULL,
  manager_id TEXT NOT NULL DEFAULT '',
  password_hash TEXT NOT NULL DEFAULT '',
  created_at INTEGER NOT NULL,
  updated_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS questionnaires (
  id TEXT PRIMARY KEY,
  title TEXT NOT NULL,
  description TEXT NOT NULL DEFAULT '',
  status TEXT NOT NULL DEFAULT 'draft',
  version INTEGER NOT NULL DEFAULT 1,
  created_by TEXT NOT NULL DEFAULT '',
  created_at INTEGER NOT NULL,
  updated_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS questions (
  id TEXT PRIMARY KEY,
  questionnaire_id TEXT NOT NULL REFERENCES questionnaires(id) ON DELETE CASCADE,
  text TEXT NOT NULL,
  category TEXT NOT NULL,
  ord INTEGER NOT NULL,
  weight REAL NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_questions_questionnaire ON questions(questionnaire_id);

CREATE TABLE IF NOT EXISTS evaluations (
  id TEXT PRIMARY KEY,
  evaluator_id TEXT NOT NULL REFERENCES profiles(id),
  evaluated_id TEXT NOT NULL REFERENCES profiles(id),
  questionnaire_id TEXT NOT NULL REFERENCES questionnaires(id),
  score REAL NOT NULL,
  tier TEXT NOT NULL,
  note TEXT NOT NULL DEFAULT '',
  created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_evaluations_evaluated ON evaluations(evaluated_id);

CREATE TABLE IF NOT EXISTS responses (
  id TEXT PRIMARY KEY,
  evaluation_id TEXT NOT NULL REFERENCES evaluations(id) ON DELETE CASCADE,
  question_id TEXT NOT NULL REFERENCES questions(id),
  value INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_responses_evaluation ON responses(evaluation_id);

CREATE TABLE IF NOT EXISTS dev_actions (
  id TEXT PRIMARY KEY,
  title TEXT NOT NULL,
  description TEXT NOT NULL,
  category TEXT NOT NULL,
  min_tier TEXT NOT NULL,
  max_tier TEXT NOT NULL,
  duration_days INTEGER NOT NULL DEFAULT 0,
  created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_dev_actions_min_tier ON dev_actions(min_tier);

CREATE TABLE IF NOT EXISTS plans (
  id TEXT PRIMARY KEY,
  evaluation_id TEXT NOT NULL UNIQUE REFERENCES evaluations(id),
  person_id TEXT NOT NULL REFERENCES profiles(id),
  body_html TEXT NOT NULL,
  created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_plans_person ON plans(person_id);

CREATE TABLE IF NOT EXISTS events (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  typ TEXT NOT NULL,
  subject_id TEXT NOT NULL,
  actor_id TEXT NOT NULL DEFAULT '',
  data TEXT NOT NULL DEFAULT '{}',
  created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_events_subject ON events(subject_id);
`

const schemaPostgres = `
CREATE TABLE IF NOT EXISTS profiles (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  email TEXT NOT NULL UNIQUE,
  role TEXT NOT NULL,
  manager_id TEXT NOT NULL DEFAULT '',
  password_hash TEXT NOT NULL DEFAULT '',
  created_at BIGINT NOT NULL,
  updated_at BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS questionnaires (
  id TEXT PRIMARY KEY,
  title TEXT NOT NULL,
  description TEXT NOT NULL DEFAULT '',
  status TEXT NOT NULL DEFAULT 'draft',
  version INTEGER NOT NULL DEFAULT 1,
  created_by TEXT NOT NULL DEFAULT '',
  created_at BIGINT NOT NULL,
  updated_at BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS questions (
  id TEXT PRIMARY KEY,
  questionnaire_id TEXT NOT NULL REFERENCES questionnaires(id) ON DELETE CASCADE,
  text TEXT NOT NULL,
  category TEXT NOT NULL,
  ord INTEGER NOT NULL,
  weight DOUBLE PRECISION NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_questions_questionnaire ON questions(questionnaire_id);

CREATE TABLE IF NOT EXISTS evaluations (
  id TEXT PRIMARY KEY,
  evaluator_id TEXT NOT NULL REFERENCES profiles(id),
  evaluated_id TEXT NOT NULL REFERENCES profiles(id),
  questionnaire_id TEXT NOT NULL REFERENCES questionnaires(id),
  score DOUBLE PRECISION NOT NULL,
  tier TEXT NOT NULL,
  note TEXT NOT NULL DEFAULT '',
  created_at BIGINT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_evaluations_evaluated ON evaluations(evaluated_id);

CREATE TABLE IF NOT EXISTS responses (
  id TEXT PRIMARY KEY,
  evaluation_id TEXT NOT NULL REFERENCES evaluations(id) ON DELETE CASCADE,
  question_id TEXT NOT NULL REFERENCES questions(id),
  value INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_responses_evaluation ON responses(evaluation_id);

CREATE TABLE IF NOT EXISTS dev_actions (
  id TEXT PRIMARY KEY,
  title TEXT NOT NULL,
  description TEXT NOT NULL,
  category TEXT NOT NULL,
  min_tier TEXT NOT NULL,
  max_tier TEXT NOT NULL,
  duration_days INTEGER NOT NULL DEFAULT 0,
  created_at BIGINT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_dev_actions_min_tier ON dev_actions(min_tier);

CREATE TABLE IF NOT EXISTS plans (
  id TEXT PRIMARY KEY,
  evaluation_id TEXT NOT NULL UNIQUE REFERENCES evaluations(id),
  person_id TEXT NOT NULL REFERENCES profiles(id),
  body_html TEXT NOT NULL,
  created_at BIGINT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_plans_person ON plans(person_id);

CREATE TABLE IF NOT EXISTS events (
  id BIGSERIAL PRIMARY KEY,
  typ TEXT NOT NULL,
  subject_id TEXT NOT NULL,
  actor_id TEXT NOT NULL DEFAULT '',
  data TEXT NOT NULL DEFAULT '{}',
  created_at BIGINT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_events_subject ON events(subject_id);
`
