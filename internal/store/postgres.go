package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/MikeSquared-Agency/Democracy/internal/registry"
)

type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

const schema = `
CREATE TABLE IF NOT EXISTS ensemble_models (
	name        TEXT PRIMARY KEY,
	active      BOOLEAN NOT NULL DEFAULT FALSE,
	parents     TEXT[] NOT NULL DEFAULT '{}',
	predecessor TEXT,
	variants    TEXT[] NOT NULL DEFAULT '{}',
	institute   TEXT NOT NULL DEFAULT '',
	country     TEXT NOT NULL DEFAULT '',
	family      TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS weight_runs (
	run_id      UUID PRIMARY KEY,
	scheme      TEXT NOT NULL,
	subset      TEXT[] NOT NULL DEFAULT '{}',
	entries     JSONB NOT NULL,
	unresolved  TEXT[] NOT NULL DEFAULT '{}',
	model_count INTEGER NOT NULL DEFAULT 0,
	duration_ms DOUBLE PRECISION NOT NULL DEFAULT 0,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS weight_runs_scheme_created_idx ON weight_runs (scheme, created_at DESC);
`

// Migrate creates the tables the store needs.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

const modelColumns = `name, active, parents, predecessor, variants, institute, country, family`

func (s *PostgresStore) ListModels(ctx context.Context) ([]registry.ModelRecord, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+modelColumns+` FROM ensemble_models ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var models []registry.ModelRecord
	for rows.Next() {
		var m registry.ModelRecord
		var predecessor sql.NullString
		if err := rows.Scan(&m.Name, &m.Active, &m.Parents, &predecessor, &m.Variants,
			&m.Institute, &m.Country, &m.Family); err != nil {
			return nil, err
		}
		if predecessor.Valid {
			m.Predecessor = predecessor.String
		}
		models = append(models, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	registry.DeriveActive(models)
	return models, nil
}

// ReplaceModels swaps the whole registry in one transaction.
func (s *PostgresStore) ReplaceModels(ctx context.Context, models []registry.ModelRecord) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `DELETE FROM ensemble_models`); err != nil {
		return fmt.Errorf("clear models: %w", err)
	}

	rows := make([][]any, 0, len(models))
	for _, m := range models {
		var predecessor any
		if m.Predecessor != "" {
			predecessor = m.Predecessor
		}
		rows = append(rows, []any{
			m.Name, m.Active, nonNil(m.Parents), predecessor, nonNil(m.Variants),
			m.Institute, m.Country, m.Family,
		})
	}
	_, err = tx.CopyFrom(ctx,
		pgx.Identifier{"ensemble_models"},
		[]string{"name", "active", "parents", "predecessor", "variants", "institute", "country", "family"},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return fmt.Errorf("copy models: %w", err)
	}
	return tx.Commit(ctx)
}

const runColumns = `run_id, scheme, subset, entries, unresolved, model_count, duration_ms, created_at`

func (s *PostgresStore) CreateRun(ctx context.Context, run *WeightRun) error {
	if run.ID == uuid.Nil {
		run.ID = uuid.New()
	}
	entriesJSON, err := json.Marshal(run.Entries)
	if err != nil {
		return fmt.Errorf("marshal entries: %w", err)
	}
	return s.pool.QueryRow(ctx, `
		INSERT INTO weight_runs (run_id, scheme, subset, entries, unresolved, model_count, duration_ms)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at`,
		run.ID, run.Scheme, nonNil(run.Subset), entriesJSON, nonNil(run.Unresolved), run.ModelCount, run.DurationMs,
	).Scan(&run.CreatedAt)
}

func (s *PostgresStore) GetRun(ctx context.Context, id uuid.UUID) (*WeightRun, error) {
	run, err := scanRun(s.pool.QueryRow(ctx, `SELECT `+runColumns+` FROM weight_runs WHERE run_id = $1`, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return run, nil
}

func (s *PostgresStore) ListRuns(ctx context.Context, filter RunFilter) ([]*WeightRun, error) {
	query := `SELECT ` + runColumns + ` FROM weight_runs WHERE 1=1`
	args := []any{}
	n := 0

	if filter.Scheme != "" {
		n++
		query += fmt.Sprintf(" AND scheme = $%d", n)
		args = append(args, filter.Scheme)
	}
	query += " ORDER BY created_at DESC"
	if filter.Limit > 0 {
		n++
		query += fmt.Sprintf(" LIMIT $%d", n)
		args = append(args, filter.Limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []*WeightRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

func scanRun(row pgx.Row) (*WeightRun, error) {
	r := &WeightRun{}
	var entriesJSON []byte
	if err := row.Scan(&r.ID, &r.Scheme, &r.Subset, &entriesJSON, &r.Unresolved,
		&r.ModelCount, &r.DurationMs, &r.CreatedAt); err != nil {
		return nil, err
	}
	if entriesJSON != nil {
		if err := json.Unmarshal(entriesJSON, &r.Entries); err != nil {
			return nil, fmt.Errorf("decode entries: %w", err)
		}
	}
	return r, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
