package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/lastmile-ops/depot-cli/internal/identity"
	"github.com/lastmile-ops/depot-cli/internal/model"
)

// Pool is the subset of pgxpool.Pool the store uses; pgxmock satisfies it
// in tests.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    Pool
	closeFn func()
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	pgxCfg.MaxConns = 10
	pgxCfg.MinConns = 2
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS aliases (
	source     TEXT PRIMARY KEY,
	target     TEXT NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS history (
	id         TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	date       TEXT NOT NULL UNIQUE,
	agents     JSONB NOT NULL,
	narrative  TEXT,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_history_date ON history(date);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) FetchAliases(ctx context.Context) (identity.AliasTable, error) {
	rows, err := s.pool.Query(ctx, `SELECT source, target FROM aliases`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: fetch aliases")
	}
	defer rows.Close()

	table := make(identity.AliasTable)
	for rows.Next() {
		var source, target string
		if err := rows.Scan(&source, &target); err != nil {
			return nil, eris.Wrap(err, "postgres: scan alias")
		}
		table[source] = target
	}
	return table, eris.Wrap(rows.Err(), "postgres: fetch aliases iterate")
}

func (s *PostgresStore) SaveAliases(ctx context.Context, table identity.AliasTable) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "postgres: begin save aliases")
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM aliases`); err != nil {
		return eris.Wrap(err, "postgres: clear aliases")
	}
	now := time.Now().UTC()
	for source, target := range table {
		if _, err := tx.Exec(ctx,
			`INSERT INTO aliases (source, target, updated_at) VALUES ($1, $2, $3)`,
			source, target, now,
		); err != nil {
			return eris.Wrapf(err, "postgres: insert alias %s", source)
		}
	}
	return eris.Wrap(tx.Commit(ctx), "postgres: commit aliases")
}

func (s *PostgresStore) FetchHistory(ctx context.Context) ([]model.HistoricalRecord, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, date, agents, narrative, created_at FROM history ORDER BY date DESC`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: fetch history")
	}
	defer rows.Close()

	var records []model.HistoricalRecord
	for rows.Next() {
		rec, err := scanPgHistory(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	return records, eris.Wrap(rows.Err(), "postgres: fetch history iterate")
}

func (s *PostgresStore) GetRecord(ctx context.Context, date string) (*model.HistoricalRecord, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, date, agents, narrative, created_at FROM history WHERE date = $1`,
		date,
	)
	rec, err := scanPgHistory(row)
	if eris.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return rec, err
}

func (s *PostgresStore) SaveRecord(ctx context.Context, rec *model.HistoricalRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	agentsJSON, err := json.Marshal(rec.Agents)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal agents")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO history (id, date, agents, narrative, created_at) VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (date) DO UPDATE SET agents = EXCLUDED.agents, narrative = EXCLUDED.narrative`,
		rec.ID, rec.Date, string(agentsJSON), rec.Narrative, rec.CreatedAt,
	)
	return eris.Wrapf(err, "postgres: save record %s", rec.Date)
}

// BatchUpdateAgentName commits each date independently; a failure part-way
// returns the dates already rewritten.
func (s *PostgresStore) BatchUpdateAgentName(ctx context.Context, dates []string, oldName, newName string) ([]string, error) {
	var updated []string
	for _, date := range dates {
		rec, err := s.GetRecord(ctx, date)
		if err != nil {
			return updated, eris.Wrapf(err, "postgres: rename on %s", date)
		}
		if rec == nil || !rec.RenameAgent(oldName, newName) {
			continue
		}
		agentsJSON, err := json.Marshal(rec.Agents)
		if err != nil {
			return updated, eris.Wrapf(err, "postgres: marshal agents on %s", date)
		}
		if _, err := s.pool.Exec(ctx,
			`UPDATE history SET agents = $1 WHERE date = $2`,
			string(agentsJSON), date,
		); err != nil {
			return updated, eris.Wrapf(err, "postgres: update agents on %s", date)
		}
		updated = append(updated, date)
	}
	return updated, nil
}

func (s *PostgresStore) DeleteAgentGlobally(ctx context.Context, name string) error {
	records, err := s.FetchHistory(ctx)
	if err != nil {
		return err
	}
	for i := range records {
		rec := &records[i]
		if !rec.RemoveAgent(name) {
			continue
		}
		agentsJSON, err := json.Marshal(rec.Agents)
		if err != nil {
			return eris.Wrapf(err, "postgres: marshal agents on %s", rec.Date)
		}
		if _, err := s.pool.Exec(ctx,
			`UPDATE history SET agents = $1 WHERE date = $2`,
			string(agentsJSON), rec.Date,
		); err != nil {
			return eris.Wrapf(err, "postgres: delete agent on %s", rec.Date)
		}
	}
	return nil
}

func (s *PostgresStore) DeleteOldRecords(ctx context.Context, cutoff string) (int, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM history WHERE date < $1`, cutoff)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: delete old records")
	}
	return int(tag.RowsAffected()), nil
}

func scanPgHistory(row pgx.Row) (*model.HistoricalRecord, error) {
	var rec model.HistoricalRecord
	var agentsJSON []byte
	var narrative *string

	err := row.Scan(&rec.ID, &rec.Date, &agentsJSON, &narrative, &rec.CreatedAt)
	if err == pgx.ErrNoRows {
		return nil, eris.Wrap(err, "history record not found")
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: scan history")
	}

	if err := json.Unmarshal(agentsJSON, &rec.Agents); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal agents")
	}
	if narrative != nil {
		rec.Narrative = *narrative
	}
	return &rec, nil
}
