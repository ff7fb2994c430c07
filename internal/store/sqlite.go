package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/lastmile-ops/depot-cli/internal/identity"
	"github.com/lastmile-ops/depot-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS aliases (
	source     TEXT PRIMARY KEY,
	target     TEXT NOT NULL,
	updated_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS history (
	id         TEXT PRIMARY KEY,
	date       TEXT NOT NULL UNIQUE,
	agents     TEXT NOT NULL,
	narrative  TEXT,
	created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_history_date ON history(date);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) FetchAliases(ctx context.Context) (identity.AliasTable, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT source, target FROM aliases`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: fetch aliases")
	}
	defer rows.Close()

	table := make(identity.AliasTable)
	for rows.Next() {
		var source, target string
		if err := rows.Scan(&source, &target); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan alias")
		}
		table[source] = target
	}
	return table, eris.Wrap(rows.Err(), "sqlite: fetch aliases iterate")
}

func (s *SQLiteStore) SaveAliases(ctx context.Context, table identity.AliasTable) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin save aliases")
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM aliases`); err != nil {
		return eris.Wrap(err, "sqlite: clear aliases")
	}
	now := time.Now().UTC()
	for source, target := range table {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO aliases (source, target, updated_at) VALUES (?, ?, ?)`,
			source, target, now,
		); err != nil {
			return eris.Wrapf(err, "sqlite: insert alias %s", source)
		}
	}
	return eris.Wrap(tx.Commit(), "sqlite: commit aliases")
}

func (s *SQLiteStore) FetchHistory(ctx context.Context) ([]model.HistoricalRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, date, agents, narrative, created_at FROM history ORDER BY date DESC`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: fetch history")
	}
	defer rows.Close()

	var records []model.HistoricalRecord
	for rows.Next() {
		rec, err := scanHistory(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	return records, eris.Wrap(rows.Err(), "sqlite: fetch history iterate")
}

func (s *SQLiteStore) GetRecord(ctx context.Context, date string) (*model.HistoricalRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, date, agents, narrative, created_at FROM history WHERE date = ?`,
		date,
	)
	rec, err := scanHistory(row)
	if eris.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return rec, err
}

func (s *SQLiteStore) SaveRecord(ctx context.Context, rec *model.HistoricalRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	agentsJSON, err := json.Marshal(rec.Agents)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal agents")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO history (id, date, agents, narrative, created_at) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(date) DO UPDATE SET agents = excluded.agents, narrative = excluded.narrative`,
		rec.ID, rec.Date, string(agentsJSON), rec.Narrative, rec.CreatedAt,
	)
	return eris.Wrapf(err, "sqlite: save record %s", rec.Date)
}

// BatchUpdateAgentName has no cross-date transaction: each date commits
// independently, and a failure part-way returns the dates already done.
func (s *SQLiteStore) BatchUpdateAgentName(ctx context.Context, dates []string, oldName, newName string) ([]string, error) {
	var updated []string
	for _, date := range dates {
		rec, err := s.GetRecord(ctx, date)
		if err != nil {
			return updated, eris.Wrapf(err, "sqlite: rename on %s", date)
		}
		if rec == nil || !rec.RenameAgent(oldName, newName) {
			continue
		}
		agentsJSON, err := json.Marshal(rec.Agents)
		if err != nil {
			return updated, eris.Wrapf(err, "sqlite: marshal agents on %s", date)
		}
		if _, err := s.db.ExecContext(ctx,
			`UPDATE history SET agents = ? WHERE date = ?`,
			string(agentsJSON), date,
		); err != nil {
			return updated, eris.Wrapf(err, "sqlite: update agents on %s", date)
		}
		updated = append(updated, date)
	}
	return updated, nil
}

func (s *SQLiteStore) DeleteAgentGlobally(ctx context.Context, name string) error {
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
			return eris.Wrapf(err, "sqlite: marshal agents on %s", rec.Date)
		}
		if _, err := s.db.ExecContext(ctx,
			`UPDATE history SET agents = ? WHERE date = ?`,
			string(agentsJSON), rec.Date,
		); err != nil {
			return eris.Wrapf(err, "sqlite: delete agent on %s", rec.Date)
		}
	}
	return nil
}

func (s *SQLiteStore) DeleteOldRecords(ctx context.Context, cutoff string) (int, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM history WHERE date < ?`, cutoff)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: delete old records")
	}
	n, err := res.RowsAffected()
	return int(n), eris.Wrap(err, "sqlite: rows affected")
}

// helpers

type scannable interface {
	Scan(dest ...any) error
}

func scanHistory(row scannable) (*model.HistoricalRecord, error) {
	var rec model.HistoricalRecord
	var agentsJSON string
	var narrative sql.NullString

	err := row.Scan(&rec.ID, &rec.Date, &agentsJSON, &narrative, &rec.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, eris.Wrap(err, "history record not found")
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan history")
	}

	if err := json.Unmarshal([]byte(agentsJSON), &rec.Agents); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal agents")
	}
	rec.Narrative = narrative.String
	return &rec, nil
}
