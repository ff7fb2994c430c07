package store

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lastmile-ops/depot-cli/internal/identity"
)

// newMockPostgresStore creates a PostgresStore backed by pgxmock for unit testing.
func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	s := &PostgresStore{pool: mock}
	return s, mock
}

func TestPostgresStore_FetchAliases(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT source, target FROM aliases`).
		WillReturnRows(pgxmock.NewRows([]string{"source", "target"}).
			AddRow("JOHN", "JOHN SMITH").
			AddRow("A", "B"))

	table, err := s.FetchAliases(context.Background())
	require.NoError(t, err)
	assert.Equal(t, identity.AliasTable{"JOHN": "JOHN SMITH", "A": "B"}, table)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SaveAliases_WholeTableReplace(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM aliases`).
		WillReturnResult(pgxmock.NewResult("DELETE", 2))
	mock.ExpectExec(`INSERT INTO aliases`).
		WithArgs("JOHN", "JOHN SMITH", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	err := s.SaveAliases(context.Background(), identity.AliasTable{"JOHN": "JOHN SMITH"})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetRecord_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT id, date, agents, narrative, created_at FROM history WHERE date = \$1`).
		WithArgs("2024-01-01").
		WillReturnError(pgx.ErrNoRows)

	rec, err := s.GetRecord(context.Background(), "2024-01-01")
	require.NoError(t, err)
	assert.Nil(t, rec)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_BatchUpdateAgentName_PartialOnError(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	now := time.Now().UTC()
	agents := []byte(`[{"name":"JOHN","delivered":1,"total":1,"success_rate":100}]`)

	historyCols := []string{"id", "date", "agents", "narrative", "created_at"}

	// First date succeeds.
	mock.ExpectQuery(`SELECT id, date, agents, narrative, created_at FROM history WHERE date = \$1`).
		WithArgs("2024-01-01").
		WillReturnRows(pgxmock.NewRows(historyCols).AddRow("id1", "2024-01-01", agents, (*string)(nil), now))
	mock.ExpectExec(`UPDATE history SET agents = \$1 WHERE date = \$2`).
		WithArgs(pgxmock.AnyArg(), "2024-01-01").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	// Second date fails mid-batch.
	mock.ExpectQuery(`SELECT id, date, agents, narrative, created_at FROM history WHERE date = \$1`).
		WithArgs("2024-01-02").
		WillReturnError(assert.AnError)

	updated, err := s.BatchUpdateAgentName(context.Background(),
		[]string{"2024-01-01", "2024-01-02"}, "JOHN", "JOHN SMITH")
	require.Error(t, err)
	assert.Equal(t, []string{"2024-01-01"}, updated)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_DeleteOldRecords(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`DELETE FROM history WHERE date < \$1`).
		WithArgs("2024-06-01").
		WillReturnResult(pgxmock.NewResult("DELETE", 3))

	n, err := s.DeleteOldRecords(context.Background(), "2024-06-01")
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}
