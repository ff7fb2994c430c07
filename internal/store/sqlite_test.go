package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lastmile-ops/depot-cli/internal/identity"
	"github.com/lastmile-ops/depot-cli/internal/model"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(":memory:")
	require.NoError(t, err)
	require.NoError(t, s.Migrate(context.Background()))
	t.Cleanup(func() { s.Close() })
	return s
}

func day(date string, agents ...model.AgentEntry) *model.HistoricalRecord {
	return &model.HistoricalRecord{Date: date, Agents: agents}
}

func TestSQLite_AliasRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	table, err := s.FetchAliases(ctx)
	require.NoError(t, err)
	assert.Empty(t, table)

	require.NoError(t, s.SaveAliases(ctx, identity.AliasTable{"JOHN": "JOHN SMITH"}))

	table, err = s.FetchAliases(ctx)
	require.NoError(t, err)
	assert.Equal(t, identity.AliasTable{"JOHN": "JOHN SMITH"}, table)
}

func TestSQLite_SaveAliasesReplacesWholeTable(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveAliases(ctx, identity.AliasTable{"A": "B", "C": "D"}))
	require.NoError(t, s.SaveAliases(ctx, identity.AliasTable{"A": "Z"}))

	table, err := s.FetchAliases(ctx)
	require.NoError(t, err)
	assert.Equal(t, identity.AliasTable{"A": "Z"}, table)
}

func TestSQLite_SaveRecordUpsertsByDate(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveRecord(ctx, day("2024-01-01", model.AgentEntry{Name: "ALI", Delivered: 5, Total: 6})))
	require.NoError(t, s.SaveRecord(ctx, day("2024-01-01", model.AgentEntry{Name: "ALI", Delivered: 7, Total: 8})))

	rec, err := s.GetRecord(ctx, "2024-01-01")
	require.NoError(t, err)
	require.NotNil(t, rec)
	require.Len(t, rec.Agents, 1)
	assert.Equal(t, 7, rec.Agents[0].Delivered)
}

func TestSQLite_GetRecordMissing(t *testing.T) {
	s := newTestStore(t)
	rec, err := s.GetRecord(context.Background(), "1999-01-01")
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestSQLite_FetchHistoryOrderedByDateDesc(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.SaveRecord(ctx, day("2024-01-01")))
	require.NoError(t, s.SaveRecord(ctx, day("2024-01-03")))
	require.NoError(t, s.SaveRecord(ctx, day("2024-01-02")))

	records, err := s.FetchHistory(ctx)
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "2024-01-03", records[0].Date)
	assert.Equal(t, "2024-01-01", records[2].Date)
}

func TestSQLite_BatchUpdateAgentName(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.SaveRecord(ctx, day("2024-01-01", model.AgentEntry{Name: "JOHN", Delivered: 1, Total: 1})))
	require.NoError(t, s.SaveRecord(ctx, day("2024-01-02", model.AgentEntry{Name: "JOHN", Delivered: 2, Total: 2})))
	require.NoError(t, s.SaveRecord(ctx, day("2024-01-03", model.AgentEntry{Name: "OTHER", Delivered: 3, Total: 3})))

	updated, err := s.BatchUpdateAgentName(ctx, []string{"2024-01-01", "2024-01-02", "2024-01-03", "2024-01-09"}, "JOHN", "JOHN SMITH")
	require.NoError(t, err)
	// Only the dates actually carrying JOHN are reported as rewritten.
	assert.Equal(t, []string{"2024-01-01", "2024-01-02"}, updated)

	rec, err := s.GetRecord(ctx, "2024-01-01")
	require.NoError(t, err)
	assert.Equal(t, "JOHN SMITH", rec.Agents[0].Name)

	rec, err = s.GetRecord(ctx, "2024-01-03")
	require.NoError(t, err)
	assert.Equal(t, "OTHER", rec.Agents[0].Name)
}

func TestSQLite_DeleteAgentGlobally(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.SaveRecord(ctx, day("2024-01-01",
		model.AgentEntry{Name: "GONE", Total: 1},
		model.AgentEntry{Name: "KEPT", Total: 2},
	)))
	require.NoError(t, s.SaveRecord(ctx, day("2024-01-02", model.AgentEntry{Name: "GONE", Total: 3})))

	require.NoError(t, s.DeleteAgentGlobally(ctx, "GONE"))

	rec, err := s.GetRecord(ctx, "2024-01-01")
	require.NoError(t, err)
	require.Len(t, rec.Agents, 1)
	assert.Equal(t, "KEPT", rec.Agents[0].Name)

	rec, err = s.GetRecord(ctx, "2024-01-02")
	require.NoError(t, err)
	assert.Empty(t, rec.Agents)
}

func TestSQLite_DeleteOldRecords(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.SaveRecord(ctx, day("2024-01-01")))
	require.NoError(t, s.SaveRecord(ctx, day("2024-02-01")))
	require.NoError(t, s.SaveRecord(ctx, day("2024-03-01")))

	n, err := s.DeleteOldRecords(ctx, "2024-02-01")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	records, err := s.FetchHistory(ctx)
	require.NoError(t, err)
	assert.Len(t, records, 2)
}
