package merge

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lastmile-ops/depot-cli/internal/identity"
	"github.com/lastmile-ops/depot-cli/internal/model"
)

// stubStore is an in-memory Store recording merge engine calls.
type stubStore struct {
	aliases identity.AliasTable
	history map[string]*model.HistoricalRecord

	renameCalls  int
	renameErr    error
	renameFailAt string // date at which BatchUpdateAgentName aborts
	saveErr      error
	savedTables  []identity.AliasTable
	deleted      []string
}

func newStubStore() *stubStore {
	return &stubStore{
		aliases: make(identity.AliasTable),
		history: make(map[string]*model.HistoricalRecord),
	}
}

func (s *stubStore) FetchAliases(context.Context) (identity.AliasTable, error) {
	return s.aliases.Clone(), nil
}

func (s *stubStore) SaveAliases(_ context.Context, table identity.AliasTable) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.aliases = table.Clone()
	s.savedTables = append(s.savedTables, table.Clone())
	return nil
}

func (s *stubStore) FetchHistory(context.Context) ([]model.HistoricalRecord, error) {
	var out []model.HistoricalRecord
	for _, rec := range s.history {
		out = append(out, *rec)
	}
	return out, nil
}

func (s *stubStore) GetRecord(_ context.Context, date string) (*model.HistoricalRecord, error) {
	return s.history[date], nil
}

func (s *stubStore) SaveRecord(_ context.Context, rec *model.HistoricalRecord) error {
	s.history[rec.Date] = rec
	return nil
}

func (s *stubStore) BatchUpdateAgentName(_ context.Context, dates []string, oldName, newName string) ([]string, error) {
	s.renameCalls++
	if s.renameErr != nil {
		return nil, s.renameErr
	}
	var updated []string
	for _, date := range dates {
		if date == s.renameFailAt {
			return updated, assert.AnError
		}
		if rec, ok := s.history[date]; ok && rec.RenameAgent(oldName, newName) {
			updated = append(updated, date)
		}
	}
	return updated, nil
}

func (s *stubStore) DeleteAgentGlobally(_ context.Context, name string) error {
	s.deleted = append(s.deleted, name)
	for _, rec := range s.history {
		rec.RemoveAgent(name)
	}
	return nil
}

func (s *stubStore) DeleteOldRecords(context.Context, string) (int, error) { return 0, nil }
func (s *stubStore) Migrate(context.Context) error                        { return nil }
func (s *stubStore) Close() error                                         { return nil }

func dayWith(date, agent string) *model.HistoricalRecord {
	return &model.HistoricalRecord{
		Date:   date,
		Agents: []model.AgentEntry{{Name: agent, Delivered: 1, Total: 1, SuccessRate: 100}},
	}
}

func TestMerge_RewritesHistoryAndPersistsAlias(t *testing.T) {
	st := newStubStore()
	st.history["2024-01-01"] = dayWith("2024-01-01", "JOHN")
	st.history["2024-01-02"] = dayWith("2024-01-02", "JOHN")

	eng := NewEngine(st)
	res, err := eng.Merge(context.Background(), "JOHN", "john smith",
		[]string{"2024-01-01", "2024-01-02"}, true)
	require.NoError(t, err)

	assert.Equal(t, []string{"2024-01-01", "2024-01-02"}, res.UpdatedDates)
	assert.True(t, res.AliasSaved)
	assert.Equal(t, "JOHN SMITH", st.aliases["JOHN"])
	assert.Equal(t, "JOHN SMITH", st.history["2024-01-01"].Agents[0].Name)
	// One batch call per invocation, not one per date.
	assert.Equal(t, 1, st.renameCalls)
	// Reload reflects the merged identity.
	assert.Equal(t, identity.AliasTable{"JOHN": "JOHN SMITH"}, res.Aliases)
	assert.Equal(t, StateIdle, eng.State())
}

func TestMerge_NoOpWhenTargetEqualsSourceAndNoDates(t *testing.T) {
	st := newStubStore()
	eng := NewEngine(st)

	res, err := eng.Merge(context.Background(), "JOHN", " john ", nil, true)
	require.NoError(t, err)
	assert.True(t, res.NoOp)
	assert.Equal(t, 0, st.renameCalls)
	assert.Empty(t, st.savedTables)
}

func TestMerge_SameTargetWithDatesStillReloads(t *testing.T) {
	// Target == source but dates selected: history is not rewritten
	// (target equals source), no alias saved, but the call is not a
	// silent no-op either.
	st := newStubStore()
	st.history["2024-01-01"] = dayWith("2024-01-01", "JOHN")
	eng := NewEngine(st)

	res, err := eng.Merge(context.Background(), "JOHN", "JOHN", []string{"2024-01-01"}, true)
	require.NoError(t, err)
	assert.False(t, res.NoOp)
	assert.Empty(t, res.UpdatedDates)
	assert.False(t, res.AliasSaved)
	assert.Len(t, res.History, 1)
}

func TestMerge_SkipsAliasWhenNotPersisting(t *testing.T) {
	st := newStubStore()
	st.history["2024-01-01"] = dayWith("2024-01-01", "JOHN")
	eng := NewEngine(st)

	res, err := eng.Merge(context.Background(), "JOHN", "JOHN SMITH", []string{"2024-01-01"}, false)
	require.NoError(t, err)
	assert.False(t, res.AliasSaved)
	assert.Empty(t, st.aliases)
	assert.Equal(t, []string{"2024-01-01"}, res.UpdatedDates)
}

func TestMerge_PartialFailureSurfacesUnaffectedDates(t *testing.T) {
	st := newStubStore()
	st.history["2024-01-01"] = dayWith("2024-01-01", "JOHN")
	st.history["2024-01-02"] = dayWith("2024-01-02", "JOHN")
	st.history["2024-01-03"] = dayWith("2024-01-03", "JOHN")
	st.renameFailAt = "2024-01-02"

	eng := NewEngine(st)
	res, err := eng.Merge(context.Background(), "JOHN", "JOHN SMITH",
		[]string{"2024-01-01", "2024-01-02", "2024-01-03"}, true)
	require.Error(t, err)

	var perr *PartialMergeError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, []string{"2024-01-02", "2024-01-03"}, perr.FailedDates)
	assert.Equal(t, []string{"2024-01-01"}, res.UpdatedDates)
	// Alias save never ran after the failed rewrite.
	assert.Empty(t, st.savedTables)
}

func TestMerge_FlattensChainsOnSave(t *testing.T) {
	st := newStubStore()
	st.aliases["JOHN SMITH"] = "J SMITH"

	eng := NewEngine(st)
	_, err := eng.Merge(context.Background(), "JOHN", "JOHN SMITH", nil, true)
	require.NoError(t, err)

	// The new rule points at the final hop, not the intermediate name.
	assert.Equal(t, "J SMITH", st.aliases["JOHN"])
}

func TestDelete_BypassesAliases(t *testing.T) {
	st := newStubStore()
	st.aliases["GHOST"] = "SOMEONE"
	st.history["2024-01-01"] = dayWith("2024-01-01", "GHOST")

	eng := NewEngine(st)
	require.NoError(t, eng.Delete(context.Background(), "ghost"))

	assert.Equal(t, []string{"GHOST"}, st.deleted)
	assert.Empty(t, st.history["2024-01-01"].Agents)
	// The alias table is untouched by delete.
	assert.Equal(t, "SOMEONE", st.aliases["GHOST"])
}
