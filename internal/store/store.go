// Package store persists the alias table and daily history records behind
// a driver-agnostic interface with SQLite and Postgres implementations.
package store

import (
	"context"

	"github.com/lastmile-ops/depot-cli/internal/identity"
	"github.com/lastmile-ops/depot-cli/internal/model"
)

// Store is the persistence boundary for the pipeline and merge engine.
// Callers own retry policy; implementations propagate failures wrapped,
// never retry internally.
type Store interface {
	// Aliases. SaveAliases replaces the whole table: it is small enough
	// that full replacement is simpler and safer than patch semantics.
	FetchAliases(ctx context.Context) (identity.AliasTable, error)
	SaveAliases(ctx context.Context, table identity.AliasTable) error

	// History. SaveRecord upserts by date key.
	FetchHistory(ctx context.Context) ([]model.HistoricalRecord, error)
	GetRecord(ctx context.Context, date string) (*model.HistoricalRecord, error)
	SaveRecord(ctx context.Context, rec *model.HistoricalRecord) error

	// BatchUpdateAgentName rewrites the embedded agent entries for every
	// given date in one invocation and returns the dates actually
	// rewritten. A non-nil error may accompany a partial result.
	BatchUpdateAgentName(ctx context.Context, dates []string, oldName, newName string) ([]string, error)

	// DeleteAgentGlobally removes the agent's entries from every
	// historical record. Irreversible; confirmation is the caller's job.
	DeleteAgentGlobally(ctx context.Context, name string) error

	// DeleteOldRecords removes records dated strictly before cutoff
	// (YYYY-MM-DD) and returns how many were dropped.
	DeleteOldRecords(ctx context.Context, cutoff string) (int, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
