// Package merge rewrites historical aggregates and the alias table when
// an operator unifies two agent identities.
package merge

import (
	"context"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/lastmile-ops/depot-cli/internal/identity"
	"github.com/lastmile-ops/depot-cli/internal/model"
	"github.com/lastmile-ops/depot-cli/internal/store"
)

// State is the engine's position in one merge invocation.
type State string

const (
	StateIdle             State = "idle"
	StateValidating       State = "validating"
	StateRewritingHistory State = "rewriting_history"
	StateSavingAlias      State = "saving_alias"
	StateReloading        State = "reloading"
	StateFailed           State = "failed"
)

// PartialMergeError reports a merge that rewrote some but not all selected
// dates. There is no cross-date transaction; the caller sees exactly which
// dates were left untouched and decides whether to retry.
type PartialMergeError struct {
	FailedDates []string
	Err         error
}

func (e *PartialMergeError) Error() string {
	return "merge: history rewrite incomplete, unaffected dates: " + joinDates(e.FailedDates)
}

func (e *PartialMergeError) Unwrap() error { return e.Err }

func joinDates(dates []string) string {
	out := ""
	for i, d := range dates {
		if i > 0 {
			out += ", "
		}
		out += d
	}
	return out
}

// Result describes one finished merge: what was rewritten, whether an
// alias rule was persisted, and the reloaded state the caller should use
// for in-memory aggregates.
type Result struct {
	Source       string
	Target       string
	NoOp         bool
	UpdatedDates []string
	AliasSaved   bool
	Aliases      identity.AliasTable
	History      []model.HistoricalRecord
}

// Engine orchestrates identity merges against the external store.
// Concurrent merges on the same source identity are serialized with a
// per-identity lock: the alias save step reads then writes the whole
// table, so interleaving would lose updates.
type Engine struct {
	store store.Store

	mu    sync.Mutex
	locks map[string]*sync.Mutex
	state State
}

// NewEngine creates an idle merge engine over the given store.
func NewEngine(st store.Store) *Engine {
	return &Engine{
		store: st,
		locks: make(map[string]*sync.Mutex),
		state: StateIdle,
	}
}

// State returns the engine's current state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

func (e *Engine) setState(s State) {
	e.mu.Lock()
	e.state = s
	e.mu.Unlock()
}

func (e *Engine) lockFor(source string) *sync.Mutex {
	e.mu.Lock()
	defer e.mu.Unlock()
	l, ok := e.locks[source]
	if !ok {
		l = &sync.Mutex{}
		e.locks[source] = l
	}
	return l
}

// Merge renames source to target across the selected dates and optionally
// persists the rename as an alias rule, then reloads store state. The
// alias table is flattened before saving so stored entries stay
// single-hop.
func (e *Engine) Merge(ctx context.Context, source, targetRaw string, dates []string, persistAsRule bool) (*Result, error) {
	src := identity.Canonicalize(source)
	lock := e.lockFor(src)
	lock.Lock()
	defer lock.Unlock()

	log := zap.L().With(zap.String("source", src))

	e.setState(StateValidating)
	target := identity.Canonicalize(targetRaw)
	res := &Result{Source: src, Target: target}

	if target == src && len(dates) == 0 {
		e.setState(StateIdle)
		res.NoOp = true
		log.Info("merge: no-op, target equals source and no dates selected")
		return res, nil
	}

	if target != src && len(dates) > 0 {
		e.setState(StateRewritingHistory)
		updated, err := e.store.BatchUpdateAgentName(ctx, dates, src, target)
		res.UpdatedDates = updated
		if err != nil {
			e.setState(StateFailed)
			defer e.setState(StateIdle)
			perr := &PartialMergeError{FailedDates: missingDates(dates, updated), Err: err}
			log.Error("merge: history rewrite failed",
				zap.String("target", target),
				zap.Strings("failed_dates", perr.FailedDates),
				zap.Error(err),
			)
			return res, perr
		}
	}

	if persistAsRule && target != src {
		e.setState(StateSavingAlias)
		table, err := e.store.FetchAliases(ctx)
		if err != nil {
			e.setState(StateFailed)
			defer e.setState(StateIdle)
			return res, eris.Wrap(err, "merge: fetch aliases")
		}
		table[src] = target
		table.Flatten()
		if err := e.store.SaveAliases(ctx, table); err != nil {
			e.setState(StateFailed)
			defer e.setState(StateIdle)
			return res, eris.Wrap(err, "merge: save aliases")
		}
		res.AliasSaved = true
	}

	e.setState(StateReloading)
	aliases, err := e.store.FetchAliases(ctx)
	if err != nil {
		e.setState(StateFailed)
		defer e.setState(StateIdle)
		return res, eris.Wrap(err, "merge: reload aliases")
	}
	history, err := e.store.FetchHistory(ctx)
	if err != nil {
		e.setState(StateFailed)
		defer e.setState(StateIdle)
		return res, eris.Wrap(err, "merge: reload history")
	}
	res.Aliases = aliases
	res.History = history

	e.setState(StateIdle)
	log.Info("merge: complete",
		zap.String("target", target),
		zap.Int("dates_rewritten", len(res.UpdatedDates)),
		zap.Bool("alias_saved", res.AliasSaved),
	)
	return res, nil
}

// Delete removes the identity's entries from every historical record. It
// bypasses the alias table entirely and is irreversible; callers must
// confirm with the operator before invoking.
func (e *Engine) Delete(ctx context.Context, name string) error {
	ident := identity.Canonicalize(name)
	lock := e.lockFor(ident)
	lock.Lock()
	defer lock.Unlock()

	if err := e.store.DeleteAgentGlobally(ctx, ident); err != nil {
		return eris.Wrapf(err, "merge: delete agent %s", ident)
	}
	zap.L().Warn("merge: agent deleted from all history", zap.String("agent", ident))
	return nil
}

// missingDates returns the requested dates absent from updated, in
// request order.
func missingDates(requested, updated []string) []string {
	done := make(map[string]bool, len(updated))
	for _, d := range updated {
		done[d] = true
	}
	var missing []string
	for _, d := range requested {
		if !done[d] {
			missing = append(missing, d)
		}
	}
	return missing
}
