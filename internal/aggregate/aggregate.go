// Package aggregate folds raw record batches into per-agent and
// depot-wide performance summaries.
package aggregate

import (
	"sort"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/lastmile-ops/depot-cli/internal/identity"
	"github.com/lastmile-ops/depot-cli/internal/model"
	"github.com/lastmile-ops/depot-cli/internal/schema"
)

// Options tunes one aggregation pass.
type Options struct {
	// Hint forces the batch domain; HintAuto defers to schema detection.
	Hint model.DomainHint
	// HubToken restricts summary-row sheets to rows for one hub.
	HubToken string
	// Shards > 1 splits the fold across that many goroutines.
	Shards int
}

// Result is one finished aggregation pass. Exactly one of Delivery or
// Pickup is set, matching Domain.
type Result struct {
	Domain   model.Domain
	Layout   model.Layout
	Delivery *model.DeliveryResult
	Pickup   *model.PickupResult
}

// ProcessBatch detects the batch's schema, folds every row, and finalizes
// rates, badges, and grand totals.
func ProcessBatch(records []model.RawRecord, aliases identity.AliasTable, opts Options) (*Result, error) {
	sch, err := schema.Detect(records, opts.Hint)
	if err != nil {
		return nil, err
	}

	acc := NewAccumulator(sch, aliases, opts.HubToken)
	if opts.Shards > 1 && len(records) > opts.Shards {
		shardFold(records, aliases, opts, sch, acc)
	} else {
		for _, rec := range records {
			acc.Fold(rec)
		}
	}

	res := acc.Finalize()
	zap.L().Info("aggregate: batch processed",
		zap.String("domain", string(sch.Domain)),
		zap.String("layout", string(sch.Layout)),
		zap.Int("rows", len(records)),
		zap.Int("agents", len(acc.order)),
	)
	return res, nil
}

// shardFold splits the rows across shard accumulators and merges them in
// shard order. Summation is commutative and associative, so totals match
// the sequential fold exactly.
func shardFold(records []model.RawRecord, aliases identity.AliasTable, opts Options, sch schema.Schema, into *Accumulator) {
	n := opts.Shards
	shards := make([]*Accumulator, n)
	var g errgroup.Group
	for i := 0; i < n; i++ {
		shards[i] = NewAccumulator(sch, aliases, opts.HubToken)
		lo := i * len(records) / n
		hi := (i + 1) * len(records) / n
		acc := shards[i]
		chunk := records[lo:hi]
		g.Go(func() error {
			for _, rec := range chunk {
				acc.Fold(rec)
			}
			return nil
		})
	}
	_ = g.Wait()
	for _, s := range shards {
		into.Merge(s)
	}
}

// Finalize computes success rates post-hoc, evaluates badges, folds grand
// totals in a second pass over the finished summaries, and sorts agents
// by descending success rate (stable, preserving first-seen order on
// ties).
func (a *Accumulator) Finalize() *Result {
	res := &Result{Domain: a.sch.Domain, Layout: a.sch.Layout}

	if a.sch.Domain == model.DomainDelivery {
		out := &model.DeliveryResult{}
		for _, agent := range a.order {
			s := a.delivery[agent]
			s.SuccessRate = rate(s.Delivered, s.Total)
			s.Badges = EvaluateBadges(*s)
			out.Agents = append(out.Agents, *s)
		}
		sort.SliceStable(out.Agents, func(i, j int) bool {
			return out.Agents[i].SuccessRate > out.Agents[j].SuccessRate
		})
		for _, s := range out.Agents {
			out.GrandTotal.Delivered += s.Delivered
			out.GrandTotal.Failed += s.Failed
			out.GrandTotal.OFD += s.OFD
			out.GrandTotal.RTO += s.RTO
		}
		out.GrandTotal.Total = out.GrandTotal.Delivered + out.GrandTotal.Failed +
			out.GrandTotal.OFD + out.GrandTotal.RTO
		out.GrandTotal.SuccessRate = rate(out.GrandTotal.Delivered, out.GrandTotal.Total)
		res.Delivery = out
		return res
	}

	out := &model.PickupResult{
		ReasonsBreakdown:      a.reasons,
		CancelReasonBreakdown: a.cancelReasons,
	}
	for _, agent := range a.order {
		s := a.pickup[agent]
		s.SuccessRate = pickupRate(s)
		out.Agents = append(out.Agents, *s)
	}
	sort.SliceStable(out.Agents, func(i, j int) bool {
		return out.Agents[i].SuccessRate > out.Agents[j].SuccessRate
	})
	for _, s := range out.Agents {
		out.GrandTotal.Picked += s.Picked
		out.GrandTotal.OFD += s.OFD
		out.GrandTotal.Failed += s.Failed
		out.GrandTotal.Cancelled += s.Cancelled
		out.GrandTotal.RVP += s.RVP
		out.GrandTotal.Web += s.Web
	}
	gt := &out.GrandTotal
	gt.Total = gt.Picked + gt.OFD + gt.Failed + gt.Cancelled + gt.RVP + gt.Web
	gt.SuccessRate = rate(gt.Picked, gt.Picked+gt.Failed+gt.RVP+gt.Web+gt.OFD)
	res.Pickup = out
	return res
}

func rate(hits, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total) * 100
}

// pickupRate excludes cancelled rows from the denominator: cancellations
// are outside the agent's control and would dilute the rate.
func pickupRate(s *model.PickupSummary) float64 {
	return rate(s.Picked, s.Picked+s.Failed+s.RVP+s.Web+s.OFD)
}
