package aggregate

import (
	"strconv"
	"strings"

	"github.com/lastmile-ops/depot-cli/internal/classify"
	"github.com/lastmile-ops/depot-cli/internal/identity"
	"github.com/lastmile-ops/depot-cli/internal/model"
	"github.com/lastmile-ops/depot-cli/internal/schema"
)

// totalMarkers are name-column values that mark sheet footer rows rather
// than agents.
var totalMarkers = map[string]bool{
	"TOTAL":       true,
	"SUBTOTAL":    true,
	"GRAND TOTAL": true,
}

// Accumulator folds classified rows into per-identity summaries. It is
// constructed once per run and passed through the fold explicitly; there
// is no shared state between runs. Merging two accumulators is counter
// addition, so shards can fold independently and combine.
type Accumulator struct {
	sch     schema.Schema
	aliases identity.AliasTable
	hub     string

	delivery map[string]*model.DeliverySummary
	pickup   map[string]*model.PickupSummary
	order    []string

	reasons       map[string]int
	cancelReasons map[string]int
}

// NewAccumulator creates an empty accumulator for one detected schema.
// hubToken, when non-empty, restricts summary-row processing to rows whose
// hub column contains it (case-insensitive).
func NewAccumulator(sch schema.Schema, aliases identity.AliasTable, hubToken string) *Accumulator {
	return &Accumulator{
		sch:           sch,
		aliases:       aliases,
		hub:           strings.ToUpper(strings.TrimSpace(hubToken)),
		delivery:      make(map[string]*model.DeliverySummary),
		pickup:        make(map[string]*model.PickupSummary),
		reasons:       make(map[string]int),
		cancelReasons: make(map[string]int),
	}
}

// Fold routes one record through the strategy the schema selected.
// Malformed rows degrade to defaults or get skipped; they never abort
// the batch.
func (a *Accumulator) Fold(rec model.RawRecord) {
	switch {
	case a.sch.Domain == model.DomainPickup:
		a.foldPickup(rec)
	case a.sch.Layout == model.LayoutSummaryRows:
		a.foldDeliverySummaryRow(rec)
	default:
		a.foldDeliveryShipment(rec)
	}
}

// foldDeliverySummaryRow adds a pre-aggregated per-agent row's counts.
func (a *Accumulator) foldDeliverySummaryRow(rec model.RawRecord) {
	if a.hub != "" && a.sch.Fields.Hub != "" {
		hubVal, _ := rec.Get(a.sch.Fields.Hub)
		if !strings.Contains(strings.ToUpper(hubVal), a.hub) {
			return
		}
	}

	agent, ok := a.resolveAgent(rec)
	if !ok {
		return
	}

	s := a.deliverySummary(agent)
	s.Delivered += a.count(rec, a.sch.Fields.Delivered)
	s.Failed += a.count(rec, a.sch.Fields.Failed)
	s.OFD += a.count(rec, a.sch.Fields.OFD)
	s.RTO += a.count(rec, a.sch.Fields.RTO)
	s.Recount()
}

// foldDeliveryShipment classifies one tracked shipment row. Rows without
// a usable name aggregate under Unknown, same as the pickup fold: only
// the pre-aggregated summary layout drops nameless rows, since there a
// blank name marks a spacer or footer, not a shipment.
func (a *Accumulator) foldDeliveryShipment(rec model.RawRecord) {
	status, _ := rec.Get(a.sch.Fields.Status)
	cat, ok := classify.DeliveryStatus(status)
	if !ok {
		return
	}

	name, _ := rec.Get(a.sch.Fields.AgentName)
	agent := identity.Resolve(name, a.aliases)

	s := a.deliverySummary(agent)
	switch cat {
	case model.CategoryDelivered:
		s.Delivered++
	case model.CategoryFailed:
		s.Failed++
	case model.CategoryOFD:
		s.OFD++
	case model.CategoryRTO:
		s.RTO++
	}
	s.Recount()

	tracking, _ := rec.Get(a.sch.Fields.TrackingID)
	tracking = strings.TrimSpace(tracking)
	if tracking == "" {
		return
	}
	s.AllTrackings = append(s.AllTrackings, model.TrackingEntry{TrackingID: tracking, Category: string(cat)})
	if cat != model.CategoryDelivered {
		s.PendingTrackings = append(s.PendingTrackings, tracking)
	}
}

// foldPickup classifies one pickup row. Every row increments total and
// its matched category regardless of outcome.
func (a *Accumulator) foldPickup(rec model.RawRecord) {
	reason, _ := rec.Get(a.sch.Fields.Reason)
	cancelReason, _ := rec.Get(a.sch.Fields.CancelReason)
	op, _ := rec.Get(a.sch.Fields.Operation)
	state, _ := rec.Get(a.sch.Fields.State)

	out := classify.Pickup(classify.PickupInput{
		Reason:       reason,
		CancelReason: cancelReason,
		Operation:    op,
		State:        state,
	})

	name, _ := rec.Get(a.sch.Fields.AgentName)
	agent := identity.Resolve(name, a.aliases)

	s := a.pickupSummary(agent)
	switch out.Category {
	case model.PickupPicked:
		s.Picked++
	case model.PickupOFD:
		s.OFD++
	case model.PickupFailed:
		s.Failed++
	case model.PickupCancelled:
		s.Cancelled++
	case model.PickupRVP:
		s.RVP++
	case model.PickupWeb:
		s.Web++
	}
	s.Recount()

	if out.Reason != "" {
		a.reasons[out.Reason]++
	}
	if out.CancelReason != "" {
		a.cancelReasons[out.CancelReason]++
	}

	tracking, _ := rec.Get(a.sch.Fields.TrackingID)
	tracking = strings.TrimSpace(tracking)
	if tracking != "" {
		s.Trackings = append(s.Trackings, model.TrackingEntry{TrackingID: tracking, Category: string(out.Category)})
	}
}

// resolveAgent maps a pre-aggregated summary row's name column to an
// identity, rejecting rows without a usable name and footer total rows.
func (a *Accumulator) resolveAgent(rec model.RawRecord) (string, bool) {
	if a.sch.Fields.AgentName == "" {
		return "", false
	}
	name, _ := rec.Get(a.sch.Fields.AgentName)
	agent := identity.Resolve(name, a.aliases)
	if agent == identity.Unknown || totalMarkers[agent] {
		return "", false
	}
	return agent, true
}

func (a *Accumulator) deliverySummary(agent string) *model.DeliverySummary {
	s, ok := a.delivery[agent]
	if !ok {
		s = &model.DeliverySummary{Agent: agent}
		a.delivery[agent] = s
		a.order = append(a.order, agent)
	}
	return s
}

func (a *Accumulator) pickupSummary(agent string) *model.PickupSummary {
	s, ok := a.pickup[agent]
	if !ok {
		s = &model.PickupSummary{Agent: agent}
		a.pickup[agent] = s
		a.order = append(a.order, agent)
	}
	return s
}

// count parses an integer cell with a zero default. Some exports render
// counts as floats ("5.0"), so float syntax is accepted and truncated.
func (a *Accumulator) count(rec model.RawRecord, field string) int {
	if field == "" {
		return 0
	}
	raw, _ := rec.Get(field)
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0
	}
	if n, err := strconv.Atoi(raw); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return int(f)
	}
	return 0
}

// Merge folds another accumulator's state into this one. Both must have
// been built for the same schema. Counter addition is associative, so
// shard merge order does not affect totals; first-seen order follows the
// order shards are merged in.
func (a *Accumulator) Merge(b *Accumulator) {
	for _, agent := range b.order {
		if d, ok := b.delivery[agent]; ok {
			s := a.deliverySummary(agent)
			s.Delivered += d.Delivered
			s.Failed += d.Failed
			s.OFD += d.OFD
			s.RTO += d.RTO
			s.PendingTrackings = append(s.PendingTrackings, d.PendingTrackings...)
			s.AllTrackings = append(s.AllTrackings, d.AllTrackings...)
			s.Recount()
		}
		if p, ok := b.pickup[agent]; ok {
			s := a.pickupSummary(agent)
			s.Picked += p.Picked
			s.OFD += p.OFD
			s.Failed += p.Failed
			s.Cancelled += p.Cancelled
			s.RVP += p.RVP
			s.Web += p.Web
			s.Trackings = append(s.Trackings, p.Trackings...)
			s.Recount()
		}
	}
	for k, v := range b.reasons {
		a.reasons[k] += v
	}
	for k, v := range b.cancelReasons {
		a.cancelReasons[k] += v
	}
}
