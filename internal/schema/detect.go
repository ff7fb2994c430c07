// Package schema inspects a record batch's headers to decide which sheet
// variant is present and which columns carry which roles. Header matching
// happens once per batch; rows are then read through the resolved FieldMap
// instead of re-fuzzing names per row.
package schema

import (
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/lastmile-ops/depot-cli/internal/model"
)

// ErrEmptySheet is returned when no row in the batch carries any value.
var ErrEmptySheet = eris.New("schema: empty sheet")

// FieldMap holds the resolved header name for each column role. Empty
// string means the sheet has no column for that role.
type FieldMap struct {
	AgentName    string
	Status       string
	TrackingID   string
	Delivered    string
	Failed       string
	OFD          string
	RTO          string
	Hub          string
	Source       string
	Destination  string
	Reason       string
	CancelReason string
	Operation    string
	State        string
}

// Schema is the detected processing strategy for one batch.
type Schema struct {
	Domain model.Domain
	Layout model.Layout
	Fields FieldMap
}

// agentNameHeaders are recognized agent-name columns, most specific first.
var agentNameHeaders = []string{"da name", "driver name", "agent name", "courier name", "agent", "driver", "name"}

// Detect inspects a batch and returns its schema. A hint other than Auto
// forces the domain; layout detection still runs for delivery batches.
func Detect(records []model.RawRecord, hint model.DomainHint) (Schema, error) {
	if !hasAnyValue(records) {
		return Schema{}, ErrEmptySheet
	}

	headers := headerSet(records)

	var s Schema
	switch hint {
	case model.HintDelivery:
		s.Domain = model.DomainDelivery
	case model.HintPickup:
		s.Domain = model.DomainPickup
	default:
		// Pickup sheets always carry both a source and a destination
		// column; delivery exports never do.
		if containsSubstring(headers, "source") && containsSubstring(headers, "destination") {
			s.Domain = model.DomainPickup
		} else {
			s.Domain = model.DomainDelivery
		}
	}

	if s.Domain == model.DomainDelivery {
		if hasExact(headers, "delivered") || hasExact(headers, "ofd") {
			s.Layout = model.LayoutSummaryRows
		} else {
			s.Layout = model.LayoutPerShipmentRows
		}
	} else {
		s.Layout = model.LayoutPerShipmentRows
	}

	s.Fields = resolveFields(headers)

	zap.L().Debug("schema: detected",
		zap.String("domain", string(s.Domain)),
		zap.String("layout", string(s.Layout)),
		zap.Int("headers", len(headers)),
	)
	return s, nil
}

// resolveFields maps each column role to the actual header carrying it.
func resolveFields(headers []string) FieldMap {
	var fm FieldMap
	fm.AgentName = firstMatch(headers, exactAny(agentNameHeaders...))
	fm.Status = firstMatch(headers, contains("status"))
	fm.TrackingID = firstMatch(headers, containsAny("tracking", "awb"))
	fm.Delivered = firstMatch(headers, exactAny("delivered"))
	fm.Failed = firstMatch(headers, exactAny("failed"))
	fm.OFD = firstMatch(headers, exactAny("ofd"))
	fm.RTO = firstMatch(headers, exactAny("rto"))
	fm.Hub = firstMatch(headers, containsAny("hub", "station"))
	fm.Source = firstMatch(headers, contains("source"))
	fm.Destination = firstMatch(headers, contains("destination"))
	fm.CancelReason = firstMatch(headers, func(h string) bool {
		return strings.Contains(h, "cancel") && strings.Contains(h, "reason")
	})
	fm.Reason = firstMatch(headers, func(h string) bool {
		return strings.Contains(h, "reason") && !strings.Contains(h, "cancel")
	})
	fm.Operation = firstMatch(headers, contains("operation"))
	// A dedicated state column always wins; "status" only stands in for
	// it on sheets that carry no state column at all.
	fm.State = firstMatch(headers, contains("state"))
	if fm.State == "" {
		fm.State = firstMatch(headers, exactAny("status"))
	}
	return fm
}

func hasAnyValue(records []model.RawRecord) bool {
	for _, r := range records {
		if !r.Empty() {
			return true
		}
	}
	return false
}

// headerSet collects the union of field names across the batch, preserving
// first-seen order. Messy exports sometimes carry extra columns only on
// later rows.
func headerSet(records []model.RawRecord) []string {
	var headers []string
	seen := make(map[string]bool)
	for _, r := range records {
		for _, f := range r {
			if !seen[f.Name] {
				seen[f.Name] = true
				headers = append(headers, f.Name)
			}
		}
	}
	return headers
}

func firstMatch(headers []string, pred func(string) bool) string {
	for _, h := range headers {
		if pred(strings.ToLower(strings.TrimSpace(h))) {
			return h
		}
	}
	return ""
}

func exactAny(names ...string) func(string) bool {
	return func(h string) bool {
		for _, n := range names {
			if h == n {
				return true
			}
		}
		return false
	}
}

func contains(sub string) func(string) bool {
	return func(h string) bool { return strings.Contains(h, sub) }
}

func containsAny(subs ...string) func(string) bool {
	return func(h string) bool {
		for _, sub := range subs {
			if strings.Contains(h, sub) {
				return true
			}
		}
		return false
	}
}

func containsSubstring(headers []string, sub string) bool {
	return firstMatch(headers, contains(sub)) != ""
}

func hasExact(headers []string, name string) bool {
	return firstMatch(headers, exactAny(name)) != ""
}
