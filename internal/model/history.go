package model

import "time"

// AgentEntry is one agent's persisted line inside a day's historical record.
type AgentEntry struct {
	Name        string          `json:"name"`
	Delivered   int             `json:"delivered"`
	Total       int             `json:"total"`
	SuccessRate float64         `json:"success_rate"`
	Trackings   []TrackingEntry `json:"trackings,omitempty"`
}

// HistoricalRecord is one persisted day of per-agent aggregates. Date is a
// YYYY-MM-DD key. The merge engine rewrites these in place via the store.
type HistoricalRecord struct {
	ID        string       `json:"id"`
	Date      string       `json:"date"`
	Agents    []AgentEntry `json:"agents"`
	Narrative string       `json:"narrative,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
}

// RenameAgent replaces every entry named oldName with newName and reports
// whether anything changed. Entries for other agents are untouched.
func (r *HistoricalRecord) RenameAgent(oldName, newName string) bool {
	changed := false
	for i := range r.Agents {
		if r.Agents[i].Name == oldName {
			r.Agents[i].Name = newName
			changed = true
		}
	}
	return changed
}

// RemoveAgent drops every entry named name and reports whether any existed.
func (r *HistoricalRecord) RemoveAgent(name string) bool {
	kept := r.Agents[:0]
	removed := false
	for _, a := range r.Agents {
		if a.Name == name {
			removed = true
			continue
		}
		kept = append(kept, a)
	}
	r.Agents = kept
	return removed
}
