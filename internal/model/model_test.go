package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeliverySummaryRecount(t *testing.T) {
	s := DeliverySummary{Delivered: 8, Failed: 1, OFD: 2, RTO: 1}
	s.Recount()
	assert.Equal(t, 12, s.Total)
}

func TestPickupSummaryRecount(t *testing.T) {
	s := PickupSummary{Picked: 3, OFD: 1, Failed: 1, Cancelled: 2, RVP: 1, Web: 1}
	s.Recount()
	assert.Equal(t, 9, s.Total)
}

func TestRenameAgent(t *testing.T) {
	rec := HistoricalRecord{
		Date: "2024-06-01",
		Agents: []AgentEntry{
			{Name: "MOHAMED A", Delivered: 5, Total: 6},
			{Name: "SARA", Delivered: 3, Total: 3},
		},
	}

	changed := rec.RenameAgent("MOHAMED A", "MOHAMED ALI")
	assert.True(t, changed)
	assert.Equal(t, "MOHAMED ALI", rec.Agents[0].Name)
	assert.Equal(t, "SARA", rec.Agents[1].Name)

	assert.False(t, rec.RenameAgent("GHOST", "ANYONE"))
}

func TestRemoveAgent(t *testing.T) {
	rec := HistoricalRecord{
		Agents: []AgentEntry{
			{Name: "A"},
			{Name: "B"},
			{Name: "A"},
		},
	}

	assert.True(t, rec.RemoveAgent("A"))
	assert.Len(t, rec.Agents, 1)
	assert.Equal(t, "B", rec.Agents[0].Name)

	assert.False(t, rec.RemoveAgent("A"))
}

func TestRawRecordGet(t *testing.T) {
	rec := RawRecord{
		{Name: "DA Name", Value: "Ali"},
		{Name: "Status", Value: ""},
	}

	v, ok := rec.Get("DA Name")
	assert.True(t, ok)
	assert.Equal(t, "Ali", v)

	_, ok = rec.Get("Missing")
	assert.False(t, ok)

	assert.False(t, rec.Empty())
	assert.True(t, RawRecord{{Name: "Status", Value: ""}}.Empty())
}
