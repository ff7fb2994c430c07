package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lastmile-ops/depot-cli/internal/aggregate"
	"github.com/lastmile-ops/depot-cli/internal/model"
)

func TestReadRecords_CSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sheet.csv")
	require.NoError(t, os.WriteFile(path, []byte("DA Name,Status\nAli,DELIVERED\n"), 0644))

	records, err := readRecords(path, "")
	require.NoError(t, err)
	require.Len(t, records, 1)

	name, ok := records[0].Get("DA Name")
	assert.True(t, ok)
	assert.Equal(t, "Ali", name)
}

func TestReadRecords_UnsupportedExtension(t *testing.T) {
	_, err := readRecords("sheet.pdf", "")
	assert.Error(t, err)
}

func TestToAgentEntries_Delivery(t *testing.T) {
	res := &aggregate.Result{
		Domain: model.DomainDelivery,
		Delivery: &model.DeliveryResult{
			Agents: []model.DeliverySummary{
				{Agent: "ALI AHMED", Delivered: 9, Total: 10, SuccessRate: 90.0},
			},
		},
	}

	entries := toAgentEntries(res)
	require.Len(t, entries, 1)
	assert.Equal(t, "ALI AHMED", entries[0].Name)
	assert.Equal(t, 9, entries[0].Delivered)
	assert.Equal(t, 10, entries[0].Total)
}

func TestToAgentEntries_Pickup(t *testing.T) {
	res := &aggregate.Result{
		Domain: model.DomainPickup,
		Pickup: &model.PickupResult{
			Agents: []model.PickupSummary{
				{Agent: "SARA", Picked: 4, Total: 5, SuccessRate: 80.0},
			},
		},
	}

	entries := toAgentEntries(res)
	require.Len(t, entries, 1)
	assert.Equal(t, "SARA", entries[0].Name)
	assert.Equal(t, 4, entries[0].Delivered)
	assert.Equal(t, 5, entries[0].Total)
}
