package alert

import (
	"strings"
	"testing"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raids-lab/buildtracker/dao/model"
)

func handedOverItem() *model.Item {
	return &model.Item{
		SID:              "AB1",
		RequestedDate:    model.NewDate(2024, 3, 15),
		Flavour:          model.FlavourS4HPublic,
		EstimatedClients: 4,
		DeliveredClients: lo.ToPtr(3),
		BFS:              model.BFSMulti,
		TShirtSize:       model.TShirtLarge,
		SystemType:       "Sandbox",
		Hardware:         model.HardwareAzure,
		Setup:            "Standard",
		PLO:              &model.PLO{ID: 1, Name: "Finance"},
		Processor1:       &model.Processor{ID: 2, Name: "Alice"},
		Status:           model.StatusHandedOverToPLO,
		Landscape:        "DEV",
		Description:      "<b>pilot</b>",
		ExpectedDelivery: lo.ToPtr(model.NewDate(2024, 4, 30)),
		DeliveryDate:     model.NewDate(2024, 4, 30),
	}
}

func TestItemMessage(t *testing.T) {
	msg := ItemMessage(handedOverItem())

	assert.Equal(t, "Item Status Updated: AB1", msg.Subject)
	assert.Contains(t, msg.Text, `updated to "Handedover to PLO"`)
	for _, line := range []string{
		"Flavour: S/4H Public",
		"Delivered Clients: 3",
		"PLO: Finance",
		"Processor1: Alice",
		"Processor2: \n",
		"Expected Delivery: 2024-04-30",
		"Revised Delivery Date: \n",
		"Comments: \n",
	} {
		assert.Contains(t, msg.Text, line)
	}
	// 22 个字段全部出现
	assert.Equal(t, len(itemFields)+1, strings.Count(msg.Text, "\n"))

	assert.Contains(t, msg.HTML, "<strong>AB1</strong>")
	assert.Contains(t, msg.HTML, "&lt;b&gt;pilot&lt;/b&gt;")
}

func TestStatusUpdateMessage(t *testing.T) {
	details := map[string]any{
		"status":  "Installation",
		"sid":     "XY9",
		"zeta":    1,
		"alpha":   nil,
		"flavour": "S/4 Cloud",
	}

	msg := StatusUpdateMessage("XY9", "Installation", details, false)
	assert.Equal(t, "Status Update for System XY9", msg.Subject)
	assert.Equal(t, "The status for system XY9 has been updated to \"Installation\".\n", msg.Text)
	assert.NotContains(t, msg.HTML, "<table")

	msg = StatusUpdateMessage("XY9", "Handedover to PLO", details, true)
	assert.Contains(t, msg.HTML, "<table")
	assert.Contains(t, msg.Text, "zeta: 1")
}

func TestDetailFields(t *testing.T) {
	fields := DetailFields(map[string]any{
		"zeta":              "z",
		"comments":          lo.ToPtr("late"),
		"sid":               "AB1",
		"alpha":             "a",
		"expected_delivery": (*model.Date)(nil),
	})
	labels := lo.Map(fields, func(f Field, _ int) string { return f.Label })
	require.Equal(t, []string{"SID", "Expected Delivery", "Comments", "alpha", "zeta"}, labels)
	assert.Equal(t, "", fields[1].Value)
	assert.Equal(t, "late", fields[2].Value)
}
