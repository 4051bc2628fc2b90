package handler

import (
	"testing"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raids-lab/buildtracker/dao/model"
)

func TestSummarizeEmpty(t *testing.T) {
	resp := summarize(nil)
	assert.Zero(t, resp.TotalItems)
	assert.Zero(t, resp.AverageEstimatedClients)
	assert.NotNil(t, resp.OnTime.SIDs)
	assert.NotNil(t, resp.Processors)
	assert.NotNil(t, resp.Clients)
}

func TestSummarizeProcessorSlots(t *testing.T) {
	alice := &model.Processor{ID: 1, Name: "Alice"}
	bob := &model.Processor{ID: 2, Name: "Bob"}
	day := model.NewDate(2024, 5, 1)

	items := []model.Item{
		// 两个槽位相同，只计一次
		{SID: "AA1", EstimatedClients: 1, Processor1ID: 1, Processor1: alice,
			Processor2ID: lo.ToPtr[uint](1), Processor2: alice, ExpectedDelivery: &day, DeliveryDate: day},
		{SID: "AA2", EstimatedClients: 2, Processor1ID: 2, Processor1: bob, DeliveryDate: day},
		{SID: "AA3", EstimatedClients: 6, Processor1ID: 2, Processor1: bob,
			Processor2ID: lo.ToPtr[uint](1), Processor2: alice, DeliveredClients: lo.ToPtr(5), DeliveryDate: day},
	}
	resp := summarize(items)

	assert.Equal(t, 3, resp.TotalItems)
	assert.InDelta(t, 3.0, resp.AverageEstimatedClients, 1e-9)
	// 缺少预计交付日期的 Item 不算按期
	assert.Equal(t, []string{"AA1"}, resp.OnTime.SIDs)

	require.Len(t, resp.Processors, 2)
	// 数量相同时按名称排序
	assert.Equal(t, ProcessorStat{ID: 1, Name: "Alice", Count: 2, SIDs: []string{"AA1", "AA3"}}, resp.Processors[0])
	assert.Equal(t, ProcessorStat{ID: 2, Name: "Bob", Count: 2, SIDs: []string{"AA2", "AA3"}}, resp.Processors[1])

	require.Len(t, resp.Clients, 3)
	assert.Nil(t, resp.Clients[1].Delivered)
	assert.Equal(t, 5, *resp.Clients[2].Delivered)
}
