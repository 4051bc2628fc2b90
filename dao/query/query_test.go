package query_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raids-lab/buildtracker/dao/model"
	"github.com/raids-lab/buildtracker/dao/query"
	"github.com/raids-lab/buildtracker/internal/testutil"
)

func newItem(sid string, ploID, processorID uint) *model.Item {
	expected := model.NewDate(2024, time.April, 30)
	return &model.Item{
		SID:              sid,
		RequestedDate:    model.NewDate(2024, time.March, 15),
		Flavour:          model.FlavourS4HPrivate,
		BFS:              model.BFSSingle,
		TShirtSize:       model.TShirtSmall,
		SystemType:       "Sandbox",
		Hardware:         model.HardwareGCP,
		Setup:            "Standard",
		PLOID:            ploID,
		Processor1ID:     processorID,
		Status:           model.StatusInstallation,
		Landscape:        "DEV",
		Description:      "sandbox",
		ExpectedDelivery: &expected,
	}
}

func TestCreateItemsRollsBack(t *testing.T) {
	ctx := context.Background()
	q := query.Use(testutil.SetupTestDB(t))
	plo := &model.PLO{Name: "Finance"}
	require.NoError(t, q.SavePLO(ctx, plo))
	processor := &model.Processor{Name: "Bob"}
	require.NoError(t, q.SaveProcessor(ctx, processor))

	// 第二条违反 sid 唯一约束，整批回滚
	err := q.CreateItems(ctx, []*model.Item{
		newItem("AB1", plo.ID, processor.ID),
		newItem("AB1", plo.ID, processor.ID),
	})
	require.Error(t, err)
	exists, err := q.ItemSIDExists(ctx, "AB1")
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, q.CreateItems(ctx, []*model.Item{
		newItem("AB1", plo.ID, processor.ID),
		newItem("AB2", plo.ID, processor.ID),
	}))
	found, err := q.ExistingSIDs(ctx, []string{"AB2", "ZZ9"})
	require.NoError(t, err)
	assert.Equal(t, []string{"AB2"}, found)

	item, err := q.GetItemBySID(ctx, "AB1")
	require.NoError(t, err)
	assert.Equal(t, model.FarFutureDate.String(), item.DeliveryDate.String())
	assert.Equal(t, "Finance", item.PLOName())

	counts, err := q.CountItemsByStatus(ctx)
	require.NoError(t, err)
	require.Len(t, counts, 1)
	assert.Equal(t, model.StatusInstallation, counts[0].Status)
	assert.EqualValues(t, 2, counts[0].Count)

	_, err = q.GetItemBySID(ctx, "NOP")
	assert.ErrorIs(t, err, query.ErrNotFound)
}

func TestPLONameMapFirstWins(t *testing.T) {
	ctx := context.Background()
	q := query.Use(testutil.SetupTestDB(t))
	first := &model.PLO{Name: "Finance"}
	require.NoError(t, q.SavePLO(ctx, first))
	require.NoError(t, q.SavePLO(ctx, &model.PLO{Name: "Finance"}))
	require.NoError(t, q.SavePLO(ctx, &model.PLO{Name: "Retail"}))

	names, err := q.PLONameMap(ctx)
	require.NoError(t, err)
	assert.Len(t, names, 2)
	assert.Equal(t, first.ID, names["Finance"])
}

func TestTokenBlacklist(t *testing.T) {
	ctx := context.Background()
	q := query.Use(testutil.SetupTestDB(t))
	now := time.Now()

	require.NoError(t, q.BlacklistToken(ctx, "old", 1, now.Add(-time.Hour)))
	require.NoError(t, q.BlacklistToken(ctx, "live", 1, now.Add(time.Hour)))

	listed, err := q.IsBlacklisted(ctx, "old")
	require.NoError(t, err)
	assert.True(t, listed)

	purged, err := q.PurgeExpiredTokens(ctx, now)
	require.NoError(t, err)
	assert.EqualValues(t, 1, purged)

	listed, err = q.IsBlacklisted(ctx, "old")
	require.NoError(t, err)
	assert.False(t, listed)
	listed, err = q.IsBlacklisted(ctx, "live")
	require.NoError(t, err)
	assert.True(t, listed)
}

func TestSIDColumns(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	for _, m := range []any{&model.Item{}, &model.Forecast{}, &model.Notification{}} {
		assert.True(t, db.Migrator().HasColumn(m, "sid"), "%T", m)
	}

	q := query.Use(db)
	plo := &model.PLO{Name: "Finance"}
	require.NoError(t, q.SavePLO(ctx, plo))
	processor := &model.Processor{Name: "Bob"}
	require.NoError(t, q.SaveProcessor(ctx, processor))
	item := newItem("AB1", plo.ID, processor.ID)
	require.NoError(t, q.CreateItems(ctx, []*model.Item{item}))

	require.NoError(t, q.SaveForecast(ctx, &model.Forecast{
		ItemID: item.ID, SID: "FC1", BFS: model.BFSMulti,
		SystemDescription: "follow-up", Landscape: "QAS", Frontend: "Fiori",
	}))
	forecasts, count, err := q.ListForecasts(ctx, "AB1", nil)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
	require.Len(t, forecasts, 1)
	// clients 未赋值时保持为空
	assert.Nil(t, forecasts[0].Clients)

	require.NoError(t, q.CreateNotification(ctx, &model.Notification{SID: "AB1", Status: "Handedover to PLO"}))
	require.NoError(t, q.CreateNotification(ctx, &model.Notification{SID: "ZZ9", Status: "Cancelled"}))
	records, count, err := q.ListNotifications(ctx, "AB1", nil)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
	require.Len(t, records, 1)
	assert.Equal(t, "AB1", records[0].SID)
}
