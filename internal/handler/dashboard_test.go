package handler_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raids-lab/buildtracker/internal/handler"
	"github.com/raids-lab/buildtracker/internal/testutil"
)

func TestDashboard(t *testing.T) {
	f := newFixture(t)

	delivered := func(sid, expected, delivery string, clients int) map[string]any {
		body := f.itemBody(sid)
		body["expected_delivery"] = expected
		body["delivery_date"] = delivery
		body["estimated_clients"] = clients
		body["status"] = "Handedover to PLO"
		return body
	}
	a := delivered("AA1", "2024-03-01", "2024-03-01", 2)
	b := delivered("AA2", "2024-03-10", "2024-03-20", 4)
	b["processor2"] = f.processor2.ID
	c := delivered("AA3", "2024-07-01", "2024-07-01", 6)
	c["processor1"] = f.processor2.ID
	d := delivered("AA4", "2023-12-01", "2023-12-01", 8)
	for _, body := range []map[string]any{a, b, c, d} {
		f.createItem(t, body)
	}
	// 未交付的 Item 使用默认交付日期，不计入任何年份
	f.createItem(t, f.itemBody("AA5"))

	get := func(t *testing.T, query string) handler.DashboardResp {
		t.Helper()
		w := testutil.DoRequest(f.Router, http.MethodGet, "/api/dashboard"+query, nil, f.token)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		var resp handler.DashboardResp
		testutil.ParseResponse(t, w, &resp)
		return resp
	}

	t.Run("year", func(t *testing.T) {
		resp := get(t, "?year=2024")
		assert.Equal(t, 2024, resp.Year)
		assert.Equal(t, 3, resp.TotalItems)
		assert.InDelta(t, 4.0, resp.AverageEstimatedClients, 1e-9)
		assert.Equal(t, 2, resp.OnTime.Count)
		assert.Equal(t, []string{"AA1", "AA3"}, resp.OnTime.SIDs)

		require.Len(t, resp.Processors, 2)
		assert.Equal(t, "Bob", resp.Processors[0].Name)
		assert.Equal(t, []string{"AA1", "AA2"}, resp.Processors[0].SIDs)
		assert.Equal(t, "Carol", resp.Processors[1].Name)
		assert.Equal(t, 2, resp.Processors[1].Count)
		assert.Equal(t, []string{"AA2", "AA3"}, resp.Processors[1].SIDs)

		require.Len(t, resp.Clients, 3)
		assert.Equal(t, "AA1", resp.Clients[0].SID)
		assert.Equal(t, 2, resp.Clients[0].Estimated)
	})

	t.Run("month", func(t *testing.T) {
		resp := get(t, "?year=2024&month=3")
		assert.Equal(t, 2, resp.TotalItems)
		assert.Equal(t, 3, resp.Month)
	})

	t.Run("sid and status", func(t *testing.T) {
		resp := get(t, "?year=2024&sid=AA2")
		assert.Equal(t, 1, resp.TotalItems)
		resp = get(t, "?year=2024&status=Installation")
		assert.Equal(t, 0, resp.TotalItems)
		assert.Empty(t, resp.Processors)
		assert.NotNil(t, resp.Clients)
	})

	t.Run("defaults to current year", func(t *testing.T) {
		resp := get(t, "")
		assert.Equal(t, time.Now().Year(), resp.Year)
	})

	t.Run("bad month", func(t *testing.T) {
		w := testutil.DoRequest(f.Router, http.MethodGet, "/api/dashboard?month=13", nil, f.token)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
