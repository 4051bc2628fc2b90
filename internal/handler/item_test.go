package handler_test

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raids-lab/buildtracker/internal/handler"
	"github.com/raids-lab/buildtracker/internal/testutil"
)

func TestCreateItem(t *testing.T) {
	f := newFixture(t)

	item := f.createItem(t, f.itemBody("AB1"))
	assert.Equal(t, "AB1", item.SID)
	assert.Equal(t, "Finance", item.PLOName)
	assert.Equal(t, "Bob", item.Processor1Name)
	assert.Nil(t, item.Processor2)
	// 未填写交付日期时使用默认值
	assert.Equal(t, "9999-12-31", item.DeliveryDate.String())
	require.NotNil(t, item.ExpectedDelivery)
	assert.Equal(t, "2024-04-30", item.ExpectedDelivery.String())
	assert.Empty(t, f.Alerter.HandedOver)

	w := testutil.DoRequest(f.Router, http.MethodGet, "/api/item/AB1", nil, f.token)
	require.Equal(t, http.StatusOK, w.Code)
	var got handler.ItemResp
	testutil.ParseResponse(t, w, &got)
	assert.Equal(t, item, got)
}

func TestCreateItemRejectsInvalidInput(t *testing.T) {
	f := newFixture(t)
	f.createItem(t, f.itemBody("AB1"))

	tests := []struct {
		name    string
		changes map[string]any
		msg     string
	}{
		{"duplicate sid", nil, "sid: item with this sid already exists."},
		{"sid too long", map[string]any{"sid": "ABCD"}, "sid"},
		{"unknown status", map[string]any{"sid": "AB2", "status": "Done"}, `status: "Done" is not a valid choice`},
		{"missing description", map[string]any{"sid": "AB2", "description": ""}, "description: this field is required"},
		{"missing expected delivery", map[string]any{"sid": "AB2", "expected_delivery": nil}, "expected_delivery"},
		{"negative clients", map[string]any{"sid": "AB2", "estimated_clients": -1}, "estimated_clients"},
		{"bad servicenow url", map[string]any{"sid": "AB2", "servicenow": "not a url"}, "servicenow"},
		{"unknown plo", map[string]any{"sid": "AB2", "plo": 999}, `plo: invalid pk "999"`},
		{"unknown processor1", map[string]any{"sid": "AB2", "processor1": 999}, `processor1: invalid pk "999"`},
		{"unknown processor2", map[string]any{"sid": "AB2", "processor2": 999}, `processor2: invalid pk "999"`},
		{"bad date", map[string]any{"sid": "AB2", "requested_date": "15/03/2024"}, "invalid date"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := f.itemBody("AB1")
			for k, v := range tt.changes {
				body[k] = v
			}
			w := testutil.DoRequest(f.Router, http.MethodPost, "/api/item", body, f.token)
			require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
			resp := testutil.ParseResponse(t, w, nil)
			assert.Contains(t, resp.Msg, tt.msg)
		})
	}

	w := testutil.DoRequest(f.Router, http.MethodGet, "/api/item", nil, f.token)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[listResp[handler.ItemResp]](t, testutil.ParseResponse(t, w, nil).Data)
	assert.EqualValues(t, 1, list.Count)
}

func TestItemRequiresAuthentication(t *testing.T) {
	f := newFixture(t)

	w := testutil.DoRequest(f.Router, http.MethodGet, "/api/item", nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	w = testutil.DoRequest(f.Router, http.MethodGet, "/api/item", nil, "garbage")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestListItemFilters(t *testing.T) {
	f := newFixture(t)
	other := f.SeedPLO("Retail")

	first := f.itemBody("AA1")
	second := f.itemBody("AA2")
	second["requested_date"] = "2023-11-02"
	second["status"] = "Quality Checks"
	second["processor2"] = f.processor2.ID
	third := f.itemBody("AA3")
	third["plo"] = other.ID
	third["flavour"] = "S/4 Cloud"
	for _, body := range []map[string]any{first, second, third} {
		f.createItem(t, body)
	}

	tests := []struct {
		query string
		sids  []string
	}{
		{"", []string{"AA1", "AA2", "AA3"}},
		{"?year=2024", []string{"AA1", "AA3"}},
		{"?year=2023", []string{"AA2"}},
		{"?status=Quality%20Checks", []string{"AA2"}},
		{"?flavour=S/4%20Cloud", []string{"AA3"}},
		{fmt.Sprintf("?plo=%d", other.ID), []string{"AA3"}},
		{fmt.Sprintf("?processor=%d", f.processor2.ID), []string{"AA2"}},
		{fmt.Sprintf("?processor=%d", f.processor1.ID), []string{"AA1", "AA2", "AA3"}},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			w := testutil.DoRequest(f.Router, http.MethodGet, "/api/item"+tt.query, nil, f.token)
			require.Equal(t, http.StatusOK, w.Code, w.Body.String())
			list := decode[listResp[handler.ItemResp]](t, testutil.ParseResponse(t, w, nil).Data)
			sids := make([]string, 0, len(list.Rows))
			for _, row := range list.Rows {
				sids = append(sids, row.SID)
			}
			assert.Equal(t, tt.sids, sids)
			assert.EqualValues(t, len(tt.sids), list.Count)
		})
	}

	t.Run("paging", func(t *testing.T) {
		w := testutil.DoRequest(f.Router, http.MethodGet, "/api/item?page_index=1&page_size=2", nil, f.token)
		require.Equal(t, http.StatusOK, w.Code)
		list := decode[listResp[handler.ItemResp]](t, testutil.ParseResponse(t, w, nil).Data)
		require.Len(t, list.Rows, 1)
		assert.Equal(t, "AA3", list.Rows[0].SID)
		assert.EqualValues(t, 3, list.Count)
	})
}

func TestUpdateItem(t *testing.T) {
	f := newFixture(t)
	f.createItem(t, f.itemBody("AB1"))

	t.Run("full update needs every field", func(t *testing.T) {
		w := testutil.DoRequest(f.Router, http.MethodPut, "/api/item/AB1",
			map[string]any{"status": "Quality Checks"}, f.token)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("full update", func(t *testing.T) {
		body := f.itemBody("AB1")
		body["description"] = "renamed"
		body["processor2"] = f.processor2.ID
		w := testutil.DoRequest(f.Router, http.MethodPut, "/api/item/AB1", body, f.token)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		var item handler.ItemResp
		testutil.ParseResponse(t, w, &item)
		assert.Equal(t, "renamed", item.Description)
		assert.Equal(t, "Carol", item.Processor2Name)
	})

	t.Run("put with partial flag", func(t *testing.T) {
		w := testutil.DoRequest(f.Router, http.MethodPut, "/api/item/AB1",
			map[string]any{"partial": true, "landscape": "PRD"}, f.token)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		var item handler.ItemResp
		testutil.ParseResponse(t, w, &item)
		assert.Equal(t, "PRD", item.Landscape)
		assert.Equal(t, "renamed", item.Description)
	})

	t.Run("patch", func(t *testing.T) {
		w := testutil.DoRequest(f.Router, http.MethodPatch, "/api/item/AB1",
			map[string]any{"delivered_clients": 3, "processor2": nil}, f.token)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		var item handler.ItemResp
		testutil.ParseResponse(t, w, &item)
		require.NotNil(t, item.DeliveredClients)
		assert.Equal(t, 3, *item.DeliveredClients)
		assert.Nil(t, item.Processor2)
		assert.Equal(t, "PRD", item.Landscape)
	})

	t.Run("patch rejects invalid choice", func(t *testing.T) {
		w := testutil.DoRequest(f.Router, http.MethodPatch, "/api/item/AB1",
			map[string]any{"hardware": "AWS"}, f.token)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("change sid", func(t *testing.T) {
		w := testutil.DoRequest(f.Router, http.MethodPatch, "/api/item/AB1",
			map[string]any{"sid": "ZZ9"}, f.token)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		w = testutil.DoRequest(f.Router, http.MethodGet, "/api/item/AB1", nil, f.token)
		assert.Equal(t, http.StatusNotFound, w.Code)
		w = testutil.DoRequest(f.Router, http.MethodGet, "/api/item/ZZ9", nil, f.token)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("missing item", func(t *testing.T) {
		w := testutil.DoRequest(f.Router, http.MethodPatch, "/api/item/NOP",
			map[string]any{"landscape": "PRD"}, f.token)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestFullUpdateKeepsOmittedOptionalFields(t *testing.T) {
	f := newFixture(t)
	body := f.itemBody("AB1")
	body["delivery_date"] = "2024-05-02"
	body["revised_delivery_date"] = "2024-05-01"
	body["comments"] = "waiting on network"
	body["servicenow"] = "https://snow.example.com/RITM0001"
	body["processor2"] = f.processor2.ID
	f.createItem(t, body)

	full := f.itemBody("AB1")
	full["description"] = "renamed"
	w := testutil.DoRequest(f.Router, http.MethodPut, "/api/item/AB1", full, f.token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var item handler.ItemResp
	testutil.ParseResponse(t, w, &item)

	assert.Equal(t, "renamed", item.Description)
	assert.Equal(t, "2024-05-02", item.DeliveryDate.String())
	require.NotNil(t, item.RevisedDeliveryDate)
	assert.Equal(t, "2024-05-01", item.RevisedDeliveryDate.String())
	require.NotNil(t, item.Comments)
	assert.Equal(t, "waiting on network", *item.Comments)
	assert.Equal(t, "https://snow.example.com/RITM0001", item.ServiceNow)
	require.NotNil(t, item.Processor2)
	assert.Equal(t, f.processor2.ID, *item.Processor2)

	// 显式给出的 null 仍会清空可选字段
	full["comments"] = nil
	w = testutil.DoRequest(f.Router, http.MethodPut, "/api/item/AB1", full, f.token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	testutil.ParseResponse(t, w, &item)
	assert.Nil(t, item.Comments)

	t.Run("required field sent as null", func(t *testing.T) {
		body := f.itemBody("AB1")
		body["plo"] = nil
		w := testutil.DoRequest(f.Router, http.MethodPut, "/api/item/AB1", body, f.token)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "plo")
	})

	t.Run("missing item answers 404 before validation", func(t *testing.T) {
		w := testutil.DoRequest(f.Router, http.MethodPut, "/api/item/NOP",
			map[string]any{"status": "Quality Checks"}, f.token)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestItemTerminalStatusNotifiesOnce(t *testing.T) {
	f := newFixture(t)
	f.createItem(t, f.itemBody("AB1"))
	handedOver := map[string]any{"status": "Handedover to PLO"}

	w := testutil.DoRequest(f.Router, http.MethodPatch, "/api/item/AB1", handedOver, f.token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, []string{"AB1"}, f.Alerter.HandedOver)

	// 状态未变化时不重复通知
	w = testutil.DoRequest(f.Router, http.MethodPatch, "/api/item/AB1",
		map[string]any{"comments": "signed off"}, f.token)
	require.Equal(t, http.StatusOK, w.Code)
	w = testutil.DoRequest(f.Router, http.MethodPatch, "/api/item/AB1", handedOver, f.token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, f.Alerter.HandedOver, 1)

	// 离开终态后再次进入会再通知
	w = testutil.DoRequest(f.Router, http.MethodPatch, "/api/item/AB1",
		map[string]any{"status": "REBUILD"}, f.token)
	require.Equal(t, http.StatusOK, w.Code)
	w = testutil.DoRequest(f.Router, http.MethodPatch, "/api/item/AB1", handedOver, f.token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"AB1", "AB1"}, f.Alerter.HandedOver)
}

func TestCreateItemInTerminalStatus(t *testing.T) {
	f := newFixture(t)
	f.Alerter.Err = fmt.Errorf("smtp down")

	body := f.itemBody("AB1")
	body["status"] = "Handedover to PLO"
	// 通知失败不影响保存
	f.createItem(t, body)
	assert.Equal(t, []string{"AB1"}, f.Alerter.HandedOver)
}

func TestDeleteItemRemovesForecasts(t *testing.T) {
	f := newFixture(t)
	f.createItem(t, f.itemBody("AB1"))
	forecast := f.createForecast(t, f.forecastBody("AB1"))

	w := testutil.DoRequest(f.Router, http.MethodDelete, "/api/item/AB1", nil, f.token)
	require.Equal(t, http.StatusNoContent, w.Code)

	w = testutil.DoRequest(f.Router, http.MethodGet, "/api/item/AB1", nil, f.token)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = testutil.DoRequest(f.Router, http.MethodGet, fmt.Sprintf("/api/forecast/%d", forecast.ID), nil, f.token)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = testutil.DoRequest(f.Router, http.MethodDelete, "/api/item/AB1", nil, f.token)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
