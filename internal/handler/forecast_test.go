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

func TestForecastCRUD(t *testing.T) {
	f := newFixture(t)
	f.createItem(t, f.itemBody("AB1"))

	body := f.forecastBody("AB1")
	delete(body, "requester")
	created := f.createForecast(t, body)
	assert.Equal(t, "AB1", created.ItemSID)
	assert.Equal(t, "TBD", string(created.AssignedTo))
	assert.Nil(t, created.Requester)
	path := fmt.Sprintf("/api/forecast/%d", created.ID)

	t.Run("patch", func(t *testing.T) {
		w := testutil.DoRequest(f.Router, http.MethodPatch, path,
			map[string]any{"assigned_to": "ODC", "requester": f.plo.ID}, f.token)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		var got handler.ForecastResp
		testutil.ParseResponse(t, w, &got)
		assert.Equal(t, "ODC", string(got.AssignedTo))
		assert.Equal(t, "Finance", got.RequesterName)
		assert.Equal(t, "follow-up system", got.SystemDescription)
		assert.Equal(t, "AB1", got.ItemSID)
	})

	t.Run("put keeps omitted optional fields", func(t *testing.T) {
		body := f.forecastBody("AB1")
		body["frontend"] = "WebGUI"
		w := testutil.DoRequest(f.Router, http.MethodPut, path, body, f.token)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		var got handler.ForecastResp
		testutil.ParseResponse(t, w, &got)
		assert.Equal(t, "WebGUI", got.Frontend)
		// assigned_to 未提供，保留上一次的值
		assert.Equal(t, "ODC", string(got.AssignedTo))
	})

	t.Run("put needs the required fields", func(t *testing.T) {
		body := f.forecastBody("AB1")
		delete(body, "frontend")
		w := testutil.DoRequest(f.Router, http.MethodPut, path, body, f.token)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "frontend")
	})

	t.Run("list by item", func(t *testing.T) {
		f.createItem(t, f.itemBody("AB2"))
		f.createForecast(t, f.forecastBody("AB2"))

		w := testutil.DoRequest(f.Router, http.MethodGet, "/api/forecast?item_sid=AB1", nil, f.token)
		require.Equal(t, http.StatusOK, w.Code)
		list := decode[listResp[handler.ForecastResp]](t, testutil.ParseResponse(t, w, nil).Data)
		require.Len(t, list.Rows, 1)
		assert.Equal(t, created.ID, list.Rows[0].ID)

		w = testutil.DoRequest(f.Router, http.MethodGet, "/api/forecast", nil, f.token)
		require.Equal(t, http.StatusOK, w.Code)
		list = decode[listResp[handler.ForecastResp]](t, testutil.ParseResponse(t, w, nil).Data)
		assert.EqualValues(t, 2, list.Count)
	})

	t.Run("delete", func(t *testing.T) {
		w := testutil.DoRequest(f.Router, http.MethodDelete, path, nil, f.token)
		assert.Equal(t, http.StatusNoContent, w.Code)
		w = testutil.DoRequest(f.Router, http.MethodGet, path, nil, f.token)
		assert.Equal(t, http.StatusNotFound, w.Code)
		// item 不受影响
		w = testutil.DoRequest(f.Router, http.MethodGet, "/api/item/AB1", nil, f.token)
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestForecastClientsDefault(t *testing.T) {
	f := newFixture(t)
	f.createItem(t, f.itemBody("AB1"))

	get := func(t *testing.T, id uint) handler.ForecastResp {
		t.Helper()
		w := testutil.DoRequest(f.Router, http.MethodGet, fmt.Sprintf("/api/forecast/%d", id), nil, f.token)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		var got handler.ForecastResp
		testutil.ParseResponse(t, w, &got)
		return got
	}

	t.Run("absent clients defaults to zero", func(t *testing.T) {
		body := f.forecastBody("AB1")
		delete(body, "clients")
		created := f.createForecast(t, body)
		got := get(t, created.ID)
		require.NotNil(t, got.Clients)
		assert.Equal(t, 0, *got.Clients)
	})

	t.Run("explicit null is stored as null", func(t *testing.T) {
		body := f.forecastBody("AB1")
		body["clients"] = nil
		created := f.createForecast(t, body)
		assert.Nil(t, created.Clients)
		assert.Nil(t, get(t, created.ID).Clients)
	})
}

func TestCreateForecastRejectsInvalidInput(t *testing.T) {
	f := newFixture(t)
	f.createItem(t, f.itemBody("AB1"))

	tests := []struct {
		name    string
		changes map[string]any
		msg     string
	}{
		{"missing item", map[string]any{"item_sid": ""}, "item_sid: this field is required"},
		{"unknown item", map[string]any{"item_sid": "NOP"}, `item_sid: invalid pk "NOP"`},
		{"unknown requester", map[string]any{"requester": 999}, `requester: invalid pk "999"`},
		{"bad assigned_to", map[string]any{"assigned_to": "XYZ"}, "assigned_to"},
		{"negative weeks", map[string]any{"time_weeks": -2}, "time_weeks"},
		{"missing frontend", map[string]any{"frontend": ""}, "frontend: this field is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := f.forecastBody("AB1")
			for k, v := range tt.changes {
				body[k] = v
			}
			w := testutil.DoRequest(f.Router, http.MethodPost, "/api/forecast", body, f.token)
			require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
			resp := testutil.ParseResponse(t, w, nil)
			assert.Contains(t, resp.Msg, tt.msg)
		})
	}
}
