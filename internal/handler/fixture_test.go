package handler_test

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/raids-lab/buildtracker/dao/model"
	"github.com/raids-lab/buildtracker/internal/handler"
	"github.com/raids-lab/buildtracker/internal/testutil"
)

// fixture is an environment with one staff user, one PLO and two processors.
type fixture struct {
	*testutil.TestEnv
	token      string
	plo        *model.PLO
	processor1 *model.Processor
	processor2 *model.Processor
}

func newFixture(t *testing.T) *fixture {
	env := testutil.Setup(t)
	user := env.SeedUser("alice", true, false)
	return &fixture{
		TestEnv:    env,
		token:      env.TokenFor(user),
		plo:        env.SeedPLO("Finance"),
		processor1: env.SeedProcessor("Bob"),
		processor2: env.SeedProcessor("Carol"),
	}
}

func (f *fixture) itemBody(sid string) map[string]any {
	return map[string]any{
		"sid":               sid,
		"requested_date":    "2024-03-15",
		"flavour":           "S/4H Private",
		"estimated_clients": 4,
		"bfs":               "Single",
		"t_shirt_size":      "Medium",
		"system_type":       "Sandbox",
		"hardware":          "GCP",
		"setup":             "Standard",
		"plo":               f.plo.ID,
		"processor1":        f.processor1.ID,
		"status":            "Installation",
		"landscape":         "DEV",
		"description":       "sandbox for the pilot",
		"expected_delivery": "2024-04-30",
	}
}

func (f *fixture) createItem(t *testing.T, body map[string]any) handler.ItemResp {
	t.Helper()
	w := testutil.DoRequest(f.Router, http.MethodPost, "/api/item", body, f.token)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var item handler.ItemResp
	testutil.ParseResponse(t, w, &item)
	return item
}

func (f *fixture) forecastBody(itemSID string) map[string]any {
	return map[string]any{
		"item_sid":           itemSID,
		"sid":                "FC1",
		"clients":            2,
		"bfs":                "Multi",
		"system_description": "follow-up system",
		"time_weeks":         3,
		"landscape":          "QAS",
		"frontend":           "Fiori",
		"requester":          f.plo.ID,
	}
}

func (f *fixture) createForecast(t *testing.T, body map[string]any) handler.ForecastResp {
	t.Helper()
	w := testutil.DoRequest(f.Router, http.MethodPost, "/api/forecast", body, f.token)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var forecast handler.ForecastResp
	testutil.ParseResponse(t, w, &forecast)
	return forecast
}

// listResp decodes payload.ListResp without fixing the row type.
type listResp[T any] struct {
	Rows  []T   `json:"rows"`
	Count int64 `json:"count"`
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v), string(raw))
	return v
}
