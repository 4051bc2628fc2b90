package internal_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raids-lab/buildtracker/internal/testutil"
)

func TestHealthz(t *testing.T) {
	env := testutil.Setup(t)

	w := testutil.DoRequest(env.Router, http.MethodGet, "/v1/healthz", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"ok"}`, w.Body.String())
}

func TestMetricsCountsItemsByStatus(t *testing.T) {
	env := testutil.Setup(t)
	token := env.TokenFor(env.SeedUser("alice", false, false))
	plo := env.SeedPLO("Finance")
	processor := env.SeedProcessor("Bob")

	w := testutil.DoRequest(env.Router, http.MethodPost, "/api/item", map[string]any{
		"sid":               "AB1",
		"requested_date":    "2024-03-15",
		"flavour":           "S/4H OP",
		"bfs":               "Multi",
		"t_shirt_size":      "Large",
		"system_type":       "Production",
		"hardware":          "Azure",
		"setup":             "Standard",
		"plo":               plo.ID,
		"processor1":        processor.ID,
		"status":            "Quality Checks",
		"landscape":         "PRD",
		"description":       "go-live",
		"expected_delivery": "2024-06-01",
	}, token)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = testutil.DoRequest(env.Router, http.MethodGet, "/metrics", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `buildtracker_items{status="Quality Checks"} 1`)
	assert.Contains(t, body, `buildtracker_items{status="Cancelled"} 0`)
	assert.Contains(t, body, `buildtracker_http_requests_total{code="201",method="POST",route="/api/item"}`)
}

func TestUnknownRoute(t *testing.T) {
	env := testutil.Setup(t)

	w := testutil.DoRequest(env.Router, http.MethodGet, "/api/nothing-here", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}
