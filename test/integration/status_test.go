package integration

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	statushttp "github.com/flight-fares/fare-harvester/internal/adapter/http"
	"github.com/flight-fares/fare-harvester/internal/adapter/http/response"
)

func TestStatus_BeforeRun(t *testing.T) {
	h := NewHarness(t, fullFetcher(4), Options{})
	api := NewStatusAPI(h)

	resp := api.Get("/api/v1/progress")
	require.Equal(t, http.StatusServiceUnavailable, resp.Code)

	var body response.ErrorDetail
	resp.Decode(t, &body)
	assert.Equal(t, response.CodeNotStarted, body.Code)

	ignored := api.Get("/api/v1/ignored")
	require.Equal(t, http.StatusOK, ignored.Code)
	assert.JSONEq(t, `{"count":0,"pairs":[]}`, string(ignored.Body))
}

func TestStatus_AfterRun(t *testing.T) {
	h := NewHarness(t, fullFetcher(4).WithRecords("SHA", "CTU", 0), Options{})
	api := NewStatusAPI(h)
	plan := h.Plan(t, testCities, 2, 3, true)
	h.Run(t, plan)

	var progress statushttp.ProgressResponse
	resp := api.Get("/api/v1/progress")
	require.Equal(t, http.StatusOK, resp.Code)
	resp.Decode(t, &progress)
	assert.Equal(t, 3, progress.Pairs)
	assert.Equal(t, 2, progress.FilesWritten)
	assert.Equal(t, 1, progress.Ignored)
	assert.Equal(t, 100.0, progress.Percent)
	assert.Equal(t, progress.Total, progress.Done)

	var ignored statushttp.IgnoredResponse
	resp = api.Get("/api/v1/ignored")
	require.Equal(t, http.StatusOK, resp.Code)
	resp.Decode(t, &ignored)
	assert.Equal(t, statushttp.IgnoredResponse{Count: 1, Pairs: []string{"CTU-SHA"}}, ignored)
}

func TestStatus_HealthReportsRunAndUptime(t *testing.T) {
	h := NewHarness(t, fullFetcher(4), Options{})
	api := NewStatusAPI(h)
	h.Clock.Advance(2 * time.Hour)

	var health response.HealthResponse
	resp := api.Get("/health")
	require.Equal(t, http.StatusOK, resp.Code)
	resp.Decode(t, &health)
	assert.Equal(t, response.HealthResponse{Status: "ok", RunID: "run-it", Uptime: "2 hours"}, health)
}
