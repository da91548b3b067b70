package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flight-fares/fare-harvester/internal/adapter/http/response"
)

func serve(e *echo.Echo, header string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	if header != "" {
		req.Header.Set(RequestIDHeader, header)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestRequestID(t *testing.T) {
	tests := []struct {
		name   string
		header string
		runID  string
	}{
		{name: "generates a new ID", header: "", runID: "run-7"},
		{name: "propagates the caller ID", header: "existing-request-id-12345", runID: "run-7"},
		{name: "no run yet", header: "", runID: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			var seen string
			e.Use(RequestID(tt.runID))
			e.GET("/test", func(c echo.Context) error {
				seen = GetRequestID(c)
				return c.NoContent(http.StatusOK)
			})

			rec := serve(e, tt.header)

			got := rec.Header().Get(RequestIDHeader)
			assert.Equal(t, seen, got)
			if tt.header != "" {
				assert.Equal(t, tt.header, got)
			} else {
				assert.Len(t, got, 36)
			}
			assert.Equal(t, tt.runID, rec.Header().Get(RunIDHeader))
		})
	}
}

func TestGetRequestID_Missing(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	assert.Empty(t, GetRequestID(c))
}

func TestRequestLogger_LevelByStatus(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		wantLevel string
	}{
		{name: "success is debug", status: http.StatusOK, wantLevel: "debug"},
		{name: "client error is warn", status: http.StatusNotFound, wantLevel: "warn"},
		{name: "server error is error", status: http.StatusServiceUnavailable, wantLevel: "error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			log := zerolog.New(&buf).Level(zerolog.DebugLevel)

			e := echo.New()
			Setup(e, log, "run-7")
			e.GET("/test", func(c echo.Context) error {
				return c.NoContent(tt.status)
			})

			rec := serve(e, "req-1")
			assert.Equal(t, tt.status, rec.Code)

			var entry map[string]any
			require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
			assert.Equal(t, tt.wantLevel, entry["level"])
			assert.Equal(t, "req-1", entry["request_id"])
			assert.Equal(t, "/test", entry["path"])
			assert.Equal(t, float64(tt.status), entry["status"])
		})
	}
}

func TestRecover(t *testing.T) {
	var buf bytes.Buffer
	log := zerolog.New(&buf)

	e := echo.New()
	Setup(e, log, "run-7")
	e.GET("/test", func(c echo.Context) error {
		panic("boom")
	})

	rec := serve(e, "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	var body response.ErrorDetail
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, response.CodeInternalError, body.Code)
	assert.Contains(t, buf.String(), `"panic":"boom"`)

	// the server keeps serving after a panic
	e.GET("/ok", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	req := httptest.NewRequest(http.MethodGet, "/ok", nil)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}
