package response

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupEcho() (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestHealth(t *testing.T) {
	c, rec := setupEcho()

	require.NoError(t, Health(c, "run-1", "3 minutes"))
	assert.Equal(t, http.StatusOK, rec.Code)

	var result HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, HealthResponse{Status: "ok", RunID: "run-1", Uptime: "3 minutes"}, result)
}

func TestErrorResponses(t *testing.T) {
	tests := []struct {
		name       string
		write      func(echo.Context) error
		wantStatus int
		wantCode   string
		wantMsg    string
	}{
		{name: "not found", write: NotFound, wantStatus: http.StatusNotFound, wantCode: CodeNotFound, wantMsg: MsgNotFound},
		{name: "not started", write: NotStarted, wantStatus: http.StatusServiceUnavailable, wantCode: CodeNotStarted, wantMsg: MsgNotStarted},
		{name: "internal", write: InternalServerError, wantStatus: http.StatusInternalServerError, wantCode: CodeInternalError, wantMsg: MsgInternalError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, rec := setupEcho()

			require.NoError(t, tt.write(c))
			assert.Equal(t, tt.wantStatus, rec.Code)

			var result ErrorDetail
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
			assert.Equal(t, tt.wantCode, result.Code)
			assert.Equal(t, tt.wantMsg, result.Message)
		})
	}
}

func TestOK(t *testing.T) {
	c, rec := setupEcho()

	require.NoError(t, OK(c, map[string]int{"done": 3}))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"done":3}`, rec.Body.String())
}
