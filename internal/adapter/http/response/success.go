package response

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status string `json:"status"`
	RunID  string `json:"run_id,omitempty"`
	Uptime string `json:"uptime"`
}

// Health writes a health check response.
func Health(c echo.Context, runID, uptime string) error {
	return c.JSON(http.StatusOK, &HealthResponse{
		Status: "ok",
		RunID:  runID,
		Uptime: uptime,
	})
}
