package http

import (
	"github.com/labstack/echo/v4"
)

// RegisterRoutes registers the status routes: /health at the root and the
// run endpoints under /api/v1.
func RegisterRoutes(e *echo.Echo, h *StatusHandler) {
	e.GET("/health", h.Health)

	api := e.Group("/api/v1")
	api.GET("/progress", h.Progress)
	api.GET("/ignored", h.Ignored)
}
