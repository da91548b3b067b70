package middleware

import (
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// Setup registers the status API middleware of run runID in order: request ID
// first so every log line carries it, then the request logger, then panic
// recovery closest to the handlers.
func Setup(e *echo.Echo, log zerolog.Logger, runID string) {
	e.Use(RequestID(runID))
	e.Use(RequestLogger(log))
	e.Use(Recover(log))
}
