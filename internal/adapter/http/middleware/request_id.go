// Package middleware provides the status API middleware.
package middleware

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// Correlation headers.
const (
	RequestIDHeader = "X-Request-ID"
	RunIDHeader     = "X-Run-ID"

	requestIDKey = "request_id"
)

// RequestID returns middleware that tags every status response with the run
// it describes and with a request ID, propagated from the caller or minted.
func RequestID(runID string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			reqID := c.Request().Header.Get(RequestIDHeader)
			if reqID == "" {
				reqID = uuid.NewString()
			}
			c.Set(requestIDKey, reqID)

			h := c.Response().Header()
			h.Set(RequestIDHeader, reqID)
			if runID != "" {
				h.Set(RunIDHeader, runID)
			}
			return next(c)
		}
	}
}

// GetRequestID returns the request ID of c, or "" outside the middleware.
func GetRequestID(c echo.Context) string {
	id, _ := c.Get(requestIDKey).(string)
	return id
}
