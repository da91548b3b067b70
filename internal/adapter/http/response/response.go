// Package response provides the JSON response builders of the status API.
// It keeps error bodies uniform across endpoints.
package response

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// ErrorDetail contains structured error information.
type ErrorDetail struct {
	// Code is a machine-readable error code
	Code string `json:"code"`

	// Message is a human-readable error message
	Message string `json:"message"`
}

// Error codes used in API responses.
const (
	CodeNotFound      = "not_found"
	CodeNotStarted    = "not_started"
	CodeInternalError = "internal_error"
)

// Error messages used in API responses.
const (
	MsgNotFound      = "Resource not found"
	MsgNotStarted    = "No collection run has started yet"
	MsgInternalError = "An unexpected error occurred"
)

// OK writes a 200 OK response with the given data.
func OK(c echo.Context, data any) error {
	return c.JSON(http.StatusOK, data)
}
