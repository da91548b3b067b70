package middleware

import (
	"fmt"
	"runtime/debug"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/flight-fares/fare-harvester/internal/adapter/http/response"
)

// Recover returns middleware that turns a handler panic into a 500 response.
// A panic in the status API must never take the collection run down with it.
func Recover(log zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) (err error) {
			defer func() {
				r := recover()
				if r == nil {
					return
				}

				msg := fmt.Sprintf("%v", r)
				if e, ok := r.(error); ok {
					msg = e.Error()
				}
				log.Error().
					Str("request_id", GetRequestID(c)).
					Str("panic", msg).
					Str("stack", string(debug.Stack())).
					Msg("Panic recovered")

				if !c.Response().Committed {
					err = response.InternalServerError(c)
				}
			}()

			return next(c)
		}
	}
}
