package middleware

import (
	"makono-backend/pkg/id"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
)

// RequestID echoes Ax-Request-Id back on the response, generating one when absent.
// The request header is left untouched, so idempotency still sees what the client sent.
func RequestID() echo.MiddlewareFunc {
	return echomw.RequestIDWithConfig(echomw.RequestIDConfig{
		Generator:    id.NewRequestID,
		TargetHeader: HeaderRequestID,
	})
}
