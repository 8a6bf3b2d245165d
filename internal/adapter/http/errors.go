package http

import (
	"errors"
	"net/http"

	"makono-backend/internal/domain/document"
	domainLoan "makono-backend/internal/domain/loan"
	"makono-backend/internal/domain/notification"
	"makono-backend/internal/infrastructure/objectstore"

	"github.com/labstack/echo/v4"
)

func statusFor(err error) int {
	switch {
	case errors.Is(err, domainLoan.ErrValidation), errors.Is(err, objectstore.ErrUnsupportedRef):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domainLoan.ErrPermissionDenied):
		return http.StatusForbidden
	case errors.Is(err, domainLoan.ErrNotFound), errors.Is(err, document.ErrNotFound), errors.Is(err, notification.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domainLoan.ErrInvalidTransition):
		return http.StatusConflict
	case errors.Is(err, domainLoan.ErrPersistence):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// writeError maps usecase errors to status codes. Unknown errors are not echoed to the client.
func writeError(c echo.Context, err error) error {
	code := statusFor(err)
	msg := err.Error()
	if code == http.StatusInternalServerError {
		msg = "internal error"
	}
	return c.JSON(code, ErrorResponse{Error: msg})
}

// bind decodes and validates the request into dst. It writes the 400/422 response itself
// and reports false when the handler should stop.
func bind(c echo.Context, dst any) (bool, error) {
	if err := c.Bind(dst); err != nil {
		return false, c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if err := c.Validate(dst); err != nil {
		return false, c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "validation failed",
			Details: ToFieldErrors(err),
		})
	}
	return true, nil
}

// idParam reads a hex32 path parameter.
func idParam(c echo.Context, name string) (string, bool, error) {
	v := c.Param(name)
	if v == "" {
		return "", false, c.JSON(http.StatusBadRequest, ErrorResponse{Error: "missing " + name + " path param"})
	}
	if !reHex32.MatchString(v) {
		return "", false, c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid path param",
			Details: []FieldError{{Field: name, Message: "must be 32-char lowercase hex"}},
		})
	}
	return v, true, nil
}
