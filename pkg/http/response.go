package http

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// Error envelope: every non-2xx response is {"error": ..., "details": ...}.
// Success payloads are returned as-is; models carry their own provenance
// fields (_source, _timestamp, _status).

// ErrorBody is the wire shape of error responses.
type ErrorBody struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// JSON writes a success payload with an optional Cache-Control max-age.
func JSON(c echo.Context, payload interface{}, maxAge time.Duration) error {
	if maxAge > 0 {
		c.Response().Header().Set(echo.HeaderCacheControl,
			fmt.Sprintf("public, max-age=%d", int(maxAge.Seconds())))
	}
	return c.JSON(http.StatusOK, payload)
}

// ErrorResponse writes an error envelope with the given status.
func ErrorResponse(c echo.Context, status int, message string, details ...string) error {
	body := ErrorBody{Error: message}
	if len(details) > 0 {
		body.Details = details[0]
	}
	return c.JSON(status, body)
}

// AppErrorResponse maps an error to the envelope; unknown errors become 500.
func AppErrorResponse(c echo.Context, err error) error {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return c.JSON(appErr.Status, appErr)
	}
	return ErrorResponse(c, http.StatusInternalServerError, "internal error")
}

// NotFoundEmpty writes the "no data yet" 404 shape: distinct from a real
// failure, the body carries _status "empty" so clients keep their skeleton UI.
func NotFoundEmpty(c echo.Context, key string) error {
	return c.JSON(http.StatusNotFound, map[string]interface{}{
		"error":   "no data available",
		"details": fmt.Sprintf("key %q has not been populated yet", key),
		"_status": "empty",
	})
}

// BadRequestResponse writes validation errors with a 400 status.
func BadRequestResponse(c echo.Context, verr interface{}) error {
	return c.JSON(http.StatusBadRequest, map[string]interface{}{
		"error":   "invalid request",
		"details": verr,
	})
}
