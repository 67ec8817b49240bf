package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	applogger "taometrics/pkg/logger"

	"github.com/labstack/echo/v4"
)

// Recover returns recovery middleware. Nothing crashes the process: a panic
// inside a handler becomes a 500 with the standard error envelope.
func Recover(l *applogger.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			defer func() {
				if r := recover(); r != nil {
					err, ok := r.(error)
					if !ok {
						err = fmt.Errorf("%v", r)
					}
					if l != nil {
						l.Error("panic recovered",
							applogger.Error(err),
							applogger.String("stack", string(debug.Stack())),
						)
					}
					_ = c.JSON(http.StatusInternalServerError, map[string]interface{}{
						"error": "internal error",
					})
				}
			}()
			return next(c)
		}
	}
}
