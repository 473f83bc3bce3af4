package middleware

import (
    "context"
    "time"

    "github.com/labstack/echo/v4"
)

// Deadline bounds every request by d.  Repository calls take the request
// context, so a stuck query is cancelled instead of holding a connection.
func Deadline(d time.Duration) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        if d <= 0 {
            return next
        }
        return func(c echo.Context) error {
            ctx, cancel := context.WithTimeout(c.Request().Context(), d)
            defer cancel()
            c.SetRequest(c.Request().WithContext(ctx))
            return next(c)
        }
    }
}
