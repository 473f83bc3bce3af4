package handler // declare the package name; contains HTTP handlers

import (
    "context"
    "net/http" // net/http provides status codes and response helpers
    "time"

    "github.com/labstack/echo/v4" // echo is the web framework used for this project
    "gorm.io/gorm"
)

// Health is the health-check endpoint used by load balancers.  It answers
// 200 "ok" while the database responds to a ping and 503 otherwise.
func Health(db *gorm.DB) echo.HandlerFunc {
    return func(c echo.Context) error {
        sqlDB, err := db.DB()
        if err != nil {
            return c.String(http.StatusServiceUnavailable, "db unavailable")
        }
        ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
        defer cancel()
        if err := sqlDB.PingContext(ctx); err != nil {
            return c.String(http.StatusServiceUnavailable, "db unavailable")
        }
        return c.String(http.StatusOK, "ok")
    }
}
