package middleware

import (
    "time"

    "github.com/labstack/echo/v4"
    "github.com/sirupsen/logrus"
)

// RequestLogger writes one logrus entry per request.  It must run inside
// RequestID so the id is already on the response.
func RequestLogger(log *logrus.Logger) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            start := time.Now()
            err := next(c)
            if err != nil {
                // Render now so the logged status is the one sent.
                c.Error(err)
            }

            req, res := c.Request(), c.Response()
            entry := log.WithFields(logrus.Fields{
                "id":         res.Header().Get(echo.HeaderXRequestID),
                "method":     req.Method,
                "uri":        req.RequestURI,
                "route":      c.Path(),
                "status":     res.Status,
                "latency_ms": time.Since(start).Milliseconds(),
                "remote_ip":  c.RealIP(),
                "bytes_out":  res.Size,
            })
            switch {
            case res.Status >= 500:
                entry.Error("request")
            case res.Status >= 400:
                entry.Warn("request")
            default:
                entry.Info("request")
            }
            return nil
        }
    }
}
