package middleware

import (
    "log/slog"
    "strconv"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/skillswap/internal/metrics"
)

// RequestLog writes one structured line per request and records it in m.
// m may be nil.
func RequestLog(logger *slog.Logger, m *metrics.Manager) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            start := time.Now()
            err := next(c)
            if err != nil {
                c.Error(err)
            }
            latency := time.Since(start)
            status := c.Response().Status
            route := c.Path()
            if route == "" {
                route = "unmatched"
            }

            m.ObserveHTTP(route, c.Request().Method, strconv.Itoa(status), latency.Seconds())

            level := slog.LevelInfo
            switch {
            case status >= 500:
                level = slog.LevelError
            case status >= 400:
                level = slog.LevelWarn
            }
            logger.LogAttrs(c.Request().Context(), level, "request",
                slog.String("method", c.Request().Method),
                slog.String("path", c.Request().URL.Path),
                slog.String("route", route),
                slog.Int("status", status),
                slog.Duration("latency", latency),
                slog.String("device", DeviceFrom(c)),
                slog.String("remote_ip", c.RealIP()),
            )
            return nil
        }
    }
}
