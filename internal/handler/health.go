package handler // declare the package name; contains HTTP handlers

import (
    "context"
    "net/http"
    "time"

    "github.com/labstack/echo/v4"
)

// Health is a liveness endpoint for load balancers.  It returns a plain
// text "ok" with 200 as long as the process is serving.
func Health(c echo.Context) error {
    return c.String(http.StatusOK, "ok")
}

// Pinger is a dependency that can report whether it is reachable.
type Pinger interface {
    Ping(ctx context.Context) error
}

// PingFunc adapts a function to Pinger.
type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

// ReadyHandler reports whether every named dependency answers.
type ReadyHandler struct {
    Checks map[string]Pinger
}

// Ready returns 200 when all checks pass and 503 with the failing names
// otherwise.
func (h *ReadyHandler) Ready(c echo.Context) error {
    ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
    defer cancel()
    status := http.StatusOK
    out := make(map[string]string, len(h.Checks))
    for name, p := range h.Checks {
        if err := p.Ping(ctx); err != nil {
            out[name] = "down"
            status = http.StatusServiceUnavailable
            continue
        }
        out[name] = "up"
    }
    return c.JSON(status, echo.Map{"checks": out})
}
