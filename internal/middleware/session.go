package middleware

import (
    "context"
    "log/slog"
    "net/http"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/skillswap/internal/model"
)

// Resolver is implemented by session.Reconciler.
type Resolver interface {
    Resolve(ctx context.Context, device, token string) (model.SessionUser, bool, error)
}

// LoadSession resolves the device's session and stores it in the context
// for SessionFrom.  A signed-out device passes through untouched; a store
// failure is logged and treated as signed out.
func LoadSession(r Resolver, logger *slog.Logger) echo.MiddlewareFunc {
    if logger == nil {
        logger = slog.Default()
    }
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
            defer cancel()
            u, ok, err := r.Resolve(ctx, DeviceFrom(c), BearerToken(c))
            if err != nil {
                logger.Warn("session resolve failed", slog.String("device", DeviceFrom(c)), slog.Any("error", err))
            }
            if ok {
                c.Set(ctxSession, u)
            }
            return next(c)
        }
    }
}

// RequireSession rejects requests without a resolved session.  The body
// tells the client to show its sign-in prompt rather than an error.
func RequireSession() echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            if _, ok := SessionFrom(c); !ok {
                return c.JSON(http.StatusUnauthorized, echo.Map{
                    "error":   "sign in required",
                    "state":   "signed_out",
                    "message": "Please sign in to view your profile",
                })
            }
            return next(c)
        }
    }
}
