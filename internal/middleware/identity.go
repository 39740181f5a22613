package middleware

// identity.go holds the context keys and accessors shared by the middleware
// and the handlers: the device id, the bearer token and the resolved
// session user.

import (
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/skillswap/internal/model"
)

const (
    ctxDevice  = "device_id"
    ctxSession = "session_user"
)

// DeviceFrom returns the device id set by DeviceID, or "" outside it.
func DeviceFrom(c echo.Context) string {
    if v, ok := c.Get(ctxDevice).(string); ok {
        return v
    }
    return ""
}

// BearerToken returns the token from "Authorization: Bearer <token>", or
// "" when the header is missing or malformed.
func BearerToken(c echo.Context) string {
    auth := c.Request().Header.Get(echo.HeaderAuthorization)
    if len(auth) < 7 || !strings.EqualFold(auth[:7], "Bearer ") {
        return ""
    }
    return strings.TrimSpace(auth[7:])
}

// SessionFrom returns the user resolved by LoadSession.
func SessionFrom(c echo.Context) (model.SessionUser, bool) {
    u, ok := c.Get(ctxSession).(model.SessionUser)
    return u, ok
}

// rateIdentity keys rate limits by device, falling back to "anon" for
// requests that reach the limiter without one.
func rateIdentity(c echo.Context) string {
    if d := DeviceFrom(c); d != "" {
        return d
    }
    return "anon"
}
