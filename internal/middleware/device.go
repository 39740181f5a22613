package middleware

import (
    "net/http"
    "regexp"
    "time"

    "github.com/google/uuid"
    "github.com/labstack/echo/v4"
)

const (
    // DeviceHeader carries the device id on requests and responses.
    DeviceHeader = "X-Device-Id"
    // DeviceCookie is the cookie fallback for browsers.
    DeviceCookie = "device_id"
)

var deviceIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{8,64}$`)

// DeviceID identifies the calling device from the X-Device-Id header or
// the device_id cookie.  A device that sends neither, or sends a malformed
// id, is given a new uuid, returned in both the header and a cookie.
func DeviceID(secureCookie bool) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            id := c.Request().Header.Get(DeviceHeader)
            if id == "" {
                if ck, err := c.Cookie(DeviceCookie); err == nil {
                    id = ck.Value
                }
            }
            if !deviceIDPattern.MatchString(id) {
                id = uuid.NewString()
                c.SetCookie(&http.Cookie{
                    Name:     DeviceCookie,
                    Value:    id,
                    Path:     "/",
                    Expires:  time.Now().Add(365 * 24 * time.Hour),
                    HttpOnly: true,
                    Secure:   secureCookie,
                    SameSite: http.SameSiteLaxMode,
                })
            }
            c.Set(ctxDevice, id)
            c.Response().Header().Set(DeviceHeader, id)
            return next(c)
        }
    }
}
