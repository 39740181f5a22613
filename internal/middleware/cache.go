package middleware

import (
    "bytes"
    "context"
    "crypto/sha1"
    "encoding/binary"
    "encoding/json"
    "fmt"
    "net/http"
    "strings"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"

    "github.com/iliyamo/skillswap/internal/config"
    "github.com/iliyamo/skillswap/internal/metrics"
)

// captureWriter tees the response body into buf (up to limit bytes) while
// forwarding everything to the client.
type captureWriter struct {
    http.ResponseWriter
    status int
    buf    bytes.Buffer
    limit  int
}

func (cw *captureWriter) WriteHeader(code int) { cw.status = code; cw.ResponseWriter.WriteHeader(code) }

func (cw *captureWriter) Write(b []byte) (int, error) {
    if room := cw.limit - cw.buf.Len(); cw.limit <= 0 {
        cw.buf.Write(b)
    } else if room > 0 {
        cw.buf.Write(b[:min(len(b), room)])
    }
    return cw.ResponseWriter.Write(b)
}

// cacheKey hashes method, request path and raw query.  Catalog responses
// do not depend on the caller, so the device is not part of the key.
func cacheKey(prefix string, c echo.Context) string {
    r := c.Request()
    sum := sha1.Sum([]byte(r.Method + " " + r.URL.Path + "?" + r.URL.RawQuery))
    return fmt.Sprintf("%s:%x", prefix, sum[:])
}

// cached responses are packed as [4 bytes status][4 bytes header len][header JSON][body].
func encodePayload(status int, header http.Header, body []byte) ([]byte, error) {
    hdrJSON, err := json.Marshal(header)
    if err != nil {
        return nil, err
    }
    out := make([]byte, 8, 8+len(hdrJSON)+len(body))
    binary.BigEndian.PutUint32(out[0:4], uint32(status))
    binary.BigEndian.PutUint32(out[4:8], uint32(len(hdrJSON)))
    out = append(out, hdrJSON...)
    return append(out, body...), nil
}

func decodePayload(bs []byte) (status int, header http.Header, body []byte, ok bool) {
    if len(bs) < 8 {
        return 0, nil, nil, false
    }
    status = int(binary.BigEndian.Uint32(bs[0:4]))
    hlen := int(binary.BigEndian.Uint32(bs[4:8]))
    if hlen < 0 || 8+hlen > len(bs) {
        return 0, nil, nil, false
    }
    header = make(http.Header)
    if hlen > 0 {
        if err := json.Unmarshal(bs[8:8+hlen], &header); err != nil {
            return 0, nil, nil, false
        }
    }
    return status, header, bs[8+hlen:], true
}

// perRequestHeader reports headers that belong to one caller and must not
// be replayed from the cache.
func perRequestHeader(k string) bool {
    switch http.CanonicalHeaderKey(k) {
    case echo.HeaderContentLength, echo.HeaderSetCookie, DeviceHeader,
        "X-Ratelimit-Limit", "X-Ratelimit-Remaining", "Retry-After":
        return true
    }
    return false
}

// NewRedisCache caches successful responses of the wrapped routes in Redis.
// Responses larger than cfg.MaxBodyBytes are served but not stored.  It is a
// pass-through when disabled or when rdb is nil.
func NewRedisCache(cfg config.CacheConfig, rdb *redis.Client, m *metrics.Manager) echo.MiddlewareFunc {
    if !cfg.Enabled || rdb == nil {
        return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
    }
    ttl := cfg.TTL
    if ttl <= 0 {
        ttl = 30 * time.Second
    }

    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            if !cfg.Methods[strings.ToUpper(c.Request().Method)] {
                return next(c)
            }
            ctx := c.Request().Context()
            key := cacheKey(cfg.Prefix, c)

            if bs, err := rdb.Get(ctx, key).Bytes(); err == nil {
                if status, hdr, body, ok := decodePayload(bs); ok {
                    m.CacheLookup(true)
                    for k, vals := range hdr {
                        if perRequestHeader(k) {
                            continue
                        }
                        for _, v := range vals {
                            c.Response().Header().Add(k, v)
                        }
                    }
                    c.Response().Header().Set("X-Cache", "HIT")
                    c.Response().WriteHeader(status)
                    _, err := c.Response().Write(body)
                    return err
                }
            }
            m.CacheLookup(false)

            limit := 0
            if cfg.MaxBodyBytes > 0 {
                limit = cfg.MaxBodyBytes + 1
            }
            cw := &captureWriter{ResponseWriter: c.Response().Writer, status: http.StatusOK, limit: limit}
            c.Response().Writer = cw
            c.Response().Header().Set("X-Cache", "MISS")
            if err := next(c); err != nil {
                return err
            }
            if cw.status != http.StatusOK || (cfg.MaxBodyBytes > 0 && cw.buf.Len() > cfg.MaxBodyBytes) {
                return nil
            }

            hdr := make(http.Header)
            for k, vals := range c.Response().Header() {
                if !perRequestHeader(k) && k != "X-Cache" {
                    hdr[k] = append([]string(nil), vals...)
                }
            }
            if payload, err := encodePayload(cw.status, hdr, cw.buf.Bytes()); err == nil {
                _ = rdb.Set(context.WithoutCancel(ctx), key, payload, ttl).Err()
            }
            return nil
        }
    }
}
