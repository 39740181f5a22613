package config

import (
    "testing"
    "time"
)

func TestRateLimitConfigClampsValues(t *testing.T) {
    t.Setenv("RATE_LIMIT_CAPACITY", "0")
    t.Setenv("RATE_LIMIT_REFILL_INTERVAL", "2s")
    t.Setenv("RATE_LIMIT_TTL", "1s")

    cfg := LoadRateLimitConfig()
    if cfg.Capacity != 1 {
        t.Fatalf("capacity = %d, want 1", cfg.Capacity)
    }
    if cfg.TTL != 10*time.Second {
        t.Fatalf("ttl = %v, want 10s", cfg.TTL)
    }
    if cfg.KeyStrategy != "device_route" {
        t.Fatalf("unexpected default key strategy %q", cfg.KeyStrategy)
    }
}

func TestCacheConfigMethods(t *testing.T) {
    t.Setenv("CACHE_METHODS", "get, head,")
    t.Setenv("CACHE_ENABLED", "off")

    cfg := LoadCacheConfig()
    if cfg.Enabled {
        t.Fatal("expected cache to be disabled")
    }
    if !cfg.Methods["GET"] || !cfg.Methods["HEAD"] || len(cfg.Methods) != 2 {
        t.Fatalf("unexpected methods %v", cfg.Methods)
    }
}

func TestRedisOptionsHostPortOverride(t *testing.T) {
    t.Setenv("REDIS_ADDR", "cache:6380")
    t.Setenv("REDIS_HOST", "redis")
    t.Setenv("REDIS_PORT", "6379")
    t.Setenv("REDIS_DB", "2")

    opts := RedisOptions()
    if opts.Addr != "redis:6379" || opts.DB != 2 {
        t.Fatalf("unexpected options addr=%q db=%d", opts.Addr, opts.DB)
    }
}

func TestLoadOptionalDefaults(t *testing.T) {
    for k, v := range map[string]string{
        "APP_ENV": "test", "APP_PORT": "8080", "DB_USER": "root", "DB_HOST": "localhost",
        "DB_PORT": "3306", "DB_NAME": "skillswap", "JWT_SECRET": "s", "BCRYPT_COST": "4",
    } {
        t.Setenv(k, v)
    }
    cfg := Load()
    if cfg.BookingSubmitter != "delay" || cfg.BookingDelay != time.Second {
        t.Fatalf("unexpected booking defaults %q %v", cfg.BookingSubmitter, cfg.BookingDelay)
    }
    if cfg.ResetTTL != 30*time.Minute || cfg.SessionTTLMin != 1440 {
        t.Fatalf("unexpected identity defaults %v %d", cfg.ResetTTL, cfg.SessionTTLMin)
    }
}
