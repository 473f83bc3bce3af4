package config

import (
    "os"
    "strconv"
    "strings"
    "time"
)

// Rate limit key strategies.  Sign-up and sign-in are anonymous, so buckets
// are keyed by client address, route or both.
const (
    RateKeyIP      = "ip"
    RateKeyRoute   = "route"
    RateKeyIPRoute = "ip_route"
)

// RateLimitConfig tunes the token buckets that guard customer sign-up and
// sign-in.  Sign-in also gets a bucket per submitted account.
type RateLimitConfig struct {
    Enabled        bool
    Capacity       int
    RefillTokens   int
    RefillInterval time.Duration
    TTL            time.Duration
    KeyStrategy    string
    Prefix         string
    Debug          bool // expose the bucket key in X-RateLimit-Key
}

// LoadRateLimitConfig reads RATE_LIMIT_* variables.  Out-of-range numbers
// are clamped and an unknown strategy falls back to ip_route.
func LoadRateLimitConfig() RateLimitConfig {
    cfg := RateLimitConfig{
        Enabled:        envBool("RATE_LIMIT_ENABLED", true),
        Capacity:       envInt("RATE_LIMIT_CAPACITY", 10),
        RefillTokens:   envInt("RATE_LIMIT_REFILL_TOKENS", 1),
        RefillInterval: envDur("RATE_LIMIT_REFILL_INTERVAL", 6*time.Second),
        TTL:            envDur("RATE_LIMIT_TTL", 10*time.Minute),
        KeyStrategy:    strings.ToLower(envStr("RATE_LIMIT_KEY_STRATEGY", RateKeyIPRoute)),
        Prefix:         envStr("RATE_LIMIT_PREFIX", "rl"),
        Debug:          envBool("RATE_LIMIT_DEBUG", false),
    }
    cfg.Capacity = max(cfg.Capacity, 1)
    cfg.RefillTokens = max(cfg.RefillTokens, 1)
    if cfg.RefillInterval <= 0 {
        cfg.RefillInterval = time.Second
    }
    // An idle bucket must outlive a full refill.
    cfg.TTL = max(cfg.TTL, 5*cfg.RefillInterval)
    switch cfg.KeyStrategy {
    case RateKeyIP, RateKeyRoute, RateKeyIPRoute:
    default:
        cfg.KeyStrategy = RateKeyIPRoute
    }
    return cfg
}

func envStr(k, d string) string {
    if v := os.Getenv(k); v != "" {
        return v
    }
    return d
}

func envBool(k string, d bool) bool {
    if b, err := strconv.ParseBool(strings.TrimSpace(os.Getenv(k))); err == nil {
        return b
    }
    switch strings.ToLower(os.Getenv(k)) {
    case "yes", "on":
        return true
    case "no", "off":
        return false
    }
    return d
}

func envInt(k string, d int) int {
    if n, err := strconv.Atoi(os.Getenv(k)); err == nil {
        return n
    }
    return d
}

func envDur(k string, d time.Duration) time.Duration {
    if dur, err := time.ParseDuration(os.Getenv(k)); err == nil {
        return dur
    }
    return d
}
