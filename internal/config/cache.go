package config

import (
    "strings"
    "time"
)

// CacheConfig defines settings for the response cache middleware.  Only GET
// responses with status 200 are stored; any successful write to a resource
// bumps that resource's generation so stale list pages are never served.
// When Enabled is false or no Redis client is configured, caching is off.
type CacheConfig struct {
    Enabled      bool
    TTL          time.Duration
    Prefix       string
    MaxBodyBytes int
}

// LoadCacheConfig reads CACHE_* variables, falling back to defaults.
func LoadCacheConfig() CacheConfig {
    return CacheConfig{
        Enabled:      envBool("CACHE_ENABLED", true),
        TTL:          envDur("CACHE_TTL", 30*time.Second),
        Prefix:       strings.TrimSpace(envStr("CACHE_PREFIX", "cache")),
        MaxBodyBytes: envInt("CACHE_MAX_BODY_BYTES", 1<<20),
    }
}
