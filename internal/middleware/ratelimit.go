package middleware

import (
    "bytes"
    "encoding/json"
    "io"
    "net/http"
    "strconv"
    "strings"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"
    "github.com/sirupsen/logrus"

    "github.com/iliyamo/cinema-backoffice/internal/config"
)

// takeToken refills the bucket in whole intervals, then takes one token.
// KEYS[1] bucket hash; ARGV: now ms, capacity, tokens per interval,
// interval ms, ttl seconds.  Replies {allowed, left, retry_ms}.
var takeToken = redis.NewScript(`
local now, cap, per, every, ttl =
    tonumber(ARGV[1]), tonumber(ARGV[2]), tonumber(ARGV[3]), tonumber(ARGV[4]), tonumber(ARGV[5])

local saved = redis.call('HMGET', KEYS[1], 'left', 'at')
local left, at = tonumber(saved[1]), tonumber(saved[2])
if not left or not at then
    left, at = cap, now
end

local steps = math.floor(math.max(0, now - at) / every)
if steps > 0 then
    left = math.min(cap, left + steps * per)
    at = at + steps * every
end

local ok, wait = 0, 0
if left >= 1 then
    ok, left = 1, left - 1
else
    wait = math.max(0, at + every - now)
end

redis.call('HSET', KEYS[1], 'left', left, 'at', at)
redis.call('EXPIRE', KEYS[1], ttl)
return {ok, left, wait}
`)

// maxAccountPeek caps how much of a sign-in body is read to find the account.
const maxAccountPeek = 8 << 10

// NewTokenBucket limits requests per client address, per route or both,
// following cfg.KeyStrategy.  Redis errors let the request through.
func NewTokenBucket(cfg config.RateLimitConfig, rdb *redis.Client, log *logrus.Logger) echo.MiddlewareFunc {
    return tokenBucket(cfg, rdb, log, func(c echo.Context) string { return buildRateKey(cfg, c) })
}

// NewAccountBucket limits attempts per submitted account name, whichever
// address they come from.  Bodies without an account fall back to the
// address key.
func NewAccountBucket(cfg config.RateLimitConfig, rdb *redis.Client, log *logrus.Logger) echo.MiddlewareFunc {
    return tokenBucket(cfg, rdb, log, func(c echo.Context) string {
        if account := peekAccount(c.Request()); account != "" {
            return cfg.Prefix + ":account:" + account
        }
        return cfg.Prefix + ":ip:" + clientIP(c)
    })
}

func tokenBucket(cfg config.RateLimitConfig, rdb *redis.Client, log *logrus.Logger, keyOf func(echo.Context) string) echo.MiddlewareFunc {
    if !cfg.Enabled || rdb == nil {
        return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
    }
    limit := strconv.Itoa(cfg.Capacity)
    ttl := int64(cfg.TTL / time.Second)
    if ttl < 1 {
        ttl = 1
    }

    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            key := keyOf(c)
            reply, err := takeToken.Run(c.Request().Context(), rdb, []string{key},
                time.Now().UnixMilli(), cfg.Capacity, cfg.RefillTokens,
                cfg.RefillInterval.Milliseconds(), ttl).Result()
            if err != nil {
                log.WithError(err).WithField("key", key).Warn("ratelimit: script failed")
                return next(c)
            }
            allowed, left, retryMs, ok := parseBucketResult(reply)
            if !ok {
                log.WithField("key", key).Warnf("ratelimit: unexpected reply %#v", reply)
                return next(c)
            }

            h := c.Response().Header()
            h.Set("X-RateLimit-Limit", limit)
            h.Set("X-RateLimit-Remaining", strconv.FormatInt(left, 10))
            if cfg.Debug {
                h.Set("X-RateLimit-Key", key)
            }
            if !allowed {
                h.Set("Retry-After", strconv.Itoa(retryAfterSeconds(retryMs)))
                log.WithFields(logrus.Fields{"key": key, "retry_ms": retryMs}).Debug("ratelimit: blocked")
                return echo.NewHTTPError(http.StatusTooManyRequests, "rate limit exceeded")
            }
            return next(c)
        }
    }
}

// parseBucketResult reads the {allowed, left, retry_ms} reply.  Redis turns
// Lua numbers into integers, so anything else is malformed.
func parseBucketResult(reply interface{}) (allowed bool, left, retryMs int64, ok bool) {
    arr, isArr := reply.([]interface{})
    if !isArr || len(arr) != 3 {
        return false, 0, 0, false
    }
    var n [3]int64
    for i, v := range arr {
        if n[i], ok = v.(int64); !ok {
            return false, 0, 0, false
        }
    }
    return n[0] == 1, n[1], n[2], true
}

// retryAfterSeconds rounds up so clients never retry too early.
func retryAfterSeconds(ms int64) int {
    if ms <= 0 {
        return 0
    }
    return int((ms + 999) / 1000)
}

func buildRateKey(cfg config.RateLimitConfig, c echo.Context) string {
    route := c.Request().Method + " " + c.Path()
    switch cfg.KeyStrategy {
    case config.RateKeyIP:
        return cfg.Prefix + ":ip:" + clientIP(c)
    case config.RateKeyRoute:
        return cfg.Prefix + ":route:" + route
    default:
        return cfg.Prefix + ":ip:" + clientIP(c) + ":route:" + route
    }
}

func clientIP(c echo.Context) string {
    if ip := c.RealIP(); ip != "" {
        return ip
    }
    return "unknown"
}

// peekAccount reads the account field of a JSON body and puts the body back
// for the handler.  Names are folded to lower case so "Alice" and "alice"
// share one bucket.
func peekAccount(r *http.Request) string {
    if r.Body == nil {
        return ""
    }
    head, err := io.ReadAll(io.LimitReader(r.Body, maxAccountPeek))
    r.Body = io.NopCloser(io.MultiReader(bytes.NewReader(head), r.Body))
    if err != nil {
        return ""
    }
    var body struct {
        Account string `json:"account"`
    }
    if json.Unmarshal(head, &body) != nil {
        return ""
    }
    return strings.ToLower(strings.TrimSpace(body.Account))
}
