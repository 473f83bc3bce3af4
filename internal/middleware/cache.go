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
    "github.com/sirupsen/logrus"

    "github.com/iliyamo/cinema-backoffice/internal/config"
)

// captureWriter captures response body/status while forwarding to the client.
type captureWriter struct {
    http.ResponseWriter
    status int
    buf    bytes.Buffer
    size   int64
    limit  int64
}

func (cw *captureWriter) WriteHeader(code int) { cw.status = code; cw.ResponseWriter.WriteHeader(code) }

func (cw *captureWriter) Write(b []byte) (int, error) {
    if cw.limit <= 0 || cw.size < cw.limit {
        remain := cw.limit - cw.size
        if cw.limit <= 0 || int64(len(b)) <= remain {
            cw.buf.Write(b)
        } else {
            cw.buf.Write(b[:remain])
        }
    }
    cw.size += int64(len(b))
    return cw.ResponseWriter.Write(b)
}

// generationKey holds the counter bumped on every successful write to resource.
func generationKey(cfg config.CacheConfig, resource string) string {
    return cfg.Prefix + ":gen:" + resource
}

// cacheKey folds the resource generation into the key, so a bump orphans
// every page cached before it.
func cacheKey(cfg config.CacheConfig, resource string, gen int64, r *http.Request) string {
    sum := sha1.Sum([]byte(r.URL.Path + "?" + r.URL.RawQuery))
    return fmt.Sprintf("%s:%s:%d:%x", cfg.Prefix, resource, gen, sum[:])
}

// encodePayload packs: [4 bytes status][4 bytes headerLen][headerJSON][body]
func encodePayload(status int, header http.Header, body []byte) ([]byte, error) {
    hdrJSON, err := json.Marshal(header)
    if err != nil {
        return nil, err
    }
    out := make([]byte, 8+len(hdrJSON)+len(body))
    binary.BigEndian.PutUint32(out[0:4], uint32(status))
    binary.BigEndian.PutUint32(out[4:8], uint32(len(hdrJSON)))
    copy(out[8:8+len(hdrJSON)], hdrJSON)
    copy(out[8+len(hdrJSON):], body)
    return out, nil
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
    hdr := make(http.Header)
    if hlen > 0 {
        if err := json.Unmarshal(bs[8:8+hlen], &hdr); err != nil {
            return 0, nil, nil, false
        }
    }
    return status, hdr, bs[8+hlen:], true
}

// NewRedisCache caches 200 GET responses of one resource group and
// invalidates them when a write to the same group succeeds.  A successful
// write also invalidates the related resources, whose responses embed rows
// of this one.  Requests carrying an Authorization header are never cached.
// Redis failures degrade to an uncached request.
func NewRedisCache(cfg config.CacheConfig, rdb *redis.Client, resource string, log *logrus.Logger, related ...string) echo.MiddlewareFunc {
    if !cfg.Enabled || rdb == nil {
        return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
    }
    ttl := cfg.TTL
    if ttl <= 0 {
        ttl = 30 * time.Second
    }
    maxBody := int64(cfg.MaxBodyBytes)
    genKey := generationKey(cfg, resource)
    bumpKeys := []string{genKey}
    for _, r := range related {
        bumpKeys = append(bumpKeys, generationKey(cfg, r))
    }

    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            req := c.Request()
            ctx := req.Context()

            if req.Method != http.MethodGet {
                return invalidate(next, rdb, bumpKeys, log)(c)
            }
            if req.Header.Get(echo.HeaderAuthorization) != "" {
                return next(c)
            }

            gen, err := rdb.Get(ctx, genKey).Int64()
            if err != nil && err != redis.Nil {
                return next(c)
            }
            key := cacheKey(cfg, resource, gen, req)

            if bs, err := rdb.Get(ctx, key).Bytes(); err == nil {
                if status, hdr, body, ok := decodePayload(bs); ok {
                    for k, vals := range hdr {
                        if strings.EqualFold(k, echo.HeaderContentLength) {
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

            cw := &captureWriter{ResponseWriter: c.Response().Writer, status: http.StatusOK, limit: maxBody}
            c.Response().Writer = cw
            c.Response().Header().Set("X-Cache", "MISS")

            if err := next(c); err != nil {
                return err
            }
            if cw.status != http.StatusOK || (maxBody > 0 && cw.size > maxBody) {
                return nil
            }
            hdr := c.Response().Header().Clone()
            hdr.Del("X-Cache")
            hdr.Del(echo.HeaderXRequestID)
            if payload, err := encodePayload(cw.status, hdr, cw.buf.Bytes()); err == nil {
                bg, cancel := context.WithTimeout(context.Background(), time.Second)
                defer cancel()
                _ = rdb.SetEx(bg, key, payload, ttl).Err()
            }
            return nil
        }
    }
}

// Invalidate bumps the generation of resource after a successful request.
// It serves routes that change a resource outside its cached group.
func Invalidate(cfg config.CacheConfig, rdb *redis.Client, resource string, log *logrus.Logger) echo.MiddlewareFunc {
    if !cfg.Enabled || rdb == nil {
        return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
    }
    keys := []string{generationKey(cfg, resource)}
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return invalidate(next, rdb, keys, log)
    }
}

func invalidate(next echo.HandlerFunc, rdb *redis.Client, keys []string, log *logrus.Logger) echo.HandlerFunc {
    return func(c echo.Context) error {
        if err := next(c); err != nil {
            return err
        }
        if st := c.Response().Status; st >= 200 && st < 300 {
            // Detached: the request deadline may already be spent.
            bg, cancel := context.WithTimeout(context.Background(), time.Second)
            defer cancel()
            pipe := rdb.Pipeline()
            for _, k := range keys {
                pipe.Incr(bg, k)
            }
            if _, err := pipe.Exec(bg); err != nil {
                log.WithError(err).WithField("keys", keys).Warn("cache: invalidate failed")
            }
        }
        return nil
    }
}
