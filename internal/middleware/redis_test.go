package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/cinema-backoffice/internal/config"
)

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func send(e *echo.Echo, method, target, ip, body string, header ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.RemoteAddr = ip + ":4000"
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

var testCache = config.CacheConfig{Enabled: true, TTL: time.Minute, Prefix: "cache", MaxBodyBytes: 1 << 20}

func TestRedisCache(t *testing.T) {
	mr, rdb := newRedis(t)
	log, _ := logtest.NewNullLogger()

	calls := 0
	e := echo.New()
	g := e.Group("/v1/categories", NewRedisCache(testCache, rdb, "categories", log, "products"))
	g.GET("", func(c echo.Context) error {
		calls++
		return c.JSON(http.StatusOK, map[string]int{"calls": calls})
	})
	g.GET("/gone", func(c echo.Context) error {
		calls++
		return c.JSON(http.StatusNotFound, map[string]string{"message": "gone"})
	})
	g.POST("", func(c echo.Context) error { return c.NoContent(http.StatusCreated) })
	g.POST("/bad", func(c echo.Context) error { return echo.NewHTTPError(http.StatusBadRequest, "bad") })

	rec := send(e, http.MethodGet, "/v1/categories?page=1", "10.0.0.1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))
	assert.JSONEq(t, `{"calls":1}`, rec.Body.String())

	rec = send(e, http.MethodGet, "/v1/categories?page=1", "10.0.0.2", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "HIT", rec.Header().Get("X-Cache"))
	assert.JSONEq(t, `{"calls":1}`, rec.Body.String())
	assert.Equal(t, echo.MIMEApplicationJSON, rec.Header().Get(echo.HeaderContentType))
	assert.Equal(t, 1, calls)

	// Other query strings are cached separately.
	rec = send(e, http.MethodGet, "/v1/categories?page=2", "10.0.0.1", "")
	assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))
	assert.Equal(t, 2, calls)

	// Authenticated requests bypass the cache in both directions.
	rec = send(e, http.MethodGet, "/v1/categories?page=1", "10.0.0.1", "", "Authorization", "Bearer x")
	assert.Empty(t, rec.Header().Get("X-Cache"))
	assert.JSONEq(t, `{"calls":3}`, rec.Body.String())

	// Non-200 responses are never stored.
	for i := 0; i < 2; i++ {
		rec = send(e, http.MethodGet, "/v1/categories/gone", "10.0.0.1", "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))
	}
	assert.Equal(t, 5, calls)

	// A failed write leaves the generations alone.
	rec = send(e, http.MethodPost, "/v1/categories/bad", "10.0.0.1", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, mr.Exists("cache:gen:categories"))

	// A successful write bumps this resource and the related one.
	rec = send(e, http.MethodPost, "/v1/categories", "10.0.0.1", "")
	assert.Equal(t, http.StatusCreated, rec.Code)
	gen, err := mr.Get("cache:gen:categories")
	require.NoError(t, err)
	assert.Equal(t, "1", gen)
	gen, err = mr.Get("cache:gen:products")
	require.NoError(t, err)
	assert.Equal(t, "1", gen)

	rec = send(e, http.MethodGet, "/v1/categories?page=1", "10.0.0.1", "")
	assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))
	assert.JSONEq(t, `{"calls":6}`, rec.Body.String())
}

func TestRedisCache_ServesWhenRedisIsDown(t *testing.T) {
	mr, rdb := newRedis(t)
	log, _ := logtest.NewNullLogger()
	e := echo.New()
	e.GET("/v1/seats", func(c echo.Context) error { return c.String(http.StatusOK, "ok") },
		NewRedisCache(testCache, rdb, "seats", log))

	mr.Close()
	rec := send(e, http.MethodGet, "/v1/seats", "10.0.0.1", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestInvalidate(t *testing.T) {
	mr, rdb := newRedis(t)
	log, _ := logtest.NewNullLogger()
	e := echo.New()
	inv := Invalidate(testCache, rdb, "customers", log)
	e.POST("/signup", func(c echo.Context) error { return c.NoContent(http.StatusCreated) }, inv)
	e.POST("/taken", func(c echo.Context) error { return echo.NewHTTPError(http.StatusConflict, "taken") }, inv)

	send(e, http.MethodPost, "/taken", "10.0.0.1", "")
	assert.False(t, mr.Exists("cache:gen:customers"))

	send(e, http.MethodPost, "/signup", "10.0.0.1", "")
	send(e, http.MethodPost, "/signup", "10.0.0.1", "")
	gen, err := mr.Get("cache:gen:customers")
	require.NoError(t, err)
	assert.Equal(t, "2", gen)
}

var testLimit = config.RateLimitConfig{
	Enabled:        true,
	Capacity:       2,
	RefillTokens:   1,
	RefillInterval: time.Minute,
	TTL:            10 * time.Minute,
	KeyStrategy:    config.RateKeyIPRoute,
	Prefix:         "rl",
}

func TestTokenBucket(t *testing.T) {
	mr, rdb := newRedis(t)
	log, _ := logtest.NewNullLogger()
	e := echo.New()
	e.POST("/v1/customers/signup", func(c echo.Context) error { return c.NoContent(http.StatusCreated) },
		NewTokenBucket(testLimit, rdb, log))

	for i, left := range []string{"1", "0"} {
		rec := send(e, http.MethodPost, "/v1/customers/signup", "10.0.0.1", "")
		require.Equal(t, http.StatusCreated, rec.Code, "request %d", i)
		assert.Equal(t, "2", rec.Header().Get("X-RateLimit-Limit"))
		assert.Equal(t, left, rec.Header().Get("X-RateLimit-Remaining"))
	}

	rec := send(e, http.MethodPost, "/v1/customers/signup", "10.0.0.1", "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Contains(t, rec.Body.String(), "rate limit exceeded")
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
	assert.True(t, mr.Exists("rl:ip:10.0.0.1:route:POST /v1/customers/signup"))

	// Another address has its own bucket.
	rec = send(e, http.MethodPost, "/v1/customers/signup", "10.0.0.2", "")
	assert.Equal(t, http.StatusCreated, rec.Code)

	// Redis failures let requests through.
	mr.Close()
	rec = send(e, http.MethodPost, "/v1/customers/signup", "10.0.0.1", "")
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestAccountBucket(t *testing.T) {
	_, rdb := newRedis(t)
	log, _ := logtest.NewNullLogger()
	cfg := testLimit
	cfg.Capacity = 1

	e := echo.New()
	e.POST("/v1/customers/signin", func(c echo.Context) error {
		body, err := io.ReadAll(c.Request().Body)
		if err != nil {
			return err
		}
		return c.String(http.StatusOK, string(body))
	}, NewAccountBucket(cfg, rdb, log))

	rec := send(e, http.MethodPost, "/v1/customers/signin", "10.0.0.1", `{"account":"Alice","password":"x"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `{"account":"Alice","password":"x"}`, rec.Body.String(), "handler still sees the full body")

	// Same account from a different address shares the bucket.
	rec = send(e, http.MethodPost, "/v1/customers/signin", "10.0.0.9", `{"account":" alice ","password":"y"}`)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	rec = send(e, http.MethodPost, "/v1/customers/signin", "10.0.0.9", `{"account":"bob","password":"y"}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	// Without an account the address is the key.
	rec = send(e, http.MethodPost, "/v1/customers/signin", "10.0.0.3", `not json`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "not json", rec.Body.String())
	rec = send(e, http.MethodPost, "/v1/customers/signin", "10.0.0.3", `{}`)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}
