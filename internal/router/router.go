package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/iliyamo/cinema-backoffice/internal/config"
	"github.com/iliyamo/cinema-backoffice/internal/handler"
	"github.com/iliyamo/cinema-backoffice/internal/middleware"
)

// Deps carries everything the routes need.  Redis and Notifier may be nil:
// caching and rate limiting are then off and sign-ups send no mail.
type Deps struct {
	Cfg       config.Config
	Cache     config.CacheConfig
	RateLimit config.RateLimitConfig
	DB        *gorm.DB
	Redis     *redis.Client
	Notifier  handler.SignupNotifier
	Log       *logrus.Logger
}

// New builds the Echo instance with the global middleware chain and every
// route registered.
func New(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = handler.ErrorHandler(d.Log)

	e.Use(echomw.Recover())
	e.Use(echomw.RequestIDWithConfig(echomw.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(middleware.RequestLogger(d.Log))
	e.Use(middleware.Deadline(d.Cfg.RequestTimeout))

	RegisterRoutes(e, d)
	RegisterCustomer(e, d)
	RegisterResources(e, d)
	return e
}

// RegisterRoutes registers routes that do not belong to a resource.
func RegisterRoutes(e *echo.Echo, d Deps) {
	e.GET("/healthz", handler.Health(d.DB))
}

// group mounts /v1/<name> with the response cache for that resource.  Writes
// also invalidate the related resources.
func group(e *echo.Echo, d Deps, name string, related ...string) *echo.Group {
	return e.Group("/v1/"+name, middleware.NewRedisCache(d.Cache, d.Redis, name, d.Log, related...))
}
