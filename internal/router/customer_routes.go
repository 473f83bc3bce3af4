package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-backoffice/internal/handler"
	"github.com/iliyamo/cinema-backoffice/internal/middleware"
	"github.com/iliyamo/cinema-backoffice/internal/repository"
	"github.com/iliyamo/cinema-backoffice/internal/utils"
)

// RegisterCustomer registers the customer account endpoints under
// /v1/customers next to the generic customer resource.  Sign-up and sign-in
// are rate limited, sign-in also per account; /me requires a CUSTOMER access token.
func RegisterCustomer(e *echo.Echo, d Deps) {
	repo := repository.NewCustomerRepo(d.DB)
	h := handler.NewCustomerHandler(d.Cfg, repo, d.Notifier, d.Log)
	limit := middleware.NewTokenBucket(d.RateLimit, d.Redis, d.Log)
	invalidate := middleware.Invalidate(d.Cache, d.Redis, "customers", d.Log)

	// Registered outside the cached group: verify is a GET that writes, and
	// the others depend on the caller or on other resources.
	e.POST("/v1/customers/signup", h.SignUp, limit, invalidate)
	e.POST("/v1/customers/signin", h.SignIn, limit)
	e.GET("/v1/customers/verify/:id/:confirmationCode", h.Verify, invalidate)
	e.GET("/v1/customers/me", h.Me, middleware.JWTAuth(d.Cfg.JWTSecret), middleware.RequireRole(utils.RoleCustomer))
	e.GET("/v1/customers/:id/orders", h.Orders)

	handler.NewCustomerResource(h).Register(group(e, d, "customers"))
}
