// Package router wires the SkillSwap handlers and middleware onto an Echo
// instance.
package router

import (
	"log/slog"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/skillswap/internal/authflow"
	"github.com/iliyamo/skillswap/internal/booking"
	"github.com/iliyamo/skillswap/internal/catalog"
	"github.com/iliyamo/skillswap/internal/config"
	"github.com/iliyamo/skillswap/internal/handler"
	"github.com/iliyamo/skillswap/internal/metrics"
	"github.com/iliyamo/skillswap/internal/middleware"
	"github.com/iliyamo/skillswap/internal/session"
)

// Deps is everything New needs.  Redis, Metrics and Ready may be nil.
type Deps struct {
	Catalog   *catalog.Catalog
	Sessions  *session.Reconciler
	Auth      *authflow.Service
	Store     booking.Store
	Submitter booking.Submitter

	Redis    *redis.Client
	CacheCfg config.CacheConfig
	RateCfg  config.RateLimitConfig
	Metrics  *metrics.Manager
	Ready    *handler.ReadyHandler
	Logger   *slog.Logger

	SecureCookies bool
}

// New builds the Echo instance with every route registered.
func New(d Deps) *echo.Echo {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(echomw.Recover())
	e.Use(middleware.RequestLog(d.Logger, d.Metrics))
	e.Use(middleware.DeviceID(d.SecureCookies))

	RegisterRoutes(e, d.Ready, d.Metrics)

	cache := middleware.NewRedisCache(d.CacheCfg, d.Redis, d.Metrics)
	limit := middleware.NewTokenBucket(d.RateCfg, d.Redis, d.Logger)

	RegisterCatalog(e, &handler.CatalogHandler{Catalog: d.Catalog}, cache)
	RegisterAuth(e, handler.NewAuthHandler(d.Auth, d.Metrics), limit)
	RegisterProfile(e, &handler.ProfileHandler{Sessions: d.Sessions}, d.Sessions, d.Logger)
	RegisterBooking(e, &handler.BookingHandler{
		Catalog:   d.Catalog,
		Sessions:  d.Sessions,
		Store:     d.Store,
		Submitter: d.Submitter,
		Metrics:   d.Metrics,
	}, limit)
	return e
}

// RegisterRoutes registers the operational endpoints: liveness, readiness
// when checks are configured, and the Prometheus scrape endpoint.
func RegisterRoutes(e *echo.Echo, ready *handler.ReadyHandler, m *metrics.Manager) {
	e.GET("/healthz", handler.Health)
	if ready != nil {
		e.GET("/readyz", ready.Ready)
	}
	if m != nil {
		e.GET("/metrics", echo.WrapHandler(m.Handler()))
	}
}

// RegisterCatalog registers the public browse endpoints.  The list routes
// sit behind the response cache; the detail route is a map lookup and is
// served straight from memory, so an unknown id never touches Redis.
func RegisterCatalog(e *echo.Echo, h *handler.CatalogHandler, cache echo.MiddlewareFunc) {
	e.GET("/v1/skills", h.ListSkills, cache)
	e.GET("/v1/skills/:id", h.GetSkill)
	e.GET("/v1/categories", h.Categories, cache)
	e.GET("/v1/providers/top", h.TopProviders, cache)
	e.GET("/v1/events", h.Events, cache)
}

// RegisterAuth registers the sign-in, sign-up, reset and sign-out
// endpoints under /v1/auth.  None of them require an existing session.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, limit echo.MiddlewareFunc) {
	g := e.Group("/v1/auth", limit)
	g.POST("/signin", a.SignIn)
	g.POST("/signup", a.SignUp)
	g.POST("/federated", a.Federated)
	g.POST("/federated/callback", a.FederatedCallback)
	g.POST("/reset-email", a.RememberResetEmail)
	g.GET("/reset-email", a.PrefillEmail)
	g.POST("/password-reset", a.SendPasswordReset)
	g.POST("/password-reset/confirm", a.ConfirmPasswordReset)
	g.POST("/signout", a.SignOut)
}

// RegisterProfile registers the profile endpoints.  A device without a
// session gets 401 with state "signed_out".
func RegisterProfile(e *echo.Echo, p *handler.ProfileHandler, r middleware.Resolver, logger *slog.Logger) {
	g := e.Group("/v1/profile", middleware.LoadSession(r, logger), middleware.RequireSession())
	g.GET("", p.Get)
	g.PUT("", p.Update)
}

// RegisterBooking registers the booking endpoint.  The handler resolves the
// session itself, after the skill lookup.
func RegisterBooking(e *echo.Echo, b *handler.BookingHandler, limit echo.MiddlewareFunc) {
	e.POST("/v1/skills/:id/bookings", b.Create, limit)
}
