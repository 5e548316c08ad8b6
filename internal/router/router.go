// Package router assembles the echo instance: global middleware, the error
// handler and every route of the API.
package router

import (
	"net/http"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/language-tutor/internal/config"
	"github.com/iliyamo/language-tutor/internal/handler"
	"github.com/iliyamo/language-tutor/internal/logger"
	"github.com/iliyamo/language-tutor/internal/metrics"
	"github.com/iliyamo/language-tutor/internal/middleware"
)

// Deps carries what New needs to build the API.  Redis may be nil, in which
// case caching and rate limiting are pass-throughs.
type Deps struct {
	Config    config.Config
	Cache     config.CacheConfig
	RateLimit config.RateLimitConfig
	Log       *logger.Logger
	Redis     *redis.Client

	Auth     middleware.Authenticator
	Accounts handler.Accounts
	Lessons  handler.Lessons
	Chats    handler.Chats
	Progress handler.Progress
}

// New returns a ready-to-serve echo instance.
func New(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = handler.ErrorHandler(d.Log, d.Config.IsDevelopment())

	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(middleware.RequestLog(d.Log))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     d.Config.CORSOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderAuthorization, echo.HeaderContentType},
		AllowCredentials: true,
	}))

	RegisterRoutes(e)

	api := e.Group(d.Config.APIPrefix)
	limit := middleware.RateLimit(d.RateLimit, d.Redis, d.Log)
	RegisterAuth(api, handler.NewAuthHandler(d.Accounts), d.Auth, limit)
	RegisterLessons(api, handler.NewLessonHandler(d.Lessons), d.Auth, middleware.ResponseCache(d.Cache, d.Redis, d.Log))
	RegisterLearner(api, handler.NewChatHandler(d.Chats), handler.NewProgressHandler(d.Progress), d.Auth, limit)
	return e
}

// RegisterRoutes mounts the operational endpoints at the root.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/health", handler.Health)
	e.GET("/metrics", echo.WrapHandler(metrics.Handler()))
}
