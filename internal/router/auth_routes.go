package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/language-tutor/internal/handler"
	"github.com/iliyamo/language-tutor/internal/middleware"
)

// RegisterAuth mounts /auth.  Middleware is attached per route rather than
// with Group.Use so unknown paths under the group still answer 404.
func RegisterAuth(g *echo.Group, h *handler.AuthHandler, auth middleware.Authenticator, limit echo.MiddlewareFunc) {
	requireAuth := middleware.RequireAuth(auth)

	g.POST("/auth/register", h.Register, limit)
	g.POST("/auth/login", h.Login, limit)
	g.GET("/auth/me", h.Me, requireAuth)
	g.POST("/auth/logout", h.Logout, requireAuth)
}
