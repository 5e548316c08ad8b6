package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/language-tutor/internal/handler"
	"github.com/iliyamo/language-tutor/internal/middleware"
)

// RegisterLessons mounts the public catalog.  A bearer token is accepted
// but not required.
func RegisterLessons(g *echo.Group, h *handler.LessonHandler, auth middleware.Authenticator, cache echo.MiddlewareFunc) {
	optional := middleware.OptionalAuth(auth)

	g.GET("/lessons", h.List, optional, cache)
	g.GET("/lessons/:id", h.Get, optional, cache)
}
