package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/language-tutor/internal/handler"
	"github.com/iliyamo/language-tutor/internal/middleware"
)

// RegisterLearner mounts the per-user routes.  Every one requires a valid
// token; posting a chat message is also rate limited because it may cost a
// completion call.
func RegisterLearner(g *echo.Group, chat *handler.ChatHandler, progress *handler.ProgressHandler, auth middleware.Authenticator, limit echo.MiddlewareFunc) {
	requireAuth := middleware.RequireAuth(auth)

	g.GET("/chat-messages", chat.List, requireAuth)
	g.POST("/chat-messages", chat.Post, requireAuth, limit)

	g.GET("/user-progress", progress.List, requireAuth)
	g.POST("/user-progress", progress.Upsert, requireAuth)
	g.PUT("/user-progress/:id", progress.Patch, requireAuth)
}
