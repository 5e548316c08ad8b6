package handler

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/language-tutor/internal/middleware"
	"github.com/iliyamo/language-tutor/internal/service"
)

// dbTimeout bounds handlers that only touch the database.
const dbTimeout = 5 * time.Second

var errBadBody = &service.Error{Kind: service.ErrValidation, Msg: "Invalid request body"}

// bindValid decodes the JSON body into req and runs the struct tags.
func bindValid(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return errBadBody
	}
	return c.Validate(req)
}

func dbContext(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), dbTimeout)
}

// identity returns the authenticated caller.  Routes using it sit behind
// middleware.RequireAuth, so a miss means a wiring bug.
func identity(c echo.Context) (service.Identity, error) {
	id, ok := middleware.IdentityFrom(c)
	if !ok {
		return service.Identity{}, &service.Error{Kind: service.ErrUnauthorized, Msg: "Access token required"}
	}
	return id, nil
}

// queryLimit parses ?limit.  Missing yields def; unparsable or non-positive
// values mean no limit.
func queryLimit(c echo.Context, def int) int {
	raw := strings.TrimSpace(c.QueryParam("limit"))
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0
	}
	return n
}
