package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/language-tutor/internal/logger"
	"github.com/iliyamo/language-tutor/internal/repository"
	"github.com/iliyamo/language-tutor/internal/service"
)

// ErrorHandler is the single place where errors become HTTP responses.
// Field-level validation failures render as {errors:[...]}, everything else
// as {error}.  Unexpected errors are logged and, unless showInternal is
// set, replaced by a generic message.
func ErrorHandler(log *logger.Logger, showInternal bool) echo.HTTPErrorHandler {
	log = log.With("component", "errors")
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		status, body := render(err, showInternal)
		if status == http.StatusInternalServerError {
			log.Error("request failed", "method", c.Request().Method, "path", c.Request().URL.Path, "err", err)
		}
		if c.Request().Method == http.MethodHead {
			err = c.NoContent(status)
		} else {
			err = c.JSON(status, body)
		}
		if err != nil {
			log.Warn("write error response", "err", err)
		}
	}
}

func render(err error, showInternal bool) (int, any) {
	var fe service.FieldErrors
	if errors.As(err, &fe) {
		return http.StatusBadRequest, echo.Map{"errors": fe}
	}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		if he.Code == http.StatusNotFound {
			return he.Code, echo.Map{"error": "Route not found"}
		}
		msg := http.StatusText(he.Code)
		if s, ok := he.Message.(string); ok && s != "" {
			msg = s
		}
		return he.Code, echo.Map{"error": msg}
	}

	var se *service.Error
	if errors.As(err, &se) {
		return statusOf(se.Kind), echo.Map{"error": se.Msg}
	}

	switch {
	case errors.Is(err, repository.ErrDuplicate), errors.Is(err, repository.ErrEmailExists):
		return http.StatusConflict, echo.Map{"error": "Duplicate entry"}
	case errors.Is(err, repository.ErrInvalidReference):
		return http.StatusBadRequest, echo.Map{"error": "Invalid reference"}
	}

	if status := statusOf(err); status != http.StatusInternalServerError {
		return status, echo.Map{"error": err.Error()}
	}
	msg := "Internal server error"
	if showInternal {
		msg = err.Error()
	}
	return http.StatusInternalServerError, echo.Map{"error": msg}
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, service.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrConflict):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}
