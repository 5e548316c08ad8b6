package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/language-tutor/internal/model"
)

// Lessons is the read side of the lesson catalog.
type Lessons interface {
	List(ctx context.Context, sortBy string, limit int) ([]model.Lesson, error)
	Get(ctx context.Context, id string) (model.Lesson, error)
}

// LessonHandler serves the public catalog.  Responses do not depend on the
// caller, which is what lets them be cached.
type LessonHandler struct {
	Lessons Lessons
}

func NewLessonHandler(l Lessons) *LessonHandler { return &LessonHandler{Lessons: l} }

// List handles GET /lessons?sortBy=&limit=.
func (h *LessonHandler) List(c echo.Context) error {
	ctx, cancel := dbContext(c)
	defer cancel()

	out, err := h.Lessons.List(ctx, c.QueryParam("sortBy"), queryLimit(c, 0))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, out)
}

// Get handles GET /lessons/:id.
func (h *LessonHandler) Get(c echo.Context) error {
	ctx, cancel := dbContext(c)
	defer cancel()

	l, err := h.Lessons.Get(ctx, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, l)
}
