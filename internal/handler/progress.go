package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/language-tutor/internal/model"
	"github.com/iliyamo/language-tutor/internal/service"
)

// Progress is the progress tracker as seen by the handlers.
type Progress interface {
	Upsert(ctx context.Context, email, lessonID string, completed bool, pct int) (model.UserProgress, bool, error)
	Patch(ctx context.Context, id, email string, patch model.ProgressPatch) (model.UserProgress, error)
	List(ctx context.Context, email, lessonID string) ([]model.UserProgress, error)
}

type ProgressHandler struct {
	Progress Progress
}

func NewProgressHandler(p Progress) *ProgressHandler { return &ProgressHandler{Progress: p} }

type upsertProgressReq struct {
	LessonID           string `json:"lesson_id" validate:"required"`
	Completed          *bool  `json:"completed"`
	ProgressPercentage *int   `json:"progress_percentage" validate:"omitempty,min=0,max=100"`
}

type patchProgressReq struct {
	Completed          *bool `json:"completed"`
	ProgressPercentage *int  `json:"progress_percentage" validate:"omitempty,min=0,max=100"`
}

// List handles GET /user-progress?user_email=&lesson_id=.
func (h *ProgressHandler) List(c echo.Context) error {
	id, err := identity(c)
	if err != nil {
		return err
	}
	owner, err := service.ResolveOwner(id, c.QueryParam("user_email"))
	if err != nil {
		return err
	}
	ctx, cancel := dbContext(c)
	defer cancel()

	out, err := h.Progress.List(ctx, owner, c.QueryParam("lesson_id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, out)
}

// Upsert handles POST /user-progress: 201 when the record is new, 200 when
// an existing one was overwritten.  Omitted fields reset to their defaults.
func (h *ProgressHandler) Upsert(c echo.Context) error {
	id, err := identity(c)
	if err != nil {
		return err
	}
	var req upsertProgressReq
	if err := bindValid(c, &req); err != nil {
		return err
	}
	completed, pct := false, 0
	if req.Completed != nil {
		completed = *req.Completed
	}
	if req.ProgressPercentage != nil {
		pct = *req.ProgressPercentage
	}
	ctx, cancel := dbContext(c)
	defer cancel()

	p, created, err := h.Progress.Upsert(ctx, id.Email, req.LessonID, completed, pct)
	if err != nil {
		return err
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	return c.JSON(status, p)
}

// Patch handles PUT /user-progress/:id.
func (h *ProgressHandler) Patch(c echo.Context) error {
	id, err := identity(c)
	if err != nil {
		return err
	}
	var req patchProgressReq
	if err := bindValid(c, &req); err != nil {
		return err
	}
	ctx, cancel := dbContext(c)
	defer cancel()

	p, err := h.Progress.Patch(ctx, c.Param("id"), id.Email, model.ProgressPatch{
		Completed:          req.Completed,
		ProgressPercentage: req.ProgressPercentage,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}
