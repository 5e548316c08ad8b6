package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/language-tutor/internal/model"
	"github.com/iliyamo/language-tutor/internal/service"
)

// Chats is the conversation service as seen by the handlers.
type Chats interface {
	PostTurn(ctx context.Context, in service.TurnInput) (service.TurnResult, error)
	List(ctx context.Context, scope model.ChatScope, limit int) ([]model.ChatMessage, error)
}

type ChatHandler struct {
	Chats Chats
}

func NewChatHandler(ch Chats) *ChatHandler { return &ChatHandler{Chats: ch} }

type chatReq struct {
	Message  string `json:"message" validate:"required"`
	Role     string `json:"role" validate:"omitempty,oneof=user tutor"`
	LessonID string `json:"lesson_id"`
}

// turnResp is returned when a tutor reply was attempted.
type turnResp struct {
	UserMessage  model.ChatMessage  `json:"userMessage"`
	TutorMessage *model.ChatMessage `json:"tutorMessage"`
	Error        string             `json:"error,omitempty"`
}

// List handles GET /chat-messages?user_email=&lesson_id=&sortBy=&limit=.
// Messages are always ordered by creation time, so sortBy is accepted for
// compatibility and otherwise ignored.
func (h *ChatHandler) List(c echo.Context) error {
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

	scope := model.ChatScope{UserEmail: owner, LessonID: c.QueryParam("lesson_id")}
	out, err := h.Chats.List(ctx, scope, queryLimit(c, service.DefaultChatLimit))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, out)
}

// Post handles POST /chat-messages.  Without a reply attempt the stored
// message is returned bare; otherwise both turns are wrapped.
func (h *ChatHandler) Post(c echo.Context) error {
	id, err := identity(c)
	if err != nil {
		return err
	}
	var req chatReq
	if err := c.Bind(&req); err != nil {
		return errBadBody
	}
	// Roles are matched case-insensitively, as in the conversation service.
	req.Role = strings.ToLower(strings.TrimSpace(req.Role))
	if err := c.Validate(&req); err != nil {
		return err
	}

	res, err := h.Chats.PostTurn(c.Request().Context(), service.TurnInput{
		UserEmail: id.Email,
		Message:   req.Message,
		Role:      req.Role,
		LessonID:  req.LessonID,
	})
	if err != nil {
		return err
	}
	if !res.Generated {
		return c.JSON(http.StatusCreated, res.UserMessage)
	}
	return c.JSON(http.StatusCreated, turnResp{
		UserMessage:  res.UserMessage,
		TutorMessage: res.TutorMessage,
		Error:        res.Error,
	})
}
