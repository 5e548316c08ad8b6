package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/language-tutor/internal/model"
	"github.com/iliyamo/language-tutor/internal/service"
)

// Accounts is the part of the auth service the handlers call.
type Accounts interface {
	Register(ctx context.Context, email, password, fullName string) (service.AuthResult, error)
	Login(ctx context.Context, email, password string) (service.AuthResult, error)
	Me(ctx context.Context, id service.Identity) (model.User, error)
}

// AuthHandler serves /auth.
type AuthHandler struct {
	Accounts Accounts
}

func NewAuthHandler(a Accounts) *AuthHandler { return &AuthHandler{Accounts: a} }

type registerReq struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	FullName string `json:"full_name" validate:"required"`
}

type loginReq struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type authResp struct {
	User  model.User `json:"user"`
	Token string     `json:"token"`
}

// Register creates an account and signs the caller in.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := bindValid(c, &req); err != nil {
		return err
	}
	ctx, cancel := dbContext(c)
	defer cancel()

	res, err := h.Accounts.Register(ctx, req.Email, req.Password, req.FullName)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, authResp{User: res.User, Token: res.Token})
}

func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := bindValid(c, &req); err != nil {
		return err
	}
	ctx, cancel := dbContext(c)
	defer cancel()

	res, err := h.Accounts.Login(ctx, req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, authResp{User: res.User, Token: res.Token})
}

// Me returns the caller's profile.
func (h *AuthHandler) Me(c echo.Context) error {
	id, err := identity(c)
	if err != nil {
		return err
	}
	ctx, cancel := dbContext(c)
	defer cancel()

	u, err := h.Accounts.Me(ctx, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, u)
}

// Logout is advisory: tokens are stateless and expire on their own, so the
// client simply discards its copy.
func (h *AuthHandler) Logout(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"message": "Logged out successfully"})
}
