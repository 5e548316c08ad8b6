package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/iliyamo/language-tutor/internal/model"
	"github.com/iliyamo/language-tutor/internal/repository"
	"github.com/iliyamo/language-tutor/internal/utils"
)

// MinPasswordLength is the shortest password accepted at registration.
const MinPasswordLength = 6

// UserStore is the credential store used by AuthService.
type UserStore interface {
	Create(ctx context.Context, u *model.User) error
	GetByEmail(ctx context.Context, email string) (model.User, error)
	GetByID(ctx context.Context, id string) (model.User, error)
}

// Identity is the authenticated caller resolved from a bearer token.
type Identity struct {
	UserID string
	Email  string
}

// AuthResult is returned by Register and Login.
type AuthResult struct {
	User      model.User
	Token     string
	ExpiresAt time.Time
}

// AuthService issues and verifies stateless bearer tokens.  There is no
// session table: a token stays valid until it expires, logout included.
type AuthService struct {
	users      UserStore
	secret     string
	ttl        time.Duration
	bcryptCost int
}

func NewAuthService(users UserStore, secret string, ttl time.Duration, bcryptCost int) *AuthService {
	return &AuthService{users: users, secret: secret, ttl: ttl, bcryptCost: bcryptCost}
}

var fieldCheck = validator.New()

// NormalizeEmail lower-cases and trims an address.
func NormalizeEmail(email string) string { return strings.ToLower(strings.TrimSpace(email)) }

// Register creates the user and returns a token for it.
func (s *AuthService) Register(ctx context.Context, email, password, fullName string) (AuthResult, error) {
	email = NormalizeEmail(email)
	fullName = strings.TrimSpace(fullName)

	var fe FieldErrors
	if fieldCheck.Var(email, "required,email") != nil {
		fe = append(fe, FieldError{Field: "email", Message: "must be a valid email address"})
	}
	switch {
	case len(password) < MinPasswordLength:
		fe = append(fe, FieldError{Field: "password", Message: fmt.Sprintf("must be at least %d characters", MinPasswordLength)})
	case len(password) > utils.MaxPasswordBytes:
		fe = append(fe, FieldError{Field: "password", Message: fmt.Sprintf("must be at most %d bytes", utils.MaxPasswordBytes)})
	}
	if fullName == "" {
		fe = append(fe, FieldError{Field: "full_name", Message: "is required"})
	}
	if len(fe) > 0 {
		return AuthResult{}, fe
	}

	hash, err := utils.HashPassword(password, s.bcryptCost)
	if err != nil {
		return AuthResult{}, fmt.Errorf("hash password: %w", err)
	}
	u := model.User{Email: email, PasswordHash: hash, FullName: fullName}
	if err := s.users.Create(ctx, &u); err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return AuthResult{}, newError(ErrConflict, "User already exists")
		}
		return AuthResult{}, fmt.Errorf("create user: %w", err)
	}
	return s.issue(u)
}

// Login verifies credentials.  Unknown email and wrong password produce the
// same error.
func (s *AuthService) Login(ctx context.Context, email, password string) (AuthResult, error) {
	email = NormalizeEmail(email)
	if email == "" || password == "" {
		return AuthResult{}, FieldErrors{{Field: "credentials", Message: "email and password are required"}}
	}
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return AuthResult{}, newError(ErrUnauthorized, "Invalid credentials")
		}
		return AuthResult{}, fmt.Errorf("load user: %w", err)
	}
	if !utils.VerifyPassword(u.PasswordHash, password) {
		return AuthResult{}, newError(ErrUnauthorized, "Invalid credentials")
	}
	return s.issue(u)
}

// Authenticate resolves a raw bearer token to the caller's identity.
func (s *AuthService) Authenticate(raw string) (Identity, error) {
	if strings.TrimSpace(raw) == "" {
		return Identity{}, newError(ErrUnauthorized, "Access token required")
	}
	claims, err := utils.ParseAccessToken(s.secret, raw)
	if err != nil {
		return Identity{}, newError(ErrUnauthorized, "Invalid or expired token")
	}
	return Identity{UserID: claims.Subject, Email: NormalizeEmail(claims.Email)}, nil
}

// Me loads the caller's user record.
func (s *AuthService) Me(ctx context.Context, id Identity) (model.User, error) {
	u, err := s.users.GetByID(ctx, id.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.User{}, newError(ErrNotFound, "User not found")
		}
		return model.User{}, fmt.Errorf("load user: %w", err)
	}
	return u, nil
}

func (s *AuthService) issue(u model.User) (AuthResult, error) {
	tok, err := utils.NewAccessToken(s.secret, u.ID, u.Email, s.ttl)
	if err != nil {
		return AuthResult{}, fmt.Errorf("sign token: %w", err)
	}
	return AuthResult{User: u, Token: tok.Token, ExpiresAt: tok.Exp}, nil
}

// ResolveOwner returns the email whose data the caller may read.  An empty
// request means the caller's own; anything else must match the caller.
func ResolveOwner(id Identity, requested string) (string, error) {
	requested = NormalizeEmail(requested)
	if requested == "" || requested == id.Email {
		return id.Email, nil
	}
	return "", newError(ErrForbidden, "Access denied")
}
