package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/language-tutor/internal/model"
)

// UserRepo is the credential store.
type UserRepo struct{ DB *sqlx.DB }

func NewUserRepo(db *sqlx.DB) *UserRepo { return &UserRepo{DB: db} }

const userColumns = "id, email, password_hash, full_name, created_at"

// Create inserts u, assigning its ID and CreatedAt.  The email is stored
// lower-cased; a duplicate yields ErrEmailExists.
func (r *UserRepo) Create(ctx context.Context, u *model.User) error {
	id, err := newID()
	if err != nil {
		return err
	}
	u.ID = id
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	u.CreatedAt = now()
	_, err = r.DB.ExecContext(ctx,
		"INSERT INTO users (id, email, password_hash, full_name, created_at) VALUES (?,?,?,?,?)",
		u.ID, u.Email, u.PasswordHash, u.FullName, u.CreatedAt)
	if err != nil {
		if isDuplicate(err) {
			return ErrEmailExists
		}
		return err
	}
	return nil
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	var u model.User
	err := r.DB.GetContext(ctx, &u,
		"SELECT "+userColumns+" FROM users WHERE email=? LIMIT 1", email)
	return u, notFound(err)
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id string) (model.User, error) {
	var u model.User
	err := r.DB.GetContext(ctx, &u,
		"SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id)
	return u, notFound(err)
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}
