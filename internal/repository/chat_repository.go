package repository

import (
	"context"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/language-tutor/internal/model"
)

const chatColumns = "id, user_email, message, role, lesson_id, created_at"

// ChatRepo is the append-only conversation store.
type ChatRepo struct{ DB *sqlx.DB }

func NewChatRepo(db *sqlx.DB) *ChatRepo { return &ChatRepo{DB: db} }

// Create appends m, assigning ID and CreatedAt.
func (r *ChatRepo) Create(ctx context.Context, m *model.ChatMessage) error {
	id, err := newID()
	if err != nil {
		return err
	}
	m.ID = id
	m.CreatedAt = now()
	_, err = r.DB.ExecContext(ctx,
		"INSERT INTO chat_messages (id, user_email, message, role, lesson_id, created_at) VALUES (?,?,?,?,?,?)",
		m.ID, m.UserEmail, m.Message, string(m.Role), m.LessonID, m.CreatedAt)
	if err != nil {
		if isMissingReference(err) {
			return ErrInvalidReference
		}
		return err
	}
	return nil
}

// List returns the scope's messages oldest-first, at most limit rows when
// limit > 0.
func (r *ChatRepo) List(ctx context.Context, scope model.ChatScope, limit int) ([]model.ChatMessage, error) {
	where, args := scopeClause(scope)
	q := "SELECT " + chatColumns + " FROM chat_messages WHERE " + where + " ORDER BY created_at ASC, id ASC"
	if limit > 0 {
		q += " LIMIT ?"
		args = append(args, limit)
	}
	out := []model.ChatMessage{}
	if err := r.DB.SelectContext(ctx, &out, q, args...); err != nil {
		return nil, err
	}
	return out, nil
}

// Recent returns the newest n messages of the scope, ordered oldest-first.
func (r *ChatRepo) Recent(ctx context.Context, scope model.ChatScope, n int) ([]model.ChatMessage, error) {
	if n <= 0 {
		return []model.ChatMessage{}, nil
	}
	where, args := scopeClause(scope)
	args = append(args, n)
	out := []model.ChatMessage{}
	err := r.DB.SelectContext(ctx, &out,
		"SELECT "+chatColumns+" FROM chat_messages WHERE "+where+" ORDER BY created_at DESC, id DESC LIMIT ?", args...)
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

func scopeClause(scope model.ChatScope) (string, []interface{}) {
	conds := []string{"user_email = ?"}
	args := []interface{}{scope.UserEmail}
	if scope.LessonID != "" {
		conds = append(conds, "lesson_id = ?")
		args = append(args, scope.LessonID)
	}
	return strings.Join(conds, " AND "), args
}
