package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/language-tutor/internal/model"
)

const progressColumns = "id, user_email, lesson_id, completed, progress_percentage, created_at, updated_at"

// ProgressRepo persists per-(user, lesson) progress rows.
type ProgressRepo struct{ DB *sqlx.DB }

func NewProgressRepo(db *sqlx.DB) *ProgressRepo { return &ProgressRepo{DB: db} }

// Upsert creates the row for (p.UserEmail, p.LessonID) or overwrites its
// completed and progress_percentage.  The unique key on the pair decides
// races: a losing insert gets a duplicate-key error and falls through to
// the update.  p is refreshed from the stored row.
func (r *ProgressRepo) Upsert(ctx context.Context, p *model.UserProgress) (created bool, err error) {
	id, err := newID()
	if err != nil {
		return false, err
	}
	ts := now()
	_, err = r.DB.ExecContext(ctx,
		`INSERT INTO user_progress (id, user_email, lesson_id, completed, progress_percentage, created_at, updated_at)
		 VALUES (?,?,?,?,?,?,?)`,
		id, p.UserEmail, p.LessonID, p.Completed, p.ProgressPercentage, ts, ts)
	switch {
	case err == nil:
		p.ID, p.CreatedAt, p.UpdatedAt = id, ts, ts
		return true, nil
	case isMissingReference(err):
		return false, ErrInvalidReference
	case !isDuplicate(err):
		return false, err
	}

	if _, err := r.DB.ExecContext(ctx,
		"UPDATE user_progress SET completed=?, progress_percentage=?, updated_at=? WHERE user_email=? AND lesson_id=?",
		p.Completed, p.ProgressPercentage, ts, p.UserEmail, p.LessonID); err != nil {
		return false, err
	}
	var stored model.UserProgress
	if err := r.DB.GetContext(ctx, &stored,
		"SELECT "+progressColumns+" FROM user_progress WHERE user_email=? AND lesson_id=? LIMIT 1",
		p.UserEmail, p.LessonID); err != nil {
		return false, notFound(err)
	}
	*p = stored
	return false, nil
}

// List returns the user's progress rows, optionally for one lesson.
func (r *ProgressRepo) List(ctx context.Context, email, lessonID string) ([]model.UserProgress, error) {
	q := "SELECT " + progressColumns + " FROM user_progress WHERE user_email=?"
	args := []interface{}{email}
	if lessonID != "" {
		q += " AND lesson_id=?"
		args = append(args, lessonID)
	}
	q += " ORDER BY created_at ASC, id ASC"
	out := []model.UserProgress{}
	if err := r.DB.SelectContext(ctx, &out, q, args...); err != nil {
		return nil, err
	}
	return out, nil
}

// GetOwned fetches a row by id only if it belongs to email.
func (r *ProgressRepo) GetOwned(ctx context.Context, id, email string) (model.UserProgress, error) {
	var p model.UserProgress
	err := r.DB.GetContext(ctx, &p,
		"SELECT "+progressColumns+" FROM user_progress WHERE id=? AND user_email=? LIMIT 1", id, email)
	return p, notFound(err)
}

// Update writes completed and progress_percentage of an owned row.
func (r *ProgressRepo) Update(ctx context.Context, p *model.UserProgress) error {
	p.UpdatedAt = now()
	res, err := r.DB.ExecContext(ctx,
		"UPDATE user_progress SET completed=?, progress_percentage=?, updated_at=? WHERE id=? AND user_email=?",
		p.Completed, p.ProgressPercentage, p.UpdatedAt, p.ID, p.UserEmail)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}
