package model

import "time"

// UserProgress tracks completion of one lesson by one user.  At most one row
// exists per (UserEmail, LessonID).
type UserProgress struct {
	ID                 string    `db:"id" json:"id"`
	UserEmail          string    `db:"user_email" json:"user_email"`
	LessonID           string    `db:"lesson_id" json:"lesson_id"`
	Completed          bool      `db:"completed" json:"completed"`
	ProgressPercentage int       `db:"progress_percentage" json:"progress_percentage"`
	CreatedAt          time.Time `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time `db:"updated_at" json:"updated_at"`
}

// ProgressPatch carries the optional fields of a progress update.  Nil means
// "leave unchanged".
type ProgressPatch struct {
	Completed          *bool
	ProgressPercentage *int
}

// Empty reports whether the patch changes nothing.
func (p ProgressPatch) Empty() bool { return p.Completed == nil && p.ProgressPercentage == nil }
