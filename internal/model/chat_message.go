package model

import "time"

// Role tags who authored a chat turn.
type Role string

const (
	RoleUser  Role = "user"
	RoleTutor Role = "tutor"
)

// ChatMessage is one append-only turn in a user's conversation.  LessonID
// is a weak reference: deleting the lesson clears it.
type ChatMessage struct {
	ID        string    `db:"id" json:"id"`
	UserEmail string    `db:"user_email" json:"user_email"`
	Message   string    `db:"message" json:"message"`
	Role      Role      `db:"role" json:"role"`
	LessonID  *string   `db:"lesson_id" json:"lesson_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// ChatScope selects the conversation of one user, optionally narrowed to a
// lesson.  An empty LessonID means every message of the user.
type ChatScope struct {
	UserEmail string
	LessonID  string
}
