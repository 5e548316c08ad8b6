package model

import "time"

// User represents a row in the `users` table.  The password hash never
// leaves the process; handlers render users through the JSON tags, which
// omit it.
type User struct {
	ID           string    `db:"id" json:"id"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	FullName     string    `db:"full_name" json:"full_name"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}
