package model

import (
	"strings"
	"time"
)

// Level is the difficulty band of a lesson.
type Level string

const (
	LevelBeginner     Level = "beginner"
	LevelIntermediate Level = "intermediate"
	LevelAdvanced     Level = "advanced"
)

// ValidLevels lists the accepted levels in display order.
var ValidLevels = []Level{LevelBeginner, LevelIntermediate, LevelAdvanced}

// ParseLevel normalizes a stored level string.  The second result is false
// for empty or unknown values.
func ParseLevel(s string) (Level, bool) {
	l := Level(strings.ToLower(strings.TrimSpace(s)))
	for _, v := range ValidLevels {
		if l == v {
			return l, true
		}
	}
	return l, false
}

// Lesson mirrors the `lessons` table.  Rows arrive from imports and may be
// incomplete; see Issues.
type Lesson struct {
	ID          string    `db:"id" json:"id"`
	Title       string    `db:"title" json:"title"`
	Description string    `db:"description" json:"description"`
	Level       string    `db:"level" json:"level"`
	Topics      Topics    `db:"topics" json:"topics"`
	Duration    string    `db:"duration" json:"duration"`
	Content     string    `db:"content" json:"content"`
	IsSample    bool      `db:"is_sample" json:"is_sample"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// Issues lists the reasons a lesson may not be shown to clients.  An empty
// result means the lesson passes the validity filter.
func (l Lesson) Issues() []string {
	var issues []string
	if strings.TrimSpace(l.Title) == "" {
		issues = append(issues, "missing or empty title")
	}
	if strings.TrimSpace(l.Level) == "" {
		issues = append(issues, "missing or empty level")
	} else if _, ok := ParseLevel(l.Level); !ok {
		issues = append(issues, "invalid level (must be one of: beginner, intermediate, advanced)")
	}
	if strings.TrimSpace(l.Description) == "" {
		issues = append(issues, "missing or empty description")
	}
	return issues
}

// Valid reports whether the lesson passes the validity filter.
func (l Lesson) Valid() bool { return len(l.Issues()) == 0 }
