// Package queue defines the chat-turn event exchanged over the message
// broker, the publisher used by the API server and the consumer that keeps
// the audit log.
package queue

// ChatTurnEvent is published after a chat message is stored.  It carries
// enough to audit the conversation without reading the primary database.
type ChatTurnEvent struct {
	MessageID  string `json:"message_id"`
	UserEmail  string `json:"user_email"`
	Role       string `json:"role"`
	LessonID   string `json:"lesson_id,omitempty"`
	Length     int    `json:"length"`
	Generated  bool   `json:"generated"`
	RecordedAt string `json:"recorded_at"`
}
