// Package tutor generates tutor replies through an OpenAI-compatible
// chat-completions endpoint.
package tutor

import "github.com/iliyamo/language-tutor/internal/model"

// SystemInstruction opens every prompt.
const SystemInstruction = "You are a friendly, patient Italian language tutor. " +
	"Answer the learner's questions about Italian grammar, vocabulary and pronunciation, " +
	"and help them practise conversation. Reply in simple Italian followed by an English " +
	"explanation when the learner seems unsure. Gently correct mistakes and keep answers short."

// Message is one entry of a chat-completions prompt.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// BuildPrompt lays out the system instruction, the prior turns (oldest
// first) and the new message.  Tutor turns become assistant turns.
func BuildPrompt(history []model.ChatMessage, message string) []Message {
	out := make([]Message, 0, len(history)+2)
	out = append(out, Message{Role: "system", Content: SystemInstruction})
	for _, m := range history {
		role := "user"
		if m.Role == model.RoleTutor {
			role = "assistant"
		}
		out = append(out, Message{Role: role, Content: m.Message})
	}
	return append(out, Message{Role: "user", Content: message})
}
