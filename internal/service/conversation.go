package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/iliyamo/language-tutor/internal/logger"
	"github.com/iliyamo/language-tutor/internal/model"
	"github.com/iliyamo/language-tutor/internal/queue"
	"github.com/iliyamo/language-tutor/internal/repository"
)

// DefaultChatLimit caps a chat listing when the client gives no limit.
const DefaultChatLimit = 100

// DefaultContextTurns is how many prior turns are sent to the generator.
const DefaultContextTurns = 50

// TutorUnavailable is the advisory returned when no reply could be made.
const TutorUnavailable = "Tutor reply is unavailable right now; your message was saved."

// ChatStore is the append-only conversation store.
type ChatStore interface {
	Create(ctx context.Context, m *model.ChatMessage) error
	List(ctx context.Context, scope model.ChatScope, limit int) ([]model.ChatMessage, error)
	Recent(ctx context.Context, scope model.ChatScope, n int) ([]model.ChatMessage, error)
}

// ReplyGenerator produces the tutor's answer to message given the prior
// turns of the conversation, oldest first.
type ReplyGenerator interface {
	Reply(ctx context.Context, history []model.ChatMessage, message string) (string, error)
}

// TurnPublisher receives an event for every stored turn.
type TurnPublisher interface {
	PublishTurn(ctx context.Context, ev queue.ChatTurnEvent) error
}

// TurnInput is a message posted by a client.
type TurnInput struct {
	UserEmail string
	Message   string
	Role      string
	LessonID  string
}

// TurnResult is the outcome of PostTurn.  Generated reports whether a tutor
// reply was attempted; when it was, TutorMessage is nil and Error is set
// on failure.
type TurnResult struct {
	UserMessage  model.ChatMessage
	TutorMessage *model.ChatMessage
	Error        string
	Generated    bool
}

// Conversation records chat turns and, when a generator is configured,
// answers user turns as the tutor.
type Conversation struct {
	chats        ChatStore
	generator    ReplyGenerator
	events       TurnPublisher
	contextTurns int
	log          *logger.Logger
}

// ConversationOption customises a Conversation.
type ConversationOption func(*Conversation)

// WithGenerator enables tutor replies.
func WithGenerator(g ReplyGenerator) ConversationOption {
	return func(c *Conversation) { c.generator = g }
}

// WithPublisher emits a ChatTurnEvent for each stored turn.
func WithPublisher(p TurnPublisher) ConversationOption {
	return func(c *Conversation) { c.events = p }
}

// WithContextTurns bounds the history sent to the generator.
func WithContextTurns(n int) ConversationOption {
	return func(c *Conversation) {
		if n > 0 {
			c.contextTurns = n
		}
	}
}

func NewConversation(chats ChatStore, log *logger.Logger, opts ...ConversationOption) *Conversation {
	c := &Conversation{chats: chats, contextTurns: DefaultContextTurns, log: log.With("component", "conversation")}
	for _, o := range opts {
		o(c)
	}
	return c
}

// PostTurn stores a message and, for user turns with a generator present,
// the tutor's reply.  A failed reply never fails the request: the user's
// message is already stored and the result carries an advisory instead.
func (c *Conversation) PostTurn(ctx context.Context, in TurnInput) (TurnResult, error) {
	text := strings.TrimSpace(in.Message)
	if text == "" {
		return TurnResult{}, FieldErrors{{Field: "message", Message: "is required"}}
	}
	role := model.RoleUser
	if r := strings.ToLower(strings.TrimSpace(in.Role)); r != "" {
		role = model.Role(r)
	}
	if role != model.RoleUser && role != model.RoleTutor {
		return TurnResult{}, FieldErrors{{Field: "role", Message: "must be user or tutor"}}
	}

	scope := model.ChatScope{UserEmail: in.UserEmail, LessonID: strings.TrimSpace(in.LessonID)}
	generate := c.generator != nil && role == model.RoleUser

	// History is read before the new turn is stored so it is not sent twice.
	var history []model.ChatMessage
	if generate {
		var err error
		history, err = c.chats.Recent(ctx, scope, c.contextTurns)
		if err != nil {
			return TurnResult{}, fmt.Errorf("load history: %w", err)
		}
	}

	userMsg := model.ChatMessage{UserEmail: scope.UserEmail, Message: text, Role: role, LessonID: lessonRef(scope.LessonID)}
	if err := c.chats.Create(ctx, &userMsg); err != nil {
		if errors.Is(err, repository.ErrInvalidReference) {
			return TurnResult{}, newError(ErrValidation, "Invalid reference")
		}
		return TurnResult{}, fmt.Errorf("store message: %w", err)
	}
	c.publish(ctx, userMsg, false)

	res := TurnResult{UserMessage: userMsg, Generated: generate}
	if !generate {
		return res, nil
	}

	reply, err := c.generator.Reply(ctx, history, text)
	if err == nil && strings.TrimSpace(reply) == "" {
		err = errors.New("empty reply")
	}
	if err != nil {
		c.log.Warn("tutor reply failed", "user", scope.UserEmail, "lesson_id", scope.LessonID, "err", err)
		res.Error = TutorUnavailable
		return res, nil
	}

	tutorMsg := model.ChatMessage{UserEmail: scope.UserEmail, Message: strings.TrimSpace(reply), Role: model.RoleTutor, LessonID: lessonRef(scope.LessonID)}
	if err := c.chats.Create(ctx, &tutorMsg); err != nil {
		c.log.Warn("storing tutor reply failed", "user", scope.UserEmail, "err", err)
		res.Error = TutorUnavailable
		return res, nil
	}
	c.publish(ctx, tutorMsg, true)
	res.TutorMessage = &tutorMsg
	return res, nil
}

// List returns the scope's messages oldest first.  limit <= 0 returns all.
func (c *Conversation) List(ctx context.Context, scope model.ChatScope, limit int) ([]model.ChatMessage, error) {
	out, err := c.chats.List(ctx, scope, limit)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	return out, nil
}

func (c *Conversation) publish(ctx context.Context, m model.ChatMessage, generated bool) {
	if c.events == nil {
		return
	}
	lesson := ""
	if m.LessonID != nil {
		lesson = *m.LessonID
	}
	ev := queue.ChatTurnEvent{
		MessageID:  m.ID,
		UserEmail:  m.UserEmail,
		Role:       string(m.Role),
		LessonID:   lesson,
		Length:     len([]rune(m.Message)),
		Generated:  generated,
		RecordedAt: m.CreatedAt.UTC().Format(time.RFC3339),
	}
	if err := c.events.PublishTurn(ctx, ev); err != nil {
		c.log.Warn("publish chat turn failed", "message_id", m.ID, "err", err)
	}
}

func lessonRef(id string) *string {
	if id == "" {
		return nil
	}
	return &id
}
