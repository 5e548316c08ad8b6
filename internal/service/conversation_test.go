package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/language-tutor/internal/logger"
	"github.com/iliyamo/language-tutor/internal/model"
)

const ann = "ann@example.com"

func TestPostTurnWithoutGeneratorReturnsBareMessage(t *testing.T) {
	chats := newMemChats()
	c := NewConversation(chats, logger.Nop())

	res, err := c.PostTurn(context.Background(), TurnInput{UserEmail: ann, Message: "ciao"})
	require.NoError(t, err)
	assert.False(t, res.Generated)
	assert.Nil(t, res.TutorMessage)
	assert.Equal(t, model.RoleUser, res.UserMessage.Role)
	assert.Len(t, chats.rows, 1)
}

func TestPostTurnGeneratesReply(t *testing.T) {
	ctx := context.Background()
	chats := newMemChats("l1")
	gen := &fakeGenerator{reply: "Ciao! Come stai?"}
	pub := &fakePublisher{}
	c := NewConversation(chats, logger.Nop(), WithGenerator(gen), WithPublisher(pub))

	// Earlier turns in another lesson and for another user stay out of
	// the prompt.
	_, err := NewConversation(chats, logger.Nop()).PostTurn(ctx, TurnInput{UserEmail: ann, Message: "older", LessonID: "l1"})
	require.NoError(t, err)
	_, err = NewConversation(chats, logger.Nop()).PostTurn(ctx, TurnInput{UserEmail: "bob@example.com", Message: "not mine", LessonID: "l1"})
	require.NoError(t, err)

	res, err := c.PostTurn(ctx, TurnInput{UserEmail: ann, Message: " ciao ", LessonID: "l1"})
	require.NoError(t, err)
	require.True(t, res.Generated)
	require.NotNil(t, res.TutorMessage)
	assert.Empty(t, res.Error)

	assert.Equal(t, "ciao", gen.message)
	require.Len(t, gen.history, 1)
	assert.Equal(t, "older", gen.history[0].Message)

	tm := res.TutorMessage
	assert.Equal(t, model.RoleTutor, tm.Role)
	assert.Equal(t, "Ciao! Come stai?", tm.Message)
	require.NotNil(t, tm.LessonID)
	assert.Equal(t, "l1", *tm.LessonID)
	assert.True(t, tm.CreatedAt.After(res.UserMessage.CreatedAt))

	require.Len(t, pub.events, 2)
	assert.Equal(t, "user", pub.events[0].Role)
	assert.False(t, pub.events[0].Generated)
	assert.Equal(t, "tutor", pub.events[1].Role)
	assert.True(t, pub.events[1].Generated)
	assert.Equal(t, "l1", pub.events[1].LessonID)
}

func TestPostTurnGeneratorFailureDegrades(t *testing.T) {
	for name, gen := range map[string]*fakeGenerator{
		"error": {err: errors.New("upstream 503")},
		"empty": {reply: "   "},
	} {
		t.Run(name, func(t *testing.T) {
			chats := newMemChats()
			c := NewConversation(chats, logger.Nop(), WithGenerator(gen))

			res, err := c.PostTurn(context.Background(), TurnInput{UserEmail: ann, Message: "ciao"})
			require.NoError(t, err)
			assert.True(t, res.Generated)
			assert.Nil(t, res.TutorMessage)
			assert.Equal(t, TutorUnavailable, res.Error)
			assert.Len(t, chats.rows, 1)
		})
	}
}

func TestPostTurnTutorRoleSkipsGenerator(t *testing.T) {
	gen := &fakeGenerator{reply: "x"}
	c := NewConversation(newMemChats(), logger.Nop(), WithGenerator(gen))

	res, err := c.PostTurn(context.Background(), TurnInput{UserEmail: ann, Message: "hi", Role: "tutor"})
	require.NoError(t, err)
	assert.False(t, res.Generated)
	assert.Zero(t, gen.calls)
}

func TestPostTurnValidation(t *testing.T) {
	c := NewConversation(newMemChats(), logger.Nop())
	ctx := context.Background()

	_, err := c.PostTurn(ctx, TurnInput{UserEmail: ann, Message: "  "})
	assert.ErrorIs(t, err, ErrValidation)
	_, err = c.PostTurn(ctx, TurnInput{UserEmail: ann, Message: "hi", Role: "admin"})
	assert.ErrorIs(t, err, ErrValidation)
	_, err = c.PostTurn(ctx, TurnInput{UserEmail: ann, Message: "hi", LessonID: "ghost"})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestPostTurnStoreFailurePropagates(t *testing.T) {
	chats := newMemChats()
	chats.failNext = errors.New("db down")
	gen := &fakeGenerator{reply: "x"}
	c := NewConversation(chats, logger.Nop(), WithGenerator(gen))

	_, err := c.PostTurn(context.Background(), TurnInput{UserEmail: ann, Message: "hi"})
	require.Error(t, err)
	assert.Zero(t, gen.calls)
}

func TestPostTurnHistoryBounded(t *testing.T) {
	ctx := context.Background()
	chats := newMemChats()
	plain := NewConversation(chats, logger.Nop())
	for i := 0; i < 8; i++ {
		_, err := plain.PostTurn(ctx, TurnInput{UserEmail: ann, Message: fmt.Sprintf("m%d", i)})
		require.NoError(t, err)
	}

	gen := &fakeGenerator{reply: "ok"}
	c := NewConversation(chats, logger.Nop(), WithGenerator(gen), WithContextTurns(3))
	_, err := c.PostTurn(ctx, TurnInput{UserEmail: ann, Message: "new"})
	require.NoError(t, err)

	require.Len(t, gen.history, 3)
	assert.Equal(t, "m5", gen.history[0].Message)
	assert.Equal(t, "m7", gen.history[2].Message)
}

func TestConversationListIsScopedAndOrdered(t *testing.T) {
	ctx := context.Background()
	chats := newMemChats("l1")
	c := NewConversation(chats, logger.Nop())
	for _, in := range []TurnInput{
		{UserEmail: ann, Message: "one"},
		{UserEmail: ann, Message: "two", LessonID: "l1"},
		{UserEmail: "bob@example.com", Message: "bob"},
		{UserEmail: ann, Message: "three", LessonID: "l1"},
	} {
		_, err := c.PostTurn(ctx, in)
		require.NoError(t, err)
	}

	all, err := c.List(ctx, model.ChatScope{UserEmail: ann}, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	for i := 1; i < len(all); i++ {
		assert.False(t, all[i].CreatedAt.Before(all[i-1].CreatedAt))
	}

	lesson, err := c.List(ctx, model.ChatScope{UserEmail: ann, LessonID: "l1"}, 1)
	require.NoError(t, err)
	require.Len(t, lesson, 1)
	assert.Equal(t, "two", lesson[0].Message)
}
