package queue

import (
	"context"
	"io"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/language-tutor/internal/logger"
)

// silentBroker accepts TCP connections and never sends the AMQP handshake.
func silentBroker(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })

	go func() {
		for {
			c, err := ln.Accept()
			if err != nil {
				return
			}
			go func(c net.Conn) {
				_, _ = io.Copy(io.Discard, c)
				_ = c.Close()
			}(c)
		}
	}()
	return "amqp://guest:guest@" + ln.Addr().String() + "/"
}

var turn = ChatTurnEvent{MessageID: "m1", UserEmail: "ann@example.com", Role: "user"}

func TestPublishTurnHonoursCallerDeadline(t *testing.T) {
	p := NewPublisher(silentBroker(t), "chat_turns", logger.Nop())
	defer p.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := p.PublishTurn(ctx, turn)
	require.Error(t, err)
	assert.Less(t, time.Since(start), 2*time.Second)

	// A failed dial is not retried straight away.
	start = time.Now()
	err = p.PublishTurn(context.Background(), turn)
	assert.ErrorIs(t, err, ErrBrokerUnavailable)
	assert.Less(t, time.Since(start), 100*time.Millisecond)
}

func TestPublishTurnDoesNotQueueBehindDial(t *testing.T) {
	p := NewPublisher(silentBroker(t), "chat_turns", logger.Nop())
	p.dialTimeout = time.Second
	defer p.Close()

	done := make(chan error, 1)
	go func() { done <- p.PublishTurn(context.Background(), turn) }()

	require.Eventually(t, func() bool {
		p.mu.Lock()
		defer p.mu.Unlock()
		return p.dialing
	}, time.Second, 5*time.Millisecond)

	start := time.Now()
	err := p.PublishTurn(context.Background(), turn)
	assert.ErrorIs(t, err, ErrBrokerUnavailable)
	assert.Less(t, time.Since(start), 100*time.Millisecond)

	select {
	case err := <-done:
		assert.Error(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("dial did not respect its timeout")
	}
}

func TestPublishAfterClose(t *testing.T) {
	p := NewPublisher("amqp://127.0.0.1:1/", "chat_turns", logger.Nop())
	require.NoError(t, p.Close())
	assert.Error(t, p.PublishTurn(context.Background(), turn))
}
