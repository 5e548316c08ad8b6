package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iliyamo/language-tutor/internal/logger"
)

const (
	defaultDialTimeout = 3 * time.Second
	defaultRedialDelay = 5 * time.Second
)

// ErrBrokerUnavailable is returned while another caller is dialling or a
// recent dial failed.  The event is dropped rather than queued.
var ErrBrokerUnavailable = errors.New("broker unavailable")

// Publisher sends ChatTurnEvents to a durable queue.  The connection is
// opened lazily and re-dialled after it drops, so a broker outage never
// blocks startup.  Only one caller dials at a time and the dial is bounded
// by the caller's deadline; everyone else fails fast.
type Publisher struct {
	url   string
	queue string
	log   *logger.Logger

	dialTimeout time.Duration
	redialDelay time.Duration

	mu      sync.Mutex
	conn    *amqp.Connection
	ch      *amqp.Channel
	dialing bool
	retryAt time.Time
	closed  bool
}

func NewPublisher(url, queue string, log *logger.Logger) *Publisher {
	return &Publisher{
		url:         url,
		queue:       queue,
		log:         log.With("component", "chat-events"),
		dialTimeout: defaultDialTimeout,
		redialDelay: defaultRedialDelay,
	}
}

// PublishTurn marshals and publishes ev as a persistent message.  Errors are
// returned so callers can log and move on.
func (p *Publisher) PublishTurn(ctx context.Context, ev ChatTurnEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	ch, err := p.channel(ctx)
	if err != nil {
		return err
	}
	err = ch.PublishWithContext(ctx, "", p.queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	})
	if err != nil {
		p.mu.Lock()
		if p.ch == ch {
			p.reset()
		}
		p.mu.Unlock()
		return fmt.Errorf("publish: %w", err)
	}
	return nil
}

// channel returns an open channel, dialling when needed.  mu is not held
// while dialling.
func (p *Publisher) channel(ctx context.Context) (*amqp.Channel, error) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, amqp.ErrClosed
	}
	if p.ch != nil && !p.ch.IsClosed() {
		ch := p.ch
		p.mu.Unlock()
		return ch, nil
	}
	if p.dialing || time.Now().Before(p.retryAt) {
		p.mu.Unlock()
		return nil, ErrBrokerUnavailable
	}
	p.reset()
	p.dialing = true
	p.mu.Unlock()

	conn, ch, err := p.dial(ctx)

	p.mu.Lock()
	defer p.mu.Unlock()
	p.dialing = false
	if err != nil {
		p.retryAt = time.Now().Add(p.redialDelay)
		return nil, err
	}
	if p.closed {
		_ = conn.Close()
		return nil, amqp.ErrClosed
	}
	p.conn, p.ch = conn, ch
	p.log.Debug("broker channel opened", "queue", p.queue)
	return ch, nil
}

func (p *Publisher) dial(ctx context.Context) (*amqp.Connection, *amqp.Channel, error) {
	timeout := p.dialTimeout
	if dl, ok := ctx.Deadline(); ok {
		if left := time.Until(dl); left < timeout {
			timeout = left
		}
	}
	if timeout <= 0 {
		return nil, nil, fmt.Errorf("dial broker: %w", context.DeadlineExceeded)
	}

	// DefaultDial also bounds the AMQP handshake, not just the TCP connect.
	conn, err := amqp.DialConfig(p.url, amqp.Config{
		Heartbeat: 10 * time.Second,
		Locale:    "en_US",
		Dial:      amqp.DefaultDial(timeout),
	})
	if err != nil {
		return nil, nil, fmt.Errorf("dial broker: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("open channel: %w", err)
	}
	if _, err := ch.QueueDeclare(p.queue, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, nil, fmt.Errorf("declare queue: %w", err)
	}
	return conn, ch, nil
}

// reset drops the current channel and connection.  Caller holds mu.
func (p *Publisher) reset() {
	if p.ch != nil {
		_ = p.ch.Close()
		p.ch = nil
	}
	if p.conn != nil {
		_ = p.conn.Close()
		p.conn = nil
	}
}

// Close releases the broker connection.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	p.reset()
	return nil
}
