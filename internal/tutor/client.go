package tutor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/iliyamo/language-tutor/internal/config"
	"github.com/iliyamo/language-tutor/internal/logger"
	"github.com/iliyamo/language-tutor/internal/metrics"
	"github.com/iliyamo/language-tutor/internal/model"
)

const completionsPath = "/v1/chat/completions"

// maxErrorBody bounds how much of an upstream error body is kept.
const maxErrorBody = 2 << 10

// StatusError is a non-2xx answer from the completion endpoint.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("completion endpoint returned %d: %s", e.Code, e.Message)
}

// Retryable reports whether another attempt may succeed.
func (e *StatusError) Retryable() bool {
	return e.Code == http.StatusTooManyRequests || e.Code >= 500
}

// Client calls the completion endpoint.  Each attempt is bounded by the
// configured timeout; retryable failures are retried MaxRetries times.
type Client struct {
	cfg  config.TutorConfig
	http *http.Client
	log  *logger.Logger

	backoff time.Duration
}

func New(cfg config.TutorConfig, log *logger.Logger) *Client {
	tr := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:   true,
		MaxIdleConns:        20,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}
	return NewWithHTTPClient(cfg, &http.Client{Transport: tr}, log)
}

// NewWithHTTPClient lets tests point the client at a fake server.
func NewWithHTTPClient(cfg config.TutorConfig, hc *http.Client, log *logger.Logger) *Client {
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &Client{cfg: cfg, http: hc, log: log.With("component", "tutor"), backoff: 500 * time.Millisecond}
}

type completionRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens"`
	Temperature float64   `json:"temperature"`
}

// Reply asks the model for the tutor's next turn.
func (c *Client) Reply(ctx context.Context, history []model.ChatMessage, message string) (string, error) {
	start := time.Now()
	body, err := json.Marshal(completionRequest{
		Model:       c.cfg.Model,
		Messages:    BuildPrompt(history, message),
		MaxTokens:   c.cfg.MaxTokens,
		Temperature: c.cfg.Temperature,
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	var text string
	for attempt := 0; ; attempt++ {
		text, err = c.doOnce(ctx, body)
		if err == nil || attempt >= c.cfg.MaxRetries || !retryable(ctx, err) {
			break
		}
		c.log.Debug("retrying completion", "attempt", attempt+1, "err", err)
		select {
		case <-ctx.Done():
			err = ctx.Err()
		case <-time.After(c.backoff):
			continue
		}
		break
	}
	metrics.ObserveTutorReply(err == nil, time.Since(start))
	return text, err
}

func (c *Client) doOnce(ctx context.Context, body []byte) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+completionsPath, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := gjson.GetBytes(raw, "error.message").String()
		if msg == "" {
			msg = strings.TrimSpace(string(raw[:min(len(raw), maxErrorBody)]))
		}
		return "", &StatusError{Code: resp.StatusCode, Message: msg}
	}
	if !gjson.ValidBytes(raw) {
		return "", errors.New("malformed completion response")
	}
	content := gjson.GetBytes(raw, "choices.0.message.content")
	if !content.Exists() || strings.TrimSpace(content.String()) == "" {
		return "", errors.New("completion response has no content")
	}
	return strings.TrimSpace(content.String()), nil
}

// retryable is true for transport failures and 429/5xx answers, but never
// once the caller's context is done.
func retryable(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Retryable()
	}
	var ne net.Error
	if errors.As(err, &ne) {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded) || errors.Is(err, io.ErrUnexpectedEOF)
}
