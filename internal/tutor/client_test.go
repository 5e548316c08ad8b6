package tutor

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/language-tutor/internal/config"
	"github.com/iliyamo/language-tutor/internal/logger"
	"github.com/iliyamo/language-tutor/internal/model"
)

func testConfig(url string) config.TutorConfig {
	return config.TutorConfig{
		APIKey:      "sk-test",
		BaseURL:     url + "/",
		Model:       "gpt-4o-mini",
		MaxTokens:   500,
		Temperature: 0.7,
		Timeout:     2 * time.Second,
		MaxRetries:  1,
	}
}

func newTestClient(srv *httptest.Server) *Client {
	c := NewWithHTTPClient(testConfig(srv.URL), srv.Client(), logger.Nop())
	c.backoff = time.Millisecond
	return c
}

const okBody = `{"choices":[{"message":{"role":"assistant","content":"  Ciao! Come stai?  "}}]}`

func TestReplySendsPromptAndParsesContent(t *testing.T) {
	var got completionRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(okBody))
	}))
	defer srv.Close()

	history := []model.ChatMessage{
		{Role: model.RoleUser, Message: "hello"},
		{Role: model.RoleTutor, Message: "ciao"},
	}
	reply, err := newTestClient(srv).Reply(context.Background(), history, "how are you?")
	require.NoError(t, err)
	assert.Equal(t, "Ciao! Come stai?", reply)

	assert.Equal(t, 500, got.MaxTokens)
	assert.Equal(t, "gpt-4o-mini", got.Model)
	require.Len(t, got.Messages, 4)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Equal(t, Message{Role: "user", Content: "hello"}, got.Messages[1])
	assert.Equal(t, Message{Role: "assistant", Content: "ciao"}, got.Messages[2])
	assert.Equal(t, Message{Role: "user", Content: "how are you?"}, got.Messages[3])
}

func TestReplyRetriesOnceOnServerError(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(okBody))
	}))
	defer srv.Close()

	reply, err := newTestClient(srv).Reply(context.Background(), nil, "ciao")
	require.NoError(t, err)
	assert.Equal(t, "Ciao! Come stai?", reply)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestReplyGivesUpAfterRetry(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"quota exceeded"}}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv).Reply(context.Background(), nil, "ciao")
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusTooManyRequests, se.Code)
	assert.Equal(t, "quota exceeded", se.Message)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestReplyDoesNotRetryClientErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := newTestClient(srv).Reply(context.Background(), nil, "ciao")
	require.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestReplyRejectsMalformedResponses(t *testing.T) {
	for name, body := range map[string]string{
		"not json":   "<html>",
		"no choices": `{"choices":[]}`,
		"empty":      `{"choices":[{"message":{"content":"   "}}]}`,
	} {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(body))
			}))
			defer srv.Close()

			_, err := newTestClient(srv).Reply(context.Background(), nil, "ciao")
			assert.Error(t, err)
		})
	}
}

func TestReplyTimesOut(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.Timeout = 20 * time.Millisecond
	c := NewWithHTTPClient(cfg, srv.Client(), logger.Nop())
	c.backoff = time.Millisecond

	start := time.Now()
	_, err := c.Reply(context.Background(), nil, "ciao")
	require.Error(t, err)
	assert.Less(t, time.Since(start), 900*time.Millisecond)
}
