package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedact(t *testing.T) {
	in := []interface{}{"email", "a@x.com", "password", "hunter2", "Api_Key", "sk", "count", 3}
	out := redact(in)
	assert.Equal(t, []interface{}{"email", "a@x.com", "password", "[REDACTED]", "Api_Key", "[REDACTED]", "count", 3}, out)
	assert.Equal(t, "hunter2", in[3], "input slice must not be mutated")
}

func TestNewFallsBackToInfo(t *testing.T) {
	l, err := New("development", "not-a-level")
	require.NoError(t, err)
	require.NotNil(t, l)
	l.Info("ok", "k", "v")
	Nop().Warn("discarded")
}
