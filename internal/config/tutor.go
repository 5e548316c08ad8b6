package config

import (
	"strings"
	"time"
)

// TutorConfig configures the optional reply generator.  An empty APIKey
// disables AI replies; chat then behaves as a plain message log.
type TutorConfig struct {
	APIKey       string
	BaseURL      string
	Model        string
	MaxTokens    int
	Temperature  float64
	Timeout      time.Duration
	MaxRetries   int
	ContextTurns int
}

// Enabled reports whether tutor replies should be generated.
func (t TutorConfig) Enabled() bool { return t.APIKey != "" }

func LoadTutorConfig() TutorConfig {
	t := TutorConfig{
		APIKey:       strings.TrimSpace(envStr("OPENAI_API_KEY", "")),
		BaseURL:      strings.TrimRight(envStr("OPENAI_BASE_URL", "https://api.openai.com"), "/"),
		Model:        envStr("OPENAI_MODEL", "gpt-4o-mini"),
		MaxTokens:    envInt("TUTOR_MAX_TOKENS", 500),
		Temperature:  0.7,
		Timeout:      envDur("TUTOR_TIMEOUT", 30*time.Second),
		MaxRetries:   envInt("TUTOR_MAX_RETRIES", 1),
		ContextTurns: envInt("TUTOR_CONTEXT_TURNS", 50),
	}
	if t.MaxTokens < 1 {
		t.MaxTokens = 500
	}
	if t.Timeout <= 0 {
		t.Timeout = 30 * time.Second
	}
	if t.MaxRetries < 0 {
		t.MaxRetries = 0
	}
	if t.ContextTurns < 0 {
		t.ContextTurns = 0
	}
	return t
}
