package provider

import (
	"fmt"
	"net/http"
	"strings"
	"time"
)

const defaultTimeout = 120 * time.Second

// Config selects and configures an LLM backend.
type Config struct {
	Name      string // "claude" (default), "anthropic" or "openai"
	APIKey    string
	BaseURL   string
	Model     string
	MaxTokens int
	Timeout   time.Duration

	// HTTPClient overrides the client built from Timeout.
	HTTPClient *http.Client
}

func (c Config) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &http.Client{Timeout: timeout}
}

// Kind normalizes Name to "anthropic" or "openai".
func (c Config) Kind() string {
	switch strings.ToLower(strings.TrimSpace(c.Name)) {
	case "openai":
		return "openai"
	default:
		return "anthropic"
	}
}

// New builds the provider named by cfg.
func New(cfg Config) (Provider, error) {
	switch cfg.Kind() {
	case "openai":
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY not set")
		}
		return NewOpenAI(cfg), nil
	default:
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("ANTHROPIC_API_KEY not set")
		}
		return NewAnthropic(cfg), nil
	}
}
