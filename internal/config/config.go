// Package config loads agent settings from defaults, an optional YAML file
// and the environment, in that order.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/aiusd/aiusd-agent/internal/provider"
)

// Config is the full process configuration.
type Config struct {
	Port      string `yaml:"port"`
	LogLevel  string `yaml:"log_level"`
	PublicURL string `yaml:"public_url"`

	LLM      LLMConfig      `yaml:"llm"`
	MCP      MCPConfig      `yaml:"mcp"`
	Agent    AgentConfig    `yaml:"agent"`
	Telegram TelegramConfig `yaml:"telegram"`
	A2A      A2AConfig      `yaml:"a2a"`
}

// LLMConfig selects the model backend.
type LLMConfig struct {
	Provider         string        `yaml:"provider"`
	Model            string        `yaml:"model"`
	MaxTokens        int           `yaml:"max_tokens"`
	Timeout          time.Duration `yaml:"timeout"`
	AnthropicAPIKey  string        `yaml:"anthropic_api_key"`
	AnthropicBaseURL string        `yaml:"anthropic_base_url"`
	OpenAIAPIKey     string        `yaml:"openai_api_key"`
	OpenAIBaseURL    string        `yaml:"openai_base_url"`
}

// MCPConfig points at the custody tool server.
type MCPConfig struct {
	URL       string        `yaml:"url"`
	AuthToken string        `yaml:"auth_token"`
	Timeout   time.Duration `yaml:"timeout"`
}

// AgentConfig bounds the tool loop.
type AgentConfig struct {
	MaxRounds int `yaml:"max_rounds"` // <= 0 means unlimited
}

// TelegramConfig configures the bot front end.
type TelegramConfig struct {
	BotToken     string        `yaml:"bot_token"`
	AllowedUsers []string      `yaml:"allowed_users"`
	TokenStore   string        `yaml:"token_store"` // BoltDB path; empty keeps tokens in memory
	TokenTTL     time.Duration `yaml:"token_ttl"`   // 0 keeps tokens until overwritten
	ChatAPIURL   string        `yaml:"chat_api_url"`
}

// A2AConfig protects the A2A endpoint.
type A2AConfig struct {
	Secret string `yaml:"secret"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Port:     "3001",
		LogLevel: "info",
		LLM: LLMConfig{
			Provider: "claude",
			Timeout:  120 * time.Second,
		},
		MCP: MCPConfig{
			URL:     "http://127.0.0.1:3000/mcp",
			Timeout: 60 * time.Second,
		},
		Agent: AgentConfig{MaxRounds: 5},
		Telegram: TelegramConfig{
			ChatAPIURL: "http://localhost:3001/chat",
		},
	}
}

// Load builds the configuration. path may be empty.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Port = env("PORT", c.Port)
	c.LogLevel = env("LOG_LEVEL", c.LogLevel)
	c.PublicURL = env("PUBLIC_URL", c.PublicURL)

	c.LLM.Provider = env("LLM_PROVIDER", c.LLM.Provider)
	c.LLM.Model = env("LLM_MODEL", c.LLM.Model)
	c.LLM.MaxTokens = envInt("LLM_MAX_TOKENS", c.LLM.MaxTokens)
	c.LLM.Timeout = envDuration("LLM_TIMEOUT", c.LLM.Timeout)
	c.LLM.AnthropicAPIKey = env("ANTHROPIC_API_KEY", c.LLM.AnthropicAPIKey)
	c.LLM.AnthropicBaseURL = env("ANTHROPIC_BASE_URL", c.LLM.AnthropicBaseURL)
	c.LLM.OpenAIAPIKey = env("OPENAI_API_KEY", c.LLM.OpenAIAPIKey)
	c.LLM.OpenAIBaseURL = env("OPENAI_BASE_URL", c.LLM.OpenAIBaseURL)

	c.MCP.URL = env("MCP_URL", c.MCP.URL)
	c.MCP.AuthToken = env("MCP_AUTH_TOKEN", c.MCP.AuthToken)
	c.MCP.Timeout = envDuration("MCP_TIMEOUT", c.MCP.Timeout)

	c.Agent.MaxRounds = envInt("AGENT_MAX_ROUNDS", c.Agent.MaxRounds)

	c.Telegram.BotToken = env("TELEGRAM_BOT_TOKEN", c.Telegram.BotToken)
	if users := envList("TELEGRAM_ALLOWED_USERS", ""); users != nil {
		c.Telegram.AllowedUsers = users
	}
	c.Telegram.TokenStore = env("TELEGRAM_TOKEN_STORE", c.Telegram.TokenStore)
	c.Telegram.TokenTTL = envDuration("TELEGRAM_TOKEN_TTL", c.Telegram.TokenTTL)
	c.Telegram.ChatAPIURL = env("CHAT_API_URL", c.Telegram.ChatAPIURL)

	c.A2A.Secret = env("A2A_SECRET", c.A2A.Secret)
}

// ProviderConfig returns the settings for the selected LLM backend.
func (c *Config) ProviderConfig() provider.Config {
	pc := provider.Config{
		Name:      c.LLM.Provider,
		Model:     c.LLM.Model,
		MaxTokens: c.LLM.MaxTokens,
		Timeout:   c.LLM.Timeout,
	}
	if pc.Kind() == "openai" {
		pc.APIKey = c.LLM.OpenAIAPIKey
		pc.BaseURL = c.LLM.OpenAIBaseURL
	} else {
		pc.APIKey = c.LLM.AnthropicAPIKey
		pc.BaseURL = c.LLM.AnthropicBaseURL
	}
	return pc
}

// Environment reports which settings are present without echoing secrets.
func (c *Config) Environment() map[string]string {
	return map[string]string{
		"mcpUrl":        orNotSet(c.MCP.URL),
		"mcpAuthToken":  setOrNot(c.MCP.AuthToken),
		"llmProvider":   c.ProviderConfig().Kind(),
		"llmModel":      orNotSet(c.LLM.Model),
		"anthropicKey":  setOrNot(c.LLM.AnthropicAPIKey),
		"openaiKey":     setOrNot(c.LLM.OpenAIAPIKey),
		"telegramToken": setOrNot(c.Telegram.BotToken),
		"tokenStore":    orNotSet(c.Telegram.TokenStore),
		"a2aSecret":     setOrNot(c.A2A.Secret),
		"maxRounds":     strconv.Itoa(c.Agent.MaxRounds),
	}
}

func setOrNot(v string) string {
	if v == "" {
		return "Not set"
	}
	return "Set"
}

func orNotSet(v string) string {
	if v == "" {
		return "Not set"
	}
	return v
}

func env(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envList(key, def string) []string {
	v := env(key, def)
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// envDuration accepts whole seconds ("30") or a Go duration ("90s", "24h").
func envDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	return def
}
