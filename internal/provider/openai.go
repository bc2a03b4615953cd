package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const (
	defaultOpenAIURL   = "https://aihubmix.com/v1"
	defaultOpenAIModel = "gpt-4o-mini"
)

// OpenAI is an OpenAI-compatible chat-completions provider.
type OpenAI struct {
	apiURL    string
	apiKey    string
	model     string
	maxTokens int
	client    *http.Client
}

// NewOpenAI creates an OpenAI-compatible provider. Empty BaseURL and Model
// fall back to the aihubmix endpoint and gpt-4o-mini.
func NewOpenAI(cfg Config) *OpenAI {
	apiURL := strings.TrimRight(cfg.BaseURL, "/")
	if apiURL == "" {
		apiURL = defaultOpenAIURL
	}
	model := cfg.Model
	if model == "" {
		model = defaultOpenAIModel
	}
	return &OpenAI{
		apiURL:    apiURL,
		apiKey:    cfg.APIKey,
		model:     model,
		maxTokens: cfg.MaxTokens,
		client:    cfg.httpClient(),
	}
}

// Generate sends one chat completion request and returns the next step.
func (o *OpenAI) Generate(ctx context.Context, conv []Message, tools []ToolDefinition) (Step, error) {
	body := chatCompletionRequest{
		Model:    o.model,
		Messages: toWireMessages(conv),
	}
	if len(tools) > 0 {
		body.Tools = tools
		body.ToolChoice = "auto"
	}
	if o.maxTokens > 0 {
		body.MaxTokens = o.maxTokens
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return Step{}, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.apiURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return Step{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if o.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+o.apiKey)
	}

	resp, err := o.client.Do(req)
	if err != nil {
		return Step{}, &ProviderError{Provider: "openai", Message: "request failed", Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return Step{}, &ProviderError{Provider: "openai", StatusCode: resp.StatusCode, Message: "read response", Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Step{}, parseProviderError("openai", resp.StatusCode, data)
	}

	var result chatCompletionResponse
	if err := json.Unmarshal(data, &result); err != nil {
		return Step{}, &ProviderError{Provider: "openai", StatusCode: resp.StatusCode, Message: "malformed response", Raw: string(data), Err: err}
	}

	if len(result.Choices) == 0 {
		return Step{}, &ProviderError{Provider: "openai", StatusCode: resp.StatusCode, Message: "no choices in response", Raw: string(data)}
	}

	msg := result.Choices[0].Message

	// Only the first tool call is honored; the loop runs one tool per round.
	if len(msg.ToolCalls) > 0 {
		tc := msg.ToolCalls[0]
		params := map[string]any{}
		if args := strings.TrimSpace(tc.Function.Arguments); args != "" {
			if err := json.Unmarshal([]byte(args), &params); err != nil {
				return Step{}, &ProviderError{
					Provider:   "openai",
					StatusCode: resp.StatusCode,
					Message:    fmt.Sprintf("invalid arguments for tool %q", tc.Function.Name),
					Raw:        string(data),
					Err:        err,
				}
			}
		}
		return ToolCallStep(tc.ID, tc.Function.Name, params), nil
	}

	var text string
	if msg.Content != nil {
		text = *msg.Content
	}
	return MessageStep(text), nil
}

// toWireMessages converts the conversation into chat-completions messages.
func toWireMessages(conv []Message) []wireMessage {
	out := make([]wireMessage, 0, len(conv))
	for _, m := range conv {
		wm := wireMessage{Role: m.Role}
		switch {
		case m.Role == RoleAssistant && m.Call != nil:
			wm.ToolCalls = []apiToolCall{{
				ID:   m.Call.ID,
				Type: "function",
				Function: apiFunction{
					Name:      m.Call.Name,
					Arguments: m.Call.Arguments,
				},
			}}
		case m.Role == RoleTool:
			content := m.Content
			wm.Content = &content
			wm.ToolCallID = m.ToolCallID
		default:
			content := m.Content
			wm.Content = &content
		}
		out = append(out, wm)
	}
	return out
}

// OpenAI API wire types.
type chatCompletionRequest struct {
	Model      string           `json:"model"`
	Messages   []wireMessage    `json:"messages"`
	Tools      []ToolDefinition `json:"tools,omitempty"`
	ToolChoice string           `json:"tool_choice,omitempty"`
	MaxTokens  int              `json:"max_tokens,omitempty"`
}

// wireMessage keeps Content a pointer so tool-call messages send "content": null.
type wireMessage struct {
	Role       string        `json:"role"`
	Content    *string       `json:"content"`
	ToolCalls  []apiToolCall `json:"tool_calls,omitempty"`
	ToolCallID string        `json:"tool_call_id,omitempty"`
}

type chatCompletionResponse struct {
	Choices []chatChoice `json:"choices"`
}

type chatChoice struct {
	Message      chatMessage `json:"message"`
	FinishReason string      `json:"finish_reason"`
}

type chatMessage struct {
	Role      string        `json:"role"`
	Content   *string       `json:"content"`
	ToolCalls []apiToolCall `json:"tool_calls,omitempty"`
}

type apiToolCall struct {
	ID       string      `json:"id"`
	Type     string      `json:"type"`
	Function apiFunction `json:"function"`
}

type apiFunction struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}
