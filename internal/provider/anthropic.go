package provider

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const (
	defaultAnthropicModel     = "claude-3-5-haiku-latest"
	defaultAnthropicMaxTokens = 1024
)

// Anthropic is a Messages API provider backed by anthropic-sdk-go.
type Anthropic struct {
	client    anthropic.Client
	model     string
	maxTokens int64
}

// NewAnthropic creates an Anthropic provider. SDK retries are disabled:
// a failed call surfaces immediately as a ProviderError.
func NewAnthropic(cfg Config) *Anthropic {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
		option.WithHTTPClient(cfg.httpClient()),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	model := cfg.Model
	if model == "" {
		model = defaultAnthropicModel
	}
	maxTokens := int64(cfg.MaxTokens)
	if maxTokens <= 0 {
		maxTokens = defaultAnthropicMaxTokens
	}

	return &Anthropic{
		client:    anthropic.NewClient(opts...),
		model:     model,
		maxTokens: maxTokens,
	}
}

// Generate sends the conversation to the Messages API and returns the next step.
// A tool_use block takes priority over text.
func (a *Anthropic) Generate(ctx context.Context, conv []Message, tools []ToolDefinition) (Step, error) {
	messages, system := toAnthropicMessages(conv)

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(a.model),
		MaxTokens: a.maxTokens,
		Messages:  messages,
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}
	if len(tools) > 0 {
		params.Tools = toAnthropicTools(tools)
	}

	resp, err := a.client.Messages.New(ctx, params)
	if err != nil {
		var apiErr *anthropic.Error
		if errors.As(err, &apiErr) {
			pe := parseProviderError("anthropic", apiErr.StatusCode, []byte(apiErr.RawJSON()))
			pe.Err = err
			return Step{}, pe
		}
		return Step{}, &ProviderError{Provider: "anthropic", Message: "request failed", Err: err}
	}

	var text *string
	for _, block := range resp.Content {
		switch b := block.AsAny().(type) {
		case anthropic.ToolUseBlock:
			params := map[string]any{}
			if len(b.Input) > 0 {
				if err := json.Unmarshal(b.Input, &params); err != nil {
					return Step{}, &ProviderError{
						Provider:   "anthropic",
						StatusCode: 200,
						Message:    "invalid tool_use input for " + b.Name,
						Raw:        resp.RawJSON(),
						Err:        err,
					}
				}
			}
			return ToolCallStep(b.ID, b.Name, params), nil
		case anthropic.TextBlock:
			if text == nil {
				t := b.Text
				text = &t
			}
		}
	}

	if text == nil {
		return Step{}, &ProviderError{
			Provider:   "anthropic",
			StatusCode: 200,
			Message:    "no supported content block in response",
			Raw:        resp.RawJSON(),
		}
	}
	return MessageStep(*text), nil
}

// toAnthropicMessages maps the conversation onto Messages API turns.
// System messages are joined into the system prompt; tool results travel
// as user turns holding a tool_result block.
func toAnthropicMessages(conv []Message) ([]anthropic.MessageParam, string) {
	var (
		out    []anthropic.MessageParam
		system []string
	)
	for _, m := range conv {
		switch m.Role {
		case RoleSystem:
			system = append(system, m.Content)
		case RoleAssistant:
			if m.Call != nil {
				input := json.RawMessage(m.Call.Arguments)
				if len(input) == 0 {
					input = json.RawMessage(`{}`)
				}
				out = append(out, anthropic.MessageParam{
					Role: anthropic.MessageParamRoleAssistant,
					Content: []anthropic.ContentBlockParamUnion{{
						OfToolUse: &anthropic.ToolUseBlockParam{
							ID:    m.Call.ID,
							Name:  m.Call.Name,
							Input: input,
						},
					}},
				})
				continue
			}
			if m.Content != "" {
				out = append(out, anthropic.NewAssistantMessage(anthropic.NewTextBlock(m.Content)))
			}
		case RoleTool:
			out = append(out, anthropic.MessageParam{
				Role: anthropic.MessageParamRoleUser,
				Content: []anthropic.ContentBlockParamUnion{{
					OfToolResult: &anthropic.ToolResultBlockParam{
						ToolUseID: m.ToolCallID,
						Content: []anthropic.ToolResultBlockParamContentUnion{{
							OfText: &anthropic.TextBlockParam{Text: m.Content},
						}},
					},
				}},
			})
		default:
			if m.Content != "" {
				out = append(out, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))
			}
		}
	}
	return out, strings.Join(system, "\n\n")
}

func toAnthropicTools(tools []ToolDefinition) []anthropic.ToolUnionParam {
	out := make([]anthropic.ToolUnionParam, 0, len(tools))
	for _, t := range tools {
		schema := anthropic.ToolInputSchemaParam{Properties: map[string]any{}}
		if props, ok := t.Function.Parameters["properties"]; ok && props != nil {
			schema.Properties = props
		}
		if req, ok := t.Function.Parameters["required"].([]string); ok && len(req) > 0 {
			schema.Required = req
		}
		out = append(out, anthropic.ToolUnionParam{OfTool: &anthropic.ToolParam{
			Name:        t.Function.Name,
			Description: anthropic.String(t.Function.Description),
			InputSchema: schema,
		}})
	}
	return out
}
